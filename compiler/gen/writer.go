package gen

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/tools/imports"
)

// Writer persists generation outputs to disk with parallel execution and
// optimized formatting (go/format pipeline instead of a goimports CLI call).
type Writer struct {
	outDir  string
	workers int

	// Metrics for performance monitoring
	mu      sync.Mutex
	metrics WriterMetrics
}

// WriterMetrics tracks write performance.
type WriterMetrics struct {
	FilesWritten int
	TotalBytes   int64
}

// NewWriter creates a writer rooted at outDir.
func NewWriter(outDir string) *Writer {
	return &Writer{
		outDir:  outDir,
		workers: runtime.GOMAXPROCS(0),
	}
}

// WithWorkers sets the number of parallel workers.
func (w *Writer) WithWorkers(n int) *Writer {
	if n > 0 {
		w.workers = n
	}
	return w
}

// Metrics returns a snapshot of the write metrics.
func (w *Writer) Metrics() WriterMetrics {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.metrics
}

// Write formats one output and writes it to name, relative to the writer's
// output directory.
func (w *Writer) Write(name string, out *Output) error {
	fullPath := filepath.Join(w.outDir, name)

	// Format using the goimports library: removes unused imports and
	// resolves any the emitter missed.
	formatted, err := imports.Process(fullPath, []byte(out.SourceText), nil)
	if err != nil {
		// Write the unformatted text for debugging (errors intentionally
		// ignored as we're already in error state).
		debugPath := fullPath + ".error"
		_ = os.MkdirAll(filepath.Dir(debugPath), 0o755)
		_ = os.WriteFile(debugPath, []byte(out.SourceText), 0o644)
		return fmt.Errorf("format %s: %w (unformatted written to %s)", name, err, debugPath)
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", name, err)
	}
	if err := os.WriteFile(fullPath, formatted, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}

	w.mu.Lock()
	w.metrics.FilesWritten++
	w.metrics.TotalBytes += int64(len(formatted))
	w.mu.Unlock()

	return nil
}

// WriteAll writes every output in parallel, keyed by its relative path.
func (w *Writer) WriteAll(ctx context.Context, files map[string]*Output) error {
	if err := os.MkdirAll(w.outDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(w.workers)

	for name, out := range files {
		eg.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
				return w.Write(name, out)
			}
		})
	}

	return eg.Wait()
}
