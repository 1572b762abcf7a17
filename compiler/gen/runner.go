package gen

import (
	"context"
	"runtime"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/syssam/forge/compiler/resolve"
	"github.com/syssam/forge/typegraph"
)

// Target names one type to resolve and generate: the file it is declared in,
// its name, optional type arguments for generic instantiation, and the
// relative path the output should be written to. An empty OutputPath keeps
// the result in memory only.
type Target struct {
	File       string
	Type       string
	TypeArgs   []*typegraph.TypeInfo
	OutputPath string
}

// Result pairs a target with its generation output.
type Result struct {
	Target Target
	Output *Output
}

// Runner resolves and generates a batch of targets in parallel. Targets are
// independent units: each one resolves its own dependency closure and renders
// its own file.
type Runner struct {
	resolver *resolve.Resolver
	cfg      *Config
	writer   *Writer
	log      *zap.Logger
	workers  int
}

// NewRunner creates a runner. The writer may be nil when callers only want
// in-memory results, and a nil logger disables logging.
func NewRunner(r *resolve.Resolver, cfg *Config, w *Writer, log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{
		resolver: r,
		cfg:      cfg,
		writer:   w,
		log:      log,
		workers:  runtime.GOMAXPROCS(0),
	}
}

// WithWorkers sets the number of parallel generation workers.
func (r *Runner) WithWorkers(n int) *Runner {
	if n > 0 {
		r.workers = n
	}
	return r
}

// Run processes every target and returns the results in target order. The
// first failure cancels the remaining units.
//
// Resolution and generation both fan out in parallel. Between the two phases,
// a multi-target batch assigns every shared dependency type to the first
// target whose closure contains it, so sibling files of one package never
// declare the same type twice.
func (r *Runner) Run(ctx context.Context, targets []Target) ([]Result, error) {
	graphs := make([]*typegraph.ResolvedType, len(targets))

	eg, rctx := errgroup.WithContext(ctx)
	eg.SetLimit(r.workers)
	for i, t := range targets {
		eg.Go(func() error {
			select {
			case <-rctx.Done():
				return rctx.Err()
			default:
			}
			rt, err := r.resolve(t)
			if err != nil {
				return err
			}
			graphs[i] = rt
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	skips := r.claim(graphs)

	results := make([]Result, len(targets))
	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(r.workers)
	for i, t := range targets {
		eg.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			out, err := r.generateOne(t, graphs[i], skips[i])
			if err != nil {
				return err
			}
			results[i] = Result{Target: t, Output: out}
			if r.writer != nil && t.OutputPath != "" {
				return r.writer.Write(t.OutputPath, out)
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// claim partitions closure keys across batch files in target order. Outside
// multi-target batches every file keeps its full closure.
func (r *Runner) claim(graphs []*typegraph.ResolvedType) []map[string]bool {
	skips := make([]map[string]bool, len(graphs))
	if r.cfg == nil || !r.cfg.GeneratingMultiple || len(graphs) < 2 {
		return skips
	}
	claimed := make(map[string]bool)
	for i, rt := range graphs {
		skip := make(map[string]bool)
		for _, key := range rt.Order {
			if claimed[key] {
				skip[key] = true
			} else {
				claimed[key] = true
			}
		}
		skips[i] = skip
	}
	return skips
}

func (r *Runner) resolve(t Target) (*typegraph.ResolvedType, error) {
	start := time.Now()
	rt, err := r.resolver.Resolve(t.File, t.Type, t.TypeArgs...)
	if err != nil {
		return nil, NewGenerationError(t.Type, "resolve", err)
	}
	r.log.Debug("type resolved",
		zap.String("file", t.File),
		zap.String("type", t.Type),
		zap.Int("closure", len(rt.Order)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return rt, nil
}

func (r *Runner) generateOne(t Target, rt *typegraph.ResolvedType, skip map[string]bool) (*Output, error) {
	start := time.Now()
	out, err := generate(rt, r.cfg, skip)
	if err != nil {
		return nil, err
	}
	r.log.Debug("builder generated",
		zap.String("type", t.Type),
		zap.String("builder", out.BuilderName),
		zap.Int("bytes", len(out.SourceText)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return out, nil
}
