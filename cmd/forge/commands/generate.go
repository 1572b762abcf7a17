package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-openapi/inflect"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/syssam/forge/compiler/gen"
	"github.com/syssam/forge/compiler/load"
	"github.com/syssam/forge/compiler/resolve"
	"github.com/syssam/forge/typegraph"
)

var (
	genSchemas     []string
	genGoPackages  []string
	genTypes       []string
	genOut         string
	genPackage     string
	genUseDefaults bool
	genComments    bool
	genStrict      bool
	genWorkers     int
	genWatch       bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Resolve types and generate their fluent builders",
	Long: `Resolve each requested type into its dependency closure and generate
one self-contained file of fluent builders per type.

Types are addressed as "file:Name" against YAML schemas, or "pkg:Name"
against loaded Go packages. A bare name is looked up in the single loaded
source file or package. Generic types instantiate through angle brackets:
"schema.yaml:Box<string>".

Examples:
  forge generate -s schema.yaml -t User
  forge generate -s api.yaml -s model.yaml -t api.yaml:Request -o gen
  forge generate -g ./internal/model -t Config --package model_builders
  forge generate -s schema.yaml -t User --watch`,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringSliceVarP(&genSchemas, "schema", "s", nil, "YAML schema files to load")
	generateCmd.Flags().StringSliceVarP(&genGoPackages, "go-package", "g", nil, "Go package patterns to load declarations from")
	generateCmd.Flags().StringSliceVarP(&genTypes, "type", "t", nil, "Types to generate builders for (file:Name)")
	generateCmd.Flags().StringVarP(&genOut, "out", "o", "builders", "Output directory")
	generateCmd.Flags().StringVarP(&genPackage, "package", "p", "builders", "Package name for generated files")
	generateCmd.Flags().BoolVar(&genUseDefaults, "use-defaults", false, "Assign placeholder defaults to unset optional properties")
	generateCmd.Flags().BoolVar(&genComments, "comments", true, "Emit doc comments in generated code")
	generateCmd.Flags().BoolVar(&genStrict, "strict", false, "Fail on unsupported type shapes instead of degrading them")
	generateCmd.Flags().IntVarP(&genWorkers, "workers", "w", 0, "Parallel generation workers (default: GOMAXPROCS)")
	generateCmd.Flags().BoolVar(&genWatch, "watch", false, "Watch schema files and regenerate on change")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	if len(genTypes) == 0 {
		return fmt.Errorf("at least one --type is required")
	}
	if len(genSchemas) == 0 && len(genGoPackages) == 0 {
		return fmt.Errorf("either --schema or --go-package is required")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := generateOnce(ctx); err != nil {
		return err
	}
	if !genWatch {
		return nil
	}
	return watchAndRegenerate(ctx)
}

// generateOnce loads sources fresh, resolves every target and writes the
// outputs. Watch mode calls it again on every change, so nothing is cached
// across runs.
func generateOnce(ctx context.Context) error {
	source, err := buildSource()
	if err != nil {
		return err
	}
	targets, err := buildTargets(source)
	if err != nil {
		return err
	}

	var ropts []resolve.Option
	ropts = append(ropts, resolve.WithCache(resolve.NewCache()))
	if genStrict {
		ropts = append(ropts, resolve.WithStrictShapes())
	}
	resolver := resolve.New(source, ropts...)

	cfg, err := gen.NewConfig(
		gen.WithPackage(genPackage),
		gen.WithComments(genComments),
		gen.WithDefaults(genUseDefaults),
		gen.WithMultipleTargets(len(targets) > 1),
	)
	if err != nil {
		return err
	}

	start := time.Now()
	runner := gen.NewRunner(resolver, cfg, gen.NewWriter(genOut), log).WithWorkers(genWorkers)
	results, err := runner.Run(ctx, targets)
	if err != nil {
		return err
	}
	for _, res := range results {
		log.Info("builder written",
			zap.String("type", res.Target.Type),
			zap.String("builder", res.Output.BuilderName),
			zap.String("path", res.Target.OutputPath),
		)
	}
	log.Info("generation complete",
		zap.Int("targets", len(results)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}

func buildSource() (load.Source, error) {
	if len(genGoPackages) > 0 {
		if len(genSchemas) > 0 {
			return nil, fmt.Errorf("--schema and --go-package are mutually exclusive")
		}
		return load.LoadPackages(genGoPackages...)
	}
	source := load.NewYAMLSource()
	for _, path := range genSchemas {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read schema %s: %w", path, err)
		}
		if err := source.AddFile(path, data); err != nil {
			return nil, err
		}
	}
	return source, nil
}

// buildTargets parses the --type arguments. A bare name is only unambiguous
// when a single source file or package was loaded.
func buildTargets(source load.Source) ([]gen.Target, error) {
	single := ""
	if len(genSchemas) == 1 {
		single = genSchemas[0]
	}
	if ps, ok := source.(*load.PackageSource); ok {
		if pkgs := ps.Packages(); len(pkgs) == 1 {
			single = pkgs[0]
		}
	}

	targets := make([]gen.Target, 0, len(genTypes))
	for _, spec := range genTypes {
		file, name := single, spec
		if i := strings.LastIndex(spec, ":"); i >= 0 {
			file, name = spec[:i], spec[i+1:]
		}
		if file == "" {
			return nil, fmt.Errorf("type %q needs a file qualifier (file:Name) when multiple sources are loaded", spec)
		}
		base, args, err := parseTypeArgs(name)
		if err != nil {
			return nil, err
		}
		targets = append(targets, gen.Target{
			File:       file,
			Type:       base,
			TypeArgs:   args,
			OutputPath: outputName(name),
		})
	}
	return targets, nil
}

// parseTypeArgs splits "Box<string>" into the base name and its type
// arguments. Only primitive arguments can be spelled on the command line;
// richer instantiations go through the library API.
func parseTypeArgs(name string) (string, []*typegraph.TypeInfo, error) {
	open := strings.IndexByte(name, '<')
	if open < 0 {
		return name, nil, nil
	}
	if !strings.HasSuffix(name, ">") {
		return "", nil, fmt.Errorf("malformed type instantiation %q", name)
	}
	var args []*typegraph.TypeInfo
	for _, raw := range strings.Split(name[open+1:len(name)-1], ",") {
		arg := strings.TrimSpace(raw)
		if !resolve.IsPrimitiveName(arg) {
			return "", nil, fmt.Errorf("type argument %q in %s: only primitive arguments can be spelled on the command line", arg, name)
		}
		args = append(args, typegraph.Primitive(arg))
	}
	return name[:open], args, nil
}

func outputName(name string) string {
	clean := strings.NewReplacer("<", "_", ">", "", ",", "_", " ", "").Replace(name)
	return inflect.Underscore(clean) + ".go"
}

// watchAndRegenerate reruns generation whenever a schema file changes,
// debouncing rapid write bursts.
func watchAndRegenerate(ctx context.Context) error {
	if len(genSchemas) == 0 {
		return fmt.Errorf("--watch requires YAML schemas")
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	for _, path := range genSchemas {
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
	}
	log.Info("watching for schema changes", zap.Strings("files", genSchemas))

	const debounce = 500 * time.Millisecond
	var timer *time.Timer
	rerun := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			log.Debug("schema changed",
				zap.String("file", event.Name),
				zap.String("op", event.Op.String()),
			)
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, func() {
				select {
				case rerun <- struct{}{}:
				default:
				}
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("watcher error", zap.Error(err))
		case <-rerun:
			if err := generateOnce(ctx); err != nil {
				// Keep watching: a broken intermediate save should not
				// kill the session.
				log.Error("regeneration failed", zap.Error(err))
			}
		}
	}
}
