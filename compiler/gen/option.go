package gen

import (
	"errors"

	"github.com/syssam/forge/plugin"
)

// RuntimePkg is the import path of the shared builder runtime that generated
// code depends on.
const RuntimePkg = "github.com/syssam/forge/fluent"

// Config controls builder generation. Options alter surface formatting and
// policy only; they never affect the structural correctness of the emitted
// builders.
type Config struct {
	// Package is the output package name.
	Package string
	// Header is the generated-file header comment.
	Header string
	// UseDefaults makes optional properties receive a generated placeholder
	// default instead of requiring an explicit setter call.
	UseDefaults bool
	// AddComments emits doc comments on generated builders and setters.
	AddComments bool
	// GeneratingMultiple marks the output as part of a multi-target batch
	// sharing one package: dependency types appearing in several closures
	// are emitted by exactly one file of the batch.
	GeneratingMultiple bool
	// EmitValueTypes emits the value struct next to each builder. Disable
	// it when the target types already exist in the output package.
	EmitValueTypes bool
	// SetterPrefix prefixes plain property setters (default "Set").
	SetterPrefix string
	// BuilderSuffix suffixes builder type names (default "Builder").
	BuilderSuffix string
	// Pipeline holds the plugin pipeline consulted for generation hooks.
	Pipeline *plugin.Pipeline
	// Imports maps externally defined type names to the import path their
	// builders and value types come from.
	Imports map[string]string
}

// Option configures code generation.
type Option func(*Config) error

// WithPackage sets the output package name.
func WithPackage(pkg string) Option {
	return func(c *Config) error {
		if pkg == "" {
			return NewConfigError("Package", nil, "package cannot be empty")
		}
		c.Package = pkg
		return nil
	}
}

// WithHeader sets the file header comment added at the top of each
// generated file.
func WithHeader(header string) Option {
	return func(c *Config) error {
		c.Header = header
		return nil
	}
}

// WithDefaults controls whether optional properties receive generated
// placeholder defaults at build time.
func WithDefaults(enabled bool) Option {
	return func(c *Config) error {
		c.UseDefaults = enabled
		return nil
	}
}

// WithComments controls doc comment emission on generated builders.
func WithComments(enabled bool) Option {
	return func(c *Config) error {
		c.AddComments = enabled
		return nil
	}
}

// WithMultipleTargets marks the output as one unit of a multi-target batch.
func WithMultipleTargets(enabled bool) Option {
	return func(c *Config) error {
		c.GeneratingMultiple = enabled
		return nil
	}
}

// WithoutValueTypes suppresses value struct emission for targets whose types
// already exist in the output package.
func WithoutValueTypes() Option {
	return func(c *Config) error {
		c.EmitValueTypes = false
		return nil
	}
}

// WithSetterPrefix sets the naming prefix of plain property setters.
func WithSetterPrefix(prefix string) Option {
	return func(c *Config) error {
		c.SetterPrefix = prefix
		return nil
	}
}

// WithBuilderSuffix sets the naming suffix of builder types.
func WithBuilderSuffix(suffix string) Option {
	return func(c *Config) error {
		if suffix == "" {
			return NewConfigError("BuilderSuffix", nil, "suffix cannot be empty")
		}
		c.BuilderSuffix = suffix
		return nil
	}
}

// WithPipeline installs the plugin pipeline consulted for generation hooks.
func WithPipeline(p *plugin.Pipeline) Option {
	return func(c *Config) error {
		c.Pipeline = p
		return nil
	}
}

// WithImport maps an externally defined type name to its import path.
func WithImport(symbol, fromPath string) Option {
	return func(c *Config) error {
		if symbol == "" || fromPath == "" {
			return NewConfigError("Imports", symbol, "symbol and path must be non-empty")
		}
		if c.Imports == nil {
			c.Imports = make(map[string]string)
		}
		c.Imports[symbol] = fromPath
		return nil
	}
}

// Apply applies options to the config. It returns the first error
// encountered.
func (c *Config) Apply(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return err
		}
	}
	return nil
}

// ApplyAll applies options and collects all errors.
func (c *Config) ApplyAll(opts ...Option) error {
	var errs []error
	for _, opt := range opts {
		if err := opt(c); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NewConfig creates a Config with defaults applied, then the given options.
func NewConfig(opts ...Option) (*Config, error) {
	c := &Config{
		Package:        "builders",
		Header:         "Code generated by forge. DO NOT EDIT.",
		EmitValueTypes: true,
		SetterPrefix:   "Set",
		BuilderSuffix:  "Builder",
	}
	if err := c.Apply(opts...); err != nil {
		return nil, err
	}
	return c, nil
}

// MustNewConfig creates a Config and panics if any option fails.
func MustNewConfig(opts ...Option) *Config {
	c, err := NewConfig(opts...)
	if err != nil {
		panic(err)
	}
	return c
}
