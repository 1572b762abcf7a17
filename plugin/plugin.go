// Package plugin provides the extension pipeline for resolution and
// generation. Plugins register in order; at each extension point the hooks
// are consulted in registration order and the first hook whose matcher
// matches the node and whose handler returns a non-empty override wins.
//
// A plugin implements the capabilities it cares about: ResolutionHook,
// GenerationHook, either, both, or neither. Capabilities are detected by
// type assertion at dispatch time.
package plugin

import (
	"errors"
	"fmt"

	"github.com/syssam/forge/compiler/load"
	"github.com/syssam/forge/typegraph"
	"github.com/syssam/forge/typegraph/matcher"
)

// ErrPlugin is the sentinel for hook failures.
var ErrPlugin = errors.New("forge: plugin failed")

// Plugin is the base interface every pipeline entry implements.
type Plugin interface {
	// Name identifies the plugin in diagnostics and error attribution.
	Name() string
}

// ResolutionHook lets a plugin replace a type graph node while the resolver
// is finalizing it. Returning nil means no override; the node passed in must
// not be mutated.
type ResolutionHook interface {
	Plugin

	// ResolveMatcher selects which nodes the hook applies to.
	ResolveMatcher() matcher.Matcher

	// RewriteResolve may return a replacement node for the in-progress one.
	// The raw declaration that produced the node is provided for context.
	RewriteResolve(decl *load.Declaration, node *typegraph.TypeInfo) (*typegraph.TypeInfo, error)
}

// GenerationHook lets a plugin override the default-value expression the
// generator emits for a matching node. Returning "" means no override.
type GenerationHook interface {
	Plugin

	// GenerateMatcher selects which nodes the hook applies to.
	GenerateMatcher() matcher.Matcher

	// RewriteValue returns the source expression to emit as the node's
	// default value, or "" to leave the default behavior in place.
	RewriteValue(node *typegraph.TypeInfo) (string, error)
}

// PluginError wraps a hook failure with the identifying name of the plugin
// that raised it. Hook failures are never swallowed.
type PluginError struct {
	Plugin  string
	Matcher string
	Cause   error
}

// Error implements the error interface.
func (e *PluginError) Error() string {
	msg := fmt.Sprintf("forge: plugin %q failed", e.Plugin)
	if e.Matcher != "" {
		msg += " (matching " + e.Matcher + ")"
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *PluginError) Unwrap() error { return e.Cause }

// Is reports whether the target matches the plugin sentinel error.
func (e *PluginError) Is(target error) bool { return target == ErrPlugin }

// NewPluginError creates a PluginError attributed to the named plugin.
func NewPluginError(plugin, matcherDesc string, cause error) *PluginError {
	return &PluginError{Plugin: plugin, Matcher: matcherDesc, Cause: cause}
}

// IsPluginError reports whether the error is a PluginError.
func IsPluginError(err error) bool {
	var pe *PluginError
	return errors.As(err, &pe)
}

// Pipeline is an ordered set of plugins. The zero value is usable and acts
// as an empty pipeline. Pipelines are append-only: register everything
// before handing the pipeline to a resolver or generator.
type Pipeline struct {
	plugins []Plugin
}

// NewPipeline creates a pipeline with the given plugins, in order.
func NewPipeline(plugins ...Plugin) *Pipeline {
	return &Pipeline{plugins: plugins}
}

// Register appends plugins to the pipeline.
func (p *Pipeline) Register(plugins ...Plugin) *Pipeline {
	p.plugins = append(p.plugins, plugins...)
	return p
}

// Len returns the number of registered plugins.
func (p *Pipeline) Len() int {
	if p == nil {
		return 0
	}
	return len(p.plugins)
}

// ApplyResolve consults resolution hooks for the given node. It returns the
// first non-nil override, or nil when no hook matched or overrode. Hooks do
// not stack: the first override short-circuits the rest of the pipeline.
func (p *Pipeline) ApplyResolve(decl *load.Declaration, node *typegraph.TypeInfo) (*typegraph.TypeInfo, error) {
	if p == nil {
		return nil, nil
	}
	for _, pl := range p.plugins {
		hook, ok := pl.(ResolutionHook)
		if !ok {
			continue
		}
		m := hook.ResolveMatcher()
		if m != nil && !m.Match(node) {
			continue
		}
		out, err := hook.RewriteResolve(decl, node)
		if err != nil {
			return nil, NewPluginError(pl.Name(), describe(m), err)
		}
		if out != nil {
			return out, nil
		}
	}
	return nil, nil
}

// ApplyValue consults generation hooks for the given node and returns the
// first non-empty default-value override.
func (p *Pipeline) ApplyValue(node *typegraph.TypeInfo) (string, error) {
	if p == nil {
		return "", nil
	}
	for _, pl := range p.plugins {
		hook, ok := pl.(GenerationHook)
		if !ok {
			continue
		}
		m := hook.GenerateMatcher()
		if m != nil && !m.Match(node) {
			continue
		}
		out, err := hook.RewriteValue(node)
		if err != nil {
			return "", NewPluginError(pl.Name(), describe(m), err)
		}
		if out != "" {
			return out, nil
		}
	}
	return "", nil
}

func describe(m matcher.Matcher) string {
	if m == nil {
		return ""
	}
	return m.Describe()
}
