// Package fluent is the runtime support package imported by generated
// builders. It is intentionally small: generated code carries its own
// structure and only reaches here for shared error and deferred-build
// plumbing, so one import serves every builder in an output unit.
package fluent

import (
	"errors"
	"strings"
)

// ErrIncompleteBuild indicates a terminal build call on a builder with
// required properties that were never set and had no applicable default.
var ErrIncompleteBuild = errors.New("forge: incomplete build")

// IncompleteBuildError reports which required properties of a type were
// missing when Build was called.
type IncompleteBuildError struct {
	// Type is the name of the type being built.
	Type string
	// Missing holds the names of the unset required properties, in the
	// property declaration order of the type.
	Missing []string
}

// Error implements the error interface.
func (e *IncompleteBuildError) Error() string {
	var b strings.Builder
	b.WriteString("forge: incomplete build")
	if e.Type != "" {
		b.WriteString(" of ")
		b.WriteString(e.Type)
	}
	if len(e.Missing) > 0 {
		b.WriteString(": missing ")
		b.WriteString(strings.Join(e.Missing, ", "))
	}
	return b.String()
}

// Is reports whether the target matches the incomplete-build sentinel.
func (e *IncompleteBuildError) Is(target error) bool {
	return target == ErrIncompleteBuild
}

// NewIncompleteBuild creates an IncompleteBuildError for the given type and
// missing property names.
func NewIncompleteBuild(typeName string, missing ...string) *IncompleteBuildError {
	return &IncompleteBuildError{Type: typeName, Missing: missing}
}

// IsIncompleteBuild reports whether the error is an IncompleteBuildError.
func IsIncompleteBuild(err error) bool {
	var ibe *IncompleteBuildError
	return errors.As(err, &ibe)
}

// BuildFunc is a deferred nested build. Generated builders store one per
// configured nested property and invoke it during the terminal build so
// nested failures surface through the outer Build call.
type BuildFunc[T any] func() (T, error)

// BuildAll invokes a slice of deferred builds in order, failing on the first
// error. Generated element-level builders for arrays use it.
func BuildAll[T any](fns []BuildFunc[T]) ([]T, error) {
	out := make([]T, 0, len(fns))
	for _, fn := range fns {
		v, err := fn()
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
