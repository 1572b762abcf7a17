// Package resolve walks raw type declarations into the canonical type graph.
package resolve

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for resolution failure modes.
var (
	// ErrDeclarationNotFound indicates the requested declaration is absent
	// from the declaration source.
	ErrDeclarationNotFound = errors.New("forge: declaration not found")
	// ErrUnsupportedShape indicates a declaration shape with no defined
	// graph mapping, surfaced only under strict-shape resolution.
	ErrUnsupportedShape = errors.New("forge: unsupported type shape")
	// ErrCircular indicates a cycle with no object-shaped anchor to break
	// it through a reference node.
	ErrCircular = errors.New("forge: circular type without anchor")
	// ErrGenericArgument indicates a type-argument count or constraint
	// mismatch.
	ErrGenericArgument = errors.New("forge: invalid generic argument")
)

// NotFoundError reports a failed declaration lookup.
type NotFoundError struct {
	File  string
	Type  string
	Cause error
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	msg := fmt.Sprintf("forge: declaration %q not found", e.Type)
	if e.File != "" {
		msg += " in " + e.File
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *NotFoundError) Unwrap() error { return e.Cause }

// Is reports whether the target matches the not-found sentinel.
func (e *NotFoundError) Is(target error) bool { return target == ErrDeclarationNotFound }

// NewNotFoundError creates a NotFoundError.
func NewNotFoundError(file, typeName string, cause error) *NotFoundError {
	return &NotFoundError{File: file, Type: typeName, Cause: cause}
}

// UnsupportedShapeError reports a declaration shape the resolver cannot map.
type UnsupportedShapeError struct {
	Type  string
	Shape string
}

// Error implements the error interface.
func (e *UnsupportedShapeError) Error() string {
	return fmt.Sprintf("forge: type %q uses unsupported shape %q", e.Type, e.Shape)
}

// Is reports whether the target matches the unsupported-shape sentinel.
func (e *UnsupportedShapeError) Is(target error) bool { return target == ErrUnsupportedShape }

// CircularError reports a cycle detected where no safe reference breakpoint
// exists.
type CircularError struct {
	// Path holds the in-progress chain that closed the cycle.
	Path []string
}

// Error implements the error interface.
func (e *CircularError) Error() string {
	if len(e.Path) == 0 {
		return "forge: circular type without anchor"
	}
	return "forge: circular type without anchor: " + strings.Join(e.Path, " -> ")
}

// Is reports whether the target matches the circular sentinel.
func (e *CircularError) Is(target error) bool { return target == ErrCircular }

// GenericArgumentError reports a supplied type-argument mismatch.
type GenericArgumentError struct {
	Type    string
	Param   string
	Message string
}

// Error implements the error interface.
func (e *GenericArgumentError) Error() string {
	msg := fmt.Sprintf("forge: invalid type argument for %q", e.Type)
	if e.Param != "" {
		msg += " parameter " + e.Param
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// Is reports whether the target matches the generic-argument sentinel.
func (e *GenericArgumentError) Is(target error) bool { return target == ErrGenericArgument }

// IsNotFound reports whether the error is a NotFoundError.
func IsNotFound(err error) bool {
	var nfe *NotFoundError
	return errors.As(err, &nfe)
}

// IsCircular reports whether the error is a CircularError.
func IsCircular(err error) bool {
	var ce *CircularError
	return errors.As(err, &ce)
}
