// Package gen synthesizes fluent builder code from resolved type graphs.
package gen

import (
	"errors"
	"fmt"
)

// Sentinel errors for generation failure cases.
var (
	// ErrPropertyConflict indicates two intersection constituents declare
	// the same property with incompatible types.
	ErrPropertyConflict = errors.New("forge: property conflict")
	// ErrMissingConfig indicates a configuration error.
	ErrMissingConfig = errors.New("forge: missing configuration")
	// ErrGenerationFailed indicates a code generation failure.
	ErrGenerationFailed = errors.New("forge: code generation failed")
)

// PropertyConflictError reports a flattening conflict between intersection
// constituents.
type PropertyConflictError struct {
	Type     string // the intersection type being flattened
	Property string // the conflicting property name
	Left     string // rendered type from the earlier constituent
	Right    string // rendered type from the later constituent
}

// Error implements the error interface.
func (e *PropertyConflictError) Error() string {
	return fmt.Sprintf("forge: property conflict on %q flattening %s: %s vs %s",
		e.Property, e.Type, e.Left, e.Right)
}

// Is reports whether the target matches the property-conflict sentinel.
func (e *PropertyConflictError) Is(target error) bool { return target == ErrPropertyConflict }

// NewPropertyConflictError creates a PropertyConflictError.
func NewPropertyConflictError(typeName, property, left, right string) *PropertyConflictError {
	return &PropertyConflictError{Type: typeName, Property: property, Left: left, Right: right}
}

// ConfigError represents a configuration error.
type ConfigError struct {
	Option  string
	Value   any
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("forge: config error for %q (value: %v): %s", e.Option, e.Value, e.Message)
	}
	return fmt.Sprintf("forge: config error for %q: %s", e.Option, e.Message)
}

// Is reports whether the target matches the missing-config sentinel.
func (e *ConfigError) Is(target error) bool { return target == ErrMissingConfig }

// NewConfigError creates a ConfigError.
func NewConfigError(option string, value any, message string) *ConfigError {
	return &ConfigError{Option: option, Value: value, Message: message}
}

// GenerationError wraps a failure while rendering one output unit.
type GenerationError struct {
	Type    string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *GenerationError) Error() string {
	msg := "forge: generation error"
	if e.Type != "" {
		msg += " for type " + e.Type
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *GenerationError) Unwrap() error { return e.Cause }

// Is reports whether the target matches the generation-failed sentinel.
func (e *GenerationError) Is(target error) bool { return target == ErrGenerationFailed }

// NewGenerationError creates a GenerationError.
func NewGenerationError(typeName, message string, cause error) *GenerationError {
	return &GenerationError{Type: typeName, Message: message, Cause: cause}
}

// IsPropertyConflict reports whether the error is a PropertyConflictError.
func IsPropertyConflict(err error) bool {
	var pce *PropertyConflictError
	return errors.As(err, &pce)
}

// IsConfigError reports whether the error is a ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}
