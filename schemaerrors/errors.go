package schemaerrors

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Sentinel errors for use with errors.Is().
var (
	// ErrParse indicates a raw schema could not be turned into a node.
	ErrParse = errors.New("parse error")

	// ErrReference indicates a reference resolution failure.
	ErrReference = errors.New("reference error")

	// ErrCircularReference indicates a $ref chain that never reaches a schema.
	ErrCircularReference = errors.New("circular reference")

	// ErrPathTraversal indicates a path traversal attempt was blocked.
	ErrPathTraversal = errors.New("path traversal detected")

	// ErrValidation indicates an instance did not satisfy its schema.
	ErrValidation = errors.New("validation error")

	// ErrUnsupportedType indicates an unknown "type" value in strict mode.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrResourceLimit indicates a resource limit was exceeded.
	ErrResourceLimit = errors.New("resource limit exceeded")

	// ErrConfig indicates an invalid configuration.
	ErrConfig = errors.New("configuration error")
)

// ParseError represents a raw schema that could not be built.
type ParseError struct {
	// Path is the JSON pointer of the offending schema ("" for the root)
	Path string
	// Message describes the failure
	Message string
	// Cause is the underlying error, if any
	Cause error
}

// Error returns a human-readable error message.
func (e *ParseError) Error() string {
	msg := "parse error"
	if e.Path != "" {
		msg += " at " + e.Path
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chaining.
func (e *ParseError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type.
func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}

// ReferenceError represents a failure to resolve a $ref.
type ReferenceError struct {
	// Ref is the reference string that failed to resolve
	Ref string
	// RefType indicates the reference type: "local", "file", or "http"
	RefType string
	// IsCircular is true if the reference only leads back to itself
	IsCircular bool
	// IsPathTraversal is true if a file reference escaped the base directory
	IsPathTraversal bool
	// Message provides additional context about the failure
	Message string
	// Cause is the underlying error, if any
	Cause error
}

// Error returns a human-readable error message.
func (e *ReferenceError) Error() string {
	msg := "reference error"
	if e.IsCircular {
		msg = "circular reference"
	} else if e.IsPathTraversal {
		msg = "path traversal detected"
	}
	if e.Ref != "" {
		msg += ": " + e.Ref
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chaining.
func (e *ReferenceError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type.
// Matches ErrReference, and also ErrCircularReference or ErrPathTraversal
// when the matching flag is set.
func (e *ReferenceError) Is(target error) bool {
	switch target {
	case ErrReference:
		return true
	case ErrCircularReference:
		return e.IsCircular
	case ErrPathTraversal:
		return e.IsPathTraversal
	}
	return false
}

// Violation is a single failed constraint found while validating an instance.
type Violation struct {
	// Path is the location inside the instance: property names and array indices
	Path []string
	// Constraint is the keyword that failed (e.g. "required", "maxLength", "type")
	Constraint string
	// Expected is the constraint value from the schema, if any
	Expected any
	// Actual is the offending instance value, if any
	Actual any
	// Message describes the failure
	Message string
}

// Pointer renders Path as an RFC 6901 JSON pointer ("" for the instance root).
func (v Violation) Pointer() string {
	var sb strings.Builder
	for _, seg := range v.Path {
		sb.WriteByte('/')
		seg = strings.ReplaceAll(seg, "~", "~0")
		sb.WriteString(strings.ReplaceAll(seg, "/", "~1"))
	}
	return sb.String()
}

// Location renders Path in "$.a.b[0]" form.
func (v Violation) Location() string {
	var sb strings.Builder
	sb.WriteByte('$')
	for _, seg := range v.Path {
		if _, err := strconv.Atoi(seg); err == nil {
			sb.WriteString("[" + seg + "]")
			continue
		}
		sb.WriteByte('.')
		sb.WriteString(seg)
	}
	return sb.String()
}

// String returns "location: message".
func (v Violation) String() string {
	return v.Location() + ": " + v.Message
}

// ValidationError reports every violation found for one instance.
type ValidationError struct {
	// Violations lists the failed constraints in discovery order
	Violations []Violation
	// Truncated is true when collection stopped at the configured maximum
	Truncated bool
}

// Error returns a human-readable error message.
func (e *ValidationError) Error() string {
	switch len(e.Violations) {
	case 0:
		return "validation error"
	case 1:
		return "validation error at " + e.Violations[0].String()
	}
	msg := fmt.Sprintf("validation error: %d violations", len(e.Violations))
	if e.Truncated {
		msg += " (truncated)"
	}
	return msg + "; first at " + e.Violations[0].String()
}

// Unwrap returns nil as ValidationError has no underlying cause.
func (e *ValidationError) Unwrap() error {
	return nil
}

// Is reports whether target matches this error type.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// UnsupportedTypeError is returned in strict mode for an unknown "type" value.
type UnsupportedTypeError struct {
	// Path is the JSON pointer of the schema carrying the type
	Path string
	// Type is the unrecognized discriminator
	Type string
}

// Error returns a human-readable error message.
func (e *UnsupportedTypeError) Error() string {
	msg := fmt.Sprintf("unsupported type %q", e.Type)
	if e.Path != "" {
		msg += " at " + e.Path
	}
	return msg
}

// Unwrap returns nil as UnsupportedTypeError has no underlying cause.
func (e *UnsupportedTypeError) Unwrap() error {
	return nil
}

// Is reports whether target matches this error type.
func (e *UnsupportedTypeError) Is(target error) bool {
	return target == ErrUnsupportedType
}

// ResourceLimitError represents a resource exhaustion condition.
type ResourceLimitError struct {
	// ResourceType identifies what limit was exceeded
	// Common values: "nesting_depth", "cached_documents", "file_size", "body_size"
	ResourceType string
	// Limit is the configured maximum value
	Limit int64
	// Actual is the value that exceeded the limit (may be 0 if unknown)
	Actual int64
	// Message provides additional context
	Message string
}

// Error returns a human-readable error message.
func (e *ResourceLimitError) Error() string {
	msg := "resource limit exceeded"
	if e.ResourceType != "" {
		msg += ": " + e.ResourceType
	}
	if e.Limit > 0 {
		msg += fmt.Sprintf(" (limit: %d", e.Limit)
		if e.Actual > 0 {
			msg += fmt.Sprintf(", actual: %d", e.Actual)
		}
		msg += ")"
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// Unwrap returns nil as ResourceLimitError has no underlying cause.
func (e *ResourceLimitError) Unwrap() error {
	return nil
}

// Is reports whether target matches this error type.
func (e *ResourceLimitError) Is(target error) bool {
	return target == ErrResourceLimit
}

// ConfigError represents an invalid configuration or input.
type ConfigError struct {
	// Option is the name of the problematic configuration option
	Option string
	// Value is the invalid value that was provided (may be nil)
	Value any
	// Message describes the configuration error
	Message string
	// Cause is the underlying error, if any
	Cause error
}

// Error returns a human-readable error message.
func (e *ConfigError) Error() string {
	msg := "configuration error"
	if e.Option != "" {
		msg += " for " + e.Option
	}
	if e.Value != nil {
		msg += fmt.Sprintf(" (value: %v)", e.Value)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chaining.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type.
func (e *ConfigError) Is(target error) bool {
	return target == ErrConfig
}
