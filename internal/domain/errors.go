// Package domain defines core types, interfaces, and errors for the schema graph service.
package domain

import "fmt"

// NotFoundError indicates a resource was not found.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// AccessDeniedError indicates insufficient permissions.
type AccessDeniedError struct {
	Message string
}

func (e *AccessDeniedError) Error() string { return e.Message }

// ValidationError indicates invalid input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ConflictError indicates a conflict (e.g., duplicate resource).
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// SourceUnavailableError indicates the schema origin could not be reached or
// returned no usable payload. The import aborts before parsing.
type SourceUnavailableError struct {
	Message string
	Err     error
}

func (e *SourceUnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("source unavailable: %s: %v", e.Message, e.Err)
	}
	return "source unavailable: " + e.Message
}

func (e *SourceUnavailableError) Unwrap() error { return e.Err }

// ParseError indicates malformed schema text. Parsing is all-or-nothing, so a
// ParseError never comes with a partial schema.
type ParseError struct {
	Dialect Dialect
	Line    int // 1-based, 0 when unknown
	Message string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse %s: line %d: %s", e.Dialect, e.Line, e.Message)
	}
	return fmt.Sprintf("parse %s: %s", e.Dialect, e.Message)
}

// IdentifierCollisionError indicates a freshly generated identifier was already
// in use. It is an internal invariant violation and fatal to the import batch.
type IdentifierCollisionError struct {
	Kind string // "table", "field" or "link"
	ID   string
}

func (e *IdentifierCollisionError) Error() string {
	return fmt.Sprintf("identifier collision: %s id %q already in use", e.Kind, e.ID)
}

// DanglingReferenceError indicates a link endpoint that does not resolve to a
// table or field of the same graph.
type DanglingReferenceError struct {
	LinkID  string
	Message string
}

func (e *DanglingReferenceError) Error() string {
	return fmt.Sprintf("dangling reference in link %q: %s", e.LinkID, e.Message)
}

// ErrNotFound creates a NotFoundError with a formatted message.
func ErrNotFound(format string, args ...interface{}) *NotFoundError {
	return &NotFoundError{Message: fmt.Sprintf(format, args...)}
}

// ErrAccessDenied creates an AccessDeniedError with a formatted message.
func ErrAccessDenied(format string, args ...interface{}) *AccessDeniedError {
	return &AccessDeniedError{Message: fmt.Sprintf(format, args...)}
}

// ErrValidation creates a ValidationError with a formatted message.
func ErrValidation(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ErrConflict creates a ConflictError with a formatted message.
func ErrConflict(format string, args ...interface{}) *ConflictError {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}

// ErrSourceUnavailable creates a SourceUnavailableError wrapping cause (may be nil).
func ErrSourceUnavailable(cause error, format string, args ...interface{}) *SourceUnavailableError {
	return &SourceUnavailableError{Message: fmt.Sprintf(format, args...), Err: cause}
}
