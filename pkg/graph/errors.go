package graph

import (
	"errors"
	"fmt"
)

// Sentinel errors. Every error produced by the engine matches exactly one of
// the kind sentinels through errors.Is.
var (
	ErrValidation         = errors.New("validation failed")
	ErrNotFound           = errors.New("not found")
	ErrPersistence        = errors.New("persistence failed")
	ErrLayoutInput        = errors.New("malformed layout input")
	ErrInvalidTransition  = errors.New("invalid projection transition")
	ErrGenerationInFlight = errors.New("path generation already in flight")
)

// Error provides structured information about a rejected operation
type Error struct {
	Op         string      // Operation that failed (e.g., "AddNode", "Save")
	Kind       error       // One of the kind sentinels
	OwnerID    string      // Owning path, if applicable
	Entity     string      // "path", "node", "edge", "branch"
	ID         string      // Entity ID, if applicable
	Violations []Violation // Structural violations behind a validation failure
	Cause      error       // Underlying error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Op
	if e.Entity != "" {
		msg += " " + e.Entity
		if e.ID != "" {
			msg += " " + e.ID
		}
	}
	if e.OwnerID != "" {
		msg += fmt.Sprintf(" (owner %s)", e.OwnerID)
	}
	switch {
	case e.Cause != nil:
		msg += ": " + e.Cause.Error()
	case len(e.Violations) > 0:
		msg += ": " + e.Violations[0].Message
		if len(e.Violations) > 1 {
			msg += fmt.Sprintf(" (and %d more)", len(e.Violations)-1)
		}
	case e.Kind != nil:
		msg += ": " + e.Kind.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chain support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is the error's kind or matches its cause.
func (e *Error) Is(target error) bool {
	if target == nil {
		return false
	}
	if e.Kind == target {
		return true
	}
	return e.Cause != nil && errors.Is(e.Cause, target)
}

// ErrorBuilder provides a fluent interface for building Errors.
type ErrorBuilder struct {
	err Error
}

// NewError creates a new error builder for the operation.
func NewError(op string) *ErrorBuilder {
	return &ErrorBuilder{err: Error{Op: op}}
}

// Owner sets the owning path.
func (b *ErrorBuilder) Owner(ownerID string) *ErrorBuilder {
	b.err.OwnerID = ownerID
	return b
}

// Node sets the entity to "node" with the given ID.
func (b *ErrorBuilder) Node(id string) *ErrorBuilder {
	b.err.Entity = "node"
	b.err.ID = id
	return b
}

// Edge sets the entity to "edge" with the given ID.
func (b *ErrorBuilder) Edge(id string) *ErrorBuilder {
	b.err.Entity = "edge"
	b.err.ID = id
	return b
}

// Path sets the entity to "path".
func (b *ErrorBuilder) Path() *ErrorBuilder {
	b.err.Entity = "path"
	return b
}

// Violations attaches structural violations.
func (b *ErrorBuilder) Violations(v []Violation) *ErrorBuilder {
	b.err.Violations = v
	return b
}

// Cause sets the underlying error cause.
func (b *ErrorBuilder) Cause(err error) *ErrorBuilder {
	b.err.Cause = err
	return b
}

// Validation builds a validation-kind error.
func (b *ErrorBuilder) Validation() error {
	b.err.Kind = ErrValidation
	return &b.err
}

// NotFound builds a not-found-kind error.
func (b *ErrorBuilder) NotFound() error {
	b.err.Kind = ErrNotFound
	return &b.err
}

// Persistence builds a persistence-kind error.
func (b *ErrorBuilder) Persistence() error {
	b.err.Kind = ErrPersistence
	return &b.err
}

// LayoutInput builds a layout-input-kind error.
func (b *ErrorBuilder) LayoutInput() error {
	b.err.Kind = ErrLayoutInput
	return &b.err
}

// IsValidation reports whether err is a validation failure
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsNotFound reports whether err references a missing owner, node or edge
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
