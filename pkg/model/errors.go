package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidTransition signals a status change that moves a contract
	// backwards or to an unknown state.
	ErrInvalidTransition = errors.New("contract: invalid status transition")
	// ErrBuiltinTemplate signals an attempt to edit or deactivate a seeded
	// template.
	ErrBuiltinTemplate = errors.New("registry: built-in templates are read-only")
	// ErrUnsupportedFormat signals an export format without a renderer.
	ErrUnsupportedFormat = errors.New("export: unsupported format")
)

// ValidationError carries every violation found by a single validation run.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Violations) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(e.Violations))
	for _, violation := range e.Violations {
		parts = append(parts, violation.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Fields returns the field ids referenced by the violations, in order and
// without duplicates.
func (e *ValidationError) Fields() []string {
	if e == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(e.Violations))
	out := make([]string, 0, len(e.Violations))
	for _, violation := range e.Violations {
		if _, ok := seen[violation.FieldID]; ok {
			continue
		}
		seen[violation.FieldID] = struct{}{}
		out = append(out, violation.FieldID)
	}
	return out
}

// NewMissingFieldError reports a single missing attribute, such as an empty
// template name on upload.
func NewMissingFieldError(field string) *ValidationError {
	return &ValidationError{Violations: []Violation{{
		FieldID: field,
		Rule:    "required",
		Message: fmt.Sprintf("%s is required", field),
	}}}
}

// NotFoundError signals that an id does not resolve to stored, active data.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

// ExportError wraps a renderer failure for a specific output format.
type ExportError struct {
	Format string
	Cause  error
}

func (e *ExportError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("export %s failed", e.Format)
	}
	return fmt.Sprintf("export %s failed: %v", e.Format, e.Cause)
}

func (e *ExportError) Unwrap() error {
	return e.Cause
}

// ConflictError signals an update made against a stale contract version.
type ConflictError struct {
	ContractID string
	Expected   int
	Actual     int
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("contract %q version conflict: expected %d, current %d", e.ContractID, e.Expected, e.Actual)
}

// IsNotFound reports whether err wraps a NotFoundError.
func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}
