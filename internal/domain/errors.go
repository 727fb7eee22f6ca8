package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrDuplicateIdentifier = errors.New("duplicate asset identifier")
	ErrConcurrencyConflict = errors.New("concurrency conflict")
	ErrReferenceNotFound   = errors.New("referenced entity not found")
	ErrForbidden           = errors.New("operation requires a privileged actor")
	ErrSweepInProgress     = errors.New("revenue sweep already in progress")
)

// ValidationError reports a payload that breaks a per-kind business rule.
type ValidationError struct {
	Kind    EntityKind `json:"kind"`
	Field   string     `json:"field"`
	Message string     `json:"message"`
}

func NewValidationError(kind EntityKind, field, message string) *ValidationError {
	return &ValidationError{Kind: kind, Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s.%s %s", e.Kind, e.Field, e.Message)
}

// DuplicateIdentifierError is returned when an asset identifier is already
// taken, whether detected by the allocator scan or by the store at commit.
// The caller may retry with a fresh allocation.
type DuplicateIdentifierError struct {
	Identifier string
}

func (e *DuplicateIdentifierError) Error() string {
	return fmt.Sprintf("asset identifier %q is already in use", e.Identifier)
}

func (e *DuplicateIdentifierError) Is(target error) bool {
	return target == ErrDuplicateIdentifier
}

func (e *DuplicateIdentifierError) Retryable() bool { return true }

// ReferenceError is returned when an operation points at a live entity that
// no longer exists.
type ReferenceError struct {
	Kind EntityKind
	ID   int64
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("%s %d does not exist", e.Kind, e.ID)
}

func (e *ReferenceError) Is(target error) bool {
	return target == ErrReferenceNotFound
}
