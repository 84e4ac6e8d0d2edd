package recon

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the reconciliation engine. Callers should test
// with errors.Is since storage and service layers wrap them with context.
var (
	// ErrConflict is returned when a precondition check fails: the
	// transaction is no longer unmatched, or the receivable is no longer
	// unpaid. No state change occurs.
	ErrConflict = errors.New("reconciliation conflict")

	// ErrNotFound is returned when a referenced transaction or receivable
	// does not exist.
	ErrNotFound = errors.New("not found")
)

// ValidationError rejects a malformed transaction at the ingestion boundary
// before it can enter the store.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid transaction: %s %s", e.Field, e.Reason)
}

// NewValidationError creates a validation error for the given field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}
