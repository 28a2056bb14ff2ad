/*
errors.go - Centralized error types for the allocation engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Callers classify errors with errors.Is / errors.As or the helpers at the
  bottom of this file; the HTTP layer maps them to status codes.

ERROR CATEGORIES:
  1. Validation errors - Malformed input (negative person-days, non-Monday
     week start, inverted range). Returned to the caller, never retried.
  2. Not-found errors - Unknown resource or release id.
  3. Computation errors - A stored record violates its own invariants
     (end before start, non-positive factor). Never returned from a read:
     the aggregator logs the record, skips it and keeps going.

USAGE:
    if generic.IsClientError(err) {
        // 400
    }
    var nf *generic.NotFoundError
    if errors.As(err, &nf) {
        log.Printf("missing %s %s", nf.Kind, nf.ID)
    }

SEE ALSO:
  - aggregate.go: Emits ComputationError for corrupt allocations
  - api/handlers.go: Maps errors to HTTP status codes
*/
package generic

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation is the parent of every input validation failure.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidPeriod is returned when a period is malformed (end before start).
	ErrInvalidPeriod = errors.New("invalid period: end before start")

	// ErrNotFound is the parent of every missing-entity failure.
	ErrNotFound = errors.New("not found")

	// ErrCorruptRecord marks a stored record that breaks its own invariants.
	ErrCorruptRecord = errors.New("corrupt record")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError describes a rejected input field.
type ValidationError struct {
	Field   string
	Message string
	Err     error // optional, more specific sentinel
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Message
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrValidation, e.Err}
	}
	return []error{ErrValidation}
}

// NotFoundError names the kind and id of the missing entity.
type NotFoundError struct {
	Kind string // "resource", "release"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// ComputationError reports a stored record the aggregator had to skip.
type ComputationError struct {
	RecordID string
	Reason   string
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("corrupt record %s: %s", e.RecordID, e.Reason)
}

func (e *ComputationError) Unwrap() error {
	return ErrCorruptRecord
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidPeriod)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsCorrupt returns true for errors raised by inconsistent stored data.
func IsCorrupt(err error) bool {
	return errors.Is(err, ErrCorruptRecord)
}
