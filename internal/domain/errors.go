package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals that a referenced restaurant, table or slot does
	// not exist. Repositories surface it; domain code propagates it unchanged.
	ErrNotFound = errors.New("not found")

	// ErrVersionConflict signals that a concurrent writer committed first.
	// The service layer reloads the aggregate and retries.
	ErrVersionConflict = errors.New("version conflict")
)

// ValidationError reports malformed or out-of-range input. Always raised
// before any mutation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func newValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// StateTransitionError reports an attempted status transition that violates
// the slot state machine. Raised instead of silently no-opping so callers can
// distinguish "already in target state" from genuine misuse.
type StateTransitionError struct {
	From   ReservationStatus
	Action string
	Reason string
}

func (e *StateTransitionError) Error() string {
	return e.Reason
}

// CapacityError reports that reserved seats exceed a table's capacity, or
// that no table fits a party at all.
type CapacityError struct {
	Requested int
	Capacity  int
	Reason    string
}

func (e *CapacityError) Error() string {
	return e.Reason
}

// OverlapError reports a conflict with an existing non-cancelled slot on the
// same table, or a slot falling outside operating hours.
type OverlapError struct {
	Reason string
}

func (e *OverlapError) Error() string {
	return e.Reason
}
