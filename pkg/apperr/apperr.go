// Package apperr holds the sentinel errors shared by the business services.
// Every sentinel is wrap-friendly: services add context with fmt.Errorf("%w")
// and callers branch with errors.Is.
package apperr

import "errors"

var (
	// ErrValidation marks bad input (negative price, archived plan, bad method).
	// The operation was rejected before any side effect.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound marks a missing record referenced by the caller.
	ErrNotFound = errors.New("not found")

	// ErrInvalidStateTransition marks an illegal state-machine move, e.g.
	// approving an already-confirmed payment. Nothing is partially written.
	ErrInvalidStateTransition = errors.New("invalid state transition")

	// ErrRetryExhausted marks a transient failure: unique generation (reference
	// numbers, kiosk PINs) collided on every bounded attempt. Callers may retry
	// the whole operation.
	ErrRetryExhausted = errors.New("retry attempts exhausted")

	// Attendance conditions. User-facing, not system faults.
	ErrAlreadyCheckedIn   = errors.New("already checked in")
	ErrNoOpenSession      = errors.New("no open attendance session")
	ErrMembershipRequired = errors.New("no valid membership for entry")
)
