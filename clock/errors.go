/*
errors.go - Centralized error types for the clock-session core

PURPOSE:
  All error types for the session state machine in one place. Transport
  layers map these onto status codes; domain code matches them with
  errors.Is().

ERROR CATEGORIES:
  1. Conflict errors      - A second open session for the same staff member
  2. Invalid-state errors - Illegal transition for the current session state
  3. Validation errors    - Malformed input (correction with out <= in, ...)
  4. Persistence errors   - Backing store unavailable; safe to retry
  5. Configuration errors - Missing base pay with no configured fallback

USAGE:
  if clock.IsConflict(err) {
      // staff member is already clocked in elsewhere
  }

SEE ALSO:
  - machine.go:     Produces conflict and invalid-state errors
  - correction.go:  Produces validation errors
  - store/sqlite:   Wraps store failures as persistence errors
*/
package clock

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrConflict is returned when a clock-in would create a second open
	// entry for the same staff member.
	ErrConflict = errors.New("open clock entry already exists")

	// ErrInvalidState is returned when an action is illegal for the current
	// session state (e.g. ending a break that was never started).
	ErrInvalidState = errors.New("invalid session state for action")

	// ErrValidation is returned for malformed input, such as a correction
	// where clock-out is not after clock-in.
	ErrValidation = errors.New("validation failed")

	// ErrPersistence is returned when the backing store fails. These errors
	// are safe to retry: transitions are all-or-nothing.
	ErrPersistence = errors.New("persistence failure")

	// ErrConfiguration is returned when required configuration is missing,
	// e.g. no base pay and no configured fallback.
	ErrConfiguration = errors.New("missing configuration")

	// ErrEntryNotFound is returned when a referenced clock entry doesn't exist.
	ErrEntryNotFound = errors.New("clock entry not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ConflictError reports the open entry that blocked a clock-in.
type ConflictError struct {
	StaffID     StaffID
	OpenEntryID EntryID
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("staff %s is already clocked in (entry %s)", e.StaffID, e.OpenEntryID)
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

// InvalidStateError names the attempted action and the state that rejected it.
type InvalidStateError struct {
	Action Action
	State  State
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s while %s", e.Action, e.State)
}

func (e *InvalidStateError) Unwrap() error { return ErrInvalidState }

// ValidationError reports a malformed field and why it was rejected.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// PersistenceError wraps a store failure with the operation that hit it.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return ErrPersistence }

// =============================================================================
// ERROR HELPERS
// =============================================================================

func IsConflict(err error) bool     { return errors.Is(err, ErrConflict) }
func IsInvalidState(err error) bool { return errors.Is(err, ErrInvalidState) }
func IsValidation(err error) bool   { return errors.Is(err, ErrValidation) }
func IsNotFound(err error) bool     { return errors.Is(err, ErrEntryNotFound) }

// IsRetryable returns true if the error might succeed on retry. Only store
// failures qualify: the atomic open-entry check makes retries safe.
func IsRetryable(err error) bool { return errors.Is(err, ErrPersistence) }
