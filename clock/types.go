/*
Package clock implements the clock-session core: clock entries, the per-staff
session state machine, ephemeral break timers, and post-hoc entry correction.

PURPOSE:
  A staff member's working day is one continuous session: clock in, take
  breaks, clock out. This package records those sessions as ClockEntry rows,
  enforces the legal transitions between session states, and guarantees the
  single-active-session invariant: at most one open entry per staff member,
  system-wide, regardless of which scheduled shift the session is tied to.

KEY CONCEPTS IN THIS FILE (types.go):
  - ClockEntry: One persisted work session from clock-in to clock-out
  - State:      Derived session state (not clocked in, clocked in, on break,
                clocked out)
  - Action:     The four clock actions a staff member can take
  - Clock:      Injectable time source so tests control "now"

INVARIANTS:
  1. At most one open entry (ClockOut == nil) per staff member at any time
  2. Every closed entry has ClockOut strictly after ClockIn
  3. Break time is finalized onto the entry only at clock-out

SEE ALSO:
  - machine.go:    SessionManager state transitions
  - breaktimer.go: Ephemeral break accumulation
  - correction.go: Authorized post-hoc edits to closed entries
  - store.go:      Persistence boundary
*/
package clock

import (
	"time"

	"github.com/google/uuid"

	"github.com/warp/timeclock-engine/payperiod"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type StaffID string
type EntryID string
type ShiftID string

// NewEntryID generates a unique clock-entry ID.
func NewEntryID() EntryID {
	return EntryID(uuid.NewString())
}

// =============================================================================
// CLOCK ENTRY - One persisted work session
// =============================================================================

// ClockEntry records one continuous work session. It is created at clock-in,
// finalized at clock-out, and may later be corrected by an authorized actor.
type ClockEntry struct {
	ID      EntryID
	StaffID StaffID

	// ShiftID links the session to a scheduled roster shift. Optional: a
	// session can be recorded without a matching shift.
	ShiftID ShiftID

	// Date is the calendar date the session was clocked in on. Pay-period
	// membership is decided by this date, never by the timestamps.
	Date payperiod.Date

	ClockIn  time.Time
	ClockOut *time.Time

	// BreakMinutes is the total break duration for the session, written at
	// clock-out (or by a correction). Always >= 0.
	BreakMinutes int
}

// Open reports whether the session is still in progress.
func (e ClockEntry) Open() bool { return e.ClockOut == nil }

// Validate checks the closed-entry invariant: ClockOut strictly after ClockIn
// and a non-negative break duration.
func (e ClockEntry) Validate() error {
	if e.ClockOut != nil && !e.ClockOut.After(e.ClockIn) {
		return &ValidationError{Field: "clock_out", Reason: "clock-out must be after clock-in"}
	}
	if e.BreakMinutes < 0 {
		return &ValidationError{Field: "break_minutes", Reason: "break minutes must not be negative"}
	}
	return nil
}

// =============================================================================
// SESSION STATE
// =============================================================================

type State string

const (
	StateNotClockedIn State = "not_clocked_in"
	StateClockedIn    State = "clocked_in"
	StateOnBreak      State = "on_break"
	StateClockedOut   State = "clocked_out"
)

type Action string

const (
	ActionClockIn    Action = "in"
	ActionClockOut   Action = "out"
	ActionStartBreak Action = "start_break"
	ActionEndBreak   Action = "end_break"
)

// ParseAction converts the wire form of a clock action.
func ParseAction(s string) (Action, bool) {
	switch Action(s) {
	case ActionClockIn, ActionClockOut, ActionStartBreak, ActionEndBreak:
		return Action(s), true
	}
	return "", false
}

// Status is the derived display state for a staff member and shift.
type Status struct {
	State        State
	EntryID      EntryID
	ClockIn      *time.Time
	ClockOut     *time.Time
	BreakMinutes int

	// CanModify is true once the session is closed and therefore correctable.
	CanModify bool
}

// =============================================================================
// TIME SOURCE
// =============================================================================

// Clock supplies "now". Production uses time.Now; tests pin it.
type Clock func() time.Time
