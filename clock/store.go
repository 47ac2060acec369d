/*
store.go - Persistence boundary for clock entries

PURPOSE:
  Defines the interface between the session state machine and the database.
  Different implementations can use SQLite or in-memory storage.

ATOMICITY CONTRACT:
  CreateEntry MUST atomically enforce the single-open-entry invariant: if an
  open entry already exists for the staff member, creation fails with a
  ConflictError. A check-then-create that can interleave with a concurrent
  create is not a valid implementation. The SQLite store uses a partial
  unique index; the memory store serializes under its lock.

FAILURE SEMANTICS:
  Store failures surface as PersistenceError and are safe to retry. The
  state machine persists before mutating in-memory break state, so a failed
  write never leaves a transition half-applied.

IMPLEMENTATIONS:
  - store/sqlite:        Production SQLite
  - clock/store/memory:  In-memory for testing/dev

SEE ALSO:
  - machine.go: The only writer of clock entries
  - correction.go: Updates closed entries through the same interface
*/
package clock

import (
	"context"
	"time"

	"github.com/warp/timeclock-engine/payperiod"
)

// =============================================================================
// STORE - Clock entry persistence
// =============================================================================

// Store handles persistence of clock entries.
type Store interface {
	// CreateEntry persists a new entry. Fails with a ConflictError if an
	// open entry already exists for the same staff member; the check and
	// the insert are atomic.
	CreateEntry(ctx context.Context, entry ClockEntry) error

	// FindOpenEntry returns the staff member's open entry, or nil if the
	// staff member is not clocked in. At most one can exist.
	FindOpenEntry(ctx context.Context, staff StaffID) (*ClockEntry, error)

	// GetEntry returns an entry by ID, or ErrEntryNotFound.
	GetEntry(ctx context.Context, id EntryID) (*ClockEntry, error)

	// UpdateEntry applies the non-nil fields of update to an entry and
	// returns the updated row.
	UpdateEntry(ctx context.Context, id EntryID, update EntryUpdate) (*ClockEntry, error)

	// QueryEntries returns entries matching the filter, ordered by clock-in
	// time ascending.
	QueryEntries(ctx context.Context, q EntryQuery) ([]ClockEntry, error)
}

// EntryUpdate holds the mutable fields of a clock entry. Nil means unchanged.
type EntryUpdate struct {
	ClockIn      *time.Time
	ClockOut     *time.Time
	BreakMinutes *int
}

// EntryQuery filters clock entries. Nil fields match everything.
type EntryQuery struct {
	StaffID *StaffID
	ShiftID *ShiftID
	From    *payperiod.Date
	To      *payperiod.Date
}

// Matches reports whether an entry satisfies the filter. Shared by store
// implementations.
func (q EntryQuery) Matches(e ClockEntry) bool {
	if q.StaffID != nil && e.StaffID != *q.StaffID {
		return false
	}
	if q.ShiftID != nil && e.ShiftID != *q.ShiftID {
		return false
	}
	if q.From != nil && e.Date.Before(*q.From) {
		return false
	}
	if q.To != nil && e.Date.After(*q.To) {
		return false
	}
	return true
}

// =============================================================================
// CHANGE NOTIFICATION - Informational only
// =============================================================================

// Notifier receives entry-change events. Purely informational: correctness
// never depends on delivery, and implementations must not block.
type Notifier interface {
	EntryChanged(entry ClockEntry)
}

// NopNotifier discards all events.
type NopNotifier struct{}

func (NopNotifier) EntryChanged(ClockEntry) {}
