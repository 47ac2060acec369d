/*
correction.go - Authorized post-hoc edits to closed clock entries

PURPOSE:
  Managers can fix a closed entry's timestamps and break minutes after the
  fact (a forgotten clock-out, a miskeyed break). Corrections persist the
  new values and emit a change notification; the caller re-runs payroll.
  The corrector holds no payroll state of its own, so there is nothing to
  invalidate here.

RULES:
  - Only closed entries are correctable. An open entry cannot be
    "corrected", only closed via clock-out.
  - New clock-out must be strictly after new clock-in.
  - Break minutes must not be negative.

SEE ALSO:
  - machine.go: The normal write path for entries
  - payroll/:   Recomputed by the caller after a correction
*/
package clock

import (
	"context"
	"time"
)

// Corrector applies authorized corrections to closed clock entries.
type Corrector struct {
	Store    Store
	Notifier Notifier
}

// NewCorrector creates a corrector over the given store.
func NewCorrector(store Store) *Corrector {
	return &Corrector{Store: store, Notifier: NopNotifier{}}
}

// Correct replaces a closed entry's timestamps and break minutes and returns
// the updated entry. Fails with a ValidationError for open entries, a
// non-positive working window, or negative break minutes.
func (c *Corrector) Correct(ctx context.Context, id EntryID, newClockIn, newClockOut time.Time, newBreakMinutes int) (*ClockEntry, error) {
	entry, err := c.Store.GetEntry(ctx, id)
	if err != nil {
		return nil, err
	}

	if entry.Open() {
		return nil, &ValidationError{Field: "entry", Reason: "entry is still open; clock out before correcting"}
	}
	if !newClockOut.After(newClockIn) {
		return nil, &ValidationError{Field: "clock_out", Reason: "clock-out must be after clock-in"}
	}
	if newBreakMinutes < 0 {
		return nil, &ValidationError{Field: "break_minutes", Reason: "break minutes must not be negative"}
	}

	updated, err := c.Store.UpdateEntry(ctx, id, EntryUpdate{
		ClockIn:      &newClockIn,
		ClockOut:     &newClockOut,
		BreakMinutes: &newBreakMinutes,
	})
	if err != nil {
		return nil, err
	}

	if c.Notifier != nil {
		c.Notifier.EntryChanged(*updated)
	}
	return updated, nil
}
