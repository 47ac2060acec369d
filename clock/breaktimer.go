/*
breaktimer.go - Ephemeral per-staff break accumulation

PURPOSE:
  Tracks elapsed break time during an open clock session. Break segments
  accumulate in memory while the session runs and are written to the entry
  as a single minute total at clock-out.

LIFECYCLE:
  Reset fires exactly once per clock-in and once per clock-out, so timer
  state never carries over between sessions.

DURABILITY:
  Timer state is process-local by design. Whatever was last persisted on the
  open entry is all that survives a restart; in-flight break segments are
  lost. Known, accepted limitation.

SEE ALSO:
  - machine.go: Drives Start/Stop/Reset around state transitions
*/
package clock

import (
	"fmt"
	"sync"
	"time"
)

// =============================================================================
// TIMER BANK - Staff-indexed break timers
// =============================================================================

// TimerBank holds one break timer per staff member with an open session.
type TimerBank struct {
	mu     sync.Mutex
	timers map[StaffID]*breakTimer
}

type breakTimer struct {
	onBreak     bool
	breakStart  time.Time
	accumulated time.Duration
}

func NewTimerBank() *TimerBank {
	return &TimerBank{timers: make(map[StaffID]*breakTimer)}
}

// Start opens a break segment at the given instant. No-op if the staff
// member is already on break; the state machine rejects that upstream.
func (b *TimerBank) Start(staff StaffID, at time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()

	t := b.timer(staff)
	if t.onBreak {
		return
	}
	t.onBreak = true
	t.breakStart = at
}

// Stop closes the current break segment, folding it into the accumulated
// total. No-op if no segment is open.
func (b *TimerBank) Stop(staff StaffID, at time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()

	t := b.timer(staff)
	if !t.onBreak {
		return
	}
	t.accumulated += at.Sub(t.breakStart)
	t.onBreak = false
	t.breakStart = time.Time{}
}

// OnBreak reports whether a break segment is currently open.
func (b *TimerBank) OnBreak(staff StaffID) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	t, ok := b.timers[staff]
	return ok && t.onBreak
}

// TotalMinutes returns the session's break time rounded to the nearest
// minute, including the live segment if a break is in progress.
func (b *TimerBank) TotalMinutes(staff StaffID, asOf time.Time) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	t, ok := b.timers[staff]
	if !ok {
		return 0
	}
	total := t.accumulated
	if t.onBreak {
		total += asOf.Sub(t.breakStart)
	}
	return int(total.Round(time.Minute) / time.Minute)
}

// Reset discards all timer state for a staff member. Called on every
// clock-in and every clock-out.
func (b *TimerBank) Reset(staff StaffID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.timers, staff)
}

// Format renders the running break total for display: "2h 5m break taken",
// "5m break taken", or "" when no break time has accumulated.
func (b *TimerBank) Format(staff StaffID, asOf time.Time) string {
	total := b.TotalMinutes(staff, asOf)
	if total == 0 {
		return ""
	}
	hours := total / 60
	minutes := total % 60
	if hours > 0 {
		return fmt.Sprintf("%dh %dm break taken", hours, minutes)
	}
	return fmt.Sprintf("%dm break taken", minutes)
}

// timer returns the staff member's timer, creating it if absent.
// Caller must hold b.mu.
func (b *TimerBank) timer(staff StaffID) *breakTimer {
	t, ok := b.timers[staff]
	if !ok {
		t = &breakTimer{}
		b.timers[staff] = t
	}
	return t
}
