/*
machine.go - Per-staff clock-session state machine

PURPOSE:
  Enforces the legal session transitions and the single-active-session
  invariant:

    NotClockedIn -> ClockedIn -> OnBreak -> ClockedIn -> ClockedOut

  ClockedOut is terminal for the session, but the entry remains correctable
  (see correction.go).

EXCLUSIVITY:
  Clock-in is rejected whenever ANY open entry exists for the staff member,
  regardless of which shift either session is tied to. This is what makes
  cross-shift exclusivity hold: a staff member clocked in against shift A
  cannot also clock in against shift B.

CONCURRENCY:
  Single writer per staff member. All transitions for one StaffID serialize
  on a keyed mutex; different staff proceed in parallel. The store's atomic
  open-entry check closes the remaining race against writers outside this
  process.

FAILURE SEMANTICS:
  Persist first, then mutate timer state. A store failure surfaces as a
  PersistenceError and leaves the break timer exactly as it was, so a
  transition either fully applies or not at all.

SEE ALSO:
  - breaktimer.go: Break accumulation the machine drives
  - store.go:      Persistence contract
*/
package clock

import (
	"context"
	"sync"
	"time"

	"github.com/warp/timeclock-engine/payperiod"
)

// =============================================================================
// SESSION MANAGER
// =============================================================================

// SessionManager executes clock-state transitions for all staff.
type SessionManager struct {
	store  Store
	timers *TimerBank

	// Notifier receives entry-change events. Informational only.
	Notifier Notifier

	// Now supplies the current instant. Tests pin it.
	Now Clock

	mu    sync.Mutex
	locks map[StaffID]*sync.Mutex
}

// NewSessionManager creates a manager over the given store.
func NewSessionManager(store Store) *SessionManager {
	return &SessionManager{
		store:    store,
		timers:   NewTimerBank(),
		Notifier: NopNotifier{},
		Now:      time.Now,
		locks:    make(map[StaffID]*sync.Mutex),
	}
}

// Timers exposes the break-timer bank, e.g. for display formatting.
func (m *SessionManager) Timers() *TimerBank { return m.timers }

// staffLock returns the serialization mutex for one staff member.
func (m *SessionManager) staffLock(staff StaffID) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.locks[staff]
	if !ok {
		l = &sync.Mutex{}
		m.locks[staff] = l
	}
	return l
}

// =============================================================================
// TRANSITIONS
// =============================================================================

// ClockIn starts a new session, optionally tied to a scheduled shift.
// Legal only when no open entry exists for the staff member anywhere in the
// system; otherwise fails with a ConflictError.
func (m *SessionManager) ClockIn(ctx context.Context, staff StaffID, shift ShiftID) (*ClockEntry, error) {
	l := m.staffLock(staff)
	l.Lock()
	defer l.Unlock()

	open, err := m.store.FindOpenEntry(ctx, staff)
	if err != nil {
		return nil, err
	}
	if open != nil {
		return nil, &ConflictError{StaffID: staff, OpenEntryID: open.ID}
	}

	now := m.Now()
	entry := ClockEntry{
		ID:      NewEntryID(),
		StaffID: staff,
		ShiftID: shift,
		Date:    payperiod.DateOf(now),
		ClockIn: now,
	}

	// The store re-checks the open-entry invariant atomically with the
	// insert, which also covers writers outside this process.
	if err := m.store.CreateEntry(ctx, entry); err != nil {
		return nil, err
	}

	m.timers.Reset(staff)
	m.Notifier.EntryChanged(entry)
	return &entry, nil
}

// StartBreak opens a break segment. Legal only while ClockedIn.
func (m *SessionManager) StartBreak(ctx context.Context, staff StaffID) error {
	l := m.staffLock(staff)
	l.Lock()
	defer l.Unlock()

	open, err := m.store.FindOpenEntry(ctx, staff)
	if err != nil {
		return err
	}
	if open == nil {
		return &InvalidStateError{Action: ActionStartBreak, State: StateNotClockedIn}
	}
	if m.timers.OnBreak(staff) {
		return &InvalidStateError{Action: ActionStartBreak, State: StateOnBreak}
	}

	m.timers.Start(staff, m.Now())
	return nil
}

// EndBreak closes the current break segment. Legal only while OnBreak.
func (m *SessionManager) EndBreak(ctx context.Context, staff StaffID) error {
	l := m.staffLock(staff)
	l.Lock()
	defer l.Unlock()

	open, err := m.store.FindOpenEntry(ctx, staff)
	if err != nil {
		return err
	}
	if open == nil {
		return &InvalidStateError{Action: ActionEndBreak, State: StateNotClockedIn}
	}
	if !m.timers.OnBreak(staff) {
		return &InvalidStateError{Action: ActionEndBreak, State: StateClockedIn}
	}

	m.timers.Stop(staff, m.Now())
	return nil
}

// ClockOut closes the session. Legal from ClockedIn or OnBreak; an
// in-progress break is implicitly closed first and included in the total.
func (m *SessionManager) ClockOut(ctx context.Context, staff StaffID) (*ClockEntry, error) {
	l := m.staffLock(staff)
	l.Lock()
	defer l.Unlock()

	open, err := m.store.FindOpenEntry(ctx, staff)
	if err != nil {
		return nil, err
	}
	if open == nil {
		return nil, &InvalidStateError{Action: ActionClockOut, State: StateNotClockedIn}
	}

	now := m.Now()
	minutes := m.timers.TotalMinutes(staff, now)

	updated, err := m.store.UpdateEntry(ctx, open.ID, EntryUpdate{
		ClockOut:     &now,
		BreakMinutes: &minutes,
	})
	if err != nil {
		// Timer state untouched: the session is still open and the
		// transition can be retried.
		return nil, err
	}

	m.timers.Reset(staff)
	m.Notifier.EntryChanged(*updated)
	return updated, nil
}

// Apply dispatches a clock action by name. This is the single entry point
// transports use.
func (m *SessionManager) Apply(ctx context.Context, staff StaffID, shift ShiftID, action Action) (Status, error) {
	var err error
	switch action {
	case ActionClockIn:
		_, err = m.ClockIn(ctx, staff, shift)
	case ActionClockOut:
		_, err = m.ClockOut(ctx, staff)
	case ActionStartBreak:
		err = m.StartBreak(ctx, staff)
	case ActionEndBreak:
		err = m.EndBreak(ctx, staff)
	default:
		err = &ValidationError{Field: "action", Reason: "unknown clock action"}
	}
	if err != nil {
		return Status{}, err
	}
	return m.Status(ctx, staff, shift)
}

// =============================================================================
// STATUS DERIVATION
// =============================================================================

// Status derives the display state for a staff member and shift:
//   - an open entry (for any shift) -> ClockedIn, or OnBreak while a break
//     segment is running, with live break minutes
//   - otherwise the most recent closed entry for the shift -> ClockedOut,
//     which is modifiable
//   - otherwise NotClockedIn
func (m *SessionManager) Status(ctx context.Context, staff StaffID, shift ShiftID) (Status, error) {
	open, err := m.store.FindOpenEntry(ctx, staff)
	if err != nil {
		return Status{}, err
	}

	if open != nil {
		state := StateClockedIn
		if m.timers.OnBreak(staff) {
			state = StateOnBreak
		}
		return Status{
			State:        state,
			EntryID:      open.ID,
			ClockIn:      &open.ClockIn,
			BreakMinutes: m.timers.TotalMinutes(staff, m.Now()),
		}, nil
	}

	q := EntryQuery{StaffID: &staff}
	if shift != "" {
		q.ShiftID = &shift
	} else {
		today := payperiod.DateOf(m.Now())
		q.From, q.To = &today, &today
	}
	entries, err := m.store.QueryEntries(ctx, q)
	if err != nil {
		return Status{}, err
	}
	if len(entries) == 0 {
		return Status{State: StateNotClockedIn}, nil
	}

	latest := entries[len(entries)-1]
	return Status{
		State:        StateClockedOut,
		EntryID:      latest.ID,
		ClockIn:      &latest.ClockIn,
		ClockOut:     latest.ClockOut,
		BreakMinutes: latest.BreakMinutes,
		CanModify:    true,
	}, nil
}
