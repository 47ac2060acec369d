package clock_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/warp/timeclock-engine/clock"
	"github.com/warp/timeclock-engine/clock/store"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

// fakeClock is a pinned, manually-advanced time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(start time.Time) *fakeClock {
	return &fakeClock{now: start}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func newTestManager(start time.Time) (*clock.SessionManager, *fakeClock, *store.Memory) {
	mem := store.NewMemory()
	fc := newFakeClock(start)
	m := clock.NewSessionManager(mem)
	m.Now = fc.Now
	return m, fc, mem
}

// =============================================================================
// TRANSITION TESTS
// =============================================================================

func TestClockIn_CreatesOpenEntry(t *testing.T) {
	// GIVEN: Staff member not clocked in
	// WHEN: Clock in against a shift
	// THEN: An open entry exists, dated on the clock-in's calendar date

	ctx := context.Background()
	m, _, _ := newTestManager(t0)

	entry, err := m.ClockIn(ctx, "staff-1", "shift-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !entry.Open() {
		t.Error("expected entry to be open")
	}
	if entry.Date.String() != "2025-03-10" {
		t.Errorf("expected date 2025-03-10, got %s", entry.Date)
	}

	status, err := m.Status(ctx, "staff-1", "shift-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status.State != clock.StateClockedIn {
		t.Errorf("expected clocked_in, got %s", status.State)
	}
}

func TestClockIn_SecondShiftRejected(t *testing.T) {
	// GIVEN: Staff member clocked in against shift-1
	// WHEN: Clocking in against shift-2 before clocking out
	// THEN: ConflictError, and shift-1 status is still clocked_in

	ctx := context.Background()
	m, _, _ := newTestManager(t0)

	if _, err := m.ClockIn(ctx, "staff-a", "shift-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := m.ClockIn(ctx, "staff-a", "shift-2")
	if !clock.IsConflict(err) {
		t.Fatalf("expected conflict error, got %v", err)
	}

	status, _ := m.Status(ctx, "staff-a", "shift-1")
	if status.State != clock.StateClockedIn {
		t.Errorf("expected shift-1 still clocked_in, got %s", status.State)
	}
}

func TestClockIn_DifferentStaffIndependent(t *testing.T) {
	ctx := context.Background()
	m, _, _ := newTestManager(t0)

	if _, err := m.ClockIn(ctx, "staff-1", "shift-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := m.ClockIn(ctx, "staff-2", "shift-2"); err != nil {
		t.Fatalf("staff-2 should clock in independently: %v", err)
	}
}

func TestBreakCycle_AccumulatesIntoClockOut(t *testing.T) {
	// GIVEN: 8h session with a 30m break in the middle
	// WHEN: Clock out
	// THEN: Entry closes with 30 break minutes and the timer is reset

	ctx := context.Background()
	m, fc, _ := newTestManager(t0)

	m.ClockIn(ctx, "staff-1", "shift-1")

	fc.Advance(3 * time.Hour)
	if err := m.StartBreak(ctx, "staff-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	status, _ := m.Status(ctx, "staff-1", "shift-1")
	if status.State != clock.StateOnBreak {
		t.Errorf("expected on_break, got %s", status.State)
	}

	fc.Advance(30 * time.Minute)
	if err := m.EndBreak(ctx, "staff-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	fc.Advance(4*time.Hour + 30*time.Minute)
	entry, err := m.ClockOut(ctx, "staff-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if entry.BreakMinutes != 30 {
		t.Errorf("expected 30 break minutes, got %d", entry.BreakMinutes)
	}
	if entry.Open() {
		t.Error("expected entry to be closed")
	}
	if got := m.Timers().TotalMinutes("staff-1", fc.Now()); got != 0 {
		t.Errorf("expected timer reset after clock-out, got %d minutes", got)
	}
}

func TestClockOut_WhileOnBreak_ClosesBreakImplicitly(t *testing.T) {
	// GIVEN: Staff on a live 20m break
	// WHEN: Clock out without ending the break
	// THEN: The in-progress segment counts toward the total

	ctx := context.Background()
	m, fc, _ := newTestManager(t0)

	m.ClockIn(ctx, "staff-1", "shift-1")
	fc.Advance(2 * time.Hour)
	m.StartBreak(ctx, "staff-1")
	fc.Advance(20 * time.Minute)

	entry, err := m.ClockOut(ctx, "staff-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry.BreakMinutes != 20 {
		t.Errorf("expected 20 break minutes, got %d", entry.BreakMinutes)
	}
}

// =============================================================================
// ILLEGAL TRANSITION TESTS
// =============================================================================

func TestStartBreak_NotClockedIn(t *testing.T) {
	ctx := context.Background()
	m, _, _ := newTestManager(t0)

	err := m.StartBreak(ctx, "staff-1")
	if !clock.IsInvalidState(err) {
		t.Fatalf("expected invalid-state error, got %v", err)
	}
}

func TestEndBreak_TwiceFails(t *testing.T) {
	// GIVEN: A break already ended
	// WHEN: EndBreak again without an intervening StartBreak
	// THEN: InvalidStateError, accumulated break time unaffected

	ctx := context.Background()
	m, fc, _ := newTestManager(t0)

	m.ClockIn(ctx, "staff-1", "shift-1")
	m.StartBreak(ctx, "staff-1")
	fc.Advance(10 * time.Minute)
	if err := m.EndBreak(ctx, "staff-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := m.EndBreak(ctx, "staff-1")
	if !clock.IsInvalidState(err) {
		t.Fatalf("expected invalid-state error, got %v", err)
	}
	if got := m.Timers().TotalMinutes("staff-1", fc.Now()); got != 10 {
		t.Errorf("expected accumulated 10 minutes untouched, got %d", got)
	}
}

func TestStartBreak_TwiceFails(t *testing.T) {
	ctx := context.Background()
	m, _, _ := newTestManager(t0)

	m.ClockIn(ctx, "staff-1", "shift-1")
	if err := m.StartBreak(ctx, "staff-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := m.StartBreak(ctx, "staff-1"); !clock.IsInvalidState(err) {
		t.Fatalf("expected invalid-state error, got %v", err)
	}
}

func TestClockOut_NotClockedIn(t *testing.T) {
	ctx := context.Background()
	m, _, _ := newTestManager(t0)

	_, err := m.ClockOut(ctx, "staff-1")
	if !clock.IsInvalidState(err) {
		t.Fatalf("expected invalid-state error, got %v", err)
	}
}

// =============================================================================
// STATUS DERIVATION TESTS
// =============================================================================

func TestStatus_ClockedOutIsModifiable(t *testing.T) {
	ctx := context.Background()
	m, fc, _ := newTestManager(t0)

	m.ClockIn(ctx, "staff-1", "shift-1")
	fc.Advance(8 * time.Hour)
	m.ClockOut(ctx, "staff-1")

	status, err := m.Status(ctx, "staff-1", "shift-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status.State != clock.StateClockedOut {
		t.Errorf("expected clocked_out, got %s", status.State)
	}
	if !status.CanModify {
		t.Error("expected a closed entry to be modifiable")
	}
	if status.ClockOut == nil {
		t.Error("expected clock-out time in status")
	}
}

func TestStatus_NoEntries(t *testing.T) {
	ctx := context.Background()
	m, _, _ := newTestManager(t0)

	status, err := m.Status(ctx, "staff-1", "shift-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status.State != clock.StateNotClockedIn {
		t.Errorf("expected not_clocked_in, got %s", status.State)
	}
}

// =============================================================================
// CONCURRENCY TESTS
// =============================================================================

func TestConcurrentClockIns_ExactlyOneSucceeds(t *testing.T) {
	// GIVEN: Many goroutines racing to clock in the same staff member
	// THEN: Exactly one succeeds; the rest fail with ConflictError

	ctx := context.Background()
	m, _, _ := newTestManager(t0)

	const racers = 16
	var wg sync.WaitGroup
	errs := make([]error, racers)

	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = m.ClockIn(ctx, "staff-1", "shift-1")
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		switch {
		case err == nil:
			successes++
		case clock.IsConflict(err):
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if successes != 1 {
		t.Errorf("expected exactly 1 successful clock-in, got %d", successes)
	}
}

func TestSingleOpenEntryInvariant(t *testing.T) {
	// After any interleaving of actions, at most one open entry per staff.

	ctx := context.Background()
	m, fc, mem := newTestManager(t0)

	for i := 0; i < 5; i++ {
		m.ClockIn(ctx, "staff-1", "shift-1")
		m.ClockIn(ctx, "staff-1", "shift-2") // always rejected
		fc.Advance(time.Hour)
		m.ClockOut(ctx, "staff-1")
		fc.Advance(time.Hour)
	}

	staff := clock.StaffID("staff-1")
	entries, err := mem.QueryEntries(ctx, clock.EntryQuery{StaffID: &staff})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	openCount := 0
	for _, e := range entries {
		if e.Open() {
			openCount++
		}
		if !e.Open() && !e.ClockOut.After(e.ClockIn) {
			t.Errorf("closed entry %s violates clock-out > clock-in", e.ID)
		}
	}
	if openCount > 1 {
		t.Errorf("expected at most one open entry, got %d", openCount)
	}
	if len(entries) != 5 {
		t.Errorf("expected 5 entries, got %d", len(entries))
	}
}

// =============================================================================
// FAILURE SEMANTICS TESTS
// =============================================================================

// flakyStore wraps Memory and fails UpdateEntry on demand.
type flakyStore struct {
	*store.Memory
	failUpdate bool
}

func (s *flakyStore) UpdateEntry(ctx context.Context, id clock.EntryID, update clock.EntryUpdate) (*clock.ClockEntry, error) {
	if s.failUpdate {
		return nil, &clock.PersistenceError{Op: "update clock entry", Err: errors.New("disk I/O error")}
	}
	return s.Memory.UpdateEntry(ctx, id, update)
}

func TestClockOut_StoreFailureKeepsTimerIntact(t *testing.T) {
	// GIVEN: Clocked-in staff with 10 accumulated break minutes
	// WHEN: The store fails during clock-out
	// THEN: A retryable persistence error, the session stays open with the
	//       timer untouched, and a retry closes the entry with the same
	//       10 minutes

	ctx := context.Background()
	flaky := &flakyStore{Memory: store.NewMemory()}
	fc := newFakeClock(t0)
	m := clock.NewSessionManager(flaky)
	m.Now = fc.Now

	if _, err := m.ClockIn(ctx, "staff-1", "shift-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fc.Advance(time.Hour)
	m.StartBreak(ctx, "staff-1")
	fc.Advance(10 * time.Minute)
	m.EndBreak(ctx, "staff-1")
	fc.Advance(time.Hour)

	flaky.failUpdate = true
	_, err := m.ClockOut(ctx, "staff-1")
	if !clock.IsRetryable(err) {
		t.Fatalf("expected retryable persistence error, got %v", err)
	}
	if got := m.Timers().TotalMinutes("staff-1", fc.Now()); got != 10 {
		t.Errorf("expected timer to still hold 10 minutes, got %d", got)
	}
	status, _ := m.Status(ctx, "staff-1", "shift-1")
	if status.State != clock.StateClockedIn {
		t.Errorf("expected session still clocked_in, got %s", status.State)
	}

	flaky.failUpdate = false
	entry, err := m.ClockOut(ctx, "staff-1")
	if err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if entry.BreakMinutes != 10 {
		t.Errorf("expected 10 break minutes after retry, got %d", entry.BreakMinutes)
	}
}
