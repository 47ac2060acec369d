package clock_test

import (
	"testing"
	"time"

	"github.com/warp/timeclock-engine/clock"
)

var t0 = time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)

func at(minutes int) time.Time { return t0.Add(time.Duration(minutes) * time.Minute) }

// =============================================================================
// ACCUMULATION TESTS
// =============================================================================

func TestTimerBank_AccumulatesSegments(t *testing.T) {
	// GIVEN: Two closed break segments of 10 and 5 minutes
	// THEN: Total is 15 minutes

	bank := clock.NewTimerBank()
	staff := clock.StaffID("staff-1")

	bank.Start(staff, at(0))
	bank.Stop(staff, at(10))
	bank.Start(staff, at(30))
	bank.Stop(staff, at(35))

	if got := bank.TotalMinutes(staff, at(60)); got != 15 {
		t.Errorf("expected 15 minutes, got %d", got)
	}
}

func TestTimerBank_IncludesLiveSegment(t *testing.T) {
	// GIVEN: A break still in progress
	// THEN: TotalMinutes includes the elapsed portion as of the query time

	bank := clock.NewTimerBank()
	staff := clock.StaffID("staff-1")

	bank.Start(staff, at(0))

	if got := bank.TotalMinutes(staff, at(7)); got != 7 {
		t.Errorf("expected 7 minutes live, got %d", got)
	}
	if !bank.OnBreak(staff) {
		t.Error("expected staff to be on break")
	}
}

func TestTimerBank_RoundsToNearestMinute(t *testing.T) {
	bank := clock.NewTimerBank()
	staff := clock.StaffID("staff-1")

	// 90 seconds rounds up to 2 minutes
	bank.Start(staff, at(0))
	bank.Stop(staff, t0.Add(90*time.Second))
	if got := bank.TotalMinutes(staff, at(10)); got != 2 {
		t.Errorf("expected 90s to round to 2, got %d", got)
	}

	bank.Reset(staff)

	// 29 seconds rounds down to 0
	bank.Start(staff, at(0))
	bank.Stop(staff, t0.Add(29*time.Second))
	if got := bank.TotalMinutes(staff, at(10)); got != 0 {
		t.Errorf("expected 29s to round to 0, got %d", got)
	}
}

func TestTimerBank_StopWithoutStartIsNoOp(t *testing.T) {
	bank := clock.NewTimerBank()
	staff := clock.StaffID("staff-1")

	bank.Stop(staff, at(5))

	if got := bank.TotalMinutes(staff, at(10)); got != 0 {
		t.Errorf("expected 0 minutes, got %d", got)
	}
}

func TestTimerBank_ResetDiscardsEverything(t *testing.T) {
	// GIVEN: Accumulated break time and a live segment
	// WHEN: Reset (as happens on clock-in and clock-out)
	// THEN: Nothing carries over to the next session

	bank := clock.NewTimerBank()
	staff := clock.StaffID("staff-1")

	bank.Start(staff, at(0))
	bank.Stop(staff, at(10))
	bank.Start(staff, at(20))

	bank.Reset(staff)

	if got := bank.TotalMinutes(staff, at(30)); got != 0 {
		t.Errorf("expected 0 after reset, got %d", got)
	}
	if bank.OnBreak(staff) {
		t.Error("expected no live break after reset")
	}
}

func TestTimerBank_IndependentPerStaff(t *testing.T) {
	bank := clock.NewTimerBank()

	bank.Start("staff-1", at(0))
	bank.Stop("staff-1", at(10))

	if got := bank.TotalMinutes("staff-2", at(20)); got != 0 {
		t.Errorf("expected staff-2 untouched, got %d", got)
	}
}

// =============================================================================
// DISPLAY FORMAT TESTS
// =============================================================================

func TestTimerBank_Format(t *testing.T) {
	bank := clock.NewTimerBank()
	staff := clock.StaffID("staff-1")

	if got := bank.Format(staff, at(0)); got != "" {
		t.Errorf("expected empty string for zero break, got %q", got)
	}

	bank.Start(staff, at(0))
	bank.Stop(staff, at(5))
	if got := bank.Format(staff, at(10)); got != "5m break taken" {
		t.Errorf("expected '5m break taken', got %q", got)
	}

	bank.Start(staff, at(10))
	bank.Stop(staff, at(130))
	if got := bank.Format(staff, at(200)); got != "2h 5m break taken" {
		t.Errorf("expected '2h 5m break taken', got %q", got)
	}
}
