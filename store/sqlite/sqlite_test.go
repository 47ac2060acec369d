package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/timeclock-engine/clock"
	"github.com/warp/timeclock-engine/payperiod"
	"github.com/warp/timeclock-engine/roster"
	"github.com/warp/timeclock-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func openEntry(staff string, in time.Time) clock.ClockEntry {
	return clock.ClockEntry{
		ID:      clock.NewEntryID(),
		StaffID: clock.StaffID(staff),
		ShiftID: "shift-1",
		Date:    payperiod.DateOf(in),
		ClockIn: in,
	}
}

var testIn = time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)

// =============================================================================
// CLOCK ENTRY TESTS
// =============================================================================

func TestCreateAndFindOpenEntry(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	entry := openEntry("staff-1", testIn)
	require.NoError(t, store.CreateEntry(ctx, entry))

	found, err := store.FindOpenEntry(ctx, "staff-1")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, entry.ID, found.ID)
	assert.True(t, found.Open())
	assert.Equal(t, "2025-03-10", found.Date.String())
	assert.True(t, found.ClockIn.Equal(testIn))

	// No open entry for other staff
	none, err := store.FindOpenEntry(ctx, "staff-2")
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestCreateEntry_SecondOpenEntryConflicts(t *testing.T) {
	// The partial unique index must reject a second open entry for the same
	// staff member, regardless of shift.

	store := newTestStore(t)
	ctx := context.Background()

	first := openEntry("staff-1", testIn)
	require.NoError(t, store.CreateEntry(ctx, first))

	second := openEntry("staff-1", testIn.Add(time.Minute))
	second.ShiftID = "shift-2"
	err := store.CreateEntry(ctx, second)
	require.Error(t, err)
	assert.True(t, clock.IsConflict(err))

	var conflict *clock.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, first.ID, conflict.OpenEntryID)
}

func TestCreateEntry_ClosedEntriesDoNotConflict(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	out := testIn.Add(8 * time.Hour)
	closed := openEntry("staff-1", testIn)
	closed.ClockOut = &out
	require.NoError(t, store.CreateEntry(ctx, closed))

	// A new open entry after a closed one is fine
	require.NoError(t, store.CreateEntry(ctx, openEntry("staff-1", out.Add(time.Hour))))
}

func TestCreateEntry_RejectsInvalidEntry(t *testing.T) {
	// Entries violating the closed-entry rules never reach the database.

	store := newTestStore(t)
	ctx := context.Background()

	backwards := openEntry("staff-1", testIn)
	out := testIn.Add(-time.Hour)
	backwards.ClockOut = &out
	err := store.CreateEntry(ctx, backwards)
	require.Error(t, err)
	assert.True(t, clock.IsValidation(err))

	negBreak := openEntry("staff-1", testIn)
	negBreak.BreakMinutes = -5
	err = store.CreateEntry(ctx, negBreak)
	require.Error(t, err)
	assert.True(t, clock.IsValidation(err))

	found, err := store.FindOpenEntry(ctx, "staff-1")
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestUpdateEntry_ClosesAndReopensIndex(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	entry := openEntry("staff-1", testIn)
	require.NoError(t, store.CreateEntry(ctx, entry))

	out := testIn.Add(8 * time.Hour)
	minutes := 30
	updated, err := store.UpdateEntry(ctx, entry.ID, clock.EntryUpdate{
		ClockOut:     &out,
		BreakMinutes: &minutes,
	})
	require.NoError(t, err)
	require.NotNil(t, updated.ClockOut)
	assert.True(t, updated.ClockOut.Equal(out))
	assert.Equal(t, 30, updated.BreakMinutes)

	// Entry closed: the open-entry slot is free again
	require.NoError(t, store.CreateEntry(ctx, openEntry("staff-1", out.Add(time.Hour))))
}

func TestUpdateEntry_NotFound(t *testing.T) {
	store := newTestStore(t)
	minutes := 10
	_, err := store.UpdateEntry(context.Background(), "missing", clock.EntryUpdate{BreakMinutes: &minutes})
	assert.ErrorIs(t, err, clock.ErrEntryNotFound)
}

func TestQueryEntries_Filters(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	mk := func(staff string, day int) clock.ClockEntry {
		in := time.Date(2025, time.March, day, 9, 0, 0, 0, time.UTC)
		out := in.Add(4 * time.Hour)
		e := openEntry(staff, in)
		e.ClockOut = &out
		return e
	}
	require.NoError(t, store.CreateEntry(ctx, mk("staff-1", 3)))
	require.NoError(t, store.CreateEntry(ctx, mk("staff-1", 12)))
	require.NoError(t, store.CreateEntry(ctx, mk("staff-1", 20)))
	require.NoError(t, store.CreateEntry(ctx, mk("staff-2", 12)))

	staff1 := clock.StaffID("staff-1")
	from := payperiod.NewDate(2025, time.March, 1)
	to := payperiod.NewDate(2025, time.March, 14)

	entries, err := store.QueryEntries(ctx, clock.EntryQuery{StaffID: &staff1, From: &from, To: &to})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.True(t, entries[0].ClockIn.Before(entries[1].ClockIn), "ordered by clock-in")
}

// =============================================================================
// ROSTER TESTS
// =============================================================================

func TestStaffRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	staff := roster.StaffMember{
		ID:      "staff-1",
		Name:    "Dana Reyes",
		Email:   "dana@example.com",
		Role:    "server",
		Avatar:  roster.AvatarInitials("Dana Reyes"),
		BasePay: decimal.RequireFromString("22.50"),
	}
	require.NoError(t, store.SaveStaff(ctx, staff))

	got, err := store.GetStaff(ctx, "staff-1")
	require.NoError(t, err)
	assert.Equal(t, "Dana Reyes", got.Name)
	assert.Equal(t, "DR", got.Avatar)
	assert.True(t, got.BasePay.Equal(decimal.RequireFromString("22.50")))

	all, err := store.ListStaff(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestGetShiftsForStaff_DateRange(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveStaff(ctx, roster.StaffMember{ID: "staff-1", Name: "A", BasePay: decimal.Zero}))

	mk := func(id string, day int, start string) roster.ScheduledShift {
		return roster.ScheduledShift{
			ID:        clock.ShiftID(id),
			StaffID:   "staff-1",
			Date:      payperiod.NewDate(2025, time.March, day),
			StartTime: start,
			EndTime:   "17:00",
			Role:      "server",
		}
	}
	require.NoError(t, store.SaveShift(ctx, mk("sh-1", 10, "09:00")))
	require.NoError(t, store.SaveShift(ctx, mk("sh-2", 10, "12:00")))
	require.NoError(t, store.SaveShift(ctx, mk("sh-3", 20, "09:00")))

	shifts, err := store.GetShiftsForStaff(ctx, "staff-1",
		payperiod.NewDate(2025, time.March, 1), payperiod.NewDate(2025, time.March, 14))
	require.NoError(t, err)
	require.Len(t, shifts, 2)
	assert.Equal(t, clock.ShiftID("sh-1"), shifts[0].ID)
	assert.Equal(t, clock.ShiftID("sh-2"), shifts[1].ID)
}
