package payroll

import (
	"time"

	"github.com/warp/timeclock-engine/payperiod"
)

// =============================================================================
// HOLIDAY CALENDAR - Injectable predicate, never hardcoded data
// =============================================================================

// HolidayCalendar answers whether a date is a recognized public holiday.
type HolidayCalendar interface {
	IsHoliday(date payperiod.Date) bool
}

// NoHolidays is the base rule: no date is a holiday. Holiday data is a
// product decision injected by the caller, not something this engine owns.
type NoHolidays struct{}

func (NoHolidays) IsHoliday(payperiod.Date) bool { return false }

// HolidayFunc adapts a plain predicate to HolidayCalendar.
type HolidayFunc func(payperiod.Date) bool

func (f HolidayFunc) IsHoliday(d payperiod.Date) bool { return f(d) }

// lateThresholdHour is the weekday late-shift cutoff: entries clocking out
// after 22:00 earn the after-10pm premium.
const lateThresholdHour = 22

// =============================================================================
// CLASSIFICATION
// =============================================================================

// Classify assigns an entry's premium category, in priority order: public
// holiday, Sunday, Saturday, weekday ending after 22:00, weekday.
//
// The category applies to the entry's ENTIRE payable duration: a shift
// ending at 22:05 is wholly weekdayAfter10pm even though most of it preceded
// 22:00. This whole-entry simplification is deliberate; do not prorate.
//
// The 22:00 cutoff is evaluated on the clock-in's calendar date. A shift
// that crosses midnight compares clock-out against 22:00 of the day it
// started, which can misclassify overnight shifts. Kept as-is pending a
// product decision on overnight work; see the engine tests pinning this.
func Classify(date payperiod.Date, clockIn, clockOut time.Time, holidays HolidayCalendar) Category {
	if holidays != nil && holidays.IsHoliday(date) {
		return CategoryPublicHoliday
	}

	switch date.Weekday() {
	case time.Sunday:
		return CategorySunday
	case time.Saturday:
		return CategorySaturday
	}

	tenPM := time.Date(clockIn.Year(), clockIn.Month(), clockIn.Day(),
		lateThresholdHour, 0, 0, 0, clockIn.Location())
	if clockOut.After(tenPM) {
		return CategoryWeekdayAfter10pm
	}
	return CategoryWeekday
}
