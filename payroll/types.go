/*
Package payroll computes categorized payable hours and gross pay from closed
clock entries.

PURPOSE:
  Payroll is always derived, never stored. Given a staff member's base rate,
  a pay period, and the clock entries that closed inside it, the engine
  produces a PayrollRow: payable hours broken down by shift premium category,
  plus gross pay. Recomputing on identical inputs yields identical output,
  which is what makes post-hoc entry corrections safe - the caller simply
  recomputes.

KEY CONCEPTS IN THIS FILE (types.go):
  - Category:   Shift premium category, one per entry for its whole duration
  - RateTable:  Pay-rate multipliers per category
  - PayrollRow: Per-staff result for one pay period
  - Summary:    Aggregate totals across rows

PRECISION:
  All hour and money arithmetic uses decimal.Decimal. Hour figures and gross
  pay round to 2 decimals at the aggregation boundary, not per intermediate
  step.

SEE ALSO:
  - classify.go: Premium category rules
  - engine.go:   Computation over clock entries
*/
package payroll

import (
	"github.com/shopspring/decimal"

	"github.com/warp/timeclock-engine/clock"
)

// =============================================================================
// SHIFT PREMIUM CATEGORIES
// =============================================================================

// Category is a shift premium classification. Every closed entry receives
// exactly one category for its entire payable duration.
type Category string

const (
	CategoryWeekday          Category = "weekday"
	CategoryWeekdayAfter10pm Category = "weekdayAfter10pm"
	CategorySaturday         Category = "saturday"
	CategorySunday           Category = "sunday"
	CategoryPublicHoliday    Category = "publicHoliday"
)

// Categories lists all premium categories in display order.
var Categories = []Category{
	CategoryWeekday,
	CategoryWeekdayAfter10pm,
	CategorySaturday,
	CategorySunday,
	CategoryPublicHoliday,
}

// =============================================================================
// RATE TABLE
// =============================================================================

// RateTable maps premium categories to base-pay multipliers.
type RateTable map[Category]decimal.Decimal

// DefaultRates returns the standard premium multipliers:
// weekday 1.0x, weekday after 10pm 1.2x, Saturday 1.4x, Sunday 1.6x,
// public holiday 2.0x.
func DefaultRates() RateTable {
	return RateTable{
		CategoryWeekday:          decimal.NewFromFloat(1.0),
		CategoryWeekdayAfter10pm: decimal.NewFromFloat(1.2),
		CategorySaturday:         decimal.NewFromFloat(1.4),
		CategorySunday:           decimal.NewFromFloat(1.6),
		CategoryPublicHoliday:    decimal.NewFromFloat(2.0),
	}
}

// RateFor returns the hourly rate for a category given a base rate.
func (rt RateTable) RateFor(basePay decimal.Decimal, cat Category) decimal.Decimal {
	mult, ok := rt[cat]
	if !ok {
		mult = decimal.NewFromInt(1)
	}
	return basePay.Mul(mult)
}

// =============================================================================
// RESULTS
// =============================================================================

// PayrollRow is the derived payroll result for one staff member in one pay
// period. Hours and pay are rounded to 2 decimals for display.
type PayrollRow struct {
	StaffID   clock.StaffID
	StaffName string
	BasePay   decimal.Decimal

	// Hours holds payable hours per premium category.
	Hours map[Category]decimal.Decimal

	TotalHours   decimal.Decimal
	BreakHours   decimal.Decimal
	PayableHours decimal.Decimal
	GrossPay     decimal.Decimal
	ShiftsWorked int
}

// Summary aggregates payroll rows for a period.
type Summary struct {
	TotalGross decimal.Decimal
	TotalHours decimal.Decimal

	// EmployeeCount counts only staff with at least one qualifying entry.
	EmployeeCount int
}
