/*
engine.go - Payroll computation over closed clock entries

PURPOSE:
  Turns a pay period's closed clock entries into PayrollRows and aggregate
  totals. Pure computation: read-only, side-effect-free, safe to repeat
  concurrently, and idempotent on identical inputs.

COMPUTATION (per staff member):
  1. Filter entries: staff match, date inside [period.Start, period.End]
     inclusive, both clock-in and clock-out present.
  2. Per entry: hoursWorked = (out - in) / 1h; breakHours = breakMinutes/60;
     payableHours = max(0, hoursWorked - breakHours).
  3. Classify the whole entry into one premium category.
  4. Accumulate payable hours per category; gross += payable * rate[category].
  5. Round hour figures and gross pay to 2 decimals for display.

BASE PAY:
  A missing base rate never silently computes as zero: the engine applies
  its configured fallback, and a missing rate with no fallback is a
  configuration error.

SEE ALSO:
  - classify.go: Premium category rules
  - payperiod/:  Period boundaries the filter uses
*/
package payroll

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/warp/timeclock-engine/clock"
	"github.com/warp/timeclock-engine/payperiod"
	"github.com/warp/timeclock-engine/roster"
)

var (
	sixty      = decimal.NewFromInt(60)
	nanosPerHr = decimal.NewFromInt(int64(3600 * 1e9))
)

// Engine computes payroll rows. Zero value is not usable; use NewEngine.
type Engine struct {
	// Holidays classifies public-holiday dates. Defaults to NoHolidays.
	Holidays HolidayCalendar

	// Rates maps premium categories to multipliers. Defaults to DefaultRates.
	Rates RateTable

	// FallbackBasePay applies when a staff member has no base rate set.
	// Zero fallback + missing rate is a configuration error.
	FallbackBasePay decimal.Decimal
}

// NewEngine creates an engine with the standard rate table, no holidays,
// and the given fallback base rate.
func NewEngine(fallbackBasePay decimal.Decimal) *Engine {
	return &Engine{
		Holidays:        NoHolidays{},
		Rates:           DefaultRates(),
		FallbackBasePay: fallbackBasePay,
	}
}

// basePayFor resolves the effective base rate for a staff member.
func (e *Engine) basePayFor(staff roster.StaffMember) (decimal.Decimal, error) {
	if staff.BasePay.IsPositive() {
		return staff.BasePay, nil
	}
	if e.FallbackBasePay.IsPositive() {
		return e.FallbackBasePay, nil
	}
	return decimal.Zero, fmt.Errorf("staff %s has no base pay and no fallback is configured: %w",
		staff.ID, clock.ErrConfiguration)
}

// =============================================================================
// PER-STAFF COMPUTATION
// =============================================================================

// ComputeForStaff produces the payroll row for one staff member in one pay
// period. Zero qualifying entries yield an all-zero row, not an error.
func (e *Engine) ComputeForStaff(staff roster.StaffMember, period payperiod.PayPeriod, entries []clock.ClockEntry) (PayrollRow, error) {
	basePay, err := e.basePayFor(staff)
	if err != nil {
		return PayrollRow{}, err
	}

	row := PayrollRow{
		StaffID:   staff.ID,
		StaffName: staff.Name,
		BasePay:   basePay,
		Hours:     make(map[Category]decimal.Decimal, len(Categories)),
	}
	for _, cat := range Categories {
		row.Hours[cat] = decimal.Zero
	}

	totalHours := decimal.Zero
	totalBreakMinutes := decimal.Zero
	gross := decimal.Zero

	for _, entry := range entries {
		if !e.qualifies(staff.ID, period, entry) {
			continue
		}

		hoursWorked := decimal.NewFromInt(int64(entry.ClockOut.Sub(entry.ClockIn))).Div(nanosPerHr)
		breakHours := decimal.NewFromInt(int64(entry.BreakMinutes)).Div(sixty)
		payable := decimal.Max(decimal.Zero, hoursWorked.Sub(breakHours))

		cat := Classify(entry.Date, entry.ClockIn, *entry.ClockOut, e.Holidays)
		row.Hours[cat] = row.Hours[cat].Add(payable)
		gross = gross.Add(payable.Mul(e.Rates.RateFor(basePay, cat)))

		totalHours = totalHours.Add(hoursWorked)
		totalBreakMinutes = totalBreakMinutes.Add(decimal.NewFromInt(int64(entry.BreakMinutes)))
		row.ShiftsWorked++
	}

	breakHours := totalBreakMinutes.Div(sixty)
	payableHours := decimal.Max(decimal.Zero, totalHours.Sub(breakHours))

	// Round for display at the aggregation boundary only.
	for cat, h := range row.Hours {
		row.Hours[cat] = h.Round(2)
	}
	row.TotalHours = totalHours.Round(2)
	row.BreakHours = breakHours.Round(2)
	row.PayableHours = payableHours.Round(2)
	row.GrossPay = gross.Round(2)
	return row, nil
}

// qualifies applies the entry filter: staff match, date within the period
// inclusive, and both timestamps present (open entries never count).
func (e *Engine) qualifies(staff clock.StaffID, period payperiod.PayPeriod, entry clock.ClockEntry) bool {
	return entry.StaffID == staff &&
		period.Contains(entry.Date) &&
		!entry.ClockIn.IsZero() &&
		entry.ClockOut != nil
}

// =============================================================================
// PER-PERIOD COMPUTATION
// =============================================================================

// ComputeForPeriod produces one row per staff member, in staff-list order.
func (e *Engine) ComputeForPeriod(staffList []roster.StaffMember, period payperiod.PayPeriod, entries []clock.ClockEntry) ([]PayrollRow, error) {
	rows := make([]PayrollRow, 0, len(staffList))
	for _, staff := range staffList {
		row, err := e.ComputeForStaff(staff, period, entries)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Totals aggregates rows into period-wide figures. TotalHours sums payable
// hours; EmployeeCount counts staff who actually worked.
func Totals(rows []PayrollRow) Summary {
	s := Summary{TotalGross: decimal.Zero, TotalHours: decimal.Zero}
	for _, row := range rows {
		s.TotalGross = s.TotalGross.Add(row.GrossPay)
		s.TotalHours = s.TotalHours.Add(row.PayableHours)
		if row.ShiftsWorked > 0 {
			s.EmployeeCount++
		}
	}
	s.TotalGross = s.TotalGross.Round(2)
	s.TotalHours = s.TotalHours.Round(2)
	return s
}
