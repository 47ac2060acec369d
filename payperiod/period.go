/*
Package payperiod generates the fixed half-month pay-period calendar.

PURPOSE:
  Every payroll consumer needs to answer the same two questions: "which pay
  period does this date fall into?" and "what periods surround today?". This
  package is the single source of those answers. No caller recomputes period
  boundaries on its own.

PERIOD RULES:
  Each month splits into exactly two periods:
    First half:  day 1 through day 14
    Second half: day 15 through the last day of the month
  Periods never overlap, and together they cover every calendar date exactly
  once. February's second half ends on the 28th or 29th; 31-day months end
  on the 31st.

IDENTIFIERS:
  Period IDs are stable strings of the form {year}-{month:02}-{1|15},
  e.g. "2025-03-1" and "2025-03-15". Labels are human-readable:
  "Mar 1-14, 2025" and "Mar 15-31, 2025".

USAGE:
  period := payperiod.PeriodFor(payperiod.Today())
  periods := payperiod.PeriodsAround(payperiod.Today(), 5, 6)
  id := payperiod.CurrentPeriodID(payperiod.Today())

SEE ALSO:
  - date.go: Date type and calendar arithmetic
  - payroll/: Consumes periods to filter clock entries
*/
package payperiod

import (
	"fmt"
	"sort"
	"time"
)

// splitDay is the first day of each month's second period.
const splitDay = 15

// PayPeriod is a fixed half-month window. Start and End are inclusive.
type PayPeriod struct {
	ID    string
	Start Date
	End   Date
	Label string
}

// Contains returns true if the date is within [Start, End].
func (p PayPeriod) Contains(d Date) bool {
	return d.AfterOrEqual(p.Start) && d.BeforeOrEqual(p.End)
}

func (p PayPeriod) String() string {
	return fmt.Sprintf("%s [%s, %s]", p.ID, p.Start, p.End)
}

// =============================================================================
// PERIOD CONSTRUCTION
// =============================================================================

// FirstHalf returns the day 1-14 period for a month.
func FirstHalf(year int, month int) PayPeriod {
	start := StartOfMonth(year, monthOf(month))
	end := NewDate(year, monthOf(month), splitDay-1)
	return PayPeriod{
		ID:    fmt.Sprintf("%d-%02d-1", year, month),
		Start: start,
		End:   end,
		Label: fmt.Sprintf("%s 1-%d, %d", start.Time.Format("Jan"), splitDay-1, year),
	}
}

// SecondHalf returns the day 15-end period for a month.
func SecondHalf(year int, month int) PayPeriod {
	start := NewDate(year, monthOf(month), splitDay)
	end := EndOfMonth(year, monthOf(month))
	return PayPeriod{
		ID:    fmt.Sprintf("%d-%02d-15", year, month),
		Start: start,
		End:   end,
		Label: fmt.Sprintf("%s %d-%d, %d", start.Time.Format("Jan"), splitDay, end.Day(), year),
	}
}

// PeriodFor returns the period that contains the given date.
// Day 1-14 map to the first half, day 15 onward to the second half.
func PeriodFor(d Date) PayPeriod {
	if d.Day() < splitDay {
		return FirstHalf(d.Year(), int(d.Month()))
	}
	return SecondHalf(d.Year(), int(d.Month()))
}

// CurrentPeriodID returns the ID of the period containing today.
func CurrentPeriodID(today Date) string {
	return PeriodFor(today).ID
}

// Next returns the period immediately after this one.
func (p PayPeriod) Next() PayPeriod {
	return PeriodFor(p.End.AddDays(1))
}

// Previous returns the period immediately before this one.
func (p PayPeriod) Previous() PayPeriod {
	return PeriodFor(p.Start.AddDays(-1))
}

// =============================================================================
// PERIOD RANGES
// =============================================================================

// PeriodsAround returns the period containing ref, with `past` periods before
// it and `future` periods after, ordered ascending by start date.
func PeriodsAround(ref Date, past, future int) []PayPeriod {
	center := PeriodFor(ref)

	periods := make([]PayPeriod, 0, past+future+1)
	p := center
	for i := 0; i < past; i++ {
		p = p.Previous()
		periods = append(periods, p)
	}
	periods = append(periods, center)
	p = center
	for i := 0; i < future; i++ {
		p = p.Next()
		periods = append(periods, p)
	}

	sort.Slice(periods, func(i, j int) bool {
		return periods[i].Start.Before(periods[j].Start)
	})
	return periods
}

// Find resolves a period ID back into its period, or reports false if the
// ID is malformed. IDs are self-describing, so lookup parses rather than
// scans a generated window.
func Find(id string) (PayPeriod, bool) {
	var year, month, day int
	if _, err := fmt.Sscanf(id, "%d-%d-%d", &year, &month, &day); err != nil {
		return PayPeriod{}, false
	}
	if month < 1 || month > 12 {
		return PayPeriod{}, false
	}
	switch day {
	case 1:
		return FirstHalf(year, month), true
	case splitDay:
		return SecondHalf(year, month), true
	default:
		return PayPeriod{}, false
	}
}

func monthOf(m int) time.Month { return time.Month(m) }
