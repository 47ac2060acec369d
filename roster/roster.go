/*
Package roster defines the boundary to the external scheduling system.

PURPOSE:
  The timeclock core does not own staff records or the shift schedule; the
  roster application does. This package carries the types the core reads
  (staff members with their base pay rate, scheduled shift windows) and the
  read-only provider interface the core consumes. A SQLite-backed provider
  ships with the service (store/sqlite).

SEE ALSO:
  - payroll/: Reads StaffMember.BasePay
  - clock/:   Records sessions against ScheduledShift IDs
*/
package roster

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/warp/timeclock-engine/clock"
	"github.com/warp/timeclock-engine/payperiod"
)

// =============================================================================
// TYPES
// =============================================================================

// StaffMember is an hourly staff record, owned by the roster.
type StaffMember struct {
	ID     clock.StaffID
	Name   string
	Email  string
	Role   string
	Avatar string

	// BasePay is the hourly base rate. Zero means unset; payroll applies
	// its configured fallback rate.
	BasePay decimal.Decimal
}

// ScheduledShift is a planned shift window on the roster grid. Times are
// grid slots ("09:00"), not instants; actual worked time lives on the
// clock entry.
type ScheduledShift struct {
	ID        clock.ShiftID
	StaffID   clock.StaffID
	Date      payperiod.Date
	StartTime string
	EndTime   string
	Role      string
}

// AvatarInitials derives the display avatar from a name ("Dana Reyes" -> "DR").
func AvatarInitials(name string) string {
	var b strings.Builder
	for _, word := range strings.Fields(name) {
		r := []rune(word)
		b.WriteString(strings.ToUpper(string(r[0])))
	}
	return b.String()
}

// =============================================================================
// PROVIDER - Read-only roster access
// =============================================================================

// Provider is the read-only view of the roster the core consumes.
type Provider interface {
	ListStaff(ctx context.Context) ([]StaffMember, error)
	GetStaff(ctx context.Context, id clock.StaffID) (*StaffMember, error)
	GetShiftsForStaff(ctx context.Context, id clock.StaffID, from, to payperiod.Date) ([]ScheduledShift, error)
}
