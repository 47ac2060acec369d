/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing field
  renaming without breaking clients and API-specific validation.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/warp/timeclock-engine/clock"
	"github.com/warp/timeclock-engine/payperiod"
	"github.com/warp/timeclock-engine/payroll"
	"github.com/warp/timeclock-engine/roster"
)

// =============================================================================
// CLOCK TYPES
// =============================================================================

// ClockActionRequest is the body of a clock action.
type ClockActionRequest struct {
	ShiftID string `json:"shift_id,omitempty"`
	Action  string `json:"action"`
}

// StatusDTO is the derived session status for a staff member and shift.
type StatusDTO struct {
	State        string  `json:"state"`
	EntryID      string  `json:"entry_id,omitempty"`
	ClockInTime  *string `json:"clock_in_time,omitempty"`
	ClockOutTime *string `json:"clock_out_time,omitempty"`
	BreakMinutes int     `json:"break_minutes"`
	BreakDisplay string  `json:"break_display,omitempty"`
	CanModify    bool    `json:"can_modify"`
}

// EntryDTO is a clock entry in API responses.
type EntryDTO struct {
	ID           string  `json:"id"`
	StaffID      string  `json:"staff_id"`
	ShiftID      string  `json:"shift_id,omitempty"`
	Date         string  `json:"date"`
	ClockInTime  string  `json:"clock_in_time"`
	ClockOutTime *string `json:"clock_out_time,omitempty"`
	BreakMinutes int     `json:"break_minutes"`
}

// CorrectEntryRequest carries a post-hoc correction. Times accept either
// RFC3339 instants or "HH:MM" on the entry's own date.
type CorrectEntryRequest struct {
	ClockInTime  string `json:"clock_in_time"`
	ClockOutTime string `json:"clock_out_time"`
	BreakMinutes int    `json:"break_minutes"`
}

// =============================================================================
// PAYROLL TYPES
// =============================================================================

// PeriodDTO is a pay period in API responses.
type PeriodDTO struct {
	ID    string `json:"id"`
	Start string `json:"start"`
	End   string `json:"end"`
	Label string `json:"label"`
}

// PayrollRowDTO is one staff member's payroll for a period.
type PayrollRowDTO struct {
	StaffID      string            `json:"staff_id"`
	StaffName    string            `json:"staff_name"`
	BasePay      string            `json:"base_pay"`
	Hours        map[string]string `json:"hours_breakdown"`
	TotalHours   string            `json:"total_hours"`
	BreakHours   string            `json:"break_hours"`
	PayableHours string            `json:"payable_hours"`
	GrossPay     string            `json:"gross_pay"`
	ShiftsWorked int               `json:"shifts_worked"`
}

// PayrollTotalsDTO aggregates a period's rows.
type PayrollTotalsDTO struct {
	TotalGross    string `json:"total_gross"`
	TotalHours    string `json:"total_hours"`
	EmployeeCount int    `json:"employee_count"`
}

// PayrollResponse is the full payroll report for a period.
type PayrollResponse struct {
	Period PeriodDTO        `json:"period"`
	Rows   []PayrollRowDTO  `json:"rows"`
	Totals PayrollTotalsDTO `json:"totals"`
}

// =============================================================================
// ROSTER TYPES
// =============================================================================

// StaffDTO is a roster staff member.
type StaffDTO struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email,omitempty"`
	Role    string `json:"role,omitempty"`
	Avatar  string `json:"avatar,omitempty"`
	BasePay string `json:"base_pay"`
}

// ShiftDTO is a scheduled roster shift.
type ShiftDTO struct {
	ID        string `json:"id"`
	StaffID   string `json:"staff_id"`
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Role      string `json:"role,omitempty"`
}

// =============================================================================
// CONVERTERS
// =============================================================================

func toStatusDTO(s clock.Status, breakDisplay string) StatusDTO {
	return StatusDTO{
		State:        string(s.State),
		EntryID:      string(s.EntryID),
		ClockInTime:  timePtr(s.ClockIn),
		ClockOutTime: timePtr(s.ClockOut),
		BreakMinutes: s.BreakMinutes,
		BreakDisplay: breakDisplay,
		CanModify:    s.CanModify,
	}
}

func toEntryDTO(e clock.ClockEntry) EntryDTO {
	return EntryDTO{
		ID:           string(e.ID),
		StaffID:      string(e.StaffID),
		ShiftID:      string(e.ShiftID),
		Date:         e.Date.String(),
		ClockInTime:  e.ClockIn.UTC().Format(time.RFC3339),
		ClockOutTime: timePtr(e.ClockOut),
		BreakMinutes: e.BreakMinutes,
	}
}

func toEntryDTOs(entries []clock.ClockEntry) []EntryDTO {
	dtos := make([]EntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = toEntryDTO(e)
	}
	return dtos
}

func toPeriodDTO(p payperiod.PayPeriod) PeriodDTO {
	return PeriodDTO{ID: p.ID, Start: p.Start.String(), End: p.End.String(), Label: p.Label}
}

func toPayrollRowDTO(row payroll.PayrollRow) PayrollRowDTO {
	hours := make(map[string]string, len(row.Hours))
	for cat, h := range row.Hours {
		hours[string(cat)] = h.StringFixed(2)
	}
	return PayrollRowDTO{
		StaffID:      string(row.StaffID),
		StaffName:    row.StaffName,
		BasePay:      row.BasePay.StringFixed(2),
		Hours:        hours,
		TotalHours:   row.TotalHours.StringFixed(2),
		BreakHours:   row.BreakHours.StringFixed(2),
		PayableHours: row.PayableHours.StringFixed(2),
		GrossPay:     row.GrossPay.StringFixed(2),
		ShiftsWorked: row.ShiftsWorked,
	}
}

func toStaffDTO(s roster.StaffMember) StaffDTO {
	return StaffDTO{
		ID:      string(s.ID),
		Name:    s.Name,
		Email:   s.Email,
		Role:    s.Role,
		Avatar:  s.Avatar,
		BasePay: s.BasePay.StringFixed(2),
	}
}

func toShiftDTO(s roster.ScheduledShift) ShiftDTO {
	return ShiftDTO{
		ID:        string(s.ID),
		StaffID:   string(s.StaffID),
		Date:      s.Date.String(),
		StartTime: s.StartTime,
		EndTime:   s.EndTime,
		Role:      s.Role,
	}
}

func timePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}
