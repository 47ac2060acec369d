/*
handlers.go - HTTP API handlers for the timeclock engine

PURPOSE:
  Exposes the clock-session state machine and payroll engine via REST.
  Handles HTTP request/response and JSON serialization, delegates to domain
  logic.

ENDPOINTS:
  Clock:
    POST   /api/clock/{staffId}          Apply a clock action (in/out/breaks)
    GET    /api/clock/{staffId}/status   Derived session status

  Payroll:
    GET    /api/payperiods               Pay-period window around today
    GET    /api/payroll/{periodId}       Payroll report for a period

  Entries:
    GET    /api/entries                  Query clock entries
    PUT    /api/entries/{id}             Correct a closed entry

  Roster (read-only boundary):
    GET    /api/staff                    List staff
    GET    /api/staff/{id}               Staff detail
    GET    /api/staff/{id}/shifts        Scheduled shifts in a date range

ERROR HANDLING:
  Errors are returned as JSON with status by taxonomy:
  - 400: Validation errors, malformed input
  - 404: Unknown entry/staff/period
  - 409: Conflict (double open session) or illegal state transition
  - 500: Persistence or configuration failures

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public; the
  deployment fronts this with the roster app's auth proxy.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/warp/timeclock-engine/clock"
	"github.com/warp/timeclock-engine/payperiod"
	"github.com/warp/timeclock-engine/payroll"
	"github.com/warp/timeclock-engine/roster"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// EntryStore is the persistence surface the handlers need beyond the domain
// services: raw entry queries for listings and payroll input.
type EntryStore interface {
	clock.Store
	roster.Provider
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store    EntryStore
	Sessions *clock.SessionManager
	Fixer    *clock.Corrector
	Payroll  *payroll.Engine
}

// NewHandler wires handlers over a combined store.
func NewHandler(store EntryStore, sessions *clock.SessionManager, fixer *clock.Corrector, engine *payroll.Engine) *Handler {
	return &Handler{Store: store, Sessions: sessions, Fixer: fixer, Payroll: engine}
}

// =============================================================================
// CLOCK HANDLERS
// =============================================================================

// ClockAction applies a clock action for a staff member and returns the
// resulting status.
func (h *Handler) ClockAction(w http.ResponseWriter, r *http.Request) {
	staffID := clock.StaffID(chi.URLParam(r, "staffId"))

	var req ClockActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	action, ok := clock.ParseAction(req.Action)
	if !ok {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Unknown action %q", req.Action), nil)
		return
	}

	status, err := h.Sessions.Apply(r.Context(), staffID, clock.ShiftID(req.ShiftID), action)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toStatusDTO(status, h.breakDisplay(staffID, status)))
}

// GetStatus returns the derived session status for a staff member, scoped to
// a shift when shift_id is supplied.
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	staffID := clock.StaffID(chi.URLParam(r, "staffId"))
	shiftID := clock.ShiftID(r.URL.Query().Get("shift_id"))

	status, err := h.Sessions.Status(r.Context(), staffID, shiftID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toStatusDTO(status, h.breakDisplay(staffID, status)))
}

func (h *Handler) breakDisplay(staffID clock.StaffID, status clock.Status) string {
	if status.State == clock.StateClockedIn || status.State == clock.StateOnBreak {
		return h.Sessions.Timers().Format(staffID, h.Sessions.Now())
	}
	return ""
}

// =============================================================================
// PAYROLL HANDLERS
// =============================================================================

// ListPayPeriods returns the pay-period window around today.
func (h *Handler) ListPayPeriods(w http.ResponseWriter, r *http.Request) {
	past := queryInt(r, "past", 5)
	future := queryInt(r, "future", 6)

	periods := payperiod.PeriodsAround(payperiod.Today(), past, future)
	dtos := make([]PeriodDTO, len(periods))
	for i, p := range periods {
		dtos[i] = toPeriodDTO(p)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"current_period_id": payperiod.CurrentPeriodID(payperiod.Today()),
		"periods":           dtos,
	})
}

// GetPayroll computes the payroll report for one pay period across all staff.
func (h *Handler) GetPayroll(w http.ResponseWriter, r *http.Request) {
	period, ok := payperiod.Find(chi.URLParam(r, "periodId"))
	if !ok {
		writeError(w, http.StatusNotFound, "Unknown pay period", nil)
		return
	}

	ctx := r.Context()
	staffList, err := h.Store.ListStaff(ctx)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	entries, err := h.Store.QueryEntries(ctx, clock.EntryQuery{From: &period.Start, To: &period.End})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	rows, err := h.Payroll.ComputeForPeriod(staffList, period, entries)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	rowDTOs := make([]PayrollRowDTO, len(rows))
	for i, row := range rows {
		rowDTOs[i] = toPayrollRowDTO(row)
	}
	totals := payroll.Totals(rows)

	writeJSON(w, http.StatusOK, PayrollResponse{
		Period: toPeriodDTO(period),
		Rows:   rowDTOs,
		Totals: PayrollTotalsDTO{
			TotalGross:    totals.TotalGross.StringFixed(2),
			TotalHours:    totals.TotalHours.StringFixed(2),
			EmployeeCount: totals.EmployeeCount,
		},
	})
}

// =============================================================================
// ENTRY HANDLERS
// =============================================================================

// ListEntries returns clock entries filtered by staff and date range.
func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	var q clock.EntryQuery

	if v := r.URL.Query().Get("staff_id"); v != "" {
		staffID := clock.StaffID(v)
		q.StaffID = &staffID
	}
	if v := r.URL.Query().Get("from"); v != "" {
		d, err := payperiod.ParseDate(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid from date: %s", v), err)
			return
		}
		q.From = &d
	}
	if v := r.URL.Query().Get("to"); v != "" {
		d, err := payperiod.ParseDate(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid to date: %s", v), err)
			return
		}
		q.To = &d
	}

	entries, err := h.Store.QueryEntries(r.Context(), q)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryDTOs(entries))
}

// CorrectEntry applies an authorized correction to a closed entry. The
// caller is responsible for re-requesting payroll afterwards; nothing is
// cached server-side.
func (h *Handler) CorrectEntry(w http.ResponseWriter, r *http.Request) {
	entryID := clock.EntryID(chi.URLParam(r, "id"))

	var req CorrectEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ctx := r.Context()
	entry, err := h.Store.GetEntry(ctx, entryID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	newIn, err := parseCorrectionTime(req.ClockInTime, entry.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid clock-in time: %s", req.ClockInTime), err)
		return
	}
	newOut, err := parseCorrectionTime(req.ClockOutTime, entry.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid clock-out time: %s", req.ClockOutTime), err)
		return
	}

	updated, err := h.Fixer.Correct(ctx, entryID, newIn, newOut, req.BreakMinutes)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryDTO(*updated))
}

// parseCorrectionTime accepts an RFC3339 instant or an "HH:MM" wall time on
// the entry's own calendar date (the form the correction dialog submits).
func parseCorrectionTime(s string, date payperiod.Date) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	hm, err := time.Parse("15:04", s)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(date.Year(), date.Month(), date.Day(),
		hm.Hour(), hm.Minute(), 0, 0, time.UTC), nil
}

// =============================================================================
// ROSTER HANDLERS (read-only boundary)
// =============================================================================

// ListStaff returns all roster staff.
func (h *Handler) ListStaff(w http.ResponseWriter, r *http.Request) {
	staffList, err := h.Store.ListStaff(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	dtos := make([]StaffDTO, len(staffList))
	for i, s := range staffList {
		dtos[i] = toStaffDTO(s)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetStaff returns one staff member.
func (h *Handler) GetStaff(w http.ResponseWriter, r *http.Request) {
	staff, err := h.Store.GetStaff(r.Context(), clock.StaffID(chi.URLParam(r, "id")))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toStaffDTO(*staff))
}

// GetStaffShifts returns a staff member's scheduled shifts in a date range,
// defaulting to the current pay period.
func (h *Handler) GetStaffShifts(w http.ResponseWriter, r *http.Request) {
	staffID := clock.StaffID(chi.URLParam(r, "id"))

	period := payperiod.PeriodFor(payperiod.Today())
	from, to := period.Start, period.End
	if v := r.URL.Query().Get("from"); v != "" {
		d, err := payperiod.ParseDate(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid from date: %s", v), err)
			return
		}
		from = d
	}
	if v := r.URL.Query().Get("to"); v != "" {
		d, err := payperiod.ParseDate(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid to date: %s", v), err)
			return
		}
		to = d
	}

	shifts, err := h.Store.GetShiftsForStaff(r.Context(), staffID, from, to)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	dtos := make([]ShiftDTO, len(shifts))
	for i, s := range shifts {
		dtos[i] = toShiftDTO(s)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	body := map[string]any{"error": message}
	if err != nil {
		body["detail"] = err.Error()
	}
	writeJSON(w, status, body)
}

// writeDomainError maps the clock error taxonomy onto HTTP status codes.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case clock.IsValidation(err):
		writeError(w, http.StatusBadRequest, "Validation failed", err)
	case clock.IsNotFound(err):
		writeError(w, http.StatusNotFound, "Not found", err)
	case clock.IsConflict(err), clock.IsInvalidState(err):
		writeError(w, http.StatusConflict, "Action not allowed in current state", err)
	default:
		writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}

func queryInt(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	var n int
	if _, err := fmt.Sscanf(v, "%d", &n); err != nil || n < 0 {
		return fallback
	}
	return n
}
