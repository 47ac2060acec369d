/*
Package sqlite provides the SQLite-backed implementation of the storage
interfaces.

PURPOSE:
  Implements clock.Store (clock-entry persistence) and roster.Provider
  (staff + scheduled shifts) on a single SQLite database. In production the
  same patterns apply to PostgreSQL - only minor SQL dialect differences.

OPEN-ENTRY INVARIANT:
  The single-open-entry rule is enforced by the database itself with a
  partial unique index:

    CREATE UNIQUE INDEX idx_clock_entries_open
      ON clock_entries(staff_id) WHERE clock_out_time IS NULL

  Two near-simultaneous clock-ins cannot both succeed: the second insert
  violates the index and surfaces as a clock.ConflictError. The state
  machine's per-staff serialization makes this the backstop, not the primary
  path.

KEY TABLES:
  clock_entries: One row per work session
  staff:         Roster staff records with base pay
  shifts:        Scheduled roster shift windows

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  multiple readers don't block, single writer at a time, better crash
  recovery.

USAGE:
  store, err := sqlite.New("./data/timeclock.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper migration
  tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - clock/store.go: Interface definition and atomicity contract
  - clock/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/timeclock-engine/clock"
	"github.com/warp/timeclock-engine/payperiod"
	"github.com/warp/timeclock-engine/roster"
)

// Store implements clock.Store and roster.Provider using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS staff (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT,
		role TEXT,
		avatar TEXT,
		base_pay TEXT NOT NULL DEFAULT '0',
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS shifts (
		id TEXT PRIMARY KEY,
		staff_id TEXT NOT NULL REFERENCES staff(id),
		date TEXT NOT NULL,
		start_time TEXT NOT NULL,
		end_time TEXT NOT NULL,
		role TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_shifts_staff_date
		ON shifts(staff_id, date);

	CREATE TABLE IF NOT EXISTS clock_entries (
		id TEXT PRIMARY KEY,
		staff_id TEXT NOT NULL,
		shift_id TEXT,
		date TEXT NOT NULL,
		clock_in_time TEXT NOT NULL,
		clock_out_time TEXT,
		break_minutes INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);

	-- The single-open-entry invariant, enforced atomically with the insert
	CREATE UNIQUE INDEX IF NOT EXISTS idx_clock_entries_open
		ON clock_entries(staff_id) WHERE clock_out_time IS NULL;

	CREATE INDEX IF NOT EXISTS idx_clock_entries_staff_date
		ON clock_entries(staff_id, date);

	CREATE INDEX IF NOT EXISTS idx_clock_entries_date
		ON clock_entries(date);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Reset drops all data. Dev use only.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, table := range []string{"clock_entries", "shifts", "staff"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return &clock.PersistenceError{Op: "reset " + table, Err: err}
		}
	}
	return nil
}

// =============================================================================
// CLOCK ENTRIES (clock.Store)
// =============================================================================

// CreateEntry inserts a new entry. The partial unique index rejects a second
// open entry for the same staff member atomically with the insert.
func (s *Store) CreateEntry(ctx context.Context, entry clock.ClockEntry) error {
	if err := entry.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO clock_entries
		(id, staff_id, shift_id, date, clock_in_time, clock_out_time, break_minutes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		entry.ID,
		entry.StaffID,
		nullString(string(entry.ShiftID)),
		entry.Date.String(),
		entry.ClockIn.UTC().Format(time.RFC3339Nano),
		nullTime(entry.ClockOut),
		entry.BreakMinutes,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isOpenEntryConflict(err) {
			open, findErr := s.findOpenLocked(ctx, entry.StaffID)
			if findErr == nil && open != nil {
				return &clock.ConflictError{StaffID: entry.StaffID, OpenEntryID: open.ID}
			}
			return &clock.ConflictError{StaffID: entry.StaffID}
		}
		return &clock.PersistenceError{Op: "create clock entry", Err: err}
	}
	return nil
}

// FindOpenEntry returns the staff member's open entry, or nil.
func (s *Store) FindOpenEntry(ctx context.Context, staff clock.StaffID) (*clock.ClockEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.findOpenLocked(ctx, staff)
}

func (s *Store) findOpenLocked(ctx context.Context, staff clock.StaffID) (*clock.ClockEntry, error) {
	entries, err := s.queryEntries(ctx, `
		SELECT id, staff_id, shift_id, date, clock_in_time, clock_out_time, break_minutes
		FROM clock_entries
		WHERE staff_id = ? AND clock_out_time IS NULL
	`, staff)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}
	return &entries[0], nil
}

// GetEntry returns an entry by ID, or clock.ErrEntryNotFound.
func (s *Store) GetEntry(ctx context.Context, id clock.EntryID) (*clock.ClockEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := s.queryEntries(ctx, `
		SELECT id, staff_id, shift_id, date, clock_in_time, clock_out_time, break_minutes
		FROM clock_entries
		WHERE id = ?
	`, id)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, clock.ErrEntryNotFound
	}
	return &entries[0], nil
}

// UpdateEntry applies the non-nil fields and returns the updated row.
func (s *Store) UpdateEntry(ctx context.Context, id clock.EntryID, update clock.EntryUpdate) (*clock.ClockEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var sets []string
	var args []any
	if update.ClockIn != nil {
		sets = append(sets, "clock_in_time = ?")
		args = append(args, update.ClockIn.UTC().Format(time.RFC3339Nano))
	}
	if update.ClockOut != nil {
		sets = append(sets, "clock_out_time = ?")
		args = append(args, update.ClockOut.UTC().Format(time.RFC3339Nano))
	}
	if update.BreakMinutes != nil {
		sets = append(sets, "break_minutes = ?")
		args = append(args, *update.BreakMinutes)
	}
	if len(sets) == 0 {
		return nil, &clock.ValidationError{Field: "update", Reason: "no fields to update"}
	}
	args = append(args, id)

	res, err := s.db.ExecContext(ctx,
		"UPDATE clock_entries SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return nil, &clock.PersistenceError{Op: "update clock entry", Err: err}
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, clock.ErrEntryNotFound
	}

	entries, err := s.queryEntries(ctx, `
		SELECT id, staff_id, shift_id, date, clock_in_time, clock_out_time, break_minutes
		FROM clock_entries
		WHERE id = ?
	`, id)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, clock.ErrEntryNotFound
	}
	return &entries[0], nil
}

// QueryEntries returns entries matching the filter, ordered by clock-in.
func (s *Store) QueryEntries(ctx context.Context, q clock.EntryQuery) ([]clock.ClockEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, staff_id, shift_id, date, clock_in_time, clock_out_time, break_minutes
		FROM clock_entries
		WHERE 1=1
	`
	var args []any
	if q.StaffID != nil {
		query += " AND staff_id = ?"
		args = append(args, *q.StaffID)
	}
	if q.ShiftID != nil {
		query += " AND shift_id = ?"
		args = append(args, *q.ShiftID)
	}
	if q.From != nil {
		query += " AND date >= ?"
		args = append(args, q.From.String())
	}
	if q.To != nil {
		query += " AND date <= ?"
		args = append(args, q.To.String())
	}
	query += " ORDER BY clock_in_time ASC"

	return s.queryEntries(ctx, query, args...)
}

func (s *Store) queryEntries(ctx context.Context, query string, args ...any) ([]clock.ClockEntry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &clock.PersistenceError{Op: "query clock entries", Err: err}
	}
	defer rows.Close()

	var entries []clock.ClockEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, &clock.PersistenceError{Op: "scan clock entry", Err: err}
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func scanEntry(rows *sql.Rows) (clock.ClockEntry, error) {
	var (
		entry    clock.ClockEntry
		shiftID  sql.NullString
		dateStr  string
		inStr    string
		outStr   sql.NullString
	)
	if err := rows.Scan(&entry.ID, &entry.StaffID, &shiftID, &dateStr, &inStr, &outStr, &entry.BreakMinutes); err != nil {
		return clock.ClockEntry{}, err
	}

	entry.ShiftID = clock.ShiftID(shiftID.String)

	date, err := payperiod.ParseDate(dateStr)
	if err != nil {
		return clock.ClockEntry{}, fmt.Errorf("bad date %q: %w", dateStr, err)
	}
	entry.Date = date

	in, err := time.Parse(time.RFC3339Nano, inStr)
	if err != nil {
		return clock.ClockEntry{}, fmt.Errorf("bad clock-in %q: %w", inStr, err)
	}
	entry.ClockIn = in

	if outStr.Valid {
		out, err := time.Parse(time.RFC3339Nano, outStr.String)
		if err != nil {
			return clock.ClockEntry{}, fmt.Errorf("bad clock-out %q: %w", outStr.String, err)
		}
		entry.ClockOut = &out
	}
	return entry, nil
}

// =============================================================================
// STAFF (roster.Provider)
// =============================================================================

// SaveStaff inserts or replaces a staff record.
func (s *Store) SaveStaff(ctx context.Context, staff roster.StaffMember) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO staff (id, name, email, role, avatar, base_pay, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		staff.ID, staff.Name, staff.Email, staff.Role, staff.Avatar,
		staff.BasePay.String(), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return &clock.PersistenceError{Op: "save staff", Err: err}
	}
	return nil
}

// ListStaff returns all staff ordered by name.
func (s *Store) ListStaff(ctx context.Context) ([]roster.StaffMember, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, email, role, avatar, base_pay FROM staff ORDER BY name
	`)
	if err != nil {
		return nil, &clock.PersistenceError{Op: "list staff", Err: err}
	}
	defer rows.Close()

	var out []roster.StaffMember
	for rows.Next() {
		staff, err := scanStaff(rows)
		if err != nil {
			return nil, &clock.PersistenceError{Op: "scan staff", Err: err}
		}
		out = append(out, staff)
	}
	return out, rows.Err()
}

// GetStaff returns one staff member, or clock.ErrEntryNotFound.
func (s *Store) GetStaff(ctx context.Context, id clock.StaffID) (*roster.StaffMember, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, email, role, avatar, base_pay FROM staff WHERE id = ?
	`, id)
	if err != nil {
		return nil, &clock.PersistenceError{Op: "get staff", Err: err}
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, clock.ErrEntryNotFound
	}
	staff, err := scanStaff(rows)
	if err != nil {
		return nil, &clock.PersistenceError{Op: "scan staff", Err: err}
	}
	return &staff, nil
}

func scanStaff(rows *sql.Rows) (roster.StaffMember, error) {
	var (
		staff              roster.StaffMember
		email, role, avatar sql.NullString
		basePay            string
	)
	if err := rows.Scan(&staff.ID, &staff.Name, &email, &role, &avatar, &basePay); err != nil {
		return roster.StaffMember{}, err
	}
	staff.Email = email.String
	staff.Role = role.String
	staff.Avatar = avatar.String

	pay, err := decimal.NewFromString(basePay)
	if err != nil {
		return roster.StaffMember{}, fmt.Errorf("bad base pay %q: %w", basePay, err)
	}
	staff.BasePay = pay
	return staff, nil
}

// =============================================================================
// SCHEDULED SHIFTS (roster.Provider)
// =============================================================================

// SaveShift inserts or replaces a scheduled shift.
func (s *Store) SaveShift(ctx context.Context, shift roster.ScheduledShift) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO shifts (id, staff_id, date, start_time, end_time, role, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		shift.ID, shift.StaffID, shift.Date.String(), shift.StartTime, shift.EndTime,
		shift.Role, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return &clock.PersistenceError{Op: "save shift", Err: err}
	}
	return nil
}

// GetShiftsForStaff returns a staff member's shifts in [from, to], ordered by
// date then start time.
func (s *Store) GetShiftsForStaff(ctx context.Context, id clock.StaffID, from, to payperiod.Date) ([]roster.ScheduledShift, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, staff_id, date, start_time, end_time, role
		FROM shifts
		WHERE staff_id = ? AND date >= ? AND date <= ?
		ORDER BY date, start_time
	`, id, from.String(), to.String())
	if err != nil {
		return nil, &clock.PersistenceError{Op: "get shifts", Err: err}
	}
	defer rows.Close()

	var out []roster.ScheduledShift
	for rows.Next() {
		var (
			shift   roster.ScheduledShift
			dateStr string
			role    sql.NullString
		)
		if err := rows.Scan(&shift.ID, &shift.StaffID, &dateStr, &shift.StartTime, &shift.EndTime, &role); err != nil {
			return nil, &clock.PersistenceError{Op: "scan shift", Err: err}
		}
		date, err := payperiod.ParseDate(dateStr)
		if err != nil {
			return nil, &clock.PersistenceError{Op: "scan shift", Err: err}
		}
		shift.Date = date
		shift.Role = role.String
		out = append(out, shift)
	}
	return out, rows.Err()
}

// =============================================================================
// HELPERS
// =============================================================================

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(time.RFC3339Nano), Valid: true}
}

// isOpenEntryConflict matches a violation of the partial unique index on
// open entries. SQLite reports the column, not the index name.
func isOpenEntryConflict(err error) bool {
	return err != nil &&
		strings.Contains(err.Error(), "UNIQUE constraint failed") &&
		strings.Contains(err.Error(), "clock_entries.staff_id")
}

// Compile-time checks
var (
	_ clock.Store     = (*Store)(nil)
	_ roster.Provider = (*Store)(nil)
)
