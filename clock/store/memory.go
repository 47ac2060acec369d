// Package store provides clock.Store implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/timeclock-engine/clock"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu      sync.RWMutex
	entries map[clock.EntryID]clock.ClockEntry

	// open maps staff to their open entry. Guarded by mu, which is what
	// makes the check-then-create in CreateEntry atomic.
	open map[clock.StaffID]clock.EntryID
}

func NewMemory() *Memory {
	return &Memory{
		entries: make(map[clock.EntryID]clock.ClockEntry),
		open:    make(map[clock.StaffID]clock.EntryID),
	}
}

// CreateEntry inserts a new entry, enforcing the single-open-entry invariant
// under the store lock.
func (m *Memory) CreateEntry(_ context.Context, entry clock.ClockEntry) error {
	if err := entry.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if entry.Open() {
		if openID, exists := m.open[entry.StaffID]; exists {
			return &clock.ConflictError{StaffID: entry.StaffID, OpenEntryID: openID}
		}
		m.open[entry.StaffID] = entry.ID
	}
	m.entries[entry.ID] = entry
	return nil
}

func (m *Memory) FindOpenEntry(_ context.Context, staff clock.StaffID) (*clock.ClockEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.open[staff]
	if !ok {
		return nil, nil
	}
	entry := m.entries[id]
	return &entry, nil
}

func (m *Memory) GetEntry(_ context.Context, id clock.EntryID) (*clock.ClockEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, ok := m.entries[id]
	if !ok {
		return nil, clock.ErrEntryNotFound
	}
	return &entry, nil
}

func (m *Memory) UpdateEntry(_ context.Context, id clock.EntryID, update clock.EntryUpdate) (*clock.ClockEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[id]
	if !ok {
		return nil, clock.ErrEntryNotFound
	}

	wasOpen := entry.Open()
	if update.ClockIn != nil {
		entry.ClockIn = *update.ClockIn
	}
	if update.ClockOut != nil {
		entry.ClockOut = update.ClockOut
	}
	if update.BreakMinutes != nil {
		entry.BreakMinutes = *update.BreakMinutes
	}

	m.entries[id] = entry
	if wasOpen && !entry.Open() {
		delete(m.open, entry.StaffID)
	}
	return &entry, nil
}

func (m *Memory) QueryEntries(_ context.Context, q clock.EntryQuery) ([]clock.ClockEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []clock.ClockEntry
	for _, entry := range m.entries {
		if q.Matches(entry) {
			out = append(out, entry)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ClockIn.Before(out[j].ClockIn)
	})
	return out, nil
}

// Compile-time check
var _ clock.Store = (*Memory)(nil)
