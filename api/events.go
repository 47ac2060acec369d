/*
events.go - In-process entry-change broadcast

PURPOSE:
  Fans clock-entry changes out to connected clients over Server-Sent Events
  so roster UIs can refresh without polling. Strictly informational: events
  are dropped when a subscriber lags, and nothing downstream depends on
  delivery.

DESIGN:
  - EventHub implements clock.Notifier and is registered on the session
    manager and the corrector
  - Each subscriber gets a buffered channel; a full buffer drops the event
    rather than blocking a clock transition
  - Close() disconnects all subscribers on shutdown

SEE ALSO:
  - clock/store.go: Notifier contract
  - server.go:      /api/events route
*/
package api

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"

	"github.com/warp/timeclock-engine/clock"
)

// EventHub broadcasts entry changes to SSE subscribers.
type EventHub struct {
	mu     sync.Mutex
	subs   map[int]chan clock.ClockEntry
	nextID int
	closed bool
}

func NewEventHub() *EventHub {
	return &EventHub{subs: make(map[int]chan clock.ClockEntry)}
}

// EntryChanged implements clock.Notifier. Never blocks: slow subscribers
// miss events instead of stalling clock transitions.
func (h *EventHub) EntryChanged(entry clock.ClockEntry) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, ch := range h.subs {
		select {
		case ch <- entry:
		default:
		}
	}
}

// Subscribe registers a new subscriber and returns its channel plus an
// unsubscribe function.
func (h *EventHub) Subscribe() (<-chan clock.ClockEntry, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextID
	h.nextID++
	ch := make(chan clock.ClockEntry, 16)
	if h.closed {
		close(ch)
		return ch, func() {}
	}
	h.subs[id] = ch

	return ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if sub, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(sub)
		}
	}
}

// Close disconnects all subscribers. Used on shutdown.
func (h *EventHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
}

// Compile-time check
var _ clock.Notifier = (*EventHub)(nil)

// =============================================================================
// SSE ENDPOINT
// =============================================================================

// StreamEvents serves /api/events as a Server-Sent Events stream of entry
// changes.
func (h *Handler) StreamEvents(hub *EventHub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			writeError(w, http.StatusInternalServerError, "Streaming unsupported", nil)
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		flusher.Flush()

		events, unsubscribe := hub.Subscribe()
		defer unsubscribe()

		for {
			select {
			case <-r.Context().Done():
				return
			case entry, ok := <-events:
				if !ok {
					return
				}
				payload, err := json.Marshal(toEntryDTO(entry))
				if err != nil {
					log.Printf("[Events] marshal failed: %v", err)
					continue
				}
				fmt.Fprintf(w, "event: entry\ndata: %s\n\n", payload)
				flusher.Flush()
			}
		}
	}
}
