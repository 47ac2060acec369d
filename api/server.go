/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the roster frontend

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, hub *EventHub) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Clock routes
		r.Route("/clock", func(r chi.Router) {
			r.Post("/{staffId}", h.ClockAction)
			r.Get("/{staffId}/status", h.GetStatus)
		})

		// Payroll routes
		r.Get("/payperiods", h.ListPayPeriods)
		r.Get("/payroll/{periodId}", h.GetPayroll)

		// Entry routes
		r.Route("/entries", func(r chi.Router) {
			r.Get("/", h.ListEntries)
			r.Put("/{id}", h.CorrectEntry)
		})

		// Roster boundary (read-only)
		r.Route("/staff", func(r chi.Router) {
			r.Get("/", h.ListStaff)
			r.Get("/{id}", h.GetStaff)
			r.Get("/{id}/shifts", h.GetStaffShifts)
		})

		// Change notifications
		r.Get("/events", h.StreamEvents(hub))
	})

	return r
}
