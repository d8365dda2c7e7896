/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Logger:     Request logging
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests for the editing front end

ROUTE GROUPS:
  /api/health           Liveness
  /api/allocate         Stateless allocation
  /api/scenarios        Stateless scenario battery
  /api/district         Seat table
  /api/documents/*      Document owner, runs, scenarios, sweep
  /api/samples/*        Demo elections

SECURITY NOTE:
  No authentication middleware. All endpoints are public.

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

// NewRouter creates a new router with all routes configured. An empty
// origins slice allows any origin.
func NewRouter(h *Handler, origins []string) *chi.Mux {
	r := chi.NewRouter()

	if len(origins) == 0 {
		origins = []string{"*"}
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		MaxAge:         300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health)
		r.Post("/allocate", h.Allocate)
		r.Post("/scenarios", h.Scenarios)
		r.Get("/district", h.GetDistrict)

		// Document routes
		r.Route("/documents", func(r chi.Router) {
			r.Get("/", h.ListDocuments)
			r.Post("/", h.CreateDocument)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetDocument)
				r.Delete("/", h.DeleteDocument)
				r.Get("/export", h.ExportDocument)

				r.Post("/run", h.RunDocument)
				r.Get("/runs", h.ListRuns)
				r.Post("/scenarios", h.DocumentScenarios)
				r.Post("/sweep", h.Sweep)
				r.Post("/adopt", h.AdoptLists)

				r.Post("/lists", h.AddList)
				r.Route("/lists/{listID}", func(r chi.Router) {
					r.Put("/", h.UpdateList)
					r.Delete("/", h.RemoveList)
					r.Post("/sync", h.SyncVotes)
					r.Post("/candidates", h.AddCandidate)
					r.Put("/candidates/{candidateID}", h.UpdateCandidate)
					r.Delete("/candidates/{candidateID}", h.RemoveCandidate)
				})
			})
		})

		// Sample routes
		r.Route("/samples", func(r chi.Router) {
			r.Get("/", h.ListSamples)
			r.Post("/load", h.LoadSample)
		})
	})

	return r
}
