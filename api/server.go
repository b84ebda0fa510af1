/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the chi router, the middleware stack, and the route
  definitions. This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     request logging
  2. Recoverer:  panic recovery (500 instead of crash)
  3. RequestID:  unique ID per request for tracing
  4. CORS:       cross-origin requests for dashboards

SEE ALSO:
  - handlers.go: handler implementations
  - cmd/lcoe/main.go: server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.instrument("health", h.Health))
		r.Get("/parameters", h.instrument("parameters", h.GetParameters))
		r.Post("/estimate", h.instrument("estimate", h.Estimate))

		r.Route("/runs", func(r chi.Router) {
			r.Post("/", h.instrument("create_run", h.CreateRun))
			r.Get("/", h.instrument("list_runs", h.ListRuns))
			r.Get("/{id}", h.instrument("get_run", h.GetRun))
			r.Get("/{id}/results", h.instrument("get_run_results", h.GetRunResults))
		})
	})

	// Prometheus metrics
	r.Handle("/metrics", h.Collector.Handler())

	return r
}
