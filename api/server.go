/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the planning UI

ROUTE GROUPS:
  /api/allocations/weekly/*   Weekly matrix and overrides
  /api/reports/*              Conflicts, utilization, forecasts, timeline
  /api/resources/*            Resource profiles
  /api/releases/*             Release allocations (assignment output)
  /api/scenarios/*            Demo scenarios
  /                           Endpoint index

SECURITY NOTE:
  No authentication middleware. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
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
		// Weekly matrix
		r.Route("/allocations/weekly", func(r chi.Router) {
			r.Get("/", h.GetWeeklyMatrix)
			r.Put("/{resourceId}/{weekStart}", h.SetWeeklyAllocation)
			r.Delete("/{resourceId}/{weekStart}", h.ClearWeeklyAllocation)
		})

		// Reports
		r.Route("/reports", func(r chi.Router) {
			r.Post("/", h.RunReport)
			r.Get("/conflicts", h.GetConflicts)
			r.Get("/utilization", h.GetUtilization)
			r.Get("/capacity-forecast", h.GetCapacityForecast)
			r.Get("/skill-capacity-forecast", h.GetSkillCapacityForecast)
			r.Get("/release-timeline/{releaseId}", h.GetReleaseTimeline)
		})

		// Resource routes
		r.Route("/resources", func(r chi.Router) {
			r.Get("/", h.ListResources)
			r.Post("/", h.CreateResource)
			r.Get("/{id}", h.GetResource)
		})

		// Release routes
		r.Route("/releases/{id}", func(r chi.Router) {
			r.Get("/allocations", h.GetReleaseAllocations)
			r.Put("/allocations", h.ReplaceReleaseAllocations)
		})

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
			r.Post("/reset", h.ResetDatabase)
		})
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<!DOCTYPE html>
<html>
<head><title>Allocation Engine</title></head>
<body style="font-family: system-ui; max-width: 800px; margin: 50px auto; padding: 20px;">
<h1>Allocation Engine API</h1>
<h2>API Endpoints</h2>
<ul>
<li><a href="/api/allocations/weekly">/api/allocations/weekly</a> - Weekly matrix</li>
<li><a href="/api/reports/conflicts">/api/reports/conflicts</a> - Over-allocated weeks</li>
<li><a href="/api/reports/capacity-forecast">/api/reports/capacity-forecast</a> - Capacity forecast</li>
<li><a href="/api/resources">/api/resources</a> - Resources</li>
<li><a href="/api/scenarios">/api/scenarios</a> - Demo scenarios</li>
</ul>
</body>
</html>`))
	})

	return r
}
