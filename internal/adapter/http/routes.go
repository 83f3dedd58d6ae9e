package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// MountRoutes registers all API routes on the given chi router.
func MountRoutes(r chi.Router, h *Handlers) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"version":"0.1.0"}`))
		})

		r.Post("/decisions", h.Decide)
		r.Post("/decisions/plan", h.DecidePlan)
		r.Post("/decisions/{id}/outcome", h.ReportOutcome)
		r.Get("/decisions", h.ListDecisions)

		r.Get("/stats", h.Stats)
	})
}
