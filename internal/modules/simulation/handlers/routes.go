package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers simulation routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/simulate", h.HandleSimulate)
	r.Get("/regimes", h.HandleGetRegimes)
	r.Get("/rules", h.HandleGetRules)

	r.Route("/scenarios", func(r chi.Router) {
		r.Get("/", h.HandleListScenarios)
		r.Get("/{name}", h.HandleGetScenario)
	})
}
