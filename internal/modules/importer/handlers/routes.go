package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all import routes
func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Route("/import", func(r chi.Router) {
		r.Post("/", h.HandleImport)
		r.Get("/template", h.HandleTemplate)
	})
}
