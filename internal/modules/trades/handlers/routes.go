package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all trade routes
func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Route("/trades", func(r chi.Router) {
		r.Get("/", h.HandleList)
		r.Post("/", h.HandleCreate)
		r.Get("/{id}", h.HandleGet)
		r.Put("/{id}", h.HandleUpdate)
		r.Delete("/{id}", h.HandleDelete)
	})
}
