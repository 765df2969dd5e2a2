// Package handlers provides HTTP handlers for application settings.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/tradebook/internal/modules/settings"
)

// Handlers contains HTTP handlers for the settings API
type Handlers struct {
	log  zerolog.Logger
	repo *settings.Repository
}

// NewHandlers creates new settings handlers
func NewHandlers(repo *settings.Repository, log zerolog.Logger) *Handlers {
	return &Handlers{
		repo: repo,
		log:  log.With().Str("handler", "settings").Logger(),
	}
}

// RegisterRoutes registers all settings routes
func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Route("/settings", func(r chi.Router) {
		r.Get("/", h.HandleGetAll)
		r.Put("/{key}", h.HandleSet)
	})
}

// HandleGetAll returns all stored settings
// GET /api/settings
func (h *Handlers) HandleGetAll(w http.ResponseWriter, r *http.Request) {
	all, err := h.repo.GetAll()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get settings")
		http.Error(w, "Failed to get settings", http.StatusInternalServerError)
		return
	}
	if all == nil {
		all = []settings.Setting{}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"settings": all})
}

// HandleSet upserts one setting
// PUT /api/settings/{key}
func (h *Handlers) HandleSet(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	var payload struct {
		Value       string  `json:"value"`
		Description *string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.repo.Set(key, payload.Value, payload.Description); err != nil {
		h.log.Error().Err(err).Str("key", key).Msg("Failed to set setting")
		http.Error(w, "Failed to set setting", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
