// Package handlers provides HTTP handlers for journal trade CRUD.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/tradebook/internal/modules/trades"
)

// Handlers contains HTTP handlers for the trades API
type Handlers struct {
	log  zerolog.Logger
	repo *trades.Repository
}

// NewHandlers creates new trade handlers
func NewHandlers(repo *trades.Repository, log zerolog.Logger) *Handlers {
	return &Handlers{
		repo: repo,
		log:  log.With().Str("handler", "trades").Logger(),
	}
}

// HandleList returns journal trades, newest first
// GET /api/trades?limit=50
func (h *Handlers) HandleList(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if limitParam := r.URL.Query().Get("limit"); limitParam != "" {
		if parsed, err := strconv.Atoi(limitParam); err == nil {
			limit = parsed
		}
	}

	var (
		list []trades.Trade
		err  error
	)
	if symbol := r.URL.Query().Get("symbol"); symbol != "" {
		list, err = h.repo.GetBySymbol(symbol, limit)
	} else {
		list, err = h.repo.List(limit)
	}
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list trades")
		http.Error(w, "Failed to list trades", http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []trades.Trade{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"trades": list})
}

// HandleGet returns one trade by ID
// GET /api/trades/{id}
func (h *Handlers) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid trade id", http.StatusBadRequest)
		return
	}

	trade, err := h.repo.GetByID(id)
	if err != nil {
		h.log.Error().Err(err).Int64("id", id).Msg("Failed to get trade")
		http.Error(w, "Failed to get trade", http.StatusInternalServerError)
		return
	}
	if trade == nil {
		http.Error(w, "Trade not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, trade)
}

// HandleCreate creates a new journal trade
// POST /api/trades
func (h *Handlers) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var trade trades.Trade
	if err := json.NewDecoder(r.Body).Decode(&trade); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.repo.Create(&trade); err != nil {
		h.log.Error().Err(err).Msg("Failed to create trade")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusCreated, trade)
}

// HandleUpdate updates an existing journal trade
// PUT /api/trades/{id}
func (h *Handlers) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid trade id", http.StatusBadRequest)
		return
	}

	var trade trades.Trade
	if err := json.NewDecoder(r.Body).Decode(&trade); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	trade.ID = id

	if err := h.repo.Update(&trade); err != nil {
		h.log.Error().Err(err).Int64("id", id).Msg("Failed to update trade")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, trade)
}

// HandleDelete removes a journal trade
// DELETE /api/trades/{id}
func (h *Handlers) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid trade id", http.StatusBadRequest)
		return
	}

	if err := h.repo.Delete(id); err != nil {
		h.log.Error().Err(err).Int64("id", id).Msg("Failed to delete trade")
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
