// Package handlers provides HTTP handlers for trade imports.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aristath/tradebook/internal/modules/importer"
	"github.com/aristath/tradebook/internal/modules/trades"
)

// maxUploadBytes bounds the uploaded file size; imports are single files,
// not unbounded streams.
const maxUploadBytes = 10 << 20 // 10 MB

// TradeStore persists the consolidated trades of one import run.
type TradeStore interface {
	CreateBatch(batch []trades.Trade, importID string) error
}

// Handlers contains HTTP handlers for the import API
type Handlers struct {
	log     zerolog.Logger
	service *importer.Service
	store   TradeStore
}

// NewHandlers creates new import handlers
func NewHandlers(service *importer.Service, store TradeStore, log zerolog.Logger) *Handlers {
	return &Handlers{
		service: service,
		store:   store,
		log:     log.With().Str("handler", "import").Logger(),
	}
}

// importResponse is the payload returned for a completed import run
type importResponse struct {
	ImportID   string               `json:"import_id"`
	Imported   int                  `json:"imported"`
	Rejected   int                  `json:"rejected"`
	Trades     int                  `json:"trades"`
	Warnings   []string             `json:"warnings"`
	Rejections []importer.Rejection `json:"rejections"`
}

// HandleImport runs the import engine over an uploaded trade export and
// persists the resulting trades in one batch.
// POST /api/import (multipart "file" field, or raw CSV body)
func (h *Handlers) HandleImport(w http.ResponseWriter, r *http.Request) {
	body, err := h.uploadReader(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer body.Close()

	result, err := h.service.Import(body)
	if err != nil {
		// Batch failures abort before any row is processed.
		if errors.Is(err, importer.ErrEmptyInput) || errors.Is(err, importer.ErrNoHeader) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.log.Error().Err(err).Msg("Import failed")
		http.Error(w, "Import failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	importID := uuid.New().String()

	batch := make([]trades.Trade, 0, len(result.Trades))
	for _, ct := range result.Trades {
		batch = append(batch, trades.FromConsolidated(ct))
	}

	if len(batch) > 0 {
		if err := h.store.CreateBatch(batch, importID); err != nil {
			h.log.Error().Err(err).Str("import_id", importID).Msg("Failed to store import batch")
			http.Error(w, "Failed to store imported trades", http.StatusInternalServerError)
			return
		}
	}

	h.log.Info().
		Str("import_id", importID).
		Int("trades", len(batch)).
		Int("rejected", len(result.Rejections)).
		Msg("Import stored")

	writeJSON(w, http.StatusOK, importResponse{
		ImportID:   importID,
		Imported:   result.Imported,
		Rejected:   len(result.Rejections),
		Trades:     len(batch),
		Warnings:   result.Warnings,
		Rejections: result.Rejections,
	})
}

// HandleTemplate serves the application-native import template
// GET /api/import/template
func (h *Handlers) HandleTemplate(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="trade_import_template.csv"`)
	if _, err := w.Write([]byte(importer.SampleTemplate())); err != nil {
		h.log.Error().Err(err).Msg("Failed to write template response")
	}
}

// uploadReader extracts the uploaded CSV: the multipart "file" field when
// present, the raw request body otherwise.
func (h *Handlers) uploadReader(r *http.Request) (io.ReadCloser, error) {
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			return nil, errors.New("invalid multipart upload")
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			return nil, errors.New(`multipart upload is missing the "file" field`)
		}
		return file, nil
	}
	return http.MaxBytesReader(nil, r.Body, maxUploadBytes), nil
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
