package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/aristath/tradebook/internal/database"
	"github.com/aristath/tradebook/internal/modules/trades"
	"github.com/aristath/tradebook/pkg/logger"
)

// SystemHandlers handles system-wide monitoring endpoints
type SystemHandlers struct {
	log         zerolog.Logger
	db          *database.DB
	tradeRepo   *trades.Repository
	startupTime time.Time
}

// NewSystemHandlers creates a new system handlers instance
func NewSystemHandlers(log zerolog.Logger, db *database.DB, tradeRepo *trades.Repository) *SystemHandlers {
	return &SystemHandlers{
		log:         logger.ForComponent(log, "system_handlers"),
		db:          db,
		tradeRepo:   tradeRepo,
		startupTime: time.Now(),
	}
}

// SystemStatusResponse represents the system status response
type SystemStatusResponse struct {
	Status        string  `json:"status"` // "healthy" or "unhealthy"
	TradeCount    int     `json:"trade_count"`
	LastImport    string  `json:"last_import,omitempty"`
	UptimeHours   float64 `json:"uptime_hours"`
	CPUPercent    float64 `json:"cpu_percent"`
	RAMPercent    float64 `json:"ram_percent"`
	DatabaseSize  float64 `json:"database_size_mb"`
	WALSize       float64 `json:"wal_size_mb"`
	DatabasePages int64   `json:"database_pages"`
}

// HandleHealth returns a simple health check
func (h *SystemHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := "ok"
	code := http.StatusOK
	if err := h.db.HealthCheck(ctx); err != nil {
		h.log.Error().Err(err).Msg("Health check failed")
		status = "unhealthy"
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"status": status})
}

// HandleStatus returns comprehensive system status
func (h *SystemHandlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	h.log.Debug().Msg("Getting system status")

	response := SystemStatusResponse{
		Status:      "healthy",
		UptimeHours: time.Since(h.startupTime).Hours(),
	}

	tradeCount, err := h.tradeRepo.Count()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to count trades")
		response.Status = "unhealthy"
	}
	response.TradeCount = tradeCount

	var lastImport sql.NullInt64
	err = h.db.Conn().QueryRow("SELECT MAX(created_at) FROM trades WHERE import_id IS NOT NULL").Scan(&lastImport)
	if err != nil && err != sql.ErrNoRows {
		h.log.Warn().Err(err).Msg("Failed to query last import time")
	}
	if lastImport.Valid {
		response.LastImport = time.Unix(lastImport.Int64, 0).Format("2006-01-02 15:04")
	}

	if stats, err := h.db.GetStats(); err != nil {
		h.log.Warn().Err(err).Msg("Failed to get database stats")
	} else {
		response.DatabaseSize = float64(stats.SizeBytes) / 1024 / 1024
		response.WALSize = float64(stats.WALSizeBytes) / 1024 / 1024
		response.DatabasePages = stats.PageCount
	}

	response.CPUPercent, response.RAMPercent = h.getSystemStats()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// getSystemStats calculates CPU and RAM usage percentages
// Uses a 100ms sampling interval to avoid blocking the API call for too long
func (h *SystemHandlers) getSystemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	return cpuAvg, memStat.UsedPercent
}
