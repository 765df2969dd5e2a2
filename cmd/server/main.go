// Package main is the entry point for the TradeBook trading journal server.
// The application imports broker tradebooks, reconciles fills into consolidated
// trades, and serves the journal over an HTTP API.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aristath/tradebook/internal/config"
	"github.com/aristath/tradebook/internal/database"
	"github.com/aristath/tradebook/internal/modules/settings"
	"github.com/aristath/tradebook/internal/scheduler"
	"github.com/aristath/tradebook/internal/server"
	"github.com/aristath/tradebook/pkg/logger"
)

func main() {
	// Load configuration first to get log level
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().Msg("Starting TradeBook")

	db, err := database.New(database.Config{
		Path:    cfg.DatabasePath(),
		Profile: database.ProfileLedger, // Maximum safety for the trading record
		Name:    "journal",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open journal database")
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply journal schema")
	}
	log.Info().Str("path", cfg.DatabasePath()).Msg("Journal database ready")

	// Stored settings take precedence over environment configuration
	settingsRepo := settings.NewRepository(db.Conn(), log)
	envLogLevel := cfg.LogLevel
	if err := cfg.UpdateFromSettings(settingsRepo); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply stored settings")
	}
	if cfg.LogLevel != envLogLevel {
		log = logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.DevMode})
		logger.SetGlobalLogger(log)
		log.Info().Str("level", cfg.LogLevel).Msg("Log level set from stored settings")
	}

	// Nightly WAL checkpoint and incremental vacuum
	maintenance := scheduler.NewMaintenance(db, log)
	if err := maintenance.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start maintenance scheduler")
	}
	defer maintenance.Stop()

	srv := server.New(server.Config{
		Log:     log,
		DB:      db,
		Config:  cfg,
		Port:    cfg.Port,
		DevMode: cfg.DevMode,
	})

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("TradeBook is running")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		log.Fatal().Err(err).Msg("HTTP server failed")
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}

	log.Info().Msg("TradeBook stopped")
}
