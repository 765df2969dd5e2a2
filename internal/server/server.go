// Package server provides the HTTP server and routing for TradeBook.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/aristath/tradebook/internal/config"
	"github.com/aristath/tradebook/internal/database"
	"github.com/aristath/tradebook/internal/modules/importer"
	importhandlers "github.com/aristath/tradebook/internal/modules/importer/handlers"
	"github.com/aristath/tradebook/internal/modules/settings"
	settingshandlers "github.com/aristath/tradebook/internal/modules/settings/handlers"
	"github.com/aristath/tradebook/internal/modules/trades"
	tradeshandlers "github.com/aristath/tradebook/internal/modules/trades/handlers"
	"github.com/aristath/tradebook/pkg/logger"
)

// Config holds server configuration
type Config struct {
	Log     zerolog.Logger
	DB      *database.DB
	Config  *config.Config
	Port    int
	DevMode bool
}

// Server represents the HTTP server
type Server struct {
	router         *chi.Mux
	server         *http.Server
	log            zerolog.Logger
	db             *database.DB
	cfg            *config.Config
	systemHandlers *SystemHandlers
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router: chi.NewRouter(),
		log:    logger.ForComponent(cfg.Log, "server"),
		db:     cfg.DB,
		cfg:    cfg.Config,
	}

	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes(cfg.Log)

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	// Recovery from panics
	s.router.Use(middleware.Recoverer)

	// Request ID
	s.router.Use(middleware.RequestID)

	// Real IP
	s.router.Use(middleware.RealIP)

	// Logging
	s.router.Use(s.loggingMiddleware)

	// Timeout
	s.router.Use(middleware.Timeout(60 * time.Second))

	// CORS
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Compress responses
	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes(log zerolog.Logger) {
	tradeRepo := trades.NewRepository(s.db.Conn(), log)
	settingsRepo := settings.NewRepository(s.db.Conn(), log)
	importService := importer.NewService(log)

	s.systemHandlers = NewSystemHandlers(log, s.db, tradeRepo)

	// Health check
	s.router.Get("/health", s.systemHandlers.HandleHealth)

	// API routes
	s.router.Route("/api", func(r chi.Router) {
		importhandlers.NewHandlers(importService, tradeRepo, log).RegisterRoutes(r)
		tradeshandlers.NewHandlers(tradeRepo, log).RegisterRoutes(r)
		settingshandlers.NewHandlers(settingsRepo, log).RegisterRoutes(r)

		r.Route("/system", func(r chi.Router) {
			r.Get("/status", s.systemHandlers.HandleStatus)
		})
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
