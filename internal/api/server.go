package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/betonops/reconcile-backend/internal/api/handlers"
	"github.com/betonops/reconcile-backend/internal/api/middleware"
	"github.com/betonops/reconcile-backend/internal/application/reconcile"
	"github.com/betonops/reconcile-backend/internal/infrastructure/storage"
)

// Config holds API server configuration.
type Config struct {
	Port           int
	AllowedOrigins []string
	// AutoMinScore is the confidence threshold for auto-reconcile runs
	// that do not specify their own.
	AutoMinScore float64
}

// DefaultConfig returns sensible defaults for the API server.
func DefaultConfig() Config {
	return Config{
		Port:           8080,
		AllowedOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		AutoMinScore:   reconcile.DefaultAutoMinScore,
	}
}

// Server is the HTTP API server.
type Server struct {
	config     Config
	router     chi.Router
	httpServer *http.Server
	logger     *slog.Logger
	repo       storage.Repository
	service    *reconcile.Service
}

// NewServer creates a new API server.
func NewServer(cfg Config, repo storage.Repository, service *reconcile.Service, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		config:  cfg,
		router:  chi.NewRouter(),
		logger:  logger,
		repo:    repo,
		service: service,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// setupMiddleware configures global middleware.
func (s *Server) setupMiddleware() {
	// CORS
	corsConfig := middleware.CORSConfig{
		AllowedOrigins: s.config.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}
	s.router.Use(middleware.CORS(corsConfig))

	// Request logging
	s.router.Use(middleware.Logging(s.logger))
}

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	// Health check (no /api prefix - for load balancers)
	healthHandler := handlers.NewHealthHandler()
	s.router.Get("/health", healthHandler.ServeHTTP)

	// API routes
	s.router.Route("/api", func(r chi.Router) {
		// Transactions
		txnHandler := handlers.NewTransactionsHandler(s.repo, s.service, s.logger)
		r.Get("/transactions", txnHandler.List)
		r.Get("/transactions/{id}", txnHandler.Get)
		r.Post("/transactions/import", txnHandler.Import)

		// Reconciliation actions
		reconHandler := handlers.NewReconcileHandler(s.service, s.config.AutoMinScore, s.logger)
		r.Get("/transactions/{id}/suggestions", reconHandler.Suggestions)
		r.Post("/transactions/{id}/reconcile", reconHandler.Confirm)
		r.Post("/transactions/{id}/ignore", reconHandler.Ignore)
		r.Post("/reconcile/auto", reconHandler.Auto)

		// Audit trail
		recordsHandler := handlers.NewRecordsHandler(s.repo, s.logger)
		r.Get("/records", recordsHandler.List)

		// Stats
		statsHandler := handlers.NewStatsHandler(s.service, s.logger)
		r.Get("/stats", statsHandler.Get)
	})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("starting API server", "addr", addr)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down API server")

	if s.httpServer == nil {
		return nil
	}

	return s.httpServer.Shutdown(ctx)
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}
