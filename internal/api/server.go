package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/eshaffer321/ledger-autoclear/internal/api/handlers"
	"github.com/eshaffer321/ledger-autoclear/internal/api/middleware"
	"github.com/eshaffer321/ledger-autoclear/internal/application/service"
	"github.com/eshaffer321/ledger-autoclear/internal/infrastructure/storage"
)

// Config holds API server configuration.
type Config struct {
	Port           int
	AllowedOrigins []string
}

// DefaultConfig returns sensible defaults for the API server.
func DefaultConfig() Config {
	return Config{
		Port:           8085,
		AllowedOrigins: middleware.DefaultCORSConfig().AllowedOrigins,
	}
}

// Server is the HTTP API server.
type Server struct {
	config     Config
	router     chi.Router
	httpServer *http.Server
	logger     *slog.Logger
	repo       storage.Repository
	autoclear  *service.AutoClearService
}

// NewServer creates a new API server.
// If svc is nil, an auto-clear service with the default solver is built on repo.
func NewServer(cfg Config, repo storage.Repository, svc *service.AutoClearService, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if svc == nil {
		svc = service.NewAutoClearService(repo, nil, logger)
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = DefaultConfig().AllowedOrigins
	}

	s := &Server{
		config:    cfg,
		router:    chi.NewRouter(),
		logger:    logger,
		repo:      repo,
		autoclear: svc,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// setupMiddleware configures global middleware.
func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(chimw.Recoverer)

	// CORS
	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowedOrigins = s.config.AllowedOrigins
	s.router.Use(middleware.CORS(corsConfig))

	// Request logging
	s.router.Use(middleware.Logging(s.logger))
}

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	// Health check (no /api prefix - for load balancers)
	healthHandler := handlers.NewHealthHandler()
	s.router.Get("/health", healthHandler.ServeHTTP)

	accountsHandler := handlers.NewAccountsHandler(s.repo, s.autoclear)
	splitsHandler := handlers.NewSplitsHandler(s.repo)
	autoclearHandler := handlers.NewAutoClearHandler(s.repo, s.autoclear)
	runsHandler := handlers.NewRunsHandler(s.repo)

	s.router.Route("/api", func(r chi.Router) {
		r.Route("/accounts", func(r chi.Router) {
			r.Get("/", accountsHandler.List)
			r.Post("/", accountsHandler.Create)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", accountsHandler.Get)
				r.Get("/splits", splitsHandler.List)
				r.Post("/splits", splitsHandler.Create)
				r.Post("/autoclear", autoclearHandler.Run)
				r.Get("/runs", runsHandler.ListForAccount)
			})
		})

		// Auto-clear runs (historical)
		r.Get("/runs", runsHandler.List)
		r.Get("/runs/{id}", runsHandler.Get)
	})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // a search may run up to the node budget
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
