package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/eshaffer321/ledger-dedupe/internal/api/handlers"
	"github.com/eshaffer321/ledger-dedupe/internal/api/middleware"
	"github.com/eshaffer321/ledger-dedupe/internal/application/service"
	"github.com/eshaffer321/ledger-dedupe/internal/infrastructure/storage"
)

// Config holds API server configuration.
type Config struct {
	Port           int
	AllowedOrigins []string
}

// DefaultConfig returns sensible defaults for the API server.
func DefaultConfig() Config {
	return Config{
		Port:           8080,
		AllowedOrigins: middleware.DefaultCORSConfig().AllowedOrigins,
	}
}

// Server is the HTTP API server.
type Server struct {
	config     Config
	router     *gin.Engine
	httpServer *http.Server
	logger     *slog.Logger
	repo       storage.Repository
	svc        *service.DuplicateService
}

// NewServer creates a new API server.
// If svc is nil, a service with the default detector is built on repo.
func NewServer(cfg Config, repo storage.Repository, svc *service.DuplicateService, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if svc == nil {
		svc = service.NewDuplicateService(repo, nil, 0, logger)
	}

	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		config: cfg,
		router: gin.New(),
		logger: logger,
		repo:   repo,
		svc:    svc,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// setupMiddleware configures global middleware.
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())

	corsConfig := middleware.DefaultCORSConfig()
	if len(s.config.AllowedOrigins) > 0 {
		corsConfig.AllowedOrigins = s.config.AllowedOrigins
	}
	s.router.Use(middleware.CORS(corsConfig))

	s.router.Use(middleware.Logging(s.logger))
}

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	// Health check (no /api prefix - for load balancers)
	s.router.GET("/health", handlers.Health)

	api := s.router.Group("/api")
	{
		transactions := handlers.NewTransactionsHandler(s.repo, s.svc, s.logger)
		api.POST("/transactions", transactions.Create)
		api.GET("/transactions", transactions.List)
		api.GET("/transactions/:id", transactions.Get)
		api.DELETE("/transactions/:id", transactions.Delete)

		duplicates := handlers.NewDuplicatesHandler(s.repo, s.svc, s.logger)
		api.POST("/duplicates/check", duplicates.Check)
		api.GET("/duplicates/potential", duplicates.Potential)
		api.GET("/duplicates/checks", duplicates.ListChecks)
		api.GET("/duplicates/checks/:id", duplicates.GetCheck)

		stats := handlers.NewStatsHandler(s.repo, s.logger)
		api.GET("/stats", stats.Get)
	}
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

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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

// Router returns the gin engine for testing.
func (s *Server) Router() http.Handler {
	return s.router
}
