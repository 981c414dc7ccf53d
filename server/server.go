// Package server provides HTTP server management and lifecycle handling for
// the medhub API: middleware, routes and graceful shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	_ "net/http/pprof"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/medhub/medhub-api/config"
	"github.com/medhub/medhub-api/interfaces"
	"github.com/medhub/medhub-api/logging"
	"github.com/medhub/medhub-api/metrics"
)

// ShutdownTimeout bounds the graceful shutdown
const ShutdownTimeout = 30 * time.Second

// Server represents the HTTP server
type Server struct {
	server      *http.Server
	router      chi.Router
	handler     interfaces.HTTPHandler
	rateLimiter *RateLimiter
	config      *config.Config
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config, handler interfaces.HTTPHandler) *Server {
	router := chi.NewRouter()

	s := &Server{
		server: &http.Server{
			Handler:      router,
			Addr:         cfg.Address + ":" + cfg.Port,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: cfg.AITimeout + 15*time.Second,
			IdleTimeout:  60 * time.Second,
		},
		router:      router,
		handler:     handler,
		rateLimiter: NewRateLimiter(),
		config:      cfg,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// setupMiddleware configures all middleware
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	if s.config.Env == config.EnvStaging || s.config.Env == config.EnvProduction {
		s.router.Use(BlockDirectAccessMiddleware) // before RealIPMiddleware to see the original RemoteAddr
	}
	s.router.Use(RealIPMiddleware)
	s.router.Use(logging.LoggingMiddleware(requestLogger()))
	s.router.Use(middleware.RedirectSlashes)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5, "application/json", "text/csv"))
	s.router.Use(metrics.Metrics)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:     []string{"*"},
		AllowedMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:     []string{"Authorization", "Content-Type", "X-Client-Info", "Apikey", logging.UserIDHeader},
		ExposedHeaders:     []string{"Content-Disposition", "X-RateLimit-Remaining"},
		AllowCredentials:   false,
		MaxAge:             300,
		OptionsPassthrough: true,
	}))
	s.router.Use(RequestSizeMiddleware(s.config))
	s.router.Use(s.rateLimiter.Middleware)
	s.router.Use(PreflightMiddleware(s.handler.Preflight))
}

func requestLogger() *slog.Logger {
	if logging.DefaultLoggingService != nil {
		return logging.DefaultLoggingService.Logger
	}
	return slog.Default()
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	h := s.handler

	s.router.Post("/v1/interactions", h.CheckInteractions)
	s.router.Post("/drug-interactions", h.CheckInteractions)

	s.router.Route("/v1/assistant", func(r chi.Router) {
		r.Post("/identify", h.IdentifyMedicine)
		r.Post("/explain-report", h.ExplainReport)
		r.Post("/ask", h.AskQuestion)
	})

	s.router.Route("/v1/cabinet", func(r chi.Router) {
		r.Get("/", h.ListCabinet)
		r.Post("/", h.CreateCabinetMedicine)
		r.Get("/export", h.ExportCabinet)
		r.Post("/import", h.ImportCabinet)
		r.Get("/stats", h.CabinetStats)
		r.Get("/reminders", h.CabinetReminders)
		r.Post("/interactions", h.CabinetInteractions)
		r.Get("/{id}", h.GetCabinetMedicine)
		r.Put("/{id}", h.UpdateCabinetMedicine)
		r.Delete("/{id}", h.DeleteCabinetMedicine)
	})

	s.router.Get("/health", h.HealthCheck)
	s.router.Handle("/metrics", promhttp.Handler())
}

// Router exposes the configured router, mostly for tests
func (s *Server) Router() http.Handler {
	return s.router
}

// Start starts the server and blocks until it is shut down
func (s *Server) Start() error {
	if s.config.Env == config.EnvDevelopment {
		s.startProfilingServer()
	}

	logging.Info(fmt.Sprintf("Starting server at: %s:%s", s.config.Address, s.config.Port))
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down server...")
	defer s.rateLimiter.Stop()

	if err := s.server.Shutdown(ctx); err != nil {
		logging.Error("Server forced to shutdown", "error", err)
		// If graceful shutdown fails, force close
		if err := s.server.Close(); err != nil {
			logging.Error("Server close error", "error", err)
			return err
		}
	}

	logging.Info("Server shutdown complete")
	return nil
}

// startProfilingServer starts the pprof profiling server in development mode
func (s *Server) startProfilingServer() {
	go func() {
		logging.Info("Profiling server started at http://localhost:6060/debug/pprof/")
		if err := http.ListenAndServe("localhost:6060", nil); err != nil {
			logging.Warn("Profiling server failed", "error", err)
		}
	}()
}
