package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/medhub/medhub-api/assistant"
	"github.com/medhub/medhub-api/cabinet"
	"github.com/medhub/medhub-api/config"
	"github.com/medhub/medhub-api/data"
	"github.com/medhub/medhub-api/db"
	"github.com/medhub/medhub-api/handlers"
	"github.com/medhub/medhub-api/health"
	"github.com/medhub/medhub-api/interactions"
	"github.com/medhub/medhub-api/interfaces"
	"github.com/medhub/medhub-api/logging"
	"github.com/medhub/medhub-api/reference"
	"github.com/medhub/medhub-api/scheduler"
	"github.com/medhub/medhub-api/server"
	"github.com/medhub/medhub-api/validation"
)

func init() {
	// Get the working directory and read the env variables
	if err := godotenv.Load(); err != nil {
		// If failed, try loading from executable directory
		ex, err := os.Executable()
		if err != nil {
			slog.Error("Failed to get executable path", "error", err)
			os.Exit(1)
		}

		if err := os.Chdir(filepath.Dir(ex)); err != nil {
			slog.Error("Failed to change directory", "error", err)
			os.Exit(1)
		}

		// A missing .env is fine, the environment may be set by the service manager
		_ = godotenv.Load()
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	logging.InitLogger(logging.Options{
		Dir:            cfg.LogDir,
		Env:            cfg.Env,
		Level:          cfg.LogLevel,
		RetentionWeeks: cfg.LogRetentionWeeks,
		MaxFileSize:    cfg.MaxLogFileSize,
	})
	defer logging.Close()

	validator := validation.NewDataValidator()
	catalog := data.NewCatalogContainer()
	catalog.SetServerStartTime(time.Now())

	// Without a database the interaction tables still work, the reference
	// fallback and the cabinet are disabled
	var (
		pool          *pgxpool.Pool
		refreshes     *scheduler.Scheduler
		lookup        interfaces.ReferenceLookup
		cabinetRepo   interfaces.CabinetRepository
		healthChecker *health.HealthCheckerImpl
	)

	if cfg.DatabaseEnabled() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		pool, err = db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			cancel()
			logging.Error("Failed to connect to database", "error", err)
			os.Exit(1)
		}

		repo := cabinet.NewPGRepository(pool)
		if err := repo.EnsureSchema(ctx); err != nil {
			cancel()
			logging.Error("Failed to create cabinet schema", "error", err)
			os.Exit(1)
		}
		cancel()

		store := reference.NewPGStore(pool)
		refreshes = scheduler.NewScheduler(catalog, store, validator, cfg.ReferenceRefresh)
		if err := refreshes.Start(); err != nil {
			logging.Error("Failed to start catalog scheduler", "error", err)
			os.Exit(1)
		}

		lookup = reference.NewCachedLookup(catalog, store)
		cabinetRepo = repo
		healthChecker = health.NewHealthChecker(catalog, store, refreshes).
			WithPoolStats(func() map[string]any { return db.GetPoolStats(pool).Map() })
	} else {
		logging.Warn("DATABASE_URL not set, reference fallback and cabinet are disabled")
		healthChecker = health.NewHealthChecker(catalog, nil, nil)
	}

	var completer assistant.Completer
	if cfg.AssistantEnabled() {
		completer = assistant.NewClient(assistant.ClientConfig{
			BaseURL: cfg.AIGatewayURL,
			APIKey:  cfg.AIAPIKey,
			Model:   cfg.AIModel,
			Timeout: cfg.AITimeout,
		})
	} else {
		logging.Warn("AI gateway not configured, assistant endpoints are disabled")
	}

	handler := handlers.NewHTTPHandler(
		interactions.NewResolver(validator, lookup, cfg.ReferenceLookupTimeout),
		assistant.NewService(completer, validator),
		cabinetRepo,
		validator,
		healthChecker,
	)
	srv := server.NewServer(cfg, handler)

	// Channel to listen for interrupt signals
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := srv.Start(); err != nil {
			logging.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Block until a signal is received
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logging.Error("Shutdown failed", "error", err)
	}
	if refreshes != nil {
		refreshes.Stop()
	}
	if pool != nil {
		pool.Close()
	}
}
