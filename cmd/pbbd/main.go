package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	pbbhttp "github.com/civicbudget/pbb-api/internal/adapter/http"
	"github.com/civicbudget/pbb-api/internal/adapter/openai"
	"github.com/civicbudget/pbb-api/internal/adapter/otel"
	"github.com/civicbudget/pbb-api/internal/adapter/postgres"
	"github.com/civicbudget/pbb-api/internal/adapter/ristretto"
	"github.com/civicbudget/pbb-api/internal/config"
	"github.com/civicbudget/pbb-api/internal/logger"
	"github.com/civicbudget/pbb-api/internal/middleware"
	"github.com/civicbudget/pbb-api/internal/service"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		if err := runMigrate(os.Args[2:]); err != nil {
			slog.Error("fatal", "error", err)
			os.Exit(1)
		}
		return
	}

	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

// runMigrate handles `pbbd migrate up|down [steps]|status` against the
// configured database.
func runMigrate(args []string) error {
	action, steps, err := parseMigrateArgs(args)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	ctx := context.Background()
	switch action {
	case "up":
		if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
			return err
		}
		slog.Info("migrations applied")
	case "down":
		if err := postgres.RollbackMigrations(ctx, cfg.Postgres.DSN, steps); err != nil {
			return err
		}
		slog.Info("migrations rolled back", "steps", steps)
	case "status":
		v, err := postgres.MigrationVersion(ctx, cfg.Postgres.DSN)
		if err != nil {
			return err
		}
		slog.Info("migration status", "version", v)
	}
	return nil
}

func parseMigrateArgs(args []string) (action string, steps int, err error) {
	if len(args) == 0 {
		return "", 0, fmt.Errorf("usage: pbbd migrate up|down [steps]|status")
	}
	switch args[0] {
	case "up", "status":
		if len(args) > 1 {
			return "", 0, fmt.Errorf("migrate %s takes no arguments", args[0])
		}
		return args[0], 0, nil
	case "down":
		steps = 1
		if len(args) > 1 {
			steps, err = strconv.Atoi(args[1])
			if err != nil || steps < 1 {
				return "", 0, fmt.Errorf("migrate down: steps must be a positive integer")
			}
		}
		return "down", steps, nil
	default:
		return "", 0, fmt.Errorf("unknown migrate action %q", args[0])
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log, logCloser := logger.New(cfg.Logging)
	slog.SetDefault(log)
	defer logCloser.Close()

	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Logging.Level,
		"pg_max_conns", cfg.Postgres.MaxConns,
		"semantic_search", cfg.OpenAI.APIKey != "",
	)

	ctx := context.Background()

	// --- Infrastructure ---

	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()
	slog.Info("postgres connected")

	if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	slog.Info("migrations applied")

	metrics, err := otel.NewMetrics()
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	cache, err := ristretto.New(cfg.Cache.MaxSizeMB<<20, cfg.Cache.TTL)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	defer cache.Close()

	// Embedder stays nil-safe when no API key is configured; search
	// degrades to keyword matching.
	embedder := openai.NewClient(cfg.OpenAI)

	// --- Services ---
	store := postgres.NewStore(pool)

	handlers := pbbhttp.NewHandlers(
		cfg,
		store,
		cache,
		metrics,
		service.NewDatasetService(store),
		service.NewOrganizationService(store),
		service.NewProgramService(store),
		service.NewChartService(store),
		service.NewDividendService(store),
		service.NewSankeyService(store),
		service.NewSearchService(store, embedder),
		service.NewIngestService(store, log, metrics),
		service.NewEmbeddingService(store, embedder, log),
	)

	// --- HTTP ---
	r := chi.NewRouter()

	r.Use(pbbhttp.CORS(cfg.Server.CORSOrigin))
	r.Use(pbbhttp.SecurityHeaders)
	r.Use(middleware.RequestID)
	r.Use(pbbhttp.Logger)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(otel.HTTPMiddleware("pbb-api"))

	pbbhttp.MountRoutes(r, handlers)

	addr := ":" + cfg.Server.Port

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
		}
	}()

	<-done
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
