package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/salvationministries/console/internal/api"
	"github.com/salvationministries/console/internal/cache"
	"github.com/salvationministries/console/internal/config"
	"github.com/salvationministries/console/internal/core"
	_ "github.com/salvationministries/console/internal/core/resources" // Register all resources
	"github.com/salvationministries/console/internal/logging"
	"github.com/salvationministries/console/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging based on config
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"backend", backendHost(cfg.Backend.BaseURL),
		"backend_max_concurrent", cfg.Backend.MaxConcurrent,
		"cache_ttl", cfg.Cache.TTL,
		"audit_database", cfg.AuditEnabled(),
		"rate_limit_enabled", cfg.Rate.Enabled,
	)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	client, err := api.NewClient(api.Options{
		BaseURL:       cfg.Backend.BaseURL,
		Timeout:       cfg.Backend.Timeout,
		MaxConcurrent: cfg.Backend.MaxConcurrent,
		MaxWait:       cfg.Backend.MaxWaitTime,
		SessionCookie: cfg.Backend.SessionCookie,
		Metrics:       api.NewMetrics(reg),
	})
	if err != nil {
		slog.Error("failed to create backend client", "error", err)
		os.Exit(1)
	}

	resourceCache := cache.New(cache.Options{
		TTL:        cfg.Cache.TTL,
		MaxEntries: cfg.Cache.MaxEntries,
		Metrics:    cache.NewMetrics(reg),

		FetchTimeout: cfg.Backend.MaxWaitTime + cfg.Backend.Timeout,
	})

	ctx := context.Background()
	audit, closeAudit, err := openAuditLog(ctx, cfg)
	if err != nil {
		slog.Error("failed to open audit log", "error", err)
		os.Exit(1)
	}
	defer closeAudit()

	service := core.NewService(client, resourceCache, audit,
		core.WithPageSizes(cfg.Table.DefaultPageSize, cfg.Table.PageSizes),
	)

	slog.Info("resources registered",
		"count", core.Count(),
		"groups", len(core.Groups()),
	)

	server := web.NewServer(service, cfg, web.Dependencies{
		Limiter:  client.Limiter(),
		Registry: reg,
	})

	// Create cancellable context for background jobs
	jobCtx, cancelJobs := context.WithCancel(context.Background())

	go service.StartRetentionScheduler(jobCtx, core.RetentionConfig{
		RetentionDays: cfg.Audit.RetentionDays,
		CheckInterval: cfg.Audit.CheckInterval,
	})

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		// Stop background jobs
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}

		// Let in-flight backend mutations finish before the process exits
		if status := client.Limiter().Status(); status.Active > 0 {
			slog.Info("waiting for backend requests", "active", status.Active)
			if err := client.Limiter().WaitForDrain(shutdownCtx); err != nil {
				slog.Warn("backend requests did not complete in time", "error", err)
			}
		}
	}()

	if err := server.Start(cfg.Server.Addr()); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// openAuditLog connects the Postgres audit store when DATABASE_URL is set,
// otherwise it falls back to the in-memory log.
func openAuditLog(ctx context.Context, cfg *config.Config) (core.AuditLog, func(), error) {
	if !cfg.AuditEnabled() {
		slog.Info("no audit database configured, keeping the audit trail in memory")
		return core.NewMemoryAuditLog(0, nil), func() {}, nil
	}

	// Parse and configure connection pool
	poolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("parse database URL: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.Database.MaxConns)
	poolConfig.MinConns = int32(cfg.Database.MinConns)
	poolConfig.MaxConnLifetime = cfg.Database.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.Database.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("connect audit database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("connect audit database: %w", err)
	}

	// Log which database we connected to
	if u, err := url.Parse(cfg.Database.URL); err == nil {
		slog.Info("connected to audit database", "name", strings.TrimPrefix(u.Path, "/"))
	}

	store := core.NewPGAuditStore(pool)
	if err := store.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("create audit schema: %w", err)
	}
	return store, pool.Close, nil
}

func backendHost(raw string) string {
	if u, err := url.Parse(raw); err == nil {
		return u.Host
	}
	return ""
}
