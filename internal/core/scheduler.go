package core

// scheduler.go runs background maintenance for the audit log.
//
// The retention job deletes audit entries older than the retention window.
// It runs once on start and then every CheckInterval until the context is
// cancelled. A failed run is logged and retried on the next tick.

import (
	"context"
	"log/slog"
	"time"
)

// RetentionConfig holds configuration for the retention scheduler.
type RetentionConfig struct {
	RetentionDays int           // Days to keep entries (default: 365)
	CheckInterval time.Duration // How often to run (default: 24h)
}

func (c RetentionConfig) withDefaults() RetentionConfig {
	if c.RetentionDays <= 0 {
		c.RetentionDays = 365
	}
	if c.CheckInterval <= 0 {
		c.CheckInterval = 24 * time.Hour
	}
	return c
}

// StartRetentionScheduler blocks, purging old audit entries periodically.
// Run it in its own goroutine; it returns when ctx is cancelled.
func (s *Service) StartRetentionScheduler(ctx context.Context, cfg RetentionConfig) {
	cfg = cfg.withDefaults()
	slog.Info("audit retention scheduler started",
		"retention_days", cfg.RetentionDays,
		"interval", cfg.CheckInterval.String(),
	)

	s.runRetentionJob(ctx, cfg, time.Now())

	ticker := time.NewTicker(cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("audit retention scheduler stopped")
			return
		case now := <-ticker.C:
			s.runRetentionJob(ctx, cfg, now)
		}
	}
}

// runRetentionJob performs one purge and returns the number of entries removed.
func (s *Service) runRetentionJob(ctx context.Context, cfg RetentionConfig, now time.Time) int64 {
	start := time.Now()
	cutoff := now.AddDate(0, 0, -cfg.RetentionDays)

	purged, err := s.audit.Purge(ctx, cutoff)
	if err != nil {
		slog.Error("audit purge failed", "error", err)
		return 0
	}

	slog.Info("purged old audit entries",
		"entries_purged", purged,
		"cutoff", cutoff.Format(time.RFC3339),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return purged
}
