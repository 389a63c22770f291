// Package scheduler runs the refresh cycle on a fixed interval.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"pricewatch_backend/internal/feature/prices/usecase"
	"pricewatch_backend/internal/shared/env"
)

// DefaultInterval matches the daily update of the price series.
const DefaultInterval = 24 * time.Hour

// Refresher runs one refresh cycle over every category.
type Refresher interface {
	RefreshAll(ctx context.Context) ([]usecase.RefreshReport, error)
}

// Config configures the scheduler.
type Config struct {
	Interval   time.Duration // Zero or negative disables the scheduler
	RunOnStart bool          // Refresh once immediately instead of waiting a full interval
}

// LoadConfig loads scheduler configuration from environment variables.
func LoadConfig() Config {
	return Config{
		Interval:   env.Duration("REFRESH_INTERVAL", DefaultInterval),
		RunOnStart: env.String("REFRESH_ON_START", "false") == "true",
	}
}

// Run blocks until ctx is cancelled, calling RefreshAll every interval.
// It returns immediately when the scheduler is disabled.
func Run(ctx context.Context, r Refresher, cfg Config) {
	if cfg.Interval <= 0 {
		slog.Info("scheduler disabled")
		return
	}

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	slog.Info("scheduler started", "interval", cfg.Interval, "run_on_start", cfg.RunOnStart)

	if cfg.RunOnStart {
		refresh(ctx, r)
	}

	for {
		select {
		case <-ctx.Done():
			slog.Info("scheduler stopped")
			return
		case <-ticker.C:
			refresh(ctx, r)
		}
	}
}

func refresh(ctx context.Context, r Refresher) {
	start := time.Now()
	reports, err := r.RefreshAll(ctx)
	if err != nil {
		slog.Error("scheduled refresh failed", "error", err, "categories_done", len(reports))
		return
	}
	stored := 0
	for _, rep := range reports {
		stored += rep.Stored
	}
	slog.Info("scheduled refresh done", "categories", len(reports), "stored", stored, "elapsed", time.Since(start))
}
