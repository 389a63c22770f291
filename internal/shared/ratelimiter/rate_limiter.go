// Package ratelimiter throttles outbound requests so scraping looks like a
// patient human rather than a burst of bot traffic.
package ratelimiter

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"pricewatch_backend/internal/shared/retry"
)

// Limiter caps how often an operation may run.
type Limiter interface {
	Wait(ctx context.Context) error
}

var _ Limiter = (*RateLimiter)(nil)

// RateLimiter is a fixed-window limiter: at most limit calls per interval.
type RateLimiter struct {
	mu        sync.Mutex
	limit     int           // calls allowed per window
	interval  time.Duration // window length
	count     int
	lastReset time.Time

	now   func() time.Time
	sleep retry.SleepFunc
}

// NewRateLimiter creates a limiter allowing limit calls per interval.
// A non-positive limit disables limiting.
func NewRateLimiter(limit int, interval time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:     limit,
		interval:  interval,
		lastReset: time.Now(),
		now:       time.Now,
		sleep:     retry.SleepContext,
	}
}

// Wait blocks until the current window has room for one more call. The lock
// is released while sleeping so other callers still see their own ctx.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	if rl.limit <= 0 {
		return ctx.Err()
	}

	for {
		pause, ok := rl.reserve()
		if ok {
			return nil
		}
		slog.Info("rate limit reached, pausing", "limit", rl.limit, "pause", pause)
		if err := rl.sleep(ctx, pause); err != nil {
			return err
		}
	}
}

// reserve takes a slot in the current window, or reports how long until the
// window ends.
func (rl *RateLimiter) reserve() (time.Duration, bool) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.lastReset) >= rl.interval {
		rl.count = 0
		rl.lastReset = now
	}
	if rl.count < rl.limit {
		rl.count++
		return 0, true
	}
	return rl.interval - now.Sub(rl.lastReset), false
}
