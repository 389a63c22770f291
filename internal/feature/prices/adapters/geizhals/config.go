// Package geizhals reads current listing prices from geizhals.at product pages.
package geizhals

import (
	"time"

	"pricewatch_backend/internal/shared/env"
	"pricewatch_backend/internal/shared/ratelimiter"
	"pricewatch_backend/internal/shared/retry"
)

// Config holds configuration for the geizhals scraper.
type Config struct {
	Timeout    time.Duration // Per-request timeout
	MaxRetries int           // Attempts per URL, including the first
	Guard      ratelimiter.GuardConfig
}

// LoadConfig loads scraper configuration from environment variables.
func LoadConfig() Config {
	return Config{
		Timeout:    env.Duration("FETCH_TIMEOUT", 10*time.Second),
		MaxRetries: env.Int("FETCH_MAX_RETRIES", retry.DefaultMaxAttempts),
		Guard: ratelimiter.GuardConfig{
			MinDelay:          env.Duration("GUARD_MIN_DELAY", ratelimiter.DefaultMinDelay),
			MaxDelay:          env.Duration("GUARD_MAX_DELAY", ratelimiter.DefaultMaxDelay),
			RequestsPerMinute: env.Int("GUARD_RPM", ratelimiter.DefaultRequestsPerMinute),
		},
	}
}
