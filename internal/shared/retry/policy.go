// Package retry implements the single retry policy used by outbound fetches:
// a bounded number of attempts, exponential backoff between ordinary failures
// and a much longer cooldown after rate-limit responses.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"
)

var (
	// ErrExhausted is returned once every attempt has failed.
	ErrExhausted = errors.New("retry budget exhausted")
	// ErrRateLimited matches errors that signal a throttling response (HTTP 429).
	ErrRateLimited = errors.New("rate limited")
)

const (
	DefaultMaxAttempts = 3
	// rateLimitBase and rateLimitCap bound the cooldown after a 429.
	rateLimitBase = 30 * time.Second
	rateLimitCap  = 5 * time.Minute
)

// RateLimitedError reports a throttling response. RetryAfter is the server's
// hint, zero when absent.
type RateLimitedError struct {
	StatusCode int
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited (http %d, retry-after %v)", e.StatusCode, e.RetryAfter)
}

// Is lets errors.Is(err, ErrRateLimited) match.
func (e *RateLimitedError) Is(target error) bool {
	return target == ErrRateLimited
}

type permanentError struct{ err error }

func (p permanentError) Error() string { return p.err.Error() }
func (p permanentError) Unwrap() error { return p.err }

// Permanent marks err as not worth retrying; Do returns it immediately.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return permanentError{err: err}
}

// BackoffFunc returns how long to wait after the failed attempt (0-based).
type BackoffFunc func(attempt int) time.Duration

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Policy is parameterized by attempt budget and the two backoff curves.
type Policy struct {
	MaxAttempts      int
	Backoff          BackoffFunc
	RateLimitBackoff BackoffFunc
	Sleep            SleepFunc
}

// NewPolicy returns a policy with the default curves: 2^attempt seconds after
// ordinary failures, 30s*2^attempt (capped at five minutes, jittered) after a 429.
func NewPolicy(maxAttempts int) Policy {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return Policy{
		MaxAttempts:      maxAttempts,
		Backoff:          ExponentialBackoff(time.Second),
		RateLimitBackoff: RateLimitCooldown(rateLimitBase, rateLimitCap, 0.2),
		Sleep:            SleepContext,
	}
}

// ExponentialBackoff returns base * 2^attempt.
func ExponentialBackoff(base time.Duration) BackoffFunc {
	return func(attempt int) time.Duration {
		return time.Duration(math.Pow(2, float64(attempt))) * base
	}
}

// RateLimitCooldown returns base * 2^attempt capped at max, with ±jitter
// fraction applied so parallel workers do not retry in lockstep.
func RateLimitCooldown(base, max time.Duration, jitter float64) BackoffFunc {
	return func(attempt int) time.Duration {
		d := time.Duration(math.Pow(2, float64(attempt))) * base
		if d > max || d <= 0 {
			d = max
		}
		if jitter > 0 {
			d = time.Duration(float64(d) * (1 + (rand.Float64()*2-1)*jitter))
		}
		return d
	}
}

// SleepContext blocks for d or until ctx is cancelled.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Do calls fn until it succeeds, returns a Permanent error, ctx is done, or the
// attempt budget is spent. It returns the number of attempts made. A rate-limit
// failure consumes an attempt but is followed by the rate-limit cooldown (or
// the server's Retry-After, whichever is longer) instead of ordinary backoff.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context, attempt int) error) (int, error) {
	max := p.MaxAttempts
	if max <= 0 {
		max = DefaultMaxAttempts
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = SleepContext
	}

	var lastErr error
	for attempt := 0; attempt < max; attempt++ {
		if err := ctx.Err(); err != nil {
			return attempt, err
		}

		err := fn(ctx, attempt)
		if err == nil {
			return attempt + 1, nil
		}
		lastErr = err

		var perm permanentError
		if errors.As(err, &perm) {
			return attempt + 1, perm.err
		}
		if attempt == max-1 {
			break
		}

		if err := sleep(ctx, p.wait(attempt, err)); err != nil {
			return attempt + 1, err
		}
	}
	return max, fmt.Errorf("%w after %d attempts: %w", ErrExhausted, max, lastErr)
}

func (p Policy) wait(attempt int, err error) time.Duration {
	var rl *RateLimitedError
	if errors.As(err, &rl) {
		d := time.Duration(0)
		if p.RateLimitBackoff != nil {
			d = p.RateLimitBackoff(attempt)
		}
		if rl.RetryAfter > d {
			d = rl.RetryAfter
		}
		return d
	}
	if p.Backoff == nil {
		return 0
	}
	return p.Backoff(attempt)
}
