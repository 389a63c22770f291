package geizhals

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"pricewatch_backend/internal/feature/prices/usecase"
	"pricewatch_backend/internal/shared/retry"
)

// maxBodyBytes bounds how much of a listing page is read.
const maxBodyBytes = 5 << 20

// Identity supplies the per-request client identity and pacing.
type Identity interface {
	UserAgent() string
	Wait(ctx context.Context) error
}

// StatusError is a non-2xx response.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("geizhals http %d", e.StatusCode)
}

// Fetcher retrieves listing pages with retries, backoff and a rotating identity.
type Fetcher struct {
	client *http.Client
	guard  Identity
	policy retry.Policy
	now    func() time.Time
}

// NewFetcher creates a Fetcher.
func NewFetcher(client *http.Client, guard Identity, policy retry.Policy) *Fetcher {
	return &Fetcher{client: client, guard: guard, policy: policy, now: time.Now}
}

// Fetch returns the body of url. Every attempt waits for the guard first.
// After the retry budget is spent the error wraps usecase.ErrFetchFailed.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	var body string
	attempts, err := f.policy.Do(ctx, func(ctx context.Context, attempt int) error {
		if err := f.guard.Wait(ctx); err != nil {
			return retry.Permanent(err)
		}
		b, err := f.get(ctx, url)
		if err != nil {
			slog.Debug("fetch attempt failed", "url", url, "attempt", attempt+1, "error", err)
			return err
		}
		body = b
		return nil
	})
	if err != nil {
		if IsStatus(err, http.StatusNotFound) || IsStatus(err, http.StatusGone) {
			slog.Warn("listing not available", "url", url, "attempts", attempts)
		}
		return "", fmt.Errorf("%w: %s: %w", usecase.ErrFetchFailed, url, err)
	}
	return body, nil
}

func (f *Fetcher) get(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", retry.Permanent(err)
	}
	f.setHeaders(req)

	res, err := f.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", retry.Permanent(ctxErr)
		}
		return "", err
	}
	defer func() {
		if err := res.Body.Close(); err != nil {
			slog.Warn("failed to close response body", "error", err)
		}
	}()

	if res.StatusCode == http.StatusTooManyRequests {
		return "", &retry.RateLimitedError{
			StatusCode: res.StatusCode,
			RetryAfter: parseRetryAfter(res.Header.Get("Retry-After"), f.now()),
		}
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return "", &StatusError{StatusCode: res.StatusCode}
	}

	b, err := io.ReadAll(io.LimitReader(res.Body, maxBodyBytes))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (f *Fetcher) setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", f.guard.UserAgent())
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "de-AT,de;q=0.9,en;q=0.7")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")
	req.Header.Set("Upgrade-Insecure-Requests", "1")
}

// parseRetryAfter reads a Retry-After header given in seconds or as an HTTP date.
func parseRetryAfter(v string, now time.Time) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := t.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}

// IsStatus reports whether err carries the given HTTP status.
func IsStatus(err error, code int) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode == code
	}
	var rl *retry.RateLimitedError
	if errors.As(err, &rl) {
		return rl.StatusCode == code
	}
	return false
}
