package geizhals

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricewatch_backend/internal/feature/prices/usecase"
	"pricewatch_backend/internal/shared/retry"
)

// stubGuard satisfies Identity without waiting.
type stubGuard struct {
	waits atomic.Int32
	err   error
}

func (g *stubGuard) UserAgent() string { return "test-agent/1.0" }

func (g *stubGuard) Wait(ctx context.Context) error {
	g.waits.Add(1)
	return g.err
}

// recordingPolicy retries without sleeping and records the requested waits.
func recordingPolicy(max int, waits *[]time.Duration) retry.Policy {
	return retry.Policy{
		MaxAttempts:      max,
		Backoff:          retry.ExponentialBackoff(time.Second),
		RateLimitBackoff: retry.RateLimitCooldown(30*time.Second, 5*time.Minute, 0),
		Sleep: func(ctx context.Context, d time.Duration) error {
			*waits = append(*waits, d)
			return ctx.Err()
		},
	}
}

func TestFetcher_Fetch_Success(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-agent/1.0", r.Header.Get("User-Agent"))
		assert.Contains(t, r.Header.Get("Accept-Language"), "de-AT")
		_, _ = w.Write([]byte("<html>ok</html>"))
	}))
	defer srv.Close()

	guard := &stubGuard{}
	var waits []time.Duration
	f := NewFetcher(srv.Client(), guard, recordingPolicy(3, &waits))

	body, err := f.Fetch(context.Background(), srv.URL)

	require.NoError(t, err)
	assert.Equal(t, "<html>ok</html>", body)
	assert.Equal(t, int32(1), guard.waits.Load(), "guard runs before the first request")
	assert.Empty(t, waits)
}

func TestFetcher_Fetch_RateLimitedThenOK(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`<span class="gh_price">€ 699,99</span>`))
	}))
	defer srv.Close()

	guard := &stubGuard{}
	var waits []time.Duration
	f := NewFetcher(srv.Client(), guard, recordingPolicy(3, &waits))

	body, err := f.Fetch(context.Background(), srv.URL)

	require.NoError(t, err)
	assert.Contains(t, body, "699,99")
	assert.Equal(t, int32(2), calls.Load(), "exactly two attempts")
	assert.Equal(t, int32(2), guard.waits.Load())
	assert.Equal(t, []time.Duration{30 * time.Second}, waits, "429 waits the rate-limit cooldown")
}

func TestFetcher_Fetch_RetryAfterHeader(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "120")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	var waits []time.Duration
	f := NewFetcher(srv.Client(), &stubGuard{}, recordingPolicy(3, &waits))

	_, err := f.Fetch(context.Background(), srv.URL)

	require.NoError(t, err)
	assert.Equal(t, []time.Duration{2 * time.Minute}, waits)
}

func TestFetcher_Fetch_ExhaustsRetries(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	var waits []time.Duration
	f := NewFetcher(srv.Client(), &stubGuard{}, recordingPolicy(3, &waits))

	_, err := f.Fetch(context.Background(), srv.URL)

	require.Error(t, err)
	assert.ErrorIs(t, err, usecase.ErrFetchFailed)
	assert.True(t, IsStatus(err, http.StatusServiceUnavailable))
	assert.Equal(t, 1, strings.Count(err.Error(), "after 3 attempts"), err.Error())
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, waits)
}

func TestFetcher_Fetch_NotFoundIsRetried(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	var waits []time.Duration
	f := NewFetcher(srv.Client(), &stubGuard{}, recordingPolicy(2, &waits))

	_, err := f.Fetch(context.Background(), srv.URL)

	assert.ErrorIs(t, err, usecase.ErrFetchFailed)
	assert.True(t, IsStatus(err, http.StatusNotFound))
	assert.Equal(t, int32(2), calls.Load())
}

func TestFetcher_Fetch_GuardCancelled(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("request must not be sent")
	}))
	defer srv.Close()

	var waits []time.Duration
	f := NewFetcher(srv.Client(), &stubGuard{err: context.Canceled}, recordingPolicy(3, &waits))

	_, err := f.Fetch(context.Background(), srv.URL)

	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, err, usecase.ErrFetchFailed)
	assert.Empty(t, waits)
}

func TestFetcher_Fetch_InvalidURL(t *testing.T) {
	t.Parallel()

	var waits []time.Duration
	f := NewFetcher(http.DefaultClient, &stubGuard{}, recordingPolicy(3, &waits))

	_, err := f.Fetch(context.Background(), "://bad")

	assert.ErrorIs(t, err, usecase.ErrFetchFailed)
	assert.Empty(t, waits, "malformed URLs are not retried")
}

func TestParseRetryAfter(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, time.Duration(0), parseRetryAfter("", now))
	assert.Equal(t, 30*time.Second, parseRetryAfter("30", now))
	assert.Equal(t, time.Duration(0), parseRetryAfter("-5", now))
	assert.Equal(t, time.Minute, parseRetryAfter(now.Add(time.Minute).Format(http.TimeFormat), now))
	assert.Equal(t, time.Duration(0), parseRetryAfter("soon", now))
}
