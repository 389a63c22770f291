package geizhals

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricewatch_backend/internal/feature/prices/usecase"
)

func newTestSource(t *testing.T, handler http.HandlerFunc, now time.Time) (*Source, string) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	var waits []time.Duration
	f := NewFetcher(srv.Client(), &stubGuard{}, recordingPolicy(2, &waits))
	return NewSource(f, NewExtractor(nil), func() time.Time { return now }), srv.URL
}

func TestSource_FetchQuote(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("success: price and timestamp", func(t *testing.T) {
		t.Parallel()

		src, url := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(pageWithGhPrice))
		}, now)

		q, err := src.FetchQuote(context.Background(), url)

		require.NoError(t, err)
		assert.Equal(t, 1049.90, q.Price)
		assert.Equal(t, now, q.Timestamp)
		assert.False(t, q.Missing)
	})

	t.Run("missing: page without price", func(t *testing.T) {
		t.Parallel()

		src, url := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(pageWithoutPrice))
		}, now)

		q, err := src.FetchQuote(context.Background(), url)

		require.NoError(t, err)
		assert.True(t, q.Missing)
	})

	t.Run("error: fetch failure", func(t *testing.T) {
		t.Parallel()

		src, url := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}, now)

		_, err := src.FetchQuote(context.Background(), url)

		assert.ErrorIs(t, err, usecase.ErrFetchFailed)
	})
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("FETCH_TIMEOUT", "3s")
	t.Setenv("FETCH_MAX_RETRIES", "5")
	t.Setenv("GUARD_RPM", "10")

	cfg := LoadConfig()

	assert.Equal(t, 3*time.Second, cfg.Timeout)
	assert.Equal(t, 5, cfg.MaxRetries)
	assert.Equal(t, 10, cfg.Guard.RequestsPerMinute)
}
