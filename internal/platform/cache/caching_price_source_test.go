package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricewatch_backend/internal/feature/prices/domain/entity"
	"pricewatch_backend/internal/feature/prices/usecase"
)

// mockPriceSource is a test PriceSource.
type mockPriceSource struct {
	fetchFn func(ctx context.Context, url string) (entity.PriceQuote, error)
	calls   int
}

func (m *mockPriceSource) FetchQuote(ctx context.Context, url string) (entity.PriceQuote, error) {
	m.calls++
	if m.fetchFn != nil {
		return m.fetchFn(ctx, url)
	}
	return entity.PriceQuote{}, nil
}

// failingCache fails every operation.
type failingCache struct{}

func (failingCache) Get(context.Context, string) (entity.PriceQuote, bool, error) {
	return entity.PriceQuote{}, false, errors.New("cache down")
}

func (failingCache) Set(context.Context, string, entity.PriceQuote) error {
	return errors.New("cache down")
}

func TestCachingPriceSource_HitSkipsSource(t *testing.T) {
	t.Parallel()

	clk := &testClock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	inner := &mockPriceSource{
		fetchFn: func(ctx context.Context, url string) (entity.PriceQuote, error) {
			return entity.PriceQuote{Price: 699.99, Timestamp: clk.t}, nil
		},
	}
	src := NewCachingPriceSource(NewMemoryCache(10, time.Hour, clk.now), inner, clk.now)
	ctx := context.Background()

	first, err := src.FetchQuote(ctx, "https://geizhals.at/a")
	require.NoError(t, err)
	clk.advance(30 * time.Minute)
	second, err := src.FetchQuote(ctx, "https://geizhals.at/a")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, inner.calls, "second fetch in the same hour is served from cache")

	clk.advance(30 * time.Minute)
	_, err = src.FetchQuote(ctx, "https://geizhals.at/a")
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls, "a new hour fetches again")
}

func TestCachingPriceSource_FetchFailureNotCached(t *testing.T) {
	t.Parallel()

	clk := &testClock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	inner := &mockPriceSource{
		fetchFn: func(ctx context.Context, url string) (entity.PriceQuote, error) {
			return entity.PriceQuote{}, usecase.ErrFetchFailed
		},
	}
	src := NewCachingPriceSource(NewMemoryCache(10, time.Hour, clk.now), inner, clk.now)

	for i := 0; i < 2; i++ {
		_, err := src.FetchQuote(context.Background(), "u")
		assert.ErrorIs(t, err, usecase.ErrFetchFailed)
	}
	assert.Equal(t, 2, inner.calls)
}

func TestCachingPriceSource_MissingPriceIsCached(t *testing.T) {
	t.Parallel()

	clk := &testClock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}

	tests := []struct {
		name  string
		quote entity.PriceQuote
		err   error
	}{
		{name: "missing quote", quote: entity.PriceQuote{Missing: true, Timestamp: clk.t}},
		{name: "price not found error", err: usecase.ErrPriceNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			inner := &mockPriceSource{
				fetchFn: func(ctx context.Context, url string) (entity.PriceQuote, error) {
					return tt.quote, tt.err
				},
			}
			src := NewCachingPriceSource(NewMemoryCache(10, time.Hour, clk.now), inner, clk.now)

			_, _ = src.FetchQuote(context.Background(), "u")
			q, err := src.FetchQuote(context.Background(), "u")

			require.NoError(t, err)
			assert.True(t, q.Missing)
			assert.Equal(t, 1, inner.calls)
		})
	}
}

func TestCachingPriceSource_NilCacheBypasses(t *testing.T) {
	t.Parallel()

	inner := &mockPriceSource{}
	src := NewCachingPriceSource(nil, inner, nil)

	_, _ = src.FetchQuote(context.Background(), "u")
	_, _ = src.FetchQuote(context.Background(), "u")
	assert.Equal(t, 2, inner.calls)
}

func TestCachingPriceSource_CacheErrorsFallBackToSource(t *testing.T) {
	t.Parallel()

	inner := &mockPriceSource{
		fetchFn: func(ctx context.Context, url string) (entity.PriceQuote, error) {
			return entity.PriceQuote{Price: 5}, nil
		},
	}
	src := NewCachingPriceSource(failingCache{}, inner, nil)

	q, err := src.FetchQuote(context.Background(), "u")
	require.NoError(t, err)
	assert.Equal(t, 5.0, q.Price)
}
