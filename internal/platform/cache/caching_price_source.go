package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"pricewatch_backend/internal/feature/prices/domain/entity"
	"pricewatch_backend/internal/feature/prices/usecase"
)

// CachingPriceSource decorates a PriceSource with a QuoteCache keyed by URL
// and hour. Successful quotes and pages without a price are cached; fetch
// failures are not, so the next cycle retries them.
type CachingPriceSource struct {
	inner usecase.PriceSource
	cache QuoteCache
	now   func() time.Time
}

var _ usecase.PriceSource = (*CachingPriceSource)(nil)

// NewCachingPriceSource decorates inner. A nil cache bypasses caching.
func NewCachingPriceSource(cache QuoteCache, inner usecase.PriceSource, now func() time.Time) *CachingPriceSource {
	if now == nil {
		now = time.Now
	}
	return &CachingPriceSource{inner: inner, cache: cache, now: now}
}

// FetchQuote returns the cached quote for url in the current hour, or
// delegates to the wrapped source.
func (c *CachingPriceSource) FetchQuote(ctx context.Context, url string) (entity.PriceQuote, error) {
	if c.cache == nil {
		return c.inner.FetchQuote(ctx, url)
	}

	key := HourBucketKey(url, c.now())

	// 1) Check cache
	q, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		slog.Warn("quote cache read failed", "key", key, "error", err)
	} else if ok {
		return q, nil
	}

	// 2) Fall back to the source
	q, err = c.inner.FetchQuote(ctx, url)
	switch {
	case errors.Is(err, usecase.ErrPriceNotFound):
		c.store(ctx, key, entity.PriceQuote{Timestamp: c.now().UTC(), Missing: true})
		return q, err
	case err != nil:
		return q, err
	}

	// 3) Store in cache (best effort)
	c.store(ctx, key, q)
	return q, nil
}

func (c *CachingPriceSource) store(ctx context.Context, key string, q entity.PriceQuote) {
	if err := c.cache.Set(ctx, key, q); err != nil {
		slog.Warn("quote cache write failed", "key", key, "error", err)
	}
}
