package di

import (
	"log/slog"

	"github.com/redis/go-redis/v9"

	"pricewatch_backend/internal/feature/prices/adapters/geizhals"
	"pricewatch_backend/internal/feature/prices/domain/entity"
	"pricewatch_backend/internal/feature/prices/usecase"
	"pricewatch_backend/internal/platform/cache"
	infrahttp "pricewatch_backend/internal/platform/http"
	"pricewatch_backend/internal/shared/env"
)

// NewQuoteCache returns a Redis-backed cache when rdb is available and an
// in-process cache otherwise.
func NewQuoteCache(rdb *redis.Client) cache.QuoteCache {
	ttl := env.Duration("CACHE_TTL", cache.DefaultTTL)
	if rdb != nil {
		slog.Info("using redis quote cache", "ttl", ttl)
		return cache.NewRedisCache(rdb, ttl, "quotes", nil)
	}
	capacity := env.Int("CACHE_CAPACITY", cache.DefaultCapacity)
	slog.Info("using in-memory quote cache", "capacity", capacity, "ttl", ttl)
	return cache.NewMemoryCache(capacity, ttl, nil)
}

// NewPriceSource creates the geizhals source behind the quote cache.
func NewPriceSource(qc cache.QuoteCache) usecase.PriceSource {
	cfg := geizhals.LoadConfig()
	client := infrahttp.NewHTTPClient(cfg.Timeout)
	return cache.NewCachingPriceSource(qc, geizhals.NewDefaultSource(cfg, client), nil)
}

// Prices bundles the usecases of the prices feature.
type Prices struct {
	Series *usecase.SeriesUsecase
	Alarms *usecase.AlarmUsecase
	Scrape *usecase.ScrapeUsecase
}

// NewPrices wires the prices usecases over source and store.
func NewPrices(source usecase.PriceSource, store usecase.ObservationStore, catalog entity.Catalog) *Prices {
	series := usecase.NewSeriesUsecase(store, catalog, nil)
	return &Prices{
		Series: series,
		Alarms: usecase.NewAlarmUsecase(series, usecase.LogNotifier{}),
		Scrape: usecase.NewScrapeUsecase(source, store, catalog, usecase.ScrapeConfig{
			Concurrency: env.Int("SCRAPE_CONCURRENCY", usecase.DefaultConcurrency),
		}),
	}
}
