package di

import (
	"context"

	"github.com/redis/go-redis/v9"

	"pricewatch_backend/internal/feature/prices/usecase"
	"pricewatch_backend/internal/platform/http/handler"
)

// NewHealthChecks checks the store and, when configured, Redis.
func NewHealthChecks(store usecase.ObservationStore, rdb *redis.Client) map[string]handler.CheckFunc {
	checks := map[string]handler.CheckFunc{
		"store": func(ctx context.Context) error {
			_, err := store.List(ctx)
			return err
		},
	}
	if rdb != nil {
		checks["redis"] = func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}
	}
	return checks
}
