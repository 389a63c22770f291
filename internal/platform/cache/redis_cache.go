package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"pricewatch_backend/internal/feature/prices/domain/entity"
)

// RedisCache stores quotes in Redis so that several processes share them.
type RedisCache struct {
	rdb       *redis.Client
	ttl       time.Duration
	namespace string
	now       func() time.Time
}

var _ QuoteCache = (*RedisCache)(nil)

// NewRedisCache creates a RedisCache. If ttl is 0, it defaults to one hour.
// If namespace is empty, it uses "quotes".
func NewRedisCache(rdb *redis.Client, ttl time.Duration, namespace string, now func() time.Time) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if namespace == "" {
		namespace = "quotes"
	}
	if now == nil {
		now = time.Now
	}
	return &RedisCache{rdb: rdb, ttl: ttl, namespace: namespace, now: now}
}

// Get returns the cached quote. Corrupted entries are deleted and reported as a miss.
func (c *RedisCache) Get(ctx context.Context, key string) (entity.PriceQuote, bool, error) {
	if c.rdb == nil {
		return entity.PriceQuote{}, false, nil
	}
	k := c.cacheKey(key)

	b, err := c.rdb.Get(ctx, k).Bytes()
	if errors.Is(err, redis.Nil) {
		return entity.PriceQuote{}, false, nil
	}
	if err != nil {
		return entity.PriceQuote{}, false, err
	}

	var q entity.PriceQuote
	if err := json.Unmarshal(b, &q); err != nil {
		_ = c.rdb.Del(ctx, k).Err()
		return entity.PriceQuote{}, false, nil
	}
	return q, true, nil
}

// Set stores quote until the ttl elapses or its hour bucket ends, whichever is first.
func (c *RedisCache) Set(ctx context.Context, key string, quote entity.PriceQuote) error {
	if c.rdb == nil {
		return nil
	}
	b, err := json.Marshal(quote)
	if err != nil {
		return err
	}
	ttl := c.ttl
	if rem := TimeUntilNextHour(c.now()); rem < ttl {
		ttl = rem
	}
	return c.rdb.Set(ctx, c.cacheKey(key), b, ttl).Err()
}

func (c *RedisCache) cacheKey(key string) string {
	return c.namespace + ":" + safe(key)
}
