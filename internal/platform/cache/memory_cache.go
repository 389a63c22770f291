// Package cache provides short-lived caches for fetched price quotes and a
// decorator that puts them in front of a PriceSource.
package cache

import (
	"container/list"
	"context"
	"sync"
	"time"

	"pricewatch_backend/internal/feature/prices/domain/entity"
)

const (
	DefaultCapacity = 100
	DefaultTTL      = time.Hour
)

// QuoteCache stores quotes by key.
type QuoteCache interface {
	Get(ctx context.Context, key string) (entity.PriceQuote, bool, error)
	Set(ctx context.Context, key string, quote entity.PriceQuote) error
}

type memEntry struct {
	key     string
	quote   entity.PriceQuote
	expires time.Time
}

// MemoryCache is a bounded in-process LRU cache with per-entry expiry.
type MemoryCache struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	now      func() time.Time
	ll       *list.List // front is most recently used
	items    map[string]*list.Element
}

var _ QuoteCache = (*MemoryCache)(nil)

// NewMemoryCache creates a MemoryCache. Non-positive capacity or ttl use the
// defaults; a nil clock means time.Now.
func NewMemoryCache(capacity int, ttl time.Duration, now func() time.Time) *MemoryCache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if now == nil {
		now = time.Now
	}
	return &MemoryCache{
		capacity: capacity,
		ttl:      ttl,
		now:      now,
		ll:       list.New(),
		items:    make(map[string]*list.Element, capacity),
	}
}

// Get returns the quote under key unless it is absent or expired.
func (c *MemoryCache) Get(_ context.Context, key string) (entity.PriceQuote, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		return entity.PriceQuote{}, false, nil
	}
	e := el.Value.(*memEntry)
	if !c.now().Before(e.expires) {
		c.remove(el)
		return entity.PriceQuote{}, false, nil
	}
	c.ll.MoveToFront(el)
	return e.quote, true, nil
}

// Set stores quote under key, evicting expired entries first and then the
// least recently used one when full.
func (c *MemoryCache) Set(_ context.Context, key string, quote entity.PriceQuote) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if el, ok := c.items[key]; ok {
		e := el.Value.(*memEntry)
		e.quote = quote
		e.expires = now.Add(c.ttl)
		c.ll.MoveToFront(el)
		return nil
	}

	if c.ll.Len() >= c.capacity {
		c.evictExpired(now)
	}
	for c.ll.Len() >= c.capacity {
		c.remove(c.ll.Back())
	}

	c.items[key] = c.ll.PushFront(&memEntry{key: key, quote: quote, expires: now.Add(c.ttl)})
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

func (c *MemoryCache) evictExpired(now time.Time) {
	for el := c.ll.Back(); el != nil; {
		prev := el.Prev()
		if !now.Before(el.Value.(*memEntry).expires) {
			c.remove(el)
		}
		el = prev
	}
}

func (c *MemoryCache) remove(el *list.Element) {
	c.ll.Remove(el)
	delete(c.items, el.Value.(*memEntry).key)
}
