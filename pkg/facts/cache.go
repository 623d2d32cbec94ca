package facts

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// CacheEntry is one cached fetch outcome.
type CacheEntry[T any] struct {
	Payload   T
	FetchedAt time.Time
}

// Cache holds the latest outcome of an expensive fetch for a fixed TTL.
// Concurrent misses share a single fetch.
type Cache[T any] struct {
	ttl   time.Duration
	now   func() time.Time
	mu    sync.Mutex
	entry *CacheEntry[T]
	group singleflight.Group
}

// NewCache creates a cache; now may be nil to use time.Now.
func NewCache[T any](ttl time.Duration, now func() time.Time) *Cache[T] {
	if now == nil {
		now = time.Now
	}
	return &Cache[T]{ttl: ttl, now: now}
}

// Get returns the cached payload while it is fresh, otherwise calls fetch
// and stores whatever it returns, including "no data" outcomes.
func (c *Cache[T]) Get(ctx context.Context, fetch func(context.Context) T) T {
	if p, ok := c.fresh(); ok {
		return p
	}

	v, _, _ := c.group.Do("fetch", func() (any, error) {
		if p, ok := c.fresh(); ok {
			return p, nil
		}
		p := fetch(ctx)
		c.mu.Lock()
		c.entry = &CacheEntry[T]{Payload: p, FetchedAt: c.now()}
		c.mu.Unlock()
		return p, nil
	})
	return v.(T)
}

// Entry returns the current entry, fresh or not.
func (c *Cache[T]) Entry() (CacheEntry[T], bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entry == nil {
		return CacheEntry[T]{}, false
	}
	return *c.entry, true
}

func (c *Cache[T]) fresh() (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entry != nil && c.now().Sub(c.entry.FetchedAt) < c.ttl {
		return c.entry.Payload, true
	}
	var zero T
	return zero, false
}
