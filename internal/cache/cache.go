// Package cache provides a small in-process TTL cache. It replaces the
// per-entity cache/invalidate/fetch triads with one generic wrapper:
// reads within the TTL short-circuit the fetcher, expiry forces a
// refetch, and concurrent fetches for the same key are coalesced so only
// one fetch is in flight per key.
package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

type entry[T any] struct {
	value     T
	expiresAt time.Time
}

// TTL is a typed cache with per-call time-to-live.
type TTL[T any] struct {
	mu      sync.RWMutex
	entries map[string]entry[T]
	group   singleflight.Group
	now     func() time.Time
}

// New creates an empty TTL cache.
func New[T any]() *TTL[T] {
	return &TTL[T]{
		entries: make(map[string]entry[T]),
		now:     time.Now,
	}
}

// GetOrFetch returns the cached value for key when it is still fresh,
// otherwise runs fetch and caches the result for ttl. A fetch error is
// returned to the caller and nothing is cached, so a failed refresh never
// clobbers previously stored data that has not yet expired.
func (c *TTL[T]) GetOrFetch(ctx context.Context, key string, ttl time.Duration, fetch func(ctx context.Context) (T, error)) (T, error) {
	if v, ok := c.get(key); ok {
		return v, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		// Re-check under the flight: a concurrent caller may have filled
		// the entry between our miss and the flight starting.
		if v, ok := c.get(key); ok {
			return v, nil
		}
		v, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		c.set(key, v, ttl)
		return v, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

// Invalidate drops a single key. Writes call this so the next read
// refetches fresh data.
func (c *TTL[T]) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// InvalidateAll drops every entry.
func (c *TTL[T]) InvalidateAll() {
	c.mu.Lock()
	c.entries = make(map[string]entry[T])
	c.mu.Unlock()
}

func (c *TTL[T]) get(key string) (T, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || c.now().After(e.expiresAt) {
		var zero T
		return zero, false
	}
	return e.value, true
}

func (c *TTL[T]) set(key string, v T, ttl time.Duration) {
	c.mu.Lock()
	c.entries[key] = entry[T]{value: v, expiresAt: c.now().Add(ttl)}
	c.mu.Unlock()
}
