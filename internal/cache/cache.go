package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Source reports where GetOrFetch found a value.
type Source string

const (
	SourceCache Source = "cache"
	SourceRPC   Source = "rpc"
)

type item[V any] struct {
	val       V
	expiresAt time.Time
}

// Cache is a TTL cache that coalesces concurrent misses on the same key
// into a single fetch.
type Cache[V any] struct {
	mu    sync.RWMutex
	items map[string]item[V]
	ttl   time.Duration
	group singleflight.Group
	now   func() time.Time
}

func New[V any](ttl time.Duration) *Cache[V] {
	return &Cache[V]{items: make(map[string]item[V]), ttl: ttl, now: time.Now}
}

// GetOrFetch returns the cached value for key while it is fresh; otherwise it
// calls fetch once for all concurrent callers and stores the result. Failed
// fetches are not cached.
func (c *Cache[V]) GetOrFetch(ctx context.Context, key string, fetch func(context.Context) (V, error)) (V, Source, error) {
	c.mu.RLock()
	it, ok := c.items[key]
	c.mu.RUnlock()
	if ok && c.now().Before(it.expiresAt) {
		return it.val, SourceCache, nil
	}

	res, err, _ := c.group.Do(key, func() (any, error) {
		v, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.items[key] = item[V]{val: v, expiresAt: c.now().Add(c.ttl)}
		c.mu.Unlock()
		return v, nil
	})
	if err != nil {
		var zero V
		return zero, "", err
	}
	return res.(V), SourceRPC, nil
}

// Purge drops expired entries and returns how many remain.
func (c *Cache[V]) Purge() int {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, it := range c.items {
		if !now.Before(it.expiresAt) {
			delete(c.items, k)
		}
	}
	return len(c.items)
}

func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
