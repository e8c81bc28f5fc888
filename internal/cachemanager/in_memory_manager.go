package cachemanager

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/zjrosen/modkit/internal/log"
)

var _ CacheManager[string, int] = (*InMemoryCacheManager[string, int])(nil)

// InMemoryCacheManager keeps entries in a go-cache instance. Values of the
// wrong dynamic type are reported and treated as misses.
type InMemoryCacheManager[K ~string, V any] struct {
	name  string
	items *gocache.Cache
}

// NewInMemoryCacheManager returns an empty cache. name labels its log lines.
func NewInMemoryCacheManager[K ~string, V any](name string, defaultTTL, sweep time.Duration) *InMemoryCacheManager[K, V] {
	return &InMemoryCacheManager[K, V]{name: name, items: gocache.New(defaultTTL, sweep)}
}

func (c *InMemoryCacheManager[K, V]) Get(_ context.Context, key K) (V, bool) {
	var zero V
	raw, ok := c.items.Get(string(key))
	if !ok {
		return zero, false
	}
	v, ok := raw.(V)
	if !ok {
		log.Error(log.CatCache, "Cached value has wrong type", "cache", c.name, "key", key)
		c.items.Delete(string(key))
		return zero, false
	}
	return v, true
}

func (c *InMemoryCacheManager[K, V]) Set(_ context.Context, key K, value V, ttl time.Duration) {
	c.items.Set(string(key), value, ttl)
}

// Touch restarts key's expiry at ttl. It reports false when key is absent.
func (c *InMemoryCacheManager[K, V]) Touch(_ context.Context, key K, ttl time.Duration) bool {
	raw, ok := c.items.Get(string(key))
	if !ok {
		return false
	}
	c.items.Set(string(key), raw, ttl)
	return true
}

func (c *InMemoryCacheManager[K, V]) Delete(_ context.Context, keys ...K) error {
	for _, k := range keys {
		c.items.Delete(string(k))
	}
	return nil
}

func (c *InMemoryCacheManager[K, V]) Flush(_ context.Context) error {
	c.items.Flush()
	log.Debug(log.CatCache, "Cache flushed", "cache", c.name)
	return nil
}

// Len counts stored entries, including expired ones the sweeper has not
// removed yet.
func (c *InMemoryCacheManager[K, V]) Len() int {
	return c.items.ItemCount()
}
