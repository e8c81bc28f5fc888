// Package cachemanager memoizes expensive derivations, such as parsed
// manifests, keyed by a content-derived string.
package cachemanager

import (
	"context"
	"time"
)

const (
	DefaultExpiration      = 10 * time.Minute
	DefaultCleanupInterval = 30 * time.Minute
)

// CacheManager stores values under string-like keys with per-entry TTLs.
// A ttl of zero means the store's default.
type CacheManager[K ~string, V any] interface {
	Get(ctx context.Context, key K) (V, bool)
	Set(ctx context.Context, key K, value V, ttl time.Duration)
	Touch(ctx context.Context, key K, ttl time.Duration) bool
	Delete(ctx context.Context, keys ...K) error
	Flush(ctx context.Context) error
	Len() int
}

// Stats counts read-through outcomes.
type Stats struct {
	Hits   uint64
	Loads  uint64
	Errors uint64
	Shared uint64
}
