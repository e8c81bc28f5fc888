package cachemanager

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/zjrosen/modkit/internal/log"
)

// LoadFunc derives the value for a key from input.
type LoadFunc[V, I any] func(ctx context.Context, input I) (V, error)

// ReadThroughOptions configures a ReadThroughCache.
type ReadThroughOptions struct {
	// TTL of stored values. Zero uses the store's default.
	TTL time.Duration
	// Sliding restarts an entry's TTL on every hit.
	Sliding bool
	// Bypass calls the loader on every Get and stores nothing.
	Bypass bool
}

// ReadThroughCache serves values from a CacheManager and calls its loader
// on a miss. Concurrent misses on one key share a single load. Failed
// loads are not stored.
type ReadThroughCache[K ~string, V any, I any] struct {
	store CacheManager[K, V]
	load  LoadFunc[V, I]
	opts  ReadThroughOptions
	group singleflight.Group

	hits, loads, errs, shared atomic.Uint64
}

func NewReadThroughCache[K ~string, V any, I any](store CacheManager[K, V], load LoadFunc[V, I], opts ReadThroughOptions) *ReadThroughCache[K, V, I] {
	return &ReadThroughCache[K, V, I]{store: store, load: load, opts: opts}
}

// Get returns the value for key, loading it from input on a miss.
func (r *ReadThroughCache[K, V, I]) Get(ctx context.Context, key K, input I) (V, error) {
	if r.opts.Bypass {
		r.loads.Add(1)
		return r.load(ctx, input)
	}

	if v, ok := r.store.Get(ctx, key); ok {
		r.hits.Add(1)
		if r.opts.Sliding {
			r.store.Touch(ctx, key, r.opts.TTL)
		}
		return v, nil
	}

	res, err, shared := r.group.Do(string(key), func() (any, error) {
		r.loads.Add(1)
		v, err := r.load(ctx, input)
		if err != nil {
			return v, err
		}
		r.store.Set(ctx, key, v, r.opts.TTL)
		return v, nil
	})
	if shared {
		r.shared.Add(1)
	}
	if err != nil {
		r.errs.Add(1)
		log.Debug(log.CatCache, "Load failed", "key", key, "error", err)
	}
	v, _ := res.(V)
	return v, err
}

// Invalidate drops key so the next Get reloads it.
func (r *ReadThroughCache[K, V, I]) Invalidate(ctx context.Context, key K) error {
	r.group.Forget(string(key))
	return r.store.Delete(ctx, key)
}

// Stats returns counters since construction.
func (r *ReadThroughCache[K, V, I]) Stats() Stats {
	return Stats{
		Hits:   r.hits.Load(),
		Loads:  r.loads.Load(),
		Errors: r.errs.Load(),
		Shared: r.shared.Load(),
	}
}
