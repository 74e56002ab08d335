// Package cachemanager memoizes expensive, immutable results such as compiled
// query expressions.
package cachemanager

import (
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/zjrosen/kinship/internal/log"
)

const DefaultExpiration = 10 * time.Minute
const DefaultCleanupInterval = 30 * time.Minute

// Cache is a typed key/value store with expiry.
type Cache[V any] interface {
	Get(key string) (V, bool)
	Set(key string, value V, ttl time.Duration)
	Delete(keys ...string)
	Flush()
}

// InMemory is a Cache backed by go-cache.
type InMemory[V any] struct {
	useCase string
	cache   *gocache.Cache
}

// NewInMemory creates an in-memory cache. useCase labels log entries.
func NewInMemory[V any](useCase string, defaultExpiration, cleanupInterval time.Duration) *InMemory[V] {
	return &InMemory[V]{
		useCase: useCase,
		cache:   gocache.New(defaultExpiration, cleanupInterval),
	}
}

// Get retrieves an item by key.
func (c *InMemory[V]) Get(key string) (V, bool) {
	var zero V

	value, found := c.cache.Get(key)
	if !found {
		return zero, false
	}

	v, ok := value.(V)
	if !ok {
		log.Error(log.CatCache, "wrong type assertion when getting value", "cache", c.useCase, "key", key)
		return zero, false
	}

	log.Debug(log.CatCache, "cache hit", "cache", c.useCase, "key", key)
	return v, true
}

// Set stores value under key for ttl. Pass gocache.DefaultExpiration (0) to
// use the cache's default.
func (c *InMemory[V]) Set(key string, value V, ttl time.Duration) {
	c.cache.Set(key, value, ttl)
}

// Delete removes keys.
func (c *InMemory[V]) Delete(keys ...string) {
	for _, key := range keys {
		c.cache.Delete(key)
	}
}

// Flush removes every item.
func (c *InMemory[V]) Flush() {
	c.cache.Flush()
}

// Len returns the number of items, including expired ones not yet cleaned up.
func (c *InMemory[V]) Len() int {
	return c.cache.ItemCount()
}

// ReadThrough fills a Cache from a loader on miss. Errors are not cached.
type ReadThrough[V any, I any] struct {
	cache Cache[V]
	load  func(input I) (V, error)
	ttl   time.Duration
	skip  bool
}

// NewReadThrough wraps cache with load. When skip is set every call goes
// straight to load.
func NewReadThrough[V any, I any](cache Cache[V], load func(input I) (V, error), ttl time.Duration, skip bool) *ReadThrough[V, I] {
	return &ReadThrough[V, I]{cache: cache, load: load, ttl: ttl, skip: skip}
}

// Get returns the cached value for key, loading it from input on miss.
func (r *ReadThrough[V, I]) Get(key string, input I) (V, error) {
	if r.skip {
		return r.load(input)
	}

	if value, ok := r.cache.Get(key); ok {
		return value, nil
	}

	value, err := r.load(input)
	if err != nil {
		return value, err
	}

	r.cache.Set(key, value, r.ttl)
	return value, nil
}
