package docstore

import (
	"sync"
	"time"
)

// cacheEntry stores one compiled statement set.
type cacheEntry struct {
	value     any
	expiresAt time.Time // zero means no expiry
}

// Cache stores compiled SQL keyed by statement kind, type and query shape.
// It is safe for concurrent use from multiple goroutines.
type Cache interface {
	// Get retrieves a cached value. ok is false if the entry doesn't exist
	// or is expired.
	Get(key string) (value any, ok bool)

	// Set stores a value in the cache.
	Set(key string, value any)
}

// CacheImpl is the default in-memory cache implementation with optional TTL.
// It uses a sync.RWMutex for goroutine safety.
//
// Compiled SQL depends only on the registry and the store configuration, so
// entries never go stale while both are unchanged. The cache grows with the
// number of distinct query shapes.
type CacheImpl struct {
	mu    sync.RWMutex
	items map[string]cacheEntry
	ttl   time.Duration // 0 means no expiry
}

// CacheOption configures a Cache.
type CacheOption func(*CacheImpl)

// WithTTL sets the time-to-live for cache entries. A TTL of 0 (default)
// means entries never expire within the cache's lifetime.
func WithTTL(ttl time.Duration) CacheOption {
	return func(c *CacheImpl) {
		c.ttl = ttl
	}
}

// NewCache creates a new statement cache.
func NewCache(opts ...CacheOption) *CacheImpl {
	c := &CacheImpl{
		items: make(map[string]cacheEntry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get retrieves a cached value.
func (c *CacheImpl) Get(key string) (any, bool) {
	c.mu.RLock()
	entry, ok := c.items[key]
	c.mu.RUnlock()

	if !ok {
		return nil, false
	}

	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.items, key)
		c.mu.Unlock()
		return nil, false
	}

	return entry.value, true
}

// Set stores a value in the cache.
func (c *CacheImpl) Set(key string, value any) {
	entry := cacheEntry{value: value}
	if c.ttl > 0 {
		entry.expiresAt = time.Now().Add(c.ttl)
	}

	c.mu.Lock()
	c.items[key] = entry
	c.mu.Unlock()
}

// Size returns the number of entries in the cache.
func (c *CacheImpl) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Clear removes all entries from the cache.
func (c *CacheImpl) Clear() {
	c.mu.Lock()
	c.items = make(map[string]cacheEntry)
	c.mu.Unlock()
}

// Ensure CacheImpl implements Cache.
var _ Cache = (*CacheImpl)(nil)

// cached returns the value stored under key, building and storing it on a
// miss. Build errors are not cached.
func cached[T any](c Cache, key string, build func() (T, error)) (T, error) {
	if c != nil {
		if v, ok := c.Get(key); ok {
			if t, ok := v.(T); ok {
				return t, nil
			}
		}
	}
	v, err := build()
	if err != nil {
		return v, err
	}
	if c != nil {
		c.Set(key, v)
	}
	return v, nil
}
