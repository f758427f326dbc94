package cache

import (
	"sync"
	"time"
)

// MemoryCache is an in-memory Cache with a single TTL fixed at construction.
// Expired entries are evicted lazily when read; there is no background sweeper.
type MemoryCache[V any] struct {
	mu      sync.RWMutex
	entries map[string]entry[V]
	ttl     time.Duration
	now     func() time.Time
}

type entry[V any] struct {
	value      V
	insertedAt time.Time
}

// NewMemoryCache creates a new in-memory cache with the given policy.
func NewMemoryCache[V any](policy Policy) *MemoryCache[V] {
	return &MemoryCache[V]{
		entries: make(map[string]entry[V]),
		ttl:     policy.EffectiveTTL(),
		now:     time.Now,
	}
}

// Get retrieves a value. Returns (zero, false) on miss or once
// now - insertedAt exceeds the TTL.
func (c *MemoryCache[V]) Get(key string) (V, bool) {
	var zero V

	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return zero, false
	}

	if c.expired(e) {
		c.mu.Lock()
		// Re-check under the write lock; a concurrent Set may have refreshed it.
		if cur, ok := c.entries[key]; ok && c.expired(cur) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return zero, false
	}

	return e.value, true
}

// Set stores a value. It is a no-op when the cache TTL is zero.
func (c *MemoryCache[V]) Set(key string, value V) {
	if c.ttl <= 0 {
		return
	}

	c.mu.Lock()
	c.entries[key] = entry[V]{value: value, insertedAt: c.now()}
	c.mu.Unlock()
}

// Delete removes a value from the cache. Idempotent - no error on miss.
func (c *MemoryCache[V]) Delete(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Clear removes all entries.
func (c *MemoryCache[V]) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]entry[V])
	c.mu.Unlock()
}

// Stats returns the number of stored entries and the TTL.
// Size counts entries that have expired but not yet been read.
func (c *MemoryCache[V]) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Stats{Size: len(c.entries), TTL: c.ttl}
}

func (c *MemoryCache[V]) expired(e entry[V]) bool {
	return c.now().Sub(e.insertedAt) > c.ttl
}

// Ensure MemoryCache implements Cache
var _ Cache[int] = (*MemoryCache[int])(nil)
