package cache

import (
	"sync"
	"time"
)

// DefaultTTL bounds how long position details and fee estimates may be served
// without a fresh node read.
const DefaultTTL = 30 * time.Second

// Key identifies a cached entity within a chain.
type Key struct {
	ChainID  uint64
	EntityID string
}

type entry[V any] struct {
	value    V
	storedAt time.Time
}

// Cache is a TTL-bounded memoization map. Staleness is checked lazily on
// read; there is no background eviction. The clock is injected so tests can
// drive expiry deterministically.
type Cache[V any] struct {
	mu   sync.RWMutex
	data map[Key]entry[V]
	ttl  time.Duration
	now  func() time.Time
}

// New creates a cache with the given TTL. A nil clock defaults to time.Now.
func New[V any](ttl time.Duration, now func() time.Time) *Cache[V] {
	if now == nil {
		now = time.Now
	}
	return &Cache[V]{
		data: make(map[Key]entry[V]),
		ttl:  ttl,
		now:  now,
	}
}

// Get returns the cached value when its age is strictly below the TTL.
// An entry at or past the TTL is never returned.
func (c *Cache[V]) Get(key Key) (V, bool) {
	c.mu.RLock()
	e, ok := c.data[key]
	c.mu.RUnlock()
	if !ok || c.now().Sub(e.storedAt) >= c.ttl {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set stores a value stamped with the current clock.
func (c *Cache[V]) Set(key Key, value V) {
	c.mu.Lock()
	c.data[key] = entry[V]{value: value, storedAt: c.now()}
	c.mu.Unlock()
}

// Invalidate removes an entry immediately. Callers invalidate after any
// mutating action against the entity succeeds so the next read reflects it.
func (c *Cache[V]) Invalidate(key Key) {
	c.mu.Lock()
	delete(c.data, key)
	c.mu.Unlock()
}
