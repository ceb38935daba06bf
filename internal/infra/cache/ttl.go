package cache

import (
	"sync"
	"time"

	"tlangau-server/internal/infra/metrics"
)

// Clock returns the current time; injected so tests can control expiry.
type Clock func() time.Time

// TTL is a process-local, time-boxed, best-effort cache. It is never a
// source of truth: entries may be served stale for up to their TTL after the
// underlying record changes.
type TTL[V any] struct {
	name  string
	ttl   time.Duration
	clock Clock

	mu      sync.RWMutex
	entries map[string]entry[V]
}

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// NewTTL creates a cache with the given per-entry lifetime. A nil clock
// defaults to time.Now.
func NewTTL[V any](name string, ttl time.Duration, clock Clock) *TTL[V] {
	if clock == nil {
		clock = time.Now
	}
	return &TTL[V]{
		name:    name,
		ttl:     ttl,
		clock:   clock,
		entries: make(map[string]entry[V]),
	}
}

// Get returns the cached value if present and not expired.
func (c *TTL[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || c.clock().After(e.expiresAt) {
		metrics.IncCacheRequest(c.name, "miss")
		var zero V
		return zero, false
	}
	metrics.IncCacheRequest(c.name, "hit")
	return e.value, true
}

// Set stores value under key for the cache's TTL.
func (c *TTL[V]) Set(key string, value V) {
	c.mu.Lock()
	c.entries[key] = entry[V]{value: value, expiresAt: c.clock().Add(c.ttl)}
	c.mu.Unlock()
}

// Delete drops the entry for key, if any.
func (c *TTL[V]) Delete(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Sweep removes expired entries. Call periodically to bound memory.
func (c *TTL[V]) Sweep() int {
	now := c.clock()
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for k, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}

// Len returns the number of entries, expired ones included.
func (c *TTL[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
