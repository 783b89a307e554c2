// Package cache provides a size-bounded TTL cache for tool results, so
// repeated calls with the same arguments skip recomputation.
package cache

import (
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// TTLCache is a thread-safe LRU cache whose entries also expire after a
// fixed TTL.
type TTLCache[K comparable, V any] struct {
	lru    *expirable.LRU[K, V]
	hits   atomic.Uint64
	misses atomic.Uint64
}

// NewTTLCache creates a cache holding at most maxItems entries, each for at
// most ttl.
func NewTTLCache[K comparable, V any](maxItems int, ttl time.Duration) *TTLCache[K, V] {
	return &TTLCache[K, V]{
		lru: expirable.NewLRU[K, V](maxItems, nil, ttl),
	}
}

// Get retrieves an item from the cache
func (c *TTLCache[K, V]) Get(key K) (V, bool) {
	v, ok := c.lru.Get(key)
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return v, ok
}

// Set adds an item to the cache, evicting the least recently used one when
// full.
func (c *TTLCache[K, V]) Set(key K, value V) {
	c.lru.Add(key, value)
}

// Count returns the number of items in the cache
func (c *TTLCache[K, V]) Count() int {
	return c.lru.Len()
}

// Stats returns the hit and miss counts since creation.
func (c *TTLCache[K, V]) Stats() (hits, misses uint64) {
	return c.hits.Load(), c.misses.Load()
}

// Key builds a cache key from a tool name and its arguments. Map keys are
// marshaled in sorted order, so equal arguments give equal keys.
func Key(tool string, args map[string]any) (string, error) {
	data, err := json.Marshal(args)
	if err != nil {
		return "", fmt.Errorf("cache key for %s: %w", tool, err)
	}
	return tool + ":" + string(data), nil
}
