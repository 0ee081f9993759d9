// Package metacache provides the bounded, per-run read-through caches the
// snapshot pipeline shares: exported primary keys per entity type, and table
// metadata looked up from the database. Both are explicit objects handed to
// the components that need them, and both are dropped at the end of a run —
// there is no process-wide cache state.
package metacache

import (
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultSize bounds each cache. Snapshot work sets are on the order of
// hundreds of entity types, so this is generous without being unbounded.
const DefaultSize = 1024

// Cache is a bounded read-through cache from string keys to values of type V.
// Concurrent loads of different keys may both run; last write wins, which is
// acceptable because loaders are pure per run.
type Cache[V any] struct {
	mu  sync.Mutex
	lru *lru.Cache[string, V]
}

// New creates a cache bounded to size entries. Size must be positive.
func New[V any](size int) (*Cache[V], error) {
	inner, err := lru.New[string, V](size)
	if err != nil {
		return nil, fmt.Errorf("init cache: %w", err)
	}
	return &Cache[V]{lru: inner}, nil
}

// Get returns the cached value for key, calling load on a miss and caching
// its result. A load error is returned without caching.
func (c *Cache[V]) Get(key string, load func() (V, error)) (V, error) {
	c.mu.Lock()
	if v, ok := c.lru.Get(key); ok {
		c.mu.Unlock()
		return v, nil
	}
	c.mu.Unlock()

	v, err := load()
	if err != nil {
		var zero V
		return zero, err
	}

	c.mu.Lock()
	c.lru.Add(key, v)
	c.mu.Unlock()
	return v, nil
}

// Reset drops every entry. Called between runs; a cache never outlives the
// data it was loaded from.
func (c *Cache[V]) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Purge()
}

// Len reports the number of cached entries.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}
