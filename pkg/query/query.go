// Package query provides a memoizing computation cache. A result is computed
// at most once per key even under concurrent demand; later requests return
// the cached value.
package query

import (
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"redshank/pkg/ast"
)

// Key identifies one cached computation: a syntax node plus the aspect
// computed about it ("check", "type", ...).
type Key struct {
	Node   ast.NodeID
	Aspect string
}

func (k Key) String() string {
	return fmt.Sprintf("%d/%s", k.Node, k.Aspect)
}

// Cache is a concurrency-safe memo table.
type Cache struct {
	mu      sync.RWMutex
	results map[Key]any
	group   singleflight.Group
}

func NewCache() *Cache {
	return &Cache{results: make(map[Key]any)}
}

// Do returns the cached result for key, computing it via compute on first
// demand. Concurrent callers for the same key share a single computation. A
// failed computation is not cached; the next caller retries.
func (c *Cache) Do(key Key, compute func() (any, error)) (any, error) {
	c.mu.RLock()
	v, ok := c.results[key]
	c.mu.RUnlock()
	if ok {
		return v, nil
	}
	v, err, _ := c.group.Do(key.String(), func() (any, error) {
		c.mu.RLock()
		cached, ok := c.results[key]
		c.mu.RUnlock()
		if ok {
			return cached, nil
		}
		computed, err := compute()
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.results[key] = computed
		c.mu.Unlock()
		return computed, nil
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

// Get returns a cached result without computing.
func (c *Cache) Get(key Key) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.results[key]
	return v, ok
}

// Invalidate drops a cached result.
func (c *Cache) Invalidate(key Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.results, key)
}

// Len reports the number of cached results.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.results)
}
