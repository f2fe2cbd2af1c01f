// Package cache provides the in-process value cache that sits in front of
// the account store.
package cache

import "sync"

// Recorder observes cache traffic. Implementations must be safe for
// concurrent use.
type Recorder interface {
	Hit(cache string)
	Miss(cache string)
	Evict(cache string)
}

type nopRecorder struct{}

func (nopRecorder) Hit(string)   {}
func (nopRecorder) Miss(string)  {}
func (nopRecorder) Evict(string) {}

// Cache is a concurrency-safe map from keys to values. Values pass through
// clone on the way in and out, so callers never share state with the cache.
// Concurrent puts on one key resolve last-writer-wins.
type Cache[K comparable, V any] struct {
	name    string
	clone   func(V) V
	rec     Recorder
	mu      sync.RWMutex
	entries map[K]V
}

// New creates an empty cache. A nil clone stores values as given; a nil
// recorder discards observations.
func New[K comparable, V any](name string, clone func(V) V, rec Recorder) *Cache[K, V] {
	if clone == nil {
		clone = func(v V) V { return v }
	}
	if rec == nil {
		rec = nopRecorder{}
	}
	return &Cache[K, V]{
		name:    name,
		clone:   clone,
		rec:     rec,
		entries: make(map[K]V),
	}
}

// Get returns the value stored under k.
func (c *Cache[K, V]) Get(k K) (V, bool) {
	c.mu.RLock()
	v, ok := c.entries[k]
	c.mu.RUnlock()

	if !ok {
		c.rec.Miss(c.name)
		var zero V
		return zero, false
	}
	c.rec.Hit(c.name)
	return c.clone(v), true
}

// Put stores v under k, replacing any previous value.
func (c *Cache[K, V]) Put(k K, v V) {
	v = c.clone(v)
	c.mu.Lock()
	c.entries[k] = v
	c.mu.Unlock()
}

// Evict removes k and reports whether it was present.
func (c *Cache[K, V]) Evict(k K) bool {
	c.mu.Lock()
	_, ok := c.entries[k]
	delete(c.entries, k)
	c.mu.Unlock()

	if ok {
		c.rec.Evict(c.name)
	}
	return ok
}

// Len returns the number of entries.
func (c *Cache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
