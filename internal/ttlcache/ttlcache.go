// Package ttlcache implements a bounded in-process cache with per-entry
// expiry and request coalescing.
package ttlcache

import (
	"errors"
	"sync"
	"time"
)

var (
	ErrBadTTL      = errors.New("ttlcache: ttl must be positive")
	ErrBadCapacity = errors.New("ttlcache: capacity must be positive")
)

type entry[V any] struct {
	val     V
	expires time.Time
}

type call[V any] struct {
	done chan struct{}
	val  V
	err  error
}

// Cache is a key/value store with a default TTL and a maximum entry
// count. Expired entries are purged lazily on access; when the store
// would exceed capacity the oldest-inserted entry is evicted first.
type Cache[K comparable, V any] struct {
	ttl time.Duration
	max int

	mu       sync.Mutex
	entries  map[K]*entry[V]
	order    []K
	inflight map[K]*call[V]

	now func() time.Time
}

func New[K comparable, V any](ttl time.Duration, capacity int) (*Cache[K, V], error) {
	if ttl <= 0 {
		return nil, ErrBadTTL
	}
	if capacity <= 0 {
		return nil, ErrBadCapacity
	}
	return &Cache[K, V]{
		ttl:      ttl,
		max:      capacity,
		entries:  make(map[K]*entry[V]),
		inflight: make(map[K]*call[V]),
		now:      time.Now,
	}, nil
}

// Get returns the live value for key, purging it if expired.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.getLocked(key)
}

func (c *Cache[K, V]) getLocked(key K) (V, bool) {
	var zero V
	e, ok := c.entries[key]
	if !ok {
		return zero, false
	}
	if !e.expires.After(c.now()) {
		c.removeLocked(key)
		return zero, false
	}
	return e.val, true
}

// Set stores value under key with the default TTL.
func (c *Cache[K, V]) Set(key K, val V) {
	c.SetTTL(key, val, c.ttl)
}

// SetTTL stores value under key with an explicit TTL override.
func (c *Cache[K, V]) SetTTL(key K, val V, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.ttl
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setLocked(key, val, ttl)
}

func (c *Cache[K, V]) setLocked(key K, val V, ttl time.Duration) {
	if e, ok := c.entries[key]; ok {
		// Overwrite keeps the original insertion position.
		e.val = val
		e.expires = c.now().Add(ttl)
		return
	}
	if len(c.entries) >= c.max {
		c.purgeExpiredLocked()
	}
	for len(c.entries) >= c.max && len(c.order) > 0 {
		c.removeLocked(c.order[0])
	}
	c.entries[key] = &entry[V]{val: val, expires: c.now().Add(ttl)}
	c.order = append(c.order, key)
}

// Delete removes key if present.
func (c *Cache[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removeLocked(key)
}

// Len reports the number of stored entries, expired or not.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// GetOrSet returns the live value for key, or runs factory to produce
// one. For a given key only one factory runs at a time; concurrent
// callers wait for it and share its result. Errors are returned to all
// waiters and never cached.
func (c *Cache[K, V]) GetOrSet(key K, factory func() (V, error)) (V, error) {
	c.mu.Lock()
	if v, ok := c.getLocked(key); ok {
		c.mu.Unlock()
		return v, nil
	}
	if cl, ok := c.inflight[key]; ok {
		c.mu.Unlock()
		<-cl.done
		return cl.val, cl.err
	}
	cl := &call[V]{done: make(chan struct{})}
	c.inflight[key] = cl
	c.mu.Unlock()

	cl.val, cl.err = factory()

	c.mu.Lock()
	delete(c.inflight, key)
	if cl.err == nil {
		c.setLocked(key, cl.val, c.ttl)
	}
	c.mu.Unlock()
	close(cl.done)

	return cl.val, cl.err
}

func (c *Cache[K, V]) purgeExpiredLocked() {
	now := c.now()
	kept := c.order[:0]
	for _, k := range c.order {
		e, ok := c.entries[k]
		if !ok {
			continue
		}
		if !e.expires.After(now) {
			delete(c.entries, k)
			continue
		}
		kept = append(kept, k)
	}
	c.order = kept
}

func (c *Cache[K, V]) removeLocked(key K) {
	if _, ok := c.entries[key]; !ok {
		return
	}
	delete(c.entries, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}
