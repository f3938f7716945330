package igdb

import (
	"container/list"
	"sync"
	"time"
)

// Cache is a bounded, TTL-expiring memoization cache with insertion-order
// eviction: when full, the structurally oldest entry goes, regardless of
// how recently it was read. Safe for concurrent use.
type Cache[V any] struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	entries  map[string]*list.Element
	order    *list.List // front = oldest insertion
	now      func() time.Time
}

type cacheEntry[V any] struct {
	key        string
	value      V
	insertedAt time.Time
}

// NewCache creates a cache holding at most capacity entries, each valid
// for ttl after insertion.
func NewCache[V any](capacity int, ttl time.Duration) *Cache[V] {
	return &Cache[V]{
		capacity: capacity,
		ttl:      ttl,
		entries:  make(map[string]*list.Element, capacity),
		order:    list.New(),
		now:      time.Now,
	}
}

// Get returns the cached value for key. An entry past its TTL is treated
// as absent and removed.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	elem, ok := c.entries[key]
	if !ok {
		return zero, false
	}

	entry := elem.Value.(*cacheEntry[V])
	if c.now().Sub(entry.insertedAt) > c.ttl {
		c.removeLocked(elem)
		return zero, false
	}

	return entry.value, true
}

// Set stores a value under key. A fresh key at capacity evicts the oldest
// entry by insertion order. Re-setting an existing key refreshes its
// value and timestamp and moves it to the newest position.
func (c *Cache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		entry := elem.Value.(*cacheEntry[V])
		entry.value = value
		entry.insertedAt = c.now()
		c.order.MoveToBack(elem)
		return
	}

	if c.order.Len() >= c.capacity {
		if oldest := c.order.Front(); oldest != nil {
			c.removeLocked(oldest)
		}
	}

	elem := c.order.PushBack(&cacheEntry[V]{key: key, value: value, insertedAt: c.now()})
	c.entries[key] = elem
}

// Len returns the number of entries currently held, including any that
// have expired but not yet been swept.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

func (c *Cache[V]) removeLocked(elem *list.Element) {
	entry := elem.Value.(*cacheEntry[V])
	delete(c.entries, entry.key)
	c.order.Remove(elem)
}
