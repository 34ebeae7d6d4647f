package cache

import "sync"

// Cache is a generic thread-safe LRU cache.
//
// Cache must not be copied after creation (has mutex).
type Cache[K comparable, V any] struct {
	mu       sync.Mutex
	entries  map[K]*lruNode[K, V]
	order    lruList[K, V]
	capacity int

	onEvict func(K, V)

	hits      uint64
	misses    uint64
	evictions uint64
}

// New creates a cache holding at most capacity entries.
// A capacity of 0 or less means unlimited.
func New[K comparable, V any](capacity int) *Cache[K, V] {
	c := &Cache[K, V]{
		entries:  make(map[K]*lruNode[K, V]),
		capacity: max(capacity, 0),
	}
	c.order.init()
	return c
}

// OnEvict registers fn to be called for every entry removed by capacity
// eviction or Clear. fn runs with the cache lock held and must not call
// back into the cache.
func (c *Cache[K, V]) OnEvict(fn func(key K, value V)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onEvict = fn
}

// Get returns the value for key and marks it most recently used.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n, ok := c.entries[key]
	if !ok {
		c.misses++
		var zero V
		return zero, false
	}
	c.hits++
	c.order.moveToFront(n)
	return n.value, true
}

// Set stores value under key and evicts least recently used entries beyond
// the capacity. If key was present, the replaced value is returned with
// replaced set; it is not passed to the eviction callback.
func (c *Cache[K, V]) Set(key K, value V) (old V, replaced bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n, ok := c.entries[key]; ok {
		old = n.value
		n.value = value
		c.order.moveToFront(n)
		return old, true
	}
	c.entries[key] = c.order.pushFront(key, value)
	c.evict()
	return old, false
}

// Delete removes key and returns its value.
// The eviction callback is not called.
func (c *Cache[K, V]) Delete(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	c.order.remove(n)
	delete(c.entries, key)
	return n.value, true
}

// Clear removes all entries, passing each to the eviction callback from
// least to most recently used. Cleared entries do not count as evictions.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.onEvict != nil {
		for n := c.order.back(); n != nil; n = c.order.back() {
			c.order.remove(n)
			c.onEvict(n.key, n.value)
		}
	}
	c.entries = make(map[K]*lruNode[K, V])
	c.order.init()
}

// Len returns the number of entries.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Capacity returns the entry bound, 0 for unlimited.
func (c *Cache[K, V]) Capacity() int {
	return c.capacity
}

// Stats returns cache statistics.
func (c *Cache[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Stats{
		Len:       len(c.entries),
		Capacity:  c.capacity,
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
	}
	if total := c.hits + c.misses; total > 0 {
		s.HitRate = float64(c.hits) / float64(total)
	}
	return s
}

// evict removes least recently used entries until the cache fits.
// Caller must hold c.mu.
func (c *Cache[K, V]) evict() {
	if c.capacity == 0 {
		return
	}
	for len(c.entries) > c.capacity {
		n := c.order.back()
		c.order.remove(n)
		delete(c.entries, n.key)
		c.evictions++
		if c.onEvict != nil {
			c.onEvict(n.key, n.value)
		}
	}
}

// Stats contains cache statistics.
type Stats struct {
	// Len is the current number of entries.
	Len int
	// Capacity is the entry bound (0 = unlimited).
	Capacity int
	// Hits is the number of successful lookups.
	Hits uint64
	// Misses is the number of failed lookups.
	Misses uint64
	// HitRate is Hits / (Hits + Misses), 0 when there were no lookups.
	HitRate float64
	// Evictions is the number of entries removed by the capacity bound.
	Evictions uint64
}
