package search

import "sync"

// boundedCache is an insertion-ordered cache with FIFO bulk eviction: when
// capacity is exceeded, the oldest-inserted 10% of entries are dropped. This
// is deliberately not an LRU; the approximation is enough to keep the cache
// bounded and it keeps hits O(1) with no reordering.
type boundedCache[V any] struct {
	mu       sync.Mutex
	capacity int
	entries  map[string]V
	order    []string
}

func newBoundedCache[V any](capacity int) *boundedCache[V] {
	if capacity <= 0 {
		capacity = 128
	}
	return &boundedCache[V]{
		capacity: capacity,
		entries:  make(map[string]V, capacity),
	}
}

func (c *boundedCache[V]) get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	return v, ok
}

func (c *boundedCache[V]) put(key string, v V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists {
		c.order = append(c.order, key)
	}
	c.entries[key] = v

	if len(c.entries) <= c.capacity {
		return
	}

	evict := len(c.entries) / 10
	if evict < 1 {
		evict = 1
	}
	for _, k := range c.order[:evict] {
		delete(c.entries, k)
	}
	c.order = c.order[evict:]
}

func (c *boundedCache[V]) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
