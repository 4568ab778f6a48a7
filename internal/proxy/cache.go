package proxy

import "sync"

// Cache is a bounded in-memory object cache with first-in first-out eviction.
type Cache struct {
	mu    sync.Mutex
	max   int
	order []string
	items map[string][]byte
}

// NewCache returns a cache holding at most maxEntries objects. A
// non-positive size disables caching.
func NewCache(maxEntries int) *Cache {
	return &Cache{
		max:   maxEntries,
		items: make(map[string][]byte),
	}
}

func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, ok := c.items[key]
	return data, ok
}

func (c *Cache) Put(key string, data []byte) {
	if c.max <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.items[key]; ok {
		c.items[key] = data
		return
	}
	for len(c.order) >= c.max {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.items, oldest)
	}
	c.order = append(c.order, key)
	c.items[key] = data
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}
