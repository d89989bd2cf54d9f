package ai

import "sync"

// Cache memoizes analysis results. It holds at most max entries; when an
// insert of a new key would exceed that, the whole map is cleared first.
// Not an LRU: a full reset at capacity is the required eviction behavior.
type Cache struct {
	mu      sync.Mutex
	max     int
	entries map[string]Feedback
}

func NewCache(max int) *Cache {
	if max <= 0 {
		max = 50
	}

	return &Cache{
		max:     max,
		entries: make(map[string]Feedback),
	}
}

func (c *Cache) Get(key string) (Feedback, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	f, ok := c.entries[key]
	return f, ok
}

// Put stores the value, clearing everything first when a new key arrives at
// capacity. cleared reports whether that happened.
func (c *Cache) Put(key string, f Feedback) (cleared bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, exists := c.entries[key]

	if !exists && len(c.entries) >= c.max {
		c.entries = make(map[string]Feedback)
		cleared = true
	}

	c.entries[key] = f
	return cleared
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}
