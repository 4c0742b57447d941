package botguard

import (
	"sync"
	"time"
)

// MemoryCache keeps outputs in process memory and drops expired ones on read.
type MemoryCache struct {
	mu   sync.Mutex
	data map[string]Output
	now  func() time.Time
}

// NewMemoryCache creates a new in-memory cache
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{data: make(map[string]Output), now: time.Now}
}

// Get retrieves a live output by key.
func (c *MemoryCache) Get(key string) (Output, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return Output{}, false
	}
	if !v.ExpiresAt.IsZero() && !v.ExpiresAt.After(c.now()) {
		delete(c.data, key)
		return Output{}, false
	}
	return v, true
}

// Set stores a value in the cache
func (c *MemoryCache) Set(key string, value Output) {
	c.mu.Lock()
	c.data[key] = value
	c.mu.Unlock()
}

// Len reports the number of stored entries, expired ones included.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.data)
}
