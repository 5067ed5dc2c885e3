package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

type memoryEntry struct {
	raw       []byte
	expiresAt time.Time
}

// MemoryStatsCache is a process-local stats cache used when Redis is
// disabled. Values are stored as JSON so callers see the same decoding
// behavior as with Redis.
type MemoryStatsCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryStatsCache creates an empty MemoryStatsCache
func NewMemoryStatsCache() *MemoryStatsCache {
	return &MemoryStatsCache{entries: make(map[string]memoryEntry), now: time.Now}
}

// Get loads key into dest. Expired entries are misses.
func (c *MemoryStatsCache) Get(_ context.Context, key string, dest any) (bool, error) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if !c.now().Before(e.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return false, nil
	}
	if err := json.Unmarshal(e.raw, dest); err != nil {
		return false, err
	}
	return true, nil
}

// Set stores value under key for ttl
func (c *MemoryStatsCache) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = memoryEntry{raw: raw, expiresAt: c.now().Add(ttl)}
	return nil
}

// Invalidate drops every entry
func (c *MemoryStatsCache) Invalidate(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]memoryEntry)
	return nil
}

// Len returns the number of stored entries, expired ones included
func (c *MemoryStatsCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
