package tenant

import (
	"context"
	"sync"
	"time"
)

// Cache is the resolver's TTL cache. Implementations must be safe for
// concurrent use by many request goroutines.
type Cache interface {
	Get(ctx context.Context, key string) (*ResolvedSite, bool)
	Set(ctx context.Context, key string, value *ResolvedSite, ttl time.Duration)
	Clear(ctx context.Context)
}

type memoryEntry struct {
	value     ResolvedSite
	expiresAt time.Time
}

// MemoryCache is the in-process default: a mutex-guarded map filled lazily,
// one entry per distinct domain per TTL window.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]memoryEntry), now: time.Now}
}

func (c *MemoryCache) Get(_ context.Context, key string) (*ResolvedSite, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || !e.expiresAt.After(c.now()) {
		return nil, false
	}
	v := e.value
	return &v, true
}

func (c *MemoryCache) Set(_ context.Context, key string, value *ResolvedSite, ttl time.Duration) {
	if value == nil {
		return
	}
	c.mu.Lock()
	c.entries[key] = memoryEntry{value: *value, expiresAt: c.now().Add(ttl)}
	c.mu.Unlock()
}

func (c *MemoryCache) Clear(_ context.Context) {
	c.mu.Lock()
	c.entries = make(map[string]memoryEntry)
	c.mu.Unlock()
}
