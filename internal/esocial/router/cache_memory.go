package router

import (
	"context"
	"sync"
)

// MemoryCache is the single-instance cache variant. The zero value is not
// usable; construct with NewMemoryCache.
type MemoryCache struct {
	mu      sync.RWMutex
	configs map[string]Config
	loaded  bool
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{}
}

func (c *MemoryCache) Get(_ context.Context) (map[string]Config, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.loaded {
		return nil, false, nil
	}
	return c.configs, true, nil
}

func (c *MemoryCache) Set(_ context.Context, configs map[string]Config) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.configs = configs
	c.loaded = true
	return nil
}

func (c *MemoryCache) Invalidate(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.configs = nil
	c.loaded = false
	return nil
}
