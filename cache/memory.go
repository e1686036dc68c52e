package cache

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	values  []float64
	expires time.Time
}

// MemoryCache implements Cache with an in-process map.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]entry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryCache creates a new in-memory cache. A nil opts uses DefaultOptions.
func NewMemoryCache(opts *Options) *MemoryCache {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &MemoryCache{
		entries: make(map[string]entry),
		ttl:     opts.DefaultTTL,
		now:     time.Now,
	}
}

func (mc *MemoryCache) Get(_ context.Context, key string) ([]float64, bool, error) {
	mc.mu.RLock()
	e, ok := mc.entries[KeyPrefix+key]
	mc.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if !e.expires.IsZero() && mc.now().After(e.expires) {
		mc.mu.Lock()
		delete(mc.entries, KeyPrefix+key)
		mc.mu.Unlock()
		return nil, false, nil
	}
	return append([]float64(nil), e.values...), true, nil
}

func (mc *MemoryCache) Set(_ context.Context, key string, values []float64) error {
	e := entry{values: append([]float64(nil), values...)}
	if mc.ttl > 0 {
		e.expires = mc.now().Add(mc.ttl)
	}
	mc.mu.Lock()
	mc.entries[KeyPrefix+key] = e
	mc.mu.Unlock()
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (mc *MemoryCache) Len() int {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	return len(mc.entries)
}

func (mc *MemoryCache) Close() error {
	mc.mu.Lock()
	mc.entries = make(map[string]entry)
	mc.mu.Unlock()
	return nil
}
