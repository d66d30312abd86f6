package cache

import (
	"context"
	"fmt"
	"sync"
	"time"
)

type memoryItem struct {
	data     []byte
	expireAt time.Time
	access   time.Time
}

func (m *memoryItem) expired(now time.Time) bool {
	return !m.expireAt.IsZero() && now.After(m.expireAt)
}

// MemoryCache implements Service in process with LRU eviction. It backs
// single-instance deployments and tests.
type MemoryCache struct {
	mu      sync.Mutex
	data    map[string]*memoryItem
	maxSize int
	done    chan struct{}
	once    sync.Once
}

func NewMemoryCache(opts ...MemoryOption) *MemoryCache {
	cfg := &MemoryConfig{MaxSize: 1000, CleanupInterval: time.Minute}
	for _, opt := range opts {
		opt(cfg)
	}
	mc := &MemoryCache{
		data:    make(map[string]*memoryItem),
		maxSize: cfg.MaxSize,
		done:    make(chan struct{}),
	}
	if cfg.CleanupInterval > 0 {
		go mc.cleanup(cfg.CleanupInterval)
	}
	return mc
}

func (mc *MemoryCache) Set(_ context.Context, key string, value any, expiration time.Duration) error {
	data, err := marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal %s: %w", key, err)
	}
	now := time.Now()
	item := &memoryItem{data: data, access: now}
	if expiration > 0 {
		item.expireAt = now.Add(expiration)
	}

	mc.mu.Lock()
	defer mc.mu.Unlock()
	if _, ok := mc.data[key]; !ok && len(mc.data) >= mc.maxSize {
		mc.evictLRU()
	}
	mc.data[key] = item
	return nil
}

func (mc *MemoryCache) Get(_ context.Context, key string, dest any) error {
	mc.mu.Lock()
	now := time.Now()
	item, ok := mc.data[key]
	if ok && item.expired(now) {
		delete(mc.data, key)
		ok = false
	}
	var data []byte
	if ok {
		item.access = now
		data = item.data
	}
	mc.mu.Unlock()

	if !ok {
		return ErrCacheMiss
	}
	return unmarshal(data, dest)
}

func (mc *MemoryCache) Delete(_ context.Context, keys ...string) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	for _, k := range keys {
		delete(mc.data, k)
	}
	return nil
}

func (mc *MemoryCache) TryLock(_ context.Context, key string, ttl time.Duration) (bool, error) {
	k := Key("lock", key)
	now := time.Now()
	mc.mu.Lock()
	defer mc.mu.Unlock()
	if item, ok := mc.data[k]; ok && !item.expired(now) {
		return false, nil
	}
	mc.data[k] = &memoryItem{data: []byte("locked"), expireAt: now.Add(ttl), access: now}
	return true, nil
}

func (mc *MemoryCache) Unlock(ctx context.Context, key string) error {
	return mc.Delete(ctx, Key("lock", key))
}

// Len returns the number of stored entries, expired ones included.
func (mc *MemoryCache) Len() int {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	return len(mc.data)
}

func (mc *MemoryCache) Close() error {
	mc.once.Do(func() { close(mc.done) })
	return nil
}

func (mc *MemoryCache) evictLRU() {
	var oldest string
	var at time.Time
	for k, item := range mc.data {
		if oldest == "" || item.access.Before(at) {
			oldest, at = k, item.access
		}
	}
	if oldest != "" {
		delete(mc.data, oldest)
	}
}

func (mc *MemoryCache) cleanup(every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-mc.done:
			return
		case now := <-t.C:
			mc.mu.Lock()
			for k, item := range mc.data {
				if item.expired(now) {
					delete(mc.data, k)
				}
			}
			mc.mu.Unlock()
		}
	}
}
