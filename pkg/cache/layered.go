package cache

import (
	"context"
	"time"
)

// LayeredCache reads through a short-lived in-process L1 in front of a
// shared L2. Locks always go to L2 so they hold across instances.
type LayeredCache struct {
	l1    *MemoryCache
	l2    Service
	l1TTL time.Duration
}

// NewLayeredCache wraps l2; entries stay in L1 for at most l1TTL.
func NewLayeredCache(l2 Service, l1Size int, l1TTL time.Duration) *LayeredCache {
	return &LayeredCache{
		l1:    NewMemoryCache(WithMemoryMaxSize(l1Size)),
		l2:    l2,
		l1TTL: l1TTL,
	}
}

func (lc *LayeredCache) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	if err := lc.l2.Set(ctx, key, value, expiration); err != nil {
		return err
	}
	return lc.l1.Set(ctx, key, value, lc.ttl(expiration))
}

func (lc *LayeredCache) Get(ctx context.Context, key string, dest any) error {
	if err := lc.l1.Get(ctx, key, dest); err == nil {
		return nil
	}
	var raw []byte
	if err := lc.l2.Get(ctx, key, &raw); err != nil {
		return err
	}
	_ = lc.l1.Set(ctx, key, raw, lc.l1TTL)
	return unmarshal(raw, dest)
}

func (lc *LayeredCache) Delete(ctx context.Context, keys ...string) error {
	_ = lc.l1.Delete(ctx, keys...)
	return lc.l2.Delete(ctx, keys...)
}

func (lc *LayeredCache) TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return lc.l2.TryLock(ctx, key, ttl)
}

func (lc *LayeredCache) Unlock(ctx context.Context, key string) error {
	return lc.l2.Unlock(ctx, key)
}

func (lc *LayeredCache) Close() error {
	_ = lc.l1.Close()
	return lc.l2.Close()
}

func (lc *LayeredCache) ttl(expiration time.Duration) time.Duration {
	if expiration > 0 && expiration < lc.l1TTL {
		return expiration
	}
	return lc.l1TTL
}
