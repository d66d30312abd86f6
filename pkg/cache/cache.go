package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

var ErrCacheMiss = errors.New("cache: key not found")

// Service is the cache contract shared by the memory, Redis and layered
// implementations. Values are stored as JSON.
type Service interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Get(ctx context.Context, key string, dest any) error
	Delete(ctx context.Context, keys ...string) error
	TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, key string) error
	Close() error
}

// Key joins non-empty parts with ':'.
func Key(parts ...string) string {
	out := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ":")
}

func marshal(v any) ([]byte, error) {
	switch val := v.(type) {
	case []byte:
		return val, nil
	case string:
		return []byte(val), nil
	}
	return json.Marshal(v)
}

func unmarshal(data []byte, dest any) error {
	switch d := dest.(type) {
	case *string:
		*d = string(data)
		return nil
	case *[]byte:
		*d = append((*d)[:0], data...)
		return nil
	}
	return json.Unmarshal(data, dest)
}
