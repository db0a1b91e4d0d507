package cache

import (
	"context"
	"time"
)

// Cache stores JSON values by key. Entries that no longer decode are
// dropped and reported as misses.
type Cache interface {
	GetJSON(ctx context.Context, key string, dst any) (hit bool, err error)
	SetJSON(ctx context.Context, key string, val any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error

	// GetManyJSON decodes the value of keys[i] into dst(i) and reports
	// per key whether it hit.
	GetManyJSON(ctx context.Context, keys []string, dst func(i int) any) (hits []bool, err error)
	// SetManyJSON stores every entry under the same ttl.
	SetManyJSON(ctx context.Context, entries map[string]any, ttl time.Duration) error
}
