package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache keeps every key under "<namespace>:" so several deployments
// can share one redis.
type RedisCache struct {
	rdb       *redis.Client
	namespace string
}

func NewRedisCache(rdb *redis.Client, namespace string) *RedisCache {
	return &RedisCache{rdb: rdb, namespace: namespace}
}

func (c *RedisCache) key(k string) string {
	if c.namespace == "" {
		return k
	}
	return c.namespace + ":" + k
}

func (c *RedisCache) GetJSON(ctx context.Context, key string, dst any) (bool, error) {
	k := c.key(key)
	s, err := c.rdb.Get(ctx, k).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(s), dst); err != nil {
		// data corrupt: treat as miss by deleting
		_ = c.rdb.Del(ctx, k).Err()
		return false, nil
	}
	return true, nil
}

func (c *RedisCache) SetJSON(ctx context.Context, key string, val any, ttl time.Duration) error {
	b, err := json.Marshal(val)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, c.key(key), b, ttl).Err()
}

func (c *RedisCache) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.rdb.Del(ctx, c.keys(keys)...).Err()
}

func (c *RedisCache) GetManyJSON(ctx context.Context, keys []string, dst func(i int) any) ([]bool, error) {
	hits := make([]bool, len(keys))
	if len(keys) == 0 {
		return hits, nil
	}

	full := c.keys(keys)
	vals, err := c.rdb.MGet(ctx, full...).Result()
	if err != nil {
		return hits, err
	}

	var corrupt []string
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue
		}
		if err := json.Unmarshal([]byte(s), dst(i)); err != nil {
			corrupt = append(corrupt, full[i])
			continue
		}
		hits[i] = true
	}
	if len(corrupt) > 0 {
		_ = c.rdb.Del(ctx, corrupt...).Err()
	}
	return hits, nil
}

func (c *RedisCache) SetManyJSON(ctx context.Context, entries map[string]any, ttl time.Duration) error {
	if len(entries) == 0 {
		return nil
	}
	_, err := c.rdb.Pipelined(ctx, func(p redis.Pipeliner) error {
		for k, v := range entries {
			b, err := json.Marshal(v)
			if err != nil {
				return err
			}
			p.Set(ctx, c.key(k), b, ttl)
		}
		return nil
	})
	return err
}

func (c *RedisCache) keys(keys []string) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = c.key(k)
	}
	return out
}
