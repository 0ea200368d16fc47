package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"pulsefit/coach-app/internal/config"
)

// DefaultTTL bounds how stale a cached stats read can get.
const DefaultTTL = 30 * time.Second

// Cache is a thin JSON-value cache over Redis. A nil *Cache is valid and
// behaves as a permanent miss, so callers never branch on whether caching
// is configured.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

// New builds a cache from configuration. An empty address disables caching
// and returns nil.
func New(cfg config.RedisConfig) *Cache {
	if cfg.Addr == "" {
		return nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &Cache{rdb: rdb, ttl: DefaultTTL}
}

// Get unmarshals the cached value for key into dest, reporting whether a
// usable value was found. Redis errors degrade to a miss.
func (c *Cache) Get(ctx context.Context, key string, dest any) bool {
	if c == nil {
		return false
	}
	data, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(data, dest) == nil
}

// Set stores v under key with the cache TTL. Failures are ignored; the
// cache is an optimization, never a source of truth.
func (c *Cache) Set(ctx context.Context, key string, v any) {
	if c == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	c.rdb.Set(ctx, key, data, c.ttl)
}

// Delete drops a key, typically on a write that invalidates it.
func (c *Cache) Delete(ctx context.Context, keys ...string) {
	if c == nil || len(keys) == 0 {
		return
	}
	c.rdb.Del(ctx, keys...)
}

// Close releases the underlying connection pool.
func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.rdb.Close()
}
