// Package cache provides a small JSON read-side cache backed by Redis.
// This is part of the platform layer and contains no business logic.
// A nil *Cache is valid and disables caching, so callers never need to
// branch on whether Redis is configured.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrMiss is returned by Get when the key is absent.
var ErrMiss = errors.New("cache: miss")

// Cache wraps a Redis client for JSON value caching with a default TTL.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// New creates a cache from a Redis URL. An empty URL returns (nil, nil):
// caching is simply disabled.
func New(redisURL string, ttl time.Duration) (*Cache, error) {
	if redisURL == "" {
		return nil, nil
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	return &Cache{client: redis.NewClient(opt), ttl: ttl}, nil
}

// Get unmarshals the cached value for key into dest. Returns ErrMiss when the
// key is absent or the cache is disabled.
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) error {
	if c == nil {
		return ErrMiss
	}

	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrMiss
		}
		return err
	}

	return json.Unmarshal(raw, dest)
}

// Set stores value under key with the default TTL. Errors are returned so the
// caller can decide whether to log; cache writes never block business flows.
func (c *Cache) Set(ctx context.Context, key string, value interface{}) error {
	if c == nil {
		return nil
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}

	return c.client.Set(ctx, key, raw, c.ttl).Err()
}

// Delete removes one or more keys.
func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if c == nil || len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

// Close releases the underlying Redis connection.
func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}
