// Package refcache provides an optional redis-backed cache for the store
// reference lookup.
//
// The store collection changes rarely, so runs on a tight schedule can skip
// refetching it. The cache is strictly best-effort: a run never fails because
// redis is down or the key is missing, it just falls back to the live fetch.
package refcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// ErrCacheMiss is returned when the reference lookup is not cached.
var ErrCacheMiss = errors.New("refcache: miss")

const storeKey = "shipstation:stores"

// Cache wraps a redis client for reference-data caching. A nil Cache is
// valid and behaves as a permanent miss.
type Cache struct {
	redis  *redis.Client
	logger zerolog.Logger
}

// New creates a reference cache backed by the given redis client.
func New(redisClient *redis.Client, logger zerolog.Logger) *Cache {
	return &Cache{redis: redisClient, logger: logger}
}

// Stores returns the cached store lookup, or ErrCacheMiss.
func (c *Cache) Stores(ctx context.Context) (map[string]string, error) {
	if c == nil || c.redis == nil {
		return nil, ErrCacheMiss
	}

	data, err := c.redis.Get(ctx, storeKey).Bytes()
	if err == redis.Nil {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("refcache get: %w", err)
	}

	var lookup map[string]string
	if err := json.Unmarshal(data, &lookup); err != nil {
		// A corrupt entry is a miss, not a failure.
		c.logger.Warn().Err(err).Msg("corrupt store cache entry, treating as miss")
		return nil, ErrCacheMiss
	}

	c.logger.Debug().Int("stores", len(lookup)).Msg("store reference cache hit")
	return lookup, nil
}

// SetStores caches the store lookup with the given TTL. Best-effort.
func (c *Cache) SetStores(ctx context.Context, lookup map[string]string, ttl time.Duration) error {
	if c == nil || c.redis == nil {
		return nil
	}

	data, err := json.Marshal(lookup)
	if err != nil {
		return fmt.Errorf("refcache marshal: %w", err)
	}

	if err := c.redis.Set(ctx, storeKey, data, ttl).Err(); err != nil {
		return fmt.Errorf("refcache set: %w", err)
	}

	c.logger.Debug().
		Int("stores", len(lookup)).
		Dur("ttl", ttl).
		Msg("store reference cached")

	return nil
}
