// Package cache implements the read-through listing cache on Redis.
package cache

import (
	"context"
	"errors"
	"time"

	"commentd/internal/comments"
	"commentd/internal/db"

	"github.com/redis/go-redis/v9"
)

// ListingCache stores serialized listing payloads under the
// comments.CacheKeyPrefix namespace with a TTL, and supports purging the
// whole namespace with a wildcard scan. It holds an injected client whose
// lifetime is managed by the process, not a package global.
type ListingCache struct {
	client *db.RedisClient
	ttl    time.Duration
}

func NewListingCache(client *db.RedisClient, ttl time.Duration) *ListingCache {
	if ttl <= 0 {
		ttl = 300 * time.Second
	}
	return &ListingCache{client: client, ttl: ttl}
}

// Get returns the cached payload for the key, reporting ok=false on miss.
func (c *ListingCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	payload, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return payload, true, nil
}

// Set stores the payload under the key with the configured TTL.
func (c *ListingCache) Set(ctx context.Context, key string, payload []byte) error {
	return c.client.Set(ctx, key, payload, c.ttl).Err()
}

// Purge deletes every key in the listing namespace. Coarse by design: one
// wildcard over the prefix keeps invalidation correct without tracking which
// query signatures a write affects.
func (c *ListingCache) Purge(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, comments.CacheKeyPrefix+"*", 100).Iterator()

	keys := make([]string, 0, 100)
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
		if len(keys) == 100 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return err
			}
			keys = keys[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) > 0 {
		return c.client.Del(ctx, keys...).Err()
	}
	return nil
}
