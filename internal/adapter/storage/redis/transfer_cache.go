package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// TransferCache implements ports.TransferCache using Redis. It dedupes client
// transfer retries by reference id; the engine itself never retries.
type TransferCache struct {
	client *goredis.Client
	prefix string
}

// NewTransferCache creates a new Redis-backed transfer dedupe cache.
func NewTransferCache(client *goredis.Client) *TransferCache {
	return &TransferCache{
		client: client,
		prefix: "transfer:",
	}
}

// Get retrieves a cached transfer response by reference key.
// Returns nil, nil if the key does not exist.
func (c *TransferCache) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if err == goredis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("redis transfer cache get: %w", err)
	}
	return val, nil
}

// Set stores a transfer response with TTL.
func (c *TransferCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.prefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis transfer cache set: %w", err)
	}
	return nil
}
