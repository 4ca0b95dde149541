package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// denylistPrefix is the Redis key prefix for revoked access-token IDs.
const denylistPrefix = "auth:deny:"

// DenyToken marks an access-token ID as revoked until ttl elapses. A token
// already past its expiry needs no entry.
func (c *Cache) DenyToken(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := c.client.Set(ctx, denylistKey(tokenID), 1, ttl).Err(); err != nil {
		return fmt.Errorf("deny token: %w", err)
	}
	return nil
}

// IsTokenDenied reports whether an access-token ID has been revoked.
func (c *Cache) IsTokenDenied(ctx context.Context, tokenID string) (bool, error) {
	err := c.client.Get(ctx, denylistKey(tokenID)).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check token denylist: %w", err)
	}
	return true, nil
}

func denylistKey(tokenID string) string {
	return denylistPrefix + tokenID
}
