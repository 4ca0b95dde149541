package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	rateLimitUserPrefix = "ratelimit:user:"
	rateLimitIPPrefix   = "ratelimit:ip:"

	// Idle buckets refill completely well before this, so expiring them
	// loses nothing.
	rateLimitTTL = 10 * time.Minute
)

// RateLimitResult contains the result of a rate limit check.
type RateLimitResult struct {
	Allowed    bool
	Remaining  int64
	ResetAt    time.Time // when the bucket is full again
	RetryAfter time.Duration
}

// tokenBucketScript refills and takes one token atomically. Times are in
// milliseconds so sub-second refills are not lost between requests.
//
// Returns {allowed, retry_after_ms, remaining_tokens, ms_until_full}.
var tokenBucketScript = redis.NewScript(`
	local key = KEYS[1]
	local rate = tonumber(ARGV[1])   -- tokens per millisecond
	local burst = tonumber(ARGV[2])
	local now = tonumber(ARGV[3])
	local ttl = tonumber(ARGV[4])    -- seconds

	local data = redis.call('HMGET', key, 'tokens', 'ts')
	local tokens = tonumber(data[1]) or burst
	local ts = tonumber(data[2]) or now

	tokens = math.min(burst, tokens + math.max(0, now - ts) * rate)

	local allowed = 0
	local retry_after = 0
	if tokens >= 1 then
		tokens = tokens - 1
		allowed = 1
	else
		retry_after = math.ceil((1 - tokens) / rate)
	end

	redis.call('HSET', key, 'tokens', tokens, 'ts', now)
	redis.call('EXPIRE', key, ttl)

	return {allowed, retry_after, math.floor(tokens), math.ceil((burst - tokens) / rate)}
`)

// CheckUserRateLimit takes a token from an authenticated user's bucket.
func (c *Cache) CheckUserRateLimit(ctx context.Context, userID string, ratePerMinute, burst int) (*RateLimitResult, error) {
	return c.checkRateLimit(ctx, rateLimitUserPrefix+userID, ratePerMinute, burst)
}

// CheckIPRateLimit takes a token from a client IP's bucket. The IP is
// hashed so raw addresses are never stored.
func (c *Cache) CheckIPRateLimit(ctx context.Context, ip string, ratePerMinute, burst int) (*RateLimitResult, error) {
	return c.checkRateLimit(ctx, rateLimitIPPrefix+hashIP(ip), ratePerMinute, burst)
}

// checkRateLimit runs the token bucket for key. Redis failures are returned
// to the caller, which decides whether to fail open.
func (c *Cache) checkRateLimit(ctx context.Context, key string, ratePerMinute, burst int) (*RateLimitResult, error) {
	now := time.Now()
	if burst < 1 {
		burst = 1
	}

	// Unlimited
	if ratePerMinute <= 0 {
		return &RateLimitResult{Allowed: true, Remaining: int64(burst), ResetAt: now}, nil
	}

	ratePerMs := float64(ratePerMinute) / float64(time.Minute/time.Millisecond)

	res, err := tokenBucketScript.Run(ctx, c.client,
		[]string{key},
		ratePerMs, burst, now.UnixMilli(), int(rateLimitTTL.Seconds()),
	).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("rate limit %s: %w", key, err)
	}
	if len(res) != 4 {
		return nil, fmt.Errorf("rate limit %s: unexpected script result %v", key, res)
	}

	return &RateLimitResult{
		Allowed:    res[0] == 1,
		RetryAfter: time.Duration(res[1]) * time.Millisecond,
		Remaining:  res[2],
		ResetAt:    now.Add(time.Duration(res[3]) * time.Millisecond),
	}, nil
}

// hashIP returns the first 8 bytes of the IP's SHA-256 as hex.
func hashIP(ip string) string {
	hash := sha256.Sum256([]byte(ip))
	return hex.EncodeToString(hash[:8])
}
