package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// The script refills the bucket from the Redis clock so every API replica
// shares one notion of time. Fractional tokens are stored as strings since
// Lua numbers returned to Redis are truncated to integers.
var tokenBucketScript = redis.NewScript(`
local rate = tonumber(ARGV[1])
local burst = tonumber(ARGV[2])
local ttl_ms = tonumber(ARGV[3])

local clock = redis.call("TIME")
local now = clock[1] * 1000 + math.floor(clock[2] / 1000)

local state = redis.call("HMGET", KEYS[1], "tokens", "ts")
local tokens = tonumber(state[1]) or burst
local last = tonumber(state[2]) or now
tokens = math.min(burst, tokens + math.max(0, now - last) * rate / 1000)

local allowed = 0
local retry_ms = 0
if tokens >= 1 then
  allowed = 1
  tokens = tokens - 1
else
  retry_ms = math.ceil((1 - tokens) * 1000 / rate)
end

redis.call("HSET", KEYS[1], "tokens", tostring(tokens), "ts", now)
redis.call("PEXPIRE", KEYS[1], ttl_ms)

return {allowed, math.floor(tokens), retry_ms, now}
`)

// Decision is the outcome of taking one token from a bucket.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
	ResetAt    time.Time
}

// TokenBucket is a Redis-backed token bucket keyed by caller.
type TokenBucket struct {
	client redis.Scripter
}

func NewTokenBucket(client redis.Scripter) *TokenBucket {
	return &TokenBucket{client: client}
}

// Take consumes one token from key, refilling at rate tokens per second up to burst.
func (t *TokenBucket) Take(ctx context.Context, key string, rate float64, burst int) (Decision, error) {
	switch {
	case t == nil || t.client == nil:
		return Decision{}, errors.New("rate limiter not configured")
	case key == "":
		return Decision{}, errors.New("rate limiter key is empty")
	case rate <= 0 || burst <= 0:
		return Decision{}, fmt.Errorf("rate limiter needs positive rate and burst, got %v/%d", rate, burst)
	}

	ttl := bucketTTL(rate, burst)
	vals, err := tokenBucketScript.Run(ctx, t.client, []string{key}, rate, burst, ttl.Milliseconds()).Int64Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("token bucket %s: %w", key, err)
	}
	return decisionFromReply(vals, burst)
}

func decisionFromReply(vals []int64, burst int) (Decision, error) {
	if len(vals) != 4 {
		return Decision{}, fmt.Errorf("token bucket: unexpected reply length %d", len(vals))
	}
	retry := time.Duration(vals[2]) * time.Millisecond
	return Decision{
		Allowed:    vals[0] == 1,
		Limit:      burst,
		Remaining:  int(vals[1]),
		RetryAfter: retry,
		ResetAt:    time.UnixMilli(vals[3]).Add(retry),
	}, nil
}

// bucketTTL keeps idle buckets around for twice the time a full refill takes.
func bucketTTL(rate float64, burst int) time.Duration {
	if rate <= 0 || burst <= 0 {
		return time.Second
	}
	return time.Duration(math.Max(1, math.Ceil(2*float64(burst)/rate))) * time.Second
}
