package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/atelier/internal/closingperiod"
)

const (
	keyMetricsVersion = "dashboard:metrics:version:%s"
	keyMetrics        = "dashboard:metrics:%s:%d:%s"
)

// MetricsCache stores computed dashboard metrics per organization, data
// version and day. Callers read Version before loading references and pass it
// to Set, so a result computed from data older than an Invalidate is stored
// under a key nobody reads.
type MetricsCache interface {
	Enabled() bool
	Version(ctx context.Context, orgID snowflake.ID) (int64, error)
	Get(ctx context.Context, orgID snowflake.ID, version int64, day string) (*closingperiod.Metrics, bool, error)
	Set(ctx context.Context, orgID snowflake.ID, version int64, day string, metrics *closingperiod.Metrics, ttl time.Duration) error
	// Invalidate bumps the organization's version, orphaning every cached entry.
	Invalidate(ctx context.Context, orgID snowflake.ID) error
}

// NewMetricsCache returns a Redis-backed cache, or a no-op one without Redis.
func NewMetricsCache(client *redis.Client) MetricsCache {
	if client == nil {
		return noopMetricsCache{}
	}
	return &redisMetricsCache{client: client}
}

// redisMetricsCache versions keys per organization; invalidating bumps the
// version so stale entries are never read again and simply expire.
type redisMetricsCache struct {
	client *redis.Client
}

func (c *redisMetricsCache) Enabled() bool { return true }

func (c *redisMetricsCache) Get(ctx context.Context, orgID snowflake.ID, version int64, day string) (*closingperiod.Metrics, bool, error) {
	raw, err := c.client.Get(ctx, metricsKey(orgID, version, day)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var metrics closingperiod.Metrics
	if err := json.Unmarshal(raw, &metrics); err != nil {
		return nil, false, fmt.Errorf("decode cached metrics: %w", err)
	}
	return &metrics, true, nil
}

func (c *redisMetricsCache) Set(ctx context.Context, orgID snowflake.ID, version int64, day string, metrics *closingperiod.Metrics, ttl time.Duration) error {
	if metrics == nil || ttl <= 0 {
		return nil
	}

	payload, err := json.Marshal(metrics)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, metricsKey(orgID, version, day), payload, ttl).Err()
}

func (c *redisMetricsCache) Invalidate(ctx context.Context, orgID snowflake.ID) error {
	return c.client.Incr(ctx, fmt.Sprintf(keyMetricsVersion, orgID.String())).Err()
}

func (c *redisMetricsCache) Version(ctx context.Context, orgID snowflake.ID) (int64, error) {
	version, err := c.client.Get(ctx, fmt.Sprintf(keyMetricsVersion, orgID.String())).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return version, err
}

func metricsKey(orgID snowflake.ID, version int64, day string) string {
	return fmt.Sprintf(keyMetrics, orgID.String(), version, day)
}

type noopMetricsCache struct{}

func (noopMetricsCache) Enabled() bool { return false }

func (noopMetricsCache) Version(context.Context, snowflake.ID) (int64, error) { return 0, nil }

func (noopMetricsCache) Get(context.Context, snowflake.ID, int64, string) (*closingperiod.Metrics, bool, error) {
	return nil, false, nil
}

func (noopMetricsCache) Set(context.Context, snowflake.ID, int64, string, *closingperiod.Metrics, time.Duration) error {
	return nil
}

func (noopMetricsCache) Invalidate(context.Context, snowflake.ID) error { return nil }
