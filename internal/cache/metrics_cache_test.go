package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/bwmarrin/snowflake"
	redis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/atelier/internal/closingperiod"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func sampleMetrics() *closingperiod.Metrics {
	return &closingperiod.Metrics{
		AsOf:                 "2024-12-15",
		ValueInProduction:    decimal.RequireFromString("1234.56"),
		ReferencesInProgress: 2,
		ReferencesByStatus:   closingperiod.CountSeries{Labels: []string{"in_progress"}, Data: []int{2}},
		RevenueByCustomer: closingperiod.ValueSeries{
			Labels: []string{"ACME"},
			Data:   []decimal.Decimal{decimal.RequireFromString("1234.56")},
		},
	}
}

func TestNewMetricsCacheWithoutRedisIsNoop(t *testing.T) {
	c := NewMetricsCache(nil)
	ctx := context.Background()

	assert.False(t, c.Enabled())
	require.NoError(t, c.Set(ctx, snowflake.ID(1), 0, "2024-12-15", &closingperiod.Metrics{}, time.Minute))

	got, ok, err := c.Get(ctx, snowflake.ID(1), 0, "2024-12-15")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, got)
	assert.NoError(t, c.Invalidate(ctx, snowflake.ID(1)))
}

func TestMetricsKeyIncludesVersionAndDay(t *testing.T) {
	assert.Equal(t, "dashboard:metrics:42:3:2024-12-15", metricsKey(snowflake.ID(42), 3, "2024-12-15"))
	assert.NotEqual(t, metricsKey(snowflake.ID(42), 3, "2024-12-15"), metricsKey(snowflake.ID(42), 4, "2024-12-15"))
}

func TestComputeLockWithoutRedis(t *testing.T) {
	l := NewComputeLock(nil)
	assert.Nil(t, l)

	_, ok, err := l.TryLock(context.Background(), snowflake.ID(1), time.Second)
	assert.Error(t, err)
	assert.False(t, ok)
	assert.NoError(t, l.Release(context.Background(), snowflake.ID(1), "token"))
}

func TestComputeLockKey(t *testing.T) {
	assert.Equal(t, "dashboard:compute:42", computeLockKey(snowflake.ID(42)))
}

func TestRedisMetricsCacheRoundTrip(t *testing.T) {
	mr, client := newTestRedis(t)
	c := NewMetricsCache(client)
	ctx := context.Background()
	org := snowflake.ID(7)

	version, err := c.Version(ctx, org)
	require.NoError(t, err)
	assert.Equal(t, int64(0), version)

	require.NoError(t, c.Set(ctx, org, version, "2024-12-15", sampleMetrics(), time.Minute))
	got, ok, err := c.Get(ctx, org, version, "2024-12-15")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, got.ValueInProduction.Equal(decimal.RequireFromString("1234.56")))
	assert.True(t, got.RevenueByCustomer.Data[0].Equal(decimal.RequireFromString("1234.56")))
	assert.Equal(t, []string{"ACME"}, got.RevenueByCustomer.Labels)
	assert.Equal(t, 2, got.ReferencesInProgress)

	mr.FastForward(2 * time.Minute)
	_, ok, err = c.Get(ctx, org, version, "2024-12-15")
	require.NoError(t, err)
	assert.False(t, ok, "entry should expire with its ttl")
}

func TestRedisMetricsCacheInvalidateOrphansOlderVersions(t *testing.T) {
	_, client := newTestRedis(t)
	c := NewMetricsCache(client)
	ctx := context.Background()
	org := snowflake.ID(7)

	before, err := c.Version(ctx, org)
	require.NoError(t, err)

	// A computation that read its data before the write stores under the old version.
	require.NoError(t, c.Invalidate(ctx, org))
	require.NoError(t, c.Set(ctx, org, before, "2024-12-15", sampleMetrics(), time.Minute))

	after, err := c.Version(ctx, org)
	require.NoError(t, err)
	assert.Equal(t, before+1, after)

	_, ok, err := c.Get(ctx, org, after, "2024-12-15")
	require.NoError(t, err)
	assert.False(t, ok, "stale metrics must not be served after invalidation")

	other, err := c.Version(ctx, snowflake.ID(8))
	require.NoError(t, err)
	assert.Equal(t, int64(0), other, "invalidation is scoped to one organization")
}

func TestRedisMetricsCacheRejectsCorruptEntry(t *testing.T) {
	mr, client := newTestRedis(t)
	c := NewMetricsCache(client)
	require.NoError(t, mr.Set(metricsKey(snowflake.ID(7), 0, "2024-12-15"), "{not json"))

	_, ok, err := c.Get(context.Background(), snowflake.ID(7), 0, "2024-12-15")
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestComputeLockExclusiveUntilReleased(t *testing.T) {
	mr, client := newTestRedis(t)
	lock := NewComputeLock(client)
	ctx := context.Background()
	org := snowflake.ID(7)

	token, ok, err := lock.TryLock(ctx, org, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = lock.TryLock(ctx, org, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "second holder must be refused")

	// A foreign token leaves the lock in place.
	require.NoError(t, lock.Release(ctx, org, "someone-else"))
	assert.True(t, mr.Exists(computeLockKey(org)))

	require.NoError(t, lock.Release(ctx, org, token))
	assert.False(t, mr.Exists(computeLockKey(org)))

	_, ok, err = lock.TryLock(ctx, org, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestComputeLockExpires(t *testing.T) {
	mr, client := newTestRedis(t)
	lock := NewComputeLock(client)
	ctx := context.Background()

	_, ok, err := lock.TryLock(ctx, snowflake.ID(7), time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(2 * time.Second)
	_, ok, err = lock.TryLock(ctx, snowflake.ID(7), time.Second)
	require.NoError(t, err)
	assert.True(t, ok, "lock should be free after its ttl")
}
