package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/bwmarrin/snowflake"
	"github.com/google/go-cmp/cmp"
	redis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/atelier/internal/cache"
	"github.com/smallbiznis/atelier/internal/clock"
	"github.com/smallbiznis/atelier/internal/closingperiod"
	"github.com/smallbiznis/atelier/internal/config"
	"github.com/smallbiznis/atelier/internal/orgcontext"
	dashboarddomain "github.com/smallbiznis/atelier/internal/productiondashboard/domain"
	"go.uber.org/zap"
)

type fakeSource struct {
	mu    sync.Mutex
	refs  map[snowflake.ID][]closingperiod.Reference
	err   error
	calls int
}

func (f *fakeSource) ListForDashboard(_ context.Context, orgID snowflake.ID) ([]closingperiod.Reference, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.refs[orgID], nil
}

// blockingSource holds every fetch until release is closed, honoring ctx.
type blockingSource struct {
	refs    []closingperiod.Reference
	started chan struct{}
	release chan struct{}
	calls   atomic.Int32
}

func newBlockingSource(refs []closingperiod.Reference) *blockingSource {
	return &blockingSource{refs: refs, started: make(chan struct{}, 8), release: make(chan struct{})}
}

func (b *blockingSource) ListForDashboard(ctx context.Context, _ snowflake.ID) ([]closingperiod.Reference, error) {
	b.calls.Add(1)
	b.started <- struct{}{}
	select {
	case <-b.release:
		return b.refs, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// hookSource runs onFetch after loading, before the engine sees the references.
type hookSource struct {
	fakeSource
	onFetch func()
}

func (h *hookSource) ListForDashboard(ctx context.Context, orgID snowflake.ID) ([]closingperiod.Reference, error) {
	refs, err := h.fakeSource.ListForDashboard(ctx, orgID)
	if h.onFetch != nil {
		h.onFetch()
	}
	return refs, err
}

func newRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func newCachedService(t *testing.T, source dashboarddomain.ReferenceSource, clk clock.Clock, client *redis.Client) *Service {
	t.Helper()
	return NewService(Params{
		Log:    zap.NewNop(),
		Source: source,
		Clock:  clk,
		Config: config.NewStaticDashboardConfigHolder(config.DefaultDashboardConfig()),
		Cache:  cache.NewMetricsCache(client),
		Lock:   cache.NewComputeLock(client),
	})
}

func orgCtx(id int64) context.Context {
	return orgcontext.WithOrgID(context.Background(), snowflake.ID(id))
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newTestService(t *testing.T, source *fakeSource, now time.Time, cfg config.DashboardConfig) *Service {
	t.Helper()
	return NewService(Params{
		Log:    zap.NewNop(),
		Source: source,
		Clock:  clock.NewFakeClock(now),
		Config: config.NewStaticDashboardConfigHolder(cfg),
	})
}

func sampleRefs() []closingperiod.Reference {
	acme := &closingperiod.Customer{Name: "ACME", ClosingStartDay: "10", ClosingEndDay: "10"}
	return []closingperiod.Reference{
		{
			Status:    "completed",
			Amount:    dec("10"),
			UnitValue: dec("30"),
			CreatedAt: time.Date(2024, 12, 12, 12, 0, 0, 0, time.UTC),
			Customer:  acme,
		},
		{
			Status:                  "in_progress",
			Amount:                  dec("2"),
			UnitValue:               dec("5"),
			EstimatedCompletionDate: time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC),
			CreatedAt:               time.Date(2024, 12, 2, 12, 0, 0, 0, time.UTC),
		},
	}
}

func TestGetMetricsRequiresOrganization(t *testing.T) {
	svc := newTestService(t, &fakeSource{}, time.Now(), config.DefaultDashboardConfig())

	_, err := svc.GetMetrics(context.Background())
	if !errors.Is(err, dashboarddomain.ErrInvalidOrganization) {
		t.Fatalf("expected ErrInvalidOrganization, got %v", err)
	}
}

func TestGetMetricsFetchFailureReturnsNoMetrics(t *testing.T) {
	storeErr := errors.New("connection refused")
	svc := newTestService(t, &fakeSource{err: storeErr}, time.Now(), config.DefaultDashboardConfig())

	metrics, err := svc.GetMetrics(orgCtx(1))
	if metrics != nil {
		t.Fatalf("expected no metrics on failure, got %+v", metrics)
	}
	var fetchErr *dashboarddomain.UpstreamFetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected UpstreamFetchError, got %v", err)
	}
	if !errors.Is(err, storeErr) {
		t.Fatalf("expected wrapped store error")
	}
	if err.Error() != "connection refused" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestGetMetricsComputesForOrganization(t *testing.T) {
	source := &fakeSource{refs: map[snowflake.ID][]closingperiod.Reference{1: sampleRefs()}}
	now := time.Date(2024, 12, 15, 12, 0, 0, 0, time.UTC)
	svc := newTestService(t, source, now, config.DefaultDashboardConfig())

	got, err := svc.GetMetrics(orgCtx(1))
	if err != nil {
		t.Fatalf("get metrics: %v", err)
	}

	want := closingperiod.NewEngine(closingperiod.DefaultOptions()).Compute(sampleRefs(), now)
	if diff := cmp.Diff(want, *got); diff != "" {
		t.Fatalf("metrics mismatch (-want +got):\n%s", diff)
	}
	if !got.ValueInProduction.Equal(dec("300")) {
		t.Fatalf("expected 300 in production, got %s", got.ValueInProduction)
	}
	if got.ReferencesInProgress != 1 || got.ReferencesOverdue != 1 {
		t.Fatalf("unexpected counts %+v", got)
	}
}

func TestGetMetricsUsesConfiguredTimezone(t *testing.T) {
	cfg := config.DefaultDashboardConfig()
	cfg.Timezone = "America/Sao_Paulo"
	now := time.Date(2024, 12, 15, 2, 0, 0, 0, time.UTC)
	svc := newTestService(t, &fakeSource{}, now, cfg)

	got, err := svc.GetMetrics(orgCtx(1))
	if err != nil {
		t.Fatalf("get metrics: %v", err)
	}
	if got.AsOf != "2024-12-14" {
		t.Fatalf("expected local date 2024-12-14, got %s", got.AsOf)
	}
}

func TestGetMetricsAppliesConfiguredLabels(t *testing.T) {
	cfg := config.DefaultDashboardConfig()
	cfg.InProgressStatus = "Em Andamento"
	cfg.NoServiceTypeLabel = "Sem Tipo"
	refs := []closingperiod.Reference{{Status: "", Amount: dec("1"), UnitValue: dec("1")}}
	svc := newTestService(t, &fakeSource{refs: map[snowflake.ID][]closingperiod.Reference{1: refs}}, time.Now(), cfg)

	got, err := svc.GetMetrics(orgCtx(1))
	if err != nil {
		t.Fatalf("get metrics: %v", err)
	}
	if diff := cmp.Diff([]string{"Em Andamento"}, got.ReferencesByStatus.Labels); diff != "" {
		t.Fatalf("status labels mismatch:\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Sem Tipo"}, got.ProductionByServiceType.Labels); diff != "" {
		t.Fatalf("service type labels mismatch:\n%s", diff)
	}
}

func TestGetMetricsServesFromCacheUntilInvalidated(t *testing.T) {
	source := &fakeSource{refs: map[snowflake.ID][]closingperiod.Reference{1: sampleRefs()}}
	now := time.Date(2024, 12, 15, 12, 0, 0, 0, time.UTC)
	svc := newCachedService(t, source, clock.NewFakeClock(now), newRedis(t))
	ctx := orgCtx(1)

	for i := 0; i < 3; i++ {
		if _, err := svc.GetMetrics(ctx); err != nil {
			t.Fatalf("get metrics: %v", err)
		}
	}
	if source.calls != 1 {
		t.Fatalf("expected 1 fetch, got %d", source.calls)
	}

	if err := svc.InvalidateCache(ctx, snowflake.ID(1)); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if _, err := svc.GetMetrics(ctx); err != nil {
		t.Fatalf("get metrics: %v", err)
	}
	if source.calls != 2 {
		t.Fatalf("expected refetch after invalidation, got %d fetches", source.calls)
	}
}

func TestGetMetricsCacheIsScopedByDay(t *testing.T) {
	source := &fakeSource{refs: map[snowflake.ID][]closingperiod.Reference{1: sampleRefs()}}
	clk := clock.NewFakeClock(time.Date(2024, 12, 9, 12, 0, 0, 0, time.UTC))
	svc := newCachedService(t, source, clk, newRedis(t))

	before, err := svc.GetMetrics(orgCtx(1))
	if err != nil {
		t.Fatalf("get metrics: %v", err)
	}
	clk.Advance(24 * time.Hour)
	after, err := svc.GetMetrics(orgCtx(1))
	if err != nil {
		t.Fatalf("get metrics: %v", err)
	}

	if source.calls != 2 {
		t.Fatalf("expected a fresh computation on a new day, got %d fetches", source.calls)
	}
	if before.AsOf == after.AsOf {
		t.Fatalf("expected different as_of dates")
	}
	if !before.ValueInProduction.IsZero() {
		t.Fatalf("expected no value before window rolls, got %s", before.ValueInProduction)
	}
	if !after.ValueInProduction.Equal(dec("300")) {
		t.Fatalf("expected 300 after window rolls, got %s", after.ValueInProduction)
	}
}

func TestInvalidateCacheRejectsZeroOrg(t *testing.T) {
	svc := newTestService(t, &fakeSource{}, time.Now(), config.DefaultDashboardConfig())
	if err := svc.InvalidateCache(context.Background(), 0); !errors.Is(err, dashboarddomain.ErrInvalidOrganization) {
		t.Fatalf("expected ErrInvalidOrganization, got %v", err)
	}
}

func TestGetMetricsDoesNotCacheResultOlderThanInvalidation(t *testing.T) {
	now := time.Date(2024, 12, 15, 12, 0, 0, 0, time.UTC)
	source := &hookSource{fakeSource: fakeSource{refs: map[snowflake.ID][]closingperiod.Reference{1: sampleRefs()}}}
	svc := newCachedService(t, source, clock.NewFakeClock(now), newRedis(t))
	ctx := orgCtx(1)

	// A write lands after the references were read but before the result is cached.
	source.onFetch = func() {
		source.onFetch = nil
		if err := svc.InvalidateCache(ctx, snowflake.ID(1)); err != nil {
			t.Errorf("invalidate: %v", err)
		}
	}
	if _, err := svc.GetMetrics(ctx); err != nil {
		t.Fatalf("get metrics: %v", err)
	}

	source.mu.Lock()
	source.refs[1] = nil
	source.mu.Unlock()

	got, err := svc.GetMetrics(ctx)
	if err != nil {
		t.Fatalf("get metrics: %v", err)
	}
	if source.calls != 2 {
		t.Fatalf("expected a refetch after the invalidation, got %d fetches", source.calls)
	}
	if !got.ValueInProduction.IsZero() {
		t.Fatalf("expected fresh metrics, got value_in_production=%s", got.ValueInProduction)
	}
}

func TestGetMetricsSharedComputationSurvivesCallerCancel(t *testing.T) {
	now := time.Date(2024, 12, 15, 12, 0, 0, 0, time.UTC)
	source := newBlockingSource(sampleRefs())
	svc := newTestService(t, &fakeSource{}, now, config.DefaultDashboardConfig())
	svc.source = source

	firstCtx, cancelFirst := context.WithCancel(orgCtx(1))
	firstErr := make(chan error, 1)
	go func() {
		_, err := svc.GetMetrics(firstCtx)
		firstErr <- err
	}()
	<-source.started

	type outcome struct {
		metrics *closingperiod.Metrics
		err     error
	}
	second := make(chan outcome, 1)
	go func() {
		m, err := svc.GetMetrics(orgCtx(1))
		second <- outcome{m, err}
	}()
	time.Sleep(50 * time.Millisecond)

	cancelFirst()
	select {
	case err := <-firstErr:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled for the departed caller, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("cancelled caller did not return")
	}

	close(source.release)
	res := <-second
	if res.err != nil {
		t.Fatalf("expected the live caller to succeed, got %v", res.err)
	}
	if !res.metrics.ValueInProduction.Equal(dec("300")) {
		t.Fatalf("expected 300 in production, got %s", res.metrics.ValueInProduction)
	}
	if n := source.calls.Load(); n != 1 {
		t.Fatalf("expected one shared fetch, got %d", n)
	}
}

func TestGetMetricsWaitsForReplicaHoldingLock(t *testing.T) {
	now := time.Date(2024, 12, 15, 12, 0, 0, 0, time.UTC)
	client := newRedis(t)
	source := &fakeSource{refs: map[snowflake.ID][]closingperiod.Reference{1: sampleRefs()}}
	svc := newCachedService(t, source, clock.NewFakeClock(now), client)

	lock := cache.NewComputeLock(client)
	if _, ok, err := lock.TryLock(context.Background(), snowflake.ID(1), time.Minute); err != nil || !ok {
		t.Fatalf("expected to take the lock, got ok=%v err=%v", ok, err)
	}

	published := closingperiod.Metrics{AsOf: "2024-12-15", ValueInProduction: dec("42")}
	go func() {
		time.Sleep(2 * lockWaitInterval)
		metricsCache := cache.NewMetricsCache(client)
		_ = metricsCache.Set(context.Background(), snowflake.ID(1), 0, "2024-12-15", &published, time.Minute)
	}()

	got, err := svc.GetMetrics(orgCtx(1))
	if err != nil {
		t.Fatalf("get metrics: %v", err)
	}
	if !got.ValueInProduction.Equal(dec("42")) {
		t.Fatalf("expected the other replica's result, got %s", got.ValueInProduction)
	}
	if source.calls != 0 {
		t.Fatalf("expected no local fetch, got %d", source.calls)
	}
}

func TestGetMetricsComputesWhenLockHolderNeverPublishes(t *testing.T) {
	now := time.Date(2024, 12, 15, 12, 0, 0, 0, time.UTC)
	client := newRedis(t)
	source := &fakeSource{refs: map[snowflake.ID][]closingperiod.Reference{1: sampleRefs()}}
	svc := newCachedService(t, source, clock.NewFakeClock(now), client)

	if _, ok, _ := cache.NewComputeLock(client).TryLock(context.Background(), snowflake.ID(1), time.Minute); !ok {
		t.Fatalf("expected to take the lock")
	}

	got, err := svc.GetMetrics(orgCtx(1))
	if err != nil {
		t.Fatalf("get metrics: %v", err)
	}
	if source.calls != 1 || !got.ValueInProduction.Equal(dec("300")) {
		t.Fatalf("expected a local computation, got %d fetches and %s", source.calls, got.ValueInProduction)
	}
}

func TestComputeLockedExpiredWaitIsNotFetchError(t *testing.T) {
	now := time.Date(2024, 12, 15, 12, 0, 0, 0, time.UTC)
	client := newRedis(t)
	source := &fakeSource{refs: map[snowflake.ID][]closingperiod.Reference{1: sampleRefs()}}
	svc := newCachedService(t, source, clock.NewFakeClock(now), client)

	if _, ok, _ := cache.NewComputeLock(client).TryLock(context.Background(), snowflake.ID(1), time.Minute); !ok {
		t.Fatalf("expected to take the lock")
	}

	ctx, cancel := context.WithTimeout(orgCtx(1), lockWaitInterval/3)
	defer cancel()
	_, err := svc.computeLocked(ctx, snowflake.ID(1), cacheSnapshot{ok: true}, "2024-12-15", now, config.DefaultDashboardConfig())
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected context.DeadlineExceeded, got %v", err)
	}
	var fetchErr *dashboarddomain.UpstreamFetchError
	if errors.As(err, &fetchErr) {
		t.Fatalf("an abandoned wait must not be reported as an upstream failure")
	}
	if source.calls != 0 {
		t.Fatalf("expected no fetch, got %d", source.calls)
	}
}
