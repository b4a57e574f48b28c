package metrics

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestClassifyFetchError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{name: "deadline", err: context.DeadlineExceeded, want: FetchErrorDeadlineExceeded},
		{name: "canceled_wrapped", err: fmt.Errorf("query: %w", context.Canceled), want: FetchErrorDeadlineExceeded},
		{name: "lock_timeout", err: &pgconn.PgError{Code: "55P03"}, want: FetchErrorDBLockTimeout},
		{name: "connection_failure", err: &pgconn.PgError{Code: "08006"}, want: FetchErrorConnection},
		{name: "other_pg", err: &pgconn.PgError{Code: "42P01"}, want: FetchErrorDB},
		{name: "unknown", err: errors.New("boom"), want: FetchErrorUnknown},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ClassifyFetchError(tc.err); got != tc.want {
				t.Fatalf("expected reason %q, got %q", tc.want, got)
			}
		})
	}
}

func TestObserveComputation(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := newDashboardMetrics(registry, Config{ServiceName: "atelier", Environment: "test"})

	m.ObserveComputation(20*time.Millisecond, 3, 470)
	m.ObserveComputation(10*time.Millisecond, 2, 120)

	if got := testutil.ToFloat64(m.referencesProcessed); got != 5 {
		t.Fatalf("expected 5 references processed, got %v", got)
	}
	if got := testutil.ToFloat64(m.valueInProductionSum); got != 120 {
		t.Fatalf("expected last value 120, got %v", got)
	}
	if got := testutil.CollectAndCount(m.computeDuration); got != 1 {
		t.Fatalf("expected one histogram series, got %d", got)
	}
}

func TestIncFetchErrorAndCache(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := newDashboardMetrics(registry, Config{})

	m.IncFetchError(context.DeadlineExceeded)
	m.IncFetchError(nil)
	m.IncCacheResult("hit")
	m.IncCacheResult("hit")

	if got := testutil.ToFloat64(m.fetchErrors.WithLabelValues(FetchErrorDeadlineExceeded)); got != 1 {
		t.Fatalf("expected 1 fetch error, got %v", got)
	}
	if got := testutil.ToFloat64(m.cacheResults.WithLabelValues("hit")); got != 2 {
		t.Fatalf("expected 2 cache hits, got %v", got)
	}
}
