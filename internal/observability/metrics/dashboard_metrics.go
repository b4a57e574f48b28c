package metrics

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

const (
	FetchErrorDeadlineExceeded = "deadline_exceeded"
	FetchErrorDBLockTimeout    = "db_lock_timeout"
	FetchErrorConnection       = "connection"
	FetchErrorDB               = "db"
	FetchErrorUnknown          = "unknown"
)

// DashboardMetrics tracks production dashboard computations.
type DashboardMetrics struct {
	computeDuration      prometheus.Histogram
	referencesProcessed  prometheus.Counter
	fetchErrors          *prometheus.CounterVec
	cacheResults         *prometheus.CounterVec
	valueInProductionSum prometheus.Gauge
}

var (
	dashboardMetricsOnce sync.Once
	dashboardMetrics     *DashboardMetrics
)

// DashboardWithConfig returns the process-wide dashboard metrics registry.
func DashboardWithConfig(cfg Config) *DashboardMetrics {
	dashboardMetricsOnce.Do(func() {
		dashboardMetrics = newDashboardMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return dashboardMetrics
}

func newDashboardMetrics(registerer prometheus.Registerer, cfg Config) *DashboardMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "atelier"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}
	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	m := &DashboardMetrics{
		computeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:        "atelier_dashboard_compute_duration_seconds",
			Help:        "Time spent loading references and computing dashboard metrics.",
			Buckets:     []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			ConstLabels: constLabels,
		}),
		referencesProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "atelier_dashboard_references_processed_total",
			Help:        "References folded into dashboard computations.",
			ConstLabels: constLabels,
		}),
		fetchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "atelier_dashboard_fetch_errors_total",
			Help:        "Reference loads that failed, by low-cardinality reason.",
			ConstLabels: constLabels,
		}, []string{"reason"}),
		cacheResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "atelier_dashboard_cache_results_total",
			Help:        "Dashboard cache lookups by result.",
			ConstLabels: constLabels,
		}, []string{"result"}),
		valueInProductionSum: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "atelier_dashboard_last_value_in_production",
			Help:        "Value in production reported by the most recent computation.",
			ConstLabels: constLabels,
		}),
	}

	registerer.MustRegister(
		m.computeDuration,
		m.referencesProcessed,
		m.fetchErrors,
		m.cacheResults,
		m.valueInProductionSum,
	)
	return m
}

// ObserveComputation records one successful computation.
func (m *DashboardMetrics) ObserveComputation(duration time.Duration, references int, valueInProduction float64) {
	if m == nil {
		return
	}
	m.computeDuration.Observe(duration.Seconds())
	if references > 0 {
		m.referencesProcessed.Add(float64(references))
	}
	m.valueInProductionSum.Set(valueInProduction)
}

// IncFetchError records a failed reference load.
func (m *DashboardMetrics) IncFetchError(err error) {
	if m == nil || err == nil {
		return
	}
	m.fetchErrors.WithLabelValues(ClassifyFetchError(err)).Inc()
}

// IncCacheResult records a cache lookup result.
func (m *DashboardMetrics) IncCacheResult(result string) {
	if m == nil {
		return
	}
	m.cacheResults.WithLabelValues(strings.TrimSpace(result)).Inc()
}

// ClassifyFetchError maps a reference load error to a low-cardinality reason.
func ClassifyFetchError(err error) string {
	if err == nil {
		return FetchErrorUnknown
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return FetchErrorDeadlineExceeded
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "55P03" {
			return FetchErrorDBLockTimeout
		}
		if strings.HasPrefix(pgErr.Code, "08") {
			return FetchErrorConnection
		}
		return FetchErrorDB
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return FetchErrorConnection
	}
	if errors.Is(err, gorm.ErrInvalidDB) || errors.Is(err, gorm.ErrInvalidTransaction) {
		return FetchErrorDB
	}
	return FetchErrorUnknown
}
