package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const exportInterval = 10 * time.Second

// Rate limit decisions recorded by RecordRateLimit.
const (
	DecisionAllowed = "allowed"
	DecisionDenied  = "denied"
)

// Config configures the OTLP meter provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics holds the OTLP counters pushed alongside the Prometheus registry.
// A nil *Metrics records nothing.
type Metrics struct {
	computations metric.Int64Counter
	cacheLookups metric.Int64Counter
	rateLimit    metric.Int64Counter
}

// NewProvider registers the global meter provider. Without an exporter the
// provider is a no-op.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled || strings.TrimSpace(cfg.ExporterEndpoint) == "" {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(context.Background(), cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}
	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(exportInterval))),
	)
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.StopHook(provider.Shutdown))
	}
	log.Info("metrics export enabled",
		zap.String("endpoint", cfg.ExporterEndpoint),
		zap.String("protocol", cfg.ExporterProtocol),
	)
	return provider, nil
}

// New creates the dashboard and rate limit counters on the service meter.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "atelier"
	}
	meter := provider.Meter(name)

	m := &Metrics{}
	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
	}{
		{&m.computations, "atelier_dashboard_computations_total", "Dashboard metric computations by outcome."},
		{&m.cacheLookups, "atelier_dashboard_cache_lookups_total", "Dashboard snapshot cache lookups by result."},
		{&m.rateLimit, "atelier_rate_limit_decisions_total", "Per-organization rate limit decisions."},
	}
	for _, c := range counters {
		counter, err := meter.Int64Counter(c.name, metric.WithDescription(c.desc))
		if err != nil {
			return nil, fmt.Errorf("create %s: %w", c.name, err)
		}
		*c.dst = counter
	}
	return m, nil
}

// RecordDashboardComputation counts a metrics computation by outcome (ok, fetch_error).
func (m *Metrics) RecordDashboardComputation(ctx context.Context, orgID, outcome string) {
	if m == nil {
		return
	}
	add(ctx, m.computations,
		attribute.String("org_id", orgID),
		attribute.String("outcome", outcome),
	)
}

// RecordDashboardCache counts cache lookups by result (hit, miss, error).
func (m *Metrics) RecordDashboardCache(ctx context.Context, result string) {
	if m == nil {
		return
	}
	add(ctx, m.cacheLookups, attribute.String("result", result))
}

// RecordRateLimit counts one rate limit decision. reason is empty for allowed calls.
func (m *Metrics) RecordRateLimit(ctx context.Context, orgID, endpoint, decision, reason string) {
	if m == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("org_id", orgID),
		attribute.String("endpoint", endpoint),
		attribute.String("decision", decision),
	}
	if reason != "" {
		attrs = append(attrs, attribute.String("reason", reason))
	}
	add(ctx, m.rateLimit, attrs...)
}

func add(ctx context.Context, counter metric.Int64Counter, attrs ...attribute.KeyValue) {
	counter.Add(ctx, 1, metric.WithAttributes(FilterAttributes(attrs...)...))
}

func newExporter(ctx context.Context, protocol, endpoint string) (sdkmetric.Exporter, error) {
	switch strings.ToLower(strings.TrimSpace(protocol)) {
	case "", "grpc":
		return otlpmetricgrpc.New(ctx, otlpmetricgrpc.WithEndpoint(endpoint), otlpmetricgrpc.WithInsecure())
	case "http", "http/protobuf":
		return otlpmetrichttp.New(ctx, otlpmetrichttp.WithEndpoint(endpoint), otlpmetrichttp.WithInsecure())
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}

var allowedLabelKeys = map[attribute.Key]struct{}{
	"org_id":   {},
	"endpoint": {},
	"outcome":  {},
	"result":   {},
	"decision": {},
	"reason":   {},
}

// FilterAttributes drops labels outside the allow list and empty values so
// series stay low-cardinality.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		if attr.Value.Type() == attribute.STRING && strings.TrimSpace(attr.Value.AsString()) == "" {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}
