package metrics

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestFilterAttributesDropsForbiddenLabels(t *testing.T) {
	attrs := FilterAttributes(
		attribute.String("org_id", "123"),
		attribute.String("customer_name", "ACME"),
		attribute.String("outcome", "ok"),
		attribute.String("reason", " "),
	)
	if len(attrs) != 2 {
		t.Fatalf("expected 2 attributes, got %d", len(attrs))
	}
	if attrs[0].Key != "org_id" || attrs[1].Key != "outcome" {
		t.Fatalf("unexpected attributes %v", attrs)
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordDashboardComputation(context.Background(), "1", "ok")
	m.RecordDashboardCache(context.Background(), "hit")
	m.RecordRateLimit(context.Background(), "1", "/api/dashboard/metrics", DecisionDenied, "org")
}

func TestNewWithNoopProvider(t *testing.T) {
	m, err := New(Config{ServiceName: "atelier"}, noop.NewMeterProvider())
	if err != nil {
		t.Fatalf("new metrics: %v", err)
	}
	m.RecordDashboardComputation(context.Background(), "1", "ok")
}

func TestRecordRateLimitDecisions(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	m, err := New(Config{}, sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)))
	if err != nil {
		t.Fatalf("new metrics: %v", err)
	}

	ctx := context.Background()
	m.RecordRateLimit(ctx, "1", "/api/lots", DecisionAllowed, "")
	m.RecordRateLimit(ctx, "1", "/api/lots", DecisionAllowed, "")
	m.RecordRateLimit(ctx, "1", "/api/lots", DecisionDenied, "org")

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}

	totals := map[string]int64{}
	for _, scope := range rm.ScopeMetrics {
		for _, md := range scope.Metrics {
			if md.Name != "atelier_rate_limit_decisions_total" {
				continue
			}
			sum, ok := md.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatalf("unexpected data type %T", md.Data)
			}
			for _, dp := range sum.DataPoints {
				decision, _ := dp.Attributes.Value("decision")
				totals[decision.AsString()] += dp.Value
			}
		}
	}
	if totals[DecisionAllowed] != 2 || totals[DecisionDenied] != 1 {
		t.Fatalf("unexpected totals %v", totals)
	}
}
