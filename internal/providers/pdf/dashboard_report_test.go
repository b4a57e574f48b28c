package pdf

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/atelier/internal/closingperiod"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateDashboardReport(t *testing.T) {
	provider := New()
	reader, err := provider.GenerateDashboardReport(context.Background(), DashboardReport{
		OrgName:     "Oficina Central",
		GeneratedAt: time.Date(2024, 12, 15, 9, 30, 0, 0, time.UTC),
		Metrics: closingperiod.Metrics{
			AsOf:                 "2024-12-15",
			ReferencesInProgress: 2,
			ValueInProduction:    decimal.RequireFromString("300"),
			ReferencesByStatus:   closingperiod.CountSeries{Labels: []string{"in_progress"}, Data: []int{2}},
			RevenueByCustomer: closingperiod.ValueSeries{
				Labels: []string{"ACME"},
				Data:   []decimal.Decimal{decimal.RequireFromString("300")},
			},
		},
	})
	require.NoError(t, err)

	doc, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(doc, []byte("%PDF")), "expected a PDF document")
}

func TestGenerateDashboardReportHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().GenerateDashboardReport(ctx, DashboardReport{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "1234.50", formatMoney(decimal.RequireFromString("1234.5")))
	assert.Equal(t, "0.00", formatMoney(decimal.Zero))
}
