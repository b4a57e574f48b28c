package pdf

import (
	"context"
	"io"
	"time"

	"github.com/smallbiznis/atelier/internal/closingperiod"
	"go.uber.org/fx"
)

var Module = fx.Module("pdf",
	fx.Provide(New),
)

// DashboardReport is the data printed on the production dashboard report.
type DashboardReport struct {
	OrgName     string
	GeneratedAt time.Time
	Metrics     closingperiod.Metrics
}

type Provider interface {
	GenerateDashboardReport(ctx context.Context, data DashboardReport) (io.Reader, error)
}

type NoOpProvider struct{}

func (p *NoOpProvider) GenerateDashboardReport(ctx context.Context, data DashboardReport) (io.Reader, error) {
	return nil, nil
}
