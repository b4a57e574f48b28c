package pdf

import (
	"bytes"
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/atelier/internal/closingperiod"
)

type PDFProvider struct{}

func New() Provider {
	return &PDFProvider{}
}

func (p *PDFProvider) GenerateDashboardReport(ctx context.Context, data DashboardReport) (io.Reader, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)
	metrics := data.Metrics

	orgName := strings.TrimSpace(data.OrgName)
	if orgName == "" {
		orgName = "Production dashboard"
	}
	m.AddRow(20,
		text.NewCol(8, orgName, props.Text{
			Size:  18,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
		col.New(4).Add(
			text.New("As of "+metrics.AsOf, props.Text{Align: align.Right, Size: 9}),
			text.New("Generated "+data.GeneratedAt.Format("2006-01-02 15:04"), props.Text{Align: align.Right, Size: 9, Top: 5}),
		),
	)

	m.AddRow(10, text.NewCol(12, "Summary", props.Text{Style: fontstyle.Bold, Size: 12, Top: 2}))
	addKeyValue(m, "References in progress", strconv.Itoa(metrics.ReferencesInProgress))
	addKeyValue(m, "Value in production", formatMoney(metrics.ValueInProduction))
	addKeyValue(m, "Overdue references", strconv.Itoa(metrics.ReferencesOverdue))
	addKeyValue(m, "Completed this month", strconv.Itoa(metrics.ReferencesCompletedThisMonth))

	addCountTable(m, "References by status", "Status", metrics.ReferencesByStatus)
	addValueTable(m, "Revenue by customer", "Customer", metrics.RevenueByCustomer)
	addValueTable(m, "Production by service type", "Service type", metrics.ProductionByServiceType)

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}

	return bytes.NewReader(doc.GetBytes()), nil
}

func addKeyValue(m core.Maroto, label, value string) {
	m.AddRow(7,
		text.NewCol(8, label, props.Text{Size: 10}),
		text.NewCol(4, value, props.Text{Size: 10, Align: align.Right}),
	)
}

func addSectionHeader(m core.Maroto, title, labelHeader, valueHeader string) {
	m.AddRow(12, text.NewCol(12, title, props.Text{Style: fontstyle.Bold, Size: 12, Top: 4}))
	m.AddRow(7,
		text.NewCol(8, labelHeader, props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(4, valueHeader, props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)
}

func addCountTable(m core.Maroto, title, labelHeader string, series closingperiod.CountSeries) {
	addSectionHeader(m, title, labelHeader, "References")
	if len(series.Labels) == 0 {
		m.AddRow(7, text.NewCol(12, "No data", props.Text{Size: 9}))
		return
	}
	for i, label := range series.Labels {
		m.AddRow(6,
			text.NewCol(8, label, props.Text{Size: 9}),
			text.NewCol(4, strconv.Itoa(series.Data[i]), props.Text{Size: 9, Align: align.Right}),
		)
	}
}

func addValueTable(m core.Maroto, title, labelHeader string, series closingperiod.ValueSeries) {
	addSectionHeader(m, title, labelHeader, "Value")
	if len(series.Labels) == 0 {
		m.AddRow(7, text.NewCol(12, "No data", props.Text{Size: 9}))
		return
	}
	for i, label := range series.Labels {
		m.AddRow(6,
			text.NewCol(8, label, props.Text{Size: 9}),
			text.NewCol(4, formatMoney(series.Data[i]), props.Text{Size: 9, Align: align.Right}),
		)
	}
}

func formatMoney(value decimal.Decimal) string {
	return value.StringFixed(2)
}
