package closingperiod

import (
	"time"

	"github.com/shopspring/decimal"
)

const asOfLayout = "2006-01-02"

// Engine holds only immutable options; a single Engine may serve concurrent
// Compute calls.
type Engine struct {
	opts Options
}

func NewEngine(opts Options) *Engine {
	return &Engine{opts: opts.withDefaults()}
}

func (e *Engine) Options() Options {
	return e.opts
}

// Compute reduces refs into dashboard metrics as of asOf. asOf's location
// decides what "today" and "this month" mean.
func (e *Engine) Compute(refs []Reference, asOf time.Time) Metrics {
	today := midnight(asOf, asOf.Location())

	metrics := Metrics{
		AsOf:              today.Format(asOfLayout),
		ValueInProduction: decimal.Zero,
	}

	statuses := newCounter()
	revenue := newSummer()
	production := newSummer()

	for _, ref := range refs {
		facts := e.Classify(ref, today)

		if facts.InProgress {
			metrics.ReferencesInProgress++
		}
		if facts.OverdueInProgress {
			metrics.ReferencesOverdue++
		}
		if facts.CompletedThisMonth {
			metrics.ReferencesCompletedThisMonth++
		}

		status := ref.Status
		if status == "" {
			status = e.opts.InProgressStatus
		}
		statuses.add(status)

		if !facts.InClosingWindow {
			continue
		}

		metrics.ValueInProduction = metrics.ValueInProduction.Add(facts.LineValue)
		revenue.add(e.customerLabel(ref), facts.LineValue)
		production.add(e.serviceTypeLabel(ref), ref.Amount)
	}

	metrics.ReferencesByStatus = statuses.series()
	metrics.RevenueByCustomer = revenue.top(e.opts.TopCustomers)
	metrics.ProductionByServiceType = production.series()

	return metrics
}

func (e *Engine) customerLabel(ref Reference) string {
	if ref.Customer == nil || ref.Customer.Name == "" {
		return e.opts.NoCustomerLabel
	}
	return ref.Customer.Name
}

func (e *Engine) serviceTypeLabel(ref Reference) string {
	if ref.ServiceType == nil || ref.ServiceType.Name == "" {
		return e.opts.NoServiceTypeLabel
	}
	return ref.ServiceType.Name
}
