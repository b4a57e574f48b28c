// Package closingperiod computes the production dashboard metrics over an
// already-fetched set of references. Everything here is a pure function of its
// inputs; nothing is cached between calls.
package closingperiod

import (
	"time"

	"github.com/shopspring/decimal"
)

// Customer is the part of a customer the engine needs. The closing days are
// kept as stored, so bad legacy values reach the resolver untouched.
type Customer struct {
	Name            string `json:"name"`
	ClosingStartDay string `json:"closing_start_day,omitempty"`
	ClosingEndDay   string `json:"closing_end_day,omitempty"`
}

type ServiceType struct {
	Name string `json:"name"`
}

// Reference is a production order snapshot.
type Reference struct {
	Status                  string          `json:"status"`
	Amount                  decimal.Decimal `json:"amount"`
	UnitValue               decimal.Decimal `json:"unit_value"`
	EstimatedCompletionDate time.Time       `json:"estimated_completion_date,omitempty"`
	CreatedAt               time.Time       `json:"created_at"`
	Customer                *Customer       `json:"customer,omitempty"`
	ServiceType             *ServiceType    `json:"service_type,omitempty"`
}

// CountSeries is a labelled histogram emitted as parallel arrays.
type CountSeries struct {
	Labels []string `json:"labels"`
	Data   []int    `json:"data"`
}

// ValueSeries is a labelled sum emitted as parallel arrays.
type ValueSeries struct {
	Labels []string          `json:"labels"`
	Data   []decimal.Decimal `json:"data"`
}

type Metrics struct {
	AsOf                         string          `json:"as_of"`
	ReferencesInProgress         int             `json:"references_in_progress"`
	ValueInProduction            decimal.Decimal `json:"value_in_production"`
	ReferencesOverdue            int             `json:"references_overdue"`
	ReferencesCompletedThisMonth int             `json:"references_completed_this_month"`
	ReferencesByStatus           CountSeries     `json:"references_by_status"`
	RevenueByCustomer            ValueSeries     `json:"revenue_by_customer"`
	ProductionByServiceType      ValueSeries     `json:"production_by_service_type"`
}

// Options names the statuses and fallback labels the engine works with.
type Options struct {
	InProgressStatus   string
	CompletedStatus    string
	NoCustomerLabel    string
	NoServiceTypeLabel string
	TopCustomers       int
}

func DefaultOptions() Options {
	return Options{
		InProgressStatus:   "in_progress",
		CompletedStatus:    "completed",
		NoCustomerLabel:    "No customer",
		NoServiceTypeLabel: "No service type",
		TopCustomers:       5,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.InProgressStatus == "" {
		o.InProgressStatus = def.InProgressStatus
	}
	if o.CompletedStatus == "" {
		o.CompletedStatus = def.CompletedStatus
	}
	if o.NoCustomerLabel == "" {
		o.NoCustomerLabel = def.NoCustomerLabel
	}
	if o.NoServiceTypeLabel == "" {
		o.NoServiceTypeLabel = def.NoServiceTypeLabel
	}
	if o.TopCustomers <= 0 {
		o.TopCustomers = def.TopCustomers
	}
	return o
}
