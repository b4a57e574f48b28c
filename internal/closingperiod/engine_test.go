package closingperiod

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func customer(name string) *Customer {
	return &Customer{Name: name, ClosingStartDay: "10", ClosingEndDay: "10"}
}

func completedRef(c *Customer, amount, unit string, created time.Time) Reference {
	return Reference{
		Status:    "completed",
		Amount:    dec(amount),
		UnitValue: dec(unit),
		CreatedAt: created,
		Customer:  c,
	}
}

func TestComputeSingleCompletedReferenceInWindow(t *testing.T) {
	e := NewEngine(DefaultOptions())
	refs := []Reference{
		completedRef(customer("Acme"), "3", "100", day(2024, time.December, 10)),
	}

	m := e.Compute(refs, day(2024, time.December, 15))

	assert.True(t, m.ValueInProduction.Equal(dec("300")), "got %s", m.ValueInProduction)
	require.Equal(t, []string{"Acme"}, m.RevenueByCustomer.Labels)
	require.Len(t, m.RevenueByCustomer.Data, 1)
	assert.True(t, m.RevenueByCustomer.Data[0].Equal(dec("300")))
	assert.Equal(t, 1, m.ReferencesCompletedThisMonth)
	assert.Equal(t, "2024-12-15", m.AsOf)
}

func TestComputeNullCustomerExcludedFromWindowButCounted(t *testing.T) {
	e := NewEngine(DefaultOptions())
	refs := []Reference{
		{Status: "completed", Amount: dec("2"), UnitValue: dec("50"), CreatedAt: day(2024, time.December, 12)},
	}

	m := e.Compute(refs, day(2024, time.December, 15))

	assert.True(t, m.ValueInProduction.IsZero())
	assert.Empty(t, m.RevenueByCustomer.Labels)
	assert.Equal(t, []string{"completed"}, m.ReferencesByStatus.Labels)
	assert.Equal(t, []int{1}, m.ReferencesByStatus.Data)
}

func TestComputeEmptyStatusBucketedAsInProgress(t *testing.T) {
	e := NewEngine(DefaultOptions())
	refs := []Reference{
		{Status: "", CreatedAt: day(2024, time.December, 1)},
		{Status: "in_progress", CreatedAt: day(2024, time.December, 1)},
	}

	m := e.Compute(refs, day(2024, time.December, 15))

	assert.Equal(t, []string{"in_progress"}, m.ReferencesByStatus.Labels)
	assert.Equal(t, []int{2}, m.ReferencesByStatus.Data)
	assert.Equal(t, 1, m.ReferencesInProgress)
}

func TestComputeInProgressCountIgnoresWindowData(t *testing.T) {
	e := NewEngine(DefaultOptions())
	refs := []Reference{
		{Status: "in_progress", Customer: &Customer{Name: "A", ClosingStartDay: "x", ClosingEndDay: "y"}},
		{Status: "in_progress", Customer: nil},
		{Status: "in_progress", Customer: customer("B"), CreatedAt: day(2020, time.January, 1)},
		{Status: "paused"},
		{Status: "completed"},
	}

	m := e.Compute(refs, day(2024, time.December, 15))

	assert.Equal(t, 3, m.ReferencesInProgress)
	assert.True(t, m.ValueInProduction.IsZero())
}

func TestComputeOverdue(t *testing.T) {
	e := NewEngine(DefaultOptions())
	today := day(2024, time.December, 15)
	refs := []Reference{
		{Status: "in_progress", EstimatedCompletionDate: day(2024, time.December, 14)},
		{Status: "in_progress", EstimatedCompletionDate: day(2024, time.December, 15)},
		{Status: "in_progress", EstimatedCompletionDate: day(2024, time.December, 16)},
		{Status: "in_progress"},
		{Status: "completed", EstimatedCompletionDate: day(2024, time.December, 1)},
	}

	m := e.Compute(refs, today.Add(17*time.Hour))

	assert.Equal(t, 1, m.ReferencesOverdue)
	assert.Equal(t, 4, m.ReferencesInProgress)
}

func TestComputeCompletedThisMonthUsesCreatedAt(t *testing.T) {
	e := NewEngine(DefaultOptions())
	refs := []Reference{
		{Status: "completed", CreatedAt: day(2024, time.December, 1)},
		{Status: "completed", CreatedAt: day(2024, time.November, 30)},
		{Status: "completed", CreatedAt: day(2023, time.December, 10)},
		{Status: "in_progress", CreatedAt: day(2024, time.December, 2)},
	}

	m := e.Compute(refs, day(2024, time.December, 15))

	assert.Equal(t, 1, m.ReferencesCompletedThisMonth)
}

func TestComputeWindowExcludesOtherStatuses(t *testing.T) {
	e := NewEngine(DefaultOptions())
	refs := []Reference{
		{Status: "cancelled", Amount: dec("1"), UnitValue: dec("10"), CreatedAt: day(2024, time.December, 12), Customer: customer("A")},
		{Status: "in_progress", Amount: dec("2"), UnitValue: dec("10"), CreatedAt: day(2024, time.December, 12), Customer: customer("A")},
	}

	m := e.Compute(refs, day(2024, time.December, 15))

	assert.True(t, m.ValueInProduction.Equal(dec("20")))
}

func TestComputeRevenueTopFiveSortedDescending(t *testing.T) {
	e := NewEngine(DefaultOptions())
	created := day(2024, time.December, 11)
	var refs []Reference
	for i, unit := range []string{"10", "70", "30", "50", "20", "60", "40"} {
		refs = append(refs, completedRef(customer(fmt.Sprintf("c%d", i)), "1", unit, created))
	}

	m := e.Compute(refs, day(2024, time.December, 15))

	require.Len(t, m.RevenueByCustomer.Labels, 5)
	assert.Equal(t, []string{"c1", "c5", "c3", "c6", "c2"}, m.RevenueByCustomer.Labels)
	for i := 1; i < len(m.RevenueByCustomer.Data); i++ {
		assert.True(t, m.RevenueByCustomer.Data[i-1].GreaterThanOrEqual(m.RevenueByCustomer.Data[i]))
	}
}

func TestComputeRevenueTiesKeepFirstSeenOrder(t *testing.T) {
	e := NewEngine(DefaultOptions())
	created := day(2024, time.December, 11)
	refs := []Reference{
		completedRef(customer("b"), "1", "10", created),
		completedRef(customer("a"), "1", "10", created),
		completedRef(customer("c"), "1", "20", created),
	}

	m := e.Compute(refs, day(2024, time.December, 15))

	assert.Equal(t, []string{"c", "b", "a"}, m.RevenueByCustomer.Labels)
}

func TestComputeRevenueAggregatesSameCustomer(t *testing.T) {
	e := NewEngine(DefaultOptions())
	created := day(2024, time.December, 11)
	refs := []Reference{
		completedRef(customer("a"), "2", "10.50", created),
		completedRef(customer("a"), "1", "0.25", created),
		completedRef(&Customer{ClosingStartDay: "10", ClosingEndDay: "10"}, "1", "5", created),
	}

	m := e.Compute(refs, day(2024, time.December, 15))

	require.Equal(t, []string{"a", "No customer"}, m.RevenueByCustomer.Labels)
	assert.True(t, m.RevenueByCustomer.Data[0].Equal(dec("21.25")))
	assert.True(t, m.ValueInProduction.Equal(dec("26.25")))
}

func TestComputeProductionByServiceType(t *testing.T) {
	e := NewEngine(DefaultOptions())
	created := day(2024, time.December, 11)
	shirt := &ServiceType{Name: "shirt"}
	refs := []Reference{
		{Status: "in_progress", Amount: dec("4"), UnitValue: dec("1"), CreatedAt: created, Customer: customer("a"), ServiceType: shirt},
		{Status: "completed", Amount: dec("3"), UnitValue: dec("1"), CreatedAt: created, Customer: customer("a")},
		{Status: "completed", Amount: dec("6"), UnitValue: dec("1"), CreatedAt: created, Customer: customer("b"), ServiceType: shirt},
		{Status: "completed", Amount: dec("9"), UnitValue: dec("1"), CreatedAt: day(2024, time.October, 1), Customer: customer("b"), ServiceType: shirt},
	}

	m := e.Compute(refs, day(2024, time.December, 15))

	require.Equal(t, []string{"shirt", "No service type"}, m.ProductionByServiceType.Labels)
	assert.True(t, m.ProductionByServiceType.Data[0].Equal(dec("10")))
	assert.True(t, m.ProductionByServiceType.Data[1].Equal(dec("3")))
}

func TestComputeLegacyLabels(t *testing.T) {
	e := NewEngine(Options{
		InProgressStatus:   "Em Andamento",
		CompletedStatus:    "Concluída",
		NoCustomerLabel:    "Sem Cliente",
		NoServiceTypeLabel: "Sem Tipo",
	})
	refs := []Reference{
		{Status: "Concluída", Amount: dec("1"), UnitValue: dec("10"), CreatedAt: day(2024, time.December, 11), Customer: &Customer{ClosingStartDay: "10", ClosingEndDay: "10"}},
		{Status: ""},
	}

	m := e.Compute(refs, day(2024, time.December, 15))

	assert.Equal(t, []string{"Concluída", "Em Andamento"}, m.ReferencesByStatus.Labels)
	assert.Equal(t, []string{"Sem Cliente"}, m.RevenueByCustomer.Labels)
	assert.Equal(t, []string{"Sem Tipo"}, m.ProductionByServiceType.Labels)
	assert.Equal(t, 5, e.Options().TopCustomers)
}

func TestComputeUsesAsOfLocation(t *testing.T) {
	loc := time.FixedZone("BRT", -3*60*60)
	e := NewEngine(DefaultOptions())
	// 2024-12-10 01:00 UTC is still the 9th in BRT, one day before the window opens.
	refs := []Reference{
		completedRef(customer("a"), "1", "10", time.Date(2024, time.December, 10, 1, 0, 0, 0, time.UTC)),
	}

	m := e.Compute(refs, time.Date(2024, time.December, 15, 12, 0, 0, 0, loc))

	assert.True(t, m.ValueInProduction.IsZero())
}

func TestComputeEmptyInput(t *testing.T) {
	m := NewEngine(DefaultOptions()).Compute(nil, day(2024, time.December, 15))

	assert.Zero(t, m.ReferencesInProgress)
	assert.True(t, m.ValueInProduction.IsZero())
	assert.NotNil(t, m.ReferencesByStatus.Labels)
	assert.NotNil(t, m.RevenueByCustomer.Labels)
}
