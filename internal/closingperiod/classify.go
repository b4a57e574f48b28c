package closingperiod

import (
	"time"

	"github.com/shopspring/decimal"
)

// Facts are the per-reference classifications the aggregator reduces.
type Facts struct {
	InProgress         bool
	OverdueInProgress  bool
	CompletedThisMonth bool
	InClosingWindow    bool
	LineValue          decimal.Decimal
}

// Classify derives the facts of a single reference. today is truncated to
// midnight in its own location; all timestamps are compared in that location.
func (e *Engine) Classify(ref Reference, today time.Time) Facts {
	loc := today.Location()
	today = midnight(today, loc)

	facts := Facts{
		InProgress: ref.Status == e.opts.InProgressStatus,
		LineValue:  ref.Amount.Mul(ref.UnitValue),
	}

	if facts.InProgress && !ref.EstimatedCompletionDate.IsZero() {
		facts.OverdueInProgress = calendarDate(ref.EstimatedCompletionDate, loc).Before(today)
	}

	if ref.Status == e.opts.CompletedStatus && !ref.CreatedAt.IsZero() {
		createdYear, createdMonth, _ := ref.CreatedAt.In(loc).Date()
		facts.CompletedThisMonth = createdYear == today.Year() && createdMonth == today.Month()
	}

	facts.InClosingWindow = e.inClosingWindow(ref, today)

	return facts
}

func (e *Engine) inClosingWindow(ref Reference, today time.Time) bool {
	if ref.Status != e.opts.InProgressStatus && ref.Status != e.opts.CompletedStatus {
		return false
	}
	if ref.Customer == nil || ref.CreatedAt.IsZero() {
		return false
	}
	window, ok := ResolveWindow(ref.Customer.ClosingStartDay, ref.Customer.ClosingEndDay, today)
	if !ok {
		return false
	}
	return window.Contains(midnight(ref.CreatedAt, today.Location()))
}

// calendarDate reads the year/month/day of a date-only value as stored and
// places it in loc. Date columns carry no zone, so converting them first
// would shift the day for zones west of UTC.
func calendarDate(t time.Time, loc *time.Location) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, loc)
}
