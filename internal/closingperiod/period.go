package closingperiod

import (
	"strconv"
	"strings"
	"time"
)

const endOfDay = 23*time.Hour + 59*time.Minute + 59*time.Second + 999*time.Millisecond

// Window is a resolved billing cycle. Both bounds are inclusive.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t falls inside the window, bounds included.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// ResolveWindow parses the customer's closing days and resolves the cycle that
// today belongs to. ok is false when either day is missing or not an integer.
func ResolveWindow(startDay, endDay string, today time.Time) (Window, bool) {
	start, ok := parseDay(startDay)
	if !ok {
		return Window{}, false
	}
	end, ok := parseDay(endDay)
	if !ok {
		return Window{}, false
	}
	return ResolveWindowDays(start, end, today), true
}

// ResolveWindowDays returns the cycle opening on startDay and closing on endDay
// of the following month. Before startDay, today still belongs to the cycle
// that opened last month. Month and day overflow follow time.Date
// normalization, so day 31 in a 30-day month rolls into the next month.
func ResolveWindowDays(startDay, endDay int, today time.Time) Window {
	year, month, day := today.Date()
	loc := today.Location()

	startMonth, endMonth := month, month+1
	if day < startDay {
		startMonth, endMonth = month-1, month
	}

	return Window{
		Start: time.Date(year, startMonth, startDay, 0, 0, 0, 0, loc),
		End:   time.Date(year, endMonth, endDay, 0, 0, 0, 0, loc).Add(endOfDay),
	}
}

func parseDay(raw string) (int, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	day, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return day, true
}

// midnight truncates t to the start of its calendar day in loc.
func midnight(t time.Time, loc *time.Location) time.Time {
	year, month, day := t.In(loc).Date()
	return time.Date(year, month, day, 0, 0, 0, 0, loc)
}
