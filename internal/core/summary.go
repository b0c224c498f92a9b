package core

import (
	"fmt"
	"time"
)

// MonthSummary is the aggregate view over one calendar month. It is computed
// on demand, never stored.
type MonthSummary struct {
	Year    int
	Month   int // 1-12
	Income  float64
	Expense float64
	Balance float64
}

// MonthRange returns the half-open interval [first of month, first of next
// month) in wire date form. December rolls into January of the next year.
// Zero year or month default to the current calendar year/month.
func MonthRange(year, month int) (from, to string) {
	year, month = ResolveMonth(year, month)

	from = fmt.Sprintf("%04d-%02d-01", year, month)
	if month == 12 {
		to = fmt.Sprintf("%04d-01-01", year+1)
	} else {
		to = fmt.Sprintf("%04d-%02d-01", year, month+1)
	}
	return from, to
}

// ResolveMonth applies the same current-date defaulting as MonthRange and
// returns the concrete year and month a summary covers.
func ResolveMonth(year, month int) (int, int) {
	now := time.Now()
	if year == 0 {
		year = now.Year()
	}
	if month == 0 {
		month = int(now.Month())
	}
	return year, month
}
