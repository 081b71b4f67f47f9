package view

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/takmir/kas/internal/finance"
)

const actionTimeout = 30 * time.Second

// ActionCtx returns a context with a standard timeout for backend calls.
func ActionCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), actionTimeout)
}

// ShiftDate moves an anchor day n periods of r forward or back. Months are
// shifted from the first of the month so that 31 January never lands in
// March.
func ShiftDate(r finance.Range, date time.Time, n int) time.Time {
	switch r {
	case finance.RangeWeekly:
		return date.AddDate(0, 0, 7*n)
	case finance.RangeMonthly:
		first := time.Date(date.Year(), date.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, n, 0)
		last := first.AddDate(0, 1, -1).Day()

		return first.AddDate(0, 0, min(date.Day(), last)-1)
	case finance.RangeYearly:
		return ShiftDate(finance.RangeMonthly, date, 12*n)
	}

	return date
}

// PeriodTitle describes the active filter, e.g. "Bulanan: Januari 2025".
func PeriodTitle(f finance.Filter) string {
	start, end := f.Period()

	switch f.Range {
	case finance.RangeWeekly:
		return f.Range.Label() + ": " + finance.ShortDate(start) + " - " + finance.FormatDate(end)
	case finance.RangeMonthly:
		return f.Range.Label() + ": " + finance.MonthName(start.Month()) + " " + start.Format("2006")
	}

	return f.Range.Label() + ": " + start.Format("2006")
}

// Bar renders value as a horizontal bar scaled against peak.
func Bar(value, peak decimal.Decimal, width int) string {
	if width <= 0 || !peak.IsPositive() || !value.IsPositive() {
		return ""
	}

	n := int(value.Mul(decimal.NewFromInt(int64(width))).Div(peak).Round(0).IntPart())
	n = max(1, min(n, width))

	return strings.Repeat("█", n)
}
