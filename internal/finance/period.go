package finance

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Range is the report period granularity.
type Range string

const (
	RangeWeekly  Range = "weekly"
	RangeMonthly Range = "monthly"
	RangeYearly  Range = "yearly"
)

var ErrInvalidRange = errors.New("range must be weekly, monthly or yearly")

// Ranges lists every range in display order.
var Ranges = []Range{RangeWeekly, RangeMonthly, RangeYearly}

func ParseRange(s string) (Range, error) {
	r := Range(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidRange, s)
	}

	return r, nil
}

func (r Range) Valid() bool {
	switch r {
	case RangeWeekly, RangeMonthly, RangeYearly:
		return true
	}

	return false
}

// Label returns the Indonesian adjective for the range ("Mingguan", ...).
func (r Range) Label() string {
	switch r {
	case RangeWeekly:
		return "Mingguan"
	case RangeMonthly:
		return "Bulanan"
	case RangeYearly:
		return "Tahunan"
	}

	return string(r)
}

// Filter selects the displayed period. For yearly reports only the year of
// Date matters; weekly and monthly reports are anchored on the exact day.
type Filter struct {
	Range Range
	Date  time.Time
}

// DefaultFilter is the monthly report of the given day.
func DefaultFilter(now time.Time) Filter {
	return Filter{Range: RangeMonthly, Date: Day(now)}
}

// YearBounds returns the first and last calendar day of the filter's year.
func (f Filter) YearBounds() (time.Time, time.Time) {
	return YearBounds(f.Date)
}

// Period returns the inclusive first and last day covered by the filter.
// Weeks start on Monday.
func (f Filter) Period() (time.Time, time.Time) {
	d := Day(f.Date)

	switch f.Range {
	case RangeWeekly:
		weekday := int(d.Weekday())
		if weekday == 0 {
			weekday = 7
		}

		start := d.AddDate(0, 0, -(weekday - 1))

		return start, start.AddDate(0, 0, 6)
	case RangeYearly:
		return YearBounds(d)
	default:
		start := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(0, 1, -1)
	}
}

func YearBounds(t time.Time) (time.Time, time.Time) {
	return time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, time.UTC),
		time.Date(t.Year(), time.December, 31, 0, 0, 0, 0, time.UTC)
}

// Day truncates t to its calendar day in UTC, keeping the wall-clock date.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DayKey truncates an ISO date or timestamp string to its YYYY-MM-DD prefix
// without any timezone conversion.
func DayKey(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= len(time.DateOnly) {
		return s[:len(time.DateOnly)]
	}

	return s
}

// ParseDay parses the day part of an ISO date or timestamp string.
func ParseDay(s string) (time.Time, error) {
	return time.Parse(time.DateOnly, DayKey(s))
}
