package view

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/takmir/kas/internal/finance"
)

func day(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func TestShiftDate(t *testing.T) {
	tests := []struct {
		name string
		rng  finance.Range
		date time.Time
		n    int
		want time.Time
	}{
		{"WeekForward", finance.RangeWeekly, day(2025, 1, 10), 1, day(2025, 1, 17)},
		{"WeekBackAcrossYear", finance.RangeWeekly, day(2025, 1, 3), -1, day(2024, 12, 27)},
		{"MonthClampsDay", finance.RangeMonthly, day(2025, 1, 31), 1, day(2025, 2, 28)},
		{"MonthBack", finance.RangeMonthly, day(2025, 3, 15), -2, day(2025, 1, 15)},
		{"YearLeapDay", finance.RangeYearly, day(2024, 2, 29), 1, day(2025, 2, 28)},
		{"UnknownRange", finance.Range("daily"), day(2025, 1, 10), 1, day(2025, 1, 10)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShiftDate(tt.rng, tt.date, tt.n))
		})
	}
}

func TestPeriodTitle(t *testing.T) {
	assert.Equal(t, "Mingguan: 6 Jan - 12 Januari 2025",
		PeriodTitle(finance.Filter{Range: finance.RangeWeekly, Date: day(2025, 1, 10)}))
	assert.Equal(t, "Bulanan: Januari 2025",
		PeriodTitle(finance.Filter{Range: finance.RangeMonthly, Date: day(2025, 1, 10)}))
	assert.Equal(t, "Tahunan: 2024",
		PeriodTitle(finance.Filter{Range: finance.RangeYearly, Date: day(2024, 6, 1)}))
}

func TestBar(t *testing.T) {
	peak := decimal.NewFromInt(100)

	assert.Equal(t, "██████████", Bar(peak, peak, 10))
	assert.Equal(t, "█████", Bar(decimal.NewFromInt(50), peak, 10))
	assert.Equal(t, "█", Bar(decimal.NewFromInt(1), peak, 10), "non-zero values stay visible")
	assert.Empty(t, Bar(decimal.Zero, peak, 10))
	assert.Empty(t, Bar(decimal.NewFromInt(5), decimal.Zero, 10))
}
