package finance_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/takmir/kas/internal/finance"
)

func day(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func TestParseRange(t *testing.T) {
	r, err := finance.ParseRange(" Yearly ")
	require.NoError(t, err)
	assert.Equal(t, finance.RangeYearly, r)

	_, err = finance.ParseRange("daily")
	assert.ErrorIs(t, err, finance.ErrInvalidRange)
}

func TestFilter_Period(t *testing.T) {
	tests := []struct {
		name      string
		filter    finance.Filter
		wantStart time.Time
		wantEnd   time.Time
	}{
		{
			name:      "WeeklyFromFriday",
			filter:    finance.Filter{Range: finance.RangeWeekly, Date: day(2025, 1, 10)},
			wantStart: day(2025, 1, 6),
			wantEnd:   day(2025, 1, 12),
		},
		{
			name:      "WeeklyFromSunday",
			filter:    finance.Filter{Range: finance.RangeWeekly, Date: day(2025, 1, 12)},
			wantStart: day(2025, 1, 6),
			wantEnd:   day(2025, 1, 12),
		},
		{
			name:      "MonthlyLeapFebruary",
			filter:    finance.Filter{Range: finance.RangeMonthly, Date: day(2024, 2, 15)},
			wantStart: day(2024, 2, 1),
			wantEnd:   day(2024, 2, 29),
		},
		{
			name:      "Yearly",
			filter:    finance.Filter{Range: finance.RangeYearly, Date: day(2024, 6, 15)},
			wantStart: day(2024, 1, 1),
			wantEnd:   day(2024, 12, 31),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := tt.filter.Period()
			assert.Equal(t, tt.wantStart, start)
			assert.Equal(t, tt.wantEnd, end)
		})
	}
}

func TestDayKey(t *testing.T) {
	assert.Equal(t, "2025-01-10", finance.DayKey("2025-01-10T23:30:00.000Z"))
	assert.Equal(t, "2025-01-10", finance.DayKey("2025-01-10"))
	assert.Equal(t, "", finance.DayKey(""))
}

func TestFormatRupiah(t *testing.T) {
	assert.Equal(t, "Rp 1.250.000", finance.FormatRupiah(decimal.NewFromInt(1250000)))
	assert.Equal(t, "Rp 0", finance.FormatRupiah(decimal.Zero))
	assert.Equal(t, "-Rp 50.000", finance.FormatRupiah(decimal.NewFromInt(-50000)))
	assert.Equal(t, "Rp 1.500,50", finance.FormatRupiah(decimal.RequireFromString("1500.5")))
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "10 Januari 2025", finance.FormatDate(day(2025, 1, 10)))
	assert.Equal(t, "17 Agu", finance.ShortDate(day(2025, 8, 17)))
}

func TestTransactionInput_Validate(t *testing.T) {
	valid := finance.TransactionInput{Name: "Infaq Jumat", Amount: decimal.NewFromInt(50000), Date: day(2025, 1, 10)}
	assert.NoError(t, valid.Validate())

	noName := valid
	noName.Name = "  "
	assert.ErrorIs(t, noName.Validate(), finance.ErrInvalidInput)

	negative := valid
	negative.Amount = decimal.NewFromInt(-1)
	assert.ErrorIs(t, negative.Validate(), finance.ErrInvalidInput)

	noDate := valid
	noDate.Date = time.Time{}
	assert.ErrorIs(t, noDate.Validate(), finance.ErrInvalidInput)
}

func TestTransactionInput_MarshalJSON(t *testing.T) {
	in := finance.TransactionInput{
		Name:   " Listrik ",
		Amount: decimal.NewFromInt(350000),
		Date:   day(2025, 1, 10),
		Method: finance.MethodTransfer,
	}

	b, err := json.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Listrik","amount":350000,"date":"2025-01-10","method":"transfer"}`, string(b))
}

func TestEmptyReport(t *testing.T) {
	r := finance.EmptyReport()
	assert.True(t, r.IsEmpty())
	assert.NotNil(t, r.Incomes)
	assert.NotNil(t, r.Expenses)
	assert.NotNil(t, r.ChartData)
}
