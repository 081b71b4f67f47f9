package report

import (
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/takmir/kas/internal/finance"
)

type dayTotals struct {
	income  decimal.Decimal
	expense decimal.Decimal
}

// DeriveChart synthesizes one point per calendar day that has transactions,
// in ascending day order, carrying a running balance that starts at opening.
// Transactions without a date are left out.
func DeriveChart(incomes, expenses []finance.Transaction, opening decimal.Decimal) []finance.ChartPoint {
	days := make(map[string]*dayTotals)

	bucket := func(tx finance.Transaction) *dayTotals {
		key := tx.Date.Format(time.DateOnly)

		t, ok := days[key]
		if !ok {
			t = &dayTotals{}
			days[key] = t
		}

		return t
	}

	for _, tx := range incomes {
		if tx.Date.IsZero() {
			continue
		}

		t := bucket(tx)
		t.income = t.income.Add(tx.Amount)
	}

	for _, tx := range expenses {
		if tx.Date.IsZero() {
			continue
		}

		t := bucket(tx)
		t.expense = t.expense.Add(tx.Amount)
	}

	keys := make([]string, 0, len(days))
	for k := range days {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	points := make([]finance.ChartPoint, 0, len(keys))
	balance := opening

	for _, k := range keys {
		t := days[k]
		net := t.income.Sub(t.expense)
		balance = balance.Add(net)

		day, _ := time.Parse(time.DateOnly, k)

		points = append(points, finance.ChartPoint{
			Date:      k,
			Year:      day.Year(),
			Label:     finance.ShortDate(day),
			Income:    t.income,
			Expense:   t.expense,
			Balance:   balance,
			NetChange: decimal.NewNullDecimal(net),
			Figures:   true,
		})
	}

	return points
}

// ChartConfig is a chart ready for rendering: one label per point and
// aligned series.
type ChartConfig struct {
	Labels  []string
	Income  []decimal.Decimal
	Expense []decimal.Decimal
	Balance []decimal.Decimal
}

func (c ChartConfig) Empty() bool {
	return len(c.Labels) == 0
}

// BuildChartConfig labels points by year for yearly reports and by day
// otherwise. Series whose first point carries neither a date/year nor any
// figure are rejected with an empty config.
func BuildChartConfig(r finance.Range, points []finance.ChartPoint) ChartConfig {
	if len(points) == 0 || !validPoint(points[0]) {
		return ChartConfig{}
	}

	cfg := ChartConfig{
		Labels:  make([]string, 0, len(points)),
		Income:  make([]decimal.Decimal, 0, len(points)),
		Expense: make([]decimal.Decimal, 0, len(points)),
		Balance: make([]decimal.Decimal, 0, len(points)),
	}

	for _, p := range points {
		cfg.Labels = append(cfg.Labels, pointLabel(r, p))
		cfg.Income = append(cfg.Income, p.Income)
		cfg.Expense = append(cfg.Expense, p.Expense)
		cfg.Balance = append(cfg.Balance, p.Balance)
	}

	return cfg
}

func validPoint(p finance.ChartPoint) bool {
	if p.Date != "" || p.Year != 0 {
		return true
	}

	return p.Figures
}

func pointLabel(r finance.Range, p finance.ChartPoint) string {
	day, err := finance.ParseDay(p.Date)

	if r == finance.RangeYearly {
		switch {
		case p.Year != 0:
			return strconv.Itoa(p.Year)
		case err == nil:
			return strconv.Itoa(day.Year())
		}

		return p.Label
	}

	if err == nil {
		return finance.ShortDate(day)
	}

	return p.Label
}
