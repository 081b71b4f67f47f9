package fakeapi

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/takmir/kas/internal/finance"
)

// Shape selects how report bodies are laid out. Both layouts exist in the
// wild and the client must accept either.
type Shape string

const (
	// ShapeNested: transactions.{incomes,expenses}, balance.{opening,closing},
	// numeric amounts, "id" keys.
	ShapeNested Shape = "nested"
	// ShapeFlat: top-level incomes/expenses, saldoAwal/saldoAkhir, string
	// amounts, "_id" keys.
	ShapeFlat Shape = "flat"
)

func ParseShape(s string) (Shape, error) {
	switch Shape(strings.ToLower(s)) {
	case ShapeNested, "":
		return ShapeNested, nil
	case ShapeFlat:
		return ShapeFlat, nil
	}

	return "", fmt.Errorf("unknown report shape %q", s)
}

// PeriodReport is the ledger content of one report period.
type PeriodReport struct {
	Filter       finance.Filter
	Start, End   time.Time
	Opening      decimal.Decimal
	Closing      decimal.Decimal
	TotalIncome  decimal.Decimal
	TotalExpense decimal.Decimal
	Incomes      []finance.Transaction
	Expenses     []finance.Transaction
}

func (p PeriodReport) Empty() bool {
	return len(p.Incomes) == 0 && len(p.Expenses) == 0
}

func (l *Ledger) Report(f finance.Filter) PeriodReport {
	start, end := f.Period()
	opening, incomes, expenses := l.Period(start, end)

	p := PeriodReport{
		Filter:       f,
		Start:        start,
		End:          end,
		Opening:      opening,
		TotalIncome:  finance.SumAmounts(incomes),
		TotalExpense: finance.SumAmounts(expenses),
		Incomes:      incomes,
		Expenses:     expenses,
	}

	p.Closing = p.Opening.Add(p.TotalIncome).Sub(p.TotalExpense)

	return p
}

type transactionJSON struct {
	ID       string `json:"id,omitempty"`
	LegacyID string `json:"_id,omitempty"`
	Name     string `json:"name"`
	Amount   any    `json:"amount"`
	Date     string `json:"date"`
	Note     string `json:"note,omitempty"`
	Method   string `json:"method,omitempty"`
	Type     string `json:"type"`
}

type chartPointJSON struct {
	Date      string      `json:"date"`
	Year      int         `json:"year"`
	Label     string      `json:"label"`
	Income    json.Number `json:"income"`
	Expense   json.Number `json:"expense"`
	Balance   json.Number `json:"balance"`
	NetChange json.Number `json:"netChange"`
}

func number(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}

func encodeTransaction(tx finance.Transaction, shape Shape) transactionJSON {
	out := transactionJSON{
		Name:   tx.Name,
		Date:   tx.Date.Format(time.DateOnly),
		Note:   tx.Note,
		Method: string(tx.Method),
		Type:   string(tx.Kind),
	}

	if shape == ShapeFlat {
		out.LegacyID = tx.ID
		out.Amount = tx.Amount.String()

		return out
	}

	out.ID = tx.ID
	out.Amount = number(tx.Amount)

	return out
}

func encodeTransactions(txs []finance.Transaction, shape Shape) []transactionJSON {
	out := make([]transactionJSON, 0, len(txs))
	for _, tx := range txs {
		out = append(out, encodeTransaction(tx, shape))
	}

	return out
}

// body renders the "data" member of the report response. Yearly reports
// carry a monthly chart series; other ranges leave the chart to the client.
func (p PeriodReport) body(shape Shape) map[string]any {
	incomes := encodeTransactions(p.Incomes, shape)
	expenses := encodeTransactions(p.Expenses, shape)

	period := map[string]any{
		"range": p.Filter.Range,
		"start": p.Start.Format(time.DateOnly),
		"end":   p.End.Format(time.DateOnly),
	}

	var chart []chartPointJSON
	if p.Filter.Range == finance.RangeYearly {
		chart = p.monthlyChart()
	}

	if shape == ShapeFlat {
		data := map[string]any{
			"incomes":      incomes,
			"expenses":     expenses,
			"saldoAwal":    p.Opening.String(),
			"saldoAkhir":   p.Closing.String(),
			"totalIncome":  p.TotalIncome.String(),
			"totalExpense": p.TotalExpense.String(),
			"period":       period,
		}

		if chart != nil {
			data["chart"] = chart
		}

		return data
	}

	data := map[string]any{
		"transactions": map[string]any{
			"incomes":  incomes,
			"expenses": expenses,
		},
		"balance": map[string]any{
			"opening": number(p.Opening),
			"closing": number(p.Closing),
		},
		"summary": map[string]any{
			"totalIncome":  number(p.TotalIncome),
			"totalExpense": number(p.TotalExpense),
		},
		"period": period,
	}

	if chart != nil {
		data["chartData"] = chart
	}

	return data
}

func (p PeriodReport) monthlyChart() []chartPointJSON {
	var income, expense [12]decimal.Decimal

	for _, tx := range p.Incomes {
		m := tx.Date.Month() - 1
		income[m] = income[m].Add(tx.Amount)
	}

	for _, tx := range p.Expenses {
		m := tx.Date.Month() - 1
		expense[m] = expense[m].Add(tx.Amount)
	}

	year := p.Start.Year()
	balance := p.Opening
	points := make([]chartPointJSON, 0, 12)

	for m := range 12 {
		net := income[m].Sub(expense[m])
		balance = balance.Add(net)
		month := time.Month(m + 1)

		points = append(points, chartPointJSON{
			Date:      time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).Format(time.DateOnly),
			Year:      year,
			Label:     finance.MonthName(month),
			Income:    number(income[m]),
			Expense:   number(expense[m]),
			Balance:   number(balance),
			NetChange: number(net),
		})
	}

	return points
}
