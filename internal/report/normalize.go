// Package report turns the backend's loosely shaped report payloads into
// finance.Report values and derives the balance chart.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/takmir/kas/internal/finance"
	"github.com/takmir/kas/internal/payload"
)

var ErrMalformedResponse = errors.New("malformed report response")

// Field resolution tables. The first path that resolves wins.
var (
	incomePaths  = []string{"transactions.incomes", "incomes"}
	expensePaths = []string{"transactions.expenses", "expenses"}
	openingPaths = []string{"balance.opening", "balance.balanceStart", "saldoAwal"}
	closingPaths = []string{"balance.closing", "balance.balanceEnd", "saldoAkhir"}
	chartPaths   = []string{"chartData", "chart"}

	declaredIncomePaths  = []string{"totalIncome", "summary.totalIncome"}
	declaredExpensePaths = []string{"totalExpense", "summary.totalExpense"}

	txIDPaths     = []string{"id", "_id"}
	txNamePaths   = []string{"name", "title", "description"}
	txAmountPaths = []string{"amount", "nominal"}
	txDatePaths   = []string{"date", "tanggal", "createdAt"}
	txNotePaths   = []string{"note", "notes", "keterangan"}
	txMethodPaths = []string{"method", "paymentMethod"}
)

// Normalize decodes a report endpoint response. The body must be an object
// with a non-null "data" object; anything else is ErrMalformedResponse.
//
// Totals are always recomputed from the transaction lists. Server-declared
// totals only feed the closing balance when there are no transactions.
func Normalize(body []byte) (finance.Report, error) {
	root, err := payload.Parse(body)
	if err != nil {
		return finance.EmptyReport(), fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	raw, ok := root.Lookup("data")
	if !ok {
		return finance.EmptyReport(), fmt.Errorf("%w: missing data", ErrMalformedResponse)
	}

	data, ok := payload.AsObject(raw)
	if !ok {
		return finance.EmptyReport(), fmt.Errorf("%w: data is not an object", ErrMalformedResponse)
	}

	r := finance.Report{
		Incomes:  decodeTransactions(data, finance.KindIncome, incomePaths),
		Expenses: decodeTransactions(data, finance.KindExpense, expensePaths),
	}

	r.TotalIncome = finance.SumAmounts(r.Incomes)
	r.TotalExpense = finance.SumAmounts(r.Expenses)
	r.SaldoAwal, _ = data.Decimal(openingPaths...)

	income, expense := r.TotalIncome, r.TotalExpense
	if len(r.Incomes) == 0 && len(r.Expenses) == 0 {
		income, _ = data.Decimal(declaredIncomePaths...)
		expense, _ = data.Decimal(declaredExpensePaths...)
	}

	closing, ok := data.Decimal(closingPaths...)
	if !ok || closing.IsZero() || closing.Equal(r.SaldoAwal) {
		closing = r.SaldoAwal.Add(income).Sub(expense)
	}

	r.SaldoAkhir = closing

	switch items, _ := data.Array(chartPaths...); {
	case len(items) > 0:
		r.ChartData = decodeChart(items)
	case len(r.Incomes)+len(r.Expenses) > 0:
		r.ChartData = DeriveChart(r.Incomes, r.Expenses, r.SaldoAwal)
	default:
		r.ChartData = []finance.ChartPoint{}
	}

	return r, nil
}

func decodeTransactions(data payload.Object, kind finance.Kind, paths []string) []finance.Transaction {
	items, _ := data.Array(paths...)
	out := make([]finance.Transaction, 0, len(items))

	for _, item := range items {
		if tx, ok := DecodeTransaction(item, kind); ok {
			out = append(out, tx)
		}
	}

	return out
}

// DecodeTransaction reads one transaction object. Non-objects are rejected.
func DecodeTransaction(raw json.RawMessage, kind finance.Kind) (finance.Transaction, bool) {
	o, ok := payload.AsObject(raw)
	if !ok {
		return finance.Transaction{}, false
	}

	tx := finance.Transaction{Kind: kind}
	tx.ID, _ = o.String(txIDPaths...)
	tx.Name, _ = o.String(txNamePaths...)
	tx.Amount, _ = o.Decimal(txAmountPaths...)
	tx.Note, _ = o.String(txNotePaths...)

	if method, ok := o.String(txMethodPaths...); ok {
		tx.Method = finance.Method(method)
	}

	if date, ok := o.String(txDatePaths...); ok {
		if d, err := finance.ParseDay(date); err == nil {
			tx.Date = d
		}
	}

	return tx, true
}

func decodeChart(items []json.RawMessage) []finance.ChartPoint {
	out := make([]finance.ChartPoint, 0, len(items))

	for _, item := range items {
		var p finance.ChartPoint

		if o, ok := payload.AsObject(item); ok {
			if date, ok := o.String("date"); ok {
				p.Date = finance.DayKey(date)
			}

			if year, ok := o.String("year"); ok {
				p.Year, _ = strconv.Atoi(year)
			}

			var hasIncome, hasExpense, hasBalance bool

			p.Label, _ = o.String("label", "name")
			p.Income, hasIncome = o.Decimal("income", "pemasukan")
			p.Expense, hasExpense = o.Decimal("expense", "pengeluaran")
			p.Balance, hasBalance = o.Decimal("balance", "saldo")
			p.Figures = hasIncome || hasExpense || hasBalance

			if net, ok := o.Decimal("netChange"); ok {
				p.NetChange = decimal.NewNullDecimal(net)
			}
		}

		out = append(out, p)
	}

	return out
}
