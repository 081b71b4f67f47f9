package finance

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Kind tells incomes and expenses apart.
type Kind string

const (
	KindIncome  Kind = "income"
	KindExpense Kind = "expense"
)

// Label returns the Indonesian name used in messages and headings.
func (k Kind) Label() string {
	switch k {
	case KindIncome:
		return "pemasukan"
	case KindExpense:
		return "pengeluaran"
	}

	return string(k)
}

// Method is the payment channel tag of a transaction (cash, transfer, qris, ...).
type Method string

const (
	MethodCash     Method = "cash"
	MethodTransfer Method = "transfer"
	MethodQRIS     Method = "qris"
)

var ErrInvalidInput = errors.New("invalid transaction input")

// Transaction is the client's read-through copy of a remote income or expense.
type Transaction struct {
	ID     string
	Kind   Kind
	Name   string
	Amount decimal.Decimal
	Date   time.Time
	Note   string
	Method Method
}

// TransactionInput is the payload of create and update calls.
type TransactionInput struct {
	Name   string
	Amount decimal.Decimal
	Date   time.Time
	Note   string
	Method Method
}

func (in TransactionInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}

	if in.Amount.IsNegative() {
		return fmt.Errorf("%w: amount must not be negative", ErrInvalidInput)
	}

	if in.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidInput)
	}

	return nil
}

type transactionInputJSON struct {
	Name   string      `json:"name"`
	Amount json.Number `json:"amount"`
	Date   string      `json:"date"`
	Note   string      `json:"note,omitempty"`
	Method Method      `json:"method,omitempty"`
}

func (in TransactionInput) MarshalJSON() ([]byte, error) {
	return json.Marshal(transactionInputJSON{
		Name:   strings.TrimSpace(in.Name),
		Amount: json.Number(in.Amount.String()),
		Date:   in.Date.Format(time.DateOnly),
		Note:   in.Note,
		Method: in.Method,
	})
}

// Report is the canonical, normalized shape of a period report.
type Report struct {
	Incomes      []Transaction
	Expenses     []Transaction
	TotalIncome  decimal.Decimal
	TotalExpense decimal.Decimal
	SaldoAwal    decimal.Decimal
	SaldoAkhir   decimal.Decimal
	ChartData    []ChartPoint
}

// EmptyReport is the reset state: zero figures and empty, non-nil lists.
func EmptyReport() Report {
	return Report{
		Incomes:   []Transaction{},
		Expenses:  []Transaction{},
		ChartData: []ChartPoint{},
	}
}

func (r Report) IsEmpty() bool {
	return len(r.Incomes) == 0 && len(r.Expenses) == 0 && len(r.ChartData) == 0 &&
		r.TotalIncome.IsZero() && r.TotalExpense.IsZero() &&
		r.SaldoAwal.IsZero() && r.SaldoAkhir.IsZero()
}

// ChartPoint is one time bucket of the balance chart. Date is an ISO day
// (YYYY-MM-DD) for daily points; Year is set for yearly series.
type ChartPoint struct {
	Date      string
	Year      int
	Label     string
	Income    decimal.Decimal
	Expense   decimal.Decimal
	Balance   decimal.Decimal
	NetChange decimal.NullDecimal

	// Figures is set when the point carried an income, expense or balance,
	// zero included.
	Figures bool
}

// Balance is the current balance snapshot.
type Balance struct {
	Current   decimal.Decimal
	Formatted string
}

// SumAmounts adds up the amounts of txs.
func SumAmounts(txs []Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, tx := range txs {
		total = total.Add(tx.Amount)
	}

	return total
}
