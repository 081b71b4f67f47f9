// Package fakeapi is an in-memory stand-in for the finance backend. It serves
// the same endpoints, envelopes and report shapes the client consumes and is
// used for local development and integration tests.
package fakeapi

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/takmir/kas/internal/finance"
)

var ErrNotFound = errors.New("transaction not found")

//go:generate mockgen -source=ledger.go -destination=journal_mock.go -package=fakeapi

// Journal persists ledger entries. Writes happen before the in-memory state
// changes, so a failed write leaves the ledger untouched.
type Journal interface {
	Entries(ctx context.Context) ([]finance.Transaction, error)
	Save(ctx context.Context, tx finance.Transaction) error
	Remove(ctx context.Context, id string) error
}

// Ledger stores transactions and a cached balance. The cache is updated by
// every mutation; Sync recomputes it from scratch.
type Ledger struct {
	mu      sync.RWMutex
	opening decimal.Decimal
	balance decimal.Decimal
	entries map[string]finance.Transaction
	journal Journal
}

func NewLedger(opening decimal.Decimal) *Ledger {
	return &Ledger{
		opening: opening,
		balance: opening,
		entries: make(map[string]finance.Transaction),
	}
}

// OpenLedger replays the entries of j and writes every later mutation
// through to it.
func OpenLedger(ctx context.Context, opening decimal.Decimal, j Journal) (*Ledger, error) {
	txs, err := j.Entries(ctx)
	if err != nil {
		return nil, fmt.Errorf("replaying journal: %w", err)
	}

	l := NewLedger(opening)
	l.journal = j

	for _, tx := range txs {
		l.entries[tx.ID] = tx
		l.balance = l.balance.Add(signed(tx))
	}

	return l, nil
}

func (l *Ledger) Balance() decimal.Decimal {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.balance
}

// Sync recomputes the balance from the opening balance and every entry.
func (l *Ledger) Sync() decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()

	total := l.opening
	for _, tx := range l.entries {
		total = total.Add(signed(tx))
	}

	l.balance = total

	return total
}

func (l *Ledger) Create(ctx context.Context, kind finance.Kind, in finance.TransactionInput) (finance.Transaction, decimal.Decimal, error) {
	if err := in.Validate(); err != nil {
		return finance.Transaction{}, decimal.Zero, err
	}

	tx := fromInput(uuid.NewString(), kind, in)

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.save(ctx, tx); err != nil {
		return finance.Transaction{}, decimal.Zero, err
	}

	l.entries[tx.ID] = tx
	l.balance = l.balance.Add(signed(tx))

	return tx, l.balance, nil
}

func (l *Ledger) Update(ctx context.Context, kind finance.Kind, id string, in finance.TransactionInput) (finance.Transaction, decimal.Decimal, error) {
	if err := in.Validate(); err != nil {
		return finance.Transaction{}, decimal.Zero, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	old, ok := l.entries[id]
	if !ok || old.Kind != kind {
		return finance.Transaction{}, decimal.Zero, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	tx := fromInput(id, kind, in)

	if err := l.save(ctx, tx); err != nil {
		return finance.Transaction{}, decimal.Zero, err
	}

	l.entries[id] = tx
	l.balance = l.balance.Sub(signed(old)).Add(signed(tx))

	return tx, l.balance, nil
}

func (l *Ledger) Delete(ctx context.Context, kind finance.Kind, id string) (decimal.Decimal, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	old, ok := l.entries[id]
	if !ok || old.Kind != kind {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	if l.journal != nil {
		if err := l.journal.Remove(ctx, id); err != nil {
			return decimal.Zero, fmt.Errorf("removing %s: %w", id, err)
		}
	}

	delete(l.entries, id)
	l.balance = l.balance.Sub(signed(old))

	return l.balance, nil
}

// Period returns the opening balance at start and the transactions dated
// within [start, end], sorted by date then id.
func (l *Ledger) Period(start, end time.Time) (decimal.Decimal, []finance.Transaction, []finance.Transaction) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	opening := l.opening

	var incomes, expenses []finance.Transaction

	for _, tx := range l.entries {
		switch {
		case tx.Date.Before(start):
			opening = opening.Add(signed(tx))
		case tx.Date.After(end):
		case tx.Kind == finance.KindIncome:
			incomes = append(incomes, tx)
		default:
			expenses = append(expenses, tx)
		}
	}

	sortByDate(incomes)
	sortByDate(expenses)

	return opening, incomes, expenses
}

func (l *Ledger) save(ctx context.Context, tx finance.Transaction) error {
	if l.journal == nil {
		return nil
	}

	if err := l.journal.Save(ctx, tx); err != nil {
		return fmt.Errorf("saving %s: %w", tx.ID, err)
	}

	return nil
}

func fromInput(id string, kind finance.Kind, in finance.TransactionInput) finance.Transaction {
	return finance.Transaction{
		ID:     id,
		Kind:   kind,
		Name:   strings.TrimSpace(in.Name),
		Amount: in.Amount,
		Date:   finance.Day(in.Date),
		Note:   in.Note,
		Method: in.Method,
	}
}

func signed(tx finance.Transaction) decimal.Decimal {
	if tx.Kind == finance.KindExpense {
		return tx.Amount.Neg()
	}

	return tx.Amount
}

func sortByDate(txs []finance.Transaction) {
	sort.Slice(txs, func(i, j int) bool {
		if !txs[i].Date.Equal(txs[j].Date) {
			return txs[i].Date.Before(txs[j].Date)
		}

		return txs[i].ID < txs[j].ID
	})
}
