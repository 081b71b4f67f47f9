// Package store holds the finance dashboard state: the current balance, the
// report of the active period, loading and error flags, and the sync status.
// Every change goes through an action that talks to the backend and then
// commits the result.
package store

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/takmir/kas/internal/api"
	"github.com/takmir/kas/internal/clock"
	"github.com/takmir/kas/internal/finance"
	"github.com/takmir/kas/internal/reqguard"
)

//go:generate mockgen -source=store.go -destination=api_mock.go -package=store

// API is the remote finance backend.
type API interface {
	GetBalance(ctx context.Context) (finance.Balance, error)
	SyncBalance(ctx context.Context) (*finance.Balance, error)
	GetReport(ctx context.Context, f finance.Filter) ([]byte, error)
	CreateIncome(ctx context.Context, in finance.TransactionInput) (api.Mutation, error)
	CreateExpense(ctx context.Context, in finance.TransactionInput) (api.Mutation, error)
	UpdateIncome(ctx context.Context, id string, in finance.TransactionInput) (api.Mutation, error)
	UpdateExpense(ctx context.Context, id string, in finance.TransactionInput) (api.Mutation, error)
	DeleteIncome(ctx context.Context, id string) (api.Mutation, error)
	DeleteExpense(ctx context.Context, id string) (api.Mutation, error)
}

// SyncResetDelay is how long a finished sync keeps its success or error
// status before returning to idle.
const SyncResetDelay = 3 * time.Second

type SyncStatus string

const (
	SyncIdle    SyncStatus = "idle"
	SyncSyncing SyncStatus = "syncing"
	SyncSuccess SyncStatus = "success"
	SyncError   SyncStatus = "error"
)

// State is a point-in-time copy of the store. Report slices are replaced
// wholesale on every commit and must not be modified by readers.
type State struct {
	CurrentBalance   decimal.Decimal
	FormattedBalance string
	LastSynced       time.Time

	Report finance.Report
	Filter finance.Filter

	BalanceLoading     bool
	ReportLoading      bool
	TransactionLoading bool

	BalanceError     string
	ReportError      string
	TransactionError string

	SyncStatus SyncStatus

	// Version grows with every published change. Subscribers called from
	// different goroutines use it to drop snapshots older than one they have.
	Version uint64
}

// HasErrors reports whether any error slot is set.
func (s State) HasErrors() bool {
	return s.BalanceError != "" || s.ReportError != "" || s.TransactionError != ""
}

// Result is returned by the transaction actions.
type Result struct {
	Success        bool
	Message        string
	Data           *finance.Transaction
	CurrentBalance *decimal.Decimal
}

// SyncResult is returned by SyncBalance.
type SyncResult struct {
	Success bool
	Message string
}

type Option func(*Store)

func WithClock(c clock.Clock) Option {
	return func(s *Store) { s.clock = c }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// Store is safe for concurrent use. Report fetches are serialized through a
// guard: a newer fetch cancels the older one and only the newest result is
// committed.
type Store struct {
	api    API
	clock  clock.Clock
	logger *slog.Logger

	mu         sync.Mutex
	state      State
	guard      reqguard.Guard
	resetTimer clock.Timer
	subs       map[int]func(State)
	nextSub    int
	closed     bool
}

func New(remote API, opts ...Option) *Store {
	s := &Store{
		api:    remote,
		clock:  clock.Real{},
		logger: slog.Default(),
		subs:   make(map[int]func(State)),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.state = State{
		Report:           finance.EmptyReport(),
		Filter:           finance.DefaultFilter(s.clock.Now()),
		FormattedBalance: finance.FormatRupiah(decimal.Zero),
		SyncStatus:       SyncIdle,
	}

	return s
}

// Snapshot returns the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state
}

// Subscribe registers fn to be called with the new state after every change.
// fn runs on the goroutine that made the change and must not block.
func (s *Store) Subscribe(fn func(State)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		delete(s.subs, id)
	}
}

// Close cancels the in-flight report fetch and the pending sync reset, and
// drops all subscribers.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.guard.Stop()

	if s.resetTimer != nil {
		s.resetTimer.Stop()
		s.resetTimer = nil
	}

	clear(s.subs)
}

// update applies fn under the lock and notifies subscribers.
func (s *Store) update(fn func(*State)) {
	s.mu.Lock()
	fn(&s.state)
	s.mu.Unlock()

	s.notify()
}

func (s *Store) notify() {
	s.mu.Lock()

	if s.closed {
		s.mu.Unlock()
		return
	}

	s.state.Version++
	st := s.state
	subs := make([]func(State), 0, len(s.subs))

	for _, fn := range s.subs {
		subs = append(subs, fn)
	}

	s.mu.Unlock()

	for _, fn := range subs {
		fn(st)
	}
}
