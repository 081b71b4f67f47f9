package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/takmir/kas/internal/api"
	"github.com/takmir/kas/internal/finance"
	"github.com/takmir/kas/internal/report"
)

const (
	msgBalanceFailed  = "Gagal mengambil saldo"
	msgReportFailed   = "Gagal mengambil laporan"
	msgReportInvalid  = "Format respons laporan tidak valid"
	msgRangeInvalid   = "Rentang laporan tidak valid"
	msgSyncSucceeded  = "Saldo berhasil disinkronkan"
	msgSyncFailed     = "Gagal menyinkronkan saldo"
	msgSyncInProgress = "Sinkronisasi saldo sedang berjalan"
	msgInputInvalid   = "Data transaksi tidak lengkap"
	msgMissingID      = "ID transaksi tidak ditemukan"
)

// Load fetches the balance and then the report of the active filter.
func (s *Store) Load(ctx context.Context) {
	s.FetchBalance(ctx)

	f := s.Snapshot().Filter
	s.FetchReport(ctx, f.Range, f.Date)
}

// FetchBalance refreshes the current balance. A failure keeps the previous
// balance and only sets the balance error.
func (s *Store) FetchBalance(ctx context.Context) {
	s.update(func(st *State) { st.BalanceLoading = true })

	b, err := s.api.GetBalance(ctx)
	if err != nil {
		s.logger.Warn("fetching balance failed", "error", err)
	}

	s.update(func(st *State) {
		st.BalanceLoading = false

		if err != nil {
			st.BalanceError = messageOr(err, msgBalanceFailed)
			return
		}

		s.commitBalance(st, b)
	})
}

// SetFilter switches the displayed period and fetches its report.
func (s *Store) SetFilter(ctx context.Context, r finance.Range, date time.Time) {
	s.FetchReport(ctx, r, date)
}

// FetchReport makes (r, date) the active filter and loads its report. A zero
// date means today. Any failure resets the report to empty because the filter
// has already moved. Results of fetches superseded by a later call are
// discarded.
func (s *Store) FetchReport(ctx context.Context, r finance.Range, date time.Time) {
	if !r.Valid() {
		s.update(func(st *State) { st.ReportError = msgRangeInvalid })
		return
	}

	if date.IsZero() {
		date = s.clock.Now()
	}

	f := finance.Filter{Range: r, Date: finance.Day(date)}

	s.mu.Lock()
	reqCtx, ticket := s.guard.Begin(ctx)
	s.state.Filter = f
	s.state.ReportLoading = true
	s.mu.Unlock()
	s.notify()

	body, err := s.api.GetReport(reqCtx, f)

	var rep finance.Report
	if err == nil {
		rep, err = report.Normalize(body)
	}

	// Finish cancels reqCtx, so the caller's cancellation is read first.
	cancelled := ctx.Err() != nil

	s.mu.Lock()

	if !s.guard.Finish(ticket) {
		s.mu.Unlock()
		s.logger.Debug("discarding superseded report", "range", f.Range, "date", f.Date.Format(time.DateOnly))

		return
	}

	s.state.ReportLoading = false

	switch {
	case err != nil && cancelled:
		// Cancelled by the caller: nothing to report.
	case err != nil:
		s.logger.Warn("fetching report failed", "range", f.Range, "error", err)
		s.state.Report = finance.EmptyReport()
		s.state.ReportError = reportMessage(err)
	default:
		s.state.Report = rep
		s.state.ReportError = ""
		s.state.LastSynced = s.clock.Now()
	}

	s.mu.Unlock()
	s.notify()
}

// ClearErrors empties the three error slots and nothing else.
func (s *Store) ClearErrors() {
	s.update(func(st *State) {
		st.BalanceError = ""
		st.ReportError = ""
		st.TransactionError = ""
	})
}

func (s *Store) AddIncome(ctx context.Context, in finance.TransactionInput) Result {
	return s.mutate(ctx, finance.KindIncome, actionCreate, in.Validate(), func(ctx context.Context) (api.Mutation, error) {
		return s.api.CreateIncome(ctx, in)
	})
}

func (s *Store) AddExpense(ctx context.Context, in finance.TransactionInput) Result {
	return s.mutate(ctx, finance.KindExpense, actionCreate, in.Validate(), func(ctx context.Context) (api.Mutation, error) {
		return s.api.CreateExpense(ctx, in)
	})
}

func (s *Store) UpdateIncome(ctx context.Context, id string, in finance.TransactionInput) Result {
	return s.mutate(ctx, finance.KindIncome, actionUpdate, validateUpdate(id, in), func(ctx context.Context) (api.Mutation, error) {
		return s.api.UpdateIncome(ctx, id, in)
	})
}

func (s *Store) UpdateExpense(ctx context.Context, id string, in finance.TransactionInput) Result {
	return s.mutate(ctx, finance.KindExpense, actionUpdate, validateUpdate(id, in), func(ctx context.Context) (api.Mutation, error) {
		return s.api.UpdateExpense(ctx, id, in)
	})
}

func (s *Store) DeleteIncome(ctx context.Context, id string) Result {
	return s.mutate(ctx, finance.KindIncome, actionDelete, validateID(id), func(ctx context.Context) (api.Mutation, error) {
		return s.api.DeleteIncome(ctx, id)
	})
}

func (s *Store) DeleteExpense(ctx context.Context, id string) Result {
	return s.mutate(ctx, finance.KindExpense, actionDelete, validateID(id), func(ctx context.Context) (api.Mutation, error) {
		return s.api.DeleteExpense(ctx, id)
	})
}

type action int

const (
	actionCreate action = iota
	actionUpdate
	actionDelete
)

func (a action) success(kind finance.Kind) string {
	verbs := [...]string{"ditambahkan", "diperbarui", "dihapus"}
	label := kind.Label()

	return strings.ToUpper(label[:1]) + label[1:] + " berhasil " + verbs[a]
}

func (a action) failure(kind finance.Kind) string {
	verbs := [...]string{"menambahkan", "memperbarui", "menghapus"}
	return "Gagal " + verbs[a] + " " + kind.Label()
}

var errMissingID = errors.New("missing transaction id")

func validateID(id string) error {
	if strings.TrimSpace(id) == "" {
		return errMissingID
	}

	return nil
}

func validateUpdate(id string, in finance.TransactionInput) error {
	if err := validateID(id); err != nil {
		return err
	}

	return in.Validate()
}

// mutate runs one remote mutation. On success the balance carried by the
// response is committed first, then the report of the active filter is
// fetched again so totals and lists come from the backend.
func (s *Store) mutate(ctx context.Context, kind finance.Kind, a action, invalid error, call func(context.Context) (api.Mutation, error)) Result {
	if invalid != nil {
		msg := msgInputInvalid
		if errors.Is(invalid, errMissingID) {
			msg = msgMissingID
		}

		s.update(func(st *State) { st.TransactionError = msg })

		return Result{Message: msg}
	}

	s.update(func(st *State) { st.TransactionLoading = true })

	m, err := call(ctx)
	if err != nil {
		msg := messageOr(err, a.failure(kind))
		s.logger.Warn("transaction action failed", "kind", kind, "error", err)

		s.update(func(st *State) {
			st.TransactionLoading = false
			st.TransactionError = msg
		})

		return Result{Message: msg}
	}

	res := Result{Success: true, Message: a.success(kind), Data: m.Transaction}

	s.update(func(st *State) {
		st.TransactionLoading = false
		st.TransactionError = ""

		if m.Balance != nil {
			s.commitBalance(st, *m.Balance)
		}
	})

	if m.Balance != nil {
		current := m.Balance.Current
		res.CurrentBalance = &current
	}

	f := s.Snapshot().Filter
	s.FetchReport(ctx, f.Range, f.Date)

	return res
}

// commitBalance must be called with s.mu held.
func (s *Store) commitBalance(st *State, b finance.Balance) {
	st.CurrentBalance = b.Current
	st.FormattedBalance = b.Formatted

	if st.FormattedBalance == "" {
		st.FormattedBalance = finance.FormatRupiah(b.Current)
	}

	st.BalanceError = ""
	st.LastSynced = s.clock.Now()
}

func messageOr(err error, fallback string) string {
	if msg := api.Message(err); msg != "" {
		return msg
	}

	return fallback
}

func reportMessage(err error) string {
	if errors.Is(err, report.ErrMalformedResponse) {
		return msgReportInvalid
	}

	return messageOr(err, msgReportFailed)
}
