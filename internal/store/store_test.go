package store_test

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/takmir/kas/internal/api"
	"github.com/takmir/kas/internal/clock"
	"github.com/takmir/kas/internal/finance"
	"github.com/takmir/kas/internal/store"
)

var now = time.Date(2025, 1, 10, 9, 30, 0, 0, time.UTC)

const reportBody = `{"data":{
	"transactions":{
		"incomes":[{"id":"i1","name":"Infaq Jumat","amount":150000,"date":"2025-01-03"}],
		"expenses":[{"id":"e1","name":"Listrik","amount":50000,"date":"2025-01-04"}]
	},
	"balance":{"opening":1000000,"closing":1100000}
}}`

func day(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func newStore(t *testing.T) (*store.Store, *store.MockAPI, *clock.Fake) {
	t.Helper()

	ctrl := gomock.NewController(t)
	remote := store.NewMockAPI(ctrl)
	clk := clock.NewFake(now)

	s := store.New(remote, store.WithClock(clk))
	t.Cleanup(s.Close)

	return s, remote, clk
}

func balance(v int64) finance.Balance {
	d := decimal.NewFromInt(v)
	return finance.Balance{Current: d, Formatted: finance.FormatRupiah(d)}
}

func TestNew_Defaults(t *testing.T) {
	s, _, _ := newStore(t)

	st := s.Snapshot()
	assert.Equal(t, finance.Filter{Range: finance.RangeMonthly, Date: day(2025, 1, 10)}, st.Filter)
	assert.True(t, st.Report.IsEmpty())
	assert.Equal(t, store.SyncIdle, st.SyncStatus)
	assert.Equal(t, "Rp 0", st.FormattedBalance)
}

func TestStore_Load(t *testing.T) {
	s, remote, _ := newStore(t)

	gomock.InOrder(
		remote.EXPECT().GetBalance(gomock.Any()).Return(balance(1100000), nil),
		remote.EXPECT().
			GetReport(gomock.Any(), finance.Filter{Range: finance.RangeMonthly, Date: day(2025, 1, 10)}).
			Return([]byte(reportBody), nil),
	)

	s.Load(context.Background())

	st := s.Snapshot()
	assert.True(t, decimal.NewFromInt(1100000).Equal(st.CurrentBalance))
	assert.Equal(t, "Rp 1.100.000", st.FormattedBalance)
	assert.True(t, decimal.NewFromInt(150000).Equal(st.Report.TotalIncome))
	assert.True(t, decimal.NewFromInt(50000).Equal(st.Report.TotalExpense))
	assert.True(t, decimal.NewFromInt(1100000).Equal(st.Report.SaldoAkhir))
	assert.Len(t, st.Report.ChartData, 2)
	assert.Equal(t, now, st.LastSynced)
	assert.False(t, st.ReportLoading)
	assert.False(t, st.BalanceLoading)
	assert.False(t, st.HasErrors())
}

func TestStore_FetchBalance_FailureKeepsBalance(t *testing.T) {
	s, remote, _ := newStore(t)

	gomock.InOrder(
		remote.EXPECT().GetBalance(gomock.Any()).Return(balance(500000), nil),
		remote.EXPECT().GetBalance(gomock.Any()).Return(finance.Balance{}, &api.Error{
			Op: api.OpGetBalance, Message: api.MsgUnreachable, Err: errors.New("dial tcp: refused"),
		}),
	)

	s.FetchBalance(context.Background())
	s.FetchBalance(context.Background())

	st := s.Snapshot()
	assert.True(t, decimal.NewFromInt(500000).Equal(st.CurrentBalance))
	assert.Equal(t, api.MsgUnreachable, st.BalanceError)
}

func TestStore_FetchReport_Failures(t *testing.T) {
	tests := []struct {
		name      string
		body      []byte
		err       error
		wantError string
	}{
		{
			name:      "Malformed",
			body:      []byte(`{}`),
			wantError: "Format respons laporan tidak valid",
		},
		{
			name:      "ServerMessage",
			err:       &api.Error{Op: api.OpGetReport, Status: http.StatusBadRequest, Message: "Tanggal tidak valid", FromServer: true},
			wantError: "Tanggal tidak valid",
		},
		{
			name:      "PlainError",
			err:       errors.New("boom"),
			wantError: "Gagal mengambil laporan",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, remote, _ := newStore(t)

			gomock.InOrder(
				remote.EXPECT().GetReport(gomock.Any(), gomock.Any()).Return([]byte(reportBody), nil),
				remote.EXPECT().GetReport(gomock.Any(), gomock.Any()).Return(tt.body, tt.err),
			)

			s.FetchReport(context.Background(), finance.RangeMonthly, day(2025, 1, 10))
			require.False(t, s.Snapshot().Report.IsEmpty())

			s.FetchReport(context.Background(), finance.RangeWeekly, day(2025, 1, 3))

			st := s.Snapshot()
			assert.True(t, st.Report.IsEmpty())
			assert.NotNil(t, st.Report.Incomes)
			assert.Equal(t, tt.wantError, st.ReportError)
			assert.Equal(t, finance.Filter{Range: finance.RangeWeekly, Date: day(2025, 1, 3)}, st.Filter)
			assert.False(t, st.ReportLoading)
		})
	}
}

func TestStore_FetchReport_CallerCancelledKeepsReport(t *testing.T) {
	s, remote, _ := newStore(t)

	ctx, cancel := context.WithCancel(context.Background())

	gomock.InOrder(
		remote.EXPECT().GetReport(gomock.Any(), gomock.Any()).Return([]byte(reportBody), nil),
		remote.EXPECT().GetReport(gomock.Any(), gomock.Any()).
			DoAndReturn(func(ctx context.Context, _ finance.Filter) ([]byte, error) {
				cancel()
				return nil, ctx.Err()
			}),
	)

	s.FetchReport(context.Background(), finance.RangeMonthly, day(2025, 1, 10))
	before := s.Snapshot().Report

	s.FetchReport(ctx, finance.RangeWeekly, day(2025, 1, 3))

	st := s.Snapshot()
	assert.Equal(t, before, st.Report)
	assert.Empty(t, st.ReportError)
	assert.False(t, st.ReportLoading)
}

func TestStore_FetchReport_ZeroDateMeansToday(t *testing.T) {
	s, remote, _ := newStore(t)

	remote.EXPECT().
		GetReport(gomock.Any(), finance.Filter{Range: finance.RangeYearly, Date: day(2025, 1, 10)}).
		Return([]byte(`{"data":{}}`), nil)

	s.FetchReport(context.Background(), finance.RangeYearly, time.Time{})

	assert.Empty(t, s.Snapshot().ReportError)
}

func TestStore_FetchReport_InvalidRange(t *testing.T) {
	s, _, _ := newStore(t)

	s.FetchReport(context.Background(), finance.Range("daily"), now)

	st := s.Snapshot()
	assert.Equal(t, "Rentang laporan tidak valid", st.ReportError)
	assert.Equal(t, finance.RangeMonthly, st.Filter.Range)
}

func TestStore_FetchReport_LatestCallWins(t *testing.T) {
	s, remote, _ := newStore(t)

	first := finance.Filter{Range: finance.RangeWeekly, Date: day(2025, 1, 10)}
	second := finance.Filter{Range: finance.RangeMonthly, Date: day(2024, 12, 1)}

	started := make(chan struct{})
	cancelled := make(chan struct{})

	remote.EXPECT().GetReport(gomock.Any(), first).DoAndReturn(func(ctx context.Context, _ finance.Filter) ([]byte, error) {
		close(started)
		<-ctx.Done()
		close(cancelled)

		// A late response that ignores cancellation still must not be applied.
		return []byte(`{"data":{"incomes":[{"id":"old","amount":999,"date":"2025-01-10"}]}}`), nil
	})

	remote.EXPECT().GetReport(gomock.Any(), second).
		Return([]byte(`{"data":{"incomes":[{"id":"new","amount":1,"date":"2024-12-01"}]}}`), nil)

	var wg sync.WaitGroup

	wg.Add(1)

	go func() {
		defer wg.Done()
		s.FetchReport(context.Background(), first.Range, first.Date)
	}()

	<-started
	s.FetchReport(context.Background(), second.Range, second.Date)
	<-cancelled
	wg.Wait()

	st := s.Snapshot()
	assert.Equal(t, second, st.Filter)
	require.Len(t, st.Report.Incomes, 1)
	assert.Equal(t, "new", st.Report.Incomes[0].ID)
	assert.False(t, st.ReportLoading)
}

func TestStore_SetFilter(t *testing.T) {
	s, remote, _ := newStore(t)

	remote.EXPECT().
		GetReport(gomock.Any(), finance.Filter{Range: finance.RangeYearly, Date: day(2024, 6, 15)}).
		Return([]byte(reportBody), nil)

	s.SetFilter(context.Background(), finance.RangeYearly, time.Date(2024, 6, 15, 18, 0, 0, 0, time.UTC))

	st := s.Snapshot()
	assert.Equal(t, finance.RangeYearly, st.Filter.Range)

	start, end := st.Filter.YearBounds()
	assert.Equal(t, day(2024, 1, 1), start)
	assert.Equal(t, day(2024, 12, 31), end)
}

func TestStore_AddIncome_CommitsServerBalanceBeforeRefetch(t *testing.T) {
	s, remote, _ := newStore(t)

	in := finance.TransactionInput{Name: "Infaq", Amount: decimal.NewFromInt(50000), Date: day(2025, 1, 10)}
	serverBalance := balance(1234567)

	gomock.InOrder(
		remote.EXPECT().CreateIncome(gomock.Any(), in).Return(api.Mutation{
			Transaction: &finance.Transaction{ID: "i9", Kind: finance.KindIncome, Name: "Infaq", Amount: in.Amount, Date: in.Date},
			Balance:     &serverBalance,
		}, nil),
		remote.EXPECT().GetReport(gomock.Any(), s.Snapshot().Filter).DoAndReturn(func(context.Context, finance.Filter) ([]byte, error) {
			assert.True(t, serverBalance.Current.Equal(s.Snapshot().CurrentBalance), "balance is committed before the report fetch")
			return []byte(reportBody), nil
		}),
	)

	res := s.AddIncome(context.Background(), in)

	require.True(t, res.Success)
	assert.Equal(t, "Pemasukan berhasil ditambahkan", res.Message)
	require.NotNil(t, res.Data)
	assert.Equal(t, "i9", res.Data.ID)
	require.NotNil(t, res.CurrentBalance)
	assert.True(t, serverBalance.Current.Equal(*res.CurrentBalance))

	st := s.Snapshot()
	assert.True(t, serverBalance.Current.Equal(st.CurrentBalance), "not a locally computed balance")
	assert.Equal(t, "Rp 1.234.567", st.FormattedBalance)
	assert.False(t, st.TransactionLoading)
	assert.Empty(t, st.TransactionError)
}

func TestStore_Mutations(t *testing.T) {
	in := finance.TransactionInput{Name: "Air", Amount: decimal.NewFromInt(25000), Date: day(2025, 1, 9)}
	b := balance(900000)
	ok := api.Mutation{Balance: &b}

	tests := []struct {
		name        string
		setupMock   func(m *store.MockAPI)
		run         func(s *store.Store) store.Result
		wantMessage string
	}{
		{
			name:      "AddExpense",
			setupMock: func(m *store.MockAPI) { m.EXPECT().CreateExpense(gomock.Any(), in).Return(ok, nil) },
			run: func(s *store.Store) store.Result {
				return s.AddExpense(context.Background(), in)
			},
			wantMessage: "Pengeluaran berhasil ditambahkan",
		},
		{
			name:      "UpdateIncome",
			setupMock: func(m *store.MockAPI) { m.EXPECT().UpdateIncome(gomock.Any(), "i1", in).Return(ok, nil) },
			run: func(s *store.Store) store.Result {
				return s.UpdateIncome(context.Background(), "i1", in)
			},
			wantMessage: "Pemasukan berhasil diperbarui",
		},
		{
			name:      "UpdateExpense",
			setupMock: func(m *store.MockAPI) { m.EXPECT().UpdateExpense(gomock.Any(), "e1", in).Return(ok, nil) },
			run: func(s *store.Store) store.Result {
				return s.UpdateExpense(context.Background(), "e1", in)
			},
			wantMessage: "Pengeluaran berhasil diperbarui",
		},
		{
			name:      "DeleteIncome",
			setupMock: func(m *store.MockAPI) { m.EXPECT().DeleteIncome(gomock.Any(), "i1").Return(ok, nil) },
			run: func(s *store.Store) store.Result {
				return s.DeleteIncome(context.Background(), "i1")
			},
			wantMessage: "Pemasukan berhasil dihapus",
		},
		{
			name:      "DeleteExpense",
			setupMock: func(m *store.MockAPI) { m.EXPECT().DeleteExpense(gomock.Any(), "e1").Return(ok, nil) },
			run: func(s *store.Store) store.Result {
				return s.DeleteExpense(context.Background(), "e1")
			},
			wantMessage: "Pengeluaran berhasil dihapus",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, remote, _ := newStore(t)

			tt.setupMock(remote)
			remote.EXPECT().GetReport(gomock.Any(), gomock.Any()).Return([]byte(reportBody), nil)

			res := tt.run(s)

			assert.True(t, res.Success)
			assert.Equal(t, tt.wantMessage, res.Message)
			assert.True(t, b.Current.Equal(s.Snapshot().CurrentBalance))
		})
	}
}

func TestStore_Mutation_Failure(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantMessage string
	}{
		{
			name:        "ServerMessage",
			err:         &api.Error{Op: api.OpCreateIncome, Status: 422, Message: "Nominal wajib diisi", FromServer: true},
			wantMessage: "Nominal wajib diisi",
		},
		{
			name:        "Fallback",
			err:         errors.New("boom"),
			wantMessage: "Gagal menambahkan pemasukan",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, remote, _ := newStore(t)

			gomock.InOrder(
				remote.EXPECT().GetBalance(gomock.Any()).Return(balance(700000), nil),
				remote.EXPECT().CreateIncome(gomock.Any(), gomock.Any()).Return(api.Mutation{}, tt.err),
			)

			s.FetchBalance(context.Background())

			res := s.AddIncome(context.Background(), finance.TransactionInput{Name: "Infaq", Amount: decimal.NewFromInt(1), Date: now})

			assert.False(t, res.Success)
			assert.Equal(t, tt.wantMessage, res.Message)

			st := s.Snapshot()
			assert.Equal(t, tt.wantMessage, st.TransactionError)
			assert.True(t, decimal.NewFromInt(700000).Equal(st.CurrentBalance))
			assert.False(t, st.TransactionLoading)
		})
	}
}

func TestStore_Mutation_InvalidInputSkipsRemote(t *testing.T) {
	s, _, _ := newStore(t)

	res := s.AddExpense(context.Background(), finance.TransactionInput{Amount: decimal.NewFromInt(1), Date: now})
	assert.False(t, res.Success)
	assert.Equal(t, "Data transaksi tidak lengkap", res.Message)

	res = s.DeleteIncome(context.Background(), " ")
	assert.False(t, res.Success)
	assert.Equal(t, "ID transaksi tidak ditemukan", s.Snapshot().TransactionError)
}

func TestStore_SyncBalance(t *testing.T) {
	s, remote, clk := newStore(t)

	synced := balance(2000000)

	gomock.InOrder(
		remote.EXPECT().SyncBalance(gomock.Any()).Return(&synced, nil),
		remote.EXPECT().GetReport(gomock.Any(), s.Snapshot().Filter).Return([]byte(reportBody), nil),
	)

	var statuses []store.SyncStatus

	unsubscribe := s.Subscribe(func(st store.State) {
		if len(statuses) == 0 || statuses[len(statuses)-1] != st.SyncStatus {
			statuses = append(statuses, st.SyncStatus)
		}
	})
	defer unsubscribe()

	res := s.SyncBalance(context.Background())

	assert.Equal(t, store.SyncResult{Success: true, Message: "Saldo berhasil disinkronkan"}, res)
	assert.Equal(t, store.SyncSuccess, s.Snapshot().SyncStatus)
	assert.True(t, synced.Current.Equal(s.Snapshot().CurrentBalance))
	assert.Equal(t, []time.Duration{store.SyncResetDelay}, clk.Pending())

	clk.Advance(store.SyncResetDelay)

	assert.Equal(t, store.SyncIdle, s.Snapshot().SyncStatus)
	assert.Equal(t, []store.SyncStatus{store.SyncSyncing, store.SyncSuccess, store.SyncIdle}, statuses)
}

func TestStore_SyncBalance_WithoutBalanceFetchesIt(t *testing.T) {
	s, remote, _ := newStore(t)

	gomock.InOrder(
		remote.EXPECT().SyncBalance(gomock.Any()).Return(nil, nil),
		remote.EXPECT().GetBalance(gomock.Any()).Return(balance(42), nil),
		remote.EXPECT().GetReport(gomock.Any(), gomock.Any()).Return([]byte(reportBody), nil),
	)

	res := s.SyncBalance(context.Background())

	assert.True(t, res.Success)
	assert.True(t, decimal.NewFromInt(42).Equal(s.Snapshot().CurrentBalance))
}

func TestStore_SyncBalance_Error(t *testing.T) {
	s, remote, clk := newStore(t)

	remote.EXPECT().SyncBalance(gomock.Any()).Return(nil, errors.New("boom"))

	res := s.SyncBalance(context.Background())

	assert.Equal(t, store.SyncResult{Message: "Gagal menyinkronkan saldo"}, res)

	st := s.Snapshot()
	assert.Equal(t, store.SyncError, st.SyncStatus)
	assert.Equal(t, "Gagal menyinkronkan saldo", st.BalanceError)

	clk.Advance(time.Second)
	assert.Equal(t, store.SyncError, s.Snapshot().SyncStatus)

	clk.Advance(2 * time.Second)
	assert.Equal(t, store.SyncIdle, s.Snapshot().SyncStatus)
}

func TestStore_SyncBalance_RejectsConcurrentSync(t *testing.T) {
	s, remote, _ := newStore(t)

	release := make(chan struct{})
	started := make(chan struct{})

	remote.EXPECT().SyncBalance(gomock.Any()).DoAndReturn(func(context.Context) (*finance.Balance, error) {
		close(started)
		<-release

		return nil, errors.New("boom")
	})

	done := make(chan store.SyncResult)

	go func() { done <- s.SyncBalance(context.Background()) }()

	<-started

	res := s.SyncBalance(context.Background())
	assert.False(t, res.Success)
	assert.Equal(t, "Sinkronisasi saldo sedang berjalan", res.Message)

	close(release)
	assert.False(t, (<-done).Success)
}

func TestStore_Close_CancelsSyncReset(t *testing.T) {
	s, remote, clk := newStore(t)

	remote.EXPECT().SyncBalance(gomock.Any()).Return(nil, errors.New("boom"))

	s.SyncBalance(context.Background())
	require.Len(t, clk.Pending(), 1)

	s.Close()

	assert.Empty(t, clk.Pending())
}

func TestStore_ClearErrors(t *testing.T) {
	s, remote, _ := newStore(t)

	gomock.InOrder(
		remote.EXPECT().GetBalance(gomock.Any()).Return(balance(300000), nil),
		remote.EXPECT().GetReport(gomock.Any(), gomock.Any()).Return([]byte(reportBody), nil),
		remote.EXPECT().GetReport(gomock.Any(), gomock.Any()).Return([]byte(`{}`), nil),
		remote.EXPECT().GetBalance(gomock.Any()).Return(finance.Balance{}, errors.New("down")),
		remote.EXPECT().DeleteIncome(gomock.Any(), "x").Return(api.Mutation{}, errors.New("down")),
	)

	s.Load(context.Background())
	s.FetchReport(context.Background(), finance.RangeWeekly, day(2025, 1, 3))
	s.FetchBalance(context.Background())
	s.DeleteIncome(context.Background(), "x")

	before := s.Snapshot()
	require.NotEmpty(t, before.BalanceError)
	require.NotEmpty(t, before.ReportError)
	require.NotEmpty(t, before.TransactionError)

	s.ClearErrors()

	after := s.Snapshot()
	assert.False(t, after.HasErrors())
	assert.Equal(t, before.Report, after.Report)
	assert.True(t, before.CurrentBalance.Equal(after.CurrentBalance))
}

func TestStore_VersionGrowsWithEachChange(t *testing.T) {
	s, _, _ := newStore(t)

	var seen []uint64
	s.Subscribe(func(st store.State) { seen = append(seen, st.Version) })

	start := s.Snapshot().Version

	s.ClearErrors()
	s.ClearErrors()

	assert.Equal(t, []uint64{start + 1, start + 2}, seen)
	assert.Equal(t, start+2, s.Snapshot().Version)
}

func TestStore_Unsubscribe(t *testing.T) {
	s, _, _ := newStore(t)

	calls := 0
	unsubscribe := s.Subscribe(func(store.State) { calls++ })

	s.ClearErrors()
	unsubscribe()
	s.ClearErrors()

	assert.Equal(t, 1, calls)
}
