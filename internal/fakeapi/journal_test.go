package fakeapi_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/takmir/kas/internal/fakeapi"
	"github.com/takmir/kas/internal/finance"
)

func TestOpenLedger_ReplaysJournal(t *testing.T) {
	ctrl := gomock.NewController(t)
	j := fakeapi.NewMockJournal(ctrl)

	j.EXPECT().Entries(gomock.Any()).Return([]finance.Transaction{
		{ID: "a", Kind: finance.KindIncome, Name: "Infaq", Amount: decimal.NewFromInt(300), Date: day(2025, 1, 2)},
		{ID: "b", Kind: finance.KindExpense, Name: "Air", Amount: decimal.NewFromInt(120), Date: day(2025, 1, 3)},
	}, nil)

	l, err := fakeapi.OpenLedger(context.Background(), decimal.NewFromInt(1000), j)
	require.NoError(t, err)

	assert.True(t, decimal.NewFromInt(1180).Equal(l.Balance()))

	_, incomes, expenses := l.Period(day(2025, 1, 1), day(2025, 1, 31))
	assert.Len(t, incomes, 1)
	assert.Len(t, expenses, 1)
}

func TestOpenLedger_JournalUnavailable(t *testing.T) {
	ctrl := gomock.NewController(t)
	j := fakeapi.NewMockJournal(ctrl)

	j.EXPECT().Entries(gomock.Any()).Return(nil, errors.New("connection refused"))

	_, err := fakeapi.OpenLedger(context.Background(), decimal.Zero, j)
	assert.ErrorContains(t, err, "replaying journal")
}

func TestLedger_WritesThroughJournal(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(m *fakeapi.MockJournal)
		run       func(ctx context.Context, l *fakeapi.Ledger, id string) error
		wantErr   bool
		wantBal   int64
	}{
		{
			name: "CreateSaved",
			setupMock: func(m *fakeapi.MockJournal) {
				m.EXPECT().Save(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, tx finance.Transaction) error {
					assert.Equal(t, "Kas kecil", tx.Name)
					assert.NotEmpty(t, tx.ID)
					return nil
				})
			},
			run: func(ctx context.Context, l *fakeapi.Ledger, _ string) error {
				_, _, err := l.Create(ctx, finance.KindIncome, input("  Kas kecil ", 50, day(2025, 1, 5)))
				return err
			},
			wantBal: 150,
		},
		{
			name: "CreateFailureLeavesLedger",
			setupMock: func(m *fakeapi.MockJournal) {
				m.EXPECT().Save(gomock.Any(), gomock.Any()).Return(errors.New("disk full"))
			},
			run: func(ctx context.Context, l *fakeapi.Ledger, _ string) error {
				_, _, err := l.Create(ctx, finance.KindIncome, input("Kas", 50, day(2025, 1, 5)))
				return err
			},
			wantErr: true,
			wantBal: 100,
		},
		{
			name: "RemoveFailureKeepsEntry",
			setupMock: func(m *fakeapi.MockJournal) {
				m.EXPECT().Remove(gomock.Any(), "seed").Return(errors.New("timeout"))
			},
			run: func(ctx context.Context, l *fakeapi.Ledger, id string) error {
				_, err := l.Delete(ctx, finance.KindExpense, id)
				return err
			},
			wantErr: true,
			wantBal: 100,
		},
		{
			name:      "InvalidInputNeverWritten",
			setupMock: func(m *fakeapi.MockJournal) {},
			run: func(ctx context.Context, l *fakeapi.Ledger, _ string) error {
				_, _, err := l.Create(ctx, finance.KindIncome, finance.TransactionInput{})
				return err
			},
			wantErr: true,
			wantBal: 100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			j := fakeapi.NewMockJournal(ctrl)

			j.EXPECT().Entries(gomock.Any()).Return([]finance.Transaction{
				{ID: "seed", Kind: finance.KindExpense, Name: "Sabun", Amount: decimal.NewFromInt(20), Date: day(2025, 1, 1)},
			}, nil)

			l, err := fakeapi.OpenLedger(context.Background(), decimal.NewFromInt(120), j)
			require.NoError(t, err)

			tt.setupMock(j)

			err = tt.run(context.Background(), l, "seed")
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}

			assert.True(t, decimal.NewFromInt(tt.wantBal).Equal(l.Balance()), "balance %s", l.Balance())
		})
	}
}
