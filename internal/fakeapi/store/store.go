// Package store persists fake backend ledger entries in Postgres.
package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/takmir/kas/internal/finance"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Entries returns every live entry ordered by date.
func (s *Store) Entries(ctx context.Context) ([]finance.Transaction, error) {
	query := `
		SELECT id, kind, name, amount, date, note, method
		FROM ledger_entries
		WHERE deleted_at IS NULL
		ORDER BY date ASC, id ASC
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing entries: %w", err)
	}
	defer rows.Close()

	var txs []finance.Transaction

	for rows.Next() {
		var (
			tx           finance.Transaction
			kind, method string
		)

		if err := rows.Scan(&tx.ID, &kind, &tx.Name, &tx.Amount, &tx.Date, &tx.Note, &method); err != nil {
			return nil, fmt.Errorf("scanning entry: %w", err)
		}

		tx.Kind = finance.Kind(kind)
		tx.Method = finance.Method(method)
		tx.Date = finance.Day(tx.Date)

		txs = append(txs, tx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating entries: %w", err)
	}

	return txs, nil
}

// Save inserts tx or replaces the entry with the same id.
func (s *Store) Save(ctx context.Context, tx finance.Transaction) error {
	query := `
		INSERT INTO ledger_entries (id, kind, name, amount, date, note, method, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		ON CONFLICT (id) DO UPDATE
		SET kind = EXCLUDED.kind, name = EXCLUDED.name, amount = EXCLUDED.amount, date = EXCLUDED.date,
			note = EXCLUDED.note, method = EXCLUDED.method, updated_at = NOW(), deleted_at = NULL
	`

	_, err := s.db.ExecContext(ctx, query,
		tx.ID,
		string(tx.Kind),
		tx.Name,
		tx.Amount,
		tx.Date,
		tx.Note,
		string(tx.Method),
	)
	if err != nil {
		return fmt.Errorf("saving entry: %w", err)
	}

	return nil
}

// Remove soft deletes the entry.
func (s *Store) Remove(ctx context.Context, id string) error {
	query := `
		UPDATE ledger_entries
		SET deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`

	if _, err := s.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("removing entry: %w", err)
	}

	return nil
}
