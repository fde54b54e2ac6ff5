// Package storage persists transactions and summary snapshots in SQLite.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"saldo/internal/core"
	"saldo/internal/source"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

// SummaryRecord is one row of the summary audit log.
type SummaryRecord struct {
	ID         int64
	Generation uint64
	Summary    core.Summary
	TxCount    int
	RecordedAt time.Time
}

// Ensure interface conformance
var (
	_ source.TransactionSource = (*SQLiteRepository)(nil)
	_ source.TransactionWriter = (*SQLiteRepository)(nil)
)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// FetchTransactions implements source.TransactionSource. Records come back
// in insertion order.
func (r *SQLiteRepository) FetchTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, amount_cents, category, tx_date, tx_type FROM transactions ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("%w: query transactions: %v", source.ErrUnavailable, err)
	}
	defer rows.Close()

	var txs []core.Transaction
	for rows.Next() {
		var tx core.Transaction
		var typ string
		if err := rows.Scan(&tx.ID, &tx.Amount.Cents, &tx.Category, &tx.Date, &typ); err != nil {
			return nil, fmt.Errorf("%w: scan transaction: %v", source.ErrUnavailable, err)
		}
		tx.Type = core.TransactionType(typ)
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate transactions: %v", source.ErrUnavailable, err)
	}
	return txs, nil
}

// Append implements source.TransactionWriter.
func (r *SQLiteRepository) Append(ctx context.Context, tx core.Transaction) (int64, error) {
	if err := tx.Validate(); err != nil {
		return 0, fmt.Errorf("validate transaction: %w", err)
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (amount_cents, category, tx_date, tx_type) VALUES (?, ?, ?, ?)`,
		tx.Amount.Cents, tx.Category, tx.Date, string(tx.Type))
	if err != nil {
		return 0, fmt.Errorf("insert transaction: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", id,
		"category", tx.Category,
		"amount_cents", tx.Amount.Cents,
		"type", tx.Type)

	return id, nil
}

// RecordSummary appends one row to the summary audit log.
func (r *SQLiteRepository) RecordSummary(ctx context.Context, generation uint64, s core.Summary, txCount int) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO summary_log (generation, income_cents, expenses_cents, balance_cents, tx_count)
		 VALUES (?, ?, ?, ?, ?)`,
		int64(generation), s.Income.Cents, s.Expenses.Cents, s.Balance.Cents, txCount)
	if err != nil {
		return fmt.Errorf("insert summary record: %w", err)
	}
	return nil
}

// LatestSummary returns the most recently recorded summary, or sql.ErrNoRows
// wrapped when the log is empty.
func (r *SQLiteRepository) LatestSummary(ctx context.Context) (SummaryRecord, error) {
	var rec SummaryRecord
	var gen int64
	err := r.db.QueryRowContext(ctx,
		`SELECT id, generation, income_cents, expenses_cents, balance_cents, tx_count, recorded_at
		 FROM summary_log ORDER BY id DESC LIMIT 1`).
		Scan(&rec.ID, &gen, &rec.Summary.Income.Cents, &rec.Summary.Expenses.Cents,
			&rec.Summary.Balance.Cents, &rec.TxCount, &rec.RecordedAt)
	if err != nil {
		return SummaryRecord{}, fmt.Errorf("query latest summary: %w", err)
	}
	rec.Generation = uint64(gen)
	return rec, nil
}
