// Package worker records an audit trail of settled totals. It consumes
// refresh events and appends one summary row per collection generation.
package worker

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"saldo/internal/amqp"
	"saldo/internal/core"
	"saldo/internal/source"
	"saldo/internal/storage"
)

// SummaryStore is the slice of the SQLite repository the worker needs.
type SummaryStore interface {
	RecordSummary(ctx context.Context, generation uint64, s core.Summary, txCount int) error
	LatestSummary(ctx context.Context) (storage.SummaryRecord, error)
}

// RefreshWorker turns refresh events into summary_log rows.
type RefreshWorker struct {
	store SummaryStore
	src   source.TransactionSource
}

func NewRefreshWorker(store SummaryStore, src source.TransactionSource) *RefreshWorker {
	return &RefreshWorker{
		store: store,
		src:   src,
	}
}

// HandleRefreshMessage processes a single refresh event: fetch the current
// collection, derive its totals, and record them. Generations at or below
// the last recorded one are duplicates or stale deliveries and are skipped.
func (w *RefreshWorker) HandleRefreshMessage(msg *amqp.RefreshMessage) error {
	ctx := context.Background()

	slog.InfoContext(ctx, "Processing refresh message",
		"generation", msg.Generation,
		"count", msg.Count)

	latest, err := w.store.LatestSummary(ctx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("read latest summary: %w", err)
	}
	if err == nil && latest.Generation >= msg.Generation {
		slog.InfoContext(ctx, "Skipping already recorded generation",
			"generation", msg.Generation,
			"recorded", latest.Generation)
		return nil
	}

	txs, err := w.src.FetchTransactions(ctx)
	if err != nil {
		return fmt.Errorf("fetch transactions: %w", err)
	}

	summary := core.Summarize(txs)
	if err := w.store.RecordSummary(ctx, msg.Generation, summary, len(txs)); err != nil {
		return fmt.Errorf("record summary: %w", err)
	}

	slog.InfoContext(ctx, "Summary recorded",
		"generation", msg.Generation,
		"tx_count", len(txs),
		"income_cents", summary.Income.Cents,
		"expenses_cents", summary.Expenses.Cents,
		"balance_cents", summary.Balance.Cents)

	return nil
}
