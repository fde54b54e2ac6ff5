package worker

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"saldo/internal/amqp"
	"saldo/internal/core"
	"saldo/internal/storage"
)

type fakeStore struct {
	records []storage.SummaryRecord
	failOn  error
}

func (f *fakeStore) RecordSummary(_ context.Context, generation uint64, s core.Summary, txCount int) error {
	if f.failOn != nil {
		return f.failOn
	}
	f.records = append(f.records, storage.SummaryRecord{
		Generation: generation,
		Summary:    s,
		TxCount:    txCount,
	})
	return nil
}

func (f *fakeStore) LatestSummary(_ context.Context) (storage.SummaryRecord, error) {
	if len(f.records) == 0 {
		return storage.SummaryRecord{}, fmt.Errorf("query latest summary: %w", sql.ErrNoRows)
	}
	return f.records[len(f.records)-1], nil
}

type fakeSource struct {
	txs []core.Transaction
	err error
}

func (f *fakeSource) FetchTransactions(_ context.Context) ([]core.Transaction, error) {
	return f.txs, f.err
}

func sampleTxs() []core.Transaction {
	return []core.Transaction{
		{ID: 1, Amount: core.Money{Cents: 100}, Category: "pay", Date: "2025-08-01", Type: core.Income},
		{ID: 2, Amount: core.Money{Cents: -30}, Category: "food", Date: "2025-08-02", Type: core.Expense},
		{ID: 3, Amount: core.Money{Cents: -20}, Category: "bus", Date: "2025-08-02", Type: core.Expense},
	}
}

func TestHandleRefreshMessage(t *testing.T) {
	store := &fakeStore{}
	w := NewRefreshWorker(store, &fakeSource{txs: sampleTxs()})

	if err := w.HandleRefreshMessage(amqp.NewRefreshMessage(1, 3)); err != nil {
		t.Fatalf("handle: %v", err)
	}

	if len(store.records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(store.records))
	}
	rec := store.records[0]
	if rec.Generation != 1 || rec.TxCount != 3 {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if rec.Summary.Income.Cents != 100 || rec.Summary.Expenses.Cents != 50 || rec.Summary.Balance.Cents != 50 {
		t.Fatalf("unexpected summary: %+v", rec.Summary)
	}
}

func TestHandleRefreshMessageSkipsDuplicates(t *testing.T) {
	store := &fakeStore{}
	w := NewRefreshWorker(store, &fakeSource{txs: sampleTxs()})

	if err := w.HandleRefreshMessage(amqp.NewRefreshMessage(2, 3)); err != nil {
		t.Fatalf("handle: %v", err)
	}
	// Redelivery of the same generation, then a stale one.
	if err := w.HandleRefreshMessage(amqp.NewRefreshMessage(2, 3)); err != nil {
		t.Fatalf("redelivery: %v", err)
	}
	if err := w.HandleRefreshMessage(amqp.NewRefreshMessage(1, 3)); err != nil {
		t.Fatalf("stale delivery: %v", err)
	}

	if len(store.records) != 1 {
		t.Fatalf("duplicates must not add records, got %d", len(store.records))
	}
}

func TestHandleRefreshMessageSourceFailure(t *testing.T) {
	store := &fakeStore{}
	w := NewRefreshWorker(store, &fakeSource{err: errors.New("down")})

	if err := w.HandleRefreshMessage(amqp.NewRefreshMessage(1, 0)); err == nil {
		t.Fatal("expected error when source is down")
	}
	if len(store.records) != 0 {
		t.Fatalf("failed fetch must not record, got %d", len(store.records))
	}
}

func TestHandleRefreshMessageStoreFailure(t *testing.T) {
	store := &fakeStore{failOn: errors.New("disk full")}
	w := NewRefreshWorker(store, &fakeSource{txs: sampleTxs()})

	if err := w.HandleRefreshMessage(amqp.NewRefreshMessage(1, 3)); err == nil {
		t.Fatal("expected error when store fails")
	}
}
