package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"saldo/internal/core"
)

func TestStoreFetchPreservesOrder(t *testing.T) {
	s := New([]core.Transaction{
		{Amount: core.Money{Cents: 100}, Category: "a", Date: "2025-01-01", Type: core.Income},
		{Amount: core.Money{Cents: -30}, Category: "b", Date: "2025-01-02", Type: core.Expense},
	})
	txs, err := s.FetchTransactions(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(txs) != 2 || txs[0].Category != "a" || txs[1].Category != "b" {
		t.Fatalf("unexpected order or contents: %+v", txs)
	}
	if txs[0].ID != 1 || txs[1].ID != 2 {
		t.Fatalf("expected sequential IDs, got %d, %d", txs[0].ID, txs[1].ID)
	}

	// Mutating the returned slice must not affect the store.
	txs[0].Category = "mutated"
	again, _ := s.FetchTransactions(context.Background())
	if again[0].Category != "a" {
		t.Fatal("fetch must return a copy")
	}
}

func TestStoreAppend(t *testing.T) {
	s := New(nil)
	id, err := s.Append(context.Background(), core.Transaction{
		Amount: core.Money{Cents: -999}, Category: "food", Date: "2025-02-02", Type: core.Expense,
	})
	if err != nil || id != 1 {
		t.Fatalf("unexpected append: id=%d err=%v", id, err)
	}

	_, err = s.Append(context.Background(), core.Transaction{
		Amount: core.Money{Cents: 1}, Category: "", Date: "2025-02-02", Type: core.Income,
	})
	if err == nil {
		t.Fatal("invalid transaction should be rejected")
	}
}

func TestNewFromFilesSeedsAndSkipsBadLines(t *testing.T) {
	dir := t.TempDir()

	// No file -> sample batch
	s := NewFromFiles(dir)
	txs, _ := s.FetchTransactions(context.Background())
	if len(txs) == 0 {
		t.Fatal("expected sample data when seed file is missing")
	}
	if got := core.Summarize(txs); got.Balance.Cents != 2875 {
		t.Fatalf("sample batch balance: expected 2875, got %d", got.Balance.Cents)
	}

	seed := "# date|category|amount|type\n" +
		"2025-01-02|Salary|1500.00|income\n" +
		"2025-01-03|Groceries|-42,50|expense\n" +
		"not a record\n" +
		"2025-01-04|Broken|abc|expense\n" +
		"\n"
	if err := os.WriteFile(filepath.Join(dir, "seed_transactions.txt"), []byte(seed), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}

	s = NewFromFiles(dir)
	txs, _ = s.FetchTransactions(context.Background())
	if len(txs) != 2 {
		t.Fatalf("expected 2 seeded transactions, got %d: %+v", len(txs), txs)
	}
	if txs[1].Amount.Cents != -4250 {
		t.Fatalf("decimal comma amount: expected -4250, got %d", txs[1].Amount.Cents)
	}
}
