// Package memory provides a seeded in-memory transaction source, used as
// the default backend and as a deterministic fake in tests.
package memory

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"saldo/internal/core"
)

type Store struct {
	mu  sync.Mutex
	txs []core.Transaction
}

func New(txs []core.Transaction) *Store {
	s := &Store{}
	for i, tx := range txs {
		if tx.ID == 0 {
			tx.ID = int64(i + 1)
		}
		s.txs = append(s.txs, tx)
	}
	return s
}

// NewFromFiles seeds the store from <base>/seed_transactions.txt where each
// line is "date|category|amount|type" (amount as a signed decimal, # starts
// a comment). Falls back to a small sample batch when the file is missing
// or empty.
func NewFromFiles(base string) *Store {
	txs := readSeedFile(filepath.Join(base, "seed_transactions.txt"))
	if len(txs) == 0 {
		txs = sampleTransactions()
	}
	return New(txs)
}

// FetchTransactions implements source.TransactionSource. It returns a copy
// of the collection in insertion order.
func (s *Store) FetchTransactions(_ context.Context) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Transaction, len(s.txs))
	copy(out, s.txs)
	return out, nil
}

// Append implements source.TransactionWriter.
func (s *Store) Append(_ context.Context, tx core.Transaction) (int64, error) {
	if err := tx.Validate(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	tx.ID = int64(len(s.txs) + 1)
	s.txs = append(s.txs, tx)
	return tx.ID, nil
}

func readSeedFile(path string) []core.Transaction {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	var out []core.Transaction
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Split(line, "|")
		if len(parts) != 4 {
			continue
		}
		cents, err := core.ParseSignedDecimalToCents(strings.TrimSpace(parts[2]))
		if err != nil {
			continue
		}
		tx := core.Transaction{
			ID:       int64(len(out) + 1),
			Date:     strings.TrimSpace(parts[0]),
			Category: strings.TrimSpace(parts[1]),
			Amount:   core.Money{Cents: cents},
			Type:     core.TransactionType(strings.TrimSpace(strings.ToLower(parts[3]))),
		}
		if err := tx.Validate(); err != nil {
			continue
		}
		out = append(out, tx)
	}
	return out
}

func sampleTransactions() []core.Transaction {
	return []core.Transaction{
		{ID: 1, Amount: core.Money{Cents: 1500}, Category: "Stipendio", Date: "2025-08-01", Type: core.Income},
		{ID: 2, Amount: core.Money{Cents: -200}, Category: "Spesa", Date: "2025-08-03", Type: core.Expense},
		{ID: 3, Amount: core.Money{Cents: -50}, Category: "Trasporti", Date: "2025-08-05", Type: core.Expense},
		{ID: 4, Amount: core.Money{Cents: 2000}, Category: "Consulenza", Date: "2025-08-10", Type: core.Income},
		{ID: 5, Amount: core.Money{Cents: -300}, Category: "Affitto", Date: "2025-08-12", Type: core.Expense},
		{ID: 6, Amount: core.Money{Cents: -75}, Category: "Ristorante", Date: "2025-08-15", Type: core.Expense},
	}
}
