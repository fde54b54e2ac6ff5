package core

import (
	"errors"
	"strings"
	"testing"
)

func TestTransactionTypeIsValid(t *testing.T) {
	if !Income.IsValid() || !Expense.IsValid() {
		t.Fatal("income and expense must be valid types")
	}
	if TransactionType("transfer").IsValid() {
		t.Fatal("unknown variant must not be valid")
	}
	if TransactionType("").IsValid() {
		t.Fatal("empty type must not be valid")
	}
}

func TestTransactionValidate(t *testing.T) {
	valid := Transaction{
		ID:       1,
		Amount:   Money{Cents: -1250},
		Category: "food",
		Date:     "2025-03-14",
		Type:     Expense,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid transaction rejected: %v", err)
	}

	cases := []struct {
		name    string
		mutate  func(*Transaction)
		wantErr error
	}{
		{"bad type", func(tx *Transaction) { tx.Type = "transfer" }, ErrInvalidType},
		{"empty category", func(tx *Transaction) { tx.Category = "  " }, ErrEmptyCategory},
		{"empty date", func(tx *Transaction) { tx.Date = "" }, ErrEmptyDate},
	}
	for _, tc := range cases {
		tx := valid
		tc.mutate(&tx)
		if err := tx.Validate(); !errors.Is(err, tc.wantErr) {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.wantErr, err)
		}
	}

	tx := valid
	tx.Category = strings.Repeat("x", 201)
	if err := tx.Validate(); err == nil {
		t.Error("overlong category should be rejected")
	}
}

func TestTransactionValidateZeroAmount(t *testing.T) {
	// A zero amount is valid; it contributes nothing to its bucket.
	tx := Transaction{Amount: Money{}, Category: "misc", Date: "2025-01-01", Type: Income}
	if err := tx.Validate(); err != nil {
		t.Fatalf("zero amount should validate: %v", err)
	}
}
