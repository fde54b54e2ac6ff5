package core

import (
	"errors"
	"strings"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

type (
	// TransactionType encodes the direction of a transaction.
	TransactionType string

	Money struct {
		Cents int64
	}

	// Transaction is one financial event. The amount is signed by the
	// source's convention (income positive, expense negative), but nothing
	// downstream may rely on that convention holding.
	Transaction struct {
		ID       int64
		Amount   Money
		Category string
		Date     string // calendar date as received; never parsed or ordered
		Type     TransactionType
	}
)

var (
	ErrInvalidType   = errors.New("invalid transaction type")
	ErrEmptyCategory = errors.New("empty category")
	ErrEmptyDate     = errors.New("empty date")
)

// IsValid returns true if the type is one of the known variants.
func (t TransactionType) IsValid() bool {
	switch t {
	case Income, Expense:
		return true
	default:
		return false
	}
}

// String implements fmt.Stringer
func (t TransactionType) String() string {
	return string(t)
}

// Validate checks a transaction before it enters a write boundary.
// The aggregation engine deliberately does NOT validate its input.
func (tx Transaction) Validate() error {
	if !tx.Type.IsValid() {
		return ErrInvalidType
	}
	if strings.TrimSpace(tx.Category) == "" {
		return ErrEmptyCategory
	}
	if len(tx.Category) > 200 {
		return errors.New("category too long (max 200 characters)")
	}
	if strings.TrimSpace(tx.Date) == "" {
		return ErrEmptyDate
	}
	return nil
}
