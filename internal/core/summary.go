package core

// Summary holds the derived income/expense/balance totals for a collection
// of transactions. It is recomputed from the collection, never stored as a
// source of truth.
type Summary struct {
	Income   Money
	Expenses Money
	Balance  Money
}

// Summarize aggregates a finite sequence of transactions into totals in a
// single linear pass.
//
// Sign treatment derives solely from Type: each amount contributes its
// absolute value to the bucket its type selects, so a malformed sign in the
// source data cannot corrupt the totals. Any type other than income is
// bucketed as expense. The result depends only on the multiset of
// (amount, type) pairs, not on input order.
func Summarize(txs []Transaction) Summary {
	var income, expenses int64
	for _, tx := range txs {
		cents := tx.Amount.Abs().Cents
		if tx.Type == Income {
			income += cents
		} else {
			expenses += cents
		}
	}
	return Summary{
		Income:   Money{Cents: income},
		Expenses: Money{Cents: expenses},
		Balance:  Money{Cents: income - expenses},
	}
}
