package source

import (
	"context"
	"errors"

	"saldo/internal/core"
)

// ErrUnavailable is the single failure kind the source boundary surfaces.
// Implementations wrap their underlying cause (network, timeout, malformed
// payload) so callers can match with errors.Is while logs keep the detail.
var ErrUnavailable = errors.New("transaction source unavailable")

// Ports for transaction backends.
type (
	// TransactionSource supplies the full transaction collection in one
	// asynchronous call. Order is the source's own and must be preserved
	// by callers.
	TransactionSource interface {
		FetchTransactions(ctx context.Context) ([]core.Transaction, error)
	}

	// TransactionWriter is implemented by backends that accept new records.
	TransactionWriter interface {
		Append(ctx context.Context, tx core.Transaction) (id int64, err error)
	}
)
