// Package loader owns the transaction collection's loading lifecycle:
// Idle -> Loading -> Ready | Failed. Ready and Failed are stable rest
// states; only an explicit Load re-enters Loading.
package loader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"saldo/internal/core"
	"saldo/internal/source"

	"golang.org/x/sync/singleflight"
)

type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseLoading Phase = "loading"
	PhaseReady   Phase = "ready"
	PhaseFailed  Phase = "failed"
)

// Snapshot is a read-only view of the lifecycle for consumers. Transactions
// are a copy; mutating them does not affect the loader.
type Snapshot struct {
	Phase        Phase
	Transactions []core.Transaction
	Summary      core.Summary
	Err          error
	Generation   uint64
	LoadedAt     time.Time
}

// RefreshPublisher is notified after each successful load. A nil publisher
// disables notifications; publish failures are logged, never propagated.
type RefreshPublisher interface {
	PublishRefreshed(ctx context.Context, generation uint64, count int) error
}

// Config holds loader configuration
type Config struct {
	// FetchTimeout bounds a single fetch; zero means no timeout.
	FetchTimeout time.Duration

	// OnPhaseChange, when set, observes every transition. Called outside
	// the loader's lock, in the loading goroutine.
	OnPhaseChange func(Phase)
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		FetchTimeout: 15 * time.Second,
	}
}

// Loader drives the fetch lifecycle over a TransactionSource. All mutable
// state is owned here; consumers only ever read snapshots.
type Loader struct {
	src       source.TransactionSource
	publisher RefreshPublisher
	config    Config

	// group coalesces concurrent triggers so at most one fetch is
	// outstanding per loader instance.
	group singleflight.Group

	mu          sync.Mutex
	phase       Phase
	txs         []core.Transaction
	summary     core.Summary
	err         error
	issued      uint64 // generation of the latest fetch issued
	settled     uint64 // generation of the collection currently held
	settledOnce bool
	loadedAt    time.Time
}

func New(src source.TransactionSource, publisher RefreshPublisher, config Config) *Loader {
	return &Loader{
		src:       src,
		publisher: publisher,
		config:    config,
		phase:     PhaseIdle,
	}
}

// Start activates the lifecycle: the first load is issued immediately in a
// background goroutine, moving Idle to Loading without a manual trigger.
func (l *Loader) Start(ctx context.Context) {
	go func() {
		if err := l.Load(ctx); err != nil {
			slog.ErrorContext(ctx, "Initial transaction load failed", "error", err)
		}
	}()
}

// Load fetches the collection and settles into Ready or Failed. Concurrent
// calls coalesce onto the in-flight fetch and share its outcome. The
// returned error, if any, matches source.ErrUnavailable.
func (l *Loader) Load(ctx context.Context) error {
	_, err, _ := l.group.Do("fetch", func() (any, error) {
		return nil, l.doLoad(ctx)
	})
	return err
}

// Reload is the manual re-trigger; the previous collection is discarded
// wholesale on success, never merged.
func (l *Loader) Reload(ctx context.Context) error {
	return l.Load(ctx)
}

func (l *Loader) doLoad(ctx context.Context) error {
	l.mu.Lock()
	l.issued++
	gen := l.issued
	l.phase = PhaseLoading
	hook := l.config.OnPhaseChange
	l.mu.Unlock()

	if hook != nil {
		hook(PhaseLoading)
	}

	fetchCtx := ctx
	if l.config.FetchTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, l.config.FetchTimeout)
		defer cancel()
	}

	txs, err := l.src.FetchTransactions(fetchCtx)

	l.mu.Lock()
	if gen != l.issued {
		// A newer fetch was issued while this one was in flight; its
		// settlement wins and this one is discarded.
		l.mu.Unlock()
		slog.DebugContext(ctx, "Discarded stale fetch settlement",
			"generation", gen, "latest", l.latestIssued())
		return nil
	}

	if err != nil {
		if !errors.Is(err, source.ErrUnavailable) {
			err = fmt.Errorf("%w: %v", source.ErrUnavailable, err)
		}
		l.err = err
		l.phase = PhaseFailed
		l.settledOnce = true
		l.mu.Unlock()

		slog.ErrorContext(ctx, "Transaction fetch failed",
			"generation", gen, "error", err)
		if hook != nil {
			hook(PhaseFailed)
		}
		return err
	}

	// Summary is derived once per collection; the generation is its
	// cache key for downstream consumers.
	l.txs = txs
	l.summary = core.Summarize(txs)
	l.err = nil
	l.settled = gen
	l.settledOnce = true
	l.loadedAt = time.Now()
	l.phase = PhaseReady
	pub := l.publisher
	sum := l.summary
	count := len(txs)
	l.mu.Unlock()

	slog.InfoContext(ctx, "Transactions loaded",
		"generation", gen,
		"count", count,
		"income_cents", sum.Income.Cents,
		"expenses_cents", sum.Expenses.Cents,
		"balance_cents", sum.Balance.Cents)

	if hook != nil {
		hook(PhaseReady)
	}
	if pub != nil {
		if perr := pub.PublishRefreshed(ctx, gen, count); perr != nil {
			slog.WarnContext(ctx, "Failed to publish refresh event",
				"generation", gen, "error", perr)
		}
	}
	return nil
}

// Phase returns the current lifecycle phase.
func (l *Loader) Phase() Phase {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.phase
}

// HasSettled reports whether at least one fetch has reached Ready or Failed.
func (l *Loader) HasSettled() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.settledOnce
}

// Snapshot returns the current phase together with the collection and its
// summary. Safe to call from any goroutine.
func (l *Loader) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()

	txs := make([]core.Transaction, len(l.txs))
	copy(txs, l.txs)

	return Snapshot{
		Phase:        l.phase,
		Transactions: txs,
		Summary:      l.summary,
		Err:          l.err,
		Generation:   l.settled,
		LoadedAt:     l.loadedAt,
	}
}

func (l *Loader) latestIssued() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.issued
}
