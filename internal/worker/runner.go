package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"saldo/internal/amqp"
)

// RefreshConsumer delivers refresh messages to a handler until its context
// is cancelled.
type RefreshConsumer interface {
	ConsumeRefreshed(ctx context.Context, handler func(*amqp.RefreshMessage) error) error
}

// Runner owns the consumption loop around a RefreshWorker.
type Runner struct {
	worker   *RefreshWorker
	consumer RefreshConsumer

	// Lifecycle management
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewRunner(worker *RefreshWorker, consumer RefreshConsumer) *Runner {
	return &Runner{
		worker:   worker,
		consumer: consumer,
	}
}

// Start begins the consumption loop. Returns an error if already running.
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return fmt.Errorf("refresh runner is already running")
	}
	r.running = true
	r.stopCh = make(chan struct{})
	r.doneCh = make(chan struct{})
	stopCh, doneCh := r.stopCh, r.doneCh
	r.mu.Unlock()

	consumeCtx, cancel := context.WithCancel(ctx)
	go func() {
		select {
		case <-stopCh:
		case <-consumeCtx.Done():
		}
		cancel()
	}()

	go func() {
		defer close(doneCh)
		err := r.consumer.ConsumeRefreshed(consumeCtx, r.worker.HandleRefreshMessage)
		if err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("Refresh consumption stopped", "error", err)
		}
	}()

	slog.InfoContext(ctx, "Refresh runner started")
	return nil
}

// Stop gracefully stops the runner and waits for the loop to drain.
func (r *Runner) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return nil
	}
	r.running = false
	stopCh, doneCh := r.stopCh, r.doneCh
	r.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		slog.InfoContext(ctx, "Refresh runner stopped gracefully")
		return nil
	case <-ctx.Done():
		slog.WarnContext(ctx, "Refresh runner stop timed out")
		return ctx.Err()
	}
}
