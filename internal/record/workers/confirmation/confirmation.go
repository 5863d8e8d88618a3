// Package confirmation settles anchors whose confirmation timed out during
// the request that submitted them.
package confirmation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	ledgermodels "vaultledger/internal/ledger/models"
	dErrors "vaultledger/pkg/domain-errors"
)

// PendingLister lists anchor transactions still awaiting a receipt.
type PendingLister interface {
	ListPending(ctx context.Context) ([]*ledgermodels.Transaction, error)
}

// Settler waits for one record's anchor and promotes the record when it
// confirms.
type Settler interface {
	SettleAnchor(ctx context.Context, recordID string, timeout time.Duration) (*ledgermodels.Transaction, error)
}

// Metrics receives the pending backlog size.
type Metrics interface {
	SetPendingAnchors(n int)
}

// Result summarizes one sweep.
type Result struct {
	Pending   int
	Confirmed int
	Failed    int
	Skipped   int
}

// Worker polls pending anchors and settles them with bounded concurrency.
type Worker struct {
	pending     PendingLister
	settler     Settler
	interval    time.Duration
	concurrency int64
	waitTimeout time.Duration
	metrics     Metrics
	logger      *slog.Logger
}

// Option configures the Worker.
type Option func(*Worker)

// WithInterval overrides the polling interval when greater than zero.
func WithInterval(interval time.Duration) Option {
	return func(w *Worker) {
		if interval > 0 {
			w.interval = interval
		}
	}
}

// WithConcurrency bounds how many anchors are awaited at once.
func WithConcurrency(n int) Option {
	return func(w *Worker) {
		if n > 0 {
			w.concurrency = int64(n)
		}
	}
}

// WithWaitTimeout bounds the wait for a single receipt.
func WithWaitTimeout(d time.Duration) Option {
	return func(w *Worker) {
		if d > 0 {
			w.waitTimeout = d
		}
	}
}

// WithMetrics configures the metrics sink.
func WithMetrics(m Metrics) Option {
	return func(w *Worker) {
		w.metrics = m
	}
}

// WithLogger overrides the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Worker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// New constructs a Worker.
func New(pending PendingLister, settler Settler, opts ...Option) (*Worker, error) {
	if pending == nil || settler == nil {
		return nil, fmt.Errorf("pending lister and settler are required")
	}
	w := &Worker{
		pending:     pending,
		settler:     settler,
		interval:    15 * time.Second,
		concurrency: 4,
		waitTimeout: 5 * time.Second,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}
	return w, nil
}

// Start sweeps periodically until ctx is cancelled.
func (w *Worker) Start(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			res, err := w.RunOnce(ctx)
			if err != nil {
				w.logger.ErrorContext(ctx, "confirmation sweep failed", "error", err)
				continue
			}
			if res.Pending > 0 {
				w.logger.InfoContext(ctx, "confirmation sweep",
					"pending", res.Pending,
					"confirmed", res.Confirmed,
					"failed", res.Failed,
					"skipped", res.Skipped,
				)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// RunOnce settles every currently pending anchor. A record busy with a
// request is skipped and picked up by a later sweep.
func (w *Worker) RunOnce(ctx context.Context) (Result, error) {
	txs, err := w.pending.ListPending(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("list pending anchors: %w", err)
	}

	var (
		mu   sync.Mutex
		res  = Result{Pending: len(txs)}
		errs []error
		wg   sync.WaitGroup
	)
	sem := semaphore.NewWeighted(w.concurrency)
	for _, tx := range txs {
		if err := sem.Acquire(ctx, 1); err != nil {
			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
			break
		}
		wg.Go(func() {
			defer sem.Release(1)
			settled, err := w.settler.SettleAnchor(ctx, tx.RecordID, w.waitTimeout)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case dErrors.HasCode(err, dErrors.CodeConflict):
				res.Skipped++
			case dErrors.HasCode(err, dErrors.CodeAnchorFailed):
				res.Failed++
				w.logger.WarnContext(ctx, "pending anchor failed", "record_id", tx.RecordID, "error", err)
			case err != nil:
				res.Failed++
				errs = append(errs, fmt.Errorf("settle %s: %w", tx.RecordID, err))
			case settled.Status == ledgermodels.StatusConfirmed:
				res.Confirmed++
			case settled.Status == ledgermodels.StatusFailed:
				res.Failed++
			}
		})
	}
	wg.Wait()

	if w.metrics != nil {
		w.metrics.SetPendingAnchors(res.Pending - res.Confirmed - res.Failed)
	}
	return res, errors.Join(errs...)
}
