// Package expiry moves anchored records past their expiry to Expired in the
// background, so records nobody reads still leave the anchored set.
package expiry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"vaultledger/pkg/requestcontext"
)

// Expirer expires up to limit due records and reports how many changed.
type Expirer interface {
	ExpireDue(ctx context.Context, limit int) (int, error)
}

// Sweeper periodically expires due records.
type Sweeper struct {
	records   Expirer
	interval  time.Duration
	batchSize int
	now       func() time.Time
	logger    *slog.Logger
}

// Option configures the Sweeper.
type Option func(*Sweeper)

// WithInterval overrides the sweep interval when greater than zero.
func WithInterval(interval time.Duration) Option {
	return func(s *Sweeper) {
		if interval > 0 {
			s.interval = interval
		}
	}
}

// WithBatchSize bounds the records expired per batch.
func WithBatchSize(n int) Option {
	return func(s *Sweeper) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Sweeper) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger overrides the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Sweeper) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a Sweeper.
func New(records Expirer, opts ...Option) (*Sweeper, error) {
	if records == nil {
		return nil, fmt.Errorf("record expirer is required")
	}
	s := &Sweeper{
		records:   records,
		interval:  time.Minute,
		batchSize: 500,
		now:       time.Now,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// Start sweeps periodically until ctx is cancelled.
func (s *Sweeper) Start(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			n, err := s.RunOnce(ctx)
			if err != nil {
				s.logger.ErrorContext(ctx, "expiry sweep failed", "error", err, "expired", n)
				continue
			}
			if n > 0 {
				s.logger.InfoContext(ctx, "expired records", "count", n)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// RunOnce expires due records in batches until a batch comes back short.
// The sweep time is pinned once so every record in the sweep sees the same
// "now".
func (s *Sweeper) RunOnce(ctx context.Context) (int, error) {
	ctx = requestcontext.WithTime(ctx, s.now())
	total := 0
	for {
		n, err := s.records.ExpireDue(ctx, s.batchSize)
		total += n
		if err != nil {
			return total, err
		}
		if n < s.batchSize {
			return total, nil
		}
		if err := ctx.Err(); err != nil {
			return total, err
		}
	}
}
