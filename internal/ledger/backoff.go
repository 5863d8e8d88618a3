package ledger

import (
	"context"
	"time"

	dErrors "vaultledger/pkg/domain-errors"
)

// BackoffConfig configures retry backoff for retryable submission errors.
// Zero delays and multiplier take their defaults. MaxRetries is taken as
// given: zero sends once and never retries.
type BackoffConfig struct {
	InitialDelay time.Duration // Initial delay before first retry (default: 200ms)
	MaxDelay     time.Duration // Maximum delay between retries (default: 5s)
	MaxRetries   int           // Retries after the first attempt (DefaultBackoff: 4)
	Multiplier   float64       // Multiplier for exponential backoff (default: 2.0)
}

// DefaultBackoff returns the recommended settings.
func DefaultBackoff() BackoffConfig {
	return BackoffConfig{
		InitialDelay: 200 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		MaxRetries:   4,
		Multiplier:   2.0,
	}
}

func (b BackoffConfig) withDefaults() BackoffConfig {
	d := DefaultBackoff()
	if b.InitialDelay == 0 {
		b.InitialDelay = d.InitialDelay
	}
	if b.MaxDelay == 0 {
		b.MaxDelay = d.MaxDelay
	}
	if b.Multiplier == 0 {
		b.Multiplier = d.Multiplier
	}
	return b
}

// Validate rejects inconsistent settings.
func (b BackoffConfig) Validate() error {
	switch {
	case b.InitialDelay < 0 || b.MaxDelay < 0:
		return dErrors.New(dErrors.CodeValidation, "backoff delays must not be negative")
	case b.MaxDelay != 0 && b.InitialDelay > b.MaxDelay:
		return dErrors.New(dErrors.CodeValidation, "backoff initial delay exceeds max delay")
	case b.MaxRetries < 0:
		return dErrors.New(dErrors.CodeValidation, "backoff max retries must not be negative")
	case b.Multiplier != 0 && b.Multiplier < 1:
		return dErrors.New(dErrors.CodeValidation, "backoff multiplier must be at least 1")
	}
	return nil
}

// next returns the delay that follows d.
func (b BackoffConfig) next(d time.Duration) time.Duration {
	d = time.Duration(float64(d) * b.Multiplier)
	if d > b.MaxDelay {
		d = b.MaxDelay
	}
	return d
}

// sleepCtx waits for d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
