// Package ledger binds record ids to content hashes on a blockchain.
//
// The anchor owns the idempotency table: a record id is reserved locally
// before anything is sent, so retries with the same content are no-ops and
// retries with different content are refused until the binding is revoked.
package ledger

import (
	"context"
	"errors"
	"log/slog"
	"maps"
	"time"

	"vaultledger/internal/ledger/anchortable"
	"vaultledger/internal/ledger/chain"
	"vaultledger/internal/ledger/models"
	dErrors "vaultledger/pkg/domain-errors"
	psync "vaultledger/pkg/platform/sync"
)

// DefaultConfirmTimeout is used by AwaitConfirmation when timeout is zero.
const DefaultConfirmTimeout = 30 * time.Second

// Metrics receives anchor observations.
type Metrics interface {
	IncAnchorSubmitted()
	IncAnchorConfirmed()
	IncAnchorFailed(reason string)
	IncAnchorConflict()
	IncSubmissionRetry(category string)
	ObserveConfirmationLatency(d time.Duration)
}

// Config configures the anchor.
type Config struct {
	// Address is the sender account used for nonces.
	Address        string
	Backoff        BackoffConfig
	ConfirmTimeout time.Duration
}

// Anchor submits and confirms anchor transactions.
type Anchor struct {
	client  chain.Client
	table   anchortable.Table
	locks   *psync.ShardedMutex
	cfg     Config
	logger  *slog.Logger
	metrics Metrics
	now     func() time.Time
	sleep   func(context.Context, time.Duration) error
}

// Option configures the Anchor.
type Option func(*Anchor)

// WithLogger sets the logger for the anchor.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Anchor) {
		a.logger = logger
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m Metrics) Option {
	return func(a *Anchor) {
		a.metrics = m
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(a *Anchor) {
		if now != nil {
			a.now = now
		}
	}
}

// WithSleep overrides the backoff wait (tests).
func WithSleep(sleep func(context.Context, time.Duration) error) Option {
	return func(a *Anchor) {
		if sleep != nil {
			a.sleep = sleep
		}
	}
}

// New creates an anchor over client and table.
func New(client chain.Client, table anchortable.Table, cfg Config, opts ...Option) *Anchor {
	cfg.Backoff = cfg.Backoff.withDefaults()
	if cfg.ConfirmTimeout <= 0 {
		cfg.ConfirmTimeout = DefaultConfirmTimeout
	}
	a := &Anchor{
		client: client,
		table:  table,
		locks:  psync.NewShardedMutex(),
		cfg:    cfg,
		logger: slog.Default(),
		now:    time.Now,
		sleep:  sleepCtx,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Submit anchors contentHash under recordID.
//
// An existing binding with the same hash is returned unchanged and nothing is
// sent. An existing binding with a different hash fails with ErrConflict and
// leaves the table untouched. Failed or revoked entries are replaced. An
// orphaned entry with the same hash is sent again.
//
// The record lock is held from reservation until the send is recorded, so
// an orphaned entry observed under it was left by an earlier failure.
func (a *Anchor) Submit(ctx context.Context, recordID string, contentHash models.ContentHash, meta models.Metadata) (*models.Transaction, error) {
	if recordID == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "record id is required")
	}
	if contentHash.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "content hash is required")
	}

	a.locks.Lock(recordID)
	defer a.locks.Unlock(recordID)

	tx, reserved, err := a.reserve(ctx, recordID, contentHash, meta)
	if err != nil {
		return nil, err
	}
	if !reserved {
		return tx, nil
	}
	if a.metrics != nil {
		a.metrics.IncAnchorSubmitted()
	}
	return a.send(ctx, tx)
}

// reserve claims the record id; the caller holds its lock. It returns the
// stored entry and whether it still has to be sent.
func (a *Anchor) reserve(ctx context.Context, recordID string, contentHash models.ContentHash, meta models.Metadata) (*models.Transaction, bool, error) {
	candidate := &models.Transaction{
		RecordID:    recordID,
		ContentHash: contentHash,
		ContentID:   meta.ContentID,
		Attributes:  maps.Clone(meta.Attributes),
		Status:      models.StatusPending,
		SubmittedAt: a.now(),
	}
	stored, reserved, err := a.table.Reserve(ctx, candidate, func(existing *models.Transaction) bool {
		return !existing.Binds()
	})
	if err != nil {
		return nil, false, err
	}
	if reserved {
		return stored, true, nil
	}
	if stored.Orphaned() && stored.ContentHash == contentHash {
		a.logger.WarnContext(ctx, "resubmitting anchor whose send was never recorded",
			"record_id", recordID,
			"generation", stored.Generation,
		)
		return stored, true, nil
	}
	if stored.ContentHash != contentHash {
		if a.metrics != nil {
			a.metrics.IncAnchorConflict()
		}
		a.logger.WarnContext(ctx, "anchor conflict",
			"record_id", recordID,
			"bound_hash", stored.ContentHash.Hex(),
			"requested_hash", contentHash.Hex(),
		)
		return nil, false, dErrors.Wrap(ErrConflict, dErrors.CodeConflict,
			"record "+recordID+" is already anchored to "+stored.ContentHash.Hex())
	}
	return stored, false, nil
}

// send submits tx with bounded exponential backoff. Exhausted or permanent
// failures mark the entry Failed and return ErrAnchorFailed.
func (a *Anchor) send(ctx context.Context, tx *models.Transaction) (*models.Transaction, error) {
	fields := chain.Fields{
		From:        a.cfg.Address,
		Action:      chain.ActionAnchor,
		RecordID:    tx.RecordID,
		ContentHash: tx.ContentHash,
		ContentID:   tx.ContentID,
		Attributes:  tx.Attributes,
	}

	receipt, attempts, err := a.sendWithBackoff(ctx, fields)
	next := tx.Clone()
	next.Attempts = attempts
	if err != nil {
		return a.fail(ctx, next, "submit", err)
	}

	next.TxHash = receipt.TxHash
	next.Nonce = receipt.nonce
	if err := a.table.CompareAndSet(ctx, models.StatusPending, next); err != nil {
		if a.metrics != nil {
			a.metrics.IncAnchorFailed("record")
		}
		a.logger.ErrorContext(ctx, "anchor sent but not recorded",
			"record_id", next.RecordID,
			"tx_hash", next.TxHash,
			"error", err,
		)
		return nil, &dErrors.Error{
			Code:    dErrors.CodeAnchorFailed,
			Message: "anchor for record " + next.RecordID + " was sent as " + next.TxHash + " but not recorded; submit it again to resume",
			Err:     err,
		}
	}
	a.logger.InfoContext(ctx, "anchor submitted",
		"record_id", next.RecordID,
		"tx_hash", next.TxHash,
		"attempts", next.Attempts,
	)
	return next, nil
}

type sentReceipt struct {
	*chain.Receipt
	nonce uint64
}

func (a *Anchor) sendWithBackoff(ctx context.Context, fields chain.Fields) (sentReceipt, int, error) {
	var lastErr error
	delay := a.cfg.Backoff.InitialDelay

	for attempt := 0; attempt <= a.cfg.Backoff.MaxRetries; attempt++ {
		if attempt > 0 {
			if err := a.sleep(ctx, delay); err != nil {
				return sentReceipt{}, attempt, errors.Join(lastErr, err)
			}
			delay = a.cfg.Backoff.next(delay)
		}

		nonce, err := a.client.GetTransactionCount(ctx, fields.From)
		if err == nil {
			fields.Nonce = nonce
			var receipt *chain.Receipt
			receipt, err = a.client.SendTransaction(ctx, fields)
			if err == nil {
				return sentReceipt{Receipt: receipt, nonce: nonce}, attempt + 1, nil
			}
		}
		lastErr = err

		if !chain.IsRetryable(err) {
			return sentReceipt{}, attempt + 1, err
		}
		if a.metrics != nil {
			a.metrics.IncSubmissionRetry(string(chain.GetCategory(err)))
		}
		a.logger.WarnContext(ctx, "anchor submission failed, retrying",
			"record_id", fields.RecordID,
			"attempt", attempt+1,
			"category", chain.GetCategory(err),
			"error", err,
		)
	}
	return sentReceipt{}, a.cfg.Backoff.MaxRetries + 1, lastErr
}

// fail moves next from Pending to Failed and returns ErrAnchorFailed.
func (a *Anchor) fail(ctx context.Context, next *models.Transaction, stage string, cause error) (*models.Transaction, error) {
	next.Status = models.StatusFailed
	next.FailureReason = cause.Error()
	if err := a.table.CompareAndSet(ctx, models.StatusPending, next); err != nil {
		return nil, errors.Join(
			dErrors.Wrap(cause, dErrors.CodeAnchorFailed, "anchor "+stage+" failed"),
			err,
		)
	}
	if a.metrics != nil {
		a.metrics.IncAnchorFailed(stage)
	}
	a.logger.ErrorContext(ctx, "anchor failed",
		"record_id", next.RecordID,
		"stage", stage,
		"attempts", next.Attempts,
		"error", cause,
	)
	return next, &dErrors.Error{
		Code:    dErrors.CodeAnchorFailed,
		Message: "anchor " + stage + " failed for record " + next.RecordID,
		Err:     cause,
	}
}

// AwaitConfirmation waits up to timeout for tx's receipt. A timeout or an
// expired context returns the transaction still Pending with no error. A
// successful receipt confirms it; a reverted one fails it.
func (a *Anchor) AwaitConfirmation(ctx context.Context, tx *models.Transaction, timeout time.Duration) (*models.Transaction, error) {
	if tx == nil {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "transaction is required")
	}
	if timeout <= 0 {
		timeout = a.cfg.ConfirmTimeout
	}

	current, err := a.table.Get(ctx, tx.RecordID)
	if err != nil {
		return nil, err
	}
	if current.Generation != tx.Generation || current.ContentHash != tx.ContentHash {
		return current, dErrors.Wrap(ErrConflict, dErrors.CodeConflict, "anchor for record "+tx.RecordID+" was superseded")
	}
	if current.Orphaned() {
		return current, dErrors.Wrap(ErrNotRecorded, dErrors.CodeAnchorFailed,
			"anchor for record "+tx.RecordID+" has no recorded transaction; submit it again")
	}
	if current.Status != models.StatusPending {
		return current, nil
	}

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	receipt, err := a.client.WaitForReceipt(waitCtx, current.TxHash, timeout)
	switch {
	case errors.Is(err, chain.ErrReceiptTimeout),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		a.logger.InfoContext(ctx, "anchor still pending", "record_id", current.RecordID, "tx_hash", current.TxHash)
		return current, nil
	case err != nil && chain.IsRetryable(err):
		return current, dErrors.Wrap(err, dErrors.CodeTimeout, "ledger unavailable while awaiting receipt")
	case err != nil:
		return a.fail(ctx, current.Clone(), "confirm", err)
	}

	next := current.Clone()
	next.BlockNumber = receipt.BlockNumber
	next.ChainReceipt = receipt.Raw

	switch receipt.Status {
	case chain.ReceiptSuccess:
		confirmedAt := a.now()
		next.Status = models.StatusConfirmed
		next.ConfirmedAt = &confirmedAt
		if err := a.table.CompareAndSet(ctx, models.StatusPending, next); err != nil {
			if errors.Is(err, anchortable.ErrStatusChanged) {
				return a.table.Get(ctx, tx.RecordID)
			}
			return nil, err
		}
		if a.metrics != nil {
			a.metrics.IncAnchorConfirmed()
			a.metrics.ObserveConfirmationLatency(confirmedAt.Sub(next.SubmittedAt))
		}
		a.logger.InfoContext(ctx, "anchor confirmed",
			"record_id", next.RecordID,
			"tx_hash", next.TxHash,
			"block", next.BlockNumber,
		)
		return next, nil
	case chain.ReceiptReverted:
		return a.fail(ctx, next, "confirm", errors.New("transaction "+next.TxHash+" reverted"))
	default:
		return current, nil
	}
}

// Revoke releases the binding for recordID. A confirmed anchor is revoked
// on-chain first; a failed one is released locally. Pending anchors cannot
// be revoked until they settle, except orphaned ones: their send may or may
// not have landed, so a revocation is sent and a revert means nothing was
// bound.
func (a *Anchor) Revoke(ctx context.Context, recordID string) (*models.Transaction, error) {
	a.locks.Lock(recordID)
	defer a.locks.Unlock(recordID)

	current, err := a.table.Get(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if current.IsRevoked() {
		return current, nil
	}

	next := current.Clone()
	switch current.Status {
	case models.StatusPending:
		if !current.Orphaned() {
			return nil, dErrors.New(dErrors.CodeConflict, "anchor for record "+recordID+" is still pending")
		}
		txHash, err := a.revokeOnChain(ctx, current)
		switch {
		case err == nil:
			next.RevokeTxHash = txHash
		case errors.Is(err, errRevokeReverted):
			a.logger.InfoContext(ctx, "orphaned anchor released locally", "record_id", recordID)
		default:
			return nil, err
		}
	case models.StatusConfirmed:
		txHash, err := a.revokeOnChain(ctx, current)
		if err != nil {
			return nil, err
		}
		next.RevokeTxHash = txHash
	}

	revokedAt := a.now()
	next.RevokedAt = &revokedAt
	if err := a.table.CompareAndSet(ctx, current.Status, next); err != nil {
		return nil, err
	}
	return next, nil
}

var errRevokeReverted = errors.New("revocation reverted")

// revokeOnChain sends a revocation for current and waits for it to be mined.
func (a *Anchor) revokeOnChain(ctx context.Context, current *models.Transaction) (string, error) {
	recordID := current.RecordID
	receipt, attempts, err := a.sendWithBackoff(ctx, chain.Fields{
		From:        a.cfg.Address,
		Action:      chain.ActionRevoke,
		RecordID:    recordID,
		ContentHash: current.ContentHash,
		ContentID:   current.ContentID,
	})
	if err != nil {
		return "", &dErrors.Error{
			Code:    dErrors.CodeAnchorFailed,
			Message: "revocation failed for record " + recordID,
			Err:     err,
		}
	}
	mined, err := a.client.WaitForReceipt(ctx, receipt.TxHash, a.cfg.ConfirmTimeout)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeTimeout, "revocation of record "+recordID+" not confirmed")
	}
	if mined.Status != chain.ReceiptSuccess {
		return "", &dErrors.Error{
			Code:    dErrors.CodeAnchorFailed,
			Message: "revocation of record " + recordID + " reverted",
			Err:     errRevokeReverted,
		}
	}
	a.logger.InfoContext(ctx, "anchor revoked on-chain", "record_id", recordID, "tx_hash", receipt.TxHash, "attempts", attempts)
	return receipt.TxHash, nil
}

// Lookup returns the transaction recorded for recordID.
func (a *Anchor) Lookup(ctx context.Context, recordID string) (*models.Transaction, error) {
	return a.table.Get(ctx, recordID)
}

// ListPending returns transactions awaiting confirmation.
func (a *Anchor) ListPending(ctx context.Context) ([]*models.Transaction, error) {
	return a.table.ListByStatus(ctx, models.StatusPending)
}
