// Package anchortable is the idempotency table keyed by record id. It is the
// only mutable state the ledger anchor owns.
package anchortable

import (
	"context"

	"vaultledger/internal/ledger/models"
	dErrors "vaultledger/pkg/domain-errors"
)

var (
	// ErrNotFound is returned when no transaction exists for a record id.
	ErrNotFound = dErrors.New(dErrors.CodeNotFound, "anchor transaction not found")
	// ErrStatusChanged is returned by CompareAndSet when the stored entry no
	// longer matches the expected status or generation.
	ErrStatusChanged = dErrors.New(dErrors.CodeConflict, "anchor transaction changed concurrently")
)

// Table stores one transaction per record id.
type Table interface {
	// Get returns the transaction for recordID or ErrNotFound.
	Get(ctx context.Context, recordID string) (*models.Transaction, error)

	// Reserve inserts tx when no entry exists for tx.RecordID, or when the
	// existing entry satisfies replaceable. On replace, tx.Generation is set
	// one above the replaced entry. It returns the entry now stored and
	// whether tx was written.
	Reserve(ctx context.Context, tx *models.Transaction, replaceable func(existing *models.Transaction) bool) (*models.Transaction, bool, error)

	// CompareAndSet replaces the entry for next.RecordID only if the stored
	// entry has status expect and the same generation as next.
	CompareAndSet(ctx context.Context, expect models.Status, next *models.Transaction) error

	// ListByStatus returns all transactions in status, ordered by record id.
	ListByStatus(ctx context.Context, status models.Status) ([]*models.Transaction, error)
}

func matches(current *models.Transaction, expect models.Status, next *models.Transaction) bool {
	return current.Status == expect && current.Generation == next.Generation
}
