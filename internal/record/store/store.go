package store

import (
	"context"
	"time"

	"vaultledger/internal/record/models"
	id "vaultledger/pkg/domain"
	pkgerrors "vaultledger/pkg/domain-errors"
)

var (
	// ErrNotFound keeps storage-specific 404s consistent across implementations.
	ErrNotFound = pkgerrors.New(pkgerrors.CodeNotFound, "record not found")
	// ErrAlreadyExists is returned by Create when the record id is taken.
	ErrAlreadyExists = pkgerrors.New(pkgerrors.CodeConflict, "record already exists")
)

// UpdateFunc receives a copy of the stored record and returns its
// replacement. Returning nil leaves the record unchanged.
type UpdateFunc func(current *models.Record) (*models.Record, error)

// Store persists records. The owner of a record never changes.
type Store interface {
	Create(ctx context.Context, record *models.Record) error
	Save(ctx context.Context, record *models.Record) error
	FindByID(ctx context.Context, recordID id.RecordID) (*models.Record, error)
	// Update applies fn atomically with respect to other Updates of the same record.
	Update(ctx context.Context, recordID id.RecordID, fn UpdateFunc) (*models.Record, error)
	ListByOwner(ctx context.Context, owner id.OwnerID) ([]*models.Record, error)
	// ListExpirable returns anchored records whose expiry is before now.
	ListExpirable(ctx context.Context, now time.Time, limit int) ([]*models.Record, error)
}

func expirable(r *models.Record, now time.Time) bool {
	return r.Status == models.StatusAnchored && r.IsExpiredAt(now)
}
