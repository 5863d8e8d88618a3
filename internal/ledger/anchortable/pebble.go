package anchortable

import (
	"context"
	"encoding/json"
	"errors"

	"vaultledger/internal/ledger/models"
	"vaultledger/internal/platform/storage"
	dErrors "vaultledger/pkg/domain-errors"
)

var keyPrefix = []byte("anchor/")

// Pebble persists the table in the shared pebble store, one JSON value per
// record id. Atomicity comes from storage.Update's per-key lock.
type Pebble struct {
	db *storage.Storage
}

// NewPebble creates a table over db.
func NewPebble(db *storage.Storage) *Pebble {
	return &Pebble{db: db}
}

func key(recordID string) []byte {
	return append(append([]byte(nil), keyPrefix...), recordID...)
}

func (p *Pebble) Get(_ context.Context, recordID string) (*models.Transaction, error) {
	raw, err := p.db.Get(key(recordID))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read anchor transaction")
	}
	return decode(raw)
}

func (p *Pebble) Reserve(_ context.Context, tx *models.Transaction, replaceable func(*models.Transaction) bool) (*models.Transaction, bool, error) {
	var (
		stored   *models.Transaction
		reserved bool
	)
	err := p.db.Update(key(tx.RecordID), func(current []byte) ([]byte, error) {
		if current != nil {
			existing, err := decode(current)
			if err != nil {
				return nil, err
			}
			if replaceable == nil || !replaceable(existing.Clone()) {
				stored = existing
				return nil, nil
			}
			tx.Generation = existing.Generation + 1
		}
		stored = tx.Clone()
		reserved = true
		return encode(tx)
	})
	if err != nil {
		return nil, false, wrapStorage(err)
	}
	return stored, reserved, nil
}

func (p *Pebble) CompareAndSet(_ context.Context, expect models.Status, next *models.Transaction) error {
	err := p.db.Update(key(next.RecordID), func(current []byte) ([]byte, error) {
		if current == nil {
			return nil, ErrNotFound
		}
		existing, err := decode(current)
		if err != nil {
			return nil, err
		}
		if !matches(existing, expect, next) {
			return nil, ErrStatusChanged
		}
		return encode(next)
	})
	return wrapStorage(err)
}

func (p *Pebble) ListByStatus(_ context.Context, status models.Status) ([]*models.Transaction, error) {
	var out []*models.Transaction
	err := p.db.IteratePrefix(keyPrefix, func(_, value []byte) error {
		tx, err := decode(value)
		if err != nil {
			return err
		}
		if tx.Status == status {
			out = append(out, tx)
		}
		return nil
	})
	if err != nil {
		return nil, wrapStorage(err)
	}
	return out, nil
}

func encode(tx *models.Transaction) ([]byte, error) {
	b, err := json.Marshal(tx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode anchor transaction")
	}
	return b, nil
}

func decode(raw []byte) (*models.Transaction, error) {
	var tx models.Transaction
	if err := json.Unmarshal(raw, &tx); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to decode anchor transaction")
	}
	return &tx, nil
}

func wrapStorage(err error) error {
	if err == nil {
		return nil
	}
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "anchor table storage failure")
}
