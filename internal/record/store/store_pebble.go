package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"vaultledger/internal/platform/storage"
	"vaultledger/internal/record/models"
	id "vaultledger/pkg/domain"
	pkgerrors "vaultledger/pkg/domain-errors"
)

var (
	dataPrefix  = []byte("record/data/")
	ownerPrefix = []byte("record/owner/")
)

// PebbleStore keeps records in the shared pebble database with a secondary
// owner index. Writes to one record are serialized by storage.Update.
type PebbleStore struct {
	db *storage.Storage
}

// NewPebbleStore creates a record store over db.
func NewPebbleStore(db *storage.Storage) *PebbleStore {
	return &PebbleStore{db: db}
}

func dataKey(recordID id.RecordID) []byte {
	return append(append([]byte(nil), dataPrefix...), recordID...)
}

// ownerKey separates owner and record id with a NUL so one owner's prefix
// never matches another owner whose id extends it.
func ownerKey(owner id.OwnerID, recordID id.RecordID) []byte {
	return append(ownerIndexPrefix(owner), recordID...)
}

func ownerIndexPrefix(owner id.OwnerID) []byte {
	k := append(append([]byte(nil), ownerPrefix...), owner...)
	return append(k, 0)
}

func (p *PebbleStore) Create(_ context.Context, record *models.Record) error {
	raw, err := encode(record)
	if err != nil {
		return err
	}
	err = p.db.Update(dataKey(record.ID), func(current []byte) ([]byte, error) {
		if current != nil {
			return nil, ErrAlreadyExists
		}
		return raw, nil
	})
	if err != nil {
		return wrapStorage(err)
	}
	return wrapStorage(p.db.Set(ownerKey(record.OwnerID, record.ID), []byte{}))
}

func (p *PebbleStore) Save(_ context.Context, record *models.Record) error {
	raw, err := encode(record)
	if err != nil {
		return err
	}
	return wrapStorage(p.db.SetBatch([]storage.KeyValue{
		{Key: dataKey(record.ID), Value: raw},
		{Key: ownerKey(record.OwnerID, record.ID), Value: []byte{}},
	}))
}

func (p *PebbleStore) FindByID(_ context.Context, recordID id.RecordID) (*models.Record, error) {
	raw, err := p.db.Get(dataKey(recordID))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, wrapStorage(err)
	}
	return decode(raw)
}

func (p *PebbleStore) Update(_ context.Context, recordID id.RecordID, fn UpdateFunc) (*models.Record, error) {
	var result *models.Record
	err := p.db.Update(dataKey(recordID), func(current []byte) ([]byte, error) {
		if current == nil {
			return nil, ErrNotFound
		}
		existing, err := decode(current)
		if err != nil {
			return nil, err
		}
		next, err := fn(existing.Clone())
		if err != nil {
			return nil, err
		}
		if next == nil {
			result = existing
			return nil, nil
		}
		result = next
		return encode(next)
	})
	if err != nil {
		return nil, wrapStorage(err)
	}
	return result, nil
}

func (p *PebbleStore) ListByOwner(ctx context.Context, owner id.OwnerID) ([]*models.Record, error) {
	prefix := ownerIndexPrefix(owner)
	var ids []id.RecordID
	err := p.db.IteratePrefix(prefix, func(key, _ []byte) error {
		ids = append(ids, id.RecordID(key[len(prefix):]))
		return nil
	})
	if err != nil {
		return nil, wrapStorage(err)
	}
	out := make([]*models.Record, 0, len(ids))
	for _, recordID := range ids {
		r, err := p.FindByID(ctx, recordID)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func (p *PebbleStore) ListExpirable(_ context.Context, now time.Time, limit int) ([]*models.Record, error) {
	var out []*models.Record
	errLimit := errors.New("limit reached")
	err := p.db.IteratePrefix(dataPrefix, func(_, value []byte) error {
		r, err := decode(value)
		if err != nil {
			return err
		}
		if expirable(r, now) {
			out = append(out, r)
			if limit > 0 && len(out) >= limit {
				return errLimit
			}
		}
		return nil
	})
	if err != nil && !errors.Is(err, errLimit) {
		return nil, wrapStorage(err)
	}
	return out, nil
}

func encode(r *models.Record) ([]byte, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "failed to encode record")
	}
	return b, nil
}

func decode(raw []byte) (*models.Record, error) {
	var r models.Record
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "failed to decode record")
	}
	return &r, nil
}

func wrapStorage(err error) error {
	if err == nil {
		return nil
	}
	var de *pkgerrors.Error
	if errors.As(err, &de) {
		return err
	}
	return pkgerrors.Wrap(err, pkgerrors.CodeInternal, "record storage failure")
}
