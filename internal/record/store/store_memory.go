package store

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"vaultledger/internal/record/models"
	id "vaultledger/pkg/domain"
)

// InMemoryStore is an in-memory implementation of Store for tests or local use.
// It is safe for concurrent access but does not persist across process restarts.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[id.RecordID]*models.Record
}

// NewInMemoryStore constructs an empty in-memory record store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[id.RecordID]*models.Record)}
}

func (s *InMemoryStore) Create(_ context.Context, record *models.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[record.ID]; ok {
		return ErrAlreadyExists
	}
	s.records[record.ID] = record.Clone()
	return nil
}

// Save stores or overwrites a record by ID.
func (s *InMemoryStore) Save(_ context.Context, record *models.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.ID] = record.Clone()
	return nil
}

// FindByID retrieves a record by ID or returns ErrNotFound.
func (s *InMemoryStore) FindByID(_ context.Context, recordID id.RecordID) (*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if r, ok := s.records[recordID]; ok {
		return r.Clone(), nil
	}
	return nil, ErrNotFound
}

func (s *InMemoryStore) Update(_ context.Context, recordID id.RecordID, fn UpdateFunc) (*models.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.records[recordID]
	if !ok {
		return nil, ErrNotFound
	}
	next, err := fn(current.Clone())
	if err != nil {
		return nil, err
	}
	if next == nil {
		return current.Clone(), nil
	}
	s.records[recordID] = next.Clone()
	return next.Clone(), nil
}

func (s *InMemoryStore) ListByOwner(_ context.Context, owner id.OwnerID) ([]*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Record
	for _, r := range s.records {
		if r.OwnerID == owner {
			out = append(out, r.Clone())
		}
	}
	sortByID(out)
	return out, nil
}

func (s *InMemoryStore) ListExpirable(_ context.Context, now time.Time, limit int) ([]*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Record
	for _, r := range s.records {
		if expirable(r, now) {
			out = append(out, r.Clone())
		}
	}
	sortByID(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func sortByID(records []*models.Record) {
	slices.SortFunc(records, func(a, b *models.Record) int {
		return strings.Compare(string(a.ID), string(b.ID))
	})
}
