package anchortable

import (
	"context"
	"slices"
	"strings"
	"sync"

	"vaultledger/internal/ledger/models"
)

// InMemory is a map-backed Table.
type InMemory struct {
	mu      sync.RWMutex
	entries map[string]*models.Transaction
}

// NewInMemory creates an empty table.
func NewInMemory() *InMemory {
	return &InMemory{entries: make(map[string]*models.Transaction)}
}

func (t *InMemory) Get(_ context.Context, recordID string) (*models.Transaction, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	tx, ok := t.entries[recordID]
	if !ok {
		return nil, ErrNotFound
	}
	return tx.Clone(), nil
}

func (t *InMemory) Reserve(_ context.Context, tx *models.Transaction, replaceable func(*models.Transaction) bool) (*models.Transaction, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	existing, ok := t.entries[tx.RecordID]
	if ok {
		if replaceable == nil || !replaceable(existing.Clone()) {
			return existing.Clone(), false, nil
		}
		tx.Generation = existing.Generation + 1
	}
	t.entries[tx.RecordID] = tx.Clone()
	return tx.Clone(), true, nil
}

func (t *InMemory) CompareAndSet(_ context.Context, expect models.Status, next *models.Transaction) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	current, ok := t.entries[next.RecordID]
	if !ok {
		return ErrNotFound
	}
	if !matches(current, expect, next) {
		return ErrStatusChanged
	}
	t.entries[next.RecordID] = next.Clone()
	return nil
}

func (t *InMemory) ListByStatus(_ context.Context, status models.Status) ([]*models.Transaction, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var out []*models.Transaction
	for _, tx := range t.entries {
		if tx.Status == status {
			out = append(out, tx.Clone())
		}
	}
	slices.SortFunc(out, func(a, b *models.Transaction) int {
		return strings.Compare(a.RecordID, b.RecordID)
	})
	return out, nil
}
