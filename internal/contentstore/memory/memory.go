// Package memory is an in-process content store backend for tests and local runs.
package memory

import (
	"context"
	"sync"

	"vaultledger/internal/contentstore"
	dErrors "vaultledger/pkg/domain-errors"
)

// Backend keeps blobs in a map keyed by content id.
type Backend struct {
	mu          sync.RWMutex
	hash        contentstore.HashFunc
	blobs       map[contentstore.ContentID][]byte
	unavailable bool
	addCalls    int
}

// New creates an empty backend that derives ids with hf.
func New(hf contentstore.HashFunc) *Backend {
	if hf == "" {
		hf = contentstore.SHA256
	}
	return &Backend{
		hash:  hf,
		blobs: make(map[contentstore.ContentID][]byte),
	}
}

// Add stores a copy of data.
func (b *Backend) Add(ctx context.Context, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeStoreUnavailable, "add cancelled")
	}
	id, err := contentstore.ComputeID(data, b.hash)
	if err != nil {
		return "", err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.addCalls++
	if b.unavailable {
		return "", contentstore.ErrUnavailable
	}
	if _, ok := b.blobs[id]; !ok {
		b.blobs[id] = append([]byte(nil), data...)
	}
	return id.String(), nil
}

// Get returns a copy of the blob stored under id.
func (b *Backend) Get(ctx context.Context, id contentstore.ContentID) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStoreUnavailable, "get cancelled")
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.unavailable {
		return nil, contentstore.ErrUnavailable
	}
	data, ok := b.blobs[id]
	if !ok {
		return nil, contentstore.ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

// SetUnavailable makes every subsequent call fail as a transport outage.
func (b *Backend) SetUnavailable(down bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.unavailable = down
}

// Tamper overwrites the stored bytes for id, simulating a corrupted blob.
func (b *Backend) Tamper(id contentstore.ContentID, data []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.blobs[id] = append([]byte(nil), data...)
}

// AddCalls returns how many Add calls reached the backend.
func (b *Backend) AddCalls() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.addCalls
}

// Len returns the number of stored blobs.
func (b *Backend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.blobs)
}
