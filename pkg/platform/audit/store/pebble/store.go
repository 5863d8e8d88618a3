// Package pebble persists audit events in the shared pebble database.
//
// Every event is written twice in one batch: under a global time-ordered key
// and under a per-subject key, so both listings are prefix scans.
package pebble

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync/atomic"

	"vaultledger/internal/platform/storage"
	audit "vaultledger/pkg/platform/audit"
)

const (
	allPrefix     = "audit/all/"
	subjectPrefix = "audit/subject/"
)

// Store implements audit.Store over storage.Storage.
type Store struct {
	db  *storage.Storage
	seq atomic.Uint64
}

// New creates a store over db.
func New(db *storage.Storage) *Store {
	return &Store{db: db}
}

func (s *Store) Append(_ context.Context, event audit.Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode audit event: %w", err)
	}
	suffix := fmt.Sprintf("%020d/%010d", event.Timestamp.UnixNano(), s.seq.Add(1))
	return s.db.SetBatch([]storage.KeyValue{
		{Key: []byte(allPrefix + suffix), Value: value},
		{Key: []byte(subjectPrefix + event.Subject + "/" + suffix), Value: value},
	})
}

func (s *Store) ListBySubject(_ context.Context, subject string) ([]audit.Event, error) {
	return s.scan(subjectPrefix + subject + "/")
}

// ListRecent returns up to limit events, newest first.
func (s *Store) ListRecent(_ context.Context, limit int) ([]audit.Event, error) {
	events, err := s.scan(allPrefix)
	if err != nil {
		return nil, err
	}
	slices.Reverse(events)
	if limit > 0 && limit < len(events) {
		events = events[:limit]
	}
	return events, nil
}

func (s *Store) scan(prefix string) ([]audit.Event, error) {
	var out []audit.Event
	err := s.db.IteratePrefix([]byte(prefix), func(_, value []byte) error {
		var e audit.Event
		if err := json.Unmarshal(value, &e); err != nil {
			return fmt.Errorf("decode audit event: %w", err)
		}
		out = append(out, e)
		return nil
	})
	return out, err
}
