// Package storage is the pebble-backed key-value store shared by the anchor
// table and the record store.
package storage

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"

	psync "vaultledger/pkg/platform/sync"
)

const defaultSyncInterval = 100 * time.Millisecond

// ErrNotFound is returned by Get when the key is absent.
var ErrNotFound = errors.New("storage: key not found")

// KeyValue is a pair for batch writes.
type KeyValue struct {
	Key   []byte
	Value []byte
}

// Config holds storage configuration.
type Config struct {
	// Path is the database directory. Empty keeps the database in memory.
	Path string
	// SyncWrites makes every write durable before returning instead of
	// relying on the periodic WAL sync.
	SyncWrites bool
	CacheSize  int64
}

// Storage wraps a pebble database. Unsynced writes are flushed by a
// background goroutine; Update serialises read-modify-write per key.
type Storage struct {
	db        *pebble.DB
	writeOpts *pebble.WriteOptions
	keys      *psync.ShardedMutex
	stopSync  chan struct{}
	wg        sync.WaitGroup
}

// Open opens or creates the database described by cfg.
func Open(cfg Config) (*Storage, error) {
	cacheSize := cfg.CacheSize
	if cacheSize <= 0 {
		cacheSize = 32 << 20
	}
	cache := pebble.NewCache(cacheSize)
	defer cache.Unref()

	opts := &pebble.Options{
		Cache:                       cache,
		MemTableSize:                16 << 20,
		MemTableStopWritesThreshold: 2,
	}
	path := cfg.Path
	if path == "" {
		opts.FS = vfs.NewMem()
		path = "vaultledger"
	}

	db, err := pebble.Open(path, opts)
	if err != nil {
		return nil, fmt.Errorf("open pebble at %q: %w", cfg.Path, err)
	}

	s := &Storage{
		db:        db,
		writeOpts: pebble.NoSync,
		keys:      psync.NewShardedMutex(),
		stopSync:  make(chan struct{}),
	}
	if cfg.SyncWrites {
		s.writeOpts = pebble.Sync
	} else {
		s.startSyncLoop()
	}
	return s, nil
}

// Get returns a copy of the value stored under key, or ErrNotFound.
func (s *Storage) Get(key []byte) ([]byte, error) {
	value, closer, err := s.db.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

// Set stores value under key.
func (s *Storage) Set(key, value []byte) error {
	return s.db.Set(key, value, s.writeOpts)
}

// Delete removes key.
func (s *Storage) Delete(key []byte) error {
	return s.db.Delete(key, s.writeOpts)
}

// SetBatch atomically stores all pairs.
func (s *Storage) SetBatch(pairs []KeyValue) error {
	batch := s.db.NewBatch()
	defer batch.Close()

	for _, kv := range pairs {
		if err := batch.Set(kv.Key, kv.Value, nil); err != nil {
			return err
		}
	}
	return batch.Commit(s.writeOpts)
}

// Update runs fn with the current value of key (nil when absent) while
// holding the key's lock, and writes the returned value. Returning a nil
// value leaves the key untouched; returning an error aborts the update.
// Concurrent Updates of one key never interleave.
func (s *Storage) Update(key []byte, fn func(current []byte) ([]byte, error)) error {
	return s.keys.WithLock(string(key), func() error {
		current, err := s.Get(key)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
		next, err := fn(current)
		if err != nil {
			return err
		}
		if next == nil {
			return nil
		}
		return s.Set(key, next)
	})
}

// IteratePrefix calls fn for every pair whose key starts with prefix, in
// key order. Returning an error from fn stops the iteration.
func (s *Storage) IteratePrefix(prefix []byte, fn func(key, value []byte) error) error {
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: prefixUpperBound(prefix),
	})
	if err != nil {
		return err
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		value, err := iter.ValueAndErr()
		if err != nil {
			return err
		}
		if err := fn(iter.Key(), value); err != nil {
			return err
		}
	}
	return iter.Error()
}

// Health reports whether the database still accepts writes.
func (s *Storage) Health() error {
	return s.db.LogData(nil, pebble.NoSync)
}

// Close stops the sync loop, flushes the WAL and closes the database.
func (s *Storage) Close() error {
	close(s.stopSync)
	s.wg.Wait()

	if err := s.sync(); err != nil {
		return err
	}
	return s.db.Close()
}

// prefixUpperBound increments the last non-0xFF byte; nil means unbounded.
func prefixUpperBound(prefix []byte) []byte {
	upper := make([]byte, len(prefix))
	copy(upper, prefix)

	for i := len(upper) - 1; i >= 0; i-- {
		upper[i]++
		if upper[i] != 0 {
			return upper[:i+1]
		}
	}
	return nil
}

func (s *Storage) startSyncLoop() {
	s.wg.Go(func() {
		ticker := time.NewTicker(defaultSyncInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				_ = s.sync()
			case <-s.stopSync:
				return
			}
		}
	})
}

func (s *Storage) sync() error {
	return s.db.LogData(nil, pebble.Sync)
}
