package anchortable

import (
	"context"
	"crypto/sha256"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"vaultledger/internal/ledger/models"
	"vaultledger/internal/platform/storage"
)

// TableSuite runs the same contract against every implementation.
type TableSuite struct {
	suite.Suite
	newTable func() (Table, func())
	table    Table
	cleanup  func()
	ctx      context.Context
}

func TestInMemoryTable(t *testing.T) {
	suite.Run(t, &TableSuite{newTable: func() (Table, func()) {
		return NewInMemory(), func() {}
	}})
}

func TestPebbleTable(t *testing.T) {
	suite.Run(t, &TableSuite{newTable: func() (Table, func()) {
		db, err := storage.Open(storage.Config{})
		if err != nil {
			t.Fatalf("open storage: %v", err)
		}
		return NewPebble(db), func() { _ = db.Close() }
	}})
}

func (s *TableSuite) SetupTest() {
	s.ctx = context.Background()
	s.table, s.cleanup = s.newTable()
}

func (s *TableSuite) TearDownTest() {
	s.cleanup()
}

func pending(recordID, content string) *models.Transaction {
	return &models.Transaction{
		RecordID:    recordID,
		ContentHash: sha256.Sum256([]byte(content)),
		Status:      models.StatusPending,
		SubmittedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func released(existing *models.Transaction) bool {
	return !existing.Binds()
}

func (s *TableSuite) TestReserveInsertsOnce() {
	stored, ok, err := s.table.Reserve(s.ctx, pending("rec-1", "H1"), released)
	s.Require().NoError(err)
	s.True(ok)
	s.Equal(uint64(0), stored.Generation)

	stored, ok, err = s.table.Reserve(s.ctx, pending("rec-1", "H2"), released)
	s.Require().NoError(err)
	s.False(ok)
	s.Equal(models.ContentHash(sha256.Sum256([]byte("H1"))), stored.ContentHash)

	got, err := s.table.Get(s.ctx, "rec-1")
	s.Require().NoError(err)
	s.Equal(stored.ContentHash, got.ContentHash)
}

func (s *TableSuite) TestReserveReplacesFailed() {
	_, _, err := s.table.Reserve(s.ctx, pending("rec-1", "H1"), released)
	s.Require().NoError(err)

	failed, err := s.table.Get(s.ctx, "rec-1")
	s.Require().NoError(err)
	failed.Status = models.StatusFailed
	s.Require().NoError(s.table.CompareAndSet(s.ctx, models.StatusPending, failed))

	stored, ok, err := s.table.Reserve(s.ctx, pending("rec-1", "H2"), released)
	s.Require().NoError(err)
	s.True(ok)
	s.Equal(uint64(1), stored.Generation)
	s.Equal(models.StatusPending, stored.Status)
}

func (s *TableSuite) TestCompareAndSet() {
	_, _, err := s.table.Reserve(s.ctx, pending("rec-1", "H1"), released)
	s.Require().NoError(err)

	confirmed, err := s.table.Get(s.ctx, "rec-1")
	s.Require().NoError(err)
	confirmed.Status = models.StatusConfirmed

	s.Require().NoError(s.table.CompareAndSet(s.ctx, models.StatusPending, confirmed))

	s.Run("second transition is rejected", func() {
		again := confirmed.Clone()
		again.Status = models.StatusFailed
		s.ErrorIs(s.table.CompareAndSet(s.ctx, models.StatusPending, again), ErrStatusChanged)

		got, err := s.table.Get(s.ctx, "rec-1")
		s.Require().NoError(err)
		s.Equal(models.StatusConfirmed, got.Status)
	})

	s.Run("stale generation is rejected", func() {
		stale := confirmed.Clone()
		stale.Generation = 7
		s.ErrorIs(s.table.CompareAndSet(s.ctx, models.StatusConfirmed, stale), ErrStatusChanged)
	})

	s.Run("missing entry", func() {
		s.ErrorIs(s.table.CompareAndSet(s.ctx, models.StatusPending, pending("nope", "x")), ErrNotFound)
	})
}

func (s *TableSuite) TestConcurrentReserveSingleWinner() {
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners int
	)
	for i := range 20 {
		wg.Go(func() {
			_, ok, err := s.table.Reserve(s.ctx, pending("rec-race", string(rune('a'+i))), released)
			s.NoError(err)
			if ok {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		})
	}
	wg.Wait()
	s.Equal(1, winners)
}

func (s *TableSuite) TestListByStatus() {
	for _, id := range []string{"rec-b", "rec-a", "rec-c"} {
		_, _, err := s.table.Reserve(s.ctx, pending(id, id), released)
		s.Require().NoError(err)
	}
	done, err := s.table.Get(s.ctx, "rec-c")
	s.Require().NoError(err)
	done.Status = models.StatusConfirmed
	s.Require().NoError(s.table.CompareAndSet(s.ctx, models.StatusPending, done))

	list, err := s.table.ListByStatus(s.ctx, models.StatusPending)
	s.Require().NoError(err)
	s.Require().Len(list, 2)
	s.Equal("rec-a", list[0].RecordID)
	s.Equal("rec-b", list[1].RecordID)
}

func (s *TableSuite) TestGetMissing() {
	_, err := s.table.Get(s.ctx, "absent")
	s.ErrorIs(err, ErrNotFound)
}
