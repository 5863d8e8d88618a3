package ledger

import (
	"context"
	"crypto/sha256"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"vaultledger/internal/ledger/anchortable"
	"vaultledger/internal/ledger/chain"
	"vaultledger/internal/ledger/memchain"
	"vaultledger/internal/ledger/models"
	dErrors "vaultledger/pkg/domain-errors"
	"vaultledger/pkg/testutil"
)

type AnchorSuite struct {
	suite.Suite
	ctx    context.Context
	chain  *memchain.Chain
	table  *anchortable.InMemory
	anchor *Anchor
	sleeps []time.Duration
}

func TestAnchorSuite(t *testing.T) {
	suite.Run(t, new(AnchorSuite))
}

func (s *AnchorSuite) SetupTest() {
	s.ctx = context.Background()
	s.chain = memchain.New()
	s.table = anchortable.NewInMemory()
	s.sleeps = nil
	s.anchor = s.newAnchor(s.chain)
}

func (s *AnchorSuite) newAnchor(client chain.Client) *Anchor {
	return s.newAnchorOn(client, s.table)
}

func (s *AnchorSuite) newAnchorOn(client chain.Client, table anchortable.Table) *Anchor {
	return New(client, table, Config{
		Address: "issuer",
		Backoff: BackoffConfig{
			InitialDelay: 100 * time.Millisecond,
			MaxDelay:     300 * time.Millisecond,
			MaxRetries:   3,
			Multiplier:   2,
		},
		ConfirmTimeout: time.Second,
	}, WithSleep(func(_ context.Context, d time.Duration) error {
		s.sleeps = append(s.sleeps, d)
		return nil
	}))
}

// flakyTable fails the next failures CompareAndSet calls, as a full disk
// would after the chain accepted a send.
type flakyTable struct {
	anchortable.Table
	failures int
}

func (t *flakyTable) CompareAndSet(ctx context.Context, expect models.Status, next *models.Transaction) error {
	if t.failures > 0 {
		t.failures--
		return errors.New("disk full")
	}
	return t.Table.CompareAndSet(ctx, expect, next)
}

func hash(s string) models.ContentHash {
	return sha256.Sum256([]byte(s))
}

func meta() models.Metadata {
	return models.Metadata{ContentID: "bafkreibm6jg3ux5qumhcn2b3flc3tyu6dmlb4xa7u5bf44yegnrjhc4yeq"}
}

func (s *AnchorSuite) TestSubmitAndConfirm() {
	tx, err := s.anchor.Submit(s.ctx, "rec-1", hash("H1"), meta())
	s.Require().NoError(err)
	s.Equal(models.StatusPending, tx.Status)
	s.NotEmpty(tx.TxHash)
	s.Equal(1, tx.Attempts)

	confirmed, err := s.anchor.AwaitConfirmation(s.ctx, tx, time.Second)
	s.Require().NoError(err)
	s.Equal(models.StatusConfirmed, confirmed.Status)
	s.NotNil(confirmed.ConfirmedAt)
	s.NotEmpty(confirmed.ChainReceipt)

	onChain, ok := s.chain.Anchored("rec-1")
	s.True(ok)
	s.Equal(hash("H1"), onChain)
}

func (s *AnchorSuite) TestSameHashIsIdempotent() {
	first, err := s.anchor.Submit(s.ctx, "rec-1", hash("H1"), meta())
	s.Require().NoError(err)

	second, err := s.anchor.Submit(s.ctx, "rec-1", hash("H1"), meta())
	s.Require().NoError(err)

	s.Equal(first.TxHash, second.TxHash)
	s.Equal(1, s.chain.SentCount(), "resubmission must not reach the chain")
}

func (s *AnchorSuite) TestDifferentHashConflicts() {
	_, err := s.anchor.Submit(s.ctx, "rec-1", hash("H1"), meta())
	s.Require().NoError(err)

	_, err = s.anchor.Submit(s.ctx, "rec-1", hash("H2"), meta())
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))

	stored, err := s.anchor.Lookup(s.ctx, "rec-1")
	s.Require().NoError(err)
	s.Equal(hash("H1"), stored.ContentHash)
	s.Equal(1, s.chain.SentCount())
}

func (s *AnchorSuite) TestConcurrentDifferentHashesSingleWinner() {
	res := testutil.RunConcurrent(10, func(i int) error {
		_, err := s.anchor.Submit(s.ctx, "rec-race", hash(string(rune('a'+i))), meta())
		return err
	})

	s.Equal(int32(1), res.Successes)
	s.Equal(int32(9), res.Conflicts)
	s.Equal(1, s.chain.SentCount())
}

func (s *AnchorSuite) TestRetryableFailuresAreRetried() {
	s.chain.FailNext(chain.ErrorOutage, chain.ErrorNonceRace)

	tx, err := s.anchor.Submit(s.ctx, "rec-1", hash("H1"), meta())
	s.Require().NoError(err)
	s.Equal(3, tx.Attempts)
	s.Equal([]time.Duration{100 * time.Millisecond, 200 * time.Millisecond}, s.sleeps)
}

func (s *AnchorSuite) TestRetriesExhausted() {
	s.chain.FailNext(chain.ErrorInsufficientFunds, chain.ErrorInsufficientFunds,
		chain.ErrorInsufficientFunds, chain.ErrorInsufficientFunds)

	tx, err := s.anchor.Submit(s.ctx, "rec-1", hash("H1"), meta())
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeAnchorFailed))
	s.Require().NotNil(tx)
	s.Equal(models.StatusFailed, tx.Status)
	s.Equal(4, tx.Attempts)
	s.Equal([]time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 300 * time.Millisecond}, s.sleeps)

	stored, err := s.anchor.Lookup(s.ctx, "rec-1")
	s.Require().NoError(err)
	s.Equal(models.StatusFailed, stored.Status)

	s.Run("failed entry can be re-anchored", func() {
		again, err := s.anchor.Submit(s.ctx, "rec-1", hash("H2"), meta())
		s.Require().NoError(err)
		s.Equal(models.StatusPending, again.Status)
		s.Equal(uint64(1), again.Generation)
	})
}

func (s *AnchorSuite) TestPermanentFailureIsNotRetried() {
	s.chain.FailNext(chain.ErrorRejected)

	_, err := s.anchor.Submit(s.ctx, "rec-1", hash("H1"), meta())
	s.True(dErrors.HasCode(err, dErrors.CodeAnchorFailed))
	s.Empty(s.sleeps)
}

func (s *AnchorSuite) TestConfirmationTimeoutReturnsPending() {
	manual := memchain.New(memchain.WithManualMining())
	anchor := s.newAnchor(manual)

	tx, err := anchor.Submit(s.ctx, "rec-1", hash("H1"), meta())
	s.Require().NoError(err)

	pending, err := anchor.AwaitConfirmation(s.ctx, tx, 20*time.Millisecond)
	s.Require().NoError(err)
	s.Equal(models.StatusPending, pending.Status)

	s.Run("resume after mining", func() {
		manual.Mine()
		confirmed, err := anchor.AwaitConfirmation(s.ctx, pending, time.Second)
		s.Require().NoError(err)
		s.Equal(models.StatusConfirmed, confirmed.Status)
	})

	s.Run("cancelled context also returns pending", func() {
		tx, err := anchor.Submit(s.ctx, "rec-2", hash("H2"), meta())
		s.Require().NoError(err)
		ctx, cancel := context.WithCancel(s.ctx)
		cancel()
		got, err := anchor.AwaitConfirmation(ctx, tx, time.Second)
		s.Require().NoError(err)
		s.Equal(models.StatusPending, got.Status)
	})
}

func (s *AnchorSuite) TestRevertedReceiptFails() {
	s.chain.RevertRecord("rec-1")

	tx, err := s.anchor.Submit(s.ctx, "rec-1", hash("H1"), meta())
	s.Require().NoError(err)

	failed, err := s.anchor.AwaitConfirmation(s.ctx, tx, time.Second)
	s.True(dErrors.HasCode(err, dErrors.CodeAnchorFailed))
	s.Equal(models.StatusFailed, failed.Status)
}

func (s *AnchorSuite) TestConfirmationHappensOnce() {
	tx, err := s.anchor.Submit(s.ctx, "rec-1", hash("H1"), meta())
	s.Require().NoError(err)

	first, err := s.anchor.AwaitConfirmation(s.ctx, tx, time.Second)
	s.Require().NoError(err)
	second, err := s.anchor.AwaitConfirmation(s.ctx, tx, time.Second)
	s.Require().NoError(err)
	s.Equal(first.ConfirmedAt, second.ConfirmedAt)
}

func (s *AnchorSuite) TestRevokeThenReanchor() {
	tx, err := s.anchor.Submit(s.ctx, "rec-1", hash("H1"), meta())
	s.Require().NoError(err)
	_, err = s.anchor.AwaitConfirmation(s.ctx, tx, time.Second)
	s.Require().NoError(err)

	revoked, err := s.anchor.Revoke(s.ctx, "rec-1")
	s.Require().NoError(err)
	s.True(revoked.IsRevoked())
	s.NotEmpty(revoked.RevokeTxHash)
	_, onChain := s.chain.Anchored("rec-1")
	s.False(onChain)

	again, err := s.anchor.Submit(s.ctx, "rec-1", hash("H2"), meta())
	s.Require().NoError(err)
	confirmed, err := s.anchor.AwaitConfirmation(s.ctx, again, time.Second)
	s.Require().NoError(err)
	s.Equal(models.StatusConfirmed, confirmed.Status)
	s.Equal(hash("H2"), confirmed.ContentHash)
}

func (s *AnchorSuite) TestRevokePendingConflicts() {
	manual := memchain.New(memchain.WithManualMining())
	anchor := s.newAnchor(manual)
	_, err := anchor.Submit(s.ctx, "rec-1", hash("H1"), meta())
	s.Require().NoError(err)

	_, err = anchor.Revoke(s.ctx, "rec-1")
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *AnchorSuite) TestSupersededTransaction() {
	s.chain.FailNext(chain.ErrorRejected)
	failed, err := s.anchor.Submit(s.ctx, "rec-1", hash("H1"), meta())
	s.Require().Error(err)

	_, err = s.anchor.Submit(s.ctx, "rec-1", hash("H2"), meta())
	s.Require().NoError(err)

	_, err = s.anchor.AwaitConfirmation(s.ctx, failed, time.Second)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *AnchorSuite) TestValidation() {
	_, err := s.anchor.Submit(s.ctx, "", hash("H1"), meta())
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))

	_, err = s.anchor.Submit(s.ctx, "rec-1", models.ContentHash{}, meta())
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func (s *AnchorSuite) TestZeroRetriesSendsOnce() {
	anchor := New(s.chain, s.table, Config{
		Address: "issuer",
		Backoff: BackoffConfig{InitialDelay: time.Millisecond, MaxRetries: 0},
	}, WithSleep(func(_ context.Context, d time.Duration) error {
		s.sleeps = append(s.sleeps, d)
		return nil
	}))
	s.chain.FailNext(chain.ErrorOutage)

	tx, err := anchor.Submit(s.ctx, "rec-1", hash("H1"), meta())
	s.True(dErrors.HasCode(err, dErrors.CodeAnchorFailed))
	s.Require().NotNil(tx)
	s.Equal(1, tx.Attempts)
	s.Empty(s.sleeps)
}

func (s *AnchorSuite) TestBackoffValidate() {
	s.NoError(DefaultBackoff().Validate())
	s.Error(BackoffConfig{InitialDelay: time.Second, MaxDelay: time.Millisecond}.Validate())
	s.Error(BackoffConfig{Multiplier: 0.5}.Validate())
	s.Error(BackoffConfig{MaxRetries: -1}.Validate())
}

func (s *AnchorSuite) TestUnrecordedSendIsResubmitted() {
	table := &flakyTable{Table: s.table, failures: 1}
	anchor := s.newAnchorOn(s.chain, table)

	_, err := anchor.Submit(s.ctx, "rec-1", hash("H1"), meta())
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeAnchorFailed))
	s.Equal(1, s.chain.SentCount())

	orphan, err := anchor.Lookup(s.ctx, "rec-1")
	s.Require().NoError(err)
	s.True(orphan.Orphaned())

	_, err = anchor.AwaitConfirmation(s.ctx, orphan, time.Second)
	s.True(dErrors.HasCode(err, dErrors.CodeAnchorFailed))

	tx, err := anchor.Submit(s.ctx, "rec-1", hash("H1"), meta())
	s.Require().NoError(err)
	s.NotEmpty(tx.TxHash)
	s.Equal(2, s.chain.SentCount())

	confirmed, err := anchor.AwaitConfirmation(s.ctx, tx, time.Second)
	s.Require().NoError(err)
	s.Equal(models.StatusConfirmed, confirmed.Status)
}

func (s *AnchorSuite) TestUnrecordedSendDifferentHashStillConflicts() {
	anchor := s.newAnchorOn(s.chain, &flakyTable{Table: s.table, failures: 1})
	_, err := anchor.Submit(s.ctx, "rec-1", hash("H1"), meta())
	s.Require().Error(err)

	_, err = anchor.Submit(s.ctx, "rec-1", hash("H2"), meta())
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	s.Equal(1, s.chain.SentCount())
}

func (s *AnchorSuite) TestOrphanedAnchorThatLandedIsRevokedOnChain() {
	anchor := s.newAnchorOn(s.chain, &flakyTable{Table: s.table, failures: 1})
	_, err := anchor.Submit(s.ctx, "rec-1", hash("H1"), meta())
	s.Require().Error(err)
	_, landed := s.chain.Anchored("rec-1")
	s.Require().True(landed)

	revoked, err := anchor.Revoke(s.ctx, "rec-1")
	s.Require().NoError(err)
	s.NotEmpty(revoked.RevokeTxHash)
	_, bound := s.chain.Anchored("rec-1")
	s.False(bound)

	tx, err := anchor.Submit(s.ctx, "rec-1", hash("H2"), meta())
	s.Require().NoError(err)
	s.Equal(hash("H2"), tx.ContentHash)
}

func (s *AnchorSuite) TestOrphanedAnchorThatNeverLandedIsReleased() {
	// A crash between reservation and send leaves the entry without a hash.
	_, reserved, err := s.table.Reserve(s.ctx, &models.Transaction{
		RecordID:    "rec-1",
		ContentHash: hash("H1"),
		Status:      models.StatusPending,
		SubmittedAt: time.Now(),
	}, func(*models.Transaction) bool { return false })
	s.Require().NoError(err)
	s.Require().True(reserved)

	revoked, err := s.anchor.Revoke(s.ctx, "rec-1")
	s.Require().NoError(err)
	s.True(revoked.IsRevoked())
	s.Empty(revoked.RevokeTxHash)

	_, err = s.anchor.Submit(s.ctx, "rec-1", hash("H2"), meta())
	s.Require().NoError(err)
}
