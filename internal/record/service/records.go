package service

import (
	"context"
	"crypto/sha256"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"vaultledger/internal/contentstore"
	ledgermodels "vaultledger/internal/ledger/models"
	"vaultledger/internal/platform/tracer"
	"vaultledger/internal/record/models"
	id "vaultledger/pkg/domain"
	dErrors "vaultledger/pkg/domain-errors"
	"vaultledger/pkg/platform/audit"
	"vaultledger/pkg/requestcontext"
)

var (
	// ErrExpired is returned for records past their expiry.
	ErrExpired = dErrors.New(dErrors.CodeExpired, "record has expired")
	// ErrRevoked is returned for records whose binding was released.
	ErrRevoked = dErrors.New(dErrors.CodeExpired, "record has been revoked")
	// ErrContentMismatch is a decrypted payload whose digest is not the
	// record's content hash.
	ErrContentMismatch = dErrors.New(dErrors.CodeIntegrity, "record content does not match its content hash")
)

// FetchRecord loads, decrypts and checks a record. The secret is used for
// this call only. The plaintext is returned only when its SHA-256 digest
// equals the record's content hash and, for anchored records, the ledger
// still binds that hash.
func (s *Service) FetchRecord(ctx context.Context, recordID id.RecordID, secret []byte) (*models.FetchResult, error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanFetchRecord,
		tracer.String(tracer.AttrRecordID, string(recordID)),
	)
	result, err := s.fetchRecord(ctx, recordID, secret)
	span.End(err)
	return result, err
}

func (s *Service) fetchRecord(ctx context.Context, recordID id.RecordID, secret []byte) (*models.FetchResult, error) {
	rec, err := s.authorizedRecord(ctx, recordID)
	if err != nil {
		return nil, err
	}

	checkBinding := false
	switch rec.Status {
	case models.StatusRevoked:
		return nil, ErrRevoked
	case models.StatusExpired:
		return nil, ErrExpired
	case models.StatusAnchored:
		now := requestcontext.Now(ctx)
		if rec.IsExpiredAt(now) {
			if _, _, err := s.expire(ctx, rec.ID, now); err != nil {
				return nil, err
			}
			return nil, ErrExpired
		}
		checkBinding = true
	}
	if rec.BlobRef == "" {
		return nil, dErrors.New(dErrors.CodeNotFound, "record content has not been stored yet")
	}

	contentID, err := contentstore.ParseContentID(rec.BlobRef)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeIntegrity, "record carries an invalid content id")
	}

	// Both reads always finish; a ledger mismatch outranks a blob error.
	var (
		g                 errgroup.Group
		envelope          []byte
		bindErr, fetchErr error
	)
	if checkBinding {
		g.Go(func() error {
			bindErr = s.checkLedgerBinding(ctx, rec)
			return nil
		})
	}
	g.Go(func() error {
		envelope, fetchErr = s.content.Get(ctx, contentID)
		return nil
	})
	_ = g.Wait()
	if bindErr != nil {
		return nil, bindErr
	}
	if fetchErr != nil {
		if dErrors.HasCode(fetchErr, dErrors.CodeIntegrity) {
			s.integrityFailure(ctx, rec.ID, "content_store", fetchErr)
		}
		return nil, fetchErr
	}
	plaintext, err := s.vault.Decrypt(envelope, secret)
	if err != nil {
		return nil, err
	}
	if sha256.Sum256(plaintext) != rec.ContentHash {
		s.integrityFailure(ctx, rec.ID, "content_hash", ErrContentMismatch)
		return nil, ErrContentMismatch
	}
	return &models.FetchResult{Record: rec, Plaintext: plaintext}, nil
}

// checkLedgerBinding compares an anchored record with its on-chain entry.
func (s *Service) checkLedgerBinding(ctx context.Context, rec *models.Record) error {
	tx, err := s.ledger.Lookup(ctx, string(rec.ID))
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			s.integrityFailure(ctx, rec.ID, "ledger", err)
			return dErrors.New(dErrors.CodeIntegrity, "anchored record has no ledger binding")
		}
		return err
	}
	switch {
	case tx.ContentHash != rec.ContentHash,
		tx.Status != ledgermodels.StatusConfirmed,
		tx.IsRevoked(),
		tx.ContentID != "" && !contentstore.SameContent(tx.ContentID, rec.BlobRef):
		s.integrityFailure(ctx, rec.ID, "ledger", nil)
		return dErrors.New(dErrors.CodeIntegrity, "record does not match its ledger binding")
	}
	return nil
}

// RecordStatus returns a record with its anchor transaction and progress,
// without touching its content.
func (s *Service) RecordStatus(ctx context.Context, recordID id.RecordID) (*models.AnchorResult, error) {
	rec, err := s.authorizedRecord(ctx, recordID)
	if err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	if rec.Status == models.StatusAnchored && rec.IsExpiredAt(now) {
		if rec, _, err = s.expire(ctx, rec.ID, now); err != nil {
			return nil, err
		}
	}
	return s.settledResult(ctx, rec)
}

// ListRecords returns the records owned by the calling actor.
func (s *Service) ListRecords(ctx context.Context) ([]*models.Record, error) {
	actor := requestcontext.ActorID(ctx)
	if actor == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "actor is required")
	}
	return s.records.ListByOwner(ctx, id.OwnerID(actor))
}

// RevokeRecord releases a record's ledger binding and marks it Revoked. Only
// the owner or the designated verifier may revoke. Revoking twice is a no-op.
func (s *Service) RevokeRecord(ctx context.Context, recordID id.RecordID, reason string) (*models.Record, error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanRevokeRecord,
		tracer.String(tracer.AttrRecordID, string(recordID)),
	)
	rec, err := s.revokeRecord(ctx, recordID, reason)
	span.End(err)
	return rec, err
}

func (s *Service) revokeRecord(ctx context.Context, recordID id.RecordID, reason string) (*models.Record, error) {
	if _, err := s.authorizedRecord(ctx, recordID); err != nil {
		return nil, err
	}

	release := s.lockRecord(recordID)
	defer release()

	rec, err := s.records.FindByID(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if rec.Status == models.StatusRevoked {
		return rec, nil
	}

	var revokeTx string
	tx, err := s.ledger.Revoke(ctx, string(recordID))
	switch {
	case err == nil:
		revokeTx = tx.RevokeTxHash
	case dErrors.HasCode(err, dErrors.CodeNotFound) && rec.Status == models.StatusDraft:
		// Nothing was ever submitted for this draft.
	default:
		return nil, err
	}

	now := requestcontext.Now(ctx)
	next, err := s.records.Update(ctx, recordID, func(r *models.Record) (*models.Record, error) {
		if r.Status == models.StatusRevoked {
			return nil, nil
		}
		r.Status = models.StatusRevoked
		r.RevokedAt = &now
		r.UpdatedAt = now
		return r, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "record revoked", "record_id", recordID, "tx_hash", revokeTx)
	s.emitAudit(ctx, audit.EventRecordRevoked, audit.Event{
		Subject: string(recordID),
		Reason:  reason,
		TxHash:  revokeTx,
	})
	return next, nil
}

// ExpireDue moves anchored records past their expiry to Expired and returns
// how many changed. It is driven by the expiry worker.
func (s *Service) ExpireDue(ctx context.Context, limit int) (int, error) {
	now := requestcontext.Now(ctx)
	due, err := s.records.ListExpirable(ctx, now, limit)
	if err != nil {
		return 0, err
	}
	expired := 0
	var errs []error
	for _, rec := range due {
		_, changed, err := s.expire(ctx, rec.ID, now)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if changed {
			expired++
		}
	}
	if s.metrics != nil && expired > 0 {
		s.metrics.AddRecordsExpired(expired)
	}
	return expired, errors.Join(errs...)
}

// expire transitions an anchored, overdue record to Expired. A record in
// any other state is returned unchanged.
func (s *Service) expire(ctx context.Context, recordID id.RecordID, now time.Time) (*models.Record, bool, error) {
	changed := false
	rec, err := s.records.Update(ctx, recordID, func(r *models.Record) (*models.Record, error) {
		if r.Status != models.StatusAnchored || !r.IsExpiredAt(now) {
			return nil, nil
		}
		r.Status = models.StatusExpired
		r.UpdatedAt = now
		changed = true
		return r, nil
	})
	if err != nil {
		return nil, false, err
	}
	if changed {
		s.emitAudit(ctx, audit.EventRecordExpired, audit.Event{Subject: string(recordID)})
	}
	return rec, changed, nil
}

// authorizedRecord loads a record the calling actor may access.
func (s *Service) authorizedRecord(ctx context.Context, recordID id.RecordID) (*models.Record, error) {
	actor := requestcontext.ActorID(ctx)
	if actor == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "actor is required")
	}
	if recordID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "record_id is required")
	}
	rec, err := s.records.FindByID(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if !rec.CanBeAccessedBy(actor) {
		return nil, dErrors.New(dErrors.CodeForbidden, "actor may not access record "+string(recordID))
	}
	return rec, nil
}
