package service

import (
	"context"
	"crypto/sha256"
	"errors"
	"strconv"
	"time"

	ledgermodels "vaultledger/internal/ledger/models"
	"vaultledger/internal/platform/tracer"
	"vaultledger/internal/proof"
	"vaultledger/internal/record/models"
	"vaultledger/internal/record/store"
	"vaultledger/internal/vault"
	id "vaultledger/pkg/domain"
	dErrors "vaultledger/pkg/domain-errors"
	"vaultledger/pkg/platform/audit"
	"vaultledger/pkg/requestcontext"
)

// pipelineInput carries what the current call can contribute. Plaintext and
// secret are only present on AnchorRecord; a resume has to make do with the
// stored envelope. release drops the record lock once the anchor is
// submitted; waiting for confirmation happens outside it.
type pipelineInput struct {
	plaintext []byte
	secret    []byte
	proof     *proof.Artifact
	timeout   time.Duration
	release   func()
}

// AnchorRecord encrypts the payload, stores the envelope, checks the
// attached proof, anchors the content hash and waits for confirmation.
//
// Repeating the call for a record that is already anchored with the same
// content returns it unchanged; a repeat that races an in-flight call waits
// for it and then shares its transaction. Different content under the same record id
// fails with a conflict until the record is revoked. A confirmation timeout
// is not an error: the result carries the pending transaction.
func (s *Service) AnchorRecord(ctx context.Context, req models.AnchorRequest) (*models.AnchorResult, error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanAnchorRecord,
		tracer.String(tracer.AttrRecordID, string(req.RecordID)),
		tracer.String(tracer.AttrRecordType, string(req.Type)),
		tracer.String(tracer.AttrOwner, tracer.HashActor(requestcontext.ActorID(ctx))),
	)
	result, err := s.anchorRecord(ctx, req)
	span.End(err)
	return result, err
}

func (s *Service) anchorRecord(ctx context.Context, req models.AnchorRequest) (*models.AnchorResult, error) {
	if err := s.validateAnchorRequest(ctx, &req); err != nil {
		return nil, err
	}

	release := s.lockRecord(req.RecordID)
	defer release()

	rec, done, err := s.claim(ctx, req, sha256.Sum256(req.Plaintext))
	if err != nil {
		return nil, err
	}
	if done {
		return s.settledResult(ctx, rec)
	}

	return s.runPipeline(ctx, rec, pipelineInput{
		plaintext: req.Plaintext,
		secret:    req.Secret,
		proof:     req.Proof,
		timeout:   s.timeout(req.ConfirmTimeout),
		release:   release,
	})
}

func (s *Service) validateAnchorRequest(ctx context.Context, req *models.AnchorRequest) error {
	actor := requestcontext.ActorID(ctx)
	if actor == "" {
		return dErrors.New(dErrors.CodeUnauthorized, "actor is required")
	}
	if req.OwnerID.IsNil() {
		req.OwnerID = id.OwnerID(actor)
	}
	if string(req.OwnerID) != actor {
		return dErrors.New(dErrors.CodeForbidden, "records can only be anchored by their owner")
	}
	if req.RecordID.IsNil() {
		return dErrors.New(dErrors.CodeInvalidInput, "record_id is required")
	}
	if len(req.Plaintext) == 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "record content is required")
	}
	if len(req.Secret) != vault.KeySize {
		return vault.ErrKey
	}
	recordType, err := models.ParseRecordType(string(req.Type))
	if err != nil {
		return err
	}
	req.Type = recordType
	if req.ExpiresAt < 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "expires_at must not be negative")
	}
	if req.ExpiresAt > 0 && req.ExpiresAt <= requestcontext.Now(ctx).Unix() {
		return dErrors.New(dErrors.CodeInvalidInput, "expires_at must be in the future")
	}
	if req.Proof != nil && req.StatementID == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "a proof requires statement_id")
	}
	if req.StatementID != "" {
		if _, err := s.statements.Get(req.StatementID); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInvalidInput, "unknown statement "+req.StatementID)
		}
	}
	return nil
}

// claim finds or creates the draft the pipeline works on. done reports
// that the record is already settled and nothing is left to do.
func (s *Service) claim(ctx context.Context, req models.AnchorRequest, contentHash ledgermodels.ContentHash) (*models.Record, bool, error) {
	now := requestcontext.Now(ctx)
	draft := &models.Record{
		ID:          req.RecordID,
		OwnerID:     req.OwnerID,
		Type:        req.Type,
		ContentHash: contentHash,
		VerifierID:  req.VerifierID,
		ExpiresAt:   req.ExpiresAt,
		Notes:       req.Notes,
		LanguageTag: req.LanguageTag,
		Status:      models.StatusDraft,
		StatementID: req.StatementID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	existing, err := s.records.FindByID(ctx, req.RecordID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		if err := s.records.Create(ctx, draft); err != nil {
			return nil, false, err
		}
		return draft, false, nil
	case err != nil:
		return nil, false, err
	}

	if existing.OwnerID != req.OwnerID {
		return nil, false, dErrors.New(dErrors.CodeConflict, "record "+string(req.RecordID)+" belongs to another owner")
	}
	if existing.Status == models.StatusRevoked {
		// Revoke-then-reanchor: the old binding was released explicitly.
		if err := s.records.Save(ctx, draft); err != nil {
			return nil, false, err
		}
		return draft, false, nil
	}
	if existing.ContentHash != contentHash {
		s.logger.InfoContext(ctx, "record rebinding refused", "record_id", req.RecordID)
		return nil, false, dErrors.New(dErrors.CodeConflict, "record "+string(req.RecordID)+" is already bound to different content")
	}
	return existing, existing.Status != models.StatusDraft, nil
}

// ResumeAnchor continues a draft from its first incomplete step. Encryption
// cannot be resumed: a draft without a stored envelope has to be submitted
// again through AnchorRecord.
func (s *Service) ResumeAnchor(ctx context.Context, req models.ResumeRequest) (*models.AnchorResult, error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanResumeAnchor,
		tracer.String(tracer.AttrRecordID, string(req.RecordID)),
	)
	result, err := s.resumeAnchor(ctx, req)
	span.End(err)
	return result, err
}

func (s *Service) resumeAnchor(ctx context.Context, req models.ResumeRequest) (*models.AnchorResult, error) {
	actor := requestcontext.ActorID(ctx)
	if actor == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "actor is required")
	}

	release := s.lockRecord(req.RecordID)
	defer release()

	rec, err := s.records.FindByID(ctx, req.RecordID)
	if err != nil {
		return nil, err
	}
	if string(rec.OwnerID) != actor {
		return nil, dErrors.New(dErrors.CodeForbidden, "only the owner can resume anchoring")
	}
	switch rec.Status {
	case models.StatusRevoked:
		return nil, dErrors.New(dErrors.CodeConflict, "record "+string(rec.ID)+" was revoked; anchor it again")
	case models.StatusAnchored, models.StatusExpired:
		return s.settledResult(ctx, rec)
	}

	return s.runPipeline(ctx, rec, pipelineInput{
		proof:   req.Proof,
		timeout: s.timeout(req.ConfirmTimeout),
		release: release,
	})
}

// SettleAnchor polls the ledger for a draft's pending anchor and marks the
// record anchored once confirmed. It is used by the confirmation workers and
// performs no actor check. It only reads ledger state and finishes with a
// conditional update, so it never takes the record lock.
func (s *Service) SettleAnchor(ctx context.Context, recordID string, timeout time.Duration) (*ledgermodels.Transaction, error) {
	tx, err := s.ledger.Lookup(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if tx.Orphaned() {
		if tx, err = s.resubmitOrphan(ctx, id.RecordID(recordID), tx); err != nil {
			return tx, err
		}
	}
	tx, err = s.ledger.AwaitConfirmation(ctx, tx, s.timeout(timeout))
	if err != nil {
		return tx, err
	}
	if tx.Status != ledgermodels.StatusConfirmed {
		return tx, nil
	}

	rec, err := s.records.FindByID(ctx, id.RecordID(recordID))
	if errors.Is(err, store.ErrNotFound) {
		s.logger.WarnContext(ctx, "confirmed anchor has no record", "record_id", recordID, "tx_hash", tx.TxHash)
		return tx, nil
	}
	if err != nil {
		return tx, err
	}
	if rec.Status == models.StatusDraft && rec.ContentHash == tx.ContentHash {
		if _, err := s.markAnchored(ctx, rec, tx); err != nil {
			return tx, err
		}
	}
	return tx, nil
}

// resubmitOrphan sends again an anchor whose earlier send was never
// recorded. The stored envelope and proof verdict are enough; nothing is
// encrypted again. Records that are no longer drafts are left alone.
func (s *Service) resubmitOrphan(ctx context.Context, recordID id.RecordID, orphan *ledgermodels.Transaction) (*ledgermodels.Transaction, error) {
	release := s.lockRecord(recordID)
	defer release()

	rec, err := s.records.FindByID(ctx, recordID)
	if err != nil {
		return orphan, err
	}
	if rec.Status != models.StatusDraft || rec.ContentHash != orphan.ContentHash || rec.BlobRef == "" {
		return orphan, nil
	}
	tx, err := s.ledger.Submit(ctx, string(rec.ID), rec.ContentHash, ledgermodels.Metadata{
		ContentID:  rec.BlobRef,
		Attributes: anchorAttributes(rec),
	})
	if err != nil {
		return orphan, err
	}
	if _, err := s.recordTxRef(ctx, rec, tx.TxHash); err != nil {
		return tx, err
	}
	s.logger.InfoContext(ctx, "unrecorded anchor resubmitted", "record_id", recordID, "tx_hash", tx.TxHash)
	return tx, nil
}

func (s *Service) runPipeline(ctx context.Context, rec *models.Record, in pipelineInput) (*models.AnchorResult, error) {
	fail := func(step models.Step, err error) error {
		s.logger.WarnContext(ctx, "anchor step failed",
			"record_id", rec.ID,
			"step", step,
			"error", err,
		)
		return &models.StepError{
			RecordID:  string(rec.ID),
			Completed: rec.CompletedSteps(),
			Failed:    step,
			ContentID: rec.BlobRef,
			Err:       err,
		}
	}

	if rec.BlobRef == "" {
		if len(in.plaintext) == 0 || len(in.secret) == 0 {
			return nil, fail(models.StepEncrypt, dErrors.New(dErrors.CodeInvalidInput,
				"envelope was never stored; submit the record again with its content and secret"))
		}
		span := s.startStep(ctx, models.StepEncrypt)
		envelope, err := s.vault.Encrypt(in.plaintext, in.secret)
		span.End(err)
		if err != nil {
			return nil, fail(models.StepEncrypt, err)
		}

		span = s.startStep(ctx, models.StepStore)
		contentID, err := s.content.Put(ctx, envelope)
		if err == nil {
			span.SetAttributes(tracer.String(tracer.AttrContentID, contentID.String()))
			var next *models.Record
			next, err = s.update(ctx, rec, func(r *models.Record) { r.BlobRef = contentID.String() })
			if err == nil {
				rec = next
			}
		}
		span.End(err)
		if err != nil {
			stepErr := fail(models.StepStore, err).(*models.StepError)
			stepErr.ContentID = contentID.String()
			return nil, stepErr
		}
	}

	if rec.StatementID != "" && rec.ProofVerifiedAt == nil {
		span := s.startStep(ctx, models.StepVerifyProof, tracer.String(tracer.AttrStatement, rec.StatementID))
		err := s.checkProof(ctx, rec, in.proof)
		if err == nil {
			verifiedAt := requestcontext.Now(ctx)
			var next *models.Record
			next, err = s.update(ctx, rec, func(r *models.Record) { r.ProofVerifiedAt = &verifiedAt })
			if err == nil {
				rec = next
			}
		}
		span.End(err)
		if err != nil {
			return nil, fail(models.StepVerifyProof, err)
		}
	}

	span := s.startStep(ctx, models.StepSubmit)
	tx, err := s.ledger.Submit(ctx, string(rec.ID), rec.ContentHash, ledgermodels.Metadata{
		ContentID:  rec.BlobRef,
		Attributes: anchorAttributes(rec),
	})
	if err == nil && rec.AnchorTxRef != tx.TxHash {
		span.SetAttributes(tracer.String(tracer.AttrTxHash, tx.TxHash))
		var next *models.Record
		next, err = s.recordTxRef(ctx, rec, tx.TxHash)
		if err == nil {
			rec = next
		}
	}
	span.End(err)
	in.release()
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeAnchorFailed) {
			s.emitAudit(ctx, audit.EventAnchorFailed, audit.Event{
				Subject:   string(rec.ID),
				ContentID: rec.BlobRef,
				Reason:    err.Error(),
			})
		}
		return nil, fail(models.StepSubmit, err)
	}

	span = s.startStep(ctx, models.StepConfirm, tracer.String(tracer.AttrTxHash, tx.TxHash))
	confirmed, err := s.ledger.AwaitConfirmation(ctx, tx, in.timeout)
	if err == nil && confirmed.Status == ledgermodels.StatusConfirmed {
		var next *models.Record
		next, err = s.markAnchored(ctx, rec, confirmed)
		if err == nil {
			rec = next
		}
	}
	if confirmed != nil {
		span.SetAttributes(tracer.String(tracer.AttrAnchorState, string(confirmed.Status)))
	}
	span.End(err)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeAnchorFailed) {
			s.emitAudit(ctx, audit.EventAnchorFailed, audit.Event{
				Subject: string(rec.ID),
				TxHash:  tx.TxHash,
				Reason:  err.Error(),
			})
		}
		return nil, fail(models.StepConfirm, err)
	}
	if confirmed.Status == ledgermodels.StatusPending {
		s.logger.InfoContext(ctx, "anchor awaiting confirmation", "record_id", rec.ID, "tx_hash", confirmed.TxHash)
	}
	return &models.AnchorResult{Record: rec, Transaction: confirmed, Completed: rec.CompletedSteps()}, nil
}

func (s *Service) checkProof(ctx context.Context, rec *models.Record, artifact *proof.Artifact) error {
	if artifact == nil {
		return dErrors.New(dErrors.CodeVerification, "a proof for statement "+rec.StatementID+" is required")
	}
	stmt, err := s.statements.Get(rec.StatementID)
	if err != nil {
		return err
	}
	if err := s.verifier.VerifyStrict(ctx, *artifact, stmt); err != nil {
		s.emitAudit(ctx, audit.EventProofRejected, audit.Event{
			Subject: string(rec.ID),
			Reason:  string(proof.ReasonOf(err)),
		})
		return err
	}
	return nil
}

// markAnchored moves a draft to Anchored once its transaction is confirmed.
func (s *Service) markAnchored(ctx context.Context, rec *models.Record, tx *ledgermodels.Transaction) (*models.Record, error) {
	now := requestcontext.Now(ctx)
	changed := false
	next, err := s.records.Update(ctx, rec.ID, func(r *models.Record) (*models.Record, error) {
		if r.Status != models.StatusDraft || r.ContentHash != tx.ContentHash {
			return nil, nil
		}
		r.Status = models.StatusAnchored
		r.AnchorTxRef = tx.TxHash
		r.UpdatedAt = now
		changed = true
		return r, nil
	})
	if err != nil {
		return nil, err
	}
	if changed {
		s.logger.InfoContext(ctx, "record anchored", "record_id", next.ID, "tx_hash", tx.TxHash)
		s.emitAudit(ctx, audit.EventRecordAnchored, audit.Event{
			Subject:   string(next.ID),
			ActorID:   string(next.OwnerID),
			ContentID: next.BlobRef,
			TxHash:    tx.TxHash,
		})
	}
	return next, nil
}

// update persists a change to a draft. It refuses to touch a record that
// left the draft state underneath the pipeline.
func (s *Service) update(ctx context.Context, rec *models.Record, mutate func(*models.Record)) (*models.Record, error) {
	now := requestcontext.Now(ctx)
	return s.records.Update(ctx, rec.ID, func(r *models.Record) (*models.Record, error) {
		if r.Status != models.StatusDraft || r.ContentHash != rec.ContentHash {
			return nil, dErrors.New(dErrors.CodeConflict, "record "+string(rec.ID)+" changed during anchoring")
		}
		mutate(r)
		r.UpdatedAt = now
		return r, nil
	})
}

// recordTxRef stores the submitted transaction hash on the draft. A worker
// may already have settled the same anchor, in which case the record is
// returned as it is.
func (s *Service) recordTxRef(ctx context.Context, rec *models.Record, txHash string) (*models.Record, error) {
	now := requestcontext.Now(ctx)
	return s.records.Update(ctx, rec.ID, func(r *models.Record) (*models.Record, error) {
		switch {
		case r.ContentHash != rec.ContentHash || r.Status == models.StatusRevoked:
			return nil, dErrors.New(dErrors.CodeConflict, "record "+string(rec.ID)+" changed during anchoring")
		case r.Status != models.StatusDraft:
			return nil, nil
		}
		r.AnchorTxRef = txHash
		r.UpdatedAt = now
		return r, nil
	})
}

// settledResult describes a record that needs no further anchoring work.
func (s *Service) settledResult(ctx context.Context, rec *models.Record) (*models.AnchorResult, error) {
	result := &models.AnchorResult{Record: rec, Completed: rec.CompletedSteps()}
	tx, err := s.ledger.Lookup(ctx, string(rec.ID))
	switch {
	case err == nil:
		result.Transaction = tx
	case !dErrors.HasCode(err, dErrors.CodeNotFound):
		return nil, err
	}
	return result, nil
}

func (s *Service) timeout(requested time.Duration) time.Duration {
	if requested > 0 {
		return requested
	}
	return s.cfg.ConfirmTimeout
}

func anchorAttributes(rec *models.Record) map[string]string {
	attrs := map[string]string{"record_type": string(rec.Type)}
	if rec.ExpiresAt > 0 {
		attrs["expires_at"] = strconv.FormatInt(rec.ExpiresAt, 10)
	}
	return attrs
}

func (s *Service) startStep(ctx context.Context, step models.Step, attrs ...tracer.Attribute) tracer.Span {
	_, span := s.tracer.Start(ctx, "record.step."+string(step), append(attrs, tracer.String(tracer.AttrStep, string(step)))...)
	return span
}
