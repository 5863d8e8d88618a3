package service

import (
	"context"
	"crypto/ed25519"
	"encoding/json"
	"maps"

	"vaultledger/internal/contentstore"
	"vaultledger/internal/credential"
	"vaultledger/internal/credential/signer"
	"vaultledger/internal/platform/tracer"
	"vaultledger/internal/proof"
	"vaultledger/internal/record/models"
	dErrors "vaultledger/pkg/domain-errors"
	"vaultledger/pkg/platform/audit"
	"vaultledger/pkg/requestcontext"
)

// anchorClaim is the claim name under which a credential references a record.
const anchorClaim = "anchor"

// IssueCredential signs a credential with the configured issuer key and
// stores it through the content store. A credential naming a record is only
// issued while that record is anchored.
func (s *Service) IssueCredential(ctx context.Context, req models.IssueCredentialRequest) (*models.IssuedCredential, error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanIssueCredential,
		tracer.String(tracer.AttrRecordID, string(req.RecordID)),
	)
	issued, err := s.issueCredential(ctx, req)
	if issued != nil {
		span.SetAttributes(tracer.String(tracer.AttrCredential, issued.Credential.ID.String()))
	}
	span.End(err)
	return issued, err
}

func (s *Service) issueCredential(ctx context.Context, req models.IssueCredentialRequest) (*models.IssuedCredential, error) {
	actor := requestcontext.ActorID(ctx)
	if actor == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "actor is required")
	}
	if req.SubjectID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "subject_id is required")
	}

	claims := maps.Clone(req.Claims)
	if claims == nil {
		claims = credential.Claims{}
	}
	if !req.RecordID.IsNil() {
		if _, taken := claims[anchorClaim]; taken {
			return nil, dErrors.New(dErrors.CodeInvalidInput, "claim "+anchorClaim+" is reserved")
		}
		rec, err := s.anchoredRecord(ctx, req)
		if err != nil {
			return nil, err
		}
		claims[anchorClaim] = models.AnchorClaim(rec)
	}

	cred, err := s.issuer.Issue(ctx, credential.IssueRequest{
		SubjectID: string(req.SubjectID),
		Types:     req.Types,
		Claims:    claims,
	}, s.cfg.IssuerKey)
	if err != nil {
		return nil, err
	}

	var vcJWT string
	if s.cfg.IssuerKey.Algorithm == signer.Ed25519 {
		if vcJWT, err = credential.EncodeJWT(cred, s.cfg.IssuerKey); err != nil {
			return nil, err
		}
	}

	raw, err := json.Marshal(cred)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode credential")
	}
	contentID, err := s.content.Put(ctx, raw)
	if err != nil {
		return nil, &models.StepError{
			RecordID:  cred.ID.String(),
			Completed: []models.Step{models.StepSign},
			Failed:    models.StepStore,
			Err:       err,
		}
	}

	if s.metrics != nil {
		s.metrics.IncCredentialIssued(string(s.cfg.IssuerKey.Algorithm))
	}
	s.logger.InfoContext(ctx, "credential issued",
		"credential_id", cred.ID,
		"content_id", contentID,
		"record_id", req.RecordID,
	)
	s.emitAudit(ctx, audit.EventCredentialIssued, audit.Event{
		Subject:   cred.ID.String(),
		ContentID: contentID.String(),
	})
	return &models.IssuedCredential{Credential: cred, ContentID: contentID.String(), JWT: vcJWT}, nil
}

// anchoredRecord loads the record a credential refers to. The issuer does
// not have to own it, but the record's subject must be its owner.
func (s *Service) anchoredRecord(ctx context.Context, req models.IssueCredentialRequest) (*models.Record, error) {
	rec, err := s.records.FindByID(ctx, req.RecordID)
	if err != nil {
		return nil, err
	}
	if string(rec.OwnerID) != string(req.SubjectID) {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "record "+string(rec.ID)+" is not owned by the credential subject")
	}
	now := requestcontext.Now(ctx)
	switch rec.Status {
	case models.StatusAnchored:
		if rec.IsExpiredAt(now) {
			if _, _, err := s.expire(ctx, rec.ID, now); err != nil {
				return nil, err
			}
			return nil, ErrExpired
		}
		return rec, nil
	case models.StatusExpired:
		return nil, ErrExpired
	case models.StatusRevoked:
		return nil, ErrRevoked
	default:
		return nil, dErrors.New(dErrors.CodeConflict, "record "+string(rec.ID)+" is not anchored yet")
	}
}

// VerifyCredential checks a credential's signature against the configured
// issuer key. The credential is given inline or loaded by content id.
func (s *Service) VerifyCredential(ctx context.Context, req models.VerifyCredentialRequest) (*credential.Credential, error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanVerifyCredential)
	cred, err := s.verifyCredential(ctx, req)
	if cred != nil {
		span.SetAttributes(tracer.String(tracer.AttrCredential, cred.ID.String()))
	}
	span.End(err)
	return cred, err
}

func (s *Service) verifyCredential(ctx context.Context, req models.VerifyCredentialRequest) (*credential.Credential, error) {
	sources := 0
	for _, set := range []bool{req.Credential != nil, req.JWT != "", req.ContentID != ""} {
		if set {
			sources++
		}
	}
	if sources != 1 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "exactly one of credential, jwt or content_id is required")
	}

	cred := req.Credential
	switch {
	case req.JWT != "":
		if s.cfg.IssuerKey.Algorithm != signer.Ed25519 {
			return nil, dErrors.New(dErrors.CodeVerification, "vc-jwt verification needs an Ed25519 issuer key")
		}
		decoded, err := credential.DecodeJWT(req.JWT, ed25519.PublicKey(s.cfg.IssuerKey.PublicKey))
		if err != nil {
			return nil, err
		}
		cred = decoded
	case req.ContentID != "":
		loaded, err := s.loadCredential(ctx, req.ContentID)
		if err != nil {
			return nil, err
		}
		cred = loaded
	}

	if cred.IssuerID != s.cfg.IssuerKey.IssuerID {
		return nil, dErrors.New(dErrors.CodeVerification, "credential issuer "+cred.IssuerID+" is not trusted")
	}
	if err := s.issuer.Verify(cred, s.cfg.IssuerKey.PublicKey); err != nil {
		return nil, err
	}
	return cred, nil
}

func (s *Service) loadCredential(ctx context.Context, rawID string) (*credential.Credential, error) {
	contentID, err := contentstore.ParseContentID(rawID)
	if err != nil {
		return nil, err
	}
	raw, err := s.content.Get(ctx, contentID)
	if err != nil {
		return nil, err
	}
	var cred credential.Credential
	if err := json.Unmarshal(raw, &cred); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeVerification, "stored content is not a credential")
	}
	return &cred, nil
}

// VerifyProof checks a proof against a catalogued statement. Outside strict
// mode a rejected proof is a false verdict with a reason; in strict mode it
// is returned as the verification error.
func (s *Service) VerifyProof(ctx context.Context, req models.VerifyProofRequest) (*models.ProofVerdict, error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanVerifyProof,
		tracer.String(tracer.AttrStatement, req.StatementID),
	)
	verdict, err := s.verifyProof(ctx, req)
	if verdict != nil {
		span.SetAttributes(tracer.Bool("proof.valid", verdict.Valid))
	}
	span.End(err)
	return verdict, err
}

func (s *Service) verifyProof(ctx context.Context, req models.VerifyProofRequest) (*models.ProofVerdict, error) {
	if req.StatementID == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "statement_id is required")
	}
	stmt, err := s.statements.Get(req.StatementID)
	if err != nil {
		return nil, err
	}

	err = s.verifier.VerifyStrict(ctx, req.Proof, stmt)
	if err == nil {
		return &models.ProofVerdict{StatementID: stmt.ID, Valid: true}, nil
	}

	reason := proof.ReasonOf(err)
	s.emitAudit(ctx, audit.EventProofRejected, audit.Event{
		Subject: stmt.ID,
		Reason:  string(reason),
	})
	if req.Strict {
		return nil, err
	}
	return &models.ProofVerdict{StatementID: stmt.ID, Valid: false, Reason: string(reason)}, nil
}
