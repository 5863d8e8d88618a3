package handler

import (
	"encoding/json"
	"time"

	"vaultledger/internal/credential"
	"vaultledger/internal/proof"
	"vaultledger/internal/record/models"
	id "vaultledger/pkg/domain"
	dErrors "vaultledger/pkg/domain-errors"
	strutil "vaultledger/pkg/platform/strings"
	"vaultledger/pkg/platform/validation"
)

// ProofPayload is a proof as submitted over HTTP.
type ProofPayload struct {
	Proof        json.RawMessage `json:"proof"`
	PublicInputs []string        `json:"public_inputs"`
}

func (p *ProofPayload) validate() error {
	if len(p.Proof) == 0 {
		return dErrors.New(dErrors.CodeValidation, "proof.proof is required")
	}
	return validation.CheckSliceCount("public inputs", len(p.PublicInputs), validation.MaxPublicInputs)
}

func (p *ProofPayload) artifact() *proof.Artifact {
	if p == nil {
		return nil
	}
	return &proof.Artifact{ProofData: p.Proof, PublicInputs: p.PublicInputs}
}

// AnchorRecordRequest submits a record. Content and Secret are base64 in JSON.
type AnchorRecordRequest struct {
	RecordID         string        `json:"record_id"`
	OwnerID          string        `json:"owner_id,omitempty"`
	RecordType       string        `json:"record_type,omitempty"`
	Content          []byte        `json:"content"`
	Secret           []byte        `json:"secret"`
	VerifierID       string        `json:"verifier_id,omitempty"`
	ExpiresAt        int64         `json:"expires_at,omitempty"`
	Notes            string        `json:"notes,omitempty"`
	LanguageTag      string        `json:"language_tag,omitempty"`
	StatementID      string        `json:"statement_id,omitempty"`
	Proof            *ProofPayload `json:"proof,omitempty"`
	ConfirmTimeoutMS int64         `json:"confirm_timeout_ms,omitempty"`
}

func (r *AnchorRecordRequest) Sanitize() {
	if r == nil {
		return
	}
	strutil.TrimAll(&r.RecordID, &r.OwnerID, &r.RecordType, &r.VerifierID, &r.LanguageTag, &r.StatementID)
}

// Validate checks shape and size. Semantic checks live in the engine.
func (r *AnchorRecordRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if r.RecordID == "" {
		return dErrors.New(dErrors.CodeValidation, "record_id is required")
	}
	if len(r.Content) == 0 {
		return dErrors.New(dErrors.CodeValidation, "content is required")
	}
	if len(r.Content) > validation.MaxContentSize {
		return dErrors.New(dErrors.CodeValidation, "content is too large")
	}
	if len(r.Secret) == 0 {
		return dErrors.New(dErrors.CodeKey, "secret is required")
	}
	if r.ConfirmTimeoutMS < 0 {
		return dErrors.New(dErrors.CodeValidation, "confirm_timeout_ms must not be negative")
	}
	if r.Proof != nil {
		if err := r.Proof.validate(); err != nil {
			return err
		}
	}
	checks := []error{
		validation.CheckStringLength("record_id", r.RecordID, validation.MaxRecordIDLength),
		validation.CheckStringLength("owner_id", r.OwnerID, validation.MaxActorIDLength),
		validation.CheckStringLength("verifier_id", r.VerifierID, validation.MaxActorIDLength),
		validation.CheckStringLength("notes", r.Notes, validation.MaxNotesLength),
		validation.CheckStringLength("language_tag", r.LanguageTag, validation.MaxLanguageTagLength),
		validation.CheckStringLength("statement_id", r.StatementID, validation.MaxStatementIDLength),
	}
	for _, err := range checks {
		if err != nil {
			return err
		}
	}
	return parseIDs(r.RecordID, r.OwnerID, r.VerifierID)
}

// parseIDs rejects identifiers that cannot serve as ledger keys. The owner
// defaults to the caller, so an empty owner is allowed.
func parseIDs(recordID, ownerID, verifierID string) error {
	if _, err := id.ParseRecordID(recordID); err != nil {
		return err
	}
	if ownerID != "" {
		if _, err := id.ParseOwnerID(ownerID); err != nil {
			return err
		}
	}
	_, err := id.ParseVerifierID(verifierID)
	return err
}

func (r *AnchorRecordRequest) ToModel() models.AnchorRequest {
	return models.AnchorRequest{
		RecordID:       id.RecordID(r.RecordID),
		OwnerID:        id.OwnerID(r.OwnerID),
		Type:           models.RecordType(r.RecordType),
		Plaintext:      r.Content,
		Secret:         r.Secret,
		VerifierID:     id.VerifierID(r.VerifierID),
		ExpiresAt:      r.ExpiresAt,
		Notes:          r.Notes,
		LanguageTag:    r.LanguageTag,
		StatementID:    r.StatementID,
		Proof:          r.Proof.artifact(),
		ConfirmTimeout: time.Duration(r.ConfirmTimeoutMS) * time.Millisecond,
	}
}

// ResumeAnchorRequest continues a partially completed anchor.
type ResumeAnchorRequest struct {
	Proof            *ProofPayload `json:"proof,omitempty"`
	ConfirmTimeoutMS int64         `json:"confirm_timeout_ms,omitempty"`
}

func (r *ResumeAnchorRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if r.ConfirmTimeoutMS < 0 {
		return dErrors.New(dErrors.CodeValidation, "confirm_timeout_ms must not be negative")
	}
	if r.Proof != nil {
		return r.Proof.validate()
	}
	return nil
}

func (r *ResumeAnchorRequest) ToModel(recordID id.RecordID) models.ResumeRequest {
	return models.ResumeRequest{
		RecordID:       recordID,
		Proof:          r.Proof.artifact(),
		ConfirmTimeout: time.Duration(r.ConfirmTimeoutMS) * time.Millisecond,
	}
}

// RevokeRecordRequest releases a record's anchor.
type RevokeRecordRequest struct {
	Reason string `json:"reason"`
}

func (r *RevokeRecordRequest) Sanitize() {
	if r != nil {
		strutil.TrimAll(&r.Reason)
	}
}

func (r *RevokeRecordRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	return validation.CheckStringLength("reason", r.Reason, validation.MaxReasonLength)
}

// IssueCredentialRequest asks for a signed credential.
type IssueCredentialRequest struct {
	SubjectID string            `json:"subject_id"`
	Types     []string          `json:"types,omitempty"`
	Claims    credential.Claims `json:"claims,omitempty"`
	RecordID  string            `json:"record_id,omitempty"`
}

func (r *IssueCredentialRequest) Sanitize() {
	if r == nil {
		return
	}
	strutil.TrimAll(&r.SubjectID, &r.RecordID)
}

func (r *IssueCredentialRequest) Normalize() {
	if r != nil {
		r.Types = strutil.DedupeAndTrim(r.Types)
	}
}

func (r *IssueCredentialRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if r.SubjectID == "" {
		return dErrors.New(dErrors.CodeValidation, "subject_id is required")
	}
	checks := []error{
		validation.CheckStringLength("subject_id", r.SubjectID, validation.MaxActorIDLength),
		validation.CheckStringLength("record_id", r.RecordID, validation.MaxRecordIDLength),
		validation.CheckSliceCount("types", len(r.Types), validation.MaxCredentialTypes),
		validation.CheckEachStringLength("type", r.Types, validation.MaxCredentialTypeLength),
		validation.CheckSliceCount("claims", len(r.Claims), validation.MaxClaims),
	}
	for _, err := range checks {
		if err != nil {
			return err
		}
	}
	if _, err := id.ParseSubjectID(r.SubjectID); err != nil {
		return err
	}
	if r.RecordID != "" {
		if _, err := id.ParseRecordID(r.RecordID); err != nil {
			return err
		}
	}
	return nil
}

func (r *IssueCredentialRequest) ToModel() models.IssueCredentialRequest {
	return models.IssueCredentialRequest{
		SubjectID: id.SubjectID(r.SubjectID),
		Types:     r.Types,
		Claims:    r.Claims,
		RecordID:  id.RecordID(r.RecordID),
	}
}

// VerifyCredentialRequest checks a credential inline, as a vc-jwt, or by
// content id.
type VerifyCredentialRequest struct {
	Credential *credential.Credential `json:"credential,omitempty"`
	JWT        string                 `json:"jwt,omitempty"`
	ContentID  string                 `json:"content_id,omitempty"`
}

func (r *VerifyCredentialRequest) Sanitize() {
	if r != nil {
		strutil.TrimAll(&r.JWT, &r.ContentID)
	}
}

func (r *VerifyCredentialRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	sources := 0
	for _, set := range []bool{r.Credential != nil, r.JWT != "", r.ContentID != ""} {
		if set {
			sources++
		}
	}
	if sources != 1 {
		return dErrors.New(dErrors.CodeValidation, "exactly one of credential, jwt or content_id is required")
	}
	return nil
}

func (r *VerifyCredentialRequest) ToModel() models.VerifyCredentialRequest {
	return models.VerifyCredentialRequest{Credential: r.Credential, JWT: r.JWT, ContentID: r.ContentID}
}

// VerifyProofRequest checks a proof against a statement.
type VerifyProofRequest struct {
	StatementID string       `json:"statement_id"`
	Proof       ProofPayload `json:"proof"`
	Strict      bool         `json:"strict,omitempty"`
}

func (r *VerifyProofRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if r.StatementID == "" {
		return dErrors.New(dErrors.CodeValidation, "statement_id is required")
	}
	if err := validation.CheckStringLength("statement_id", r.StatementID, validation.MaxStatementIDLength); err != nil {
		return err
	}
	return validation.CheckSliceCount("public inputs", len(r.Proof.PublicInputs), validation.MaxPublicInputs)
}

func (r *VerifyProofRequest) ToModel() models.VerifyProofRequest {
	return models.VerifyProofRequest{
		StatementID: r.StatementID,
		Proof:       *r.Proof.artifact(),
		Strict:      r.Strict,
	}
}
