// Package models defines the record engine's data model.
package models

import (
	"strings"
	"time"

	"vaultledger/internal/credential"
	ledgermodels "vaultledger/internal/ledger/models"
	"vaultledger/internal/proof"
	id "vaultledger/pkg/domain"
	dErrors "vaultledger/pkg/domain-errors"
)

// RecordType categorises a record. It is carried on-chain as an attribute.
type RecordType string

const (
	RecordTypeIdentity  RecordType = "identity"
	RecordTypeHealth    RecordType = "health"
	RecordTypeEducation RecordType = "education"
	RecordTypeCareer    RecordType = "career"
	RecordTypeEmbassy   RecordType = "embassy"
)

// ParseRecordType returns the record type for s. An empty value means identity.
func ParseRecordType(s string) (RecordType, error) {
	switch t := RecordType(strings.ToLower(strings.TrimSpace(s))); t {
	case "":
		return RecordTypeIdentity, nil
	case RecordTypeIdentity, RecordTypeHealth, RecordTypeEducation, RecordTypeCareer, RecordTypeEmbassy:
		return t, nil
	default:
		return "", dErrors.New(dErrors.CodeInvalidInput, "unknown record type "+s)
	}
}

// Status is the record lifecycle state.
type Status string

const (
	StatusDraft    Status = "draft"
	StatusAnchored Status = "anchored"
	StatusExpired  Status = "expired"
	StatusRevoked  Status = "revoked"
)

// Record is an encrypted payload anchored on the ledger. The plaintext and
// the encryption secret are never part of it.
type Record struct {
	ID          id.RecordID              `json:"record_id"`
	OwnerID     id.OwnerID               `json:"owner_id"`
	Type        RecordType               `json:"record_type"`
	ContentHash ledgermodels.ContentHash `json:"content_hash"`
	// BlobRef is the content id of the encrypted envelope.
	BlobRef     string        `json:"encrypted_blob_ref,omitempty"`
	VerifierID  id.VerifierID `json:"verifier_id,omitempty"`
	ExpiresAt   int64         `json:"expires_at"`
	Notes       string        `json:"notes,omitempty"`
	LanguageTag string        `json:"language_tag,omitempty"`
	Status      Status        `json:"status"`
	// StatementID names the statement a proof must satisfy before anchoring.
	StatementID     string     `json:"statement_id,omitempty"`
	ProofVerifiedAt *time.Time `json:"proof_verified_at,omitempty"`
	AnchorTxRef     string     `json:"anchor_tx_ref,omitempty"`
	RevokedAt       *time.Time `json:"revoked_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// IsExpiredAt reports whether an expiry is set and now is past it.
func (r *Record) IsExpiredAt(now time.Time) bool {
	return r.ExpiresAt > 0 && now.Unix() > r.ExpiresAt
}

// CanBeAccessedBy reports whether actor is the owner or the designated verifier.
func (r *Record) CanBeAccessedBy(actor string) bool {
	if actor == "" {
		return false
	}
	return actor == string(r.OwnerID) || (!r.VerifierID.IsNil() && actor == string(r.VerifierID))
}

// CompletedSteps derives the anchoring progress from persisted state.
func (r *Record) CompletedSteps() []Step {
	var steps []Step
	if r.BlobRef == "" {
		return steps
	}
	steps = append(steps, StepEncrypt, StepStore)
	if r.StatementID != "" {
		if r.ProofVerifiedAt == nil {
			return steps
		}
		steps = append(steps, StepVerifyProof)
	}
	if r.AnchorTxRef == "" {
		return steps
	}
	steps = append(steps, StepSubmit)
	if r.Status != StatusDraft {
		steps = append(steps, StepConfirm)
	}
	return steps
}

// Clone returns a copy that shares no pointers with r.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	c := *r
	if r.ProofVerifiedAt != nil {
		at := *r.ProofVerifiedAt
		c.ProofVerifiedAt = &at
	}
	if r.RevokedAt != nil {
		at := *r.RevokedAt
		c.RevokedAt = &at
	}
	return &c
}

// AnchorRequest submits a record for anchoring. Secret is used for this
// call only.
type AnchorRequest struct {
	RecordID    id.RecordID
	OwnerID     id.OwnerID
	Type        RecordType
	Plaintext   []byte
	Secret      []byte
	VerifierID  id.VerifierID
	ExpiresAt   int64
	Notes       string
	LanguageTag string
	StatementID string
	Proof       *proof.Artifact
	// ConfirmTimeout bounds the wait for the ledger receipt; zero uses the
	// ledger default.
	ConfirmTimeout time.Duration
}

// ResumeRequest continues a partially completed anchor.
type ResumeRequest struct {
	RecordID       id.RecordID
	Proof          *proof.Artifact
	ConfirmTimeout time.Duration
}

// AnchorResult reports the record, its anchor, and which steps are done.
// A nil error with a pending transaction means confirmation timed out and
// the anchor can be resumed.
type AnchorResult struct {
	Record      *Record                   `json:"record"`
	Transaction *ledgermodels.Transaction `json:"transaction,omitempty"`
	Completed   []Step                    `json:"completed_steps"`
}

// Pending reports whether the anchor still awaits confirmation.
func (r *AnchorResult) Pending() bool {
	return r.Transaction != nil && r.Transaction.Status == ledgermodels.StatusPending
}

// FetchResult is a decrypted record whose content hash has been checked.
type FetchResult struct {
	Record    *Record `json:"record"`
	Plaintext []byte  `json:"plaintext"`
}

// IssueCredentialRequest asks for a credential about SubjectID. When
// RecordID is set the record must be anchored and the credential carries
// its anchor.
type IssueCredentialRequest struct {
	SubjectID id.SubjectID
	Types     []string
	Claims    credential.Claims
	RecordID  id.RecordID
}

// IssuedCredential is a signed credential and the content id it was stored
// under. JWT is the vc-jwt form, present for Ed25519 issuer keys.
type IssuedCredential struct {
	Credential *credential.Credential `json:"credential"`
	ContentID  string                 `json:"content_id"`
	JWT        string                 `json:"jwt,omitempty"`
}

// VerifyCredentialRequest checks a credential given inline, as a vc-jwt, or
// by content id. Exactly one source is set.
type VerifyCredentialRequest struct {
	Credential *credential.Credential
	JWT        string
	ContentID  string
}

// ProofVerdict is the non-strict answer of proof verification.
type ProofVerdict struct {
	StatementID string `json:"statement_id"`
	Valid       bool   `json:"valid"`
	Reason      string `json:"reason,omitempty"`
}

// VerifyProofRequest checks a proof against a catalogued statement.
type VerifyProofRequest struct {
	StatementID string
	Proof       proof.Artifact
	// Strict returns the verification error instead of a false verdict.
	Strict bool
}

// AnchorClaim returns the claim value binding a credential to r.
func AnchorClaim(r *Record) map[string]any {
	claim := map[string]any{
		"record_id":    string(r.ID),
		"content_hash": r.ContentHash.Hex(),
		"content_id":   r.BlobRef,
	}
	if r.AnchorTxRef != "" {
		claim["tx_hash"] = r.AnchorTxRef
	}
	return claim
}
