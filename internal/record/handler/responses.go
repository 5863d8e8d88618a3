package handler

import (
	"time"

	"vaultledger/internal/credential"
	ledgermodels "vaultledger/internal/ledger/models"
	"vaultledger/internal/record/models"
	"vaultledger/pkg/platform/httputil"
)

// RecordResponse is a record without its secret-bound content.
type RecordResponse struct {
	RecordID        string            `json:"record_id"`
	OwnerID         string            `json:"owner_id"`
	RecordType      models.RecordType `json:"record_type"`
	ContentHash     string            `json:"content_hash"`
	BlobRef         string            `json:"encrypted_blob_ref,omitempty"`
	VerifierID      string            `json:"verifier_id,omitempty"`
	ExpiresAt       int64             `json:"expires_at"`
	Notes           string            `json:"notes,omitempty"`
	LanguageTag     string            `json:"language_tag,omitempty"`
	Status          models.Status     `json:"status"`
	StatementID     string            `json:"statement_id,omitempty"`
	ProofVerifiedAt *time.Time        `json:"proof_verified_at,omitempty"`
	AnchorTxRef     string            `json:"anchor_tx_ref,omitempty"`
	RevokedAt       *time.Time        `json:"revoked_at,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// TransactionResponse is the public view of an anchor transaction.
type TransactionResponse struct {
	TxHash      string              `json:"tx_hash,omitempty"`
	Status      ledgermodels.Status `json:"status"`
	BlockNumber uint64              `json:"block_number,omitempty"`
	Attempts    int                 `json:"attempts"`
	SubmittedAt time.Time           `json:"submitted_at"`
	ConfirmedAt *time.Time          `json:"confirmed_at,omitempty"`
	RevokedAt   *time.Time          `json:"revoked_at,omitempty"`
	Failure     string              `json:"failure_reason,omitempty"`
}

// AnchorResponse reports the outcome of an anchor or resume call.
type AnchorResponse struct {
	Record      RecordResponse       `json:"record"`
	Transaction *TransactionResponse `json:"transaction,omitempty"`
	Completed   []models.Step        `json:"completed_steps"`
	Pending     bool                 `json:"pending"`
}

// FetchResponse carries the verified plaintext, base64 in JSON.
type FetchResponse struct {
	Record  RecordResponse `json:"record"`
	Content []byte         `json:"content"`
}

// ListResponse is returned when listing records.
type ListResponse struct {
	Records []RecordResponse `json:"records"`
}

// VerifyCredentialResponse is the verdict on a credential.
type VerifyCredentialResponse struct {
	Valid      bool                   `json:"valid"`
	Reason     string                 `json:"reason,omitempty"`
	Credential *credential.Credential `json:"credential,omitempty"`
}

// StepErrorResponse is an error body for a partially completed operation.
type StepErrorResponse struct {
	httputil.ErrorResponse
	RecordID  string        `json:"record_id,omitempty"`
	Completed []models.Step `json:"completed_steps"`
	Failed    models.Step   `json:"failed_step"`
	ContentID string        `json:"content_id,omitempty"`
}

func toRecordResponse(r *models.Record) RecordResponse {
	return RecordResponse{
		RecordID:        string(r.ID),
		OwnerID:         string(r.OwnerID),
		RecordType:      r.Type,
		ContentHash:     r.ContentHash.Hex(),
		BlobRef:         r.BlobRef,
		VerifierID:      string(r.VerifierID),
		ExpiresAt:       r.ExpiresAt,
		Notes:           r.Notes,
		LanguageTag:     r.LanguageTag,
		Status:          r.Status,
		StatementID:     r.StatementID,
		ProofVerifiedAt: r.ProofVerifiedAt,
		AnchorTxRef:     r.AnchorTxRef,
		RevokedAt:       r.RevokedAt,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

func toTransactionResponse(tx *ledgermodels.Transaction) *TransactionResponse {
	if tx == nil {
		return nil
	}
	return &TransactionResponse{
		TxHash:      tx.TxHash,
		Status:      tx.Status,
		BlockNumber: tx.BlockNumber,
		Attempts:    tx.Attempts,
		SubmittedAt: tx.SubmittedAt,
		ConfirmedAt: tx.ConfirmedAt,
		RevokedAt:   tx.RevokedAt,
		Failure:     tx.FailureReason,
	}
}

func toAnchorResponse(result *models.AnchorResult) AnchorResponse {
	completed := result.Completed
	if completed == nil {
		completed = []models.Step{}
	}
	return AnchorResponse{
		Record:      toRecordResponse(result.Record),
		Transaction: toTransactionResponse(result.Transaction),
		Completed:   completed,
		Pending:     result.Pending(),
	}
}
