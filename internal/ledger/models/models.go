// Package models holds the anchor transaction state owned by the ledger anchor.
package models

import (
	"encoding/hex"
	"encoding/json"
	"maps"
	"time"

	dErrors "vaultledger/pkg/domain-errors"
)

// ContentHash is the SHA-256 digest of a record's plaintext.
type ContentHash [32]byte

// ParseContentHash decodes a 64-character hex digest.
func ParseContentHash(s string) (ContentHash, error) {
	var h ContentHash
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != len(h) {
		return h, dErrors.New(dErrors.CodeInvalidInput, "content hash must be 32 bytes hex encoded")
	}
	copy(h[:], b)
	return h, nil
}

// Hex returns the lowercase hex encoding.
func (h ContentHash) Hex() string {
	return hex.EncodeToString(h[:])
}

// IsZero reports whether h is the zero digest.
func (h ContentHash) IsZero() bool {
	return h == ContentHash{}
}

func (h ContentHash) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.Hex())
}

func (h *ContentHash) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseContentHash(s)
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// Status is the lifecycle state of an anchor transaction.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusFailed    Status = "failed"
)

// IsTerminal reports whether no further transition is allowed.
func (s Status) IsTerminal() bool {
	return s == StatusConfirmed || s == StatusFailed
}

// Metadata travels with the anchor on-chain.
type Metadata struct {
	ContentID  string            `json:"content_id"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// Transaction binds a record id to a content hash on the ledger.
//
// Generation increases each time a Failed or revoked entry is replaced, so a
// compare-and-set from a superseded attempt never lands on the new one.
type Transaction struct {
	RecordID      string            `json:"record_id"`
	ContentHash   ContentHash       `json:"content_hash"`
	ContentID     string            `json:"content_id"`
	Attributes    map[string]string `json:"attributes,omitempty"`
	Generation    uint64            `json:"generation"`
	TxHash        string            `json:"tx_hash,omitempty"`
	Nonce         uint64            `json:"nonce"`
	Attempts      int               `json:"attempts"`
	Status        Status            `json:"status"`
	SubmittedAt   time.Time         `json:"submitted_at"`
	ConfirmedAt   *time.Time        `json:"confirmed_at,omitempty"`
	BlockNumber   uint64            `json:"block_number,omitempty"`
	ChainReceipt  []byte            `json:"chain_receipt,omitempty"`
	FailureReason string            `json:"failure_reason,omitempty"`
	RevokedAt     *time.Time        `json:"revoked_at,omitempty"`
	RevokeTxHash  string            `json:"revoke_tx_hash,omitempty"`
}

// IsRevoked reports whether the binding was explicitly released.
func (t *Transaction) IsRevoked() bool {
	return t.RevokedAt != nil
}

// Orphaned reports a pending entry with no transaction hash: the send was
// attempted but its outcome never reached the table.
func (t *Transaction) Orphaned() bool {
	return t.Status == StatusPending && t.TxHash == ""
}

// Binds reports whether the entry still holds its record id: a Failed or
// revoked entry may be replaced by a fresh submission.
func (t *Transaction) Binds() bool {
	return t.Status != StatusFailed && !t.IsRevoked()
}

// Clone returns a deep copy.
func (t *Transaction) Clone() *Transaction {
	if t == nil {
		return nil
	}
	c := *t
	c.Attributes = maps.Clone(t.Attributes)
	if t.ChainReceipt != nil {
		c.ChainReceipt = append([]byte(nil), t.ChainReceipt...)
	}
	if t.ConfirmedAt != nil {
		at := *t.ConfirmedAt
		c.ConfirmedAt = &at
	}
	if t.RevokedAt != nil {
		at := *t.RevokedAt
		c.RevokedAt = &at
	}
	return &c
}
