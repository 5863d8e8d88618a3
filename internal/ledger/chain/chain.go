// Package chain defines the blockchain client port consumed by the ledger anchor.
package chain

import (
	"context"
	"errors"
	"time"

	"vaultledger/internal/ledger/models"
)

// Action selects the chaincode/contract entry point of a transaction.
type Action string

const (
	ActionAnchor Action = "anchor"
	ActionRevoke Action = "revoke"
)

// Fields are the transaction payload sent to the chain.
type Fields struct {
	From        string
	Nonce       uint64
	Action      Action
	RecordID    string
	ContentHash models.ContentHash
	ContentID   string
	Attributes  map[string]string
}

// ReceiptStatus is the outcome recorded for a transaction.
type ReceiptStatus string

const (
	ReceiptPending  ReceiptStatus = "pending"
	ReceiptSuccess  ReceiptStatus = "success"
	ReceiptReverted ReceiptStatus = "reverted"
)

// Receipt describes a submitted or mined transaction. Raw is the chain's
// own encoding of the receipt, kept opaque.
type Receipt struct {
	TxHash      string
	Status      ReceiptStatus
	BlockNumber uint64
	Raw         []byte
}

// ErrReceiptTimeout is returned by WaitForReceipt when no receipt appeared
// in time. The transaction may still be mined later.
var ErrReceiptTimeout = errors.New("receipt not available before timeout")

// Client is the narrow blockchain capability the anchor needs.
type Client interface {
	// GetTransactionCount returns the next nonce for address.
	GetTransactionCount(ctx context.Context, address string) (uint64, error)
	// SendTransaction submits fields and returns a pending receipt.
	SendTransaction(ctx context.Context, fields Fields) (*Receipt, error)
	// WaitForReceipt blocks until txHash is mined or timeout elapses.
	WaitForReceipt(ctx context.Context, txHash string, timeout time.Duration) (*Receipt, error)
}
