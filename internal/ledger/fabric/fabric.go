// Package fabric adapts a Hyperledger Fabric channel to the anchor's chain
// port. The anchor registry lives in chaincode exposing anchorRecord,
// revokeRecord and getTransactionCount.
package fabric

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/hyperledger/fabric-protos-go/peer"
	"github.com/hyperledger/fabric-sdk-go/pkg/client/channel"
	"github.com/hyperledger/fabric-sdk-go/pkg/client/ledger"
	"github.com/hyperledger/fabric-sdk-go/pkg/common/providers/fab"

	"vaultledger/internal/ledger/chain"
)

const (
	fcnAnchor    = "anchorRecord"
	fcnRevoke    = "revokeRecord"
	fcnTxCount   = "getTransactionCount"
	pollInterval = 500 * time.Millisecond
)

// ChannelClient is the subset of *channel.Client used here.
type ChannelClient interface {
	Execute(request channel.Request, options ...channel.RequestOption) (channel.Response, error)
	Query(request channel.Request, options ...channel.RequestOption) (channel.Response, error)
}

// LedgerClient is the subset of *ledger.Client used here.
type LedgerClient interface {
	QueryTransaction(transactionID fab.TransactionID, options ...ledger.RequestOption) (*peer.ProcessedTransaction, error)
}

// Client implements chain.Client on Fabric.
type Client struct {
	channel     ChannelClient
	ledger      LedgerClient
	chaincodeID string
	timeout     time.Duration
}

// New creates a client invoking chaincodeID.
func New(cc ChannelClient, lc LedgerClient, chaincodeID string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{channel: cc, ledger: lc, chaincodeID: chaincodeID, timeout: timeout}
}

// anchorArgs is the JSON argument of anchorRecord and revokeRecord.
type anchorArgs struct {
	From        string            `json:"from"`
	Nonce       uint64            `json:"nonce"`
	RecordID    string            `json:"record_id"`
	ContentHash string            `json:"content_hash"`
	ContentID   string            `json:"content_id,omitempty"`
	Attributes  map[string]string `json:"attributes,omitempty"`
}

func (c *Client) GetTransactionCount(ctx context.Context, address string) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, chain.NewClientError(chain.ErrorTimeout, fcnTxCount, "context done", err)
	}
	resp, err := c.channel.Query(channel.Request{
		ChaincodeID: c.chaincodeID,
		Fcn:         fcnTxCount,
		Args:        [][]byte{[]byte(address)},
	}, channel.WithTimeout(fab.Query, c.timeout))
	if err != nil {
		return 0, classify(fcnTxCount, err)
	}
	n, err := strconv.ParseUint(strings.TrimSpace(string(resp.Payload)), 10, 64)
	if err != nil {
		return 0, chain.NewClientError(chain.ErrorBadData, fcnTxCount, "non-numeric transaction count", err)
	}
	return n, nil
}

func (c *Client) SendTransaction(ctx context.Context, fields chain.Fields) (*chain.Receipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, chain.NewClientError(chain.ErrorTimeout, "send_transaction", "context done", err)
	}

	fcn := fcnAnchor
	if fields.Action == chain.ActionRevoke {
		fcn = fcnRevoke
	}
	args, err := json.Marshal(anchorArgs{
		From:        fields.From,
		Nonce:       fields.Nonce,
		RecordID:    fields.RecordID,
		ContentHash: fields.ContentHash.Hex(),
		ContentID:   fields.ContentID,
		Attributes:  fields.Attributes,
	})
	if err != nil {
		return nil, chain.NewClientError(chain.ErrorInternal, fcn, "failed to encode chaincode arguments", err)
	}

	resp, err := c.channel.Execute(channel.Request{
		ChaincodeID: c.chaincodeID,
		Fcn:         fcn,
		Args:        [][]byte{args},
	}, channel.WithTimeout(fab.Execute, c.timeout))
	if err != nil {
		return nil, classify(fcn, err)
	}
	if resp.TxValidationCode != peer.TxValidationCode_VALID {
		return nil, chain.NewClientError(chain.ErrorRejected, fcn,
			"transaction invalidated: "+resp.TxValidationCode.String(), nil)
	}
	return &chain.Receipt{TxHash: string(resp.TransactionID), Status: chain.ReceiptPending}, nil
}

// WaitForReceipt polls the ledger for the processed transaction until it is
// committed, the timeout elapses or ctx is done.
func (c *Client) WaitForReceipt(ctx context.Context, txHash string, timeout time.Duration) (*chain.Receipt, error) {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		ptx, err := c.ledger.QueryTransaction(fab.TransactionID(txHash))
		if err == nil && ptx != nil {
			return toReceipt(txHash, ptx), nil
		}
		if err != nil && !isNotFound(err) {
			if ce := classify("query_transaction", err); !ce.Retryable {
				return nil, ce
			}
		}

		select {
		case <-ctx.Done():
			return nil, chain.ErrReceiptTimeout
		case <-deadline.C:
			return nil, chain.ErrReceiptTimeout
		case <-ticker.C:
		}
	}
}

func toReceipt(txHash string, ptx *peer.ProcessedTransaction) *chain.Receipt {
	status := chain.ReceiptSuccess
	if peer.TxValidationCode(ptx.GetValidationCode()) != peer.TxValidationCode_VALID {
		status = chain.ReceiptReverted
	}
	raw, _ := json.Marshal(map[string]any{
		"tx_id":           txHash,
		"validation_code": peer.TxValidationCode(ptx.GetValidationCode()).String(),
	})
	return &chain.Receipt{TxHash: txHash, Status: status, Raw: raw}
}

func isNotFound(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "not found") || strings.Contains(msg, "entry not found")
}

// classify maps SDK errors to chain categories. The SDK reports most
// failures as formatted strings, so matching is textual.
func classify(op string, err error) *chain.ClientError {
	if errors.Is(err, context.DeadlineExceeded) {
		return chain.NewClientError(chain.ErrorTimeout, op, "deadline exceeded", err)
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "timed out"):
		return chain.NewClientError(chain.ErrorTimeout, op, "request timed out", err)
	case strings.Contains(msg, "nonce"):
		return chain.NewClientError(chain.ErrorNonceRace, op, "nonce rejected by chaincode", err)
	case strings.Contains(msg, "insufficient"):
		return chain.NewClientError(chain.ErrorInsufficientFunds, op, "insufficient balance", err)
	case strings.Contains(msg, "connection"), strings.Contains(msg, "unavailable"),
		strings.Contains(msg, "no endorsement"), strings.Contains(msg, "discovery"):
		return chain.NewClientError(chain.ErrorOutage, op, "peers unreachable", err)
	default:
		return chain.NewClientError(chain.ErrorRejected, op, "chaincode call failed", err)
	}
}
