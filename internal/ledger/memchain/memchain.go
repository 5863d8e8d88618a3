// Package memchain is a deterministic in-process chain used by tests and
// local runs. It enforces per-sender nonces, keeps an anchor registry like
// the production chaincode, and supports fault injection.
package memchain

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/zeebo/blake3"

	"vaultledger/internal/ledger/chain"
	"vaultledger/internal/ledger/models"
)

type anchor struct {
	hash    models.ContentHash
	revoked bool
}

type entry struct {
	fields  chain.Fields
	receipt chain.Receipt
	mined   bool
}

// Chain is safe for concurrent use.
type Chain struct {
	mu      sync.Mutex
	nonces  map[string]uint64
	txs     map[string]*entry
	queue   []string
	anchors map[string]anchor
	block   uint64
	manual  bool
	// minedCh is closed and replaced every time a block is mined.
	minedCh chan struct{}

	failures []chain.ErrorCategory
	revertOn map[string]bool
	sent     int
}

// Option configures a Chain.
type Option func(*Chain)

// WithManualMining keeps submitted transactions pending until Mine is called.
func WithManualMining() Option {
	return func(c *Chain) {
		c.manual = true
	}
}

// New creates an empty chain. By default every transaction is mined
// immediately in its own block.
func New(opts ...Option) *Chain {
	c := &Chain{
		nonces:   make(map[string]uint64),
		txs:      make(map[string]*entry),
		anchors:  make(map[string]anchor),
		revertOn: make(map[string]bool),
		minedCh:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FailNext makes the next len(categories) SendTransaction calls fail with
// the given categories, in order.
func (c *Chain) FailNext(categories ...chain.ErrorCategory) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures = append(c.failures, categories...)
}

// RevertRecord makes every transaction touching recordID revert when mined.
func (c *Chain) RevertRecord(recordID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.revertOn[recordID] = true
}

// SentCount returns the number of transactions accepted into the pool.
func (c *Chain) SentCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sent
}

// Anchored returns the hash bound to recordID on-chain, if any.
func (c *Chain) Anchored(recordID string) (models.ContentHash, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	a, ok := c.anchors[recordID]
	if !ok || a.revoked {
		return models.ContentHash{}, false
	}
	return a.hash, true
}

func (c *Chain) GetTransactionCount(ctx context.Context, address string) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, chain.NewClientError(chain.ErrorTimeout, "get_transaction_count", "context done", err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nonces[address], nil
}

func (c *Chain) SendTransaction(ctx context.Context, fields chain.Fields) (*chain.Receipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, chain.NewClientError(chain.ErrorTimeout, "send_transaction", "context done", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.failures) > 0 {
		category := c.failures[0]
		c.failures = c.failures[1:]
		return nil, chain.NewClientError(category, "send_transaction", "injected failure", nil)
	}
	if fields.Action != chain.ActionAnchor && fields.Action != chain.ActionRevoke {
		return nil, chain.NewClientError(chain.ErrorRejected, "send_transaction", "unknown action "+string(fields.Action), nil)
	}
	if expected := c.nonces[fields.From]; fields.Nonce != expected {
		return nil, chain.NewClientError(chain.ErrorNonceRace, "send_transaction", "nonce already used", nil)
	}
	c.nonces[fields.From]++
	c.sent++

	txHash := hashFields(fields)
	c.txs[txHash] = &entry{
		fields:  fields,
		receipt: chain.Receipt{TxHash: txHash, Status: chain.ReceiptPending},
	}
	c.queue = append(c.queue, txHash)
	if !c.manual {
		c.mineLocked()
	}
	return &chain.Receipt{TxHash: txHash, Status: chain.ReceiptPending}, nil
}

func (c *Chain) WaitForReceipt(ctx context.Context, txHash string, timeout time.Duration) (*chain.Receipt, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		c.mu.Lock()
		e, ok := c.txs[txHash]
		if !ok {
			c.mu.Unlock()
			return nil, chain.NewClientError(chain.ErrorRejected, "wait_for_receipt", "unknown transaction "+txHash, nil)
		}
		if e.mined {
			r := e.receipt
			c.mu.Unlock()
			return &r, nil
		}
		mined := c.minedCh
		c.mu.Unlock()

		select {
		case <-mined:
		case <-timer.C:
			return nil, chain.ErrReceiptTimeout
		case <-ctx.Done():
			return nil, chain.ErrReceiptTimeout
		}
	}
}

// Mine includes every queued transaction, one block per transaction.
func (c *Chain) Mine() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mineLocked()
}

// Pending returns the hashes of transactions not yet mined.
func (c *Chain) Pending() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.queue)
}

func (c *Chain) mineLocked() {
	if len(c.queue) == 0 {
		return
	}
	for _, txHash := range c.queue {
		e := c.txs[txHash]
		c.block++
		e.mined = true
		e.receipt.BlockNumber = c.block
		e.receipt.Status = c.applyLocked(e.fields)
		e.receipt.Raw, _ = json.Marshal(map[string]any{
			"tx_hash": txHash,
			"block":   c.block,
			"status":  e.receipt.Status,
		})
	}
	c.queue = nil
	close(c.minedCh)
	c.minedCh = make(chan struct{})
}

// applyLocked runs the registry contract: an active anchor can only be
// re-anchored with the same hash, and only active anchors can be revoked.
func (c *Chain) applyLocked(f chain.Fields) chain.ReceiptStatus {
	if c.revertOn[f.RecordID] {
		return chain.ReceiptReverted
	}
	current, exists := c.anchors[f.RecordID]
	switch f.Action {
	case chain.ActionAnchor:
		if exists && !current.revoked && current.hash != f.ContentHash {
			return chain.ReceiptReverted
		}
		c.anchors[f.RecordID] = anchor{hash: f.ContentHash}
	case chain.ActionRevoke:
		if !exists || current.revoked {
			return chain.ReceiptReverted
		}
		current.revoked = true
		c.anchors[f.RecordID] = current
	}
	return chain.ReceiptSuccess
}

func hashFields(f chain.Fields) string {
	h := blake3.New()
	var nonce [8]byte
	binary.BigEndian.PutUint64(nonce[:], f.Nonce)
	_, _ = h.Write([]byte(f.From))
	_, _ = h.Write(nonce[:])
	_, _ = h.Write([]byte(f.Action))
	_, _ = h.Write([]byte(f.RecordID))
	_, _ = h.Write(f.ContentHash[:])
	_, _ = h.Write([]byte(f.ContentID))
	for _, k := range slices.Sorted(maps.Keys(f.Attributes)) {
		_, _ = h.Write([]byte(k))
		_, _ = h.Write([]byte(f.Attributes[k]))
	}
	return "0x" + hex.EncodeToString(h.Sum(nil))
}
