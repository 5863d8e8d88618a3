// Package ipfs stores blobs as raw IPFS blocks through the node's HTTP API.
package ipfs

import (
	"context"
	"strings"
	"time"

	shell "github.com/ipfs/go-ipfs-api"

	"vaultledger/internal/contentstore"
	dErrors "vaultledger/pkg/domain-errors"
)

// DefaultTimeout bounds a single API call when the context carries no deadline.
const DefaultTimeout = 30 * time.Second

// Backend talks to a kubo node. Blocks are put with the raw codec so the
// node's CID carries the digest of the exact bytes and matches the id the
// client derives locally. Blocks larger than the node's block size limit
// (1 MiB by default) are refused by the node.
type Backend struct {
	sh   *shell.Shell
	hash contentstore.HashFunc
}

// New connects to the node API at url (e.g. "localhost:5001").
func New(url string, hf contentstore.HashFunc, timeout time.Duration) *Backend {
	if hf == "" {
		hf = contentstore.SHA256
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	sh := shell.NewShell(url)
	sh.SetTimeout(timeout)
	return &Backend{sh: sh, hash: hf}
}

// Healthy reports whether the node API answers.
func (b *Backend) Healthy() bool {
	return b.sh.IsUp()
}

// Add puts data as a raw block.
func (b *Backend) Add(ctx context.Context, data []byte) (string, error) {
	mhLen := -1
	if b.hash == contentstore.BLAKE3 {
		mhLen = 32
	}
	return run(ctx, "block/put", func() (string, error) {
		return b.sh.BlockPut(data, "raw", string(b.hash), mhLen)
	})
}

// Get fetches the raw block for id.
func (b *Backend) Get(ctx context.Context, id contentstore.ContentID) ([]byte, error) {
	return run(ctx, "block/get", func() ([]byte, error) {
		return b.sh.BlockGet(id.String())
	})
}

// run executes a shell call and gives up when ctx is done. The shell has its
// own timeout, so an abandoned call still terminates.
func run[T any](ctx context.Context, op string, fn func() (T, error)) (T, error) {
	type result struct {
		v   T
		err error
	}
	ch := make(chan result, 1)
	go func() {
		v, err := fn()
		ch <- result{v: v, err: err}
	}()

	var zero T
	select {
	case <-ctx.Done():
		return zero, dErrors.Wrap(ctx.Err(), dErrors.CodeStoreUnavailable, "ipfs "+op+" interrupted")
	case r := <-ch:
		if r.err != nil {
			return zero, classify(op, r.err)
		}
		return r.v, nil
	}
}

func classify(op string, err error) error {
	msg := err.Error()
	if strings.Contains(msg, "not found") || strings.Contains(msg, "block was not found") {
		return dErrors.Wrap(err, dErrors.CodeNotFound, "ipfs "+op+": block not found")
	}
	return dErrors.Wrap(err, dErrors.CodeStoreUnavailable, "ipfs "+op+" failed")
}
