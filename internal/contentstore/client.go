// Package contentstore is the content-addressed put/get client used for
// encrypted record blobs and issued credentials.
//
// Ids are derived locally from the data, so a backend that returns a different
// id for the same bytes, or different bytes for an id, is reported as an
// integrity failure rather than trusted.
package contentstore

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	dErrors "vaultledger/pkg/domain-errors"
	"vaultledger/pkg/platform/circuit"
)

var (
	// ErrIntegrity reports a digest mismatch between an id and its bytes.
	ErrIntegrity = dErrors.New(dErrors.CodeIntegrity, "content digest mismatch")
	// ErrUnavailable reports a transport failure talking to the backend.
	ErrUnavailable = dErrors.New(dErrors.CodeStoreUnavailable, "content store unavailable")
	// ErrNotFound reports that the backend holds no blob for the id.
	ErrNotFound = dErrors.New(dErrors.CodeNotFound, "content not found")
)

// Backend is the raw content-addressed store. Add returns the id the backend
// assigned to the bytes.
type Backend interface {
	Add(ctx context.Context, data []byte) (string, error)
	Get(ctx context.Context, id ContentID) ([]byte, error)
}

// Metrics receives client observations. The platform metrics type
// satisfies it.
type Metrics interface {
	IncIntegrityFailure(component string)
	ObserveStoreLatency(op string, d time.Duration)
}

// Client wraps a Backend with local id derivation, digest verification,
// request collapsing and a circuit breaker.
type Client struct {
	backend Backend
	hash    HashFunc
	breaker *circuit.Breaker
	group   singleflight.Group
	logger  *slog.Logger
	metrics Metrics
	now     func() time.Time
}

// Option configures the Client.
type Option func(*Client)

// WithHashFunc selects the multihash function for new ids.
func WithHashFunc(hf HashFunc) Option {
	return func(c *Client) {
		if hf != "" {
			c.hash = hf
		}
	}
}

// WithBreaker replaces the default circuit breaker.
func WithBreaker(b *circuit.Breaker) Option {
	return func(c *Client) {
		if b != nil {
			c.breaker = b
		}
	}
}

// WithLogger sets the logger for the client.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// New creates a content store client over backend.
func New(backend Backend, opts ...Option) *Client {
	c := &Client{
		backend: backend,
		hash:    SHA256,
		breaker: circuit.New("content_store"),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// HashFunc returns the hash function used for new ids.
func (c *Client) HashFunc() HashFunc {
	return c.hash
}

// Put stores data and returns its content id. Concurrent puts of the same
// bytes share one backend call and return the same id.
func (c *Client) Put(ctx context.Context, data []byte) (ContentID, error) {
	id, err := ComputeID(data, c.hash)
	if err != nil {
		return "", err
	}

	start := c.now()
	_, err, _ = c.group.Do(id.String(), func() (any, error) {
		var backendID string
		callErr := c.call(func() error {
			var addErr error
			backendID, addErr = c.backend.Add(ctx, data)
			return addErr
		})
		if callErr != nil {
			return nil, callErr
		}
		if !SameContent(backendID, id.String()) {
			c.integrityFailure("put", id)
			return nil, dErrors.Wrap(ErrIntegrity, dErrors.CodeIntegrity,
				"content store returned id "+backendID+" for content "+id.String())
		}
		return nil, nil
	})
	c.observe("put", start)
	if err != nil {
		return "", err
	}
	return id, nil
}

// Get fetches the blob for id and verifies its digest before returning it.
func (c *Client) Get(ctx context.Context, id ContentID) ([]byte, error) {
	if _, err := ParseContentID(id.String()); err != nil {
		return nil, err
	}

	start := c.now()
	var data []byte
	err := c.call(func() error {
		var getErr error
		data, getErr = c.backend.Get(ctx, id)
		return getErr
	})
	c.observe("get", start)
	if err != nil {
		return nil, err
	}
	if err := Verify(id, data); err != nil {
		if dErrors.HasCode(err, dErrors.CodeIntegrity) {
			c.integrityFailure("get", id)
		}
		return nil, err
	}
	return data, nil
}

// call runs fn through the breaker and normalises the resulting error.
// Only transport failures count against the breaker.
func (c *Client) call(fn func() error) error {
	err := c.breaker.Do(fn, dErrors.IsRetryable)
	if err == nil {
		return nil
	}
	if errors.Is(err, circuit.ErrOpen) {
		return dErrors.Wrap(ErrUnavailable, dErrors.CodeStoreUnavailable, "content store circuit open")
	}
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return dErrors.Wrap(err, dErrors.CodeStoreUnavailable, "content store call interrupted")
	}
	return dErrors.Wrap(err, dErrors.CodeStoreUnavailable, "content store call failed")
}

func (c *Client) integrityFailure(op string, id ContentID) {
	if c.logger != nil {
		c.logger.Error("content digest mismatch", "op", op, "content_id", id.String())
	}
	if c.metrics != nil {
		c.metrics.IncIntegrityFailure("content_store")
	}
}

func (c *Client) observe(op string, start time.Time) {
	if c.metrics != nil {
		c.metrics.ObserveStoreLatency(op, c.now().Sub(start))
	}
}
