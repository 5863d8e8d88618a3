// Package backend holds proof backend adapters.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"vaultledger/pkg/platform/circuit"
)

var (
	// ErrUnavailable reports a transport failure or a 5xx from the verifier service.
	ErrUnavailable = errors.New("proof backend unavailable")
	// ErrBadResponse reports a response that carries no usable verdict.
	ErrBadResponse = errors.New("malformed proof backend response")
)

// maxResponseBytes bounds the verdict body read from the service.
const maxResponseBytes = 64 << 10

// HTTPDoer is the minimal interface needed from an HTTP client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// HTTPConfig configures an HTTP backend.
type HTTPConfig struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	HTTPClient HTTPDoer
	Breaker    *circuit.Breaker
}

// HTTP posts snarkjs-style verification requests to a verifier service.
type HTTP struct {
	url     string
	apiKey  string
	client  HTTPDoer
	breaker *circuit.Breaker
}

type verifyRequest struct {
	CircuitID     string          `json:"circuit_id"`
	Proof         json.RawMessage `json:"proof"`
	PublicSignals []string        `json:"publicSignals"`
}

type verifyResponse struct {
	Valid *bool `json:"valid"`
}

// NewHTTP creates an HTTP backend. BaseURL is required.
func NewHTTP(cfg HTTPConfig) (*HTTP, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("proof backend base url is required")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	breaker := cfg.Breaker
	if breaker == nil {
		breaker = circuit.New("proof_backend")
	}
	return &HTTP{
		url:     strings.TrimRight(cfg.BaseURL, "/") + "/verify",
		apiKey:  cfg.APIKey,
		client:  client,
		breaker: breaker,
	}, nil
}

// Verify asks the service for a verdict. It returns an error unless the
// service answers 200 with a boolean "valid" field.
func (h *HTTP) Verify(ctx context.Context, circuitID string, proof json.RawMessage, publicInputs []string) (bool, error) {
	body, err := json.Marshal(verifyRequest{CircuitID: circuitID, Proof: proof, PublicSignals: publicInputs})
	if err != nil {
		return false, fmt.Errorf("encode verify request: %w", err)
	}

	var verdict bool
	err = h.breaker.Do(func() error {
		v, err := h.do(ctx, body)
		verdict = v
		return err
	}, func(err error) bool { return errors.Is(err, ErrUnavailable) })
	if errors.Is(err, circuit.ErrOpen) {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return verdict, err
}

func (h *HTTP) do(ctx context.Context, body []byte) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if h.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+h.apiKey)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return false, fmt.Errorf("%w: read body: %v", ErrUnavailable, err)
	}

	switch {
	case resp.StatusCode >= 500:
		return false, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return false, fmt.Errorf("%w: status %d", ErrBadResponse, resp.StatusCode)
	}

	var out verifyResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return false, fmt.Errorf("%w: %v", ErrBadResponse, err)
	}
	if out.Valid == nil {
		return false, fmt.Errorf("%w: missing valid field", ErrBadResponse)
	}
	return *out.Valid, nil
}
