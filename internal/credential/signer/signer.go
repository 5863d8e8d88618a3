// Package signer holds the signing backends used to prove credentials.
package signer

import (
	"bytes"
	"context"
	"io"
	"strings"

	dErrors "vaultledger/pkg/domain-errors"
)

// Algorithm names a signature suite.
type Algorithm string

const (
	// Ed25519 produces Ed25519Signature2020-style proofs.
	Ed25519 Algorithm = "Ed25519"
	// BLS12381 is BLS min-pk: 48-byte G1 public keys, 96-byte G2 signatures.
	BLS12381 Algorithm = "BLS12381G2"
)

// ErrSigning reports that no valid signature could be produced.
var ErrSigning = dErrors.New(dErrors.CodeSigning, "credential signing failed")

// Signer signs and verifies payloads with raw key bytes.
type Signer interface {
	Algorithm() Algorithm
	// Sign signs payload with privateKey.
	Sign(ctx context.Context, payload, privateKey []byte) ([]byte, error)
	// Verify checks signature over payload against publicKey.
	Verify(payload, signature, publicKey []byte) error
	// PublicKey derives the public key of privateKey.
	PublicKey(privateKey []byte) ([]byte, error)
	// GenerateKey creates a key pair from rand.
	GenerateKey(rand io.Reader) (privateKey, publicKey []byte, err error)
}

// placeholders are signature values that stand-in code tends to emit.
var placeholders = [][]byte{
	[]byte("fake_signature"),
	[]byte("placeholder"),
	[]byte("signature"),
	[]byte("todo"),
	[]byte("dummy"),
	[]byte("unsigned"),
}

// IsPlaceholder reports whether sig is empty, all zero bytes, or a known
// stand-in value. Such signatures are never accepted.
func IsPlaceholder(sig []byte) bool {
	if len(sig) == 0 {
		return true
	}
	allZero := true
	for _, b := range sig {
		if b != 0 {
			allZero = false
			break
		}
	}
	if allZero {
		return true
	}
	lowered := bytes.ToLower(bytes.TrimSpace(sig))
	for _, p := range placeholders {
		if bytes.Equal(lowered, p) {
			return true
		}
	}
	return false
}

// Registry resolves signers by algorithm.
type Registry struct {
	signers map[Algorithm]Signer
}

// NewRegistry indexes the given signers.
func NewRegistry(signers ...Signer) *Registry {
	r := &Registry{signers: make(map[Algorithm]Signer, len(signers))}
	for _, s := range signers {
		r.signers[s.Algorithm()] = s
	}
	return r
}

// Default registers every built-in signer.
func Default() *Registry {
	return NewRegistry(NewEd25519(), NewBLS())
}

// Get returns the signer for alg.
func (r *Registry) Get(alg Algorithm) (Signer, error) {
	s, ok := r.signers[alg]
	if !ok {
		return nil, dErrors.New(dErrors.CodeSigning, "no signing backend for algorithm "+string(alg))
	}
	return s, nil
}

// ParseAlgorithm accepts the canonical names case-insensitively plus the
// short forms "ed25519" and "bls".
func ParseAlgorithm(name string) (Algorithm, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "ed25519":
		return Ed25519, nil
	case "bls", "bls12381", "bls12381g2":
		return BLS12381, nil
	default:
		return "", dErrors.New(dErrors.CodeInvalidInput, "unsupported signature algorithm: "+name)
	}
}
