package signer

import (
	"context"
	"crypto/ed25519"
	"io"

	dErrors "vaultledger/pkg/domain-errors"
)

// Ed25519Signer accepts either a 32-byte seed or a 64-byte private key.
type Ed25519Signer struct{}

// NewEd25519 returns the Ed25519 backend.
func NewEd25519() *Ed25519Signer {
	return &Ed25519Signer{}
}

func (*Ed25519Signer) Algorithm() Algorithm {
	return Ed25519
}

func (*Ed25519Signer) Sign(ctx context.Context, payload, privateKey []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeSigning, "signing cancelled")
	}
	key, err := ed25519Key(privateKey)
	if err != nil {
		return nil, err
	}
	return ed25519.Sign(key, payload), nil
}

func (*Ed25519Signer) Verify(payload, signature, publicKey []byte) error {
	if len(publicKey) != ed25519.PublicKeySize {
		return dErrors.New(dErrors.CodeVerification, "ed25519 public key must be 32 bytes")
	}
	if !ed25519.Verify(ed25519.PublicKey(publicKey), payload, signature) {
		return dErrors.New(dErrors.CodeVerification, "ed25519 signature does not verify")
	}
	return nil
}

func (*Ed25519Signer) PublicKey(privateKey []byte) ([]byte, error) {
	key, err := ed25519Key(privateKey)
	if err != nil {
		return nil, err
	}
	return []byte(key.Public().(ed25519.PublicKey)), nil
}

func (*Ed25519Signer) GenerateKey(rand io.Reader) ([]byte, []byte, error) {
	pub, priv, err := ed25519.GenerateKey(rand)
	if err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeSigning, "failed to generate ed25519 key")
	}
	return priv.Seed(), pub, nil
}

func ed25519Key(b []byte) (ed25519.PrivateKey, error) {
	switch len(b) {
	case ed25519.SeedSize:
		return ed25519.NewKeyFromSeed(b), nil
	case ed25519.PrivateKeySize:
		key := ed25519.PrivateKey(b)
		// the trailing half must be the public key of the seed
		derived := ed25519.NewKeyFromSeed(key.Seed())
		if !derived.Equal(key) {
			return nil, dErrors.New(dErrors.CodeSigning, "malformed ed25519 private key")
		}
		return key, nil
	default:
		return nil, dErrors.New(dErrors.CodeSigning, "ed25519 private key must be 32 or 64 bytes")
	}
}
