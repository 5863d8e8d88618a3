package signer

import (
	"context"
	"io"

	blst "github.com/supranational/blst/bindings/go"

	dErrors "vaultledger/pkg/domain-errors"
)

const (
	// BLSPublicKeySize is the size of a compressed G1 public key.
	BLSPublicKeySize = 48
	// BLSSignatureSize is the size of a compressed G2 signature.
	BLSSignatureSize = 96
	// BLSSecretKeySize is the size of a serialized secret key.
	BLSSecretKeySize = 32
)

var blsDST = []byte("BLS_SIG_BLS12381G2_XMD:SHA-256_SSWU_RO_NUL_")

// BLSSigner signs with BLS12-381 in the min-pk setting.
type BLSSigner struct{}

// NewBLS returns the BLS backend.
func NewBLS() *BLSSigner {
	return &BLSSigner{}
}

func (*BLSSigner) Algorithm() Algorithm {
	return BLS12381
}

func (*BLSSigner) Sign(ctx context.Context, payload, privateKey []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeSigning, "signing cancelled")
	}
	sk, err := blsSecret(privateKey)
	if err != nil {
		return nil, err
	}
	defer sk.Zeroize()
	return new(blst.P2Affine).Sign(sk, payload, blsDST).Compress(), nil
}

func (*BLSSigner) Verify(payload, signature, publicKey []byte) error {
	if len(signature) != BLSSignatureSize || len(publicKey) != BLSPublicKeySize {
		return dErrors.New(dErrors.CodeVerification, "bls signature or public key has the wrong size")
	}
	sig := new(blst.P2Affine).Uncompress(signature)
	if sig == nil {
		return dErrors.New(dErrors.CodeVerification, "bls signature is not a curve point")
	}
	pk := new(blst.P1Affine).Uncompress(publicKey)
	if pk == nil {
		return dErrors.New(dErrors.CodeVerification, "bls public key is not a curve point")
	}
	if !sig.Verify(true, pk, true, payload, blsDST) {
		return dErrors.New(dErrors.CodeVerification, "bls signature does not verify")
	}
	return nil
}

func (*BLSSigner) PublicKey(privateKey []byte) ([]byte, error) {
	sk, err := blsSecret(privateKey)
	if err != nil {
		return nil, err
	}
	defer sk.Zeroize()
	return new(blst.P1Affine).From(sk).Compress(), nil
}

func (*BLSSigner) GenerateKey(rand io.Reader) ([]byte, []byte, error) {
	var ikm [32]byte
	if _, err := io.ReadFull(rand, ikm[:]); err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeSigning, "failed to read bls key material")
	}
	sk := blst.KeyGen(ikm[:])
	if sk == nil {
		return nil, nil, dErrors.New(dErrors.CodeSigning, "failed to generate bls key")
	}
	defer sk.Zeroize()
	return sk.Serialize(), new(blst.P1Affine).From(sk).Compress(), nil
}

func blsSecret(b []byte) (*blst.SecretKey, error) {
	if len(b) != BLSSecretKeySize {
		return nil, dErrors.New(dErrors.CodeSigning, "bls secret key must be 32 bytes")
	}
	sk := new(blst.SecretKey).Deserialize(b)
	if sk == nil {
		return nil, dErrors.New(dErrors.CodeSigning, "malformed bls secret key")
	}
	return sk, nil
}
