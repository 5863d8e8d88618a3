package credential

import (
	"crypto/ed25519"
	"encoding/json"
	"errors"

	"github.com/golang-jwt/jwt/v5"

	"vaultledger/internal/credential/signer"
	dErrors "vaultledger/pkg/domain-errors"
)

// VCClaims are the JWT claims of a vc-jwt presentation.
type VCClaims struct {
	VC json.RawMessage `json:"vc"`
	jwt.RegisteredClaims
}

// EncodeJWT wraps a signed credential in an EdDSA-signed JWT. Only Ed25519
// issuer keys can produce JWTs.
func EncodeJWT(cred *Credential, key IssuerKey) (string, error) {
	if key.Algorithm != signer.Ed25519 {
		return "", dErrors.New(dErrors.CodeSigning, "vc-jwt requires an Ed25519 issuer key")
	}
	priv, err := ed25519PrivateKey(key.PrivateKey)
	if err != nil {
		return "", err
	}
	vc, err := json.Marshal(cred)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode credential")
	}

	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, VCClaims{
		VC: vc,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cred.IssuerID,
			Subject:   cred.SubjectID,
			ID:        cred.ID.String(),
			IssuedAt:  jwt.NewNumericDate(cred.IssuedAt),
			NotBefore: jwt.NewNumericDate(cred.IssuedAt),
		},
	})
	token.Header["kid"] = key.VerificationMethod()

	signed, err := token.SignedString(priv)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeSigning, "failed to sign vc-jwt")
	}
	return signed, nil
}

// DecodeJWT verifies the JWT signature and returns the embedded credential.
// The credential's own proof is not checked here; call Issuer.Verify.
func DecodeJWT(tokenString string, publicKey ed25519.PublicKey) (*Credential, error) {
	claims := &VCClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodEdDSA.Alg() {
			return nil, jwt.ErrTokenUnverifiable
		}
		return publicKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			return nil, dErrors.Wrap(err, dErrors.CodeVerification, "vc-jwt signature is invalid")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeVerification, "vc-jwt is invalid")
	}

	var cred Credential
	if err := json.Unmarshal(claims.VC, &cred); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeVerification, "vc-jwt carries a malformed credential")
	}
	if cred.ID.String() != claims.ID || cred.SubjectID != claims.Subject || cred.IssuerID != claims.Issuer {
		return nil, dErrors.New(dErrors.CodeVerification, "vc-jwt claims do not match the embedded credential")
	}
	return &cred, nil
}

func ed25519PrivateKey(b []byte) (ed25519.PrivateKey, error) {
	switch len(b) {
	case ed25519.SeedSize:
		return ed25519.NewKeyFromSeed(b), nil
	case ed25519.PrivateKeySize:
		return ed25519.PrivateKey(b), nil
	default:
		return nil, dErrors.New(dErrors.CodeSigning, "ed25519 private key must be 32 or 64 bytes")
	}
}
