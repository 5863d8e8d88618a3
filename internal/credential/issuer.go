// Package credential issues and verifies signed verifiable credentials.
//
// The payload is serialized canonically before signing, so the same logical
// credential always produces the same bytes. A credential is only returned
// once its signature has been checked against the issuer's public key;
// there is no code path that yields an unsigned or placeholder proof.
package credential

import (
	"bytes"
	"context"
	"slices"
	"time"

	"vaultledger/internal/credential/signer"
	dErrors "vaultledger/pkg/domain-errors"
)

var (
	// ErrSigning is returned when a credential could not be signed.
	ErrSigning = signer.ErrSigning
	// ErrVerification is returned when a credential's proof does not hold.
	ErrVerification = dErrors.New(dErrors.CodeVerification, "credential proof is invalid")
)

// Issuer signs credentials.
type Issuer struct {
	signers *signer.Registry
	now     func() time.Time
	newID   func() CredentialID
}

// Option configures the Issuer.
type Option func(*Issuer)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(i *Issuer) {
		if now != nil {
			i.now = now
		}
	}
}

// WithIDGenerator overrides credential id generation (tests).
func WithIDGenerator(gen func() CredentialID) Option {
	return func(i *Issuer) {
		if gen != nil {
			i.newID = gen
		}
	}
}

// NewIssuer creates an issuer that signs with the given registry.
func NewIssuer(signers *signer.Registry, opts ...Option) *Issuer {
	i := &Issuer{
		signers: signers,
		now:     time.Now,
		newID:   NewCredentialID,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Issue builds, signs and self-verifies a credential for req.SubjectID.
func (i *Issuer) Issue(ctx context.Context, req IssueRequest, key IssuerKey) (*Credential, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if key.IssuerID == "" {
		return nil, dErrors.New(dErrors.CodeSigning, "issuer id is required")
	}

	sg, err := i.signers.Get(key.Algorithm)
	if err != nil {
		return nil, err
	}
	publicKey, err := resolvePublicKey(sg, key)
	if err != nil {
		return nil, err
	}

	issuedAt := i.now().UTC().Truncate(time.Second)
	cred := &Credential{
		Context:   []string{ContextV1},
		ID:        i.newID(),
		Types:     append([]string{TypeVerifiableCredential}, req.Types...),
		IssuerID:  key.IssuerID,
		IssuedAt:  issuedAt,
		SubjectID: req.SubjectID,
		Claims:    req.Claims,
	}
	payload, err := CanonicalPayload(cred)
	if err != nil {
		return nil, err
	}

	sig, err := sg.Sign(ctx, payload, key.PrivateKey)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeSigning, "signing backend failed")
	}
	if signer.IsPlaceholder(sig) {
		return nil, dErrors.New(dErrors.CodeSigning, "signing backend returned a placeholder signature")
	}
	if err := sg.Verify(payload, sig, publicKey); err != nil {
		return nil, &dErrors.Error{Code: dErrors.CodeSigning, Message: "signature does not verify against issuer key", Err: err}
	}

	cred.Proof = Proof{
		Algorithm:          sg.Algorithm(),
		Created:            issuedAt,
		VerificationMethod: key.VerificationMethod(),
		ProofPurpose:       ProofPurposeAssertion,
		SignatureBytes:     sig,
	}
	return cred, nil
}

// Verify checks cred's proof against publicKey.
func (i *Issuer) Verify(cred *Credential, publicKey []byte) error {
	if cred == nil {
		return dErrors.New(dErrors.CodeVerification, "credential is required")
	}
	if signer.IsPlaceholder(cred.Proof.SignatureBytes) {
		return dErrors.New(dErrors.CodeVerification, "credential carries no real signature")
	}
	sg, err := i.signers.Get(cred.Proof.Algorithm)
	if err != nil {
		return &dErrors.Error{Code: dErrors.CodeVerification, Message: "unsupported proof type", Err: err}
	}
	payload, err := CanonicalPayload(cred)
	if err != nil {
		return &dErrors.Error{Code: dErrors.CodeVerification, Message: "credential payload is malformed", Err: err}
	}
	if err := sg.Verify(payload, cred.Proof.SignatureBytes, publicKey); err != nil {
		return &dErrors.Error{Code: dErrors.CodeVerification, Message: ErrVerification.Error(), Err: err}
	}
	return nil
}

func validateRequest(req IssueRequest) error {
	if req.SubjectID == "" {
		return dErrors.New(dErrors.CodeValidation, "subject id is required")
	}
	if len(req.Claims) == 0 {
		return dErrors.New(dErrors.CodeValidation, "at least one claim is required")
	}
	if _, ok := req.Claims["id"]; ok {
		return dErrors.New(dErrors.CodeValidation, "claim name 'id' is reserved for the subject")
	}
	if slices.Contains(req.Types, "") || slices.Contains(req.Types, TypeVerifiableCredential) {
		return dErrors.New(dErrors.CodeValidation, "credential types must be non-empty and exclude VerifiableCredential")
	}
	return nil
}

func resolvePublicKey(sg signer.Signer, key IssuerKey) ([]byte, error) {
	derived, err := sg.PublicKey(key.PrivateKey)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeSigning, "malformed issuer key")
	}
	if len(key.PublicKey) > 0 && !bytes.Equal(key.PublicKey, derived) {
		return nil, dErrors.New(dErrors.CodeSigning, "issuer public key does not match private key")
	}
	return derived, nil
}
