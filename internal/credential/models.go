package credential

import (
	"bytes"
	"encoding/json"
	"maps"
	"strings"
	"time"

	"github.com/google/uuid"

	"vaultledger/internal/credential/signer"
	dErrors "vaultledger/pkg/domain-errors"
)

const (
	credentialIDPrefix = "vc_"

	// ContextV1 is the W3C credentials context.
	ContextV1 = "https://www.w3.org/2018/credentials/v1"
	// TypeVerifiableCredential is always the first credential type.
	TypeVerifiableCredential = "VerifiableCredential"
	// ProofPurposeAssertion is the only proof purpose issued.
	ProofPurposeAssertion = "assertionMethod"
)

// CredentialID is the prefixed identifier for issued credentials.
type CredentialID string

// NewCredentialID generates a new credential ID with a stable prefix.
func NewCredentialID() CredentialID {
	return CredentialID(credentialIDPrefix + uuid.NewString())
}

// ParseCredentialID validates and parses a credential ID string.
func ParseCredentialID(value string) (CredentialID, error) {
	if strings.TrimSpace(value) == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "credential_id is required")
	}
	if !strings.HasPrefix(value, credentialIDPrefix) {
		return "", dErrors.New(dErrors.CodeInvalidInput, "credential_id must start with vc_")
	}
	if _, err := uuid.Parse(strings.TrimPrefix(value, credentialIDPrefix)); err != nil {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid credential_id format")
	}
	return CredentialID(value), nil
}

// String returns the credential ID as a string.
func (id CredentialID) String() string {
	return string(id)
}

// Claims are the assertions made about the subject.
type Claims map[string]any

// Proof is the issuer's signature over the canonical payload.
type Proof struct {
	Algorithm          signer.Algorithm `json:"type"`
	Created            time.Time        `json:"created"`
	VerificationMethod string           `json:"verificationMethod"`
	ProofPurpose       string           `json:"proofPurpose"`
	SignatureBytes     []byte           `json:"proofValue"`
}

// Credential is a signed verifiable credential. It is immutable once signed:
// changing any claim requires issuing a new credential with a new id.
type Credential struct {
	Context   []string     `json:"@context"`
	ID        CredentialID `json:"id"`
	Types     []string     `json:"type"`
	IssuerID  string       `json:"issuer"`
	IssuedAt  time.Time    `json:"issuanceDate"`
	SubjectID string       `json:"-"`
	Claims    Claims       `json:"-"`
	Proof     Proof        `json:"proof"`
}

type wireCredential struct {
	Context           []string        `json:"@context"`
	ID                CredentialID    `json:"id"`
	Types             []string        `json:"type"`
	IssuerID          string          `json:"issuer"`
	IssuedAt          time.Time       `json:"issuanceDate"`
	CredentialSubject json.RawMessage `json:"credentialSubject"`
	Proof             Proof           `json:"proof"`
}

// MarshalJSON writes the W3C shape, with the subject id inside
// credentialSubject.
func (c Credential) MarshalJSON() ([]byte, error) {
	subject := maps.Clone(c.Claims)
	if subject == nil {
		subject = Claims{}
	}
	subject["id"] = c.SubjectID
	raw, err := json.Marshal(subject)
	if err != nil {
		return nil, err
	}
	return json.Marshal(wireCredential{
		Context:           c.Context,
		ID:                c.ID,
		Types:             c.Types,
		IssuerID:          c.IssuerID,
		IssuedAt:          c.IssuedAt,
		CredentialSubject: raw,
		Proof:             c.Proof,
	})
}

// UnmarshalJSON reads the W3C shape. Numbers in claims are kept as
// json.Number so re-encoding reproduces the signed bytes.
func (c *Credential) UnmarshalJSON(b []byte) error {
	var w wireCredential
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	var subject Claims
	if len(w.CredentialSubject) > 0 {
		dec := json.NewDecoder(bytes.NewReader(w.CredentialSubject))
		dec.UseNumber()
		if err := dec.Decode(&subject); err != nil {
			return err
		}
	}
	subjectID, _ := subject["id"].(string)
	delete(subject, "id")

	*c = Credential{
		Context:   w.Context,
		ID:        w.ID,
		Types:     w.Types,
		IssuerID:  w.IssuerID,
		IssuedAt:  w.IssuedAt,
		SubjectID: subjectID,
		Claims:    subject,
		Proof:     w.Proof,
	}
	return nil
}

// IssuerKey is the key material used to sign. PublicKey may be empty, in
// which case it is derived from PrivateKey.
type IssuerKey struct {
	IssuerID   string
	KeyID      string
	Algorithm  signer.Algorithm
	PrivateKey []byte
	PublicKey  []byte
}

// VerificationMethod returns the DID URL of the key.
func (k IssuerKey) VerificationMethod() string {
	keyID := k.KeyID
	if keyID == "" {
		keyID = "key-1"
	}
	return k.IssuerID + "#" + keyID
}

// IssueRequest describes a credential to issue.
type IssueRequest struct {
	SubjectID string
	// Types are appended after VerifiableCredential, e.g. "DegreeCredential".
	Types  []string
	Claims Claims
}
