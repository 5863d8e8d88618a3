// Package domain provides type-safe identifiers to prevent mixing up IDs at compile time.
package domain

import (
	"strings"
	"unicode"

	dErrors "vaultledger/pkg/domain-errors"
)

// MaxIDLength bounds caller-supplied identifiers so they fit a ledger key.
const MaxIDLength = 256

// Distinct ID types - compiler prevents passing an OwnerID where a RecordID is expected.
// Record identifiers are opaque and caller supplied; subject, issuer and owner
// identifiers are usually DIDs ("did:example:123") but are not parsed as such.
type (
	RecordID   string
	OwnerID    string
	SubjectID  string
	IssuerID   string
	VerifierID string
)

// Parse functions - use at trust boundaries (handlers, API inputs).

func ParseRecordID(s string) (RecordID, error) {
	v, err := parseOpaque(s, "record ID")
	return RecordID(v), err
}

func ParseOwnerID(s string) (OwnerID, error) {
	v, err := parseOpaque(s, "owner ID")
	return OwnerID(v), err
}

func ParseSubjectID(s string) (SubjectID, error) {
	v, err := parseOpaque(s, "subject ID")
	return SubjectID(v), err
}

func ParseIssuerID(s string) (IssuerID, error) {
	v, err := parseOpaque(s, "issuer ID")
	return IssuerID(v), err
}

// ParseVerifierID accepts an empty value: records without a designated
// verifier are allowed.
func ParseVerifierID(s string) (VerifierID, error) {
	if s == "" {
		return "", nil
	}
	v, err := parseOpaque(s, "verifier ID")
	return VerifierID(v), err
}

// String methods - for logging and debugging.

func (id RecordID) String() string   { return string(id) }
func (id OwnerID) String() string    { return string(id) }
func (id SubjectID) String() string  { return string(id) }
func (id IssuerID) String() string   { return string(id) }
func (id VerifierID) String() string { return string(id) }

// IsNil checks - used for service-layer validation.

func (id RecordID) IsNil() bool   { return id == "" }
func (id OwnerID) IsNil() bool    { return id == "" }
func (id SubjectID) IsNil() bool  { return id == "" }
func (id IssuerID) IsNil() bool   { return id == "" }
func (id VerifierID) IsNil() bool { return id == "" }

// parseOpaque is the shared validation logic. Identifiers end up as ledger
// keys and log fields, so whitespace padding and control characters are rejected.
func parseOpaque(s, label string) (string, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, label+" cannot be empty")
	}
	if len(s) > MaxIDLength {
		return "", dErrors.New(dErrors.CodeInvalidInput, label+" is too long")
	}
	if strings.TrimSpace(s) != s {
		return "", dErrors.New(dErrors.CodeInvalidInput, label+" has surrounding whitespace")
	}
	for _, r := range s {
		if unicode.IsControl(r) {
			return "", dErrors.New(dErrors.CodeInvalidInput, "invalid "+label+" format")
		}
	}
	return s, nil
}
