package validation

import (
	"fmt"

	dErrors "vaultledger/pkg/domain-errors"
)

// HTTP body limits
const (
	// MaxBodySize bounds a request body. Record content travels base64
	// encoded inside the JSON body, so this is larger than MaxContentSize.
	MaxBodySize = 8 << 20

	// MaxContentSize is the largest record plaintext accepted for anchoring.
	MaxContentSize = 4 << 20
)

// Slice element count limits
const (
	// MaxCredentialTypes is the maximum number of extra credential types.
	MaxCredentialTypes = 10

	// MaxClaims is the maximum number of top-level credential claims.
	MaxClaims = 100

	// MaxPublicInputs is the maximum number of public inputs on a proof.
	MaxPublicInputs = 64
)

// String element length limits
const (
	// MaxRecordIDLength is the maximum length of a record id.
	MaxRecordIDLength = 128

	// MaxActorIDLength is the maximum length of an owner, verifier or subject DID.
	MaxActorIDLength = 256

	// MaxNotesLength is the maximum length of record notes.
	MaxNotesLength = 2000

	// MaxLanguageTagLength is the maximum length of a BCP 47 language tag.
	MaxLanguageTagLength = 35

	// MaxStatementIDLength is the maximum length of a statement id.
	MaxStatementIDLength = 100

	// MaxReasonLength is the maximum length of a revocation reason.
	MaxReasonLength = 500

	// MaxCredentialTypeLength is the maximum length of a credential type.
	MaxCredentialTypeLength = 100
)

// CheckSliceCount validates that a slice does not exceed the maximum count.
func CheckSliceCount(fieldName string, count, max int) error {
	if count > max {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("too many %s: max %d allowed", fieldName, max))
	}
	return nil
}

// CheckStringLength validates that a string does not exceed the maximum length.
func CheckStringLength(fieldName, value string, max int) error {
	if len(value) > max {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("%s exceeds max length of %d", fieldName, max))
	}
	return nil
}

// CheckEachStringLength validates that each string in a slice does not exceed the maximum length.
func CheckEachStringLength(fieldName string, values []string, max int) error {
	for _, v := range values {
		if len(v) > max {
			return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("%s exceeds max length of %d", fieldName, max))
		}
	}
	return nil
}
