package chain

import (
	"errors"
	"fmt"
)

// ErrorCategory is the normalized failure taxonomy for blockchain clients.
// Adapters classify their native errors into these categories so the anchor
// makes the same retry decision regardless of the chain.
type ErrorCategory string

const (
	// ErrorTimeout indicates the node took too long to respond
	ErrorTimeout ErrorCategory = "timeout"

	// ErrorOutage indicates the node or network is unreachable
	ErrorOutage ErrorCategory = "outage"

	// ErrorNonceRace indicates the nonce was consumed by a concurrent sender
	ErrorNonceRace ErrorCategory = "nonce_race"

	// ErrorInsufficientFunds indicates the sender cannot pay for the transaction yet
	ErrorInsufficientFunds ErrorCategory = "insufficient_funds"

	// ErrorRejected indicates the chain refused the transaction outright
	ErrorRejected ErrorCategory = "rejected"

	// ErrorBadData indicates an unparseable node response
	ErrorBadData ErrorCategory = "bad_data"

	// ErrorInternal indicates an unexpected adapter failure
	ErrorInternal ErrorCategory = "internal"
)

// ClientError wraps a blockchain client failure with its category.
type ClientError struct {
	Category   ErrorCategory
	Op         string
	Message    string
	Underlying error
	Retryable  bool
}

func (e *ClientError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("chain %s [%s]: %s: %v", e.Op, e.Category, e.Message, e.Underlying)
	}
	return fmt.Sprintf("chain %s [%s]: %s", e.Op, e.Category, e.Message)
}

func (e *ClientError) Unwrap() error {
	return e.Underlying
}

// NewClientError creates a classified error. Timeouts, outages, nonce races
// and insufficient funds are retryable; everything else is permanent.
func NewClientError(category ErrorCategory, op, message string, underlying error) *ClientError {
	retryable := category == ErrorTimeout ||
		category == ErrorOutage ||
		category == ErrorNonceRace ||
		category == ErrorInsufficientFunds

	return &ClientError{
		Category:   category,
		Op:         op,
		Message:    message,
		Underlying: underlying,
		Retryable:  retryable,
	}
}

// IsRetryable checks if an error is worth retrying.
func IsRetryable(err error) bool {
	var ce *ClientError
	if errors.As(err, &ce) {
		return ce.Retryable
	}
	return false
}

// GetCategory extracts the error category from an error.
func GetCategory(err error) ErrorCategory {
	var ce *ClientError
	if errors.As(err, &ce) {
		return ce.Category
	}
	return ErrorInternal
}
