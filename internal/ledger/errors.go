package ledger

import (
	dErrors "vaultledger/pkg/domain-errors"
)

var (
	// ErrConflict: the record id is bound to different content.
	ErrConflict = dErrors.New(dErrors.CodeConflict, "record already anchored with different content")
	// ErrAnchorFailed: submission retries exhausted or the chain rejected the anchor.
	ErrAnchorFailed = dErrors.New(dErrors.CodeAnchorFailed, "anchor submission failed")
	// ErrNotRecorded: a pending entry whose send outcome never reached the table.
	ErrNotRecorded = dErrors.New(dErrors.CodeAnchorFailed, "anchor transaction not recorded")
	// ErrLedgerUnavailable: the chain could not be polled for a receipt.
	ErrLedgerUnavailable = dErrors.New(dErrors.CodeTimeout, "ledger unavailable")
)
