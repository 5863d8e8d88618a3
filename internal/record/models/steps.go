package models

import (
	"strings"
)

// Step is one stage of the anchoring pipeline.
type Step string

const (
	StepEncrypt     Step = "encrypt"
	StepStore       Step = "store"
	StepVerifyProof Step = "verify_proof"
	StepSubmit      Step = "submit"
	StepConfirm     Step = "confirm"
	// StepSign is the credential signing step; a credential that is signed
	// but not stored fails at StepStore.
	StepSign Step = "sign"
)

// StepError reports a pipeline failure together with the steps that had
// already succeeded, so the caller can resume instead of starting over.
// ContentID is set once the envelope has been stored.
type StepError struct {
	RecordID  string
	Completed []Step
	Failed    Step
	ContentID string
	Err       error
}

func (e *StepError) Error() string {
	var b strings.Builder
	b.WriteString("record ")
	b.WriteString(e.RecordID)
	b.WriteString(": step ")
	b.WriteString(string(e.Failed))
	b.WriteString(" failed")
	if len(e.Completed) > 0 {
		names := make([]string, len(e.Completed))
		for i, s := range e.Completed {
			names[i] = string(s)
		}
		b.WriteString(" after ")
		b.WriteString(strings.Join(names, ","))
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Resumable reports whether anything was completed before the failure.
func (e *StepError) Resumable() bool {
	return len(e.Completed) > 0
}
