// Package proof checks zero-knowledge proofs against explicit statements.
//
// The verifier fails closed: anything other than a well-formed proof that
// the backend positively accepts is treated as invalid.
package proof

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	dErrors "vaultledger/pkg/domain-errors"
)

// ErrVerification matches every VerificationError via errors.Is.
var ErrVerification = dErrors.New(dErrors.CodeVerification, "proof verification failed")

// Backend runs the cryptographic check for a circuit.
type Backend interface {
	Verify(ctx context.Context, circuitID string, proof json.RawMessage, publicInputs []string) (bool, error)
}

// BackendFunc adapts a function to Backend.
type BackendFunc func(ctx context.Context, circuitID string, proof json.RawMessage, publicInputs []string) (bool, error)

// Verify calls f.
func (f BackendFunc) Verify(ctx context.Context, circuitID string, proof json.RawMessage, publicInputs []string) (bool, error) {
	return f(ctx, circuitID, proof, publicInputs)
}

// Reason classifies why a proof was not accepted.
type Reason string

const (
	ReasonInvalidStatement Reason = "invalid_statement"
	ReasonMalformedProof   Reason = "malformed_proof"
	ReasonArityMismatch    Reason = "arity_mismatch"
	ReasonInputMismatch    Reason = "bound_input_mismatch"
	ReasonRejected         Reason = "rejected"
	ReasonBackend          Reason = "backend_error"
)

// VerificationError reports a proof that was not accepted. Reason separates
// an invalid proof from a verifier that could not run.
type VerificationError struct {
	Reason      Reason
	StatementID string
	Detail      string
	Err         error
}

func (e *VerificationError) Error() string {
	msg := fmt.Sprintf("proof verification failed (%s)", e.Reason)
	if e.StatementID != "" {
		msg += " for statement " + e.StatementID
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// Unwrap exposes the verification_error domain code and the cause.
func (e *VerificationError) Unwrap() error {
	return &dErrors.Error{Code: dErrors.CodeVerification, Message: e.Error(), Err: e.Err}
}

// Unavailable reports whether the verifier itself failed to produce a verdict.
func (e *VerificationError) Unavailable() bool {
	return e.Reason == ReasonBackend
}

// ReasonOf returns the reason carried by err, or "" if err is not a VerificationError.
func ReasonOf(err error) Reason {
	var ve *VerificationError
	if errors.As(err, &ve) {
		return ve.Reason
	}
	return ""
}

// Metrics receives verdicts.
type Metrics interface {
	IncProofVerdict(circuitID, verdict string)
	ObserveProofLatency(d time.Duration)
}

// Verifier checks proofs against statements.
type Verifier struct {
	backend Backend
	logger  *slog.Logger
	metrics Metrics
	now     func() time.Time
}

// Option configures the Verifier.
type Option func(*Verifier)

// WithLogger sets the logger for the verifier.
func WithLogger(logger *slog.Logger) Option {
	return func(v *Verifier) {
		v.logger = logger
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m Metrics) Option {
	return func(v *Verifier) {
		v.metrics = m
	}
}

// New creates a verifier. A nil backend is a configuration error: there is
// no mode that accepts proofs without checking them.
func New(backend Backend, opts ...Option) (*Verifier, error) {
	if backend == nil {
		return nil, dErrors.New(dErrors.CodeValidation, "proof verifier requires a backend")
	}
	v := &Verifier{
		backend: backend,
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

// Verify reports whether proof attests stmt. Every failure is false.
func (v *Verifier) Verify(ctx context.Context, proof Artifact, stmt Statement) bool {
	return v.VerifyStrict(ctx, proof, stmt) == nil
}

// VerifyStrict returns nil only when the backend accepted a well-formed proof
// whose public inputs match stmt. Otherwise it returns a *VerificationError.
func (v *Verifier) VerifyStrict(ctx context.Context, proof Artifact, stmt Statement) error {
	start := v.now()
	err := v.verify(ctx, proof, stmt)
	v.record(stmt, err, v.now().Sub(start))
	return err
}

func (v *Verifier) verify(ctx context.Context, proof Artifact, stmt Statement) error {
	if err := stmt.Validate(); err != nil {
		return &VerificationError{Reason: ReasonInvalidStatement, StatementID: stmt.ID, Detail: err.Error(), Err: err}
	}

	g, err := ParseGroth16(proof.ProofData)
	if err != nil {
		return &VerificationError{Reason: ReasonMalformedProof, StatementID: stmt.ID, Detail: err.Error(), Err: err}
	}

	if len(proof.PublicInputs) != stmt.Arity {
		return &VerificationError{
			Reason:      ReasonArityMismatch,
			StatementID: stmt.ID,
			Detail:      fmt.Sprintf("got %d public inputs, statement expects %d", len(proof.PublicInputs), stmt.Arity),
		}
	}
	for i, in := range proof.PublicInputs {
		n, err := parseFieldElement(in, scalarModulus)
		if err != nil {
			return &VerificationError{Reason: ReasonMalformedProof, StatementID: stmt.ID, Detail: fmt.Sprintf("public input %d: %v", i, err)}
		}
		if want, bound := stmt.BoundInputs[i]; bound {
			w, _ := parseFieldElement(want, scalarModulus)
			if n.Cmp(w) != 0 {
				return &VerificationError{Reason: ReasonInputMismatch, StatementID: stmt.ID, Detail: fmt.Sprintf("public input %d does not match statement", i)}
			}
		}
	}

	normalized, err := g.JSON()
	if err != nil {
		return &VerificationError{Reason: ReasonMalformedProof, StatementID: stmt.ID, Err: err}
	}

	ok, err := v.backend.Verify(ctx, stmt.CircuitID, normalized, proof.PublicInputs)
	if err != nil {
		return &VerificationError{Reason: ReasonBackend, StatementID: stmt.ID, Detail: err.Error(), Err: err}
	}
	if !ok {
		return &VerificationError{Reason: ReasonRejected, StatementID: stmt.ID}
	}
	return nil
}

func (v *Verifier) record(stmt Statement, err error, d time.Duration) {
	verdict := "valid"
	if err != nil {
		verdict = string(ReasonOf(err))
		v.logger.Info("proof not accepted",
			"statement_id", stmt.ID,
			"circuit_id", stmt.CircuitID,
			"reason", verdict,
			"error", err,
		)
	}
	if v.metrics != nil {
		v.metrics.IncProofVerdict(stmt.CircuitID, verdict)
		v.metrics.ObserveProofLatency(d)
	}
}
