// Package service is the record engine: it coordinates the vault, the
// content store, the proof verifier, the ledger anchor and the credential
// issuer behind the exposed record operations.
package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Vault,ContentStore,Ledger,CredentialIssuer,ProofVerifier,StatementCatalogue

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"vaultledger/internal/contentstore"
	"vaultledger/internal/credential"
	ledgermodels "vaultledger/internal/ledger/models"
	"vaultledger/internal/platform/tracer"
	"vaultledger/internal/proof"
	"vaultledger/internal/record/store"
	id "vaultledger/pkg/domain"
	dErrors "vaultledger/pkg/domain-errors"
	"vaultledger/pkg/platform/audit"
	psync "vaultledger/pkg/platform/sync"
)

// Vault seals record payloads.
type Vault interface {
	Encrypt(plaintext, secret []byte) ([]byte, error)
	Decrypt(envelope, secret []byte) ([]byte, error)
}

// ContentStore keeps envelopes and credentials by content id.
type ContentStore interface {
	Put(ctx context.Context, data []byte) (contentstore.ContentID, error)
	Get(ctx context.Context, contentID contentstore.ContentID) ([]byte, error)
}

// Ledger binds record ids to content hashes on-chain.
type Ledger interface {
	Submit(ctx context.Context, recordID string, contentHash ledgermodels.ContentHash, meta ledgermodels.Metadata) (*ledgermodels.Transaction, error)
	AwaitConfirmation(ctx context.Context, tx *ledgermodels.Transaction, timeout time.Duration) (*ledgermodels.Transaction, error)
	Revoke(ctx context.Context, recordID string) (*ledgermodels.Transaction, error)
	Lookup(ctx context.Context, recordID string) (*ledgermodels.Transaction, error)
}

// CredentialIssuer signs and checks credentials.
type CredentialIssuer interface {
	Issue(ctx context.Context, req credential.IssueRequest, key credential.IssuerKey) (*credential.Credential, error)
	Verify(cred *credential.Credential, publicKey []byte) error
}

// ProofVerifier checks a proof against a statement and explains a rejection.
type ProofVerifier interface {
	VerifyStrict(ctx context.Context, artifact proof.Artifact, stmt proof.Statement) error
}

// StatementCatalogue resolves statement ids.
type StatementCatalogue interface {
	Get(statementID string) (proof.Statement, error)
}

// Auditor records domain events.
type Auditor interface {
	Log(ctx context.Context, action audit.AuditEvent, event audit.Event)
}

// Metrics receives engine observations.
type Metrics interface {
	IncIntegrityFailure(component string)
	IncCredentialIssued(algorithm string)
	AddRecordsExpired(n int)
}

// Dependencies are the collaborators the engine cannot run without.
type Dependencies struct {
	Records    store.Store
	Vault      Vault
	Content    ContentStore
	Ledger     Ledger
	Issuer     CredentialIssuer
	Verifier   ProofVerifier
	Statements StatementCatalogue
}

// Config holds engine settings.
type Config struct {
	// IssuerKey signs credentials; its PublicKey must be set.
	IssuerKey credential.IssuerKey
	// ConfirmTimeout is used when a request does not set its own; zero
	// defers to the ledger default.
	ConfirmTimeout time.Duration
}

// Option configures the record service.
type Option func(*Service)

// Service implements the record operations.
type Service struct {
	records    store.Store
	vault      Vault
	content    ContentStore
	ledger     Ledger
	issuer     CredentialIssuer
	verifier   ProofVerifier
	statements StatementCatalogue
	cfg        Config

	auditor Auditor
	metrics Metrics
	tracer  tracer.Tracer
	logger  *slog.Logger

	locks *psync.ShardedMutex
}

// WithAuditor configures an audit logger for the service.
func WithAuditor(auditor Auditor) Option {
	return func(s *Service) {
		s.auditor = auditor
	}
}

// WithLogger configures a logger for the service.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithMetrics configures the metrics sink.
func WithMetrics(m Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithTracer configures span creation.
func WithTracer(t tracer.Tracer) Option {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

// New creates the record engine. Every dependency is required: in
// particular there is no default proof verifier.
func New(deps Dependencies, cfg Config, opts ...Option) (*Service, error) {
	switch {
	case deps.Records == nil:
		return nil, dErrors.New(dErrors.CodeValidation, "record store is required")
	case deps.Vault == nil:
		return nil, dErrors.New(dErrors.CodeValidation, "vault is required")
	case deps.Content == nil:
		return nil, dErrors.New(dErrors.CodeValidation, "content store is required")
	case deps.Ledger == nil:
		return nil, dErrors.New(dErrors.CodeValidation, "ledger anchor is required")
	case deps.Issuer == nil:
		return nil, dErrors.New(dErrors.CodeValidation, "credential issuer is required")
	case deps.Verifier == nil:
		return nil, dErrors.New(dErrors.CodeValidation, "proof verifier is required")
	case deps.Statements == nil:
		return nil, dErrors.New(dErrors.CodeValidation, "statement catalogue is required")
	}
	if cfg.IssuerKey.IssuerID == "" || len(cfg.IssuerKey.PrivateKey) == 0 || len(cfg.IssuerKey.PublicKey) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "issuer key with id, private and public key is required")
	}

	svc := &Service{
		records:    deps.Records,
		vault:      deps.Vault,
		content:    deps.Content,
		ledger:     deps.Ledger,
		issuer:     deps.Issuer,
		verifier:   deps.Verifier,
		statements: deps.Statements,
		cfg:        cfg,
		tracer:     tracer.NewNoop(),
		logger:     slog.Default(),
		locks:      psync.NewShardedMutex(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// lockRecord serializes mutations of one record. A second caller waits
// rather than failing. The returned release may be called more than once.
func (s *Service) lockRecord(recordID id.RecordID) func() {
	s.locks.Lock(string(recordID))
	var once sync.Once
	return func() {
		once.Do(func() { s.locks.Unlock(string(recordID)) })
	}
}

func (s *Service) emitAudit(ctx context.Context, action audit.AuditEvent, event audit.Event) {
	if s.auditor == nil {
		return
	}
	s.auditor.Log(ctx, action, event)
}

func (s *Service) integrityFailure(ctx context.Context, recordID id.RecordID, component string, err error) {
	if s.metrics != nil {
		s.metrics.IncIntegrityFailure(component)
	}
	s.logger.WarnContext(ctx, "integrity check failed",
		"record_id", recordID,
		"component", component,
		"error", err,
	)
	s.emitAudit(ctx, audit.EventIntegrityFailure, audit.Event{
		Subject: string(recordID),
		Reason:  component,
	})
}
