package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"vaultledger/internal/contentstore"
	"vaultledger/internal/credential"
	"vaultledger/internal/credential/signer"
	ledgermodels "vaultledger/internal/ledger/models"
	"vaultledger/internal/proof"
	"vaultledger/internal/record/models"
	"vaultledger/internal/record/service/mocks"
	"vaultledger/internal/record/store"
	id "vaultledger/pkg/domain"
	dErrors "vaultledger/pkg/domain-errors"
	"vaultledger/pkg/platform/audit"
	"vaultledger/pkg/requestcontext"
)

// ServiceSuite checks step ordering and error propagation with mocked
// collaborators.
type ServiceSuite struct {
	suite.Suite
	ctrl       *gomock.Controller
	vault      *mocks.MockVault
	content    *mocks.MockContentStore
	ledger     *mocks.MockLedger
	issuer     *mocks.MockCredentialIssuer
	verifier   *mocks.MockProofVerifier
	statements *mocks.MockStatementCatalogue
	auditor    *mocks.MockAuditor
	metrics    *mocks.MockMetrics
	records    *store.InMemoryStore
	svc        *Service
	ctx        context.Context
	secret     []byte
	contentID  contentstore.ContentID
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.vault = mocks.NewMockVault(s.ctrl)
	s.content = mocks.NewMockContentStore(s.ctrl)
	s.ledger = mocks.NewMockLedger(s.ctrl)
	s.issuer = mocks.NewMockCredentialIssuer(s.ctrl)
	s.verifier = mocks.NewMockProofVerifier(s.ctrl)
	s.statements = mocks.NewMockStatementCatalogue(s.ctrl)
	s.auditor = mocks.NewMockAuditor(s.ctrl)
	s.metrics = mocks.NewMockMetrics(s.ctrl)
	s.records = store.NewInMemoryStore()
	s.secret = bytes.Repeat([]byte{0x07}, 32)

	var err error
	s.contentID, err = contentstore.ComputeID([]byte("envelope"), contentstore.SHA256)
	s.Require().NoError(err)

	s.svc, err = New(Dependencies{
		Records:    s.records,
		Vault:      s.vault,
		Content:    s.content,
		Ledger:     s.ledger,
		Issuer:     s.issuer,
		Verifier:   s.verifier,
		Statements: s.statements,
	}, Config{IssuerKey: credential.IssuerKey{
		IssuerID:   registry,
		Algorithm:  signer.Ed25519,
		PrivateKey: bytes.Repeat([]byte{7}, 32),
		PublicKey:  []byte("public"),
	}}, WithAuditor(s.auditor), WithMetrics(s.metrics))
	s.Require().NoError(err)

	s.ctx = requestcontext.WithActorID(context.Background(), alice)
}

func (s *ServiceSuite) request() models.AnchorRequest {
	return models.AnchorRequest{
		RecordID:  "rec-1",
		Plaintext: []byte("payload"),
		Secret:    s.secret,
	}
}

func (s *ServiceSuite) pendingTx() *ledgermodels.Transaction {
	return &ledgermodels.Transaction{
		RecordID:    "rec-1",
		ContentHash: sha256.Sum256([]byte("payload")),
		ContentID:   s.contentID.String(),
		TxHash:      "0xabc",
		Status:      ledgermodels.StatusPending,
	}
}

func (s *ServiceSuite) TestStepsRunInOrder() {
	confirmed := s.pendingTx()
	confirmed.Status = ledgermodels.StatusConfirmed

	gomock.InOrder(
		s.vault.EXPECT().Encrypt([]byte("payload"), s.secret).Return([]byte("envelope"), nil),
		s.content.EXPECT().Put(gomock.Any(), []byte("envelope")).Return(s.contentID, nil),
		s.ledger.EXPECT().Submit(gomock.Any(), "rec-1", ledgermodels.ContentHash(sha256.Sum256([]byte("payload"))), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ string, _ ledgermodels.ContentHash, meta ledgermodels.Metadata) (*ledgermodels.Transaction, error) {
				s.Equal(s.contentID.String(), meta.ContentID)
				s.Equal("identity", meta.Attributes["record_type"])
				return s.pendingTx(), nil
			}),
		s.ledger.EXPECT().AwaitConfirmation(gomock.Any(), gomock.Any(), gomock.Any()).Return(confirmed, nil),
		s.auditor.EXPECT().Log(gomock.Any(), audit.EventRecordAnchored, gomock.Any()),
	)

	result, err := s.svc.AnchorRecord(s.ctx, s.request())
	s.Require().NoError(err)
	s.Equal(models.StatusAnchored, result.Record.Status)
	s.Equal("0xabc", result.Record.AnchorTxRef)
	s.Equal(s.contentID.String(), result.Record.BlobRef)
}

func (s *ServiceSuite) TestStoreUnavailableBeforeAnythingDurable() {
	s.vault.EXPECT().Encrypt(gomock.Any(), gomock.Any()).Return([]byte("envelope"), nil)
	s.content.EXPECT().Put(gomock.Any(), gomock.Any()).Return(contentstore.ContentID(""), contentstore.ErrUnavailable)

	_, err := s.svc.AnchorRecord(s.ctx, s.request())
	var stepErr *models.StepError
	s.Require().ErrorAs(err, &stepErr)
	s.Equal(models.StepStore, stepErr.Failed)
	s.Empty(stepErr.Completed)
	s.Empty(stepErr.ContentID)
	s.True(dErrors.HasCode(err, dErrors.CodeStoreUnavailable))

	rec, err := s.records.FindByID(context.Background(), "rec-1")
	s.Require().NoError(err)
	s.Equal(models.StatusDraft, rec.Status)
	s.Empty(rec.BlobRef)
}

func (s *ServiceSuite) TestLedgerFailureKeepsStoredEnvelope() {
	failure := &dErrors.Error{Code: dErrors.CodeAnchorFailed, Message: "anchor submit failed"}
	s.vault.EXPECT().Encrypt(gomock.Any(), gomock.Any()).Return([]byte("envelope"), nil)
	s.content.EXPECT().Put(gomock.Any(), gomock.Any()).Return(s.contentID, nil)
	s.ledger.EXPECT().Submit(gomock.Any(), "rec-1", gomock.Any(), gomock.Any()).Return(nil, failure)
	s.auditor.EXPECT().Log(gomock.Any(), audit.EventAnchorFailed, gomock.Any())

	_, err := s.svc.AnchorRecord(s.ctx, s.request())
	var stepErr *models.StepError
	s.Require().ErrorAs(err, &stepErr)
	s.Equal([]models.Step{models.StepEncrypt, models.StepStore}, stepErr.Completed)
	s.Equal(models.StepSubmit, stepErr.Failed)
	s.Equal(s.contentID.String(), stepErr.ContentID)
	s.ErrorIs(err, failure)
}

func (s *ServiceSuite) TestResumeSkipsDurableSteps() {
	s.Require().NoError(s.records.Create(context.Background(), &models.Record{
		ID:          "rec-1",
		OwnerID:     alice,
		Type:        models.RecordTypeIdentity,
		ContentHash: sha256.Sum256([]byte("payload")),
		BlobRef:     s.contentID.String(),
		Status:      models.StatusDraft,
	}))
	confirmed := s.pendingTx()
	confirmed.Status = ledgermodels.StatusConfirmed

	s.ledger.EXPECT().Submit(gomock.Any(), "rec-1", gomock.Any(), gomock.Any()).Return(s.pendingTx(), nil)
	s.ledger.EXPECT().AwaitConfirmation(gomock.Any(), gomock.Any(), 5*time.Second).Return(confirmed, nil)
	s.auditor.EXPECT().Log(gomock.Any(), audit.EventRecordAnchored, gomock.Any())

	result, err := s.svc.ResumeAnchor(s.ctx, models.ResumeRequest{RecordID: "rec-1", ConfirmTimeout: 5 * time.Second})
	s.Require().NoError(err)
	s.Equal(models.StatusAnchored, result.Record.Status)
}

func (s *ServiceSuite) TestResumeWithoutEnvelopeNeedsContent() {
	s.Require().NoError(s.records.Create(context.Background(), &models.Record{
		ID:          "rec-1",
		OwnerID:     alice,
		ContentHash: sha256.Sum256([]byte("payload")),
		Status:      models.StatusDraft,
	}))

	_, err := s.svc.ResumeAnchor(s.ctx, models.ResumeRequest{RecordID: "rec-1"})
	var stepErr *models.StepError
	s.Require().ErrorAs(err, &stepErr)
	s.Equal(models.StepEncrypt, stepErr.Failed)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func (s *ServiceSuite) TestFetchRejectsDigestMismatch() {
	now := time.Now()
	s.Require().NoError(s.records.Create(context.Background(), &models.Record{
		ID:          "rec-1",
		OwnerID:     alice,
		ContentHash: sha256.Sum256([]byte("payload")),
		BlobRef:     s.contentID.String(),
		Status:      models.StatusDraft,
		CreatedAt:   now,
	}))

	s.content.EXPECT().Get(gomock.Any(), s.contentID).Return([]byte("envelope"), nil)
	s.vault.EXPECT().Decrypt([]byte("envelope"), s.secret).Return([]byte("other payload"), nil)
	s.metrics.EXPECT().IncIntegrityFailure("content_hash")
	s.auditor.EXPECT().Log(gomock.Any(), audit.EventIntegrityFailure, gomock.Any())

	_, err := s.svc.FetchRecord(s.ctx, "rec-1", s.secret)
	s.ErrorIs(err, ErrContentMismatch)
}

func (s *ServiceSuite) TestFetchPrefersLedgerMismatchOverBlobError() {
	now := time.Now()
	s.Require().NoError(s.records.Create(context.Background(), &models.Record{
		ID:          "rec-1",
		OwnerID:     alice,
		ContentHash: sha256.Sum256([]byte("payload")),
		BlobRef:     s.contentID.String(),
		Status:      models.StatusAnchored,
		CreatedAt:   now,
	}))

	s.ledger.EXPECT().Lookup(gomock.Any(), "rec-1").Return(&ledgermodels.Transaction{
		RecordID:    "rec-1",
		ContentHash: ledgermodels.ContentHash(sha256.Sum256([]byte("something else"))),
		Status:      ledgermodels.StatusConfirmed,
	}, nil)
	s.content.EXPECT().Get(gomock.Any(), s.contentID).
		Return(nil, dErrors.New(dErrors.CodeStoreUnavailable, "ipfs down"))
	s.metrics.EXPECT().IncIntegrityFailure("ledger")
	s.auditor.EXPECT().Log(gomock.Any(), audit.EventIntegrityFailure, gomock.Any())

	_, err := s.svc.FetchRecord(s.ctx, "rec-1", s.secret)
	s.True(dErrors.HasCode(err, dErrors.CodeIntegrity))
}

func (s *ServiceSuite) TestSigningErrorPropagates() {
	signErr := dErrors.New(dErrors.CodeSigning, "signing failed")
	s.issuer.EXPECT().Issue(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, signErr)

	_, err := s.svc.IssueCredential(s.ctx, models.IssueCredentialRequest{SubjectID: id.SubjectID(bob)})
	s.ErrorIs(err, signErr)
	s.True(dErrors.HasCode(err, dErrors.CodeSigning))
}

func (s *ServiceSuite) TestIssueCredentialRecordsMetric() {
	cred := &credential.Credential{ID: "urn:uuid:1", IssuerID: registry, SubjectID: bob}
	s.issuer.EXPECT().Issue(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req credential.IssueRequest, key credential.IssuerKey) (*credential.Credential, error) {
			s.Equal(bob, req.SubjectID)
			s.Equal(registry, key.IssuerID)
			return cred, nil
		})
	s.content.EXPECT().Put(gomock.Any(), gomock.Any()).Return(s.contentID, nil)
	s.metrics.EXPECT().IncCredentialIssued("Ed25519")
	s.auditor.EXPECT().Log(gomock.Any(), audit.EventCredentialIssued, gomock.Any())

	issued, err := s.svc.IssueCredential(s.ctx, models.IssueCredentialRequest{SubjectID: id.SubjectID(bob)})
	s.Require().NoError(err)
	s.Equal(s.contentID.String(), issued.ContentID)
}

func (s *ServiceSuite) TestVerifierUnavailableIsNotAVerdict() {
	backendErr := errors.New("backend down")
	s.statements.EXPECT().Get("stmt").Return(proof.Statement{ID: "stmt", CircuitID: "degree_v1", Arity: 1}, nil)
	s.verifier.EXPECT().VerifyStrict(gomock.Any(), gomock.Any(), gomock.Any()).Return(backendErr)
	s.auditor.EXPECT().Log(gomock.Any(), audit.EventProofRejected, gomock.Any())

	_, err := s.svc.VerifyProof(s.ctx, models.VerifyProofRequest{StatementID: "stmt", Strict: true})
	s.ErrorIs(err, backendErr)
}
