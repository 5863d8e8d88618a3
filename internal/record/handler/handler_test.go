package handler

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"vaultledger/internal/contentstore"
	"vaultledger/internal/credential"
	ledgermodels "vaultledger/internal/ledger/models"
	"vaultledger/internal/record/handler/mocks"
	"vaultledger/internal/record/models"
	"vaultledger/internal/record/service"
	id "vaultledger/pkg/domain"
	dErrors "vaultledger/pkg/domain-errors"
	"vaultledger/pkg/platform/httputil"
)

var _ Service = (*service.Service)(nil)

type RecordHandlerSuite struct {
	suite.Suite
	ctrl   *gomock.Controller
	svc    *mocks.MockService
	router chi.Router
}

func TestRecordHandlerSuite(t *testing.T) {
	suite.Run(t, new(RecordHandlerSuite))
}

func (s *RecordHandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.svc = mocks.NewMockService(s.ctrl)
	h := New(s.svc, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.router = chi.NewRouter()
	h.Register(s.router)
	h.RegisterIssuer(s.router)
}

func (s *RecordHandlerSuite) do(method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	var reader io.Reader = http.NoBody
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *RecordHandlerSuite) record(status models.Status) *models.Record {
	return &models.Record{
		ID:      "rec-1",
		OwnerID: "did:example:alice",
		Type:    models.RecordTypeEducation,
		Status:  status,
	}
}

func (s *RecordHandlerSuite) assertError(w *httptest.ResponseRecorder, status int, code string) {
	s.Equal(status, w.Code)
	var body httputil.ErrorResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body))
	s.Equal(code, body.Error)
}

func (s *RecordHandlerSuite) anchorBody() map[string]any {
	return map[string]any{
		"record_id":   "rec-1",
		"record_type": "education",
		"content":     base64.StdEncoding.EncodeToString([]byte("transcript")),
		"secret":      base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{1}, 32)),
	}
}

func (s *RecordHandlerSuite) TestAnchorRecord() {
	s.Run("confirmed anchor returns 201", func() {
		s.svc.EXPECT().AnchorRecord(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, req models.AnchorRequest) (*models.AnchorResult, error) {
				s.Equal(id.RecordID("rec-1"), req.RecordID)
				s.Equal([]byte("transcript"), req.Plaintext)
				s.Len(req.Secret, 32)
				return &models.AnchorResult{
					Record:      s.record(models.StatusAnchored),
					Transaction: &ledgermodels.Transaction{TxHash: "0xabc", Status: ledgermodels.StatusConfirmed},
					Completed:   []models.Step{models.StepEncrypt, models.StepStore, models.StepSubmit, models.StepConfirm},
				}, nil
			})

		w := s.do(http.MethodPost, "/records", s.anchorBody(), nil)

		s.Equal(http.StatusCreated, w.Code)
		var resp AnchorResponse
		s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
		s.Equal(models.StatusAnchored, resp.Record.Status)
		s.Equal("0xabc", resp.Transaction.TxHash)
		s.False(resp.Pending)
		s.NotContains(w.Body.String(), "secret")
	})

	s.Run("pending anchor returns 202", func() {
		s.svc.EXPECT().AnchorRecord(gomock.Any(), gomock.Any()).Return(&models.AnchorResult{
			Record:      s.record(models.StatusDraft),
			Transaction: &ledgermodels.Transaction{TxHash: "0xabc", Status: ledgermodels.StatusPending},
			Completed:   []models.Step{models.StepEncrypt, models.StepStore, models.StepSubmit},
		}, nil)

		w := s.do(http.MethodPost, "/records", s.anchorBody(), nil)

		s.Equal(http.StatusAccepted, w.Code)
		s.Contains(w.Body.String(), `"pending":true`)
	})

	s.Run("missing content is rejected before the engine", func() {
		body := s.anchorBody()
		delete(body, "content")

		w := s.do(http.MethodPost, "/records", body, nil)

		s.assertError(w, http.StatusBadRequest, "validation_error")
	})

	s.Run("control characters in ids are rejected", func() {
		body := s.anchorBody()
		body["record_id"] = "rec\x01one"

		w := s.do(http.MethodPost, "/records", body, nil)

		s.assertError(w, http.StatusBadRequest, "bad_request")
	})

	s.Run("missing secret is a key error", func() {
		body := s.anchorBody()
		delete(body, "secret")

		w := s.do(http.MethodPost, "/records", body, nil)

		s.assertError(w, http.StatusBadRequest, string(dErrors.CodeKey))
	})

	s.Run("step failure reports completed steps", func() {
		contentID, err := contentstore.ComputeID([]byte("envelope"), contentstore.SHA256)
		s.Require().NoError(err)
		s.svc.EXPECT().AnchorRecord(gomock.Any(), gomock.Any()).Return(nil, &models.StepError{
			RecordID:  "rec-1",
			Completed: []models.Step{models.StepEncrypt, models.StepStore},
			Failed:    models.StepSubmit,
			ContentID: contentID.String(),
			Err:       dErrors.New(dErrors.CodeAnchorFailed, "anchor submit failed"),
		})

		w := s.do(http.MethodPost, "/records", s.anchorBody(), nil)

		s.Equal(http.StatusBadGateway, w.Code)
		var resp StepErrorResponse
		s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
		s.Equal(string(dErrors.CodeAnchorFailed), resp.Error)
		s.Equal([]models.Step{models.StepEncrypt, models.StepStore}, resp.Completed)
		s.Equal(models.StepSubmit, resp.Failed)
		s.Equal(contentID.String(), resp.ContentID)
	})

	s.Run("conflict returns 409", func() {
		s.svc.EXPECT().AnchorRecord(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeConflict, "record rec-1 is already anchored"))

		w := s.do(http.MethodPost, "/records", s.anchorBody(), nil)

		s.assertError(w, http.StatusConflict, string(dErrors.CodeConflict))
	})
}

func (s *RecordHandlerSuite) TestFetchRecord() {
	secret := bytes.Repeat([]byte{1}, 32)

	s.Run("secret header is required", func() {
		w := s.do(http.MethodGet, "/records/rec-1", nil, nil)
		s.assertError(w, http.StatusBadRequest, string(dErrors.CodeKey))
	})

	s.Run("secret must be base64", func() {
		w := s.do(http.MethodGet, "/records/rec-1", nil, map[string]string{SecretHeader: "%%%"})
		s.assertError(w, http.StatusBadRequest, string(dErrors.CodeKey))
	})

	s.Run("returns verified content", func() {
		s.svc.EXPECT().FetchRecord(gomock.Any(), id.RecordID("rec-1"), secret).
			Return(&models.FetchResult{Record: s.record(models.StatusAnchored), Plaintext: []byte("transcript")}, nil)

		w := s.do(http.MethodGet, "/records/rec-1", nil, map[string]string{
			SecretHeader: base64.StdEncoding.EncodeToString(secret),
		})

		s.Equal(http.StatusOK, w.Code)
		var resp FetchResponse
		s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
		s.Equal([]byte("transcript"), resp.Content)
	})

	s.Run("integrity failure returns 422", func() {
		s.svc.EXPECT().FetchRecord(gomock.Any(), id.RecordID("rec-1"), gomock.Any()).Return(nil, service.ErrContentMismatch)

		w := s.do(http.MethodGet, "/records/rec-1", nil, map[string]string{
			SecretHeader: base64.StdEncoding.EncodeToString(secret),
		})

		s.assertError(w, http.StatusUnprocessableEntity, string(dErrors.CodeIntegrity))
	})

	s.Run("expired record returns 410", func() {
		s.svc.EXPECT().FetchRecord(gomock.Any(), id.RecordID("rec-1"), gomock.Any()).Return(nil, service.ErrExpired)

		w := s.do(http.MethodGet, "/records/rec-1", nil, map[string]string{
			SecretHeader: base64.StdEncoding.EncodeToString(secret),
		})

		s.assertError(w, http.StatusGone, string(dErrors.CodeExpired))
	})

	s.Run("other actor is forbidden", func() {
		s.svc.EXPECT().FetchRecord(gomock.Any(), id.RecordID("rec-1"), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeForbidden, "actor may not access record rec-1"))

		w := s.do(http.MethodGet, "/records/rec-1", nil, map[string]string{
			SecretHeader: base64.StdEncoding.EncodeToString(secret),
		})

		s.assertError(w, http.StatusForbidden, string(dErrors.CodeForbidden))
	})
}

func (s *RecordHandlerSuite) TestResumeStatusRevokeList() {
	s.svc.EXPECT().ResumeAnchor(gomock.Any(), models.ResumeRequest{RecordID: "rec-1"}).Return(&models.AnchorResult{
		Record: s.record(models.StatusAnchored),
	}, nil)
	w := s.do(http.MethodPost, "/records/rec-1/resume", map[string]any{}, nil)
	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), `"completed_steps":[]`)

	s.svc.EXPECT().RecordStatus(gomock.Any(), id.RecordID("rec-1")).Return(&models.AnchorResult{
		Record: s.record(models.StatusDraft),
	}, nil)
	w = s.do(http.MethodGet, "/records/rec-1/status", nil, nil)
	s.Equal(http.StatusOK, w.Code)

	s.svc.EXPECT().RevokeRecord(gomock.Any(), id.RecordID("rec-1"), "superseded").Return(s.record(models.StatusRevoked), nil)
	w = s.do(http.MethodPost, "/records/rec-1/revoke", map[string]string{"reason": " superseded "}, nil)
	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), `"status":"revoked"`)

	s.svc.EXPECT().ListRecords(gomock.Any()).Return([]*models.Record{s.record(models.StatusAnchored)}, nil)
	w = s.do(http.MethodGet, "/records", nil, nil)
	s.Equal(http.StatusOK, w.Code)
	var list ListResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &list))
	s.Len(list.Records, 1)
}

func (s *RecordHandlerSuite) TestCredentials() {
	s.Run("issue dedupes types", func() {
		s.svc.EXPECT().IssueCredential(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, req models.IssueCredentialRequest) (*models.IssuedCredential, error) {
				s.Equal([]string{"DegreeCredential"}, req.Types)
				s.Equal(id.SubjectID("did:example:alice"), req.SubjectID)
				return &models.IssuedCredential{ContentID: "bafy"}, nil
			})

		w := s.do(http.MethodPost, "/credentials", map[string]any{
			"subject_id": "did:example:alice",
			"types":      []string{"DegreeCredential", " DegreeCredential"},
		}, nil)

		s.Equal(http.StatusCreated, w.Code)
	})

	s.Run("verify needs exactly one source", func() {
		w := s.do(http.MethodPost, "/credentials/verify", map[string]any{}, nil)
		s.assertError(w, http.StatusBadRequest, "validation_error")

		w = s.do(http.MethodPost, "/credentials/verify", map[string]any{"jwt": "a.b.c", "content_id": "bafy"}, nil)
		s.assertError(w, http.StatusBadRequest, "validation_error")
	})

	s.Run("verify accepts a vc-jwt", func() {
		s.svc.EXPECT().VerifyCredential(gomock.Any(), models.VerifyCredentialRequest{JWT: "a.b.c"}).
			Return(&credential.Credential{ID: "urn:uuid:1"}, nil)

		w := s.do(http.MethodPost, "/credentials/verify", map[string]any{"jwt": " a.b.c "}, nil)

		s.Equal(http.StatusOK, w.Code)
		var resp VerifyCredentialResponse
		s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
		s.True(resp.Valid)
	})

	s.Run("bad signature is a negative verdict", func() {
		s.svc.EXPECT().VerifyCredential(gomock.Any(), models.VerifyCredentialRequest{ContentID: "bafy"}).
			Return(nil, dErrors.New(dErrors.CodeVerification, "signature invalid"))

		w := s.do(http.MethodPost, "/credentials/verify", map[string]any{"content_id": "bafy"}, nil)

		s.Equal(http.StatusOK, w.Code)
		var resp VerifyCredentialResponse
		s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
		s.False(resp.Valid)
		s.NotEmpty(resp.Reason)
	})

	s.Run("missing stored credential is not found", func() {
		s.svc.EXPECT().VerifyCredential(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeNotFound, "content not found"))

		w := s.do(http.MethodPost, "/credentials/verify", map[string]any{"content_id": "bafy"}, nil)

		s.assertError(w, http.StatusNotFound, string(dErrors.CodeNotFound))
	})
}

func (s *RecordHandlerSuite) TestVerifyProof() {
	s.svc.EXPECT().VerifyProof(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req models.VerifyProofRequest) (*models.ProofVerdict, error) {
			s.Equal("degree-holder", req.StatementID)
			s.Equal([]string{"42", "7"}, req.Proof.PublicInputs)
			return &models.ProofVerdict{StatementID: "degree-holder", Valid: false, Reason: "rejected"}, nil
		})

	w := s.do(http.MethodPost, "/proofs/verify", map[string]any{
		"statement_id": "degree-holder",
		"proof": map[string]any{
			"proof":         map[string]any{"protocol": "groth16"},
			"public_inputs": []string{"42", "7"},
		},
	}, nil)

	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), `"reason":"rejected"`)

	w = s.do(http.MethodPost, "/proofs/verify", map[string]any{"proof": map[string]any{}}, nil)
	s.assertError(w, http.StatusBadRequest, "validation_error")
}
