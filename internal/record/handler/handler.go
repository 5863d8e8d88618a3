package handler

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

import (
	"context"
	"encoding/base64"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"vaultledger/internal/credential"
	"vaultledger/internal/record/models"
	id "vaultledger/pkg/domain"
	dErrors "vaultledger/pkg/domain-errors"
	"vaultledger/pkg/platform/httputil"
	"vaultledger/pkg/requestcontext"
)

// SecretHeader carries the base64 record secret on fetch requests.
const SecretHeader = "X-Record-Secret"

// Service defines the record engine operations exposed over HTTP.
type Service interface {
	AnchorRecord(ctx context.Context, req models.AnchorRequest) (*models.AnchorResult, error)
	ResumeAnchor(ctx context.Context, req models.ResumeRequest) (*models.AnchorResult, error)
	FetchRecord(ctx context.Context, recordID id.RecordID, secret []byte) (*models.FetchResult, error)
	RecordStatus(ctx context.Context, recordID id.RecordID) (*models.AnchorResult, error)
	ListRecords(ctx context.Context) ([]*models.Record, error)
	RevokeRecord(ctx context.Context, recordID id.RecordID, reason string) (*models.Record, error)
	IssueCredential(ctx context.Context, req models.IssueCredentialRequest) (*models.IssuedCredential, error)
	VerifyCredential(ctx context.Context, req models.VerifyCredentialRequest) (*credential.Credential, error)
	VerifyProof(ctx context.Context, req models.VerifyProofRequest) (*models.ProofVerdict, error)
}

// Handler serves the record, credential and proof endpoints.
type Handler struct {
	records Service
	logger  *slog.Logger
}

// New creates a record Handler.
func New(records Service, logger *slog.Logger) *Handler {
	return &Handler{records: records, logger: logger}
}

// Register registers the record routes. Credential issuance is registered
// separately so it can sit behind the issuer role.
func (h *Handler) Register(r chi.Router) {
	r.Post("/records", h.HandleAnchorRecord)
	r.Get("/records", h.HandleListRecords)
	r.Get("/records/{id}", h.HandleFetchRecord)
	r.Get("/records/{id}/status", h.HandleRecordStatus)
	r.Post("/records/{id}/resume", h.HandleResumeAnchor)
	r.Post("/records/{id}/revoke", h.HandleRevokeRecord)
	r.Post("/credentials/verify", h.HandleVerifyCredential)
	r.Post("/proofs/verify", h.HandleVerifyProof)
}

// RegisterIssuer registers the credential issuance route.
func (h *Handler) RegisterIssuer(r chi.Router) {
	r.Post("/credentials", h.HandleIssueCredential)
}

func (h *Handler) HandleAnchorRecord(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[AnchorRecordRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.records.AnchorRecord(ctx, req.ToModel())
	if err != nil {
		h.fail(ctx, w, "failed to anchor record", err)
		return
	}
	httputil.WriteJSON(w, anchorStatus(result, http.StatusCreated), toAnchorResponse(result))
}

func (h *Handler) HandleResumeAnchor(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[ResumeAnchorRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.records.ResumeAnchor(ctx, req.ToModel(recordIDParam(r)))
	if err != nil {
		h.fail(ctx, w, "failed to resume anchor", err)
		return
	}
	httputil.WriteJSON(w, anchorStatus(result, http.StatusOK), toAnchorResponse(result))
}

func (h *Handler) HandleFetchRecord(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	raw := strings.TrimSpace(r.Header.Get(SecretHeader))
	if raw == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeKey, "header "+SecretHeader+" is required"))
		return
	}
	secret, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeKey, "header "+SecretHeader+" must be base64"))
		return
	}

	result, err := h.records.FetchRecord(ctx, recordIDParam(r), secret)
	clear(secret)
	if err != nil {
		h.fail(ctx, w, "failed to fetch record", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FetchResponse{
		Record:  toRecordResponse(result.Record),
		Content: result.Plaintext,
	})
}

func (h *Handler) HandleRecordStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	result, err := h.records.RecordStatus(ctx, recordIDParam(r))
	if err != nil {
		h.fail(ctx, w, "failed to read record status", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toAnchorResponse(result))
}

func (h *Handler) HandleListRecords(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	records, err := h.records.ListRecords(ctx)
	if err != nil {
		h.fail(ctx, w, "failed to list records", err)
		return
	}
	resp := ListResponse{Records: make([]RecordResponse, 0, len(records))}
	for _, rec := range records {
		resp.Records = append(resp.Records, toRecordResponse(rec))
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) HandleRevokeRecord(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[RevokeRecordRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	rec, err := h.records.RevokeRecord(ctx, recordIDParam(r), req.Reason)
	if err != nil {
		h.fail(ctx, w, "failed to revoke record", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toRecordResponse(rec))
}

func (h *Handler) HandleIssueCredential(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[IssueCredentialRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	issued, err := h.records.IssueCredential(ctx, req.ToModel())
	if err != nil {
		h.fail(ctx, w, "failed to issue credential", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, issued)
}

func (h *Handler) HandleVerifyCredential(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[VerifyCredentialRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	cred, err := h.records.VerifyCredential(ctx, req.ToModel())
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeVerification) || dErrors.HasCode(err, dErrors.CodeSigning) {
			httputil.WriteJSON(w, http.StatusOK, VerifyCredentialResponse{Valid: false, Reason: err.Error()})
			return
		}
		h.fail(ctx, w, "failed to verify credential", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, VerifyCredentialResponse{Valid: true, Credential: cred})
}

func (h *Handler) HandleVerifyProof(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[VerifyProofRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	verdict, err := h.records.VerifyProof(ctx, req.ToModel())
	if err != nil {
		h.fail(ctx, w, "failed to verify proof", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, verdict)
}

// fail logs err and writes it. Step failures carry the completed steps so
// the caller knows to resume.
func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	level := slog.LevelWarn
	if httputil.DomainCodeToHTTPStatus(dErrors.CodeOf(err)) >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	h.logger.Log(ctx, level, msg,
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	)

	var stepErr *models.StepError
	if errors.As(err, &stepErr) {
		code := dErrors.CodeOf(err)
		httputil.WriteJSON(w, httputil.DomainCodeToHTTPStatus(code), StepErrorResponse{
			ErrorResponse: httputil.ErrorResponse{
				Error:       httputil.DomainCodeToHTTPCode(code),
				Description: stepErr.Error(),
				Retryable:   dErrors.IsRetryable(err),
			},
			RecordID:  stepErr.RecordID,
			Completed: stepErr.Completed,
			Failed:    stepErr.Failed,
			ContentID: stepErr.ContentID,
		})
		return
	}
	httputil.WriteError(w, err)
}

func recordIDParam(r *http.Request) id.RecordID {
	return id.RecordID(chi.URLParam(r, "id"))
}

// anchorStatus is 202 while the anchor awaits confirmation.
func anchorStatus(result *models.AnchorResult, done int) int {
	if result.Pending() {
		return http.StatusAccepted
	}
	return done
}
