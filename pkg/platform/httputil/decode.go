package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	dErrors "vaultledger/pkg/domain-errors"
)

// Request bodies may implement any of these. They run in this order after
// decoding: Sanitize trims, Normalize canonicalizes, Validate rejects.
type (
	Sanitizable  interface{ Sanitize() }
	Normalizable interface{ Normalize() }
	Validatable  interface{ Validate() error }
)

// DecodeJSON reads exactly one JSON object from the body into T. Empty bodies,
// trailing data and bodies cut off by BodyLimit are rejected with an error
// response already written.
func DecodeJSON[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger, ctx context.Context, requestID string) (*T, bool) {
	var req T
	dec := json.NewDecoder(r.Body)
	err := dec.Decode(&req)
	if err == nil && dec.More() {
		err = errTrailingData
	}
	if err == nil {
		return &req, true
	}

	logger.WarnContext(ctx, "rejected record request body",
		"route", r.URL.Path,
		"reason", err.Error(),
		"request_id", requestID,
	)

	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		WriteJSON(w, http.StatusRequestEntityTooLarge, ErrorResponse{
			Error:       "payload_too_large",
			Description: fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit),
		})
	case errors.Is(err, io.EOF):
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "request body is empty"))
	case errors.Is(err, errTrailingData):
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "request body must hold a single JSON object"))
	default:
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "request body is not valid JSON"))
	}
	return nil, false
}

var errTrailingData = errors.New("trailing data after JSON object")

func prepare(req any) error {
	if s, ok := req.(Sanitizable); ok {
		s.Sanitize()
	}
	if n, ok := req.(Normalizable); ok {
		n.Normalize()
	}
	if v, ok := req.(Validatable); ok {
		return v.Validate()
	}
	return nil
}

// DecodeAndPrepare decodes the body and runs Sanitize, Normalize and Validate.
// A plain validation error is reported as validation_error; a domain error
// keeps its own code.
//
//	req, ok := httputil.DecodeAndPrepare[AnchorRecordRequest](w, r, h.logger, ctx, requestID)
//	if !ok {
//	    return
//	}
func DecodeAndPrepare[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger, ctx context.Context, requestID string) (*T, bool) {
	req, ok := DecodeJSON[T](w, r, logger, ctx, requestID)
	if !ok {
		return nil, false
	}

	if err := prepare(req); err != nil {
		logger.WarnContext(ctx, "rejected record request",
			"route", r.URL.Path,
			"error", err,
			"request_id", requestID,
		)
		var domainErr *dErrors.Error
		if !errors.As(err, &domainErr) {
			err = dErrors.New(dErrors.CodeValidation, err.Error())
		}
		WriteError(w, err)
		return nil, false
	}
	return req, true
}
