// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/holomush/storefront/internal/apperr"
	"github.com/holomush/storefront/pkg/errutil"
)

// maxBodyBytes bounds every JSON request body.
const maxBodyBytes = 64 << 10

// codeInternal replaces the code of errors that carry no caller-facing variant.
const codeInternal = "INTERNAL"

type apiError struct {
	Code       string   `json:"code"`
	Message    string   `json:"message"`
	Violations []string `json:"violations,omitempty"`
	Reference  string   `json:"reference,omitempty"`
}

type errorResponse struct {
	Error apiError `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v) //nolint:errcheck // client may have disconnected
}

// writeError renders err as {"error":{code,message}}. Server-side failures
// are logged; their internal codes never reach the client.
func writeError(ctx context.Context, w http.ResponseWriter, logger *slog.Logger, err error) {
	status := apperr.HTTPStatus(err)
	body := apiError{
		Code:       apperr.CodeOf(err),
		Message:    apperr.Message(err),
		Violations: apperr.Violations(err),
		Reference:  apperr.ChargeID(err),
	}

	if status >= http.StatusInternalServerError {
		level := slog.LevelError
		if status == http.StatusBadGateway {
			level = slog.LevelWarn
		}
		errutil.LogErrorContext(ctx, logger, level, "request failed", err)
		if body.Code != apperr.CodePostPaymentWrite && body.Code != apperr.CodePaymentGateway {
			body.Code = codeInternal
		}
	}

	writeJSON(w, status, errorResponse{Error: body})
}

// decodeJSON reads exactly one JSON object into dst, rejecting unknown
// fields and trailing data.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	if r.Body == nil || r.Body == http.NoBody {
		return apperr.Validation([]string{"request body is required"})
	}
	defer func() { _ = r.Body.Close() }()

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperr.Validation([]string{"request body is too large"})
		}
		return apperr.Validation([]string{"request body is not valid JSON: " + err.Error()})
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return apperr.Validation([]string{"request body must contain a single JSON object"})
	}
	return nil
}
