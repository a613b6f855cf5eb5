// Cinelog - Movie Watch History Ledger
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinelog

package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/cinelog/internal/logging"
	"github.com/tomtom215/cinelog/internal/models"
	"github.com/tomtom215/cinelog/internal/validation"
)

// Error codes for API responses
const (
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeTooManyRequests    = "TOO_MANY_REQUESTS"
	ErrCodeCatalogUnavailable = "CATALOG_UNAVAILABLE"
	ErrCodeInternalError      = "INTERNAL_ERROR"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)

// maxBodyBytes bounds decoded request bodies.
const maxBodyBytes = 1 << 20

func respondJSON(w http.ResponseWriter, status int, response *models.APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")

	data, err := json.Marshal(response)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write JSON response")
	}
}

func respondSuccess(w http.ResponseWriter, r *http.Request, data interface{}) {
	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status:   "success",
		Data:     data,
		Metadata: metadataFor(r),
	})
}

func respondNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string, err error) {
	if err != nil {
		logging.Ctx(r.Context()).Error().Str("code", code).Str("error", sanitizeLogValue(err.Error())).Msg("API Error")
	}

	respondJSON(w, status, &models.APIResponse{
		Status:   "error",
		Metadata: metadataFor(r),
		Error:    &models.APIError{Code: code, Message: message},
	})
}

func respondValidationError(w http.ResponseWriter, r *http.Request, verr *validation.RequestValidationError) {
	respondJSON(w, http.StatusBadRequest, &models.APIResponse{
		Status:   "error",
		Metadata: metadataFor(r),
		Error:    verr.ToAPIError(),
	})
}

// respondServiceError maps an error returned by the service layer to a
// status code. A ledger the caller may not see is reported exactly like a
// missing one.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *validation.RequestValidationError
	switch {
	case errors.As(err, &verr):
		respondValidationError(w, r, verr)
	case errors.Is(err, models.ErrValidation):
		respondJSON(w, http.StatusBadRequest, &models.APIResponse{
			Status:   "error",
			Metadata: metadataFor(r),
			Error:    &models.APIError{Code: ErrCodeValidation, Message: err.Error()},
		})
	case errors.Is(err, models.ErrUnauthenticated):
		respondError(w, r, http.StatusUnauthorized, ErrCodeUnauthorized, "Authentication required", nil)
	case errors.Is(err, models.ErrForbidden):
		respondError(w, r, http.StatusForbidden, ErrCodeForbidden, "You may only change your own history", nil)
	case errors.Is(err, models.ErrNotFound), errors.Is(err, models.ErrAuthorizationDenied):
		// Includes a TMDB id that TMDB itself does not know.
		respondError(w, r, http.StatusNotFound, ErrCodeNotFound, "Not found", nil)
	case errors.Is(err, models.ErrSynchronizationFailed), errors.Is(err, models.ErrCatalogUnavailable):
		logging.Ctx(r.Context()).Warn().Err(err).Msg("Catalog request failed")
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeCatalogUnavailable, "The movie catalog is unavailable, try again later", nil)
	case errors.Is(err, context.DeadlineExceeded):
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Request timed out", err)
	default:
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternalError, "Internal server error", err)
	}
}

// decodeBody decodes a JSON request body into dst and validates it.
func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) *validation.RequestValidationError {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return validation.NewFieldError("body", "size", nil, "request body is too large or unreadable")
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return validation.NewFieldError("body", "json", nil, fmt.Sprintf("request body is not valid JSON: %v", err))
	}
	return validation.ValidateStruct(dst)
}

func metadataFor(r *http.Request) models.Metadata {
	md := models.Metadata{Timestamp: time.Now().UTC()}
	if start, ok := r.Context().Value(startTimeKey).(time.Time); ok {
		md.QueryTimeMS = time.Since(start).Milliseconds()
	}
	return md
}

// sanitizeLogValue strips line breaks from values echoed into logs.
func sanitizeLogValue(s string) string {
	return strings.NewReplacer("\n", "\\n", "\r", "\\r").Replace(s)
}
