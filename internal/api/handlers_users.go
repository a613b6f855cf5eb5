// Cinelog - Movie Watch History Ledger
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinelog

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/cinelog/internal/auth"
	"github.com/tomtom215/cinelog/internal/validation"
)

// VisibleUsers handles GET /api/v1/users
func (h *Handler) VisibleUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.ListVisibleUsers(r.Context(), auth.IdentityFromContext(r.Context()))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondSuccess(w, r, map[string]interface{}{"users": users})
}

// SetPrivacy handles PUT /api/v1/users/{username}/privacy
func (h *Handler) SetPrivacy(w http.ResponseWriter, r *http.Request) {
	var req validation.PrivacyRequest
	if verr := decodeBody(w, r, &req); verr != nil {
		respondValidationError(w, r, verr)
		return
	}

	err := h.svc.SetPrivacy(r.Context(), auth.IdentityFromContext(r.Context()), chi.URLParam(r, "username"), req.Level())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondNoContent(w)
}

// GrantViewer handles PUT /api/v1/users/{username}/viewers/{viewer}
func (h *Handler) GrantViewer(w http.ResponseWriter, r *http.Request) {
	err := h.svc.GrantViewer(r.Context(), auth.IdentityFromContext(r.Context()),
		chi.URLParam(r, "username"), chi.URLParam(r, "viewer"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondNoContent(w)
}

// RevokeViewer handles DELETE /api/v1/users/{username}/viewers/{viewer}
func (h *Handler) RevokeViewer(w http.ResponseWriter, r *http.Request) {
	err := h.svc.RevokeViewer(r.Context(), auth.IdentityFromContext(r.Context()),
		chi.URLParam(r, "username"), chi.URLParam(r, "viewer"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondNoContent(w)
}
