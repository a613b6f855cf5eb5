// Cinelog - Movie Watch History Ledger
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinelog

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// CatalogPerson handles GET /api/v1/catalog/people/{id}
func (h *Handler) CatalogPerson(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	person, err := h.svc.Person(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondSuccess(w, r, person)
}

// CatalogCompany handles GET /api/v1/catalog/companies/{id}
func (h *Handler) CatalogCompany(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	company, err := h.svc.Company(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondSuccess(w, r, company)
}

// CatalogWatchProviders handles
// GET /api/v1/catalog/movies/{tmdbId}/watch-providers?country=XX
func (h *Handler) CatalogWatchProviders(w http.ResponseWriter, r *http.Request) {
	tmdbID, ok := intParam(w, r, "tmdbId")
	if !ok {
		return
	}
	providers, err := h.svc.WatchProviders(r.Context(), tmdbID, r.URL.Query().Get("country"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondSuccess(w, r, providers)
}

// CatalogLanguage handles GET /api/v1/catalog/languages/{code}
func (h *Handler) CatalogLanguage(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	name, err := h.svc.LanguageName(r.Context(), code)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondSuccess(w, r, map[string]string{"code": code, "name": name})
}
