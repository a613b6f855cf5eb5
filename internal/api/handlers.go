// Cinelog - Movie Watch History Ledger
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinelog

package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/cinelog/internal/auth"
	"github.com/tomtom215/cinelog/internal/history"
	"github.com/tomtom215/cinelog/internal/models"
	"github.com/tomtom215/cinelog/internal/validation"
)

// Pinger reports whether the database answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

// BreakerStater reports the TMDB circuit breaker state.
type BreakerStater interface {
	State() string
}

// Handler serves the ledger API.
type Handler struct {
	svc       *history.Service
	db        Pinger
	breaker   BreakerStater
	startTime time.Time
}

// NewHandler creates the handler set.
func NewHandler(svc *history.Service, db Pinger, breaker BreakerStater) *Handler {
	return &Handler{svc: svc, db: db, breaker: breaker, startTime: time.Now()}
}

// HistoryPage handles GET /api/v1/users/{username}/history?s=&p=
func (h *Handler) HistoryPage(w http.ResponseWriter, r *http.Request) {
	page := 1
	if raw := r.URL.Query().Get("p"); raw != "" {
		p, err := strconv.Atoi(raw)
		if err != nil {
			respondValidationError(w, r, validation.NewFieldError("p", "numeric", raw, "p must be a page number"))
			return
		}
		page = p
	}

	result, err := h.svc.ViewHistory(r.Context(), auth.IdentityFromContext(r.Context()),
		chi.URLParam(r, "username"), r.URL.Query().Get("s"), page)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondSuccess(w, r, result)
}

// MovieHistory handles GET /api/v1/users/{username}/movies/{id}/history
func (h *Handler) MovieHistory(w http.ResponseWriter, r *http.Request) {
	movieID, ok := movieIDParam(w, r)
	if !ok {
		return
	}

	result, err := h.svc.MovieHistory(r.Context(), auth.IdentityFromContext(r.Context()), chi.URLParam(r, "username"), movieID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondSuccess(w, r, result)
}

// ReplaceHistory handles POST /api/v1/users/{username}/movies/{id}/history.
// The body's plays become the total for that date.
func (h *Handler) ReplaceHistory(w http.ResponseWriter, r *http.Request) {
	h.mutateEntry(w, r, h.svc.ReplaceEntry)
}

// IncreaseHistory handles PATCH /api/v1/users/{username}/movies/{id}/history.
// The body's plays are added to that date.
func (h *Handler) IncreaseHistory(w http.ResponseWriter, r *http.Request) {
	h.mutateEntry(w, r, h.svc.IncreaseEntry)
}

type entryMutation func(ctx context.Context, viewer models.Identity, username string, movieID int64, watchedAt time.Time, plays int) error

func (h *Handler) mutateEntry(w http.ResponseWriter, r *http.Request, mutate entryMutation) {
	movieID, ok := movieIDParam(w, r)
	if !ok || !h.requireOwner(w, r) {
		return
	}

	var req validation.HistoryEntryRequest
	if verr := decodeBody(w, r, &req); verr != nil {
		respondValidationError(w, r, verr)
		return
	}
	watchedAt, verr := req.Date()
	if verr != nil {
		respondValidationError(w, r, verr)
		return
	}

	err := mutate(r.Context(), auth.IdentityFromContext(r.Context()), chi.URLParam(r, "username"), movieID, watchedAt, req.Plays)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondNoContent(w)
}

// DeleteHistory handles DELETE /api/v1/users/{username}/movies/{id}/history
func (h *Handler) DeleteHistory(w http.ResponseWriter, r *http.Request) {
	movieID, ok := movieIDParam(w, r)
	if !ok || !h.requireOwner(w, r) {
		return
	}

	var req validation.DeleteHistoryRequest
	if verr := decodeBody(w, r, &req); verr != nil {
		respondValidationError(w, r, verr)
		return
	}
	watchedAt, verr := req.ParsedDate()
	if verr != nil {
		respondValidationError(w, r, verr)
		return
	}

	if err := h.svc.DeleteEntry(r.Context(), auth.IdentityFromContext(r.Context()), chi.URLParam(r, "username"), movieID, watchedAt); err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondNoContent(w)
}

// requireOwner rejects callers other than the ledger owner before the body
// is decoded, so they never learn whether their payload was valid.
func (h *Handler) requireOwner(w http.ResponseWriter, r *http.Request) bool {
	if err := h.svc.AuthorizeOwner(r.Context(), auth.IdentityFromContext(r.Context()), chi.URLParam(r, "username")); err != nil {
		respondServiceError(w, r, err)
		return false
	}
	return true
}

// LogMovie handles POST /api/v1/log-movie
func (h *Handler) LogMovie(w http.ResponseWriter, r *http.Request) {
	viewer := auth.IdentityFromContext(r.Context())
	if viewer.IsAnonymous() {
		respondServiceError(w, r, models.ErrUnauthenticated)
		return
	}

	var req validation.LogMovieRequest
	if verr := decodeBody(w, r, &req); verr != nil {
		respondValidationError(w, r, verr)
		return
	}
	watchedAt, verr := req.Date()
	if verr != nil {
		respondValidationError(w, r, verr)
		return
	}

	result, err := h.svc.LogMovie(r.Context(), viewer, req.TmdbID, watchedAt, req.Rating())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondSuccess(w, r, result)
}

// SearchLogCandidates handles GET /api/v1/log-movie?s=
func (h *Handler) SearchLogCandidates(w http.ResponseWriter, r *http.Request) {
	results, err := h.svc.SearchCatalog(r.Context(), auth.IdentityFromContext(r.Context()), r.URL.Query().Get("s"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondSuccess(w, r, map[string]interface{}{
		"movies":     results,
		"searchTerm": strings.TrimSpace(r.URL.Query().Get("s")),
	})
}

// ResyncMovie handles POST /api/v1/movies/{tmdbId}/sync
func (h *Handler) ResyncMovie(w http.ResponseWriter, r *http.Request) {
	tmdbID, ok := intParam(w, r, "tmdbId")
	if !ok {
		return
	}

	movie, err := h.svc.ResyncMovie(r.Context(), auth.IdentityFromContext(r.Context()), tmdbID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondSuccess(w, r, movie)
}

func movieIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		respondValidationError(w, r, validation.NewFieldError("id", "numeric", raw, "movie id must be a positive integer"))
		return 0, false
	}
	return id, true
}

func intParam(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	raw := chi.URLParam(r, name)
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		respondValidationError(w, r, validation.NewFieldError(name, "numeric", raw, name+" must be a positive integer"))
		return 0, false
	}
	return v, true
}
