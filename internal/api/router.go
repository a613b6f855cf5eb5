// Cinelog - Movie Watch History Ledger
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinelog

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/cinelog/internal/auth"
	"github.com/tomtom215/cinelog/internal/middleware"
)

type contextKey string

const startTimeKey contextKey = "start_time"

// requestTimer records when the request entered the router so responses can
// report their query time.
func requestTimer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), startTimeKey, time.Now())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Router wires handlers to routes.
type Router struct {
	handler       *Handler
	jwt           *auth.JWTManager
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a router. Requests with a malformed or expired bearer
// token are rejected; requests without one are served as anonymous.
func NewRouter(handler *Handler, jwt *auth.JWTManager, chiCfg *ChiMiddlewareConfig) *Router {
	return &Router{
		handler:       handler,
		jwt:           jwt,
		chiMiddleware: NewChiMiddleware(chiCfg),
	}
}

// Setup builds the HTTP handler tree.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	identify := auth.NewMiddleware(router.jwt, func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusUnauthorized, ErrCodeUnauthorized, "Invalid or expired token", nil)
	})

	r.Use(requestTimer)
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS())

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(APISecurityHeaders())
		r.Use(middleware.PrometheusMetrics)

		r.Get("/health", router.handler.Health)

		r.Group(func(r chi.Router) {
			r.Use(router.chiMiddleware.RateLimit())
			r.Use(identify.Identify)

			r.Get("/users", router.handler.VisibleUsers)
			r.Route("/users/{username}", func(r chi.Router) {
				r.Get("/history", router.handler.HistoryPage)
				r.Put("/privacy", router.handler.SetPrivacy)
				r.Put("/viewers/{viewer}", router.handler.GrantViewer)
				r.Delete("/viewers/{viewer}", router.handler.RevokeViewer)

				r.Route("/movies/{id}/history", func(r chi.Router) {
					r.Get("/", router.handler.MovieHistory)
					r.Post("/", router.handler.ReplaceHistory)
					r.Patch("/", router.handler.IncreaseHistory)
					r.Delete("/", router.handler.DeleteHistory)
				})
			})

			r.Route("/catalog", func(r chi.Router) {
				r.Get("/people/{id}", router.handler.CatalogPerson)
				r.Get("/companies/{id}", router.handler.CatalogCompany)
				r.Get("/movies/{tmdbId}/watch-providers", router.handler.CatalogWatchProviders)
				r.Get("/languages/{code}", router.handler.CatalogLanguage)
			})

			// Each of these may call TMDB.
			r.Group(func(r chi.Router) {
				r.Use(router.chiMiddleware.RateLimitCustom(RateLimitSync))
				r.Post("/log-movie", router.handler.LogMovie)
				r.Get("/log-movie", router.handler.SearchLogCandidates)
				r.Post("/movies/{tmdbId}/sync", router.handler.ResyncMovie)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusNotFound, ErrCodeNotFound, "Not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
	})

	return r
}
