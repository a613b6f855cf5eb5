// Cinelog - Movie Watch History Ledger
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinelog

package auth

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/tomtom215/cinelog/internal/logging"
	"github.com/tomtom215/cinelog/internal/models"
)

type contextKey string

const identityContextKey contextKey = "identity"

// ContextWithIdentity stores the caller identity.
func ContextWithIdentity(ctx context.Context, id models.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, id)
}

// IdentityFromContext returns the caller identity, Anonymous when none was set.
func IdentityFromContext(ctx context.Context) models.Identity {
	if id, ok := ctx.Value(identityContextKey).(models.Identity); ok {
		return id
	}
	return models.Anonymous
}

// Middleware resolves the bearer token of each request into an Identity.
type Middleware struct {
	jwtManager *JWTManager
	onInvalid  http.HandlerFunc
}

// NewMiddleware creates the middleware. onInvalid writes the response for a
// request that carries a token which does not verify.
func NewMiddleware(jwtManager *JWTManager, onInvalid http.HandlerFunc) *Middleware {
	if onInvalid == nil {
		onInvalid = func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "Unauthorized: invalid token", http.StatusUnauthorized)
		}
	}
	return &Middleware{jwtManager: jwtManager, onInvalid: onInvalid}
}

// Identify attaches the caller identity to the request context. Requests
// without an Authorization header continue as anonymous; a header that does
// not hold a valid bearer token is rejected.
func (m *Middleware) Identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			ctx := ContextWithIdentity(r.Context(), models.Anonymous)
			ctx = logging.ContextWithViewer(ctx, "anonymous")
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		token, ok := bearerToken(header)
		if !ok {
			m.onInvalid(w, r)
			return
		}

		userID, err := m.jwtManager.ValidateToken(token)
		if err != nil {
			logging.Ctx(r.Context()).Warn().Err(err).Msg("Token validation failed")
			m.onInvalid(w, r)
			return
		}

		id := models.Identity{UserID: userID}
		ctx := ContextWithIdentity(r.Context(), id)
		ctx = logging.ContextWithViewer(ctx, "user:"+strconv.Itoa(userID))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}
