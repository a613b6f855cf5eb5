// Cinelog - Movie Watch History Ledger
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinelog

package logging

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type contextKey string

const (
	requestIDKey contextKey = "request_id"
	viewerKey    contextKey = "viewer"
)

// GenerateRequestID returns a new random request ID.
func GenerateRequestID() string {
	return uuid.New().String()
}

// ContextWithRequestID stores the HTTP request ID for later log entries.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext returns the stored request ID or "".
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// ContextWithViewer stores a printable viewer identity ("user:12", "anonymous").
func ContextWithViewer(ctx context.Context, viewer string) context.Context {
	return context.WithValue(ctx, viewerKey, viewer)
}

// ViewerFromContext returns the stored viewer identity or "".
func ViewerFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(viewerKey).(string); ok {
		return v
	}
	return ""
}

// Ctx returns the global logger enriched with the request_id and viewer
// fields found in ctx.
//
//	logging.Ctx(ctx).Info().Int("movie_id", id).Msg("History entry replaced")
func Ctx(ctx context.Context) *zerolog.Logger {
	logCtx := Logger().With()
	if ctx != nil {
		if id := RequestIDFromContext(ctx); id != "" {
			logCtx = logCtx.Str("request_id", id)
		}
		if viewer := ViewerFromContext(ctx); viewer != "" {
			logCtx = logCtx.Str("viewer", viewer)
		}
	}
	l := logCtx.Logger()
	return &l
}
