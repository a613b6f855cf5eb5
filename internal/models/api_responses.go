// Cinelog - Movie Watch History Ledger
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinelog

package models

import (
	"time"
)

// APIResponse is the envelope every JSON endpoint returns.
//
// Status is "success" or "error". On error, Data is null and Error is set:
//
//	{
//	  "status": "error",
//	  "data": null,
//	  "metadata": {"timestamp": "2026-01-15T12:00:00Z"},
//	  "error": {"code": "VALIDATION_ERROR", "message": "plays must be at least 1"}
//	}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata carries response timing.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
}

// APIError is a machine-readable error code plus a human message.
//
// Codes used by the API:
//   - VALIDATION_ERROR: malformed body, date, plays or rating
//   - UNAUTHORIZED: the endpoint needs an authenticated identity
//   - FORBIDDEN: the identity may not mutate this ledger
//   - NOT_FOUND: unknown movie or user, or a ledger the viewer may not see
//   - CATALOG_UNAVAILABLE: TMDB unreachable or returned an unusable payload
//   - DATABASE_ERROR / INTERNAL_ERROR: server side failures
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
