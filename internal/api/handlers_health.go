// Cinelog - Movie Watch History Ledger
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinelog

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/cinelog/internal/models"
)

// HealthStatus is the body of the health endpoint.
type HealthStatus struct {
	Status            string  `json:"status"`
	DatabaseConnected bool    `json:"database_connected"`
	CatalogCircuit    string  `json:"catalog_circuit"`
	Uptime            float64 `json:"uptime_seconds"`
}

// Health handles GET /api/v1/health. The database is required; an open
// TMDB circuit degrades the service but logged history stays readable.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := HealthStatus{
		Status:            "healthy",
		DatabaseConnected: h.db.Ping(ctx) == nil,
		CatalogCircuit:    h.breaker.State(),
		Uptime:            time.Since(h.startTime).Seconds(),
	}

	code := http.StatusOK
	switch {
	case !status.DatabaseConnected:
		status.Status = "unhealthy"
		code = http.StatusServiceUnavailable
	case status.CatalogCircuit == "open":
		status.Status = "degraded"
	}

	respondJSON(w, code, &models.APIResponse{
		Status:   "success",
		Data:     status,
		Metadata: metadataFor(r),
	})
}
