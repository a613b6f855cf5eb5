// Cinelog - Movie Watch History Ledger
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinelog

package services

import (
	"context"
	"time"

	"github.com/tomtom215/cinelog/internal/logging"
)

// Compactor is satisfied by tmdb.ResponseCache.
type Compactor interface {
	Compact() error
}

// CacheCompactionService periodically reclaims space in the TMDB response
// cache. A failed pass is logged and retried on the next tick.
type CacheCompactionService struct {
	cache    Compactor
	interval time.Duration
}

// NewCacheCompactionService creates the service. interval must be positive.
func NewCacheCompactionService(cache Compactor, interval time.Duration) *CacheCompactionService {
	return &CacheCompactionService{cache: cache, interval: interval}
}

// Serve implements suture.Service.
func (s *CacheCompactionService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			start := time.Now()
			if err := s.cache.Compact(); err != nil {
				logging.Warn().Err(err).Msg("TMDB cache compaction failed")
				continue
			}
			logging.Debug().Dur("duration", time.Since(start)).Msg("TMDB cache compacted")
		}
	}
}

func (s *CacheCompactionService) String() string {
	return "tmdb-cache-compaction"
}
