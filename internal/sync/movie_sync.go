// Cinelog - Movie Watch History Ledger
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinelog

package sync

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/tomtom215/cinelog/internal/logging"
	"github.com/tomtom215/cinelog/internal/metrics"
	"github.com/tomtom215/cinelog/internal/models"
	"github.com/tomtom215/cinelog/internal/tmdb"
)

// MovieCatalog fetches movie details with credits from TMDB.
type MovieCatalog interface {
	FetchMovie(ctx context.Context, tmdbID int) (*tmdb.Movie, error)
}

// MovieStore is the catalog part of the database layer.
type MovieStore interface {
	FindMovieByTmdbID(ctx context.Context, tmdbID int) (*models.Movie, error)
	InsertMovieIfAbsent(ctx context.Context, rec *models.MovieRecord) (*models.Movie, bool, error)
	UpsertMovie(ctx context.Context, rec *models.MovieRecord) (*models.Movie, error)
}

// Synchronizer resolves TMDB ids to local movies.
type Synchronizer struct {
	store   MovieStore
	catalog MovieCatalog
	group   singleflight.Group
	now     func() time.Time
}

// NewSynchronizer creates a synchronizer.
func NewSynchronizer(store MovieStore, catalog MovieCatalog) *Synchronizer {
	return &Synchronizer{store: store, catalog: catalog, now: time.Now}
}

// ResolveOrSync returns the local movie for tmdbID, creating it from TMDB
// when it is not stored yet. A stored movie is returned unchanged and TMDB
// is not contacted.
func (s *Synchronizer) ResolveOrSync(ctx context.Context, tmdbID int) (*models.Movie, error) {
	if tmdbID <= 0 {
		return nil, fmt.Errorf("%w: tmdb id must be positive", models.ErrValidation)
	}

	movie, err := s.store.FindMovieByTmdbID(ctx, tmdbID)
	if err != nil {
		return nil, err
	}
	if movie != nil {
		metrics.MovieSyncs.WithLabelValues("local_hit").Inc()
		return movie, nil
	}

	v, err, shared := s.group.Do(strconv.Itoa(tmdbID), func() (interface{}, error) {
		return s.syncNew(ctx, tmdbID)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		logging.Ctx(ctx).Debug().Int("tmdb_id", tmdbID).Msg("Joined in-flight movie sync")
	}
	return v.(*models.Movie), nil
}

func (s *Synchronizer) syncNew(ctx context.Context, tmdbID int) (*models.Movie, error) {
	remote, err := s.fetch(ctx, tmdbID)
	if err != nil {
		return nil, err
	}

	movie, created, err := s.store.InsertMovieIfAbsent(ctx, toMovieRecord(remote, s.now()))
	if err != nil {
		metrics.MovieSyncs.WithLabelValues("failed").Inc()
		return nil, err
	}

	if created {
		metrics.MovieSyncs.WithLabelValues("created").Inc()
		logging.Ctx(ctx).Info().
			Int("tmdb_id", tmdbID).
			Int64("movie_id", movie.ID).
			Str("title", movie.Title).
			Int("cast", len(remote.Credits.Cast)).
			Int("crew", len(remote.Credits.Crew)).
			Msg("Synchronized movie from TMDB")
	} else {
		metrics.MovieSyncs.WithLabelValues("concurrent").Inc()
		logging.Ctx(ctx).Debug().Int("tmdb_id", tmdbID).Msg("Movie was inserted by a concurrent sync")
	}
	return movie, nil
}

// Resync refreshes the catalog fields, genres, credits and companies of a
// movie from TMDB, inserting it when absent. The local id never changes.
func (s *Synchronizer) Resync(ctx context.Context, tmdbID int) (*models.Movie, error) {
	if tmdbID <= 0 {
		return nil, fmt.Errorf("%w: tmdb id must be positive", models.ErrValidation)
	}

	remote, err := s.fetch(ctx, tmdbID)
	if err != nil {
		return nil, err
	}

	movie, err := s.store.UpsertMovie(ctx, toMovieRecord(remote, s.now()))
	if err != nil {
		metrics.MovieSyncs.WithLabelValues("failed").Inc()
		return nil, err
	}
	metrics.MovieSyncs.WithLabelValues("resynced").Inc()
	logging.Ctx(ctx).Info().Int("tmdb_id", tmdbID).Int64("movie_id", movie.ID).Msg("Resynchronized movie from TMDB")
	return movie, nil
}

func (s *Synchronizer) fetch(ctx context.Context, tmdbID int) (*tmdb.Movie, error) {
	remote, err := s.catalog.FetchMovie(ctx, tmdbID)
	if err != nil {
		metrics.MovieSyncs.WithLabelValues("failed").Inc()
		logging.Ctx(ctx).Warn().Err(err).Int("tmdb_id", tmdbID).Msg("TMDB movie fetch failed")
		return nil, fmt.Errorf("%w: tmdb movie %d: %w", models.ErrSynchronizationFailed, tmdbID, err)
	}
	if remote.ID != tmdbID {
		metrics.MovieSyncs.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("%w: tmdb returned movie %d for id %d", models.ErrSynchronizationFailed, remote.ID, tmdbID)
	}
	return remote, nil
}
