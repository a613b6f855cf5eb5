// Cinelog - Movie Watch History Ledger
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinelog

package sync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tomtom215/cinelog/internal/config"
	"github.com/tomtom215/cinelog/internal/database"
	"github.com/tomtom215/cinelog/internal/models"
	"github.com/tomtom215/cinelog/internal/tmdb"
)

// fakeCatalog serves canned TMDB movies and counts fetches.
type fakeCatalog struct {
	mu     sync.Mutex
	movies map[int]*tmdb.Movie
	err    error
	calls  int32
}

func (f *fakeCatalog) FetchMovie(ctx context.Context, tmdbID int) (*tmdb.Movie, error) {
	atomic.AddInt32(&f.calls, 1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	m, ok := f.movies[tmdbID]
	if !ok {
		return nil, fmt.Errorf("%w: movie %d", models.ErrNotFound, tmdbID)
	}
	cp := *m
	return &cp, nil
}

func (f *fakeCatalog) setTitle(tmdbID int, title string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.movies[tmdbID].Title = title
}

func matrix() *tmdb.Movie {
	poster := "/poster.jpg"
	runtime := 136
	return &tmdb.Movie{
		ID:               603,
		Title:            "The Matrix",
		OriginalTitle:    "The Matrix",
		OriginalLanguage: "en",
		ReleaseDate:      tmdb.Date{Time: time.Date(1999, 3, 30, 0, 0, 0, 0, time.UTC)},
		Runtime:          &runtime,
		PosterPath:       &poster,
		Genres:           []tmdb.Genre{{ID: 28, Name: "Action"}},
		Credits: tmdb.Credits{
			Cast: []tmdb.CastMember{
				{ID: 6384, Name: "Keanu Reeves", Character: "Neo"},
				{ID: 2975, Name: "Laurence Fishburne", Character: "Morpheus"},
			},
			Crew: []tmdb.CrewMember{{ID: 9339, Name: "Lana Wachowski", Job: "Director", Department: "Directing"}},
		},
		ProductionCompanies: []tmdb.ProductionCompany{{ID: 79, Name: "Village Roadshow Pictures"}},
	}
}

func setupSync(t *testing.T) (*Synchronizer, *fakeCatalog, *database.DB) {
	t.Helper()
	db, err := database.New(&config.DatabaseConfig{Path: ":memory:", MaxMemory: "512MB", Threads: 2, SkipIndexes: true})
	if err != nil {
		t.Fatalf("database.New() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	catalog := &fakeCatalog{movies: map[int]*tmdb.Movie{603: matrix()}}
	return NewSynchronizer(db, catalog), catalog, db
}

func TestResolveOrSync_FetchesOnce(t *testing.T) {
	s, catalog, db := setupSync(t)
	ctx := context.Background()

	first, err := s.ResolveOrSync(ctx, 603)
	if err != nil {
		t.Fatalf("ResolveOrSync() error = %v", err)
	}
	if first.TmdbID != 603 || first.Title != "The Matrix" {
		t.Errorf("movie = %+v", first)
	}

	second, err := s.ResolveOrSync(ctx, 603)
	if err != nil {
		t.Fatal(err)
	}
	if second.ID != first.ID {
		t.Errorf("second resolve id = %d, want %d", second.ID, first.ID)
	}
	if n := atomic.LoadInt32(&catalog.calls); n != 1 {
		t.Errorf("TMDB fetched %d times, want 1", n)
	}

	cast, err := db.FindMovieCast(ctx, first.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(cast) != 2 || cast[0].Character != "Neo" {
		t.Errorf("cast = %+v", cast)
	}
}

func TestResolveOrSync_CatalogFailure(t *testing.T) {
	s, catalog, db := setupSync(t)
	ctx := context.Background()
	catalog.err = fmt.Errorf("%w: connection refused", models.ErrCatalogUnavailable)

	_, err := s.ResolveOrSync(ctx, 603)
	if !errors.Is(err, models.ErrSynchronizationFailed) {
		t.Fatalf("error = %v, want ErrSynchronizationFailed", err)
	}

	movie, err := db.FindMovieByTmdbID(ctx, 603)
	if err != nil {
		t.Fatal(err)
	}
	if movie != nil {
		t.Errorf("failed sync stored %+v", movie)
	}
}

func TestResolveOrSync_UnknownMovie(t *testing.T) {
	s, _, _ := setupSync(t)

	_, err := s.ResolveOrSync(context.Background(), 1)
	if !errors.Is(err, models.ErrSynchronizationFailed) {
		t.Errorf("error = %v, want ErrSynchronizationFailed", err)
	}
}

func TestResolveOrSync_InvalidID(t *testing.T) {
	s, catalog, _ := setupSync(t)

	for _, id := range []int{0, -603} {
		if _, err := s.ResolveOrSync(context.Background(), id); !errors.Is(err, models.ErrValidation) {
			t.Errorf("ResolveOrSync(%d) error = %v, want ErrValidation", id, err)
		}
	}
	if n := atomic.LoadInt32(&catalog.calls); n != 0 {
		t.Errorf("invalid ids reached TMDB %d times", n)
	}
}

func TestResolveOrSync_Concurrent(t *testing.T) {
	s, _, _ := setupSync(t)
	ctx := context.Background()

	const workers = 6
	ids := make([]int64, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m, err := s.ResolveOrSync(ctx, 603)
			errs[i] = err
			if m != nil {
				ids[i] = m.ID
			}
		}(i)
	}
	wg.Wait()

	for i := range ids {
		if errs[i] != nil {
			t.Fatalf("worker %d error = %v", i, errs[i])
		}
		if ids[i] != ids[0] {
			t.Errorf("worker %d got id %d, worker 0 got %d", i, ids[i], ids[0])
		}
	}
}

func TestResync_KeepsLocalID(t *testing.T) {
	s, catalog, _ := setupSync(t)
	ctx := context.Background()

	original, err := s.ResolveOrSync(ctx, 603)
	if err != nil {
		t.Fatal(err)
	}

	catalog.setTitle(603, "The Matrix (4K)")
	refreshed, err := s.Resync(ctx, 603)
	if err != nil {
		t.Fatalf("Resync() error = %v", err)
	}
	if refreshed.ID != original.ID {
		t.Errorf("id changed from %d to %d", original.ID, refreshed.ID)
	}
	if refreshed.Title != "The Matrix (4K)" {
		t.Errorf("title = %q", refreshed.Title)
	}

	catalog.err = errors.New("boom")
	if _, err := s.Resync(ctx, 603); !errors.Is(err, models.ErrSynchronizationFailed) {
		t.Errorf("error = %v, want ErrSynchronizationFailed", err)
	}
}

func TestToMovieRecord(t *testing.T) {
	blank := ""
	zero := 0
	m := matrix()
	m.PosterPath = &blank
	m.Runtime = &zero
	m.ReleaseDate = tmdb.Date{}
	fetched := time.Date(2024, 1, 15, 10, 0, 0, 0, time.FixedZone("CET", 3600))

	rec := toMovieRecord(m, fetched)

	if rec.Movie.PosterPath != nil || rec.Movie.Runtime != nil || rec.Movie.ReleaseDate != nil {
		t.Errorf("placeholders not mapped to nil: %+v", rec.Movie)
	}
	if !rec.Movie.UpdatedAtTmdb.Equal(fetched) || rec.Movie.UpdatedAtTmdb.Location() != time.UTC {
		t.Errorf("UpdatedAtTmdb = %v", rec.Movie.UpdatedAtTmdb)
	}
	if len(rec.Cast) != 2 || rec.Cast[1].Position != 1 || rec.Cast[1].Person.TmdbID != 2975 {
		t.Errorf("cast = %+v", rec.Cast)
	}
	if len(rec.Crew) != 1 || rec.Crew[0].Job != "Director" {
		t.Errorf("crew = %+v", rec.Crew)
	}
	if len(rec.Genres) != 1 || len(rec.Companies) != 1 {
		t.Errorf("genres=%d companies=%d", len(rec.Genres), len(rec.Companies))
	}
}
