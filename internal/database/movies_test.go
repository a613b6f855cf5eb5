// Cinelog - Movie Watch History Ledger
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinelog

package database

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/tomtom215/cinelog/internal/models"
)

func TestFindMovieByTmdbID_Absent(t *testing.T) {
	db := setupTestDB(t)

	movie, err := db.FindMovieByTmdbID(context.Background(), 603)
	if err != nil {
		t.Fatalf("FindMovieByTmdbID() error = %v", err)
	}
	if movie != nil {
		t.Errorf("expected nil for unknown movie, got %+v", movie)
	}
}

func TestFindMovieByID_NotFound(t *testing.T) {
	db := setupTestDB(t)

	_, err := db.FindMovieByID(context.Background(), 42)
	if !errors.Is(err, models.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestInsertMovieIfAbsent(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	first, created, err := db.InsertMovieIfAbsent(ctx, testMovieRecord(603, "The Matrix"))
	if err != nil {
		t.Fatalf("first insert error = %v", err)
	}
	if !created {
		t.Error("first insert should report created=true")
	}
	if first.ID == 0 || first.TmdbID != 603 || first.Title != "The Matrix" {
		t.Errorf("unexpected movie %+v", first)
	}
	if first.ReleaseDate == nil || first.ReleaseDate.Format("2006-01-02") != "1999-03-30" {
		t.Errorf("ReleaseDate = %v", first.ReleaseDate)
	}
	if first.Runtime == nil || *first.Runtime != 136 {
		t.Errorf("Runtime = %v", first.Runtime)
	}

	second, created, err := db.InsertMovieIfAbsent(ctx, testMovieRecord(603, "Different Title"))
	if err != nil {
		t.Fatalf("second insert error = %v", err)
	}
	if created {
		t.Error("second insert should report created=false")
	}
	if second.ID != first.ID {
		t.Errorf("second insert returned id %d, want %d", second.ID, first.ID)
	}
	if second.Title != "The Matrix" {
		t.Errorf("existing row was modified: title %q", second.Title)
	}

	found, err := db.FindMovieByTmdbID(ctx, 603)
	if err != nil || found == nil || found.ID != first.ID {
		t.Fatalf("FindMovieByTmdbID() = %+v, %v", found, err)
	}
}

func TestInsertMovieIfAbsent_Concurrent(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	const workers = 4
	ids := make([]int64, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			movie, _, err := db.InsertMovieIfAbsent(ctx, testMovieRecord(603, "The Matrix"))
			errs[i] = err
			if movie != nil {
				ids[i] = movie.ID
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		if errs[i] != nil {
			t.Fatalf("worker %d error = %v", i, errs[i])
		}
		if ids[i] != ids[0] {
			t.Errorf("worker %d got id %d, worker 0 got %d", i, ids[i], ids[0])
		}
	}

	var count int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM movies WHERE tmdb_id = 603`).Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("movies with tmdb_id 603 = %d, want 1", count)
	}
}

func TestInsertMovieIfAbsent_WritesRelations(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	movie := mustInsertMovie(t, db, 603, "The Matrix")

	cast, err := db.FindMovieCast(ctx, movie.ID)
	if err != nil {
		t.Fatalf("FindMovieCast() error = %v", err)
	}
	if len(cast) != 2 {
		t.Fatalf("cast size = %d, want 2", len(cast))
	}
	if cast[0].Person.Name != "Keanu Reeves" || cast[0].Character != "Neo" {
		t.Errorf("cast[0] = %+v", cast[0])
	}

	var persons, crew, genres, companies int
	checks := []struct {
		query string
		dest  *int
	}{
		{`SELECT COUNT(*) FROM persons`, &persons},
		{`SELECT COUNT(*) FROM movie_crew WHERE movie_id = ?`, &crew},
		{`SELECT COUNT(*) FROM movie_genres WHERE movie_id = ?`, &genres},
		{`SELECT COUNT(*) FROM movie_production_companies WHERE movie_id = ?`, &companies},
	}
	for _, c := range checks {
		var err error
		if c.query == `SELECT COUNT(*) FROM persons` {
			err = db.conn.QueryRowContext(ctx, c.query).Scan(c.dest)
		} else {
			err = db.conn.QueryRowContext(ctx, c.query, movie.ID).Scan(c.dest)
		}
		if err != nil {
			t.Fatalf("%s: %v", c.query, err)
		}
	}

	if persons != 3 {
		t.Errorf("persons = %d, want 3 (actor who is also crew written once)", persons)
	}
	if crew != 2 || genres != 2 || companies != 1 {
		t.Errorf("crew=%d genres=%d companies=%d, want 2/2/1", crew, genres, companies)
	}
}

func TestUpsertMovie_RefreshesKeepingID(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	original := mustInsertMovie(t, db, 603, "The Matrix")

	rec := testMovieRecord(603, "The Matrix (Remastered)")
	rec.Cast = rec.Cast[:1]
	updated, err := db.UpsertMovie(ctx, rec)
	if err != nil {
		t.Fatalf("UpsertMovie() error = %v", err)
	}
	if updated.ID != original.ID {
		t.Errorf("id changed from %d to %d", original.ID, updated.ID)
	}
	if updated.Title != "The Matrix (Remastered)" {
		t.Errorf("title = %q", updated.Title)
	}

	cast, err := db.FindMovieCast(ctx, original.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(cast) != 1 {
		t.Errorf("cast size after resync = %d, want 1", len(cast))
	}
}

func TestUpsertMovie_InsertsWhenAbsent(t *testing.T) {
	db := setupTestDB(t)

	movie, err := db.UpsertMovie(context.Background(), testMovieRecord(550, "Fight Club"))
	if err != nil {
		t.Fatalf("UpsertMovie() error = %v", err)
	}
	if movie.ID == 0 || movie.TmdbID != 550 {
		t.Errorf("unexpected movie %+v", movie)
	}
}
