// Cinelog - Movie Watch History Ledger
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinelog

package database

import (
	"context"
	"testing"
	"time"

	"github.com/tomtom215/cinelog/internal/config"
	"github.com/tomtom215/cinelog/internal/models"
)

// testDBSemaphore serializes DuckDB usage across tests. DuckDB CGO calls can
// hang when many in-memory databases are active at once under CI pressure, so
// the semaphore is held for the whole test and released in t.Cleanup.
var testDBSemaphore = make(chan struct{}, 1)

// setupTestDB creates an in-memory database that is closed when the test ends.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	testDBSemaphore <- struct{}{}
	t.Cleanup(func() { <-testDBSemaphore })

	cfg := &config.DatabaseConfig{
		Path:      ":memory:",
		MaxMemory: "512MB",
		Threads:   2,
	}

	type result struct {
		db  *DB
		err error
	}
	resultCh := make(chan result, 1)
	go func() {
		db, err := New(cfg)
		resultCh <- result{db: db, err: err}
	}()

	select {
	case res := <-resultCh:
		if res.err != nil {
			t.Fatalf("Failed to create test database: %v", res.err)
		}
		t.Cleanup(func() {
			if err := res.db.Close(); err != nil {
				t.Logf("close test database: %v", err)
			}
		})
		return res.db
	case <-time.After(120 * time.Second):
		t.Fatalf("Timeout: database creation took longer than 120s")
		return nil
	}
}

func date(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func intP(i int) *int { return &i }

func strP(s string) *string { return &s }

// testMovieRecord builds a catalog record shaped like a TMDB movie with credits.
func testMovieRecord(tmdbID int, title string) *models.MovieRecord {
	released := date("1999-03-30")
	return &models.MovieRecord{
		Movie: models.Movie{
			TmdbID:           tmdbID,
			Title:            title,
			OriginalTitle:    title,
			OriginalLanguage: "en",
			Overview:         "overview of " + title,
			ReleaseDate:      &released,
			Runtime:          intP(136),
			PosterPath:       strP("/poster.jpg"),
			UpdatedAtTmdb:    time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
		},
		Genres: []models.Genre{{TmdbID: 28, Name: "Action"}, {TmdbID: 878, Name: "Science Fiction"}},
		Cast: []models.CastCredit{
			{Person: models.Person{TmdbID: 6384, Name: "Keanu Reeves", Gender: 2}, Character: "Neo", Position: 0},
			{Person: models.Person{TmdbID: 2975, Name: "Laurence Fishburne", Gender: 2}, Character: "Morpheus", Position: 1},
		},
		Crew: []models.CrewCredit{
			{Person: models.Person{TmdbID: 9339, Name: "Lana Wachowski"}, Job: "Director", Department: "Directing", Position: 0},
			// Same person as a cast entry, must be written once.
			{Person: models.Person{TmdbID: 6384, Name: "Keanu Reeves", Gender: 2}, Job: "Stunts", Department: "Crew", Position: 1},
		},
		Companies: []models.Company{{TmdbID: 79, Name: "Village Roadshow Pictures", OriginCountry: "US"}},
	}
}

func mustInsertMovie(t *testing.T, db *DB, tmdbID int, title string) *models.Movie {
	t.Helper()
	movie, _, err := db.InsertMovieIfAbsent(context.Background(), testMovieRecord(tmdbID, title))
	if err != nil {
		t.Fatalf("InsertMovieIfAbsent(%d) error = %v", tmdbID, err)
	}
	return movie
}

func mustCreateUser(t *testing.T, db *DB, name string, privacy models.PrivacyLevel) *models.User {
	t.Helper()
	user, err := db.CreateUser(context.Background(), name, privacy)
	if err != nil {
		t.Fatalf("CreateUser(%q) error = %v", name, err)
	}
	return user
}

func TestNew_AppliesMigrations(t *testing.T) {
	db := setupTestDB(t)

	applied, err := db.GetAppliedMigrations(context.Background())
	if err != nil {
		t.Fatalf("GetAppliedMigrations() error = %v", err)
	}
	if len(applied) != len(db.getMigrations()) {
		t.Fatalf("applied %d migrations, want %d", len(applied), len(db.getMigrations()))
	}
	if applied[0].Name != "create_user_view_grants" {
		t.Errorf("first migration = %q", applied[0].Name)
	}

	// Re-running is a no-op.
	if err := db.runVersionedMigrations(); err != nil {
		t.Errorf("second runVersionedMigrations() error = %v", err)
	}
}

func TestPing(t *testing.T) {
	db := setupTestDB(t)
	if err := db.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
}
