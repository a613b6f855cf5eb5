// Cinelog - Movie Watch History Ledger
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinelog

/*
database_schema.go - Table and Index Definitions

Catalog tables (shared by all users):
  - movies: local id from seq_movies_id, tmdb_id UNIQUE (natural dedup key)
  - genres, persons, companies: keyed by their TMDB ids
  - movie_genres, movie_cast, movie_crew, movie_production_companies: link rows,
    replaced wholesale on every sync

Ledger tables (per user):
  - users: unique name, privacy_level (0 private, 1 members, 2 public)
  - movie_user_watch_dates: PRIMARY KEY (movie_id, user_id, watched_at), plays >= 1
  - movie_user_ratings: PRIMARY KEY (movie_id, user_id), rating 1..10

Link tables carry indexes instead of PRIMARY KEYs because DuckDB checks
unique constraints eagerly inside a transaction, which breaks the
delete-then-insert refresh a resync performs.
*/

//nolint:staticcheck // File documentation, not package doc
package database

import (
	"context"
	"fmt"
	"time"
)

// schemaContext returns a context with timeout for schema operations
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// createTables creates sequences and tables
func (db *DB) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, query := range db.getTableCreationQueries() {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %s: %w", query, err)
		}
	}
	return nil
}

func (db *DB) getTableCreationQueries() []string {
	return []string{
		`CREATE SEQUENCE IF NOT EXISTS seq_movies_id START 1;`,
		`CREATE SEQUENCE IF NOT EXISTS seq_users_id START 1;`,

		`CREATE TABLE IF NOT EXISTS movies (
			id BIGINT PRIMARY KEY DEFAULT nextval('seq_movies_id'),
			tmdb_id INTEGER NOT NULL UNIQUE,
			title TEXT NOT NULL,
			original_title TEXT,
			original_language TEXT,
			tagline TEXT,
			overview TEXT,
			release_date DATE,
			runtime INTEGER,
			poster_path TEXT,
			imdb_id TEXT,
			tmdb_vote_average DOUBLE,
			tmdb_vote_count INTEGER,
			updated_at_tmdb TIMESTAMP NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);`,

		`CREATE TABLE IF NOT EXISTS genres (
			tmdb_id INTEGER PRIMARY KEY,
			name TEXT NOT NULL
		);`,

		`CREATE TABLE IF NOT EXISTS persons (
			tmdb_id INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			gender INTEGER,
			known_for_department TEXT,
			profile_path TEXT
		);`,

		`CREATE TABLE IF NOT EXISTS companies (
			tmdb_id INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			origin_country TEXT
		);`,

		`CREATE TABLE IF NOT EXISTS movie_genres (
			movie_id BIGINT NOT NULL,
			genre_id INTEGER NOT NULL,
			position INTEGER NOT NULL
		);`,

		`CREATE TABLE IF NOT EXISTS movie_cast (
			movie_id BIGINT NOT NULL,
			person_id INTEGER NOT NULL,
			character_name TEXT,
			position INTEGER NOT NULL
		);`,

		`CREATE TABLE IF NOT EXISTS movie_crew (
			movie_id BIGINT NOT NULL,
			person_id INTEGER NOT NULL,
			job TEXT,
			department TEXT,
			position INTEGER NOT NULL
		);`,

		`CREATE TABLE IF NOT EXISTS movie_production_companies (
			movie_id BIGINT NOT NULL,
			company_id INTEGER NOT NULL,
			position INTEGER NOT NULL
		);`,

		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY DEFAULT nextval('seq_users_id'),
			name TEXT NOT NULL UNIQUE,
			privacy_level INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);`,

		`CREATE TABLE IF NOT EXISTS movie_user_watch_dates (
			movie_id BIGINT NOT NULL,
			user_id INTEGER NOT NULL,
			watched_at DATE NOT NULL,
			plays INTEGER NOT NULL CHECK (plays >= 1),
			PRIMARY KEY (movie_id, user_id, watched_at)
		);`,

		`CREATE TABLE IF NOT EXISTS movie_user_ratings (
			movie_id BIGINT NOT NULL,
			user_id INTEGER NOT NULL,
			rating INTEGER NOT NULL CHECK (rating BETWEEN 1 AND 10),
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (movie_id, user_id)
		);`,
	}
}

// createIndexes skips index creation when cfg.SkipIndexes is set (fast test setup).
func (db *DB) createIndexes() error {
	if db.cfg != nil && db.cfg.SkipIndexes {
		return nil
	}

	ctx, cancel := schemaContext()
	defer cancel()

	for _, query := range db.getIndexQueries() {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute index query: %s: %w", query, err)
		}
	}
	return nil
}

func (db *DB) getIndexQueries() []string {
	return []string{
		`CREATE INDEX IF NOT EXISTS idx_history_user_date ON movie_user_watch_dates(user_id, watched_at DESC);`,
		`CREATE INDEX IF NOT EXISTS idx_movie_genres_movie ON movie_genres(movie_id);`,
		`CREATE INDEX IF NOT EXISTS idx_movie_cast_movie ON movie_cast(movie_id);`,
		`CREATE INDEX IF NOT EXISTS idx_movie_crew_movie ON movie_crew(movie_id);`,
		`CREATE INDEX IF NOT EXISTS idx_movie_companies_movie ON movie_production_companies(movie_id);`,
	}
}
