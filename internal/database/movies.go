// Cinelog - Movie Watch History Ledger
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinelog

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/cinelog/internal/logging"
	"github.com/tomtom215/cinelog/internal/models"
)

// maxSyncAttempts bounds retries of a movie write that lost an optimistic
// concurrency race on a shared person, genre or company row.
const maxSyncAttempts = 3

const movieColumns = `id, tmdb_id, title, original_title, original_language, tagline, overview,
	release_date, runtime, poster_path, imdb_id, tmdb_vote_average, tmdb_vote_count, updated_at_tmdb`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMovie(row rowScanner) (*models.Movie, error) {
	var (
		m                                    models.Movie
		originalTitle, originalLang, tagline sql.NullString
		overview, posterPath, imdbID         sql.NullString
		releaseDate                          sql.NullTime
		runtime, voteCount                   sql.NullInt64
		voteAverage                          sql.NullFloat64
	)
	err := row.Scan(
		&m.ID, &m.TmdbID, &m.Title, &originalTitle, &originalLang, &tagline, &overview,
		&releaseDate, &runtime, &posterPath, &imdbID, &voteAverage, &voteCount, &m.UpdatedAtTmdb,
	)
	if err != nil {
		return nil, err
	}
	m.OriginalTitle = originalTitle.String
	m.OriginalLanguage = originalLang.String
	m.Tagline = tagline.String
	m.Overview = overview.String
	m.ReleaseDate = timePtr(releaseDate)
	m.Runtime = intPtr(runtime)
	m.PosterPath = stringPtr(posterPath)
	m.ImdbID = stringPtr(imdbID)
	m.TmdbVoteAverage = floatPtr(voteAverage)
	m.TmdbVoteCount = intPtr(voteCount)
	return &m, nil
}

// FindMovieByTmdbID returns the local movie for a TMDB id, or nil when the
// movie has never been synchronized.
func (db *DB) FindMovieByTmdbID(ctx context.Context, tmdbID int) (*models.Movie, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	row := db.conn.QueryRowContext(ctx, `SELECT `+movieColumns+` FROM movies WHERE tmdb_id = ?`, tmdbID)
	movie, err := scanMovie(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find movie by tmdb id %d: %w", tmdbID, err)
	}
	return movie, nil
}

// FindMovieByID returns the movie with the given local id or models.ErrNotFound.
func (db *DB) FindMovieByID(ctx context.Context, id int64) (*models.Movie, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	row := db.conn.QueryRowContext(ctx, `SELECT `+movieColumns+` FROM movies WHERE id = ?`, id)
	movie, err := scanMovie(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: movie %d", models.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find movie %d: %w", id, err)
	}
	return movie, nil
}

// InsertMovieIfAbsent is the insert-or-fetch primitive for the shared catalog.
//
// The movie row and all of its genre, cast, crew and company rows are written
// in one transaction guarded by the UNIQUE tmdb_id constraint. When another
// writer has already inserted the same TMDB id (either visible as ON CONFLICT
// DO NOTHING, or as a constraint/commit conflict under DuckDB's optimistic
// concurrency) this transaction is rolled back and the existing row is
// returned with created=false. A duplicate is never created.
func (db *DB) InsertMovieIfAbsent(ctx context.Context, rec *models.MovieRecord) (*models.Movie, bool, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var lastErr error
	for attempt := 1; attempt <= maxSyncAttempts; attempt++ {
		id, err := db.insertMovieTx(ctx, rec)
		if err == nil {
			movie, findErr := db.FindMovieByID(ctx, id)
			return movie, true, findErr
		}

		if !errors.Is(err, errDuplicateSync) && !isConstraintViolation(err) && !isTransactionConflict(err) {
			return nil, false, err
		}

		existing, findErr := db.FindMovieByTmdbID(ctx, rec.Movie.TmdbID)
		if findErr != nil {
			return nil, false, findErr
		}
		if existing != nil {
			logging.Ctx(ctx).Debug().
				Int("tmdb_id", rec.Movie.TmdbID).
				Int64("movie_id", existing.ID).
				Msg("Concurrent sync won the insert, using existing movie")
			return existing, false, nil
		}

		// The conflict was on a shared person/genre/company row, not on the movie.
		lastErr = err
	}
	return nil, false, fmt.Errorf("failed to insert movie %d after %d attempts: %w", rec.Movie.TmdbID, maxSyncAttempts, lastErr)
}

func (db *DB) insertMovieTx(ctx context.Context, rec *models.MovieRecord) (id int64, err error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollbackOnError(tx, &err)

	m := &rec.Movie
	err = tx.QueryRowContext(ctx, `INSERT INTO movies (
			tmdb_id, title, original_title, original_language, tagline, overview,
			release_date, runtime, poster_path, imdb_id, tmdb_vote_average, tmdb_vote_count, updated_at_tmdb
		) VALUES (?, ?, ?, ?, ?, ?, CAST(? AS DATE), ?, ?, ?, ?, ?, ?)
		ON CONFLICT (tmdb_id) DO NOTHING
		RETURNING id`,
		m.TmdbID, m.Title, m.OriginalTitle, m.OriginalLanguage, m.Tagline, m.Overview,
		nullableDate(m.ReleaseDate), nullableInt(m.Runtime), nullableString(m.PosterPath), nullableString(m.ImdbID),
		nullableFloat(m.TmdbVoteAverage), nullableInt(m.TmdbVoteCount), syncTimestamp(m.UpdatedAtTmdb),
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		err = errDuplicateSync
		return 0, err
	}
	if err != nil {
		return 0, fmt.Errorf("failed to insert movie %d: %w", m.TmdbID, err)
	}

	if err = writeMovieRelations(ctx, tx, id, rec); err != nil {
		return 0, err
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit movie %d: %w", m.TmdbID, err)
	}
	return id, nil
}

// UpsertMovie refreshes the catalog fields and relations of an existing movie,
// or inserts it when it is not present yet. The local id never changes.
func (db *DB) UpsertMovie(ctx context.Context, rec *models.MovieRecord) (*models.Movie, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	id, err := db.updateMovieTx(ctx, rec)
	if errors.Is(err, models.ErrNotFound) {
		movie, _, insertErr := db.InsertMovieIfAbsent(ctx, rec)
		return movie, insertErr
	}
	if err != nil {
		return nil, err
	}
	return db.FindMovieByID(ctx, id)
}

func (db *DB) updateMovieTx(ctx context.Context, rec *models.MovieRecord) (id int64, err error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollbackOnError(tx, &err)

	m := &rec.Movie
	err = tx.QueryRowContext(ctx, `SELECT id FROM movies WHERE tmdb_id = ?`, m.TmdbID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		err = fmt.Errorf("%w: movie with tmdb id %d", models.ErrNotFound, m.TmdbID)
		return 0, err
	}
	if err != nil {
		return 0, fmt.Errorf("failed to look up movie %d: %w", m.TmdbID, err)
	}

	_, err = tx.ExecContext(ctx, `UPDATE movies SET
			title = ?, original_title = ?, original_language = ?, tagline = ?, overview = ?,
			release_date = CAST(? AS DATE), runtime = ?, poster_path = ?, imdb_id = ?,
			tmdb_vote_average = ?, tmdb_vote_count = ?, updated_at_tmdb = ?
		WHERE id = ?`,
		m.Title, m.OriginalTitle, m.OriginalLanguage, m.Tagline, m.Overview,
		nullableDate(m.ReleaseDate), nullableInt(m.Runtime), nullableString(m.PosterPath), nullableString(m.ImdbID),
		nullableFloat(m.TmdbVoteAverage), nullableInt(m.TmdbVoteCount), syncTimestamp(m.UpdatedAtTmdb),
		id,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to update movie %d: %w", m.TmdbID, err)
	}

	if err = writeMovieRelations(ctx, tx, id, rec); err != nil {
		return 0, err
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit movie %d: %w", m.TmdbID, err)
	}
	return id, nil
}

// writeMovieRelations replaces the genre, cast, crew and company rows of a
// movie and upserts the referenced entities.
func writeMovieRelations(ctx context.Context, tx *sql.Tx, movieID int64, rec *models.MovieRecord) error {
	for _, table := range []string{"movie_genres", "movie_cast", "movie_crew", "movie_production_companies"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE movie_id = ?`, movieID); err != nil {
			return fmt.Errorf("failed to clear %s for movie %d: %w", table, movieID, err)
		}
	}

	for i, g := range rec.Genres {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO genres (tmdb_id, name) VALUES (?, ?)
			ON CONFLICT (tmdb_id) DO UPDATE SET name = EXCLUDED.name`, g.TmdbID, g.Name); err != nil {
			return fmt.Errorf("failed to upsert genre %d: %w", g.TmdbID, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO movie_genres (movie_id, genre_id, position) VALUES (?, ?, ?)`, movieID, g.TmdbID, i); err != nil {
			return fmt.Errorf("failed to link genre %d: %w", g.TmdbID, err)
		}
	}

	if err := upsertPersons(ctx, tx, rec); err != nil {
		return err
	}

	castStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO movie_cast (movie_id, person_id, character_name, position) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare cast insert: %w", err)
	}
	defer closeWithLog(castStmt, "cast statement")
	for _, c := range rec.Cast {
		if _, err := castStmt.ExecContext(ctx, movieID, c.Person.TmdbID, c.Character, c.Position); err != nil {
			return fmt.Errorf("failed to link cast member %d: %w", c.Person.TmdbID, err)
		}
	}

	crewStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO movie_crew (movie_id, person_id, job, department, position) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare crew insert: %w", err)
	}
	defer closeWithLog(crewStmt, "crew statement")
	for _, c := range rec.Crew {
		if _, err := crewStmt.ExecContext(ctx, movieID, c.Person.TmdbID, c.Job, c.Department, c.Position); err != nil {
			return fmt.Errorf("failed to link crew member %d: %w", c.Person.TmdbID, err)
		}
	}

	for i, c := range rec.Companies {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO companies (tmdb_id, name, origin_country) VALUES (?, ?, ?)
			ON CONFLICT (tmdb_id) DO UPDATE SET name = EXCLUDED.name, origin_country = EXCLUDED.origin_country`,
			c.TmdbID, c.Name, c.OriginCountry); err != nil {
			return fmt.Errorf("failed to upsert company %d: %w", c.TmdbID, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO movie_production_companies (movie_id, company_id, position) VALUES (?, ?, ?)`,
			movieID, c.TmdbID, i); err != nil {
			return fmt.Errorf("failed to link company %d: %w", c.TmdbID, err)
		}
	}

	return nil
}

// upsertPersons writes each distinct cast/crew person once. An actor who also
// directs appears in both lists; the first occurrence wins.
func upsertPersons(ctx context.Context, tx *sql.Tx, rec *models.MovieRecord) error {
	seen := make(map[int]struct{}, len(rec.Cast)+len(rec.Crew))
	persons := make([]models.Person, 0, len(rec.Cast)+len(rec.Crew))
	for _, c := range rec.Cast {
		if _, ok := seen[c.Person.TmdbID]; !ok {
			seen[c.Person.TmdbID] = struct{}{}
			persons = append(persons, c.Person)
		}
	}
	for _, c := range rec.Crew {
		if _, ok := seen[c.Person.TmdbID]; !ok {
			seen[c.Person.TmdbID] = struct{}{}
			persons = append(persons, c.Person)
		}
	}

	for _, p := range persons {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO persons (tmdb_id, name, gender, known_for_department, profile_path) VALUES (?, ?, ?, ?, ?)
			ON CONFLICT (tmdb_id) DO UPDATE SET
				name = EXCLUDED.name,
				gender = EXCLUDED.gender,
				known_for_department = EXCLUDED.known_for_department,
				profile_path = EXCLUDED.profile_path`,
			p.TmdbID, p.Name, p.Gender, p.KnownForDepartment, nullableString(p.ProfilePath)); err != nil {
			return fmt.Errorf("failed to upsert person %d: %w", p.TmdbID, err)
		}
	}
	return nil
}

func syncTimestamp(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t.UTC()
}

// FindMovieCast returns the cast of a movie in billing order.
func (db *DB) FindMovieCast(ctx context.Context, movieID int64) ([]models.CastCredit, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, `SELECT p.tmdb_id, p.name, p.gender, p.known_for_department, p.profile_path,
			c.character_name, c.position
		FROM movie_cast c
		JOIN persons p ON p.tmdb_id = c.person_id
		WHERE c.movie_id = ?
		ORDER BY c.position`, movieID)
	if err != nil {
		return nil, fmt.Errorf("failed to query cast of movie %d: %w", movieID, err)
	}
	defer rows.Close()

	cast := []models.CastCredit{}
	for rows.Next() {
		var (
			c                     models.CastCredit
			gender                sql.NullInt64
			department, character sql.NullString
			profile               sql.NullString
		)
		if err := rows.Scan(&c.Person.TmdbID, &c.Person.Name, &gender, &department, &profile, &character, &c.Position); err != nil {
			return nil, fmt.Errorf("failed to scan cast row: %w", err)
		}
		c.Person.Gender = int(gender.Int64)
		c.Person.KnownForDepartment = department.String
		c.Person.ProfilePath = stringPtr(profile)
		c.Character = character.String
		cast = append(cast, c)
	}
	return cast, rows.Err()
}
