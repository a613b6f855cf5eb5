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
	"strings"
	"time"

	"github.com/tomtom215/cinelog/internal/metrics"
	"github.com/tomtom215/cinelog/internal/models"
)

// HistoryFilter selects ledger rows of one user. The paginated fetch and the
// count share buildWhereClause so they can never disagree.
type HistoryFilter struct {
	UserID     int
	SearchTerm string
}

// buildWhereClause builds the WHERE clause and args for ledger queries.
// Aliases: h = movie_user_watch_dates, m = movies.
func (filter HistoryFilter) buildWhereClause() (string, []interface{}) {
	conditions := []string{"h.user_id = ?"}
	args := []interface{}{filter.UserID}

	if term := strings.TrimSpace(filter.SearchTerm); term != "" {
		conditions = append(conditions, "contains(lower(m.title), lower(?))")
		args = append(args, term)
	}

	return " WHERE " + strings.Join(conditions, " AND "), args
}

// ReplaceHistoryForMovieByDate sets the plays of one (movie, user, date) entry
// to exactly plays, creating the entry when absent. plays must lie in
// [1, models.MaxPlays]; removing an entry goes through DeleteHistoryByIDAndDate.
func (db *DB) ReplaceHistoryForMovieByDate(ctx context.Context, movieID int64, userID int, watchedAt time.Time, plays int) error {
	if plays < 1 || plays > models.MaxPlays {
		return models.ErrInvalidPlays
	}

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	_, err := db.conn.ExecContext(ctx, `INSERT INTO movie_user_watch_dates (movie_id, user_id, watched_at, plays)
		VALUES (?, ?, CAST(? AS DATE), ?)
		ON CONFLICT (movie_id, user_id, watched_at) DO UPDATE SET plays = EXCLUDED.plays`,
		movieID, userID, dateOnly(watchedAt), plays)
	if err != nil {
		return fmt.Errorf("failed to replace history of movie %d for user %d: %w", movieID, userID, err)
	}
	return nil
}

// IncreaseHistoryPlaysForMovieOnDate adds delta plays to an entry, creating it
// with plays = delta when the date has no entry yet. An increase that would
// push the entry past models.MaxPlays is rejected and leaves it unchanged.
func (db *DB) IncreaseHistoryPlaysForMovieOnDate(ctx context.Context, movieID int64, userID int, watchedAt time.Time, delta int) (err error) {
	if delta < 1 || delta > models.MaxPlays {
		return models.ErrInvalidPlays
	}

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollbackOnError(tx, &err)

	var current int
	err = tx.QueryRowContext(ctx, `SELECT plays FROM movie_user_watch_dates
		WHERE movie_id = ? AND user_id = ? AND watched_at = CAST(? AS DATE)`,
		movieID, userID, dateOnly(watchedAt)).Scan(&current)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to read history of movie %d for user %d: %w", movieID, userID, err)
	}
	if current > models.MaxPlays-delta {
		return models.ErrInvalidPlays
	}

	if _, err = tx.ExecContext(ctx, `INSERT INTO movie_user_watch_dates (movie_id, user_id, watched_at, plays)
		VALUES (?, ?, CAST(? AS DATE), ?)
		ON CONFLICT (movie_id, user_id, watched_at) DO UPDATE SET plays = EXCLUDED.plays`,
		movieID, userID, dateOnly(watchedAt), current+delta); err != nil {
		return fmt.Errorf("failed to increase history of movie %d for user %d: %w", movieID, userID, err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit history increase: %w", err)
	}
	return nil
}

// LogWatch records a watch from the log-movie flow and stores the personal
// rating, nil clearing it. A new date gets one play; an already logged date
// keeps its plays, so resubmitting the same log does not inflate the count.
// Rating and date are written in one transaction.
func (db *DB) LogWatch(ctx context.Context, movieID int64, userID int, watchedAt time.Time, rating *int) (created bool, err error) {
	if rating != nil && (*rating < models.MinRating || *rating > models.MaxRating) {
		return false, models.ErrInvalidRating
	}

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollbackOnError(tx, &err)

	if err = setRating(ctx, tx, movieID, userID, rating); err != nil {
		return false, err
	}
	if created, err = logHistory(ctx, tx, movieID, userID, watchedAt); err != nil {
		return false, err
	}
	if err = tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit logged watch: %w", err)
	}
	return created, nil
}

func logHistory(ctx context.Context, exec execer, movieID int64, userID int, watchedAt time.Time) (bool, error) {
	result, err := exec.ExecContext(ctx, `INSERT INTO movie_user_watch_dates (movie_id, user_id, watched_at, plays)
		VALUES (?, ?, CAST(? AS DATE), 1)
		ON CONFLICT (movie_id, user_id, watched_at) DO NOTHING`,
		movieID, userID, dateOnly(watchedAt))
	if err != nil {
		return false, fmt.Errorf("failed to log history of movie %d for user %d: %w", movieID, userID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return affected > 0, nil
}

// DeleteHistoryByIDAndDate removes the entry for exactly that date. Deleting
// an absent entry is not an error.
func (db *DB) DeleteHistoryByIDAndDate(ctx context.Context, movieID int64, userID int, watchedAt time.Time) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	_, err := db.conn.ExecContext(ctx,
		`DELETE FROM movie_user_watch_dates WHERE movie_id = ? AND user_id = ? AND watched_at = CAST(? AS DATE)`,
		movieID, userID, dateOnly(watchedAt))
	if err != nil {
		return fmt.Errorf("failed to delete history of movie %d for user %d: %w", movieID, userID, err)
	}
	return nil
}

// maxHistoryOffset bounds the OFFSET sent to DuckDB, which rejects values of
// 2^62 and above. No ledger comes close to this many rows.
const maxHistoryOffset = 1 << 40

// FetchHistoryPaginated returns one page of a user's ledger, newest watch
// date first and title as tie-breaker. A page beyond the last one yields an
// empty slice, however large the page number.
func (db *DB) FetchHistoryPaginated(ctx context.Context, filter HistoryFilter, pageSize, page int) (entries []models.HistoryEntry, err error) {
	if pageSize < 1 {
		return []models.HistoryEntry{}, nil
	}
	if page < 1 {
		page = 1
	}
	if page-1 > maxHistoryOffset/pageSize {
		return []models.HistoryEntry{}, nil
	}

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	defer func() { metrics.RecordDBQuery("fetch_history_page", time.Since(start), err) }()

	whereClause, args := filter.buildWhereClause()
	query := `SELECT m.id, m.tmdb_id, m.title, m.poster_path, m.release_date, h.watched_at, h.plays, r.rating
		FROM movie_user_watch_dates h
		JOIN movies m ON m.id = h.movie_id
		LEFT JOIN movie_user_ratings r ON r.movie_id = h.movie_id AND r.user_id = h.user_id` +
		whereClause +
		` ORDER BY h.watched_at DESC, m.title ASC, m.id ASC LIMIT ? OFFSET ?`
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch history of user %d: %w", filter.UserID, err)
	}
	defer rows.Close()

	entries = []models.HistoryEntry{}
	for rows.Next() {
		var (
			e           models.HistoryEntry
			posterPath  sql.NullString
			releaseDate sql.NullTime
			rating      sql.NullInt64
		)
		if err := rows.Scan(&e.MovieID, &e.TmdbID, &e.Title, &posterPath, &releaseDate, &e.WatchedAt, &e.Plays, &rating); err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		e.PosterPath = stringPtr(posterPath)
		e.ReleaseDate = timePtr(releaseDate)
		e.PersonalRating = intPtr(rating)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating history entries: %w", err)
	}
	return entries, nil
}

// FetchHistoryCount returns the number of ledger rows FetchHistoryPaginated
// would page through for the same filter.
func (db *DB) FetchHistoryCount(ctx context.Context, filter HistoryFilter) (count int, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	defer func() { metrics.RecordDBQuery("fetch_history_count", time.Since(start), err) }()

	whereClause, args := filter.buildWhereClause()
	query := `SELECT COUNT(*)
		FROM movie_user_watch_dates h
		JOIN movies m ON m.id = h.movie_id` + whereClause

	if err := db.conn.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count history of user %d: %w", filter.UserID, err)
	}
	return count, nil
}

// FetchHistoryForMovie returns every dated entry of one movie for a user,
// newest first, plus the personal rating.
func (db *DB) FetchHistoryForMovie(ctx context.Context, movieID int64, userID int) (*models.MovieHistory, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, `SELECT watched_at, plays FROM movie_user_watch_dates
		WHERE movie_id = ? AND user_id = ?
		ORDER BY watched_at DESC`, movieID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch history of movie %d: %w", movieID, err)
	}
	defer rows.Close()

	history := &models.MovieHistory{MovieID: movieID, WatchDates: []models.WatchDate{}}
	for rows.Next() {
		var wd models.WatchDate
		if err := rows.Scan(&wd.WatchedAt, &wd.Plays); err != nil {
			return nil, fmt.Errorf("failed to scan watch date: %w", err)
		}
		history.WatchDates = append(history.WatchDates, wd)
		history.TotalPlays += wd.Plays
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating watch dates: %w", err)
	}

	rating, err := db.FindRating(ctx, movieID, userID)
	if err != nil {
		return nil, err
	}
	history.PersonalRating = rating
	return history, nil
}
