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
)

// setRating stores the personal rating of a movie, or clears it when rating
// is nil. Setting the same value twice leaves the same state. Range checks
// happen in LogWatch before the transaction opens.
func setRating(ctx context.Context, exec execer, movieID int64, userID int, rating *int) error {
	if rating == nil {
		if _, err := exec.ExecContext(ctx,
			`DELETE FROM movie_user_ratings WHERE movie_id = ? AND user_id = ?`, movieID, userID); err != nil {
			return fmt.Errorf("failed to clear rating of movie %d for user %d: %w", movieID, userID, err)
		}
		return nil
	}

	_, err := exec.ExecContext(ctx, `INSERT INTO movie_user_ratings (movie_id, user_id, rating, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (movie_id, user_id) DO UPDATE SET rating = EXCLUDED.rating, updated_at = EXCLUDED.updated_at`,
		movieID, userID, *rating)
	if err != nil {
		return fmt.Errorf("failed to set rating of movie %d for user %d: %w", movieID, userID, err)
	}
	return nil
}

// FindRating returns the personal rating or nil when none is stored.
func (db *DB) FindRating(ctx context.Context, movieID int64, userID int) (*int, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var rating int
	err := db.conn.QueryRowContext(ctx,
		`SELECT rating FROM movie_user_ratings WHERE movie_id = ? AND user_id = ?`, movieID, userID).Scan(&rating)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find rating of movie %d for user %d: %w", movieID, userID, err)
	}
	return &rating, nil
}
