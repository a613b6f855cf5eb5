// Cinelog - Movie Watch History Ledger
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinelog

package models

import "time"

// Rating bounds. A missing rating is a nil *int, never zero.
const (
	MinRating = 1
	MaxRating = 10
)

// MaxPlays caps the play count of a single watch date.
const MaxPlays = 100000

// HistoryEntry is one ledger row joined with its movie for display.
type HistoryEntry struct {
	MovieID        int64      `json:"movie_id"`
	TmdbID         int        `json:"tmdb_id"`
	Title          string     `json:"title"`
	PosterPath     *string    `json:"poster_path,omitempty"`
	ReleaseDate    *time.Time `json:"release_date,omitempty"`
	WatchedAt      time.Time  `json:"watched_at"`
	Plays          int        `json:"plays"`
	PersonalRating *int       `json:"personal_rating,omitempty"`
}

// WatchDate is a single (date, plays) pair of one user's movie.
type WatchDate struct {
	WatchedAt time.Time `json:"watched_at"`
	Plays     int       `json:"plays"`
}

// MovieHistory is a user's complete record for one movie.
type MovieHistory struct {
	MovieID        int64       `json:"movie_id"`
	WatchDates     []WatchDate `json:"watch_dates"`
	TotalPlays     int         `json:"total_plays"`
	PersonalRating *int        `json:"personal_rating,omitempty"`
}
