// Cinelog - Movie Watch History Ledger
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinelog

package models

import "time"

// Movie is a local catalog entry. TmdbID is the natural key shared by all
// users; ID is assigned by the database on first synchronization.
type Movie struct {
	ID               int64      `json:"id"`
	TmdbID           int        `json:"tmdb_id"`
	Title            string     `json:"title"`
	OriginalTitle    string     `json:"original_title,omitempty"`
	OriginalLanguage string     `json:"original_language,omitempty"`
	Tagline          string     `json:"tagline,omitempty"`
	Overview         string     `json:"overview,omitempty"`
	ReleaseDate      *time.Time `json:"release_date,omitempty"`
	Runtime          *int       `json:"runtime,omitempty"`
	PosterPath       *string    `json:"poster_path,omitempty"`
	ImdbID           *string    `json:"imdb_id,omitempty"`
	TmdbVoteAverage  *float64   `json:"tmdb_vote_average,omitempty"`
	TmdbVoteCount    *int       `json:"tmdb_vote_count,omitempty"`
	UpdatedAtTmdb    time.Time  `json:"updated_at_tmdb"`
}

// MovieRecord is everything persisted for one movie in a single sync
// transaction.
type MovieRecord struct {
	Movie     Movie
	Genres    []Genre
	Cast      []CastCredit
	Crew      []CrewCredit
	Companies []Company
}

// Genre is a TMDB genre.
type Genre struct {
	TmdbID int    `json:"tmdb_id"`
	Name   string `json:"name"`
}

// Person is a cast or crew member.
type Person struct {
	TmdbID             int     `json:"tmdb_id"`
	Name               string  `json:"name"`
	Gender             int     `json:"gender"`
	KnownForDepartment string  `json:"known_for_department,omitempty"`
	ProfilePath        *string `json:"profile_path,omitempty"`
}

// CastCredit links a person to a movie as an actor.
type CastCredit struct {
	Person    Person `json:"person"`
	Character string `json:"character"`
	Position  int    `json:"position"`
}

// CrewCredit links a person to a movie by job.
type CrewCredit struct {
	Person     Person `json:"person"`
	Job        string `json:"job"`
	Department string `json:"department"`
	Position   int    `json:"position"`
}

// Company is a production company.
type Company struct {
	TmdbID        int    `json:"tmdb_id"`
	Name          string `json:"name"`
	OriginCountry string `json:"origin_country,omitempty"`
}
