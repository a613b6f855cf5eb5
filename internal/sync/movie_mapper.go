// Cinelog - Movie Watch History Ledger
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinelog

package sync

import (
	"strings"
	"time"

	"github.com/tomtom215/cinelog/internal/models"
	"github.com/tomtom215/cinelog/internal/tmdb"
)

// toMovieRecord maps a TMDB movie payload to the catalog record persisted
// by the database layer. Positions follow TMDB credit order.
func toMovieRecord(m *tmdb.Movie, fetchedAt time.Time) *models.MovieRecord {
	rec := &models.MovieRecord{
		Movie: models.Movie{
			TmdbID:           m.ID,
			Title:            m.Title,
			OriginalTitle:    m.OriginalTitle,
			OriginalLanguage: m.OriginalLanguage,
			Tagline:          m.Tagline,
			Overview:         m.Overview,
			ReleaseDate:      m.ReleaseDate.Ptr(),
			Runtime:          positiveInt(m.Runtime),
			PosterPath:       nonEmpty(m.PosterPath),
			ImdbID:           nonEmpty(m.ImdbID),
			TmdbVoteAverage:  m.VoteAverage,
			TmdbVoteCount:    m.VoteCount,
			UpdatedAtTmdb:    fetchedAt.UTC(),
		},
		Genres:    make([]models.Genre, 0, len(m.Genres)),
		Cast:      make([]models.CastCredit, 0, len(m.Credits.Cast)),
		Crew:      make([]models.CrewCredit, 0, len(m.Credits.Crew)),
		Companies: make([]models.Company, 0, len(m.ProductionCompanies)),
	}

	for _, g := range m.Genres {
		rec.Genres = append(rec.Genres, models.Genre{TmdbID: g.ID, Name: g.Name})
	}
	for i, c := range m.Credits.Cast {
		rec.Cast = append(rec.Cast, models.CastCredit{
			Person:    person(c.ID, c.Name, c.Gender, c.KnownForDepartment, c.ProfilePath),
			Character: c.Character,
			Position:  i,
		})
	}
	for i, c := range m.Credits.Crew {
		rec.Crew = append(rec.Crew, models.CrewCredit{
			Person:     person(c.ID, c.Name, c.Gender, c.KnownForDepartment, c.ProfilePath),
			Job:        c.Job,
			Department: c.Department,
			Position:   i,
		})
	}
	for _, c := range m.ProductionCompanies {
		rec.Companies = append(rec.Companies, models.Company{TmdbID: c.ID, Name: c.Name, OriginCountry: c.OriginCountry})
	}

	return rec
}

func person(id int, name string, gender int, department string, profilePath *string) models.Person {
	return models.Person{
		TmdbID:             id,
		Name:               name,
		Gender:             gender,
		KnownForDepartment: department,
		ProfilePath:        nonEmpty(profilePath),
	}
}

// nonEmpty maps nil and blank strings to nil.
func nonEmpty(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}

// positiveInt maps nil and TMDB's 0 placeholder to nil.
func positiveInt(i *int) *int {
	if i == nil || *i <= 0 {
		return nil
	}
	return i
}
