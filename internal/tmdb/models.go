// Cinelog - Movie Watch History Ledger
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinelog

package tmdb

import (
	"bytes"
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

// Date is a TMDB calendar date ("2006-01-02"). TMDB sends "" or null for
// unknown dates; both decode to the zero Date.
type Date struct {
	time.Time
}

// UnmarshalJSON accepts "YYYY-MM-DD", "" and null.
func (d *Date) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		d.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("tmdb date: %w", err)
	}
	if s == "" {
		d.Time = time.Time{}
		return nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return fmt.Errorf("tmdb date %q: %w", s, err)
	}
	d.Time = t
	return nil
}

// MarshalJSON writes the zero Date as null.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Format(time.DateOnly))
}

// Ptr returns nil for the zero Date.
func (d Date) Ptr() *time.Time {
	if d.IsZero() {
		return nil
	}
	t := d.Time
	return &t
}

// Movie is /movie/{id}?append_to_response=credits, normalized.
type Movie struct {
	ID                  int                 `json:"id"`
	Title               string              `json:"title"`
	OriginalTitle       string              `json:"original_title"`
	OriginalLanguage    string              `json:"original_language"`
	Tagline             string              `json:"tagline"`
	Overview            string              `json:"overview"`
	ReleaseDate         Date                `json:"release_date"`
	Runtime             *int                `json:"runtime"`
	PosterPath          *string             `json:"poster_path"`
	ImdbID              *string             `json:"imdb_id"`
	VoteAverage         *float64            `json:"vote_average"`
	VoteCount           *int                `json:"vote_count"`
	Genres              []Genre             `json:"genres"`
	ProductionCompanies []ProductionCompany `json:"production_companies"`
	Credits             Credits             `json:"credits"`
}

// Genre is a TMDB genre.
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// ProductionCompany is the company summary embedded in movie details.
type ProductionCompany struct {
	ID            int     `json:"id"`
	Name          string  `json:"name"`
	LogoPath      *string `json:"logo_path"`
	OriginCountry string  `json:"origin_country"`
}

// Credits holds the cast and crew of a movie.
type Credits struct {
	Cast []CastMember `json:"cast"`
	Crew []CrewMember `json:"crew"`
}

// CastMember is one acting credit.
type CastMember struct {
	ID                 int     `json:"id"`
	Name               string  `json:"name"`
	Gender             int     `json:"gender"`
	KnownForDepartment string  `json:"known_for_department"`
	ProfilePath        *string `json:"profile_path"`
	Character          string  `json:"character"`
	Order              int     `json:"order"`
}

// CrewMember is one crew credit.
type CrewMember struct {
	ID                 int     `json:"id"`
	Name               string  `json:"name"`
	Gender             int     `json:"gender"`
	KnownForDepartment string  `json:"known_for_department"`
	ProfilePath        *string `json:"profile_path"`
	Job                string  `json:"job"`
	Department         string  `json:"department"`
}

// Person is /person/{id}.
type Person struct {
	ID                 int     `json:"id"`
	Name               string  `json:"name"`
	Gender             int     `json:"gender"`
	Biography          string  `json:"biography"`
	Birthday           Date    `json:"birthday"`
	Deathday           Date    `json:"deathday"`
	PlaceOfBirth       *string `json:"place_of_birth"`
	KnownForDepartment string  `json:"known_for_department"`
	ProfilePath        *string `json:"profile_path"`
	ImdbID             *string `json:"imdb_id"`
}

// Company is /company/{id}.
type Company struct {
	ID            int     `json:"id"`
	Name          string  `json:"name"`
	Description   string  `json:"description"`
	Headquarters  string  `json:"headquarters"`
	Homepage      string  `json:"homepage"`
	LogoPath      *string `json:"logo_path"`
	OriginCountry string  `json:"origin_country"`
}

// MovieSummary is one /search/movie result.
type MovieSummary struct {
	ID            int      `json:"id"`
	Title         string   `json:"title"`
	OriginalTitle string   `json:"original_title"`
	Overview      string   `json:"overview"`
	ReleaseDate   Date     `json:"release_date"`
	PosterPath    *string  `json:"poster_path"`
	VoteAverage   *float64 `json:"vote_average"`
}

type searchResponse struct {
	Page         int            `json:"page"`
	Results      []MovieSummary `json:"results"`
	TotalResults int            `json:"total_results"`
	TotalPages   int            `json:"total_pages"`
}

// WatchProvider is one streaming, rental or purchase offer.
type WatchProvider struct {
	ProviderID      int     `json:"provider_id"`
	ProviderName    string  `json:"provider_name"`
	LogoPath        *string `json:"logo_path"`
	DisplayPriority int     `json:"display_priority"`
}

// WatchProviderCollection partitions the offers of one country by offer type.
// Every partition is non-nil.
type WatchProviderCollection struct {
	Subscription []WatchProvider `json:"subscription"`
	Rent         []WatchProvider `json:"rent"`
	Buy          []WatchProvider `json:"buy"`
	Ads          []WatchProvider `json:"ads"`
	Free         []WatchProvider `json:"free"`
}

type countryProviders struct {
	Link     string          `json:"link"`
	Flatrate []WatchProvider `json:"flatrate"`
	Rent     []WatchProvider `json:"rent"`
	Buy      []WatchProvider `json:"buy"`
	Ads      []WatchProvider `json:"ads"`
	Free     []WatchProvider `json:"free"`
}

type watchProvidersResponse struct {
	ID      int                         `json:"id"`
	Results map[string]countryProviders `json:"results"`
}

// Language is one entry of /configuration/languages.
type Language struct {
	Code        string `json:"iso_639_1"`
	EnglishName string `json:"english_name"`
	Name        string `json:"name"`
}

// normalize replaces absent collections with empty ones.
func (m *Movie) normalize() {
	if m.Genres == nil {
		m.Genres = []Genre{}
	}
	if m.ProductionCompanies == nil {
		m.ProductionCompanies = []ProductionCompany{}
	}
	if m.Credits.Cast == nil {
		m.Credits.Cast = []CastMember{}
	}
	if m.Credits.Crew == nil {
		m.Credits.Crew = []CrewMember{}
	}
}

func orEmpty(list []WatchProvider) []WatchProvider {
	if list == nil {
		return []WatchProvider{}
	}
	return list
}

func (c countryProviders) collection() WatchProviderCollection {
	return WatchProviderCollection{
		Subscription: orEmpty(c.Flatrate),
		Rent:         orEmpty(c.Rent),
		Buy:          orEmpty(c.Buy),
		Ads:          orEmpty(c.Ads),
		Free:         orEmpty(c.Free),
	}
}
