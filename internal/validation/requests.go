// Cinelog - Movie Watch History Ledger
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinelog

package validation

import (
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/tomtom215/cinelog/internal/models"
)

// HistoryEntryRequest is the body of replace (plays is the new total) and
// increase (plays is added) on one watch date.
type HistoryEntryRequest struct {
	WatchDate  string `json:"watchDate" validate:"required"`
	DateFormat string `json:"dateFormat" validate:"required,dateformat"`
	Plays      int    `json:"plays" validate:"min=1,max=100000"`
}

// Date parses WatchDate against DateFormat.
func (r *HistoryEntryRequest) Date() (time.Time, *RequestValidationError) {
	return ParseDate("watchDate", r.WatchDate, r.DateFormat)
}

// DeleteHistoryRequest is the body of a delete. Older clients send the date
// under "date"; "watchDate" is accepted as well.
type DeleteHistoryRequest struct {
	Date       string `json:"date" validate:"required_without=WatchDate"`
	WatchDate  string `json:"watchDate"`
	DateFormat string `json:"dateFormat" validate:"required,dateformat"`
}

// ParsedDate parses whichever date key was sent, preferring "date".
func (r *DeleteHistoryRequest) ParsedDate() (time.Time, *RequestValidationError) {
	if r.Date != "" {
		return ParseDate("date", r.Date, r.DateFormat)
	}
	return ParseDate("watchDate", r.WatchDate, r.DateFormat)
}

// LogMovieRequest records a watch of a catalog movie. A personalRating of 0
// means no rating.
type LogMovieRequest struct {
	TmdbID         int    `json:"tmdbId" validate:"gt=0"`
	WatchDate      string `json:"watchDate" validate:"required"`
	DateFormat     string `json:"dateFormat" validate:"required,dateformat"`
	PersonalRating int    `json:"personalRating" validate:"min=0,max=10"`
}

// Date parses WatchDate against DateFormat.
func (r *LogMovieRequest) Date() (time.Time, *RequestValidationError) {
	return ParseDate("watchDate", r.WatchDate, r.DateFormat)
}

// Rating returns the personal rating, nil when none was given.
func (r *LogMovieRequest) Rating() *int {
	if r.PersonalRating == 0 {
		return nil
	}
	rating := r.PersonalRating
	return &rating
}

// PrivacyRequest changes who may read a ledger.
type PrivacyRequest struct {
	Privacy string `json:"privacy" validate:"required,privacy"`
}

// Level returns the requested privacy level. Call after ValidateStruct.
func (r *PrivacyRequest) Level() models.PrivacyLevel {
	level, _ := ParsePrivacyLevel(r.Privacy)
	return level
}

// ParsePrivacyLevel converts the name used in requests and configuration.
func ParsePrivacyLevel(name string) (models.PrivacyLevel, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "private":
		return models.PrivacyPrivate, true
	case "members":
		return models.PrivacyMembers, true
	case "public":
		return models.PrivacyPublic, true
	default:
		return models.PrivacyPrivate, false
	}
}

func validatePrivacy(fl validator.FieldLevel) bool {
	_, ok := ParsePrivacyLevel(fl.Field().String())
	return ok
}

func jsonFieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" || name == "" {
		return fld.Name
	}
	return name
}
