// Cinelog - Movie Watch History Ledger
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinelog

// Package history implements the ledger use cases: logging a watch, editing
// dated entries, and reading another user's history under the visibility
// policy.
//
// Every method takes the already-resolved caller Identity. Reads go through
// the Authorizer and report a hidden ledger exactly like an unknown user.
// Mutations require the caller to own the ledger named in the request.
package history

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/cinelog/internal/config"
	"github.com/tomtom215/cinelog/internal/database"
	"github.com/tomtom215/cinelog/internal/logging"
	"github.com/tomtom215/cinelog/internal/metrics"
	"github.com/tomtom215/cinelog/internal/models"
	"github.com/tomtom215/cinelog/internal/pagination"
	"github.com/tomtom215/cinelog/internal/tmdb"
)

// Store is the part of the database layer the service uses.
type Store interface {
	FindMovieByID(ctx context.Context, id int64) (*models.Movie, error)
	FindUserByID(ctx context.Context, id int) (*models.User, error)
	FindUserByName(ctx context.Context, name string) (*models.User, error)
	SetPrivacyLevel(ctx context.Context, userID int, privacy models.PrivacyLevel) error

	ReplaceHistoryForMovieByDate(ctx context.Context, movieID int64, userID int, watchedAt time.Time, plays int) error
	IncreaseHistoryPlaysForMovieOnDate(ctx context.Context, movieID int64, userID int, watchedAt time.Time, delta int) error
	LogWatch(ctx context.Context, movieID int64, userID int, watchedAt time.Time, rating *int) (bool, error)
	DeleteHistoryByIDAndDate(ctx context.Context, movieID int64, userID int, watchedAt time.Time) error
	FetchHistoryPaginated(ctx context.Context, filter database.HistoryFilter, pageSize, page int) ([]models.HistoryEntry, error)
	FetchHistoryCount(ctx context.Context, filter database.HistoryFilter) (int, error)
	FetchHistoryForMovie(ctx context.Context, movieID int64, userID int) (*models.MovieHistory, error)
}

// MovieResolver maps TMDB ids to local movies.
type MovieResolver interface {
	ResolveOrSync(ctx context.Context, tmdbID int) (*models.Movie, error)
	Resync(ctx context.Context, tmdbID int) (*models.Movie, error)
}

// Authorizer applies the ledger visibility policy.
type Authorizer interface {
	CanView(ctx context.Context, viewer models.Identity, targetUsername string) (*int, error)
	ListVisibleUsernames(ctx context.Context, viewer models.Identity) ([]string, error)
	Grant(ctx context.Context, ownerID, viewerID int) error
	Revoke(ctx context.Context, ownerID, viewerID int) error
}

// Catalog is the TMDB lookup surface exposed to clients.
type Catalog interface {
	SearchMovies(ctx context.Context, term string) ([]tmdb.MovieSummary, error)
	FetchPerson(ctx context.Context, personID int) (*tmdb.Person, error)
	FetchCompany(ctx context.Context, companyID int) (*tmdb.Company, error)
	FetchWatchProviders(ctx context.Context, tmdbID int, country string) (tmdb.WatchProviderCollection, error)
	LanguageNameFor(ctx context.Context, code string) (string, error)
}

// Page is one page of a user's history.
type Page struct {
	Users              []string              `json:"users"`
	HistoryEntries     []models.HistoryEntry `json:"historyEntries"`
	PaginationElements pagination.Elements   `json:"paginationElements"`
	SearchTerm         *string               `json:"searchTerm"`
	TotalCount         int                   `json:"totalCount"`
}

// MovieView is a user's record of one movie.
type MovieView struct {
	Movie   *models.Movie        `json:"movie"`
	History *models.MovieHistory `json:"history"`
}

// Service coordinates the ledger, the synchronizer and the authorizer.
type Service struct {
	store          Store
	movies         MovieResolver
	catalog        Catalog
	authz          Authorizer
	pageSize       int
	defaultCountry string
}

// NewService creates the ledger service.
func NewService(store Store, movies MovieResolver, catalog Catalog, authz Authorizer, cfg config.HistoryConfig) *Service {
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 24
	}
	return &Service{
		store:          store,
		movies:         movies,
		catalog:        catalog,
		authz:          authz,
		pageSize:       pageSize,
		defaultCountry: cfg.DefaultCountry,
	}
}

// ViewHistory returns one page of username's ledger, newest watch first,
// optionally filtered by a title search. A page past the end is empty.
func (s *Service) ViewHistory(ctx context.Context, viewer models.Identity, username, searchTerm string, page int) (*Page, error) {
	userID, err := s.visibleUser(ctx, viewer, username)
	if err != nil {
		return nil, err
	}
	if page < 1 {
		page = 1
	}

	filter := database.HistoryFilter{UserID: userID, SearchTerm: searchTerm}
	entries, err := s.store.FetchHistoryPaginated(ctx, filter, s.pageSize, page)
	if err != nil {
		return nil, err
	}
	count, err := s.store.FetchHistoryCount(ctx, filter)
	if err != nil {
		return nil, err
	}
	users, err := s.authz.ListVisibleUsernames(ctx, viewer)
	if err != nil {
		return nil, err
	}

	result := &Page{
		Users:              users,
		HistoryEntries:     entries,
		PaginationElements: pagination.Plan(count, s.pageSize, page),
		TotalCount:         count,
	}
	if term := strings.TrimSpace(searchTerm); term != "" {
		result.SearchTerm = &term
	}
	return result, nil
}

// MovieHistory returns every watch date and the rating username recorded
// for one local movie.
func (s *Service) MovieHistory(ctx context.Context, viewer models.Identity, username string, movieID int64) (*MovieView, error) {
	userID, err := s.visibleUser(ctx, viewer, username)
	if err != nil {
		return nil, err
	}
	movie, err := s.store.FindMovieByID(ctx, movieID)
	if err != nil {
		return nil, err
	}
	history, err := s.store.FetchHistoryForMovie(ctx, movieID, userID)
	if err != nil {
		return nil, err
	}
	return &MovieView{Movie: movie, History: history}, nil
}

// ListVisibleUsers returns the usernames whose ledgers viewer may read.
func (s *Service) ListVisibleUsers(ctx context.Context, viewer models.Identity) ([]string, error) {
	return s.authz.ListVisibleUsernames(ctx, viewer)
}

// ReplaceEntry sets the plays on one watch date to exactly plays.
func (s *Service) ReplaceEntry(ctx context.Context, viewer models.Identity, username string, movieID int64, watchedAt time.Time, plays int) (err error) {
	defer func() { metrics.RecordLedgerOperation("replace", err) }()

	owner, err := s.ownedMovie(ctx, viewer, username, movieID)
	if err != nil {
		return err
	}
	if err := s.store.ReplaceHistoryForMovieByDate(ctx, movieID, owner.ID, watchedAt, plays); err != nil {
		return err
	}
	logging.Ctx(ctx).Info().Int64("movie_id", movieID).Time("watched_at", watchedAt).Int("plays", plays).Msg("Replaced history entry")
	return nil
}

// IncreaseEntry adds delta plays to one watch date, creating the entry when
// the date has none.
func (s *Service) IncreaseEntry(ctx context.Context, viewer models.Identity, username string, movieID int64, watchedAt time.Time, delta int) (err error) {
	defer func() { metrics.RecordLedgerOperation("increase", err) }()

	owner, err := s.ownedMovie(ctx, viewer, username, movieID)
	if err != nil {
		return err
	}
	if err := s.store.IncreaseHistoryPlaysForMovieOnDate(ctx, movieID, owner.ID, watchedAt, delta); err != nil {
		return err
	}
	logging.Ctx(ctx).Info().Int64("movie_id", movieID).Time("watched_at", watchedAt).Int("delta", delta).Msg("Increased history plays")
	return nil
}

// DeleteEntry removes one watch date. Deleting an absent date succeeds.
func (s *Service) DeleteEntry(ctx context.Context, viewer models.Identity, username string, movieID int64, watchedAt time.Time) (err error) {
	defer func() { metrics.RecordLedgerOperation("delete", err) }()

	owner, err := s.owner(ctx, viewer, username)
	if err != nil {
		return err
	}
	if err := s.store.DeleteHistoryByIDAndDate(ctx, movieID, owner.ID, watchedAt); err != nil {
		return err
	}
	logging.Ctx(ctx).Info().Int64("movie_id", movieID).Time("watched_at", watchedAt).Msg("Deleted history entry")
	return nil
}

// LogResult is the outcome of LogMovie.
type LogResult struct {
	Movie   *models.Movie `json:"movie"`
	Created bool          `json:"created"` // false when the date was already logged
}

// LogMovie records that the caller watched tmdbID on watchedAt and stores the
// personal rating, nil clearing it. The movie is synchronized from TMDB on
// first use. Logging a date twice leaves a single play on that date.
func (s *Service) LogMovie(ctx context.Context, viewer models.Identity, tmdbID int, watchedAt time.Time, rating *int) (result *LogResult, err error) {
	defer func() { metrics.RecordLedgerOperation("log", err) }()

	if viewer.IsAnonymous() {
		return nil, models.ErrUnauthenticated
	}
	if rating != nil && (*rating < models.MinRating || *rating > models.MaxRating) {
		return nil, models.ErrInvalidRating
	}
	user, err := s.store.FindUserByID(ctx, viewer.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.ErrUnauthenticated
	}

	movie, err := s.movies.ResolveOrSync(ctx, tmdbID)
	if err != nil {
		return nil, err
	}
	created, err := s.store.LogWatch(ctx, movie.ID, user.ID, watchedAt, rating)
	if err != nil {
		return nil, err
	}

	logging.Ctx(ctx).Info().
		Int("tmdb_id", tmdbID).
		Int64("movie_id", movie.ID).
		Time("watched_at", watchedAt).
		Bool("created", created).
		Msg("Logged movie")
	return &LogResult{Movie: movie, Created: created}, nil
}

// SearchCatalog searches TMDB for movies to log. Signed-in users only.
func (s *Service) SearchCatalog(ctx context.Context, viewer models.Identity, term string) ([]tmdb.MovieSummary, error) {
	if viewer.IsAnonymous() {
		return nil, models.ErrUnauthenticated
	}
	return s.catalog.SearchMovies(ctx, term)
}

// ResyncMovie refreshes the catalog fields of a movie from TMDB.
func (s *Service) ResyncMovie(ctx context.Context, viewer models.Identity, tmdbID int) (*models.Movie, error) {
	if viewer.IsAnonymous() {
		return nil, models.ErrUnauthenticated
	}
	return s.movies.Resync(ctx, tmdbID)
}

// Person looks up a TMDB person.
func (s *Service) Person(ctx context.Context, personID int) (*tmdb.Person, error) {
	return s.catalog.FetchPerson(ctx, personID)
}

// Company looks up a TMDB production company.
func (s *Service) Company(ctx context.Context, companyID int) (*tmdb.Company, error) {
	return s.catalog.FetchCompany(ctx, companyID)
}

// WatchProviders returns where tmdbID can be watched in country, falling
// back to the configured default country.
func (s *Service) WatchProviders(ctx context.Context, tmdbID int, country string) (tmdb.WatchProviderCollection, error) {
	if strings.TrimSpace(country) == "" {
		country = s.defaultCountry
	}
	return s.catalog.FetchWatchProviders(ctx, tmdbID, country)
}

// LanguageName resolves an ISO 639-1 code to its English name.
func (s *Service) LanguageName(ctx context.Context, code string) (string, error) {
	return s.catalog.LanguageNameFor(ctx, code)
}

// SetPrivacy changes who may read username's ledger. Owner only.
func (s *Service) SetPrivacy(ctx context.Context, viewer models.Identity, username string, level models.PrivacyLevel) error {
	if !level.Valid() {
		return fmt.Errorf("%w: unknown privacy level %d", models.ErrValidation, level)
	}
	owner, err := s.owner(ctx, viewer, username)
	if err != nil {
		return err
	}
	if err := s.store.SetPrivacyLevel(ctx, owner.ID, level); err != nil {
		return err
	}
	logging.Ctx(ctx).Info().Str("privacy", level.String()).Msg("Changed ledger privacy")
	return nil
}

// GrantViewer lets viewerName read username's ledger whatever its privacy.
func (s *Service) GrantViewer(ctx context.Context, viewer models.Identity, username, viewerName string) error {
	owner, grantee, err := s.grantPair(ctx, viewer, username, viewerName)
	if err != nil {
		return err
	}
	return s.authz.Grant(ctx, owner.ID, grantee.ID)
}

// RevokeViewer removes a grant made with GrantViewer.
func (s *Service) RevokeViewer(ctx context.Context, viewer models.Identity, username, viewerName string) error {
	owner, grantee, err := s.grantPair(ctx, viewer, username, viewerName)
	if err != nil {
		return err
	}
	return s.authz.Revoke(ctx, owner.ID, grantee.ID)
}

func (s *Service) grantPair(ctx context.Context, viewer models.Identity, username, viewerName string) (*models.User, *models.User, error) {
	owner, err := s.owner(ctx, viewer, username)
	if err != nil {
		return nil, nil, err
	}
	grantee, err := s.store.FindUserByName(ctx, viewerName)
	if err != nil {
		return nil, nil, err
	}
	if grantee == nil {
		return nil, nil, fmt.Errorf("%w: user %q", models.ErrNotFound, viewerName)
	}
	if grantee.ID == owner.ID {
		return nil, nil, fmt.Errorf("%w: cannot grant a user access to their own ledger", models.ErrValidation)
	}
	return owner, grantee, nil
}

// visibleUser returns the id of username when viewer may read the ledger.
// Unknown and hidden users produce the same error.
func (s *Service) visibleUser(ctx context.Context, viewer models.Identity, username string) (int, error) {
	userID, err := s.authz.CanView(ctx, viewer, username)
	if err != nil {
		return 0, err
	}
	if userID == nil {
		return 0, fmt.Errorf("%w: user %q", models.ErrNotFound, username)
	}
	return *userID, nil
}

// AuthorizeOwner reports ErrForbidden unless viewer is the user named
// username. Handlers call it before reading a mutation body.
func (s *Service) AuthorizeOwner(ctx context.Context, viewer models.Identity, username string) error {
	_, err := s.owner(ctx, viewer, username)
	return err
}

// owner returns the caller when the caller is the user named username.
func (s *Service) owner(ctx context.Context, viewer models.Identity, username string) (*models.User, error) {
	if viewer.IsAnonymous() {
		return nil, models.ErrForbidden
	}
	user, err := s.store.FindUserByID(ctx, viewer.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil || user.Name != username {
		return nil, models.ErrForbidden
	}
	return user, nil
}

func (s *Service) ownedMovie(ctx context.Context, viewer models.Identity, username string, movieID int64) (*models.User, error) {
	owner, err := s.owner(ctx, viewer, username)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.FindMovieByID(ctx, movieID); err != nil {
		return nil, err
	}
	return owner, nil
}
