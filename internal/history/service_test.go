// Cinelog - Movie Watch History Ledger
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinelog

package history

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tomtom215/cinelog/internal/authz"
	"github.com/tomtom215/cinelog/internal/config"
	"github.com/tomtom215/cinelog/internal/database"
	"github.com/tomtom215/cinelog/internal/models"
	moviesync "github.com/tomtom215/cinelog/internal/sync"
	"github.com/tomtom215/cinelog/internal/tmdb"
)

// fakeCatalog stands in for the TMDB gateway.
type fakeCatalog struct {
	movies      map[int]*tmdb.Movie
	movieCalls  int32
	lastCountry string
}

func (f *fakeCatalog) FetchMovie(ctx context.Context, tmdbID int) (*tmdb.Movie, error) {
	atomic.AddInt32(&f.movieCalls, 1)
	m, ok := f.movies[tmdbID]
	if !ok {
		return nil, fmt.Errorf("%w: movie %d", models.ErrNotFound, tmdbID)
	}
	cp := *m
	return &cp, nil
}

func (f *fakeCatalog) SearchMovies(ctx context.Context, term string) ([]tmdb.MovieSummary, error) {
	var out []tmdb.MovieSummary
	for _, m := range f.movies {
		if strings.Contains(strings.ToLower(m.Title), strings.ToLower(term)) {
			out = append(out, tmdb.MovieSummary{ID: m.ID, Title: m.Title})
		}
	}
	return out, nil
}

func (f *fakeCatalog) FetchPerson(ctx context.Context, personID int) (*tmdb.Person, error) {
	return &tmdb.Person{ID: personID, Name: "Keanu Reeves"}, nil
}

func (f *fakeCatalog) FetchCompany(ctx context.Context, companyID int) (*tmdb.Company, error) {
	return &tmdb.Company{ID: companyID, Name: "Village Roadshow Pictures"}, nil
}

func (f *fakeCatalog) FetchWatchProviders(ctx context.Context, tmdbID int, country string) (tmdb.WatchProviderCollection, error) {
	f.lastCountry = country
	return tmdb.WatchProviderCollection{
		Subscription: []tmdb.WatchProvider{},
		Rent:         []tmdb.WatchProvider{},
		Buy:          []tmdb.WatchProvider{},
		Ads:          []tmdb.WatchProvider{},
		Free:         []tmdb.WatchProvider{},
	}, nil
}

func (f *fakeCatalog) LanguageNameFor(ctx context.Context, code string) (string, error) {
	if code == "en" {
		return "English", nil
	}
	return "", fmt.Errorf("%w: language %q", models.ErrNotFound, code)
}

func tmdbMovie(id int, title string) *tmdb.Movie {
	return &tmdb.Movie{
		ID:               id,
		Title:            title,
		OriginalTitle:    title,
		OriginalLanguage: "en",
		ReleaseDate:      tmdb.Date{Time: time.Date(1999, 3, 30, 0, 0, 0, 0, time.UTC)},
		Credits: tmdb.Credits{
			Cast: []tmdb.CastMember{{ID: 6384, Name: "Keanu Reeves", Character: "Neo"}},
		},
	}
}

type fixture struct {
	svc     *Service
	db      *database.DB
	catalog *fakeCatalog
	alice   *models.User // public
	bob     *models.User // private
	carol   *models.User // members
}

func setupService(t *testing.T) *fixture {
	t.Helper()
	db, err := database.New(&config.DatabaseConfig{Path: ":memory:", MaxMemory: "512MB", Threads: 2, SkipIndexes: true})
	if err != nil {
		t.Fatalf("database.New() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	f := &fixture{db: db}
	for _, u := range []struct {
		dest    **models.User
		name    string
		privacy models.PrivacyLevel
	}{
		{&f.alice, "alice", models.PrivacyPublic},
		{&f.bob, "bob", models.PrivacyPrivate},
		{&f.carol, "carol", models.PrivacyMembers},
	} {
		user, err := db.CreateUser(ctx, u.name, u.privacy)
		if err != nil {
			t.Fatalf("CreateUser(%q) error = %v", u.name, err)
		}
		*u.dest = user
	}

	f.catalog = &fakeCatalog{movies: map[int]*tmdb.Movie{
		603: tmdbMovie(603, "The Matrix"),
		604: tmdbMovie(604, "The Matrix Reloaded"),
		550: tmdbMovie(550, "Fight Club"),
	}}
	authorizer, err := authz.NewVisibilityAuthorizer(ctx, db)
	if err != nil {
		t.Fatalf("NewVisibilityAuthorizer() error = %v", err)
	}
	f.svc = NewService(db, moviesync.NewSynchronizer(db, f.catalog), f.catalog, authorizer,
		config.HistoryConfig{PageSize: 2, DefaultCountry: "US"})
	return f
}

func id(u *models.User) models.Identity {
	return models.Identity{UserID: u.ID}
}

func day(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func intPtr(i int) *int { return &i }

func TestLogMovie_EndToEnd(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	first, err := f.svc.LogMovie(ctx, id(f.alice), 603, day("2024-01-15"), intPtr(8))
	if err != nil {
		t.Fatalf("LogMovie() error = %v", err)
	}
	if !first.Created || first.Movie.TmdbID != 603 {
		t.Errorf("first log = %+v", first)
	}

	page, err := f.svc.ViewHistory(ctx, id(f.alice), "alice", "", 1)
	if err != nil {
		t.Fatalf("ViewHistory() error = %v", err)
	}
	if len(page.HistoryEntries) != 1 {
		t.Fatalf("entries = %d, want 1", len(page.HistoryEntries))
	}
	entry := page.HistoryEntries[0]
	if entry.Plays != 1 || entry.PersonalRating == nil || *entry.PersonalRating != 8 {
		t.Errorf("entry = %+v", entry)
	}

	// Same request again: still one play on that date.
	again, err := f.svc.LogMovie(ctx, id(f.alice), 603, day("2024-01-15"), intPtr(8))
	if err != nil {
		t.Fatal(err)
	}
	if again.Created {
		t.Error("repeated log reported a new entry")
	}
	if again.Movie.ID != first.Movie.ID {
		t.Errorf("repeated log resolved movie %d, want %d", again.Movie.ID, first.Movie.ID)
	}

	// A second date is an independent entry.
	if _, err := f.svc.LogMovie(ctx, id(f.alice), 603, day("2024-02-01"), intPtr(8)); err != nil {
		t.Fatal(err)
	}

	view, err := f.svc.MovieHistory(ctx, id(f.alice), "alice", first.Movie.ID)
	if err != nil {
		t.Fatalf("MovieHistory() error = %v", err)
	}
	if len(view.History.WatchDates) != 2 || view.History.TotalPlays != 2 {
		t.Errorf("history = %+v", view.History)
	}
	for _, wd := range view.History.WatchDates {
		if wd.Plays != 1 {
			t.Errorf("date %s has %d plays, want 1", wd.WatchedAt.Format("2006-01-02"), wd.Plays)
		}
	}
	if n := atomic.LoadInt32(&f.catalog.movieCalls); n != 1 {
		t.Errorf("TMDB movie fetched %d times, want 1", n)
	}
}

func TestLogMovie_RatingZeroClears(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	res, err := f.svc.LogMovie(ctx, id(f.alice), 603, day("2024-01-15"), intPtr(8))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.LogMovie(ctx, id(f.alice), 603, day("2024-01-16"), nil); err != nil {
		t.Fatal(err)
	}

	view, err := f.svc.MovieHistory(ctx, id(f.alice), "alice", res.Movie.ID)
	if err != nil {
		t.Fatal(err)
	}
	if view.History.PersonalRating != nil {
		t.Errorf("rating = %d, want cleared", *view.History.PersonalRating)
	}
}

func TestLogMovie_Rejections(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		viewer  models.Identity
		tmdbID  int
		rating  *int
		wantErr error
	}{
		{"anonymous", models.Anonymous, 603, nil, models.ErrUnauthenticated},
		{"unknown account", models.Identity{UserID: 999}, 603, nil, models.ErrUnauthenticated},
		{"rating too high", id(f.alice), 603, intPtr(11), models.ErrValidation},
		{"rating too low", id(f.alice), 603, intPtr(-1), models.ErrValidation},
		{"invalid tmdb id", id(f.alice), 0, nil, models.ErrValidation},
		{"unknown tmdb movie", id(f.alice), 1, nil, models.ErrSynchronizationFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.LogMovie(ctx, tt.viewer, tt.tmdbID, day("2024-01-15"), tt.rating)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("LogMovie() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	page, err := f.svc.ViewHistory(ctx, id(f.alice), "alice", "", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(page.HistoryEntries) != 0 {
		t.Errorf("rejected logs left %d entries", len(page.HistoryEntries))
	}
}

func TestEntryMutations(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	logged, err := f.svc.LogMovie(ctx, id(f.alice), 603, day("2024-01-15"), nil)
	if err != nil {
		t.Fatal(err)
	}
	movieID := logged.Movie.ID
	date := day("2024-01-15")

	plays := func() int {
		t.Helper()
		view, err := f.svc.MovieHistory(ctx, id(f.alice), "alice", movieID)
		if err != nil {
			t.Fatal(err)
		}
		return view.History.TotalPlays
	}

	if err := f.svc.ReplaceEntry(ctx, id(f.alice), "alice", movieID, date, 5); err != nil {
		t.Fatalf("ReplaceEntry() error = %v", err)
	}
	if got := plays(); got != 5 {
		t.Errorf("after replace plays = %d, want 5", got)
	}

	if err := f.svc.IncreaseEntry(ctx, id(f.alice), "alice", movieID, date, 2); err != nil {
		t.Fatalf("IncreaseEntry() error = %v", err)
	}
	if got := plays(); got != 7 {
		t.Errorf("after increase plays = %d, want 7", got)
	}

	if err := f.svc.ReplaceEntry(ctx, id(f.alice), "alice", movieID, date, 0); !errors.Is(err, models.ErrValidation) {
		t.Errorf("replace with 0 plays error = %v, want ErrValidation", err)
	}

	for i := 0; i < 2; i++ {
		if err := f.svc.DeleteEntry(ctx, id(f.alice), "alice", movieID, date); err != nil {
			t.Fatalf("DeleteEntry() #%d error = %v", i+1, err)
		}
	}
	if got := plays(); got != 0 {
		t.Errorf("after delete plays = %d, want 0", got)
	}
}

func TestEntryMutations_OwnerOnly(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	logged, err := f.svc.LogMovie(ctx, id(f.alice), 603, day("2024-01-15"), nil)
	if err != nil {
		t.Fatal(err)
	}
	date := day("2024-01-15")

	tests := []struct {
		name    string
		viewer  models.Identity
		user    string
		movieID int64
		wantErr error
	}{
		{"anonymous", models.Anonymous, "alice", logged.Movie.ID, models.ErrForbidden},
		{"other user", id(f.bob), "alice", logged.Movie.ID, models.ErrForbidden},
		{"unknown account", models.Identity{UserID: 999}, "alice", logged.Movie.ID, models.ErrForbidden},
		{"unknown movie", id(f.alice), "alice", 9999, models.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := f.svc.ReplaceEntry(ctx, tt.viewer, tt.user, tt.movieID, date, 3); !errors.Is(err, tt.wantErr) {
				t.Errorf("ReplaceEntry() error = %v, want %v", err, tt.wantErr)
			}
			if err := f.svc.IncreaseEntry(ctx, tt.viewer, tt.user, tt.movieID, date, 1); !errors.Is(err, tt.wantErr) {
				t.Errorf("IncreaseEntry() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if err := f.svc.DeleteEntry(ctx, id(f.bob), "alice", logged.Movie.ID, date); !errors.Is(err, models.ErrForbidden) {
		t.Errorf("DeleteEntry() by other user error = %v, want ErrForbidden", err)
	}

	for _, tt := range tests[:3] {
		if err := f.svc.AuthorizeOwner(ctx, tt.viewer, tt.user); !errors.Is(err, models.ErrForbidden) {
			t.Errorf("AuthorizeOwner(%s) error = %v, want ErrForbidden", tt.name, err)
		}
	}
	if err := f.svc.AuthorizeOwner(ctx, id(f.alice), "alice"); err != nil {
		t.Errorf("AuthorizeOwner(owner) error = %v", err)
	}
}

func TestViewHistory_PagesAndSearch(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	for _, log := range []struct {
		tmdbID int
		date   string
	}{
		{603, "2024-01-10"},
		{604, "2024-01-12"},
		{550, "2024-01-11"},
	} {
		if _, err := f.svc.LogMovie(ctx, id(f.alice), log.tmdbID, day(log.date), nil); err != nil {
			t.Fatal(err)
		}
	}

	first, err := f.svc.ViewHistory(ctx, models.Anonymous, "alice", "", 1)
	if err != nil {
		t.Fatalf("ViewHistory() error = %v", err)
	}
	titles := func(p *Page) []string {
		out := []string{}
		for _, e := range p.HistoryEntries {
			out = append(out, e.Title)
		}
		return out
	}
	if got, want := titles(first), []string{"The Matrix Reloaded", "Fight Club"}; !reflect.DeepEqual(got, want) {
		t.Errorf("page 1 = %v, want %v", got, want)
	}
	if first.TotalCount != 3 || first.PaginationElements.MaxPage != 2 || first.PaginationElements.Next == nil {
		t.Errorf("pagination = %+v, total %d", first.PaginationElements, first.TotalCount)
	}
	if first.SearchTerm != nil {
		t.Errorf("SearchTerm = %q, want nil", *first.SearchTerm)
	}
	if !reflect.DeepEqual(first.Users, []string{"alice"}) {
		t.Errorf("anonymous visible users = %v", first.Users)
	}

	beyond, err := f.svc.ViewHistory(ctx, models.Anonymous, "alice", "", 9)
	if err != nil {
		t.Fatal(err)
	}
	if len(beyond.HistoryEntries) != 0 || beyond.PaginationElements.CurrentPage != 2 {
		t.Errorf("page 9 = %v, current %d", titles(beyond), beyond.PaginationElements.CurrentPage)
	}

	search, err := f.svc.ViewHistory(ctx, models.Anonymous, "alice", "MATRIX", 1)
	if err != nil {
		t.Fatal(err)
	}
	if search.TotalCount != 2 || search.SearchTerm == nil || *search.SearchTerm != "MATRIX" {
		t.Errorf("search total = %d term = %v", search.TotalCount, search.SearchTerm)
	}
	if search.PaginationElements.Next != nil || search.PaginationElements.Previous != nil {
		t.Errorf("single page search has links: %+v", search.PaginationElements)
	}
}

func TestViewHistory_Visibility(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		viewer  models.Identity
		user    string
		visible bool
	}{
		{"anonymous public", models.Anonymous, "alice", true},
		{"anonymous members", models.Anonymous, "carol", false},
		{"member members", id(f.alice), "carol", true},
		{"member private", id(f.alice), "bob", false},
		{"owner private", id(f.bob), "bob", true},
		{"unknown user", id(f.bob), "mallory", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.ViewHistory(ctx, tt.viewer, tt.user, "", 1)
			if tt.visible && err != nil {
				t.Fatalf("ViewHistory() error = %v", err)
			}
			if !tt.visible && !errors.Is(err, models.ErrNotFound) {
				t.Errorf("ViewHistory() error = %v, want ErrNotFound", err)
			}
		})
	}

	// Hidden and unknown ledgers must read the same apart from the name.
	_, hidden := f.svc.ViewHistory(ctx, id(f.alice), "bob", "", 1)
	_, unknown := f.svc.ViewHistory(ctx, id(f.alice), "mallory", "", 1)
	if strings.Replace(hidden.Error(), "bob", "X", 1) != strings.Replace(unknown.Error(), "mallory", "X", 1) {
		t.Errorf("hidden %q and unknown %q differ", hidden, unknown)
	}
}

func TestPrivacyAndGrants(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	if _, err := f.svc.ViewHistory(ctx, id(f.alice), "bob", "", 1); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("alice must not see bob yet, err = %v", err)
	}

	if err := f.svc.GrantViewer(ctx, id(f.alice), "bob", "alice"); !errors.Is(err, models.ErrForbidden) {
		t.Errorf("non-owner grant error = %v, want ErrForbidden", err)
	}
	if err := f.svc.GrantViewer(ctx, id(f.bob), "bob", "nobody"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("grant to unknown user error = %v, want ErrNotFound", err)
	}
	if err := f.svc.GrantViewer(ctx, id(f.bob), "bob", "bob"); !errors.Is(err, models.ErrValidation) {
		t.Errorf("self grant error = %v, want ErrValidation", err)
	}

	if err := f.svc.GrantViewer(ctx, id(f.bob), "bob", "alice"); err != nil {
		t.Fatalf("GrantViewer() error = %v", err)
	}
	if _, err := f.svc.ViewHistory(ctx, id(f.alice), "bob", "", 1); err != nil {
		t.Errorf("granted view failed: %v", err)
	}
	if _, err := f.svc.ViewHistory(ctx, id(f.carol), "bob", "", 1); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("grant leaked to carol, err = %v", err)
	}

	if err := f.svc.RevokeViewer(ctx, id(f.bob), "bob", "alice"); err != nil {
		t.Fatalf("RevokeViewer() error = %v", err)
	}
	if _, err := f.svc.ViewHistory(ctx, id(f.alice), "bob", "", 1); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("revoked view still allowed, err = %v", err)
	}

	if err := f.svc.SetPrivacy(ctx, id(f.bob), "bob", models.PrivacyPublic); err != nil {
		t.Fatalf("SetPrivacy() error = %v", err)
	}
	if _, err := f.svc.ViewHistory(ctx, models.Anonymous, "bob", "", 1); err != nil {
		t.Errorf("public ledger hidden from anonymous: %v", err)
	}
	if err := f.svc.SetPrivacy(ctx, id(f.alice), "bob", models.PrivacyPrivate); !errors.Is(err, models.ErrForbidden) {
		t.Errorf("non-owner SetPrivacy error = %v, want ErrForbidden", err)
	}
	if err := f.svc.SetPrivacy(ctx, id(f.bob), "bob", models.PrivacyLevel(7)); !errors.Is(err, models.ErrValidation) {
		t.Errorf("invalid level error = %v, want ErrValidation", err)
	}
}

func TestCatalogLookups(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	if _, err := f.svc.SearchCatalog(ctx, models.Anonymous, "matrix"); !errors.Is(err, models.ErrUnauthenticated) {
		t.Errorf("anonymous search error = %v, want ErrUnauthenticated", err)
	}
	results, err := f.svc.SearchCatalog(ctx, id(f.alice), "matrix")
	if err != nil || len(results) != 2 {
		t.Errorf("SearchCatalog() = %v, %v", results, err)
	}

	if _, err := f.svc.WatchProviders(ctx, 603, ""); err != nil {
		t.Fatal(err)
	}
	if f.catalog.lastCountry != "US" {
		t.Errorf("default country = %q, want US", f.catalog.lastCountry)
	}
	if _, err := f.svc.WatchProviders(ctx, 603, "de"); err != nil {
		t.Fatal(err)
	}
	if f.catalog.lastCountry != "de" {
		t.Errorf("country = %q, want de", f.catalog.lastCountry)
	}

	if name, err := f.svc.LanguageName(ctx, "en"); err != nil || name != "English" {
		t.Errorf("LanguageName() = %q, %v", name, err)
	}

	if _, err := f.svc.ResyncMovie(ctx, models.Anonymous, 603); !errors.Is(err, models.ErrUnauthenticated) {
		t.Errorf("anonymous resync error = %v", err)
	}
	movie, err := f.svc.ResyncMovie(ctx, id(f.alice), 603)
	if err != nil || movie.TmdbID != 603 {
		t.Errorf("ResyncMovie() = %+v, %v", movie, err)
	}
}
