// Cinelog - Movie Watch History Ledger
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinelog

// Package tmdb talks to The Movie Database (TMDB) v3 API.
//
// Layers, outermost first:
//
//	Gateway               typed lookups, payload normalization, response cache
//	CircuitBreakerClient  fail fast while TMDB is unhealthy
//	Client                api_key auth, outbound rate limit, 429 backoff
//
// Every error returned by the gateway wraps either models.ErrNotFound (TMDB
// answered 404 or an unknown language code) or models.ErrCatalogUnavailable.
package tmdb

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/cinelog/internal/models"
)

// Fetcher returns raw TMDB response bodies. Implemented by Client and
// CircuitBreakerClient.
type Fetcher interface {
	Get(ctx context.Context, endpoint, path string, query url.Values) ([]byte, error)
}

// Gateway exposes typed TMDB lookups. Safe for concurrent use.
type Gateway struct {
	fetcher   Fetcher
	cache     ResponseCache
	languages *LanguageCache
}

// NewGateway creates a gateway. A nil cache disables response caching.
func NewGateway(fetcher Fetcher, cache ResponseCache) *Gateway {
	if cache == nil {
		cache = noopResponseCache{}
	}
	g := &Gateway{fetcher: fetcher, cache: cache}
	g.languages = NewLanguageCache(g.fetchLanguages)
	return g
}

// FetchMovie returns movie details including credits. Never cached.
func (g *Gateway) FetchMovie(ctx context.Context, tmdbID int) (*Movie, error) {
	var movie Movie
	query := url.Values{"append_to_response": {"credits"}}
	if err := g.getJSON(ctx, "movie", "/movie/"+strconv.Itoa(tmdbID), query, false, &movie); err != nil {
		return nil, err
	}
	movie.normalize()
	return &movie, nil
}

// FetchPerson returns person details.
func (g *Gateway) FetchPerson(ctx context.Context, personID int) (*Person, error) {
	var person Person
	if err := g.getJSON(ctx, "person", "/person/"+strconv.Itoa(personID), nil, true, &person); err != nil {
		return nil, err
	}
	return &person, nil
}

// FetchCompany returns production company details.
func (g *Gateway) FetchCompany(ctx context.Context, companyID int) (*Company, error) {
	var company Company
	if err := g.getJSON(ctx, "company", "/company/"+strconv.Itoa(companyID), nil, true, &company); err != nil {
		return nil, err
	}
	return &company, nil
}

// SearchMovies returns the first page of TMDB matches in TMDB's order. A
// blank term returns an empty slice without contacting TMDB.
func (g *Gateway) SearchMovies(ctx context.Context, term string) ([]MovieSummary, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return []MovieSummary{}, nil
	}

	var resp searchResponse
	if err := g.getJSON(ctx, "search", "/search/movie", url.Values{"query": {term}}, false, &resp); err != nil {
		return nil, err
	}
	if resp.Results == nil {
		return []MovieSummary{}, nil
	}
	return resp.Results, nil
}

// FetchWatchProviders returns the offers for one country. A country TMDB
// has no data for yields empty partitions.
func (g *Gateway) FetchWatchProviders(ctx context.Context, tmdbID int, country string) (WatchProviderCollection, error) {
	var resp watchProvidersResponse
	path := "/movie/" + strconv.Itoa(tmdbID) + "/watch/providers"
	if err := g.getJSON(ctx, "watch_providers", path, nil, true, &resp); err != nil {
		return WatchProviderCollection{}, err
	}
	return resp.Results[strings.ToUpper(country)].collection(), nil
}

// LanguageNameFor resolves an ISO 639-1 code such as "en" to "English".
func (g *Gateway) LanguageNameFor(ctx context.Context, code string) (string, error) {
	return g.languages.NameFor(ctx, code)
}

func (g *Gateway) fetchLanguages(ctx context.Context) ([]Language, error) {
	var langs []Language
	if err := g.getJSON(ctx, "languages", "/configuration/languages", nil, false, &langs); err != nil {
		return nil, err
	}
	return langs, nil
}

// getJSON fetches and decodes one resource. Cacheable bodies are stored only
// after they decoded successfully.
func (g *Gateway) getJSON(ctx context.Context, endpoint, path string, query url.Values, cacheable bool, out interface{}) error {
	key := path
	if len(query) > 0 {
		key += "?" + query.Encode()
	}

	if cacheable {
		if body, ok := g.cache.Get(key); ok {
			if err := json.Unmarshal(body, out); err == nil {
				return nil
			}
		}
	}

	body, err := g.fetcher.Get(ctx, endpoint, path, query)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: tmdb %s: malformed payload: %w", models.ErrCatalogUnavailable, endpoint, err)
	}
	if cacheable {
		g.cache.Set(key, body)
	}
	return nil
}
