// Cinelog - Movie Watch History Ledger
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinelog

package tmdb

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/tomtom215/cinelog/internal/logging"
	"github.com/tomtom215/cinelog/internal/models"
)

// LanguageCache maps ISO 639-1 codes to English language names. The table
// is loaded once on first use; concurrent first lookups share one load.
// Once loaded it is never modified, so reads take no lock.
type LanguageCache struct {
	load  func(ctx context.Context) ([]Language, error)
	group singleflight.Group
	names atomic.Pointer[map[string]string]
}

// NewLanguageCache creates an empty cache that fills itself through load.
func NewLanguageCache(load func(ctx context.Context) ([]Language, error)) *LanguageCache {
	return &LanguageCache{load: load}
}

// NameFor returns the English name of code. Unknown codes wrap
// models.ErrNotFound. A failed load is not remembered; the next lookup
// retries it.
func (c *LanguageCache) NameFor(ctx context.Context, code string) (string, error) {
	names, err := c.table(ctx)
	if err != nil {
		return "", err
	}
	name, ok := names[strings.ToLower(strings.TrimSpace(code))]
	if !ok {
		return "", fmt.Errorf("%w: language %q", models.ErrNotFound, code)
	}
	return name, nil
}

func (c *LanguageCache) table(ctx context.Context) (map[string]string, error) {
	if names := c.names.Load(); names != nil {
		return *names, nil
	}

	v, err, _ := c.group.Do("languages", func() (interface{}, error) {
		if names := c.names.Load(); names != nil {
			return *names, nil
		}
		langs, err := c.load(ctx)
		if err != nil {
			return nil, err
		}
		names := make(map[string]string, len(langs))
		for _, l := range langs {
			names[strings.ToLower(l.Code)] = l.EnglishName
		}
		c.names.Store(&names)
		logging.Ctx(ctx).Debug().Int("languages", len(names)).Msg("Loaded TMDB language table")
		return names, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(map[string]string), nil
}
