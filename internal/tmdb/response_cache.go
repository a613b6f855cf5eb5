// Cinelog - Movie Watch History Ledger
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinelog

package tmdb

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/tomtom215/cinelog/internal/cache"
	"github.com/tomtom215/cinelog/internal/config"
	"github.com/tomtom215/cinelog/internal/logging"
	"github.com/tomtom215/cinelog/internal/metrics"
)

// Cache backends selectable with tmdb.cache.backend.
const (
	CacheBackendMemory = "memory"
	CacheBackendBadger = "badger"
	CacheBackendNone   = "none"
)

// ResponseCache stores raw TMDB response bodies for reference data that
// rarely changes (people, companies, watch providers). Movie details are
// never cached: synchronization must see the current catalog.
type ResponseCache interface {
	Get(key string) ([]byte, bool)
	Set(key string, body []byte)
	// Compact reclaims space held by expired entries.
	Compact() error
	Close() error
}

// NewResponseCache builds the backend named by cfg.Backend.
func NewResponseCache(cfg config.CacheConfig) (ResponseCache, error) {
	switch cfg.Backend {
	case CacheBackendMemory, "":
		return newMemoryResponseCache(cfg.TTL), nil
	case CacheBackendBadger:
		return newBadgerResponseCache(cfg.Path, cfg.TTL)
	case CacheBackendNone:
		return noopResponseCache{}, nil
	default:
		return nil, fmt.Errorf("unknown tmdb cache backend %q", cfg.Backend)
	}
}

type memoryResponseCache struct {
	c *cache.Cache
}

func newMemoryResponseCache(ttl time.Duration) *memoryResponseCache {
	return &memoryResponseCache{c: cache.New(ttl)}
}

func (m *memoryResponseCache) Get(key string) ([]byte, bool) {
	v, ok := m.c.Get(key)
	if !ok {
		metrics.CacheMisses.WithLabelValues("tmdb_memory").Inc()
		return nil, false
	}
	body, ok := v.([]byte)
	if ok {
		metrics.CacheHits.WithLabelValues("tmdb_memory").Inc()
	}
	return body, ok
}

func (m *memoryResponseCache) Set(key string, body []byte) {
	m.c.Set(key, body)
}

// Compact is a no-op: the memory cache sweeps itself.
func (m *memoryResponseCache) Compact() error { return nil }

func (m *memoryResponseCache) Close() error {
	m.c.Close()
	return nil
}

// badgerResponseCache persists bodies across restarts. Entries carry a
// badger TTL so expiry needs no sweep of our own.
type badgerResponseCache struct {
	db       *badger.DB
	ttl      time.Duration
	inMemory bool
}

// newBadgerResponseCache opens a badger store at path, or an in-memory one
// when path is empty.
func newBadgerResponseCache(path string, ttl time.Duration) (*badgerResponseCache, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	if path == "" {
		opts = opts.WithInMemory(true)
	} else if err := os.MkdirAll(path, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger cache: %w", err)
	}
	return &badgerResponseCache{db: db, ttl: ttl, inMemory: path == ""}, nil
}

func (b *badgerResponseCache) Get(key string) ([]byte, bool) {
	var body []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		body, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if !errors.Is(err, badger.ErrKeyNotFound) {
			logging.Warn().Err(err).Str("key", key).Msg("TMDB cache read failed")
		}
		metrics.CacheMisses.WithLabelValues("tmdb_badger").Inc()
		return nil, false
	}
	metrics.CacheHits.WithLabelValues("tmdb_badger").Inc()
	return body, true
}

func (b *badgerResponseCache) Set(key string, body []byte) {
	err := b.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(key), body)
		if b.ttl > 0 {
			e = e.WithTTL(b.ttl)
		}
		return txn.SetEntry(e)
	})
	if err != nil {
		logging.Warn().Err(err).Str("key", key).Msg("TMDB cache write failed")
	}
}

// Compact runs value log GC until badger finds nothing left to rewrite.
func (b *badgerResponseCache) Compact() error {
	if b.inMemory {
		return nil
	}
	for {
		err := b.db.RunValueLogGC(0.5)
		if errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrRejected) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("badger value log gc: %w", err)
		}
	}
}

func (b *badgerResponseCache) Close() error {
	return b.db.Close()
}

type noopResponseCache struct{}

func (noopResponseCache) Get(string) ([]byte, bool) { return nil, false }
func (noopResponseCache) Set(string, []byte)        {}
func (noopResponseCache) Compact() error            { return nil }
func (noopResponseCache) Close() error              { return nil }
