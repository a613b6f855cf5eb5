// Cinelog - Movie Watch History Ledger
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinelog

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const testSecret = "0123456789abcdef0123456789abcdef"

// TestDefaultConfig verifies that defaultConfig() returns proper defaults
func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.TMDB.BaseURL != "https://api.themoviedb.org/3" {
		t.Errorf("TMDB.BaseURL = %q", cfg.TMDB.BaseURL)
	}
	if cfg.TMDB.Cache.Backend != "memory" {
		t.Errorf("TMDB.Cache.Backend = %q, want memory", cfg.TMDB.Cache.Backend)
	}
	if cfg.History.PageSize != 24 {
		t.Errorf("History.PageSize = %d, want 24", cfg.History.PageSize)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Server.Addr() != "0.0.0.0:8080" {
		t.Errorf("Server.Addr() = %q", cfg.Server.Addr())
	}
}

func TestLoadWithKoanf_EnvOverrides(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("TMDB_API_KEY", "key")
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("HTTP_PORT", "9999")
	t.Setenv("TMDB_TIMEOUT", "3s")
	t.Setenv("HISTORY_PAGE_SIZE", "10")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}

	if cfg.Server.Port != 9999 {
		t.Errorf("Server.Port = %d, want 9999", cfg.Server.Port)
	}
	if cfg.TMDB.Timeout != 3*time.Second {
		t.Errorf("TMDB.Timeout = %v, want 3s", cfg.TMDB.Timeout)
	}
	if cfg.History.PageSize != 10 {
		t.Errorf("History.PageSize = %d, want 10", cfg.History.PageSize)
	}
	if len(cfg.Security.CORSOrigins) != 2 || cfg.Security.CORSOrigins[1] != "https://b.example" {
		t.Errorf("CORSOrigins = %v", cfg.Security.CORSOrigins)
	}
}

func TestLoadWithKoanf_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
tmdb:
  api_key: from-file
  cache:
    backend: none
history:
  default_country: DE
security:
  jwt_secret: ` + testSecret + `
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}
	if cfg.TMDB.APIKey != "from-file" {
		t.Errorf("TMDB.APIKey = %q, want from-file", cfg.TMDB.APIKey)
	}
	if cfg.TMDB.Cache.Backend != "none" {
		t.Errorf("Cache.Backend = %q, want none", cfg.TMDB.Cache.Backend)
	}
	if cfg.History.DefaultCountry != "DE" {
		t.Errorf("DefaultCountry = %q, want DE", cfg.History.DefaultCountry)
	}
	// Untouched defaults survive the file layer.
	if cfg.History.PageSize != 24 {
		t.Errorf("PageSize = %d, want 24", cfg.History.PageSize)
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := map[string]string{
		"TMDB_API_KEY":   "tmdb.api_key",
		"DUCKDB_PATH":    "database.path",
		"LOG_LEVEL":      "logging.level",
		"HOME":           "",
		"RANDOM_THING_1": "",
	}
	for in, want := range tests {
		if got := envTransformFunc(in); got != want {
			t.Errorf("envTransformFunc(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := defaultConfig()
		cfg.TMDB.APIKey = "key"
		cfg.Security.JWTSecret = testSecret
		return cfg
	}

	if err := valid().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"missing api key", func(c *Config) { c.TMDB.APIKey = "" }, "TMDB_API_KEY"},
		{"bad base url", func(c *Config) { c.TMDB.BaseURL = "ftp://x" }, "TMDB_BASE_URL"},
		{"bad cache backend", func(c *Config) { c.TMDB.Cache.Backend = "redis" }, "TMDB_CACHE_BACKEND"},
		{"badger without path", func(c *Config) { c.TMDB.Cache.Backend = "badger"; c.TMDB.Cache.Path = "" }, "TMDB_CACHE_PATH"},
		{"port zero", func(c *Config) { c.Server.Port = 0 }, "HTTP_PORT"},
		{"page size zero", func(c *Config) { c.History.PageSize = 0 }, "HISTORY_PAGE_SIZE"},
		{"bad country", func(c *Config) { c.History.DefaultCountry = "USA" }, "HISTORY_DEFAULT_COUNTRY"},
		{"short secret", func(c *Config) { c.Security.JWTSecret = "short" }, "JWT_SECRET"},
		{"wildcard cors in production", func(c *Config) { c.Server.Environment = "production" }, "CORS_ORIGINS"},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, "LOG_LEVEL"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "LOG_FORMAT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %s", err, tt.wantErr)
			}
		})
	}
}
