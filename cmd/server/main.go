// Cinelog - Movie Watch History Ledger
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinelog

package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/cinelog/internal/api"
	"github.com/tomtom215/cinelog/internal/auth"
	"github.com/tomtom215/cinelog/internal/authz"
	"github.com/tomtom215/cinelog/internal/config"
	"github.com/tomtom215/cinelog/internal/database"
	"github.com/tomtom215/cinelog/internal/history"
	"github.com/tomtom215/cinelog/internal/logging"
	"github.com/tomtom215/cinelog/internal/supervisor"
	"github.com/tomtom215/cinelog/internal/supervisor/services"
	moviesync "github.com/tomtom215/cinelog/internal/sync"
	"github.com/tomtom215/cinelog/internal/tmdb"
)

func main() {
	createUser := flag.String("create-user", "", "create a user (name:privacy) and print a bearer token")
	issueToken := flag.String("issue-token", "", "print a bearer token for an existing user")
	tokenTTL := flag.Duration("token-ttl", 30*24*time.Hour, "lifetime of printed tokens")
	flag.Parse()

	cfg, err := config.LoadWithKoanf()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()

	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize token signing")
	}

	if *createUser != "" || *issueToken != "" {
		if err := runAdmin(context.Background(), db, jwtManager, *createUser, *issueToken, *tokenTTL, os.Stdout); err != nil {
			logging.Error().Err(err).Msg("User administration failed")
			os.Exit(1)
		}
		return
	}

	if err := run(cfg, db, jwtManager); err != nil {
		logging.Error().Err(err).Msg("Server stopped with error")
		os.Exit(1)
	}
}

func run(cfg *config.Config, db *database.DB, jwtManager *auth.JWTManager) error {
	logging.Info().
		Str("db_path", cfg.Database.Path).
		Str("tmdb_cache", cfg.TMDB.Cache.Backend).
		Str("environment", cfg.Server.Environment).
		Msg("Starting Cinelog")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	responseCache, err := tmdb.NewResponseCache(cfg.TMDB.Cache)
	if err != nil {
		return err
	}
	defer func() {
		if err := responseCache.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing TMDB cache")
		}
	}()

	breaker := tmdb.NewCircuitBreakerClient(&cfg.TMDB)
	gateway := tmdb.NewGateway(breaker, responseCache)

	authorizer, err := authz.NewVisibilityAuthorizer(ctx, db)
	if err != nil {
		return err
	}

	svc := history.NewService(db, moviesync.NewSynchronizer(db, gateway), gateway, authorizer, cfg.History)
	router := api.NewRouter(api.NewHandler(svc, db, breaker), jwtManager, api.ChiMiddlewareConfigFromSecurity(&cfg.Security))

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       2 * cfg.Server.Timeout,
	}

	tree := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	if cfg.TMDB.Cache.Backend == tmdb.CacheBackendBadger && cfg.TMDB.Cache.GCInterval > 0 {
		tree.AddMaintenanceService(services.NewCacheCompactionService(responseCache, cfg.TMDB.Cache.GCInterval))
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Str("addr", server.Addr).Msg("Starting supervisor tree")
	for err := range tree.ServeBackground(ctx) {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	if unstopped, _ := tree.UnstoppedServiceReport(); len(unstopped) > 0 {
		for _, s := range unstopped {
			logging.Warn().Str("service", s.Name).Msg("Service failed to stop within timeout")
		}
	}

	logging.Info().Msg("Cinelog stopped")
	return nil
}
