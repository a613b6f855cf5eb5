// Cinelog - Movie Watch History Ledger
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinelog

/*
Package main is the entry point for the Cinelog server.

Cinelog keeps a per-user ledger of watched movies. Movies are synchronized
from TMDB the first time somebody logs them and are read from the local
DuckDB database afterwards.

# Component initialization order

 1. Configuration: Koanf v2 (defaults, optional YAML file, environment)
 2. Logging: zerolog
 3. Database: DuckDB with versioned migrations
 4. TMDB: rate-limited client behind a gobreaker circuit breaker, response cache
 5. Synchronizer and visibility authorizer (Casbin)
 6. History service and Chi router
 7. Supervisor tree (suture v4)

# Configuration

	TMDB_API_KEY=<key>            # required
	JWT_SECRET=<32+ chars>        # required
	DUCKDB_PATH=/data/cinelog.duckdb
	HTTP_PORT=8080
	TMDB_CACHE_BACKEND=memory     # memory, badger or none
	LOG_LEVEL=info
	LOG_FORMAT=json

# User administration

Users are created from the command line. The command prints a bearer token
for the new user and exits:

	cinelog -create-user alice:public
	cinelog -issue-token alice -token-ttl 24h

# Signal handling

SIGINT and SIGTERM cancel the supervisor tree. The HTTP server drains
in-flight requests before the database is closed.
*/
package main
