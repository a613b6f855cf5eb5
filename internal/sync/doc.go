// Cinelog - Movie Watch History Ledger
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinelog

/*
Package sync brings TMDB movie records into the local catalog.

The Synchronizer resolves a TMDB id to a local movie, fetching and storing the
TMDB record (details, genres, cast, crew, production companies) the first
time the id is seen. Later lookups are served from DuckDB without touching
the network.

Concurrency:

Two requests logging the same unknown movie race to insert it. Within one
process the race is coalesced with singleflight. Across processes the
storage layer's unique constraint on tmdb_id decides the winner and the
loser re-reads the winning row, so every caller gets the same local id.

Errors:

Any TMDB failure (transport, non-2xx, malformed payload, open circuit) is
returned wrapped in models.ErrSynchronizationFailed and nothing is stored.
*/
package sync
