// Cinelog - Movie Watch History Ledger
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinelog

/*
Package supervisor runs Cinelog's long-lived components under a suture
supervisor tree.

	cinelog (root)
	├── maintenance-layer
	│   └── tmdb-cache-compaction (badger backend only)
	└── api-layer
	    └── http-server

A crashing maintenance service is restarted with backoff without touching the
API layer. Supervisor events are logged through sutureslog into zerolog.
*/
package supervisor
