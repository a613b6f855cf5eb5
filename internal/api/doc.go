// Cinelog - Movie Watch History Ledger
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinelog

/*
Package api exposes the watch history ledger over HTTP.

All endpoints live under /api/v1 and answer with the standard envelope:

	{"status": "success", "data": ..., "metadata": {"timestamp": ..., "query_time_ms": ...}}

Errors carry an "error" object with a machine readable code. A ledger the
caller may not read answers 404 exactly like a ledger that does not exist.

Callers identify themselves with an HS256 bearer token whose subject is the
numeric user id. Without a token the caller is anonymous and sees only public
ledgers.
*/
package api
