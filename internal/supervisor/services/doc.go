// Cinelog - Movie Watch History Ledger
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinelog

// Package services adapts long-running Cinelog components to suture.Service.
//
// Each wrapper blocks in Serve until its context is canceled and returns
// ctx.Err() on a clean stop, so suture never restarts a service that was
// asked to stop.
package services
