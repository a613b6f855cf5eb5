// Cinelog - Movie Watch History Ledger
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinelog

package models

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by the storage, sync and HTTP layers. Wrap these with
// fmt.Errorf("%w: ...") and test with errors.Is.
var (
	// ErrValidation marks input rejected before any mutation.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound marks an unknown movie, user or history entry.
	ErrNotFound = errors.New("not found")

	// ErrAuthorizationDenied is reported to clients exactly like ErrNotFound.
	ErrAuthorizationDenied = errors.New("authorization denied")

	// ErrSynchronizationFailed marks a catalog fetch or decode failure. Retryable.
	ErrSynchronizationFailed = errors.New("catalog synchronization failed")

	// ErrCatalogUnavailable marks a TMDB outage or an open circuit breaker.
	ErrCatalogUnavailable = errors.New("catalog unavailable")

	// ErrUnauthenticated marks an operation that needs a signed-in user.
	ErrUnauthenticated = errors.New("authentication required")

	// ErrForbidden marks a mutation of a ledger the caller does not own.
	ErrForbidden = errors.New("forbidden")
)

var (
	ErrInvalidPlays  = fmt.Errorf("%w: plays must be between 1 and %d", ErrValidation, MaxPlays)
	ErrInvalidRating = fmt.Errorf("%w: rating must be between %d and %d", ErrValidation, MinRating, MaxRating)
)
