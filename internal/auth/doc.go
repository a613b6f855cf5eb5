// Cinelog - Movie Watch History Ledger
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinelog

/*
Package auth turns HTTP bearer tokens into caller identities.

Tokens are HS256 JWTs signed with security.jwt_secret. The subject claim is
the numeric user id; an issuer is required when security.jwt_issuer is set.

	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	mw := auth.NewMiddleware(jwtManager, nil)
	r.Use(mw.Identify)

	// in a handler
	viewer := auth.IdentityFromContext(r.Context())

A request without an Authorization header is anonymous. Whether an anonymous
caller may proceed is decided by the handler, not by this package.
*/
package auth
