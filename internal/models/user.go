// Cinelog - Movie Watch History Ledger
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinelog

package models

// PrivacyLevel controls who may read a user's ledger.
type PrivacyLevel int

const (
	// PrivacyPrivate: owner and explicitly granted viewers only.
	PrivacyPrivate PrivacyLevel = 0
	// PrivacyMembers: any authenticated user.
	PrivacyMembers PrivacyLevel = 1
	// PrivacyPublic: everyone, including anonymous visitors.
	PrivacyPublic PrivacyLevel = 2
)

// String returns the policy object name used by the authorizer.
func (p PrivacyLevel) String() string {
	switch p {
	case PrivacyPublic:
		return "public"
	case PrivacyMembers:
		return "members"
	default:
		return "private"
	}
}

// User is a ledger owner.
type User struct {
	ID           int          `json:"id"`
	Name         string       `json:"name"`
	PrivacyLevel PrivacyLevel `json:"privacy_level"`
}

// Valid reports whether p is one of the defined levels.
func (p PrivacyLevel) Valid() bool {
	return p >= PrivacyPrivate && p <= PrivacyPublic
}

// Identity is the already-authenticated caller of an operation. The zero
// Identity is an anonymous visitor; user ids start at 1.
type Identity struct {
	UserID int
}

// Anonymous is the identity of an unauthenticated visitor.
var Anonymous = Identity{}

// IsAnonymous reports whether no user is authenticated.
func (i Identity) IsAnonymous() bool {
	return i.UserID <= 0
}
