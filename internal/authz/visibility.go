// Cinelog - Movie Watch History Ledger
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinelog

package authz

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/casbin/casbin/v2"

	"github.com/tomtom215/cinelog/internal/database"
	"github.com/tomtom215/cinelog/internal/logging"
	"github.com/tomtom215/cinelog/internal/models"
)

// UserStore is the user part of the database layer.
type UserStore interface {
	FindUserByName(ctx context.Context, name string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	ListViewGrants(ctx context.Context) ([]database.ViewGrant, error)
	AddViewGrant(ctx context.Context, ownerID, viewerID int) error
	RemoveViewGrant(ctx context.Context, ownerID, viewerID int) error
}

// VisibilityAuthorizer gates reads of a user's ledger:
//   - owners always see their own ledger
//   - public ledgers are visible to everyone
//   - members-only ledgers are visible to any authenticated viewer
//   - a stored view grant opens one ledger to one named viewer
type VisibilityAuthorizer struct {
	store    UserStore
	enforcer atomic.Pointer[casbin.SyncedEnforcer]
	mu       sync.Mutex // serializes grant changes and reloads
}

// NewVisibilityAuthorizer creates an authorizer and loads stored grants.
func NewVisibilityAuthorizer(ctx context.Context, store UserStore) (*VisibilityAuthorizer, error) {
	a := &VisibilityAuthorizer{store: store}
	if err := a.Reload(ctx); err != nil {
		return nil, err
	}
	return a, nil
}

// Reload rebuilds the policy from the database. In-flight checks keep using
// the previous enforcer until the new one is complete.
func (a *VisibilityAuthorizer) Reload(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	grants, err := a.store.ListViewGrants(ctx)
	if err != nil {
		return fmt.Errorf("failed to load view grants: %w", err)
	}
	pairs := make([][2]int, 0, len(grants))
	for _, g := range grants {
		pairs = append(pairs, [2]int{g.OwnerID, g.ViewerID})
	}

	enforcer, err := newEnforcer(pairs)
	if err != nil {
		return err
	}
	a.enforcer.Store(enforcer)
	logging.Ctx(ctx).Debug().Int("grants", len(pairs)).Msg("Loaded visibility policy")
	return nil
}

// CanView returns the id of targetUsername when viewer may read that
// ledger. It returns nil both for an unknown user and for a denied viewer,
// so callers cannot tell the two apart. The error is reserved for storage
// and policy failures.
func (a *VisibilityAuthorizer) CanView(ctx context.Context, viewer models.Identity, targetUsername string) (*int, error) {
	user, err := a.store.FindUserByName(ctx, targetUsername)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, nil
	}

	allowed, err := a.allowed(viewer, user)
	if err != nil {
		return nil, err
	}
	if !allowed {
		logging.Ctx(ctx).Debug().Str("target", targetUsername).Msg("Ledger view denied")
		return nil, nil
	}
	id := user.ID
	return &id, nil
}

// ListVisibleUsernames returns, sorted by name, every user whose ledger
// viewer may read.
func (a *VisibilityAuthorizer) ListVisibleUsernames(ctx context.Context, viewer models.Identity) ([]string, error) {
	users, err := a.store.ListUsers(ctx)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(users))
	for i := range users {
		allowed, err := a.allowed(viewer, &users[i])
		if err != nil {
			return nil, err
		}
		if allowed {
			names = append(names, users[i].Name)
		}
	}
	return names, nil
}

// Grant lets viewerID read ownerID's ledger regardless of privacy level.
func (a *VisibilityAuthorizer) Grant(ctx context.Context, ownerID, viewerID int) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.store.AddViewGrant(ctx, ownerID, viewerID); err != nil {
		return err
	}
	if _, err := a.enforcer.Load().AddPolicy(userSubject(viewerID), userSubject(ownerID), actView); err != nil {
		return fmt.Errorf("failed to add view grant policy: %w", err)
	}
	return nil
}

// Revoke removes a grant made with Grant.
func (a *VisibilityAuthorizer) Revoke(ctx context.Context, ownerID, viewerID int) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.store.RemoveViewGrant(ctx, ownerID, viewerID); err != nil {
		return err
	}
	if _, err := a.enforcer.Load().RemovePolicy(userSubject(viewerID), userSubject(ownerID), actView); err != nil {
		return fmt.Errorf("failed to remove view grant policy: %w", err)
	}
	return nil
}

func (a *VisibilityAuthorizer) allowed(viewer models.Identity, owner *models.User) (bool, error) {
	sub, role := roleAnonymous, roleAnonymous
	if !viewer.IsAnonymous() {
		sub, role = userSubject(viewer.UserID), roleMember
	}

	ok, err := a.enforcer.Load().Enforce(sub, role, userSubject(owner.ID), owner.PrivacyLevel.String(), actView)
	if err != nil {
		return false, fmt.Errorf("visibility enforcement failed: %w", err)
	}
	return ok, nil
}
