// Cinelog - Movie Watch History Ledger
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinelog

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/tomtom215/cinelog/internal/models"
)

// CreateUser inserts a user and returns it with its assigned id.
func (db *DB) CreateUser(ctx context.Context, name string, privacy models.PrivacyLevel) (*models.User, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	user := &models.User{Name: name, PrivacyLevel: privacy}
	err := db.conn.QueryRowContext(ctx,
		`INSERT INTO users (name, privacy_level) VALUES (?, ?) RETURNING id`, name, int(privacy)).Scan(&user.ID)
	if err != nil {
		if isConstraintViolation(err) {
			return nil, fmt.Errorf("%w: username %q is taken", models.ErrValidation, name)
		}
		return nil, fmt.Errorf("failed to create user %q: %w", name, err)
	}
	return user, nil
}

// FindUserByName returns the user or nil when no user has that name.
func (db *DB) FindUserByName(ctx context.Context, name string) (*models.User, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	return db.findUser(ctx, `SELECT id, name, privacy_level FROM users WHERE name = ?`, name)
}

// FindUserByID returns the user or nil when the id is unknown.
func (db *DB) FindUserByID(ctx context.Context, id int) (*models.User, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	return db.findUser(ctx, `SELECT id, name, privacy_level FROM users WHERE id = ?`, id)
}

func (db *DB) findUser(ctx context.Context, query string, arg interface{}) (*models.User, error) {
	var (
		u       models.User
		privacy int
	)
	err := db.conn.QueryRowContext(ctx, query, arg).Scan(&u.ID, &u.Name, &privacy)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	u.PrivacyLevel = models.PrivacyLevel(privacy)
	return &u, nil
}

// ListUsers returns all users ordered by name.
func (db *DB) ListUsers(ctx context.Context) ([]models.User, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, `SELECT id, name, privacy_level FROM users ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		var (
			u       models.User
			privacy int
		)
		if err := rows.Scan(&u.ID, &u.Name, &privacy); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		u.PrivacyLevel = models.PrivacyLevel(privacy)
		users = append(users, u)
	}
	return users, rows.Err()
}

// SetPrivacyLevel changes who may read a user's ledger.
func (db *DB) SetPrivacyLevel(ctx context.Context, userID int, privacy models.PrivacyLevel) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	result, err := db.conn.ExecContext(ctx, `UPDATE users SET privacy_level = ? WHERE id = ?`, int(privacy), userID)
	if err != nil {
		return fmt.Errorf("failed to set privacy of user %d: %w", userID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: user %d", models.ErrNotFound, userID)
	}
	return nil
}

// ViewGrant allows Viewer to read Owner's ledger regardless of privacy level.
type ViewGrant struct {
	OwnerID  int
	ViewerID int
}

// AddViewGrant stores an explicit view permission. Idempotent.
func (db *DB) AddViewGrant(ctx context.Context, ownerID, viewerID int) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO user_view_grants (owner_id, viewer_id) VALUES (?, ?) ON CONFLICT DO NOTHING`, ownerID, viewerID)
	if err != nil {
		return fmt.Errorf("failed to grant user %d view of user %d: %w", viewerID, ownerID, err)
	}
	return nil
}

// RemoveViewGrant deletes an explicit view permission. Idempotent.
func (db *DB) RemoveViewGrant(ctx context.Context, ownerID, viewerID int) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	_, err := db.conn.ExecContext(ctx,
		`DELETE FROM user_view_grants WHERE owner_id = ? AND viewer_id = ?`, ownerID, viewerID)
	if err != nil {
		return fmt.Errorf("failed to revoke view grant: %w", err)
	}
	return nil
}

// ListViewGrants returns every stored view permission.
func (db *DB) ListViewGrants(ctx context.Context) ([]ViewGrant, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, `SELECT owner_id, viewer_id FROM user_view_grants ORDER BY owner_id, viewer_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list view grants: %w", err)
	}
	defer rows.Close()

	grants := []ViewGrant{}
	for rows.Next() {
		var g ViewGrant
		if err := rows.Scan(&g.OwnerID, &g.ViewerID); err != nil {
			return nil, fmt.Errorf("failed to scan view grant: %w", err)
		}
		grants = append(grants, g)
	}
	return grants, rows.Err()
}
