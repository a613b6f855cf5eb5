// Cinelog - Movie Watch History Ledger
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinelog

package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/tomtom215/cinelog/internal/models"
	"github.com/tomtom215/cinelog/internal/validation"
)

// userAdmin is the database surface the admin commands need.
type userAdmin interface {
	CreateUser(ctx context.Context, name string, privacy models.PrivacyLevel) (*models.User, error)
	FindUserByName(ctx context.Context, name string) (*models.User, error)
}

type tokenIssuer interface {
	GenerateToken(userID int, ttl time.Duration) (string, error)
}

// runAdmin handles -create-user and -issue-token, writing the token to out.
func runAdmin(ctx context.Context, store userAdmin, issuer tokenIssuer, createSpec, tokenFor string, ttl time.Duration, out io.Writer) error {
	var user *models.User
	switch {
	case createSpec != "":
		name, privacy, err := parseUserSpec(createSpec)
		if err != nil {
			return err
		}
		if user, err = store.CreateUser(ctx, name, privacy); err != nil {
			return err
		}
	default:
		var err error
		if user, err = store.FindUserByName(ctx, tokenFor); err != nil {
			return err
		}
		if user == nil {
			return fmt.Errorf("%w: user %q", models.ErrNotFound, tokenFor)
		}
	}

	token, err := issuer.GenerateToken(user.ID, ttl)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "user=%s id=%d privacy=%s\ntoken=%s\n", user.Name, user.ID, user.PrivacyLevel, token)
	return err
}

// parseUserSpec parses "name" or "name:privacy". Privacy defaults to private.
func parseUserSpec(spec string) (string, models.PrivacyLevel, error) {
	name, level, hasLevel := strings.Cut(spec, ":")
	name = strings.TrimSpace(name)
	if name == "" || strings.ContainsAny(name, "/ ") {
		return "", 0, fmt.Errorf("%w: invalid username %q", models.ErrValidation, name)
	}
	if !hasLevel {
		return name, models.PrivacyPrivate, nil
	}
	privacy, ok := validation.ParsePrivacyLevel(level)
	if !ok {
		return "", 0, fmt.Errorf("%w: unknown privacy level %q", models.ErrValidation, level)
	}
	return name, privacy, nil
}
