// Cinelog - Movie Watch History Ledger
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinelog

package authz

import (
	"context"
	"errors"
	"reflect"
	"sort"
	"sync"
	"testing"

	"github.com/tomtom215/cinelog/internal/database"
	"github.com/tomtom215/cinelog/internal/models"
)

type fakeUserStore struct {
	mu     sync.Mutex
	users  []models.User
	grants map[database.ViewGrant]bool
	err    error
}

func newFakeUserStore(users ...models.User) *fakeUserStore {
	return &fakeUserStore{users: users, grants: map[database.ViewGrant]bool{}}
}

func (f *fakeUserStore) FindUserByName(ctx context.Context, name string) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	for i := range f.users {
		if f.users[i].Name == name {
			u := f.users[i]
			return &u, nil
		}
	}
	return nil, nil
}

func (f *fakeUserStore) ListUsers(ctx context.Context) ([]models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	users := append([]models.User(nil), f.users...)
	sort.Slice(users, func(i, j int) bool { return users[i].Name < users[j].Name })
	return users, nil
}

func (f *fakeUserStore) ListViewGrants(ctx context.Context) ([]database.ViewGrant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	grants := []database.ViewGrant{}
	for g := range f.grants {
		grants = append(grants, g)
	}
	return grants, nil
}

func (f *fakeUserStore) AddViewGrant(ctx context.Context, ownerID, viewerID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.grants[database.ViewGrant{OwnerID: ownerID, ViewerID: viewerID}] = true
	return nil
}

func (f *fakeUserStore) RemoveViewGrant(ctx context.Context, ownerID, viewerID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.grants, database.ViewGrant{OwnerID: ownerID, ViewerID: viewerID})
	return nil
}

var (
	alice = models.User{ID: 1, Name: "alice", PrivacyLevel: models.PrivacyPublic}
	bob   = models.User{ID: 2, Name: "bob", PrivacyLevel: models.PrivacyMembers}
	carol = models.User{ID: 3, Name: "carol", PrivacyLevel: models.PrivacyPrivate}
	dave  = models.User{ID: 4, Name: "dave", PrivacyLevel: models.PrivacyPrivate}
)

func newTestAuthorizer(t *testing.T) (*VisibilityAuthorizer, *fakeUserStore) {
	t.Helper()
	store := newFakeUserStore(alice, bob, carol, dave)
	a, err := NewVisibilityAuthorizer(context.Background(), store)
	if err != nil {
		t.Fatalf("NewVisibilityAuthorizer() error = %v", err)
	}
	return a, store
}

func TestCanView(t *testing.T) {
	a, _ := newTestAuthorizer(t)

	tests := []struct {
		name   string
		viewer models.Identity
		target string
		want   *int
	}{
		{"anonymous sees public", models.Anonymous, "alice", &alice.ID},
		{"anonymous denied members", models.Anonymous, "bob", nil},
		{"anonymous denied private", models.Anonymous, "carol", nil},
		{"member sees public", models.Identity{UserID: dave.ID}, "alice", &alice.ID},
		{"member sees members", models.Identity{UserID: dave.ID}, "bob", &bob.ID},
		{"member denied private", models.Identity{UserID: dave.ID}, "carol", nil},
		{"owner sees own private", models.Identity{UserID: carol.ID}, "carol", &carol.ID},
		{"unknown user", models.Identity{UserID: carol.ID}, "nobody", nil},
		{"unknown user anonymous", models.Anonymous, "nobody", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := a.CanView(context.Background(), tt.viewer, tt.target)
			if err != nil {
				t.Fatalf("CanView() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("CanView() = %v, want %v", deref(got), deref(tt.want))
			}
		})
	}
}

func TestCanView_UnknownAndDeniedAreIndistinguishable(t *testing.T) {
	a, _ := newTestAuthorizer(t)
	ctx := context.Background()

	denied, deniedErr := a.CanView(ctx, models.Anonymous, "carol")
	unknown, unknownErr := a.CanView(ctx, models.Anonymous, "does-not-exist")

	if denied != nil || unknown != nil || deniedErr != nil || unknownErr != nil {
		t.Errorf("denied=(%v,%v) unknown=(%v,%v), want both (nil,nil)", denied, deniedErr, unknown, unknownErr)
	}
}

func TestCanView_StorageError(t *testing.T) {
	a, store := newTestAuthorizer(t)
	store.err = errors.New("database is closed")

	if _, err := a.CanView(context.Background(), models.Anonymous, "alice"); err == nil {
		t.Error("storage failure must surface as an error")
	}
}

func TestGrantAndRevoke(t *testing.T) {
	a, store := newTestAuthorizer(t)
	ctx := context.Background()
	viewer := models.Identity{UserID: dave.ID}

	if got, _ := a.CanView(ctx, viewer, "carol"); got != nil {
		t.Fatal("dave must not see carol before the grant")
	}

	if err := a.Grant(ctx, carol.ID, dave.ID); err != nil {
		t.Fatalf("Grant() error = %v", err)
	}
	if got, _ := a.CanView(ctx, viewer, "carol"); got == nil || *got != carol.ID {
		t.Errorf("dave must see carol after the grant, got %v", deref(got))
	}
	if got, _ := a.CanView(ctx, models.Identity{UserID: bob.ID}, "carol"); got != nil {
		t.Error("grant leaked to another viewer")
	}

	// A fresh authorizer picks the grant up from storage.
	reloaded, err := NewVisibilityAuthorizer(ctx, store)
	if err != nil {
		t.Fatal(err)
	}
	if got, _ := reloaded.CanView(ctx, viewer, "carol"); got == nil {
		t.Error("stored grant not loaded")
	}

	if err := a.Revoke(ctx, carol.ID, dave.ID); err != nil {
		t.Fatalf("Revoke() error = %v", err)
	}
	if got, _ := a.CanView(ctx, viewer, "carol"); got != nil {
		t.Error("dave still sees carol after revoke")
	}
}

func TestListVisibleUsernames(t *testing.T) {
	a, _ := newTestAuthorizer(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		viewer models.Identity
		want   []string
	}{
		{"anonymous", models.Anonymous, []string{"alice"}},
		{"member", models.Identity{UserID: dave.ID}, []string{"alice", "bob", "dave"}},
		{"private owner", models.Identity{UserID: carol.ID}, []string{"alice", "bob", "carol"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := a.ListVisibleUsernames(ctx, tt.viewer)
			if err != nil {
				t.Fatalf("ListVisibleUsernames() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func deref(p *int) interface{} {
	if p == nil {
		return nil
	}
	return *p
}
