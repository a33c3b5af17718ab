package service

import (
	"context"
	"testing"
	"time"

	"account-service/internal/models"
)

func TestGetUserCacheHit(t *testing.T) {
	f := newFixture("")
	cached := &models.EffectiveUser{
		User:        models.User{ID: "u1", IsEnabled: true},
		Permissions: []models.Permission{models.CanViewUser},
	}
	f.cache.entries["u1"] = cached

	got, err := f.identity.GetUser(context.Background(), "u1")
	if err != nil {
		t.Fatalf("GetUser() error = %v", err)
	}
	if got != cached {
		t.Error("expected the cached identity to be returned unchanged")
	}
}

func TestGetUserCacheMissLoadsStore(t *testing.T) {
	f := newFixture("")
	f.repo.addUser(&models.User{ID: "u1", Role: models.RoleModerator, IsEnabled: true, CreatedOn: time.Now()})
	f.repo.rolePermissions[models.RoleModerator] = []models.Permission{models.CanListUsers}

	got, err := f.identity.GetUser(context.Background(), "u1")
	if err != nil {
		t.Fatalf("GetUser() error = %v", err)
	}
	if len(got.Permissions) != 1 || got.Permissions[0] != models.CanListUsers {
		t.Errorf("permissions = %v, want [CanListUsers]", got.Permissions)
	}
	if f.cache.setCalls != 1 {
		t.Errorf("cache writes = %d, want 1", f.cache.setCalls)
	}
}

func TestGetUserCacheFailureFallsThrough(t *testing.T) {
	f := newFixture("")
	f.cache.getErr = errCacheDown
	f.cache.setErr = errCacheDown
	f.repo.addUser(&models.User{ID: "u1", Role: models.RoleUser, IsEnabled: true, CreatedOn: time.Now()})

	got, err := f.identity.GetUser(context.Background(), "u1")
	if err != nil {
		t.Fatalf("GetUser() should absorb cache failures, got %v", err)
	}
	if got.ID != "u1" {
		t.Errorf("ID = %s, want u1", got.ID)
	}
}

func TestGetUserNotFound(t *testing.T) {
	f := newFixture("")

	_, err := f.identity.GetUser(context.Background(), "missing")
	assertDomainCode(t, err, CodeAccountNotFound)
}

func TestGetCurrentUserUnauthenticated(t *testing.T) {
	f := newFixture("")

	_, err := f.identity.GetCurrentUser(context.Background())
	assertDomainCode(t, err, CodeNotAuthenticated)
}

func TestGetCurrentUserDisabled(t *testing.T) {
	f := newFixture("u1")
	f.cache.entries["u1"] = &models.EffectiveUser{
		User: models.User{ID: "u1", IsEnabled: false},
	}

	_, err := f.identity.GetCurrentUser(context.Background())
	assertDomainCode(t, err, CodeAccountDisabled)
}

func TestResolveUserSuperAdminSkipsRoleLookup(t *testing.T) {
	f := newFixture("")
	user := &models.User{ID: "sa", Role: models.RoleSuperAdmin, IsEnabled: true}

	got, err := f.identity.ResolveUser(context.Background(), user)
	if err != nil {
		t.Fatalf("ResolveUser() error = %v", err)
	}
	if len(got.Permissions) != len(models.AllPermissions()) {
		t.Errorf("permissions = %v, want full universe", got.Permissions)
	}
}
