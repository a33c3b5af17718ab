package service

import (
	"context"
	"testing"
	"time"

	"account-service/internal/encryption"
	"account-service/internal/models"
	"account-service/internal/util"
)

type adminFixture struct {
	*fixture
	admin *AdminService
	actor *models.User
}

func newAdminFixture(t *testing.T, actorRole models.Role) *adminFixture {
	t.Helper()
	f := newFixture("actor")
	cfg := testConfig()
	encryptionMgr := encryption.NewManager(cfg, nil)
	logger := util.Get()

	users := NewUserService(f.repo, f.hasher, encryptionMgr, f.identity, nil, logger)
	admin := NewAdminService(f.repo, f.hasher, encryptionMgr, f.identity, users, nil, logger)

	actor := &models.User{ID: "actor", Role: actorRole, IsEnabled: true, CreatedOn: time.Now()}
	f.repo.addUser(actor)

	return &adminFixture{fixture: f, admin: admin, actor: actor}
}

func TestAdminRequiresPermission(t *testing.T) {
	f := newAdminFixture(t, models.RoleUser)

	_, err := f.admin.ListUsers(context.Background())
	assertDomainCode(t, err, CodeNotAuthorized)
}

func TestAdminUpdateUserSkipsRedundantOverride(t *testing.T) {
	f := newAdminFixture(t, models.RoleSuperAdmin)
	f.repo.rolePermissions[models.RoleAdmin] = []models.Permission{models.CanViewUser}

	target := &models.User{ID: "target", Role: models.RoleUser, IsEnabled: true, CreatedOn: time.Now()}
	f.repo.addUser(target)

	role := models.RoleAdmin
	updated, err := f.admin.UpdateUser(context.Background(), "target", AdminUpdateUserRequest{
		Role: &role,
		Permissions: []PermissionAssignment{
			{Permission: models.CanViewUser, IsEnabled: true},
		},
	})
	if err != nil {
		t.Fatalf("UpdateUser() error = %v", err)
	}

	if updated.Role != models.RoleAdmin {
		t.Errorf("role = %s, want Admin", updated.Role)
	}
	if len(updated.PermissionOverrides) != 0 {
		t.Errorf("overrides = %d, want 0: CanViewUser is an Admin role default", len(updated.PermissionOverrides))
	}
	if f.cache.removeCalls != 1 {
		t.Errorf("cache invalidations = %d, want 1", f.cache.removeCalls)
	}
}

func TestAdminUpdateUserCreatesAndRevokesOverrides(t *testing.T) {
	f := newAdminFixture(t, models.RoleSuperAdmin)

	now := time.Now()
	target := &models.User{
		ID: "target", Role: models.RoleUser, IsEnabled: true, CreatedOn: now,
		PermissionOverrides: []*models.PermissionOverride{{
			ID: "o1", UserID: "target", Permission: models.CanDeleteUser, IsEnabled: true, CreatedOn: now,
		}},
	}
	f.repo.addUser(target)

	updated, err := f.admin.UpdateUser(context.Background(), "target", AdminUpdateUserRequest{
		Permissions: []PermissionAssignment{
			{Permission: models.CanViewUser, IsEnabled: true},
		},
	})
	if err != nil {
		t.Fatalf("UpdateUser() error = %v", err)
	}

	viewOverride := updated.FindOverride(models.CanViewUser)
	if viewOverride == nil || !viewOverride.IsEnabled {
		t.Errorf("expected enabled CanViewUser override, got %+v", viewOverride)
	}
	deleteOverride := updated.FindOverride(models.CanDeleteUser)
	if deleteOverride == nil || deleteOverride.IsEnabled {
		t.Errorf("expected CanDeleteUser override revoked, got %+v", deleteOverride)
	}
	if deleteOverride != nil && deleteOverride.ModifiedBy != "actor" {
		t.Errorf("revocation not attributed to actor: %+v", deleteOverride)
	}
}

func TestAdminUnlockUser(t *testing.T) {
	f := newAdminFixture(t, models.RoleSuperAdmin)

	target := &models.User{ID: "target", Role: models.RoleUser, IsEnabled: true, LoginFailureCount: 5, CreatedOn: time.Now()}
	f.repo.addUser(target)

	if err := f.admin.UnlockUser(context.Background(), "target"); err != nil {
		t.Fatalf("UnlockUser() error = %v", err)
	}
	if target.LoginFailureCount != 0 {
		t.Errorf("loginFailureCount = %d, want 0", target.LoginFailureCount)
	}
	if f.cache.removeCalls != 1 {
		t.Errorf("cache invalidations = %d, want 1", f.cache.removeCalls)
	}
}

func TestAdminDeleteUserDisables(t *testing.T) {
	f := newAdminFixture(t, models.RoleSuperAdmin)

	target := &models.User{ID: "target", Role: models.RoleUser, IsEnabled: true, CreatedOn: time.Now()}
	f.repo.addUser(target)

	if err := f.admin.DeleteUser(context.Background(), "target"); err != nil {
		t.Fatalf("DeleteUser() error = %v", err)
	}
	if target.IsEnabled {
		t.Error("expected user to be disabled")
	}
	if _, err := f.repo.FindUserByID(context.Background(), "target"); err != nil {
		t.Error("disabled user should still exist")
	}
}

func TestAdminUpdatePasswordPolicy(t *testing.T) {
	f := newAdminFixture(t, models.RoleSuperAdmin)

	target := &models.User{ID: "target", Role: models.RoleUser, IsEnabled: true, CreatedOn: time.Now()}
	f.repo.addUser(target)

	err := f.admin.UpdatePassword(context.Background(), "target", "weak")
	assertDomainCode(t, err, CodeInvalidPassword)
}

func TestAdminCreateUserInvalidRole(t *testing.T) {
	f := newAdminFixture(t, models.RoleSuperAdmin)

	_, err := f.admin.CreateUser(context.Background(), AdminCreateUserRequest{
		Email:    "new@test.com",
		Password: "Str0ng!pass",
		Role:     models.Role(7),
	})
	assertDomainCode(t, err, CodeInvalidRole)
}
