package permissions

import (
	"reflect"
	"testing"

	"account-service/internal/models"
)

func override(p models.Permission, enabled bool) *models.PermissionOverride {
	return &models.PermissionOverride{
		ID:         "ovr-" + p.String(),
		Permission: p,
		IsEnabled:  enabled,
	}
}

func TestResolve(t *testing.T) {
	t.Run("role defaults only", func(t *testing.T) {
		user := &models.User{Role: models.RoleModerator}
		defaults := []models.Permission{models.CanListUsers, models.CanViewUser}

		got := Resolve(user, defaults)
		want := []models.Permission{models.CanListUsers, models.CanViewUser}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("Resolve() = %v, want %v", got, want)
		}
	})

	t.Run("enabled override adds to role defaults", func(t *testing.T) {
		user := &models.User{
			Role:                models.RoleUser,
			PermissionOverrides: []*models.PermissionOverride{override(models.CanViewUser, true)},
		}

		got := Resolve(user, nil)
		want := []models.Permission{models.CanViewUser}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("Resolve() = %v, want %v", got, want)
		}
	})

	t.Run("denial wins over role default", func(t *testing.T) {
		user := &models.User{
			Role:                models.RoleAdmin,
			PermissionOverrides: []*models.PermissionOverride{override(models.CanDeleteUser, false)},
		}
		defaults := []models.Permission{models.CanListUsers, models.CanDeleteUser}

		got := Resolve(user, defaults)
		want := []models.Permission{models.CanListUsers}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("Resolve() = %v, want %v", got, want)
		}
	})

	t.Run("superadmin gets full universe regardless of overrides", func(t *testing.T) {
		user := &models.User{
			Role:                models.RoleSuperAdmin,
			PermissionOverrides: []*models.PermissionOverride{override(models.CanListUsers, false)},
		}

		got := Resolve(user, nil)
		if !reflect.DeepEqual(got, models.AllPermissions()) {
			t.Errorf("Resolve() = %v, want full permission set", got)
		}
	})

	t.Run("no data yields empty set", func(t *testing.T) {
		user := &models.User{Role: models.RoleUser}
		if got := Resolve(user, nil); len(got) != 0 {
			t.Errorf("Resolve() = %v, want empty", got)
		}
	})

	t.Run("result is sorted", func(t *testing.T) {
		user := &models.User{
			Role: models.RoleUser,
			PermissionOverrides: []*models.PermissionOverride{
				override(models.CanUpdateUserPassword, true),
				override(models.CanListUsers, true),
			},
		}

		got := Resolve(user, []models.Permission{models.CanUpdateUser})
		want := []models.Permission{models.CanListUsers, models.CanUpdateUser, models.CanUpdateUserPassword}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("Resolve() = %v, want %v", got, want)
		}
	})
}
