package permissions

import (
	"testing"
	"time"

	"account-service/internal/models"
)

func TestReconcile(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	later := now.Add(time.Hour)

	t.Run("creates override for granted permission outside role defaults", func(t *testing.T) {
		user := &models.User{ID: "u1"}
		desired := []Desired{{Permission: models.CanViewUser, IsEnabled: true}}

		changed := Reconcile(user, desired, nil, "admin", now)

		if changed != 1 {
			t.Fatalf("changed = %d, want 1", changed)
		}
		o := user.FindOverride(models.CanViewUser)
		if o == nil || !o.IsEnabled {
			t.Fatalf("expected enabled override, got %+v", o)
		}
		if o.CreatedBy != "admin" || !o.CreatedOn.Equal(now) {
			t.Errorf("creation metadata not stamped: %+v", o)
		}
	})

	t.Run("skips override redundant with role default", func(t *testing.T) {
		user := &models.User{ID: "u1", Role: models.RoleAdmin}
		desired := []Desired{{Permission: models.CanViewUser, IsEnabled: true}}
		defaults := []models.Permission{models.CanViewUser}

		changed := Reconcile(user, desired, defaults, "admin", now)

		if changed != 0 {
			t.Errorf("changed = %d, want 0", changed)
		}
		if len(user.PermissionOverrides) != 0 {
			t.Errorf("expected no overrides, got %d", len(user.PermissionOverrides))
		}
	})

	t.Run("skips creating override for desired false", func(t *testing.T) {
		user := &models.User{ID: "u1"}
		desired := []Desired{{Permission: models.CanDeleteUser, IsEnabled: false}}

		if changed := Reconcile(user, desired, nil, "admin", now); changed != 0 {
			t.Errorf("changed = %d, want 0", changed)
		}
		if len(user.PermissionOverrides) != 0 {
			t.Errorf("expected no overrides, got %d", len(user.PermissionOverrides))
		}
	})

	t.Run("flips differing override with fresh metadata", func(t *testing.T) {
		user := &models.User{
			ID: "u1",
			PermissionOverrides: []*models.PermissionOverride{{
				ID:         "o1",
				UserID:     "u1",
				Permission: models.CanViewUser,
				IsEnabled:  false,
				CreatedOn:  now,
				CreatedBy:  "old-admin",
			}},
		}
		desired := []Desired{{Permission: models.CanViewUser, IsEnabled: true}}

		changed := Reconcile(user, desired, nil, "admin", later)

		if changed != 1 {
			t.Fatalf("changed = %d, want 1", changed)
		}
		o := user.PermissionOverrides[0]
		if !o.IsEnabled || o.ModifiedBy != "admin" || o.ModifiedOn == nil || !o.ModifiedOn.Equal(later) {
			t.Errorf("override not flipped with metadata: %+v", o)
		}
		if o.CreatedBy != "old-admin" {
			t.Errorf("creation metadata overwritten: %+v", o)
		}
	})

	t.Run("disables enabled override missing from desired set", func(t *testing.T) {
		user := &models.User{
			ID: "u1",
			PermissionOverrides: []*models.PermissionOverride{{
				ID:         "o1",
				UserID:     "u1",
				Permission: models.CanDeleteUser,
				IsEnabled:  true,
				CreatedOn:  now,
			}},
		}

		changed := Reconcile(user, nil, nil, "admin", later)

		if changed != 1 {
			t.Fatalf("changed = %d, want 1", changed)
		}
		o := user.PermissionOverrides[0]
		if o.IsEnabled || o.ModifiedBy != "admin" {
			t.Errorf("override not revoked: %+v", o)
		}
	})

	t.Run("repeated application changes nothing", func(t *testing.T) {
		user := &models.User{
			ID: "u1",
			PermissionOverrides: []*models.PermissionOverride{{
				ID:         "o1",
				UserID:     "u1",
				Permission: models.CanUpdateUser,
				IsEnabled:  true,
				CreatedOn:  now,
			}},
		}
		desired := []Desired{
			{Permission: models.CanUpdateUser, IsEnabled: true},
			{Permission: models.CanViewUser, IsEnabled: true},
			{Permission: models.CanDeleteUser, IsEnabled: false},
		}

		first := Reconcile(user, desired, nil, "admin", now)
		if first != 1 {
			t.Fatalf("first changed = %d, want 1", first)
		}

		var timestamps []*time.Time
		for _, o := range user.PermissionOverrides {
			timestamps = append(timestamps, o.ModifiedOn)
		}

		second := Reconcile(user, desired, nil, "admin", later)
		if second != 0 {
			t.Fatalf("second changed = %d, want 0", second)
		}
		for i, o := range user.PermissionOverrides {
			if o.ModifiedOn != timestamps[i] {
				t.Errorf("override %s timestamp changed on idempotent call", o.Permission)
			}
		}
	})
}
