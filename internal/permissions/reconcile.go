package permissions

import (
	"time"

	"account-service/internal/models"

	"github.com/google/uuid"
)

// Desired is one entry of the permission list an administrator submits.
type Desired struct {
	Permission models.Permission
	IsEnabled  bool
}

// Reconcile applies a desired permission list to the user's override records.
// It must run after the user's Role field has been updated to the target
// role; roleDefaults are the enabled defaults of that new role.
//
// Rules:
//   - an existing override whose enabled flag differs from the desired flag
//     is flipped with fresh modification metadata; one that already matches
//     is left untouched, so repeated application changes nothing
//   - no override is created for a desired "false" (absence already means
//     not granted) or for a desired "true" the new role grants by default
//   - overrides whose permission is missing from the desired list entirely
//     are set disabled: dropping a permission is an explicit revocation
//
// Overrides are never removed, preserving their history. Returns the number
// of overrides created or modified.
func Reconcile(user *models.User, desired []Desired, roleDefaults []models.Permission, actingUserID string, now time.Time) int {
	defaults := make(map[models.Permission]bool, len(roleDefaults))
	for _, p := range roleDefaults {
		defaults[p] = true
	}

	changed := 0

	for _, d := range desired {
		existing := user.FindOverride(d.Permission)
		if existing != nil {
			if existing.IsEnabled != d.IsEnabled {
				setModified(existing, actingUserID, d.IsEnabled, now)
				changed++
			}
			continue
		}

		if !d.IsEnabled {
			continue
		}
		if defaults[d.Permission] {
			// Redundant with the role default; keep no override.
			continue
		}

		user.PermissionOverrides = append(user.PermissionOverrides, &models.PermissionOverride{
			ID:         uuid.New().String(),
			UserID:     user.ID,
			Permission: d.Permission,
			IsEnabled:  true,
			CreatedOn:  now,
			CreatedBy:  actingUserID,
		})
		changed++
	}

	wanted := make(map[models.Permission]bool, len(desired))
	for _, d := range desired {
		wanted[d.Permission] = true
	}

	for _, o := range user.PermissionOverrides {
		if !wanted[o.Permission] && o.IsEnabled {
			setModified(o, actingUserID, false, now)
			changed++
		}
	}

	return changed
}

func setModified(o *models.PermissionOverride, actingUserID string, enabled bool, now time.Time) {
	modified := now
	o.IsEnabled = enabled
	o.ModifiedOn = &modified
	o.ModifiedBy = actingUserID
}
