// Package permissions computes effective permission sets from role defaults
// and per-user overrides, and reconciles override records against a desired
// permission list during administrative edits. All functions are pure except
// Reconcile, which mutates the user aggregate passed to it.
package permissions

import (
	"sort"

	"account-service/internal/models"
)

// Resolve computes the effective permission set for a user.
//
// SuperAdmin short-circuits to the full permission universe so that a newly
// defined permission never has to be backfilled into role mappings. For
// every other role the result is (roleDefaults ∪ enabled overrides) minus
// denied overrides: an explicit denial always wins. Absence of data yields
// an empty set, never an error.
func Resolve(user *models.User, roleDefaults []models.Permission) []models.Permission {
	if user.Role == models.RoleSuperAdmin {
		return models.AllPermissions()
	}

	granted := make(map[models.Permission]bool, len(roleDefaults))
	for _, p := range roleDefaults {
		granted[p] = true
	}

	denied := make(map[models.Permission]bool)
	for _, o := range user.PermissionOverrides {
		if o.IsEnabled {
			granted[o.Permission] = true
		} else {
			denied[o.Permission] = true
		}
	}

	result := make([]models.Permission, 0, len(granted))
	for p := range granted {
		if !denied[p] {
			result = append(result, p)
		}
	}

	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result
}
