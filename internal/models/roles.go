package models

// Role is an ordered privilege level. Higher values carry more privileges;
// the numeric gaps leave room for intermediate roles without renumbering.
type Role int

const (
	RoleUser       Role = 0
	RoleModerator  Role = 10
	RoleAdmin      Role = 20
	RoleSuperAdmin Role = 30
)

func (r Role) String() string {
	switch r {
	case RoleUser:
		return "User"
	case RoleModerator:
		return "Moderator"
	case RoleAdmin:
		return "Admin"
	case RoleSuperAdmin:
		return "SuperAdmin"
	default:
		return "Unknown"
	}
}

// IsValid reports whether r is one of the defined roles.
func (r Role) IsValid() bool {
	switch r {
	case RoleUser, RoleModerator, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// Permission identifies a single grantable capability.
type Permission int

const (
	// Users
	CanListUsers          Permission = 100
	CanViewUser           Permission = 101
	CanCreateUser         Permission = 102
	CanUpdateUser         Permission = 103
	CanDeleteUser         Permission = 104
	CanUpdateUserPassword Permission = 105
)

func (p Permission) String() string {
	switch p {
	case CanListUsers:
		return "CanListUsers"
	case CanViewUser:
		return "CanViewUser"
	case CanCreateUser:
		return "CanCreateUser"
	case CanUpdateUser:
		return "CanUpdateUser"
	case CanDeleteUser:
		return "CanDeleteUser"
	case CanUpdateUserPassword:
		return "CanUpdateUserPassword"
	default:
		return "Unknown"
	}
}

// AllPermissions returns the full permission universe. SuperAdmin resolution
// uses this directly instead of the role_permissions table so that newly
// defined permissions are never missing from a SuperAdmin.
func AllPermissions() []Permission {
	return []Permission{
		CanListUsers,
		CanViewUser,
		CanCreateUser,
		CanUpdateUser,
		CanDeleteUser,
		CanUpdateUserPassword,
	}
}
