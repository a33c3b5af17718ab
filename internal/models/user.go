package models

import "time"

// User is the persisted account aggregate. Email is stored envelope-encrypted
// with a deterministic hash column for lookups; the plaintext Email field is
// populated after decryption and never written to the store.
type User struct {
	UserBucket     int    `db:"user_bucket" json:"-"`
	ID             string `db:"user_id" json:"id"`
	EmailHash      string `db:"email_hash" json:"-"`
	EmailEncrypted []byte `db:"email_encrypted" json:"-"`
	EmailDEK       string `db:"email_dek" json:"-"`
	EmailKeyID     string `db:"email_key_id" json:"-"`
	Email          string `db:"-" json:"email"`

	FirstName      string `db:"first_name" json:"first_name"`
	LastName       string `db:"last_name" json:"last_name"`
	HashedPassword string `db:"hashed_password" json:"-"`

	Role              Role `db:"role" json:"role"`
	IsEnabled         bool `db:"is_enabled" json:"is_enabled"`
	LoginFailureCount int  `db:"login_failure_count" json:"-"`

	PermissionOverrides []*PermissionOverride `db:"-" json:"permission_overrides,omitempty"`

	CreatedOn  time.Time  `db:"created_on" json:"created_on"`
	CreatedBy  string     `db:"created_by" json:"created_by,omitempty"`
	ModifiedOn *time.Time `db:"modified_on" json:"modified_on,omitempty"`
	ModifiedBy string     `db:"modified_by" json:"modified_by,omitempty"`
}

// FindOverride returns the user's override for p, or nil. At most one
// override exists per (user, permission) pair.
func (u *User) FindOverride(p Permission) *PermissionOverride {
	for _, o := range u.PermissionOverrides {
		if o.Permission == p {
			return o
		}
	}
	return nil
}

// PermissionOverride pins one permission to explicitly enabled or disabled
// for a single user, overriding the role default. Overrides are never
// deleted, only flipped, so the modification history stays auditable.
type PermissionOverride struct {
	ID         string     `db:"override_id" json:"id"`
	UserID     string     `db:"user_id" json:"user_id"`
	Permission Permission `db:"permission" json:"permission"`
	IsEnabled  bool       `db:"is_enabled" json:"is_enabled"`
	CreatedOn  time.Time  `db:"created_on" json:"created_on"`
	CreatedBy  string     `db:"created_by" json:"created_by,omitempty"`
	ModifiedOn *time.Time `db:"modified_on" json:"modified_on,omitempty"`
	ModifiedBy string     `db:"modified_by" json:"modified_by,omitempty"`
}

// RolePermission maps a role to one permission granted by default while the
// mapping is enabled. SuperAdmin bypasses this table entirely.
type RolePermission struct {
	Role       Role       `db:"role" json:"role"`
	Permission Permission `db:"permission" json:"permission"`
	IsEnabled  bool       `db:"is_enabled" json:"is_enabled"`
}

// LoginAuditRecord is an append-only row, one per authentication attempt
// against a known account. The stub is inserted before any failure is
// surfaced so failed attempts are always observable.
type LoginAuditRecord struct {
	ID        string    `db:"audit_id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	IsSuccess bool      `db:"is_success" json:"is_success"`
	ErrorCode string    `db:"error_code" json:"error_code,omitempty"`
	CreatedOn time.Time `db:"created_on" json:"created_on"`
}

// EffectiveUser is the resolved identity: the account plus its effective
// permission set. Derived, never persisted except as a cache entry.
type EffectiveUser struct {
	User
	Permissions []Permission `json:"permissions"`
}

// HasPermissions reports whether the user holds every permission passed in.
func (u *EffectiveUser) HasPermissions(permissions ...Permission) bool {
	for _, p := range permissions {
		found := false
		for _, held := range u.Permissions {
			if held == p {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
