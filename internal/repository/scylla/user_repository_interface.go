package scylla

import (
	"context"
	"errors"

	"account-service/internal/models"
)

// ErrUserNotFound is returned when no user matches the lookup.
var ErrUserNotFound = errors.New("user not found")

// UserRepository is the credential store contract.
type UserRepository interface {
	// CreateUser persists a new user, its email lookup row and any
	// initial overrides in one logged batch.
	CreateUser(ctx context.Context, user *models.User) error

	// FindUserByEmailHash resolves the email lookup row and loads the
	// full aggregate including permission overrides.
	FindUserByEmailHash(ctx context.Context, emailHash string) (*models.User, error)

	// FindUserByID loads the full aggregate including permission overrides.
	FindUserByID(ctx context.Context, userID string) (*models.User, error)

	// SaveUser writes back the user row together with every override
	// in one logged batch.
	SaveUser(ctx context.Context, user *models.User) error

	// SaveLoginOutcome writes the updated failure counter and the audit
	// record for one login attempt atomically.
	SaveLoginOutcome(ctx context.Context, user *models.User, audit *models.LoginAuditRecord) error

	// AppendLoginAudit inserts or updates a single audit row.
	AppendLoginAudit(ctx context.Context, audit *models.LoginAuditRecord) error

	// ListUsers returns every user without overrides attached.
	ListUsers(ctx context.Context) ([]*models.User, error)

	// ListRolePermissions returns the enabled default permissions of a role.
	ListRolePermissions(ctx context.Context, role models.Role) ([]models.Permission, error)

	HealthCheck(ctx context.Context) error
}
