package scylla

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gocql/gocql"
	"go.uber.org/zap"

	"account-service/internal/bucketing"
	"account-service/internal/models"
	"account-service/internal/util"
)

// ScyllaUserRepository persists the user aggregate across the users,
// email_to_user, permission_overrides and login_audit tables. Writes that
// span tables go through logged batches so partial failure cannot leave a
// user without its email lookup row.
type ScyllaUserRepository struct {
	client    *ScyllaClient
	bucketing *bucketing.Manager
}

func NewScyllaUserRepository(client *ScyllaClient, bucketManager *bucketing.Manager) *ScyllaUserRepository {
	return &ScyllaUserRepository{
		client:    client,
		bucketing: bucketManager,
	}
}

func (r *ScyllaUserRepository) CreateUser(ctx context.Context, user *models.User) error {
	user.UserBucket = r.bucketing.UserBucket(user.ID)

	batch := r.client.Batch(gocql.LoggedBatch).WithContext(ctx)

	batch.Query(r.client.Prepared.InsertUser.Statement(),
		user.UserBucket, user.ID, user.EmailHash, user.EmailEncrypted, user.EmailDEK, user.EmailKeyID,
		user.FirstName, user.LastName, user.HashedPassword, int(user.Role), user.IsEnabled, user.LoginFailureCount,
		user.CreatedOn, user.CreatedBy, user.ModifiedOn, user.ModifiedBy)

	batch.Query(r.client.Prepared.InsertEmailToUser.Statement(),
		user.EmailHash, user.UserBucket, user.ID)

	for _, o := range user.PermissionOverrides {
		batch.Query(r.client.Prepared.UpsertOverride.Statement(),
			o.UserID, int(o.Permission), o.ID, o.IsEnabled,
			o.CreatedOn, o.CreatedBy, o.ModifiedOn, o.ModifiedBy)
	}

	if err := r.client.ExecuteBatch(batch); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	util.Debug("user created",
		zap.String("user_id", user.ID),
		zap.Int("user_bucket", user.UserBucket))
	return nil
}

func (r *ScyllaUserRepository) FindUserByEmailHash(ctx context.Context, emailHash string) (*models.User, error) {
	var userBucket int
	var userID string

	err := r.client.Prepared.GetUserIDByEmail.WithContext(ctx).
		Bind(emailHash).
		Scan(&userBucket, &userID)
	if err != nil {
		if errors.Is(err, gocql.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("email lookup failed: %w", err)
	}

	return r.loadUser(ctx, userBucket, userID)
}

func (r *ScyllaUserRepository) FindUserByID(ctx context.Context, userID string) (*models.User, error) {
	return r.loadUser(ctx, r.bucketing.UserBucket(userID), userID)
}

func (r *ScyllaUserRepository) loadUser(ctx context.Context, userBucket int, userID string) (*models.User, error) {
	user := &models.User{}
	var role int
	var modifiedOn time.Time

	err := r.client.Prepared.GetUserByID.WithContext(ctx).
		Bind(userBucket, userID).
		Scan(&user.UserBucket, &user.ID, &user.EmailHash, &user.EmailEncrypted, &user.EmailDEK, &user.EmailKeyID,
			&user.FirstName, &user.LastName, &user.HashedPassword, &role, &user.IsEnabled, &user.LoginFailureCount,
			&user.CreatedOn, &user.CreatedBy, &modifiedOn, &user.ModifiedBy)
	if err != nil {
		if errors.Is(err, gocql.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user %s: %w", userID, err)
	}

	user.Role = models.Role(role)
	if !modifiedOn.IsZero() {
		user.ModifiedOn = &modifiedOn
	}

	overrides, err := r.loadOverrides(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.PermissionOverrides = overrides

	return user, nil
}

func (r *ScyllaUserRepository) loadOverrides(ctx context.Context, userID string) ([]*models.PermissionOverride, error) {
	iter := r.client.Prepared.ListOverrides.WithContext(ctx).
		Bind(userID).
		Iter()

	var overrides []*models.PermissionOverride
	for {
		o := &models.PermissionOverride{}
		var permission int
		var modifiedOn time.Time

		if !iter.Scan(&o.UserID, &permission, &o.ID, &o.IsEnabled,
			&o.CreatedOn, &o.CreatedBy, &modifiedOn, &o.ModifiedBy) {
			break
		}
		o.Permission = models.Permission(permission)
		if !modifiedOn.IsZero() {
			o.ModifiedOn = &modifiedOn
		}
		overrides = append(overrides, o)
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("failed to load overrides for %s: %w", userID, err)
	}
	return overrides, nil
}

func (r *ScyllaUserRepository) SaveUser(ctx context.Context, user *models.User) error {
	batch := r.client.Batch(gocql.LoggedBatch).WithContext(ctx)

	batch.Query(r.client.Prepared.UpdateUser.Statement(),
		user.EmailHash, user.EmailEncrypted, user.EmailDEK, user.EmailKeyID,
		user.FirstName, user.LastName, user.HashedPassword, int(user.Role), user.IsEnabled,
		user.LoginFailureCount, user.ModifiedOn, user.ModifiedBy,
		user.UserBucket, user.ID)

	for _, o := range user.PermissionOverrides {
		batch.Query(r.client.Prepared.UpsertOverride.Statement(),
			o.UserID, int(o.Permission), o.ID, o.IsEnabled,
			o.CreatedOn, o.CreatedBy, o.ModifiedOn, o.ModifiedBy)
	}

	if err := r.client.ExecuteBatch(batch); err != nil {
		return fmt.Errorf("failed to save user %s: %w", user.ID, err)
	}
	return nil
}

func (r *ScyllaUserRepository) SaveLoginOutcome(ctx context.Context, user *models.User, audit *models.LoginAuditRecord) error {
	batch := r.client.Batch(gocql.LoggedBatch).WithContext(ctx)

	batch.Query(r.client.Prepared.UpdateUser.Statement(),
		user.EmailHash, user.EmailEncrypted, user.EmailDEK, user.EmailKeyID,
		user.FirstName, user.LastName, user.HashedPassword, int(user.Role), user.IsEnabled,
		user.LoginFailureCount, user.ModifiedOn, user.ModifiedBy,
		user.UserBucket, user.ID)

	batch.Query(r.client.Prepared.UpdateLoginAudit.Statement(),
		audit.IsSuccess, audit.ErrorCode, audit.UserID, audit.ID)

	if err := r.client.ExecuteBatch(batch); err != nil {
		return fmt.Errorf("failed to save login outcome for %s: %w", user.ID, err)
	}
	return nil
}

func (r *ScyllaUserRepository) AppendLoginAudit(ctx context.Context, audit *models.LoginAuditRecord) error {
	err := r.client.Prepared.InsertLoginAudit.WithContext(ctx).
		Bind(audit.UserID, audit.ID, audit.IsSuccess, audit.ErrorCode, audit.CreatedOn).
		Exec()
	if err != nil {
		return fmt.Errorf("failed to append login audit: %w", err)
	}
	return nil
}

func (r *ScyllaUserRepository) ListUsers(ctx context.Context) ([]*models.User, error) {
	iter := r.client.Prepared.ListUsers.WithContext(ctx).Iter()

	var users []*models.User
	for {
		user := &models.User{}
		var role int
		var modifiedOn time.Time

		if !iter.Scan(&user.UserBucket, &user.ID, &user.EmailHash, &user.EmailEncrypted, &user.EmailDEK, &user.EmailKeyID,
			&user.FirstName, &user.LastName, &user.HashedPassword, &role, &user.IsEnabled, &user.LoginFailureCount,
			&user.CreatedOn, &user.CreatedBy, &modifiedOn, &user.ModifiedBy) {
			break
		}
		user.Role = models.Role(role)
		if !modifiedOn.IsZero() {
			m := modifiedOn
			user.ModifiedOn = &m
		}
		users = append(users, user)
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (r *ScyllaUserRepository) ListRolePermissions(ctx context.Context, role models.Role) ([]models.Permission, error) {
	iter := r.client.Prepared.ListRolePermissions.WithContext(ctx).
		Bind(int(role)).
		Iter()

	var permissions []models.Permission
	for {
		var permission int
		var isEnabled bool
		if !iter.Scan(&permission, &isEnabled) {
			break
		}
		if isEnabled {
			permissions = append(permissions, models.Permission(permission))
		}
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("failed to list role permissions for %s: %w", role, err)
	}
	return permissions, nil
}

func (r *ScyllaUserRepository) HealthCheck(ctx context.Context) error {
	return r.client.HealthCheck(ctx)
}
