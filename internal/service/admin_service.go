package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"account-service/internal/encryption"
	"account-service/internal/hashing"
	"account-service/internal/models"
	"account-service/internal/permissions"
	"account-service/internal/repository/scylla"
	"account-service/internal/search"
	"account-service/internal/util"
)

// PermissionAssignment is one entry of the permission list an administrator
// submits on update.
type PermissionAssignment struct {
	Permission models.Permission `json:"permission"`
	IsEnabled  bool              `json:"is_enabled"`
}

// AdminCreateUserRequest creates an account on someone's behalf.
type AdminCreateUserRequest struct {
	Email     string      `json:"email"`
	Password  string      `json:"password"`
	FirstName string      `json:"first_name"`
	LastName  string      `json:"last_name"`
	Role      models.Role `json:"role"`
	IsEnabled bool        `json:"is_enabled"`
}

// AdminUpdateUserRequest carries an administrative edit. Nil fields are left
// unchanged; a non-nil Permissions list is reconciled against the user's
// overrides, so permissions dropped from the list are revoked.
type AdminUpdateUserRequest struct {
	FirstName   *string                `json:"first_name,omitempty"`
	LastName    *string                `json:"last_name,omitempty"`
	Role        *models.Role           `json:"role,omitempty"`
	IsEnabled   *bool                  `json:"is_enabled,omitempty"`
	Permissions []PermissionAssignment `json:"permissions,omitempty"`
}

// AdminService covers the operations administrators perform on other
// accounts. Every operation authorizes the acting principal first.
type AdminService struct {
	userRepo      scylla.UserRepository
	hasher        *hashing.Hasher
	encryptionMgr *encryption.Manager
	identity      *IdentityService
	users         *UserService
	userIndex     *search.UserIndex
	logger        *zap.Logger
}

func NewAdminService(
	userRepo scylla.UserRepository,
	hasher *hashing.Hasher,
	encryptionMgr *encryption.Manager,
	identity *IdentityService,
	users *UserService,
	userIndex *search.UserIndex,
	logger *zap.Logger,
) *AdminService {
	return &AdminService{
		userRepo:      userRepo,
		hasher:        hasher,
		encryptionMgr: encryptionMgr,
		identity:      identity,
		users:         users,
		userIndex:     userIndex,
		logger:        logger,
	}
}

// ListUsers returns every account with its email decrypted. Overrides are not
// loaded for the listing; use GetUser for the resolved view.
func (s *AdminService) ListUsers(ctx context.Context) ([]*models.User, error) {
	if _, err := s.requirePermission(ctx, models.CanListUsers); err != nil {
		return nil, err
	}

	users, err := s.userRepo.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for _, user := range users {
		user := user
		g.Go(func() error {
			email, err := s.encryptionMgr.DecryptField(gctx, &encryption.EncryptedField{
				Ciphertext: user.EmailEncrypted,
				WrappedDEK: user.EmailDEK,
				KeyID:      user.EmailKeyID,
			})
			if err != nil {
				return fmt.Errorf("failed to decrypt email for user %s: %w", user.ID, err)
			}
			user.Email = email
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return users, nil
}

// GetUser returns one account with resolved permissions.
func (s *AdminService) GetUser(ctx context.Context, userID string) (*models.EffectiveUser, error) {
	if _, err := s.requirePermission(ctx, models.CanViewUser); err != nil {
		return nil, err
	}
	return s.identity.GetUser(ctx, userID)
}

// SearchUsers queries the search projection by name.
func (s *AdminService) SearchUsers(ctx context.Context, term string, size int) ([]search.UserDocument, error) {
	if _, err := s.requirePermission(ctx, models.CanListUsers); err != nil {
		return nil, err
	}
	if s.userIndex == nil {
		return nil, nil
	}
	return s.userIndex.SearchUsers(ctx, term, size)
}

// CreateUser creates an account with an explicit role and enabled flag.
func (s *AdminService) CreateUser(ctx context.Context, req AdminCreateUserRequest) (*models.User, error) {
	actor, err := s.requirePermission(ctx, models.CanCreateUser)
	if err != nil {
		return nil, err
	}
	if !req.Role.IsValid() {
		return nil, NewValidationError(CodeInvalidRole, "role is not valid")
	}

	user, err := s.users.buildUser(ctx, req.Email, req.Password, req.FirstName, req.LastName, req.Role, req.IsEnabled, actor.ID)
	if err != nil {
		return nil, err
	}

	if err := s.userRepo.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	s.users.indexUser(ctx, user)

	util.Info("user created by admin",
		zap.String("user_id", user.ID),
		zap.String("acting_user_id", actor.ID))
	return user, nil
}

// UpdateUser applies profile, role and permission changes. The role is
// updated before the permission list is reconciled, so redundancy checks run
// against the new role's defaults. The whole aggregate is saved as one batch
// and the cached identity is dropped.
func (s *AdminService) UpdateUser(ctx context.Context, userID string, req AdminUpdateUserRequest) (*models.User, error) {
	actor, err := s.requirePermission(ctx, models.CanUpdateUser)
	if err != nil {
		return nil, err
	}

	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.IsEnabled != nil {
		user.IsEnabled = *req.IsEnabled
	}
	if req.Role != nil {
		if !req.Role.IsValid() {
			return nil, NewValidationError(CodeInvalidRole, "role is not valid")
		}
		user.Role = *req.Role
	}

	now := time.Now().UTC()

	if req.Permissions != nil {
		var roleDefaults []models.Permission
		if user.Role != models.RoleSuperAdmin {
			roleDefaults, err = s.userRepo.ListRolePermissions(ctx, user.Role)
			if err != nil {
				return nil, fmt.Errorf("failed to load role permissions: %w", err)
			}
		}

		desired := make([]permissions.Desired, 0, len(req.Permissions))
		for _, p := range req.Permissions {
			desired = append(desired, permissions.Desired{Permission: p.Permission, IsEnabled: p.IsEnabled})
		}

		changed := permissions.Reconcile(user, desired, roleDefaults, actor.ID, now)
		util.Debug("permission overrides reconciled",
			zap.String("user_id", user.ID),
			zap.Int("changed", changed))
	}

	user.ModifiedOn = &now
	user.ModifiedBy = actor.ID

	if err := s.userRepo.SaveUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to save user: %w", err)
	}
	s.identity.InvalidateUser(ctx, user.ID)
	s.users.indexUser(ctx, user)

	util.Info("user updated",
		zap.String("user_id", user.ID),
		zap.String("acting_user_id", actor.ID))
	return user, nil
}

// UpdatePassword sets a new password for another account.
func (s *AdminService) UpdatePassword(ctx context.Context, userID, newPassword string) error {
	actor, err := s.requirePermission(ctx, models.CanUpdateUserPassword)
	if err != nil {
		return err
	}
	if !util.IsValidPassword(newPassword) {
		return NewValidationError(CodeInvalidPassword, "password does not meet the policy")
	}

	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return err
	}

	hashed, err := s.hasher.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.HashedPassword = hashed
	s.stamp(user, actor.ID)

	if err := s.userRepo.SaveUser(ctx, user); err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}
	s.identity.InvalidateUser(ctx, user.ID)
	return nil
}

// UnlockUser resets the login failure counter. Lockout never expires on its
// own, this is the only way back in.
func (s *AdminService) UnlockUser(ctx context.Context, userID string) error {
	actor, err := s.requirePermission(ctx, models.CanUpdateUser)
	if err != nil {
		return err
	}

	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return err
	}

	user.LoginFailureCount = 0
	s.stamp(user, actor.ID)

	if err := s.userRepo.SaveUser(ctx, user); err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}
	s.identity.InvalidateUser(ctx, user.ID)

	util.Info("user unlocked",
		zap.String("user_id", user.ID),
		zap.String("acting_user_id", actor.ID))
	return nil
}

// DeleteUser disables the account. Rows are never removed so the audit trail
// stays intact.
func (s *AdminService) DeleteUser(ctx context.Context, userID string) error {
	actor, err := s.requirePermission(ctx, models.CanDeleteUser)
	if err != nil {
		return err
	}

	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return err
	}

	user.IsEnabled = false
	s.stamp(user, actor.ID)

	if err := s.userRepo.SaveUser(ctx, user); err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}
	s.identity.InvalidateUser(ctx, user.ID)
	s.users.indexUser(ctx, user)

	util.Info("user disabled",
		zap.String("user_id", user.ID),
		zap.String("acting_user_id", actor.ID))
	return nil
}

func (s *AdminService) stamp(user *models.User, actingUserID string) {
	now := time.Now().UTC()
	user.ModifiedOn = &now
	user.ModifiedBy = actingUserID
}

func (s *AdminService) requirePermission(ctx context.Context, required models.Permission) (*models.EffectiveUser, error) {
	actor, err := s.identity.GetCurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	if !actor.HasPermissions(required) {
		return nil, NewNotAuthorizedError(CodeNotAuthorized, "missing required permission")
	}
	return actor, nil
}

func (s *AdminService) loadUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.userRepo.FindUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, scylla.ErrUserNotFound) {
			return nil, NewUnprocessableError(CodeAccountNotFound, "account not found")
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return user, nil
}
