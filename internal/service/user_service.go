package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"account-service/internal/encryption"
	"account-service/internal/hashing"
	"account-service/internal/models"
	"account-service/internal/repository/scylla"
	"account-service/internal/search"
	"account-service/internal/util"
)

// RegisterRequest is the self-service sign-up payload.
type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// ChangePasswordRequest is the self-service password change payload.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// UserService covers the operations a user performs on their own account.
type UserService struct {
	userRepo      scylla.UserRepository
	hasher        *hashing.Hasher
	encryptionMgr *encryption.Manager
	identity      *IdentityService
	userIndex     *search.UserIndex
	logger        *zap.Logger
}

func NewUserService(
	userRepo scylla.UserRepository,
	hasher *hashing.Hasher,
	encryptionMgr *encryption.Manager,
	identity *IdentityService,
	userIndex *search.UserIndex,
	logger *zap.Logger,
) *UserService {
	return &UserService{
		userRepo:      userRepo,
		hasher:        hasher,
		encryptionMgr: encryptionMgr,
		identity:      identity,
		userIndex:     userIndex,
		logger:        logger,
	}
}

// Register creates a new enabled account with the User role.
func (s *UserService) Register(ctx context.Context, req RegisterRequest) (*models.User, error) {
	user, err := s.buildUser(ctx, req.Email, req.Password, req.FirstName, req.LastName, models.RoleUser, true, "")
	if err != nil {
		return nil, err
	}
	user.CreatedBy = user.ID

	if err := s.userRepo.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	s.indexUser(ctx, user)

	util.Info("user registered", zap.String("user_id", user.ID))
	return user, nil
}

// ChangePassword rotates the current user's password after verifying the old
// one. The cached identity is dropped so the stored hash and cache agree.
func (s *UserService) ChangePassword(ctx context.Context, req ChangePasswordRequest) error {
	current, err := s.identity.GetCurrentUser(ctx)
	if err != nil {
		return err
	}

	// The cached identity never carries the password hash; verify against
	// the stored aggregate.
	user, err := s.userRepo.FindUserByID(ctx, current.ID)
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}

	match, err := s.hasher.VerifyPassword(req.CurrentPassword, user.HashedPassword)
	if err != nil {
		return fmt.Errorf("failed to verify password: %w", err)
	}
	if !match {
		return NewUnprocessableError(CodeIncorrectPassword, "current password is incorrect")
	}

	if !util.IsValidPassword(req.NewPassword) {
		return NewValidationError(CodeInvalidPassword, "password does not meet the policy")
	}
	if req.NewPassword == req.CurrentPassword {
		return NewValidationError(CodeNewPasswordEqualsOldPassword, "new password must differ from the current one")
	}

	hashed, err := s.hasher.HashPassword(req.NewPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.HashedPassword = hashed
	now := time.Now().UTC()
	user.ModifiedOn = &now
	user.ModifiedBy = current.ID

	if err := s.userRepo.SaveUser(ctx, user); err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}
	s.identity.InvalidateUser(ctx, user.ID)

	util.Info("password changed", zap.String("user_id", user.ID))
	return nil
}

// buildUser validates and assembles a new user aggregate, encrypting the
// email and rejecting duplicates. actingUserID is empty for self sign-up.
func (s *UserService) buildUser(ctx context.Context, email, password, firstName, lastName string, role models.Role, isEnabled bool, actingUserID string) (*models.User, error) {
	normalized := util.NormalizeEmail(email)
	if !util.IsValidEmail(normalized) {
		return nil, NewValidationError(CodeInvalidEmail, "email address is not valid")
	}
	if !util.IsValidPassword(password) {
		return nil, NewValidationError(CodeInvalidPassword, "password does not meet the policy")
	}

	emailHash := HashEmail(normalized)
	if _, err := s.userRepo.FindUserByEmailHash(ctx, emailHash); err == nil {
		return nil, NewUnprocessableError(CodeUserAlreadyExists, "an account with this email already exists")
	} else if !errors.Is(err, scylla.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to check for existing account: %w", err)
	}

	encrypted, err := s.encryptionMgr.EncryptField(ctx, normalized)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt email: %w", err)
	}

	hashed, err := s.hasher.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	return &models.User{
		ID:             uuid.New().String(),
		EmailHash:      emailHash,
		EmailEncrypted: encrypted.Ciphertext,
		EmailDEK:       encrypted.WrappedDEK,
		EmailKeyID:     encrypted.KeyID,
		Email:          normalized,
		FirstName:      firstName,
		LastName:       lastName,
		HashedPassword: hashed,
		Role:           role,
		IsEnabled:      isEnabled,
		CreatedOn:      time.Now().UTC(),
		CreatedBy:      actingUserID,
	}, nil
}

// indexUser projects the account into the search index, best effort.
func (s *UserService) indexUser(ctx context.Context, user *models.User) {
	if s.userIndex == nil {
		return
	}
	if err := s.userIndex.IndexUser(ctx, user); err != nil {
		util.Warn("failed to index user",
			zap.String("user_id", user.ID),
			zap.Error(err))
	}
}
