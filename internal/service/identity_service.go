package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"account-service/internal/encryption"
	"account-service/internal/models"
	"account-service/internal/permissions"
	redisrepo "account-service/internal/repository/redis"
	"account-service/internal/repository/scylla"
	"account-service/internal/util"
)

// Cache is the identity cache contract. Failures on any of these must never
// become fatal; the service treats every error as a miss.
type Cache interface {
	Get(ctx context.Context, userID string) (*models.EffectiveUser, error)
	Set(ctx context.Context, user *models.EffectiveUser) error
	Remove(ctx context.Context, userID string) error
}

// IdentityContext resolves the acting principal for the current operation.
type IdentityContext interface {
	CurrentUserID(ctx context.Context) (string, bool)
}

// IdentityService answers "who is this user and what can they do". It wraps
// the permission resolver with cache-aside orchestration: the cache is a pure
// optimization and correctness holds with it entirely absent.
type IdentityService struct {
	userRepo      scylla.UserRepository
	cache         Cache
	identity      IdentityContext
	encryptionMgr *encryption.Manager
	logger        *zap.Logger
}

func NewIdentityService(
	userRepo scylla.UserRepository,
	cache Cache,
	identity IdentityContext,
	encryptionMgr *encryption.Manager,
	logger *zap.Logger,
) *IdentityService {
	return &IdentityService{
		userRepo:      userRepo,
		cache:         cache,
		identity:      identity,
		encryptionMgr: encryptionMgr,
		logger:        logger,
	}
}

// GetUser returns the user with resolved permissions, consulting the cache
// first. Cache read failures are logged and treated as a miss.
func (s *IdentityService) GetUser(ctx context.Context, userID string) (*models.EffectiveUser, error) {
	cached, err := s.cache.Get(ctx, userID)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, redisrepo.ErrCacheMiss) {
		util.Warn("identity cache read failed, falling back to store",
			zap.String("user_id", userID),
			zap.Error(err))
	}

	user, err := s.userRepo.FindUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, scylla.ErrUserNotFound) {
			return nil, NewNotAuthorizedError(CodeAccountNotFound, "account not found")
		}
		return nil, err
	}

	effective, err := s.ResolveUser(ctx, user)
	if err != nil {
		return nil, err
	}

	s.CacheUser(ctx, effective)
	return effective, nil
}

// GetCurrentUser resolves the acting principal. The enabled check runs after
// the cache lookup, so disabling an account takes up to the cache TTL to take
// effect.
func (s *IdentityService) GetCurrentUser(ctx context.Context) (*models.EffectiveUser, error) {
	userID, ok := s.identity.CurrentUserID(ctx)
	if !ok || userID == "" {
		return nil, NewNotAuthenticatedError("no authenticated user")
	}

	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if !user.IsEnabled {
		return nil, NewNotAuthorizedError(CodeAccountDisabled, "account is disabled")
	}
	return user, nil
}

// ResolveUser computes the effective permission set and decrypts the email
// for a loaded user aggregate.
func (s *IdentityService) ResolveUser(ctx context.Context, user *models.User) (*models.EffectiveUser, error) {
	if user.Email == "" && len(user.EmailEncrypted) > 0 {
		email, err := s.encryptionMgr.DecryptField(ctx, &encryption.EncryptedField{
			Ciphertext: user.EmailEncrypted,
			WrappedDEK: user.EmailDEK,
			KeyID:      user.EmailKeyID,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt email for user %s: %w", user.ID, err)
		}
		user.Email = email
	}

	var roleDefaults []models.Permission
	if user.Role != models.RoleSuperAdmin {
		defaults, err := s.userRepo.ListRolePermissions(ctx, user.Role)
		if err != nil {
			return nil, fmt.Errorf("failed to load role permissions: %w", err)
		}
		roleDefaults = defaults
	}

	return &models.EffectiveUser{
		User:        *user,
		Permissions: permissions.Resolve(user, roleDefaults),
	}, nil
}

// CacheUser writes the resolved identity through to the cache. Write
// failures are logged and swallowed.
func (s *IdentityService) CacheUser(ctx context.Context, user *models.EffectiveUser) {
	if err := s.cache.Set(ctx, user); err != nil {
		util.Warn("identity cache write failed",
			zap.String("user_id", user.ID),
			zap.Error(err))
	}
}

// InvalidateUser drops the cached identity after an administrative change.
// Removal failures are logged; the entry then expires on its own TTL.
func (s *IdentityService) InvalidateUser(ctx context.Context, userID string) {
	if err := s.cache.Remove(ctx, userID); err != nil {
		util.Warn("identity cache invalidation failed",
			zap.String("user_id", userID),
			zap.Error(err))
	}
}

// HashEmail derives the deterministic lookup hash for a normalized email.
func HashEmail(normalizedEmail string) string {
	sum := sha256.Sum256([]byte(normalizedEmail))
	return hex.EncodeToString(sum[:])
}
