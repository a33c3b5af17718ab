package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"account-service/internal/audit"
	"account-service/internal/hashing"
	"account-service/internal/models"
	"account-service/internal/repository/scylla"
	"account-service/internal/token"
	"account-service/internal/util"
)

// maxLoginFailures is the number of consecutive failed attempts after which
// an account locks. Lockout has no expiry; an administrator unlocks the
// account explicitly.
const maxLoginFailures = 5

// LoginResult is the successful outcome of an authentication attempt.
type LoginResult struct {
	User  *models.EffectiveUser `json:"user"`
	Token string                `json:"token"`
}

// AuthService validates credentials, enforces the lockout policy and writes
// the login audit trail. Exactly one audit row is written per attempt against
// a known account; attempts against unknown emails leave no trace because
// there is no user to attribute them to.
type AuthService struct {
	userRepo scylla.UserRepository
	hasher   *hashing.Hasher
	identity *IdentityService
	tokens   *token.Manager
	recorder *audit.Recorder
	logger   *zap.Logger
}

func NewAuthService(
	userRepo scylla.UserRepository,
	hasher *hashing.Hasher,
	identity *IdentityService,
	tokens *token.Manager,
	recorder *audit.Recorder,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		hasher:   hasher,
		identity: identity,
		tokens:   tokens,
		recorder: recorder,
		logger:   logger,
	}
}

// Login authenticates an email and password pair. The error code for an
// unknown email and a wrong password is intentionally identical so callers
// cannot enumerate accounts.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	normalized := util.NormalizeEmail(email)
	if normalized == "" || password == "" {
		return nil, NewValidationError(CodeValidationFailure, "email and password are required")
	}

	user, err := s.userRepo.FindUserByEmailHash(ctx, HashEmail(normalized))
	if err != nil {
		if errors.Is(err, scylla.ErrUserNotFound) {
			return nil, NewUnprocessableError(CodeUsernamePasswordNotValid, "username or password is not valid")
		}
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}

	// The stub is written before any failure branch so every attempt
	// against a known account is observable.
	record := &models.LoginAuditRecord{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		IsSuccess: false,
		CreatedOn: time.Now().UTC(),
	}
	if err := s.userRepo.AppendLoginAudit(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to write login audit: %w", err)
	}

	if !user.IsEnabled {
		return nil, s.failLogin(ctx, user, record, CodeAccountDisabled, "account is disabled", false)
	}

	if user.LoginFailureCount >= maxLoginFailures {
		return nil, s.failLogin(ctx, user, record, CodeAccountLocked, "account is locked", false)
	}

	match, err := s.hasher.VerifyPassword(password, user.HashedPassword)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !match {
		user.LoginFailureCount++
		s.touch(user)
		return nil, s.failLogin(ctx, user, record, CodeUsernamePasswordNotValid, "username or password is not valid", true)
	}

	record.IsSuccess = true
	user.LoginFailureCount = 0
	s.touch(user)
	if err := s.userRepo.SaveLoginOutcome(ctx, user, record); err != nil {
		return nil, fmt.Errorf("failed to save login outcome: %w", err)
	}
	s.export(ctx, record)

	user.Email = normalized
	effective, err := s.identity.ResolveUser(ctx, user)
	if err != nil {
		return nil, err
	}
	s.identity.CacheUser(ctx, effective)

	signed, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	util.Info("login succeeded", zap.String("user_id", user.ID))
	return &LoginResult{User: effective, Token: signed}, nil
}

// failLogin finalizes the audit record for a failed branch and returns the
// domain error. saveUser also persists the mutated failure counter.
func (s *AuthService) failLogin(ctx context.Context, user *models.User, record *models.LoginAuditRecord, code, message string, saveUser bool) error {
	record.ErrorCode = code

	var err error
	if saveUser {
		err = s.userRepo.SaveLoginOutcome(ctx, user, record)
	} else {
		err = s.userRepo.AppendLoginAudit(ctx, record)
	}
	if err != nil {
		return fmt.Errorf("failed to save login outcome: %w", err)
	}
	s.export(ctx, record)

	util.Info("login failed",
		zap.String("user_id", user.ID),
		zap.String("error_code", code),
		zap.Int("failure_count", user.LoginFailureCount))
	return NewUnprocessableError(code, message)
}

func (s *AuthService) export(ctx context.Context, record *models.LoginAuditRecord) {
	if s.recorder == nil {
		return
	}
	s.recorder.RecordLogin(ctx, audit.LoginEvent{
		AuditID:   record.ID,
		UserID:    record.UserID,
		IsSuccess: record.IsSuccess,
		ErrorCode: record.ErrorCode,
		Timestamp: record.CreatedOn,
	})
}

func (s *AuthService) touch(user *models.User) {
	now := time.Now().UTC()
	user.ModifiedOn = &now
	user.ModifiedBy = user.ID
}
