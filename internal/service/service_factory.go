package service

import (
	"go.uber.org/zap"

	"account-service/internal/audit"
	"account-service/internal/encryption"
	"account-service/internal/hashing"
	"account-service/internal/repository/scylla"
	"account-service/internal/search"
	"account-service/internal/token"
)

// ServiceFactory wires the service layer and hands out singletons.
type ServiceFactory struct {
	userRepo      scylla.UserRepository
	cache         Cache
	identityCtx   IdentityContext
	hasher        *hashing.Hasher
	encryptionMgr *encryption.Manager
	tokens        *token.Manager
	recorder      *audit.Recorder
	userIndex     *search.UserIndex
	logger        *zap.Logger

	identityService *IdentityService
	authService     *AuthService
	userService     *UserService
	adminService    *AdminService
}

func NewServiceFactory(
	userRepo scylla.UserRepository,
	cache Cache,
	identityCtx IdentityContext,
	hasher *hashing.Hasher,
	encryptionMgr *encryption.Manager,
	tokens *token.Manager,
	recorder *audit.Recorder,
	userIndex *search.UserIndex,
	logger *zap.Logger,
) *ServiceFactory {
	return &ServiceFactory{
		userRepo:      userRepo,
		cache:         cache,
		identityCtx:   identityCtx,
		hasher:        hasher,
		encryptionMgr: encryptionMgr,
		tokens:        tokens,
		recorder:      recorder,
		userIndex:     userIndex,
		logger:        logger,
	}
}

func (f *ServiceFactory) IdentityService() *IdentityService {
	if f.identityService == nil {
		f.identityService = NewIdentityService(f.userRepo, f.cache, f.identityCtx, f.encryptionMgr, f.logger)
	}
	return f.identityService
}

func (f *ServiceFactory) AuthService() *AuthService {
	if f.authService == nil {
		f.authService = NewAuthService(f.userRepo, f.hasher, f.IdentityService(), f.tokens, f.recorder, f.logger)
	}
	return f.authService
}

func (f *ServiceFactory) UserService() *UserService {
	if f.userService == nil {
		f.userService = NewUserService(f.userRepo, f.hasher, f.encryptionMgr, f.IdentityService(), f.userIndex, f.logger)
	}
	return f.userService
}

func (f *ServiceFactory) AdminService() *AdminService {
	if f.adminService == nil {
		f.adminService = NewAdminService(f.userRepo, f.hasher, f.encryptionMgr, f.IdentityService(), f.UserService(), f.userIndex, f.logger)
	}
	return f.adminService
}
