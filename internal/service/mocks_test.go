package service

import (
	"context"
	"errors"

	"account-service/internal/models"
	redisrepo "account-service/internal/repository/redis"
	"account-service/internal/repository/scylla"
)

// mockUserRepo is an in-memory credential store. AppendLoginAudit upserts by
// record id, matching the store's write semantics.
type mockUserRepo struct {
	users           map[string]*models.User
	rolePermissions map[models.Role][]models.Permission
	auditRecords    []*models.LoginAuditRecord
	saveCount       int

	findByEmailErr error
	saveErr        error
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{
		users:           make(map[string]*models.User),
		rolePermissions: make(map[models.Role][]models.Permission),
	}
}

func (m *mockUserRepo) addUser(user *models.User) {
	m.users[user.ID] = user
}

func (m *mockUserRepo) CreateUser(ctx context.Context, user *models.User) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepo) FindUserByEmailHash(ctx context.Context, emailHash string) (*models.User, error) {
	if m.findByEmailErr != nil {
		return nil, m.findByEmailErr
	}
	for _, user := range m.users {
		if user.EmailHash == emailHash {
			return user, nil
		}
	}
	return nil, scylla.ErrUserNotFound
}

func (m *mockUserRepo) FindUserByID(ctx context.Context, userID string) (*models.User, error) {
	user, ok := m.users[userID]
	if !ok {
		return nil, scylla.ErrUserNotFound
	}
	return user, nil
}

func (m *mockUserRepo) SaveUser(ctx context.Context, user *models.User) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.users[user.ID] = user
	m.saveCount++
	return nil
}

func (m *mockUserRepo) SaveLoginOutcome(ctx context.Context, user *models.User, audit *models.LoginAuditRecord) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.users[user.ID] = user
	m.upsertAudit(audit)
	m.saveCount++
	return nil
}

func (m *mockUserRepo) AppendLoginAudit(ctx context.Context, audit *models.LoginAuditRecord) error {
	m.upsertAudit(audit)
	return nil
}

func (m *mockUserRepo) upsertAudit(audit *models.LoginAuditRecord) {
	for i, existing := range m.auditRecords {
		if existing.ID == audit.ID {
			m.auditRecords[i] = audit
			return
		}
	}
	m.auditRecords = append(m.auditRecords, audit)
}

func (m *mockUserRepo) ListUsers(ctx context.Context) ([]*models.User, error) {
	users := make([]*models.User, 0, len(m.users))
	for _, user := range m.users {
		users = append(users, user)
	}
	return users, nil
}

func (m *mockUserRepo) ListRolePermissions(ctx context.Context, role models.Role) ([]models.Permission, error) {
	return m.rolePermissions[role], nil
}

func (m *mockUserRepo) HealthCheck(ctx context.Context) error {
	return nil
}

// mockCache is an in-memory identity cache with injectable failures.
type mockCache struct {
	entries map[string]*models.EffectiveUser

	getErr    error
	setErr    error
	removeErr error

	getCalls    int
	setCalls    int
	removeCalls int
}

func newMockCache() *mockCache {
	return &mockCache{entries: make(map[string]*models.EffectiveUser)}
}

func (m *mockCache) Get(ctx context.Context, userID string) (*models.EffectiveUser, error) {
	m.getCalls++
	if m.getErr != nil {
		return nil, m.getErr
	}
	user, ok := m.entries[userID]
	if !ok {
		return nil, redisrepo.ErrCacheMiss
	}
	return user, nil
}

func (m *mockCache) Set(ctx context.Context, user *models.EffectiveUser) error {
	m.setCalls++
	if m.setErr != nil {
		return m.setErr
	}
	m.entries[user.ID] = user
	return nil
}

func (m *mockCache) Remove(ctx context.Context, userID string) error {
	m.removeCalls++
	if m.removeErr != nil {
		return m.removeErr
	}
	delete(m.entries, userID)
	return nil
}

// staticIdentity supplies a fixed acting principal.
type staticIdentity struct {
	userID string
}

func (s staticIdentity) CurrentUserID(ctx context.Context) (string, bool) {
	return s.userID, s.userID != ""
}

var errCacheDown = errors.New("cache transport failure")
