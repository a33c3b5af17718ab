package scylla

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gocql/gocql"
	"go.uber.org/zap"

	"account-service/internal/config"
	"account-service/internal/util"
)

// PreparedStatements holds the statements used by the credential store.
type PreparedStatements struct {
	InsertUser          *gocql.Query
	InsertEmailToUser   *gocql.Query
	GetUserByID         *gocql.Query
	GetUserIDByEmail    *gocql.Query
	UpdateUser          *gocql.Query
	UpsertOverride      *gocql.Query
	ListOverrides       *gocql.Query
	ListRolePermissions *gocql.Query
	InsertLoginAudit    *gocql.Query
	UpdateLoginAudit    *gocql.Query
	ListUsers           *gocql.Query
}

type ScyllaClient struct {
	Session      *gocql.Session
	config       *config.ScyllaConfig
	Prepared     *PreparedStatements
	prepareMutex sync.Mutex
	isPrepared   bool
}

func NewScyllaClient(cfg *config.Config, logger *zap.Logger) (*ScyllaClient, error) {
	scyllaConfig := cfg.Scylla

	cluster := gocql.NewCluster(scyllaConfig.Nodes...)
	cluster.Keyspace = scyllaConfig.Keyspace
	cluster.Consistency = gocql.LocalQuorum
	cluster.Timeout = 10 * time.Second
	cluster.ConnectTimeout = 10 * time.Second
	cluster.NumConns = 4
	cluster.SocketKeepalive = 30 * time.Second
	cluster.RetryPolicy = &gocql.ExponentialBackoffRetryPolicy{
		Min:        time.Second,
		Max:        10 * time.Second,
		NumRetries: 3,
	}

	if scyllaConfig.Username != "" && scyllaConfig.Password != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: scyllaConfig.Username,
			Password: scyllaConfig.Password,
		}
	}

	session, err := cluster.CreateSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create scylla session: %w", err)
	}

	client := &ScyllaClient{
		Session: session,
		config:  &scyllaConfig,
	}

	if err := client.prepareStatements(); err != nil {
		session.Close()
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}

	util.Info("ScyllaDB client initialized",
		zap.Strings("nodes", scyllaConfig.Nodes),
		zap.String("keyspace", scyllaConfig.Keyspace))

	return client, nil
}

func (s *ScyllaClient) prepareStatements() error {
	s.prepareMutex.Lock()
	defer s.prepareMutex.Unlock()

	if s.isPrepared {
		return nil
	}

	prepared := &PreparedStatements{}

	prepared.InsertUser = s.Session.Query(`
        INSERT INTO users (
            user_bucket, user_id, email_hash, email_encrypted, email_dek, email_key_id,
            first_name, last_name, hashed_password, role, is_enabled, login_failure_count,
            created_on, created_by, modified_on, modified_by
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	prepared.InsertEmailToUser = s.Session.Query(`
        INSERT INTO email_to_user (email_hash, user_bucket, user_id)
        VALUES (?, ?, ?)`)

	prepared.GetUserByID = s.Session.Query(`
        SELECT user_bucket, user_id, email_hash, email_encrypted, email_dek, email_key_id,
            first_name, last_name, hashed_password, role, is_enabled, login_failure_count,
            created_on, created_by, modified_on, modified_by
        FROM users WHERE user_bucket = ? AND user_id = ?`)

	prepared.GetUserIDByEmail = s.Session.Query(`
        SELECT user_bucket, user_id FROM email_to_user WHERE email_hash = ?`)

	prepared.UpdateUser = s.Session.Query(`
        UPDATE users SET email_hash = ?, email_encrypted = ?, email_dek = ?, email_key_id = ?,
            first_name = ?, last_name = ?, hashed_password = ?, role = ?, is_enabled = ?,
            login_failure_count = ?, modified_on = ?, modified_by = ?
        WHERE user_bucket = ? AND user_id = ?`)

	prepared.UpsertOverride = s.Session.Query(`
        INSERT INTO permission_overrides (
            user_id, permission, override_id, is_enabled,
            created_on, created_by, modified_on, modified_by
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)

	prepared.ListOverrides = s.Session.Query(`
        SELECT user_id, permission, override_id, is_enabled,
            created_on, created_by, modified_on, modified_by
        FROM permission_overrides WHERE user_id = ?`)

	prepared.ListRolePermissions = s.Session.Query(`
        SELECT permission, is_enabled FROM role_permissions WHERE role = ?`)

	prepared.InsertLoginAudit = s.Session.Query(`
        INSERT INTO login_audit (user_id, audit_id, is_success, error_code, created_on)
        VALUES (?, ?, ?, ?, ?)`)

	prepared.UpdateLoginAudit = s.Session.Query(`
        UPDATE login_audit SET is_success = ?, error_code = ?
        WHERE user_id = ? AND audit_id = ?`)

	prepared.ListUsers = s.Session.Query(`
        SELECT user_bucket, user_id, email_hash, email_encrypted, email_dek, email_key_id,
            first_name, last_name, hashed_password, role, is_enabled, login_failure_count,
            created_on, created_by, modified_on, modified_by
        FROM users`)

	s.Prepared = prepared
	s.isPrepared = true

	util.Info("ScyllaDB prepared statements created")
	return nil
}

func (s *ScyllaClient) Close() {
	if s.Session != nil {
		s.Session.Close()
		util.Info("ScyllaDB client closed")
	}
}

func (s *ScyllaClient) Batch(typ gocql.BatchType) *gocql.Batch {
	return s.Session.NewBatch(typ)
}

func (s *ScyllaClient) ExecuteBatch(batch *gocql.Batch) error {
	return s.Session.ExecuteBatch(batch)
}

func (s *ScyllaClient) HealthCheck(ctx context.Context) error {
	var clusterName string
	err := s.Session.Query(`SELECT cluster_name FROM system.local`).WithContext(ctx).Scan(&clusterName)
	if err != nil {
		return fmt.Errorf("scylla health check failed: %w", err)
	}
	return nil
}
