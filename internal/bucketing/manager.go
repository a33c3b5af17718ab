package bucketing

import (
	"hash"
	"sync"

	"account-service/internal/config"

	"github.com/spaolacci/murmur3"
)

// Manager assigns users to a fixed number of partition buckets. The bucket
// is part of the Scylla partition key, so assignment must be stable for the
// lifetime of a deployment.
type Manager struct {
	userBuckets int
	hasherPool  sync.Pool
}

func NewManager(cfg *config.Config) *Manager {
	m := &Manager{
		userBuckets: cfg.Bucketing.UserBuckets,
	}
	m.hasherPool = sync.Pool{
		New: func() interface{} {
			return murmur3.New64()
		},
	}
	return m
}

// UserBucket returns the consistent bucket for a user id, in [0, UserBuckets).
func (m *Manager) UserBucket(userID string) int {
	return int(m.hash(userID) % uint64(m.userBuckets))
}

// UserBuckets returns the configured bucket count.
func (m *Manager) UserBuckets() int {
	return m.userBuckets
}

func (m *Manager) hash(key string) uint64 {
	hasher := m.hasherPool.Get().(hash.Hash64)
	defer m.hasherPool.Put(hasher)

	hasher.Reset()
	hasher.Write([]byte(key))
	return hasher.Sum64()
}
