package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"account-service/internal/client"
	"account-service/internal/models"
	"account-service/internal/util"
)

const effectiveUserKeyPrefix = "effective_user:"

// ErrCacheMiss is returned when no entry exists for the user.
var ErrCacheMiss = errors.New("cache miss")

// IdentityCache stores resolved identities with an absolute expiry. Entries
// are written on login and on cache miss and removed whenever an admin
// changes the account, so staleness is bounded by the TTL.
type IdentityCache struct {
	redis *client.RedisClient
	ttl   time.Duration
}

func NewIdentityCache(redisClient *client.RedisClient, ttl time.Duration) *IdentityCache {
	return &IdentityCache{
		redis: redisClient,
		ttl:   ttl,
	}
}

func (c *IdentityCache) Get(ctx context.Context, userID string) (*models.EffectiveUser, error) {
	data, err := c.redis.Get(ctx, c.key(userID))
	if err != nil {
		if errors.Is(err, client.ErrKeyNotFound) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to read identity cache: %w", err)
	}

	var user models.EffectiveUser
	if err := json.Unmarshal([]byte(data), &user); err != nil {
		return nil, fmt.Errorf("failed to decode cached identity: %w", err)
	}
	return &user, nil
}

func (c *IdentityCache) Set(ctx context.Context, user *models.EffectiveUser) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to encode identity: %w", err)
	}

	if err := c.redis.Set(ctx, c.key(user.ID), data, c.ttl); err != nil {
		return fmt.Errorf("failed to write identity cache: %w", err)
	}

	util.Debug("identity cached",
		zap.String("user_id", user.ID),
		zap.Duration("ttl", c.ttl))
	return nil
}

func (c *IdentityCache) Remove(ctx context.Context, userID string) error {
	if err := c.redis.Del(ctx, c.key(userID)); err != nil {
		return fmt.Errorf("failed to remove cached identity: %w", err)
	}
	return nil
}

func (c *IdentityCache) key(userID string) string {
	return effectiveUserKeyPrefix + userID
}
