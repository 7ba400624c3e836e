package adapters

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/lifedash/privacy_service/internal/domain/entities"
)

// ConsentDecisionCache caches consent-check decisions in Redis with a short
// TTL. It is strictly advisory: every error degrades to a cache miss, and a
// user's entries are dropped wholesale on any consent mutation.
type ConsentDecisionCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewConsentDecisionCache creates a consent decision cache
func NewConsentDecisionCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *ConsentDecisionCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &ConsentDecisionCache{client: client, ttl: ttl, logger: logger}
}

func decisionKey(userID uuid.UUID, purpose entities.DataProcessingPurpose, category entities.DataCategory) string {
	return fmt.Sprintf("consent:decision:%s:%s:%s", userID, purpose, category)
}

func userPattern(userID uuid.UUID) string {
	return fmt.Sprintf("consent:decision:%s:*", userID)
}

// Get returns a cached decision and whether one was found
func (c *ConsentDecisionCache) Get(ctx context.Context, userID uuid.UUID, purpose entities.DataProcessingPurpose, category entities.DataCategory) (bool, bool) {
	value, err := c.client.Get(ctx, decisionKey(userID, purpose, category)).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("consent cache read failed", zap.Error(err))
		}
		return false, false
	}
	return value == "1", true
}

// Set stores a decision with the configured TTL
func (c *ConsentDecisionCache) Set(ctx context.Context, userID uuid.UUID, purpose entities.DataProcessingPurpose, category entities.DataCategory, allowed bool) {
	value := "0"
	if allowed {
		value = "1"
	}
	if err := c.client.Set(ctx, decisionKey(userID, purpose, category), value, c.ttl).Err(); err != nil {
		c.logger.Warn("consent cache write failed", zap.Error(err))
	}
}

// InvalidateUser drops all cached decisions for a user
func (c *ConsentDecisionCache) InvalidateUser(ctx context.Context, userID uuid.UUID) {
	iter := c.client.Scan(ctx, 0, userPattern(userID), 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		c.logger.Warn("consent cache scan failed", zap.Error(err))
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn("consent cache invalidation failed", zap.Error(err))
	}
}
