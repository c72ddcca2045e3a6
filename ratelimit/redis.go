package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "ratelimit:"

// RedisStore backs the limiter with Redis so counts are shared across
// instances and bounded by native key expiry. INCR is atomic, which
// closes the read-modify-write race a shared in-process counter has
// under concurrent requests.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	redisKey := redisKeyPrefix + key

	count, err := s.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to increment rate limit key %s: %w", key, err)
	}

	// First hit in a window creates the key; give it the window TTL so
	// the counter resets itself.
	if count == 1 {
		if err := s.client.Expire(ctx, redisKey, window).Err(); err != nil {
			return count, fmt.Errorf("failed to set TTL on rate limit key %s: %w", key, err)
		}
	}

	return count, nil
}
