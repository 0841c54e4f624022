package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Telegram redelivers webhook updates until it sees a 2xx, so an update can
// arrive more than once. Processed update IDs are remembered for long enough
// to cover Telegram's retry horizon.
const updateSeenTTL = 24 * time.Hour

// RedisStore tracks processed Telegram update IDs and backs the rate
// limiter. It is optional: without Redis the service still runs, it just
// loses cross-restart webhook dedup and rate limiting.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a new Redis store.
func NewRedisStore(ctx context.Context, redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisStore{client: client}, nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Ping checks the Redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Client exposes the underlying client for the rate limiter middleware.
func (s *RedisStore) Client() *redis.Client {
	return s.client
}

// updateKey returns the key marking a processed Telegram update.
func updateKey(updateID int64) string {
	return fmt.Sprintf("tg:update:%d", updateID)
}

// MarkUpdateProcessed marks a Telegram update as handled. Returns false if
// it was already marked, meaning this delivery is a duplicate.
func (s *RedisStore) MarkUpdateProcessed(ctx context.Context, updateID int64) (bool, error) {
	return s.client.SetNX(ctx, updateKey(updateID), "1", updateSeenTTL).Result()
}
