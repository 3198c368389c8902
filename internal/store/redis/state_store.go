// Package redis provides Redis-based implementations of the store interfaces.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"netwarden/internal/config"
)

// prefixDigestLast keys per-channel digest last-sent instants.
const prefixDigestLast = "digest:last:"

// DigestStateStore implements store.DigestStateStore using Redis.
// Last-sent instants are stored as RFC3339 strings so they remain
// human-inspectable with redis-cli.
type DigestStateStore struct {
	client *redis.Client
}

// NewDigestStateStore creates a new Redis-backed digest state store.
func NewDigestStateStore(cfg *config.RedisConfig) (*DigestStateStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &DigestStateStore{client: client}, nil
}

// GetLastSent retrieves the last digest send instant for a channel.
// Returns the zero time and no error if the channel has never sent.
func (s *DigestStateStore) GetLastSent(ctx context.Context, channelID string) (time.Time, error) {
	value, err := s.client.Get(ctx, prefixDigestLast+channelID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return time.Time{}, nil
		}
		return time.Time{}, fmt.Errorf("failed to get digest state: %w", err)
	}

	sentAt, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse digest state %q: %w", value, err)
	}
	return sentAt, nil
}

// SetLastSent records the last digest send instant for a channel.
func (s *DigestStateStore) SetLastSent(ctx context.Context, channelID string, sentAt time.Time) error {
	value := sentAt.UTC().Format(time.RFC3339Nano)
	if err := s.client.Set(ctx, prefixDigestLast+channelID, value, 0).Err(); err != nil {
		return fmt.Errorf("failed to set digest state: %w", err)
	}
	return nil
}

// Close closes the Redis client connection.
func (s *DigestStateStore) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}
