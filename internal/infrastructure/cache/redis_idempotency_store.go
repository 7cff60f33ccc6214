package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/tierhub/backend/internal/domain/shared"
)

// DefaultIdempotencyKeyPrefix namespaces processed webhook event ids
const DefaultIdempotencyKeyPrefix = "webhook:event:"

// RedisIdempotencyStore shares processed event ids between API instances.
// Each claim is a key holding the time it was taken.
type RedisIdempotencyStore struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisIdempotencyStore uses client, which stays owned by the caller. An
// empty keyPrefix selects DefaultIdempotencyKeyPrefix.
func NewRedisIdempotencyStore(client *redis.Client, keyPrefix string) *RedisIdempotencyStore {
	if keyPrefix == "" {
		keyPrefix = DefaultIdempotencyKeyPrefix
	}
	return &RedisIdempotencyStore{client: client, keyPrefix: keyPrefix}
}

func (s *RedisIdempotencyStore) key(eventID string) string {
	return s.keyPrefix + eventID
}

// MarkProcessed claims eventID with SET NX; redis.Nil means it was taken
func (s *RedisIdempotencyStore) MarkProcessed(ctx context.Context, eventID string, ttl time.Duration) (bool, error) {
	claimedAt := time.Now().UTC().Format(time.RFC3339)
	err := s.client.SetArgs(ctx, s.key(eventID), claimedAt, redis.SetArgs{Mode: "NX", TTL: ttl}).Err()
	switch {
	case errors.Is(err, redis.Nil):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("claim webhook event %s: %w", eventID, err)
	}
	return true, nil
}

// IsProcessed reports whether a claim key exists
func (s *RedisIdempotencyStore) IsProcessed(ctx context.Context, eventID string) (bool, error) {
	n, err := s.client.Exists(ctx, s.key(eventID)).Result()
	if err != nil {
		return false, fmt.Errorf("check webhook event %s: %w", eventID, err)
	}
	return n > 0, nil
}

// Release deletes the claim so the next delivery is processed
func (s *RedisIdempotencyStore) Release(ctx context.Context, eventID string) error {
	if err := s.client.Del(ctx, s.key(eventID)).Err(); err != nil {
		return fmt.Errorf("release webhook event %s: %w", eventID, err)
	}
	return nil
}

// Close does nothing; StoreFactory closes the shared client
func (s *RedisIdempotencyStore) Close() error { return nil }

var _ shared.IdempotencyStore = (*RedisIdempotencyStore)(nil)
