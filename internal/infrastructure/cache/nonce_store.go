package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ProductAccessKeyPrefix namespaces product access nonces in Redis
const ProductAccessKeyPrefix = "product_access:"

// RedisNonceStore records product access nonces in Redis so each token is usable once
type RedisNonceStore struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisNonceStore creates a nonce store with an existing Redis client
func NewRedisNonceStore(client *redis.Client) *RedisNonceStore {
	return &RedisNonceStore{
		client:    client,
		keyPrefix: ProductAccessKeyPrefix,
	}
}

func (s *RedisNonceStore) key(nonce string) string {
	return s.keyPrefix + nonce
}

// Store records the nonce with a TTL
func (s *RedisNonceStore) Store(ctx context.Context, nonce string, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.key(nonce), "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to store product access nonce: %w", err)
	}
	return nil
}

// Consume atomically removes the nonce (GETDEL)
func (s *RedisNonceStore) Consume(ctx context.Context, nonce string) (bool, error) {
	_, err := s.client.GetDel(ctx, s.key(nonce)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to consume product access nonce: %w", err)
	}
	return true, nil
}

// InMemoryNonceStore is a single-instance nonce store for development and tests
type InMemoryNonceStore struct {
	mu      sync.Mutex
	entries map[string]time.Time // nonce -> expiration
	now     func() time.Time
}

// NewInMemoryNonceStore creates a new in-memory nonce store
func NewInMemoryNonceStore() *InMemoryNonceStore {
	return &InMemoryNonceStore{
		entries: make(map[string]time.Time),
		now:     time.Now,
	}
}

// Store records the nonce with a TTL
func (s *InMemoryNonceStore) Store(_ context.Context, nonce string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[nonce] = s.now().Add(ttl)
	return nil
}

// Consume removes the nonce if present and unexpired
func (s *InMemoryNonceStore) Consume(_ context.Context, nonce string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	expiration, ok := s.entries[nonce]
	if !ok {
		return false, nil
	}
	delete(s.entries, nonce)
	return s.now().Before(expiration), nil
}
