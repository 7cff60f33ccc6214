package shared

import (
	"context"
	"time"
)

// DefaultIdempotencyTTL covers the provider's redelivery window for webhooks
const DefaultIdempotencyTTL = 24 * time.Hour

// IdempotencyStore remembers which provider event ids were already handled.
// It is a fast path in front of the unique payment id constraint, so a store
// outage degrades to database-level deduplication.
type IdempotencyStore interface {
	// MarkProcessed claims eventID for ttl. It reports false when the id was
	// already claimed.
	MarkProcessed(ctx context.Context, eventID string, ttl time.Duration) (bool, error)
	IsProcessed(ctx context.Context, eventID string) (bool, error)
	// Release gives up a claim after a transient failure so the provider's
	// retry is processed
	Release(ctx context.Context, eventID string) error
	Close() error
}

// IdempotencyConfig controls webhook deduplication
type IdempotencyConfig struct {
	TTL     time.Duration
	Enabled bool
}

// DefaultIdempotencyConfig enables deduplication with DefaultIdempotencyTTL
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{TTL: DefaultIdempotencyTTL, Enabled: true}
}
