package billing

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tierhub/backend/internal/domain/catalog"
	"github.com/tierhub/backend/internal/domain/shared"
)

const (
	// PaidPeriod is the rolling window granted by a confirmed payment. Renewal events extend it.
	PaidPeriod = 30 * 24 * time.Hour
	// FreePeriod is the fixed validity of a free tier registration
	FreePeriod = 365 * 24 * time.Hour
	// RefillInterval is how often recurring tiers get a fresh allowance
	RefillInterval = 30 * 24 * time.Hour
)

var (
	ErrSubscriptionNotFound = shared.NewDomainError("SUBSCRIPTION_NOT_FOUND", "No active subscription")
	ErrAlreadySubscribed    = shared.NewDomainError("ALREADY_SUBSCRIBED", "User already has an active subscription on this tier")
)

// Subscription binds a user to a tier for a period of time
type Subscription struct {
	shared.BaseAggregateRoot
	// UserID is the external identity id of the subscriber
	UserID                 string
	TierID                 uuid.UUID
	Tier                   *catalog.Tier
	StartDate              time.Time
	EndDate                time.Time
	IsActive               bool
	ExternalSubscriptionID string
	QuotaResetAt           time.Time
}

// NewPaidSubscription creates the subscription materialized by a confirmed payment
func NewPaidSubscription(userID string, tier *catalog.Tier, externalSubscriptionID string, now time.Time) *Subscription {
	s := newSubscription(userID, tier, now, now.Add(PaidPeriod))
	s.ExternalSubscriptionID = strings.TrimSpace(externalSubscriptionID)
	s.AddDomainEvent(NewSubscriptionActivatedEvent(s))
	return s
}

// NewFreeSubscription creates a free tier registration. It never carries an external reference.
func NewFreeSubscription(userID string, tier *catalog.Tier, now time.Time) *Subscription {
	s := newSubscription(userID, tier, now, now.Add(FreePeriod))
	s.AddDomainEvent(NewSubscriptionActivatedEvent(s))
	return s
}

func newSubscription(userID string, tier *catalog.Tier, start, end time.Time) *Subscription {
	root := shared.NewBaseAggregateRoot()
	root.CreatedAt = start
	root.UpdatedAt = start
	return &Subscription{
		BaseAggregateRoot: root,
		UserID:            userID,
		TierID:            tier.ID,
		Tier:              tier,
		StartDate:         start,
		EndDate:           end,
		IsActive:          true,
		QuotaResetAt:      start,
	}
}

// HasExternalReference reports whether the payment provider holds a matching subscription
func (s *Subscription) HasExternalReference() bool {
	return s.ExternalSubscriptionID != ""
}

// Deactivate marks the subscription inactive without removing it
func (s *Subscription) Deactivate() {
	if !s.IsActive {
		return
	}
	s.IsActive = false
	s.UpdatedAt = time.Now()
	s.IncrementVersion()
}

// ExtendTo moves the end date to the provider's current period end
func (s *Subscription) ExtendTo(end time.Time) {
	if end.IsZero() || end.Equal(s.EndDate) {
		return
	}
	s.EndDate = end
	s.UpdatedAt = time.Now()
	s.IncrementVersion()
}

// RefillDue reports whether a fresh allowance is owed at now
func (s *Subscription) RefillDue(now time.Time) bool {
	if !s.IsActive {
		return false
	}
	return !now.Before(s.QuotaResetAt.Add(RefillInterval))
}

// MarkRefilled stamps the quota reset time
func (s *Subscription) MarkRefilled(now time.Time) {
	s.QuotaResetAt = now
	s.UpdatedAt = now
	s.IncrementVersion()
}

// MarkCancelled records the cancellation event before the row is removed
func (s *Subscription) MarkCancelled() {
	s.IsActive = false
	s.AddDomainEvent(NewSubscriptionCancelledEvent(s))
}

// SubscriptionRepository defines persistence operations for subscriptions
type SubscriptionRepository interface {
	// FindActiveByUser finds the active subscription with its tier and the tier's products.
	// Returns ErrSubscriptionNotFound when the user has none.
	FindActiveByUser(ctx context.Context, userID string) (*Subscription, error)

	// FindByUser lists every subscription row of a user, active or not
	FindByUser(ctx context.Context, userID string) ([]Subscription, error)

	// FindByExternalID finds the subscription bound to a provider subscription id
	FindByExternalID(ctx context.Context, externalID string) (*Subscription, error)

	// FindRefillCandidates lists active subscriptions on recurring paid tiers, with their tier
	FindRefillCandidates(ctx context.Context) ([]Subscription, error)

	// CountActiveByTier counts active subscriptions on a tier
	CountActiveByTier(ctx context.Context, tierID uuid.UUID) (int64, error)

	// Save creates or updates a subscription
	Save(ctx context.Context, subscription *Subscription) error

	// Delete removes a subscription row
	Delete(ctx context.Context, id uuid.UUID) error
}
