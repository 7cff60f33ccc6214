package billing

import (
	"github.com/google/uuid"
	"github.com/tierhub/backend/internal/domain/shared"
)

const (
	AggregateTypeSubscription = "Subscription"
	AggregateTypePayment      = "Payment"

	EventTypeSubscriptionActivated = "SubscriptionActivated"
	EventTypeSubscriptionCancelled = "SubscriptionCancelled"
	EventTypePaymentConfirmed      = "PaymentConfirmed"
	EventTypePaymentRefunded       = "PaymentRefunded"
)

// SubscriptionActivatedEvent is raised when a user gains a new active subscription
type SubscriptionActivatedEvent struct {
	shared.BaseDomainEvent
	UserID string    `json:"user_id"`
	TierID uuid.UUID `json:"tier_id"`
	Free   bool      `json:"free"`
}

// NewSubscriptionActivatedEvent creates a SubscriptionActivatedEvent
func NewSubscriptionActivatedEvent(s *Subscription) *SubscriptionActivatedEvent {
	free := s.Tier != nil && s.Tier.IsFree
	return &SubscriptionActivatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSubscriptionActivated, AggregateTypeSubscription, s.ID),
		UserID:          s.UserID,
		TierID:          s.TierID,
		Free:            free,
	}
}

// SubscriptionCancelledEvent is raised when a subscription is superseded or cancelled
type SubscriptionCancelledEvent struct {
	shared.BaseDomainEvent
	UserID                 string    `json:"user_id"`
	TierID                 uuid.UUID `json:"tier_id"`
	ExternalSubscriptionID string    `json:"external_subscription_id,omitempty"`
}

// NewSubscriptionCancelledEvent creates a SubscriptionCancelledEvent
func NewSubscriptionCancelledEvent(s *Subscription) *SubscriptionCancelledEvent {
	return &SubscriptionCancelledEvent{
		BaseDomainEvent:        shared.NewBaseDomainEvent(EventTypeSubscriptionCancelled, AggregateTypeSubscription, s.ID),
		UserID:                 s.UserID,
		TierID:                 s.TierID,
		ExternalSubscriptionID: s.ExternalSubscriptionID,
	}
}

// PaymentConfirmedEvent is raised when a provider-confirmed payment is recorded
type PaymentConfirmedEvent struct {
	shared.BaseDomainEvent
	UserID            uuid.UUID `json:"user_id"`
	TierID            uuid.UUID `json:"tier_id"`
	ExternalPaymentID string    `json:"external_payment_id"`
	Amount            int64     `json:"amount"`
	Currency          string    `json:"currency"`
}

// NewPaymentConfirmedEvent creates a PaymentConfirmedEvent
func NewPaymentConfirmedEvent(p *Payment) *PaymentConfirmedEvent {
	return &PaymentConfirmedEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent(EventTypePaymentConfirmed, AggregateTypePayment, p.ID),
		UserID:            p.UserID,
		TierID:            p.TierID,
		ExternalPaymentID: p.ExternalPaymentID,
		Amount:            p.Amount,
		Currency:          p.Currency,
	}
}

// PaymentRefundedEvent is raised when a payment transitions to refunded
type PaymentRefundedEvent struct {
	shared.BaseDomainEvent
	ExternalPaymentID string `json:"external_payment_id"`
	Amount            int64  `json:"amount"`
	Currency          string `json:"currency"`
}

// NewPaymentRefundedEvent creates a PaymentRefundedEvent
func NewPaymentRefundedEvent(p *Payment) *PaymentRefundedEvent {
	return &PaymentRefundedEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent(EventTypePaymentRefunded, AggregateTypePayment, p.ID),
		ExternalPaymentID: p.ExternalPaymentID,
		Amount:            p.Amount,
		Currency:          p.Currency,
	}
}
