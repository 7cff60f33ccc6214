package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tierhub/backend/internal/domain/billing"
	"github.com/tierhub/backend/internal/domain/catalog"
	"github.com/tierhub/backend/internal/domain/identity"
	"github.com/tierhub/backend/internal/domain/shared"
	"github.com/tierhub/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// SubscriptionServiceConfig holds tunables for the reconciliation engine
type SubscriptionServiceConfig struct {
	// GatewayTimeout bounds every payment provider call
	GatewayTimeout time.Duration
}

// DefaultSubscriptionServiceConfig returns the default configuration
func DefaultSubscriptionServiceConfig() SubscriptionServiceConfig {
	return SubscriptionServiceConfig{
		GatewayTimeout: 10 * time.Second,
	}
}

// SubscriptionService keeps a user's subscription, quota and provider-side
// subscription consistent across checkout, payment confirmation, free tier
// registration and cancellation.
type SubscriptionService struct {
	txScope          TransactionScope
	userRepo         identity.UserRepository
	tierRepo         catalog.TierRepository
	subscriptionRepo billing.SubscriptionRepository
	gateway          billing.PaymentGateway
	events           shared.EventPublisher
	metrics          Metrics
	logger           *zap.Logger
	config           SubscriptionServiceConfig
	now              func() time.Time
}

// SubscriptionServiceDeps groups the collaborators of SubscriptionService
type SubscriptionServiceDeps struct {
	TxScope          TransactionScope
	UserRepo         identity.UserRepository
	TierRepo         catalog.TierRepository
	SubscriptionRepo billing.SubscriptionRepository
	Gateway          billing.PaymentGateway
	Events           shared.EventPublisher
	Metrics          Metrics
	Logger           *zap.Logger
}

// NewSubscriptionService creates a new SubscriptionService
func NewSubscriptionService(deps SubscriptionServiceDeps, config SubscriptionServiceConfig) *SubscriptionService {
	if config.GatewayTimeout <= 0 {
		config.GatewayTimeout = DefaultSubscriptionServiceConfig().GatewayTimeout
	}
	metrics := deps.Metrics
	if metrics == nil {
		metrics = NoopMetrics{}
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubscriptionService{
		txScope:          deps.TxScope,
		userRepo:         deps.UserRepo,
		tierRepo:         deps.TierRepo,
		subscriptionRepo: deps.SubscriptionRepo,
		gateway:          deps.Gateway,
		events:           deps.Events,
		metrics:          metrics,
		logger:           logger,
		config:           config,
		now:              time.Now,
	}
}

// CheckoutResult is either a provider checkout redirect or, for the free tier,
// the subscription created directly.
type CheckoutResult struct {
	SessionID    string
	URL          string
	FreeTier     bool
	Subscription *billing.Subscription
}

// ConfirmPaymentInput is a provider-confirmed charge correlated to a user and tier
type ConfirmPaymentInput struct {
	UserID                 string
	TierID                 uuid.UUID
	ExternalPaymentID      string
	ExternalSubscriptionID string
	Amount                 int64
	Currency               string
}

// ConfirmPaymentResult reports what a confirmation did
type ConfirmPaymentResult struct {
	Duplicate    bool
	Payment      *billing.Payment
	Subscription *billing.Subscription
}

// InitiateCheckout starts a tier purchase. Free tiers are registered directly.
// For paid tiers the current provider subscription is cancelled and a fresh
// checkout session is created on every call; no local subscription is created.
func (s *SubscriptionService) InitiateCheckout(ctx context.Context, userID string, tierID uuid.UUID) (*CheckoutResult, error) {
	tier, err := s.tierRepo.FindByID(ctx, tierID)
	if err != nil {
		return nil, err
	}

	if tier.IsFree {
		sub, err := s.RegisterFreeTier(ctx, userID)
		if err != nil {
			return nil, err
		}
		return &CheckoutResult{FreeTier: true, Subscription: sub}, nil
	}

	if _, err := s.userRepo.FindByExternalID(ctx, userID); err != nil {
		return nil, err
	}

	current, err := s.subscriptionRepo.FindActiveByUser(ctx, userID)
	if err != nil && !errors.Is(err, billing.ErrSubscriptionNotFound) {
		return nil, fmt.Errorf("failed to load active subscription: %w", err)
	}
	if current != nil && current.HasExternalReference() {
		if err := s.cancelAtGateway(ctx, current.ExternalSubscriptionID); err != nil {
			return nil, err
		}
		if err := s.deactivate(ctx, userID, current.ID); err != nil {
			return nil, err
		}
		s.logger.Info("superseded provider subscription before checkout",
			zap.String("user_id", userID),
			zap.String("subscription_id", current.ID.String()),
			zap.String("external_subscription_id", current.ExternalSubscriptionID))
	}

	gctx, cancel := context.WithTimeout(ctx, s.config.GatewayTimeout)
	defer cancel()
	session, err := s.gateway.CreateCheckoutSession(gctx, billing.CheckoutRequest{
		PriceID:   tier.ExternalPriceID,
		UserID:    userID,
		TierID:    tier.ID,
		Recurring: tier.IsRecurring(),
	})
	if err != nil {
		s.logger.Error("failed to create checkout session",
			zap.String("user_id", userID),
			zap.String("tier_id", tier.ID.String()),
			zap.Error(err))
		return nil, shared.NewGatewayError("Could not start checkout, please retry", err)
	}

	s.metrics.RecordCheckoutCreated(ctx)
	s.logger.Info("checkout session created",
		zap.String("user_id", userID),
		zap.String("tier_id", tier.ID.String()),
		zap.String("session_id", session.ID))

	return &CheckoutResult{SessionID: session.ID, URL: session.URL}, nil
}

// deactivate flips the local subscription to inactive under the user lock
func (s *SubscriptionService) deactivate(ctx context.Context, userID string, subscriptionID uuid.UUID) error {
	return s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		if _, err := repos.UserRepo().FindByExternalIDForUpdate(ctx, userID); err != nil {
			return err
		}
		sub, err := repos.SubscriptionRepo().FindActiveByUser(ctx, userID)
		if errors.Is(err, billing.ErrSubscriptionNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if sub.ID != subscriptionID {
			return nil
		}
		sub.Deactivate()
		return repos.SubscriptionRepo().Save(ctx, sub)
	})
}

// ConfirmPayment applies a provider-confirmed payment atomically: ledger entry,
// quota grant, replacement of any prior subscription and creation of the new one.
// A payment whose external id was already recorded is a successful no-op.
func (s *SubscriptionService) ConfirmPayment(ctx context.Context, in ConfirmPaymentInput) (*ConfirmPaymentResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "subscription", "confirm_payment",
		attribute.String(telemetry.SpanAttrUserID, in.UserID),
		attribute.String(telemetry.SpanAttrTierID, in.TierID.String()),
		attribute.String(telemetry.SpanAttrExternalPaymentID, in.ExternalPaymentID))
	defer span.End()

	start := s.now()
	result := &ConfirmPaymentResult{}
	var cancelled []*billing.Subscription

	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		user, err := repos.UserRepo().FindByExternalIDForUpdate(ctx, in.UserID)
		if err != nil {
			return err
		}

		exists, err := repos.PaymentRepo().ExistsByExternalID(ctx, in.ExternalPaymentID)
		if err != nil {
			return err
		}
		if exists {
			result.Duplicate = true
			return nil
		}

		tier, err := repos.TierRepo().FindByID(ctx, in.TierID)
		if err != nil {
			return err
		}

		now := s.now()
		payment, err := billing.NewCompletedPayment(user.ID, tier.ID, in.ExternalPaymentID, in.Amount, in.Currency, now)
		if err != nil {
			return err
		}
		if err := repos.PaymentRepo().Create(ctx, payment); err != nil {
			return err
		}

		user.GrantQuota(tier.Tokens)
		if err := repos.UserRepo().Save(ctx, user); err != nil {
			return err
		}

		cancelled, err = s.supersede(ctx, repos, in.UserID, in.ExternalSubscriptionID)
		if err != nil {
			return err
		}

		sub := billing.NewPaidSubscription(in.UserID, tier, in.ExternalSubscriptionID, now)
		if err := repos.SubscriptionRepo().Save(ctx, sub); err != nil {
			return err
		}

		result.Payment = payment
		result.Subscription = sub
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		s.logger.Error("failed to confirm payment",
			zap.String("user_id", in.UserID),
			zap.String("tier_id", in.TierID.String()),
			zap.String("external_payment_id", in.ExternalPaymentID),
			zap.Error(err))
		return nil, err
	}

	if result.Duplicate {
		s.metrics.RecordDuplicatePayment(ctx)
		s.logger.Info("duplicate payment confirmation ignored",
			zap.String("user_id", in.UserID),
			zap.String("external_payment_id", in.ExternalPaymentID))
		return result, nil
	}

	s.metrics.RecordPaymentConfirmed(ctx, s.now().Sub(start))
	s.publish(ctx, cancelled, result.Subscription)
	s.publishEvents(ctx, billing.NewPaymentConfirmedEvent(result.Payment))
	s.logger.Info("payment confirmed",
		zap.String("user_id", in.UserID),
		zap.String("tier_id", in.TierID.String()),
		zap.String("external_payment_id", in.ExternalPaymentID),
		zap.Int64("amount", in.Amount),
		zap.String("currency", result.Payment.Currency))

	return result, nil
}

// RegisterFreeTier puts the user on the free tier, superseding any current paid
// subscription. A user already on the free tier gets ErrAlreadySubscribed.
func (s *SubscriptionService) RegisterFreeTier(ctx context.Context, userID string) (*billing.Subscription, error) {
	var created *billing.Subscription
	var cancelled []*billing.Subscription

	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		user, err := repos.UserRepo().FindByExternalIDForUpdate(ctx, userID)
		if err != nil {
			return err
		}

		tier, err := repos.TierRepo().FindFree(ctx)
		if err != nil {
			return err
		}

		current, err := repos.SubscriptionRepo().FindActiveByUser(ctx, userID)
		switch {
		case err == nil && current.TierID == tier.ID:
			return billing.ErrAlreadySubscribed
		case err != nil && !errors.Is(err, billing.ErrSubscriptionNotFound):
			return err
		}

		cancelled, err = s.supersede(ctx, repos, userID, "")
		if err != nil {
			return err
		}

		user.GrantQuota(tier.Tokens)
		if err := repos.UserRepo().Save(ctx, user); err != nil {
			return err
		}

		created = billing.NewFreeSubscription(userID, tier, s.now())
		return repos.SubscriptionRepo().Save(ctx, created)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, cancelled, created)
	s.logger.Info("free tier registered",
		zap.String("user_id", userID),
		zap.String("subscription_id", created.ID.String()))

	return created, nil
}

// CancelSubscription cancels the user's active subscription. The provider side is
// cancelled first; if that fails the local row is kept and a retryable gateway
// error is returned. The user falls back to the default allowance.
func (s *SubscriptionService) CancelSubscription(ctx context.Context, userID string) error {
	var cancelled *billing.Subscription

	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		user, err := repos.UserRepo().FindByExternalIDForUpdate(ctx, userID)
		if err != nil {
			return err
		}

		sub, err := repos.SubscriptionRepo().FindActiveByUser(ctx, userID)
		if err != nil {
			return err
		}

		if sub.HasExternalReference() {
			if err := s.cancelAtGateway(ctx, sub.ExternalSubscriptionID); err != nil {
				return err
			}
		}
		if err := repos.SubscriptionRepo().Delete(ctx, sub.ID); err != nil {
			return err
		}

		user.GrantQuota(identity.DefaultAPIMaxCalls)
		if err := repos.UserRepo().Save(ctx, user); err != nil {
			return err
		}

		sub.MarkCancelled()
		cancelled = sub
		return nil
	})
	if err != nil {
		return err
	}

	s.publishEvents(ctx, cancelled.GetDomainEvents()...)
	s.logger.Info("subscription cancelled",
		zap.String("user_id", userID),
		zap.String("subscription_id", cancelled.ID.String()))
	return nil
}

// supersede removes every prior subscription row of the user. Provider-side
// cancellation is attempted for active rows only; inactive rows were already
// cancelled when checkout deactivated them. A failure is logged as an orphaned
// provider subscription and does not stop the local replacement.
func (s *SubscriptionService) supersede(ctx context.Context, repos TransactionalRepositories, userID, keepExternalID string) ([]*billing.Subscription, error) {
	prior, err := repos.SubscriptionRepo().FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	cancelled := make([]*billing.Subscription, 0, len(prior))
	for i := range prior {
		sub := &prior[i]
		if sub.IsActive && sub.HasExternalReference() && sub.ExternalSubscriptionID != keepExternalID {
			if err := s.cancelAtGateway(ctx, sub.ExternalSubscriptionID); err != nil {
				s.metrics.RecordGatewayCancelFailure(ctx)
				s.logger.Error("orphaned provider subscription, manual cancellation required",
					zap.String("user_id", userID),
					zap.String("subscription_id", sub.ID.String()),
					zap.String("external_subscription_id", sub.ExternalSubscriptionID),
					zap.Error(err))
			}
		}
		if err := repos.SubscriptionRepo().Delete(ctx, sub.ID); err != nil {
			return nil, err
		}
		sub.MarkCancelled()
		cancelled = append(cancelled, sub)
	}
	return cancelled, nil
}

func (s *SubscriptionService) cancelAtGateway(ctx context.Context, externalID string) error {
	gctx, cancel := context.WithTimeout(ctx, s.config.GatewayTimeout)
	defer cancel()
	if err := s.gateway.CancelSubscription(gctx, externalID); err != nil {
		return shared.NewGatewayError("Payment provider could not cancel the subscription, please retry", err)
	}
	return nil
}

func (s *SubscriptionService) publish(ctx context.Context, cancelled []*billing.Subscription, created *billing.Subscription) {
	events := make([]shared.DomainEvent, 0, len(cancelled)+1)
	for _, sub := range cancelled {
		events = append(events, sub.GetDomainEvents()...)
	}
	if created != nil {
		events = append(events, created.GetDomainEvents()...)
	}
	s.publishEvents(ctx, events...)
}

func (s *SubscriptionService) publishEvents(ctx context.Context, events ...shared.DomainEvent) {
	if s.events == nil || len(events) == 0 {
		return
	}
	if err := s.events.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish billing events", zap.Error(err))
	}
}
