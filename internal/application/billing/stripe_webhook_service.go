package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/webhook"
	"github.com/tierhub/backend/internal/domain/billing"
	"github.com/tierhub/backend/internal/domain/shared"
	"github.com/tierhub/backend/internal/infrastructure/logger"
	"github.com/tierhub/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var (
	// ErrInvalidSignature is returned when the payload does not carry a valid provider signature
	ErrInvalidSignature = errors.New("webhook signature verification failed")
	// ErrUnprocessableEvent marks payloads that no retry can fix (missing correlation data, bad ids)
	ErrUnprocessableEvent = errors.New("webhook event cannot be processed")
)

// PaymentConfirmer applies a provider-confirmed payment
type PaymentConfirmer interface {
	ConfirmPayment(ctx context.Context, in ConfirmPaymentInput) (*ConfirmPaymentResult, error)
}

// StripeWebhookService verifies and dispatches Stripe webhook events
type StripeWebhookService struct {
	webhookSecret string
	confirmer     PaymentConfirmer
	txScope       TransactionScope
	paymentRepo   billing.PaymentRepository
	idempotency   shared.IdempotencyStore
	idemConfig    shared.IdempotencyConfig
	events        shared.EventPublisher
	logger        *zap.Logger
}

// StripeWebhookServiceConfig contains configuration for StripeWebhookService
type StripeWebhookServiceConfig struct {
	WebhookSecret     string
	Confirmer         PaymentConfirmer
	TxScope           TransactionScope
	PaymentRepo       billing.PaymentRepository
	Idempotency       shared.IdempotencyStore
	IdempotencyConfig shared.IdempotencyConfig
	Events            shared.EventPublisher
	Logger            *zap.Logger
}

// NewStripeWebhookService creates a new StripeWebhookService
func NewStripeWebhookService(cfg StripeWebhookServiceConfig) *StripeWebhookService {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.IdempotencyConfig.TTL <= 0 {
		cfg.IdempotencyConfig = shared.DefaultIdempotencyConfig()
	}
	return &StripeWebhookService{
		webhookSecret: cfg.WebhookSecret,
		confirmer:     cfg.Confirmer,
		txScope:       cfg.TxScope,
		paymentRepo:   cfg.PaymentRepo,
		idempotency:   cfg.Idempotency,
		idemConfig:    cfg.IdempotencyConfig,
		events:        cfg.Events,
		logger:        log,
	}
}

// log annotates entries with the request, event and trace ids on ctx
func (s *StripeWebhookService) log(ctx context.Context) *logger.ContextLogger {
	return logger.WithLogger(ctx, s.logger)
}

// WebhookResult contains the result of processing a webhook
type WebhookResult struct {
	EventID   string `json:"event_id"`
	EventType string `json:"event_type"`
	Processed bool   `json:"processed"`
	Duplicate bool   `json:"duplicate,omitempty"`
	Message   string `json:"message,omitempty"`
}

// ProcessWebhook verifies the signature and processes a Stripe webhook event.
// Errors wrapping ErrInvalidSignature or ErrUnprocessableEvent must not be retried;
// any other error should be answered so that the provider redelivers.
func (s *StripeWebhookService) ProcessWebhook(ctx context.Context, payload []byte, signature string) (*WebhookResult, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, s.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		s.log(ctx).Warn("Failed to verify webhook signature", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return s.HandleEvent(ctx, event)
}

// HandleEvent processes an already verified event
func (s *StripeWebhookService) HandleEvent(ctx context.Context, event stripe.Event) (*WebhookResult, error) {
	result := &WebhookResult{
		EventID:   event.ID,
		EventType: string(event.Type),
		Processed: true,
	}

	ctx, span := telemetry.StartServiceSpan(ctx, "stripe_webhook", "handle_event",
		attribute.String(telemetry.SpanAttrEventID, event.ID),
		attribute.String(telemetry.SpanAttrEventType, string(event.Type)))
	defer span.End()
	ctx, _ = logger.WithEventID(ctx, logger.FromContext(ctx), event.ID)

	if s.idempotency != nil && s.idemConfig.Enabled && event.ID != "" {
		marked, err := s.idempotency.MarkProcessed(ctx, event.ID, s.idemConfig.TTL)
		if err != nil {
			// The payment id uniqueness check still guards confirmations.
			s.log(ctx).Warn("Idempotency store unavailable", zap.Error(err))
		} else if !marked {
			s.log(ctx).Info("Duplicate webhook event ignored",
				zap.String("event_type", string(event.Type)))
			result.Duplicate = true
			result.Message = "Event already processed"
			return result, nil
		}
	}

	s.log(ctx).Info("Processing Stripe webhook event",
		zap.String("event_type", string(event.Type)))

	var err error
	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted, stripe.EventTypeCheckoutSessionAsyncPaymentSucceeded:
		err = s.handleCheckoutCompleted(ctx, event, result)
	case stripe.EventTypeCustomerSubscriptionUpdated:
		err = s.handleSubscriptionUpdated(ctx, event)
	case stripe.EventTypeCustomerSubscriptionDeleted:
		err = s.handleSubscriptionDeleted(ctx, event)
	case stripe.EventTypeChargeRefunded:
		err = s.handleChargeRefunded(ctx, event)
	default:
		s.log(ctx).Debug("Unhandled webhook event type", zap.String("event_type", string(event.Type)))
		result.Message = "Event type not handled"
	}

	if err != nil {
		telemetry.RecordError(span, err)
		result.Processed = false
		if errors.Is(err, ErrUnprocessableEvent) {
			s.log(ctx).Error("Webhook event cannot be processed, operator follow-up required",
				zap.String("event_type", string(event.Type)),
				zap.Error(err))
			result.Message = "Event acknowledged but not processed"
			return result, err
		}
		s.log(ctx).Error("Failed to process webhook event",
			zap.String("event_type", string(event.Type)),
			zap.Error(err))
		s.release(ctx, event.ID)
		return result, err
	}
	return result, nil
}

func (s *StripeWebhookService) release(ctx context.Context, eventID string) {
	if s.idempotency == nil || !s.idemConfig.Enabled || eventID == "" {
		return
	}
	if err := s.idempotency.Release(ctx, eventID); err != nil {
		s.log(ctx).Warn("Failed to release webhook event for retry", zap.Error(err))
	}
}

// handleCheckoutCompleted correlates a completed checkout back to the user and tier
func (s *StripeWebhookService) handleCheckoutCompleted(ctx context.Context, event stripe.Event, result *WebhookResult) error {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return fmt.Errorf("%w: failed to unmarshal checkout session: %v", ErrUnprocessableEvent, err)
	}

	if session.PaymentStatus == stripe.CheckoutSessionPaymentStatusUnpaid {
		s.log(ctx).Info("Checkout completed without payment yet, waiting for async confirmation",
			zap.String("session_id", session.ID))
		result.Message = "Payment pending"
		return nil
	}

	in, err := confirmInputFromSession(&session)
	if err != nil {
		return err
	}

	confirmed, err := s.confirmer.ConfirmPayment(ctx, in)
	if err != nil {
		return err
	}
	if confirmed.Duplicate {
		result.Duplicate = true
		result.Message = "Payment already recorded"
	}
	return nil
}

func confirmInputFromSession(session *stripe.CheckoutSession) (ConfirmPaymentInput, error) {
	userID := strings.TrimSpace(session.ClientReferenceID)
	if userID == "" {
		userID = strings.TrimSpace(session.Metadata["user_id"])
	}
	if userID == "" {
		return ConfirmPaymentInput{}, fmt.Errorf("%w: session %s has no user reference", ErrUnprocessableEvent, session.ID)
	}

	tierID, err := uuid.Parse(strings.TrimSpace(session.Metadata["tier_id"]))
	if err != nil {
		return ConfirmPaymentInput{}, fmt.Errorf("%w: session %s has an invalid tier_id", ErrUnprocessableEvent, session.ID)
	}

	in := ConfirmPaymentInput{
		UserID:   userID,
		TierID:   tierID,
		Amount:   session.AmountTotal,
		Currency: string(session.Currency),
	}
	if session.Subscription != nil {
		in.ExternalSubscriptionID = session.Subscription.ID
	}
	switch {
	case session.PaymentIntent != nil && session.PaymentIntent.ID != "":
		in.ExternalPaymentID = session.PaymentIntent.ID
	case in.ExternalSubscriptionID != "":
		in.ExternalPaymentID = in.ExternalSubscriptionID
	default:
		in.ExternalPaymentID = session.ID
	}
	return in, nil
}

// handleSubscriptionUpdated refreshes the cached end date, or deactivates the
// local subscription when the provider reports it as terminated
func (s *StripeWebhookService) handleSubscriptionUpdated(ctx context.Context, event stripe.Event) error {
	var subscription stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &subscription); err != nil {
		return fmt.Errorf("%w: failed to unmarshal subscription: %v", ErrUnprocessableEvent, err)
	}

	return s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		local, err := repos.SubscriptionRepo().FindByExternalID(ctx, subscription.ID)
		if errors.Is(err, billing.ErrSubscriptionNotFound) {
			s.log(ctx).Info("No local subscription for provider subscription, ignoring",
				zap.String("external_subscription_id", subscription.ID))
			return nil
		}
		if err != nil {
			return err
		}
		if _, err := repos.UserRepo().FindByExternalIDForUpdate(ctx, local.UserID); err != nil {
			return err
		}

		switch subscription.Status {
		case stripe.SubscriptionStatusCanceled, stripe.SubscriptionStatusUnpaid, stripe.SubscriptionStatusIncompleteExpired:
			local.Deactivate()
		default:
			if subscription.CurrentPeriodEnd > 0 {
				local.ExtendTo(time.Unix(subscription.CurrentPeriodEnd, 0).UTC())
			}
		}

		s.log(ctx).Info("Subscription updated from provider",
			zap.String("external_subscription_id", subscription.ID),
			zap.String("status", string(subscription.Status)),
			zap.Bool("active", local.IsActive),
			zap.Time("end_date", local.EndDate))
		return repos.SubscriptionRepo().Save(ctx, local)
	})
}

// handleSubscriptionDeleted removes the local subscription the provider has ended
func (s *StripeWebhookService) handleSubscriptionDeleted(ctx context.Context, event stripe.Event) error {
	var subscription stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &subscription); err != nil {
		return fmt.Errorf("%w: failed to unmarshal subscription: %v", ErrUnprocessableEvent, err)
	}

	var removed *billing.Subscription
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		local, err := repos.SubscriptionRepo().FindByExternalID(ctx, subscription.ID)
		if errors.Is(err, billing.ErrSubscriptionNotFound) {
			// Already superseded locally; the cancellation came from us.
			return nil
		}
		if err != nil {
			return err
		}
		if _, err := repos.UserRepo().FindByExternalIDForUpdate(ctx, local.UserID); err != nil {
			return err
		}
		if err := repos.SubscriptionRepo().Delete(ctx, local.ID); err != nil {
			return err
		}
		local.MarkCancelled()
		removed = local
		return nil
	})
	if err != nil {
		return err
	}
	if removed != nil {
		s.publish(ctx, removed.GetDomainEvents()...)
		s.log(ctx).Info("Subscription removed after provider deletion",
			zap.String("user_id", removed.UserID),
			zap.String("external_subscription_id", subscription.ID))
	}
	return nil
}

// handleChargeRefunded moves the matching ledger entry to refunded
func (s *StripeWebhookService) handleChargeRefunded(ctx context.Context, event stripe.Event) error {
	var charge stripe.Charge
	if err := json.Unmarshal(event.Data.Raw, &charge); err != nil {
		return fmt.Errorf("%w: failed to unmarshal charge: %v", ErrUnprocessableEvent, err)
	}
	if charge.PaymentIntent == nil || charge.PaymentIntent.ID == "" {
		s.log(ctx).Info("Refunded charge has no payment intent, ignoring", zap.String("charge_id", charge.ID))
		return nil
	}

	payment, err := s.paymentRepo.FindByExternalID(ctx, charge.PaymentIntent.ID)
	if errors.Is(err, billing.ErrPaymentNotFound) {
		s.log(ctx).Info("No payment for refunded charge, ignoring",
			zap.String("payment_intent_id", charge.PaymentIntent.ID))
		return nil
	}
	if err != nil {
		return err
	}
	if payment.Status == billing.PaymentStatusRefunded {
		return nil
	}
	if err := payment.MarkRefunded(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnprocessableEvent, err)
	}
	if err := s.paymentRepo.UpdateStatus(ctx, payment); err != nil {
		return err
	}
	s.publish(ctx, billing.NewPaymentRefundedEvent(payment))
	s.log(ctx).Info("Payment refunded",
		zap.String("external_payment_id", payment.ExternalPaymentID),
		zap.Int64("amount", payment.Amount))
	return nil
}

func (s *StripeWebhookService) publish(ctx context.Context, events ...shared.DomainEvent) {
	if s.events == nil || len(events) == 0 {
		return
	}
	if err := s.events.Publish(ctx, events...); err != nil {
		s.log(ctx).Warn("failed to publish billing events", zap.Error(err))
	}
}
