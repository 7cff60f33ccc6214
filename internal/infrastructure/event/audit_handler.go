package event

import (
	"context"

	"github.com/tierhub/backend/internal/domain/billing"
	"github.com/tierhub/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// BillingAuditHandler writes one structured audit line per billing event
type BillingAuditHandler struct {
	logger *zap.Logger
}

// NewBillingAuditHandler creates a BillingAuditHandler
func NewBillingAuditHandler(logger *zap.Logger) *BillingAuditHandler {
	return &BillingAuditHandler{logger: logger.Named("billing_audit")}
}

// EventTypes lists the billing events this handler records
func (h *BillingAuditHandler) EventTypes() []string {
	return []string{
		billing.EventTypeSubscriptionActivated,
		billing.EventTypeSubscriptionCancelled,
		billing.EventTypePaymentConfirmed,
		billing.EventTypePaymentRefunded,
	}
}

// Handle logs the event
func (h *BillingAuditHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	fields := []zap.Field{
		zap.String("event_type", event.EventType()),
		zap.String("event_id", event.EventID().String()),
		zap.String("aggregate_type", event.AggregateType()),
		zap.String("aggregate_id", event.AggregateID().String()),
		zap.Time("occurred_at", event.OccurredAt()),
	}

	switch e := event.(type) {
	case *billing.SubscriptionActivatedEvent:
		fields = append(fields, zap.String("user_id", e.UserID), zap.String("tier_id", e.TierID.String()), zap.Bool("free", e.Free))
	case *billing.SubscriptionCancelledEvent:
		fields = append(fields, zap.String("user_id", e.UserID), zap.String("tier_id", e.TierID.String()),
			zap.String("external_subscription_id", e.ExternalSubscriptionID))
	case *billing.PaymentConfirmedEvent:
		fields = append(fields, zap.String("tier_id", e.TierID.String()), zap.String("external_payment_id", e.ExternalPaymentID),
			zap.Int64("amount", e.Amount), zap.String("currency", e.Currency))
	case *billing.PaymentRefundedEvent:
		fields = append(fields, zap.String("external_payment_id", e.ExternalPaymentID),
			zap.Int64("amount", e.Amount), zap.String("currency", e.Currency))
	}

	h.logger.Info("Billing event", fields...)
	return nil
}

var _ shared.EventHandler = (*BillingAuditHandler)(nil)
