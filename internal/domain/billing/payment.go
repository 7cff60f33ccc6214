package billing

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tierhub/backend/internal/domain/shared"
)

// PaymentStatus is the lifecycle state of a ledger entry
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

var ErrPaymentNotFound = shared.NewDomainError("PAYMENT_NOT_FOUND", "Payment not found")

// Payment is an immutable record of a provider-confirmed charge.
// Only the status may change afterwards, driven by later provider events.
type Payment struct {
	shared.BaseEntity
	UserID            uuid.UUID
	TierID            uuid.UUID
	ExternalPaymentID string
	// Amount is in minor units of Currency
	Amount      int64
	Currency    string
	Status      PaymentStatus
	PaymentDate time.Time
}

// NewCompletedPayment records a charge the provider has confirmed
func NewCompletedPayment(userID, tierID uuid.UUID, externalPaymentID string, amount int64, currency string, at time.Time) (*Payment, error) {
	externalPaymentID = strings.TrimSpace(externalPaymentID)
	if externalPaymentID == "" {
		return nil, shared.NewDomainError("INVALID_PAYMENT_ID", "External payment id cannot be empty")
	}
	if amount < 0 {
		return nil, shared.NewDomainError("INVALID_PAYMENT_AMOUNT", "Payment amount cannot be negative")
	}
	base := shared.NewBaseEntity()
	base.CreatedAt = at
	base.UpdatedAt = at
	return &Payment{
		BaseEntity:        base,
		UserID:            userID,
		TierID:            tierID,
		ExternalPaymentID: externalPaymentID,
		Amount:            amount,
		Currency:          strings.ToUpper(strings.TrimSpace(currency)),
		Status:            PaymentStatusCompleted,
		PaymentDate:       at,
	}, nil
}

// MarkRefunded transitions a completed payment to refunded
func (p *Payment) MarkRefunded() error {
	switch p.Status {
	case PaymentStatusRefunded:
		return nil
	case PaymentStatusCompleted:
		p.Status = PaymentStatusRefunded
		p.UpdatedAt = time.Now()
		return nil
	default:
		return shared.NewDomainError("INVALID_PAYMENT_TRANSITION", "Only completed payments can be refunded")
	}
}

// PaymentRepository defines persistence operations for the payment ledger
type PaymentRepository interface {
	// FindByExternalID finds a payment by provider payment id. Returns ErrPaymentNotFound if absent.
	FindByExternalID(ctx context.Context, externalID string) (*Payment, error)

	// ExistsByExternalID reports whether a payment with that provider id was already recorded
	ExistsByExternalID(ctx context.Context, externalID string) (bool, error)

	// Create appends a ledger entry
	Create(ctx context.Context, payment *Payment) error

	// UpdateStatus persists a status transition
	UpdateStatus(ctx context.Context, payment *Payment) error

	// SumCompleted returns the total of completed payments in minor units
	SumCompleted(ctx context.Context) (int64, error)

	// ListCompletedSince lists completed payments made at or after since
	ListCompletedSince(ctx context.Context, since time.Time) ([]Payment, error)
}
