package billing

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tierhub/backend/internal/domain/shared"
)

// ErrPriceNotFound is returned when the provider does not know a price id
var ErrPriceNotFound = shared.NewDomainError("PRICE_NOT_FOUND", "Price not found")

// CheckoutRequest describes a hosted checkout for one tier
type CheckoutRequest struct {
	PriceID string
	// UserID is the external identity id, echoed back by the provider as correlation data
	UserID string
	TierID uuid.UUID
	// Recurring selects a subscription checkout; otherwise a one-off payment
	Recurring bool
}

// CheckoutSession is the redirect target returned to the client
type CheckoutSession struct {
	ID  string
	URL string
}

// PriceInfo is a provider-side price as shown to administrators
type PriceInfo struct {
	ID                 string
	UnitAmount         int64
	Amount             decimal.Decimal
	Currency           string
	Type               string
	BillingPeriod      string
	ProductName        string
	ProductDescription string
	Active             bool
}

// PaymentGateway is the payment provider as seen by the reconciliation engine.
// Implementations must bound every call with a timeout.
type PaymentGateway interface {
	// CreateCheckoutSession creates a hosted checkout for a price
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)

	// CancelSubscription cancels a provider subscription immediately
	CancelSubscription(ctx context.Context, externalSubscriptionID string) error

	// GetPrice fetches a single price with its product
	GetPrice(ctx context.Context, priceID string) (*PriceInfo, error)

	// ListPrices lists active prices
	ListPrices(ctx context.Context) ([]PriceInfo, error)
}
