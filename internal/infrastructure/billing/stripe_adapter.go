// Package billing adapts Stripe to the billing.PaymentGateway port.
package billing

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/client"
	"github.com/tierhub/backend/internal/domain/billing"
	"go.uber.org/zap"
)

const listPricesLimit = 100

// StripeAdapter implements billing.PaymentGateway with a per-instance Stripe client
type StripeAdapter struct {
	config *StripeConfig
	api    *client.API
	logger *zap.Logger
}

// StripeOption customizes a StripeAdapter
type StripeOption func(*stripeOptions)

type stripeOptions struct {
	backends *stripe.Backends
}

// WithBackends replaces the Stripe transport, mainly for tests
func WithBackends(b *stripe.Backends) StripeOption {
	return func(o *stripeOptions) { o.backends = b }
}

// NewStripeAdapter creates a new Stripe adapter
func NewStripeAdapter(config *StripeConfig, logger *zap.Logger, opts ...StripeOption) (*StripeAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	var o stripeOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.backends == nil {
		o.backends = stripe.NewBackendsWithConfig(newBackendConfig(config, logger))
	}

	api := &client.API{}
	api.Init(config.SecretKey, o.backends)

	return &StripeAdapter{
		config: config,
		api:    api,
		logger: logger,
	}, nil
}

// newBackendConfig builds the transport for the default backends. Cancel and
// checkout calls run while the caller holds the user row lock, so retries
// stay off unless configured.
func newBackendConfig(config *StripeConfig, logger *zap.Logger) *stripe.BackendConfig {
	return &stripe.BackendConfig{
		HTTPClient:        &http.Client{Timeout: config.timeout()},
		MaxNetworkRetries: stripe.Int64(config.MaxNetworkRetries),
		LeveledLogger:     logger.Named("stripe").Sugar(),
	}
}

// CreateCheckoutSession creates a hosted checkout for one tier price.
// The user and tier ids travel as client_reference_id and metadata so the
// completion webhook can be correlated.
func (a *StripeAdapter) CreateCheckoutSession(ctx context.Context, req billing.CheckoutRequest) (*billing.CheckoutSession, error) {
	if req.PriceID == "" {
		return nil, fmt.Errorf("stripe: price id is required")
	}

	metadata := map[string]string{
		"user_id": req.UserID,
		"tier_id": req.TierID.String(),
	}

	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{Price: stripe.String(req.PriceID), Quantity: stripe.Int64(1)},
		},
		SuccessURL:        stripe.String(a.config.SuccessURL()),
		CancelURL:         stripe.String(a.config.CancelURL()),
		ClientReferenceID: stripe.String(req.UserID),
	}
	params.Context = ctx
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}
	if req.Recurring {
		params.Mode = stripe.String(string(stripe.CheckoutSessionModeSubscription))
		params.SubscriptionData = &stripe.CheckoutSessionSubscriptionDataParams{Metadata: metadata}
	} else {
		params.Mode = stripe.String(string(stripe.CheckoutSessionModePayment))
		params.PaymentIntentData = &stripe.CheckoutSessionPaymentIntentDataParams{Metadata: metadata}
	}

	session, err := a.api.CheckoutSessions.New(params)
	if err != nil {
		a.logger.Error("Failed to create Stripe checkout session",
			zap.String("user_id", req.UserID),
			zap.String("price_id", req.PriceID),
			zap.Error(err))
		return nil, fmt.Errorf("stripe: failed to create checkout session: %w", err)
	}

	a.logger.Debug("Created Stripe checkout session",
		zap.String("session_id", session.ID),
		zap.String("mode", string(session.Mode)))

	return &billing.CheckoutSession{ID: session.ID, URL: session.URL}, nil
}

// CancelSubscription cancels a provider subscription immediately.
// A subscription Stripe no longer knows counts as cancelled.
func (a *StripeAdapter) CancelSubscription(ctx context.Context, externalSubscriptionID string) error {
	params := &stripe.SubscriptionCancelParams{}
	params.Context = ctx

	sub, err := a.api.Subscriptions.Cancel(externalSubscriptionID, params)
	if err != nil {
		if isResourceMissing(err) {
			a.logger.Warn("Stripe subscription already gone",
				zap.String("subscription_id", externalSubscriptionID))
			return nil
		}
		a.logger.Error("Failed to cancel Stripe subscription",
			zap.String("subscription_id", externalSubscriptionID),
			zap.Error(err))
		return fmt.Errorf("stripe: failed to cancel subscription: %w", err)
	}

	a.logger.Info("Canceled Stripe subscription",
		zap.String("subscription_id", sub.ID),
		zap.String("status", string(sub.Status)))
	return nil
}

// GetPrice fetches a single price with its product
func (a *StripeAdapter) GetPrice(ctx context.Context, priceID string) (*billing.PriceInfo, error) {
	params := &stripe.PriceParams{}
	params.Context = ctx
	params.AddExpand("product")

	price, err := a.api.Prices.Get(priceID, params)
	if err != nil {
		if isResourceMissing(err) {
			return nil, billing.ErrPriceNotFound
		}
		return nil, fmt.Errorf("stripe: failed to get price: %w", err)
	}

	info := toPriceInfo(price)
	return &info, nil
}

// ListPrices lists up to 100 active prices with their products
func (a *StripeAdapter) ListPrices(ctx context.Context) ([]billing.PriceInfo, error) {
	params := &stripe.PriceListParams{Active: stripe.Bool(true)}
	params.Context = ctx
	params.Limit = stripe.Int64(listPricesLimit)
	params.Single = true
	params.AddExpand("data.product")

	prices := make([]billing.PriceInfo, 0)
	iter := a.api.Prices.List(params)
	for iter.Next() {
		prices = append(prices, toPriceInfo(iter.Price()))
	}
	if err := iter.Err(); err != nil {
		a.logger.Error("Failed to list Stripe prices", zap.Error(err))
		return nil, fmt.Errorf("stripe: failed to list prices: %w", err)
	}
	return prices, nil
}

func toPriceInfo(p *stripe.Price) billing.PriceInfo {
	currency := strings.ToUpper(string(p.Currency))
	info := billing.PriceInfo{
		ID:         p.ID,
		UnitAmount: p.UnitAmount,
		Amount:     billing.ToMajorUnits(p.UnitAmount, currency),
		Currency:   currency,
		Type:       string(p.Type),
		Active:     p.Active,
	}
	if p.Recurring != nil {
		info.BillingPeriod = string(p.Recurring.Interval)
	}
	if p.Product != nil {
		info.ProductName = p.Product.Name
		info.ProductDescription = p.Product.Description
	}
	return info
}

func isResourceMissing(err error) bool {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		return stripeErr.Code == stripe.ErrorCodeResourceMissing || stripeErr.HTTPStatusCode == http.StatusNotFound
	}
	return false
}

var _ billing.PaymentGateway = (*StripeAdapter)(nil)
