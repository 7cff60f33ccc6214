package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appbilling "github.com/tierhub/backend/internal/application/billing"
	"github.com/tierhub/backend/internal/domain/billing"
)

// SubscriptionManager drives tier purchases and cancellations
type SubscriptionManager interface {
	InitiateCheckout(ctx context.Context, userID string, tierID uuid.UUID) (*appbilling.CheckoutResult, error)
	RegisterFreeTier(ctx context.Context, userID string) (*billing.Subscription, error)
	CancelSubscription(ctx context.Context, userID string) error
}

// SubscriptionReader answers entitlement queries
type SubscriptionReader interface {
	GetActiveSubscription(ctx context.Context, userID string) (*billing.Subscription, error)
}

// SubscriptionHandler handles payment and subscription requests of the authenticated user
type SubscriptionHandler struct {
	BaseHandler
	subscriptions SubscriptionManager
	entitlements  SubscriptionReader
}

// NewSubscriptionHandler creates a new subscription handler
func NewSubscriptionHandler(subscriptions SubscriptionManager, entitlements SubscriptionReader) *SubscriptionHandler {
	return &SubscriptionHandler{
		subscriptions: subscriptions,
		entitlements:  entitlements,
	}
}

// CheckoutResponse is either a provider redirect or a directly activated free subscription
//
//	@Description	Checkout session for paid tiers; subscription for the free tier
type CheckoutResponse struct {
	SessionID    string                `json:"session_id,omitempty" example:"cs_test_123"`
	URL          string                `json:"url,omitempty" example:"https://checkout.stripe.com/c/pay/cs_test_123"`
	FreeTier     bool                  `json:"free_tier"`
	Subscription *SubscriptionResponse `json:"subscription,omitempty"`
}

// CreateCheckoutSession godoc
//
//	@ID				createCheckoutSession
//	@Summary		Start a tier purchase
//	@Description	Create a hosted checkout session for a paid tier. Any current provider subscription is cancelled first. Free tiers are registered directly. No local subscription changes until the payment is confirmed.
//	@Tags			payments
//	@Produce		json
//	@Param			tierId	path		string	true	"Tier ID"	format(uuid)
//	@Success		200		{object}	APIResponse[CheckoutResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		401		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		409		{object}	ErrorResponse
//	@Failure		502		{object}	ErrorResponse	"Payment provider unavailable, retry later"
//	@Security		BearerAuth
//	@Router			/payments/create-checkout-session/{tierId} [post]
func (h *SubscriptionHandler) CreateCheckoutSession(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}
	tierID, ok := h.uuidParam(c, "tierId", "tier")
	if !ok {
		return
	}

	result, err := h.subscriptions.InitiateCheckout(c.Request.Context(), userID, tierID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, CheckoutResponse{
		SessionID:    result.SessionID,
		URL:          result.URL,
		FreeTier:     result.FreeTier,
		Subscription: toSubscriptionResponse(result.Subscription),
	})
}

// RegisterFreeTier godoc
//
//	@ID				registerFreeTier
//	@Summary		Subscribe to the free tier
//	@Description	Replace any current subscription with the free tier for one year and reset the quota to its tokens
//	@Tags			payments
//	@Produce		json
//	@Success		201	{object}	APIResponse[SubscriptionResponse]
//	@Failure		401	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse	"No free tier configured"
//	@Failure		409	{object}	ErrorResponse	"Already on the free tier"
//	@Failure		502	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/payments/register-free-tier [post]
func (h *SubscriptionHandler) RegisterFreeTier(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}

	sub, err := h.subscriptions.RegisterFreeTier(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toSubscriptionResponse(sub))
}

// GetCurrentSubscription godoc
//
//	@ID				getCurrentSubscription
//	@Summary		Get the active subscription
//	@Description	Return the active subscription with its tier and the tier's products
//	@Tags			payments
//	@Produce		json
//	@Success		200	{object}	APIResponse[SubscriptionResponse]
//	@Failure		401	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse	"No active subscription"
//	@Security		BearerAuth
//	@Router			/payments/current-subscription [get]
func (h *SubscriptionHandler) GetCurrentSubscription(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}

	sub, err := h.entitlements.GetActiveSubscription(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toSubscriptionResponse(sub))
}

// CancelSubscription godoc
//
//	@ID				cancelSubscription
//	@Summary		Cancel the active subscription
//	@Description	Cancel at the provider first. When the provider call fails the local subscription is kept and a retryable gateway error is returned.
//	@Tags			payments
//	@Produce		json
//	@Success		200	{object}	APIResponse[MessageData]
//	@Failure		401	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Failure		502	{object}	ErrorResponse	"Provider cancel failed, subscription kept"
//	@Security		BearerAuth
//	@Router			/payments/current-subscription [delete]
func (h *SubscriptionHandler) CancelSubscription(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}

	if err := h.subscriptions.CancelSubscription(c.Request.Context(), userID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, MessageData{Message: "Subscription cancelled"})
}
