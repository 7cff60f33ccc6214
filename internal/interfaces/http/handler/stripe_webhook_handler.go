package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	appbilling "github.com/tierhub/backend/internal/application/billing"
	"github.com/tierhub/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// DefaultWebhookPayloadSize caps webhook bodies; provider events are small
const DefaultWebhookPayloadSize = 64 << 10

// WebhookProcessor verifies and applies provider events
type WebhookProcessor interface {
	ProcessWebhook(ctx context.Context, payload []byte, signature string) (*appbilling.WebhookResult, error)
}

// StripeWebhookHandler handles Stripe webhook endpoints.
// These endpoints are called by Stripe and do not require authentication.
type StripeWebhookHandler struct {
	BaseHandler
	processor  WebhookProcessor
	maxPayload int64
}

// NewStripeWebhookHandler creates a new StripeWebhookHandler. A non-positive
// maxPayload selects DefaultWebhookPayloadSize.
func NewStripeWebhookHandler(processor WebhookProcessor, maxPayload int64) *StripeWebhookHandler {
	if maxPayload <= 0 {
		maxPayload = DefaultWebhookPayloadSize
	}
	return &StripeWebhookHandler{processor: processor, maxPayload: maxPayload}
}

// StripeWebhookResponse represents the response for Stripe webhook
//
//	@Description	Stripe webhook acknowledgement
type StripeWebhookResponse struct {
	Received  bool   `json:"received" example:"true"`
	EventID   string `json:"event_id,omitempty" example:"evt_1234567890"`
	EventType string `json:"event_type,omitempty" example:"checkout.session.completed"`
	Message   string `json:"message,omitempty" example:"Webhook processed successfully"`
}

// HandleStripeWebhook godoc
//
//	@ID				handleStripeWebhook
//	@Summary		Handle Stripe webhook
//	@Description	Verify and apply provider events. Events that no retry can fix are acknowledged with 200; transient failures answer 500 so the provider redelivers.
//	@Tags			payments
//	@Accept			json
//	@Produce		json
//	@Param			Stripe-Signature	header		string					true	"Stripe webhook signature"
//	@Success		200					{object}	StripeWebhookResponse	"Event acknowledged"
//	@Failure		400					{object}	StripeWebhookResponse	"Missing or invalid signature"
//	@Failure		413					{object}	StripeWebhookResponse	"Payload too large"
//	@Failure		500					{object}	StripeWebhookResponse	"Processing failed, retry"
//	@Router			/payments/webhook [post]
func (h *StripeWebhookHandler) HandleStripeWebhook(c *gin.Context) {
	// The raw body is required for signature verification.
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, h.maxPayload+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, StripeWebhookResponse{Message: "Failed to read request body"})
		return
	}
	if int64(len(payload)) > h.maxPayload {
		c.JSON(http.StatusRequestEntityTooLarge, StripeWebhookResponse{Message: "Payload too large"})
		return
	}

	signature := c.GetHeader("Stripe-Signature")
	if signature == "" {
		c.JSON(http.StatusBadRequest, StripeWebhookResponse{Message: "Missing Stripe-Signature header"})
		return
	}

	result, err := h.processor.ProcessWebhook(c.Request.Context(), payload, signature)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, webhookAck(result, result.Message))
	case errors.Is(err, appbilling.ErrInvalidSignature):
		c.JSON(http.StatusBadRequest, StripeWebhookResponse{Message: "Webhook signature verification failed"})
	case errors.Is(err, appbilling.ErrUnprocessableEvent):
		// Already logged with the event id by the service.
		c.JSON(http.StatusOK, webhookAck(result, "Event acknowledged but not processed"))
	default:
		logger.GetGinLogger(c).Error("Webhook processing failed, provider will retry", zap.Error(err))
		c.JSON(http.StatusInternalServerError, StripeWebhookResponse{Message: "Webhook processing failed"})
	}
}

func webhookAck(result *appbilling.WebhookResult, message string) StripeWebhookResponse {
	resp := StripeWebhookResponse{Received: true, Message: message}
	if result != nil {
		resp.EventID = result.EventID
		resp.EventType = result.EventType
	}
	return resp
}
