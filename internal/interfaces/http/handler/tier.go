package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/tierhub/backend/internal/application/catalog"
	domaincatalog "github.com/tierhub/backend/internal/domain/catalog"
)

// TierCatalog manages tiers
type TierCatalog interface {
	List(ctx context.Context) ([]domaincatalog.Tier, error)
	Get(ctx context.Context, id uuid.UUID) (*domaincatalog.Tier, error)
	Create(ctx context.Context, in catalog.TierInput) (*domaincatalog.Tier, error)
	Update(ctx context.Context, id uuid.UUID, in catalog.TierInput) (*domaincatalog.Tier, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// TierHandler handles tier catalog requests
type TierHandler struct {
	BaseHandler
	tiers TierCatalog
}

// NewTierHandler creates a new TierHandler
func NewTierHandler(tiers TierCatalog) *TierHandler {
	return &TierHandler{tiers: tiers}
}

// List godoc
//
//	@ID				listTiers
//	@Summary		List tiers
//	@Description	List every tier with its products, cheapest first
//	@Tags			tiers
//	@Produce		json
//	@Success		200	{object}	APIResponse[[]TierResponse]
//	@Failure		500	{object}	ErrorResponse
//	@Router			/tiers [get]
func (h *TierHandler) List(c *gin.Context) {
	tiers, err := h.tiers.List(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	out := make([]TierResponse, 0, len(tiers))
	for i := range tiers {
		out = append(out, toTierResponse(&tiers[i]))
	}
	h.Success(c, out)
}

// Get godoc
//
//	@ID				getTier
//	@Summary		Get a tier
//	@Tags			tiers
//	@Produce		json
//	@Param			id	path		string	true	"Tier ID"	format(uuid)
//	@Success		200	{object}	APIResponse[TierResponse]
//	@Failure		400	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Router			/tiers/{id} [get]
func (h *TierHandler) Get(c *gin.Context) {
	id, ok := h.uuidParam(c, "id", "tier")
	if !ok {
		return
	}
	tier, err := h.tiers.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toTierResponse(tier))
}

// Create godoc
//
//	@ID				createTier
//	@Summary		Create a tier
//	@Description	A free tier forces price 0 and no price reference; only one may exist. A popular tier clears popular on the others.
//	@Tags			tiers
//	@Accept			json
//	@Produce		json
//	@Param			request	body		TierRequest	true	"Tier"
//	@Success		201		{object}	APIResponse[TierResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		401		{object}	ErrorResponse
//	@Failure		403		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse	"Unknown product id"
//	@Failure		409		{object}	ErrorResponse	"Free tier already exists"
//	@Security		BearerAuth
//	@Router			/tiers [post]
func (h *TierHandler) Create(c *gin.Context) {
	var req TierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}
	tier, err := h.tiers.Create(c.Request.Context(), req.toInput())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toTierResponse(tier))
}

// Update godoc
//
//	@ID				updateTier
//	@Summary		Replace a tier
//	@Tags			tiers
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string		true	"Tier ID"	format(uuid)
//	@Param			request	body		TierRequest	true	"Tier"
//	@Success		200		{object}	APIResponse[TierResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		401		{object}	ErrorResponse
//	@Failure		403		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		409		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/tiers/{id} [put]
func (h *TierHandler) Update(c *gin.Context) {
	id, ok := h.uuidParam(c, "id", "tier")
	if !ok {
		return
	}
	var req TierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}
	tier, err := h.tiers.Update(c.Request.Context(), id, req.toInput())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toTierResponse(tier))
}

// Delete godoc
//
//	@ID				deleteTier
//	@Summary		Delete a tier
//	@Description	Rejected while active subscriptions reference the tier
//	@Tags			tiers
//	@Param			id	path	string	true	"Tier ID"	format(uuid)
//	@Success		204
//	@Failure		400	{object}	ErrorResponse
//	@Failure		401	{object}	ErrorResponse
//	@Failure		403	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Failure		409	{object}	ErrorResponse	"Tier in use"
//	@Security		BearerAuth
//	@Router			/tiers/{id} [delete]
func (h *TierHandler) Delete(c *gin.Context) {
	id, ok := h.uuidParam(c, "id", "tier")
	if !ok {
		return
	}
	if err := h.tiers.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
