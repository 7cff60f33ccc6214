package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/tierhub/backend/internal/application/stats"
	"github.com/tierhub/backend/internal/domain/billing"
)

// StatsReader computes admin dashboard aggregates
type StatsReader interface {
	TotalRevenue(ctx context.Context) (*stats.RevenueTotal, error)
	Revenue(ctx context.Context, r stats.Range) (*stats.TimeSeries, error)
	NewUsers(ctx context.Context, r stats.Range) (*stats.TimeSeries, error)
}

// PriceLookup reads prices from the payment provider
type PriceLookup interface {
	GetPrice(ctx context.Context, priceID string) (*billing.PriceInfo, error)
	ListPrices(ctx context.Context) ([]billing.PriceInfo, error)
}

// AdminHandler serves statistics and provider price lookups to administrators
type AdminHandler struct {
	BaseHandler
	stats  StatsReader
	prices PriceLookup
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(statsReader StatsReader, prices PriceLookup) *AdminHandler {
	return &AdminHandler{stats: statsReader, prices: prices}
}

// RevenueTotalResponse is the sum of completed payments
//
//	@Description	Total revenue in minor units and in major units
type RevenueTotalResponse struct {
	AmountMinor int64           `json:"amount_minor" example:"125000"`
	Amount      decimal.Decimal `json:"amount" swaggertype:"string" example:"1250.00"`
}

// PriceResponse is a provider price
//
//	@Description	Payment provider price with its product
type PriceResponse struct {
	ID                 string          `json:"id" example:"price_123"`
	UnitAmount         int64           `json:"unit_amount" example:"1999"`
	Amount             decimal.Decimal `json:"amount" swaggertype:"string" example:"19.99"`
	Currency           string          `json:"currency" example:"EUR"`
	Type               string          `json:"type" example:"recurring"`
	BillingPeriod      string          `json:"billing_period,omitempty" example:"month"`
	ProductName        string          `json:"product_name,omitempty"`
	ProductDescription string          `json:"product_description,omitempty"`
	Active             bool            `json:"active"`
}

// TotalRevenue godoc
//
//	@ID				getTotalRevenue
//	@Summary		Total revenue
//	@Tags			stats
//	@Produce		json
//	@Success		200	{object}	APIResponse[RevenueTotalResponse]
//	@Failure		401	{object}	ErrorResponse
//	@Failure		403	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/stats/revenue [get]
func (h *AdminHandler) TotalRevenue(c *gin.Context) {
	total, err := h.stats.TotalRevenue(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, RevenueTotalResponse{AmountMinor: total.AmountMinor, Amount: total.Amount})
}

// RevenueSeries godoc
//
//	@ID				getRevenueSeries
//	@Summary		Revenue over time
//	@Description	week and month give daily buckets, year gives monthly buckets. Values are minor units.
//	@Tags			stats
//	@Produce		json
//	@Param			range	path		string	true	"Range"	Enums(week, month, year)
//	@Success		200		{object}	APIResponse[stats.TimeSeries]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		401		{object}	ErrorResponse
//	@Failure		403		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/stats/revenue/{range} [get]
func (h *AdminHandler) RevenueSeries(c *gin.Context) {
	h.series(c, h.stats.Revenue)
}

// NewUsersSeries godoc
//
//	@ID				getNewUsersSeries
//	@Summary		Signups over time
//	@Tags			stats
//	@Produce		json
//	@Param			range	path		string	true	"Range"	Enums(week, month, year)
//	@Success		200		{object}	APIResponse[stats.TimeSeries]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		401		{object}	ErrorResponse
//	@Failure		403		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/stats/users/{range} [get]
func (h *AdminHandler) NewUsersSeries(c *gin.Context) {
	h.series(c, h.stats.NewUsers)
}

func (h *AdminHandler) series(c *gin.Context, fn func(context.Context, stats.Range) (*stats.TimeSeries, error)) {
	r, err := stats.ParseRange(c.Param("range"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	ts, err := fn(c.Request.Context(), r)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, ts)
}

// GetPrice godoc
//
//	@ID				getStripePrice
//	@Summary		Look up a provider price
//	@Tags			stripe
//	@Produce		json
//	@Param			priceId	path		string	true	"Provider price ID"
//	@Success		200		{object}	APIResponse[PriceResponse]
//	@Failure		401		{object}	ErrorResponse
//	@Failure		403		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		502		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/stripe/price/{priceId} [get]
func (h *AdminHandler) GetPrice(c *gin.Context) {
	price, err := h.prices.GetPrice(c.Request.Context(), c.Param("priceId"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toPriceResponse(price))
}

// ListPrices godoc
//
//	@ID				listStripePrices
//	@Summary		List active provider prices
//	@Tags			stripe
//	@Produce		json
//	@Success		200	{object}	APIResponse[[]PriceResponse]
//	@Failure		401	{object}	ErrorResponse
//	@Failure		403	{object}	ErrorResponse
//	@Failure		502	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/stripe/prices [get]
func (h *AdminHandler) ListPrices(c *gin.Context) {
	prices, err := h.prices.ListPrices(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	out := make([]PriceResponse, 0, len(prices))
	for i := range prices {
		out = append(out, toPriceResponse(&prices[i]))
	}
	h.Success(c, out)
}

func toPriceResponse(p *billing.PriceInfo) PriceResponse {
	return PriceResponse{
		ID:                 p.ID,
		UnitAmount:         p.UnitAmount,
		Amount:             p.Amount,
		Currency:           p.Currency,
		Type:               p.Type,
		BillingPeriod:      p.BillingPeriod,
		ProductName:        p.ProductName,
		ProductDescription: p.ProductDescription,
		Active:             p.Active,
	}
}
