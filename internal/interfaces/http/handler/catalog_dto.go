package handler

import (
	"time"

	"github.com/google/uuid"
	"github.com/tierhub/backend/internal/application/catalog"
	domaincatalog "github.com/tierhub/backend/internal/domain/catalog"
)

// ProductResponse is the public view of a product
//
//	@Description	Product gated by tier entitlement
type ProductResponse struct {
	ID            string    `json:"id" example:"3f1c2d4e-0000-4000-8000-000000000001"`
	Name          string    `json:"name" example:"Translator"`
	Description   string    `json:"description,omitempty"`
	CoverImage    string    `json:"cover_image,omitempty"`
	DemoVideoLink string    `json:"demo_video_link,omitempty"`
	FrontendURL   string    `json:"frontend_url,omitempty" example:"https://translator.example.com"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TierResponse is the public view of a tier
//
//	@Description	Subscription plan with quota and included products
type TierResponse struct {
	ID              string            `json:"id"`
	Name            string            `json:"name" example:"Pro"`
	Description     string            `json:"description,omitempty"`
	PriceAmount     int64             `json:"price_amount" example:"1999"`
	Currency        string            `json:"currency" example:"EUR"`
	BillingPeriod   string            `json:"billing_period" example:"monthly"`
	Tokens          int               `json:"tokens" example:"5000"`
	ExternalPriceID string            `json:"external_price_id,omitempty" example:"price_123"`
	IsFree          bool              `json:"is_free"`
	Popular         bool              `json:"popular"`
	Products        []ProductResponse `json:"products"`
}

// ProductRequest creates or replaces a product
type ProductRequest struct {
	Name          string `json:"name" binding:"required,max=255"`
	Description   string `json:"description" binding:"max=5000"`
	CoverImage    string `json:"cover_image" binding:"omitempty,url"`
	DemoVideoLink string `json:"demo_video_link" binding:"omitempty,url"`
	FrontendURL   string `json:"frontend_url" binding:"omitempty,url"`
}

// TierRequest creates or replaces a tier. Amounts are in minor units.
type TierRequest struct {
	Name            string      `json:"name" binding:"required,max=100"`
	Description     string      `json:"description" binding:"max=2000"`
	PriceAmount     int64       `json:"price_amount" binding:"gte=0"`
	Currency        string      `json:"currency" binding:"omitempty,len=3"`
	BillingPeriod   string      `json:"billing_period" binding:"omitempty,oneof=free monthly yearly one_time"`
	Tokens          int         `json:"tokens" binding:"gte=0"`
	ExternalPriceID string      `json:"external_price_id" binding:"max=255"`
	IsFree          bool        `json:"is_free"`
	Popular         bool        `json:"popular"`
	ProductIDs      []uuid.UUID `json:"product_ids"`
}

func (r ProductRequest) toSpec() domaincatalog.ProductSpec {
	return domaincatalog.ProductSpec{
		Name:          r.Name,
		Description:   r.Description,
		CoverImage:    r.CoverImage,
		DemoVideoLink: r.DemoVideoLink,
		FrontendURL:   r.FrontendURL,
	}
}

func (r TierRequest) toInput() catalog.TierInput {
	return catalog.TierInput{
		TierSpec: domaincatalog.TierSpec{
			Name:            r.Name,
			Description:     r.Description,
			PriceAmount:     r.PriceAmount,
			Currency:        r.Currency,
			BillingPeriod:   domaincatalog.BillingPeriod(r.BillingPeriod),
			Tokens:          r.Tokens,
			ExternalPriceID: r.ExternalPriceID,
			IsFree:          r.IsFree,
			Popular:         r.Popular,
		},
		ProductIDs: r.ProductIDs,
	}
}

func toProductResponse(p *domaincatalog.Product) ProductResponse {
	return ProductResponse{
		ID:            p.ID.String(),
		Name:          p.Name,
		Description:   p.Description,
		CoverImage:    p.CoverImage,
		DemoVideoLink: p.DemoVideoLink,
		FrontendURL:   p.FrontendURL,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func toTierResponse(t *domaincatalog.Tier) TierResponse {
	products := make([]ProductResponse, 0, len(t.Products))
	for i := range t.Products {
		products = append(products, toProductResponse(&t.Products[i]))
	}
	return TierResponse{
		ID:              t.ID.String(),
		Name:            t.Name,
		Description:     t.Description,
		PriceAmount:     t.PriceAmount,
		Currency:        t.Currency,
		BillingPeriod:   string(t.BillingPeriod),
		Tokens:          t.Tokens,
		ExternalPriceID: t.ExternalPriceID,
		IsFree:          t.IsFree,
		Popular:         t.Popular,
		Products:        products,
	}
}
