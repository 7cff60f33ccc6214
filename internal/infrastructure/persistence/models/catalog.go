package models

import (
	"github.com/google/uuid"
	"github.com/tierhub/backend/internal/domain/catalog"
)

// TierModel is the persistence model for the tiers table.
// The partial unique indexes keep at most one free and one popular tier.
type TierModel struct {
	AggregateModel
	Name            string                `gorm:"type:varchar(100);not null"`
	Description     string                `gorm:"type:text"`
	PriceAmount     int64                 `gorm:"not null;default:0;index"`
	Currency        string                `gorm:"type:varchar(3);not null;default:'EUR'"`
	BillingPeriod   catalog.BillingPeriod `gorm:"type:varchar(20);not null"`
	Tokens          int                   `gorm:"not null;default:0"`
	ExternalPriceID *string               `gorm:"type:varchar(255)"`
	IsFree          bool                  `gorm:"not null;default:false;index:idx_tiers_single_free,unique,where:is_free = true"`
	Popular         bool                  `gorm:"not null;default:false;index:idx_tiers_single_popular,unique,where:popular = true"`
	Products        []ProductModel        `gorm:"many2many:tier_product_association;joinForeignKey:TierID;joinReferences:ProductID"`
}

// TableName returns the table name for GORM
func (TierModel) TableName() string {
	return "tiers"
}

// ToDomain converts the persistence model to a domain Tier
func (m *TierModel) ToDomain() *catalog.Tier {
	products := make([]catalog.Product, 0, len(m.Products))
	for i := range m.Products {
		products = append(products, *m.Products[i].ToDomain())
	}
	return &catalog.Tier{
		BaseAggregateRoot: m.root(),
		Name:              m.Name,
		Description:       m.Description,
		PriceAmount:       m.PriceAmount,
		Currency:          m.Currency,
		BillingPeriod:     m.BillingPeriod,
		Tokens:            m.Tokens,
		ExternalPriceID:   derefString(m.ExternalPriceID),
		IsFree:            m.IsFree,
		Popular:           m.Popular,
		Products:          products,
	}
}

// FromDomain populates the persistence model from a domain Tier.
// Products are reduced to their ids; the association is written by the repository.
func (m *TierModel) FromDomain(t *catalog.Tier) {
	m.setRoot(t.BaseAggregateRoot)
	m.Name = t.Name
	m.Description = t.Description
	m.PriceAmount = t.PriceAmount
	m.Currency = t.Currency
	m.BillingPeriod = t.BillingPeriod
	m.Tokens = t.Tokens
	m.ExternalPriceID = nullableString(t.ExternalPriceID)
	m.IsFree = t.IsFree
	m.Popular = t.Popular
	m.Products = make([]ProductModel, 0, len(t.Products))
	for _, id := range t.ProductIDs() {
		m.Products = append(m.Products, ProductModel{BaseModel: BaseModel{ID: id}})
	}
}

// TierModelFromDomain creates a new persistence model from a domain Tier
func TierModelFromDomain(t *catalog.Tier) *TierModel {
	m := &TierModel{}
	m.FromDomain(t)
	return m
}

// ProductModel is the persistence model for the products table
type ProductModel struct {
	BaseModel
	Name          string `gorm:"type:varchar(200);not null"`
	Description   string `gorm:"type:text"`
	CoverImage    string `gorm:"type:varchar(500)"`
	DemoVideoLink string `gorm:"type:varchar(500)"`
	FrontendURL   string `gorm:"column:frontend_url;type:varchar(500)"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product
func (m *ProductModel) ToDomain() *catalog.Product {
	return &catalog.Product{
		BaseEntity:    m.entity(),
		Name:          m.Name,
		Description:   m.Description,
		CoverImage:    m.CoverImage,
		DemoVideoLink: m.DemoVideoLink,
		FrontendURL:   m.FrontendURL,
	}
}

// FromDomain populates the persistence model from a domain Product
func (m *ProductModel) FromDomain(p *catalog.Product) {
	m.setEntity(p.BaseEntity)
	m.Name = p.Name
	m.Description = p.Description
	m.CoverImage = p.CoverImage
	m.DemoVideoLink = p.DemoVideoLink
	m.FrontendURL = p.FrontendURL
}

// ProductModelFromDomain creates a new persistence model from a domain Product
func ProductModelFromDomain(p *catalog.Product) *ProductModel {
	m := &ProductModel{}
	m.FromDomain(p)
	return m
}

// TierProductModel is the tier_product_association join table
type TierProductModel struct {
	TierID    uuid.UUID `gorm:"type:uuid;primaryKey"`
	ProductID uuid.UUID `gorm:"type:uuid;primaryKey;index"`
}

// TableName returns the table name for GORM
func (TierProductModel) TableName() string {
	return "tier_product_association"
}
