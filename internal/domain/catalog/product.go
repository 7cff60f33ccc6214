package catalog

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tierhub/backend/internal/domain/shared"
)

var ErrProductNotFound = shared.NewDomainError("PRODUCT_NOT_FOUND", "Product not found")

// ProductSpec carries the editable attributes of a product
type ProductSpec struct {
	Name          string
	Description   string
	CoverImage    string
	DemoVideoLink string
	FrontendURL   string
}

// Product is an external application gated by tier entitlement
type Product struct {
	shared.BaseEntity
	Name          string
	Description   string
	CoverImage    string
	DemoVideoLink string
	FrontendURL   string
}

// NewProduct creates a validated product
func NewProduct(spec ProductSpec) (*Product, error) {
	p := &Product{BaseEntity: shared.NewBaseEntity()}
	if err := p.apply(spec); err != nil {
		return nil, err
	}
	return p, nil
}

// Update replaces the editable attributes of the product
func (p *Product) Update(spec ProductSpec) error {
	if err := p.apply(spec); err != nil {
		return err
	}
	p.UpdatedAt = time.Now()
	return nil
}

func (p *Product) apply(spec ProductSpec) error {
	name := strings.TrimSpace(spec.Name)
	if name == "" {
		return shared.NewDomainError("INVALID_PRODUCT_NAME", "Product name cannot be empty")
	}
	frontend := strings.TrimSpace(spec.FrontendURL)
	if frontend != "" {
		u, err := url.Parse(frontend)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return shared.NewDomainError("INVALID_FRONTEND_URL", "Frontend URL must be an absolute URL")
		}
	}
	p.Name = name
	p.Description = strings.TrimSpace(spec.Description)
	p.CoverImage = strings.TrimSpace(spec.CoverImage)
	p.DemoVideoLink = strings.TrimSpace(spec.DemoVideoLink)
	p.FrontendURL = frontend
	return nil
}

// ProductRepository defines persistence operations for products
type ProductRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)
	// FindByIDs returns the products matching ids. Missing ids are skipped.
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Product, error)
	FindAll(ctx context.Context) ([]Product, error)
	Save(ctx context.Context, product *Product) error
	Delete(ctx context.Context, id uuid.UUID) error
}
