package catalog

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tierhub/backend/internal/domain/shared"
)

// BillingPeriod is how often a tier is charged
type BillingPeriod string

const (
	BillingPeriodFree    BillingPeriod = "free"
	BillingPeriodMonthly BillingPeriod = "monthly"
	BillingPeriodYearly  BillingPeriod = "yearly"
	BillingPeriodOneTime BillingPeriod = "one_time"
)

// IsValid reports whether the billing period is known
func (p BillingPeriod) IsValid() bool {
	switch p {
	case BillingPeriodFree, BillingPeriodMonthly, BillingPeriodYearly, BillingPeriodOneTime:
		return true
	}
	return false
}

// DefaultCurrency is used when a tier is created without a currency
const DefaultCurrency = "EUR"

var (
	ErrTierNotFound          = shared.NewDomainError("TIER_NOT_FOUND", "Tier not found")
	ErrFreeTierNotFound      = shared.NewDomainError("FREE_TIER_NOT_FOUND", "No free tier is configured")
	ErrFreeTierExists        = shared.NewDomainError("FREE_TIER_EXISTS", "A free tier already exists")
	ErrTierInUse             = shared.NewDomainError("TIER_IN_USE", "Tier has active subscriptions")
	ErrPaidTierRequiresPrice = shared.NewDomainError("PRICE_REFERENCE_REQUIRED", "A paid tier requires an external price reference")
)

// TierSpec carries the editable attributes of a tier
type TierSpec struct {
	Name            string
	Description     string
	PriceAmount     int64
	Currency        string
	BillingPeriod   BillingPeriod
	Tokens          int
	ExternalPriceID string
	IsFree          bool
	Popular         bool
}

// Tier is a purchasable plan bundling an API quota and access to products.
// A free tier has price 0 and no external price reference; a paid tier always has one.
type Tier struct {
	shared.BaseAggregateRoot
	Name            string
	Description     string
	PriceAmount     int64
	Currency        string
	BillingPeriod   BillingPeriod
	Tokens          int
	ExternalPriceID string
	IsFree          bool
	Popular         bool
	Products        []Product
}

// NewTier creates a validated tier
func NewTier(spec TierSpec) (*Tier, error) {
	t := &Tier{BaseAggregateRoot: shared.NewBaseAggregateRoot()}
	if err := t.apply(spec); err != nil {
		return nil, err
	}
	return t, nil
}

// Update replaces the editable attributes of the tier
func (t *Tier) Update(spec TierSpec) error {
	if err := t.apply(spec); err != nil {
		return err
	}
	t.UpdatedAt = time.Now()
	t.IncrementVersion()
	return nil
}

func (t *Tier) apply(spec TierSpec) error {
	name := strings.TrimSpace(spec.Name)
	if name == "" {
		return shared.NewDomainError("INVALID_TIER_NAME", "Tier name cannot be empty")
	}
	if len(name) > 100 {
		return shared.NewDomainError("INVALID_TIER_NAME", "Tier name cannot exceed 100 characters")
	}
	if spec.Tokens < 0 {
		return shared.NewDomainError("INVALID_TIER_TOKENS", "Tier tokens cannot be negative")
	}
	if spec.PriceAmount < 0 {
		return shared.NewDomainError("INVALID_TIER_PRICE", "Tier price cannot be negative")
	}

	currency := strings.ToUpper(strings.TrimSpace(spec.Currency))
	if currency == "" {
		currency = DefaultCurrency
	}

	period := spec.BillingPeriod
	priceID := strings.TrimSpace(spec.ExternalPriceID)
	price := spec.PriceAmount
	if spec.IsFree {
		period = BillingPeriodFree
		priceID = ""
		price = 0
	} else {
		if priceID == "" {
			return ErrPaidTierRequiresPrice
		}
		if period == "" {
			period = BillingPeriodMonthly
		}
		if period == BillingPeriodFree || !period.IsValid() {
			return shared.NewDomainError("INVALID_BILLING_PERIOD", "Paid tiers need a monthly, yearly or one_time billing period")
		}
	}

	t.Name = name
	t.Description = strings.TrimSpace(spec.Description)
	t.PriceAmount = price
	t.Currency = currency
	t.BillingPeriod = period
	t.Tokens = spec.Tokens
	t.ExternalPriceID = priceID
	t.IsFree = spec.IsFree
	t.Popular = spec.Popular
	return nil
}

// IsRecurring reports whether the provider renews this tier on a schedule
func (t *Tier) IsRecurring() bool {
	return !t.IsFree && (t.BillingPeriod == BillingPeriodMonthly || t.BillingPeriod == BillingPeriodYearly)
}

// SetProducts replaces the bundled products
func (t *Tier) SetProducts(products []Product) {
	t.Products = products
	t.UpdatedAt = time.Now()
}

// ProductIDs returns the ids of the bundled products
func (t *Tier) ProductIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(t.Products))
	for _, p := range t.Products {
		ids = append(ids, p.ID)
	}
	return ids
}

// IncludesProduct reports whether the tier grants access to the product
func (t *Tier) IncludesProduct(productID uuid.UUID) bool {
	for _, p := range t.Products {
		if p.ID == productID {
			return true
		}
	}
	return false
}

// TierRepository defines persistence operations for tiers
type TierRepository interface {
	// FindByID finds a tier with its products
	FindByID(ctx context.Context, id uuid.UUID) (*Tier, error)

	// FindFree finds the tier flagged as free. Returns ErrFreeTierNotFound if none exists.
	FindFree(ctx context.Context) (*Tier, error)

	// FindAll lists tiers with their products, cheapest first
	FindAll(ctx context.Context) ([]Tier, error)

	// Save creates or updates a tier and replaces its product association
	Save(ctx context.Context, tier *Tier) error

	// Delete removes a tier and its product association
	Delete(ctx context.Context, id uuid.UUID) error

	// ExistsFreeOtherThan reports whether a free tier other than id exists
	ExistsFreeOtherThan(ctx context.Context, id uuid.UUID) (bool, error)

	// ClearPopularExcept clears the popular flag on every tier but id
	ClearPopularExcept(ctx context.Context, id uuid.UUID) error
}
