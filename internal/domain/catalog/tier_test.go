package catalog

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tierhub/backend/internal/domain/shared"
)

func TestNewTier_FreeTierIsNormalized(t *testing.T) {
	tier, err := NewTier(TierSpec{
		Name:            "Free",
		PriceAmount:     999,
		BillingPeriod:   BillingPeriodMonthly,
		Tokens:          100,
		ExternalPriceID: "price_123",
		IsFree:          true,
	})
	require.NoError(t, err)

	assert.Zero(t, tier.PriceAmount)
	assert.Equal(t, BillingPeriodFree, tier.BillingPeriod)
	assert.Empty(t, tier.ExternalPriceID)
	assert.Equal(t, DefaultCurrency, tier.Currency)
	assert.False(t, tier.IsRecurring())
}

func TestNewTier_PaidTier(t *testing.T) {
	tier, err := NewTier(TierSpec{
		Name:            " Pro ",
		PriceAmount:     1999,
		Currency:        "usd",
		Tokens:          10000,
		ExternalPriceID: "price_pro",
	})
	require.NoError(t, err)

	assert.Equal(t, "Pro", tier.Name)
	assert.Equal(t, int64(1999), tier.PriceAmount)
	assert.Equal(t, "USD", tier.Currency)
	assert.Equal(t, BillingPeriodMonthly, tier.BillingPeriod)
	assert.True(t, tier.IsRecurring())
}

func TestNewTier_Validation(t *testing.T) {
	tests := []struct {
		name string
		spec TierSpec
		code string
	}{
		{"empty name", TierSpec{Name: " ", IsFree: true}, "INVALID_TIER_NAME"},
		{"negative tokens", TierSpec{Name: "x", Tokens: -1, IsFree: true}, "INVALID_TIER_TOKENS"},
		{"negative price", TierSpec{Name: "x", PriceAmount: -5, ExternalPriceID: "p"}, "INVALID_TIER_PRICE"},
		{"paid without price ref", TierSpec{Name: "x", PriceAmount: 500}, "PRICE_REFERENCE_REQUIRED"},
		{"paid with free period", TierSpec{Name: "x", ExternalPriceID: "p", BillingPeriod: BillingPeriodFree}, "INVALID_BILLING_PERIOD"},
		{"unknown period", TierSpec{Name: "x", ExternalPriceID: "p", BillingPeriod: "weekly"}, "INVALID_BILLING_PERIOD"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTier(tt.spec)
			var de *shared.DomainError
			require.ErrorAs(t, err, &de)
			assert.Equal(t, tt.code, de.Code)
		})
	}
}

func TestTier_UpdateKeepsStateOnError(t *testing.T) {
	tier, err := NewTier(TierSpec{Name: "Basic", ExternalPriceID: "price_basic", PriceAmount: 500, Tokens: 1000})
	require.NoError(t, err)

	err = tier.Update(TierSpec{Name: "Basic", PriceAmount: 700})
	assert.ErrorIs(t, err, ErrPaidTierRequiresPrice)
	assert.Equal(t, int64(500), tier.PriceAmount)
	assert.Equal(t, 1, tier.Version)

	require.NoError(t, tier.Update(TierSpec{Name: "Basic+", ExternalPriceID: "price_basic", PriceAmount: 700, Tokens: 2000}))
	assert.Equal(t, "Basic+", tier.Name)
	assert.Equal(t, 2, tier.Version)
}

func TestTier_Products(t *testing.T) {
	tier, err := NewTier(TierSpec{Name: "Free", IsFree: true})
	require.NoError(t, err)
	p1, _ := NewProduct(ProductSpec{Name: "Editor"})
	p2, _ := NewProduct(ProductSpec{Name: "Studio"})

	tier.SetProducts([]Product{*p1})

	assert.True(t, tier.IncludesProduct(p1.ID))
	assert.False(t, tier.IncludesProduct(p2.ID))
	assert.Equal(t, []uuid.UUID{p1.ID}, tier.ProductIDs())
}

func TestNewProduct(t *testing.T) {
	p, err := NewProduct(ProductSpec{Name: " Editor ", FrontendURL: "https://editor.example.com"})
	require.NoError(t, err)
	assert.Equal(t, "Editor", p.Name)

	_, err = NewProduct(ProductSpec{Name: ""})
	assert.Error(t, err)

	_, err = NewProduct(ProductSpec{Name: "x", FrontendURL: "editor.example.com"})
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "INVALID_FRONTEND_URL", de.Code)
}
