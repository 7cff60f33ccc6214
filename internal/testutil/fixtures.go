package testutil

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/tierhub/backend/internal/domain/catalog"
	"github.com/tierhub/backend/internal/domain/identity"
)

var fixtureNamespace = uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

// NewTestUUID derives a stable id from seed
func NewTestUUID(seed string) uuid.UUID {
	return uuid.NewSHA1(fixtureNamespace, []byte(seed))
}

// NewTestUser builds a user with the default allowance
func NewTestUser(t *testing.T, externalID string) *identity.User {
	t.Helper()
	u, err := identity.NewUser(externalID, externalID+"@example.com", "Test "+externalID)
	require.NoError(t, err)
	return u
}

func NewFreeTier(t *testing.T, tokens int) *catalog.Tier {
	t.Helper()
	tier, err := catalog.NewTier(catalog.TierSpec{Name: "Free", Tokens: tokens, IsFree: true})
	require.NoError(t, err)
	return tier
}

// NewPaidTier builds a monthly EUR tier
func NewPaidTier(t *testing.T, name string, priceMinor int64, tokens int, priceID string) *catalog.Tier {
	t.Helper()
	tier, err := catalog.NewTier(catalog.TierSpec{
		Name:            name,
		PriceAmount:     priceMinor,
		Currency:        "EUR",
		BillingPeriod:   catalog.BillingPeriodMonthly,
		Tokens:          tokens,
		ExternalPriceID: priceID,
	})
	require.NoError(t, err)
	return tier
}

func NewTestProduct(t *testing.T, name, frontendURL string) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct(catalog.ProductSpec{Name: name, FrontendURL: frontendURL})
	require.NoError(t, err)
	return p
}
