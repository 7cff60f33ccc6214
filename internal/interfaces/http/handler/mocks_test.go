package handler

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/tierhub/backend/internal/application/access"
	appbilling "github.com/tierhub/backend/internal/application/billing"
	appcatalog "github.com/tierhub/backend/internal/application/catalog"
	appidentity "github.com/tierhub/backend/internal/application/identity"
	"github.com/tierhub/backend/internal/application/stats"
	"github.com/tierhub/backend/internal/domain/billing"
	"github.com/tierhub/backend/internal/domain/catalog"
	"github.com/tierhub/backend/internal/domain/identity"
)

type mockUserService struct{ mock.Mock }

func (m *mockUserService) Sync(ctx context.Context, externalID string) (*appidentity.SyncResult, error) {
	args := m.Called(ctx, externalID)
	if r := args.Get(0); r != nil {
		return r.(*appidentity.SyncResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserService) GetMe(ctx context.Context, externalID string) (*appbilling.UserDetails, error) {
	args := m.Called(ctx, externalID)
	if r := args.Get(0); r != nil {
		return r.(*appbilling.UserDetails), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserService) UpdateLanguage(ctx context.Context, externalID, language string) (*identity.User, error) {
	args := m.Called(ctx, externalID, language)
	if r := args.Get(0); r != nil {
		return r.(*identity.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserService) RecordAPICall(ctx context.Context, externalID string) (*identity.User, error) {
	args := m.Called(ctx, externalID)
	if r := args.Get(0); r != nil {
		return r.(*identity.User), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockSubscriptionService struct{ mock.Mock }

func (m *mockSubscriptionService) InitiateCheckout(ctx context.Context, userID string, tierID uuid.UUID) (*appbilling.CheckoutResult, error) {
	args := m.Called(ctx, userID, tierID)
	if r := args.Get(0); r != nil {
		return r.(*appbilling.CheckoutResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockSubscriptionService) RegisterFreeTier(ctx context.Context, userID string) (*billing.Subscription, error) {
	args := m.Called(ctx, userID)
	if r := args.Get(0); r != nil {
		return r.(*billing.Subscription), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockSubscriptionService) CancelSubscription(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *mockSubscriptionService) GetActiveSubscription(ctx context.Context, userID string) (*billing.Subscription, error) {
	args := m.Called(ctx, userID)
	if r := args.Get(0); r != nil {
		return r.(*billing.Subscription), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockWebhookProcessor struct{ mock.Mock }

func (m *mockWebhookProcessor) ProcessWebhook(ctx context.Context, payload []byte, signature string) (*appbilling.WebhookResult, error) {
	args := m.Called(ctx, payload, signature)
	if r := args.Get(0); r != nil {
		return r.(*appbilling.WebhookResult), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockTierService struct{ mock.Mock }

func (m *mockTierService) List(ctx context.Context) ([]catalog.Tier, error) {
	args := m.Called(ctx)
	if r := args.Get(0); r != nil {
		return r.([]catalog.Tier), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockTierService) Get(ctx context.Context, id uuid.UUID) (*catalog.Tier, error) {
	args := m.Called(ctx, id)
	if r := args.Get(0); r != nil {
		return r.(*catalog.Tier), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockTierService) Create(ctx context.Context, in appcatalog.TierInput) (*catalog.Tier, error) {
	args := m.Called(ctx, in)
	if r := args.Get(0); r != nil {
		return r.(*catalog.Tier), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockTierService) Update(ctx context.Context, id uuid.UUID, in appcatalog.TierInput) (*catalog.Tier, error) {
	args := m.Called(ctx, id, in)
	if r := args.Get(0); r != nil {
		return r.(*catalog.Tier), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockTierService) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

type mockProductService struct{ mock.Mock }

func (m *mockProductService) List(ctx context.Context) ([]catalog.Product, error) {
	args := m.Called(ctx)
	if r := args.Get(0); r != nil {
		return r.([]catalog.Product), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockProductService) Get(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	args := m.Called(ctx, id)
	if r := args.Get(0); r != nil {
		return r.(*catalog.Product), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockProductService) Create(ctx context.Context, spec catalog.ProductSpec) (*catalog.Product, error) {
	args := m.Called(ctx, spec)
	if r := args.Get(0); r != nil {
		return r.(*catalog.Product), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockProductService) Update(ctx context.Context, id uuid.UUID, spec catalog.ProductSpec) (*catalog.Product, error) {
	args := m.Called(ctx, id, spec)
	if r := args.Get(0); r != nil {
		return r.(*catalog.Product), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockProductService) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

type mockAccessService struct{ mock.Mock }

func (m *mockAccessService) Issue(ctx context.Context, userID string, productID uuid.UUID) (*access.IssuedToken, error) {
	args := m.Called(ctx, userID, productID)
	if r := args.Get(0); r != nil {
		return r.(*access.IssuedToken), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAccessService) Verify(ctx context.Context, token string) (*access.VerifiedAccess, error) {
	args := m.Called(ctx, token)
	if r := args.Get(0); r != nil {
		return r.(*access.VerifiedAccess), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockStatsService struct{ mock.Mock }

func (m *mockStatsService) TotalRevenue(ctx context.Context) (*stats.RevenueTotal, error) {
	args := m.Called(ctx)
	if r := args.Get(0); r != nil {
		return r.(*stats.RevenueTotal), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStatsService) Revenue(ctx context.Context, r stats.Range) (*stats.TimeSeries, error) {
	args := m.Called(ctx, r)
	if v := args.Get(0); v != nil {
		return v.(*stats.TimeSeries), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStatsService) NewUsers(ctx context.Context, r stats.Range) (*stats.TimeSeries, error) {
	args := m.Called(ctx, r)
	if v := args.Get(0); v != nil {
		return v.(*stats.TimeSeries), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockPriceLookup struct{ mock.Mock }

func (m *mockPriceLookup) GetPrice(ctx context.Context, priceID string) (*billing.PriceInfo, error) {
	args := m.Called(ctx, priceID)
	if r := args.Get(0); r != nil {
		return r.(*billing.PriceInfo), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockPriceLookup) ListPrices(ctx context.Context) ([]billing.PriceInfo, error) {
	args := m.Called(ctx)
	if r := args.Get(0); r != nil {
		return r.([]billing.PriceInfo), args.Error(1)
	}
	return nil, args.Error(1)
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }
