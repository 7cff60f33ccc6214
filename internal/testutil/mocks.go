package testutil

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/tierhub/backend/internal/domain/billing"
	"github.com/tierhub/backend/internal/domain/catalog"
	"github.com/tierhub/backend/internal/domain/identity"
	"github.com/tierhub/backend/internal/domain/shared"
)

// ret unpacks a (value, error) mock result. A nil value yields T's zero value.
func ret[T any](args mock.Arguments) (T, error) {
	v, _ := args.Get(0).(T)
	return v, args.Error(1)
}

// MockUserRepository is a mock implementation of identity.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	return ret[*identity.User](m.Called(ctx, id))
}

func (m *MockUserRepository) FindByExternalID(ctx context.Context, externalID string) (*identity.User, error) {
	return ret[*identity.User](m.Called(ctx, externalID))
}

func (m *MockUserRepository) FindByExternalIDForUpdate(ctx context.Context, externalID string) (*identity.User, error) {
	return ret[*identity.User](m.Called(ctx, externalID))
}

func (m *MockUserRepository) Save(ctx context.Context, user *identity.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepository) SaveProfile(ctx context.Context, user *identity.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockUserRepository) Count(ctx context.Context) (int64, error) {
	return ret[int64](m.Called(ctx))
}

func (m *MockUserRepository) IncrementAPICalls(ctx context.Context, externalID string) (*identity.User, error) {
	return ret[*identity.User](m.Called(ctx, externalID))
}

func (m *MockUserRepository) ListFirstConnectionsSince(ctx context.Context, since time.Time) ([]time.Time, error) {
	return ret[[]time.Time](m.Called(ctx, since))
}

// MockTierRepository is a mock implementation of catalog.TierRepository
type MockTierRepository struct {
	mock.Mock
}

func (m *MockTierRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Tier, error) {
	return ret[*catalog.Tier](m.Called(ctx, id))
}

func (m *MockTierRepository) FindFree(ctx context.Context) (*catalog.Tier, error) {
	return ret[*catalog.Tier](m.Called(ctx))
}

func (m *MockTierRepository) FindAll(ctx context.Context) ([]catalog.Tier, error) {
	return ret[[]catalog.Tier](m.Called(ctx))
}

func (m *MockTierRepository) Save(ctx context.Context, tier *catalog.Tier) error {
	return m.Called(ctx, tier).Error(0)
}

func (m *MockTierRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockTierRepository) ExistsFreeOtherThan(ctx context.Context, id uuid.UUID) (bool, error) {
	return ret[bool](m.Called(ctx, id))
}

func (m *MockTierRepository) ClearPopularExcept(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

// MockProductRepository is a mock implementation of catalog.ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	return ret[*catalog.Product](m.Called(ctx, id))
}

func (m *MockProductRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]catalog.Product, error) {
	return ret[[]catalog.Product](m.Called(ctx, ids))
}

func (m *MockProductRepository) FindAll(ctx context.Context) ([]catalog.Product, error) {
	return ret[[]catalog.Product](m.Called(ctx))
}

func (m *MockProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	return m.Called(ctx, product).Error(0)
}

func (m *MockProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

// MockSubscriptionRepository is a mock implementation of billing.SubscriptionRepository
type MockSubscriptionRepository struct {
	mock.Mock
}

func (m *MockSubscriptionRepository) FindActiveByUser(ctx context.Context, userID string) (*billing.Subscription, error) {
	return ret[*billing.Subscription](m.Called(ctx, userID))
}

func (m *MockSubscriptionRepository) FindByUser(ctx context.Context, userID string) ([]billing.Subscription, error) {
	return ret[[]billing.Subscription](m.Called(ctx, userID))
}

func (m *MockSubscriptionRepository) FindByExternalID(ctx context.Context, externalID string) (*billing.Subscription, error) {
	return ret[*billing.Subscription](m.Called(ctx, externalID))
}

func (m *MockSubscriptionRepository) FindRefillCandidates(ctx context.Context) ([]billing.Subscription, error) {
	return ret[[]billing.Subscription](m.Called(ctx))
}

func (m *MockSubscriptionRepository) CountActiveByTier(ctx context.Context, tierID uuid.UUID) (int64, error) {
	return ret[int64](m.Called(ctx, tierID))
}

func (m *MockSubscriptionRepository) Save(ctx context.Context, subscription *billing.Subscription) error {
	return m.Called(ctx, subscription).Error(0)
}

func (m *MockSubscriptionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

// MockPaymentRepository is a mock implementation of billing.PaymentRepository
type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) FindByExternalID(ctx context.Context, externalID string) (*billing.Payment, error) {
	return ret[*billing.Payment](m.Called(ctx, externalID))
}

func (m *MockPaymentRepository) ExistsByExternalID(ctx context.Context, externalID string) (bool, error) {
	return ret[bool](m.Called(ctx, externalID))
}

func (m *MockPaymentRepository) Create(ctx context.Context, payment *billing.Payment) error {
	return m.Called(ctx, payment).Error(0)
}

func (m *MockPaymentRepository) UpdateStatus(ctx context.Context, payment *billing.Payment) error {
	return m.Called(ctx, payment).Error(0)
}

func (m *MockPaymentRepository) SumCompleted(ctx context.Context) (int64, error) {
	return ret[int64](m.Called(ctx))
}

func (m *MockPaymentRepository) ListCompletedSince(ctx context.Context, since time.Time) ([]billing.Payment, error) {
	return ret[[]billing.Payment](m.Called(ctx, since))
}

// MockPaymentGateway is a mock implementation of billing.PaymentGateway
type MockPaymentGateway struct {
	mock.Mock
}

func (m *MockPaymentGateway) CreateCheckoutSession(ctx context.Context, req billing.CheckoutRequest) (*billing.CheckoutSession, error) {
	return ret[*billing.CheckoutSession](m.Called(ctx, req))
}

func (m *MockPaymentGateway) CancelSubscription(ctx context.Context, externalSubscriptionID string) error {
	return m.Called(ctx, externalSubscriptionID).Error(0)
}

func (m *MockPaymentGateway) GetPrice(ctx context.Context, priceID string) (*billing.PriceInfo, error) {
	return ret[*billing.PriceInfo](m.Called(ctx, priceID))
}

func (m *MockPaymentGateway) ListPrices(ctx context.Context) ([]billing.PriceInfo, error) {
	return ret[[]billing.PriceInfo](m.Called(ctx))
}

// MockProfileProvider is a mock implementation of identity.ProfileProvider
type MockProfileProvider struct {
	mock.Mock
}

func (m *MockProfileProvider) FetchProfile(ctx context.Context, externalID string) (*identity.Profile, error) {
	return ret[*identity.Profile](m.Called(ctx, externalID))
}

// MockEventPublisher records published events
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	return m.Called(ctx, events).Error(0)
}

var (
	_ identity.UserRepository        = (*MockUserRepository)(nil)
	_ catalog.TierRepository         = (*MockTierRepository)(nil)
	_ catalog.ProductRepository      = (*MockProductRepository)(nil)
	_ billing.SubscriptionRepository = (*MockSubscriptionRepository)(nil)
	_ billing.PaymentRepository      = (*MockPaymentRepository)(nil)
	_ billing.PaymentGateway         = (*MockPaymentGateway)(nil)
	_ identity.ProfileProvider       = (*MockProfileProvider)(nil)
	_ shared.EventPublisher          = (*MockEventPublisher)(nil)
)
