package billing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tierhub/backend/internal/domain/billing"
	"github.com/tierhub/backend/internal/domain/catalog"
	"github.com/tierhub/backend/internal/testutil"
)

func TestGetUserDetails_WithoutSubscription(t *testing.T) {
	users := new(testutil.MockUserRepository)
	subs := new(testutil.MockSubscriptionRepository)
	svc := NewEntitlementService(users, subs)

	user := testutil.NewTestUser(t, "user_1")
	users.On("FindByExternalID", mock.Anything, "user_1").Return(user, nil)
	subs.On("FindActiveByUser", mock.Anything, "user_1").Return(nil, billing.ErrSubscriptionNotFound)

	details, err := svc.GetUserDetails(context.Background(), "user_1")

	require.NoError(t, err)
	assert.Same(t, user, details.User)
	assert.Nil(t, details.Subscription)
	assert.Nil(t, details.Tier)
}

func TestGetUserDetails_WithSubscription(t *testing.T) {
	users := new(testutil.MockUserRepository)
	subs := new(testutil.MockSubscriptionRepository)
	svc := NewEntitlementService(users, subs)

	tier := testutil.NewPaidTier(t, "Pro", 2900, 5000, "price_pro")
	sub := billing.NewPaidSubscription("user_1", tier, "sub_1", fixedNow)
	users.On("FindByExternalID", mock.Anything, "user_1").Return(testutil.NewTestUser(t, "user_1"), nil)
	subs.On("FindActiveByUser", mock.Anything, "user_1").Return(sub, nil)

	details, err := svc.GetUserDetails(context.Background(), "user_1")

	require.NoError(t, err)
	assert.Same(t, sub, details.Subscription)
	assert.Equal(t, "Pro", details.Tier.Name)
}

func TestHasProductAccess(t *testing.T) {
	included := testutil.NewTestProduct(t, "Included", "https://included.example.com")
	other := testutil.NewTestProduct(t, "Other", "https://other.example.com")
	tier := testutil.NewPaidTier(t, "Pro", 2900, 5000, "price_pro")
	tier.SetProducts([]catalog.Product{*included})
	sub := billing.NewPaidSubscription("user_1", tier, "sub_1", fixedNow)

	subs := new(testutil.MockSubscriptionRepository)
	subs.On("FindActiveByUser", mock.Anything, "user_1").Return(sub, nil)
	subs.On("FindActiveByUser", mock.Anything, "user_2").Return(nil, billing.ErrSubscriptionNotFound)
	svc := NewEntitlementService(new(testutil.MockUserRepository), subs)

	tests := []struct {
		name    string
		userID  string
		product *catalog.Product
		want    bool
	}{
		{"bundled product", "user_1", included, true},
		{"product outside tier", "user_1", other, false},
		{"no subscription", "user_2", included, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.HasProductAccess(context.Background(), tt.userID, tt.product)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
