//go:build integration

package persistence

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	appbilling "github.com/tierhub/backend/internal/application/billing"
	"github.com/tierhub/backend/internal/infrastructure/persistence/models"
	"github.com/tierhub/backend/internal/testutil"
)

func newPostgresSubscriptionService(t *testing.T) (*appbilling.SubscriptionService, *testutil.MockPaymentGateway, *reconcileEnv) {
	t.Helper()
	db := testutil.NewPostgresDB(t)
	gateway := new(testutil.MockPaymentGateway)
	gateway.On("CancelSubscription", mock.Anything, mock.Anything).Return(nil).Maybe()

	env := &reconcileEnv{
		db:   db,
		pro:  seedTier(t, db, testutil.NewPaidTier(t, "Pro", 2900, 5000, "price_pro")),
		team: seedTier(t, db, testutil.NewPaidTier(t, "Team", 9900, 20000, "price_team")),
	}
	svc := appbilling.NewSubscriptionService(appbilling.SubscriptionServiceDeps{
		TxScope:          NewGormTransactionScope(db),
		UserRepo:         NewGormUserRepository(db),
		TierRepo:         NewGormTierRepository(db),
		SubscriptionRepo: NewGormSubscriptionRepository(db),
		Gateway:          gateway,
	}, appbilling.SubscriptionServiceConfig{GatewayTimeout: 5 * time.Second})
	return svc, gateway, env
}

func TestIntegration_ConcurrentDuplicateConfirmations(t *testing.T) {
	svc, _, env := newPostgresSubscriptionService(t)
	seedUser(t, env.db, "user_dup")

	in := appbilling.ConfirmPaymentInput{
		UserID: "user_dup", TierID: env.pro.ID, ExternalPaymentID: "pi_same",
		ExternalSubscriptionID: "sub_same", Amount: 2900, Currency: "EUR",
	}

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.ConfirmPayment(context.Background(), in)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}

	assert.Equal(t, int64(1), env.countRows(t, &models.PaymentModel{}, "external_payment_id = ?", "pi_same"))
	assert.Equal(t, int64(1), env.countRows(t, &models.SubscriptionModel{}, "user_id = ?", "user_dup"))
}

func TestIntegration_ConcurrentDistinctConfirmationsKeepOneActive(t *testing.T) {
	svc, _, env := newPostgresSubscriptionService(t)
	seedUser(t, env.db, "user_race")

	const workers = 6
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tier := env.pro
			if i%2 == 1 {
				tier = env.team
			}
			_, err := svc.ConfirmPayment(context.Background(), appbilling.ConfirmPaymentInput{
				UserID: "user_race", TierID: tier.ID,
				ExternalPaymentID:      fmt.Sprintf("pi_%d", i),
				ExternalSubscriptionID: fmt.Sprintf("sub_%d", i),
				Amount:                 tier.PriceAmount, Currency: "EUR",
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int64(workers), env.countRows(t, &models.PaymentModel{}, "user_id IS NOT NULL"))
	assert.Equal(t, int64(1), env.countRows(t, &models.SubscriptionModel{}, "user_id = ? AND is_active = ?", "user_race", true))

	active := env.activeSubscription(t, "user_race")
	user := env.user(t, "user_race")
	require.NotNil(t, active)
	expected := env.pro.Tokens
	if active.TierID == env.team.ID {
		expected = env.team.Tokens
	}
	assert.Equal(t, expected, user.APIMaxCalls, "quota matches the surviving subscription")
}
