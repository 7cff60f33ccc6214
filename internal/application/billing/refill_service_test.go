package billing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tierhub/backend/internal/domain/billing"
	"github.com/tierhub/backend/internal/testutil"
	"go.uber.org/zap"
)

func newRefillService(users *testutil.MockUserRepository, subs *testutil.MockSubscriptionRepository, metrics Metrics) *RefillService {
	scope := NewNoOpTransactionScope(users, new(testutil.MockTierRepository), subs, new(testutil.MockPaymentRepository))
	return NewRefillService(scope, subs, metrics, zap.NewNop())
}

func TestRefillDue_ResetsQuotaForDueSubscriptions(t *testing.T) {
	users := new(testutil.MockUserRepository)
	subs := new(testutil.MockSubscriptionRepository)
	metrics := &recordingMetrics{}
	svc := newRefillService(users, subs, metrics)

	tier := testutil.NewPaidTier(t, "Pro", 2900, 5000, "price_pro")
	due := billing.NewPaidSubscription("user_due", tier, "sub_1", fixedNow.Add(-billing.RefillInterval))
	fresh := billing.NewPaidSubscription("user_fresh", tier, "sub_2", fixedNow.Add(-24*time.Hour))

	user := testutil.NewTestUser(t, "user_due")
	user.GrantQuota(5000)
	user.APICallsCount = 4999

	subs.On("FindRefillCandidates", mock.Anything).Return([]billing.Subscription{*due, *fresh}, nil)
	users.On("FindByExternalIDForUpdate", mock.Anything, "user_due").Return(user, nil)
	subs.On("FindActiveByUser", mock.Anything, "user_due").Return(due, nil)
	users.On("Save", mock.Anything, quotaIs(5000)).Return(nil)
	subs.On("Save", mock.Anything, mock.MatchedBy(func(s *billing.Subscription) bool {
		return s.ID == due.ID && s.QuotaResetAt.Equal(fixedNow)
	})).Return(nil)

	result, err := svc.RefillDue(context.Background(), fixedNow)

	require.NoError(t, err)
	assert.Equal(t, 2, result.Candidates)
	assert.Equal(t, 1, result.Refilled)
	assert.Equal(t, 0, result.Failed)
	assert.Equal(t, 1, metrics.refilled)
	users.AssertNotCalled(t, "FindByExternalIDForUpdate", mock.Anything, "user_fresh")
	users.AssertExpectations(t)
	subs.AssertExpectations(t)
}

func TestRefillDue_SkipsReplacedSubscription(t *testing.T) {
	users := new(testutil.MockUserRepository)
	subs := new(testutil.MockSubscriptionRepository)
	svc := newRefillService(users, subs, nil)

	tier := testutil.NewPaidTier(t, "Pro", 2900, 5000, "price_pro")
	stale := billing.NewPaidSubscription("user_1", tier, "sub_1", fixedNow.Add(-billing.RefillInterval))
	replacement := billing.NewPaidSubscription("user_1", tier, "sub_2", fixedNow)

	subs.On("FindRefillCandidates", mock.Anything).Return([]billing.Subscription{*stale}, nil)
	users.On("FindByExternalIDForUpdate", mock.Anything, "user_1").Return(testutil.NewTestUser(t, "user_1"), nil)
	subs.On("FindActiveByUser", mock.Anything, "user_1").Return(replacement, nil)

	result, err := svc.RefillDue(context.Background(), fixedNow)

	require.NoError(t, err)
	assert.Equal(t, 0, result.Refilled)
	users.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestRefillDue_FailureDoesNotStopRun(t *testing.T) {
	users := new(testutil.MockUserRepository)
	subs := new(testutil.MockSubscriptionRepository)
	metrics := &recordingMetrics{}
	svc := newRefillService(users, subs, metrics)

	tier := testutil.NewPaidTier(t, "Pro", 2900, 5000, "price_pro")
	broken := billing.NewPaidSubscription("user_broken", tier, "sub_1", fixedNow.Add(-billing.RefillInterval))
	ok := billing.NewPaidSubscription("user_ok", tier, "sub_2", fixedNow.Add(-billing.RefillInterval))

	subs.On("FindRefillCandidates", mock.Anything).Return([]billing.Subscription{*broken, *ok}, nil)
	users.On("FindByExternalIDForUpdate", mock.Anything, "user_broken").Return(nil, errors.New("lock timeout"))
	users.On("FindByExternalIDForUpdate", mock.Anything, "user_ok").Return(testutil.NewTestUser(t, "user_ok"), nil)
	subs.On("FindActiveByUser", mock.Anything, "user_ok").Return(ok, nil)
	users.On("Save", mock.Anything, mock.Anything).Return(nil)
	subs.On("Save", mock.Anything, mock.Anything).Return(nil)

	result, err := svc.RefillDue(context.Background(), fixedNow)

	require.NoError(t, err)
	assert.Equal(t, 1, result.Refilled)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 1, metrics.refillFails)
}

func TestRefillDue_CandidateQueryFails(t *testing.T) {
	subs := new(testutil.MockSubscriptionRepository)
	svc := newRefillService(new(testutil.MockUserRepository), subs, nil)
	subs.On("FindRefillCandidates", mock.Anything).Return(nil, errors.New("db down"))

	_, err := svc.RefillDue(context.Background(), fixedNow)

	assert.Error(t, err)
}
