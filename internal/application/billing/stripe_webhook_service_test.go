package billing

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v81/webhook"
	"github.com/tierhub/backend/internal/domain/billing"
	"github.com/tierhub/backend/internal/domain/shared"
	"github.com/tierhub/backend/internal/infrastructure/cache"
	"github.com/tierhub/backend/internal/infrastructure/logger"
	"github.com/tierhub/backend/internal/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const testWebhookSecret = "whsec_test_secret"

type mockConfirmer struct {
	mock.Mock
}

func (m *mockConfirmer) ConfirmPayment(ctx context.Context, in ConfirmPaymentInput) (*ConfirmPaymentResult, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ConfirmPaymentResult), args.Error(1)
}

type webhookFixture struct {
	confirmer *mockConfirmer
	users     *testutil.MockUserRepository
	subs      *testutil.MockSubscriptionRepository
	payments  *testutil.MockPaymentRepository
	store     *cache.InMemoryIdempotencyStore
	svc       *StripeWebhookService
}

func newWebhookFixture(t *testing.T) *webhookFixture {
	t.Helper()
	f := &webhookFixture{
		confirmer: new(mockConfirmer),
		users:     new(testutil.MockUserRepository),
		subs:      new(testutil.MockSubscriptionRepository),
		payments:  new(testutil.MockPaymentRepository),
		store:     cache.NewInMemoryIdempotencyStore(),
	}
	t.Cleanup(func() { _ = f.store.Close() })

	events := new(testutil.MockEventPublisher)
	events.On("Publish", mock.Anything, mock.Anything).Return(nil).Maybe()

	f.svc = NewStripeWebhookService(StripeWebhookServiceConfig{
		WebhookSecret:     testWebhookSecret,
		Confirmer:         f.confirmer,
		TxScope:           NewNoOpTransactionScope(f.users, new(testutil.MockTierRepository), f.subs, f.payments),
		PaymentRepo:       f.payments,
		Idempotency:       f.store,
		IdempotencyConfig: shared.IdempotencyConfig{TTL: time.Hour, Enabled: true},
		Events:            events,
	})
	return f
}

func signedEvent(t *testing.T, id, eventType, object string) ([]byte, string) {
	t.Helper()
	payload := []byte(fmt.Sprintf(`{"id":%q,"object":"event","type":%q,"api_version":"2024-06-20","data":{"object":%s}}`, id, eventType, object))
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    testWebhookSecret,
		Timestamp: time.Now(),
	})
	return signed.Payload, signed.Header
}

func checkoutObject(tierID string) string {
	return fmt.Sprintf(`{"id":"cs_1","object":"checkout.session","client_reference_id":"user_1",`+
		`"payment_status":"paid","amount_total":2900,"currency":"eur",`+
		`"payment_intent":"pi_1","subscription":"sub_1","metadata":{"tier_id":%q,"user_id":"user_1"}}`, tierID)
}

func TestProcessWebhook_InvalidSignature(t *testing.T) {
	f := newWebhookFixture(t)
	payload, _ := signedEvent(t, "evt_1", "checkout.session.completed", checkoutObject("x"))

	_, err := f.svc.ProcessWebhook(context.Background(), payload, "t=1,v1=deadbeef")

	assert.ErrorIs(t, err, ErrInvalidSignature)
	f.confirmer.AssertNotCalled(t, "ConfirmPayment", mock.Anything, mock.Anything)
}

func TestProcessWebhook_CheckoutCompletedConfirmsPayment(t *testing.T) {
	f := newWebhookFixture(t)
	tierID := testutil.NewTestUUID("pro")
	payload, sig := signedEvent(t, "evt_1", "checkout.session.completed", checkoutObject(tierID.String()))

	f.confirmer.On("ConfirmPayment", mock.Anything, ConfirmPaymentInput{
		UserID:                 "user_1",
		TierID:                 tierID,
		ExternalPaymentID:      "pi_1",
		ExternalSubscriptionID: "sub_1",
		Amount:                 2900,
		Currency:               "eur",
	}).Return(&ConfirmPaymentResult{}, nil).Once()

	result, err := f.svc.ProcessWebhook(context.Background(), payload, sig)

	require.NoError(t, err)
	assert.True(t, result.Processed)
	assert.False(t, result.Duplicate)
	assert.Equal(t, "evt_1", result.EventID)
	f.confirmer.AssertExpectations(t)
}

func TestProcessWebhook_RedeliveryIsDuplicate(t *testing.T) {
	f := newWebhookFixture(t)
	tierID := testutil.NewTestUUID("pro")
	payload, sig := signedEvent(t, "evt_1", "checkout.session.completed", checkoutObject(tierID.String()))
	f.confirmer.On("ConfirmPayment", mock.Anything, mock.Anything).Return(&ConfirmPaymentResult{}, nil).Once()

	_, err := f.svc.ProcessWebhook(context.Background(), payload, sig)
	require.NoError(t, err)

	result, err := f.svc.ProcessWebhook(context.Background(), payload, sig)
	require.NoError(t, err)
	assert.True(t, result.Duplicate)
	f.confirmer.AssertNumberOfCalls(t, "ConfirmPayment", 1)
}

func TestProcessWebhook_TransientFailureReleasesEvent(t *testing.T) {
	f := newWebhookFixture(t)
	tierID := testutil.NewTestUUID("pro")
	payload, sig := signedEvent(t, "evt_1", "checkout.session.completed", checkoutObject(tierID.String()))
	f.confirmer.On("ConfirmPayment", mock.Anything, mock.Anything).Return(nil, errors.New("db down")).Once()
	f.confirmer.On("ConfirmPayment", mock.Anything, mock.Anything).Return(&ConfirmPaymentResult{}, nil).Once()

	_, err := f.svc.ProcessWebhook(context.Background(), payload, sig)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrUnprocessableEvent))

	processed, err := f.store.IsProcessed(context.Background(), "evt_1")
	require.NoError(t, err)
	assert.False(t, processed)

	result, err := f.svc.ProcessWebhook(context.Background(), payload, sig)
	require.NoError(t, err)
	assert.False(t, result.Duplicate)
	f.confirmer.AssertNumberOfCalls(t, "ConfirmPayment", 2)
}

func TestProcessWebhook_MissingCorrelationIsUnprocessable(t *testing.T) {
	f := newWebhookFixture(t)
	payload, sig := signedEvent(t, "evt_2", "checkout.session.completed", checkoutObject("not-a-uuid"))

	result, err := f.svc.ProcessWebhook(context.Background(), payload, sig)

	assert.ErrorIs(t, err, ErrUnprocessableEvent)
	require.NotNil(t, result)
	assert.False(t, result.Processed)
	f.confirmer.AssertNotCalled(t, "ConfirmPayment", mock.Anything, mock.Anything)

	processed, _ := f.store.IsProcessed(context.Background(), "evt_2")
	assert.True(t, processed)
}

func TestProcessWebhook_UnpaidCheckoutWaits(t *testing.T) {
	f := newWebhookFixture(t)
	object := `{"id":"cs_1","object":"checkout.session","client_reference_id":"user_1","payment_status":"unpaid"}`
	payload, sig := signedEvent(t, "evt_3", "checkout.session.completed", object)

	result, err := f.svc.ProcessWebhook(context.Background(), payload, sig)

	require.NoError(t, err)
	assert.Equal(t, "Payment pending", result.Message)
	f.confirmer.AssertNotCalled(t, "ConfirmPayment", mock.Anything, mock.Anything)
}

func TestProcessWebhook_UnhandledType(t *testing.T) {
	f := newWebhookFixture(t)
	payload, sig := signedEvent(t, "evt_4", "customer.created", `{"id":"cus_1","object":"customer"}`)

	result, err := f.svc.ProcessWebhook(context.Background(), payload, sig)

	require.NoError(t, err)
	assert.Equal(t, "Event type not handled", result.Message)
}

func TestProcessWebhook_LogsCarryEventID(t *testing.T) {
	f := newWebhookFixture(t)
	core, recorded := observer.New(zapcore.DebugLevel)
	f.svc.logger = zap.New(core)
	payload, sig := signedEvent(t, "evt_log", "customer.created", `{"id":"cus_1","object":"customer"}`)

	ctx := context.WithValue(context.Background(), logger.RequestIDKey, "req-7")
	_, err := f.svc.ProcessWebhook(ctx, payload, sig)
	require.NoError(t, err)

	entries := recorded.FilterMessage("Processing Stripe webhook event").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "evt_log", fields["event_id"])
	assert.Equal(t, "req-7", fields["request_id"])
	assert.Equal(t, "customer.created", fields["event_type"])
}

func TestProcessWebhook_SubscriptionDeletedRemovesLocalRow(t *testing.T) {
	f := newWebhookFixture(t)
	user := testutil.NewTestUser(t, "user_1")
	tier := testutil.NewPaidTier(t, "Pro", 2900, 5000, "price_pro")
	local := billing.NewPaidSubscription("user_1", tier, "sub_1", fixedNow)

	f.subs.On("FindByExternalID", mock.Anything, "sub_1").Return(local, nil)
	f.users.On("FindByExternalIDForUpdate", mock.Anything, "user_1").Return(user, nil)
	f.subs.On("Delete", mock.Anything, local.ID).Return(nil).Once()

	payload, sig := signedEvent(t, "evt_5", "customer.subscription.deleted", `{"id":"sub_1","object":"subscription","status":"canceled"}`)
	_, err := f.svc.ProcessWebhook(context.Background(), payload, sig)

	require.NoError(t, err)
	f.subs.AssertExpectations(t)
}

func TestProcessWebhook_SubscriptionDeletedUnknownIsIgnored(t *testing.T) {
	f := newWebhookFixture(t)
	f.subs.On("FindByExternalID", mock.Anything, "sub_gone").Return(nil, billing.ErrSubscriptionNotFound)

	payload, sig := signedEvent(t, "evt_6", "customer.subscription.deleted", `{"id":"sub_gone","object":"subscription"}`)
	_, err := f.svc.ProcessWebhook(context.Background(), payload, sig)

	require.NoError(t, err)
	f.subs.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestProcessWebhook_SubscriptionUpdatedExtendsEndDate(t *testing.T) {
	f := newWebhookFixture(t)
	user := testutil.NewTestUser(t, "user_1")
	tier := testutil.NewPaidTier(t, "Pro", 2900, 5000, "price_pro")
	local := billing.NewPaidSubscription("user_1", tier, "sub_1", fixedNow)
	periodEnd := fixedNow.Add(60 * 24 * time.Hour)

	f.subs.On("FindByExternalID", mock.Anything, "sub_1").Return(local, nil)
	f.users.On("FindByExternalIDForUpdate", mock.Anything, "user_1").Return(user, nil)
	f.subs.On("Save", mock.Anything, mock.MatchedBy(func(s *billing.Subscription) bool {
		return s.IsActive && s.EndDate.Equal(periodEnd)
	})).Return(nil).Once()

	object := fmt.Sprintf(`{"id":"sub_1","object":"subscription","status":"active","current_period_end":%d}`, periodEnd.Unix())
	payload, sig := signedEvent(t, "evt_7", "customer.subscription.updated", object)
	_, err := f.svc.ProcessWebhook(context.Background(), payload, sig)

	require.NoError(t, err)
	f.subs.AssertExpectations(t)
}

func TestProcessWebhook_ChargeRefundedMarksPayment(t *testing.T) {
	f := newWebhookFixture(t)
	payment, err := billing.NewCompletedPayment(testutil.NewTestUUID("u"), testutil.NewTestUUID("t"), "pi_1", 2900, "EUR", fixedNow)
	require.NoError(t, err)

	f.payments.On("FindByExternalID", mock.Anything, "pi_1").Return(payment, nil)
	f.payments.On("UpdateStatus", mock.Anything, mock.MatchedBy(func(p *billing.Payment) bool {
		return p.Status == billing.PaymentStatusRefunded
	})).Return(nil).Once()

	payload, sig := signedEvent(t, "evt_8", "charge.refunded", `{"id":"ch_1","object":"charge","payment_intent":"pi_1"}`)
	_, err = f.svc.ProcessWebhook(context.Background(), payload, sig)

	require.NoError(t, err)
	f.payments.AssertExpectations(t)
}
