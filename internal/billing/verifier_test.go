// internal/billing/verifier_test.go
package billing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ObiwanKenobee/ethical-journey-platform-2-sub005/internal/models"
	"github.com/ObiwanKenobee/ethical-journey-platform-2-sub005/internal/payment_gateway/paystack"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGateway struct {
	result *paystack.VerificationResult
	err    error
	calls  int
}

func (g *fakeGateway) VerifyTransaction(_ context.Context, _ string) (*paystack.VerificationResult, error) {
	g.calls++
	return g.result, g.err
}

type fakeStore struct {
	matched       int64
	recordErr     error
	upsertErr     error
	recordCalls   int
	upsertCalls   int
	lastStatus    models.TransactionStatus
	subscriptions map[int64]*models.Subscription
}

func newFakeStore() *fakeStore {
	return &fakeStore{matched: 1, subscriptions: make(map[int64]*models.Subscription)}
}

func (s *fakeStore) RecordVerification(_ context.Context, _ string, status models.TransactionStatus, _ time.Time) (int64, error) {
	s.recordCalls++
	s.lastStatus = status
	if s.recordErr != nil {
		return 0, s.recordErr
	}
	return s.matched, nil
}

func (s *fakeStore) UpsertSubscription(_ context.Context, sub *models.Subscription) error {
	s.upsertCalls++
	if s.upsertErr != nil {
		return s.upsertErr
	}
	s.subscriptions[sub.UserID] = sub
	return nil
}

func successResult(ref string) *paystack.VerificationResult {
	return &paystack.VerificationResult{
		Verified:  true,
		Status:    "success",
		Reference: ref,
		Amount:    500000,
		Currency:  "NGN",
		Metadata: map[string]any{
			"user_id":   "42",
			"plan_code": "growth",
			"plan_name": "Growth",
		},
	}
}

func TestVerifyEmptyReference(t *testing.T) {
	gw := &fakeGateway{}
	v := NewVerifier(gw, newFakeStore(), "NGN")

	_, err := v.Verify(context.Background(), "   ")
	require.ErrorIs(t, err, ErrInvalidRequest)
	assert.Zero(t, gw.calls, "gateway must not be called for an empty reference")
}

func TestVerifyGatewayFailureFailsClosed(t *testing.T) {
	gw := &fakeGateway{err: errors.New("connection refused")}
	store := newFakeStore()
	v := NewVerifier(gw, store, "NGN")

	result, err := v.Verify(context.Background(), "pay_abc")
	require.ErrorIs(t, err, ErrUpstream)
	assert.Nil(t, result)
	assert.Zero(t, store.recordCalls, "nothing may be written when the gateway fails")
	assert.Zero(t, store.upsertCalls)
}

func TestVerifySuccessMintsSubscription(t *testing.T) {
	gw := &fakeGateway{result: successResult("pay_abc")}
	store := newFakeStore()
	v := NewVerifier(gw, store, "NGN")

	result, err := v.Verify(context.Background(), "pay_abc")
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, models.TransactionStatusSuccess, store.lastStatus)

	sub, ok := store.subscriptions[42]
	require.True(t, ok)
	assert.Equal(t, "Growth", sub.PlanName)
	assert.Equal(t, "growth", sub.PlanCode)
	assert.Equal(t, models.SubscriptionStatusActive, sub.Status)
	assert.Equal(t, "pay_abc", sub.PaymentReference)
	// 500000 minor units is 5000.00 in the major unit.
	assert.InDelta(t, 5000.0, sub.Amount, 0.0001)
	assert.Equal(t, "NGN", sub.Currency)
	assert.Equal(t, SubscriptionPeriod, sub.EndDate.Sub(sub.StartDate))
}

func TestVerifyIsIdempotentPerUser(t *testing.T) {
	gw := &fakeGateway{result: successResult("pay_abc")}
	store := newFakeStore()
	v := NewVerifier(gw, store, "NGN")

	for i := 0; i < 3; i++ {
		_, err := v.Verify(context.Background(), "pay_abc")
		require.NoError(t, err)
	}
	// Keyed upsert: repeated verification never yields a second subscription.
	assert.Len(t, store.subscriptions, 1)
	assert.Equal(t, 3, store.recordCalls)
}

func TestVerifyFailedPaymentMintsNothing(t *testing.T) {
	gw := &fakeGateway{result: &paystack.VerificationResult{
		Verified:  false,
		Status:    "failed",
		Reference: "pay_bad",
		Amount:    500000,
		Metadata:  map[string]any{"user_id": "42", "plan_name": "Growth"},
	}}
	store := newFakeStore()
	v := NewVerifier(gw, store, "NGN")

	result, err := v.Verify(context.Background(), "pay_bad")
	require.NoError(t, err)
	assert.False(t, result.Verified)
	assert.Equal(t, models.TransactionStatusFailed, store.lastStatus)
	assert.Zero(t, store.upsertCalls)
}

func TestVerifyGuestCheckoutMintsNothing(t *testing.T) {
	res := successResult("pay_guest")
	res.Metadata["user_id"] = "Guest"
	gw := &fakeGateway{result: res}
	store := newFakeStore()
	v := NewVerifier(gw, store, "NGN")

	_, err := v.Verify(context.Background(), "pay_guest")
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusSuccess, store.lastStatus, "the payment itself is still recorded")
	assert.Zero(t, store.upsertCalls, "guest payments must not mint a subscription")
}

func TestVerifyUnknownReference(t *testing.T) {
	gw := &fakeGateway{result: successResult("pay_ghost")}
	store := newFakeStore()
	store.matched = 0
	v := NewVerifier(gw, store, "NGN")

	result, err := v.Verify(context.Background(), "pay_ghost")
	require.ErrorIs(t, err, ErrTransactionNotFound)
	assert.NotNil(t, result, "the gateway result is still surfaced")
	assert.Zero(t, store.upsertCalls)
}

func TestVerifyPersistenceFailureCarriesResult(t *testing.T) {
	gw := &fakeGateway{result: successResult("pay_abc")}
	store := newFakeStore()
	store.recordErr = errors.New("deadlock")
	v := NewVerifier(gw, store, "NGN")

	result, err := v.Verify(context.Background(), "pay_abc")
	var pErr *PersistenceError
	require.ErrorAs(t, err, &pErr)
	assert.Same(t, result, pErr.Result)
	assert.True(t, result.Verified)
}

func TestVerifyCurrencyDefault(t *testing.T) {
	res := successResult("pay_abc")
	res.Currency = ""
	gw := &fakeGateway{result: res}
	store := newFakeStore()
	v := NewVerifier(gw, store, "NGN")

	_, err := v.Verify(context.Background(), "pay_abc")
	require.NoError(t, err)
	assert.Equal(t, "NGN", store.subscriptions[42].Currency)
}
