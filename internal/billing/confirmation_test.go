// internal/billing/confirmation_test.go
package billing

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ObiwanKenobee/ethical-journey-platform-2-sub005/internal/payment_gateway/paystack"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func verifyOK(calls *int32) VerifyFunc {
	return func(_ context.Context, ref string) (*paystack.VerificationResult, error) {
		atomic.AddInt32(calls, 1)
		return &paystack.VerificationResult{Verified: true, Status: "success", Reference: ref}, nil
	}
}

func verifyFail(calls *int32) VerifyFunc {
	return func(_ context.Context, _ string) (*paystack.VerificationResult, error) {
		atomic.AddInt32(calls, 1)
		return nil, errors.New("verification refused")
	}
}

func TestFlowCancelledShortCircuits(t *testing.T) {
	var calls int32
	flow := NewConfirmationFlow(verifyOK(&calls))

	state := flow.Run(context.Background(), ConfirmationParams{
		Reference: "pay_abc",
		Status:    "cancelled",
	}, true, nil)

	assert.Equal(t, StateFailed, state)
	assert.Equal(t, ReasonCancelled, flow.FailureReason())
	assert.Zero(t, atomic.LoadInt32(&calls), "cancelled returns must never reach the verifier")
}

func TestFlowMissingReferenceShortCircuits(t *testing.T) {
	var calls int32
	flow := NewConfirmationFlow(verifyOK(&calls))

	state := flow.Run(context.Background(), ConfirmationParams{Status: "success"}, true, nil)

	assert.Equal(t, StateFailed, state)
	assert.Equal(t, ReasonMissingReference, flow.FailureReason())
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestFlowNonSuccessStatusStaysIdle(t *testing.T) {
	var calls int32
	flow := NewConfirmationFlow(verifyOK(&calls))

	state := flow.Run(context.Background(), ConfirmationParams{Reference: "pay_abc"}, true, nil)

	assert.Equal(t, StateIdle, state)
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestFlowTrxRefFallback(t *testing.T) {
	var calls int32
	flow := NewConfirmationFlow(verifyOK(&calls))

	state := flow.Run(context.Background(), ConfirmationParams{
		TrxRef: "pay_abc",
		Status: "success",
	}, false, nil)

	assert.Equal(t, StateVerified, state)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	require.NotNil(t, flow.Result())
	assert.Equal(t, "pay_abc", flow.Result().Reference)
}

func TestFlowVerificationFailure(t *testing.T) {
	var calls int32
	flow := NewConfirmationFlow(verifyFail(&calls))

	state := flow.Run(context.Background(), ConfirmationParams{
		Reference: "pay_abc",
		Status:    "success",
	}, true, nil)

	assert.Equal(t, StateFailed, state)
	assert.Equal(t, ReasonVerificationFailed, flow.FailureReason())
}

func TestFlowTerminalStateIsSticky(t *testing.T) {
	var calls int32
	flow := NewConfirmationFlow(verifyOK(&calls))

	first := flow.Run(context.Background(), ConfirmationParams{Reference: "pay_abc", Status: "success"}, false, nil)
	second := flow.Run(context.Background(), ConfirmationParams{Reference: "pay_other", Status: "success"}, false, nil)

	assert.Equal(t, StateVerified, first)
	assert.Equal(t, StateVerified, second)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "a finished flow never verifies again")
}

func TestFlowRedirectFiresAfterDelay(t *testing.T) {
	var calls int32
	flow := NewConfirmationFlow(verifyOK(&calls))
	flow.RedirectDelay = 10 * time.Millisecond

	redirected := make(chan struct{})
	state := flow.Run(context.Background(), ConfirmationParams{
		Reference: "pay_abc",
		Status:    "success",
	}, true, func() { close(redirected) })

	require.Equal(t, StateVerified, state)
	select {
	case <-redirected:
	case <-time.After(time.Second):
		t.Fatal("redirect never fired")
	}
}

func TestFlowTeardownCancelsRedirect(t *testing.T) {
	var calls int32
	flow := NewConfirmationFlow(verifyOK(&calls))
	flow.RedirectDelay = 50 * time.Millisecond

	var fired int32
	state := flow.Run(context.Background(), ConfirmationParams{
		Reference: "pay_abc",
		Status:    "success",
	}, true, func() { atomic.AddInt32(&fired, 1) })
	require.Equal(t, StateVerified, state)

	flow.Teardown()
	time.Sleep(120 * time.Millisecond)
	assert.Zero(t, atomic.LoadInt32(&fired), "teardown before the delay must cancel the navigation")
}

func TestFlowUnauthenticatedSkipsRedirect(t *testing.T) {
	var calls int32
	flow := NewConfirmationFlow(verifyOK(&calls))
	flow.RedirectDelay = 10 * time.Millisecond

	var fired int32
	state := flow.Run(context.Background(), ConfirmationParams{
		Reference: "pay_abc",
		Status:    "success",
	}, false, func() { atomic.AddInt32(&fired, 1) })
	require.Equal(t, StateVerified, state)

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, atomic.LoadInt32(&fired))
}
