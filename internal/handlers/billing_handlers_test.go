// internal/handlers/billing_handlers_test.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ObiwanKenobee/ethical-journey-platform-2-sub005/internal/billing"
	"github.com/ObiwanKenobee/ethical-journey-platform-2-sub005/internal/config"
	"github.com/ObiwanKenobee/ethical-journey-platform-2-sub005/internal/middleware"
	"github.com/ObiwanKenobee/ethical-journey-platform-2-sub005/internal/models"
	"github.com/ObiwanKenobee/ethical-journey-platform-2-sub005/internal/payment_gateway/paystack"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGateway struct {
	verifyResult *paystack.VerificationResult
	verifyErr    error
}

func (g *stubGateway) VerifyTransaction(_ context.Context, _ string) (*paystack.VerificationResult, error) {
	return g.verifyResult, g.verifyErr
}

func (g *stubGateway) InitializeTransaction(_ context.Context, _ paystack.InitializeRequest) (*paystack.InitializeResult, error) {
	return &paystack.InitializeResult{AuthorizationURL: "https://checkout.example/abc"}, nil
}

type stubStore struct {
	matched int64
}

func (s *stubStore) RecordVerification(_ context.Context, _ string, _ models.TransactionStatus, _ time.Time) (int64, error) {
	return s.matched, nil
}

func (s *stubStore) UpsertSubscription(_ context.Context, _ *models.Subscription) error {
	return nil
}

func newTestBillingHandlers(gw *stubGateway, store *stubStore) *BillingHandlers {
	return &BillingHandlers{
		Config:   &config.Config{},
		Gateway:  gw,
		Verifier: billing.NewVerifier(gw, store, "NGN"),
	}
}

func verifiedResult(ref string) *paystack.VerificationResult {
	return &paystack.VerificationResult{
		Verified:  true,
		Status:    "success",
		Reference: ref,
		Amount:    500000,
		Currency:  "NGN",
		Raw:       json.RawMessage(`{"status":true,"data":{"status":"success"}}`),
	}
}

func postVerify(t *testing.T, h http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/billing/verify", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h(rr, req)
	return rr
}

func TestVerifyPaymentMissingReference(t *testing.T) {
	bh := newTestBillingHandlers(&stubGateway{}, &stubStore{matched: 1})

	rr := postVerify(t, bh.VerifyPaymentHandler, `{"reference": ""}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Contains(t, resp["error"], "reference")
}

func TestVerifyPaymentBadBody(t *testing.T) {
	bh := newTestBillingHandlers(&stubGateway{}, &stubStore{matched: 1})

	rr := postVerify(t, bh.VerifyPaymentHandler, `{not json`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestVerifyPaymentUpstreamFailure(t *testing.T) {
	gw := &stubGateway{verifyErr: errors.New("gateway down")}
	bh := newTestBillingHandlers(gw, &stubStore{matched: 1})

	rr := postVerify(t, bh.VerifyPaymentHandler, `{"reference": "pay_abc"}`)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestVerifyPaymentUnknownTransaction(t *testing.T) {
	gw := &stubGateway{verifyResult: verifiedResult("pay_ghost")}
	bh := newTestBillingHandlers(gw, &stubStore{matched: 0})

	rr := postVerify(t, bh.VerifyPaymentHandler, `{"reference": "pay_ghost"}`)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestVerifyPaymentSuccessReturnsRawPayload(t *testing.T) {
	gw := &stubGateway{verifyResult: verifiedResult("pay_abc")}
	bh := newTestBillingHandlers(gw, &stubStore{matched: 1})

	rr := postVerify(t, bh.VerifyPaymentHandler, `{"reference": "pay_abc"}`)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	// The gateway's body is passed through untouched.
	assert.JSONEq(t, `{"status":true,"data":{"status":"success"}}`, rr.Body.String())
}

func TestVerifyPaymentMethodNotAllowed(t *testing.T) {
	bh := newTestBillingHandlers(&stubGateway{}, &stubStore{matched: 1})

	req := httptest.NewRequest(http.MethodGet, "/api/billing/verify", nil)
	rr := httptest.NewRecorder()
	bh.VerifyPaymentHandler(rr, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestVerifyEndpointCORSPreflight(t *testing.T) {
	gw := &stubGateway{verifyResult: verifiedResult("pay_abc")}
	bh := newTestBillingHandlers(gw, &stubStore{matched: 1})
	handler := middleware.PermissiveCORS(http.HandlerFunc(bh.VerifyPaymentHandler))

	req := httptest.NewRequest(http.MethodOptions, "/api/billing/verify", nil)
	req.Header.Set("Origin", "https://checkout.example")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "authorization, x-client-info, apikey, content-type", rr.Header().Get("Access-Control-Allow-Headers"))
	assert.Equal(t, "POST, OPTIONS", rr.Header().Get("Access-Control-Allow-Methods"))
}

func TestVerifyEndpointCORSHeadersOnPost(t *testing.T) {
	gw := &stubGateway{verifyResult: verifiedResult("pay_abc")}
	bh := newTestBillingHandlers(gw, &stubStore{matched: 1})
	handler := middleware.PermissiveCORS(http.HandlerFunc(bh.VerifyPaymentHandler))

	req := httptest.NewRequest(http.MethodPost, "/api/billing/verify", strings.NewReader(`{"reference": "pay_abc"}`))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
}
