package paystack

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyTransactionSuccess(t *testing.T) {
	var gotPath, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"status": true,
			"message": "Verification successful",
			"data": {
				"status": "success",
				"reference": "pay_abc123",
				"amount": 500000,
				"currency": "NGN",
				"metadata": {"user_id": "42", "plan_name": "Growth"},
				"customer": {"email": "jo@example.com"}
			}
		}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "sk_test_secret")
	result, err := client.VerifyTransaction(context.Background(), "pay_abc123")
	require.NoError(t, err)

	assert.Equal(t, "/transaction/verify/pay_abc123", gotPath)
	assert.Equal(t, "Bearer sk_test_secret", gotAuth)
	assert.True(t, result.Verified)
	assert.Equal(t, "success", result.Status)
	assert.Equal(t, int64(500000), result.Amount)
	assert.Equal(t, "NGN", result.Currency)
	assert.Equal(t, "jo@example.com", result.CustomerEmail)
	assert.Equal(t, "42", result.Metadata["user_id"])
	assert.NotEmpty(t, result.Raw)
}

func TestVerifyTransactionFailedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": true, "message": "ok", "data": {"status": "failed", "reference": "pay_bad", "amount": 100}}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "sk_test_secret")
	result, err := client.VerifyTransaction(context.Background(), "pay_bad")
	require.NoError(t, err)
	assert.False(t, result.Verified)
	assert.Equal(t, "failed", result.Status)
}

func TestVerifyTransactionReversedNormalizesToFailed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": true, "message": "ok", "data": {"status": "reversed", "reference": "pay_rev"}}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "sk_test_secret")
	result, err := client.VerifyTransaction(context.Background(), "pay_rev")
	require.NoError(t, err)
	assert.Equal(t, "failed", result.Status)
}

func TestVerifyTransactionPendingStatuses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": true, "message": "ok", "data": {"status": "ongoing", "reference": "pay_wip"}}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "sk_test_secret")
	result, err := client.VerifyTransaction(context.Background(), "pay_wip")
	require.NoError(t, err)
	assert.Equal(t, "pending", result.Status)
	assert.False(t, result.Verified)
}

func TestVerifyTransactionServerErrorIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "sk_test_secret")
	_, err := client.VerifyTransaction(context.Background(), "pay_abc")
	require.ErrorIs(t, err, ErrGatewayUnavailable)
}

func TestVerifyTransactionNetworkFailureIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	client := NewClient(srv.URL, "sk_test_secret")
	_, err := client.VerifyTransaction(context.Background(), "pay_abc")
	require.ErrorIs(t, err, ErrGatewayUnavailable)
}

func TestVerifyTransactionEmptyReference(t *testing.T) {
	client := NewClient("http://localhost:0", "sk_test_secret")
	_, err := client.VerifyTransaction(context.Background(), "")
	require.Error(t, err)
}

func TestInitializeTransaction(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/transaction/initialize", r.URL.Path)
		assert.Equal(t, "Bearer sk_test_secret", r.Header.Get("Authorization"))
		w.Write([]byte(`{
			"status": true,
			"message": "Authorization URL created",
			"data": {
				"authorization_url": "https://checkout.paystack.com/abc",
				"access_code": "abc",
				"reference": "pay_abc123"
			}
		}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "sk_test_secret")
	result, err := client.InitializeTransaction(context.Background(), InitializeRequest{
		Email:     "jo@example.com",
		Amount:    500000,
		Currency:  "NGN",
		Reference: "pay_abc123",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.paystack.com/abc", result.AuthorizationURL)
	assert.Equal(t, "pay_abc123", result.Reference)
}

func TestInitializeTransactionRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": false, "message": "Invalid key"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "sk_bad")
	_, err := client.InitializeTransaction(context.Background(), InitializeRequest{Email: "jo@example.com", Amount: 100})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrGatewayUnavailable)
}
