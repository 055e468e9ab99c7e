package paystack

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// ErrGatewayUnavailable marks network failures and gateway-side outages.
// Callers must never treat it as a failed payment.
var ErrGatewayUnavailable = errors.New("paystack: gateway unavailable")

// Client for the Paystack transaction API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	secretKey  string
}

// NewClient creates a client. The request timeout bounds every call so a
// stalled gateway surfaces as ErrGatewayUnavailable instead of hanging.
func NewClient(baseURL, secretKey string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    baseURL,
		secretKey:  secretKey,
	}
}

// InitializeTransaction creates a transaction and returns the hosted checkout
// URL the customer is redirected to.
func (c *Client) InitializeTransaction(ctx context.Context, reqData InitializeRequest) (*InitializeResult, error) {
	endpoint := "/transaction/initialize"

	bodyBytes, err := json.Marshal(reqData)
	if err != nil {
		return nil, fmt.Errorf("paystack: failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+endpoint, bytes.NewBuffer(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("paystack: failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("%w: status %d", ErrGatewayUnavailable, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("paystack: unexpected status code: %d, body: %s", resp.StatusCode, string(body))
	}

	var initResp initializeResponse
	if err := json.NewDecoder(resp.Body).Decode(&initResp); err != nil {
		return nil, fmt.Errorf("paystack: failed to decode response: %w", err)
	}
	if !initResp.Status {
		return nil, fmt.Errorf("paystack: initialize rejected: %s", initResp.Message)
	}
	if initResp.Data.AuthorizationURL == "" {
		return nil, fmt.Errorf("paystack: authorization_url missing in response")
	}

	return &InitializeResult{
		AuthorizationURL: initResp.Data.AuthorizationURL,
		AccessCode:       initResp.Data.AccessCode,
		Reference:        initResp.Data.Reference,
	}, nil
}

// VerifyTransaction asks the gateway for the terminal state of a transaction.
// Read-only; the reference must be non-empty.
func (c *Client) VerifyTransaction(ctx context.Context, reference string) (*VerificationResult, error) {
	if reference == "" {
		return nil, fmt.Errorf("paystack: reference must not be empty")
	}
	endpoint := "/transaction/verify/" + url.PathEscape(reference)

	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("paystack: failed to create verify request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrGatewayUnavailable, err)
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("%w: status %d", ErrGatewayUnavailable, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("paystack: unexpected status code on verify: %d, body: %s", resp.StatusCode, string(body))
	}

	var verResp verifyResponse
	if err := json.Unmarshal(body, &verResp); err != nil {
		return nil, fmt.Errorf("paystack: failed to decode verify response: %w", err)
	}
	if !verResp.Status {
		return nil, fmt.Errorf("paystack: verify rejected: %s", verResp.Message)
	}

	status := normalizeStatus(verResp.Data.Status)
	return &VerificationResult{
		Verified:      status == "success",
		Status:        status,
		Reference:     verResp.Data.Reference,
		Amount:        verResp.Data.Amount,
		Currency:      verResp.Data.Currency,
		Metadata:      verResp.Data.Metadata,
		CustomerEmail: verResp.Data.Customer.Email,
		PaidAt:        verResp.Data.PaidAt,
		Raw:           json.RawMessage(body),
	}, nil
}

// normalizeStatus folds the gateway's transient states into "pending"; only
// success and failed are terminal.
func normalizeStatus(status string) string {
	switch status {
	case "success":
		return "success"
	case "failed", "reversed":
		return "failed"
	default:
		return "pending"
	}
}
