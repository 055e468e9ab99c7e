package paystack

import (
	"encoding/json"
	"time"
)

// Request and response structures for the Paystack transaction API.
// Amounts on the wire are in minor currency units (kobo for NGN).

// InitializeRequest describes the body for creating a transaction.
type InitializeRequest struct {
	Email       string         `json:"email"`
	Amount      int64          `json:"amount"`
	Currency    string         `json:"currency,omitempty"`
	Reference   string         `json:"reference,omitempty"`
	CallbackURL string         `json:"callback_url,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// InitializeResult contains the hosted checkout URL and the reference the
// gateway settled on.
type InitializeResult struct {
	AuthorizationURL string
	AccessCode       string
	Reference        string
}

type initializeResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		AuthorizationURL string `json:"authorization_url"`
		AccessCode       string `json:"access_code"`
		Reference        string `json:"reference"`
	} `json:"data"`
}

type verifyResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		Status    string         `json:"status"`
		Reference string         `json:"reference"`
		Amount    int64          `json:"amount"`
		Currency  string         `json:"currency"`
		PaidAt    *time.Time     `json:"paid_at"`
		Metadata  map[string]any `json:"metadata"`
		Customer  struct {
			Email string `json:"email"`
		} `json:"customer"`
	} `json:"data"`
}

// VerificationResult is the normalized outcome of a verify call. Amount stays
// in minor units here; callers convert at the storage boundary. Raw carries
// the gateway's response body untouched so API consumers can be handed the
// exact payload.
type VerificationResult struct {
	Verified      bool
	Status        string // success, failed or pending
	Reference     string
	Amount        int64
	Currency      string
	Metadata      map[string]any
	CustomerEmail string
	PaidAt        *time.Time
	Raw           json.RawMessage
}
