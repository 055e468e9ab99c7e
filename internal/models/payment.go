// internal/models/payment.go
package models

import (
	"strconv"
	"strings"
	"time"
)

type TransactionStatus string

const (
	TransactionStatusPending TransactionStatus = "pending"
	TransactionStatusSuccess TransactionStatus = "success"
	TransactionStatusFailed  TransactionStatus = "failed"
)

// GuestSentinel is the legacy metadata value meaning "no account". Internally
// a guest checkout is a nil UserID; the sentinel is only accepted at the
// gateway boundary.
const GuestSentinel = "Guest"

// PaymentTransaction is one gateway transaction. Reference is the correlation
// key across checkout initiation, the gateway and verification, and is unique.
// Amount is stored in major currency units; the gateway wire format is minor
// units and is converted at the boundary. UserID is nil for guest checkouts.
// VerifiedAt is set only when verification reaches a terminal status.
type PaymentTransaction struct {
	ID         int64
	Reference  string
	UserID     *int64
	Amount     float64
	Currency   string
	Status     TransactionStatus
	Metadata   map[string]any
	CreatedAt  time.Time
	VerifiedAt *time.Time
}

type Subscription struct {
	ID               string             `json:"id"`
	UserID           int64              `json:"user_id"`
	PlanCode         string             `json:"plan_code"`
	PlanName         string             `json:"plan_name"`
	Status           SubscriptionStatus `json:"status"`
	StartDate        time.Time          `json:"start_date"`
	EndDate          time.Time          `json:"end_date"`
	PaymentReference string             `json:"payment_reference"`
	Amount           float64            `json:"amount"`
	Currency         string             `json:"currency"`
	CreatedAt        time.Time          `json:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at"`
}

// MetadataUserID extracts the account id from transaction metadata, returning
// false for guest checkouts. Metadata round-trips through the gateway as JSON,
// so the id may come back as a string, a number or not at all; the legacy
// sentinel "Guest" also means no account.
func MetadataUserID(metadata map[string]any) (int64, bool) {
	raw, ok := metadata["user_id"]
	if !ok {
		return 0, false
	}
	switch v := raw.(type) {
	case string:
		s := strings.TrimSpace(v)
		if s == "" || s == GuestSentinel {
			return 0, false
		}
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil || id <= 0 {
			return 0, false
		}
		return id, true
	case float64:
		if v <= 0 {
			return 0, false
		}
		return int64(v), true
	case int64:
		if v <= 0 {
			return 0, false
		}
		return v, true
	case int:
		if v <= 0 {
			return 0, false
		}
		return int64(v), true
	default:
		return 0, false
	}
}

// MetadataPlanName returns the plan name carried in metadata, if any.
func MetadataPlanName(metadata map[string]any) (string, bool) {
	raw, ok := metadata["plan_name"]
	if !ok {
		return "", false
	}
	name, ok := raw.(string)
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return "", false
	}
	return name, true
}
