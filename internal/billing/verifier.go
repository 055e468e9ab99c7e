// internal/billing/verifier.go
package billing

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ObiwanKenobee/ethical-journey-platform-2-sub005/internal/models"
	"github.com/ObiwanKenobee/ethical-journey-platform-2-sub005/internal/payment_gateway/paystack"
)

// SubscriptionPeriod is the fixed access window minted per successful payment.
const SubscriptionPeriod = 30 * 24 * time.Hour

// Gateway is the verify-side surface of the payment gateway client.
type Gateway interface {
	VerifyTransaction(ctx context.Context, reference string) (*paystack.VerificationResult, error)
}

// Store persists verification outcomes. RecordVerification is a keyed update
// on the transaction row and reports how many rows matched; UpsertSubscription
// is keyed by user id and must never create a second row for the same user.
type Store interface {
	RecordVerification(ctx context.Context, reference string, status models.TransactionStatus, verifiedAt time.Time) (int64, error)
	UpsertSubscription(ctx context.Context, sub *models.Subscription) error
}

// Verifier is the authoritative reconciliation step: only it marks a
// transaction terminally verified and mints the derived subscription.
// It calls the gateway exactly once per invocation; retries belong to the
// caller, and are safe because both writes are idempotent keyed operations.
type Verifier struct {
	gateway         Gateway
	store           Store
	defaultCurrency string
	now             func() time.Time
}

func NewVerifier(gateway Gateway, store Store, defaultCurrency string) *Verifier {
	if defaultCurrency == "" {
		defaultCurrency = "NGN"
	}
	return &Verifier{
		gateway:         gateway,
		store:           store,
		defaultCurrency: defaultCurrency,
		now:             time.Now,
	}
}

// Verify reconciles one transaction reference. On success the raw gateway
// result is returned even when the local write failed (as *PersistenceError),
// so a confirmed payment is never reported lost.
func (v *Verifier) Verify(ctx context.Context, reference string) (*paystack.VerificationResult, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, ErrInvalidRequest
	}

	result, err := v.gateway.VerifyTransaction(ctx, reference)
	if err != nil {
		// Fail closed: nothing was written locally, the caller may retry.
		slog.Error("Gateway verification failed", "reference", reference, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	now := v.now()
	status := transactionStatus(result.Status)

	matched, err := v.store.RecordVerification(ctx, reference, status, now)
	if err != nil {
		slog.Error("Failed to record verification outcome", "reference", reference, "status", status, "error", err)
		return result, &PersistenceError{Result: result, Err: err}
	}
	if matched == 0 {
		slog.Warn("Verification matched no transaction row", "reference", reference)
		return result, ErrTransactionNotFound
	}

	if status == models.TransactionStatusSuccess {
		if err := v.mintSubscription(ctx, reference, now, result); err != nil {
			slog.Error("Failed to upsert subscription after successful payment", "reference", reference, "error", err)
			return result, &PersistenceError{Result: result, Err: err}
		}
	}

	slog.Info("Transaction verified", "reference", reference, "status", status)
	return result, nil
}

// mintSubscription grants the 30-day window for account-bound checkouts.
// Guest checkouts (no usable user id in metadata) record the payment but
// intentionally mint nothing.
func (v *Verifier) mintSubscription(ctx context.Context, reference string, now time.Time, result *paystack.VerificationResult) error {
	userID, ok := models.MetadataUserID(result.Metadata)
	if !ok {
		slog.Info("Guest checkout verified, no subscription minted", "reference", reference)
		return nil
	}
	planName, ok := models.MetadataPlanName(result.Metadata)
	if !ok {
		slog.Warn("Successful payment without plan metadata, no subscription minted", "reference", reference, "userID", userID)
		return nil
	}

	currency := result.Currency
	if currency == "" {
		currency = v.defaultCurrency
	}

	sub := &models.Subscription{
		ID:               "sub_" + uuid.NewString()[:12],
		UserID:           userID,
		PlanCode:         metadataPlanCode(result.Metadata),
		PlanName:         planName,
		Status:           models.SubscriptionStatusActive,
		StartDate:        now,
		EndDate:          now.Add(SubscriptionPeriod),
		PaymentReference: reference,
		Amount:           float64(result.Amount) / 100.0,
		Currency:         currency,
	}
	return v.store.UpsertSubscription(ctx, sub)
}

func metadataPlanCode(metadata map[string]any) string {
	if code, ok := metadata["plan_code"].(string); ok {
		return strings.TrimSpace(code)
	}
	return ""
}

func transactionStatus(gatewayStatus string) models.TransactionStatus {
	switch gatewayStatus {
	case "success":
		return models.TransactionStatusSuccess
	case "failed":
		return models.TransactionStatusFailed
	default:
		return models.TransactionStatusPending
	}
}
