// internal/billing/errors.go
package billing

import (
	"errors"
	"fmt"

	"github.com/ObiwanKenobee/ethical-journey-platform-2-sub005/internal/payment_gateway/paystack"
)

var (
	// ErrInvalidRequest: the caller supplied no reference. Not retryable.
	ErrInvalidRequest = errors.New("billing: reference is required")

	// ErrUpstream: the gateway was unreachable or errored before anything was
	// written locally. Safe to retry with backoff.
	ErrUpstream = errors.New("billing: payment gateway error")

	// ErrTransactionNotFound: the keyed verification update matched no row.
	// Not retryable; points at a consistency problem upstream of verification.
	ErrTransactionNotFound = errors.New("billing: transaction not found")
)

// PersistenceError reports a storage write that failed after the gateway
// already confirmed the transaction. Result carries the confirmed outcome so
// callers can still answer with it instead of telling the customer a
// successful payment failed.
type PersistenceError struct {
	Result *paystack.VerificationResult
	Err    error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("billing: persisting verification result: %v", e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
