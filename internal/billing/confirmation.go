// internal/billing/confirmation.go
package billing

import (
	"context"
	"sync"
	"time"

	"github.com/ObiwanKenobee/ethical-journey-platform-2-sub005/internal/payment_gateway/paystack"
)

// ConfirmationState is the confirmation page's machine:
// Idle -> Verifying -> {Verified, Failed}. Terminal states are never
// re-entered; a fresh navigation builds a fresh flow.
type ConfirmationState string

const (
	StateIdle      ConfirmationState = "idle"
	StateVerifying ConfirmationState = "verifying"
	StateVerified  ConfirmationState = "verified"
	StateFailed    ConfirmationState = "failed"
)

// Failure reasons surfaced to the confirmation page.
const (
	ReasonCancelled          = "cancelled"
	ReasonMissingReference   = "missing reference"
	ReasonVerificationFailed = "verification failed"
)

// DefaultRedirectDelay is how long a verified, signed-in viewer sees the
// confirmation before being sent to the dashboard.
const DefaultRedirectDelay = 3 * time.Second

// ConfirmationParams are the gateway return-URL query parameters. The gateway
// sends the reference under both "reference" and "trxref"; either works.
type ConfirmationParams struct {
	Reference string
	TrxRef    string
	Status    string
}

func (p ConfirmationParams) reference() string {
	if p.Reference != "" {
		return p.Reference
	}
	return p.TrxRef
}

// VerifyFunc is the verification entry point the flow calls while in
// Verifying. It is the only suspend point of the machine.
type VerifyFunc func(ctx context.Context, reference string) (*paystack.VerificationResult, error)

// ConfirmationFlow runs the post-checkout confirmation once. The verified
// redirect is scheduled on a stoppable timer so tearing the flow down before
// the delay elapses guarantees the navigation never fires.
type ConfirmationFlow struct {
	Verify        VerifyFunc
	RedirectDelay time.Duration

	mu             sync.Mutex
	state          ConfirmationState
	reason         string
	result         *paystack.VerificationResult
	cancelRedirect func() bool
}

func NewConfirmationFlow(verify VerifyFunc) *ConfirmationFlow {
	return &ConfirmationFlow{
		Verify:        verify,
		RedirectDelay: DefaultRedirectDelay,
		state:         StateIdle,
	}
}

// Run drives the machine from Idle to a terminal state. The machine is
// entered only for status=success with a non-empty reference; cancelled and
// missing-reference parameters fail directly without touching the verifier.
// When the viewer is authenticated and redirect is non-nil, reaching Verified
// schedules redirect once after RedirectDelay. Calling Run on a non-idle flow
// returns the current state unchanged.
func (f *ConfirmationFlow) Run(ctx context.Context, params ConfirmationParams, authenticated bool, redirect func()) ConfirmationState {
	f.mu.Lock()
	if f.state != StateIdle {
		state := f.state
		f.mu.Unlock()
		return state
	}

	if params.Status == "cancelled" {
		f.state = StateFailed
		f.reason = ReasonCancelled
		f.mu.Unlock()
		return StateFailed
	}
	if params.Status != "success" {
		f.mu.Unlock()
		return StateIdle
	}
	reference := params.reference()
	if reference == "" {
		f.state = StateFailed
		f.reason = ReasonMissingReference
		f.mu.Unlock()
		return StateFailed
	}

	f.state = StateVerifying
	f.mu.Unlock()

	result, err := f.Verify(ctx, reference)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.result = result

	if err != nil || result == nil || !result.Verified {
		f.state = StateFailed
		f.reason = ReasonVerificationFailed
		return StateFailed
	}

	f.state = StateVerified
	if authenticated && redirect != nil {
		delay := f.RedirectDelay
		if delay <= 0 {
			delay = DefaultRedirectDelay
		}
		timer := time.AfterFunc(delay, redirect)
		f.cancelRedirect = timer.Stop
	}
	return StateVerified
}

// Teardown cancels a pending redirect. Safe to call any number of times and
// in any state; after it returns no scheduled navigation will fire.
func (f *ConfirmationFlow) Teardown() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cancelRedirect != nil {
		f.cancelRedirect()
		f.cancelRedirect = nil
	}
}

func (f *ConfirmationFlow) State() ConfirmationState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// FailureReason is meaningful only in StateFailed.
func (f *ConfirmationFlow) FailureReason() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reason
}

// Result returns the verification outcome, nil until the verifier answered.
func (f *ConfirmationFlow) Result() *paystack.VerificationResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.result
}
