// internal/handlers/billing_handlers.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/ObiwanKenobee/ethical-journey-platform-2-sub005/internal/billing"
	"github.com/ObiwanKenobee/ethical-journey-platform-2-sub005/internal/config"
	"github.com/ObiwanKenobee/ethical-journey-platform-2-sub005/internal/db"
	"github.com/ObiwanKenobee/ethical-journey-platform-2-sub005/internal/email"
	"github.com/ObiwanKenobee/ethical-journey-platform-2-sub005/internal/middleware"
	"github.com/ObiwanKenobee/ethical-journey-platform-2-sub005/internal/models"
	"github.com/ObiwanKenobee/ethical-journey-platform-2-sub005/internal/payment_gateway/paystack"
	"github.com/ObiwanKenobee/ethical-journey-platform-2-sub005/internal/plans"
	"github.com/ObiwanKenobee/ethical-journey-platform-2-sub005/internal/validation"

	"github.com/alexedwards/scs/v2"
	"github.com/google/uuid"
)

// Gateway is the slice of the payment provider the checkout flow needs.
type Gateway interface {
	InitializeTransaction(ctx context.Context, req paystack.InitializeRequest) (*paystack.InitializeResult, error)
}

// ConfirmationView is what the confirmation template renders.
type ConfirmationView struct {
	State         billing.ConfirmationState
	Reason        string
	Reference     string
	RedirectURL   string
	RedirectDelay int
}

type BillingHandlers struct {
	SessionManager *scs.SessionManager
	Config         *config.Config
	AppHandlers    *AppHandlers
	Gateway        Gateway
	Verifier       *billing.Verifier
	Plans          *plans.Catalog
}

func NewBillingHandlers(sm *scs.SessionManager, cfg *config.Config, ah *AppHandlers, gw Gateway, verifier *billing.Verifier, catalog *plans.Catalog) *BillingHandlers {
	return &BillingHandlers{
		SessionManager: sm,
		Config:         cfg,
		AppHandlers:    ah,
		Gateway:        gw,
		Verifier:       verifier,
		Plans:          catalog,
	}
}

// CheckoutHandler records a pending transaction for the chosen plan and hands
// the user off to the provider's hosted payment page.
func (bh *BillingHandlers) CheckoutHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	currentUser, ok := r.Context().Value(middleware.UserContextKey).(*models.User)
	if !ok || currentUser == nil {
		http.Error(w, "Not authenticated", http.StatusUnauthorized)
		return
	}

	if err := r.ParseForm(); err != nil {
		slog.Error("Could not parse checkout form", "error", err)
		http.Error(w, "Server error", http.StatusInternalServerError)
		return
	}

	form := models.CheckoutForm{PlanCode: r.PostForm.Get("plan")}
	if errs := validation.ValidateStruct(form); len(errs) > 0 {
		bh.SessionManager.Put(r.Context(), "flash_error", "Please choose a valid plan.")
		http.Redirect(w, r, "/pricing", http.StatusSeeOther)
		return
	}

	plan, ok := bh.Plans.ByCode(form.PlanCode)
	if !ok {
		slog.Warn("Checkout for unknown plan", "plan", form.PlanCode, "userID", currentUser.ID)
		bh.SessionManager.Put(r.Context(), "flash_error", "That plan is no longer available.")
		http.Redirect(w, r, "/pricing", http.StatusSeeOther)
		return
	}

	reference := "pay_" + uuid.NewString()[:12]

	trx := &models.PaymentTransaction{
		Reference: reference,
		UserID:    &currentUser.ID,
		Amount:    float64(plan.Amount) / 100.0,
		Currency:  plan.Currency,
		Status:    models.TransactionStatusPending,
		Metadata: map[string]any{
			"user_id":   currentUser.ID,
			"plan_code": plan.Code,
			"plan_name": plan.Name,
		},
	}
	if err := db.CreateTransaction(trx); err != nil {
		slog.Error("Could not record pending transaction", "reference", reference, "userID", currentUser.ID, "error", err)
		bh.SessionManager.Put(r.Context(), "flash_error", "We could not start your checkout. Please try again.")
		http.Redirect(w, r, "/pricing", http.StatusSeeOther)
		return
	}

	initResult, err := bh.Gateway.InitializeTransaction(r.Context(), paystack.InitializeRequest{
		Email:       currentUser.Email,
		Amount:      plan.Amount,
		Currency:    plan.Currency,
		Reference:   reference,
		CallbackURL: bh.Config.Paystack.CallbackURL,
		Metadata: map[string]any{
			"user_id":   currentUser.ID,
			"plan_code": plan.Code,
			"plan_name": plan.Name,
		},
	})
	if err != nil {
		slog.Error("Payment initialization failed", "reference", reference, "error", err)
		bh.SessionManager.Put(r.Context(), "flash_error", "Our payment provider is unavailable right now. Please try again in a minute.")
		http.Redirect(w, r, "/pricing", http.StatusSeeOther)
		return
	}

	slog.Info("Checkout started", "userID", currentUser.ID, "plan", plan.Code, "reference", reference)
	http.Redirect(w, r, initResult.AuthorizationURL, http.StatusSeeOther)
}

type verifyRequest struct {
	Reference string `json:"reference"`
}

// VerifyPaymentHandler is the JSON endpoint the confirmation page (and any
// other browser client) calls to settle a transaction's final status.
func (bh *BillingHandlers) VerifyPaymentHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := bh.Verifier.Verify(r.Context(), req.Reference)
	if err != nil {
		var pErr *billing.PersistenceError
		switch {
		case errors.Is(err, billing.ErrInvalidRequest):
			writeJSONError(w, http.StatusBadRequest, "transaction reference is required")
			return
		case errors.Is(err, billing.ErrUpstream):
			slog.Error("Verification failed upstream", "reference", req.Reference, "error", err)
			writeJSONError(w, http.StatusInternalServerError, "could not verify transaction")
			return
		case errors.Is(err, billing.ErrTransactionNotFound):
			slog.Warn("Verified reference has no local transaction", "reference", req.Reference)
			writeJSONError(w, http.StatusNotFound, "transaction not found")
			return
		case errors.As(err, &pErr):
			// The provider settled the payment; our bookkeeping failed. The
			// caller still gets the authoritative result.
			slog.Error("Verification persisted with errors", "reference", req.Reference, "error", pErr.Err)
		default:
			slog.Error("Verification failed", "reference", req.Reference, "error", err)
			writeJSONError(w, http.StatusInternalServerError, "could not verify transaction")
			return
		}
	}

	if result != nil && result.Verified && result.CustomerEmail != "" {
		planName, _ := models.MetadataPlanName(result.Metadata)
		go func(to, plan, ref, currency string, amountMinor int64) {
			if err := email.SendReceipt(bh.Config, to, plan, float64(amountMinor)/100.0, currency, ref); err != nil {
				slog.Warn("Receipt email failed", "reference", ref, "error", err)
			}
		}(result.CustomerEmail, planName, result.Reference, result.Currency, result.Amount)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if result != nil && len(result.Raw) > 0 {
		w.Write(result.Raw)
		return
	}
	json.NewEncoder(w).Encode(map[string]any{"status": result != nil && result.Verified})
}

func writeJSONError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// ConfirmPageHandler lands the user returning from the hosted payment page.
// It drives the confirmation flow synchronously and renders the outcome;
// authenticated users who paid successfully get a delayed redirect to the
// dashboard via the template's meta refresh.
func (bh *BillingHandlers) ConfirmPageHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := billing.ConfirmationParams{
		Reference: q.Get("reference"),
		TrxRef:    q.Get("trxref"),
		Status:    q.Get("status"),
	}
	// Hosted pages that do not echo a status still mean the user came back
	// from a completed attempt; treat the bare return as success-shaped and
	// let verification decide.
	if params.Status == "" && (params.Reference != "" || params.TrxRef != "") {
		params.Status = "success"
	}

	isAuthenticated, _ := r.Context().Value(middleware.IsAuthenticatedContextKey).(bool)

	flow := billing.NewConfirmationFlow(bh.verifyForFlow())
	state := flow.Run(r.Context(), params, isAuthenticated, nil)

	data := bh.AppHandlers.NewPageData(r)
	data.RobotsContent = "noindex, nofollow"
	view := &ConfirmationView{
		State:     state,
		Reason:    flow.FailureReason(),
		Reference: params.Reference,
	}
	if params.Reference == "" {
		view.Reference = params.TrxRef
	}

	switch state {
	case billing.StateVerified:
		data.PageTitle = "Payment confirmed"
		if isAuthenticated {
			view.RedirectURL = "/dashboard"
			view.RedirectDelay = int(billing.DefaultRedirectDelay.Seconds())
		}
	case billing.StateFailed:
		data.PageTitle = "Payment not confirmed"
	default:
		data.PageTitle = "Checkout status"
	}
	data.Confirmation = view

	flow.Teardown()
	bh.AppHandlers.RenderPage(w, r, "billing_confirm.html", data)
}

func (bh *BillingHandlers) verifyForFlow() billing.VerifyFunc {
	return func(ctx context.Context, reference string) (*paystack.VerificationResult, error) {
		result, err := bh.Verifier.Verify(ctx, reference)
		if err != nil {
			var pErr *billing.PersistenceError
			if errors.As(err, &pErr) {
				// Payment is settled; surface success to the user and keep the
				// bookkeeping failure in the logs.
				slog.Error("Confirmation persisted with errors", "reference", reference, "error", pErr.Err)
				return pErr.Result, nil
			}
			return result, err
		}
		return result, nil
	}
}
