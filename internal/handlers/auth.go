// internal/handlers/auth.go
package handlers

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/ObiwanKenobee/ethical-journey-platform-2-sub005/internal/auth"
	"github.com/ObiwanKenobee/ethical-journey-platform-2-sub005/internal/config"
	"github.com/ObiwanKenobee/ethical-journey-platform-2-sub005/internal/db"
	"github.com/ObiwanKenobee/ethical-journey-platform-2-sub005/internal/middleware"
	"github.com/ObiwanKenobee/ethical-journey-platform-2-sub005/internal/models"
	"github.com/ObiwanKenobee/ethical-journey-platform-2-sub005/internal/validation"

	"github.com/alexedwards/scs/v2"
)

type AuthHandlers struct {
	SessionManager *scs.SessionManager
	Render         func(w http.ResponseWriter, r *http.Request, pageName string, data *PageData)
	NewPageData    func(r *http.Request) *PageData
	AppConfig      *config.Config
}

func NewAuthHandlers(sm *scs.SessionManager, renderFunc func(http.ResponseWriter, *http.Request, string, *PageData), newPageDataFunc func(*http.Request) *PageData, cfg *config.Config) *AuthHandlers {
	return &AuthHandlers{
		SessionManager: sm,
		Render:         renderFunc,
		NewPageData:    newPageDataFunc,
		AppConfig:      cfg,
	}
}

func (h *AuthHandlers) RegisterPageHandler(w http.ResponseWriter, r *http.Request) {
	data := h.NewPageData(r)
	data.PageTitle = "Create your account"
	data.PageDescription = "Start mapping your supply chain in minutes."
	data.RobotsContent = "noindex, follow"
	data.Form = models.RegistrationForm{}
	h.Render(w, r, "register.html", data)
}

func (h *AuthHandlers) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := r.ParseForm(); err != nil {
		slog.Error("Could not parse registration form", "error", err)
		http.Error(w, "Server error", http.StatusInternalServerError)
		return
	}

	form := models.RegistrationForm{
		Email:       r.PostForm.Get("email"),
		Password:    r.PostForm.Get("password"),
		ConfirmPass: r.PostForm.Get("confirm_password"),
		FirstName:   r.PostForm.Get("first_name"),
		LastName:    r.PostForm.Get("last_name"),
		Company:     r.PostForm.Get("company"),
		AgreeTerms:  r.PostForm.Get("agree_terms"),
		Honeypot:    r.PostForm.Get("website"),
	}

	// Bots fill every field; humans never see this one.
	if form.Honeypot != "" {
		http.Error(w, "Suspicious activity detected", http.StatusBadRequest)
		return
	}

	validationErrors := validation.ValidateStruct(form)
	if validationErrors == nil {
		validationErrors = url.Values{}
	}
	if form.AgreeTerms != "on" {
		validationErrors.Add("agree_terms", "You must agree to the terms of service.")
	}

	if len(validationErrors) > 0 {
		slog.Warn("Registration validation failed", "errors", validationErrors)
		form.Password = ""
		form.ConfirmPass = ""
		data := h.NewPageData(r)
		data.PageTitle = "Create your account - Error"
		data.RobotsContent = "noindex, follow"
		data.Form = form
		data.Errors = validationErrors
		w.WriteHeader(http.StatusBadRequest)
		h.Render(w, r, "register.html", data)
		return
	}

	hashedPassword, err := auth.HashPassword(form.Password)
	if err != nil {
		slog.Error("Password hashing failed", "error", err)
		http.Error(w, "Server error", http.StatusInternalServerError)
		return
	}

	user := &models.User{
		Email:        strings.ToLower(form.Email),
		PasswordHash: hashedPassword,
		FirstName:    auth.SanitizeName(form.FirstName),
		LastName:     auth.SanitizeName(form.LastName),
		Company:      strings.TrimSpace(form.Company),
	}

	userID, err := db.CreateUser(user, models.RoleUser)
	if err != nil {
		slog.Error("Could not create user", "error", err, "email", user.Email)
		data := h.NewPageData(r)
		data.PageTitle = "Create your account - Error"
		data.RobotsContent = "noindex, follow"
		data.Form = form
		data.Errors = url.Values{}

		if strings.Contains(err.Error(), "already exists") {
			w.WriteHeader(http.StatusBadRequest)
			data.Errors.Add("email", "A user with this email already exists.")
		} else {
			w.WriteHeader(http.StatusInternalServerError)
			data.Errors.Add("general", "Server error during registration. Please try again later.")
		}
		h.Render(w, r, "register.html", data)
		return
	}
	user.ID = userID

	if err := h.SessionManager.RenewToken(r.Context()); err != nil {
		slog.Error("Session token renewal failed after registration", "error", err)
		h.SessionManager.Put(r.Context(), "flash_success", "Account created. Please sign in.")
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	h.SessionManager.Put(r.Context(), string(middleware.UserIDContextKey), user.ID)

	slog.Info("User registered and signed in", "userID", user.ID)
	h.SessionManager.Put(r.Context(), "flash_success", "Welcome aboard! Pick a plan to unlock the compliance workspace.")
	http.Redirect(w, r, "/pricing", http.StatusSeeOther)
}

func (h *AuthHandlers) LoginPageHandler(w http.ResponseWriter, r *http.Request) {
	data := h.NewPageData(r)
	data.PageTitle = "Sign in"
	data.PageDescription = "Access your compliance dashboard."
	data.RobotsContent = "noindex, follow"
	data.Form = models.LoginForm{}
	if r.URL.Query().Get("err") == "session_invalid" && data.FlashError == "" {
		data.FlashError = "Your session has expired. Please sign in again."
	}
	h.Render(w, r, "login.html", data)
}

func (h *AuthHandlers) LoginHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		slog.Error("Could not parse login form", "error", err)
		http.Error(w, "Server error", http.StatusInternalServerError)
		return
	}
	form := models.LoginForm{
		Email:    r.PostForm.Get("email"),
		Password: r.PostForm.Get("password"),
	}
	validationErrors := validation.ValidateStruct(form)
	if len(validationErrors) > 0 {
		data := h.NewPageData(r)
		data.PageTitle = "Sign in - Error"
		data.RobotsContent = "noindex, follow"
		data.Form = form
		data.Errors = validationErrors
		w.WriteHeader(http.StatusBadRequest)
		h.Render(w, r, "login.html", data)
		return
	}

	user, err := db.GetUserByEmail(strings.ToLower(form.Email))
	passwordMatch := false
	if err == nil && user != nil {
		passwordMatch = auth.CheckPasswordHash(form.Password, user.PasswordHash)
	}

	if err != nil || user == nil || !passwordMatch {
		data := h.NewPageData(r)
		data.PageTitle = "Sign in - Error"
		data.RobotsContent = "noindex, follow"
		data.Form = form
		data.Errors = url.Values{}
		if err != nil {
			slog.Error("User lookup failed during login", "email", form.Email, "error", err)
			data.Errors.Add("general", "Server error during sign-in.")
			w.WriteHeader(http.StatusInternalServerError)
		} else {
			data.Errors.Add("general", "Invalid email or password.")
			w.WriteHeader(http.StatusUnauthorized)
		}
		h.Render(w, r, "login.html", data)
		return
	}

	if err := h.SessionManager.RenewToken(r.Context()); err != nil {
		slog.Error("Session token renewal failed", "error", err)
		http.Error(w, "Server error", http.StatusInternalServerError)
		return
	}
	h.SessionManager.Put(r.Context(), string(middleware.UserIDContextKey), user.ID)

	slog.Info("User signed in", "user_id", user.ID, "role", user.RoleName)

	redirectURL := h.SessionManager.PopString(r.Context(), "redirectAfterLogin")
	if redirectURL == "" {
		if user.RoleName != nil && *user.RoleName == models.RoleAdmin {
			redirectURL = "/admin/dashboard"
		} else {
			redirectURL = "/dashboard"
		}
	}
	http.Redirect(w, r, redirectURL, http.StatusSeeOther)
}

func (h *AuthHandlers) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	userID := h.SessionManager.GetInt64(r.Context(), string(middleware.UserIDContextKey))

	if err := h.SessionManager.Destroy(r.Context()); err != nil {
		slog.Error("Session destroy failed on logout", "error", err)
		http.Error(w, "Server error", http.StatusInternalServerError)
		return
	}
	slog.Info("User signed out", "user_id", userID)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
