// internal/handlers/pages.go
package handlers

import (
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/ObiwanKenobee/ethical-journey-platform-2-sub005/internal/config"
	"github.com/ObiwanKenobee/ethical-journey-platform-2-sub005/internal/db"
	"github.com/ObiwanKenobee/ethical-journey-platform-2-sub005/internal/middleware"
	"github.com/ObiwanKenobee/ethical-journey-platform-2-sub005/internal/models"
	"github.com/ObiwanKenobee/ethical-journey-platform-2-sub005/internal/plans"
	"github.com/ObiwanKenobee/ethical-journey-platform-2-sub005/internal/routestore"

	"github.com/alexedwards/scs/v2"
	"github.com/justinas/nosurf"
)

type PageData struct {
	SiteName        string
	SiteDescription string
	CurrentYear     int
	BaseURL         string
	CurrentPath     string
	CSRFToken       string
	IsAuthenticated bool
	LoggedInUserID  int64
	User            *models.User
	UserName        string
	PageTitle       string
	PageDescription string
	CanonicalURL    string
	RobotsContent   string
	FlashSuccess    string
	FlashError      string
	Errors          url.Values
	Form            interface{}
	FormValues      url.Values
	Plans           []plans.Plan
	Subscription    *models.Subscription
	Confirmation    *ConfirmationView
	LastRoute       string
	Stats           *db.AdminStats
	Users           []*models.User
	EditingUser     *models.User
	FormAction      string
	AllRoles        []models.Role
	TotalUsers      int
	CurrentPage     int
	TotalPages      int
	Limit           int
	SessionManager  *scs.SessionManager
	Request         *http.Request
	AppConfig       *config.Config
}

type AppHandlers struct {
	Config              *config.Config
	BaseTmpl            *template.Template
	AdminBaseTmpl       *template.Template
	PagesPath           string
	AdminPagesPath      string
	SessionManager      *scs.SessionManager
	Plans               *plans.Catalog
	Routes              routestore.Store
	RenderPageFunc      func(w http.ResponseWriter, r *http.Request, pageName string, data *PageData)
	RenderAdminPageFunc func(w http.ResponseWriter, r *http.Request, pageName string, data *PageData)
}

func parseBaseTemplates(baseDir string, baseFilename string, appBaseURL string) (*template.Template, error) {
	baseFile := filepath.Join(baseDir, baseFilename)
	if _, err := os.Stat(baseFile); os.IsNotExist(err) {
		return nil, fmt.Errorf("base template '%s' not found in '%s'", baseFilename, baseDir)
	}

	// Resolve templates/parts relative to this file so rendering works
	// regardless of the process working directory.
	_, currentFilePath, _, ok := runtime.Caller(0)
	if !ok {
		return nil, fmt.Errorf("could not resolve current file path for template parts")
	}
	projectRoot := filepath.Join(filepath.Dir(currentFilePath), "..", "..")
	partsDir := filepath.Join(projectRoot, "templates", "parts")

	partFiles, err := filepath.Glob(filepath.Join(partsDir, "*.html"))
	if err != nil {
		return nil, fmt.Errorf("globbing partial templates in '%s': %w", partsDir, err)
	}

	funcMap := template.FuncMap{
		"safeHTML":   func(s string) template.HTML { return template.HTML(s) },
		"add":        func(a, b int) int { return a + b },
		"hasPrefix":  strings.HasPrefix,
		"base_url":   func() string { return strings.TrimSuffix(appBaseURL, "/") },
		"trimSuffix": strings.TrimSuffix,
		"minorToMajor": func(amount int64) string {
			return fmt.Sprintf("%.2f", float64(amount)/100.0)
		},
		"deref": func(p *int64) int64 {
			if p == nil {
				return 0
			}
			return *p
		},
		"seq": func(start, end int) []int {
			var s []int
			for i := start; i <= end; i++ {
				s = append(s, i)
			}
			return s
		},
	}

	tmpl, err := template.New(filepath.Base(baseFile)).Funcs(funcMap).ParseFiles(baseFile)
	if err != nil {
		return nil, fmt.Errorf("parsing base template '%s': %w", baseFile, err)
	}
	if len(partFiles) > 0 {
		tmpl, err = tmpl.ParseFiles(partFiles...)
		if err != nil {
			return nil, fmt.Errorf("parsing partial templates from '%s': %w", partsDir, err)
		}
	}
	return tmpl, nil
}

func NewAppHandlers(cfg *config.Config, sm *scs.SessionManager, catalog *plans.Catalog, routes routestore.Store) (*AppHandlers, error) {
	baseTmpl, err := parseBaseTemplates("templates", "base.html", cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse base templates: %w", err)
	}
	adminBaseTmpl, err := parseBaseTemplates("templates/admin", "base_admin.html", cfg.BaseURL)
	if err != nil {
		slog.Warn("Could not load admin base template; admin pages will not render", "error", err)
	}
	if cfg.CurrentYear == 0 {
		cfg.CurrentYear = time.Now().Year()
	}

	appH := &AppHandlers{
		Config:         cfg,
		BaseTmpl:       baseTmpl,
		AdminBaseTmpl:  adminBaseTmpl,
		PagesPath:      filepath.Join("templates", "pages"),
		AdminPagesPath: filepath.Join("templates", "admin", "pages"),
		SessionManager: sm,
		Plans:          catalog,
		Routes:         routes,
	}
	appH.RenderPageFunc = appH.renderPageInternal
	appH.RenderAdminPageFunc = appH.renderAdminPageInternal
	return appH, nil
}

func (h *AppHandlers) renderPageInternal(w http.ResponseWriter, r *http.Request, pageName string, data *PageData) {
	h.render(w, r, h.BaseTmpl, h.PagesPath, "base.html", pageName, data)
}

func (h *AppHandlers) renderAdminPageInternal(w http.ResponseWriter, r *http.Request, pageName string, data *PageData) {
	if data == nil {
		data = h.NewPageData(r)
	}
	h.render(w, r, h.AdminBaseTmpl, h.AdminPagesPath, "base_admin.html", pageName, data)
}

func (h *AppHandlers) RenderPage(w http.ResponseWriter, r *http.Request, pageName string, data *PageData) {
	h.RenderPageFunc(w, r, pageName, data)
}

func (h *AppHandlers) RenderAdminPage(w http.ResponseWriter, r *http.Request, pageName string, data *PageData) {
	h.RenderAdminPageFunc(w, r, pageName, data)
}

func (h *AppHandlers) NewPageData(r *http.Request) *PageData {
	isAuthenticatedVal, _ := r.Context().Value(middleware.IsAuthenticatedContextKey).(bool)
	currentUser, _ := r.Context().Value(middleware.UserContextKey).(*models.User)

	canonicalURL := strings.TrimSuffix(h.Config.BaseURL, "/") + r.URL.Path
	var userName string
	var loggedInUserIDVal int64

	if isAuthenticatedVal && currentUser != nil {
		userName = currentUser.FirstName
		if userName == "" {
			userName = currentUser.Email
		}
		loggedInUserIDVal = currentUser.ID
	} else {
		userName = "Guest"
	}

	flashSuccess := h.SessionManager.PopString(r.Context(), "flash_success")
	flashError := h.SessionManager.PopString(r.Context(), "flash_error")

	return &PageData{
		SiteName:        h.Config.SiteName,
		SiteDescription: h.Config.SiteDescription,
		CurrentYear:     h.Config.CurrentYear,
		BaseURL:         strings.TrimSuffix(h.Config.BaseURL, "/"),
		CurrentPath:     r.URL.Path,
		CSRFToken:       nosurf.Token(r),
		IsAuthenticated: isAuthenticatedVal,
		LoggedInUserID:  loggedInUserIDVal,
		User:            currentUser,
		UserName:        userName,
		CanonicalURL:    canonicalURL,
		RobotsContent:   "index, follow",
		FlashSuccess:    flashSuccess,
		FlashError:      flashError,
		Errors:          url.Values{},
		SessionManager:  h.SessionManager,
		Request:         r,
		AppConfig:       h.Config,
	}
}

func (h *AppHandlers) render(w http.ResponseWriter, r *http.Request, baseTmpl *template.Template, pagesDir, baseFile, pageName string, data *PageData) {
	if data == nil {
		data = h.NewPageData(r)
	} else {
		if data.SessionManager == nil {
			data.SessionManager = h.SessionManager
		}
		if data.Request == nil {
			data.Request = r
		}
		if data.AppConfig == nil {
			data.AppConfig = h.Config
		}
	}

	if baseTmpl == nil {
		slog.Error("Base template not initialized", "base_file_expected", baseFile)
		http.Error(w, "Internal server error (template)", http.StatusInternalServerError)
		return
	}

	if data.PageTitle == "" {
		data.PageTitle = h.Config.SiteName
	}
	if data.PageDescription == "" && baseFile == "base.html" {
		data.PageDescription = h.Config.SiteDescription
	}

	pagePath := filepath.Join(pagesDir, pageName)
	if _, err := os.Stat(pagePath); os.IsNotExist(err) {
		slog.Error("Page template not found", "page", pageName, "path", pagePath)
		http.Error(w, "Internal server error (page template)", http.StatusInternalServerError)
		return
	}

	tmplToExecute, err := baseTmpl.Clone()
	if err != nil {
		slog.Error("Could not clone base template", "base_file", baseFile, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	tmplToExecute, err = tmplToExecute.ParseFiles(pagePath)
	if err != nil {
		slog.Error("Could not parse page template", "page", pageName, "path", pagePath, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	if err := tmplToExecute.ExecuteTemplate(w, baseFile, data); err != nil {
		slog.Error("Template execution failed", "template", baseFile, "page", pageName, "error", err)
	}
}

// HomePageHandler renders the marketing landing page: hero, feature grid,
// testimonials and the FAQ accordion all live in the template.
func (h *AppHandlers) HomePageHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	data := h.NewPageData(r)
	data.PageTitle = "Supply-chain compliance, without the spreadsheets"
	data.PageDescription = "Map your suppliers, monitor ESG risk and prove compliance from one dashboard."
	h.RenderPage(w, r, "home.html", data)
}

func (h *AppHandlers) PricingPageHandler(w http.ResponseWriter, r *http.Request) {
	data := h.NewPageData(r)
	data.PageTitle = "Pricing"
	data.PageDescription = "Plans for teams of every size, billed monthly."
	data.Plans = h.Plans.Plans()
	h.RenderPage(w, r, "pricing.html", data)
}

func (h *AppHandlers) AboutPageHandler(w http.ResponseWriter, r *http.Request) {
	data := h.NewPageData(r)
	data.PageTitle = "About us"
	data.PageDescription = "Why we build supply-chain transparency tooling."
	h.RenderPage(w, r, "about.html", data)
}

// DashboardPageHandler is the role-based shell. The last visited section is
// remembered in the route store and restored on the next visit.
func (h *AppHandlers) DashboardPageHandler(w http.ResponseWriter, r *http.Request) {
	data := h.NewPageData(r)
	data.PageTitle = "Your dashboard"
	data.PageDescription = "Supplier risk, audits and reports at a glance."
	data.RobotsContent = "noindex, nofollow"

	if data.User != nil {
		ctx := r.Context()
		if err := h.Routes.Heartbeat(ctx, data.User.ID); err != nil {
			slog.Debug("Heartbeat write failed", "userID", data.User.ID, "error", err)
		}

		if section := r.URL.Query().Get("section"); section != "" {
			if err := h.Routes.SaveLastRoute(ctx, data.User.ID, section); err != nil {
				slog.Warn("Could not remember dashboard section", "userID", data.User.ID, "error", err)
			}
			data.LastRoute = section
		} else {
			last, err := h.Routes.LastRoute(ctx, data.User.ID)
			if err != nil && !errors.Is(err, routestore.ErrNotFound) {
				slog.Warn("Could not restore dashboard section", "userID", data.User.ID, "error", err)
			}
			data.LastRoute = last
		}

		sub, err := db.GetSubscriptionByUserID(data.User.ID)
		if err != nil {
			slog.Error("Could not load subscription for dashboard", "userID", data.User.ID, "error", err)
		}
		data.Subscription = sub
	}

	h.RenderPage(w, r, "dashboard.html", data)
}

// WorkspacePageHandler is the subscription-gated compliance workspace.
func (h *AppHandlers) WorkspacePageHandler(w http.ResponseWriter, r *http.Request) {
	data := h.NewPageData(r)
	data.PageTitle = "Compliance workspace"
	data.RobotsContent = "noindex, nofollow"
	h.RenderPage(w, r, "workspace.html", data)
}

// PresenceHandler refreshes the connectivity heartbeat and reports whether
// the user currently counts as online. Polled by the dashboard shell.
func (h *AppHandlers) PresenceHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserIDContextKey).(int64)
	if !ok || userID == 0 {
		http.Error(w, "Not authenticated", http.StatusUnauthorized)
		return
	}

	ctx := r.Context()
	if err := h.Routes.Heartbeat(ctx, userID); err != nil {
		slog.Warn("Heartbeat write failed", "userID", userID, "error", err)
	}
	online, err := h.Routes.Online(ctx, userID)
	if err != nil {
		slog.Warn("Presence read failed", "userID", userID, "error", err)
	}

	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"online": %t}`+"\n", online)
}

func (h *AppHandlers) ProfilePageHandler(w http.ResponseWriter, r *http.Request) {
	data := h.NewPageData(r)
	data.PageTitle = "Your profile"
	data.RobotsContent = "noindex, nofollow"
	if data.User != nil {
		sub, err := db.GetSubscriptionByUserID(data.User.ID)
		if err != nil {
			slog.Error("Could not load subscription for profile", "userID", data.User.ID, "error", err)
		}
		data.Subscription = sub
	}
	h.RenderPage(w, r, "profile.html", data)
}
