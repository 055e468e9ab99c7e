// cmd/server/main.go
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/ObiwanKenobee/ethical-journey-platform-2-sub005/internal/billing"
	"github.com/ObiwanKenobee/ethical-journey-platform-2-sub005/internal/config"
	"github.com/ObiwanKenobee/ethical-journey-platform-2-sub005/internal/db"
	"github.com/ObiwanKenobee/ethical-journey-platform-2-sub005/internal/handlers"
	adminhandlers "github.com/ObiwanKenobee/ethical-journey-platform-2-sub005/internal/handlers/admin"
	"github.com/ObiwanKenobee/ethical-journey-platform-2-sub005/internal/middleware"
	"github.com/ObiwanKenobee/ethical-journey-platform-2-sub005/internal/models"
	"github.com/ObiwanKenobee/ethical-journey-platform-2-sub005/internal/payment_gateway/paystack"
	"github.com/ObiwanKenobee/ethical-journey-platform-2-sub005/internal/plans"
	"github.com/ObiwanKenobee/ethical-journey-platform-2-sub005/internal/routestore"

	"github.com/alexedwards/scs/mysqlstore"
	"github.com/alexedwards/scs/v2"
	"github.com/redis/go-redis/v9"

	_ "github.com/go-sql-driver/mysql"
)

var sessionManager *scs.SessionManager

func main() {
	configPath := "configs/config.yaml"
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Critical: could not load configuration: %v\n", err)
		os.Exit(1)
	}

	config.InitLogger(cfg.AppEnv)
	slog.Info("Starting server...", "app_env", cfg.AppEnv)

	planCatalog, err := plans.Load(cfg.Billing.PlanCatalogPath)
	if err != nil {
		slog.Error("Critical: could not load plan catalog", "path", cfg.Billing.PlanCatalogPath, "error", err)
		os.Exit(1)
	}
	slog.Info("Plan catalog loaded", "plans", len(planCatalog.Plans()))

	err = db.InitDB(cfg)
	if err != nil {
		slog.Error("Critical: could not initialize the database", "error", err)
		os.Exit(1)
	}
	if db.DB != nil {
		defer db.DB.Close()
	} else {
		slog.Error("Critical: database handle is nil after InitDB")
		os.Exit(1)
	}
	slog.Info("Database initialized and migrations applied")

	firstAdminEmail := os.Getenv("FIRST_ADMIN_EMAIL")
	if firstAdminEmail != "" {
		promoteFirstAdmin(firstAdminEmail)
	} else {
		slog.Info("FIRST_ADMIN_EMAIL not set, no admin is promoted automatically")
	}

	// The route store runs on Redis when an address is configured and falls
	// back to in-process memory otherwise (single-instance development).
	var routes routestore.Store
	if cfg.Redis.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		routes = routestore.NewRedisStore(redisClient)
		slog.Info("Route store initialized", "backend", "redis", "addr", cfg.Redis.Addr)
	} else {
		routes = routestore.NewMemoryStore()
		slog.Warn("REDIS_ADDR not set; route store runs in process memory")
	}

	sessionManager = scs.New()
	sessionManager.Store = mysqlstore.New(db.DB)
	sessionManager.Lifetime = 24 * time.Hour
	sessionManager.Cookie.Name = "ej_session"
	sessionManager.Cookie.HttpOnly = true
	sessionManager.Cookie.Persist = true
	sessionManager.Cookie.SameSite = http.SameSiteLaxMode
	sessionManager.Cookie.Secure = cfg.AppEnv == "production"
	sessionManager.Cookie.Path = "/"

	slog.Info("Session manager initialized", "store", "mysqlstore", "lifetime", sessionManager.Lifetime, "secure_cookie", sessionManager.Cookie.Secure)

	gateway := paystack.NewClient(cfg.Paystack.BaseURL, cfg.Paystack.SecretKey)
	verifier := billing.NewVerifier(gateway, db.TransactionStore{}, cfg.Billing.Currency)

	appHandlers, err := handlers.NewAppHandlers(cfg, sessionManager, planCatalog, routes)
	if err != nil {
		slog.Error("Critical: could not initialize page handlers", "error", err)
		os.Exit(1)
	}
	authHandlers := handlers.NewAuthHandlers(sessionManager, appHandlers.RenderPage, appHandlers.NewPageData, cfg)
	billingHandlers := handlers.NewBillingHandlers(sessionManager, cfg, appHandlers, gateway, verifier, planCatalog)

	mainMux := http.NewServeMux()
	fs := http.FileServer(http.Dir("./static"))
	mainMux.Handle("/static/", http.StripPrefix("/static/", fs))

	// Middleware
	injectUserMiddleware := middleware.InjectUserData(sessionManager)
	requireAuthMiddleware := middleware.RequireAuthentication(sessionManager)
	requireSubscriptionMiddleware := middleware.RequireActiveSubscription(sessionManager)
	requireAdminRoleMiddleware := middleware.RequireRole(models.RoleAdmin)

	// Public Routes
	mainMux.Handle("/", injectUserMiddleware(http.HandlerFunc(appHandlers.HomePageHandler)))
	mainMux.Handle("/pricing", injectUserMiddleware(http.HandlerFunc(appHandlers.PricingPageHandler)))
	mainMux.Handle("/about", injectUserMiddleware(http.HandlerFunc(appHandlers.AboutPageHandler)))
	mainMux.Handle("/faq", injectUserMiddleware(http.HandlerFunc(appHandlers.FAQPageHandler)))
	mainMux.Handle("/terms", injectUserMiddleware(http.HandlerFunc(appHandlers.TermsPageHandler)))
	mainMux.Handle("/privacy", injectUserMiddleware(http.HandlerFunc(appHandlers.PrivacyPageHandler)))

	// Auth Routes
	mainMux.Handle("/register", injectUserMiddleware(http.HandlerFunc(authHandlers.RegisterPageHandler)))
	mainMux.HandleFunc("/api/register", authHandlers.RegisterHandler)
	mainMux.Handle("/login", injectUserMiddleware(http.HandlerFunc(authHandlers.LoginPageHandler)))
	mainMux.Handle("/api/login", middleware.RateLimitMiddleware(http.HandlerFunc(authHandlers.LoginHandler), 1, 5))
	mainMux.HandleFunc("/api/logout", authHandlers.LogoutHandler)

	// Billing Routes
	mainMux.Handle("/billing/checkout", requireAuthMiddleware(http.HandlerFunc(billingHandlers.CheckoutHandler)))
	mainMux.Handle("/billing/confirm", injectUserMiddleware(http.HandlerFunc(billingHandlers.ConfirmPageHandler)))

	// Authenticated User Routes
	mainMux.Handle("/dashboard", requireAuthMiddleware(injectUserMiddleware(http.HandlerFunc(appHandlers.DashboardPageHandler))))
	mainMux.Handle("/workspace", requireAuthMiddleware(requireSubscriptionMiddleware(injectUserMiddleware(http.HandlerFunc(appHandlers.WorkspacePageHandler)))))
	mainMux.Handle("/profile", requireAuthMiddleware(injectUserMiddleware(http.HandlerFunc(appHandlers.ProfilePageHandler))))
	mainMux.Handle("/api/presence", requireAuthMiddleware(http.HandlerFunc(appHandlers.PresenceHandler)))

	// CSRF protection wraps everything form-bearing.
	csrfProtectedRoutes := middleware.NoSurfMiddleware(mainMux, cfg.AppEnv == "production")

	// --- Admin Routes ---
	adminRouter := http.NewServeMux()
	adminRouter.HandleFunc("/dashboard", adminhandlers.AdminDashboardPageHandler(appHandlers))
	adminRouter.HandleFunc("/users", adminhandlers.AdminUsersListPageHandler(appHandlers))
	adminRouter.HandleFunc("/users/edit", adminhandlers.AdminEditUserPageHandler(appHandlers))
	adminRouter.HandleFunc("/users/update", adminhandlers.AdminUpdateUserRoleHandler(appHandlers))

	adminProtectedHandler := injectUserMiddleware(
		requireAuthMiddleware(
			requireAdminRoleMiddleware(
				middleware.NoSurfMiddleware(adminRouter, cfg.AppEnv == "production"),
			),
		),
	)
	// --- End Admin Routes ---

	// The verify endpoint is called cross-origin by checkout return pages; it
	// sits outside the CSRF wrap and carries its own CORS and rate limiting.
	verifyHandler := middleware.PermissiveCORS(
		middleware.RateLimitMiddleware(http.HandlerFunc(billingHandlers.VerifyPaymentHandler), 2, 10),
	)

	topLevelMux := http.NewServeMux()
	topLevelMux.Handle("/api/billing/verify", verifyHandler)
	topLevelMux.Handle("/admin/", http.StripPrefix("/admin", adminProtectedHandler))
	topLevelMux.Handle("/", csrfProtectedRoutes)

	finalHandler := sessionManager.LoadAndSave(topLevelMux)

	addr := fmt.Sprintf(":%d", cfg.Port)
	slog.Info("Server listening", "address", fmt.Sprintf("http://localhost%s", addr))

	server := &http.Server{
		Addr:         addr,
		Handler:      finalHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  240 * time.Second,
	}

	err = server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Critical: HTTP server failed", "address", addr, "error", err)
		os.Exit(1)
	}
}

func promoteFirstAdmin(email string) {
	adminUser, err := db.GetUserByEmail(email)
	if err != nil || adminUser == nil {
		slog.Warn("User named in FIRST_ADMIN_EMAIL not found", "email", email, "error", err)
		return
	}
	if adminUser.RoleName != nil && *adminUser.RoleName == models.RoleAdmin {
		slog.Info("User is already an admin", "email", email)
		return
	}
	adminRole, err := db.GetRoleByName(models.RoleAdmin)
	if err != nil || adminRole == nil {
		slog.Error("Could not find the admin role", "error", err)
		return
	}
	if err := db.SetUserRole(adminUser.ID, adminRole.ID); err != nil {
		slog.Error("Could not promote first admin", "email", email, "error", err)
		return
	}
	slog.Info("Admin role granted", "email", email)
}
