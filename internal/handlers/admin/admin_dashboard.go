// internal/handlers/admin/admin_dashboard.go
package adminhandlers

import (
	"log/slog"
	"net/http"

	"github.com/ObiwanKenobee/ethical-journey-platform-2-sub005/internal/db"
	"github.com/ObiwanKenobee/ethical-journey-platform-2-sub005/internal/handlers"
)

// AdminDashboardPageHandler renders signup, subscription and payment stats.
func AdminDashboardPageHandler(app *handlers.AppHandlers) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := app.NewPageData(r)
		data.PageTitle = "Admin dashboard"

		stats, err := db.GetDashboardStats()
		if err != nil {
			slog.Error("Could not load dashboard stats", "error", err)
			http.Error(w, "Server error while loading stats", http.StatusInternalServerError)
			return
		}
		data.Stats = stats

		app.RenderAdminPage(w, r, "dashboard.html", data)
	}
}
