// internal/handlers/admin/admin_users.go
package adminhandlers

import (
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"

	"github.com/ObiwanKenobee/ethical-journey-platform-2-sub005/internal/db"
	"github.com/ObiwanKenobee/ethical-journey-platform-2-sub005/internal/handlers"
	"github.com/ObiwanKenobee/ethical-journey-platform-2-sub005/internal/middleware"
	"github.com/ObiwanKenobee/ethical-journey-platform-2-sub005/internal/models"
)

const DefaultUsersPerPage = 10

// AdminUsersListPageHandler renders the paginated user list.
func AdminUsersListPageHandler(app *handlers.AppHandlers) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := app.NewPageData(r)
		data.PageTitle = "Manage users"

		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		if page < 1 {
			page = 1
		}
		limit := DefaultUsersPerPage
		offset := (page - 1) * limit

		users, totalUsers, err := db.GetAllUsers(limit, offset)
		if err != nil {
			slog.Error("Could not load users for admin list", "error", err)
			http.Error(w, "Server error while loading users", http.StatusInternalServerError)
			return
		}

		data.Users = users
		data.TotalUsers = totalUsers
		data.CurrentPage = page
		data.Limit = limit
		data.TotalPages = int(math.Ceil(float64(totalUsers) / float64(limit)))

		app.RenderAdminPage(w, r, "users_list.html", data)
	}
}

// AdminEditUserPageHandler renders the edit form for one user.
func AdminEditUserPageHandler(app *handlers.AppHandlers) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := app.NewPageData(r)
		userIDStr := r.URL.Query().Get("id")
		userID, err := strconv.ParseInt(userIDStr, 10, 64)
		if err != nil || userID == 0 {
			slog.Error("Bad user id on admin edit page", "id_str", userIDStr, "error", err)
			http.Error(w, "Invalid user ID", http.StatusBadRequest)
			return
		}

		user, err := db.GetUserByID(userID)
		if err != nil || user == nil {
			slog.Error("User not found for admin edit", "userID", userID, "error", err)
			http.NotFound(w, r)
			return
		}
		data.EditingUser = user
		data.PageTitle = fmt.Sprintf("Edit user: %s", user.Email)
		data.FormAction = fmt.Sprintf("/admin/users/update?id=%d", userID)

		allRoles, err := db.GetAllRoles()
		if err != nil {
			slog.Error("Could not load roles for admin edit page", "error", err)
		}
		data.AllRoles = allRoles

		app.RenderAdminPage(w, r, "user_edit.html", data)
	}
}

// AdminUpdateUserRoleHandler changes a user's role.
func AdminUpdateUserRoleHandler(app *handlers.AppHandlers) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		if err := r.ParseForm(); err != nil {
			slog.Error("Could not parse admin user update form", "error", err)
			app.SessionManager.Put(r.Context(), "flash_error", "Server error: could not process the form.")
			http.Redirect(w, r, "/admin/users", http.StatusSeeOther)
			return
		}

		userIDStr := r.FormValue("userID")
		userID, err := strconv.ParseInt(userIDStr, 10, 64)
		if err != nil || userID == 0 {
			slog.Error("Bad userID in admin update form", "userID_str", userIDStr, "error", err)
			app.SessionManager.Put(r.Context(), "flash_error", "Invalid user ID.")
			http.Redirect(w, r, "/admin/users", http.StatusSeeOther)
			return
		}

		editingUser, err := db.GetUserByID(userID)
		if err != nil || editingUser == nil {
			slog.Error("Target user not found for admin update", "targetUserID", userID, "error", err)
			app.SessionManager.Put(r.Context(), "flash_error", "The user you tried to edit was not found.")
			http.Redirect(w, r, "/admin/users", http.StatusSeeOther)
			return
		}

		roleIDStr := r.FormValue("role_id")
		newRoleID, err := strconv.ParseInt(roleIDStr, 10, 64)
		validationErrors := url.Values{}
		if err != nil {
			validationErrors.Add("role_id", "Invalid role ID.")
		} else if _, errGetRole := db.GetRoleByID(newRoleID); errGetRole != nil {
			validationErrors.Add("role_id", "The selected role does not exist.")
		}

		if len(validationErrors) > 0 {
			slog.Warn("Admin user update validation failed", "userID", userID, "errors", validationErrors)
			pageData := app.NewPageData(r)
			pageData.PageTitle = fmt.Sprintf("Edit user (error): %s", editingUser.Email)
			pageData.EditingUser = editingUser
			pageData.Errors = validationErrors
			pageData.FormValues = r.PostForm
			allRoles, _ := db.GetAllRoles()
			pageData.AllRoles = allRoles
			pageData.FormAction = fmt.Sprintf("/admin/users/update?id=%d", userID)
			app.RenderAdminPage(w, r, "user_edit.html", pageData)
			return
		}

		if err := db.SetUserRole(userID, newRoleID); err != nil {
			slog.Error("Could not update user role", "userID", userID, "roleID", newRoleID, "error", err)
			app.SessionManager.Put(r.Context(), "flash_error", "Could not update the user's role.")
			http.Redirect(w, r, fmt.Sprintf("/admin/users/edit?id=%d", userID), http.StatusSeeOther)
			return
		}

		var adminID int64
		if adminUser, ok := r.Context().Value(middleware.UserContextKey).(*models.User); ok && adminUser != nil {
			adminID = adminUser.ID
		}
		slog.Info("User role updated by admin", "adminUserID", adminID, "targetUserID", userID, "roleID", newRoleID)
		app.SessionManager.Put(r.Context(), "flash_success", "User updated.")
		http.Redirect(w, r, fmt.Sprintf("/admin/users/edit?id=%d", userID), http.StatusSeeOther)
	}
}
