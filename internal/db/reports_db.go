// internal/db/reports_db.go
package db

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// AdminStats holds the aggregates shown on the admin dashboard.
type AdminStats struct {
	TotalUsers          int
	NewUsersLast7Days   int
	NewUsersLast30Days  int
	ActiveSubscriptions int
	SuccessfulPayments  int
	FailedPayments      int
	RevenueMajorUnits   float64
}

// GetDashboardStats collects the admin aggregates. Individual query failures
// are logged and leave the field at zero rather than failing the whole page.
func GetDashboardStats() (*AdminStats, error) {
	if DB == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	stats := &AdminStats{}
	var err error

	err = DB.QueryRow("SELECT COUNT(*) FROM users").Scan(&stats.TotalUsers)
	if err != nil {
		slog.Error("Failed to count users for stats", "error", err)
	}

	sevenDaysAgo := time.Now().AddDate(0, 0, -7).Truncate(24 * time.Hour)
	err = DB.QueryRow("SELECT COUNT(*) FROM users WHERE created_at >= ?", sevenDaysAgo).Scan(&stats.NewUsersLast7Days)
	if err != nil {
		slog.Error("Failed to count new users (7d)", "error", err)
	}

	thirtyDaysAgo := time.Now().AddDate(0, 0, -30).Truncate(24 * time.Hour)
	err = DB.QueryRow("SELECT COUNT(*) FROM users WHERE created_at >= ?", thirtyDaysAgo).Scan(&stats.NewUsersLast30Days)
	if err != nil {
		slog.Error("Failed to count new users (30d)", "error", err)
	}

	err = DB.QueryRow("SELECT COUNT(*) FROM subscriptions WHERE status = 'active' AND (end_date IS NULL OR end_date > NOW())").Scan(&stats.ActiveSubscriptions)
	if err != nil {
		slog.Error("Failed to count active subscriptions", "error", err)
	}

	err = DB.QueryRow("SELECT COUNT(*) FROM payment_transactions WHERE status = 'success'").Scan(&stats.SuccessfulPayments)
	if err != nil {
		slog.Error("Failed to count successful payments", "error", err)
	}

	err = DB.QueryRow("SELECT COUNT(*) FROM payment_transactions WHERE status = 'failed'").Scan(&stats.FailedPayments)
	if err != nil {
		slog.Error("Failed to count failed payments", "error", err)
	}

	var revenue sql.NullFloat64
	err = DB.QueryRow("SELECT SUM(amount) FROM payment_transactions WHERE status = 'success'").Scan(&revenue)
	if err != nil {
		slog.Error("Failed to sum revenue", "error", err)
	}
	if revenue.Valid {
		stats.RevenueMajorUnits = revenue.Float64
	}

	return stats, nil
}
