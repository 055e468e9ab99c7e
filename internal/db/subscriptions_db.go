// internal/db/subscriptions_db.go
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ObiwanKenobee/ethical-journey-platform-2-sub005/internal/models"
)

// UpsertSubscriptionByUser creates or refreshes the single subscription row
// per user (unique key on user_id). Re-verifying the same payment lands on
// the same row, which is what makes verification idempotent.
func UpsertSubscriptionByUser(ctx context.Context, sub *models.Subscription) error {
	if DB == nil {
		return errors.New("database not initialized")
	}
	query := `
	INSERT INTO subscriptions (id, user_id, plan_code, plan_name, status,
	                           start_date, end_date, payment_reference, amount, currency,
	                           created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON DUPLICATE KEY UPDATE
		plan_code = VALUES(plan_code),
		plan_name = VALUES(plan_name),
		status = VALUES(status),
		start_date = VALUES(start_date),
		end_date = VALUES(end_date),
		payment_reference = VALUES(payment_reference),
		amount = VALUES(amount),
		currency = VALUES(currency),
		updated_at = VALUES(updated_at);
	`
	now := time.Now()
	createdAt := sub.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}

	_, err := DB.ExecContext(ctx, query,
		sub.ID,
		sub.UserID,
		sub.PlanCode,
		sub.PlanName,
		sub.Status,
		sub.StartDate,
		sub.EndDate,
		sub.PaymentReference,
		sub.Amount,
		sub.Currency,
		createdAt,
		now,
	)
	if err != nil {
		slog.Error("Failed to upsert subscription", "userID", sub.UserID, "reference", sub.PaymentReference, "error", err)
		return fmt.Errorf("upserting subscription: %w", err)
	}
	return nil
}

// GetSubscriptionByUserID returns nil, nil when the user has no subscription.
func GetSubscriptionByUserID(userID int64) (*models.Subscription, error) {
	if DB == nil {
		return nil, errors.New("database not initialized")
	}
	query := `SELECT id, user_id, plan_code, plan_name, status, start_date, end_date,
	                 payment_reference, amount, currency, created_at, updated_at
	          FROM subscriptions WHERE user_id = ?`
	row := DB.QueryRow(query, userID)

	var sub models.Subscription
	var startDate, endDate, createdAt, updatedAt sql.NullTime

	err := row.Scan(
		&sub.ID, &sub.UserID, &sub.PlanCode, &sub.PlanName, &sub.Status,
		&startDate, &endDate, &sub.PaymentReference, &sub.Amount, &sub.Currency,
		&createdAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		slog.Error("Failed to get subscription by user", "userID", userID, "error", err)
		return nil, fmt.Errorf("getting subscription: %w", err)
	}
	if startDate.Valid {
		sub.StartDate = startDate.Time
	}
	if endDate.Valid {
		sub.EndDate = endDate.Time
	}
	if createdAt.Valid {
		sub.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		sub.UpdatedAt = updatedAt.Time
	}
	return &sub, nil
}

// GetUserSubscriptionStatus reports the gating status for a user: inactive
// when no row exists, otherwise the stored status plus the end date.
func GetUserSubscriptionStatus(userID int64) (models.SubscriptionStatus, *time.Time, error) {
	if DB == nil {
		return models.SubscriptionStatusInactive, nil, errors.New("database not initialized")
	}
	var statusStr sql.NullString
	var endDate sql.NullTime
	query := `SELECT status, end_date FROM subscriptions WHERE user_id = ?`
	err := DB.QueryRow(query, userID).Scan(&statusStr, &endDate)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.SubscriptionStatusInactive, nil, nil
		}
		slog.Error("Failed to get subscription status", "userID", userID, "error", err)
		return models.SubscriptionStatusInactive, nil, err
	}

	status := models.SubscriptionStatusInactive
	if statusStr.Valid && statusStr.String != "" {
		status = models.SubscriptionStatus(statusStr.String)
	}
	var endPtr *time.Time
	if endDate.Valid {
		endPtr = &endDate.Time
	}
	return status, endPtr, nil
}
