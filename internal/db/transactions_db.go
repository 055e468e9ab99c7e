// internal/db/transactions_db.go
package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ObiwanKenobee/ethical-journey-platform-2-sub005/internal/models"
)

// CreateTransaction records a checkout initiation. Initiation always writes
// status=pending; verification is the only writer of the terminal statuses.
func CreateTransaction(tx *models.PaymentTransaction) error {
	if DB == nil {
		return errors.New("database not initialized")
	}
	if tx.Status == "" {
		tx.Status = models.TransactionStatusPending
	}

	metadataJSON, err := json.Marshal(tx.Metadata)
	if err != nil {
		return fmt.Errorf("marshaling transaction metadata: %w", err)
	}

	query := `INSERT INTO payment_transactions (reference, user_id, amount, currency, status, metadata, created_at, updated_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	createdAt := tx.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}

	var userID sql.NullInt64
	if tx.UserID != nil {
		userID = sql.NullInt64{Int64: *tx.UserID, Valid: true}
	}

	res, err := DB.Exec(query,
		tx.Reference,
		userID,
		tx.Amount,
		tx.Currency,
		tx.Status,
		metadataJSON,
		createdAt,
		now,
	)
	if err != nil {
		slog.Error("Failed to create payment transaction", "reference", tx.Reference, "error", err)
		return fmt.Errorf("creating payment transaction: %w", err)
	}
	tx.ID, _ = res.LastInsertId()
	return nil
}

// GetTransactionByReference returns nil, nil when no row matches.
func GetTransactionByReference(reference string) (*models.PaymentTransaction, error) {
	if DB == nil {
		return nil, errors.New("database not initialized")
	}
	query := `SELECT id, reference, user_id, amount, currency, status, metadata, created_at, verified_at
	          FROM payment_transactions WHERE reference = ?`
	row := DB.QueryRow(query, reference)

	var t models.PaymentTransaction
	var userID sql.NullInt64
	var metadataJSON []byte
	var verifiedAt sql.NullTime

	err := row.Scan(&t.ID, &t.Reference, &userID, &t.Amount, &t.Currency, &t.Status, &metadataJSON, &t.CreatedAt, &verifiedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		slog.Error("Failed to get transaction by reference", "reference", reference, "error", err)
		return nil, fmt.Errorf("getting transaction: %w", err)
	}

	if userID.Valid {
		t.UserID = &userID.Int64
	}
	if verifiedAt.Valid {
		t.VerifiedAt = &verifiedAt.Time
	}
	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &t.Metadata); err != nil {
			slog.Warn("Could not decode transaction metadata", "reference", reference, "error", err)
		}
	}
	return &t, nil
}

// RecordVerification is a keyed, last-write-wins update of the transaction
// row. It returns the number of matched rows; zero means the reference is
// unknown and the caller decides how to signal that.
func RecordVerification(ctx context.Context, reference string, status models.TransactionStatus, verifiedAt time.Time) (int64, error) {
	if DB == nil {
		return 0, errors.New("database not initialized")
	}
	query := `UPDATE payment_transactions SET status = ?, verified_at = ?, updated_at = ? WHERE reference = ?`
	res, err := DB.ExecContext(ctx, query, status, verifiedAt, time.Now(), reference)
	if err != nil {
		slog.Error("Failed to record verification", "reference", reference, "status", status, "error", err)
		return 0, fmt.Errorf("recording verification: %w", err)
	}
	matched, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reading matched rows: %w", err)
	}
	return matched, nil
}

// TransactionStore adapts the package-level helpers to the billing.Store
// interface so the verifier stays decoupled from this package.
type TransactionStore struct{}

func (TransactionStore) RecordVerification(ctx context.Context, reference string, status models.TransactionStatus, verifiedAt time.Time) (int64, error) {
	return RecordVerification(ctx, reference, status, verifiedAt)
}

func (TransactionStore) UpsertSubscription(ctx context.Context, sub *models.Subscription) error {
	return UpsertSubscriptionByUser(ctx, sub)
}
