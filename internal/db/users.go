// internal/db/users.go
package db

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ObiwanKenobee/ethical-journey-platform-2-sub005/internal/models"

	"github.com/go-sql-driver/mysql"
)

func getFullUserQuery() string {
	return `SELECT u.id, u.email, u.password_hash, u.first_name, u.last_name, u.company,
	               u.created_at, u.updated_at, u.role_id, r.name,
	               s.status, s.end_date
	        FROM users u
	        LEFT JOIN roles r ON u.role_id = r.id
	        LEFT JOIN subscriptions s ON s.user_id = u.id`
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFullUser(row rowScanner) (*models.User, error) {
	var u models.User
	var roleID sql.NullInt64
	var roleName sql.NullString
	var subStatus sql.NullString
	var subEnd sql.NullTime

	err := row.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &u.Company,
		&u.CreatedAt, &u.UpdatedAt, &roleID, &roleName,
		&subStatus, &subEnd,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scanning user row: %w", err)
	}

	if roleID.Valid {
		u.RoleID = &roleID.Int64
	}
	if roleName.Valid {
		u.RoleName = &roleName.String
	}
	u.SubscriptionStatus = models.SubscriptionStatusInactive
	if subStatus.Valid && subStatus.String != "" {
		u.SubscriptionStatus = models.SubscriptionStatus(subStatus.String)
	}
	if subEnd.Valid {
		u.SubscriptionEnd = &subEnd.Time
	}
	return &u, nil
}

func CreateUser(user *models.User, defaultRoleName string) (int64, error) {
	if DB == nil {
		return 0, errors.New("database not initialized")
	}

	defaultRole, err := GetRoleByName(defaultRoleName)
	if err != nil {
		return 0, fmt.Errorf("default role '%s' lookup failed: %w", defaultRoleName, err)
	}
	if defaultRole == nil {
		return 0, fmt.Errorf("default role '%s' not found", defaultRoleName)
	}

	query := `INSERT INTO users (email, password_hash, first_name, last_name, company, role_id, created_at, updated_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()

	res, err := DB.Exec(query,
		strings.ToLower(user.Email),
		user.PasswordHash,
		user.FirstName,
		user.LastName,
		user.Company,
		defaultRole.ID,
		now,
		now,
	)
	if err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
			return 0, errors.New("a user with this email already exists")
		}
		slog.Error("Failed to create user", "email", user.Email, "error", err)
		return 0, fmt.Errorf("creating user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading new user id: %w", err)
	}
	slog.Info("User created", "user_id", id, "email", user.Email, "role_id", defaultRole.ID)
	return id, nil
}

func GetUserByEmail(email string) (*models.User, error) {
	if DB == nil {
		return nil, errors.New("database not initialized")
	}
	row := DB.QueryRow(getFullUserQuery()+" WHERE LOWER(u.email) = LOWER(?)", strings.ToLower(email))
	return scanFullUser(row)
}

func GetUserByID(id int64) (*models.User, error) {
	if DB == nil {
		return nil, errors.New("database not initialized")
	}
	row := DB.QueryRow(getFullUserQuery()+" WHERE u.id = ?", id)
	return scanFullUser(row)
}

func SetUserRole(userID int64, roleID int64) error {
	if DB == nil {
		return errors.New("database not initialized")
	}
	if _, err := GetRoleByID(roleID); err != nil {
		return fmt.Errorf("checking role %d exists: %w", roleID, err)
	}

	query := `UPDATE users SET role_id = ?, updated_at = ? WHERE id = ?`
	if _, err := DB.Exec(query, roleID, time.Now(), userID); err != nil {
		slog.Error("Failed to update user role", "userID", userID, "roleID", roleID, "error", err)
		return fmt.Errorf("updating user role: %w", err)
	}
	slog.Info("User role updated", "userID", userID, "new_role_id", roleID)
	return nil
}

func GetAllUsers(limit, offset int) ([]*models.User, int, error) {
	if DB == nil {
		return nil, 0, errors.New("database not initialized")
	}

	var totalUsers int
	if err := DB.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&totalUsers); err != nil {
		return nil, 0, fmt.Errorf("counting users: %w", err)
	}

	rows, err := DB.Query(getFullUserQuery()+" ORDER BY u.created_at DESC LIMIT ? OFFSET ?", limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, errScan := scanFullUser(rows)
		if errScan != nil {
			slog.Error("Failed to scan user row in list", "error", errScan)
			continue
		}
		users = append(users, user)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterating users: %w", err)
	}
	return users, totalUsers, nil
}
