// internal/db/roles_db.go
package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ObiwanKenobee/ethical-journey-platform-2-sub005/internal/models"
)

func GetRoleByName(name string) (*models.Role, error) {
	if DB == nil {
		return nil, errors.New("database not initialized")
	}
	query := `SELECT id, name, description, created_at, updated_at FROM roles WHERE name = ?`
	row := DB.QueryRow(query, name)

	var role models.Role
	var description sql.NullString
	err := row.Scan(&role.ID, &role.Name, &description, &role.CreatedAt, &role.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting role by name: %w", err)
	}
	role.Description = description.String
	return &role, nil
}

func GetRoleByID(id int64) (*models.Role, error) {
	if DB == nil {
		return nil, errors.New("database not initialized")
	}
	query := `SELECT id, name, description, created_at, updated_at FROM roles WHERE id = ?`
	row := DB.QueryRow(query, id)

	var role models.Role
	var description sql.NullString
	err := row.Scan(&role.ID, &role.Name, &description, &role.CreatedAt, &role.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("role %d not found", id)
		}
		return nil, fmt.Errorf("getting role by id: %w", err)
	}
	role.Description = description.String
	return &role, nil
}

func GetAllRoles() ([]models.Role, error) {
	if DB == nil {
		return nil, errors.New("database not initialized")
	}
	rows, err := DB.Query(`SELECT id, name, description, created_at, updated_at FROM roles ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing roles: %w", err)
	}
	defer rows.Close()

	var roles []models.Role
	for rows.Next() {
		var role models.Role
		var description sql.NullString
		if err := rows.Scan(&role.ID, &role.Name, &description, &role.CreatedAt, &role.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning role: %w", err)
		}
		role.Description = description.String
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

// CreateRoleIfNotExists returns the existing or newly created role id.
func CreateRoleIfNotExists(role *models.Role) (int64, error) {
	if DB == nil {
		return 0, errors.New("database not initialized")
	}
	existing, err := GetRoleByName(role.Name)
	if err != nil {
		return 0, err
	}
	if existing != nil {
		return existing.ID, nil
	}

	now := time.Now()
	res, err := DB.Exec(`INSERT INTO roles (name, description, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		role.Name, role.Description, now, now)
	if err != nil {
		return 0, fmt.Errorf("creating role '%s': %w", role.Name, err)
	}
	return res.LastInsertId()
}
