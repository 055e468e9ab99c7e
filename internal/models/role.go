// internal/models/role.go
package models

import "time"

type Role struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Role name constants, to avoid typos in route wiring.
const (
	RoleUser       string = "user"
	RoleAdmin      string = "admin"
	RoleAuditor    string = "auditor"
	RoleCompliance string = "compliance"
)
