// internal/models/user.go
package models

import "time"

type SubscriptionStatus string

const (
	SubscriptionStatusActive   SubscriptionStatus = "active"
	SubscriptionStatusInactive SubscriptionStatus = "inactive"
)

type User struct {
	ID                 int64              `json:"id"`
	Email              string             `json:"email"`
	PasswordHash       string             `json:"-"`
	FirstName          string             `json:"first_name"`
	LastName           string             `json:"last_name"`
	Company            string             `json:"company"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
	RoleID             *int64             `json:"-"`
	RoleName           *string            `json:"role_name,omitempty"`
	SubscriptionStatus SubscriptionStatus `json:"subscription_status"`
	SubscriptionEnd    *time.Time         `json:"-"`
}

type RegistrationForm struct {
	Email       string `form:"email" validate:"required,email"`
	Password    string `form:"password" validate:"required,min=8,complex_password"`
	ConfirmPass string `form:"confirm_password" validate:"required,eqfield=Password"`
	FirstName   string `form:"first_name" validate:"required,alpha_space"`
	LastName    string `form:"last_name" validate:"required,alpha_space"`
	Company     string `form:"company" validate:"omitempty,max=120"`
	AgreeTerms  string `form:"agree_terms" validate:"required"`
	Honeypot    string `form:"website"`
}

type LoginForm struct {
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required"`
}

type CheckoutForm struct {
	PlanCode string `form:"plan" validate:"required,plan_code"`
}
