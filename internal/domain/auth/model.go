// Package auth provides API user authentication.
package auth

import (
	"context"
	"time"

	"physio/internal/core/apperror"
	"physio/internal/core/id"
)

// User is an API user stored in sys_users.
type User struct {
	ID           id.ID      `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	CompanyID    *id.ID     `db:"company_id" json:"company_id,omitempty"`
	Groups       []string   `db:"groups" json:"groups"`
	IsActive     bool       `db:"is_active" json:"is_active"`
	IsAdmin      bool       `db:"is_admin" json:"is_admin"`
	LastLoginAt  *time.Time `db:"last_login_at" json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
}

// NewUser creates an active user.
func NewUser(email, passwordHash string, groups []string) *User {
	return &User{
		ID:           id.New(),
		Email:        email,
		PasswordHash: passwordHash,
		Groups:       groups,
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
	}
}

// Validate validates user data.
func (u *User) Validate(_ context.Context) error {
	if u.Email == "" {
		return apperror.NewValidation("email is required").WithDetail("field", "email")
	}
	if u.PasswordHash == "" {
		return apperror.NewValidation("password is required").WithDetail("field", "password")
	}
	return nil
}

// CanLogin checks if the account may authenticate.
func (u *User) CanLogin() error {
	if !u.IsActive {
		return apperror.NewForbidden("account is disabled")
	}
	return nil
}

// Credentials for login.
type Credentials struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Token is an issued access token.
type Token struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	TokenType   string    `json:"token_type"`
}
