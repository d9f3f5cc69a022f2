package dto

import (
	"time"

	"physio/internal/domain/auth"
)

// LoginRequest for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse carries the access token and the user.
type LoginResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresAt   time.Time    `json:"expires_at"`
	User        UserResponse `json:"user"`
}

// UserResponse is the public view of a user.
type UserResponse struct {
	ID          string   `json:"id"`
	Email       string   `json:"email"`
	CompanyID   *string  `json:"company_id,omitempty"`
	Groups      []string `json:"groups"`
	Permissions []string `json:"permissions,omitempty"`
	IsAdmin     bool     `json:"is_admin"`
}

// FromUser maps a user.
func FromUser(u *auth.User) UserResponse {
	resp := UserResponse{
		ID:      u.ID.String(),
		Email:   u.Email,
		Groups:  u.Groups,
		IsAdmin: u.IsAdmin,
	}
	if u.CompanyID != nil {
		s := u.CompanyID.String()
		resp.CompanyID = &s
	}
	return resp
}

// NewLoginResponse maps a successful login.
func NewLoginResponse(token *auth.Token, u *auth.User) LoginResponse {
	return LoginResponse{
		AccessToken: token.AccessToken,
		TokenType:   token.TokenType,
		ExpiresAt:   token.ExpiresAt,
		User:        FromUser(u),
	}
}
