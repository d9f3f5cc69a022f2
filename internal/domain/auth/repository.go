package auth

import (
	"context"

	"physio/internal/core/id"
)

// UserRepository defines user storage operations.
type UserRepository interface {
	// Create inserts a user. A taken email maps to Conflict.
	Create(ctx context.Context, user *User) error

	GetByID(ctx context.Context, userID id.ID) (*User, error)

	// GetByEmail matches case-insensitively.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// UpdatePassword replaces the hash, used by the seed command on re-runs.
	UpdatePassword(ctx context.Context, userID id.ID, passwordHash string) error

	// TouchLogin stamps last_login_at.
	TouchLogin(ctx context.Context, userID id.ID) error
}
