package auth

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"physio/internal/core/apperror"
	"physio/internal/core/id"
	"physio/pkg/logger"
)

// MinPasswordLength applies to users created through the service.
const MinPasswordLength = 8

// Service authenticates API users and issues access tokens.
type Service struct {
	users UserRepository
	jwt   *JWTService
	cost  int
}

// NewService creates a new auth service.
func NewService(users UserRepository, jwtService *JWTService) *Service {
	return &Service{users: users, jwt: jwtService, cost: bcrypt.DefaultCost}
}

// WithHashCost overrides the bcrypt cost. Tests use bcrypt.MinCost.
func (s *Service) WithHashCost(cost int) *Service {
	s.cost = cost
	return s
}

// HashPassword returns the bcrypt hash of password.
func (s *Service) HashPassword(password string) (string, error) {
	if len(password) < MinPasswordLength {
		return "", apperror.NewValidation(
			fmt.Sprintf("password must be at least %d characters", MinPasswordLength),
		).WithDetail("field", "password")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// EnsureUser creates the user or resets the password of an existing one.
func (s *Service) EnsureUser(ctx context.Context, email, password string, groups []string, companyID *id.ID, admin bool) (*User, error) {
	hash, err := s.HashPassword(password)
	if err != nil {
		return nil, err
	}
	email = strings.ToLower(strings.TrimSpace(email))

	existing, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if err := s.users.UpdatePassword(ctx, existing.ID, hash); err != nil {
			return nil, fmt.Errorf("update password: %w", err)
		}
		existing.PasswordHash = hash
		return existing, nil
	case !apperror.IsNotFound(err):
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	user := NewUser(email, hash, groups)
	user.CompanyID = companyID
	user.IsAdmin = admin
	if err := user.Validate(ctx); err != nil {
		return nil, err
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	logger.Info(ctx, "user created", "user_id", user.ID, "email", user.Email)
	return user, nil
}

// Login checks the credentials and issues an access token.
// Unknown emails and wrong passwords produce the same error.
func (s *Service) Login(ctx context.Context, creds Credentials) (*Token, *User, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(creds.Email)))
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, nil, apperror.NewUnauthorized("invalid credentials")
		}
		return nil, nil, fmt.Errorf("lookup user: %w", err)
	}
	if err := user.CanLogin(); err != nil {
		return nil, nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(creds.Password)); err != nil {
		logger.Warn(ctx, "login rejected", "user_id", user.ID)
		return nil, nil, apperror.NewUnauthorized("invalid credentials")
	}

	access, expiresAt, err := s.jwt.GenerateAccessToken(user)
	if err != nil {
		return nil, nil, fmt.Errorf("generate token: %w", err)
	}

	if err := s.users.TouchLogin(ctx, user.ID); err != nil {
		logger.Warn(ctx, "failed to record login", "user_id", user.ID, "error", err)
	}

	logger.Info(ctx, "user logged in", "user_id", user.ID)
	return &Token{AccessToken: access, ExpiresAt: expiresAt, TokenType: "Bearer"}, user, nil
}

// GetUser returns a user by id.
func (s *Service) GetUser(ctx context.Context, userID id.ID) (*User, error) {
	return s.users.GetByID(ctx, userID)
}
