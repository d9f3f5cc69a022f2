// Package auth_repo provides the PostgreSQL user store.
package auth_repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"physio/internal/core/apperror"
	"physio/internal/core/id"
	"physio/internal/domain/auth"
	"physio/internal/infrastructure/storage/postgres"
)

const pgUniqueViolation = "23505"

const userColumns = `id, email, password_hash, company_id, groups, is_active, is_admin, last_login_at, created_at`

var _ auth.UserRepository = (*UserRepo)(nil)

// UserRepo implements auth.UserRepository over sys_users.
type UserRepo struct {
	txm *postgres.TxManager
}

// NewUserRepo creates a new user repository.
func NewUserRepo(txm *postgres.TxManager) *UserRepo {
	return &UserRepo{txm: txm}
}

// Create creates a new user.
func (r *UserRepo) Create(ctx context.Context, user *auth.User) error {
	groups := user.Groups
	if groups == nil {
		groups = []string{}
	}
	_, err := r.txm.GetQuerier(ctx).Exec(ctx, `
		INSERT INTO sys_users (id, email, password_hash, company_id, groups, is_active, is_admin, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		user.ID, user.Email, user.PasswordHash, user.CompanyID, groups,
		user.IsActive, user.IsAdmin, user.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return apperror.NewConflict("email already registered").WithDetail("email", user.Email)
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetByID retrieves user by ID.
func (r *UserRepo) GetByID(ctx context.Context, userID id.ID) (*auth.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM sys_users WHERE id = $1`, userID.String(), userID)
}

// GetByEmail retrieves user by email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM sys_users WHERE lower(email) = lower($1)`, email, email)
}

func (r *UserRepo) getOne(ctx context.Context, query string, key string, args ...any) (*auth.User, error) {
	var user auth.User
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &user, query, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFound("user", key)
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}

// UpdatePassword replaces the password hash.
func (r *UserRepo) UpdatePassword(ctx context.Context, userID id.ID, passwordHash string) error {
	tag, err := r.txm.GetQuerier(ctx).Exec(ctx,
		`UPDATE sys_users SET password_hash = $2 WHERE id = $1`, userID, passwordHash)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("user", userID.String())
	}
	return nil
}

// TouchLogin stamps last_login_at.
func (r *UserRepo) TouchLogin(ctx context.Context, userID id.ID) error {
	_, err := r.txm.GetQuerier(ctx).Exec(ctx,
		`UPDATE sys_users SET last_login_at = now() WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("touch login: %w", err)
	}
	return nil
}
