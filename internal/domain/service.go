package domain

import (
	"context"
	"fmt"
	"time"

	"physio/internal/core/apperror"
	"physio/internal/core/entity"
	"physio/internal/core/id"
	"physio/internal/core/numerator"
	"physio/internal/core/tx"
	"physio/pkg/logger"
)

// CatalogService provides business logic shared by every stored model.
// Model services embed it and register hooks for their own rules.
type CatalogService[T entity.Validatable] struct {
	repo      CatalogRepository[T]
	txManager tx.Manager
	numerator numerator.Generator
	hooks     *HookRegistry[T]

	// entityName for error messages and log fields
	entityName string
}

// CatalogServiceConfig configures the catalog service.
type CatalogServiceConfig[T entity.Validatable] struct {
	Repo       CatalogRepository[T]
	TxManager  tx.Manager
	Numerator  numerator.Generator // optional, needed by NextCode
	EntityName string
}

// NewCatalogService creates a new catalog service.
func NewCatalogService[T entity.Validatable](cfg CatalogServiceConfig[T]) *CatalogService[T] {
	txm := cfg.TxManager
	if txm == nil {
		txm = tx.Nop{}
	}
	return &CatalogService[T]{
		repo:       cfg.Repo,
		txManager:  txm,
		numerator:  cfg.Numerator,
		hooks:      NewHookRegistry[T](),
		entityName: cfg.EntityName,
	}
}

// Hooks returns the hook registry for external registration.
func (s *CatalogService[T]) Hooks() *HookRegistry[T] {
	return s.hooks
}

// EntityName returns the model name used in errors.
func (s *CatalogService[T]) EntityName() string {
	return s.entityName
}

// TxManager exposes the transaction manager to embedding services.
func (s *CatalogService[T]) TxManager() tx.Manager {
	return s.txManager
}

func (s *CatalogService[T]) normalizeValidationErr(err error) error {
	if err == nil {
		return nil
	}
	if apperror.IsAppError(err) {
		return err
	}
	return apperror.NewValidation(err.Error())
}

func (s *CatalogService[T]) normalizeGetErr(err error, idOrCode any) error {
	if err == nil {
		return nil
	}
	if apperror.IsNotFound(err) {
		return apperror.NewNotFound(s.entityName, idOrCode)
	}
	if apperror.IsAppError(err) {
		return err
	}
	return apperror.NewInternal(err).WithDetail("entity", s.entityName).WithDetail("id", idOrCode)
}

// NextCode returns the next code for prefix, e.g. TRT-2026-00001.
func (s *CatalogService[T]) NextCode(ctx context.Context, prefix string) (string, error) {
	if s.numerator == nil {
		return "", apperror.NewInternal(fmt.Errorf("numerator not configured for %s", s.entityName))
	}
	code, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig(prefix), nil, time.Now())
	if err != nil {
		return "", fmt.Errorf("generate %s code: %w", s.entityName, err)
	}
	return code, nil
}

// Create validates the entity, runs before-create hooks and inserts it
// in one transaction. After-create hooks run after commit.
func (s *CatalogService[T]) Create(ctx context.Context, entity T) error {
	if err := entity.Validate(ctx); err != nil {
		return s.normalizeValidationErr(err)
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.hooks.Run(ctx, BeforeCreate, entity); err != nil {
			return err
		}
		if err := s.repo.Create(ctx, entity); err != nil {
			return fmt.Errorf("create %s: %w", s.entityName, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.runAfter(ctx, AfterCreate, entity)
	return nil
}

// GetByID retrieves entity by ID.
func (s *CatalogService[T]) GetByID(ctx context.Context, entityID id.ID) (T, error) {
	entity, err := s.repo.GetByID(ctx, entityID)
	if err != nil {
		return entity, s.normalizeGetErr(err, entityID.String())
	}
	return entity, nil
}

// GetByCode retrieves entity by code.
func (s *CatalogService[T]) GetByCode(ctx context.Context, code string) (T, error) {
	entity, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		return entity, s.normalizeGetErr(err, code)
	}
	return entity, nil
}

// Update validates and saves an existing entity.
func (s *CatalogService[T]) Update(ctx context.Context, entity T) error {
	if err := entity.Validate(ctx); err != nil {
		return s.normalizeValidationErr(err)
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.hooks.Run(ctx, BeforeUpdate, entity); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, entity); err != nil {
			return fmt.Errorf("update %s: %w", s.entityName, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.runAfter(ctx, AfterUpdate, entity)
	return nil
}

// Delete archives the entity (sets the deletion mark).
// Before-delete hooks may veto it.
func (s *CatalogService[T]) Delete(ctx context.Context, entityID id.ID) error {
	return s.remove(ctx, entityID, func(ctx context.Context) error {
		return s.repo.SetDeletionMark(ctx, entityID, true)
	})
}

// Unlink physically removes the entity. Before-delete hooks run first
// inside the same transaction, so a vetoed unlink leaves the row untouched.
func (s *CatalogService[T]) Unlink(ctx context.Context, entityID id.ID) error {
	return s.remove(ctx, entityID, func(ctx context.Context) error {
		return s.repo.Delete(ctx, entityID)
	})
}

func (s *CatalogService[T]) remove(ctx context.Context, entityID id.ID, del func(ctx context.Context) error) error {
	var entity T
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		entity, err = s.repo.GetByID(ctx, entityID)
		if err != nil {
			return s.normalizeGetErr(err, entityID.String())
		}
		if err := s.hooks.Run(ctx, BeforeDelete, entity); err != nil {
			return err
		}
		if err := del(ctx); err != nil {
			return fmt.Errorf("delete %s: %w", s.entityName, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.runAfter(ctx, AfterDelete, entity)
	return nil
}

// SetDeletionMark archives or restores without running hooks.
func (s *CatalogService[T]) SetDeletionMark(ctx context.Context, entityID id.ID, marked bool) error {
	return s.repo.SetDeletionMark(ctx, entityID, marked)
}

// List retrieves entities with filtering.
func (s *CatalogService[T]) List(ctx context.Context, filter ListFilter) (ListResult[T], error) {
	return s.repo.List(ctx, filter)
}

// Exists checks if entity exists.
func (s *CatalogService[T]) Exists(ctx context.Context, entityID id.ID) (bool, error) {
	return s.repo.Exists(ctx, entityID)
}

// runAfter runs post-commit hooks. The write is already committed, so failures are only logged.
func (s *CatalogService[T]) runAfter(ctx context.Context, event HookEvent, entity T) {
	if err := s.hooks.Run(ctx, event, entity); err != nil {
		logger.Warn(ctx, "post-commit hook failed",
			"entity", s.entityName,
			"event", string(event),
			"error", err,
		)
	}
}
