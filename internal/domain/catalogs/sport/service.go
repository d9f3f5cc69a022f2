package sport

import (
	"context"
	"strings"

	"physio/internal/core/apperror"
	"physio/internal/core/numerator"
	"physio/internal/core/tx"
	"physio/internal/domain"
)

// Service provides business logic for the Sport catalog.
type Service struct {
	*domain.CatalogService[*Sport]
	repo Repository
}

// NewService creates a new Sport service.
func NewService(repo Repository, txm tx.Manager, num numerator.Generator) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Sport]{
		Repo:       repo,
		TxManager:  txm,
		Numerator:  num,
		EntityName: ModelName,
	})

	svc := &Service{
		CatalogService: base,
		repo:           repo,
	}

	base.Hooks().OnBeforeCreate(svc.prepareForCreate)
	base.Hooks().OnBeforeUpdate(svc.checkNameUnique)

	return svc
}

func (s *Service) prepareForCreate(ctx context.Context, sp *Sport) error {
	if sp.Code == "" {
		code, err := s.NextCode(ctx, numerator.PrefixSport)
		if err != nil {
			return err
		}
		sp.Code = code
	}
	return s.checkNameUnique(ctx, sp)
}

func (s *Service) checkNameUnique(ctx context.Context, sp *Sport) error {
	existing, err := s.repo.FindByName(ctx, strings.TrimSpace(sp.Name))
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil
		}
		return err
	}
	if existing.ID != sp.ID {
		return apperror.NewDuplicate(ModelName, "name", sp.Name)
	}
	return nil
}

// FindByName retrieves a sport by name.
func (s *Service) FindByName(ctx context.Context, name string) (*Sport, error) {
	return s.repo.FindByName(ctx, name)
}

