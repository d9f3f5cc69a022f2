package history

import (
	"context"

	"physio/internal/core/apperror"
	"physio/internal/core/numerator"
	"physio/internal/core/tx"
	"physio/internal/domain"
)

// Service manages entries of one history kind.
type Service struct {
	*domain.CatalogService[*Entry]
	kind Kind
}

// NewService creates the service for kind.
func NewService(kind Kind, repo Repository, txm tx.Manager, num numerator.Generator) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Entry]{
		Repo:       repo,
		TxManager:  txm,
		Numerator:  num,
		EntityName: kind.ModelName(),
	})
	svc := &Service{CatalogService: base, kind: kind}
	base.Hooks().OnBeforeCreate(svc.prepareForCreate)
	base.Hooks().OnBeforeUpdate(svc.checkKind)
	return svc
}

// Kind returns the served history kind.
func (s *Service) Kind() Kind { return s.kind }

func (s *Service) prepareForCreate(ctx context.Context, e *Entry) error {
	if e.Kind == "" {
		e.Kind = s.kind
	}
	if err := s.checkKind(ctx, e); err != nil {
		return err
	}
	if e.Code == "" {
		code, err := s.NextCode(ctx, numerator.PrefixHistory)
		if err != nil {
			return err
		}
		e.Code = code
	}
	return nil
}

func (s *Service) checkKind(_ context.Context, e *Entry) error {
	if e.Kind != s.kind {
		return apperror.NewValidation("history kind mismatch").
			WithDetail("expected", string(s.kind)).
			WithDetail("got", string(e.Kind))
	}
	return nil
}
