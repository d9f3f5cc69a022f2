package treatment

import (
	"context"

	"physio/internal/core/apperror"
	"physio/internal/core/id"
	"physio/internal/core/numerator"
	"physio/internal/core/tx"
	"physio/internal/domain"
	"physio/internal/domain/catalogs/partner"
	"physio/internal/domain/physio"
)

// PartnerReader loads owners for binding mirrored fields.
type PartnerReader interface {
	GetByID(ctx context.Context, partnerID id.ID) (*partner.Partner, error)
}

// Service provides business logic for treatments.
type Service struct {
	*domain.CatalogService[*Treatment]
	repo     Repository
	partners PartnerReader
}

// ServiceConfig wires the treatment service.
type ServiceConfig struct {
	Repo      Repository
	TxManager tx.Manager
	Numerator numerator.Generator
	Partners  PartnerReader
	Templates *physio.TemplateRegistry
	Rejects   physio.RejectObserver // optional
}

// NewService creates the service and installs the template guard.
func NewService(cfg ServiceConfig) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Treatment]{
		Repo:       cfg.Repo,
		TxManager:  cfg.TxManager,
		Numerator:  cfg.Numerator,
		EntityName: ModelName,
	})

	svc := &Service{
		CatalogService: base,
		repo:           cfg.Repo,
		partners:       cfg.Partners,
	}

	base.Hooks().OnBeforeCreate(svc.prepareForCreate)
	base.Hooks().OnBeforeUpdate(svc.checkPartner)
	base.Hooks().OnBeforeDelete(physio.Guard[*Treatment](cfg.Templates, cfg.Rejects))

	return svc
}

func (s *Service) prepareForCreate(ctx context.Context, t *Treatment) error {
	if err := s.checkPartner(ctx, t); err != nil {
		return err
	}
	if t.Code == "" {
		code, err := s.NextCode(ctx, numerator.PrefixTreatment)
		if err != nil {
			return err
		}
		t.Code = code
	}
	return nil
}

// checkPartner verifies the owner exists and binds it.
func (s *Service) checkPartner(ctx context.Context, t *Treatment) error {
	if s.partners == nil {
		return nil
	}
	p, err := s.partners.GetByID(ctx, t.PartnerID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return apperror.NewValidation("partner does not exist").
				WithDetail("field", "partner_id").
				WithDetail("value", t.PartnerID.String())
		}
		return err
	}
	return t.Bind(p)
}

// Get returns the treatment with its partner bound.
func (s *Service) Get(ctx context.Context, treatmentID id.ID) (*Treatment, error) {
	t, err := s.GetByID(ctx, treatmentID)
	if err != nil {
		return nil, err
	}
	if err := s.bind(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// ListByPartner returns the partner's treatments with the partner bound.
func (s *Service) ListByPartner(ctx context.Context, partnerID id.ID, f domain.ListFilter) (domain.ListResult[*Treatment], error) {
	f.PartnerID = &partnerID
	res, err := s.List(ctx, f)
	if err != nil {
		return res, err
	}
	for _, t := range res.Items {
		if err := s.bind(ctx, t); err != nil {
			return res, err
		}
	}
	return res, nil
}

// IDsByPartner implements partner.RelatedLister.
func (s *Service) IDsByPartner(ctx context.Context, partnerID id.ID) ([]id.ID, error) {
	return s.repo.IDsByPartner(ctx, partnerID)
}

func (s *Service) bind(ctx context.Context, t *Treatment) error {
	if s.partners == nil {
		return nil
	}
	p, err := s.partners.GetByID(ctx, t.PartnerID)
	if err != nil {
		return err
	}
	return t.Bind(p)
}
