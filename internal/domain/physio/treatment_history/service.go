package treatment_history

import (
	"context"

	"physio/internal/core/apperror"
	"physio/internal/core/id"
	"physio/internal/core/numerator"
	"physio/internal/core/tx"
	"physio/internal/domain"
	"physio/internal/domain/catalogs/partner"
	"physio/internal/domain/physio"
	"physio/internal/domain/physio/treatment"
)

// PartnerReader loads owners for binding mirrored fields.
type PartnerReader interface {
	GetByID(ctx context.Context, partnerID id.ID) (*partner.Partner, error)
}

// TreatmentReader resolves the linked treatment.
type TreatmentReader interface {
	GetByID(ctx context.Context, treatmentID id.ID) (*treatment.Treatment, error)
}

// Service provides business logic for treatment histories.
type Service struct {
	*domain.CatalogService[*TreatmentHistory]
	repo       Repository
	partners   PartnerReader
	treatments TreatmentReader
}

// ServiceConfig wires the service.
type ServiceConfig struct {
	Repo       Repository
	TxManager  tx.Manager
	Numerator  numerator.Generator
	Partners   PartnerReader
	Treatments TreatmentReader
	Templates  *physio.TemplateRegistry
	Rejects    physio.RejectObserver
}

// NewService creates the service and installs the template guard.
func NewService(cfg ServiceConfig) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*TreatmentHistory]{
		Repo:       cfg.Repo,
		TxManager:  cfg.TxManager,
		Numerator:  cfg.Numerator,
		EntityName: ModelName,
	})

	svc := &Service{
		CatalogService: base,
		repo:           cfg.Repo,
		partners:       cfg.Partners,
		treatments:     cfg.Treatments,
	}

	base.Hooks().OnBeforeCreate(svc.prepareForCreate)
	base.Hooks().OnBeforeUpdate(svc.checkLinks)
	base.Hooks().OnBeforeDelete(physio.Guard[*TreatmentHistory](cfg.Templates, cfg.Rejects))

	return svc
}

func (s *Service) prepareForCreate(ctx context.Context, h *TreatmentHistory) error {
	if err := s.checkLinks(ctx, h); err != nil {
		return err
	}
	if h.Code == "" {
		code, err := s.NextCode(ctx, numerator.PrefixTreatmentHistory)
		if err != nil {
			return err
		}
		h.Code = code
	}
	return nil
}

// checkLinks binds the owner and verifies the linked treatment belongs to it.
func (s *Service) checkLinks(ctx context.Context, h *TreatmentHistory) error {
	if s.partners != nil {
		p, err := s.partners.GetByID(ctx, h.PartnerID)
		if err != nil {
			if apperror.IsNotFound(err) {
				return apperror.NewValidation("partner does not exist").
					WithDetail("field", "partner_id").
					WithDetail("value", h.PartnerID.String())
			}
			return err
		}
		if err := h.Bind(p); err != nil {
			return err
		}
	}

	if h.TreatmentID == nil || s.treatments == nil {
		return nil
	}
	t, err := s.treatments.GetByID(ctx, *h.TreatmentID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return apperror.NewValidation("treatment does not exist").
				WithDetail("field", "treatment_id").
				WithDetail("value", h.TreatmentID.String())
		}
		return err
	}
	if t.PartnerID != h.PartnerID {
		return apperror.NewValidation("treatment belongs to another partner").
			WithDetail("field", "treatment_id")
	}
	return nil
}

// Get returns the entry with its partner bound.
func (s *Service) Get(ctx context.Context, historyID id.ID) (*TreatmentHistory, error) {
	h, err := s.GetByID(ctx, historyID)
	if err != nil {
		return nil, err
	}
	if s.partners != nil {
		p, err := s.partners.GetByID(ctx, h.PartnerID)
		if err != nil {
			return nil, err
		}
		if err := h.Bind(p); err != nil {
			return nil, err
		}
	}
	return h, nil
}

// IDsByPartner implements partner.RelatedLister.
func (s *Service) IDsByPartner(ctx context.Context, partnerID id.ID) ([]id.ID, error) {
	return s.repo.IDsByPartner(ctx, partnerID)
}
