package partner

import (
	"context"
	"fmt"

	"physio/internal/core/apperror"
	"physio/internal/core/id"
	"physio/internal/core/numerator"
	"physio/internal/core/tx"
	"physio/internal/domain"
	"physio/internal/domain/action"
	"physio/internal/domain/audit"
	"physio/pkg/logger"
)

// Operation names passed to Observer and the audit journal.
const (
	OpCreate = "create"
	OpWrite  = "write"
)

// Service provides business logic for partners.
type Service struct {
	*domain.CatalogService[*Partner]
	repo       Repository
	classifier Classifier
	treatments RelatedLister
	histories  RelatedLister
	audit      audit.Recorder
	observer   Observer

	treatmentAction action.Window
}

// ServiceConfig wires the partner service.
type ServiceConfig struct {
	Repo       Repository
	TxManager  tx.Manager
	Numerator  numerator.Generator
	Classifier Classifier

	// Treatments and Histories list records composing the partner mixin.
	Treatments RelatedLister
	Histories  RelatedLister

	// TreatmentAction is the list action opened by ActionMakeTreatment.
	TreatmentAction action.Window

	Audit    audit.Recorder // optional
	Observer Observer       // optional
}

// NewService creates a new Partner service.
func NewService(cfg ServiceConfig) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Partner]{
		Repo:       cfg.Repo,
		TxManager:  cfg.TxManager,
		Numerator:  cfg.Numerator,
		EntityName: ModelName,
	})

	rec := cfg.Audit
	if rec == nil {
		rec = audit.Nop{}
	}

	svc := &Service{
		CatalogService:  base,
		repo:            cfg.Repo,
		classifier:      cfg.Classifier,
		treatments:      cfg.Treatments,
		histories:       cfg.Histories,
		audit:           rec,
		observer:        cfg.Observer,
		treatmentAction: cfg.TreatmentAction,
	}

	base.Hooks().OnBeforeCreate(svc.prepareForCreate)

	return svc
}

func (s *Service) prepareForCreate(ctx context.Context, p *Partner) error {
	if p.Code != "" {
		return nil
	}
	code, err := s.NextCode(ctx, numerator.PrefixPartner)
	if err != nil {
		return err
	}
	p.Code = code
	return nil
}

// classify runs the classifier on a private copy of vals.
func (s *Service) classify(ctx context.Context, op string, vals Values) Values {
	vals = vals.Clone()
	if s.classifier == nil {
		return vals
	}
	if s.classifier.Classify(vals) {
		logger.Debug(ctx, "payload marks physiotherapy partner", "op", op)
		if s.observer != nil {
			s.observer.PartnerClassified(op)
		}
	}
	return vals
}

// Create builds a partner from vals and stores it. companyID is the acting
// user's company and becomes company_id unless vals sets it.
func (s *Service) Create(ctx context.Context, vals Values, companyID id.ID) (*Partner, error) {
	vals = s.classify(ctx, OpCreate, vals)

	p := NewPartner()
	if !id.IsNil(companyID) {
		cid := companyID
		p.CompanyID = &cid
	}
	if err := p.Apply(vals); err != nil {
		return nil, err
	}

	err := s.TxManager().RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.CatalogService.Create(ctx, p); err != nil {
			return err
		}
		return s.audit.LogChange(ctx, ModelName, p.ID, audit.ActionCreate, p.ToValues())
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "partner created",
		"partner_id", p.ID.String(),
		"physiotherapy_partner", p.PhysiotherapyPartner,
	)
	return p, nil
}

// Write applies vals to every partner in ids within one transaction.
func (s *Service) Write(ctx context.Context, ids []id.ID, vals Values) error {
	if len(ids) == 0 {
		return nil
	}
	vals = s.classify(ctx, OpWrite, vals)

	return s.TxManager().RunInTransaction(ctx, func(ctx context.Context) error {
		for _, partnerID := range ids {
			p, err := s.GetByID(ctx, partnerID)
			if err != nil {
				return err
			}
			before := p.ToValues()

			if err := p.Apply(vals); err != nil {
				return err
			}
			if err := s.Update(ctx, p); err != nil {
				return err
			}

			changes := diff(before, p.ToValues())
			if len(changes) == 0 {
				continue
			}
			if err := s.audit.LogChange(ctx, ModelName, p.ID, audit.ActionUpdate, changes); err != nil {
				return fmt.Errorf("audit partner %s: %w", partnerID, err)
			}
		}
		return nil
	})
}

// Unlink removes the partners. Partners still referenced by treatments
// fail with a conflict and nothing is removed.
func (s *Service) Unlink(ctx context.Context, ids []id.ID) error {
	return s.TxManager().RunInTransaction(ctx, func(ctx context.Context) error {
		for _, partnerID := range ids {
			if err := s.CatalogService.Unlink(ctx, partnerID); err != nil {
				return err
			}
			if err := s.audit.LogChange(ctx, ModelName, partnerID, audit.ActionDelete, nil); err != nil {
				return fmt.Errorf("audit partner %s: %w", partnerID, err)
			}
		}
		return nil
	})
}

// Read returns the partner with its derived relations.
func (s *Service) Read(ctx context.Context, partnerID id.ID) (*View, error) {
	p, err := s.GetByID(ctx, partnerID)
	if err != nil {
		return nil, err
	}
	treatments, err := s.listRelated(ctx, s.treatments, partnerID)
	if err != nil {
		return nil, err
	}
	histories, err := s.listRelated(ctx, s.histories, partnerID)
	if err != nil {
		return nil, err
	}
	return &View{
		Partner:             p,
		TreatmentIDs:        treatments,
		TreatmentHistoryIDs: histories,
		TreatmentCount:      len(treatments),
	}, nil
}

// TreatmentCount returns the current number of treatments of the partner (0 when none).
func (s *Service) TreatmentCount(ctx context.Context, partnerID id.ID) (int, error) {
	ids, err := s.listRelated(ctx, s.treatments, partnerID)
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}

// ActionMakeTreatment returns the window opening the partner's treatments.
// With exactly one treatment the window goes straight to its form.
func (s *Service) ActionMakeTreatment(ctx context.Context, partnerID id.ID) (action.Window, error) {
	if _, err := s.GetByID(ctx, partnerID); err != nil {
		return action.Window{}, err
	}
	treatments, err := s.listRelated(ctx, s.treatments, partnerID)
	if err != nil {
		return action.Window{}, err
	}

	w := s.treatmentAction.Clone()
	w.Context = map[string]any{"search_default_partner_id": partnerID.String()}
	if len(treatments) == 1 {
		w.OpenRecord(treatments[0].String())
	}
	return w, nil
}

func (s *Service) listRelated(ctx context.Context, l RelatedLister, partnerID id.ID) ([]id.ID, error) {
	if l == nil {
		return []id.ID{}, nil
	}
	ids, err := l.IDsByPartner(ctx, partnerID)
	if err != nil {
		return nil, apperror.NewInternal(err).WithDetail("partner_id", partnerID.String())
	}
	if ids == nil {
		ids = []id.ID{}
	}
	return ids, nil
}

func diff(before, after Values) map[string]any {
	changes := make(map[string]any)
	for k, nv := range after {
		ov := before[k]
		if fmt.Sprint(ov) != fmt.Sprint(nv) {
			changes[k] = map[string]any{"old": ov, "new": nv}
		}
	}
	return changes
}
