package treatment_history_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"physio/internal/core/apperror"
	"physio/internal/core/id"
	"physio/internal/domain"
	"physio/internal/domain/catalogs/partner"
	"physio/internal/domain/domaintest"
	"physio/internal/domain/physio"
	"physio/internal/domain/physio/treatment"
	th "physio/internal/domain/physio/treatment_history"
)

type historyRepo struct {
	*domaintest.MemoryRepo[*th.TreatmentHistory]
}

func (r historyRepo) IDsByPartner(ctx context.Context, partnerID id.ID) ([]id.ID, error) {
	res, err := r.List(ctx, domain.ListFilter{PartnerID: &partnerID})
	if err != nil {
		return nil, err
	}
	ids := make([]id.ID, 0, len(res.Items))
	for _, h := range res.Items {
		ids = append(ids, h.ID)
	}
	return ids, nil
}

type partners struct{ *domaintest.MemoryRepo[*partner.Partner] }

type treatments struct{ *domaintest.MemoryRepo[*treatment.Treatment] }

type fixture struct {
	svc       *th.Service
	repo      *domaintest.MemoryRepo[*th.TreatmentHistory]
	templates *physio.TemplateRegistry
	owner     *partner.Partner
	plan      *treatment.Treatment
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	pr := domaintest.NewMemoryRepo[*partner.Partner]()
	owner := partner.NewPartner()
	owner.Name = "Ana"
	owner.Allergies = "latex"
	require.NoError(t, pr.Create(ctx, owner))

	tr := domaintest.NewMemoryRepo[*treatment.Treatment]()
	plan := treatment.NewTreatment("Knee", owner.ID, id.Nil())
	require.NoError(t, tr.Create(ctx, plan))

	f := &fixture{
		repo:      domaintest.NewMemoryRepo[*th.TreatmentHistory](),
		templates: physio.NewTemplateRegistry(),
		owner:     owner,
		plan:      plan,
	}
	f.repo.PartnerOf = func(h *th.TreatmentHistory) id.ID { return h.PartnerID }
	f.svc = th.NewService(th.ServiceConfig{
		Repo:       historyRepo{f.repo},
		Numerator:  domaintest.NewNumerator(),
		Partners:   partners{pr},
		Treatments: treatments{tr},
		Templates:  f.templates,
	})
	return f
}

func TestCreate_LinksTreatment(t *testing.T) {
	f := newFixture(t)

	h := th.NewTreatmentHistory("Session 1", f.owner.ID, id.Nil())
	h.TreatmentID = &f.plan.ID
	require.NoError(t, f.svc.Create(context.Background(), h))

	assert.Regexp(t, `^TH-\d{4}-00001$`, h.Code)
	assert.Equal(t, "latex", h.Allergies())

	ids, err := f.svc.IDsByPartner(context.Background(), f.owner.ID)
	require.NoError(t, err)
	assert.Equal(t, []id.ID{h.ID}, ids)
}

func TestCreate_RejectsBadLinks(t *testing.T) {
	f := newFixture(t)

	stranger := partner.NewPartner()
	stranger.Name = "Luis"
	h := th.NewTreatmentHistory("Session 1", stranger.ID, id.Nil())
	err := f.svc.Create(context.Background(), h)
	assert.True(t, apperror.IsValidation(err), "unknown partner")

	h = th.NewTreatmentHistory("Session 1", f.owner.ID, id.Nil())
	missing := id.New()
	h.TreatmentID = &missing
	err = f.svc.Create(context.Background(), h)
	assert.True(t, apperror.IsValidation(err), "unknown treatment")
	assert.Equal(t, 0, f.repo.Len())
}

func TestUnlink_TemplateIsProtected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tmpl := th.NewTreatmentHistory("Template", f.owner.ID, id.Nil())
	require.NoError(t, f.svc.Create(ctx, tmpl))
	physio.RegisterType[*th.TreatmentHistory](f.templates, tmpl.ID)

	err := f.svc.Unlink(ctx, tmpl.ID)
	assert.True(t, apperror.IsValidation(err))
	assert.Equal(t, 1, f.repo.Len())

	h := th.NewTreatmentHistory("Session 2", f.owner.ID, id.Nil())
	require.NoError(t, f.svc.Create(ctx, h))
	require.NoError(t, f.svc.Unlink(ctx, h.ID))
	assert.Equal(t, 1, f.repo.Len())
}
