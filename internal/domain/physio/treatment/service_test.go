package treatment_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"physio/internal/core/apperror"
	"physio/internal/core/id"
	"physio/internal/domain"
	"physio/internal/domain/catalogs/partner"
	"physio/internal/domain/domaintest"
	"physio/internal/domain/physio"
	"physio/internal/domain/physio/treatment"
)

type fixture struct {
	svc       *treatment.Service
	repo      *domaintest.MemoryRepo[*treatment.Treatment]
	partners  *domaintest.MemoryRepo[*partner.Partner]
	templates *physio.TemplateRegistry
	owner     *partner.Partner
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		repo:      domaintest.NewMemoryRepo[*treatment.Treatment](),
		partners:  domaintest.NewMemoryRepo[*partner.Partner](),
		templates: physio.NewTemplateRegistry(),
	}
	f.repo.PartnerOf = func(tr *treatment.Treatment) id.ID { return tr.PartnerID }

	f.owner = partner.NewPartner()
	f.owner.Name = "Ana"
	f.owner.Gender = partner.GenderFemale
	require.NoError(t, f.partners.Create(context.Background(), f.owner))

	f.svc = treatment.NewService(treatment.ServiceConfig{
		Repo:      repoWithLister{f.repo},
		Numerator: domaintest.NewNumerator(),
		Partners:  partnerReader{f.partners},
		Templates: f.templates,
	})
	return f
}

// partnerReader adapts the memory repo to treatment.PartnerReader.
type partnerReader struct {
	repo *domaintest.MemoryRepo[*partner.Partner]
}

func (r partnerReader) GetByID(ctx context.Context, partnerID id.ID) (*partner.Partner, error) {
	return r.repo.GetByID(ctx, partnerID)
}

// repoWithLister adds IDsByPartner on top of the memory repo.
type repoWithLister struct {
	*domaintest.MemoryRepo[*treatment.Treatment]
}

func (r repoWithLister) IDsByPartner(ctx context.Context, partnerID id.ID) ([]id.ID, error) {
	res, err := r.List(ctx, domain.ListFilter{PartnerID: &partnerID})
	if err != nil {
		return nil, err
	}
	ids := make([]id.ID, 0, len(res.Items))
	for _, tr := range res.Items {
		ids = append(ids, tr.ID)
	}
	return ids, nil
}

func (f *fixture) create(t *testing.T, name string) *treatment.Treatment {
	t.Helper()
	tr := treatment.NewTreatment(name, f.owner.ID, id.Nil())
	require.NoError(t, f.svc.Create(context.Background(), tr))
	return tr
}

func TestCreate_CodesAndBindsOwner(t *testing.T) {
	f := newFixture(t)

	tr := f.create(t, "Lower back pain")
	assert.Regexp(t, `^TRT-\d{4}-00001$`, tr.Code)
	assert.Equal(t, partner.GenderFemale, tr.Gender())
	assert.True(t, tr.Active)
}

func TestCreate_UnknownPartner(t *testing.T) {
	f := newFixture(t)

	tr := treatment.NewTreatment("Knee", id.New(), id.Nil())
	err := f.svc.Create(context.Background(), tr)
	assert.True(t, apperror.IsValidation(err))
	assert.Equal(t, 0, f.repo.Len())
}

func TestValidate(t *testing.T) {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, -1)

	tr := treatment.NewTreatment("Shoulder", id.New(), id.Nil())
	require.NoError(t, tr.Validate(context.Background()))

	tr.StartDate, tr.EndDate = &start, &end
	assert.True(t, apperror.IsValidation(tr.Validate(context.Background())))

	tr.EndDate = nil
	tr.SetSessionFee(decimal.RequireFromString("-1"))
	assert.True(t, apperror.IsValidation(tr.Validate(context.Background())))

	tr.SetSessionFee(decimal.RequireFromString("35.50"))
	assert.NoError(t, tr.Validate(context.Background()))
	assert.Equal(t, "35.5", tr.SessionFee().String())

	tr.PartnerID = id.Nil()
	assert.True(t, apperror.IsValidation(tr.Validate(context.Background())))
}

func TestUnlink_TemplateIsProtected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tmpl := f.create(t, "Template")
	physio.RegisterType[*treatment.Treatment](f.templates, tmpl.ID)

	err := f.svc.Unlink(ctx, tmpl.ID)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "Template record can't be deleted!!", appErr.Message)
	assert.Equal(t, 0, f.repo.Calls["Delete"])

	err = f.svc.Delete(ctx, tmpl.ID)
	assert.True(t, apperror.IsValidation(err))
	assert.False(t, f.repo.IsArchived(tmpl.ID))
}

func TestUnlink_OrdinaryRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tmpl := f.create(t, "Template")
	physio.RegisterType[*treatment.Treatment](f.templates, tmpl.ID)
	tr := f.create(t, "Ankle sprain")

	require.NoError(t, f.svc.Unlink(ctx, tr.ID))
	exists, err := f.svc.Exists(ctx, tr.ID)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestUnlink_WithoutRegisteredTemplate(t *testing.T) {
	f := newFixture(t)
	tr := f.create(t, "Ankle sprain")

	err := f.svc.Unlink(context.Background(), tr.ID)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInternal, appErr.Code)
	assert.Equal(t, 1, f.repo.Len())
}

func TestListByPartner(t *testing.T) {
	f := newFixture(t)
	f.create(t, "A")
	f.create(t, "B")

	other := partner.NewPartner()
	other.Name = "Luis"
	require.NoError(t, f.partners.Create(context.Background(), other))
	require.NoError(t, f.svc.Create(context.Background(), treatment.NewTreatment("C", other.ID, id.Nil())))

	res, err := f.svc.ListByPartner(context.Background(), f.owner.ID, domain.ListFilter{})
	require.NoError(t, err)
	assert.Len(t, res.Items, 2)
	for _, tr := range res.Items {
		assert.Equal(t, f.owner.ID, tr.PartnerID)
		assert.Same(t, f.owner, tr.Owner())
	}

	ids, err := repoWithLister{f.repo}.IDsByPartner(context.Background(), other.ID)
	require.NoError(t, err)
	assert.Len(t, ids, 1)
}

func TestWindowAction(t *testing.T) {
	raw, err := json.Marshal(treatment.WindowAction())
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"name": "Treatments",
		"res_model": "partner.treatment",
		"context": {},
		"target": "current",
		"view_mode": "tree,form",
		"views": [[false, "tree"], [false, "form"]]
	}`, string(raw))
}

func TestDescribe_IncludesMirroredFields(t *testing.T) {
	def := treatment.Describe()
	assert.Equal(t, treatment.TableName, def.TableName)

	f, ok := def.Field("gender")
	require.True(t, ok)
	assert.Equal(t, "partner_id.gender", f.Related)

	_, ok = def.Field("diagnosis")
	assert.True(t, ok)
}
