package partner_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"physio/internal/core/apperror"
	"physio/internal/core/id"
	"physio/internal/domain/action"
	"physio/internal/domain/audit"
	"physio/internal/domain/catalogs/partner"
	"physio/internal/domain/domaintest"
)

// fieldClassifier flags payloads containing any of its fields.
type fieldClassifier []string

func (c fieldClassifier) Classify(vals partner.Values) bool {
	for _, f := range c {
		if vals.Has(f) {
			vals[partner.FieldPhysiotherapyPartner] = true
			return true
		}
	}
	return false
}

// related is a fixed RelatedLister.
type related map[id.ID][]id.ID

func (r related) IDsByPartner(_ context.Context, partnerID id.ID) ([]id.ID, error) {
	return r[partnerID], nil
}

type auditLog struct {
	entries []audit.Action
	fail    bool
}

func (a *auditLog) LogChange(_ context.Context, _ string, _ id.ID, act audit.Action, _ map[string]any) error {
	if a.fail {
		return errors.New("audit down")
	}
	a.entries = append(a.entries, act)
	return nil
}

type counter struct{ ops []string }

func (c *counter) PartnerClassified(op string) { c.ops = append(c.ops, op) }

func treatmentAction() action.Window {
	return action.Window{
		Name:     "Treatments",
		ResModel: "partner.treatment",
		Context:  map[string]any{},
		Target:   action.TargetCurrent,
		ViewMode: "tree,form",
		Views:    []action.View{{Mode: action.ViewTree}, {Mode: action.ViewForm}},
	}
}

type fixture struct {
	svc        *partner.Service
	repo       *domaintest.MemoryRepo[*partner.Partner]
	treatments related
	audit      *auditLog
	observer   *counter
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		repo:       domaintest.NewMemoryRepo[*partner.Partner](),
		treatments: related{},
		audit:      &auditLog{},
		observer:   &counter{},
	}
	f.svc = partner.NewService(partner.ServiceConfig{
		Repo:            f.repo,
		Numerator:       domaintest.NewNumerator(),
		Classifier:      fieldClassifier{"gender", "allergies"},
		Treatments:      f.treatments,
		TreatmentAction: treatmentAction(),
		Audit:           f.audit,
		Observer:        f.observer,
	})
	return f
}

func TestCreate_ClassifiesAndDefaultsCompany(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	company := id.New()

	vals := partner.Values{"name": "Ana", "gender": "female"}
	p, err := f.svc.Create(ctx, vals, company)
	require.NoError(t, err)

	assert.True(t, p.PhysiotherapyPartner)
	assert.NotContains(t, vals, partner.FieldPhysiotherapyPartner, "caller payload must stay untouched")
	require.NotNil(t, p.CompanyID)
	assert.Equal(t, company, *p.CompanyID)
	assert.Regexp(t, `^PAT-\d{4}-00001$`, p.Code)
	assert.Equal(t, []audit.Action{audit.ActionCreate}, f.audit.entries)
	assert.Equal(t, []string{partner.OpCreate}, f.observer.ops)
}

func TestCreate_PlainContactStaysUnflagged(t *testing.T) {
	f := newFixture(t)

	p, err := f.svc.Create(context.Background(), partner.Values{"name": "Acme Ltd", "email": "info@acme.test"}, id.Nil())
	require.NoError(t, err)

	assert.False(t, p.PhysiotherapyPartner)
	assert.Nil(t, p.CompanyID)
	assert.Empty(t, f.observer.ops)
}

func TestCreate_AuditFailureReturnsError(t *testing.T) {
	f := newFixture(t)
	f.audit.fail = true

	_, err := f.svc.Create(context.Background(), partner.Values{"name": "Ana"}, id.Nil())
	assert.Error(t, err)
}

func TestWrite_FlagIsSticky(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.svc.Create(ctx, partner.Values{"name": "Ana", "allergies": "pollen"}, id.Nil())
	require.NoError(t, err)
	require.True(t, p.PhysiotherapyPartner)

	require.NoError(t, f.svc.Write(ctx, []id.ID{p.ID}, partner.Values{"name": "Ana María"}))

	got, err := f.svc.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana María", got.Name)
	assert.True(t, got.PhysiotherapyPartner)
	assert.Equal(t, []audit.Action{audit.ActionCreate, audit.ActionUpdate}, f.audit.entries)
}

func TestWrite_FlagsEveryRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.svc.Create(ctx, partner.Values{"name": "A"}, id.Nil())
	require.NoError(t, err)
	b, err := f.svc.Create(ctx, partner.Values{"name": "B"}, id.Nil())
	require.NoError(t, err)

	require.NoError(t, f.svc.Write(ctx, []id.ID{a.ID, b.ID}, partner.Values{"gender": "male"}))

	for _, pid := range []id.ID{a.ID, b.ID} {
		got, err := f.svc.GetByID(ctx, pid)
		require.NoError(t, err)
		assert.True(t, got.PhysiotherapyPartner)
		assert.Equal(t, partner.GenderMale, got.Gender)
	}
}

func TestWrite_UnknownPartner(t *testing.T) {
	f := newFixture(t)
	err := f.svc.Write(context.Background(), []id.ID{id.New()}, partner.Values{"name": "x"})
	assert.True(t, apperror.IsNotFound(err))
}

func TestUnlink_RemovesPartners(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.svc.Create(ctx, partner.Values{"name": "Ana"}, id.Nil())
	require.NoError(t, err)

	require.NoError(t, f.svc.Unlink(ctx, []id.ID{p.ID}))
	assert.Equal(t, 0, f.repo.Len())
	assert.Equal(t, audit.ActionDelete, f.audit.entries[len(f.audit.entries)-1])
}

func TestRead_TreatmentCount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.svc.Create(ctx, partner.Values{"name": "Ana"}, id.Nil())
	require.NoError(t, err)

	view, err := f.svc.Read(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, view.TreatmentCount)
	assert.Empty(t, view.TreatmentIDs)

	f.treatments[p.ID] = []id.ID{id.New(), id.New()}
	n, err := f.svc.TreatmentCount(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	delete(f.treatments, p.ID)
	n, err = f.svc.TreatmentCount(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestActionMakeTreatment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.svc.Create(ctx, partner.Values{"name": "Ana"}, id.Nil())
	require.NoError(t, err)

	t.Run("no treatments keeps list", func(t *testing.T) {
		w, err := f.svc.ActionMakeTreatment(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, "tree,form", w.ViewMode)
		assert.Len(t, w.Views, 2)
		assert.Nil(t, w.ResID)
		assert.Equal(t, map[string]any{"search_default_partner_id": p.ID.String()}, w.Context)
	})

	t.Run("one treatment opens form", func(t *testing.T) {
		only := id.New()
		f.treatments[p.ID] = []id.ID{only}

		w, err := f.svc.ActionMakeTreatment(ctx, p.ID)
		require.NoError(t, err)
		require.NotNil(t, w.ResID)
		assert.Equal(t, only.String(), *w.ResID)
		assert.Equal(t, "form", w.ViewMode)
		assert.Equal(t, action.TargetCurrent, w.Target)

		raw, err := json.Marshal(w)
		require.NoError(t, err)
		assert.NotContains(t, string(raw), `"views"`)
	})

	t.Run("several treatments keep list", func(t *testing.T) {
		f.treatments[p.ID] = []id.ID{id.New(), id.New()}

		w, err := f.svc.ActionMakeTreatment(ctx, p.ID)
		require.NoError(t, err)
		assert.Nil(t, w.ResID)
		assert.Equal(t, "tree,form", w.ViewMode)
		assert.Len(t, w.Views, 2)
	})

	t.Run("base action is not mutated", func(t *testing.T) {
		f.treatments[p.ID] = []id.ID{id.New()}
		_, err := f.svc.ActionMakeTreatment(ctx, p.ID)
		require.NoError(t, err)

		delete(f.treatments, p.ID)
		w, err := f.svc.ActionMakeTreatment(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, "tree,form", w.ViewMode)
	})

	t.Run("unknown partner", func(t *testing.T) {
		_, err := f.svc.ActionMakeTreatment(ctx, id.New())
		assert.True(t, apperror.IsNotFound(err))
	})
}
