package physio

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"physio/internal/core/apperror"
	"physio/internal/core/entity"
	"physio/internal/core/id"
)

// probe is a minimal composing record.
type probe struct {
	entity.Catalog
	PartnerFields
}

func (p *probe) TableName() string { return "probe_record" }

func newProbe() *probe {
	return &probe{Catalog: entity.NewCatalog("", "probe"), PartnerFields: NewPartnerFields(id.New(), id.Nil())}
}

type rejects struct{ tables []string }

func (r *rejects) TemplateDeleteRejected(table string) { r.tables = append(r.tables, table) }

type staticStore map[string]id.ID

func (s staticStore) LoadTemplateRefs(context.Context) (map[string]id.ID, error) {
	if s == nil {
		return nil, errors.New("store down")
	}
	return s, nil
}

func TestTemplateKey(t *testing.T) {
	key := TemplateKey("partner_treatment")
	assert.Equal(t, "physiotherapy_mgmt.template_partner_treatment", key)

	table, ok := TableFromKey(key)
	assert.True(t, ok)
	assert.Equal(t, "partner_treatment", table)

	_, ok = TableFromKey("base.main_company")
	assert.False(t, ok)
}

func TestGuard_RefusesTemplate(t *testing.T) {
	tmpl, other := newProbe(), newProbe()
	reg := NewTemplateRegistry()
	RegisterType[*probe](reg, tmpl.ID)
	obs := &rejects{}

	guard := Guard[*probe](reg, obs)

	err := guard(context.Background(), tmpl)
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
	assert.Equal(t, "Template record can't be deleted!!", appErr.Message)
	assert.Equal(t, []string{"probe_record"}, obs.tables)

	assert.NoError(t, guard(context.Background(), other))
	assert.Len(t, obs.tables, 1)
}

func TestGuard_MissingRegistrationIsInternal(t *testing.T) {
	guard := Guard[*probe](NewTemplateRegistry(), nil)

	err := guard(context.Background(), newProbe())
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInternal, appErr.Code)
	assert.Equal(t, TemplateKey("probe_record"), appErr.Details["key"])
}

func TestTemplateRegistry_Load(t *testing.T) {
	a, b := id.New(), id.New()
	reg := NewTemplateRegistry()

	err := reg.Load(context.Background(), staticStore{
		TemplateKey("partner_treatment"): a,
		TemplateKey("treatment_history"): b,
		"base.main_company":              id.New(),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"physiotherapy_mgmt.template_partner_treatment",
		"physiotherapy_mgmt.template_treatment_history",
	}, reg.Keys())

	got, err := reg.Resolve("treatment_history")
	require.NoError(t, err)
	assert.Equal(t, b, got)

	isTmpl, err := reg.IsTemplate("partner_treatment", b)
	require.NoError(t, err)
	assert.False(t, isTmpl)

	assert.Error(t, reg.Load(context.Background(), staticStore(nil)))
}
