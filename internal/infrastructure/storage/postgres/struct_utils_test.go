package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"physio/internal/core/id"
	"physio/internal/domain/catalogs/partner"
	"physio/internal/domain/physio/treatment"
)

func TestExtractDBColumns_FlattensMixin(t *testing.T) {
	cols := ExtractDBColumns[treatment.Treatment]()

	assert.Equal(t, []string{
		"id", "deletion_mark", "version", "attributes",
		"code", "name",
		"partner_id", "active", "create_date", "company_id",
		"diagnosis", "notes", "start_date", "end_date", "sessions",
	}, cols)
}

func TestExtractDBColumns_SkipsRelations(t *testing.T) {
	cols := ExtractDBColumns[*partner.Partner]()

	assert.Contains(t, cols, "physiotherapy_partner")
	assert.Contains(t, cols, "sport_periodicity")
	assert.NotContains(t, cols, partner.FieldPersonalHistory)
	assert.NotContains(t, cols, partner.FieldFamiliarHistory)
}

func TestStructToMap_Treatment(t *testing.T) {
	owner, company := id.New(), id.New()
	tr := treatment.NewTreatment("Lower back", owner, company)
	tr.Code = "TRT-2026-00001"
	tr.Sessions = 8
	start := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	tr.StartDate = &start

	m := StructToMap(tr)

	assert.Equal(t, tr.ID, m["id"])
	assert.Equal(t, "TRT-2026-00001", m["code"])
	assert.Equal(t, owner, m["partner_id"])
	require.IsType(t, &id.ID{}, m["company_id"])
	assert.Equal(t, company, *m["company_id"].(*id.ID))
	assert.Equal(t, true, m["active"])
	assert.Equal(t, 8, m["sessions"])
	assert.Equal(t, &start, m["start_date"])
	assert.Nil(t, m["end_date"])
	assert.NotContains(t, m, "partner")
}

func TestStructToMap_NilAndNonStruct(t *testing.T) {
	var p *partner.Partner
	assert.Nil(t, StructToMap(p))
	assert.Nil(t, StructToMap(42))
}
