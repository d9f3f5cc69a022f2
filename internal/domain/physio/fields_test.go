package physio

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"physio/internal/core/apperror"
	"physio/internal/core/id"
	"physio/internal/domain/catalogs/partner"
	"physio/internal/metadata"
)

func TestSchema_DeclaresStoredAndMirroredFields(t *testing.T) {
	def := Schema()

	assert.Equal(t, MixinName, def.Name)
	assert.Equal(t, metadata.TypeMixin, def.Type)
	assert.Empty(t, def.TableName)

	for _, name := range []string{"partner_id", "active", "create_date", "company_id"} {
		f, ok := def.Field(name)
		require.True(t, ok, name)
		assert.True(t, f.Stored(), name)
	}

	pid, _ := def.Field("partner_id")
	assert.True(t, pid.Required)
	assert.Equal(t, partner.ModelName, pid.ReferenceType)

	for _, name := range MirroredFields {
		f, ok := def.Field(name)
		require.True(t, ok, name)
		assert.True(t, f.ReadOnly, name)
		assert.False(t, f.Stored(), name)
		assert.Equal(t, "partner_id."+name, f.Related)
	}

	periodicity, _ := def.Field("sport_periodicity")
	assert.Equal(t, metadata.TypeSelection, periodicity.Type)
	assert.Len(t, periodicity.Options, 3)

	_, ok := def.Field(metadata.FieldLastUpdate)
	assert.True(t, ok)
}

func TestPartnerFields_MirrorsOwnerAtReadTime(t *testing.T) {
	p := partner.NewPartner()
	p.Name = "Ana"
	p.Gender = partner.GenderFemale
	birth := time.Date(1990, 4, 12, 0, 0, 0, 0, time.UTC)
	p.BirthDate = &birth

	f := NewPartnerFields(p.ID, id.Nil())
	assert.Nil(t, f.CompanyID)
	assert.True(t, f.Active)
	assert.Equal(t, partner.Gender(""), f.Gender(), "unbound fields read empty")

	require.NoError(t, f.Bind(p))
	assert.Equal(t, partner.GenderFemale, f.Gender())
	assert.Equal(t, "1990-04-12", f.Mirrored()["birth_date"])

	p.Allergies = "latex"
	assert.Equal(t, "latex", f.Allergies(), "later owner changes are visible")
	assert.Equal(t, "latex", f.Mirrored()["allergies"])
}

func TestPartnerFields_BindRejectsOtherPartner(t *testing.T) {
	f := NewPartnerFields(id.New(), id.New())
	require.NotNil(t, f.CompanyID)

	err := f.Bind(partner.NewPartner())
	assert.Error(t, err)
	assert.Nil(t, f.Owner())
}

func TestPartnerFields_ValidateFields(t *testing.T) {
	var f PartnerFields
	assert.True(t, apperror.IsValidation(f.ValidateFields()))

	f.PartnerID = id.New()
	assert.NoError(t, f.ValidateFields())
}
