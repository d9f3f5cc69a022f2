package partner

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"physio/internal/core/apperror"
	"physio/internal/core/id"
)

func TestApply_ConvertsValues(t *testing.T) {
	sportID := id.New()
	h1, h2 := id.New(), id.New()

	p := NewPartner()
	err := p.Apply(Values{
		"name":               "Ana Ruiz",
		"birth_date":         "1990-04-12",
		"gender":             "female",
		"sport_id":           sportID.String(),
		FieldPersonalHistory: []any{h1.String(), h2.String(), h1.String()},
		FieldFamiliarHistory: false,
		"sport_practice":     true,
		"attributes":         map[string]any{"insurance": "AX-1"},
		"sport_periodicity":  "five",
		FieldCompanyID:       nil,
	})
	require.NoError(t, err)

	assert.Equal(t, "Ana Ruiz", p.Name)
	require.NotNil(t, p.BirthDate)
	assert.Equal(t, "1990-04-12", p.BirthDate.Format(DateLayout))
	assert.Equal(t, GenderFemale, p.Gender)
	require.NotNil(t, p.SportID)
	assert.Equal(t, sportID, *p.SportID)
	assert.Equal(t, []id.ID{h1, h2}, p.PersonalHistoryIDs)
	assert.Empty(t, p.FamiliarHistoryIDs)
	assert.True(t, p.SportPractice)
	assert.Equal(t, "AX-1", p.Attributes.GetString("insurance"))
	assert.Equal(t, PeriodicityFive, p.SportPeriodicity)
	assert.Nil(t, p.CompanyID)
}

func TestApply_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		vals  Values
		field string
	}{
		{"unknown field", Values{"shoe_size": 42}, "shoe_size"},
		{"read-only field", Values{"treatment_count": 3}, "treatment_count"},
		{"bad date", Values{"birth_date": "12/04/1990"}, "birth_date"},
		{"bad id", Values{"sport_id": "not-a-uuid"}, "sport_id"},
		{"wrong type", Values{"sport_practice": "yes"}, "sport_practice"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewPartner().Apply(tt.vals)
			appErr, ok := apperror.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, apperror.CodeInvalidInput, appErr.Code)
			assert.Equal(t, tt.field, appErr.Details["field"])
		})
	}
}

func TestValidate_Selections(t *testing.T) {
	p := NewPartner()
	p.Name = "Luis"

	p.Gender = "other"
	assert.True(t, apperror.IsValidation(p.Validate(context.Background())))

	p.Gender = GenderMale
	p.SportPeriodicity = "daily"
	assert.True(t, apperror.IsValidation(p.Validate(context.Background())))

	p.SportPeriodicity = ""
	assert.NoError(t, p.Validate(context.Background()))
}

func TestToValues_RoundTrip(t *testing.T) {
	p := NewPartner()
	require.NoError(t, p.Apply(Values{"name": "Eva", "birth_date": "1985-01-30", "civil_state": "married"}))

	v := p.ToValues()
	assert.Equal(t, "1985-01-30", v["birth_date"])
	assert.Equal(t, "married", v["civil_state"])
	assert.Nil(t, v["sport_id"])

	q := NewPartner()
	delete(v, "code")
	require.NoError(t, q.Apply(v))
	assert.Equal(t, p.ToValues(), q.ToValues())
}
