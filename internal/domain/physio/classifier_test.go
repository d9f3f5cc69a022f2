package physio

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"physio/internal/domain/catalogs/partner"
)

func TestClassifier_Triggers(t *testing.T) {
	c := NewClassifier(Schema())

	assert.Equal(t, []string{
		"allergies",
		"birth_date",
		"civil_state",
		partner.FieldFamiliarHistory,
		"gender",
		partner.FieldPersonalHistory,
		"sport_id",
		"sport_periodicity",
		"sport_practice",
		"style_of_life",
	}, c.Triggers())
}

func TestClassifier_Classify(t *testing.T) {
	c := NewClassifier(Schema())

	tests := []struct {
		name    string
		vals    partner.Values
		flagged bool
	}{
		{"clinic field on create", partner.Values{"name": "Ana", "gender": "female"}, true},
		{"plain contact", partner.Values{"name": "Acme", "email": "a@acme.test"}, false},
		{"excluded fields only", partner.Values{"function": "CTO", "active": true, "company_id": nil}, false},
		{"history relation", partner.Values{partner.FieldFamiliarHistory: []string{}}, true},
		{"clearing a clinic field", partner.Values{"allergies": false}, true},
		{"empty payload", partner.Values{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(tt.vals)
			assert.Equal(t, tt.flagged, got)
			if tt.flagged {
				assert.Equal(t, true, tt.vals[partner.FieldPhysiotherapyPartner])
			} else {
				assert.NotContains(t, tt.vals, partner.FieldPhysiotherapyPartner)
			}
		})
	}
}

func TestClassifier_NeverUnsets(t *testing.T) {
	c := NewClassifier(Schema())

	vals := partner.Values{"name": "Ana", partner.FieldPhysiotherapyPartner: true}
	assert.False(t, c.Classify(vals))
	assert.Equal(t, true, vals[partner.FieldPhysiotherapyPartner])

	vals = partner.Values{"gender": "male", partner.FieldPhysiotherapyPartner: false}
	assert.True(t, c.Classify(vals))
	assert.Equal(t, true, vals[partner.FieldPhysiotherapyPartner])
}

func TestClassifier_Idempotent(t *testing.T) {
	c := NewClassifier(Schema())
	vals := partner.Values{"sport_practice": true}

	c.Classify(vals)
	first := vals.Clone()
	c.Classify(vals)
	assert.Equal(t, first, vals)
}
