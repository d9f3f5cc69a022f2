package physio

import (
	"sort"

	"physio/internal/domain/catalogs/partner"
	"physio/internal/metadata"
)

// nonTriggering fields exist on every record and never mark a patient.
var nonTriggering = []string{
	metadata.FieldLastUpdate,
	"active",
	metadata.FieldID,
	"company_id",
	"create_date",
	metadata.FieldDisplayName,
	"function",
	"partner_id",
}

// Classifier flags partners whose payload touches clinic fields.
// The trigger set is computed once from the mixin schema.
type Classifier struct {
	triggers map[string]struct{}
}

var _ partner.Classifier = (*Classifier)(nil)

// NewClassifier builds the trigger set: all fields declared on mixin minus
// the bookkeeping fields.
func NewClassifier(mixin metadata.EntityDef) *Classifier {
	skip := make(map[string]bool, len(nonTriggering))
	for _, f := range nonTriggering {
		skip[f] = true
	}

	triggers := make(map[string]struct{})
	for _, name := range mixin.FieldNames() {
		if !skip[name] {
			triggers[name] = struct{}{}
		}
	}
	return &Classifier{triggers: triggers}
}

// Triggers returns the sorted trigger field names.
func (c *Classifier) Triggers() []string {
	out := make([]string, 0, len(c.triggers))
	for f := range c.triggers {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// Matches reports whether vals touches at least one trigger field.
func (c *Classifier) Matches(vals partner.Values) bool {
	for field := range vals {
		if _, ok := c.triggers[field]; ok {
			return true
		}
	}
	return false
}

// Classify sets physiotherapy_partner = true in vals when it matches.
// It never sets the flag to false.
func (c *Classifier) Classify(vals partner.Values) bool {
	if !c.Matches(vals) {
		return false
	}
	vals[partner.FieldPhysiotherapyPartner] = true
	return true
}
