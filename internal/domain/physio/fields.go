// Package physio holds the clinic field set shared by treatment records,
// the partner classifier derived from it and the template delete guard.
package physio

import (
	"fmt"
	"time"

	"physio/internal/core/apperror"
	"physio/internal/core/id"
	"physio/internal/domain/catalogs/partner"
	"physio/internal/metadata"
)

// MixinName is the model name of the shared field set.
const MixinName = "physiotherapy.fields"

// MirroredFields are the partner fields every composing record exposes read-only.
var MirroredFields = []string{
	"birth_date",
	"gender",
	"civil_state",
	"allergies",
	"function",
	"style_of_life",
	"sport_practice",
	"sport_id",
	"sport_periodicity",
	partner.FieldPersonalHistory,
	partner.FieldFamiliarHistory,
}

// PartnerFields is embedded by records that belong to one partner.
// Stored columns are the owner reference, active flag, creation date and company.
// Everything else is read through the bound Partner and never stored here.
type PartnerFields struct {
	PartnerID  id.ID     `db:"partner_id" json:"partner_id" binding:"required" ref:"res.partner" label:"Partner"`
	Active     bool      `db:"active" json:"active"`
	CreateDate time.Time `db:"create_date" json:"create_date"`
	CompanyID  *id.ID    `db:"company_id" json:"company_id" ref:"res.company" label:"Company"`

	partner *partner.Partner
}

// NewPartnerFields returns active fields owned by partnerID. A nil companyID
// leaves the company empty.
func NewPartnerFields(partnerID, companyID id.ID) PartnerFields {
	f := PartnerFields{
		PartnerID:  partnerID,
		Active:     true,
		CreateDate: time.Now().UTC(),
	}
	if !id.IsNil(companyID) {
		f.CompanyID = &companyID
	}
	return f
}

// ValidateFields checks the owner reference.
func (f *PartnerFields) ValidateFields() error {
	if id.IsNil(f.PartnerID) {
		return apperror.NewValidation("partner is required").
			WithDetail("field", "partner_id")
	}
	return nil
}

// Bind attaches the owning partner used by the mirrored accessors.
func (f *PartnerFields) Bind(p *partner.Partner) error {
	if p == nil {
		f.partner = nil
		return nil
	}
	if p.ID != f.PartnerID {
		return fmt.Errorf("bind partner %s to record owned by %s", p.ID, f.PartnerID)
	}
	f.partner = p
	return nil
}

// Owner returns the bound partner or nil.
func (f *PartnerFields) Owner() *partner.Partner {
	return f.partner
}

func (f *PartnerFields) BirthDate() *time.Time {
	if f.partner == nil {
		return nil
	}
	return f.partner.BirthDate
}

func (f *PartnerFields) Gender() partner.Gender {
	if f.partner == nil {
		return ""
	}
	return f.partner.Gender
}

func (f *PartnerFields) CivilState() partner.CivilState {
	if f.partner == nil {
		return ""
	}
	return f.partner.CivilState
}

func (f *PartnerFields) Allergies() string {
	if f.partner == nil {
		return ""
	}
	return f.partner.Allergies
}

func (f *PartnerFields) Function() string {
	if f.partner == nil {
		return ""
	}
	return f.partner.Function
}

func (f *PartnerFields) StyleOfLife() string {
	if f.partner == nil {
		return ""
	}
	return f.partner.StyleOfLife
}

func (f *PartnerFields) SportPractice() bool {
	return f.partner != nil && f.partner.SportPractice
}

func (f *PartnerFields) SportID() *id.ID {
	if f.partner == nil {
		return nil
	}
	return f.partner.SportID
}

func (f *PartnerFields) SportPeriodicity() partner.SportPeriodicity {
	if f.partner == nil {
		return ""
	}
	return f.partner.SportPeriodicity
}

func (f *PartnerFields) PersonalHistoryIDs() []id.ID {
	if f.partner == nil {
		return nil
	}
	return f.partner.PersonalHistoryIDs
}

func (f *PartnerFields) FamiliarHistoryIDs() []id.ID {
	if f.partner == nil {
		return nil
	}
	return f.partner.FamiliarHistoryIDs
}

// Mirrored returns the mirrored values keyed by field name, read at call time.
func (f *PartnerFields) Mirrored() map[string]any {
	out := map[string]any{
		"birth_date":                 nil,
		"gender":                     string(f.Gender()),
		"civil_state":                string(f.CivilState()),
		"allergies":                  f.Allergies(),
		"function":                   f.Function(),
		"style_of_life":              f.StyleOfLife(),
		"sport_practice":             f.SportPractice(),
		"sport_id":                   nil,
		"sport_periodicity":          string(f.SportPeriodicity()),
		partner.FieldPersonalHistory: id.Strings(f.PersonalHistoryIDs()),
		partner.FieldFamiliarHistory: id.Strings(f.FamiliarHistoryIDs()),
	}
	if d := f.BirthDate(); d != nil {
		out["birth_date"] = d.Format(partner.DateLayout)
	}
	if s := f.SportID(); s != nil {
		out["sport_id"] = s.String()
	}
	return out
}

// Schema describes the mixin: its stored fields plus the mirrored partner fields.
func Schema() metadata.EntityDef {
	def := metadata.Inspect(PartnerFields{}, MixinName, metadata.TypeMixin)
	def.Label = "Fields related with partner to be used on physiotherapy"
	if missing := def.AddRelated(partner.Describe(), "partner_id", MirroredFields...); len(missing) > 0 {
		panic(fmt.Sprintf("physio: partner lacks mirrored fields %v", missing))
	}
	return def
}
