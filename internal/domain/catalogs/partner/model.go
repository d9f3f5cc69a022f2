// Package partner provides the Partner catalog: clinic contacts and patients.
package partner

import (
	"context"
	"time"

	"physio/internal/core/apperror"
	"physio/internal/core/entity"
	"physio/internal/core/id"
	"physio/internal/metadata"
)

// Model and table names.
const (
	ModelName = "res.partner"
	TableName = "res_partner"
)

// Field names used outside the package.
const (
	FieldPhysiotherapyPartner = "physiotherapy_partner"
	FieldCompanyID            = "company_id"
	FieldPersonalHistory      = "personal_history_id"
	FieldFamiliarHistory      = "familiar_history_id"
)

// Gender of a patient.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

func (Gender) SelectionOptions() []metadata.Option {
	return []metadata.Option{
		{Value: string(GenderMale), Label: "Male"},
		{Value: string(GenderFemale), Label: "Female"},
	}
}

// CivilState of a patient.
type CivilState string

const (
	CivilSingle  CivilState = "single"
	CivilMarried CivilState = "married"
)

func (CivilState) SelectionOptions() []metadata.Option {
	return []metadata.Option{
		{Value: string(CivilSingle), Label: "Single"},
		{Value: string(CivilMarried), Label: "Married"},
	}
}

// SportPeriodicity is how often the patient practices sport.
type SportPeriodicity string

const (
	PeriodicityTwo   SportPeriodicity = "two"
	PeriodicityFive  SportPeriodicity = "five"
	PeriodicitySeven SportPeriodicity = "seven"
)

func (SportPeriodicity) SelectionOptions() []metadata.Option {
	return []metadata.Option{
		{Value: string(PeriodicityTwo), Label: "1 - 2 per week"},
		{Value: string(PeriodicityFive), Label: "2 - 5 per week"},
		{Value: string(PeriodicitySeven), Label: "6 or more"},
	}
}

// validSelection accepts the empty value (field not set) or a declared option.
func validSelection[S ~string](v S, opts []metadata.Option) bool {
	if v == "" {
		return true
	}
	for _, o := range opts {
		if o.Value == string(v) {
			return true
		}
	}
	return false
}

// Partner is a contact. Clinic patients carry the medical fields below and
// have PhysiotherapyPartner set.
type Partner struct {
	entity.Catalog

	Email     string `db:"email" json:"email"`
	Phone     string `db:"phone" json:"phone"`
	Function  string `db:"function" json:"function" label:"Job Position"`
	CompanyID *id.ID `db:"company_id" json:"company_id" ref:"res.company" label:"Company"`
	Active    bool   `db:"active" json:"active"`

	PhysiotherapyPartner bool `db:"physiotherapy_partner" json:"physiotherapy_partner" label:"Physiotherapy Partner"`

	BirthDate          *time.Time       `db:"birth_date" json:"birth_date" meta:"date" label:"Date of Birth"`
	Gender             Gender           `db:"gender" json:"gender"`
	CivilState         CivilState       `db:"civil_state" json:"civil_state" label:"Civil State"`
	Allergies          string           `db:"allergies" json:"allergies"`
	StyleOfLife        string           `db:"style_of_life" json:"style_of_life" label:"Style of life"`
	SportPractice      bool             `db:"sport_practice" json:"sport_practice" label:"Practice Sports??"`
	SportID            *id.ID           `db:"sport_id" json:"sport_id" ref:"partner.sport" label:"Sport practice"`
	SportPeriodicity   SportPeriodicity `db:"sport_periodicity" json:"sport_periodicity" label:"Periodicity"`
	PersonalHistoryIDs []id.ID          `db:"-" json:"personal_history_id" ref:"personal.history" label:"Personal history"`
	FamiliarHistoryIDs []id.ID          `db:"-" json:"familiar_history_id" ref:"familiar.history" label:"Familiar history"`

	CreateDate time.Time `db:"create_date" json:"create_date" meta:"readonly"`
}

// NewPartner returns an active partner with a fresh id.
func NewPartner() *Partner {
	return &Partner{
		Catalog:    entity.NewCatalog("", ""),
		Active:     true,
		CreateDate: time.Now().UTC(),
	}
}

// Validate implements entity.Validatable.
func (p *Partner) Validate(ctx context.Context) error {
	if err := p.Catalog.Validate(ctx); err != nil {
		return err
	}
	if !validSelection(p.Gender, Gender("").SelectionOptions()) {
		return apperror.NewValidation("invalid gender").
			WithDetail("field", "gender").
			WithDetail("value", string(p.Gender))
	}
	if !validSelection(p.CivilState, CivilState("").SelectionOptions()) {
		return apperror.NewValidation("invalid civil state").
			WithDetail("field", "civil_state").
			WithDetail("value", string(p.CivilState))
	}
	if !validSelection(p.SportPeriodicity, SportPeriodicity("").SelectionOptions()) {
		return apperror.NewValidation("invalid sport periodicity").
			WithDetail("field", "sport_periodicity").
			WithDetail("value", string(p.SportPeriodicity))
	}
	if p.BirthDate != nil && p.BirthDate.After(time.Now()) {
		return apperror.NewValidation("birth date is in the future").
			WithDetail("field", "birth_date")
	}
	return nil
}

// Describe returns the model's field definitions.
func Describe() metadata.EntityDef {
	def := metadata.Inspect(&View{}, ModelName, metadata.TypeCatalog)
	def.TableName = TableName
	def.Label = "Contact"
	return def
}

// View is the read model: the partner plus its derived relations.
type View struct {
	*Partner

	TreatmentIDs        []id.ID `json:"treatment_ids" ref:"partner.treatment" meta:"one2many,readonly" label:"Treatments"`
	TreatmentHistoryIDs []id.ID `json:"treatment_history_ids" ref:"treatment.history" meta:"one2many,readonly" label:"Treatment Histories"`
	TreatmentCount      int     `json:"treatment_count" meta:"readonly"`
}
