// Package treatment provides partner treatments: one treatment plan per
// condition of a patient, carrying the patient's clinic fields.
package treatment

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"physio/internal/core/apperror"
	"physio/internal/core/entity"
	"physio/internal/core/id"
	"physio/internal/domain/action"
	"physio/internal/domain/physio"
	"physio/internal/metadata"
)

const (
	ModelName = "partner.treatment"
	TableName = "partner_treatment"
)

// Treatment is a treatment plan of one partner.
type Treatment struct {
	entity.Catalog
	physio.PartnerFields

	Diagnosis string     `db:"diagnosis" json:"diagnosis"`
	Notes     string     `db:"notes" json:"notes"`
	StartDate *time.Time `db:"start_date" json:"start_date" meta:"date"`
	EndDate   *time.Time `db:"end_date" json:"end_date" meta:"date"`
	Sessions  int        `db:"sessions" json:"sessions" label:"Planned Sessions"`
}

// NewTreatment creates a treatment for partnerID in companyID.
func NewTreatment(name string, partnerID, companyID id.ID) *Treatment {
	return &Treatment{
		Catalog:       entity.NewCatalog("", name),
		PartnerFields: physio.NewPartnerFields(partnerID, companyID),
	}
}

// TableName implements physio.Composing.
func (t *Treatment) TableName() string { return TableName }

// Validate implements entity.Validatable.
func (t *Treatment) Validate(ctx context.Context) error {
	if err := t.Catalog.Validate(ctx); err != nil {
		return err
	}
	if err := t.ValidateFields(); err != nil {
		return err
	}
	if t.Sessions < 0 {
		return apperror.NewValidation("sessions must not be negative").
			WithDetail("field", "sessions")
	}
	if t.SessionFee().IsNegative() {
		return apperror.NewValidation("session fee must not be negative").
			WithDetail("field", AttrSessionFee)
	}
	if t.StartDate != nil && t.EndDate != nil && t.EndDate.Before(*t.StartDate) {
		return apperror.NewValidation("end date is before start date").
			WithDetail("field", "end_date")
	}
	return nil
}

// AttrSessionFee is the custom attribute holding the price of one session.
const AttrSessionFee = "session_fee"

// SessionFee returns the session price, zero when unset.
func (t *Treatment) SessionFee() decimal.Decimal {
	return t.Attributes.GetDecimal(AttrSessionFee)
}

func (t *Treatment) SetSessionFee(fee decimal.Decimal) {
	t.Attributes.SetDecimal(AttrSessionFee, fee)
}

// Describe returns the model's field definitions, mirrored fields included.
func Describe() metadata.EntityDef {
	def := metadata.Inspect(&Treatment{}, ModelName, metadata.TypeRecord)
	def.Label = "Treatment"
	def.TableName = TableName
	mixin := physio.Schema()
	for _, name := range physio.MirroredFields {
		if f, ok := mixin.Field(name); ok {
			def.Fields = append(def.Fields, f)
		}
	}
	return def
}

// WindowAction is the list window of treatments.
func WindowAction() action.Window {
	return action.Window{
		Name:     "Treatments",
		ResModel: ModelName,
		Context:  map[string]any{},
		Target:   action.TargetCurrent,
		ViewMode: action.ViewTree + "," + action.ViewForm,
		Views:    []action.View{{Mode: action.ViewTree}, {Mode: action.ViewForm}},
	}
}
