// Package treatment_history records the sessions performed for a partner,
// optionally linked to one of the partner's treatments.
package treatment_history

import (
	"context"
	"time"

	"physio/internal/core/apperror"
	"physio/internal/core/entity"
	"physio/internal/core/id"
	"physio/internal/domain/physio"
	"physio/internal/metadata"
)

const (
	ModelName = "treatment.history"
	TableName = "treatment_history"
)

// TreatmentHistory is one session entry of a partner.
type TreatmentHistory struct {
	entity.Catalog
	physio.PartnerFields

	TreatmentID *id.ID     `db:"treatment_id" json:"treatment_id" ref:"partner.treatment" label:"Treatment"`
	SessionDate *time.Time `db:"session_date" json:"session_date" meta:"date"`
	Notes       string     `db:"notes" json:"notes"`
}

// NewTreatmentHistory creates an entry for partnerID in companyID.
func NewTreatmentHistory(name string, partnerID, companyID id.ID) *TreatmentHistory {
	return &TreatmentHistory{
		Catalog:       entity.NewCatalog("", name),
		PartnerFields: physio.NewPartnerFields(partnerID, companyID),
	}
}

// TableName implements physio.Composing.
func (h *TreatmentHistory) TableName() string { return TableName }

// Validate implements entity.Validatable.
func (h *TreatmentHistory) Validate(ctx context.Context) error {
	if err := h.Catalog.Validate(ctx); err != nil {
		return err
	}
	if err := h.ValidateFields(); err != nil {
		return err
	}
	if h.TreatmentID != nil && id.IsNil(*h.TreatmentID) {
		return apperror.NewValidation("treatment id is empty").
			WithDetail("field", "treatment_id")
	}
	return nil
}

// Describe returns the model's field definitions, mirrored fields included.
func Describe() metadata.EntityDef {
	def := metadata.Inspect(&TreatmentHistory{}, ModelName, metadata.TypeRecord)
	def.Label = "Treatment History"
	def.TableName = TableName
	mixin := physio.Schema()
	for _, name := range physio.MirroredFields {
		if f, ok := mixin.Field(name); ok {
			def.Fields = append(def.Fields, f)
		}
	}
	return def
}
