package dto

import (
	"github.com/shopspring/decimal"

	"physio/internal/core/apperror"
	"physio/internal/core/id"
	"physio/internal/domain/physio/treatment"
	"physio/internal/domain/physio/treatment_history"
)

// CreateTreatmentRequest for POST /physio/treatments.
type CreateTreatmentRequest struct {
	Code       string           `json:"code" binding:"max=32"`
	Name       string           `json:"name" binding:"required,max=255"`
	PartnerID  string           `json:"partner_id" binding:"required,uuid"`
	CompanyID  *string          `json:"company_id" binding:"omitempty,uuid"`
	Diagnosis  string           `json:"diagnosis"`
	Notes      string           `json:"notes"`
	StartDate  *string          `json:"start_date" binding:"omitempty,datetime=2006-01-02"`
	EndDate    *string          `json:"end_date" binding:"omitempty,datetime=2006-01-02"`
	Sessions   int              `json:"sessions" binding:"min=0"`
	SessionFee *decimal.Decimal `json:"session_fee"`
}

// UpdateTreatmentRequest for PUT /physio/treatments/:id. partner_id may be moved.
type UpdateTreatmentRequest struct {
	Code       *string          `json:"code" binding:"omitempty,max=32"`
	Name       *string          `json:"name" binding:"omitempty,min=1,max=255"`
	PartnerID  *string          `json:"partner_id" binding:"omitempty,uuid"`
	Active     *bool            `json:"active"`
	Diagnosis  *string          `json:"diagnosis"`
	Notes      *string          `json:"notes"`
	StartDate  *string          `json:"start_date" binding:"omitempty,datetime=2006-01-02"`
	EndDate    *string          `json:"end_date" binding:"omitempty,datetime=2006-01-02"`
	Sessions   *int             `json:"sessions" binding:"omitempty,min=0"`
	SessionFee *decimal.Decimal `json:"session_fee"`
	Version    int              `json:"version" binding:"required,min=1"`
}

// ToEntity builds the treatment. defaultCompany applies when company_id is absent.
func (r CreateTreatmentRequest) ToEntity(defaultCompany id.ID) (*treatment.Treatment, error) {
	partnerID, err := id.Parse(r.PartnerID)
	if err != nil {
		return nil, apperror.NewInvalidInput("partner_id", "invalid id")
	}
	company := defaultCompany
	if ref, err := parseRef("company_id", r.CompanyID); err != nil {
		return nil, err
	} else if ref != nil {
		company = *ref
	}

	t := treatment.NewTreatment(r.Name, partnerID, company)
	t.Code = r.Code
	t.Diagnosis = r.Diagnosis
	t.Notes = r.Notes
	t.Sessions = r.Sessions
	if t.StartDate, err = parseDate("start_date", r.StartDate); err != nil {
		return nil, err
	}
	if t.EndDate, err = parseDate("end_date", r.EndDate); err != nil {
		return nil, err
	}
	if r.SessionFee != nil {
		t.SetSessionFee(*r.SessionFee)
	}
	return t, nil
}

// ApplyTo copies the set fields onto t.
func (r UpdateTreatmentRequest) ApplyTo(t *treatment.Treatment) (*treatment.Treatment, error) {
	if r.Code != nil {
		t.Code = *r.Code
	}
	if r.Name != nil {
		t.Name = *r.Name
	}
	if r.PartnerID != nil {
		ref, err := parseRef("partner_id", r.PartnerID)
		if err != nil {
			return nil, err
		}
		if ref != nil && *ref != t.PartnerID {
			t.PartnerID = *ref
			_ = t.Bind(nil)
		}
	}
	if r.Active != nil {
		t.Active = *r.Active
	}
	if r.Diagnosis != nil {
		t.Diagnosis = *r.Diagnosis
	}
	if r.Notes != nil {
		t.Notes = *r.Notes
	}
	var err error
	if r.StartDate != nil {
		if t.StartDate, err = parseDate("start_date", r.StartDate); err != nil {
			return nil, err
		}
	}
	if r.EndDate != nil {
		if t.EndDate, err = parseDate("end_date", r.EndDate); err != nil {
			return nil, err
		}
	}
	if r.Sessions != nil {
		t.Sessions = *r.Sessions
	}
	if r.SessionFee != nil {
		t.SetSessionFee(*r.SessionFee)
	}
	t.Version = r.Version
	return t, nil
}

// FromTreatment renders a treatment with its mirrored partner fields at top level.
func FromTreatment(t *treatment.Treatment) (map[string]any, error) {
	extra := t.Mirrored()
	extra["display_name"] = t.DisplayName()
	extra["start_date"] = formatDate(t.StartDate)
	extra["end_date"] = formatDate(t.EndDate)
	extra["session_fee"] = t.SessionFee().StringFixed(2)
	return flatten(t, extra)
}

// CreateTreatmentHistoryRequest for POST /physio/treatment-histories.
type CreateTreatmentHistoryRequest struct {
	Code        string  `json:"code" binding:"max=32"`
	Name        string  `json:"name" binding:"required,max=255"`
	PartnerID   string  `json:"partner_id" binding:"required,uuid"`
	CompanyID   *string `json:"company_id" binding:"omitempty,uuid"`
	TreatmentID *string `json:"treatment_id" binding:"omitempty,uuid"`
	SessionDate *string `json:"session_date" binding:"omitempty,datetime=2006-01-02"`
	Notes       string  `json:"notes"`
}

// UpdateTreatmentHistoryRequest for PUT /physio/treatment-histories/:id.
type UpdateTreatmentHistoryRequest struct {
	Code        *string `json:"code" binding:"omitempty,max=32"`
	Name        *string `json:"name" binding:"omitempty,min=1,max=255"`
	Active      *bool   `json:"active"`
	TreatmentID *string `json:"treatment_id" binding:"omitempty,uuid"`
	SessionDate *string `json:"session_date" binding:"omitempty,datetime=2006-01-02"`
	Notes       *string `json:"notes"`
	Version     int     `json:"version" binding:"required,min=1"`
}

func (r CreateTreatmentHistoryRequest) ToEntity(defaultCompany id.ID) (*treatment_history.TreatmentHistory, error) {
	partnerID, err := id.Parse(r.PartnerID)
	if err != nil {
		return nil, apperror.NewInvalidInput("partner_id", "invalid id")
	}
	company := defaultCompany
	if ref, err := parseRef("company_id", r.CompanyID); err != nil {
		return nil, err
	} else if ref != nil {
		company = *ref
	}

	h := treatment_history.NewTreatmentHistory(r.Name, partnerID, company)
	h.Code = r.Code
	h.Notes = r.Notes
	if h.TreatmentID, err = parseRef("treatment_id", r.TreatmentID); err != nil {
		return nil, err
	}
	if h.SessionDate, err = parseDate("session_date", r.SessionDate); err != nil {
		return nil, err
	}
	return h, nil
}

func (r UpdateTreatmentHistoryRequest) ApplyTo(h *treatment_history.TreatmentHistory) (*treatment_history.TreatmentHistory, error) {
	var err error
	if r.Code != nil {
		h.Code = *r.Code
	}
	if r.Name != nil {
		h.Name = *r.Name
	}
	if r.Active != nil {
		h.Active = *r.Active
	}
	if r.TreatmentID != nil {
		if h.TreatmentID, err = parseRef("treatment_id", r.TreatmentID); err != nil {
			return nil, err
		}
	}
	if r.SessionDate != nil {
		if h.SessionDate, err = parseDate("session_date", r.SessionDate); err != nil {
			return nil, err
		}
	}
	if r.Notes != nil {
		h.Notes = *r.Notes
	}
	h.Version = r.Version
	return h, nil
}

func FromTreatmentHistory(h *treatment_history.TreatmentHistory) (map[string]any, error) {
	extra := h.Mirrored()
	extra["display_name"] = h.DisplayName()
	extra["session_date"] = formatDate(h.SessionDate)
	return flatten(h, extra)
}
