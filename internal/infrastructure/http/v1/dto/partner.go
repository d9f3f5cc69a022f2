package dto

import (
	"physio/internal/domain/catalogs/partner"
)

// WriteRequest applies one payload to several partners.
type WriteRequest struct {
	IDs    []string       `json:"ids" binding:"required,min=1,dive,uuid"`
	Values partner.Values `json:"values" binding:"required"`
}

// PartnerResponse is the partner read model plus its display name.
type PartnerResponse struct {
	*partner.View
	DisplayName string `json:"display_name"`
}

func FromPartnerView(v *partner.View) PartnerResponse {
	return PartnerResponse{View: v, DisplayName: v.DisplayName()}
}

// FromPartner maps a list row; derived relations are not loaded for lists.
func FromPartner(p *partner.Partner) any {
	return PartnerResponse{View: &partner.View{Partner: p}, DisplayName: p.DisplayName()}
}
