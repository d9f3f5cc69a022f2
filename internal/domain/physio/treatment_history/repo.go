package treatment_history

import (
	"physio/internal/domain"
	"physio/internal/domain/catalogs/partner"
)

// Repository defines TreatmentHistory persistence.
type Repository interface {
	domain.CatalogRepository[*TreatmentHistory]
	partner.RelatedLister
}
