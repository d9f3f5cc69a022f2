package treatment

import (
	"physio/internal/domain"
	"physio/internal/domain/catalogs/partner"
)

// Repository defines Treatment persistence.
type Repository interface {
	domain.CatalogRepository[*Treatment]
	partner.RelatedLister
}
