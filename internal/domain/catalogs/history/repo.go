package history

import (
	"physio/internal/domain"
)

// Repository defines persistence of one history kind.
type Repository interface {
	domain.CatalogRepository[*Entry]
}
