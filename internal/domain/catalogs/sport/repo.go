package sport

import (
	"context"

	"physio/internal/domain"
)

// Repository defines the interface for Sport persistence.
type Repository interface {
	domain.CatalogRepository[*Sport]

	// FindByName retrieves a sport by exact name, archived ones excluded.
	FindByName(ctx context.Context, name string) (*Sport, error)
}
