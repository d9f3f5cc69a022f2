package partner

import (
	"context"

	"physio/internal/core/id"
	"physio/internal/domain"
)

// Repository defines Partner persistence. Create and Update also sync the
// personal_history_rel and familiar_history_rel relation tables.
type Repository interface {
	domain.CatalogRepository[*Partner]
}

// RelatedLister lists records that point at a partner through partner_id.
type RelatedLister interface {
	IDsByPartner(ctx context.Context, partnerID id.ID) ([]id.ID, error)
}

// Classifier inspects a create/write payload and sets
// physiotherapy_partner = true in it when the payload touches clinic fields.
// It reports whether it did.
type Classifier interface {
	Classify(vals Values) bool
}

// Observer receives partner events for metrics.
type Observer interface {
	PartnerClassified(op string)
}
