// Package sport provides the Sport catalog referenced by partners.
package sport

import (
	"context"

	"physio/internal/core/entity"
	"physio/internal/metadata"
)

const (
	ModelName = "partner.sport"
	TableName = "partner_sport"
)

// Sport a patient practices.
type Sport struct {
	entity.Catalog

	Description string `db:"description" json:"description"`
}

// NewSport creates a sport with a generated ID. Code is filled on create.
func NewSport(name string) *Sport {
	return &Sport{Catalog: entity.NewCatalog("", name)}
}

// Validate implements entity.Validatable interface.
func (s *Sport) Validate(ctx context.Context) error {
	return s.Catalog.Validate(ctx)
}

func Describe() metadata.EntityDef {
	def := metadata.Inspect(&Sport{}, ModelName, metadata.TypeCatalog)
	def.Label = "Sport"
	def.TableName = TableName
	return def
}
