// Package history provides the personal and familiar medical history catalogs.
// Both share one shape and differ by model and table.
package history

import (
	"context"
	"fmt"

	"physio/internal/core/entity"
	"physio/internal/metadata"
)

// Kind selects the catalog.
type Kind string

const (
	Personal Kind = "personal"
	Familiar Kind = "familiar"
)

// ModelName returns e.g. "personal.history".
func (k Kind) ModelName() string { return string(k) + ".history" }

// TableName returns e.g. "personal_history".
func (k Kind) TableName() string { return string(k) + "_history" }

// RelTable is the partner relation table, e.g. "personal_history_rel".
func (k Kind) RelTable() string { return k.TableName() + "_rel" }

func (k Kind) Valid() bool { return k == Personal || k == Familiar }

// ParseKind accepts "personal" or "familiar".
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !k.Valid() {
		return "", fmt.Errorf("unknown history kind %q", s)
	}
	return k, nil
}

// Entry is a condition in a patient's or family's history.
type Entry struct {
	entity.Catalog

	Kind        Kind   `db:"-" json:"kind"`
	Description string `db:"description" json:"description"`
}

func NewEntry(kind Kind, name string) *Entry {
	return &Entry{Catalog: entity.NewCatalog("", name), Kind: kind}
}

// Validate implements entity.Validatable interface.
func (e *Entry) Validate(ctx context.Context) error {
	return e.Catalog.Validate(ctx)
}

func Describe(kind Kind) metadata.EntityDef {
	def := metadata.Inspect(&Entry{}, kind.ModelName(), metadata.TypeCatalog)
	switch kind {
	case Personal:
		def.Label = "Personal History"
	case Familiar:
		def.Label = "Familiar History"
	}
	def.TableName = kind.TableName()
	return def
}
