package main

import (
	"physio/internal/domain/catalogs/history"
	"physio/internal/domain/catalogs/partner"
	"physio/internal/domain/catalogs/sport"
	"physio/internal/domain/physio/treatment"
	"physio/internal/domain/physio/treatment_history"
	"physio/internal/metadata"
)

// setupMetadataRegistry registers every model served by /api/v1/meta.
// mixin is the physiotherapy field schema shared with the classifier.
func setupMetadataRegistry(mixin metadata.EntityDef) *metadata.Registry {
	reg := metadata.NewRegistry()

	// --- Catalogs ---
	reg.Register(partner.Describe())
	reg.Register(sport.Describe())
	reg.Register(history.Describe(history.Personal))
	reg.Register(history.Describe(history.Familiar))

	// --- Physiotherapy ---
	reg.Register(mixin)
	reg.Register(treatment.Describe())
	reg.Register(treatment_history.Describe())

	return reg
}
