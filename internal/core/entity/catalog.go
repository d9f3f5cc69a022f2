package entity

import (
	"context"
	"strings"

	"physio/internal/core/apperror"
)

// Catalog is the base type for reference data and records addressed by code.
// Examples: sports, history entries, treatments.
type Catalog struct {
	BaseEntity

	// Code is a human-readable identifier, unique per table
	Code string `db:"code" json:"code"`

	// Name is the display name
	Name string `db:"name" json:"name"`
}

// NewCatalog creates a new Catalog with generated ID.
func NewCatalog(code, name string) Catalog {
	return Catalog{
		BaseEntity: NewBaseEntity(),
		Code:       code,
		Name:       name,
	}
}

// Validate implements Validatable interface.
// Code may be empty here; services fill it from the numerator.
func (c *Catalog) Validate(ctx context.Context) error {
	if strings.TrimSpace(c.Name) == "" {
		return apperror.NewValidation("name is required").
			WithDetail("field", "name")
	}
	return nil
}

// DisplayName returns "[code] name", or just the name when code is empty.
func (c *Catalog) DisplayName() string {
	if c.Code == "" {
		return c.Name
	}
	return "[" + c.Code + "] " + c.Name
}

// GetCode returns the catalog code.
func (c *Catalog) GetCode() string {
	return c.Code
}
