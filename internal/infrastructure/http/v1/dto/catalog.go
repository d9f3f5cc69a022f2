package dto

import (
	"physio/internal/core/entity"
	"physio/internal/domain/catalogs/history"
	"physio/internal/domain/catalogs/sport"
)

// CatalogResponse contains the fields shared by catalog records.
type CatalogResponse struct {
	ID           string            `json:"id"`
	Code         string            `json:"code"`
	Name         string            `json:"name"`
	DisplayName  string            `json:"display_name"`
	DeletionMark bool              `json:"deletion_mark"`
	Version      int               `json:"version"`
	Attributes   entity.Attributes `json:"attributes,omitempty"`
}

// FromCatalog creates CatalogResponse from entity.Catalog.
func FromCatalog(c *entity.Catalog) CatalogResponse {
	return CatalogResponse{
		ID:           c.ID.String(),
		Code:         c.Code,
		Name:         c.Name,
		DisplayName:  c.DisplayName(),
		DeletionMark: c.DeletionMark,
		Version:      c.Version,
		Attributes:   c.Attributes,
	}
}

// --- Sport ---

type CreateSportRequest struct {
	Code        string `json:"code" binding:"max=32"`
	Name        string `json:"name" binding:"required,max=255"`
	Description string `json:"description"`
}

type UpdateSportRequest struct {
	Code        *string `json:"code" binding:"omitempty,max=32"`
	Name        *string `json:"name" binding:"omitempty,min=1,max=255"`
	Description *string `json:"description"`
	Version     int     `json:"version" binding:"required,min=1"`
}

type SportResponse struct {
	CatalogResponse
	Description string `json:"description"`
}

func (r CreateSportRequest) ToEntity() *sport.Sport {
	s := sport.NewSport(r.Name)
	s.Code = r.Code
	s.Description = r.Description
	return s
}

func (r UpdateSportRequest) ApplyTo(s *sport.Sport) *sport.Sport {
	if r.Code != nil {
		s.Code = *r.Code
	}
	if r.Name != nil {
		s.Name = *r.Name
	}
	if r.Description != nil {
		s.Description = *r.Description
	}
	s.Version = r.Version
	return s
}

func FromSport(s *sport.Sport) any {
	return SportResponse{CatalogResponse: FromCatalog(&s.Catalog), Description: s.Description}
}

// --- Personal and familiar history ---

type CreateHistoryRequest struct {
	Code        string `json:"code" binding:"max=32"`
	Name        string `json:"name" binding:"required,max=255"`
	Description string `json:"description"`
}

type UpdateHistoryRequest struct {
	Code        *string `json:"code" binding:"omitempty,max=32"`
	Name        *string `json:"name" binding:"omitempty,min=1,max=255"`
	Description *string `json:"description"`
	Version     int     `json:"version" binding:"required,min=1"`
}

type HistoryResponse struct {
	CatalogResponse
	Kind        history.Kind `json:"kind"`
	Description string       `json:"description"`
}

// NewHistoryEntry returns the create mapper bound to kind.
func NewHistoryEntry(kind history.Kind) func(CreateHistoryRequest) *history.Entry {
	return func(r CreateHistoryRequest) *history.Entry {
		e := history.NewEntry(kind, r.Name)
		e.Code = r.Code
		e.Description = r.Description
		return e
	}
}

func (r UpdateHistoryRequest) ApplyTo(e *history.Entry) *history.Entry {
	if r.Code != nil {
		e.Code = *r.Code
	}
	if r.Name != nil {
		e.Name = *r.Name
	}
	if r.Description != nil {
		e.Description = *r.Description
	}
	e.Version = r.Version
	return e
}

func FromHistory(e *history.Entry) any {
	return HistoryResponse{CatalogResponse: FromCatalog(&e.Catalog), Kind: e.Kind, Description: e.Description}
}
