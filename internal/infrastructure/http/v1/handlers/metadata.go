package handlers

import (
	"github.com/gin-gonic/gin"

	"physio/internal/core/apperror"
	"physio/internal/metadata"
)

// MetadataHandler serves model field definitions ("fields_get").
type MetadataHandler struct {
	*BaseHandler
	registry *metadata.Registry
}

func NewMetadataHandler(base *BaseHandler, registry *metadata.Registry) *MetadataHandler {
	return &MetadataHandler{BaseHandler: base, registry: registry}
}

// ListEntities returns every registered model.
// GET /api/v1/meta
func (h *MetadataHandler) ListEntities(c *gin.Context) {
	h.OK(c, h.registry.List())
}

// GetEntity returns the definition of one model, e.g. /meta/partner.treatment.
// GET /api/v1/meta/:name
func (h *MetadataHandler) GetEntity(c *gin.Context) {
	name := c.Param("name")
	def, ok := h.registry.Get(name)
	if !ok {
		h.Error(c, apperror.NewNotFound("model", name))
		return
	}
	h.OK(c, def)
}
