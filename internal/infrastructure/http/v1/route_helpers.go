// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"physio/internal/core/security"
	"physio/internal/infrastructure/http/v1/middleware"
)

// CatalogRouteHandler defines the interface for catalog handlers.
type CatalogRouteHandler interface {
	List(c *gin.Context)
	Create(c *gin.Context)
	Get(c *gin.Context)
	Update(c *gin.Context)
	Delete(c *gin.Context)
	SetDeletionMark(c *gin.Context)
}

// ArchiveHandler is implemented by handlers whose archive goes through the
// delete guard instead of the plain deletion mark.
type ArchiveHandler interface {
	Archive(c *gin.Context)
}

// CRUDHandler is the subset shared by every record handler.
type CRUDHandler interface {
	List(c *gin.Context)
	Create(c *gin.Context)
	Get(c *gin.Context)
	Update(c *gin.Context)
	Delete(c *gin.Context)
}

// RegisterCatalogRoutes registers standard CRUD routes for a catalog.
// model is the access-table model name, e.g. "partner.sport".
//
// Usage:
//
//	service := sport.NewService(catalog_repo.NewSportRepo(txm), txm, num)
//	handler := handlers.NewCatalogHandler(base, cfg)
//	RegisterCatalogRoutes(catalogs.Group("/sports"), handler, sport.ModelName)
func RegisterCatalogRoutes(group *gin.RouterGroup, handler CatalogRouteHandler, model string) {
	RegisterRecordRoutes(group, handler, model)
	group.POST("/:id/deletion-mark", middleware.RequirePermission(model, security.OpWrite), handler.SetDeletionMark)
}

// RegisterRecordRoutes registers list/get/create/update/delete and, when the
// handler supports it, POST /:id/archive.
func RegisterRecordRoutes(group *gin.RouterGroup, handler CRUDHandler, model string) {
	group.GET("", middleware.RequirePermission(model, security.OpRead), handler.List)
	group.POST("", middleware.RequirePermission(model, security.OpCreate), handler.Create)
	group.GET("/:id", middleware.RequirePermission(model, security.OpRead), handler.Get)
	group.PUT("/:id", middleware.RequirePermission(model, security.OpWrite), handler.Update)
	group.DELETE("/:id", middleware.RequirePermission(model, security.OpUnlink), handler.Delete)

	if archiver, ok := handler.(ArchiveHandler); ok {
		group.POST("/:id/archive", middleware.RequirePermission(model, security.OpWrite), archiver.Archive)
	}
}
