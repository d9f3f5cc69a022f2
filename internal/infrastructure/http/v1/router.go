// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"physio/internal/core/security"
	"physio/internal/domain/audit"
	"physio/internal/domain/auth"
	"physio/internal/domain/catalogs/history"
	"physio/internal/domain/catalogs/partner"
	"physio/internal/domain/catalogs/sport"
	"physio/internal/domain/physio/treatment"
	"physio/internal/domain/physio/treatment_history"
	"physio/internal/infrastructure/http/v1/dto"
	"physio/internal/infrastructure/http/v1/handlers"
	"physio/internal/infrastructure/http/v1/middleware"
	"physio/internal/infrastructure/http/v1/validation"
	"physio/internal/infrastructure/metrics"
	"physio/internal/metadata"
	"physio/pkg/logger"
)

// Services groups the domain services exposed over HTTP.
type Services struct {
	Partners           *partner.Service
	Sports             *sport.Service
	Histories          map[history.Kind]*history.Service
	Treatments         *treatment.Service
	TreatmentHistories *treatment_history.Service
	AuditReader        audit.Reader
}

// RouterConfig holds router configuration.
type RouterConfig struct {
	Logger *logger.Logger

	// DB backs the readiness probe.
	DB handlers.Pinger

	Version   string
	Templates func() []string

	JWTValidator middleware.JWTValidator
	AuthService  *auth.Service

	// Access expands JWT groups into permissions.
	Access *security.Table

	// Idempotency is optional; when set POSTs honour the Idempotency-Key header.
	Idempotency middleware.IdempotencyStore

	// Metrics is optional; when set /metrics is exposed.
	Metrics *metrics.Metrics

	MetadataRegistry *metadata.Registry

	Services Services
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	validation.Setup()

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())
	if cfg.Metrics != nil {
		router.Use(middleware.Metrics(cfg.Metrics))
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	healthHandler := handlers.NewHealthHandler(cfg.DB, cfg.Version, cfg.Templates)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	v1 := router.Group("/api/v1")
	{
		protected := v1.Group("")
		protected.Use(middleware.Auth(cfg.JWTValidator))
		protected.Use(middleware.UserContext(cfg.Access))
		if cfg.Idempotency != nil {
			protected.Use(middleware.Idempotency(cfg.Idempotency))
		}

		registerAuthRoutes(v1, protected, cfg)
		registerCatalogRoutes(protected, cfg)
		registerPhysioRoutes(protected, cfg)
		registerMetaRoutes(protected, cfg)
	}

	return router
}

func registerAuthRoutes(public, protected *gin.RouterGroup, cfg RouterConfig) {
	if cfg.AuthService == nil {
		return
	}
	h := handlers.NewAuthHandler(handlers.NewBaseHandler(), cfg.AuthService)
	public.POST("/auth/login", h.Login)
	protected.GET("/auth/me", h.Me)
}

// registerCatalogRoutes registers partner and its reference catalogs.
func registerCatalogRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	catalogs := rg.Group("/catalog")
	base := handlers.NewBaseHandler()
	svc := cfg.Services

	// --- PARTNERS ---
	if svc.Partners != nil {
		h := handlers.NewPartnerHandler(base, svc.Partners, svc.Treatments, svc.AuditReader)
		model := partner.ModelName
		g := catalogs.Group("/partners")
		g.GET("", middleware.RequirePermission(model, security.OpRead), h.List)
		g.POST("", middleware.RequirePermission(model, security.OpCreate), h.Create)
		g.GET("/:id", middleware.RequirePermission(model, security.OpRead), h.Get)
		g.PUT("/:id", middleware.RequirePermission(model, security.OpWrite), h.Write)
		g.DELETE("/:id", middleware.RequirePermission(model, security.OpUnlink), h.Delete)
		g.POST("/write", middleware.RequirePermission(model, security.OpWrite), h.WriteMany)
		g.POST("/unlink", middleware.RequirePermission(model, security.OpUnlink), h.UnlinkMany)
		g.GET("/:id/history", middleware.RequirePermission(model, security.OpRead), h.History)
		g.POST("/:id/action/make-treatment", middleware.RequirePermission(model, security.OpRead), h.MakeTreatment)
		if svc.Treatments != nil {
			g.GET("/:id/treatments", middleware.RequirePermission(treatment.ModelName, security.OpRead), h.Treatments)
		}
	}

	// --- SPORTS ---
	if svc.Sports != nil {
		h := handlers.NewCatalogHandler(base, handlers.CatalogHandlerConfig[*sport.Sport, dto.CreateSportRequest, dto.UpdateSportRequest]{
			Service:      svc.Sports.CatalogService,
			MapCreateDTO: dto.CreateSportRequest.ToEntity,
			MapUpdateDTO: dto.UpdateSportRequest.ApplyTo,
			MapToDTO:     dto.FromSport,
		})
		RegisterCatalogRoutes(catalogs.Group("/sports"), h, sport.ModelName)
	}

	// --- HISTORY ---
	for _, kind := range []history.Kind{history.Personal, history.Familiar} {
		service, ok := svc.Histories[kind]
		if !ok {
			continue
		}
		h := handlers.NewCatalogHandler(base, handlers.CatalogHandlerConfig[*history.Entry, dto.CreateHistoryRequest, dto.UpdateHistoryRequest]{
			Service:      service.CatalogService,
			MapCreateDTO: dto.NewHistoryEntry(kind),
			MapUpdateDTO: dto.UpdateHistoryRequest.ApplyTo,
			MapToDTO:     dto.FromHistory,
		})
		RegisterCatalogRoutes(catalogs.Group("/"+string(kind)+"-history"), h, kind.ModelName())
	}
}

// registerPhysioRoutes registers the template-guarded treatment records.
func registerPhysioRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	physio := rg.Group("/physio")
	base := handlers.NewBaseHandler()

	if cfg.Services.Treatments != nil {
		h := handlers.NewTreatmentHandler(base, cfg.Services.Treatments)
		RegisterRecordRoutes(physio.Group("/treatments"), h, treatment.ModelName)
	}
	if cfg.Services.TreatmentHistories != nil {
		h := handlers.NewTreatmentHistoryHandler(base, cfg.Services.TreatmentHistories)
		RegisterRecordRoutes(physio.Group("/treatment-histories"), h, treatment_history.ModelName)
	}
}

// registerMetaRoutes registers metadata/schema endpoints.
func registerMetaRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	if cfg.MetadataRegistry == nil {
		return
	}

	handler := handlers.NewMetadataHandler(handlers.NewBaseHandler(), cfg.MetadataRegistry)
	meta := rg.Group("/meta")
	{
		meta.GET("", handler.ListEntities)
		meta.GET("/:name", handler.GetEntity)
	}
}
