package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"physio/internal/infrastructure/storage/postgres"
)

// Pinger checks database reachability.
type Pinger interface {
	Ping(ctx context.Context) error
	Stats() postgres.PoolStats
}

// HealthHandler provides health check endpoints.
type HealthHandler struct {
	db        Pinger
	version   string
	templates func() []string
}

// NewHealthHandler creates a new health handler. templates lists the loaded
// template keys reported by /health/info.
func NewHealthHandler(db Pinger, version string, templates func() []string) *HealthHandler {
	return &HealthHandler{db: db, version: version, templates: templates}
}

// Live handles liveness probe.
// GET /health/live
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready handles readiness probe.
// GET /health/ready
func (h *HealthHandler) Ready(c *gin.Context) {
	if err := h.db.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "error",
			"checks": map[string]string{"database": "unhealthy: " + err.Error()},
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"checks": map[string]string{"database": "healthy"},
	})
}

// Info returns application information.
// GET /health/info
func (h *HealthHandler) Info(c *gin.Context) {
	var templates []string
	if h.templates != nil {
		templates = h.templates()
	}
	c.JSON(http.StatusOK, gin.H{
		"app":       "physio",
		"version":   h.version,
		"database":  h.db.Stats(),
		"templates": templates,
	})
}
