package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

// RequestObserver records request durations.
type RequestObserver interface {
	ObserveRequest(method, route string, status int, start time.Time)
}

// Metrics middleware reports each request by its route template, not the raw path.
func Metrics(obs RequestObserver) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		obs.ObserveRequest(c.Request.Method, c.FullPath(), c.Writer.Status(), start)
	}
}
