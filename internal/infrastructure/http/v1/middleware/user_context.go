package middleware

import (
	"github.com/gin-gonic/gin"

	appctx "physio/internal/core/context"
	"physio/internal/core/security"
)

// UserContext expands the authenticated user's groups into permission strings
// using the access table. Must run after Auth.
//
//	protected.Use(middleware.Auth(cfg.JWTValidator))
//	protected.Use(middleware.UserContext(cfg.Access))
func UserContext(access *security.Table) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := appctx.GetUser(c.Request.Context())
		if user == nil || access == nil {
			c.Next()
			return
		}

		expanded := *user
		expanded.Permissions = access.Permissions(user.Groups)

		ctx := appctx.WithUser(c.Request.Context(), &expanded)
		c.Request = c.Request.WithContext(ctx)
		c.Set("permissions", expanded.Permissions)

		c.Next()
	}
}
