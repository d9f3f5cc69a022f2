// Package middleware provides HTTP middleware for the API.
package middleware

import (
	"slices"

	"github.com/gin-gonic/gin"

	"physio/internal/core/apperror"
	appctx "physio/internal/core/context"
	"physio/internal/core/security"
)

// RequirePermission middleware checks that the user may perform op on model,
// e.g. RequirePermission("partner.treatment", security.OpUnlink).
// Admins automatically have all permissions.
func RequirePermission(model, op string) gin.HandlerFunc {
	permission := security.Permission(model, op)
	return func(c *gin.Context) {
		user := appctx.GetUser(c.Request.Context())
		if user == nil {
			_ = c.Error(apperror.NewUnauthorized("authentication required"))
			c.Abort()
			return
		}

		if user.IsAdmin || slices.Contains(user.Permissions, permission) {
			c.Next()
			return
		}

		_ = c.Error(
			apperror.NewForbidden("insufficient permissions").
				WithDetail("required_permission", permission),
		)
		c.Abort()
	}
}

// RequireGroup middleware checks membership of an access group.
func RequireGroup(group string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := appctx.GetUser(c.Request.Context())
		if user == nil {
			_ = c.Error(apperror.NewUnauthorized("authentication required"))
			c.Abort()
			return
		}
		if user.IsAdmin || appctx.InGroup(c.Request.Context(), group) {
			c.Next()
			return
		}
		_ = c.Error(apperror.NewForbidden("insufficient permissions").WithDetail("required_group", group))
		c.Abort()
	}
}
