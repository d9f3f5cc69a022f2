package handlers

import (
	"github.com/gin-gonic/gin"

	"physio/internal/core/apperror"
	appctx "physio/internal/core/context"
	"physio/internal/core/id"
	"physio/internal/domain/auth"
	"physio/internal/infrastructure/http/v1/dto"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	*BaseHandler
	service *auth.Service
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(base *BaseHandler, service *auth.Service) *AuthHandler {
	return &AuthHandler{BaseHandler: base, service: service}
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !h.BindJSON(c, &req) {
		return
	}

	token, user, err := h.service.Login(c.Request.Context(), auth.Credentials{Email: req.Email, Password: req.Password})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewLoginResponse(token, user))
}

// Me handles GET /auth/me: the stored user plus the expanded permissions.
func (h *AuthHandler) Me(c *gin.Context) {
	uc := appctx.GetUser(c.Request.Context())
	if uc == nil {
		h.Error(c, apperror.NewUnauthorized("authentication required"))
		return
	}
	userID, err := id.Parse(uc.UserID)
	if err != nil {
		h.Error(c, apperror.NewUnauthorized("invalid token subject"))
		return
	}

	user, err := h.service.GetUser(c.Request.Context(), userID)
	if err != nil {
		h.Error(c, err)
		return
	}
	resp := dto.FromUser(user)
	resp.Permissions = uc.Permissions
	h.OK(c, resp)
}
