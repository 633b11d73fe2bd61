package handler

import (
	"net/http"

	"github.com/factorpool/backend/internal/infrastructure/auth"
	"github.com/factorpool/backend/internal/interfaces/http/dto"
	"github.com/factorpool/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuthHandler mints development tokens. It is only mounted outside
// production; real deployments get tokens from an external identity
// provider.
type AuthHandler struct {
	BaseHandler
	jwtService *auth.JWTService
}

// NewAuthHandler creates an auth handler
func NewAuthHandler(jwtService *auth.JWTService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		BaseHandler: NewBaseHandler(logger),
		jwtService:  jwtService,
	}
}

// Token handles POST /api/v1/auth/token
func (h *AuthHandler) Token(c *gin.Context) {
	var req dto.TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err)
		return
	}

	token, expiresAt, err := h.jwtService.GenerateToken(optionalUUID(req.ActorID), req.Roles)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(
			dto.ErrCodeInternal, "Token generation failed", middleware.GetRequestID(c)))
		return
	}

	h.Success(c, gin.H{
		"token":      token,
		"expires_at": expiresAt,
	})
}
