package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/factorpool/backend/internal/infrastructure/auth"
	"github.com/factorpool/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// JWT context keys
const (
	JWTClaimsKey  = "jwt_claims"
	JWTActorKey   = "jwt_actor"
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "
)

// JWTAuth validates the bearer token and stores the actor on the context.
// Paths in skipPaths pass through unauthenticated.
func JWTAuth(jwtService *auth.JWTService, skipPaths ...string) gin.HandlerFunc {
	skip := make(map[string]bool, len(skipPaths))
	for _, p := range skipPaths {
		skip[p] = true
	}

	return func(c *gin.Context) {
		if skip[c.Request.URL.Path] {
			c.Next()
			return
		}

		header := c.GetHeader(AuthHeaderKey)
		if header == "" || !strings.HasPrefix(header, BearerPrefix) {
			abortAuth(c, dto.ErrCodeTokenInvalid, "Missing or malformed authorization header")
			return
		}

		claims, err := jwtService.ValidateToken(strings.TrimPrefix(header, BearerPrefix))
		if err != nil {
			code := dto.ErrCodeTokenInvalid
			if errors.Is(err, auth.ErrExpiredToken) {
				code = dto.ErrCodeTokenExpired
			}
			abortAuth(c, code, "Token validation failed")
			return
		}

		actor, err := claims.Actor()
		if err != nil {
			abortAuth(c, dto.ErrCodeTokenInvalid, "Token carries no actor")
			return
		}

		c.Set(JWTClaimsKey, claims)
		c.Set(JWTActorKey, actor)
		c.Next()
	}
}

// GetActor returns the authenticated actor from the gin context
func GetActor(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(JWTActorKey)
	if !ok {
		return uuid.Nil, false
	}
	actor, ok := v.(uuid.UUID)
	return actor, ok
}

func abortAuth(c *gin.Context, code, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized,
		dto.NewErrorResponse(code, message, GetRequestID(c)))
}
