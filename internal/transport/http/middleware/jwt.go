package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"facelyze-api/internal/pkg/jwtutil"
	"facelyze-api/internal/transport/http/response"
)

const (
	ContextUserIDKey   = "user_id"
	ContextUsernameKey = "username"
)

func AuthJWT(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		if authHeader == "" {
			response.Error(c, 401, response.CodeUnauthorized, "missing authorization header")
			c.Abort()
			return
		}

		const prefix = "Bearer "
		if !strings.HasPrefix(authHeader, prefix) {
			response.Error(c, 401, response.CodeUnauthorized, "invalid authorization scheme")
			c.Abort()
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, prefix))
		claims, err := jwtutil.ParseToken(secret, token)
		if err != nil {
			response.Error(c, 401, response.CodeUnauthorized, "invalid or expired token")
			c.Abort()
			return
		}

		c.Set(ContextUserIDKey, claims.UserID)
		c.Set(ContextUsernameKey, claims.Username)
		c.Next()
	}
}

// RequireAdmin must run after AuthJWT.
func RequireAdmin(isAdmin func(username string) bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		username := c.GetString(ContextUsernameKey)
		if username == "" || !isAdmin(username) {
			response.Error(c, 403, response.CodeForbidden, "admin only")
			c.Abort()
			return
		}
		c.Next()
	}
}
