package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/clientflow/clientflow/pkg/auth"
	"github.com/clientflow/clientflow/pkg/config"
)

// Auth requires a bearer token on the request. When a JWT secret is
// configured the token is validated and the caller's user id is placed in
// the context; without a secret only the bearer shape is checked.
func Auth(cfg config.AuthConfig) gin.HandlerFunc {
	var manager *auth.SessionTokenManager
	if cfg.JWTSecret != "" {
		manager = auth.NewSessionTokenManager([]byte(cfg.JWTSecret), cfg.TokenTTL)
	}

	return func(c *gin.Context) {
		authorization := c.GetHeader("Authorization")
		if authorization == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization"})
			return
		}
		parts := strings.SplitN(authorization, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization"})
			return
		}
		token := strings.TrimSpace(parts[1])
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "empty token"})
			return
		}

		if manager != nil {
			claims, err := manager.Validate(token)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
				return
			}
			c.Set("user_id", claims.UserID)
			c.Set("role", claims.Role)
		}

		c.Next()
	}
}
