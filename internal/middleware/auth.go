package middleware

import (
	"net/http"
	"strings"

	"nthanda/config"
	"nthanda/internal/auth"

	"github.com/gin-gonic/gin"
)

// AuthRequired validates the bearer token and sets UserUID and Email in
// context.
func AuthRequired(cfg *config.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format"})
			return
		}
		claims, err := auth.ParseAccessToken(cfg, parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}
		c.Set("user_uid", claims.UserUID)
		c.Set("email", claims.Email)
		c.Next()
	}
}

// GetUserUID returns the authenticated user UID (must be used after
// AuthRequired).
func GetUserUID(c *gin.Context) string {
	v, _ := c.Get("user_uid")
	if v == nil {
		return ""
	}
	return v.(string)
}

// GetEmail returns the authenticated user's email, "" when absent.
func GetEmail(c *gin.Context) string {
	v, _ := c.Get("email")
	if v == nil {
		return ""
	}
	return v.(string)
}
