// README: Bearer-token auth middleware; puts caller id and role on the gin context.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"mealmesh/internal/infra"
	"mealmesh/internal/types"
)

const (
	ctxKeyCallerID   = "caller_id"
	ctxKeyCallerRole = "caller_role"
)

func Auth(verifier infra.TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization header must use Bearer scheme"})
			return
		}
		claims, err := verifier.Verify(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set(ctxKeyCallerID, claims.UserID)
		c.Set(ctxKeyCallerRole, claims.Role)
		c.Next()
	}
}

// CallerID returns the authenticated user id, or "" outside Auth.
func CallerID(c *gin.Context) types.ID {
	if v, ok := c.Get(ctxKeyCallerID); ok {
		if id, ok := v.(types.ID); ok {
			return id
		}
	}
	return ""
}

// CallerRole returns the authenticated role, or "" outside Auth.
func CallerRole(c *gin.Context) types.Role {
	if v, ok := c.Get(ctxKeyCallerRole); ok {
		if r, ok := v.(types.Role); ok {
			return r
		}
	}
	return ""
}
