package ginserver

import (
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"stayhub/internal/app/auth"
)

const principalContextKey = "stayhub.principal"

// IdentityMiddleware resolves the caller identity forwarded by the upstream
// auth middleware in X-User-ID / X-User-Role headers.
func IdentityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.GetHeader("X-User-ID"))
		if userID == "" {
			c.Next()
			return
		}
		role := auth.Role(strings.ToLower(strings.TrimSpace(c.GetHeader("X-User-Role"))))
		switch role {
		case auth.RoleCustomer, auth.RoleProvider, auth.RoleAdmin:
		default:
			role = auth.RoleCustomer
		}
		c.Set(principalContextKey, auth.Principal{UserID: userID, Role: role})
		c.Next()
	}
}

func currentPrincipal(c *gin.Context) (auth.Principal, bool) {
	val, exists := c.Get(principalContextKey)
	if !exists {
		return auth.Principal{}, false
	}
	p, ok := val.(auth.Principal)
	return p, ok
}

func requirePrincipal(c *gin.Context) (auth.Principal, bool) {
	p, ok := currentPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "auth required"})
		return auth.Principal{}, false
	}
	return p, true
}

func requireAdmin(c *gin.Context) (auth.Principal, bool) {
	p, ok := requirePrincipal(c)
	if !ok {
		return auth.Principal{}, false
	}
	if !p.IsAdmin() {
		c.JSON(http.StatusForbidden, gin.H{"error": "insufficient permissions"})
		return auth.Principal{}, false
	}
	return p, true
}
