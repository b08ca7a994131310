package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/teslimakintunde/shortlets-backend-api/internal/domain/user"
	"github.com/teslimakintunde/shortlets-backend-api/internal/pkg/response"
)

// RequireRoles lets the request through only when the authenticated role is
// one of roles. It must run after JWTAuth.
func RequireRoles(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(c *gin.Context) {
		role := c.GetString("role")
		if role == "" {
			response.Error(c, http.StatusUnauthorized, "UNAUTHENTICATED", "Role not found in token")
			c.Abort()
			return
		}

		if _, ok := allowed[role]; !ok {
			response.Error(c, http.StatusForbidden, "FORBIDDEN", "Access denied: insufficient permissions")
			c.Abort()
			return
		}

		c.Next()
	}
}

// StaffOnly guards the back-office endpoints.
func StaffOnly() gin.HandlerFunc {
	return RequireRoles(string(user.RoleAdmin), string(user.RoleSupport))
}
