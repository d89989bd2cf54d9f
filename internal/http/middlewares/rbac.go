package middlewares

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mockmate/api/internal/domain/user"
)

// RequireRole gates a route on role membership. Must run after RequireAuth.
// The 403 message echoes the caller's actual role for diagnostics.
func (m *AuthMiddleware) RequireRole(allowed ...user.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, ok := CurrentUser(c)

		if !ok {
			abortUnauthorized(c, "Missing identity context")
			return
		}

		for _, role := range allowed {
			if u.Role == role {
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"success": false,
			"message": fmt.Sprintf("User role '%s' is not authorized to access this route", u.Role),
		})
	}
}
