package middlewares

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mockmate/api/internal/domain/user"
)

// Keep these interfaces small so tests can fake them easily.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

type UserLoader interface {
	GetByID(ctx context.Context, id string) (user.User, error)
}

type AuthMiddleware struct {
	jwt   TokenVerifier
	users UserLoader
}

func NewAuthMiddleware(jwt TokenVerifier, users UserLoader) *AuthMiddleware {
	return &AuthMiddleware{jwt: jwt, users: users}
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"message": message,
	})
}

// RequireAuth verifies the bearer token and loads the referenced user.
// A valid token whose user has since been deleted is still a 401: the
// credential points at nothing.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")

		if !strings.HasPrefix(authHeader, "Bearer ") {
			abortUnauthorized(c, "Not authorized, no token provided")
			return
		}

		raw := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))

		if raw == "" {
			abortUnauthorized(c, "Not authorized, no token provided")
			return
		}

		userID, err := m.jwt.Verify(raw)

		if err != nil {
			abortUnauthorized(c, "Not authorized, token failed or expired")
			return
		}

		cctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		u, err := m.users.GetByID(cctx, userID)

		if err != nil {
			abortUnauthorized(c, "Not authorized, user not found for this token")
			return
		}

		c.Set(ctxUserKey, u)

		c.Next()
	}
}

// CurrentUser returns the authenticated user stashed by RequireAuth.
func CurrentUser(c *gin.Context) (user.User, bool) {
	v, ok := c.Get(ctxUserKey)

	if !ok {
		return user.User{}, false
	}

	u, ok := v.(user.User)
	return u, ok
}
