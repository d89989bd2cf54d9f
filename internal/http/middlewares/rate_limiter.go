package middlewares

import (
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mockmate/api/internal/ratelimit"
)

// RateLimit enforces the limiter for a derived key. Limiter errors (e.g.
// redis unreachable) fail open: rejecting the login path because the
// limiter store blinked would be the worse outage.
func RateLimit(limiter ratelimit.Limiter, keyFn func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := keyFn(c)

		if key == "" {
			key = clientIP(c)
		}

		allowed, retryAfter, err := limiter.Allow(c.Request.Context(), key)

		if err != nil {
			c.Next()
			return
		}

		if !allowed {
			seconds := int(retryAfter.Round(time.Second).Seconds())

			if seconds < 0 {
				seconds = 0
			}

			c.Header("Retry-After", strconv.Itoa(seconds))

			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"message": "Too many requests. Please try again shortly.",
			})
			return
		}

		c.Next()
	}
}

// for unauthenticated endpoints: rate limit by IP
func KeyByIP(c *gin.Context) string {
	return clientIP(c)
}

// For authenticated endpoints: rate limit by user id if available

func KeyByUserOrIP(c *gin.Context) string {
	if u, ok := CurrentUser(c); ok && u.ID != "" {
		return "user:" + u.ID
	}

	return clientIP(c)
}

func clientIP(c *gin.Context) string {
	// Gin's ClientIP respects X-Forwarded-For / X-Real-IP if configured.
	ip := c.ClientIP()

	host, _, err := net.SplitHostPort(ip)

	if err == nil && host != "" {
		return host
	}

	return ip
}
