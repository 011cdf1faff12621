package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/inkhouse/inkhouse/internal/ratelimit"
)

// RateLimit enforces the per-key quota. It runs strictly after API-key
// auth and before any validation or business logic, so a structurally
// invalid request still consumes quota but a denied one never reaches
// the post store. Headers are set on every outcome that passed auth.
func RateLimit(limiter ratelimit.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		keyID := c.MustGet("api_key_id").(uuid.UUID)

		ctx := c.Request.Context()
		result, err := limiter.Allow(ctx, keyID.String())
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "SERVICE_UNAVAILABLE",
					"message": "rate limit backend unavailable",
				},
			})
			c.Abort()
			return
		}

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", result.Limit))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", result.Remaining))
		c.Header("X-RateLimit-Reset", result.Reset.UTC().Format(time.RFC3339))

		if !result.Allowed {
			retryAfter := int(time.Until(result.Reset).Seconds())
			if retryAfter < 0 {
				retryAfter = 0
			}

			c.Header("Retry-After", fmt.Sprintf("%d", retryAfter))
			c.JSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "RATE_LIMITED",
					"message": "rate limit exceeded, retry after the reset time",
				},
			})
			c.Abort()
			return
		}

		// Handlers embed this in the success envelope's meta
		c.Set("rate_limit", result)

		c.Next()
	}
}
