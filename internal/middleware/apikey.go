package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/inkhouse/inkhouse/internal/service"
)

// APIKeyAuth guards the public API. It resolves the Bearer token to an
// owning user and key id, or rejects with the precise failure reason.
// Runs before the rate limiter so unauthenticated requests never touch
// the counter.
func APIKeyAuth(apiKeyService *service.APIKeyService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		result, err := apiKeyService.Authenticate(ctx, c.GetHeader("Authorization"))

		if err != nil {
			status := http.StatusUnauthorized
			code := "UNAUTHORIZED"
			message := err.Error()

			if !isAuthFailure(err) {
				// Store trouble, not a bad credential
				status = http.StatusServiceUnavailable
				code = "SERVICE_UNAVAILABLE"
				message = "authentication backend unavailable"
			}

			c.JSON(status, gin.H{
				"success": false,
				"error":   gin.H{"code": code, "message": message},
			})
			c.Abort()
			return
		}

		c.Set("user_id", result.UserID)
		c.Set("api_key_id", result.KeyID)

		go apiKeyService.TouchLastUsed(result.KeyID)

		c.Next()
	}
}

func isAuthFailure(err error) bool {
	return errors.Is(err, service.ErrMalformedAuthHeader) ||
		errors.Is(err, service.ErrInvalidAPIKey) ||
		errors.Is(err, service.ErrAPIKeyRevoked) ||
		errors.Is(err, service.ErrAPIKeyExpired)
}
