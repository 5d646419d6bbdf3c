package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/taskhive/taskhive-backend/pkg/logging"
)

// ApiKeyAuth gates the admin endpoints behind the configured API key. An
// unauthorized request is rejected before any handler runs, so it can have no
// side effects.
type ApiKeyAuth struct {
	apiKey      string
	logger      logging.Logger
	rateLimiter *RateLimiter
}

func NewApiKeyAuth(apiKey string, rateLimiter *RateLimiter, logger logging.Logger) *ApiKeyAuth {
	return &ApiKeyAuth{
		apiKey:      apiKey,
		logger:      logger,
		rateLimiter: rateLimiter,
	}
}

func (a *ApiKeyAuth) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		apiKeyHeader := c.GetHeader("X-Api-Key")
		if apiKeyHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "API key is required"})
			c.Abort()
			return
		}

		if subtle.ConstantTimeCompare([]byte(apiKeyHeader), []byte(a.apiKey)) != 1 {
			a.logger.Warnf("Rejected request with invalid API key: %s %s", c.Request.Method, c.Request.URL.Path)
			c.JSON(http.StatusForbidden, gin.H{"error": "Invalid API key"})
			c.Abort()
			return
		}

		if a.rateLimiter != nil {
			if err := a.rateLimiter.Apply(c, apiKeyHeader); err != nil {
				a.logger.Warnf("Rate limit applied: %v", err)
				c.JSON(http.StatusTooManyRequests, gin.H{
					"error":   "Rate limit exceeded",
					"message": "You have exceeded the rate limit",
				})
				c.Abort()
				return
			}
		}

		c.Next()
	}
}
