package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// APIKeyScopeKey is the context key holding the scope a request was
// authenticated for by APIKeyMiddleware.
const APIKeyScopeKey = "apiKeyScope"

// APIKeyMiddleware creates a Gin middleware that validates the X-API-Key
// header against apiKey. Requests are refused with 503 while no key is
// configured for scope.
func APIKeyMiddleware(scope, apiKey string) gin.HandlerFunc {
	notConfigured := strings.ToUpper(scope) + "_NOT_CONFIGURED"
	return func(c *gin.Context) {
		if apiKey == "" {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable,
				gin.H{"error": gin.H{"code": notConfigured, "message": scope + " endpoints are not configured"}})
			return
		}
		key := c.GetHeader("X-API-Key")
		if subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				gin.H{"error": gin.H{"code": "INVALID_API_KEY", "message": "Invalid or missing API key"}})
			return
		}
		c.Set(APIKeyScopeKey, scope)
		c.Next()
	}
}

// PipelineAuthMiddleware guards the endpoints the trade pipeline calls.
func PipelineAuthMiddleware(apiKey string) gin.HandlerFunc {
	return APIKeyMiddleware("pipeline", apiKey)
}

// AdminAuthMiddleware guards operator endpoints.
func AdminAuthMiddleware(apiKey string) gin.HandlerFunc {
	return APIKeyMiddleware("admin", apiKey)
}
