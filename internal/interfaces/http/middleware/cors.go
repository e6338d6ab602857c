// internal/interfaces/http/middleware/cors.go
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/your-org/storefront-backend/internal/config"
)

// CORS handles cross-origin requests against the configured allowlist.
// Credentials are only offered to an explicitly matched origin.
func CORS(cfg *config.Config) gin.HandlerFunc {
	allowedMethods := strings.Join(cfg.Security.CORSAllowedMethods, ", ")
	allowedHeaders := strings.Join(cfg.Security.CORSAllowedHeaders, ", ")

	return func(c *gin.Context) {
		c.Header("Vary", "Origin")

		origin := c.Request.Header.Get("Origin")
		if origin != "" && originAllowed(origin, cfg.Security.CORSAllowedOrigins) {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Credentials", "true")
		}

		c.Header("Access-Control-Allow-Methods", allowedMethods)
		c.Header("Access-Control-Allow-Headers", allowedHeaders)
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// originAllowed matches an origin against the allowlist. A "*.domain"
// entry matches subdomains only; the dot must be present so
// "evil-domain" never matches "*.domain".
func originAllowed(origin string, allowed []string) bool {
	for _, candidate := range allowed {
		switch {
		case candidate == "*" || candidate == origin:
			return true
		case strings.HasPrefix(candidate, "*."):
			if strings.HasSuffix(origin, candidate[1:]) {
				return true
			}
		}
	}
	return false
}
