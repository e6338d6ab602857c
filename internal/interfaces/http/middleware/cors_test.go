package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/your-org/storefront-backend/internal/config"
)

func TestOriginAllowed(t *testing.T) {
	tests := []struct {
		name    string
		origin  string
		allowed []string
		want    bool
	}{
		{"exact match", "http://localhost:3000", []string{"http://localhost:3000"}, true},
		{"no match", "http://evil.example", []string{"http://localhost:3000"}, false},
		{"wildcard matches anything", "http://anywhere.example", []string{"*"}, true},
		{"subdomain wildcard matches", "https://api.shop.example", []string{"*.shop.example"}, true},
		{"wildcard requires the dot", "https://evil-shop.example", []string{"*.shop.example"}, false},
		{"wildcard does not match bare suffix", "https://shop.example.attacker.example", []string{"*.shop.example"}, false},
		{"second entry matches", "https://admin.example", []string{"http://localhost:3000", "https://admin.example"}, true},
		{"empty allowlist", "http://localhost:3000", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, originAllowed(tt.origin, tt.allowed))
		})
	}
}

func corsRouter(origins []string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{}
	cfg.Security.CORSAllowedOrigins = origins
	cfg.Security.CORSAllowedMethods = []string{"GET", "POST"}
	cfg.Security.CORSAllowedHeaders = []string{"Content-Type"}

	router := gin.New()
	router.Use(CORS(cfg))
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })
	return router
}

func TestCORS_AllowedOriginEchoed(t *testing.T) {
	router := corsRouter([]string{"http://localhost:3000"})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
	assert.Equal(t, "Origin", rec.Header().Get("Vary"))
}

func TestCORS_DisallowedOriginGetsNoGrant(t *testing.T) {
	router := corsRouter([]string{"http://localhost:3000"})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Credentials"))
}

func TestCORS_PreflightShortCircuits(t *testing.T) {
	router := corsRouter([]string{"http://localhost:3000"})

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "GET, POST", rec.Header().Get("Access-Control-Allow-Methods"))
}
