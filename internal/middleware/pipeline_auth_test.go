package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func pipelineRouter(apiKey string) *gin.Engine {
	r := gin.New()
	r.POST("/pipeline/run", PipelineAuthMiddleware(apiKey), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

func TestPipelineAuthMiddleware(t *testing.T) {
	t.Run("valid key passes", func(t *testing.T) {
		r := pipelineRouter("secret-key")
		req := httptest.NewRequest("POST", "/pipeline/run", nil)
		req.Header.Set("X-API-Key", "secret-key")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	})

	t.Run("wrong or missing key rejected", func(t *testing.T) {
		r := pipelineRouter("secret-key")
		for _, key := range []string{"", "wrong"} {
			req := httptest.NewRequest("POST", "/pipeline/run", nil)
			if key != "" {
				req.Header.Set("X-API-Key", key)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("key %q: expected 401, got %d", key, rec.Code)
			}
		}
	})

	t.Run("unconfigured key disables the endpoint", func(t *testing.T) {
		r := pipelineRouter("")
		req := httptest.NewRequest("POST", "/pipeline/run", nil)
		req.Header.Set("X-API-Key", "anything")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("expected 503, got %d", rec.Code)
		}
	})
}
