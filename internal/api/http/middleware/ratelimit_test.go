package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func limitedRouter(rps float64, burst int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RateLimit(rps, burst))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func hit(r *gin.Engine, addr string) int {
	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/ping", nil)
	req.RemoteAddr = addr
	r.ServeHTTP(w, req)
	return w.Code
}

func TestRateLimit(t *testing.T) {
	t.Run("throttles past the burst", func(t *testing.T) {
		r := limitedRouter(1, 2)

		assert.Equal(t, http.StatusOK, hit(r, "10.1.2.3:1000"))
		assert.Equal(t, http.StatusOK, hit(r, "10.1.2.3:1000"))
		assert.Equal(t, http.StatusTooManyRequests, hit(r, "10.1.2.3:1000"))
	})

	t.Run("buckets are per client", func(t *testing.T) {
		r := limitedRouter(1, 1)

		assert.Equal(t, http.StatusOK, hit(r, "10.1.2.3:1000"))
		assert.Equal(t, http.StatusTooManyRequests, hit(r, "10.1.2.3:1000"))
		assert.Equal(t, http.StatusOK, hit(r, "10.9.9.9:1000"))
	})

	t.Run("non-positive rps disables the limiter", func(t *testing.T) {
		r := limitedRouter(0, 0)

		for i := 0; i < 20; i++ {
			assert.Equal(t, http.StatusOK, hit(r, "10.1.2.3:1000"))
		}
	})
}
