package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var fromCtx string
	r := gin.New()
	r.Use(RequestID())
	r.GET("/x", func(c *gin.Context) {
		fromCtx = GetRequestID(c.Request.Context())
		c.Status(http.StatusNoContent)
	})

	t.Run("honors the incoming header", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/x", nil)
		req.Header.Set("X-Request-Id", "req-abc-123")
		r.ServeHTTP(w, req)

		assert.Equal(t, "req-abc-123", w.Header().Get("X-Request-Id"))
		assert.Equal(t, "req-abc-123", fromCtx)
	})

	t.Run("generates one when absent", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/x", nil)
		r.ServeHTTP(w, req)

		rid := w.Header().Get("X-Request-Id")
		assert.Len(t, rid, 32)
		assert.Equal(t, rid, fromCtx)
	})
}

func TestGetRequestID_Empty(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	assert.Equal(t, "", GetRequestID(req.Context()))
}
