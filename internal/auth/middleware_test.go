package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestDevAuthenticate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	// nil client selects the header-based dev fallback
	r.Use(Authenticate(nil))
	r.GET("/whoami", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"uid":   UserFirebaseUID(c),
			"email": c.GetString(CtxEmail),
		})
	})

	t.Run("trusts the X-User-Id header", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/whoami", nil)
		req.Header.Set("X-User-Id", "uid-sam")
		req.Header.Set("X-User-Email", "sam@sunbelt.example")
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"uid":"uid-sam"`)
		assert.Contains(t, w.Body.String(), `"email":"sam@sunbelt.example"`)
	})

	t.Run("falls back to demo-user", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/whoami", nil)
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"uid":"demo-user"`)
	})
}

func TestRequireRole(t *testing.T) {
	gin.SetMode(gin.TestMode)

	roleRouter := func(role string) *gin.Engine {
		r := gin.New()
		r.Use(func(c *gin.Context) {
			if role != "" {
				c.Set(CtxUserRole, role)
			}
			c.Next()
		})
		r.DELETE("/things/:id", RequireRole("admin", "pm"), func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"ok": true})
		})
		return r
	}

	del := func(r *gin.Engine) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("DELETE", "/things/x-1", nil)
		r.ServeHTTP(w, req)
		return w
	}

	t.Run("admin passes", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, del(roleRouter("admin")).Code)
	})

	t.Run("pm passes", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, del(roleRouter("pm")).Code)
	})

	t.Run("member is rejected", func(t *testing.T) {
		w := del(roleRouter("member"))
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Contains(t, w.Body.String(), "insufficient role")
	})

	t.Run("missing role is rejected", func(t *testing.T) {
		assert.Equal(t, http.StatusForbidden, del(roleRouter("")).Code)
	})
}

func TestExtractToken(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/", nil)

	c.Request.Header.Set("Authorization", "Bearer abc.def.ghi")
	assert.Equal(t, "abc.def.ghi", extractToken(c))

	c.Request.Header.Set("Authorization", "Basic abc")
	assert.Equal(t, "", extractToken(c))

	c.Request.Header.Del("Authorization")
	assert.Equal(t, "", extractToken(c))
}
