package projects

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/RoverLander/Sunbelt-PM-System-V1-sub000/internal/auth"
)

// projectRouter seeds the given role so requests clear the RequireRole
// gates. The repo stays nil; only validation paths are exercised.
func projectRouter(role string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if role != "" {
			c.Set(auth.CtxUserRole, role)
		}
		c.Next()
	})
	Register(r.Group("/projects"), nil)
	return r
}

func postProject(r *gin.Engine, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/projects", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestCreateProject_RequiresRole(t *testing.T) {
	t.Run("member cannot create", func(t *testing.T) {
		w := postProject(projectRouter("member"), `{"name":"Lakeside Clinic"}`)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("only admin can delete", func(t *testing.T) {
		r := projectRouter("pm")
		w := httptest.NewRecorder()
		req := httptest.NewRequest("DELETE", "/projects/proj-11111-2222", nil)
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestCreateProject_Validation(t *testing.T) {
	r := projectRouter("pm")

	t.Run("rejects a blank name", func(t *testing.T) {
		w := postProject(r, `{"name":"  "}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("rejects an unknown status", func(t *testing.T) {
		w := postProject(r, `{"name":"Lakeside Clinic","status":"cancelled"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "invalid status")
	})

	t.Run("rejects a malformed target_date", func(t *testing.T) {
		w := postProject(r, `{"name":"Lakeside Clinic","target_date":"2024/06/15"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "invalid target_date")
	})
}

func TestListProjects_FilterValidation(t *testing.T) {
	r := projectRouter("member")

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/projects?status=cancelled", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestValidStatus(t *testing.T) {
	for _, s := range []string{StatusPlanning, StatusActive, StatusOnHold, StatusCompleted, StatusArchived} {
		assert.True(t, ValidStatus(s), s)
	}
	assert.False(t, ValidStatus("cancelled"))
	assert.False(t, ValidStatus(""))
}
