package rfis

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func rfiRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	// Validation-only paths; no request below should reach the repo.
	RegisterProjectRoutes(r.Group("/projects"), nil)
	RegisterItemRoutes(r.Group("/rfis"), nil)
	return r
}

func doJSON(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestCreateRFI_Validation(t *testing.T) {
	r := rfiRouter()

	t.Run("rejects a blank subject", func(t *testing.T) {
		w := doJSON(r, "POST", "/projects/proj-11111-2222/rfis", `{"subject":"   "}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("rejects a malformed due_date", func(t *testing.T) {
		w := doJSON(r, "POST", "/projects/proj-11111-2222/rfis", `{"subject":"Clarify footing depth","due_date":"June 15"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestAnswerRFI_Validation(t *testing.T) {
	r := rfiRouter()

	t.Run("rejects a blank answer", func(t *testing.T) {
		w := doJSON(r, "POST", "/rfis/rfi-11111-2222/answer", `{"answer":"  "}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "answer required")
	})

	t.Run("rejects an empty body", func(t *testing.T) {
		w := doJSON(r, "POST", "/rfis/rfi-11111-2222/answer", `{}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestUpdateRFI_Validation(t *testing.T) {
	r := rfiRouter()

	w := doJSON(r, "PATCH", "/rfis/rfi-11111-2222", `{"subject":""}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "subject cannot be empty")
}

func TestListRFIs_FilterValidation(t *testing.T) {
	r := rfiRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/rfis?status=escalated", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteRFI_RequiresRole(t *testing.T) {
	// No WithUser middleware ran, so the caller has no role.
	r := rfiRouter()

	w := doJSON(r, "DELETE", "/rfis/rfi-11111-2222", "")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestValidStatus(t *testing.T) {
	assert.True(t, ValidStatus(StatusOpen))
	assert.True(t, ValidStatus(StatusAnswered))
	assert.True(t, ValidStatus(StatusClosed))
	assert.False(t, ValidStatus("escalated"))
	assert.False(t, ValidStatus(""))
}
