package submittals

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func submittalRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	// Validation-only paths; no request below should reach the repo.
	RegisterProjectRoutes(r.Group("/projects"), nil)
	RegisterItemRoutes(r.Group("/submittals"), nil)
	return r
}

func postJSON(r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestCreateSubmittal_Validation(t *testing.T) {
	r := submittalRouter()

	t.Run("rejects a missing title", func(t *testing.T) {
		w := postJSON(r, "/projects/proj-11111-2222/submittals", `{"title":"  "}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("rejects an unknown type", func(t *testing.T) {
		w := postJSON(r, "/projects/proj-11111-2222/submittals", `{"title":"Window schedule","type":"napkin_sketch"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("rejects a malformed required_on_site date", func(t *testing.T) {
		w := postJSON(r, "/projects/proj-11111-2222/submittals", `{"title":"Window schedule","required_on_site":"06/15/2024"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestReviewSubmittal_Validation(t *testing.T) {
	r := submittalRouter()

	t.Run("rejects an unknown decision", func(t *testing.T) {
		w := postJSON(r, "/submittals/sub-11111-2222/review", `{"decision":"maybe"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("rejects an empty decision", func(t *testing.T) {
		w := postJSON(r, "/submittals/sub-11111-2222/review", `{}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestListSubmittals_FilterValidation(t *testing.T) {
	r := submittalRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/submittals?status=bogus", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestValidators(t *testing.T) {
	assert.True(t, ValidStatus("draft"))
	assert.True(t, ValidStatus("revise_resubmit"))
	assert.False(t, ValidStatus("pending"))

	assert.True(t, ValidType("shop_drawings"))
	assert.True(t, ValidType("samples"))
	assert.False(t, ValidType("napkin_sketch"))

	// A review can hold or settle a submittal, never un-submit it.
	assert.True(t, ValidDecision("under_review"))
	assert.True(t, ValidDecision("approved"))
	assert.True(t, ValidDecision("approved_as_noted"))
	assert.True(t, ValidDecision("revise_resubmit"))
	assert.True(t, ValidDecision("rejected"))
	assert.False(t, ValidDecision("draft"))
	assert.False(t, ValidDecision("submitted"))
}
