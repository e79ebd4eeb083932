package tasks

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func taskRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	// Validation-only paths; no request below should reach the repo.
	RegisterProjectRoutes(r.Group("/projects"), nil)
	RegisterItemRoutes(r.Group("/tasks"), nil)
	RegisterMyRoutes(r.Group(""), nil)
	return r
}

func TestCreateTask_Validation(t *testing.T) {
	r := taskRouter()

	post := func(body string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/projects/proj-11111-2222/tasks", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)
		return w
	}

	cases := []struct {
		name string
		body string
		want string
	}{
		{"blank title", `{"title":" "}`, "invalid body"},
		{"unknown status", `{"title":"Pour slab","status":"paused"}`, "invalid status"},
		{"unknown priority", `{"title":"Pour slab","priority":"urgent"}`, "invalid priority"},
		{"malformed due_date", `{"title":"Pour slab","due_date":"next week"}`, "invalid due_date"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := post(tc.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), tc.want)
		})
	}
}

func TestMyTasks_FilterValidation(t *testing.T) {
	r := taskRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/me/tasks?status=paused", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTaskValidators(t *testing.T) {
	for _, s := range []string{StatusTodo, StatusInProgress, StatusBlocked, StatusDone} {
		assert.True(t, ValidStatus(s), s)
	}
	assert.False(t, ValidStatus("paused"))

	assert.True(t, ValidPriority("low"))
	assert.True(t, ValidPriority("medium"))
	assert.True(t, ValidPriority("high"))
	assert.False(t, ValidPriority("urgent"))
}
