package tasks

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/RoverLander/Sunbelt-PM-System-V1-sub000/internal/auth"
)

type Handler struct {
	repo *Repo
}

// RegisterProjectRoutes mounts the project-scoped collection under
// /projects/:public_id/tasks.
func RegisterProjectRoutes(rg *gin.RouterGroup, repo *Repo) {
	h := &Handler{repo: repo}

	rg.POST("/:public_id/tasks", h.create)
	rg.GET("/:public_id/tasks", h.listByProject)
}

// RegisterItemRoutes mounts the flat item routes under /tasks.
func RegisterItemRoutes(rg *gin.RouterGroup, repo *Repo) {
	h := &Handler{repo: repo}

	rg.GET("/:public_id", h.get)
	rg.PATCH("/:public_id", h.update)
	rg.DELETE("/:public_id", auth.RequireRole("admin", "pm"), h.delete)
}

// RegisterMyRoutes mounts the caller-scoped view on the api root, away
// from the /tasks/:public_id wildcard.
func RegisterMyRoutes(rg *gin.RouterGroup, repo *Repo) {
	h := &Handler{repo: repo}

	rg.GET("/me/tasks", h.myTasks)
}

type createReq struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`
	Priority    string `json:"priority"`
	AssigneeUID string `json:"assignee_uid"`
	DueDate     string `json:"due_date"`
}

func (h *Handler) create(c *gin.Context) {
	var req createReq
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Title) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}
	if req.Status != "" && !ValidStatus(req.Status) {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid status"})
		return
	}
	if req.Priority != "" && !ValidPriority(req.Priority) {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid priority"})
		return
	}
	due, ok := parseDate(req.DueDate)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid due_date"})
		return
	}

	t, err := h.repo.Create(c.Request.Context(), auth.UserFirebaseUID(c), c.Param("public_id"), CreateTask{
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		AssigneeUID: req.AssigneeUID,
		DueDate:     due,
	})
	if err != nil {
		if errors.Is(err, ErrProjectNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "project not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"ok": true, "task": t})
}

func (h *Handler) listByProject(c *gin.Context) {
	f := Filter{
		Status:      c.Query("status"),
		AssigneeUID: c.Query("assignee_uid"),
		OverdueOnly: c.Query("overdue") == "true",
	}
	if f.Status != "" && !ValidStatus(f.Status) {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid status"})
		return
	}

	items, err := h.repo.ListByProject(c.Request.Context(), c.Param("public_id"), f)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "tasks": items})
}

func (h *Handler) myTasks(c *gin.Context) {
	f := Filter{
		Status:      c.Query("status"),
		OverdueOnly: c.Query("overdue") == "true",
	}
	if f.Status != "" && !ValidStatus(f.Status) {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid status"})
		return
	}

	items, err := h.repo.ListByAssignee(c.Request.Context(), auth.UserFirebaseUID(c), f)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "tasks": items})
}

func (h *Handler) get(c *gin.Context) {
	t, err := h.repo.Get(c.Request.Context(), c.Param("public_id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "task not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "task": t})
}

type updateReq struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
	Priority    *string `json:"priority"`
	AssigneeUID *string `json:"assignee_uid"`
	DueDate     *string `json:"due_date"`
}

func (h *Handler) update(c *gin.Context) {
	var req updateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}
	if req.Title != nil && strings.TrimSpace(*req.Title) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "title cannot be empty"})
		return
	}
	if req.Status != nil && !ValidStatus(*req.Status) {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid status"})
		return
	}
	if req.Priority != nil && !ValidPriority(*req.Priority) {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid priority"})
		return
	}
	due, ok := parseDatePtr(req.DueDate)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid due_date"})
		return
	}

	t, err := h.repo.Update(c.Request.Context(), c.Param("public_id"), UpdateTask{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		AssigneeUID: req.AssigneeUID,
		DueDate:     due,
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "task not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "task": t})
}

func (h *Handler) delete(c *gin.Context) {
	ok, err := h.repo.SoftDelete(c.Request.Context(), c.Param("public_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "task not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func parseDate(s string) (*time.Time, bool) {
	if strings.TrimSpace(s) == "" {
		return nil, true
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, false
	}
	return &t, true
}

func parseDatePtr(s *string) (*time.Time, bool) {
	if s == nil {
		return nil, true
	}
	return parseDate(*s)
}
