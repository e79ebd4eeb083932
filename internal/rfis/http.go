package rfis

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
// /projects/:public_id/rfis.
func RegisterProjectRoutes(rg *gin.RouterGroup, repo *Repo) {
	h := &Handler{repo: repo}

	rg.POST("/:public_id/rfis", h.create)
	rg.GET("/:public_id/rfis", h.listByProject)
}

// RegisterItemRoutes mounts the global collection and item routes
// under /rfis.
func RegisterItemRoutes(rg *gin.RouterGroup, repo *Repo) {
	h := &Handler{repo: repo}

	rg.GET("", h.list)
	rg.GET("/:public_id", h.get)
	rg.PATCH("/:public_id", h.update)
	rg.POST("/:public_id/answer", h.answer)
	rg.POST("/:public_id/close", h.close)
	rg.POST("/:public_id/reopen", h.reopen)
	rg.DELETE("/:public_id", auth.RequireRole("admin", "pm"), h.delete)
}

type createReq struct {
	Subject        string `json:"subject"`
	Question       string `json:"question"`
	Priority       string `json:"priority"`
	AssigneeUID    string `json:"assignee_uid"`
	CostImpact     bool   `json:"cost_impact"`
	ScheduleImpact bool   `json:"schedule_impact"`
	DueDate        string `json:"due_date"`
}

func (h *Handler) create(c *gin.Context) {
	var req createReq
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Subject) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}
	due, ok := parseDate(req.DueDate)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid due_date"})
		return
	}

	rfi, err := h.repo.Create(c.Request.Context(), auth.UserFirebaseUID(c), c.Param("public_id"), CreateRFI{
		Subject:        strings.TrimSpace(req.Subject),
		Question:       req.Question,
		Priority:       req.Priority,
		AssigneeUID:    req.AssigneeUID,
		CostImpact:     req.CostImpact,
		ScheduleImpact: req.ScheduleImpact,
		DueDate:        due,
	})
	if err != nil {
		if errors.Is(err, ErrProjectNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "project not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"ok": true, "rfi": rfi})
}

func (h *Handler) listByProject(c *gin.Context) {
	f, ok := filterFromQuery(c)
	if !ok {
		return
	}
	f.ProjectID = c.Param("public_id")

	items, err := h.repo.List(c.Request.Context(), f)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "rfis": items})
}

func (h *Handler) list(c *gin.Context) {
	f, ok := filterFromQuery(c)
	if !ok {
		return
	}
	f.ProjectID = c.Query("project_id")

	items, err := h.repo.List(c.Request.Context(), f)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "rfis": items})
}

func filterFromQuery(c *gin.Context) (Filter, bool) {
	f := Filter{
		Status:      c.Query("status"),
		Priority:    c.Query("priority"),
		AssigneeUID: c.Query("assignee_uid"),
		OverdueOnly: c.Query("overdue") == "true",
	}
	if f.Status != "" && !ValidStatus(f.Status) {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid status"})
		return Filter{}, false
	}
	return f, true
}

func (h *Handler) get(c *gin.Context) {
	rfi, err := h.repo.Get(c.Request.Context(), c.Param("public_id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "rfi not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "rfi": rfi})
}

type updateReq struct {
	Subject        *string `json:"subject"`
	Question       *string `json:"question"`
	Priority       *string `json:"priority"`
	AssigneeUID    *string `json:"assignee_uid"`
	CostImpact     *bool   `json:"cost_impact"`
	ScheduleImpact *bool   `json:"schedule_impact"`
	DueDate        *string `json:"due_date"`
}

func (h *Handler) update(c *gin.Context) {
	var req updateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}
	if req.Subject != nil && strings.TrimSpace(*req.Subject) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "subject cannot be empty"})
		return
	}
	due, ok := parseDatePtr(req.DueDate)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid due_date"})
		return
	}

	rfi, err := h.repo.Update(c.Request.Context(), c.Param("public_id"), UpdateRFI{
		Subject:        req.Subject,
		Question:       req.Question,
		Priority:       req.Priority,
		AssigneeUID:    req.AssigneeUID,
		CostImpact:     req.CostImpact,
		ScheduleImpact: req.ScheduleImpact,
		DueDate:        due,
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "rfi not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "rfi": rfi})
}

type answerReq struct {
	Answer string `json:"answer"`
}

func (h *Handler) answer(c *gin.Context) {
	var req answerReq
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Answer) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "answer required"})
		return
	}

	rfi, err := h.repo.Answer(c.Request.Context(), c.Param("public_id"), auth.UserFirebaseUID(c), strings.TrimSpace(req.Answer))
	if err != nil {
		h.writeActionErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "rfi": rfi})
}

func (h *Handler) close(c *gin.Context) {
	rfi, err := h.repo.Close(c.Request.Context(), c.Param("public_id"))
	if err != nil {
		h.writeActionErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "rfi": rfi})
}

func (h *Handler) reopen(c *gin.Context) {
	rfi, err := h.repo.Reopen(c.Request.Context(), c.Param("public_id"))
	if err != nil {
		h.writeActionErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "rfi": rfi})
}

func (h *Handler) writeActionErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "rfi not found"})
	case errors.Is(err, ErrClosed), errors.Is(err, ErrNotClosed):
		c.JSON(http.StatusConflict, gin.H{"ok": false, "error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
	}
}

func (h *Handler) delete(c *gin.Context) {
	ok, err := h.repo.SoftDelete(c.Request.Context(), c.Param("public_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "rfi not found"})
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
