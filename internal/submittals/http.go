package submittals

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
// /projects/:public_id/submittals.
func RegisterProjectRoutes(rg *gin.RouterGroup, repo *Repo) {
	h := &Handler{repo: repo}

	rg.POST("/:public_id/submittals", h.create)
	rg.GET("/:public_id/submittals", h.listByProject)
}

// RegisterItemRoutes mounts the global collection and item routes
// under /submittals.
func RegisterItemRoutes(rg *gin.RouterGroup, repo *Repo) {
	h := &Handler{repo: repo}

	rg.GET("", h.list)
	rg.GET("/:public_id", h.get)
	rg.PATCH("/:public_id", h.update)
	rg.POST("/:public_id/submit", h.submit)
	rg.POST("/:public_id/review", h.review)
	rg.POST("/:public_id/revise", h.revise)
	rg.DELETE("/:public_id", auth.RequireRole("admin", "pm"), h.delete)
}

type createReq struct {
	Title          string `json:"title"`
	SpecSection    string `json:"spec_section"`
	Type           string `json:"type"`
	FactoryID      string `json:"factory_id"`
	ReviewerUID    string `json:"reviewer_uid"`
	RequiredOnSite string `json:"required_on_site"`
	LeadTimeDays   int    `json:"lead_time_days"`
}

func (h *Handler) create(c *gin.Context) {
	var req createReq
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Title) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}
	if req.Type != "" && !ValidType(req.Type) {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid type"})
		return
	}
	reqOnSite, ok := parseDate(req.RequiredOnSite)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid required_on_site"})
		return
	}

	s, err := h.repo.Create(c.Request.Context(), auth.UserFirebaseUID(c), c.Param("public_id"), CreateSubmittal{
		Title:          strings.TrimSpace(req.Title),
		SpecSection:    req.SpecSection,
		Type:           req.Type,
		FactoryID:      req.FactoryID,
		ReviewerUID:    req.ReviewerUID,
		RequiredOnSite: reqOnSite,
		LeadTimeDays:   req.LeadTimeDays,
	})
	if err != nil {
		if errors.Is(err, ErrProjectNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "project not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"ok": true, "submittal": s})
}

func (h *Handler) listByProject(c *gin.Context) {
	f, ok := filterFromQuery(c)
	if !ok {
		return
	}
	f.ProjectID = c.Param("public_id")
	h.writeList(c, f)
}

func (h *Handler) list(c *gin.Context) {
	f, ok := filterFromQuery(c)
	if !ok {
		return
	}
	f.ProjectID = c.Query("project_id")
	h.writeList(c, f)
}

func (h *Handler) writeList(c *gin.Context, f Filter) {
	items, err := h.repo.List(c.Request.Context(), f)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "submittals": items})
}

func filterFromQuery(c *gin.Context) (Filter, bool) {
	f := Filter{
		Status:    c.Query("status"),
		Type:      c.Query("type"),
		FactoryID: c.Query("factory_id"),
	}
	if f.Status != "" && !ValidStatus(f.Status) {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid status"})
		return Filter{}, false
	}
	if f.Type != "" && !ValidType(f.Type) {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid type"})
		return Filter{}, false
	}
	return f, true
}

func (h *Handler) get(c *gin.Context) {
	s, err := h.repo.Get(c.Request.Context(), c.Param("public_id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "submittal not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "submittal": s})
}

type updateReq struct {
	Title          *string `json:"title"`
	SpecSection    *string `json:"spec_section"`
	Type           *string `json:"type"`
	FactoryID      *string `json:"factory_id"`
	ReviewerUID    *string `json:"reviewer_uid"`
	RequiredOnSite *string `json:"required_on_site"`
	LeadTimeDays   *int    `json:"lead_time_days"`
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
	if req.Type != nil && !ValidType(*req.Type) {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid type"})
		return
	}
	reqOnSite, ok := parseDatePtr(req.RequiredOnSite)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid required_on_site"})
		return
	}

	s, err := h.repo.Update(c.Request.Context(), c.Param("public_id"), UpdateSubmittal{
		Title:          req.Title,
		SpecSection:    req.SpecSection,
		Type:           req.Type,
		FactoryID:      req.FactoryID,
		ReviewerUID:    req.ReviewerUID,
		RequiredOnSite: reqOnSite,
		LeadTimeDays:   req.LeadTimeDays,
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "submittal not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "submittal": s})
}

func (h *Handler) submit(c *gin.Context) {
	s, err := h.repo.Submit(c.Request.Context(), c.Param("public_id"))
	if err != nil {
		h.writeActionErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "submittal": s})
}

type reviewReq struct {
	Decision string `json:"decision"`
	Notes    string `json:"notes"`
}

func (h *Handler) review(c *gin.Context) {
	var req reviewReq
	if err := c.ShouldBindJSON(&req); err != nil || !ValidDecision(req.Decision) {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid decision"})
		return
	}

	s, err := h.repo.Review(c.Request.Context(), c.Param("public_id"), auth.UserFirebaseUID(c), req.Decision, req.Notes)
	if err != nil {
		h.writeActionErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "submittal": s})
}

func (h *Handler) revise(c *gin.Context) {
	s, err := h.repo.Revise(c.Request.Context(), auth.UserFirebaseUID(c), c.Param("public_id"))
	if err != nil {
		h.writeActionErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "submittal": s})
}

func (h *Handler) writeActionErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "submittal not found"})
	case errors.Is(err, ErrBadTransition):
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
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "submittal not found"})
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
