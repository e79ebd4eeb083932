package announcements

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

func Register(rg *gin.RouterGroup, repo *Repo) {
	h := &Handler{repo: repo}

	rg.POST("", auth.RequireRole("admin", "pm"), h.create)
	rg.GET("", h.list)
	rg.PATCH("/:public_id", auth.RequireRole("admin", "pm"), h.update)
	rg.POST("/:public_id/pin", auth.RequireRole("admin", "pm"), h.pin)
	rg.POST("/:public_id/unpin", auth.RequireRole("admin", "pm"), h.unpin)
	rg.DELETE("/:public_id", auth.RequireRole("admin", "pm"), h.delete)
}

type createReq struct {
	Title     string     `json:"title"`
	Body      string     `json:"body"`
	Audience  string     `json:"audience"`
	Pinned    bool       `json:"pinned"`
	PublishAt *time.Time `json:"publish_at"`
	ExpiresAt *time.Time `json:"expires_at"`
}

func (h *Handler) create(c *gin.Context) {
	var req createReq
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Title) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}
	if req.Audience != "" && !ValidAudience(req.Audience) {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid audience"})
		return
	}
	if req.PublishAt != nil && req.ExpiresAt != nil && !req.ExpiresAt.After(*req.PublishAt) {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "expires_at must be after publish_at"})
		return
	}

	a, err := h.repo.Create(c.Request.Context(), auth.UserFirebaseUID(c), CreateAnnouncement{
		Title:     strings.TrimSpace(req.Title),
		Body:      req.Body,
		Audience:  req.Audience,
		Pinned:    req.Pinned,
		PublishAt: req.PublishAt,
		ExpiresAt: req.ExpiresAt,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"ok": true, "announcement": a})
}

// list shows the caller's active board. Admins may pass ?all=true for
// the management view with scheduled and archived rows.
func (h *Handler) list(c *gin.Context) {
	role := auth.UserRole(c)

	if c.Query("all") == "true" && role == "admin" {
		items, err := h.repo.ListAll(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true, "announcements": items})
		return
	}

	items, err := h.repo.ListActive(c.Request.Context(), audiencesFor(role, c.Query("audience")))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "announcements": items})
}

// audiencesFor maps a caller onto the boards they see: everyone gets
// "all", pms and admins get the pm board, and the SPA passes the
// department board it is rendering (factory or office).
func audiencesFor(role, extra string) []string {
	if role == "admin" {
		return []string{AudienceAll, AudiencePM, AudienceFactory, AudienceOffice}
	}

	aud := []string{AudienceAll}
	if role == "pm" {
		aud = append(aud, AudiencePM)
	}
	if ValidAudience(extra) && extra != AudienceAll && extra != AudiencePM {
		aud = append(aud, extra)
	}
	return aud
}

type updateReq struct {
	Title     *string    `json:"title"`
	Body      *string    `json:"body"`
	Audience  *string    `json:"audience"`
	PublishAt *time.Time `json:"publish_at"`
	ExpiresAt *time.Time `json:"expires_at"`
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
	if req.Audience != nil && !ValidAudience(*req.Audience) {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid audience"})
		return
	}

	a, err := h.repo.Update(c.Request.Context(), c.Param("public_id"), UpdateAnnouncement{
		Title:     req.Title,
		Body:      req.Body,
		Audience:  req.Audience,
		PublishAt: req.PublishAt,
		ExpiresAt: req.ExpiresAt,
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "announcement not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "announcement": a})
}

func (h *Handler) pin(c *gin.Context) {
	h.setPinned(c, true)
}

func (h *Handler) unpin(c *gin.Context) {
	h.setPinned(c, false)
}

func (h *Handler) setPinned(c *gin.Context, pinned bool) {
	a, err := h.repo.SetPinned(c.Request.Context(), c.Param("public_id"), pinned)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "announcement not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "announcement": a})
}

func (h *Handler) delete(c *gin.Context) {
	ok, err := h.repo.SoftDelete(c.Request.Context(), c.Param("public_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "announcement not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
