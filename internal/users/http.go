package users

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	repo *Repo
}

// RegisterAuthRoutes attaches the current-user endpoints (called by the
// SPA right after sign-in and from the profile page).
func RegisterAuthRoutes(rg *gin.RouterGroup, repo *Repo) {
	h := &Handler{repo: repo}

	rg.GET("/profile", h.profile)
	rg.POST("/sync", h.sync)
	rg.PUT("/profile", h.updateProfile)
}

// RegisterDirectoryRoutes attaches the user directory used by assignee
// pickers, plus the admin role endpoint.
func RegisterDirectoryRoutes(rg *gin.RouterGroup, repo *Repo) {
	h := &Handler{repo: repo}

	rg.GET("", h.list)
	rg.PATCH("/:uid/role", h.setRole)
}

func (h *Handler) profile(c *gin.Context) {
	uid := c.GetString("firebase_uid")
	u, err := h.repo.GetByFirebaseUID(c.Request.Context(), uid)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "user": u})
}

// sync is called after sign-in; the upsert already ran in the auth
// middleware, so this just records the login and returns the row.
func (h *Handler) sync(c *gin.Context) {
	uid := c.GetString("firebase_uid")

	if err := h.repo.RecordLogin(c.Request.Context(), uid); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	u, err := h.repo.GetByFirebaseUID(c.Request.Context(), uid)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "user": u})
}

type updateProfileReq struct {
	DisplayName *string `json:"display_name"`
	PhotoURL    *string `json:"photo_url"`
	Title       *string `json:"title"`
	Phone       *string `json:"phone"`
}

func (h *Handler) updateProfile(c *gin.Context) {
	var req updateProfileReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	uid := c.GetString("firebase_uid")
	u, err := h.repo.UpdateProfile(c.Request.Context(), uid, UpdateProfile{
		DisplayName: req.DisplayName,
		PhotoURL:    req.PhotoURL,
		Title:       req.Title,
		Phone:       req.Phone,
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "user": u})
}

func (h *Handler) list(c *gin.Context) {
	items, err := h.repo.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "users": items})
}

type setRoleReq struct {
	Role string `json:"role"`
}

func (h *Handler) setRole(c *gin.Context) {
	if c.GetString("user_role") != RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"ok": false, "error": "admin role required"})
		return
	}

	var req setRoleReq
	if err := c.ShouldBindJSON(&req); err != nil || !ValidRole(strings.TrimSpace(req.Role)) {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid role"})
		return
	}

	u, err := h.repo.SetRole(c.Request.Context(), c.Param("uid"), strings.TrimSpace(req.Role))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "user": u})
}
