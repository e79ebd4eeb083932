package clients

import (
	"errors"
	"net/http"
	"strings"

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
	rg.GET("/:public_id", h.get)
	rg.PATCH("/:public_id", auth.RequireRole("admin", "pm"), h.update)
	rg.DELETE("/:public_id", auth.RequireRole("admin"), h.delete)
}

type createReq struct {
	Name        string `json:"name"`
	ContactName string `json:"contact_name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	City        string `json:"city"`
	State       string `json:"state"`
	Status      string `json:"status"`
	Notes       string `json:"notes"`
}

func (h *Handler) create(c *gin.Context) {
	var req createReq
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}
	if req.Status != "" && !ValidStatus(req.Status) {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid status"})
		return
	}

	cl, err := h.repo.Create(c.Request.Context(), CreateClient{
		Name:        strings.TrimSpace(req.Name),
		ContactName: req.ContactName,
		Email:       req.Email,
		Phone:       req.Phone,
		City:        req.City,
		State:       req.State,
		Status:      req.Status,
		Notes:       req.Notes,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"ok": true, "client": cl})
}

func (h *Handler) list(c *gin.Context) {
	f := Filter{
		Status: c.Query("status"),
		Query:  strings.TrimSpace(c.Query("q")),
	}
	if f.Status != "" && !ValidStatus(f.Status) {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid status"})
		return
	}

	items, err := h.repo.List(c.Request.Context(), f)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "clients": items})
}

func (h *Handler) get(c *gin.Context) {
	cl, err := h.repo.Get(c.Request.Context(), c.Param("public_id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "client not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "client": cl})
}

type updateReq struct {
	Name        *string `json:"name"`
	ContactName *string `json:"contact_name"`
	Email       *string `json:"email"`
	Phone       *string `json:"phone"`
	City        *string `json:"city"`
	State       *string `json:"state"`
	Status      *string `json:"status"`
	Notes       *string `json:"notes"`
}

func (h *Handler) update(c *gin.Context) {
	var req updateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "name cannot be empty"})
		return
	}
	if req.Status != nil && !ValidStatus(*req.Status) {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid status"})
		return
	}

	cl, err := h.repo.Update(c.Request.Context(), c.Param("public_id"), UpdateClient{
		Name:        req.Name,
		ContactName: req.ContactName,
		Email:       req.Email,
		Phone:       req.Phone,
		City:        req.City,
		State:       req.State,
		Status:      req.Status,
		Notes:       req.Notes,
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "client not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "client": cl})
}

func (h *Handler) delete(c *gin.Context) {
	ok, err := h.repo.SoftDelete(c.Request.Context(), c.Param("public_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "client not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
