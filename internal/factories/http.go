package factories

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/RoverLander/Sunbelt-PM-System-V1-sub000/internal/analytics"
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
	rg.GET("/:public_id/load", h.load)
	rg.PATCH("/:public_id", auth.RequireRole("admin", "pm"), h.update)
	rg.DELETE("/:public_id", auth.RequireRole("admin"), h.delete)
}

type createReq struct {
	Name       string `json:"name"`
	City       string `json:"city"`
	State      string `json:"state"`
	Status     string `json:"status"`
	Capacity   int    `json:"capacity"`
	ManagerUID string `json:"manager_uid"`
	Phone      string `json:"phone"`
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

	f, err := h.repo.Create(c.Request.Context(), CreateFactory{
		Name:       strings.TrimSpace(req.Name),
		City:       req.City,
		State:      req.State,
		Status:     req.Status,
		Capacity:   req.Capacity,
		ManagerUID: req.ManagerUID,
		Phone:      req.Phone,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"ok": true, "factory": f})
}

func (h *Handler) list(c *gin.Context) {
	items, err := h.repo.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "factories": items})
}

func (h *Handler) get(c *gin.Context) {
	f, err := h.repo.Get(c.Request.Context(), c.Param("public_id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "factory not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "factory": f})
}

func (h *Handler) load(c *gin.Context) {
	facts, err := h.repo.Load(c.Request.Context(), c.Param("public_id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "factory not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	load := analytics.FactoryLoads([]analytics.FactoryFacts{*facts})[0]
	c.JSON(http.StatusOK, gin.H{"ok": true, "load": load})
}

type updateReq struct {
	Name       *string `json:"name"`
	City       *string `json:"city"`
	State      *string `json:"state"`
	Status     *string `json:"status"`
	Capacity   *int    `json:"capacity"`
	ManagerUID *string `json:"manager_uid"`
	Phone      *string `json:"phone"`
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

	f, err := h.repo.Update(c.Request.Context(), c.Param("public_id"), UpdateFactory{
		Name:       req.Name,
		City:       req.City,
		State:      req.State,
		Status:     req.Status,
		Capacity:   req.Capacity,
		ManagerUID: req.ManagerUID,
		Phone:      req.Phone,
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "factory not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "factory": f})
}

func (h *Handler) delete(c *gin.Context) {
	ok, err := h.repo.SoftDelete(c.Request.Context(), c.Param("public_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "factory not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
