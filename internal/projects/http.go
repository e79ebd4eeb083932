package projects

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
	rg.GET("/:public_id", h.get)
	rg.PATCH("/:public_id", auth.RequireRole("admin", "pm"), h.update)
	rg.DELETE("/:public_id", auth.RequireRole("admin"), h.delete)
}

type createReq struct {
	Number          string  `json:"number"`
	Name            string  `json:"name"`
	Description     string  `json:"description"`
	Status          string  `json:"status"`
	PercentComplete int     `json:"percent_complete"`
	ClientID        string  `json:"client_id"`
	FactoryID       string  `json:"factory_id"`
	PMUID           string  `json:"pm_uid"`
	Address         string  `json:"address"`
	City            string  `json:"city"`
	State           string  `json:"state"`
	ContractValue   float64 `json:"contract_value"`
	StartDate       string  `json:"start_date"`
	TargetDate      string  `json:"target_date"`
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
	start, ok := parseDate(req.StartDate)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid start_date"})
		return
	}
	target, ok := parseDate(req.TargetDate)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid target_date"})
		return
	}

	p, err := h.repo.Create(c.Request.Context(), auth.UserFirebaseUID(c), CreateProject{
		Number:          strings.TrimSpace(req.Number),
		Name:            strings.TrimSpace(req.Name),
		Description:     req.Description,
		Status:          req.Status,
		PercentComplete: req.PercentComplete,
		ClientID:        req.ClientID,
		FactoryID:       req.FactoryID,
		PMUID:           req.PMUID,
		Address:         req.Address,
		City:            req.City,
		State:           req.State,
		ContractValue:   req.ContractValue,
		StartDate:       start,
		TargetDate:      target,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"ok": true, "project": p})
}

func (h *Handler) list(c *gin.Context) {
	f := Filter{
		Status:    c.Query("status"),
		ClientID:  c.Query("client_id"),
		FactoryID: c.Query("factory_id"),
		PMUID:     c.Query("pm_uid"),
		Query:     strings.TrimSpace(c.Query("q")),
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
	c.JSON(http.StatusOK, gin.H{"ok": true, "projects": items})
}

func (h *Handler) get(c *gin.Context) {
	p, err := h.repo.Get(c.Request.Context(), c.Param("public_id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "project not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "project": p})
}

type updateReq struct {
	Number          *string  `json:"number"`
	Name            *string  `json:"name"`
	Description     *string  `json:"description"`
	Status          *string  `json:"status"`
	PercentComplete *int     `json:"percent_complete"`
	ClientID        *string  `json:"client_id"`
	FactoryID       *string  `json:"factory_id"`
	PMUID           *string  `json:"pm_uid"`
	Address         *string  `json:"address"`
	City            *string  `json:"city"`
	State           *string  `json:"state"`
	ContractValue   *float64 `json:"contract_value"`
	StartDate       *string  `json:"start_date"`
	TargetDate      *string  `json:"target_date"`
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
	start, ok := parseDatePtr(req.StartDate)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid start_date"})
		return
	}
	target, ok := parseDatePtr(req.TargetDate)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid target_date"})
		return
	}

	p, err := h.repo.Update(c.Request.Context(), c.Param("public_id"), UpdateProject{
		Number:          req.Number,
		Name:            req.Name,
		Description:     req.Description,
		Status:          req.Status,
		PercentComplete: req.PercentComplete,
		ClientID:        req.ClientID,
		FactoryID:       req.FactoryID,
		PMUID:           req.PMUID,
		Address:         req.Address,
		City:            req.City,
		State:           req.State,
		ContractValue:   req.ContractValue,
		StartDate:       start,
		TargetDate:      target,
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "project not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "project": p})
}

func (h *Handler) delete(c *gin.Context) {
	ok, err := h.repo.SoftDelete(c.Request.Context(), c.Param("public_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "project not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// parseDate accepts YYYY-MM-DD; empty means unset.
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
