package reports

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/RoverLander/Sunbelt-PM-System-V1-sub000/internal/auth"
	"github.com/RoverLander/Sunbelt-PM-System-V1-sub000/internal/projects"
)

type Handler struct {
	svc *Service
}

func Register(rg *gin.RouterGroup, svc *Service) {
	h := &Handler{svc: svc}

	rg.GET("/dashboard", h.dashboard)
	rg.GET("/executive", h.executive)
	rg.GET("/executive/export", h.exportExecutive)
	rg.GET("/snapshots", h.snapshots)
	rg.POST("/refresh", auth.RequireRole("admin", "pm"), h.refresh)
}

// RegisterProjectSummary hangs the per-project counters off the
// projects group.
func RegisterProjectSummary(rg *gin.RouterGroup, svc *Service) {
	h := &Handler{svc: svc}

	rg.GET("/:public_id/summary", h.projectSummary)
}

func (h *Handler) dashboard(c *gin.Context) {
	stats, err := h.svc.Dashboard(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "dashboard": stats})
}

func (h *Handler) executive(c *gin.Context) {
	force := c.Query("refresh") == "1" || c.Query("refresh") == "true"

	report, err := h.svc.Executive(c.Request.Context(), force)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "report": report})
}

func (h *Handler) exportExecutive(c *gin.Context) {
	report, err := h.svc.Executive(c.Request.Context(), false)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	file, err := BuildExecutiveXLSX(report)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	name := fmt.Sprintf("executive-report-%s.xlsx", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")

	if err := file.Write(c.Writer); err != nil {
		// headers are gone already; log-and-drop is all that is left
		c.Error(err)
	}
}

func (h *Handler) snapshots(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))

	items, err := h.svc.Snapshots(c.Request.Context(), c.Query("scope"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "snapshots": items})
}

func (h *Handler) refresh(c *gin.Context) {
	report, err := h.svc.Refresh(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "report": report})
}

func (h *Handler) projectSummary(c *gin.Context) {
	summary, err := h.svc.ProjectSummary(c.Request.Context(), c.Param("public_id"))
	if err != nil {
		if errors.Is(err, projects.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "project not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "summary": summary})
}
