package attachments

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/RoverLander/Sunbelt-PM-System-V1-sub000/internal/auth"
)

type Handler struct {
	repo   *Repo
	signer Signer
}

// RegisterEntityRoutes mounts the attachment collection for one owner
// entity, e.g. /projects/:public_id/attachments. The entity type is
// fixed at registration.
func RegisterEntityRoutes(rg *gin.RouterGroup, entityType string, repo *Repo, signer Signer) {
	h := &Handler{repo: repo, signer: signer}

	rg.POST("/:public_id/attachments", func(c *gin.Context) { h.create(c, entityType) })
	rg.GET("/:public_id/attachments", func(c *gin.Context) { h.listForEntity(c, entityType) })
}

// RegisterItemRoutes mounts the flat item routes under /attachments.
func RegisterItemRoutes(rg *gin.RouterGroup, repo *Repo, signer Signer) {
	h := &Handler{repo: repo, signer: signer}

	rg.GET("/:public_id/url", h.downloadURL)
	rg.DELETE("/:public_id", h.delete)
}

type createReq struct {
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	SizeBytes   int64  `json:"size_bytes"`
}

// create writes the metadata row and returns a presigned PUT URL the
// client uploads the bytes to.
func (h *Handler) create(c *gin.Context, entityType string) {
	if h.signer == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false, "error": "object storage not configured"})
		return
	}

	var req createReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}
	fileName := SanitizeFileName(req.FileName)
	if fileName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "file_name required"})
		return
	}
	if req.SizeBytes < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid size_bytes"})
		return
	}

	a, err := h.repo.Create(c.Request.Context(), auth.UserFirebaseUID(c), entityType, c.Param("public_id"), CreateAttachment{
		FileName:    fileName,
		ContentType: req.ContentType,
		SizeBytes:   req.SizeBytes,
	})
	if err != nil {
		if errors.Is(err, ErrOwnerNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": entityType + " not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	uploadURL, err := h.signer.PresignUpload(c.Request.Context(), a.ObjectKey, a.ContentType)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"ok": true, "attachment": a, "upload_url": uploadURL})
}

func (h *Handler) listForEntity(c *gin.Context, entityType string) {
	items, err := h.repo.ListForEntity(c.Request.Context(), entityType, c.Param("public_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "attachments": items})
}

func (h *Handler) downloadURL(c *gin.Context) {
	if h.signer == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false, "error": "object storage not configured"})
		return
	}

	a, err := h.repo.Get(c.Request.Context(), c.Param("public_id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "attachment not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	url, err := h.signer.PresignDownload(c.Request.Context(), a.ObjectKey, a.FileName)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "url": url, "file_name": a.FileName})
}

func (h *Handler) delete(c *gin.Context) {
	ok, err := h.repo.SoftDelete(c.Request.Context(), c.Param("public_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "attachment not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
