package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"contact-keeper/internal/storage"
)

type ExportResponse struct {
	Key      string `json:"key"`
	Location string `json:"location"`
	URL      string `json:"url"`
	Count    int    `json:"count"`
	Date     string `json:"date"`
}

type ExportObjectResponse struct {
	Key          string  `json:"key"`
	Size         int64   `json:"size"`
	LastModified *string `json:"last_modified,omitempty"`
}

func (h *Handler) createExport(c *gin.Context) {
	userID, ok := h.authorize(c)
	if !ok {
		return
	}

	export, err := h.exports.Export(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, ExportResponse{
		Key:      export.Key,
		Location: export.Location,
		URL:      export.URL,
		Count:    export.Count,
		Date:     export.CreatedAt.Format(time.RFC3339),
	})
}

func (h *Handler) listExports(c *gin.Context) {
	userID, ok := h.authorize(c)
	if !ok {
		return
	}

	objects, err := h.exports.List(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	resp := make([]ExportObjectResponse, len(objects))
	for i := range objects {
		resp[i] = objectToResponse(objects[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) purgeExports(c *gin.Context) {
	userID, ok := h.authorize(c)
	if !ok {
		return
	}

	if err := h.exports.Purge(c.Request.Context(), userID); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"msg": "exports removed"})
}

func objectToResponse(obj storage.ObjectInfo) ExportObjectResponse {
	resp := ExportObjectResponse{
		Key:  obj.Key,
		Size: obj.Size,
	}
	if obj.LastModified != nil && !obj.LastModified.IsZero() {
		v := obj.LastModified.Format(time.RFC3339)
		resp.LastModified = &v
	}
	return resp
}
