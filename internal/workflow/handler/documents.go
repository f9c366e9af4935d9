package handler

import (
	"net/http"
	"strings"

	"leadflow_backend/internal/workflow/service"
	"leadflow_backend/internal/workflow/transport"
	"leadflow_backend/platform/apperr"
	"leadflow_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

const msgStorageDisabled = "document storage is not configured"

// UploadURL hands out a presigned PUT URL for a document of the step. The
// returned fileKey is then passed to the complete or attachments endpoint.
func (h *Handler) UploadURL(c *gin.Context) {
	if h.docs == nil {
		httpkit.Error(c, http.StatusServiceUnavailable, msgStorageDisabled, nil)
		return
	}
	who, ok := actor(c)
	if !ok {
		return
	}
	leadID, ok := parseID(c, "id")
	if !ok {
		return
	}
	stepID, ok := parseID(c, "stepId")
	if !ok {
		return
	}

	var req transport.UploadURLRequest
	if !h.bind(c, &req) {
		return
	}

	if err := h.svc.AuthorizeUpload(c.Request.Context(), who, leadID, stepID); httpkit.HandleError(c, err) {
		return
	}

	presigned, err := h.docs.GenerateUploadURL(c.Request.Context(), h.bucket,
		service.DocumentFolder(leadID, stepID), req.FileName, req.ContentType, req.SizeBytes)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToPresignedURLResponse(presigned))
}

func (h *Handler) DownloadURL(c *gin.Context) {
	if h.docs == nil {
		httpkit.Error(c, http.StatusServiceUnavailable, msgStorageDisabled, nil)
		return
	}
	who, ok := actor(c)
	if !ok {
		return
	}
	leadID, ok := parseID(c, "id")
	if !ok {
		return
	}

	fileKey := strings.TrimSpace(c.Query("fileKey"))
	if fileKey == "" {
		httpkit.HandleError(c, apperr.Validation("fileKey is required"))
		return
	}

	if err := h.svc.AuthorizeDocumentAccess(c.Request.Context(), who, leadID, fileKey); httpkit.HandleError(c, err) {
		return
	}

	presigned, err := h.docs.GenerateDownloadURL(c.Request.Context(), h.bucket, fileKey)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToPresignedURLResponse(presigned))
}
