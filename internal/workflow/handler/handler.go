// Package handler exposes the lead timeline workflow over HTTP.
package handler

import (
	"context"
	"net/http"

	"leadflow_backend/internal/adapters/storage"
	"leadflow_backend/internal/workflow/domain"
	"leadflow_backend/internal/workflow/service"
	"leadflow_backend/platform/apperr"
	"leadflow_backend/platform/httpkit"
	"leadflow_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid id"
)

// DocumentStore hands out presigned URLs for lead documents.
type DocumentStore interface {
	GenerateUploadURL(ctx context.Context, bucket, folder, fileName, contentType string, sizeBytes int64) (*storage.PresignedURL, error)
	GenerateDownloadURL(ctx context.Context, bucket, fileKey string) (*storage.PresignedURL, error)
}

// Handler handles workflow HTTP requests.
type Handler struct {
	svc    *service.Service
	val    *validator.Validator
	docs   DocumentStore
	bucket string
}

// New creates a workflow handler. docs may be nil when object storage is
// not configured; the presign endpoints then answer 503.
func New(svc *service.Service, val *validator.Validator, docs DocumentStore, bucket string) *Handler {
	return &Handler{svc: svc, val: val, docs: docs, bucket: bucket}
}

// RegisterRoutes mounts the workflow routes. protected requires a valid
// access token; admin additionally requires the admin role.
func (h *Handler) RegisterRoutes(protected, admin *gin.RouterGroup) {
	protected.GET("/step-templates", h.ListTemplates)

	leads := protected.Group("/leads")
	leads.POST("", h.CreateLead)
	leads.GET("/:id", h.GetLead)
	leads.GET("/:id/steps", h.GetTimeline)
	leads.POST("/:id/timeline", h.InitializeTimeline)
	leads.POST("/:id/steps/:stepId/complete", h.CompleteStep)
	leads.POST("/:id/steps/:stepId/attachments", h.AttachDocuments)
	leads.POST("/:id/steps/:stepId/upload-url", h.UploadURL)
	leads.GET("/:id/documents/download-url", h.DownloadURL)
	leads.GET("/:id/activity", h.ListActivity)
	leads.POST("/:id/close", h.CloseProject)
	leads.POST("/:id/reopen", h.ReopenProject)

	customers := protected.Group("/customers", httpkit.RequireRole(string(domain.RoleCustomer)))
	customers.POST("/me/link-lead", h.LinkLead)

	templates := admin.Group("/step-templates")
	templates.POST("", h.CreateTemplate)
	templates.PATCH("/:id", h.UpdateTemplate)
	templates.POST("/:id/reorder", h.ReorderTemplate)
	templates.PUT("/order", h.RenumberTemplates)

	admin.PUT("/leads/:id/steps/:stepId/status", h.OverrideStepStatus)
}

// actor resolves the caller. It writes the error response and returns false
// when the caller has no usable identity.
func actor(c *gin.Context) (service.Actor, bool) {
	identity, ok := httpkit.MustGetIdentity(c)
	if !ok {
		return service.Actor{}, false
	}
	role, ok := domain.ParseRole(identity.PrimaryRole())
	if !ok {
		httpkit.HandleError(c, domain.ErrPermissionDenied("no workflow role assigned"))
		return service.Actor{}, false
	}
	return service.Actor{UserID: identity.UserID, Role: role}, true
}

func parseID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, map[string]string{"param": param})
		return uuid.Nil, false
	}
	return id, true
}

// bind decodes and validates the JSON body into req.
func (h *Handler) bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		httpkit.HandleError(c, apperr.BadRequest(msgInvalidRequest).WithDetails(err.Error()))
		return false
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.HandleError(c, apperr.Validation(msgValidationFailed).WithDetails(validator.FieldErrors(err)))
		return false
	}
	return true
}
