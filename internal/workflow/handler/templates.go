package handler

import (
	"strings"

	"leadflow_backend/internal/workflow/service"
	"leadflow_backend/internal/workflow/transport"
	"leadflow_backend/platform/apperr"
	"leadflow_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func (h *Handler) ListTemplates(c *gin.Context) {
	includeInactive := strings.EqualFold(c.Query("includeInactive"), "true")

	templates, err := h.svc.ListTemplates(c.Request.Context(), includeInactive)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToTemplateList(templates))
}

// CreateTemplate places a template either at an explicit orderIndex or
// relative to an existing template (insertAfter, insertFirst).
func (h *Handler) CreateTemplate(c *gin.Context) {
	who, ok := actor(c)
	if !ok {
		return
	}

	var req transport.CreateTemplateRequest
	if !h.bind(c, &req) {
		return
	}

	in := service.TemplateInput{
		Name:               req.Name,
		AllowedRoles:       transport.ToRoles(req.AllowedRoles),
		RemarksRequired:    req.RemarksRequired,
		AttachmentsAllowed: req.AttachmentsAllowed,
		CustomerUpload:     req.CustomerUpload,
		Inactive:           req.IsActive != nil && !*req.IsActive,
	}

	var err error
	var created transport.TemplateResponse
	switch {
	case req.OrderIndex != nil:
		in.OrderIndex = *req.OrderIndex
		tpl, createErr := h.svc.CreateTemplate(c.Request.Context(), who, in)
		created, err = transport.ToTemplateResponse(tpl), createErr
	case req.InsertAfter != nil || req.InsertFirst:
		var after *uuid.UUID
		if req.InsertAfter != nil {
			id := uuid.MustParse(*req.InsertAfter)
			after = &id
		}
		tpl, createErr := h.svc.InsertTemplateAfter(c.Request.Context(), who, in, after)
		created, err = transport.ToTemplateResponse(tpl), createErr
	default:
		err = apperr.Validation("one of orderIndex, insertAfter or insertFirst is required")
	}
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.Created(c, created)
}

func (h *Handler) UpdateTemplate(c *gin.Context) {
	who, ok := actor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req transport.UpdateTemplateRequest
	if !h.bind(c, &req) {
		return
	}

	updated, err := h.svc.UpdateTemplate(c.Request.Context(), who, id, service.TemplatePatch{
		Name:               req.Name,
		AllowedRoles:       transport.ToRoles(req.AllowedRoles),
		RemarksRequired:    req.RemarksRequired,
		AttachmentsAllowed: req.AttachmentsAllowed,
		CustomerUpload:     req.CustomerUpload,
		IsActive:           req.IsActive,
	})
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToTemplateResponse(updated))
}

func (h *Handler) ReorderTemplate(c *gin.Context) {
	who, ok := actor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req transport.ReorderTemplateRequest
	if !h.bind(c, &req) {
		return
	}

	updated, err := h.svc.Reorder(c.Request.Context(), who, id, *req.OrderIndex)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToTemplateResponse(updated))
}

func (h *Handler) RenumberTemplates(c *gin.Context) {
	who, ok := actor(c)
	if !ok {
		return
	}

	var req transport.RenumberTemplatesRequest
	if !h.bind(c, &req) {
		return
	}

	templates, err := h.svc.RenumberTemplates(c.Request.Context(), who, req.Order)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToTemplateList(templates))
}
