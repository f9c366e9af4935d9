package handler

import (
	"net/http"

	"leadflow_backend/internal/workflow/domain"
	"leadflow_backend/internal/workflow/service"
	"leadflow_backend/internal/workflow/transport"
	"leadflow_backend/platform/apperr"
	"leadflow_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

func (h *Handler) CreateLead(c *gin.Context) {
	who, ok := actor(c)
	if !ok {
		return
	}

	var req transport.CreateLeadRequest
	if !h.bind(c, &req) {
		return
	}

	details, err := h.svc.CreateLead(c.Request.Context(), who, service.CreateLeadInput{
		Name:        req.Name,
		Phone:       req.Phone,
		Email:       req.Email,
		Notes:       req.Notes,
		Source:      domain.LeadSource(req.Source),
		InstallerID: req.InstallerID,
	})
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.Created(c, transport.LeadDetailResponse{
		Lead:     transport.ToLeadResponse(details.Lead),
		Timeline: transport.ToTimeline(details.Timeline),
	})
}

func (h *Handler) GetLead(c *gin.Context) {
	who, ok := actor(c)
	if !ok {
		return
	}
	leadID, ok := parseID(c, "id")
	if !ok {
		return
	}

	details, err := h.svc.GetLead(c.Request.Context(), who, leadID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.LeadDetailResponse{
		Lead:     transport.ToLeadResponse(details.Lead),
		Timeline: transport.ToTimeline(details.Timeline),
	})
}

func (h *Handler) GetTimeline(c *gin.Context) {
	who, ok := actor(c)
	if !ok {
		return
	}
	leadID, ok := parseID(c, "id")
	if !ok {
		return
	}

	timeline, err := h.svc.GetTimeline(c.Request.Context(), who, leadID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.TimelineResponse{LeadID: leadID, Steps: transport.ToTimeline(timeline)})
}

func (h *Handler) InitializeTimeline(c *gin.Context) {
	who, ok := actor(c)
	if !ok {
		return
	}
	leadID, ok := parseID(c, "id")
	if !ok {
		return
	}

	if _, err := h.svc.InitializeLeadTimeline(c.Request.Context(), who, leadID); httpkit.HandleError(c, err) {
		return
	}

	timeline, err := h.svc.GetTimeline(c.Request.Context(), who, leadID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.Created(c, transport.TimelineResponse{LeadID: leadID, Steps: transport.ToTimeline(timeline)})
}

func (h *Handler) CompleteStep(c *gin.Context) {
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

	var req transport.CompleteStepRequest
	if !h.bind(c, &req) {
		return
	}

	remarks, err := domain.ParseRemarks(req.Remarks)
	if err != nil {
		httpkit.HandleError(c, apperr.Validation("remarks are not valid JSON"))
		return
	}

	step, err := h.svc.CompleteStep(c.Request.Context(), service.CompleteStepInput{
		LeadID:      leadID,
		StepID:      stepID,
		Actor:       who,
		Remarks:     remarks,
		Attachments: transport.ToAttachments(req.Attachments),
	})
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToLeadStepResponse(step))
}

func (h *Handler) AttachDocuments(c *gin.Context) {
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

	var req transport.AttachDocumentsRequest
	if !h.bind(c, &req) {
		return
	}

	step, err := h.svc.AttachDocuments(c.Request.Context(), who, leadID, stepID, transport.ToAttachments(req.Attachments))
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToLeadStepResponse(step))
}

func (h *Handler) ListActivity(c *gin.Context) {
	who, ok := actor(c)
	if !ok {
		return
	}
	leadID, ok := parseID(c, "id")
	if !ok {
		return
	}

	entries, err := h.svc.ListActivity(c.Request.Context(), who, leadID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToActivityList(entries))
}

func (h *Handler) CloseProject(c *gin.Context) {
	who, ok := actor(c)
	if !ok {
		return
	}
	leadID, ok := parseID(c, "id")
	if !ok {
		return
	}

	lead, err := h.svc.CloseProject(c.Request.Context(), who, leadID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToLeadResponse(lead))
}

func (h *Handler) ReopenProject(c *gin.Context) {
	who, ok := actor(c)
	if !ok {
		return
	}
	leadID, ok := parseID(c, "id")
	if !ok {
		return
	}

	lead, err := h.svc.ReopenProject(c.Request.Context(), who, leadID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToLeadResponse(lead))
}

func (h *Handler) OverrideStepStatus(c *gin.Context) {
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

	var req transport.OverrideStepStatusRequest
	if !h.bind(c, &req) {
		return
	}

	step, err := h.svc.OverrideStepStatus(c.Request.Context(), who, leadID, stepID, domain.StepStatus(req.Status))
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToLeadStepResponse(step))
}

// LinkLead is called by the customer app right after signup.
func (h *Handler) LinkLead(c *gin.Context) {
	who, ok := actor(c)
	if !ok {
		return
	}

	var req transport.LinkLeadRequest
	if !h.bind(c, &req) {
		return
	}

	result, err := h.svc.LinkCustomerToLead(c.Request.Context(), service.LinkCustomerInput{
		CustomerID: who.UserID,
		Phone:      req.Phone,
		Name:       req.Name,
		Email:      req.Email,
	})
	if httpkit.HandleError(c, err) {
		return
	}

	status := http.StatusOK
	if result.Action == service.LinkActionCreated {
		status = http.StatusCreated
	}
	httpkit.JSON(c, status, transport.LinkLeadResponse{
		Action:     result.Action,
		LeadID:     result.LeadID,
		CustomerID: result.CustomerID,
	})
}
