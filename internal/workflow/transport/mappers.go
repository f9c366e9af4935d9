package transport

import (
	"encoding/json"

	"leadflow_backend/internal/activity"
	"leadflow_backend/internal/adapters/storage"
	"leadflow_backend/internal/workflow/domain"
)

func ToTemplateResponse(t domain.StepTemplate) TemplateResponse {
	return TemplateResponse{
		ID:                 t.ID,
		Name:               t.Name,
		OrderIndex:         t.OrderIndex,
		AllowedRoles:       rolesToStrings(t.AllowedRoles),
		RemarksRequired:    t.RemarksRequired,
		AttachmentsAllowed: t.AttachmentsAllowed,
		CustomerUpload:     t.CustomerUpload,
		IsActive:           t.IsActive,
		CreatedAt:          t.CreatedAt,
		UpdatedAt:          t.UpdatedAt,
	}
}

func ToTemplateList(templates []domain.StepTemplate) TemplateListResponse {
	items := make([]TemplateResponse, 0, len(templates))
	for _, t := range templates {
		items = append(items, ToTemplateResponse(t))
	}
	return TemplateListResponse{Items: items}
}

func ToLeadResponse(l domain.Lead) LeadResponse {
	return LeadResponse{
		ID:                l.ID,
		Status:            string(l.Status),
		Source:            string(l.Source),
		Name:              l.Name,
		Phone:             l.Phone,
		Email:             l.Email,
		Notes:             l.Notes,
		CreatedBy:         l.CreatedBy,
		CustomerAccountID: l.CustomerAccountID,
		InstallerID:       l.InstallerID,
		CreatedAt:         l.CreatedAt,
		UpdatedAt:         l.UpdatedAt,
	}
}

func ToLeadStepResponse(s domain.LeadStep) LeadStepResponse {
	var remarks json.RawMessage
	if s.Remarks != nil {
		if data, err := json.Marshal(s.Remarks); err == nil {
			remarks = data
		}
	}
	return LeadStepResponse{
		ID:          s.ID,
		LeadID:      s.LeadID,
		StepID:      s.StepID,
		Status:      string(s.Status),
		CompletedBy: s.CompletedBy,
		CompletedAt: s.CompletedAt,
		Remarks:     remarks,
		Attachments: toAttachmentResponses(s.Attachments),
		UpdatedAt:   s.UpdatedAt,
	}
}

func ToTimeline(timeline []domain.TimelineStep) []TimelineStepResponse {
	out := make([]TimelineStepResponse, 0, len(timeline))
	for _, ts := range timeline {
		out = append(out, TimelineStepResponse{
			LeadStepResponse:   ToLeadStepResponse(ts.Step),
			Name:               ts.Template.Name,
			OrderIndex:         ts.Template.OrderIndex,
			AllowedRoles:       rolesToStrings(ts.Template.AllowedRoles),
			RemarksRequired:    ts.Template.RemarksRequired,
			AttachmentsAllowed: ts.Template.AttachmentsAllowed,
			CustomerUpload:     ts.Template.CustomerUpload,
			TemplateActive:     ts.Template.IsActive,
		})
	}
	return out
}

func ToActivityList(entries []activity.Entry) ActivityListResponse {
	items := make([]ActivityResponse, 0, len(entries))
	for _, e := range entries {
		items = append(items, ActivityResponse{
			ID:         e.ID,
			UserID:     e.UserID,
			Action:     e.Action,
			EntityType: e.EntityType,
			EntityID:   e.EntityID,
			OldValue:   e.OldValue,
			NewValue:   e.NewValue,
			CreatedAt:  e.CreatedAt,
		})
	}
	return ActivityListResponse{Items: items}
}

// ToAttachments converts request attachments into domain references.
func ToAttachments(in []AttachmentRequest) []domain.Attachment {
	if len(in) == 0 {
		return nil
	}
	out := make([]domain.Attachment, 0, len(in))
	for _, a := range in {
		out = append(out, domain.Attachment{
			FileKey:     a.FileKey,
			FileName:    a.FileName,
			ContentType: a.ContentType,
			SizeBytes:   a.SizeBytes,
		})
	}
	return out
}

// ToRoles converts validated role tags.
func ToRoles(in []string) []domain.Role {
	if in == nil {
		return nil
	}
	out := make([]domain.Role, 0, len(in))
	for _, r := range in {
		out = append(out, domain.Role(r))
	}
	return out
}

func toAttachmentResponses(in []domain.Attachment) []AttachmentResponse {
	out := make([]AttachmentResponse, 0, len(in))
	for _, a := range in {
		out = append(out, AttachmentResponse{
			FileKey:     a.FileKey,
			FileName:    a.FileName,
			ContentType: a.ContentType,
			SizeBytes:   a.SizeBytes,
		})
	}
	return out
}

func rolesToStrings(roles []domain.Role) []string {
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		out = append(out, string(r))
	}
	return out
}

func ToPresignedURLResponse(p *storage.PresignedURL) PresignedURLResponse {
	return PresignedURLResponse{URL: p.URL, FileKey: p.FileKey, ExpiresAt: p.ExpiresAt, Headers: p.Headers}
}
