package service

import (
	"time"

	"leadflow_backend/internal/workflow/domain"

	"github.com/google/uuid"
)

// Activity old/new value shapes.

type stepSnapshot struct {
	Status      domain.StepStatus   `json:"status"`
	CompletedBy *uuid.UUID          `json:"completedBy,omitempty"`
	CompletedAt *time.Time          `json:"completedAt,omitempty"`
	Remarks     *domain.Remarks     `json:"remarks,omitempty"`
	Attachments []domain.Attachment `json:"attachments,omitempty"`
}

func snapshotStep(s domain.LeadStep) stepSnapshot {
	return stepSnapshot{
		Status:      s.Status,
		CompletedBy: s.CompletedBy,
		CompletedAt: s.CompletedAt,
		Remarks:     s.Remarks,
		Attachments: s.Attachments,
	}
}

type leadSnapshot struct {
	Status            domain.LeadStatus `json:"status"`
	CustomerAccountID *uuid.UUID        `json:"customerAccountId,omitempty"`
}

func snapshotLead(l domain.Lead) leadSnapshot {
	return leadSnapshot{Status: l.Status, CustomerAccountID: l.CustomerAccountID}
}

type templateSnapshot struct {
	Name               string        `json:"name"`
	OrderIndex         int           `json:"orderIndex"`
	AllowedRoles       []domain.Role `json:"allowedRoles"`
	RemarksRequired    bool          `json:"remarksRequired"`
	AttachmentsAllowed bool          `json:"attachmentsAllowed"`
	CustomerUpload     bool          `json:"customerUpload"`
	IsActive           bool          `json:"isActive"`
}

func snapshotTemplate(t domain.StepTemplate) templateSnapshot {
	return templateSnapshot{
		Name:               t.Name,
		OrderIndex:         t.OrderIndex,
		AllowedRoles:       t.AllowedRoles,
		RemarksRequired:    t.RemarksRequired,
		AttachmentsAllowed: t.AttachmentsAllowed,
		CustomerUpload:     t.CustomerUpload,
		IsActive:           t.IsActive,
	}
}
