package transport

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// Step templates
// =============================================================================

type CreateTemplateRequest struct {
	Name               string   `json:"name" validate:"required,min=1,max=200"`
	OrderIndex         *int     `json:"orderIndex" validate:"omitempty,min=0,max=2147483647"`
	InsertAfter        *string  `json:"insertAfter" validate:"omitempty,uuid"`
	InsertFirst        bool     `json:"insertFirst"`
	AllowedRoles       []string `json:"allowedRoles" validate:"required,min=1,dive,oneof=admin office agent installer customer"`
	RemarksRequired    bool     `json:"remarksRequired"`
	AttachmentsAllowed bool     `json:"attachmentsAllowed"`
	CustomerUpload     bool     `json:"customerUpload"`
	IsActive           *bool    `json:"isActive"`
}

type UpdateTemplateRequest struct {
	Name               *string  `json:"name" validate:"omitempty,min=1,max=200"`
	AllowedRoles       []string `json:"allowedRoles" validate:"omitempty,min=1,dive,oneof=admin office agent installer customer"`
	RemarksRequired    *bool    `json:"remarksRequired"`
	AttachmentsAllowed *bool    `json:"attachmentsAllowed"`
	CustomerUpload     *bool    `json:"customerUpload"`
	IsActive           *bool    `json:"isActive"`
}

type ReorderTemplateRequest struct {
	OrderIndex *int `json:"orderIndex" validate:"required,min=0,max=2147483647"`
}

type RenumberTemplatesRequest struct {
	Order []uuid.UUID `json:"order" validate:"required,min=1"`
}

type TemplateResponse struct {
	ID                 uuid.UUID `json:"id"`
	Name               string    `json:"name"`
	OrderIndex         int       `json:"orderIndex"`
	AllowedRoles       []string  `json:"allowedRoles"`
	RemarksRequired    bool      `json:"remarksRequired"`
	AttachmentsAllowed bool      `json:"attachmentsAllowed"`
	CustomerUpload     bool      `json:"customerUpload"`
	IsActive           bool      `json:"isActive"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

type TemplateListResponse struct {
	Items []TemplateResponse `json:"items"`
}

// =============================================================================
// Leads and steps
// =============================================================================

type CreateLeadRequest struct {
	Name        string     `json:"name" validate:"required,min=1,max=200"`
	Phone       string     `json:"phone" validate:"required,min=3,max=32"`
	Email       *string    `json:"email" validate:"omitempty,email,max=254"`
	Notes       *string    `json:"notes" validate:"omitempty,max=2000"`
	Source      string     `json:"source" validate:"omitempty,oneof=agent office customer self"`
	InstallerID *uuid.UUID `json:"installerId"`
}

type AttachmentRequest struct {
	FileKey     string `json:"fileKey" validate:"required,max=512"`
	FileName    string `json:"fileName" validate:"required,max=255"`
	ContentType string `json:"contentType" validate:"required,max=255"`
	SizeBytes   int64  `json:"sizeBytes" validate:"min=0"`
}

type CompleteStepRequest struct {
	Remarks     json.RawMessage     `json:"remarks"`
	Attachments []AttachmentRequest `json:"attachments" validate:"omitempty,max=20,dive"`
}

type AttachDocumentsRequest struct {
	Attachments []AttachmentRequest `json:"attachments" validate:"required,min=1,max=20,dive"`
}

type UploadURLRequest struct {
	FileName    string `json:"fileName" validate:"required,max=255"`
	ContentType string `json:"contentType" validate:"required,max=255"`
	SizeBytes   int64  `json:"sizeBytes" validate:"required,min=1"`
}

type OverrideStepStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=upcoming pending completed"`
}

type LinkLeadRequest struct {
	Phone string  `json:"phone" validate:"required,min=3,max=32"`
	Name  string  `json:"name" validate:"required,min=1,max=200"`
	Email *string `json:"email" validate:"omitempty,email,max=254"`
}

type LeadResponse struct {
	ID                uuid.UUID  `json:"id"`
	Status            string     `json:"status"`
	Source            string     `json:"source"`
	Name              string     `json:"name"`
	Phone             string     `json:"phone"`
	Email             *string    `json:"email,omitempty"`
	Notes             *string    `json:"notes,omitempty"`
	CreatedBy         uuid.UUID  `json:"createdBy"`
	CustomerAccountID *uuid.UUID `json:"customerAccountId,omitempty"`
	InstallerID       *uuid.UUID `json:"installerId,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

type AttachmentResponse struct {
	FileKey     string `json:"fileKey"`
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
	SizeBytes   int64  `json:"sizeBytes"`
}

type LeadStepResponse struct {
	ID          uuid.UUID            `json:"id"`
	LeadID      uuid.UUID            `json:"leadId"`
	StepID      uuid.UUID            `json:"stepId"`
	Status      string               `json:"status"`
	CompletedBy *uuid.UUID           `json:"completedBy,omitempty"`
	CompletedAt *time.Time           `json:"completedAt,omitempty"`
	Remarks     json.RawMessage      `json:"remarks,omitempty"`
	Attachments []AttachmentResponse `json:"attachments"`
	UpdatedAt   time.Time            `json:"updatedAt"`
}

type TimelineStepResponse struct {
	LeadStepResponse
	Name               string   `json:"name"`
	OrderIndex         int      `json:"orderIndex"`
	AllowedRoles       []string `json:"allowedRoles"`
	RemarksRequired    bool     `json:"remarksRequired"`
	AttachmentsAllowed bool     `json:"attachmentsAllowed"`
	CustomerUpload     bool     `json:"customerUpload"`
	TemplateActive     bool     `json:"templateActive"`
}

type TimelineResponse struct {
	LeadID uuid.UUID              `json:"leadId"`
	Steps  []TimelineStepResponse `json:"steps"`
}

type LeadDetailResponse struct {
	Lead     LeadResponse           `json:"lead"`
	Timeline []TimelineStepResponse `json:"timeline"`
}

type ActivityResponse struct {
	ID         uuid.UUID       `json:"id"`
	UserID     uuid.UUID       `json:"userId"`
	Action     string          `json:"action"`
	EntityType string          `json:"entityType"`
	EntityID   uuid.UUID       `json:"entityId"`
	OldValue   json.RawMessage `json:"oldValue,omitempty"`
	NewValue   json.RawMessage `json:"newValue,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
}

type ActivityListResponse struct {
	Items []ActivityResponse `json:"items"`
}

type LinkLeadResponse struct {
	Action     string    `json:"action"`
	LeadID     uuid.UUID `json:"leadId"`
	CustomerID uuid.UUID `json:"customerId"`
}

// PresignedURLResponse carries a presigned URL. Headers must be sent
// unchanged with the upload.
type PresignedURLResponse struct {
	URL       string            `json:"url"`
	FileKey   string            `json:"fileKey"`
	ExpiresAt time.Time         `json:"expiresAt"`
	Headers   map[string]string `json:"headers,omitempty"`
}
