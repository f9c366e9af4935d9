// Package events defines the workflow events. The bus itself lives in
// platform/events; its types are aliased here so modules import one package.
package events

import (
	"leadflow_backend/platform/events"
	"leadflow_backend/platform/logger"

	"github.com/google/uuid"
)

type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
	InMemoryBus = events.InMemoryBus
)

var NewBaseEvent = events.NewBaseEvent

func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return events.NewInMemoryBus(log)
}

// Event names, also used as notification task suffixes.
const (
	NameLeadCreated       = "workflow.lead.created"
	NameStepCompleted     = "workflow.step.completed"
	NameStepEnabled       = "workflow.step.enabled"
	NameDocumentsUploaded = "workflow.step.documents_uploaded"
	NameLeadClosed        = "workflow.lead.closed"
	NameLeadReopened      = "workflow.lead.reopened"
	NameCustomerLinked    = "workflow.customer.linked"
)

// =============================================================================
// Workflow Domain Events
// =============================================================================

// LeadCreated is published after a lead and its timeline were committed.
type LeadCreated struct {
	BaseEvent
	LeadID    uuid.UUID `json:"leadId"`
	CreatedBy uuid.UUID `json:"createdBy"`
	Source    string    `json:"source"`
	StepCount int       `json:"stepCount"`
}

func (e LeadCreated) EventName() string { return NameLeadCreated }

// StepCompleted is published after a lead step was completed.
type StepCompleted struct {
	BaseEvent
	LeadID      uuid.UUID `json:"leadId"`
	StepID      uuid.UUID `json:"stepId"`
	LeadStepID  uuid.UUID `json:"leadStepId"`
	StepName    string    `json:"stepName"`
	CompletedBy uuid.UUID `json:"completedBy"`
	Role        string    `json:"role"`
}

func (e StepCompleted) EventName() string { return NameStepCompleted }

// StepEnabled is published when progression moved a step to pending.
type StepEnabled struct {
	BaseEvent
	LeadID       uuid.UUID `json:"leadId"`
	StepID       uuid.UUID `json:"stepId"`
	LeadStepID   uuid.UUID `json:"leadStepId"`
	StepName     string    `json:"stepName"`
	AllowedRoles []string  `json:"allowedRoles"`
}

func (e StepEnabled) EventName() string { return NameStepEnabled }

// DocumentsUploaded is published when documents were attached to a step.
type DocumentsUploaded struct {
	BaseEvent
	LeadID     uuid.UUID `json:"leadId"`
	StepID     uuid.UUID `json:"stepId"`
	StepName   string    `json:"stepName"`
	UploadedBy uuid.UUID `json:"uploadedBy"`
	FileKeys   []string  `json:"fileKeys"`
}

func (e DocumentsUploaded) EventName() string { return NameDocumentsUploaded }

// LeadClosed is published when a lead was closed.
type LeadClosed struct {
	BaseEvent
	LeadID   uuid.UUID `json:"leadId"`
	ClosedBy uuid.UUID `json:"closedBy"`
}

func (e LeadClosed) EventName() string { return NameLeadClosed }

// LeadReopened is published when an admin reopened a lead.
type LeadReopened struct {
	BaseEvent
	LeadID     uuid.UUID `json:"leadId"`
	ReopenedBy uuid.UUID `json:"reopenedBy"`
}

func (e LeadReopened) EventName() string { return NameLeadReopened }

// CustomerLinked is published when a self-registered customer was linked
// to an existing lead or received a new one.
type CustomerLinked struct {
	BaseEvent
	LeadID     uuid.UUID `json:"leadId"`
	CustomerID uuid.UUID `json:"customerId"`
	Action     string    `json:"action"`
}

func (e CustomerLinked) EventName() string { return NameCustomerLinked }
