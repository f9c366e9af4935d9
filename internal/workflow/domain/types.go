// Package domain holds the timeline workflow types and the pure rules that
// govern them: permissions, timeline materialization, progression and
// order-index allocation. Nothing in this package touches storage.
package domain

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role is a user role tag supplied by the identity provider.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleOffice    Role = "office"
	RoleAgent     Role = "agent"
	RoleInstaller Role = "installer"
	RoleCustomer  Role = "customer"
)

var knownRoles = map[Role]struct{}{
	RoleAdmin:     {},
	RoleOffice:    {},
	RoleAgent:     {},
	RoleInstaller: {},
	RoleCustomer:  {},
}

// ParseRole normalizes a role tag. ok is false for unknown roles.
func ParseRole(value string) (Role, bool) {
	role := Role(strings.ToLower(strings.TrimSpace(value)))
	_, ok := knownRoles[role]
	return role, ok
}

// IsKnown reports whether r is one of the defined roles.
func (r Role) IsKnown() bool {
	_, ok := knownRoles[r]
	return ok
}

// LeadStatus is the lead-level lifecycle state.
type LeadStatus string

const (
	LeadStatusInquiry   LeadStatus = "inquiry"
	LeadStatusOngoing   LeadStatus = "ongoing"
	LeadStatusClosed    LeadStatus = "closed"
	LeadStatusWithdrawn LeadStatus = "withdrawn"
)

// LeadSource records how a lead entered the system.
type LeadSource string

const (
	LeadSourceAgent    LeadSource = "agent"
	LeadSourceOffice   LeadSource = "office"
	LeadSourceCustomer LeadSource = "customer"
	LeadSourceSelf     LeadSource = "self"
)

// IsKnown reports whether s is one of the defined sources.
func (s LeadSource) IsKnown() bool {
	switch s {
	case LeadSourceAgent, LeadSourceOffice, LeadSourceCustomer, LeadSourceSelf:
		return true
	}
	return false
}

// StepStatus is the state of one lead step.
type StepStatus string

const (
	StepStatusUpcoming  StepStatus = "upcoming"
	StepStatusPending   StepStatus = "pending"
	StepStatusCompleted StepStatus = "completed"
)

// IsKnown reports whether s is one of the defined step statuses.
func (s StepStatus) IsKnown() bool {
	switch s {
	case StepStatusUpcoming, StepStatusPending, StepStatusCompleted:
		return true
	}
	return false
}

// StepTemplate is the admin-defined configuration of one workflow stage.
type StepTemplate struct {
	ID                 uuid.UUID
	Name               string
	OrderIndex         int
	AllowedRoles       []Role
	RemarksRequired    bool
	AttachmentsAllowed bool
	CustomerUpload     bool
	IsActive           bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// AllowsRole reports whether role is listed in the template's allowed roles.
func (t StepTemplate) AllowsRole(role Role) bool {
	for _, allowed := range t.AllowedRoles {
		if allowed == role {
			return true
		}
	}
	return false
}

// Lead is a tracked customer project.
type Lead struct {
	ID                uuid.UUID
	Status            LeadStatus
	CreatedBy         uuid.UUID
	CustomerAccountID *uuid.UUID
	InstallerID       *uuid.UUID
	Source            LeadSource
	Name              string
	Phone             string
	Email             *string
	Notes             *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// IsClosed reports whether the lead is closed.
func (l Lead) IsClosed() bool {
	return l.Status == LeadStatusClosed
}

// IsLinkedTo reports whether the lead belongs to the customer account.
func (l Lead) IsLinkedTo(customerID uuid.UUID) bool {
	return l.CustomerAccountID != nil && *l.CustomerAccountID == customerID
}

// Attachment references an object stored in the lead documents bucket.
type Attachment struct {
	FileKey     string `json:"fileKey"`
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
	SizeBytes   int64  `json:"sizeBytes"`
}

// LeadStep is the per-lead instance of a step template.
type LeadStep struct {
	ID          uuid.UUID
	LeadID      uuid.UUID
	StepID      uuid.UUID
	Status      StepStatus
	CompletedBy *uuid.UUID
	CompletedAt *time.Time
	Remarks     *Remarks
	Attachments []Attachment
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsCompleted reports whether the step is completed.
func (s LeadStep) IsCompleted() bool {
	return s.Status == StepStatusCompleted
}

// TimelineStep joins a lead step with its template for display.
type TimelineStep struct {
	Step     LeadStep
	Template StepTemplate
}

// ActiveInOrder returns the active templates sorted by order index.
func ActiveInOrder(templates []StepTemplate) []StepTemplate {
	active := make([]StepTemplate, 0, len(templates))
	for _, t := range templates {
		if t.IsActive {
			active = append(active, t)
		}
	}
	sort.SliceStable(active, func(i, j int) bool {
		return active[i].OrderIndex < active[j].OrderIndex
	})
	return active
}
