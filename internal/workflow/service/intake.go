package service

import (
	"context"

	"leadflow_backend/internal/activity"
	"leadflow_backend/internal/events"
	"leadflow_backend/internal/workflow/domain"
	"leadflow_backend/internal/workflow/repository"
	"leadflow_backend/platform/apperr"
	"leadflow_backend/platform/sanitize"

	"github.com/google/uuid"
)

// CreateLeadInput describes a lead registered by staff.
type CreateLeadInput struct {
	Name        string
	Phone       string
	Email       *string
	Notes       *string
	Source      domain.LeadSource
	InstallerID *uuid.UUID
}

// LeadDetails is a lead together with its timeline.
type LeadDetails struct {
	Lead     domain.Lead
	Timeline []domain.TimelineStep
}

func (s *Service) newLead(source domain.LeadSource, createdBy uuid.UUID, name, phone string, email, notes *string) domain.Lead {
	now := s.now()
	return domain.Lead{
		ID:        uuid.New(),
		Status:    domain.LeadStatusInquiry,
		CreatedBy: createdBy,
		Source:    source,
		Name:      name,
		Phone:     phone,
		Email:     email,
		Notes:     notes,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func defaultSource(role domain.Role) domain.LeadSource {
	if role == domain.RoleAgent {
		return domain.LeadSourceAgent
	}
	return domain.LeadSourceOffice
}

// CreateLead registers a lead and materializes its timeline in the same
// transaction.
func (s *Service) CreateLead(ctx context.Context, actor Actor, in CreateLeadInput) (LeadDetails, error) {
	if !domain.CanCreateLead(actor.Role) {
		return LeadDetails{}, domain.ErrPermissionDenied("not allowed to create leads")
	}

	name := sanitize.Name(in.Name)
	if name == "" {
		return LeadDetails{}, apperr.Validation("name is required")
	}
	normalized, err := s.phones.E164(in.Phone)
	if err != nil {
		return LeadDetails{}, apperr.Validation("phone number is invalid").
			WithDetails(map[string]string{"phone": in.Phone})
	}
	source := in.Source
	if source == "" {
		source = defaultSource(actor.Role)
	}
	if !source.IsKnown() {
		return LeadDetails{}, apperr.Validation("unknown lead source").
			WithDetails(map[string]string{"source": string(source)})
	}

	lead := s.newLead(source, actor.UserID, name, normalized, in.Email, sanitize.TextPtr(in.Notes))
	lead.InstallerID = in.InstallerID

	var details LeadDetails
	err = s.store.WithTx(ctx, "workflow.CreateLead", func(ctx context.Context, tx repository.Tx) error {
		if _, err := s.insertLeadWithTimeline(ctx, tx, lead, actor.UserID); err != nil {
			return err
		}
		steps, err := tx.ListLeadSteps(ctx, lead.ID)
		if err != nil {
			return err
		}
		templates, err := tx.ListTemplates(ctx, true)
		if err != nil {
			return err
		}
		details = LeadDetails{Lead: lead, Timeline: joinTimeline(steps, templates)}
		return nil
	})
	if err != nil {
		return LeadDetails{}, err
	}

	s.publish(ctx, events.LeadCreated{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    lead.ID,
		CreatedBy: actor.UserID,
		Source:    string(source),
		StepCount: len(details.Timeline),
	})
	return details, nil
}

func (s *Service) insertLeadWithTimeline(ctx context.Context, tx repository.Tx, lead domain.Lead, userID uuid.UUID) ([]domain.LeadStep, error) {
	if err := tx.InsertLead(ctx, lead); err != nil {
		return nil, err
	}
	if _, err := tx.RecordActivity(ctx, activity.Entry{
		LeadID:     uuidPtr(lead.ID),
		UserID:     userID,
		Action:     activity.ActionCreateLead,
		EntityType: activity.EntityLead,
		EntityID:   lead.ID,
		NewValue: activity.Snapshot(map[string]string{
			"status": string(lead.Status),
			"source": string(lead.Source),
		}),
	}); err != nil {
		return nil, err
	}
	return s.initializeTimeline(ctx, tx, lead.ID, userID)
}

// GetLead returns a lead with its timeline.
func (s *Service) GetLead(ctx context.Context, actor Actor, leadID uuid.UUID) (LeadDetails, error) {
	var details LeadDetails
	err := s.store.WithTx(ctx, "workflow.GetLead", func(ctx context.Context, tx repository.Tx) error {
		lead, err := s.loadLead(ctx, tx, leadID, false)
		if err != nil {
			return err
		}
		if !domain.CanViewLead(actor.Role, lead, actor.UserID) {
			return domain.ErrPermissionDenied("not allowed to view this lead")
		}
		steps, err := tx.ListLeadSteps(ctx, leadID)
		if err != nil {
			return err
		}
		templates, err := tx.ListTemplates(ctx, true)
		if err != nil {
			return err
		}
		details = LeadDetails{Lead: lead, Timeline: joinTimeline(steps, templates)}
		return nil
	})
	if err != nil {
		return LeadDetails{}, err
	}
	return details, nil
}

// ListActivity returns the audit trail of a lead, newest first. Customers
// have no access to the internal trail.
func (s *Service) ListActivity(ctx context.Context, actor Actor, leadID uuid.UUID) ([]activity.Entry, error) {
	if actor.Role == domain.RoleCustomer {
		return nil, domain.ErrPermissionDenied("not allowed to view activity")
	}

	var entries []activity.Entry
	err := s.store.WithTx(ctx, "workflow.ListActivity", func(ctx context.Context, tx repository.Tx) error {
		lead, err := s.loadLead(ctx, tx, leadID, false)
		if err != nil {
			return err
		}
		if !domain.CanViewLead(actor.Role, lead, actor.UserID) {
			return domain.ErrPermissionDenied("not allowed to view this lead")
		}
		entries, err = tx.ListActivity(ctx, leadID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}
