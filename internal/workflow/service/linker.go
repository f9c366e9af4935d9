package service

import (
	"context"
	"errors"

	"leadflow_backend/internal/activity"
	"leadflow_backend/internal/events"
	"leadflow_backend/internal/workflow/domain"
	"leadflow_backend/internal/workflow/repository"
	"leadflow_backend/platform/apperr"
	"leadflow_backend/platform/sanitize"

	"github.com/google/uuid"
)

// Linker outcomes.
const (
	LinkActionLinked  = "linked"
	LinkActionCreated = "created"
)

const autoCreatedNote = "auto-created from customer signup"

// LinkCustomerInput describes a self-registering customer.
type LinkCustomerInput struct {
	CustomerID uuid.UUID
	Phone      string
	Name       string
	Email      *string
}

// LinkResult reports which branch the linker took.
type LinkResult struct {
	Action     string
	LeadID     uuid.UUID
	CustomerID uuid.UUID
}

// LinkCustomerToLead attaches the customer to the oldest unlinked lead with
// the same phone number, or creates a self-sourced lead with a fresh
// timeline. Lookup and write happen in one transaction holding a lock on
// the phone number, so concurrent signups cannot both create a lead.
func (s *Service) LinkCustomerToLead(ctx context.Context, in LinkCustomerInput) (LinkResult, error) {
	normalized, err := s.phones.E164(in.Phone)
	if err != nil {
		return LinkResult{}, apperr.Validation("phone number is invalid").
			WithDetails(map[string]string{"phone": in.Phone})
	}
	name := sanitize.Name(in.Name)
	if name == "" {
		return LinkResult{}, apperr.Validation("name is required")
	}

	result := LinkResult{CustomerID: in.CustomerID}
	stepCount := 0
	err = s.store.WithTx(ctx, "workflow.LinkCustomerToLead", func(ctx context.Context, tx repository.Tx) error {
		if err := tx.LockPhone(ctx, normalized); err != nil {
			return err
		}

		existing, err := tx.FindUnlinkedLeadByPhone(ctx, normalized)
		switch {
		case err == nil:
			result.Action = LinkActionLinked
			result.LeadID = existing.ID
			return s.linkExisting(ctx, tx, existing, in.CustomerID)
		case errors.Is(err, repository.ErrNotFound):
			result.Action = LinkActionCreated
			lead := s.newLead(domain.LeadSourceSelf, in.CustomerID, name, normalized, in.Email, nil)
			lead.CustomerAccountID = uuidPtr(in.CustomerID)
			notes := autoCreatedNote
			lead.Notes = &notes
			result.LeadID = lead.ID
			steps, err := s.insertLeadWithTimeline(ctx, tx, lead, in.CustomerID)
			stepCount = len(steps)
			return err
		default:
			return err
		}
	})
	if err != nil {
		return LinkResult{}, err
	}

	published := []events.Event{events.CustomerLinked{
		BaseEvent:  events.NewBaseEvent(),
		LeadID:     result.LeadID,
		CustomerID: in.CustomerID,
		Action:     result.Action,
	}}
	if result.Action == LinkActionCreated {
		published = append(published, events.LeadCreated{
			BaseEvent: events.NewBaseEvent(),
			LeadID:    result.LeadID,
			CreatedBy: in.CustomerID,
			Source:    string(domain.LeadSourceSelf),
			StepCount: stepCount,
		})
	}
	s.publish(ctx, published...)

	return result, nil
}

func (s *Service) linkExisting(ctx context.Context, tx repository.Tx, lead domain.Lead, customerID uuid.UUID) error {
	linked := lead
	linked.CustomerAccountID = uuidPtr(customerID)
	linked.UpdatedAt = s.now()
	if err := tx.UpdateLead(ctx, linked); err != nil {
		return err
	}
	_, err := tx.RecordActivity(ctx, activity.Entry{
		LeadID:     uuidPtr(lead.ID),
		UserID:     customerID,
		Action:     activity.ActionLinkCustomer,
		EntityType: activity.EntityLead,
		EntityID:   lead.ID,
		OldValue:   activity.Snapshot(snapshotLead(lead)),
		NewValue:   activity.Snapshot(snapshotLead(linked)),
	})
	return err
}
