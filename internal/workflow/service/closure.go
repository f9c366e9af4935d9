package service

import (
	"context"

	"leadflow_backend/internal/activity"
	"leadflow_backend/internal/events"
	"leadflow_backend/internal/workflow/domain"
	"leadflow_backend/internal/workflow/repository"
	"leadflow_backend/platform/apperr"

	"github.com/google/uuid"
)

// CloseProject closes a lead. Closing a closed lead returns it unchanged.
// Lead steps are never touched.
func (s *Service) CloseProject(ctx context.Context, actor Actor, leadID uuid.UUID) (domain.Lead, error) {
	if !domain.CanClose(actor.Role) {
		return domain.Lead{}, domain.ErrPermissionDenied("only office staff or administrators may close a project")
	}

	var lead domain.Lead
	changed := false
	err := s.store.WithTx(ctx, "workflow.CloseProject", func(ctx context.Context, tx repository.Tx) error {
		current, err := s.loadLead(ctx, tx, leadID, true)
		if err != nil {
			return err
		}
		if current.IsClosed() {
			lead = current
			return nil
		}

		lead, err = s.setLeadStatus(ctx, tx, actor, current, domain.LeadStatusClosed, activity.ActionCloseProject)
		changed = err == nil
		return err
	})
	if err != nil {
		return domain.Lead{}, err
	}

	if changed {
		s.publish(ctx, events.LeadClosed{BaseEvent: events.NewBaseEvent(), LeadID: leadID, ClosedBy: actor.UserID})
	}
	return lead, nil
}

// ReopenProject moves a closed lead back to ongoing. Progression is not
// re-run; pending work resumes where it was left.
func (s *Service) ReopenProject(ctx context.Context, actor Actor, leadID uuid.UUID) (domain.Lead, error) {
	if !domain.CanReopen(actor.Role) {
		return domain.Lead{}, domain.ErrPermissionDenied("only administrators may reopen a project")
	}

	var lead domain.Lead
	err := s.store.WithTx(ctx, "workflow.ReopenProject", func(ctx context.Context, tx repository.Tx) error {
		current, err := s.loadLead(ctx, tx, leadID, true)
		if err != nil {
			return err
		}
		if !current.IsClosed() {
			return domain.ErrInvalidState("only closed projects can be reopened")
		}

		lead, err = s.setLeadStatus(ctx, tx, actor, current, domain.LeadStatusOngoing, activity.ActionReopenProject)
		return err
	})
	if err != nil {
		return domain.Lead{}, err
	}

	s.publish(ctx, events.LeadReopened{BaseEvent: events.NewBaseEvent(), LeadID: leadID, ReopenedBy: actor.UserID})
	return lead, nil
}

func (s *Service) setLeadStatus(ctx context.Context, tx repository.Tx, actor Actor, current domain.Lead, status domain.LeadStatus, action string) (domain.Lead, error) {
	updated := current
	updated.Status = status
	updated.UpdatedAt = s.now()
	if err := tx.UpdateLead(ctx, updated); err != nil {
		return domain.Lead{}, err
	}

	_, err := tx.RecordActivity(ctx, activity.Entry{
		LeadID:     uuidPtr(current.ID),
		UserID:     actor.UserID,
		Action:     action,
		EntityType: activity.EntityLead,
		EntityID:   current.ID,
		OldValue:   activity.Snapshot(snapshotLead(current)),
		NewValue:   activity.Snapshot(snapshotLead(updated)),
	})
	if err != nil {
		return domain.Lead{}, err
	}
	return updated, nil
}

// OverrideStepStatus lets an administrator force a single step into any
// status, for example to regress a completed step. Completion fields follow
// the status. Progression is not triggered.
func (s *Service) OverrideStepStatus(ctx context.Context, actor Actor, leadID, stepID uuid.UUID, status domain.StepStatus) (domain.LeadStep, error) {
	if !actor.IsAdmin() {
		return domain.LeadStep{}, domain.ErrPermissionDenied("only administrators may override step status")
	}
	if !status.IsKnown() {
		return domain.LeadStep{}, apperr.Validation("unknown step status").
			WithDetails(map[string]string{"status": string(status)})
	}

	var updated domain.LeadStep
	var previous domain.StepStatus
	err := s.store.WithTx(ctx, "workflow.OverrideStepStatus", func(ctx context.Context, tx repository.Tx) error {
		if _, err := s.loadLead(ctx, tx, leadID, true); err != nil {
			return err
		}
		_, step, err := s.loadStep(ctx, tx, leadID, stepID)
		if err != nil {
			return err
		}
		previous = step.Status
		if step.Status == status {
			updated = step
			return nil
		}

		updated = domain.ApplyStatus(step, status, actor.UserID, s.now())
		if err := tx.UpdateLeadStep(ctx, updated); err != nil {
			return err
		}
		_, err = tx.RecordActivity(ctx, activity.Entry{
			LeadID:     uuidPtr(leadID),
			UserID:     actor.UserID,
			Action:     activity.ActionOverrideStep,
			EntityType: activity.EntityLeadStep,
			EntityID:   step.ID,
			OldValue:   activity.Snapshot(snapshotStep(step)),
			NewValue:   activity.Snapshot(snapshotStep(updated)),
		})
		return err
	})
	if err != nil {
		return domain.LeadStep{}, err
	}

	if previous != status {
		s.log.WithContext(ctx).StepTransition(leadID.String(), stepID.String(), string(previous), string(status), activity.ActionOverrideStep)
	}
	return updated, nil
}

// AttachDocuments appends document references to a step that is not yet
// completed. Customers may upload to customer-upload steps of their own lead.
func (s *Service) AttachDocuments(ctx context.Context, actor Actor, leadID, stepID uuid.UUID, attachments []domain.Attachment) (domain.LeadStep, error) {
	if len(attachments) == 0 {
		return domain.LeadStep{}, apperr.Validation("at least one attachment is required")
	}
	err := s.verifyAttachmentsAfter(ctx, "workflow.AttachDocuments.check", attachments, func(ctx context.Context, tx repository.Tx) error {
		_, _, err := s.checkUpload(ctx, tx, actor, leadID, stepID)
		return err
	})
	if err != nil {
		return domain.LeadStep{}, err
	}

	var updated domain.LeadStep
	var stepName string
	err = s.store.WithTx(ctx, "workflow.AttachDocuments", func(ctx context.Context, tx repository.Tx) error {
		template, step, err := s.checkUpload(ctx, tx, actor, leadID, stepID)
		if err != nil {
			return err
		}

		stepName = template.Name
		updated = step
		updated.Attachments = append(append([]domain.Attachment{}, step.Attachments...), attachments...)
		updated.UpdatedAt = s.now()
		if err := tx.UpdateLeadStep(ctx, updated); err != nil {
			return err
		}
		_, err = tx.RecordActivity(ctx, activity.Entry{
			LeadID:     uuidPtr(leadID),
			UserID:     actor.UserID,
			Action:     activity.ActionUploadDocument,
			EntityType: activity.EntityLeadStep,
			EntityID:   step.ID,
			NewValue:   activity.Snapshot(attachments),
		})
		return err
	})
	if err != nil {
		return domain.LeadStep{}, err
	}

	keys := make([]string, 0, len(attachments))
	for _, a := range attachments {
		keys = append(keys, a.FileKey)
	}
	s.publish(ctx, events.DocumentsUploaded{
		BaseEvent:  events.NewBaseEvent(),
		LeadID:     leadID,
		StepID:     stepID,
		StepName:   stepName,
		UploadedBy: actor.UserID,
		FileKeys:   keys,
	})
	return updated, nil
}

// checkUpload runs the checks for attaching documents to a step.
func (s *Service) checkUpload(ctx context.Context, tx repository.Tx, actor Actor, leadID, stepID uuid.UUID) (domain.StepTemplate, domain.LeadStep, error) {
	lead, err := s.loadLead(ctx, tx, leadID, true)
	if err != nil {
		return domain.StepTemplate{}, domain.LeadStep{}, err
	}
	if lead.IsClosed() && !actor.IsAdmin() {
		return domain.StepTemplate{}, domain.LeadStep{}, domain.ErrLeadClosed()
	}

	template, step, err := s.loadStep(ctx, tx, leadID, stepID)
	if err != nil {
		return domain.StepTemplate{}, domain.LeadStep{}, err
	}
	if step.IsCompleted() {
		return domain.StepTemplate{}, domain.LeadStep{}, domain.ErrAlreadyCompleted()
	}
	if !domain.CanUpload(actor.Role, template, lead, actor.UserID) {
		return domain.StepTemplate{}, domain.LeadStep{}, domain.ErrPermissionDenied("not allowed to upload documents to this step")
	}
	if !template.AttachmentsAllowed {
		return domain.StepTemplate{}, domain.LeadStep{}, domain.ErrAttachmentsNotAllowed(template.Name)
	}
	return template, step, nil
}
