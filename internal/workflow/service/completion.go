package service

import (
	"context"

	"leadflow_backend/internal/activity"
	"leadflow_backend/internal/events"
	"leadflow_backend/internal/workflow/domain"
	"leadflow_backend/internal/workflow/repository"

	"github.com/google/uuid"
)

// CompleteStepInput identifies the step to complete and carries the payload.
type CompleteStepInput struct {
	LeadID      uuid.UUID
	StepID      uuid.UUID
	Actor       Actor
	Remarks     *domain.Remarks
	Attachments []domain.Attachment
}

type completionOutcome struct {
	from     domain.StepStatus
	step     domain.LeadStep
	template domain.StepTemplate
	enabled  *domain.LeadStep
	enabledT domain.StepTemplate
}

// CompleteStep validates and commits a single step completion, enables the
// next eligible step and records the activity, all in one transaction.
//
// Checks run in a fixed order: closed lead, already completed, permission,
// remarks, attachments. Attachment references are checked against storage
// only after those pass. A failed check writes nothing.
func (s *Service) CompleteStep(ctx context.Context, in CompleteStepInput) (domain.LeadStep, error) {
	err := s.verifyAttachmentsAfter(ctx, "workflow.CompleteStep.check", in.Attachments, func(ctx context.Context, tx repository.Tx) error {
		_, _, _, err := s.checkCompletion(ctx, tx, in)
		return err
	})
	if err != nil {
		return domain.LeadStep{}, err
	}

	var out completionOutcome
	err = s.store.WithTx(ctx, "workflow.CompleteStep", func(ctx context.Context, tx repository.Tx) error {
		var err error
		out, err = s.completeStepTx(ctx, tx, in)
		return err
	})
	if err != nil {
		return domain.LeadStep{}, err
	}

	log := s.log.WithContext(ctx)
	log.StepTransition(in.LeadID.String(), in.StepID.String(),
		string(out.from), string(domain.StepStatusCompleted), activity.ActionCompleteStep)

	published := []events.Event{events.StepCompleted{
		BaseEvent:   events.NewBaseEvent(),
		LeadID:      in.LeadID,
		StepID:      in.StepID,
		LeadStepID:  out.step.ID,
		StepName:    out.template.Name,
		CompletedBy: in.Actor.UserID,
		Role:        string(in.Actor.Role),
	}}
	if out.enabled != nil {
		log.StepTransition(in.LeadID.String(), out.enabled.StepID.String(),
			string(domain.StepStatusUpcoming), string(domain.StepStatusPending), activity.ActionEnableStep)
		roles := make([]string, 0, len(out.enabledT.AllowedRoles))
		for _, r := range out.enabledT.AllowedRoles {
			roles = append(roles, string(r))
		}
		published = append(published, events.StepEnabled{
			BaseEvent:    events.NewBaseEvent(),
			LeadID:       in.LeadID,
			StepID:       out.enabled.StepID,
			LeadStepID:   out.enabled.ID,
			StepName:     out.enabledT.Name,
			AllowedRoles: roles,
		})
	}
	s.publish(ctx, published...)

	return out.step, nil
}

// checkCompletion loads the lead and step and runs the completion checks.
func (s *Service) checkCompletion(ctx context.Context, tx repository.Tx, in CompleteStepInput) (domain.Lead, domain.StepTemplate, domain.LeadStep, error) {
	actor := in.Actor

	lead, err := s.loadLead(ctx, tx, in.LeadID, true)
	if err != nil {
		return domain.Lead{}, domain.StepTemplate{}, domain.LeadStep{}, err
	}
	if lead.IsClosed() && !actor.IsAdmin() {
		return domain.Lead{}, domain.StepTemplate{}, domain.LeadStep{}, domain.ErrLeadClosed()
	}

	template, step, err := s.loadStep(ctx, tx, in.LeadID, in.StepID)
	if err != nil {
		return domain.Lead{}, domain.StepTemplate{}, domain.LeadStep{}, err
	}
	if step.IsCompleted() {
		return domain.Lead{}, domain.StepTemplate{}, domain.LeadStep{}, domain.ErrAlreadyCompleted()
	}

	if !domain.CanAct(actor.Role, template) {
		return domain.Lead{}, domain.StepTemplate{}, domain.LeadStep{}, domain.ErrPermissionDenied("role is not allowed to complete this step")
	}
	if template.RemarksRequired && in.Remarks.IsEmpty() {
		return domain.Lead{}, domain.StepTemplate{}, domain.LeadStep{}, domain.ErrRemarksRequired(template.Name)
	}
	if len(in.Attachments) > 0 && !template.AttachmentsAllowed {
		return domain.Lead{}, domain.StepTemplate{}, domain.LeadStep{}, domain.ErrAttachmentsNotAllowed(template.Name)
	}

	return lead, template, step, nil
}

func (s *Service) completeStepTx(ctx context.Context, tx repository.Tx, in CompleteStepInput) (completionOutcome, error) {
	actor := in.Actor

	lead, template, step, err := s.checkCompletion(ctx, tx, in)
	if err != nil {
		return completionOutcome{}, err
	}

	now := s.now()
	attachments := append(append([]domain.Attachment{}, step.Attachments...), in.Attachments...)
	completed := domain.ApplyCompletion(step, actor.UserID, now, in.Remarks, attachments)
	if err := tx.UpdateLeadStep(ctx, completed); err != nil {
		return completionOutcome{}, err
	}
	if _, err := tx.RecordActivity(ctx, activity.Entry{
		LeadID:     uuidPtr(lead.ID),
		UserID:     actor.UserID,
		Action:     activity.ActionCompleteStep,
		EntityType: activity.EntityLeadStep,
		EntityID:   completed.ID,
		OldValue:   activity.Snapshot(snapshotStep(step)),
		NewValue:   activity.Snapshot(snapshotStep(completed)),
	}); err != nil {
		return completionOutcome{}, err
	}

	out := completionOutcome{from: step.Status, step: completed, template: template}

	enabled, enabledTemplate, err := s.progress(ctx, tx, lead.ID, actor.UserID, template.OrderIndex)
	if err != nil {
		return completionOutcome{}, err
	}
	if enabled != nil {
		out.enabled = enabled
		out.enabledT = enabledTemplate
	}

	if err := s.recomputeLeadStatus(ctx, tx, lead, actor.UserID); err != nil {
		return completionOutcome{}, err
	}

	return out, nil
}

// progress enables the next eligible step after the template at
// completedOrder, reading the current template order.
func (s *Service) progress(ctx context.Context, tx repository.Tx, leadID, userID uuid.UUID, completedOrder int) (*domain.LeadStep, domain.StepTemplate, error) {
	templates, err := tx.ListTemplates(ctx, false)
	if err != nil {
		return nil, domain.StepTemplate{}, err
	}
	steps, err := tx.ListLeadSteps(ctx, leadID)
	if err != nil {
		return nil, domain.StepTemplate{}, err
	}

	next, ok := domain.NextEligibleStep(templates, steps, completedOrder)
	if !ok {
		return nil, domain.StepTemplate{}, nil
	}

	enabled := next
	enabled.Status = domain.StepStatusPending
	enabled.UpdatedAt = s.now()
	if err := tx.UpdateLeadStep(ctx, enabled); err != nil {
		return nil, domain.StepTemplate{}, err
	}
	if _, err := tx.RecordActivity(ctx, activity.Entry{
		LeadID:     uuidPtr(leadID),
		UserID:     userID,
		Action:     activity.ActionEnableStep,
		EntityType: activity.EntityLeadStep,
		EntityID:   enabled.ID,
		OldValue:   activity.Snapshot(snapshotStep(next)),
		NewValue:   activity.Snapshot(snapshotStep(enabled)),
	}); err != nil {
		return nil, domain.StepTemplate{}, err
	}

	var template domain.StepTemplate
	for _, t := range templates {
		if t.ID == enabled.StepID {
			template = t
			break
		}
	}
	return &enabled, template, nil
}

func (s *Service) recomputeLeadStatus(ctx context.Context, tx repository.Tx, lead domain.Lead, userID uuid.UUID) error {
	status, changed := domain.StatusAfterCompletion(lead.Status)
	if !changed {
		return nil
	}

	updated := lead
	updated.Status = status
	updated.UpdatedAt = s.now()
	if err := tx.UpdateLead(ctx, updated); err != nil {
		return err
	}
	_, err := tx.RecordActivity(ctx, activity.Entry{
		LeadID:     uuidPtr(lead.ID),
		UserID:     userID,
		Action:     activity.ActionUpdateLeadStatus,
		EntityType: activity.EntityLead,
		EntityID:   lead.ID,
		OldValue:   activity.Snapshot(snapshotLead(lead)),
		NewValue:   activity.Snapshot(snapshotLead(updated)),
	})
	return err
}
