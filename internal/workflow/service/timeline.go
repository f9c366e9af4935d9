package service

import (
	"context"
	"errors"
	"sort"

	"leadflow_backend/internal/activity"
	"leadflow_backend/internal/workflow/domain"
	"leadflow_backend/internal/workflow/repository"

	"github.com/google/uuid"
)

// InitializeLeadTimeline materializes the steps of a lead created without
// one. A lead that already has steps fails with ALREADY_INITIALIZED.
func (s *Service) InitializeLeadTimeline(ctx context.Context, actor Actor, leadID uuid.UUID) ([]domain.LeadStep, error) {
	if !domain.CanCreateLead(actor.Role) {
		return nil, domain.ErrPermissionDenied("not allowed to initialize lead timelines")
	}

	var steps []domain.LeadStep
	err := s.store.WithTx(ctx, "workflow.InitializeLeadTimeline", func(ctx context.Context, tx repository.Tx) error {
		if _, err := s.loadLead(ctx, tx, leadID, true); err != nil {
			return err
		}
		var err error
		steps, err = s.initializeTimeline(ctx, tx, leadID, actor.UserID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return steps, nil
}

// initializeTimeline runs inside the caller's transaction.
func (s *Service) initializeTimeline(ctx context.Context, tx repository.Tx, leadID, userID uuid.UUID) ([]domain.LeadStep, error) {
	existing, err := tx.ListLeadSteps(ctx, leadID)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return nil, domain.ErrAlreadyInitialized()
	}

	templates, err := tx.ListTemplates(ctx, false)
	if err != nil {
		return nil, err
	}

	steps := domain.BuildTimeline(leadID, templates, s.now())
	if err := tx.InsertLeadSteps(ctx, steps); err != nil {
		if errors.Is(err, repository.ErrStepExists) {
			return nil, domain.ErrAlreadyInitialized()
		}
		return nil, err
	}

	statuses := make(map[string]domain.StepStatus, len(steps))
	for _, step := range steps {
		statuses[step.StepID.String()] = step.Status
	}
	if _, err := tx.RecordActivity(ctx, activity.Entry{
		LeadID:     uuidPtr(leadID),
		UserID:     userID,
		Action:     activity.ActionInitTimeline,
		EntityType: activity.EntityLead,
		EntityID:   leadID,
		NewValue:   activity.Snapshot(statuses),
	}); err != nil {
		return nil, err
	}

	return steps, nil
}

// GetTimeline returns the lead's steps joined with their templates, ordered
// by the current template order.
func (s *Service) GetTimeline(ctx context.Context, actor Actor, leadID uuid.UUID) ([]domain.TimelineStep, error) {
	var timeline []domain.TimelineStep
	err := s.store.WithTx(ctx, "workflow.GetTimeline", func(ctx context.Context, tx repository.Tx) error {
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
		timeline = joinTimeline(steps, templates)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return timeline, nil
}

func joinTimeline(steps []domain.LeadStep, templates []domain.StepTemplate) []domain.TimelineStep {
	byID := make(map[uuid.UUID]domain.StepTemplate, len(templates))
	for _, t := range templates {
		byID[t.ID] = t
	}

	timeline := make([]domain.TimelineStep, 0, len(steps))
	for _, step := range steps {
		template, ok := byID[step.StepID]
		if !ok {
			continue
		}
		timeline = append(timeline, domain.TimelineStep{Step: step, Template: template})
	}

	sort.SliceStable(timeline, func(i, j int) bool {
		a, b := timeline[i].Template, timeline[j].Template
		if a.OrderIndex != b.OrderIndex {
			return a.OrderIndex < b.OrderIndex
		}
		return a.IsActive && !b.IsActive
	})
	return timeline
}
