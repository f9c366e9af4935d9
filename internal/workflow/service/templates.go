package service

import (
	"context"
	"errors"
	"fmt"

	"leadflow_backend/internal/activity"
	"leadflow_backend/internal/workflow/domain"
	"leadflow_backend/internal/workflow/repository"
	"leadflow_backend/platform/apperr"
	"leadflow_backend/platform/sanitize"

	"github.com/google/uuid"
)

// TemplateInput configures a new step template.
type TemplateInput struct {
	Name               string
	OrderIndex         int
	AllowedRoles       []domain.Role
	RemarksRequired    bool
	AttachmentsAllowed bool
	CustomerUpload     bool
	Inactive           bool
}

// TemplatePatch updates configuration fields of a template. Nil fields are
// left unchanged.
type TemplatePatch struct {
	Name               *string
	AllowedRoles       []domain.Role
	RemarksRequired    *bool
	AttachmentsAllowed *bool
	CustomerUpload     *bool
	IsActive           *bool
}

func normalizeRoles(roles []domain.Role) ([]domain.Role, error) {
	if len(roles) == 0 {
		return nil, apperr.Validation("allowedRoles must not be empty")
	}
	seen := make(map[domain.Role]struct{}, len(roles))
	out := make([]domain.Role, 0, len(roles))
	for _, raw := range roles {
		role, ok := domain.ParseRole(string(raw))
		if !ok {
			return nil, apperr.Validation("unknown role in allowedRoles").
				WithDetails(map[string]string{"role": string(raw)})
		}
		if _, dup := seen[role]; dup {
			continue
		}
		seen[role] = struct{}{}
		out = append(out, role)
	}
	return out, nil
}

func requireTemplateAdmin(actor Actor) error {
	if !domain.CanManageTemplates(actor.Role) {
		return domain.ErrPermissionDenied("only administrators may manage step templates")
	}
	return nil
}

func (s *Service) templateFromInput(in TemplateInput) (domain.StepTemplate, error) {
	name := sanitize.Name(in.Name)
	if name == "" {
		return domain.StepTemplate{}, apperr.Validation("name is required")
	}
	if !domain.ValidOrderIndex(in.OrderIndex) {
		return domain.StepTemplate{}, errOrderIndexRange(in.OrderIndex)
	}
	roles, err := normalizeRoles(in.AllowedRoles)
	if err != nil {
		return domain.StepTemplate{}, err
	}
	now := s.now()
	return domain.StepTemplate{
		ID:                 uuid.New(),
		Name:               name,
		OrderIndex:         in.OrderIndex,
		AllowedRoles:       roles,
		RemarksRequired:    in.RemarksRequired,
		AttachmentsAllowed: in.AttachmentsAllowed,
		CustomerUpload:     in.CustomerUpload,
		IsActive:           !in.Inactive,
		CreatedAt:          now,
		UpdatedAt:          now,
	}, nil
}

func errOrderIndexRange(index int) error {
	return apperr.Validation(fmt.Sprintf("orderIndex must be between 0 and %d", domain.MaxOrderIndex)).
		WithDetails(map[string]int{"orderIndex": index})
}

func mapTemplateWrite(err error, orderIndex int) error {
	if errors.Is(err, repository.ErrOrderIndexTaken) {
		return domain.ErrDuplicateOrderIndex(orderIndex)
	}
	return notFound(err, domain.ErrTemplateNotFound)
}

func (s *Service) recordTemplateActivity(ctx context.Context, tx repository.Tx, actor Actor, action string, id uuid.UUID, oldValue, newValue any) error {
	_, err := tx.RecordActivity(ctx, activity.Entry{
		UserID:     actor.UserID,
		Action:     action,
		EntityType: activity.EntityStepTemplate,
		EntityID:   id,
		OldValue:   activity.Snapshot(oldValue),
		NewValue:   activity.Snapshot(newValue),
	})
	return err
}

// ListTemplates returns templates ordered by order index, active first.
func (s *Service) ListTemplates(ctx context.Context, includeInactive bool) ([]domain.StepTemplate, error) {
	var templates []domain.StepTemplate
	err := s.store.WithTx(ctx, "workflow.ListTemplates", func(ctx context.Context, tx repository.Tx) error {
		var err error
		templates, err = tx.ListTemplates(ctx, includeInactive)
		return err
	})
	return templates, err
}

// CreateTemplate adds a template at the requested order index.
func (s *Service) CreateTemplate(ctx context.Context, actor Actor, in TemplateInput) (domain.StepTemplate, error) {
	if err := requireTemplateAdmin(actor); err != nil {
		return domain.StepTemplate{}, err
	}
	template, err := s.templateFromInput(in)
	if err != nil {
		return domain.StepTemplate{}, err
	}

	err = s.store.WithTx(ctx, "workflow.CreateTemplate", func(ctx context.Context, tx repository.Tx) error {
		if err := tx.LockRegistry(ctx); err != nil {
			return err
		}
		existing, err := tx.ListTemplates(ctx, false)
		if err != nil {
			return err
		}
		if template.IsActive && domain.OrderIndexTaken(existing, template.OrderIndex, nil) {
			return domain.ErrDuplicateOrderIndex(template.OrderIndex)
		}
		if err := tx.InsertTemplate(ctx, template); err != nil {
			return mapTemplateWrite(err, template.OrderIndex)
		}
		return s.recordTemplateActivity(ctx, tx, actor, activity.ActionCreateTemplate, template.ID, nil, snapshotTemplate(template))
	})
	if err != nil {
		return domain.StepTemplate{}, err
	}
	return template, nil
}

// UpdateTemplate applies patch to the template. Reactivating a template onto
// an order index held by another active template fails.
func (s *Service) UpdateTemplate(ctx context.Context, actor Actor, id uuid.UUID, patch TemplatePatch) (domain.StepTemplate, error) {
	if err := requireTemplateAdmin(actor); err != nil {
		return domain.StepTemplate{}, err
	}

	var updated domain.StepTemplate
	err := s.store.WithTx(ctx, "workflow.UpdateTemplate", func(ctx context.Context, tx repository.Tx) error {
		if err := tx.LockRegistry(ctx); err != nil {
			return err
		}
		current, err := tx.GetTemplate(ctx, id)
		if err != nil {
			return notFound(err, domain.ErrTemplateNotFound)
		}

		updated = current
		if patch.Name != nil {
			name := sanitize.Name(*patch.Name)
			if name == "" {
				return apperr.Validation("name must not be empty")
			}
			updated.Name = name
		}
		if patch.AllowedRoles != nil {
			roles, err := normalizeRoles(patch.AllowedRoles)
			if err != nil {
				return err
			}
			updated.AllowedRoles = roles
		}
		if patch.RemarksRequired != nil {
			updated.RemarksRequired = *patch.RemarksRequired
		}
		if patch.AttachmentsAllowed != nil {
			updated.AttachmentsAllowed = *patch.AttachmentsAllowed
		}
		if patch.CustomerUpload != nil {
			updated.CustomerUpload = *patch.CustomerUpload
		}
		if patch.IsActive != nil {
			updated.IsActive = *patch.IsActive
		}

		if updated.IsActive && !current.IsActive {
			active, err := tx.ListTemplates(ctx, false)
			if err != nil {
				return err
			}
			if domain.OrderIndexTaken(active, updated.OrderIndex, &updated) {
				return domain.ErrDuplicateOrderIndex(updated.OrderIndex)
			}
		}

		updated.UpdatedAt = s.now()
		if err := tx.UpdateTemplate(ctx, updated); err != nil {
			return mapTemplateWrite(err, updated.OrderIndex)
		}
		return s.recordTemplateActivity(ctx, tx, actor, activity.ActionUpdateTemplate, id, snapshotTemplate(current), snapshotTemplate(updated))
	})
	if err != nil {
		return domain.StepTemplate{}, err
	}
	return updated, nil
}

// Reorder moves one template to newOrderIndex. Indices stay pairwise distinct
// among active templates; they need not be contiguous.
func (s *Service) Reorder(ctx context.Context, actor Actor, id uuid.UUID, newOrderIndex int) (domain.StepTemplate, error) {
	if err := requireTemplateAdmin(actor); err != nil {
		return domain.StepTemplate{}, err
	}
	if !domain.ValidOrderIndex(newOrderIndex) {
		return domain.StepTemplate{}, errOrderIndexRange(newOrderIndex)
	}

	var updated domain.StepTemplate
	err := s.store.WithTx(ctx, "workflow.Reorder", func(ctx context.Context, tx repository.Tx) error {
		if err := tx.LockRegistry(ctx); err != nil {
			return err
		}
		current, err := tx.GetTemplate(ctx, id)
		if err != nil {
			return notFound(err, domain.ErrTemplateNotFound)
		}
		if current.OrderIndex == newOrderIndex {
			updated = current
			return nil
		}

		all, err := tx.ListTemplates(ctx, false)
		if err != nil {
			return err
		}
		if current.IsActive && domain.OrderIndexTaken(all, newOrderIndex, &current) {
			return domain.ErrDuplicateOrderIndex(newOrderIndex)
		}

		updated = current
		updated.OrderIndex = newOrderIndex
		updated.UpdatedAt = s.now()
		if err := tx.UpdateTemplate(ctx, updated); err != nil {
			return mapTemplateWrite(err, newOrderIndex)
		}
		return s.recordTemplateActivity(ctx, tx, actor, activity.ActionReorderTemplate, id,
			map[string]int{"orderIndex": current.OrderIndex}, map[string]int{"orderIndex": newOrderIndex})
	})
	if err != nil {
		return domain.StepTemplate{}, err
	}
	return updated, nil
}

// InsertTemplateAfter creates a template placed directly after afterID, or
// first when afterID is nil. When the neighbours leave no free integer the
// active templates are renumbered in the same transaction first.
func (s *Service) InsertTemplateAfter(ctx context.Context, actor Actor, in TemplateInput, afterID *uuid.UUID) (domain.StepTemplate, error) {
	if err := requireTemplateAdmin(actor); err != nil {
		return domain.StepTemplate{}, err
	}
	template, err := s.templateFromInput(in)
	if err != nil {
		return domain.StepTemplate{}, err
	}
	template.IsActive = true

	err = s.store.WithTx(ctx, "workflow.InsertTemplateAfter", func(ctx context.Context, tx repository.Tx) error {
		if err := tx.LockRegistry(ctx); err != nil {
			return err
		}
		active, err := tx.ListTemplates(ctx, false)
		if err != nil {
			return err
		}
		active = domain.ActiveInOrder(active)

		position := -1
		if afterID != nil {
			position = indexOfTemplate(active, *afterID)
			if position < 0 {
				return domain.ErrTemplateNotFound()
			}
		}

		index, ok := domain.OrderIndexAfter(active, position)
		if !ok {
			if err := s.renumber(ctx, tx, actor, active); err != nil {
				return err
			}
			for i := range active {
				active[i].OrderIndex = domain.RenumberedIndex(i)
			}
			index, _ = domain.OrderIndexAfter(active, position)
		}

		template.OrderIndex = index
		if err := tx.InsertTemplate(ctx, template); err != nil {
			return mapTemplateWrite(err, index)
		}
		return s.recordTemplateActivity(ctx, tx, actor, activity.ActionCreateTemplate, template.ID, nil, snapshotTemplate(template))
	})
	if err != nil {
		return domain.StepTemplate{}, err
	}
	return template, nil
}

// RenumberTemplates assigns order indices 10, 20, 30, ... following
// orderedIDs, which must list every active template exactly once.
func (s *Service) RenumberTemplates(ctx context.Context, actor Actor, orderedIDs []uuid.UUID) ([]domain.StepTemplate, error) {
	if err := requireTemplateAdmin(actor); err != nil {
		return nil, err
	}

	var result []domain.StepTemplate
	err := s.store.WithTx(ctx, "workflow.RenumberTemplates", func(ctx context.Context, tx repository.Tx) error {
		if err := tx.LockRegistry(ctx); err != nil {
			return err
		}
		active, err := tx.ListTemplates(ctx, false)
		if err != nil {
			return err
		}

		byID := make(map[uuid.UUID]domain.StepTemplate, len(active))
		for _, t := range active {
			byID[t.ID] = t
		}
		if len(orderedIDs) != len(active) {
			return apperr.Validation("order must list every active template exactly once")
		}
		ordered := make([]domain.StepTemplate, 0, len(orderedIDs))
		seen := make(map[uuid.UUID]struct{}, len(orderedIDs))
		for _, id := range orderedIDs {
			t, ok := byID[id]
			if !ok {
				return apperr.Validation("order references an unknown or inactive template").
					WithDetails(map[string]string{"id": id.String()})
			}
			if _, dup := seen[id]; dup {
				return apperr.Validation("order lists a template twice").
					WithDetails(map[string]string{"id": id.String()})
			}
			seen[id] = struct{}{}
			ordered = append(ordered, t)
		}

		if err := s.renumber(ctx, tx, actor, ordered); err != nil {
			return err
		}
		result, err = tx.ListTemplates(ctx, false)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Service) renumber(ctx context.Context, tx repository.Tx, actor Actor, ordered []domain.StepTemplate) error {
	indexes := make(map[uuid.UUID]int, len(ordered))
	before := make(map[string]int, len(ordered))
	after := make(map[string]int, len(ordered))
	for i, t := range ordered {
		indexes[t.ID] = domain.RenumberedIndex(i)
		before[t.ID.String()] = t.OrderIndex
		after[t.ID.String()] = indexes[t.ID]
	}
	if err := tx.SetOrderIndexes(ctx, indexes); err != nil {
		return mapTemplateWrite(err, 0)
	}
	return s.recordTemplateActivity(ctx, tx, actor, activity.ActionRenumberTemplate, uuid.Nil, before, after)
}

func indexOfTemplate(templates []domain.StepTemplate, id uuid.UUID) int {
	for i, t := range templates {
		if t.ID == id {
			return i
		}
	}
	return -1
}
