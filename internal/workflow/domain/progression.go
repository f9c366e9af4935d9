package domain

import (
	"time"

	"github.com/google/uuid"
)

// BuildTimeline materializes one step per active template for a lead. The
// template with the lowest order index starts pending, the rest upcoming.
func BuildTimeline(leadID uuid.UUID, templates []StepTemplate, now time.Time) []LeadStep {
	active := ActiveInOrder(templates)
	steps := make([]LeadStep, 0, len(active))
	for i, t := range active {
		status := StepStatusUpcoming
		if i == 0 {
			status = StepStatusPending
		}
		steps = append(steps, LeadStep{
			ID:          uuid.New(),
			LeadID:      leadID,
			StepID:      t.ID,
			Status:      status,
			Attachments: []Attachment{},
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	}
	return steps
}

// NextEligibleStep decides which step to enable after the step at template
// order completedOrder was completed. Active templates after completedOrder
// are walked in ascending order; templates without an instance on this lead
// and steps that are not upcoming are skipped. The first upcoming step is
// returned for enabling. Only one step is ever returned.
func NextEligibleStep(templates []StepTemplate, steps []LeadStep, completedOrder int) (LeadStep, bool) {
	byTemplate := make(map[uuid.UUID]LeadStep, len(steps))
	for _, s := range steps {
		byTemplate[s.StepID] = s
	}

	for _, t := range ActiveInOrder(templates) {
		if t.OrderIndex <= completedOrder {
			continue
		}
		step, ok := byTemplate[t.ID]
		if !ok {
			continue
		}
		if step.Status == StepStatusUpcoming {
			return step, true
		}
	}

	return LeadStep{}, false
}

// StatusAfterCompletion returns the lead status to record once a step of the
// lead has been completed. Only an inquiry moves, to ongoing.
func StatusAfterCompletion(current LeadStatus) (LeadStatus, bool) {
	if current == LeadStatusInquiry {
		return LeadStatusOngoing, true
	}
	return current, false
}

// ApplyCompletion marks the step completed by userID at now.
func ApplyCompletion(step LeadStep, userID uuid.UUID, now time.Time, remarks *Remarks, attachments []Attachment) LeadStep {
	step.Status = StepStatusCompleted
	step.CompletedBy = &userID
	step.CompletedAt = &now
	step.Remarks = remarks
	if attachments != nil {
		step.Attachments = attachments
	}
	if step.Attachments == nil {
		step.Attachments = []Attachment{}
	}
	step.UpdatedAt = now
	return step
}

// ApplyStatus forces step into status. Completion fields are set when the
// status is completed and cleared otherwise.
func ApplyStatus(step LeadStep, status StepStatus, userID uuid.UUID, now time.Time) LeadStep {
	step.Status = status
	if status == StepStatusCompleted {
		if step.CompletedBy == nil || step.CompletedAt == nil {
			step.CompletedBy = &userID
			step.CompletedAt = &now
		}
	} else {
		step.CompletedBy = nil
		step.CompletedAt = nil
	}
	step.UpdatedAt = now
	return step
}
