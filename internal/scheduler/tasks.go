package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskWorkflowNotification = "workflow.notification"

// WorkflowNotificationPayload describes one committed workflow event whose
// recipients are resolved by the worker.
type WorkflowNotificationPayload struct {
	EventID      string   `json:"eventId,omitempty"`
	Event        string   `json:"event"`
	LeadID       string   `json:"leadId"`
	StepID       string   `json:"stepId,omitempty"`
	StepName     string   `json:"stepName,omitempty"`
	ActorID      string   `json:"actorId,omitempty"`
	AllowedRoles []string `json:"allowedRoles,omitempty"`
	FileCount    int      `json:"fileCount,omitempty"`
}

func NewWorkflowNotificationTask(payload WorkflowNotificationPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskWorkflowNotification, data), nil
}

func ParseWorkflowNotificationPayload(task *asynq.Task) (WorkflowNotificationPayload, error) {
	var payload WorkflowNotificationPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return WorkflowNotificationPayload{}, err
	}
	return payload, nil
}
