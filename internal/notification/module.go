// Package notification turns committed workflow events into in-app
// notifications. Events are queued on asynq when a scheduler client is
// configured and delivered by the worker; otherwise they are delivered
// in-process.
package notification

import (
	"context"

	"leadflow_backend/internal/email"
	"leadflow_backend/internal/events"
	apphttp "leadflow_backend/internal/http"
	notifhandler "leadflow_backend/internal/notification/handler"
	"leadflow_backend/internal/notification/inapp"
	"leadflow_backend/internal/scheduler"
	"leadflow_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Enqueuer queues notification delivery.
type Enqueuer interface {
	EnqueueWorkflowNotification(ctx context.Context, payload scheduler.WorkflowNotificationPayload) error
}

// Module handles all notification-related event subscriptions.
type Module struct {
	dispatcher   *Dispatcher
	enqueuer     Enqueuer
	inAppService *inapp.Service
	inAppHandler *notifhandler.HTTPHandler
	log          *logger.Logger
}

// New creates a new notification module.
func New(pool *pgxpool.Pool, log *logger.Logger) *Module {
	log = log.Named("notification")
	inAppSvc := inapp.NewService(inapp.NewRepository(pool), log)

	return &Module{
		dispatcher:   NewDispatcher(NewPgDirectory(pool), inAppSvc, log),
		inAppService: inAppSvc,
		inAppHandler: notifhandler.NewHTTPHandler(inAppSvc),
		log:          log,
	}
}

func (m *Module) Name() string { return "notification" }

// RegisterRoutes registers notification API routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	notifications := ctx.Protected.Group("/notifications")
	m.inAppHandler.RegisterRoutes(notifications)
}

// InAppService exposes the inbox for the retention job.
func (m *Module) InAppService() *inapp.Service { return m.inAppService }

// SetMailer adds customer emails to delivery.
func (m *Module) SetMailer(mailer email.Sender, appBaseURL string) {
	m.dispatcher.SetMailer(mailer, appBaseURL)
}

// SetEnqueuer routes delivery through the task queue.
func (m *Module) SetEnqueuer(e Enqueuer) { m.enqueuer = e }

// Deliver writes the notifications for one payload. The worker calls it for
// queued tasks.
func (m *Module) Deliver(ctx context.Context, payload scheduler.WorkflowNotificationPayload) error {
	return m.dispatcher.Deliver(ctx, payload)
}

func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.NameLeadCreated, m)
	bus.Subscribe(events.NameStepEnabled, m)
	bus.Subscribe(events.NameStepCompleted, m)
	bus.Subscribe(events.NameDocumentsUploaded, m)
	bus.Subscribe(events.NameLeadClosed, m)
	bus.Subscribe(events.NameLeadReopened, m)
	bus.Subscribe(events.NameCustomerLinked, m)

	m.log.Info("notification module registered event handlers")
}

// Handle routes events to the queue, or delivers them directly when no
// queue is configured or enqueueing failed.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	payload, ok := payloadFor(event)
	if !ok {
		return nil
	}

	if m.enqueuer != nil {
		err := m.enqueuer.EnqueueWorkflowNotification(ctx, payload)
		if err == nil {
			return nil
		}
		m.log.TaskEnqueueFailed(scheduler.TaskWorkflowNotification, payload.Event, err)
	}
	return m.dispatcher.Deliver(ctx, payload)
}

func payloadFor(event events.Event) (scheduler.WorkflowNotificationPayload, bool) {
	p := scheduler.WorkflowNotificationPayload{Event: event.EventName()}
	if id := event.EventID(); id != uuid.Nil {
		p.EventID = id.String()
	}
	switch e := event.(type) {
	case events.LeadCreated:
		p.LeadID = e.LeadID.String()
		p.ActorID = e.CreatedBy.String()
	case events.StepEnabled:
		p.LeadID = e.LeadID.String()
		p.StepID = e.StepID.String()
		p.StepName = e.StepName
		p.AllowedRoles = e.AllowedRoles
	case events.StepCompleted:
		p.LeadID = e.LeadID.String()
		p.StepID = e.StepID.String()
		p.StepName = e.StepName
		p.ActorID = e.CompletedBy.String()
	case events.DocumentsUploaded:
		p.LeadID = e.LeadID.String()
		p.StepID = e.StepID.String()
		p.StepName = e.StepName
		p.ActorID = e.UploadedBy.String()
		p.FileCount = len(e.FileKeys)
	case events.LeadClosed:
		p.LeadID = e.LeadID.String()
		p.ActorID = e.ClosedBy.String()
	case events.LeadReopened:
		p.LeadID = e.LeadID.String()
		p.ActorID = e.ReopenedBy.String()
	case events.CustomerLinked:
		p.LeadID = e.LeadID.String()
		p.ActorID = e.CustomerID.String()
	default:
		return scheduler.WorkflowNotificationPayload{}, false
	}
	return p, true
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
