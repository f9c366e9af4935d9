package notification

import (
	"context"
	"errors"
	"fmt"

	"leadflow_backend/internal/email"
	"leadflow_backend/internal/events"
	"leadflow_backend/internal/notification/inapp"
	"leadflow_backend/internal/scheduler"
	"leadflow_backend/platform/logger"

	"github.com/google/uuid"
)

const resourceTypeLead = "lead"

// Inbox stores a notification for one user.
type Inbox interface {
	Send(ctx context.Context, p inapp.SendParams) (inapp.Notification, error)
}

// audience selects who hears about an event. Roles are resolved through the
// directory; the flags pick parties of the lead itself.
type audience struct {
	roles     []string
	creator   bool
	customer  bool
	installer bool
}

var notifiedEvents = map[string]bool{
	events.NameLeadCreated:       true,
	events.NameStepEnabled:       true,
	events.NameStepCompleted:     true,
	events.NameDocumentsUploaded: true,
	events.NameLeadClosed:        true,
	events.NameLeadReopened:      true,
	events.NameCustomerLinked:    true,
}

var staffRoles = map[string]bool{"admin": true, "office": true, "agent": true}

func audienceFor(p scheduler.WorkflowNotificationPayload) audience {
	switch p.Event {
	case events.NameLeadCreated:
		return audience{roles: []string{"admin", "office"}}
	case events.NameStepEnabled:
		a := audience{}
		for _, role := range p.AllowedRoles {
			switch {
			case staffRoles[role]:
				a.roles = append(a.roles, role)
			case role == "installer":
				a.installer = true
			case role == "customer":
				a.customer = true
			}
		}
		return a
	case events.NameStepCompleted:
		return audience{creator: true, customer: true}
	case events.NameDocumentsUploaded:
		return audience{roles: []string{"office"}, creator: true}
	case events.NameLeadClosed, events.NameLeadReopened:
		return audience{creator: true, customer: true, installer: true}
	case events.NameCustomerLinked:
		return audience{roles: []string{"office"}}
	}
	return audience{}
}

func compose(p scheduler.WorkflowNotificationPayload, leadName string) (title, content, category string) {
	switch p.Event {
	case events.NameLeadCreated:
		return "New lead", fmt.Sprintf("Lead %s was registered.", leadName), inapp.CategoryInfo
	case events.NameStepEnabled:
		return "Step ready", fmt.Sprintf("%s is ready for lead %s.", p.StepName, leadName), inapp.CategoryInfo
	case events.NameStepCompleted:
		return "Step completed", fmt.Sprintf("%s was completed for lead %s.", p.StepName, leadName), inapp.CategorySuccess
	case events.NameDocumentsUploaded:
		return "Documents uploaded", fmt.Sprintf("%d document(s) were added to %s for lead %s.", p.FileCount, p.StepName, leadName), inapp.CategoryInfo
	case events.NameLeadClosed:
		return "Project closed", fmt.Sprintf("The project for lead %s was closed.", leadName), inapp.CategorySuccess
	case events.NameLeadReopened:
		return "Project reopened", fmt.Sprintf("The project for lead %s was reopened.", leadName), inapp.CategoryWarning
	case events.NameCustomerLinked:
		return "Customer signed up", fmt.Sprintf("Lead %s now has a customer account.", leadName), inapp.CategoryInfo
	}
	return "", "", ""
}

// customerEmail builds the email a linked customer receives next to the
// in-app entry. Only events that ask something of the customer or change
// their project qualify.
func customerEmail(p scheduler.WorkflowNotificationPayload, leadName, projectURL string) (email.Message, bool) {
	msg := email.Message{
		Greeting: fmt.Sprintf("Hello %s,", leadName),
		CTALabel: "View your project",
		CTAURL:   projectURL,
	}
	switch p.Event {
	case events.NameStepEnabled:
		msg.Subject = fmt.Sprintf("Action needed: %s", p.StepName)
		msg.Heading = p.StepName
		msg.Body = fmt.Sprintf("The step %s is now open for you. Please review it and upload any requested documents.", p.StepName)
	case events.NameStepCompleted:
		msg.Subject = fmt.Sprintf("%s completed", p.StepName)
		msg.Heading = "Your project moved forward"
		msg.Body = fmt.Sprintf("We completed %s for your project.", p.StepName)
	case events.NameLeadClosed:
		msg.Subject = "Your project is complete"
		msg.Heading = "Project closed"
		msg.Body = "All steps of your project are done and the project has been closed."
	case events.NameLeadReopened:
		msg.Subject = "Your project was reopened"
		msg.Heading = "Project reopened"
		msg.Body = "Your project was reopened. We will keep you posted on the next steps."
	default:
		return email.Message{}, false
	}
	return msg, true
}

// Dispatcher turns workflow notification payloads into inbox entries and,
// when a mailer is set, customer emails.
type Dispatcher struct {
	dir        Directory
	inbox      Inbox
	mailer     email.Sender
	appBaseURL string
	log        *logger.Logger
}

func NewDispatcher(dir Directory, inbox Inbox, log *logger.Logger) *Dispatcher {
	return &Dispatcher{dir: dir, inbox: inbox, log: log}
}

// SetMailer enables customer emails. Project links are built on appBaseURL.
func (d *Dispatcher) SetMailer(mailer email.Sender, appBaseURL string) {
	d.mailer = mailer
	d.appBaseURL = appBaseURL
}

// Deliver resolves the recipients of payload and writes their notifications.
// The acting user is never notified about their own action. Lookup failures
// are returned so the task is retried; a single failed recipient is logged
// and skipped so a retry cannot duplicate the others.
func (d *Dispatcher) Deliver(ctx context.Context, p scheduler.WorkflowNotificationPayload) error {
	leadID, err := uuid.Parse(p.LeadID)
	if err != nil {
		return fmt.Errorf("invalid lead id %q: %w", p.LeadID, err)
	}
	if !notifiedEvents[p.Event] {
		d.log.Warn("no notification for workflow event", "event", p.Event)
		return nil
	}

	parties, err := d.dir.LeadParties(ctx, leadID)
	if errors.Is(err, ErrLeadNotFound) {
		d.log.Warn("lead for notification no longer exists", "leadId", leadID, "event", p.Event)
		return nil
	}
	if err != nil {
		return err
	}

	recipients, err := d.recipients(ctx, audienceFor(p), parties, p.ActorID)
	if err != nil {
		return err
	}

	title, content, category := compose(p, parties.Name)
	for _, userID := range recipients {
		_, sendErr := d.inbox.Send(ctx, inapp.SendParams{
			UserID:       userID,
			Title:        title,
			Content:      content,
			ResourceID:   &leadID,
			ResourceType: resourceTypeLead,
			Category:     category,
		})
		if sendErr != nil {
			d.log.Warn("failed to deliver notification", "userId", userID, "event", p.Event, "error", sendErr)
		}
	}

	d.emailCustomer(ctx, p, leadID, parties, recipients)
	return nil
}

func (d *Dispatcher) emailCustomer(ctx context.Context, p scheduler.WorkflowNotificationPayload, leadID uuid.UUID, parties LeadParties, recipients []uuid.UUID) {
	if d.mailer == nil || parties.Customer == nil || parties.CustomerEmail == "" {
		return
	}
	if !containsID(recipients, *parties.Customer) {
		return
	}
	msg, ok := customerEmail(p, parties.Name, fmt.Sprintf("%s/leads/%s", d.appBaseURL, leadID))
	if !ok {
		return
	}
	if err := d.mailer.SendWorkflowEmail(ctx, parties.CustomerEmail, msg); err != nil {
		d.log.Warn("failed to email customer", "leadId", leadID, "event", p.Event, "error", err)
	}
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

func (d *Dispatcher) recipients(ctx context.Context, a audience, parties LeadParties, actorID string) ([]uuid.UUID, error) {
	var out []uuid.UUID
	if len(a.roles) > 0 {
		ids, err := d.dir.UsersWithRoles(ctx, a.roles)
		if err != nil {
			return nil, err
		}
		out = append(out, ids...)
	}
	if a.creator {
		out = append(out, parties.CreatedBy)
	}
	if a.customer && parties.Customer != nil {
		out = append(out, *parties.Customer)
	}
	if a.installer && parties.Installer != nil {
		out = append(out, *parties.Installer)
	}

	actor, _ := uuid.Parse(actorID)
	seen := make(map[uuid.UUID]bool, len(out))
	unique := out[:0]
	for _, id := range out {
		if id == uuid.Nil || id == actor || seen[id] {
			continue
		}
		seen[id] = true
		unique = append(unique, id)
	}
	return unique, nil
}
