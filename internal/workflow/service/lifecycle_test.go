package service

import (
	"context"
	"errors"
	"testing"

	"leadflow_backend/internal/activity"
	"leadflow_backend/internal/events"
	"leadflow_backend/internal/workflow/domain"
	"leadflow_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateLead(t *testing.T) {
	f := newFixture(t)
	survey, loan, install := threeSteps(t, f)

	details, err := f.svc.CreateLead(f.ctx, agent, CreateLeadInput{Name: " Jansen ", Phone: "+31 6 12345678"})
	require.NoError(t, err)
	assert.Equal(t, "Jansen", details.Lead.Name)
	assert.Equal(t, "+31612345678", details.Lead.Phone)
	assert.Equal(t, domain.LeadSourceAgent, details.Lead.Source)
	assert.Equal(t, domain.LeadStatusInquiry, details.Lead.Status)

	require.Len(t, details.Timeline, 3)
	assert.Equal(t, survey.ID, details.Timeline[0].Template.ID)
	assert.Equal(t, domain.StepStatusPending, details.Timeline[0].Step.Status)
	assert.Equal(t, loan.ID, details.Timeline[1].Template.ID)
	assert.Equal(t, domain.StepStatusUpcoming, details.Timeline[1].Step.Status)
	assert.Equal(t, install.ID, details.Timeline[2].Template.ID)
	assert.Equal(t, domain.StepStatusUpcoming, details.Timeline[2].Step.Status)

	assert.Contains(t, f.bus.names(), events.NameLeadCreated)

	_, err = f.svc.InitializeLeadTimeline(f.ctx, office, details.Lead.ID)
	assertCode(t, err, domain.CodeAlreadyInitialized)
}

func TestCreateLeadRejects(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateLead(f.ctx, installer, CreateLeadInput{Name: "X", Phone: "06 12345678"})
	assertCode(t, err, domain.CodePermissionDenied)

	_, err = f.svc.CreateLead(f.ctx, office, CreateLeadInput{Name: "X", Phone: "12"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = f.svc.CreateLead(f.ctx, office, CreateLeadInput{Name: "X", Phone: "06 12345678", Source: "billboard"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestLeadVisibility(t *testing.T) {
	f := newFixture(t)
	threeSteps(t, f)
	installerID := installer.UserID
	details, err := f.svc.CreateLead(f.ctx, office, CreateLeadInput{Name: "X", Phone: "06 12345678", InstallerID: &installerID})
	require.NoError(t, err)

	_, err = f.svc.GetLead(f.ctx, installer, details.Lead.ID)
	require.NoError(t, err)

	other := Actor{UserID: uuid.New(), Role: domain.RoleInstaller}
	_, err = f.svc.GetTimeline(f.ctx, other, details.Lead.ID)
	assertCode(t, err, domain.CodePermissionDenied)

	customer := Actor{UserID: uuid.New(), Role: domain.RoleCustomer}
	_, err = f.svc.ListActivity(f.ctx, customer, details.Lead.ID)
	assertCode(t, err, domain.CodePermissionDenied)

	entries, err := f.svc.ListActivity(f.ctx, office, details.Lead.ID)
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	assert.Equal(t, activity.ActionInitTimeline, entries[0].Action)
	assert.Equal(t, activity.ActionCreateLead, entries[len(entries)-1].Action)

	_, err = f.svc.GetLead(f.ctx, office, uuid.New())
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestCloseAndReopen(t *testing.T) {
	f := newFixture(t)
	threeSteps(t, f)
	lead := f.lead(t, "06 12345678")

	_, err := f.svc.CloseProject(f.ctx, agent, lead.ID)
	assertCode(t, err, domain.CodePermissionDenied)

	_, err = f.svc.ReopenProject(f.ctx, admin, lead.ID)
	assertCode(t, err, domain.CodeInvalidState)

	closed, err := f.svc.CloseProject(f.ctx, office, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.LeadStatusClosed, closed.Status)

	before := f.store.ActivityCount()
	again, err := f.svc.CloseProject(f.ctx, office, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.LeadStatusClosed, again.Status)
	assert.Equal(t, before, f.store.ActivityCount())

	_, err = f.svc.ReopenProject(f.ctx, office, lead.ID)
	assertCode(t, err, domain.CodePermissionDenied)

	reopened, err := f.svc.ReopenProject(f.ctx, admin, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.LeadStatusOngoing, reopened.Status)
	assert.Contains(t, f.bus.names(), events.NameLeadClosed)
	assert.Contains(t, f.bus.names(), events.NameLeadReopened)
}

func TestOverrideStepStatus(t *testing.T) {
	f := newFixture(t)
	survey, loan, _ := threeSteps(t, f)
	lead := f.lead(t, "06 12345678")

	_, err := f.svc.CompleteStep(f.ctx, CompleteStepInput{LeadID: lead.ID, StepID: survey.ID, Actor: agent})
	require.NoError(t, err)

	_, err = f.svc.OverrideStepStatus(f.ctx, office, lead.ID, survey.ID, domain.StepStatusPending)
	assertCode(t, err, domain.CodePermissionDenied)

	_, err = f.svc.OverrideStepStatus(f.ctx, admin, lead.ID, survey.ID, "skipped")
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	regressed, err := f.svc.OverrideStepStatus(f.ctx, admin, lead.ID, survey.ID, domain.StepStatusPending)
	require.NoError(t, err)
	assert.Equal(t, domain.StepStatusPending, regressed.Status)
	assert.Nil(t, regressed.CompletedBy)
	assert.Nil(t, regressed.CompletedAt)

	// No progression side effects.
	assert.Equal(t, domain.StepStatusPending, f.statuses(t, lead.ID)[loan.ID])

	advanced, err := f.svc.OverrideStepStatus(f.ctx, admin, lead.ID, loan.ID, domain.StepStatusCompleted)
	require.NoError(t, err)
	require.NotNil(t, advanced.CompletedBy)
	assert.Equal(t, admin.UserID, *advanced.CompletedBy)
}

func TestAttachDocuments(t *testing.T) {
	f := newFixture(t)
	_, loan, install := threeSteps(t, f)

	customerID := uuid.New()
	link, err := f.svc.LinkCustomerToLead(f.ctx, LinkCustomerInput{CustomerID: customerID, Phone: "06 12345678", Name: "Jansen"})
	require.NoError(t, err)
	customer := Actor{UserID: customerID, Role: domain.RoleCustomer}
	docs := []domain.Attachment{{FileKey: "leads/meter.jpg", FileName: "meter.jpg", ContentType: "image/jpeg", SizeBytes: 1024}}

	step, err := f.svc.AttachDocuments(f.ctx, customer, link.LeadID, install.ID, docs)
	require.NoError(t, err)
	assert.Equal(t, docs, step.Attachments)
	assert.Contains(t, f.bus.names(), events.NameDocumentsUploaded)

	_, err = f.svc.AttachDocuments(f.ctx, customer, link.LeadID, loan.ID, docs)
	assertCode(t, err, domain.CodePermissionDenied)

	_, err = f.svc.AttachDocuments(f.ctx, office, link.LeadID, loan.ID, docs)
	assertCode(t, err, domain.CodeAttachmentsNotAllowed)

	stranger := Actor{UserID: uuid.New(), Role: domain.RoleCustomer}
	_, err = f.svc.AttachDocuments(f.ctx, stranger, link.LeadID, install.ID, docs)
	assertCode(t, err, domain.CodePermissionDenied)

	_, err = f.svc.AttachDocuments(f.ctx, customer, link.LeadID, install.ID, nil)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

type rejectingVerifier struct{}

func (rejectingVerifier) VerifyAttachments(context.Context, []domain.Attachment) error {
	return apperr.Validation("attachment object not found")
}

func TestAttachmentsAreVerifiedBeforeWriting(t *testing.T) {
	f := newFixture(t)
	survey, _, _ := threeSteps(t, f)
	lead := f.lead(t, "06 12345678")
	WithAttachmentVerifier(rejectingVerifier{})(f.svc)

	before := f.store.ActivityCount()
	_, err := f.svc.CompleteStep(f.ctx, CompleteStepInput{
		LeadID: lead.ID, StepID: survey.ID, Actor: agent,
		Attachments: []domain.Attachment{{FileKey: "missing.jpg"}},
	})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	assert.Equal(t, before, f.store.ActivityCount())
}

func TestLinkCustomerToLead(t *testing.T) {
	f := newFixture(t)
	threeSteps(t, f)

	older := f.lead(t, "06 12345678")
	f.lead(t, "+31612345678")
	customerID := uuid.New()

	result, err := f.svc.LinkCustomerToLead(f.ctx, LinkCustomerInput{CustomerID: customerID, Phone: "06-12345678", Name: "Jansen"})
	require.NoError(t, err)
	assert.Equal(t, LinkActionLinked, result.Action)
	assert.Equal(t, older.ID, result.LeadID)

	linked, err := f.svc.GetLead(f.ctx, Actor{UserID: customerID, Role: domain.RoleCustomer}, older.ID)
	require.NoError(t, err)
	assert.True(t, linked.Lead.IsLinkedTo(customerID))

	newcomer := uuid.New()
	created, err := f.svc.LinkCustomerToLead(f.ctx, LinkCustomerInput{CustomerID: newcomer, Phone: "06 23456789", Name: "De Vries"})
	require.NoError(t, err)
	assert.Equal(t, LinkActionCreated, created.Action)

	details, err := f.svc.GetLead(f.ctx, office, created.LeadID)
	require.NoError(t, err)
	assert.Equal(t, domain.LeadSourceSelf, details.Lead.Source)
	assert.Equal(t, newcomer, details.Lead.CreatedBy)
	assert.True(t, details.Lead.IsLinkedTo(newcomer))
	require.NotNil(t, details.Lead.Notes)
	assert.Equal(t, "auto-created from customer signup", *details.Lead.Notes)
	require.Len(t, details.Timeline, 3)
	assert.Equal(t, domain.StepStatusPending, details.Timeline[0].Step.Status)

	assert.Contains(t, f.bus.names(), events.NameCustomerLinked)
}

func TestLinkCustomerRejectsInvalidPhone(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.LinkCustomerToLead(f.ctx, LinkCustomerInput{CustomerID: uuid.New(), Phone: "not a phone", Name: "X"})
	var appErr *apperr.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperr.KindValidation, appErr.Kind)
}
