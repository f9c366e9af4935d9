package service

import (
	"testing"

	"leadflow_backend/internal/workflow/domain"
	"leadflow_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateTemplateRejectsDuplicateActiveIndex(t *testing.T) {
	f := newFixture(t)
	f.template(t, TemplateInput{Name: "Survey", OrderIndex: 10, AllowedRoles: []domain.Role{domain.RoleAgent}})

	_, err := f.svc.CreateTemplate(f.ctx, admin, TemplateInput{Name: "Other", OrderIndex: 10, AllowedRoles: []domain.Role{domain.RoleAgent}})
	assertCode(t, err, domain.CodeDuplicateOrderIndex)

	inactive, err := f.svc.CreateTemplate(f.ctx, admin, TemplateInput{
		Name: "Parked", OrderIndex: 10, AllowedRoles: []domain.Role{domain.RoleAgent}, Inactive: true,
	})
	require.NoError(t, err)

	_, err = f.svc.UpdateTemplate(f.ctx, admin, inactive.ID, TemplatePatch{IsActive: boolPtr(true)})
	assertCode(t, err, domain.CodeDuplicateOrderIndex)
}

func TestCreateTemplateValidation(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateTemplate(f.ctx, office, TemplateInput{Name: "X", OrderIndex: 1, AllowedRoles: []domain.Role{domain.RoleAgent}})
	assertCode(t, err, domain.CodePermissionDenied)

	_, err = f.svc.CreateTemplate(f.ctx, admin, TemplateInput{Name: "X", OrderIndex: 1})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = f.svc.CreateTemplate(f.ctx, admin, TemplateInput{Name: "X", OrderIndex: 1, AllowedRoles: []domain.Role{"janitor"}})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = f.svc.CreateTemplate(f.ctx, admin, TemplateInput{Name: "X", OrderIndex: domain.MaxOrderIndex + 1, AllowedRoles: []domain.Role{domain.RoleAgent}})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	tpl, err := f.svc.CreateTemplate(f.ctx, admin, TemplateInput{
		Name: " Survey ", OrderIndex: 1, AllowedRoles: []domain.Role{"Agent", domain.RoleAgent},
	})
	require.NoError(t, err)
	assert.Equal(t, "Survey", tpl.Name)
	assert.Equal(t, []domain.Role{domain.RoleAgent}, tpl.AllowedRoles)
}

func TestReorderChangesProgressionOrder(t *testing.T) {
	f := newFixture(t)
	survey, loan, install := threeSteps(t, f)
	lead := f.lead(t, "06 12345678")

	_, err := f.svc.Reorder(f.ctx, admin, install.ID, 20)
	assertCode(t, err, domain.CodeDuplicateOrderIndex)

	_, err = f.svc.Reorder(f.ctx, admin, install.ID, domain.MaxOrderIndex+1)
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = f.svc.Reorder(f.ctx, admin, install.ID, 15)
	require.NoError(t, err)

	timeline, err := f.svc.GetTimeline(f.ctx, admin, lead.ID)
	require.NoError(t, err)
	require.Len(t, timeline, 3)
	assert.Equal(t, []uuid.UUID{survey.ID, install.ID, loan.ID},
		[]uuid.UUID{timeline[0].Template.ID, timeline[1].Template.ID, timeline[2].Template.ID})

	_, err = f.svc.CompleteStep(f.ctx, CompleteStepInput{LeadID: lead.ID, StepID: survey.ID, Actor: agent})
	require.NoError(t, err)
	statuses := f.statuses(t, lead.ID)
	assert.Equal(t, domain.StepStatusPending, statuses[install.ID])
	assert.Equal(t, domain.StepStatusUpcoming, statuses[loan.ID])
}

func TestInsertTemplateAfterRenumbersWhenCrowded(t *testing.T) {
	f := newFixture(t)
	first := f.template(t, TemplateInput{Name: "First", OrderIndex: 10, AllowedRoles: []domain.Role{domain.RoleAgent}})
	second := f.template(t, TemplateInput{Name: "Second", OrderIndex: 11, AllowedRoles: []domain.Role{domain.RoleAgent}})

	inserted, err := f.svc.InsertTemplateAfter(f.ctx, admin, TemplateInput{
		Name: "Between", AllowedRoles: []domain.Role{domain.RoleOffice},
	}, &first.ID)
	require.NoError(t, err)

	templates, err := f.svc.ListTemplates(f.ctx, false)
	require.NoError(t, err)
	require.Len(t, templates, 3)
	assert.Equal(t, first.ID, templates[0].ID)
	assert.Equal(t, inserted.ID, templates[1].ID)
	assert.Equal(t, second.ID, templates[2].ID)
	assert.Equal(t, 10, templates[0].OrderIndex)
	assert.Equal(t, 15, templates[1].OrderIndex)
	assert.Equal(t, 20, templates[2].OrderIndex)

	last, err := f.svc.InsertTemplateAfter(f.ctx, admin, TemplateInput{
		Name: "Last", AllowedRoles: []domain.Role{domain.RoleOffice},
	}, &second.ID)
	require.NoError(t, err)
	assert.Equal(t, 30, last.OrderIndex)

	missing := uuid.New()
	_, err = f.svc.InsertTemplateAfter(f.ctx, admin, TemplateInput{
		Name: "Nowhere", AllowedRoles: []domain.Role{domain.RoleOffice},
	}, &missing)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestRenumberTemplates(t *testing.T) {
	f := newFixture(t)
	survey, loan, install := threeSteps(t, f)

	_, err := f.svc.RenumberTemplates(f.ctx, admin, []uuid.UUID{survey.ID, loan.ID})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = f.svc.RenumberTemplates(f.ctx, admin, []uuid.UUID{survey.ID, survey.ID, loan.ID})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	result, err := f.svc.RenumberTemplates(f.ctx, admin, []uuid.UUID{install.ID, survey.ID, loan.ID})
	require.NoError(t, err)
	require.Len(t, result, 3)
	assert.Equal(t, install.ID, result[0].ID)
	assert.Equal(t, 10, result[0].OrderIndex)
	assert.Equal(t, survey.ID, result[1].ID)
	assert.Equal(t, 20, result[1].OrderIndex)
	assert.Equal(t, loan.ID, result[2].ID)
	assert.Equal(t, 30, result[2].OrderIndex)
}

func TestInactiveTemplatesAreNotMaterialized(t *testing.T) {
	f := newFixture(t)
	survey, loan, _ := threeSteps(t, f)

	_, err := f.svc.UpdateTemplate(f.ctx, admin, survey.ID, TemplatePatch{IsActive: boolPtr(false)})
	require.NoError(t, err)

	lead := f.lead(t, "06 12345678")
	statuses := f.statuses(t, lead.ID)
	assert.Len(t, statuses, 2)
	assert.NotContains(t, statuses, survey.ID)
	assert.Equal(t, domain.StepStatusPending, statuses[loan.ID])
}

func boolPtr(v bool) *bool { return &v }
