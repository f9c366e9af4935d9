package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"leadflow_backend/internal/events"
	"leadflow_backend/internal/workflow/domain"
	"leadflow_backend/internal/workflow/repository"
	"leadflow_backend/platform/apperr"
	"leadflow_backend/platform/logger"
	"leadflow_backend/platform/phone"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingBus struct {
	mu     sync.Mutex
	events []events.Event
}

func (b *recordingBus) Publish(_ context.Context, evt events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, evt)
}

func (b *recordingBus) PublishSync(ctx context.Context, evt events.Event) error {
	b.Publish(ctx, evt)
	return nil
}

func (b *recordingBus) Subscribe(string, events.Handler) {}

func (b *recordingBus) names() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.events))
	for _, evt := range b.events {
		out = append(out, evt.EventName())
	}
	return out
}

// tickingClock advances one second per reading so creation order is stable.
type tickingClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *tickingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

type fixture struct {
	svc   *Service
	store *repository.MemoryStore
	bus   *recordingBus
	ctx   context.Context
}

var (
	admin     = Actor{UserID: uuid.New(), Role: domain.RoleAdmin}
	office    = Actor{UserID: uuid.New(), Role: domain.RoleOffice}
	agent     = Actor{UserID: uuid.New(), Role: domain.RoleAgent}
	installer = Actor{UserID: uuid.New(), Role: domain.RoleInstaller}
)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := repository.NewMemoryStore()
	bus := &recordingBus{}
	clock := &tickingClock{now: time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)}
	svc := New(store, bus, phone.NewNormalizer("NL"), logger.NewDiscard(), WithClock(clock.Now))
	return &fixture{svc: svc, store: store, bus: bus, ctx: context.Background()}
}

func (f *fixture) template(t *testing.T, in TemplateInput) domain.StepTemplate {
	t.Helper()
	tpl, err := f.svc.CreateTemplate(f.ctx, admin, in)
	require.NoError(t, err)
	return tpl
}

func (f *fixture) lead(t *testing.T, phoneNumber string) domain.Lead {
	t.Helper()
	details, err := f.svc.CreateLead(f.ctx, office, CreateLeadInput{Name: "Jansen", Phone: phoneNumber})
	require.NoError(t, err)
	return details.Lead
}

func (f *fixture) statuses(t *testing.T, leadID uuid.UUID) map[uuid.UUID]domain.StepStatus {
	t.Helper()
	timeline, err := f.svc.GetTimeline(f.ctx, admin, leadID)
	require.NoError(t, err)
	out := make(map[uuid.UUID]domain.StepStatus, len(timeline))
	for _, ts := range timeline {
		out[ts.Template.ID] = ts.Step.Status
	}
	return out
}

func assertCode(t *testing.T, err error, code apperr.Code) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, code, apperr.GetCode(err), "error: %v", err)
}

// threeSteps registers survey (agent), loan approval (office, remarks) and
// installation (installer, customer uploads).
func threeSteps(t *testing.T, f *fixture) (survey, loan, install domain.StepTemplate) {
	survey = f.template(t, TemplateInput{
		Name: "Site survey", OrderIndex: 10,
		AllowedRoles: []domain.Role{domain.RoleAgent}, AttachmentsAllowed: true,
	})
	loan = f.template(t, TemplateInput{
		Name: "Loan approval", OrderIndex: 20,
		AllowedRoles: []domain.Role{domain.RoleOffice}, RemarksRequired: true,
	})
	install = f.template(t, TemplateInput{
		Name: "Installation", OrderIndex: 30,
		AllowedRoles: []domain.Role{domain.RoleInstaller}, AttachmentsAllowed: true, CustomerUpload: true,
	})
	return survey, loan, install
}
