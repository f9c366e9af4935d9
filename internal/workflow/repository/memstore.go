package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"leadflow_backend/internal/activity"
	"leadflow_backend/internal/workflow/domain"

	"github.com/google/uuid"
)

// MemoryStore is an in-process Store used by tests and local tooling.
// Transactions are serialized by one mutex and work on a copy of the state
// that replaces the committed state only when fn succeeds. It enforces the
// same uniqueness rules as the database schema.
type MemoryStore struct {
	mu    sync.Mutex
	state *memState
	now   func() time.Time
}

type memState struct {
	templates map[uuid.UUID]domain.StepTemplate
	leads     map[uuid.UUID]domain.Lead
	steps     map[uuid.UUID]domain.LeadStep
	activity  []activity.Entry
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		state: &memState{
			templates: make(map[uuid.UUID]domain.StepTemplate),
			leads:     make(map[uuid.UUID]domain.Lead),
			steps:     make(map[uuid.UUID]domain.LeadStep),
		},
		now: func() time.Time { return time.Now().UTC() },
	}
}

// WithTx implements Store.
func (m *MemoryStore) WithTx(ctx context.Context, _ string, fn func(ctx context.Context, tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	working := m.state.clone()
	if err := fn(ctx, &memTx{state: working, now: m.now}); err != nil {
		return err
	}
	m.state = working
	return nil
}

// ActivityCount returns the number of committed activity entries.
func (m *MemoryStore) ActivityCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.state.activity)
}

func (s *memState) clone() *memState {
	out := &memState{
		templates: make(map[uuid.UUID]domain.StepTemplate, len(s.templates)),
		leads:     make(map[uuid.UUID]domain.Lead, len(s.leads)),
		steps:     make(map[uuid.UUID]domain.LeadStep, len(s.steps)),
		activity:  append([]activity.Entry(nil), s.activity...),
	}
	for id, t := range s.templates {
		t.AllowedRoles = append([]domain.Role(nil), t.AllowedRoles...)
		out.templates[id] = t
	}
	for id, l := range s.leads {
		out.leads[id] = l
	}
	for id, st := range s.steps {
		st.Attachments = append([]domain.Attachment(nil), st.Attachments...)
		out.steps[id] = st
	}
	return out
}

type memTx struct {
	state *memState
	now   func() time.Time
}

func (m *memTx) activeIndexTaken(index int, except uuid.UUID) bool {
	for id, t := range m.state.templates {
		if id != except && t.IsActive && t.OrderIndex == index {
			return true
		}
	}
	return false
}

func (m *memTx) ListTemplates(_ context.Context, includeInactive bool) ([]domain.StepTemplate, error) {
	out := make([]domain.StepTemplate, 0, len(m.state.templates))
	for _, t := range m.state.templates {
		if t.IsActive || includeInactive {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IsActive != out[j].IsActive {
			return out[i].IsActive
		}
		if out[i].OrderIndex != out[j].OrderIndex {
			return out[i].OrderIndex < out[j].OrderIndex
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (m *memTx) GetTemplate(_ context.Context, id uuid.UUID) (domain.StepTemplate, error) {
	t, ok := m.state.templates[id]
	if !ok {
		return domain.StepTemplate{}, ErrNotFound
	}
	return t, nil
}

func (m *memTx) InsertTemplate(_ context.Context, t domain.StepTemplate) error {
	if t.IsActive && m.activeIndexTaken(t.OrderIndex, t.ID) {
		return ErrOrderIndexTaken
	}
	m.state.templates[t.ID] = t
	return nil
}

func (m *memTx) UpdateTemplate(_ context.Context, t domain.StepTemplate) error {
	if _, ok := m.state.templates[t.ID]; !ok {
		return ErrNotFound
	}
	if t.IsActive && m.activeIndexTaken(t.OrderIndex, t.ID) {
		return ErrOrderIndexTaken
	}
	m.state.templates[t.ID] = t
	return nil
}

func (m *memTx) SetOrderIndexes(_ context.Context, indexes map[uuid.UUID]int) error {
	next := make(map[uuid.UUID]domain.StepTemplate, len(indexes))
	for id, idx := range indexes {
		t, ok := m.state.templates[id]
		if !ok {
			return ErrNotFound
		}
		t.OrderIndex = idx
		t.UpdatedAt = m.now()
		next[id] = t
	}

	seen := make(map[int]struct{})
	for id, t := range m.state.templates {
		if updated, ok := next[id]; ok {
			t = updated
		}
		if !t.IsActive {
			continue
		}
		if _, dup := seen[t.OrderIndex]; dup {
			return ErrOrderIndexTaken
		}
		seen[t.OrderIndex] = struct{}{}
	}

	for id, t := range next {
		m.state.templates[id] = t
	}
	return nil
}

func (m *memTx) LockRegistry(context.Context) error { return nil }

func (m *memTx) GetLead(_ context.Context, id uuid.UUID, _ bool) (domain.Lead, error) {
	l, ok := m.state.leads[id]
	if !ok {
		return domain.Lead{}, ErrNotFound
	}
	return l, nil
}

func (m *memTx) InsertLead(_ context.Context, lead domain.Lead) error {
	m.state.leads[lead.ID] = lead
	return nil
}

func (m *memTx) UpdateLead(_ context.Context, lead domain.Lead) error {
	if _, ok := m.state.leads[lead.ID]; !ok {
		return ErrNotFound
	}
	m.state.leads[lead.ID] = lead
	return nil
}

func (m *memTx) FindUnlinkedLeadByPhone(_ context.Context, phone string) (domain.Lead, error) {
	var found *domain.Lead
	for _, l := range m.state.leads {
		if l.Phone != phone || l.CustomerAccountID != nil {
			continue
		}
		if found == nil || l.CreatedAt.Before(found.CreatedAt) {
			candidate := l
			found = &candidate
		}
	}
	if found == nil {
		return domain.Lead{}, ErrNotFound
	}
	return *found, nil
}

func (m *memTx) LockPhone(context.Context, string) error { return nil }

func (m *memTx) ListLeadSteps(_ context.Context, leadID uuid.UUID) ([]domain.LeadStep, error) {
	out := make([]domain.LeadStep, 0)
	for _, s := range m.state.steps {
		if s.LeadID == leadID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (m *memTx) GetLeadStep(_ context.Context, leadID, stepID uuid.UUID, _ bool) (domain.LeadStep, error) {
	for _, s := range m.state.steps {
		if s.LeadID == leadID && s.StepID == stepID {
			return s, nil
		}
	}
	return domain.LeadStep{}, ErrNotFound
}

func (m *memTx) InsertLeadSteps(_ context.Context, steps []domain.LeadStep) error {
	for _, s := range steps {
		for _, existing := range m.state.steps {
			if existing.LeadID == s.LeadID && existing.StepID == s.StepID {
				return ErrStepExists
			}
		}
		m.state.steps[s.ID] = s
	}
	return nil
}

func (m *memTx) UpdateLeadStep(_ context.Context, step domain.LeadStep) error {
	if _, ok := m.state.steps[step.ID]; !ok {
		return ErrNotFound
	}
	m.state.steps[step.ID] = step
	return nil
}

func (m *memTx) RecordActivity(_ context.Context, entry activity.Entry) (activity.Entry, error) {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = m.now()
	}
	m.state.activity = append(m.state.activity, entry)
	return entry, nil
}

func (m *memTx) ListActivity(_ context.Context, leadID uuid.UUID) ([]activity.Entry, error) {
	out := make([]activity.Entry, 0)
	for i := len(m.state.activity) - 1; i >= 0; i-- {
		e := m.state.activity[i]
		if e.LeadID != nil && *e.LeadID == leadID {
			out = append(out, e)
		}
	}
	return out, nil
}
