package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func template(order int, active bool) StepTemplate {
	return StepTemplate{ID: uuid.New(), OrderIndex: order, IsActive: active, AllowedRoles: []Role{RoleOffice}}
}

func stepFor(t StepTemplate, status StepStatus) LeadStep {
	return LeadStep{ID: uuid.New(), StepID: t.ID, Status: status}
}

func TestBuildTimelineFirstPending(t *testing.T) {
	templates := []StepTemplate{template(30, true), template(10, true), template(5, false), template(20, true)}
	leadID := uuid.New()

	steps := BuildTimeline(leadID, templates, time.Now())
	if len(steps) != 3 {
		t.Fatalf("expected 3 steps for active templates, got %d", len(steps))
	}

	pending := 0
	for _, s := range steps {
		if s.LeadID != leadID {
			t.Fatal("step bound to wrong lead")
		}
		if s.Status == StepStatusPending {
			pending++
			if s.StepID != templates[1].ID {
				t.Fatal("pending step is not the lowest order index")
			}
		} else if s.Status != StepStatusUpcoming {
			t.Fatalf("unexpected status %q", s.Status)
		}
	}
	if pending != 1 {
		t.Fatalf("expected exactly one pending step, got %d", pending)
	}
}

func TestBuildTimelineEmpty(t *testing.T) {
	if steps := BuildTimeline(uuid.New(), nil, time.Now()); len(steps) != 0 {
		t.Fatalf("expected no steps, got %d", len(steps))
	}
}

func TestNextEligibleStep(t *testing.T) {
	a, b, c, d := template(1, true), template(2, true), template(3, true), template(4, true)
	inactive := template(2, false)

	tests := []struct {
		name      string
		templates []StepTemplate
		steps     []LeadStep
		completed int
		want      *StepTemplate
	}{
		{
			name:      "enables next upcoming",
			templates: []StepTemplate{a, b, c},
			steps:     []LeadStep{stepFor(a, StepStatusCompleted), stepFor(b, StepStatusUpcoming), stepFor(c, StepStatusUpcoming)},
			completed: 1,
			want:      &b,
		},
		{
			name:      "skips completed steps",
			templates: []StepTemplate{a, b, c},
			steps:     []LeadStep{stepFor(a, StepStatusCompleted), stepFor(b, StepStatusCompleted), stepFor(c, StepStatusUpcoming)},
			completed: 1,
			want:      &c,
		},
		{
			name:      "skips a manually pending step",
			templates: []StepTemplate{a, b, c},
			steps:     []LeadStep{stepFor(a, StepStatusCompleted), stepFor(b, StepStatusPending), stepFor(c, StepStatusUpcoming)},
			completed: 1,
			want:      &c,
		},
		{
			name:      "nothing upcoming after pending",
			templates: []StepTemplate{a, b},
			steps:     []LeadStep{stepFor(a, StepStatusCompleted), stepFor(b, StepStatusPending)},
			completed: 1,
		},
		{
			name:      "end of sequence",
			templates: []StepTemplate{a, b},
			steps:     []LeadStep{stepFor(a, StepStatusCompleted), stepFor(b, StepStatusCompleted)},
			completed: 2,
		},
		{
			name:      "skips templates without instance",
			templates: []StepTemplate{a, b, c, d},
			steps:     []LeadStep{stepFor(a, StepStatusCompleted), stepFor(c, StepStatusUpcoming), stepFor(d, StepStatusUpcoming)},
			completed: 1,
			want:      &c,
		},
		{
			name:      "ignores inactive templates",
			templates: []StepTemplate{a, inactive, c},
			steps:     []LeadStep{stepFor(a, StepStatusCompleted), stepFor(inactive, StepStatusUpcoming), stepFor(c, StepStatusUpcoming)},
			completed: 1,
			want:      &c,
		},
		{
			name:      "does not look backwards",
			templates: []StepTemplate{a, b, c},
			steps:     []LeadStep{stepFor(a, StepStatusUpcoming), stepFor(b, StepStatusUpcoming), stepFor(c, StepStatusCompleted)},
			completed: 3,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := NextEligibleStep(tc.templates, tc.steps, tc.completed)
			if tc.want == nil {
				if ok {
					t.Fatalf("expected no step, got template %s", got.StepID)
				}
				return
			}
			if !ok || got.StepID != tc.want.ID {
				t.Fatalf("expected template %s, got %s (ok=%v)", tc.want.ID, got.StepID, ok)
			}
		})
	}
}

func TestStatusAfterCompletion(t *testing.T) {
	if status, changed := StatusAfterCompletion(LeadStatusInquiry); !changed || status != LeadStatusOngoing {
		t.Fatalf("inquiry should move to ongoing, got %q", status)
	}
	if _, changed := StatusAfterCompletion(LeadStatusClosed); changed {
		t.Fatal("closed lead must not change status")
	}
}

func TestApplyStatusKeepsCompletionInvariant(t *testing.T) {
	userID := uuid.New()
	now := time.Now()
	step := ApplyCompletion(LeadStep{Status: StepStatusPending}, userID, now, NewNote("ok"), nil)
	if step.CompletedBy == nil || step.CompletedAt == nil {
		t.Fatal("completion fields must be set")
	}

	reverted := ApplyStatus(step, StepStatusPending, userID, now)
	if reverted.CompletedBy != nil || reverted.CompletedAt != nil {
		t.Fatal("completion fields must be cleared when not completed")
	}

	forced := ApplyStatus(reverted, StepStatusCompleted, userID, now)
	if forced.CompletedBy == nil || *forced.CompletedBy != userID || forced.CompletedAt == nil {
		t.Fatal("forced completion must record the admin")
	}
}
