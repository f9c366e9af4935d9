// Package repository persists step templates, leads and lead steps. Every
// operation runs inside a Tx handed out by Store.WithTx so the workflow
// service composes reads, writes and the activity entry atomically.
package repository

import (
	"context"
	"errors"

	"leadflow_backend/internal/activity"
	"leadflow_backend/internal/workflow/domain"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when the requested row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrOrderIndexTaken is returned when an active template already uses the order index.
	ErrOrderIndexTaken = errors.New("order index taken")
	// ErrStepExists is returned when a lead already has a step for the template.
	ErrStepExists = errors.New("lead step exists")
)

// Store opens transactions against the workflow tables.
type Store interface {
	// WithTx runs fn in one serializable transaction. fn gets the context
	// bounded by the transaction deadline. fn's error rolls the transaction
	// back and is returned; a nil return commits.
	WithTx(ctx context.Context, op string, fn func(ctx context.Context, tx Tx) error) error
}

// Tx is the set of reads and writes available inside a transaction.
type Tx interface {
	TemplateTx
	LeadTx
	StepTx
	ActivityTx
}

// TemplateTx covers the step template registry.
type TemplateTx interface {
	ListTemplates(ctx context.Context, includeInactive bool) ([]domain.StepTemplate, error)
	GetTemplate(ctx context.Context, id uuid.UUID) (domain.StepTemplate, error)
	InsertTemplate(ctx context.Context, t domain.StepTemplate) error
	UpdateTemplate(ctx context.Context, t domain.StepTemplate) error
	// SetOrderIndexes assigns new order indices to the given templates
	// without passing through a state where two active templates share one.
	SetOrderIndexes(ctx context.Context, indexes map[uuid.UUID]int) error
	// LockRegistry serializes registry edits for the rest of the transaction.
	LockRegistry(ctx context.Context) error
}

// LeadTx covers lead rows.
type LeadTx interface {
	GetLead(ctx context.Context, id uuid.UUID, forUpdate bool) (domain.Lead, error)
	InsertLead(ctx context.Context, lead domain.Lead) error
	UpdateLead(ctx context.Context, lead domain.Lead) error
	// FindUnlinkedLeadByPhone returns the oldest lead with the phone and no
	// customer account, locked for update.
	FindUnlinkedLeadByPhone(ctx context.Context, phone string) (domain.Lead, error)
	// LockPhone serializes linker calls for one phone number.
	LockPhone(ctx context.Context, phone string) error
}

// StepTx covers lead step rows.
type StepTx interface {
	ListLeadSteps(ctx context.Context, leadID uuid.UUID) ([]domain.LeadStep, error)
	GetLeadStep(ctx context.Context, leadID, stepID uuid.UUID, forUpdate bool) (domain.LeadStep, error)
	InsertLeadSteps(ctx context.Context, steps []domain.LeadStep) error
	UpdateLeadStep(ctx context.Context, step domain.LeadStep) error
}

// ActivityTx covers the audit trail.
type ActivityTx interface {
	RecordActivity(ctx context.Context, entry activity.Entry) (activity.Entry, error)
	ListActivity(ctx context.Context, leadID uuid.UUID) ([]activity.Entry, error)
}
