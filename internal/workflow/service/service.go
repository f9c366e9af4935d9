// Package service implements the lead timeline workflow: the step template
// registry, timeline initialization, step completion with progression, lead
// closure and the customer-lead linker. Each mutation runs in one store
// transaction together with its activity entries; domain events are
// published only after the transaction committed.
package service

import (
	"context"
	"errors"
	"time"

	"leadflow_backend/internal/events"
	"leadflow_backend/internal/workflow/domain"
	"leadflow_backend/internal/workflow/repository"
	"leadflow_backend/platform/apperr"
	"leadflow_backend/platform/logger"
	"leadflow_backend/platform/phone"

	"github.com/google/uuid"
)

// Actor is the authenticated caller of a workflow operation.
type Actor struct {
	UserID uuid.UUID
	Role   domain.Role
}

// IsAdmin reports whether the actor holds the admin role.
func (a Actor) IsAdmin() bool {
	return a.Role == domain.RoleAdmin
}

// AttachmentVerifier confirms that uploaded objects exist before their
// references are stored on a step.
type AttachmentVerifier interface {
	VerifyAttachments(ctx context.Context, attachments []domain.Attachment) error
}

// Service is the workflow engine entry point.
type Service struct {
	store    repository.Store
	bus      events.Bus
	phones   *phone.Normalizer
	verifier AttachmentVerifier
	log      *logger.Logger
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithAttachmentVerifier checks attachment references against object storage.
func WithAttachmentVerifier(v AttachmentVerifier) Option {
	return func(s *Service) { s.verifier = v }
}

// New creates a workflow service.
func New(store repository.Store, bus events.Bus, phones *phone.Normalizer, log *logger.Logger, opts ...Option) *Service {
	s := &Service{
		store:  store,
		bus:    bus,
		phones: phones,
		log:    log,
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) publish(ctx context.Context, evts ...events.Event) {
	if s.bus == nil {
		return
	}
	for _, evt := range evts {
		s.bus.Publish(ctx, evt)
	}
}

// verifyAttachmentsAfter stats attachment references in storage once check
// passed in a transaction of its own. Storage calls never run inside the
// writing transaction, and a caller that would be rejected anyway gets that
// rejection rather than a storage error. The writing transaction repeats the
// checks.
func (s *Service) verifyAttachmentsAfter(ctx context.Context, op string, attachments []domain.Attachment, check func(ctx context.Context, tx repository.Tx) error) error {
	if len(attachments) == 0 || s.verifier == nil {
		return nil
	}
	if err := s.store.WithTx(ctx, op, check); err != nil {
		return err
	}
	return s.verifier.VerifyAttachments(ctx, attachments)
}

// notFound converts a repository miss into the given typed error.
func notFound(err error, typed func() *apperr.Error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return typed()
	}
	return err
}

func (s *Service) loadLead(ctx context.Context, tx repository.Tx, leadID uuid.UUID, forUpdate bool) (domain.Lead, error) {
	lead, err := tx.GetLead(ctx, leadID, forUpdate)
	if err != nil {
		return domain.Lead{}, notFound(err, domain.ErrLeadNotFound)
	}
	return lead, nil
}

func (s *Service) loadStep(ctx context.Context, tx repository.Tx, leadID, stepID uuid.UUID) (domain.StepTemplate, domain.LeadStep, error) {
	template, err := tx.GetTemplate(ctx, stepID)
	if err != nil {
		return domain.StepTemplate{}, domain.LeadStep{}, notFound(err, domain.ErrTemplateNotFound)
	}
	step, err := tx.GetLeadStep(ctx, leadID, stepID, true)
	if err != nil {
		return domain.StepTemplate{}, domain.LeadStep{}, notFound(err, domain.ErrStepNotFound)
	}
	return template, step, nil
}

func uuidPtr(id uuid.UUID) *uuid.UUID {
	return &id
}
