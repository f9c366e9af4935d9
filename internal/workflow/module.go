// Package workflow provides the lead timeline workflow module: step
// templates, per-lead timelines, step completion and the customer linker.
package workflow

import (
	"leadflow_backend/internal/activity"
	"leadflow_backend/internal/events"
	apphttp "leadflow_backend/internal/http"
	"leadflow_backend/internal/workflow/handler"
	"leadflow_backend/internal/workflow/repository"
	"leadflow_backend/internal/workflow/service"
	"leadflow_backend/platform/db"
	"leadflow_backend/platform/logger"
	"leadflow_backend/platform/phone"
	"leadflow_backend/platform/validator"
)

// Documents is the object storage the module presigns against. Leave it nil
// when storage is not configured.
type Documents struct {
	Store    handler.DocumentStore
	Verifier service.AttachmentVerifier
	Bucket   string
}

// Module is the workflow bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the workflow module.
func NewModule(runner *db.TxRunner, bus events.Bus, phones *phone.Normalizer, val *validator.Validator, docs *Documents, log *logger.Logger) *Module {
	store := repository.NewPostgresStore(runner, activity.NewWriter())

	var opts []service.Option
	var docStore handler.DocumentStore
	var bucket string
	if docs != nil {
		docStore = docs.Store
		bucket = docs.Bucket
		if docs.Verifier != nil {
			opts = append(opts, service.WithAttachmentVerifier(docs.Verifier))
		}
	}

	svc := service.New(store, bus, phones, log.Named("workflow"), opts...)

	return &Module{
		handler: handler.New(svc, val, docStore, bucket),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "workflow"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts workflow routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected, ctx.Admin)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
