package service

import (
	"context"
	"fmt"
	"strings"

	"leadflow_backend/internal/workflow/domain"
	"leadflow_backend/internal/workflow/repository"

	"github.com/google/uuid"
)

// DocumentFolder is the object key prefix for documents of one lead step.
func DocumentFolder(leadID, stepID uuid.UUID) string {
	return fmt.Sprintf("leads/%s/%s", leadID, stepID)
}

// AuthorizeUpload checks that the actor could attach documents to the step
// right now. It is used before handing out an upload URL.
func (s *Service) AuthorizeUpload(ctx context.Context, actor Actor, leadID, stepID uuid.UUID) error {
	return s.store.WithTx(ctx, "workflow.AuthorizeUpload", func(ctx context.Context, tx repository.Tx) error {
		_, _, err := s.checkUpload(ctx, tx, actor, leadID, stepID)
		return err
	})
}

// AuthorizeDocumentAccess checks that the actor may read fileKey, which must
// belong to the lead.
func (s *Service) AuthorizeDocumentAccess(ctx context.Context, actor Actor, leadID uuid.UUID, fileKey string) error {
	if !strings.HasPrefix(fileKey, fmt.Sprintf("leads/%s/", leadID)) {
		return domain.ErrPermissionDenied("document does not belong to this lead")
	}
	return s.store.WithTx(ctx, "workflow.AuthorizeDocumentAccess", func(ctx context.Context, tx repository.Tx) error {
		lead, err := s.loadLead(ctx, tx, leadID, false)
		if err != nil {
			return err
		}
		if !domain.CanViewLead(actor.Role, lead, actor.UserID) {
			return domain.ErrPermissionDenied("not allowed to view this lead")
		}
		return nil
	})
}
