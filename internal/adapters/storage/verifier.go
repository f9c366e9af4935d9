package storage

import (
	"context"
	"errors"

	"leadflow_backend/internal/workflow/domain"
	"leadflow_backend/platform/apperr"
)

// ObjectStat is the part of StorageService the verifier needs.
type ObjectStat interface {
	StatObject(ctx context.Context, bucket, fileKey string) (ObjectInfo, error)
}

// DocumentVerifier checks attachment references against the bucket before
// they are recorded on a step. A presigned PUT cannot cap the body size, so
// the stored size is checked here.
type DocumentVerifier struct {
	objects     ObjectStat
	bucket      string
	maxFileSize int64
}

// NewDocumentVerifier creates a verifier for bucket. maxFileSize <= 0
// disables the size check.
func NewDocumentVerifier(objects ObjectStat, bucket string, maxFileSize int64) *DocumentVerifier {
	return &DocumentVerifier{objects: objects, bucket: bucket, maxFileSize: maxFileSize}
}

// VerifyAttachments reports every missing or oversized object together so
// the client can redo the failed uploads in one go.
func (v *DocumentVerifier) VerifyAttachments(ctx context.Context, attachments []domain.Attachment) error {
	var missing, oversized []string
	for _, att := range attachments {
		info, err := v.objects.StatObject(ctx, v.bucket, att.FileKey)
		if errors.Is(err, ErrObjectNotFound) {
			missing = append(missing, att.FileKey)
			continue
		}
		if err != nil {
			return apperr.Wrap(apperr.KindInternal, "failed to verify attachment", err)
		}
		if v.maxFileSize > 0 && info.Size > v.maxFileSize {
			oversized = append(oversized, att.FileKey)
		}
	}

	if len(missing) > 0 {
		return apperr.Validation("attachment was not uploaded").
			WithDetails(map[string][]string{"missingFileKeys": missing})
	}
	if len(oversized) > 0 {
		return apperr.Validation("attachment exceeds the maximum file size").
			WithDetails(map[string][]string{"oversizedFileKeys": oversized})
	}
	return nil
}
