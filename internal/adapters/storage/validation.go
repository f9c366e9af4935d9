package storage

import (
	"mime"
	"strings"

	"leadflow_backend/platform/apperr"
)

// AllowedContentTypes are the document types a lead step accepts: photos
// from phones plus office and PDF documents.
var AllowedContentTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/heic": true,
	"image/webp": true,

	"application/pdf":                                                         true,
	"application/msword":                                                      true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"application/vnd.ms-excel":                                                true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":       true,
	"text/plain":                                                              true,
	"text/csv":                                                                true,
}

func (s *MinIOService) ValidateContentType(contentType string) error {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil || !AllowedContentTypes[strings.ToLower(mediaType)] {
		return apperr.Validation("content type is not allowed").
			WithDetails(map[string]string{"contentType": contentType})
	}
	return nil
}

// ValidateFileSize rejects empty files and, when a limit is configured,
// files above it.
func (s *MinIOService) ValidateFileSize(sizeBytes int64) error {
	if sizeBytes <= 0 {
		return apperr.Validation("file size must be greater than 0")
	}
	if s.maxFileSize > 0 && sizeBytes > s.maxFileSize {
		return apperr.Validation("file exceeds the maximum file size").
			WithDetails(map[string]int64{"sizeBytes": sizeBytes, "maxBytes": s.maxFileSize})
	}
	return nil
}
