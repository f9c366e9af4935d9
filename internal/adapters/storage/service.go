// Package storage provides presigned access to lead documents kept in
// S3-compatible object storage.
package storage

import (
	"context"
	"errors"
	"time"
)

// ErrObjectNotFound is returned by StatObject for keys that were never
// uploaded.
var ErrObjectNotFound = errors.New("object not found")

// PresignedURL is a time-limited URL for one object. Headers lists request
// headers that were signed into the URL and must be sent unchanged.
type PresignedURL struct {
	URL       string            `json:"url"`
	FileKey   string            `json:"fileKey"`
	ExpiresAt time.Time         `json:"expiresAt"`
	Headers   map[string]string `json:"headers,omitempty"`
}

// ObjectInfo is what the store reports about an uploaded object.
type ObjectInfo struct {
	Size        int64
	ContentType string
}

// StorageService is the object storage surface the workflow uses.
type StorageService interface {
	// GenerateUploadURL presigns a PUT under folder, e.g. "leads/{lead}/{step}".
	GenerateUploadURL(ctx context.Context, bucket, folder, fileName, contentType string, sizeBytes int64) (*PresignedURL, error)
	GenerateDownloadURL(ctx context.Context, bucket, fileKey string) (*PresignedURL, error)
	StatObject(ctx context.Context, bucket, fileKey string) (ObjectInfo, error)
	EnsureBucketExists(ctx context.Context, bucket string) error
}

// Config is the slice of configuration the MinIO client needs.
type Config interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinIOMaxFileSize() int64
	IsMinIOEnabled() bool
}
