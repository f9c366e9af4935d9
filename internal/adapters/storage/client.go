package storage

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const (
	// PresignedURLTTL bounds how long an upload or download link stays valid.
	PresignedURLTTL = 15 * time.Minute

	errCodeNoSuchKey  = "NoSuchKey"
	headerContentType = "Content-Type"
)

// MinIOService talks to MinIO or any S3-compatible endpoint.
type MinIOService struct {
	client      *minio.Client
	maxFileSize int64
	now         func() time.Time
}

func NewMinIOService(cfg Config) (*MinIOService, error) {
	if !cfg.IsMinIOEnabled() {
		return nil, fmt.Errorf("MinIO is not configured")
	}

	client, err := minio.New(cfg.GetMinIOEndpoint(), &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.GetMinIOAccessKey(), cfg.GetMinIOSecretKey(), ""),
		Secure: cfg.GetMinIOUseSSL(),
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	return &MinIOService{
		client:      client,
		maxFileSize: cfg.GetMinIOMaxFileSize(),
		now:         time.Now,
	}, nil
}

func (s *MinIOService) EnsureBucketExists(ctx context.Context, bucket string) error {
	exists, err := s.client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket %s: %w", bucket, err)
	}
	return nil
}

// GenerateUploadURL validates the declared file and presigns a PUT for it.
// The content type is part of the signature, so the upload must declare
// the same type it was approved for.
func (s *MinIOService) GenerateUploadURL(ctx context.Context, bucket, folder, fileName, contentType string, sizeBytes int64) (*PresignedURL, error) {
	if err := s.ValidateContentType(contentType); err != nil {
		return nil, err
	}
	if err := s.ValidateFileSize(sizeBytes); err != nil {
		return nil, err
	}

	fileKey := BuildFileKey(folder, fileName, uuid.New())
	signed := http.Header{}
	signed.Set(headerContentType, contentType)

	expiresAt := s.now().Add(PresignedURLTTL)
	u, err := s.client.PresignHeader(ctx, http.MethodPut, bucket, fileKey, PresignedURLTTL, nil, signed)
	if err != nil {
		return nil, fmt.Errorf("presign upload %s: %w", fileKey, err)
	}

	return &PresignedURL{
		URL:       u.String(),
		FileKey:   fileKey,
		ExpiresAt: expiresAt,
		Headers:   map[string]string{headerContentType: contentType},
	}, nil
}

// GenerateDownloadURL presigns a GET that downloads under the original name.
func (s *MinIOService) GenerateDownloadURL(ctx context.Context, bucket, fileKey string) (*PresignedURL, error) {
	params := url.Values{}
	params.Set("response-content-disposition", fmt.Sprintf("attachment; filename=%q", DisplayName(fileKey)))

	expiresAt := s.now().Add(PresignedURLTTL)
	u, err := s.client.PresignedGetObject(ctx, bucket, fileKey, PresignedURLTTL, params)
	if err != nil {
		return nil, fmt.Errorf("presign download %s: %w", fileKey, err)
	}

	return &PresignedURL{URL: u.String(), FileKey: fileKey, ExpiresAt: expiresAt}, nil
}

// StatObject returns ErrObjectNotFound for missing keys.
func (s *MinIOService) StatObject(ctx context.Context, bucket, fileKey string) (ObjectInfo, error) {
	info, err := s.client.StatObject(ctx, bucket, fileKey, minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == errCodeNoSuchKey {
			return ObjectInfo{}, ErrObjectNotFound
		}
		return ObjectInfo{}, fmt.Errorf("stat object %s: %w", fileKey, err)
	}
	return ObjectInfo{Size: info.Size, ContentType: info.ContentType}, nil
}

func (s *MinIOService) MaxFileSize() int64 {
	return s.maxFileSize
}

// BuildFileKey places fileName under folder with a short unique suffix so
// repeated uploads of the same name never overwrite each other.
func BuildFileKey(folder, fileName string, id uuid.UUID) string {
	base := path.Base(strings.ReplaceAll(strings.TrimSpace(fileName), "\\", "/"))
	if base == "." || base == "/" {
		base = "file"
	}
	ext := path.Ext(base)
	name := strings.TrimSuffix(base, ext)
	return path.Join(folder, fmt.Sprintf("%s_%s%s", name, id.String()[:8], ext))
}

// DisplayName recovers the uploaded file name from a key built by
// BuildFileKey.
func DisplayName(fileKey string) string {
	base := path.Base(fileKey)
	ext := path.Ext(base)
	name := strings.TrimSuffix(base, ext)
	if i := strings.LastIndexByte(name, '_'); i > 0 && len(name)-i-1 == 8 {
		name = name[:i]
	}
	return name + ext
}
