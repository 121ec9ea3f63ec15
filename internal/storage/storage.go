// Package storage provides object storage for inspection photos, thumbnails
// and generated reports.
//
// Two implementations are provided:
//   - LocalStorage: filesystem storage for development
//   - S3Storage: S3-compatible object storage for production
//
// Keys are tenant-scoped: every object lives under its organization's prefix
// so one tenant's objects can never be addressed from another tenant's data.
package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
)

// Storage is the interface all object storage backends implement.
// All methods are context-aware for timeout and cancellation support.
type Storage interface {
	// Put stores data at the specified key. Returns ErrKeyExists if the key
	// is taken and opts.Overwrite is false.
	Put(ctx context.Context, key string, data io.Reader, opts PutOptions) error

	// Get retrieves the object at the specified key. The caller must close
	// the returned reader. Returns ErrNotFound if the key doesn't exist.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)

	// Delete removes the object at the specified key. Idempotent.
	Delete(ctx context.Context, key string) error

	// URL returns a URL for accessing the object, presigned for the given
	// duration where the backend supports it.
	URL(ctx context.Context, key string, expires time.Duration) (string, error)

	// Exists reports whether an object exists at the specified key.
	Exists(ctx context.Context, key string) (bool, error)
}

// PutOptions configures how an object is stored.
type PutOptions struct {
	// ContentType is the MIME type of the object. Auto-detected from the key
	// when empty.
	ContentType string

	// MaxSize caps the object size in bytes. Zero means no limit; exceeding
	// it returns ErrTooLarge.
	MaxSize int64

	// Overwrite allows replacing an existing object at the same key.
	Overwrite bool
}

// ObjectInfo contains metadata about a stored object.
type ObjectInfo struct {
	Key          string
	Size         int64
	ContentType  string
	LastModified time.Time
	ETag         string
}

// LocalConfig holds configuration for local filesystem storage.
type LocalConfig struct {
	// BasePath is the root directory where objects are stored.
	BasePath string

	// BaseURL is the public URL prefix for serving objects.
	BaseURL string
}

// S3Config holds configuration for S3-compatible storage.
type S3Config struct {
	// Endpoint overrides the S3 endpoint. Leave empty for AWS S3 proper;
	// set for S3-compatible providers (R2, MinIO).
	Endpoint string

	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	Region          string

	// PublicURL serves objects from a custom domain when set. If empty,
	// presigned URLs are used for all access.
	PublicURL string
}

// Storage provider identifiers.
const (
	ProviderLocal = "local"
	ProviderS3    = "s3"
)

// PhotoKey generates the storage key for an inspection photo.
// Format: orgs/{orgID}/inspections/{inspectionID}/photos/{uuid}.{ext}
func PhotoKey(orgID, inspectionID uuid.UUID, ext string) string {
	return fmt.Sprintf("orgs/%s/inspections/%s/photos/%s%s", orgID, inspectionID, uuid.New(), ext)
}

// ThumbnailKey generates the storage key for a photo thumbnail.
// Format: orgs/{orgID}/inspections/{inspectionID}/thumbnails/{uuid}.{ext}
func ThumbnailKey(orgID, inspectionID uuid.UUID, ext string) string {
	return fmt.Sprintf("orgs/%s/inspections/%s/thumbnails/%s%s", orgID, inspectionID, uuid.New(), ext)
}

// ReportKey generates the storage key for a generated report.
// Format: orgs/{orgID}/inspections/{inspectionID}/reports/{uuid}.{format}
func ReportKey(orgID, inspectionID uuid.UUID, format string) string {
	return fmt.Sprintf("orgs/%s/inspections/%s/reports/%s.%s", orgID, inspectionID, uuid.New(), format)
}
