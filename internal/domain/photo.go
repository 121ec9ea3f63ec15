// Package domain contains core business types and interfaces.
//
// This file defines the Photo type: one captured image belonging to exactly
// one Inspection, analyzed at most once.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// Photo Constants
// =============================================================================

// SupportedImageTypes maps MIME types to their human-readable names.
// Only JPEG and PNG are accepted (HEIC requires CGO).
var SupportedImageTypes = map[string]string{
	"image/jpeg": "JPEG",
	"image/png":  "PNG",
}

const (
	// MaxImageSize is the maximum allowed size for uploaded images (20MB).
	MaxImageSize = 20 * 1024 * 1024
)

// =============================================================================
// Photo Domain Type
// =============================================================================

// Photo represents one captured site photo.
//
// IsAnalyzed is the structural idempotence guard of the analysis path: it is
// set to true at most once, never reverts, and findings are appended at most
// once for a photo. Re-analysis of an analyzed photo is a no-op.
type Photo struct {
	ID           uuid.UUID // Unique identifier
	InspectionID uuid.UUID // Owning inspection
	StorageKey   string    // Image store reference for the original bytes
	ThumbnailKey string    // Image store reference for the thumbnail (may be empty)
	ContentType  string    // MIME type of the stored image
	SizeBytes    int64     // Stored size in bytes
	CapturedAt   time.Time // When the photo was taken on site
	IsAnalyzed   bool      // True once findings have been committed for this photo
	CreatedAt    time.Time // When the record was created
	UpdatedAt    time.Time // When the record was last modified

	Findings []Finding // Findings appended by the orchestrator, empty until analyzed
}

// HasThumbnail returns true if a thumbnail variant was stored for this photo.
func (p *Photo) HasThumbnail() bool {
	return p.ThumbnailKey != ""
}

// =============================================================================
// Service Parameters
// =============================================================================

// CreatePhotoParams contains validated parameters for recording a captured photo.
type CreatePhotoParams struct {
	StorageKey   string    // Image store reference for the original
	ThumbnailKey string    // Image store reference for the thumbnail (optional)
	ContentType  string    // MIME type
	SizeBytes    int64     // Stored size
	CapturedAt   time.Time // Capture timestamp
}

// =============================================================================
// Validation Helpers
// =============================================================================

// IsValidImageContentType checks if the content type is supported.
func IsValidImageContentType(contentType string) bool {
	_, ok := SupportedImageTypes[contentType]
	return ok
}

// ValidateImageSize checks if the file size is within limits.
func ValidateImageSize(size int64) error {
	if size > MaxImageSize {
		return Errorf(ETOOLARGE, "photo.validate", "image size %d bytes exceeds maximum of %d bytes", size, MaxImageSize)
	}
	if size == 0 {
		return Invalid("photo.validate", "image file is empty")
	}
	return nil
}
