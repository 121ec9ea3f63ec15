package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/safesight/safesight/internal/domain"
	"github.com/safesight/safesight/internal/imageproc"
	"github.com/safesight/safesight/internal/repository"
	"github.com/safesight/safesight/internal/storage"
)

// PhotoUpload is one captured image submitted by an inspector.
type PhotoUpload struct {
	Data        []byte    // Raw image bytes
	ContentType string    // Declared MIME type
	CapturedAt  time.Time // When the photo was taken; defaults to now
}

// PhotoService defines the interface for photo ingestion.
type PhotoService interface {
	// Attach validates, optimizes, and stores an uploaded photo under the
	// inspection's tenant namespace and records the photo row. A draft
	// inspection moves to photos_captured on its first photo.
	// Returns domain.EINVALID for unsupported or oversized uploads and for
	// inspections past the capture stage, domain.ENOTFOUND for a missing
	// inspection.
	Attach(ctx context.Context, inspectionID uuid.UUID, upload PhotoUpload) (*domain.Photo, error)
}

type photoService struct {
	store     *repository.Store
	storage   storage.Storage
	processor imageproc.Processor
	logger    *slog.Logger
}

// NewPhotoService creates a PhotoService.
func NewPhotoService(store *repository.Store, st storage.Storage, processor imageproc.Processor, logger *slog.Logger) PhotoService {
	return &photoService{
		store:     store,
		storage:   st,
		processor: processor,
		logger:    logger,
	}
}

// Attach ingests one uploaded photo for an inspection.
func (s *photoService) Attach(ctx context.Context, inspectionID uuid.UUID, upload PhotoUpload) (*domain.Photo, error) {
	const op = "photo.attach"

	if !domain.IsValidImageContentType(upload.ContentType) {
		return nil, domain.Invalid(op, "unsupported image content type: "+upload.ContentType)
	}
	if err := domain.ValidateImageSize(int64(len(upload.Data))); err != nil {
		return nil, err
	}

	insp, err := s.store.GetInspectionWithPhotos(ctx, inspectionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "inspection", inspectionID.String())
		}
		return nil, domain.Internal(err, op, "failed to load inspection")
	}

	// Photos can only be added while the inspection is still capturing.
	if insp.Status != domain.InspectionStatusDraft && insp.Status != domain.InspectionStatusPhotosCaptured {
		return nil, domain.Invalid(op, "inspection is no longer accepting photos")
	}

	settings := s.settingsOrDefaults(ctx, insp.OrganizationID)

	data := upload.Data
	contentType := upload.ContentType
	if settings.OptimizeImages {
		optimized, optErr := s.processor.Optimize(data, settings.ImageMaxWidth, settings.ImageQuality)
		if optErr != nil {
			return nil, domain.Invalid(op, "image could not be decoded")
		}
		data = optimized.Data
		contentType = "image/jpeg"
	}

	storageKey := storage.PhotoKey(insp.OrganizationID, insp.ID, storage.ExtensionForContentType(contentType))
	if err := s.storage.Put(ctx, storageKey, bytes.NewReader(data), storage.PutOptions{
		ContentType: contentType,
		MaxSize:     domain.MaxImageSize,
	}); err != nil {
		return nil, domain.Internal(err, op, "failed to store photo")
	}

	var thumbnailKey string
	if settings.GenerateThumbs {
		thumb, thumbErr := s.processor.Thumbnail(upload.Data, settings.ThumbnailWidth, settings.ThumbnailQuality)
		if thumbErr != nil {
			// The full image is already stored and decodable; a thumbnail
			// failure only costs the preview.
			s.logger.Warn("thumbnail generation failed", "inspection_id", insp.ID, "error", thumbErr)
		} else {
			thumbnailKey = storage.ThumbnailKey(insp.OrganizationID, insp.ID, ".jpg")
			if err := s.storage.Put(ctx, thumbnailKey, bytes.NewReader(thumb.Data), storage.PutOptions{
				ContentType: "image/jpeg",
			}); err != nil {
				s.logger.Warn("thumbnail upload failed", "inspection_id", insp.ID, "error", err)
				thumbnailKey = ""
			}
		}
	}

	capturedAt := upload.CapturedAt
	if capturedAt.IsZero() {
		capturedAt = time.Now().UTC()
	}

	photo, err := s.store.CreatePhoto(ctx, repository.CreatePhotoParams{
		InspectionID: insp.ID,
		StorageKey:   storageKey,
		ThumbnailKey: thumbnailKey,
		ContentType:  contentType,
		SizeBytes:    int64(len(data)),
		CapturedAt:   capturedAt,
	})
	if err != nil {
		return nil, domain.Internal(err, op, "failed to record photo")
	}

	if insp.Status == domain.InspectionStatusDraft {
		if err := s.store.UpdateInspectionStatus(ctx, insp.ID, domain.InspectionStatusPhotosCaptured); err != nil {
			return nil, domain.Internal(err, op, "failed to update inspection status")
		}
	}

	s.logger.Info("photo attached",
		"inspection_id", insp.ID,
		"photo_id", photo.ID,
		"size_bytes", photo.SizeBytes,
	)

	return photo, nil
}

// settingsOrDefaults loads the tenant's settings, falling back to the
// documented defaults when no row exists or the read fails.
func (s *photoService) settingsOrDefaults(ctx context.Context, orgID uuid.UUID) *domain.OrganizationSettings {
	settings, err := s.store.GetOrganizationSettings(ctx, orgID)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("failed to load organization settings, using defaults", "organization_id", orgID, "error", err)
		}
		return domain.DefaultOrganizationSettings(orgID)
	}
	return settings
}
