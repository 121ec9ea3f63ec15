// Package service contains the business logic layer.
//
// This file implements the inspection service: recording site visits with
// their captured photos and handing them off to the analysis pipeline.
package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/safesight/safesight/internal/domain"
	"github.com/safesight/safesight/internal/metrics"
	"github.com/safesight/safesight/internal/repository"
	"github.com/safesight/safesight/internal/worker"
)

// InspectionService defines the interface for inspection operations.
type InspectionService interface {
	// Create records a new inspection with its captured photos. The
	// inspection starts in photos_captured, ready for analysis.
	// Returns domain.EINVALID for validation errors.
	Create(ctx context.Context, params domain.CreateInspectionParams) (*domain.Inspection, error)

	// GetByID retrieves an inspection aggregate, photos and findings
	// included. Returns domain.ENOTFOUND if it does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Inspection, error)

	// EnqueueAnalysis schedules background analysis for the given photos.
	// All photo ids must belong to the inspection. Returns the queued job id.
	EnqueueAnalysis(ctx context.Context, inspectionID uuid.UUID, photoIDs []uuid.UUID, actingUserID uuid.UUID) (uuid.UUID, error)

	// GetAnalysisStatus returns the polling read model for an inspection.
	GetAnalysisStatus(ctx context.Context, inspectionID uuid.UUID) (*domain.AnalysisStatus, error)
}

type inspectionService struct {
	store  *repository.Store
	logger *slog.Logger
}

// NewInspectionService creates an InspectionService backed by the store.
func NewInspectionService(store *repository.Store, logger *slog.Logger) InspectionService {
	return &inspectionService{
		store:  store,
		logger: logger,
	}
}

// Create records a new inspection with its captured photos.
func (s *inspectionService) Create(ctx context.Context, params domain.CreateInspectionParams) (*domain.Inspection, error) {
	const op = "inspection.create"

	if params.OrganizationID == uuid.Nil {
		return nil, domain.Invalid(op, "organization id is required")
	}
	if params.UserID == uuid.Nil {
		return nil, domain.Invalid(op, "user id is required")
	}
	if params.CompanyID == uuid.Nil {
		return nil, domain.Invalid(op, "company id is required")
	}
	if params.StartedAt.IsZero() {
		params.StartedAt = time.Now().UTC()
	}
	if len(params.Photos) == 0 {
		return nil, domain.Invalid(op, "at least one photo is required")
	}
	for _, p := range params.Photos {
		if p.StorageKey == "" {
			return nil, domain.Invalid(op, "photo storage key is required")
		}
	}

	// Verify the company belongs to the tenant and is still active.
	company, err := s.store.GetCompanyByID(ctx, params.CompanyID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "company", params.CompanyID.String())
		}
		return nil, domain.Internal(err, op, "failed to verify company")
	}
	if company.OrganizationID != params.OrganizationID {
		return nil, domain.NotFound(op, "company", params.CompanyID.String())
	}
	if !company.IsActive {
		return nil, domain.Invalid(op, "company is deactivated")
	}

	photoRows := make([]repository.CreatePhotoParams, len(params.Photos))
	for i, p := range params.Photos {
		capturedAt := p.CapturedAt
		if capturedAt.IsZero() {
			capturedAt = time.Now().UTC()
		}
		photoRows[i] = repository.CreatePhotoParams{
			StorageKey:   p.StorageKey,
			ThumbnailKey: p.ThumbnailKey,
			ContentType:  p.ContentType,
			SizeBytes:    p.SizeBytes,
			CapturedAt:   capturedAt,
		}
	}

	insp, err := s.store.CreateInspectionWithPhotos(ctx, repository.CreateInspectionWithPhotosParams{
		Inspection: repository.CreateInspectionParams{
			OrganizationID: params.OrganizationID,
			UserID:         params.UserID,
			CompanyID:      params.CompanyID,
			Status:         domain.InspectionStatusPhotosCaptured.String(),
			StartedAt:      params.StartedAt,
		},
		Photos: photoRows,
	})
	if err != nil {
		return nil, domain.Internal(err, op, "failed to create inspection")
	}

	metrics.InspectionsCreated.Inc()
	s.logger.Info("inspection created",
		"inspection_id", insp.ID,
		"company_id", params.CompanyID,
		"photos", len(params.Photos),
	)

	return insp, nil
}

// GetByID retrieves the full inspection aggregate.
func (s *inspectionService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Inspection, error) {
	const op = "inspection.get"

	insp, err := s.store.GetInspectionWithPhotos(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "inspection", id.String())
		}
		return nil, domain.Internal(err, op, "failed to load inspection")
	}
	return insp, nil
}

// EnqueueAnalysis validates the request and queues the analysis job.
func (s *inspectionService) EnqueueAnalysis(ctx context.Context, inspectionID uuid.UUID, photoIDs []uuid.UUID, actingUserID uuid.UUID) (uuid.UUID, error) {
	const op = "inspection.enqueue_analysis"

	if len(photoIDs) == 0 {
		return uuid.Nil, domain.Invalid(op, "at least one photo id is required")
	}

	insp, err := s.store.GetInspectionWithPhotos(ctx, inspectionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return uuid.Nil, domain.NotFound(op, "inspection", inspectionID.String())
		}
		return uuid.Nil, domain.Internal(err, op, "failed to load inspection")
	}

	if insp.Status != domain.InspectionStatusPhotosCaptured {
		return uuid.Nil, domain.Invalid(op, fmt.Sprintf("inspection in status %s cannot be analyzed", insp.Status))
	}

	// Every requested photo must belong to this inspection.
	count, err := s.store.CountInspectionPhotos(ctx, inspectionID, photoIDs)
	if err != nil {
		return uuid.Nil, domain.Internal(err, op, "failed to verify photos")
	}
	if count != len(photoIDs) {
		return uuid.Nil, domain.Invalid(op, "one or more photos do not belong to this inspection")
	}

	job, err := worker.EnqueueAnalyzePhotos(ctx, s.store.Queries, inspectionID, photoIDs, actingUserID)
	if err != nil {
		return uuid.Nil, domain.Internal(err, op, "failed to enqueue analysis")
	}

	s.logger.Info("analysis enqueued",
		"inspection_id", inspectionID,
		"job_id", job.ID,
		"photos", len(photoIDs),
	)

	return job.ID, nil
}

// GetAnalysisStatus returns the polling read model.
func (s *inspectionService) GetAnalysisStatus(ctx context.Context, inspectionID uuid.UUID) (*domain.AnalysisStatus, error) {
	const op = "inspection.analysis_status"

	status, err := s.store.GetAnalysisStatus(ctx, inspectionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "inspection", inspectionID.String())
		}
		return nil, domain.Internal(err, op, "failed to load analysis status")
	}
	return status, nil
}
