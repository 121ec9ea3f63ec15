package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/safesight/safesight/internal/domain"
)

// SettingsStore is the persistence surface the settings service needs.
// Implemented by *repository.Store.
type SettingsStore interface {
	GetOrganizationSettings(ctx context.Context, orgID uuid.UUID) (*domain.OrganizationSettings, error)
	UpsertOrganizationSettings(ctx context.Context, s *domain.OrganizationSettings) (*domain.OrganizationSettings, error)
}

// SettingsService defines the interface for per-tenant settings.
type SettingsService interface {
	// Get returns the organization's settings, materializing the documented
	// defaults on first read.
	Get(ctx context.Context, orgID uuid.UUID) (*domain.OrganizationSettings, error)

	// Update stores the organization's settings. Returns domain.EINVALID
	// for out-of-range values.
	Update(ctx context.Context, settings *domain.OrganizationSettings) (*domain.OrganizationSettings, error)
}

type settingsService struct {
	store  SettingsStore
	logger *slog.Logger
}

// NewSettingsService creates a SettingsService.
func NewSettingsService(store SettingsStore, logger *slog.Logger) SettingsService {
	return &settingsService{
		store:  store,
		logger: logger,
	}
}

// Get returns the tenant's settings. Absence of a row means the tenant has
// never customized anything; the defaults are written back so later reads and
// updates work against a real row.
func (s *settingsService) Get(ctx context.Context, orgID uuid.UUID) (*domain.OrganizationSettings, error) {
	const op = "settings.get"

	settings, err := s.store.GetOrganizationSettings(ctx, orgID)
	if err == nil {
		return settings, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, domain.Internal(err, op, "failed to load settings")
	}

	settings, err = s.store.UpsertOrganizationSettings(ctx, domain.DefaultOrganizationSettings(orgID))
	if err != nil {
		return nil, domain.Internal(err, op, "failed to materialize default settings")
	}

	s.logger.Info("default settings materialized", "organization_id", orgID)
	return settings, nil
}

// Update validates and stores the tenant's settings.
func (s *settingsService) Update(ctx context.Context, settings *domain.OrganizationSettings) (*domain.OrganizationSettings, error) {
	const op = "settings.update"

	if settings.OrganizationID == uuid.Nil {
		return nil, domain.Invalid(op, "organization id is required")
	}
	if settings.ImageMaxWidth < 100 || settings.ImageMaxWidth > 8192 {
		return nil, domain.Invalid(op, "image max width must be between 100 and 8192")
	}
	if settings.ImageQuality < 1 || settings.ImageQuality > 100 {
		return nil, domain.Invalid(op, "image quality must be between 1 and 100")
	}
	if settings.ThumbnailWidth < 50 || settings.ThumbnailWidth > 1024 {
		return nil, domain.Invalid(op, "thumbnail width must be between 50 and 1024")
	}
	if settings.ThumbnailQuality < 1 || settings.ThumbnailQuality > 100 {
		return nil, domain.Invalid(op, "thumbnail quality must be between 1 and 100")
	}

	updated, err := s.store.UpsertOrganizationSettings(ctx, settings)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to store settings")
	}

	s.logger.Info("settings updated", "organization_id", settings.OrganizationID)
	return updated, nil
}
