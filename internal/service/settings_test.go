package service

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safesight/safesight/internal/domain"
)

type fakeSettingsStore struct {
	rows    map[uuid.UUID]*domain.OrganizationSettings
	getErr  error
	upserts int
}

func newFakeSettingsStore() *fakeSettingsStore {
	return &fakeSettingsStore{rows: make(map[uuid.UUID]*domain.OrganizationSettings)}
}

func (f *fakeSettingsStore) GetOrganizationSettings(_ context.Context, orgID uuid.UUID) (*domain.OrganizationSettings, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	s, ok := f.rows[orgID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *s
	return &copied, nil
}

func (f *fakeSettingsStore) UpsertOrganizationSettings(_ context.Context, s *domain.OrganizationSettings) (*domain.OrganizationSettings, error) {
	f.upserts++
	copied := *s
	f.rows[s.OrganizationID] = &copied
	return s, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSettingsService_Get_MaterializesDefaults(t *testing.T) {
	store := newFakeSettingsStore()
	svc := NewSettingsService(store, testLogger())
	orgID := uuid.New()

	settings, err := svc.Get(context.Background(), orgID)
	require.NoError(t, err)

	assert.Equal(t, orgID, settings.OrganizationID)
	assert.True(t, settings.OptimizeImages)
	assert.Equal(t, domain.DefaultImageMaxWidth, settings.ImageMaxWidth)
	assert.Equal(t, domain.DefaultImageQuality, settings.ImageQuality)
	assert.True(t, settings.GenerateThumbs)
	assert.Equal(t, domain.DefaultThumbnailWidth, settings.ThumbnailWidth)
	assert.Equal(t, domain.DefaultThumbnailQuality, settings.ThumbnailQuality)
	assert.Equal(t, domain.DefaultAnalysisPrompt, settings.AnalysisPrompt)

	// The defaults are written back so they exist as a real row.
	assert.Equal(t, 1, store.upserts)

	// A second read hits the stored row, no second upsert.
	_, err = svc.Get(context.Background(), orgID)
	require.NoError(t, err)
	assert.Equal(t, 1, store.upserts)
}

func TestSettingsService_Get_ReturnsStoredRow(t *testing.T) {
	store := newFakeSettingsStore()
	orgID := uuid.New()
	custom := domain.DefaultOrganizationSettings(orgID)
	custom.ImageMaxWidth = 1280
	custom.AnalysisPrompt = "look only for electrical hazards"
	store.rows[orgID] = custom

	svc := NewSettingsService(store, testLogger())

	settings, err := svc.Get(context.Background(), orgID)
	require.NoError(t, err)
	assert.Equal(t, 1280, settings.ImageMaxWidth)
	assert.Equal(t, "look only for electrical hazards", settings.AnalysisPrompt)
	assert.Equal(t, 0, store.upserts)
}

func TestSettingsService_Update_Validation(t *testing.T) {
	store := newFakeSettingsStore()
	svc := NewSettingsService(store, testLogger())
	orgID := uuid.New()

	tests := []struct {
		name   string
		mutate func(*domain.OrganizationSettings)
	}{
		{"missing org id", func(s *domain.OrganizationSettings) { s.OrganizationID = uuid.Nil }},
		{"image width too small", func(s *domain.OrganizationSettings) { s.ImageMaxWidth = 50 }},
		{"image width too large", func(s *domain.OrganizationSettings) { s.ImageMaxWidth = 10000 }},
		{"image quality zero", func(s *domain.OrganizationSettings) { s.ImageQuality = 0 }},
		{"thumbnail width too small", func(s *domain.OrganizationSettings) { s.ThumbnailWidth = 10 }},
		{"thumbnail quality above max", func(s *domain.OrganizationSettings) { s.ThumbnailQuality = 101 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := domain.DefaultOrganizationSettings(orgID)
			tt.mutate(settings)

			_, err := svc.Update(context.Background(), settings)
			require.Error(t, err)
			assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
		})
	}

	assert.Equal(t, 0, store.upserts)
}

func TestSettingsService_Update_StoresValidSettings(t *testing.T) {
	store := newFakeSettingsStore()
	svc := NewSettingsService(store, testLogger())
	orgID := uuid.New()

	settings := domain.DefaultOrganizationSettings(orgID)
	settings.OptimizeImages = false
	settings.ThumbnailWidth = 200

	updated, err := svc.Update(context.Background(), settings)
	require.NoError(t, err)
	assert.False(t, updated.OptimizeImages)
	assert.Equal(t, 200, updated.ThumbnailWidth)
	assert.Equal(t, 1, store.upserts)
}
