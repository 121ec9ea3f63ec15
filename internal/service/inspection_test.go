package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safesight/safesight/internal/domain"
)

func TestInspectionService_Create_Validation(t *testing.T) {
	svc := NewInspectionService(nil, testLogger())

	valid := func() domain.CreateInspectionParams {
		return domain.CreateInspectionParams{
			OrganizationID: uuid.New(),
			UserID:         uuid.New(),
			CompanyID:      uuid.New(),
			StartedAt:      time.Now(),
			Photos: []domain.CreatePhotoParams{
				{StorageKey: "orgs/a/inspections/b/photos/c.jpg", ContentType: "image/jpeg", SizeBytes: 1024},
			},
		}
	}

	tests := []struct {
		name   string
		mutate func(*domain.CreateInspectionParams)
	}{
		{"missing organization", func(p *domain.CreateInspectionParams) { p.OrganizationID = uuid.Nil }},
		{"missing user", func(p *domain.CreateInspectionParams) { p.UserID = uuid.Nil }},
		{"missing company", func(p *domain.CreateInspectionParams) { p.CompanyID = uuid.Nil }},
		{"no photos", func(p *domain.CreateInspectionParams) { p.Photos = nil }},
		{"photo without storage key", func(p *domain.CreateInspectionParams) { p.Photos[0].StorageKey = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := valid()
			tt.mutate(&params)

			_, err := svc.Create(context.Background(), params)
			require.Error(t, err)
			assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
		})
	}
}

func TestInspectionService_EnqueueAnalysis_RequiresPhotoIDs(t *testing.T) {
	svc := NewInspectionService(nil, testLogger())

	_, err := svc.EnqueueAnalysis(context.Background(), uuid.New(), nil, uuid.New())
	require.Error(t, err)
	assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
}
