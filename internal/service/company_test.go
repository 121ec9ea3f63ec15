package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safesight/safesight/internal/domain"
)

func TestCompanyService_Create_Validation(t *testing.T) {
	svc := NewCompanyService(nil, testLogger())

	tests := []struct {
		name   string
		params domain.CreateCompanyParams
	}{
		{
			name:   "missing organization",
			params: domain.CreateCompanyParams{Name: "Acme Fabrication"},
		},
		{
			name:   "empty name",
			params: domain.CreateCompanyParams{OrganizationID: uuid.New()},
		},
		{
			name:   "whitespace name",
			params: domain.CreateCompanyParams{OrganizationID: uuid.New(), Name: "   "},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tt.params)
			require.Error(t, err)
			assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
		})
	}
}
