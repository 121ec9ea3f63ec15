package report

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safesight/safesight/internal/domain"
)

func testInspection() *domain.Inspection {
	photoID := uuid.New()
	return &domain.Inspection{
		ID:             uuid.New(),
		Status:         domain.InspectionStatusCompleted,
		StartedAt:      time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC),
		CompanyName:    "Acme Construction",
		InspectorName:  "Dana Velasquez",
		InspectorEmail: "dana@example.com",
		Photos: []domain.Photo{
			{
				ID:         photoID,
				CapturedAt: time.Date(2026, 3, 10, 9, 45, 0, 0, time.UTC),
				IsAnalyzed: true,
				Findings: []domain.Finding{
					{
						PhotoID:          photoID,
						Description:      "Unsecured ladder leaning against scaffolding",
						RiskLevel:        domain.RiskLevelHigh,
						CorrectiveAction: "Secure the ladder or remove it",
						PreventiveAction: "Add ladder checks to the morning walkthrough",
					},
				},
			},
			{
				ID:         uuid.New(),
				CapturedAt: time.Date(2026, 3, 10, 9, 50, 0, 0, time.UTC),
				IsAnalyzed: true,
			},
		},
	}
}

func TestPDFGenerator_Generate(t *testing.T) {
	gen := NewPDFGenerator()
	data := &Data{
		Inspection:  testInspection(),
		Images:      map[string][]byte{},
		GeneratedAt: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC),
	}

	var buf bytes.Buffer
	n, err := gen.Generate(context.Background(), data, &buf)
	require.NoError(t, err)
	assert.Equal(t, int64(buf.Len()), n)
	assert.Greater(t, buf.Len(), 0)

	// PDF files start with the %PDF magic header.
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))
}

func TestAnalyzedPhotos_FiltersUnanalyzed(t *testing.T) {
	insp := testInspection()
	insp.Photos = append(insp.Photos, domain.Photo{ID: uuid.New(), IsAnalyzed: false})

	data := &Data{Inspection: insp}
	assert.Len(t, data.AnalyzedPhotos(), 2)
}

func TestRiskColor(t *testing.T) {
	tests := []struct {
		level domain.RiskLevel
		want  string
	}{
		{domain.RiskLevelHigh, "#DC2626"},
		{domain.RiskLevelMedium, "#F97316"},
		{domain.RiskLevelLow, "#16A34A"},
		{domain.RiskLevelUnknown, "#6B7280"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RiskColor(tt.level))
	}
}

func TestHexToRGB(t *testing.T) {
	r, g, b := HexToRGB("#DC2626")
	assert.Equal(t, 220, r)
	assert.Equal(t, 38, g)
	assert.Equal(t, 38, b)

	r, g, b = HexToRGB("invalid")
	assert.Zero(t, r)
	assert.Zero(t, g)
	assert.Zero(t, b)
}
