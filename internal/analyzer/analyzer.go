// Package analyzer defines the interface for AI-powered photo analysis.
//
// An Analyzer inspects one site photo and returns the safety findings it
// detected. Implementations live in subpackages: openai for production,
// mock for development and tests.
package analyzer

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"

	"github.com/safesight/safesight/internal/domain"
)

// Analyzer analyzes one inspection photo at a time.
type Analyzer interface {
	// AnalyzePhoto analyzes a site photo for safety hazards. A nil error
	// with zero findings means the photo was analyzed and came back clean.
	AnalyzePhoto(ctx context.Context, params AnalyzePhotoParams) (*Result, error)
}

// AnalyzePhotoParams carries one photo to the analyzer.
type AnalyzePhotoParams struct {
	ImageData    []byte
	ContentType  string
	Prompt       string
	PhotoID      uuid.UUID
	InspectionID uuid.UUID
}

// Result is the analyzer's verdict on one photo.
type Result struct {
	Findings []Finding
	Model    string
	// Raw is the provider's unparsed response, kept for audit.
	Raw json.RawMessage
}

// Finding is one detected hazard, before persistence.
type Finding struct {
	Description      string           `json:"description"`
	RiskLevel        domain.RiskLevel `json:"risk_level"`
	CorrectiveAction string           `json:"corrective_action"`
	PreventiveAction string           `json:"preventive_action"`
}

// Error taxonomy for analyzer providers.
var (
	// ErrRateLimit indicates the provider rate limit has been exceeded.
	ErrRateLimit = errors.New("analyzer rate limit exceeded")

	// ErrInvalidImage indicates the image format or content is invalid.
	ErrInvalidImage = errors.New("invalid image format or content")

	// ErrTimeout indicates the request timed out.
	ErrTimeout = errors.New("analyzer request timed out")

	// ErrUnavailable indicates the provider is temporarily unavailable.
	ErrUnavailable = errors.New("analyzer temporarily unavailable")

	// ErrUnauthorized indicates invalid API credentials.
	ErrUnauthorized = errors.New("analyzer authentication failed")
)

// IsRetryable returns true if the error is transient and worth retrying.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrRateLimit) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrUnavailable)
}
