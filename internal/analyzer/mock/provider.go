// Package mock provides a canned analyzer for development and tests.
package mock

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/safesight/safesight/internal/analyzer"
	"github.com/safesight/safesight/internal/domain"
)

// Provider is a mock analyzer with configurable responses.
type Provider struct {
	logger *slog.Logger

	// Configurable responses for testing
	Response *analyzer.Result
	Err      error

	// Call tracking for testing
	Calls int
}

// New creates a mock analyzer.
func New(logger *slog.Logger) *Provider {
	return &Provider{logger: logger}
}

// AnalyzePhoto returns the configured response or a default canned result.
func (p *Provider) AnalyzePhoto(ctx context.Context, params analyzer.AnalyzePhotoParams) (*analyzer.Result, error) {
	p.Calls++

	if p.Err != nil {
		return nil, p.Err
	}
	if p.Response != nil {
		return p.Response, nil
	}

	return &analyzer.Result{
		Findings: []analyzer.Finding{
			{
				Description:      "Worker on elevated platform without fall protection",
				RiskLevel:        domain.RiskLevelHigh,
				CorrectiveAction: "Stop work at height until harnesses and anchor points are in place",
				PreventiveAction: "Add fall protection checks to the daily site briefing",
			},
			{
				Description:      "Loose cables crossing a walkway",
				RiskLevel:        domain.RiskLevelLow,
				CorrectiveAction: "Route cables along the wall or cover with cable ramps",
				PreventiveAction: "Designate cable routes before equipment setup",
			},
		},
		Model: "mock-analyzer-v1",
		Raw:   json.RawMessage(`{"findings":[]}`),
	}, nil
}

// Reset clears call counters and configured responses.
func (p *Provider) Reset() {
	p.Calls = 0
	p.Response = nil
	p.Err = nil
}
