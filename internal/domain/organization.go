// Package domain contains core business types and interfaces.
//
// This file defines the tenant types: Organization, AffiliatedCompany, and the
// per-tenant OrganizationSettings policy with its documented defaults.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// Organization
// =============================================================================

// Organization is the tenant boundary. All business data is scoped to exactly
// one organization and its identity is immutable once created.
type Organization struct {
	ID        uuid.UUID // Unique identifier, never changes
	Name      string    // Display name
	CreatedAt time.Time // When the organization was created
}

// =============================================================================
// Affiliated Company
// =============================================================================

// AffiliatedCompany is the client business being audited. Companies belong to
// exactly one organization and are deactivated rather than deleted, because
// inspections reference them for audit history.
type AffiliatedCompany struct {
	ID             uuid.UUID // Unique identifier
	OrganizationID uuid.UUID // Owning tenant
	Name           string    // Company display name
	ContactEmail   string    // Primary contact address (optional)
	IsActive       bool      // False once deactivated; never hard-deleted
	CreatedAt      time.Time // When the company was created
	UpdatedAt      time.Time // When the company was last modified
}

// CreateCompanyParams contains validated parameters for creating an
// affiliated company.
type CreateCompanyParams struct {
	OrganizationID uuid.UUID // Owning tenant
	Name           string    // Required display name
	ContactEmail   string    // Optional contact address
}

// =============================================================================
// Organization Settings
// =============================================================================

// Default settings values, used when a tenant has no stored settings row.
const (
	DefaultImageMaxWidth    = 1920 // Max width for optimized full images
	DefaultImageQuality     = 85   // JPEG quality for optimized full images
	DefaultThumbnailWidth   = 400  // Width for derived thumbnails
	DefaultThumbnailQuality = 70   // JPEG quality for thumbnails
)

// DefaultAnalysisPrompt is the analysis instruction used when a tenant has not
// configured its own.
const DefaultAnalysisPrompt = `You are a workplace safety inspector reviewing a photograph taken during a site visit.
Identify every visible safety risk. For each risk report: a short description,
a risk level (high, medium, or low), a corrective action that removes the
hazard, and a preventive action that keeps it from recurring.
Respond with a JSON object: {"findings": [{"description": "...", "risk_level": "...",
"corrective_action": "...", "preventive_action": "..."}]}.
If the photo shows no safety risks, respond with {"findings": []}.`

// OrganizationSettings is the per-tenant policy for image optimization,
// thumbnail generation, and the analysis prompt. Settings are defaulted lazily
// on first read; absence of a row means "use the defaults".
type OrganizationSettings struct {
	OrganizationID    uuid.UUID // Tenant these settings belong to
	OptimizeImages    bool      // Downscale/re-encode full images before storing
	ImageMaxWidth     int       // Max width when optimization is enabled
	ImageQuality      int       // JPEG quality when optimization is enabled
	GenerateThumbs    bool      // Derive thumbnails on upload
	ThumbnailWidth    int       // Thumbnail width
	ThumbnailQuality  int       // Thumbnail JPEG quality
	AnalysisPrompt    string    // Instruction passed to the image analyzer
	UpdatedAt         time.Time // When the settings were last modified
}

// DefaultOrganizationSettings returns the documented defaults for a tenant
// with no stored settings.
func DefaultOrganizationSettings(orgID uuid.UUID) *OrganizationSettings {
	return &OrganizationSettings{
		OrganizationID:   orgID,
		OptimizeImages:   true,
		ImageMaxWidth:    DefaultImageMaxWidth,
		ImageQuality:     DefaultImageQuality,
		GenerateThumbs:   true,
		ThumbnailWidth:   DefaultThumbnailWidth,
		ThumbnailQuality: DefaultThumbnailQuality,
		AnalysisPrompt:   DefaultAnalysisPrompt,
	}
}

// Prompt returns the configured analysis prompt, falling back to the default.
func (s *OrganizationSettings) Prompt() string {
	if s == nil || s.AnalysisPrompt == "" {
		return DefaultAnalysisPrompt
	}
	return s.AnalysisPrompt
}
