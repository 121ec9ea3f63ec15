// Package domain contains core business types and interfaces.
//
// This file defines the Finding type: one risk observation produced by image
// analysis, attached to a single Photo and immutable after creation.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// Risk Level
// =============================================================================

// RiskLevel classifies the severity of a finding.
type RiskLevel string

const (
	// RiskLevelHigh indicates a hazard requiring immediate attention.
	RiskLevelHigh RiskLevel = "high"

	// RiskLevelMedium indicates a hazard that should be corrected promptly.
	RiskLevelMedium RiskLevel = "medium"

	// RiskLevelLow indicates a minor issue or best-practice deviation.
	RiskLevelLow RiskLevel = "low"

	// RiskLevelUnknown is used when the analyzer returned an unrecognized level.
	RiskLevelUnknown RiskLevel = "unknown"
)

// String returns the string representation of the risk level.
func (r RiskLevel) String() string {
	return string(r)
}

// IsValid returns true if the risk level is a recognized value.
func (r RiskLevel) IsValid() bool {
	switch r {
	case RiskLevelHigh, RiskLevelMedium, RiskLevelLow, RiskLevelUnknown:
		return true
	}
	return false
}

// ParseRiskLevel maps an analyzer-supplied level to a RiskLevel, falling back
// to RiskLevelUnknown for anything unrecognized.
func ParseRiskLevel(s string) RiskLevel {
	switch RiskLevel(s) {
	case RiskLevelHigh, RiskLevelMedium, RiskLevelLow:
		return RiskLevel(s)
	}
	return RiskLevelUnknown
}

// =============================================================================
// Finding Domain Type
// =============================================================================

// Finding represents one risk observation on an analyzed photo.
//
// Findings are independently-addressable records keyed by (photo id, id);
// they are inserted directly against the photo id and never materialized
// through the parent inspection's collection.
type Finding struct {
	ID               uuid.UUID // Unique identifier
	PhotoID          uuid.UUID // Photo this finding was observed on
	Description      string    // What was observed
	RiskLevel        RiskLevel // Severity classification
	CorrectiveAction string    // What to do about the existing hazard
	PreventiveAction string    // How to keep it from recurring
	RawResponse      []byte    // Analyzer response fragment for audit (nullable)
	CreatedAt        time.Time // When the finding was committed
}
