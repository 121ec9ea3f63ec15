// Package domain contains core business types and interfaces.
//
// This file defines the Inspection aggregate and its lifecycle state machine.
// An Inspection is one site visit at an affiliated company, owning the Photos
// captured during the visit; analysis moves it through a strictly forward
// sequence of statuses.
package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// Inspection Status
// =============================================================================

// InspectionStatus represents the lifecycle state of an inspection.
type InspectionStatus string

const (
	// InspectionStatusDraft is a legacy pre-capture state. The analysis path
	// never uses it; inspections created through the capture flow start in
	// InspectionStatusPhotosCaptured.
	InspectionStatusDraft InspectionStatus = "draft"

	// InspectionStatusPhotosCaptured indicates the visit is recorded and its
	// photos are stored, awaiting analysis.
	InspectionStatusPhotosCaptured InspectionStatus = "photos_captured"

	// InspectionStatusAnalyzing indicates a background analysis job is
	// in flight for this inspection.
	InspectionStatusAnalyzing InspectionStatus = "analyzing"

	// InspectionStatusCompleted indicates at least one requested photo was
	// analyzed successfully. Partial success still completes.
	InspectionStatusCompleted InspectionStatus = "completed"

	// InspectionStatusFailed indicates zero requested photos were analyzed
	// successfully, or a fatal error aborted the job.
	InspectionStatusFailed InspectionStatus = "failed"
)

// String returns the string representation of the status.
func (s InspectionStatus) String() string {
	return string(s)
}

// IsValid returns true if the status is a recognized value.
func (s InspectionStatus) IsValid() bool {
	switch s {
	case InspectionStatusDraft, InspectionStatusPhotosCaptured,
		InspectionStatusAnalyzing, InspectionStatusCompleted, InspectionStatusFailed:
		return true
	}
	return false
}

// IsTerminal returns true for completed and failed. Terminal inspections
// carry a CompletedAt timestamp and never transition again.
func (s InspectionStatus) IsTerminal() bool {
	return s == InspectionStatusCompleted || s == InspectionStatusFailed
}

// CanTransitionTo checks if the status may move to the target status.
//
// Transitions are strictly forward:
//   - draft -> photos_captured
//   - photos_captured -> analyzing
//   - analyzing -> completed | failed
//
// Nothing moves backward and terminal statuses never change.
func (s InspectionStatus) CanTransitionTo(target InspectionStatus) bool {
	switch s {
	case InspectionStatusDraft:
		return target == InspectionStatusPhotosCaptured
	case InspectionStatusPhotosCaptured:
		return target == InspectionStatusAnalyzing
	case InspectionStatusAnalyzing:
		return target == InspectionStatusCompleted || target == InspectionStatusFailed
	}
	return false
}

// =============================================================================
// Inspection Aggregate
// =============================================================================

// Inspection represents one site visit and is the aggregate root owning the
// captured Photos. All analysis-path mutations (status, CompletedAt, per-photo
// findings) go through the orchestrator.
type Inspection struct {
	ID             uuid.UUID        // Unique identifier
	OrganizationID uuid.UUID        // Tenant boundary
	UserID         uuid.UUID        // Inspector who owns the inspection
	CompanyID      uuid.UUID        // Affiliated company being audited
	Status         InspectionStatus // Current lifecycle state
	StartedAt      time.Time        // When the visit started
	CompletedAt    *time.Time       // Set when a terminal status is reached
	CreatedAt      time.Time        // When the record was created
	UpdatedAt      time.Time        // When the record was last modified

	Photos []Photo // Owned photo collection, capture order

	// Computed fields (not stored on the inspections row, populated by joins)
	CompanyName    string // Affiliated company display name
	InspectorName  string // Owning user's name
	InspectorEmail string // Owning user's notification address
}

// TransitionTo moves the inspection to the target status, enforcing the
// forward-only state machine. The status is unchanged on error.
func (i *Inspection) TransitionTo(target InspectionStatus) error {
	if !i.Status.CanTransitionTo(target) {
		return fmt.Errorf("cannot transition inspection from %s to %s", i.Status, target)
	}
	i.Status = target
	return nil
}

// PhotoByID returns the owned photo with the given id, or nil.
func (i *Inspection) PhotoByID(id uuid.UUID) *Photo {
	for idx := range i.Photos {
		if i.Photos[idx].ID == id {
			return &i.Photos[idx]
		}
	}
	return nil
}

// AnalyzedCount returns the number of photos already analyzed.
func (i *Inspection) AnalyzedCount() int {
	n := 0
	for idx := range i.Photos {
		if i.Photos[idx].IsAnalyzed {
			n++
		}
	}
	return n
}

// TotalFindings sums findings across all photos. Findings are never attached
// to the inspection directly; this is the only source of the total.
func (i *Inspection) TotalFindings() int {
	n := 0
	for idx := range i.Photos {
		n += len(i.Photos[idx].Findings)
	}
	return n
}

// =============================================================================
// Service Parameters
// =============================================================================

// CreateInspectionParams contains validated parameters for creating an
// inspection together with its captured photos.
type CreateInspectionParams struct {
	OrganizationID uuid.UUID           // Tenant
	UserID         uuid.UUID           // Inspector (from auth context)
	CompanyID      uuid.UUID           // Affiliated company being audited
	StartedAt      time.Time           // Visit start time
	Photos         []CreatePhotoParams // Captured photos, in capture order
}

// AnalysisStatus is the read model returned to status-polling clients.
type AnalysisStatus struct {
	InspectionID   uuid.UUID        // Inspection being polled
	Status         InspectionStatus // Current lifecycle state
	TotalPhotos    int              // Photos owned by the inspection
	AnalyzedPhotos int              // Photos with IsAnalyzed = true
	PendingPhotos  int              // TotalPhotos - AnalyzedPhotos
	StartedAt      time.Time        // Visit start time
	CompletedAt    *time.Time       // Set once terminal
}
