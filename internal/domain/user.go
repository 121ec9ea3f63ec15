// Package domain contains core business types and interfaces.
//
// This file defines the User type. Users belong to one organization and may
// be assigned to any number of affiliated companies.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// UserRole distinguishes inspectors from administrators.
type UserRole string

const (
	// UserRoleInspector captures photos and runs analyses.
	UserRoleInspector UserRole = "inspector"

	// UserRoleAdmin manages companies, assignments, and settings, and
	// receives compiled reports.
	UserRoleAdmin UserRole = "admin"
)

// String returns the string representation of the role.
func (r UserRole) String() string {
	return string(r)
}

// IsValid returns true if the role is a recognized value.
func (r UserRole) IsValid() bool {
	switch r {
	case UserRoleInspector, UserRoleAdmin:
		return true
	}
	return false
}

// User represents a member of an organization.
type User struct {
	ID             uuid.UUID // Unique identifier
	OrganizationID uuid.UUID // Owning tenant
	Name           string    // Display name
	Email          string    // Notification address
	Role           UserRole  // inspector or admin
	CreatedAt      time.Time // When the user was created
	UpdatedAt      time.Time // When the user was last modified
}
