package auth

import (
	"slices"
	"time"
)

// Identity is an authenticated staff member.
type Identity struct {
	// StaffID identifies the staff member (the token subject).
	StaffID string

	// ClinicID is the clinic the staff member acts for.
	ClinicID string

	// Roles are the roles assigned to this staff member.
	Roles []string

	// Claims contains the raw claims from the token.
	Claims map[string]any

	// ExpiresAt is when the token expires.
	ExpiresAt time.Time

	// IssuedAt is when the token was issued.
	IssuedAt time.Time
}

// HasRole checks if the identity has a specific role.
func (id *Identity) HasRole(role string) bool {
	if id == nil {
		return false
	}
	return slices.Contains(id.Roles, role)
}

// IsExpired checks if the identity has expired.
func (id *Identity) IsExpired() bool {
	if id.ExpiresAt.IsZero() {
		return false
	}
	return time.Now().After(id.ExpiresAt)
}
