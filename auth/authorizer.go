package auth

import (
	"context"
	"fmt"
)

// Actions guarded by the service.
const (
	ActionReadDetail    = "appointment:read"
	ActionReadBreakers  = "breakers:read"
	ActionResetBreakers = "breakers:reset"
)

// Authorizer determines if an identity is allowed to perform an action.
type Authorizer interface {
	// Authorize returns nil if permitted, or an error matching ErrForbidden.
	Authorize(ctx context.Context, id *Identity, action string) error
}

// AuthzError represents an authorization failure.
type AuthzError struct {
	// StaffID is the identity that was denied.
	StaffID string

	// Action is the action that was denied.
	Action string

	// Reason explains why access was denied.
	Reason string
}

// Error returns the error message.
func (e *AuthzError) Error() string {
	return fmt.Sprintf("authorization denied: staff=%q action=%q reason=%q", e.StaffID, e.Action, e.Reason)
}

// Is reports whether this error matches the target.
func (e *AuthzError) Is(target error) bool {
	return target == ErrForbidden
}

// RoleAuthorizer permits an action when the identity holds any role listed
// for it. Actions without an entry are open to every authenticated identity.
type RoleAuthorizer struct {
	rules map[string][]string
}

// NewRoleAuthorizer creates an authorizer from action → roles rules.
func NewRoleAuthorizer(rules map[string][]string) *RoleAuthorizer {
	copied := make(map[string][]string, len(rules))
	for action, roles := range rules {
		copied[action] = append([]string(nil), roles...)
	}
	return &RoleAuthorizer{rules: copied}
}

// DefaultRoleAuthorizer restricts breaker administration to the "admin"
// role.
func DefaultRoleAuthorizer() *RoleAuthorizer {
	return NewRoleAuthorizer(map[string][]string{
		ActionResetBreakers: {"admin"},
	})
}

// Authorize checks id against the rules for action.
func (a *RoleAuthorizer) Authorize(_ context.Context, id *Identity, action string) error {
	if id == nil {
		return &AuthzError{Action: action, Reason: "no identity provided"}
	}
	if id.IsExpired() {
		return &AuthzError{StaffID: id.StaffID, Action: action, Reason: "identity expired"}
	}

	roles, ok := a.rules[action]
	if !ok {
		return nil
	}
	for _, role := range roles {
		if id.HasRole(role) {
			return nil
		}
	}
	return &AuthzError{StaffID: id.StaffID, Action: action, Reason: "no role permits this action"}
}

// AllowAll permits every request.
type AllowAll struct{}

// Authorize always returns nil.
func (AllowAll) Authorize(context.Context, *Identity, string) error {
	return nil
}

var (
	_ Authorizer = (*RoleAuthorizer)(nil)
	_ Authorizer = AllowAll{}
)
