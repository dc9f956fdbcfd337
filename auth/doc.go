// Package auth authenticates clinic staff from JWT bearer tokens and
// authorizes administrative actions by role.
//
// The gin middleware in this package attaches the authenticated Identity to
// the request context; downstream code reads it with IdentityFromContext.
package auth
