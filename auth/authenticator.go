package auth

import (
	"context"
	"net/http"
)

// Authenticator validates request credentials and returns an identity.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: methods should honor cancellation/deadlines.
// - Errors: failures wrap one of the package's authentication sentinels.
type Authenticator interface {
	// Name returns a unique identifier for this authenticator.
	Name() string

	// Authenticate validates the credentials carried by headers.
	Authenticate(ctx context.Context, headers http.Header) (*Identity, error)
}

// AuthenticatorFunc adapts a function to the Authenticator interface.
type AuthenticatorFunc func(ctx context.Context, headers http.Header) (*Identity, error)

// Name returns "func".
func (f AuthenticatorFunc) Name() string {
	return "func"
}

// Authenticate calls f.
func (f AuthenticatorFunc) Authenticate(ctx context.Context, headers http.Header) (*Identity, error) {
	return f(ctx, headers)
}
