package domain

import (
	"context"
	"fmt"
)

// StatusError reports an explicit non-2xx answer from the authorization
// service, as opposed to a transport failure. The Logic layer inspects the
// code with errors.As and maps it onto its sentinel errors.
type StatusError struct {
	Code   int
	Detail string
}

func (e *StatusError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("authority returned status %d", e.Code)
	}
	return fmt.Sprintf("authority returned status %d: %s", e.Code, e.Detail)
}

// Authority defines the contract with the external authorization service.
// Implementations live in internal/core/repository (Core layer).
// The Logic layer depends on this interface only — never on HTTP directly.
//
// The session credential is transport state: Login sets it, Logout clears
// it, Me presents it implicitly. Callers never see the token through this
// interface except when passing an explicit bearer to Verify.
type Authority interface {
	// Login authenticates and returns the profile. The credential cookie is
	// set by the service on the underlying transport.
	Login(ctx context.Context, req LoginRequest) (*UserProfile, error)

	// Register creates an account and returns the profile, with the same
	// transport cookie behavior as Login.
	Register(ctx context.Context, req RegisterRequest) (*UserProfile, error)

	// Logout invalidates the server-side session and clears the transport
	// cookie. A non-2xx answer is returned as *StatusError.
	Logout(ctx context.Context) error

	// Me returns the profile for the current transport credential.
	// Returns (nil, nil) when the service answers 401 — no session.
	Me(ctx context.Context) (*UserProfile, error)

	// Verify checks an explicit bearer credential. nil means the service
	// accepted it; *StatusError means it explicitly rejected it; any other
	// error is a transport failure.
	Verify(ctx context.Context, credential string) error
}
