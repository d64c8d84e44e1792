// Package v1 implements the route-authorization core: path classification,
// credential validation strategies, the access decision engine, and the
// session store reconciliation protocol.
//
// Error Handling:
// This package defines sentinel errors for the failure taxonomy of the gate
// and the session surface. They should be wrapped with context using
// fmt.Errorf("%w") when returned.
//
// At the gating layer the distinction between malformed, expired,
// unreachable-authority, and unauthorized is never shown to the user — all
// of them collapse to a redirect to login. The sentinels exist for logging,
// metrics, and tests. At the login/register surface, ErrInvalidCredentials,
// ErrValidationFailed, and ErrAccountExists map to short user-facing
// messages; everything else collapses to a generic failure.
package v1

import "errors"

// Sentinel errors for gate and session operations.
var (
	// ErrMalformedCredential indicates the token fails the structural check
	// (empty, placeholder literal, too short, or not three base64url
	// segments).
	ErrMalformedCredential = errors.New("malformed credential")

	// ErrExpiredCredential indicates the token carries an exp claim in the
	// past. Detected by the local strategy only.
	ErrExpiredCredential = errors.New("expired credential")

	// ErrUnreachableAuthority indicates the authorization service could not
	// be reached (network failure or timeout). Always fails closed: the
	// gate denies rather than silently granting access.
	ErrUnreachableAuthority = errors.New("authorization service unreachable")

	// ErrUnauthorized indicates the authorization service explicitly
	// rejected the credential or session.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidCredentials indicates a login attempt with a wrong email or
	// password. User-facing at the login surface.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrAccountExists indicates a registration attempt for an email that
	// already has an account.
	ErrAccountExists = errors.New("account already exists")

	// ErrValidationFailed indicates the service rejected the request shape
	// (missing fields, bad email format).
	ErrValidationFailed = errors.New("request validation failed")
)
