package v1

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// minCredentialLength filters obviously-garbage tokens before any parsing.
const minCredentialLength = 10

// Validator decides whether a session credential is acceptable.
// A nil return means valid; otherwise the error wraps one of the package
// sentinels saying why. Both strategies fail closed: on any doubt the
// credential is invalid.
type Validator interface {
	Validate(ctx context.Context, credential string) error
}

// CheckWellFormed verifies the structural shape shared by both strategies:
// non-empty, not a serialized JS placeholder, at least minCredentialLength
// characters, and exactly three non-empty dot-separated base64url segments.
// It says nothing about signature or expiry.
func CheckWellFormed(credential string) error {
	if credential == "" || credential == "undefined" || credential == "null" {
		return fmt.Errorf("empty or placeholder token: %w", ErrMalformedCredential)
	}
	if len(credential) < minCredentialLength {
		return fmt.Errorf("token shorter than %d chars: %w", minCredentialLength, ErrMalformedCredential)
	}
	parts := strings.Split(credential, ".")
	if len(parts) != 3 {
		return fmt.Errorf("token has %d segments, want 3: %w", len(parts), ErrMalformedCredential)
	}
	for i, part := range parts {
		if part == "" || !isBase64URL(part) {
			return fmt.Errorf("segment %d is not base64url: %w", i, ErrMalformedCredential)
		}
	}
	return nil
}

func isBase64URL(s string) bool {
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z':
		case r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9':
		case r == '-' || r == '_':
		default:
			return false
		}
	}
	return true
}

// LocalValidator inspects token shape and the exp claim without contacting
// the authorization service. It deliberately skips signature verification:
// the cookie is set only by the authorization service and every downstream
// API call re-validates, so this strategy only filters stale and garbage
// tokens cheaply. It cannot detect revocation.
type LocalValidator struct {
	// now is swappable for tests; defaults to time.Now.
	now func() time.Time
}

// NewLocalValidator creates a local-inspection validator.
func NewLocalValidator() *LocalValidator {
	return &LocalValidator{now: time.Now}
}

// Validate returns nil for a well-formed token whose exp claim, if present,
// is still in the future. A token without an exp claim is accepted.
func (v *LocalValidator) Validate(_ context.Context, credential string) error {
	if err := CheckWellFormed(credential); err != nil {
		return err
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(credential, claims); err != nil {
		return fmt.Errorf("decode claims: %w", ErrMalformedCredential)
	}

	exp, err := claims.GetExpirationTime()
	if err != nil {
		return fmt.Errorf("read exp claim: %w", ErrMalformedCredential)
	}
	if exp == nil {
		// Non-expiring token: accepted locally.
		return nil
	}
	if !v.now().Before(exp.Time) {
		return fmt.Errorf("token expired at %s: %w", exp.Time.Format(time.RFC3339), ErrExpiredCredential)
	}
	return nil
}
