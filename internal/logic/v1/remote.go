package v1

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/interviewai/authgate/internal/core/domain"
	"github.com/interviewai/authgate/middleware"
)

// RemoteValidator asks the authorization service to verify every credential.
// This is the strict strategy: it detects revocation and server-side expiry,
// at the cost of one round trip per navigation. Every failure mode —
// timeout, transport error, explicit rejection — yields invalid. An
// unreachable authority therefore denies access; it never silently grants.
type RemoteValidator struct {
	authority domain.Authority
	timeout   time.Duration
}

// NewRemoteValidator creates a remote validator bounded by the given
// per-check timeout.
func NewRemoteValidator(authority domain.Authority, timeout time.Duration) *RemoteValidator {
	return &RemoteValidator{authority: authority, timeout: timeout}
}

// Validate runs the shared structural check, then the authoritative
// round trip. The structural short-circuit avoids wasting a network call on
// tokens that cannot possibly be accepted.
func (v *RemoteValidator) Validate(ctx context.Context, credential string) error {
	ctx, span := middleware.StartSpan(ctx, "gate.validate_remote", trace.WithAttributes(
		attribute.String("layer", "logic"),
	))
	defer span.End()

	if err := CheckWellFormed(credential); err != nil {
		span.SetAttributes(attribute.Bool("credential.well_formed", false))
		return err
	}
	span.SetAttributes(attribute.Bool("credential.well_formed", true))

	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	err := v.authority.Verify(ctx, credential)
	if err == nil {
		span.SetAttributes(attribute.Bool("credential.valid", true))
		return nil
	}
	span.RecordError(err)
	span.SetAttributes(attribute.Bool("credential.valid", false))

	var statusErr *domain.StatusError
	if errors.As(err, &statusErr) {
		return fmt.Errorf("authority rejected credential: %w", ErrUnauthorized)
	}
	return fmt.Errorf("verify round trip failed: %w", ErrUnreachableAuthority)
}
