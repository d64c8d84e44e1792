package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/interviewai/authgate/internal/core/domain"
	"github.com/interviewai/authgate/middleware"
)

// Phase describes how much the current user snapshot can be trusted.
type Phase int

const (
	// PhaseEmpty means no identity has been published yet.
	PhaseEmpty Phase = iota
	// PhaseProvisional means the snapshot came from the local cache and has
	// not yet been confirmed by the authorization service. Consumers that
	// must not act on unverified identity should wait for Confirmed.
	PhaseProvisional
	// PhaseConfirmed means the snapshot is the authorization service's
	// current truth.
	PhaseConfirmed
	// PhaseRevoked means a provisional or confirmed identity was cleared:
	// the service rejected it, or the user logged out.
	PhaseRevoked
)

func (p Phase) String() string {
	switch p {
	case PhaseEmpty:
		return "empty"
	case PhaseProvisional:
		return "provisional"
	case PhaseConfirmed:
		return "confirmed"
	case PhaseRevoked:
		return "revoked"
	default:
		return "unknown"
	}
}

// Snapshot is a point-in-time copy of the session state.
type Snapshot struct {
	User    *domain.UserProfile
	Phase   Phase
	Loading bool
}

// IsAuthenticated reports whether an identity is currently published.
// It is true for provisional identities too; check Phase when that matters.
func (s Snapshot) IsAuthenticated() bool {
	return s.User != nil
}

// SessionStore owns the client-side view of "who is logged in" and keeps it
// eventually consistent with the authorization service. It is layered above
// the per-navigation gate, not part of it.
//
// The credential itself is transport state (an HttpOnly cookie managed by
// the Authority implementation); the store never reads or writes it. The
// profile cache is owned exclusively by this store.
type SessionStore struct {
	authority domain.Authority
	cache     domain.ProfileCache

	mu      sync.Mutex
	user    *domain.UserProfile
	phase   Phase
	loading bool
	// generation increases on every reconcile start and on logout. A
	// reconcile response may only be applied while its generation is still
	// current, so a late "who am I" answer cannot resurrect a session that
	// logout already cleared.
	generation uint64
}

// NewSessionStore creates a store over the given authority and cache.
// Call Init before trusting the snapshot.
func NewSessionStore(authority domain.Authority, cache domain.ProfileCache) *SessionStore {
	return &SessionStore{
		authority: authority,
		cache:     cache,
		loading:   true,
	}
}

// Snapshot returns a copy of the current session state. While Loading is
// true the decision is still pending — it does not mean "logged out".
func (s *SessionStore) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{User: s.user, Phase: s.phase, Loading: s.loading}
}

// Init runs the startup sequence: purge legacy cache entries, publish any
// cached profile as provisional, then reconcile against the authorization
// service. Loading turns false only after the reconcile completes, whether
// it confirmed or revoked the provisional identity.
func (s *SessionStore) Init(ctx context.Context) error {
	ctx, span := middleware.StartSpan(ctx, "session.init", trace.WithAttributes(
		attribute.String("layer", "logic"),
	))
	defer span.End()

	if err := s.cache.PurgeLegacy(ctx); err != nil {
		// Leftovers from an old scheme are a nuisance, not a failure.
		log.Warn().Err(err).Msg("Legacy cache purge failed")
	}

	cached, err := s.cache.Load(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Profile cache read failed")
	}
	if cached != nil {
		s.mu.Lock()
		s.user = cached
		s.phase = PhaseProvisional
		s.mu.Unlock()
		span.AddEvent("session.provisional_published")
	}

	err = s.reconcile(ctx)

	s.mu.Lock()
	s.loading = false
	s.mu.Unlock()
	return err
}

// RefreshUser re-runs the authoritative check on demand, e.g. after a
// profile edit. It does not touch the Loading flag of the initial load.
func (s *SessionStore) RefreshUser(ctx context.Context) error {
	return s.reconcile(ctx)
}

// reconcile fetches the authoritative profile and either confirms it
// (publish + refresh cache) or revokes the current identity (clear both).
// The provisional state is never left hanging: any completed reconcile ends
// in Confirmed or Revoked.
func (s *SessionStore) reconcile(ctx context.Context) error {
	ctx, span := middleware.StartSpan(ctx, "session.reconcile", trace.WithAttributes(
		attribute.String("layer", "logic"),
	))
	defer span.End()

	s.mu.Lock()
	s.generation++
	gen := s.generation
	s.mu.Unlock()

	user, err := s.authority.Me(ctx)

	s.mu.Lock()
	if s.generation != gen {
		// Superseded by logout or a newer reconcile; discard.
		s.mu.Unlock()
		span.AddEvent("session.reconcile_superseded")
		return nil
	}
	if err != nil {
		// Unreachable authority: revoke rather than trust a stale cache.
		s.user = nil
		s.phase = PhaseRevoked
		s.mu.Unlock()
		span.RecordError(err)
		if clearErr := s.cache.Clear(ctx); clearErr != nil {
			log.Warn().Err(clearErr).Msg("Profile cache clear failed")
		}
		return fmt.Errorf("reconcile session: %w", classifyAuthorityErr(err, false))
	}
	if user == nil {
		s.user = nil
		s.phase = PhaseRevoked
		s.mu.Unlock()
		span.SetAttributes(attribute.Bool("session.valid", false))
		if clearErr := s.cache.Clear(ctx); clearErr != nil {
			log.Warn().Err(clearErr).Msg("Profile cache clear failed")
		}
		return nil
	}
	s.user = user
	s.phase = PhaseConfirmed
	s.mu.Unlock()

	span.SetAttributes(attribute.Bool("session.valid", true), attribute.String("user.id", user.ID))
	if storeErr := s.cache.Store(ctx, user); storeErr != nil {
		log.Warn().Err(storeErr).Msg("Profile cache write failed")
	}
	return nil
}

// Login authenticates and publishes the returned profile. The credential is
// set by the authorization service on the transport; the store only handles
// the profile. Navigation after a successful login is the caller's job.
func (s *SessionStore) Login(ctx context.Context, req domain.LoginRequest) (*domain.UserProfile, error) {
	ctx, span := middleware.StartSpan(ctx, "session.login", trace.WithAttributes(
		attribute.String("layer", "logic"),
	))
	defer span.End()

	user, err := s.authority.Login(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("auth.success", false))
		return nil, fmt.Errorf("login: %w", classifyAuthorityErr(err, false))
	}

	s.publishConfirmed(ctx, user)
	span.SetAttributes(attribute.Bool("auth.success", true), attribute.String("user.id", user.ID))
	span.AddEvent("user.authenticated")
	return user, nil
}

// Register creates an account and publishes the returned profile.
func (s *SessionStore) Register(ctx context.Context, req domain.RegisterRequest) (*domain.UserProfile, error) {
	ctx, span := middleware.StartSpan(ctx, "session.register", trace.WithAttributes(
		attribute.String("layer", "logic"),
	))
	defer span.End()

	user, err := s.authority.Register(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("registration.success", false))
		return nil, fmt.Errorf("register: %w", classifyAuthorityErr(err, true))
	}

	s.publishConfirmed(ctx, user)
	span.SetAttributes(attribute.Bool("registration.success", true), attribute.String("user.id", user.ID))
	span.AddEvent("user.registered")
	return user, nil
}

// Logout notifies the authorization service best-effort, then
// unconditionally clears local state and cache. Local logout is
// authoritative from the client's perspective: a failed network call never
// leaves the session half-alive.
func (s *SessionStore) Logout(ctx context.Context) error {
	ctx, span := middleware.StartSpan(ctx, "session.logout", trace.WithAttributes(
		attribute.String("layer", "logic"),
	))
	defer span.End()

	if err := s.authority.Logout(ctx); err != nil {
		span.RecordError(err)
		log.Warn().Err(err).Msg("Logout notification failed")
	}

	s.mu.Lock()
	s.user = nil
	s.phase = PhaseRevoked
	s.generation++ // invalidate any in-flight reconcile
	s.mu.Unlock()

	if err := s.cache.Clear(ctx); err != nil {
		return fmt.Errorf("clear profile cache: %w", err)
	}
	span.AddEvent("session.cleared")
	return nil
}

func (s *SessionStore) publishConfirmed(ctx context.Context, user *domain.UserProfile) {
	s.mu.Lock()
	s.user = user
	s.phase = PhaseConfirmed
	s.generation++ // a fresh identity supersedes any in-flight reconcile
	s.mu.Unlock()

	if err := s.cache.Store(ctx, user); err != nil {
		log.Warn().Err(err).Msg("Profile cache write failed")
	}
}

// classifyAuthorityErr maps an Authority error onto the package sentinels.
// register selects the register-surface interpretation of 400/409.
func classifyAuthorityErr(err error, register bool) error {
	var statusErr *domain.StatusError
	if !errors.As(err, &statusErr) {
		return ErrUnreachableAuthority
	}
	switch statusErr.Code {
	case http.StatusUnauthorized:
		if register {
			return ErrUnauthorized
		}
		return ErrInvalidCredentials
	case http.StatusUnprocessableEntity:
		return ErrValidationFailed
	case http.StatusBadRequest, http.StatusConflict:
		if register {
			return ErrAccountExists
		}
		return ErrValidationFailed
	default:
		return ErrUnauthorized
	}
}
