package v1

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/interviewai/authgate/internal/core/domain"
)

var testUser = &domain.UserProfile{ID: "u1", Email: "dev@example.com", FullName: "Dev User"}

func TestInitConfirmsCachedProfile(t *testing.T) {
	fresh := &domain.UserProfile{ID: "u1", Email: "dev@example.com", FullName: "Renamed User"}
	authority := &fakeAuthority{
		MeFunc: func(ctx context.Context) (*domain.UserProfile, error) { return fresh, nil },
	}
	cache := &memoryCache{user: testUser}
	store := NewSessionStore(authority, cache)

	require.True(t, store.Snapshot().Loading, "Loading must be true before Init completes")

	require.NoError(t, store.Init(context.Background()))

	snap := store.Snapshot()
	require.False(t, snap.Loading)
	require.Equal(t, PhaseConfirmed, snap.Phase)
	require.Equal(t, fresh, snap.User)
	require.Equal(t, fresh, cache.Cached(), "cache must be refreshed with the authoritative profile")
}

func TestInitRevokesWhenAuthorityRejects(t *testing.T) {
	// Startup with a cached profile but /auth/me answering 401: the
	// provisional identity is revoked, never left hanging.
	authority := &fakeAuthority{
		MeFunc: func(ctx context.Context) (*domain.UserProfile, error) { return nil, nil },
	}
	cache := &memoryCache{user: testUser}
	store := NewSessionStore(authority, cache)

	require.NoError(t, store.Init(context.Background()))

	snap := store.Snapshot()
	require.False(t, snap.Loading)
	require.Equal(t, PhaseRevoked, snap.Phase)
	require.Nil(t, snap.User)
	require.Nil(t, cache.Cached(), "cache must be cleared")
}

func TestInitWithoutCacheAndWithoutSession(t *testing.T) {
	authority := &fakeAuthority{}
	cache := &memoryCache{}
	store := NewSessionStore(authority, cache)

	require.NoError(t, store.Init(context.Background()))

	snap := store.Snapshot()
	require.False(t, snap.Loading)
	require.Nil(t, snap.User)
	require.False(t, snap.IsAuthenticated())
}

func TestInitFailsClosedWhenAuthorityUnreachable(t *testing.T) {
	authority := &fakeAuthority{
		MeFunc: func(ctx context.Context) (*domain.UserProfile, error) {
			return nil, errors.New("connection refused")
		},
	}
	cache := &memoryCache{user: testUser}
	store := NewSessionStore(authority, cache)

	err := store.Init(context.Background())
	require.ErrorIs(t, err, ErrUnreachableAuthority)

	snap := store.Snapshot()
	require.False(t, snap.Loading, "Loading must resolve even on failure")
	require.Nil(t, snap.User, "an unconfirmed cached profile must not survive")
	require.Nil(t, cache.Cached())
}

func TestLoginPublishesAndCaches(t *testing.T) {
	authority := &fakeAuthority{
		LoginFunc: func(ctx context.Context, req domain.LoginRequest) (*domain.UserProfile, error) {
			require.Equal(t, "dev@example.com", req.Email)
			return testUser, nil
		},
	}
	cache := &memoryCache{}
	store := NewSessionStore(authority, cache)

	user, err := store.Login(context.Background(), domain.LoginRequest{Email: "dev@example.com", Password: "pw"})
	require.NoError(t, err)
	require.Equal(t, testUser, user)

	snap := store.Snapshot()
	require.Equal(t, PhaseConfirmed, snap.Phase)
	require.Equal(t, testUser, snap.User)
	require.Equal(t, testUser, cache.Cached())
}

func TestLoginErrorClassification(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"wrong password", &domain.StatusError{Code: 401}, ErrInvalidCredentials},
		{"bad payload", &domain.StatusError{Code: 422}, ErrValidationFailed},
		{"server down", errors.New("dial tcp: refused"), ErrUnreachableAuthority},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			authority := &fakeAuthority{
				LoginFunc: func(ctx context.Context, req domain.LoginRequest) (*domain.UserProfile, error) {
					return nil, tt.err
				},
			}
			store := NewSessionStore(authority, &memoryCache{})

			_, err := store.Login(context.Background(), domain.LoginRequest{Email: "x@y.z", Password: "pw"})
			require.ErrorIs(t, err, tt.want)
			require.Nil(t, store.Snapshot().User)
		})
	}
}

func TestRegisterDuplicateAccount(t *testing.T) {
	for _, code := range []int{400, 409} {
		authority := &fakeAuthority{
			RegisterFunc: func(ctx context.Context, req domain.RegisterRequest) (*domain.UserProfile, error) {
				return nil, &domain.StatusError{Code: code}
			},
		}
		store := NewSessionStore(authority, &memoryCache{})

		_, err := store.Register(context.Background(), domain.RegisterRequest{Email: "x@y.z", Password: "pw"})
		require.ErrorIs(t, err, ErrAccountExists, "status %d", code)
	}
}

func TestLogoutClearsLocallyEvenWhenNotifyFails(t *testing.T) {
	authority := &fakeAuthority{
		LoginFunc: func(ctx context.Context, req domain.LoginRequest) (*domain.UserProfile, error) {
			return testUser, nil
		},
		LogoutFunc: func(ctx context.Context) error { return errors.New("network down") },
	}
	cache := &memoryCache{}
	store := NewSessionStore(authority, cache)

	_, err := store.Login(context.Background(), domain.LoginRequest{Email: "dev@example.com", Password: "pw"})
	require.NoError(t, err)

	require.NoError(t, store.Logout(context.Background()))

	snap := store.Snapshot()
	require.Nil(t, snap.User, "local logout is authoritative")
	require.Equal(t, PhaseRevoked, snap.Phase)
	require.Nil(t, cache.Cached())
}

func TestStaleReconcileCannotResurrectSession(t *testing.T) {
	// A reconcile is in flight when the user logs out. Its late response
	// belongs to a superseded generation and must be discarded.
	meEntered := make(chan struct{})
	meRelease := make(chan struct{})
	authority := &fakeAuthority{
		MeFunc: func(ctx context.Context) (*domain.UserProfile, error) {
			close(meEntered)
			<-meRelease
			return testUser, nil
		},
	}
	cache := &memoryCache{}
	store := NewSessionStore(authority, cache)

	done := make(chan error, 1)
	go func() { done <- store.RefreshUser(context.Background()) }()

	<-meEntered
	require.NoError(t, store.Logout(context.Background()))

	close(meRelease)
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("reconcile did not finish")
	}

	snap := store.Snapshot()
	require.Nil(t, snap.User, "stale reconcile must not resurrect a cleared session")
	require.Equal(t, PhaseRevoked, snap.Phase)
	require.Nil(t, cache.Cached())
}

func TestRefreshUserUpdatesProfile(t *testing.T) {
	updated := &domain.UserProfile{ID: "u1", Email: "dev@example.com", JobTitle: "Staff Engineer"}
	authority := &fakeAuthority{
		LoginFunc: func(ctx context.Context, req domain.LoginRequest) (*domain.UserProfile, error) {
			return testUser, nil
		},
		MeFunc: func(ctx context.Context) (*domain.UserProfile, error) { return updated, nil },
	}
	cache := &memoryCache{}
	store := NewSessionStore(authority, cache)

	_, err := store.Login(context.Background(), domain.LoginRequest{Email: "dev@example.com", Password: "pw"})
	require.NoError(t, err)

	require.NoError(t, store.RefreshUser(context.Background()))

	snap := store.Snapshot()
	require.Equal(t, updated, snap.User)
	require.Equal(t, updated, cache.Cached())
}
