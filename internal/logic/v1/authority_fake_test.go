package v1

import (
	"context"
	"sync"

	"github.com/interviewai/authgate/internal/core/domain"
)

// fakeAuthority implements domain.Authority with swappable behavior per
// method, for unit tests without a network.
type fakeAuthority struct {
	LoginFunc    func(ctx context.Context, req domain.LoginRequest) (*domain.UserProfile, error)
	RegisterFunc func(ctx context.Context, req domain.RegisterRequest) (*domain.UserProfile, error)
	LogoutFunc   func(ctx context.Context) error
	MeFunc       func(ctx context.Context) (*domain.UserProfile, error)
	VerifyFunc   func(ctx context.Context, credential string) error

	mu          sync.Mutex
	verifyCalls int
}

func (f *fakeAuthority) Login(ctx context.Context, req domain.LoginRequest) (*domain.UserProfile, error) {
	if f.LoginFunc == nil {
		return nil, &domain.StatusError{Code: 401}
	}
	return f.LoginFunc(ctx, req)
}

func (f *fakeAuthority) Register(ctx context.Context, req domain.RegisterRequest) (*domain.UserProfile, error) {
	if f.RegisterFunc == nil {
		return nil, &domain.StatusError{Code: 400}
	}
	return f.RegisterFunc(ctx, req)
}

func (f *fakeAuthority) Logout(ctx context.Context) error {
	if f.LogoutFunc == nil {
		return nil
	}
	return f.LogoutFunc(ctx)
}

func (f *fakeAuthority) Me(ctx context.Context) (*domain.UserProfile, error) {
	if f.MeFunc == nil {
		return nil, nil
	}
	return f.MeFunc(ctx)
}

func (f *fakeAuthority) Verify(ctx context.Context, credential string) error {
	f.mu.Lock()
	f.verifyCalls++
	f.mu.Unlock()
	if f.VerifyFunc == nil {
		return nil
	}
	return f.VerifyFunc(ctx, credential)
}

func (f *fakeAuthority) VerifyCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.verifyCalls
}

// memoryCache implements domain.ProfileCache in memory.
type memoryCache struct {
	mu   sync.Mutex
	user *domain.UserProfile
}

func (m *memoryCache) Load(context.Context) (*domain.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.user, nil
}

func (m *memoryCache) Store(_ context.Context, user *domain.UserProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.user = user
	return nil
}

func (m *memoryCache) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.user = nil
	return nil
}

func (m *memoryCache) PurgeLegacy(context.Context) error {
	return nil
}

func (m *memoryCache) Cached() *domain.UserProfile {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.user
}
