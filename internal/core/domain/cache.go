package domain

import "context"

// ProfileCache mirrors the signed-in profile locally so the UI can show a
// provisional identity before the authoritative reconcile lands. It is owned
// exclusively by the session store; nothing else reads or writes it.
type ProfileCache interface {
	// Load returns the cached profile.
	// Returns (nil, nil) when nothing is cached.
	Load(ctx context.Context) (*UserProfile, error)

	// Store replaces the cached profile.
	Store(ctx context.Context, user *UserProfile) error

	// Clear removes the cached profile. Clearing an empty cache is not an
	// error.
	Clear(ctx context.Context) error

	// PurgeLegacy removes leftovers of earlier auth schemes (raw tokens,
	// status flags). Run once at startup; best effort.
	PurgeLegacy(ctx context.Context) error
}
