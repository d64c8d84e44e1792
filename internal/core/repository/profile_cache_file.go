package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/interviewai/authgate/internal/core/domain"
)

// legacyFiles are leftovers from the pre-cookie auth scheme, where the raw
// token and a status flag were written next to the profile. They are purged
// once at startup.
var legacyFiles = []string{"token", "auth_status"}

// FileProfileCache implements domain.ProfileCache as a single JSON file in a
// directory the caller owns (typically under os.UserConfigDir).
type FileProfileCache struct {
	dir string
}

// NewFileProfileCache creates a cache rooted at dir, creating it if needed.
func NewFileProfileCache(dir string) (*FileProfileCache, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &FileProfileCache{dir: dir}, nil
}

func (c *FileProfileCache) path() string {
	return filepath.Join(c.dir, "profile.json")
}

// Load returns the cached profile, or (nil, nil) when nothing is cached.
// A corrupt cache file is treated as empty — the reconcile will rewrite it.
func (c *FileProfileCache) Load(_ context.Context) (*domain.UserProfile, error) {
	data, err := os.ReadFile(c.path())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read profile cache: %w", err)
	}

	var user domain.UserProfile
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, nil
	}
	return &user, nil
}

// Store replaces the cached profile.
func (c *FileProfileCache) Store(_ context.Context, user *domain.UserProfile) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	if err := os.WriteFile(c.path(), data, 0o600); err != nil {
		return fmt.Errorf("write profile cache: %w", err)
	}
	return nil
}

// Clear removes the cached profile. Missing file is not an error.
func (c *FileProfileCache) Clear(_ context.Context) error {
	if err := os.Remove(c.path()); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("clear profile cache: %w", err)
	}
	return nil
}

// PurgeLegacy removes files written by earlier auth schemes.
func (c *FileProfileCache) PurgeLegacy(_ context.Context) error {
	for _, name := range legacyFiles {
		if err := os.Remove(filepath.Join(c.dir, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("purge legacy file %s: %w", name, err)
		}
	}
	return nil
}
