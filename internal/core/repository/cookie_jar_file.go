package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// storedCookie is the persisted form of a session cookie.
type storedCookie struct {
	Name    string    `json:"name"`
	Value   string    `json:"value"`
	Path    string    `json:"path,omitempty"`
	Expires time.Time `json:"expires,omitempty"`
}

// FileCookieJar is an http.CookieJar backed by a JSON file, keyed by host.
// It lets a CLI process carry the HttpOnly session credential across
// invocations the way a browser's cookie store does, while the application
// code still never reads the token: only the HTTP transport touches it.
//
// The implementation is deliberately minimal — host-scoped, no domain or
// path matching — which is all the single-authority client needs.
type FileCookieJar struct {
	mu      sync.Mutex
	path    string
	entries map[string][]storedCookie
}

// NewFileCookieJar creates a jar persisted at path, loading any cookies a
// previous process left behind. A corrupt file is treated as empty.
func NewFileCookieJar(path string) (*FileCookieJar, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create cookie jar dir: %w", err)
	}

	j := &FileCookieJar{path: path, entries: make(map[string][]storedCookie)}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return j, nil
		}
		return nil, fmt.Errorf("read cookie jar: %w", err)
	}
	if err := json.Unmarshal(data, &j.entries); err != nil {
		j.entries = make(map[string][]storedCookie)
	}
	return j, nil
}

// SetCookies records the cookies the server set for u's host and persists
// the jar. A cookie with MaxAge<0 or an expiry in the past removes the
// stored entry — that is how logout clears the credential.
func (j *FileCookieJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.mu.Lock()
	defer j.mu.Unlock()

	now := time.Now()
	for _, c := range cookies {
		expires := c.Expires
		if c.MaxAge > 0 {
			expires = now.Add(time.Duration(c.MaxAge) * time.Second)
		}
		deleted := c.MaxAge < 0 || (!expires.IsZero() && !expires.After(now))

		kept := j.entries[u.Host][:0]
		for _, sc := range j.entries[u.Host] {
			if sc.Name != c.Name {
				kept = append(kept, sc)
			}
		}
		if !deleted {
			kept = append(kept, storedCookie{
				Name:    c.Name,
				Value:   c.Value,
				Path:    c.Path,
				Expires: expires,
			})
		}
		if len(kept) == 0 {
			delete(j.entries, u.Host)
		} else {
			j.entries[u.Host] = kept
		}
	}

	j.save()
}

// Cookies returns the unexpired cookies stored for u's host.
func (j *FileCookieJar) Cookies(u *url.URL) []*http.Cookie {
	j.mu.Lock()
	defer j.mu.Unlock()

	now := time.Now()
	var out []*http.Cookie
	for _, sc := range j.entries[u.Host] {
		if !sc.Expires.IsZero() && !sc.Expires.After(now) {
			continue
		}
		out = append(out, &http.Cookie{Name: sc.Name, Value: sc.Value, Path: sc.Path})
	}
	return out
}

// save persists the jar; callers hold the lock. The file carries the
// session credential, so it gets the same permissions as a private key.
func (j *FileCookieJar) save() {
	data, err := json.Marshal(j.entries)
	if err != nil {
		return
	}
	_ = os.WriteFile(j.path, data, 0o600)
}
