package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/interviewai/authgate/internal/core/domain"
)

// HTTPAuthority implements domain.Authority against the authorization
// service's REST contract. The session credential lives in the client's
// cookie jar: the service sets it on login and clears it on logout, and this
// type never reads it back out.
type HTTPAuthority struct {
	baseURL string
	client  *http.Client
}

// NewHTTPAuthority creates an authority client for the given base URL with
// an in-memory cookie jar (suitable for a long-lived process such as the
// gateway). timeout bounds every round trip, including the reconcile fetch,
// so callers are never left pending indefinitely.
func NewHTTPAuthority(baseURL string, timeout time.Duration) (*HTTPAuthority, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	return NewHTTPAuthorityWithJar(baseURL, timeout, jar), nil
}

// NewHTTPAuthorityWithJar creates an authority client over a caller-supplied
// cookie jar, e.g. a FileCookieJar so a CLI keeps its session across
// invocations.
func NewHTTPAuthorityWithJar(baseURL string, timeout time.Duration, jar http.CookieJar) *HTTPAuthority {
	return &HTTPAuthority{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Jar:     jar,
			Timeout: timeout,
		},
	}
}

// Login authenticates with email and password.
func (a *HTTPAuthority) Login(ctx context.Context, req domain.LoginRequest) (*domain.UserProfile, error) {
	return a.postForProfile(ctx, "/auth/login", req)
}

// Register creates a new account.
func (a *HTTPAuthority) Register(ctx context.Context, req domain.RegisterRequest) (*domain.UserProfile, error) {
	return a.postForProfile(ctx, "/auth/register", req)
}

// Logout invalidates the server-side session.
func (a *HTTPAuthority) Logout(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/auth/logout", nil)
	if err != nil {
		return fmt.Errorf("build logout request: %w", err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	defer drain(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &domain.StatusError{Code: resp.StatusCode, Detail: readDetail(resp.Body)}
	}
	return nil
}

// Me returns the profile for the current transport credential.
// Returns (nil, nil) on 401 — no valid session.
func (a *HTTPAuthority) Me(ctx context.Context) (*domain.UserProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/auth/me", nil)
	if err != nil {
		return nil, fmt.Errorf("build me request: %w", err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch current user: %w", err)
	}
	defer drain(resp.Body)

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &domain.StatusError{Code: resp.StatusCode, Detail: readDetail(resp.Body)}
	}

	var user domain.UserProfile
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("decode user profile: %w", err)
	}
	return &user, nil
}

// Verify checks an explicit bearer credential against the verification
// endpoint. nil iff the service answered 2xx.
func (a *HTTPAuthority) Verify(ctx context.Context, credential string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/auth/verify", nil)
	if err != nil {
		return fmt.Errorf("build verify request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+credential)

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("verify credential: %w", err)
	}
	defer drain(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &domain.StatusError{Code: resp.StatusCode, Detail: readDetail(resp.Body)}
	}
	return nil
}

func (a *HTTPAuthority) postForProfile(ctx context.Context, path string, payload any) (*domain.UserProfile, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post %s: %w", path, err)
	}
	defer drain(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &domain.StatusError{Code: resp.StatusCode, Detail: readDetail(resp.Body)}
	}

	var ar domain.AuthResponse
	if err := json.NewDecoder(resp.Body).Decode(&ar); err != nil {
		return nil, fmt.Errorf("decode auth response: %w", err)
	}
	return &ar.User, nil
}

// readDetail extracts the service's error detail field, if any. Bodies are
// small; a hard cap guards against a misbehaving upstream.
func readDetail(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil {
		return ""
	}
	var body struct {
		Detail string `json:"detail"`
		Error  string `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return ""
	}
	if body.Detail != "" {
		return body.Detail
	}
	return body.Error
}

// drain consumes and closes a response body so the connection can be reused.
func drain(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, 4096))
	_ = body.Close()
}
