package v1

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	return NewEngine(defaultClassifier(), NewLocalValidator(), "/login", "/dashboard")
}

func validToken(t *testing.T) string {
	t.Helper()
	return signedToken(t, jwt.MapClaims{"sub": "u1", "exp": time.Now().Add(time.Hour).Unix()})
}

func TestDecideProtectedWithoutCredential(t *testing.T) {
	e := newTestEngine(t)

	d := e.Decide(context.Background(), "/dashboard", "")
	if d.Outcome != OutcomeRedirectToLogin {
		t.Fatalf("Outcome = %v, want OutcomeRedirectToLogin", d.Outcome)
	}
	if d.RedirectURL != "/login?callbackUrl=%2Fdashboard" {
		t.Errorf("RedirectURL = %q, want /login?callbackUrl=%%2Fdashboard", d.RedirectURL)
	}
	if d.StripCredential {
		t.Error("StripCredential = true with no credential present")
	}
}

func TestDecideProtectedWithInvalidCredential(t *testing.T) {
	e := newTestEngine(t)

	d := e.Decide(context.Background(), "/interview/42", "abc")
	if d.Outcome != OutcomeRedirectToLogin {
		t.Fatalf("Outcome = %v, want OutcomeRedirectToLogin", d.Outcome)
	}
	if d.RedirectURL != "/login?callbackUrl=%2Finterview%2F42" {
		t.Errorf("RedirectURL = %q", d.RedirectURL)
	}
	if !d.StripCredential {
		t.Error("StripCredential = false, want true for present-but-invalid credential")
	}
}

func TestDecideProtectedWithValidCredential(t *testing.T) {
	e := newTestEngine(t)

	d := e.Decide(context.Background(), "/dashboard", validToken(t))
	if d.Outcome != OutcomeAllow {
		t.Fatalf("Outcome = %v, want OutcomeAllow", d.Outcome)
	}
	if d.StripCredential {
		t.Error("StripCredential = true for a valid credential")
	}
}

func TestDecideAuthOnly(t *testing.T) {
	e := newTestEngine(t)

	// Valid session on /login bounces to the landing page.
	d := e.Decide(context.Background(), "/login", validToken(t))
	if d.Outcome != OutcomeRedirectToHome || d.RedirectURL != "/dashboard" {
		t.Errorf("valid on /login: got (%v, %q), want (OutcomeRedirectToHome, /dashboard)", d.Outcome, d.RedirectURL)
	}

	// Invalid or absent session renders the auth form.
	d = e.Decide(context.Background(), "/login", "")
	if d.Outcome != OutcomeAllow {
		t.Errorf("no credential on /login: Outcome = %v, want OutcomeAllow", d.Outcome)
	}
}

func TestDecidePublicStripsInvalidCredential(t *testing.T) {
	e := newTestEngine(t)

	d := e.Decide(context.Background(), "/about", "abc")
	if d.Outcome != OutcomeAllow {
		t.Fatalf("Outcome = %v, want OutcomeAllow", d.Outcome)
	}
	if !d.StripCredential {
		t.Error("StripCredential = false, want true on public path with malformed cookie")
	}
}

func TestDecidePassThroughSkipsValidation(t *testing.T) {
	// Pass-through paths never reach the validator, even with a garbage
	// credential attached.
	authority := &fakeAuthority{}
	e := NewEngine(defaultClassifier(), NewRemoteValidator(authority, time.Second), "/login", "/dashboard")

	d := e.Decide(context.Background(), "/_next/static/chunk.js", "abc")
	if d.Outcome != OutcomeAllow || d.StripCredential {
		t.Errorf("got (%v, strip=%v), want (OutcomeAllow, strip=false)", d.Outcome, d.StripCredential)
	}
	if authority.VerifyCalls() != 0 {
		t.Errorf("VerifyCalls() = %d, want 0", authority.VerifyCalls())
	}
}

func TestDecideIsIdempotent(t *testing.T) {
	e := newTestEngine(t)
	token := validToken(t)

	for _, tc := range []struct {
		path string
		cred string
	}{
		{"/dashboard", ""},
		{"/dashboard", token},
		{"/login", token},
		{"/about", "abc"},
	} {
		first := e.Decide(context.Background(), tc.path, tc.cred)
		second := e.Decide(context.Background(), tc.path, tc.cred)
		if first.Outcome != second.Outcome ||
			first.RedirectURL != second.RedirectURL ||
			first.StripCredential != second.StripCredential {
			t.Errorf("Decide(%q) not idempotent: %+v vs %+v", tc.path, first, second)
		}
	}
}
