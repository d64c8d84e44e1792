package v1

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("SignedString() unexpected error: %v", err)
	}
	return token
}

func TestLocalValidatorRejectsGarbage(t *testing.T) {
	v := NewLocalValidator()

	for _, cred := range []string{
		"",
		"undefined",
		"null",
		"abc",               // under minimum length
		"a.b",               // two segments
		"a.b.c.d",           // four segments
		"aaaa..bbbb",        // empty segment
		"aaaaa.bb+bb.ccccc", // non-base64url charset
	} {
		err := v.Validate(context.Background(), cred)
		if !errors.Is(err, ErrMalformedCredential) {
			t.Errorf("Validate(%q) = %v, want ErrMalformedCredential", cred, err)
		}
	}
}

func TestLocalValidatorExpiry(t *testing.T) {
	v := NewLocalValidator()

	expired := signedToken(t, jwt.MapClaims{"sub": "u1", "exp": time.Now().Add(-time.Hour).Unix()})
	if err := v.Validate(context.Background(), expired); !errors.Is(err, ErrExpiredCredential) {
		t.Errorf("expired token: got %v, want ErrExpiredCredential", err)
	}

	future := signedToken(t, jwt.MapClaims{"sub": "u1", "exp": time.Now().Add(time.Hour).Unix()})
	if err := v.Validate(context.Background(), future); err != nil {
		t.Errorf("future token: unexpected error %v", err)
	}
}

func TestLocalValidatorAcceptsNonExpiring(t *testing.T) {
	v := NewLocalValidator()

	token := signedToken(t, jwt.MapClaims{"sub": "u1"})
	if err := v.Validate(context.Background(), token); err != nil {
		t.Errorf("token without exp: unexpected error %v", err)
	}
}

func TestLocalValidatorRejectsUndecodablePayload(t *testing.T) {
	v := NewLocalValidator()

	// Three base64url segments, but the payload does not decode to JSON.
	err := v.Validate(context.Background(), "aaaaaa.bbbbbb.cccccc")
	if !errors.Is(err, ErrMalformedCredential) {
		t.Errorf("got %v, want ErrMalformedCredential", err)
	}
}

func TestLocalValidatorNeverVerifiesSignature(t *testing.T) {
	// A token signed with any key is accepted locally; signature checking
	// is the authorization service's job.
	v := NewLocalValidator()

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "u1",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("some-other-secret"))
	if err != nil {
		t.Fatalf("SignedString() unexpected error: %v", err)
	}

	if err := v.Validate(context.Background(), token); err != nil {
		t.Errorf("unexpected error %v", err)
	}
}
