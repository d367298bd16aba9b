package auth

import (
	"errors"
	"strings"
	"testing"
	"time"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func newTestSigner(t *testing.T, opts ...SignerOption) *TokenSigner {
	t.Helper()
	signer, err := NewTokenSigner(testSecret, opts...)
	if err != nil {
		t.Fatalf("NewTokenSigner: %v", err)
	}
	return signer
}

func TestTokenRoundTrip(t *testing.T) {
	signer := newTestSigner(t)

	token, err := signer.Issue("alice", 42, time.Minute)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}

	principal, err := signer.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if principal.Username != "alice" || principal.ID != 42 {
		t.Fatalf("unexpected principal: %+v", principal)
	}
}

func TestTokenZeroTTLIsExpired(t *testing.T) {
	signer := newTestSigner(t)

	token, err := signer.Issue("alice", 42, 0)
	if err != nil {
		t.Fatalf("Issue with zero ttl should not fail: %v", err)
	}
	_, err = signer.Verify(token)
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected expiry to match ErrInvalidToken family, got %v", err)
	}
}

func TestTokenExpiryIsStrict(t *testing.T) {
	base := time.Unix(1700000000, 0).UTC()
	current := base
	signer := newTestSigner(t, WithClock(func() time.Time { return current }))

	token, err := signer.Issue("alice", 42, time.Minute)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	current = base.Add(59 * time.Second)
	if _, err := signer.Verify(token); err != nil {
		t.Fatalf("token should still be valid one second before expiry: %v", err)
	}

	// now == exp counts as expired.
	current = base.Add(time.Minute)
	if _, err := signer.Verify(token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired at exact expiry, got %v", err)
	}
}

func TestTokenTamperedSignature(t *testing.T) {
	signer := newTestSigner(t)

	token, err := signer.Issue("alice", 42, time.Minute)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("expected compact three-part token, got %d parts", len(parts))
	}
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	tampered := parts[0] + "." + parts[1] + "." + string(sig)

	_, err = signer.Verify(tampered)
	if !errors.Is(err, ErrBadSignature) {
		t.Fatalf("expected ErrBadSignature, got %v", err)
	}
}

func TestTokenWrongSecret(t *testing.T) {
	signer := newTestSigner(t)
	other, err := NewTokenSigner([]byte("another-secret-another-secret-xx"))
	if err != nil {
		t.Fatalf("NewTokenSigner: %v", err)
	}

	token, err := signer.Issue("alice", 42, time.Minute)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := other.Verify(token); !errors.Is(err, ErrBadSignature) {
		t.Fatalf("expected ErrBadSignature, got %v", err)
	}
}

func TestTokenMalformed(t *testing.T) {
	signer := newTestSigner(t)
	for _, raw := range []string{"", "garbage", "a.b", "a.b.c"} {
		if _, err := signer.Verify(raw); !errors.Is(err, ErrTokenMalformed) {
			t.Fatalf("Verify(%q): expected ErrTokenMalformed, got %v", raw, err)
		}
	}
}

func TestDecodeSecret(t *testing.T) {
	key, err := DecodeSecret("c2VjcmV0LWtleQ==")
	if err != nil {
		t.Fatalf("DecodeSecret: %v", err)
	}
	if string(key) != "secret-key" {
		t.Fatalf("unexpected key: %q", key)
	}
	if _, err := DecodeSecret(""); err == nil {
		t.Fatal("expected error for empty secret")
	}
	if _, err := DecodeSecret("%%%not-base64%%%"); err == nil {
		t.Fatal("expected error for invalid base64")
	}
}
