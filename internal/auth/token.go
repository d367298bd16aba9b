package auth

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims is the token payload: the registered subject carries the username,
// the "id" claim the numeric user id. Access and refresh tokens share this
// shape and differ only in lifetime.
type Claims struct {
	UserID int `json:"id"`
	jwt.RegisteredClaims
}

// TokenSigner issues and verifies HS256-signed compact tokens against a
// single process-wide secret. The secret is loaded once at startup and the
// signer is safe for concurrent use.
type TokenSigner struct {
	secret []byte
	now    func() time.Time
}

// SignerOption configures TokenSigner.
type SignerOption func(*TokenSigner)

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) SignerOption {
	return func(s *TokenSigner) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewTokenSigner constructs a signer for the given secret key.
func NewTokenSigner(secret []byte, opts ...SignerOption) (*TokenSigner, error) {
	if len(secret) == 0 {
		return nil, errors.New("auth: signing secret is empty")
	}
	s := &TokenSigner{secret: secret, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Issue signs a token for the user. It never fails for a well-formed user;
// a non-positive ttl simply yields an already-expired token.
func (s *TokenSigner) Issue(username string, userID int, ttl time.Duration) (string, error) {
	now := s.now().UTC()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and expiry and returns the embedded identity.
// Expiry is strict: a token is valid only while now < exp.
func (s *TokenSigner) Verify(token string) (Principal, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Principal{}, ErrTokenMalformed
	}
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrBadSignature
		}
		return s.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return Principal{}, classifyTokenError(err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return Principal{}, ErrTokenMalformed
	}
	if claims.UserID <= 0 || strings.TrimSpace(claims.Subject) == "" {
		return Principal{}, ErrTokenMalformed
	}
	return Principal{ID: claims.UserID, Username: claims.Subject}, nil
}

func classifyTokenError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrBadSignature
	default:
		return ErrTokenMalformed
	}
}

// DecodeSecret decodes the base64-encoded signing secret supplied via
// configuration.
func DecodeSecret(raw string) ([]byte, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, errors.New("auth: signing secret is not configured")
	}
	key, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("auth: decode signing secret: %w", err)
	}
	return key, nil
}
