package auth

import (
	"errors"
	"fmt"
)

// ErrInvalidToken is the umbrella failure for token verification. The three
// reason errors below wrap it, so callers can match either the family or the
// exact cause with errors.Is.
var (
	ErrInvalidToken = errors.New("auth: invalid token")

	ErrTokenMalformed = fmt.Errorf("%w: malformed", ErrInvalidToken)
	ErrTokenExpired   = fmt.Errorf("%w: expired", ErrInvalidToken)
	ErrBadSignature   = fmt.Errorf("%w: bad signature", ErrInvalidToken)
)

var (
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrUnauthenticated    = errors.New("auth: unauthenticated")
	ErrNotFound           = errors.New("auth: not found")
	ErrAlreadyExists      = errors.New("auth: already exists")
	ErrInvalidInput       = errors.New("auth: invalid input")
)
