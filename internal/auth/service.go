package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	// Fixed lifetimes; the two token kinds are structurally identical and
	// differ only here.
	accessTokenTTL  = 15 * time.Minute
	refreshTokenTTL = 24 * time.Hour
)

// TokenPair is the credential issued on login and refresh. The JSON field
// names are a stable client contract.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Service implements the credential flow: registration, login and refresh.
type Service struct {
	users  UserStore
	signer *TokenSigner
}

// NewService constructs the credential service.
func NewService(users UserStore, signer *TokenSigner) *Service {
	return &Service{users: users, signer: signer}
}

// Login verifies the password and issues an access/refresh pair. Unknown
// username and wrong password produce the same ErrInvalidCredentials so the
// response does not reveal which field was wrong.
func (s *Service) Login(ctx context.Context, username, password string) (TokenPair, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return TokenPair{}, ErrInvalidCredentials
	}
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return TokenPair{}, ErrInvalidCredentials
		}
		return TokenPair{}, err
	}
	if err := VerifyPassword(user.PasswordHash, password); err != nil {
		return TokenPair{}, ErrInvalidCredentials
	}
	return s.issuePair(user)
}

// Refresh verifies a refresh token, re-resolves the user and issues a brand
// new pair. The old refresh token stays cryptographically valid until its own
// expiry; there is no rotation bookkeeping.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	principal, err := s.signer.Verify(refreshToken)
	if err != nil {
		return TokenPair{}, err
	}
	user, err := s.users.Find(ctx, principal.ID)
	if err != nil {
		return TokenPair{}, err
	}
	return s.issuePair(user)
}

func (s *Service) issuePair(user *User) (TokenPair, error) {
	access, err := s.signer.Issue(user.Username, user.ID, accessTokenTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.signer.Issue(user.Username, user.ID, refreshTokenTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Register creates a new account with a bcrypt-hashed password.
func (s *Service) Register(ctx context.Context, username, password, email, phone string) (*User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", ErrInvalidInput)
	}
	taken, err := s.users.ExistsByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrAlreadyExists
	}
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	user := &User{
		Username:     username,
		PasswordHash: hash,
		Email:        strings.TrimSpace(email),
		Phone:        strings.TrimSpace(phone),
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// UsernameAvailable reports whether the username is free to register.
func (s *Service) UsernameAvailable(ctx context.Context, username string) (bool, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return false, fmt.Errorf("%w: username is required", ErrInvalidInput)
	}
	taken, err := s.users.ExistsByUsername(ctx, username)
	if err != nil {
		return false, err
	}
	return !taken, nil
}

// GetUser loads a user by id.
func (s *Service) GetUser(ctx context.Context, id int) (*User, error) {
	return s.users.Find(ctx, id)
}

// ProfileUpdate carries the optional fields of a profile modification; nil
// means "leave unchanged".
type ProfileUpdate struct {
	Email    *string
	Phone    *string
	Password *string
}

// UpdateProfile applies a partial update to the user's own profile. The
// authorization check (self only) happens at the call site.
func (s *Service) UpdateProfile(ctx context.Context, id int, upd ProfileUpdate) (*User, error) {
	user, err := s.users.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if upd.Email != nil {
		user.Email = strings.TrimSpace(*upd.Email)
	}
	if upd.Phone != nil {
		user.Phone = strings.TrimSpace(*upd.Phone)
	}
	if upd.Password != nil {
		hash, err := HashPassword(*upd.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// DeleteUser removes the account.
func (s *Service) DeleteUser(ctx context.Context, id int) error {
	return s.users.Delete(ctx, id)
}
