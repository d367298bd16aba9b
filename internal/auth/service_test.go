package auth

import (
	"context"
	"errors"
	"testing"
	"time"
)

// fakeUsers is an in-memory UserStore for credential flow tests.
type fakeUsers struct {
	nextID int
	byID   map[int]*User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{nextID: 1, byID: make(map[int]*User)}
}

func (f *fakeUsers) Create(_ context.Context, u *User) error {
	u.ID = f.nextID
	f.nextID++
	cp := *u
	f.byID[u.ID] = &cp
	return nil
}

func (f *fakeUsers) Find(_ context.Context, id int) (*User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) FindByUsername(_ context.Context, username string) (*User, error) {
	for _, u := range f.byID {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakeUsers) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	_, err := f.FindByUsername(ctx, username)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (f *fakeUsers) Update(_ context.Context, u *User) error {
	if _, ok := f.byID[u.ID]; !ok {
		return ErrNotFound
	}
	cp := *u
	f.byID[u.ID] = &cp
	return nil
}

func (f *fakeUsers) Delete(_ context.Context, id int) error {
	if _, ok := f.byID[id]; !ok {
		return ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

func seedUser(t *testing.T, users *fakeUsers, username, password string) *User {
	t.Helper()
	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	u := &User{Username: username, PasswordHash: hash, Email: username + "@example.com", CreatedAt: time.Now().UTC()}
	if err := users.Create(context.Background(), u); err != nil {
		t.Fatalf("Create: %v", err)
	}
	return u
}

func TestLoginIssuesDistinctDecodablePair(t *testing.T) {
	users := newFakeUsers()
	alice := seedUser(t, users, "alice", "correct-pw")
	signer := newTestSigner(t)
	svc := NewService(users, signer)

	pair, err := svc.Login(context.Background(), "alice", "correct-pw")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("expected both tokens to be non-empty")
	}
	if pair.AccessToken == pair.RefreshToken {
		t.Fatal("access and refresh tokens must be distinct")
	}
	for _, token := range []string{pair.AccessToken, pair.RefreshToken} {
		p, err := signer.Verify(token)
		if err != nil {
			t.Fatalf("Verify: %v", err)
		}
		if p.Username != "alice" || p.ID != alice.ID {
			t.Fatalf("unexpected claims: %+v", p)
		}
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	users := newFakeUsers()
	seedUser(t, users, "alice", "correct-pw")
	svc := NewService(users, newTestSigner(t))

	// Unknown username and wrong password fail identically.
	if _, err := svc.Login(context.Background(), "nobody", "correct-pw"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown user: expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Login(context.Background(), "alice", "wrong-pw"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password: expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Login(context.Background(), "", ""); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("empty input: expected ErrInvalidCredentials, got %v", err)
	}
}

func TestRefreshIssuesNewPair(t *testing.T) {
	users := newFakeUsers()
	alice := seedUser(t, users, "alice", "correct-pw")
	signer := newTestSigner(t)
	svc := NewService(users, signer)

	first, err := svc.Login(context.Background(), "alice", "correct-pw")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	second, err := svc.Refresh(context.Background(), first.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if second.AccessToken == "" || second.RefreshToken == "" {
		t.Fatal("expected fresh pair")
	}
	p, err := signer.Verify(second.AccessToken)
	if err != nil || p.ID != alice.ID {
		t.Fatalf("new access token should decode to alice: %+v, %v", p, err)
	}
}

func TestRefreshWithExpiredToken(t *testing.T) {
	users := newFakeUsers()
	alice := seedUser(t, users, "alice", "correct-pw")

	base := time.Unix(1700000000, 0).UTC()
	current := base
	signer := newTestSigner(t, WithClock(func() time.Time { return current }))
	svc := NewService(users, signer)

	// An access token past its expiry presented to refresh: fails with
	// Expired and no new tokens come out.
	expired, err := signer.Issue(alice.Username, alice.ID, accessTokenTTL)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	current = base.Add(accessTokenTTL + time.Second)

	pair, err := svc.Refresh(context.Background(), expired)
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
	if pair.AccessToken != "" || pair.RefreshToken != "" {
		t.Fatal("no tokens may be issued from an expired refresh")
	}
}

func TestRefreshAfterUserDeleted(t *testing.T) {
	users := newFakeUsers()
	alice := seedUser(t, users, "alice", "correct-pw")
	signer := newTestSigner(t)
	svc := NewService(users, signer)

	pair, err := svc.Login(context.Background(), "alice", "correct-pw")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if err := users.Delete(context.Background(), alice.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := svc.Refresh(context.Background(), pair.RefreshToken); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for vanished user, got %v", err)
	}
}

func TestRegister(t *testing.T) {
	users := newFakeUsers()
	svc := NewService(users, newTestSigner(t))

	u, err := svc.Register(context.Background(), "bob", "hunter2", "bob@example.com", "010-0000")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if u.ID == 0 || u.PasswordHash == "hunter2" {
		t.Fatalf("user not stored correctly: %+v", u)
	}

	if _, err := svc.Register(context.Background(), "bob", "other", "", ""); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("duplicate username: expected ErrAlreadyExists, got %v", err)
	}
	if _, err := svc.Register(context.Background(), "", "pw", "", ""); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("empty username: expected ErrInvalidInput, got %v", err)
	}

	available, err := svc.UsernameAvailable(context.Background(), "bob")
	if err != nil || available {
		t.Fatalf("bob should be taken: available=%v err=%v", available, err)
	}
	available, err = svc.UsernameAvailable(context.Background(), "carol")
	if err != nil || !available {
		t.Fatalf("carol should be available: available=%v err=%v", available, err)
	}
}

func TestUpdateProfile(t *testing.T) {
	users := newFakeUsers()
	alice := seedUser(t, users, "alice", "correct-pw")
	svc := NewService(users, newTestSigner(t))

	email := "new@example.com"
	password := "new-pw"
	updated, err := svc.UpdateProfile(context.Background(), alice.ID, ProfileUpdate{Email: &email, Password: &password})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if updated.Email != email {
		t.Fatalf("email not updated: %q", updated.Email)
	}
	if err := VerifyPassword(updated.PasswordHash, "new-pw"); err != nil {
		t.Fatalf("new password should verify: %v", err)
	}
	// Unchanged fields stay put.
	if updated.Phone != alice.Phone {
		t.Fatalf("phone changed unexpectedly: %q", updated.Phone)
	}
}
