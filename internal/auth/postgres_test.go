package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPGStoreFindByUsername(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "username", "password_hash", "email", "phone", "created_at"}).
		AddRow(7, "alice", "$2a$10$hash", "alice@example.com", "010-1234", now)
	mock.ExpectQuery("select id, username, password_hash, email, phone, created_at from users where username=").
		WithArgs("alice").
		WillReturnRows(rows)

	store := NewPGStore(db)
	user, err := store.FindByUsername(context.Background(), "alice")
	if err != nil {
		t.Fatalf("FindByUsername: %v", err)
	}
	if user.ID != 7 || user.Username != "alice" {
		t.Fatalf("unexpected user: %+v", user)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPGStoreFindNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("select id, username, password_hash, email, phone, created_at from users where id=").
		WithArgs(99).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password_hash", "email", "phone", "created_at"}))

	store := NewPGStore(db)
	if _, err := store.Find(context.Background(), 99); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGStoreIsMember(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("select exists\\(select 1 from members where organization_id=").
		WithArgs(5, 9).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery("select exists\\(select 1 from members where organization_id=").
		WithArgs(5, 11).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	store := NewPGStore(db)
	ok, err := store.IsMember(context.Background(), 5, 9)
	if err != nil || !ok {
		t.Fatalf("expected membership: ok=%v err=%v", ok, err)
	}
	ok, err = store.IsMember(context.Background(), 5, 11)
	if err != nil || ok {
		t.Fatalf("expected no membership: ok=%v err=%v", ok, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPGStoreIsOwner(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("select exists\\(select 1 from organizations where id=").
		WithArgs(5, 7).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	store := NewPGStore(db)
	ok, err := store.IsOwner(context.Background(), 5, 7)
	if err != nil || !ok {
		t.Fatalf("expected ownership: ok=%v err=%v", ok, err)
	}
}

func TestPGStoreDeleteMissingUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("delete from users where id=").
		WithArgs(42).
		WillReturnResult(sqlmock.NewResult(0, 0))

	store := NewPGStore(db)
	if err := store.Delete(context.Background(), 42); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
