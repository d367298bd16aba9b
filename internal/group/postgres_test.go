package group

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestPGStoreFindOrganizationNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	cols := []string{"id", "name", "description", "category", "image_url", "code", "owner_id", "created_at", "updated_at"}
	mock.ExpectQuery("select id, name, description, category, image_url, code, owner_id, created_at, updated_at").
		WithArgs(99).
		WillReturnRows(sqlmock.NewRows(cols))

	store := NewPGStore(db)
	if _, err := store.FindOrganization(context.Background(), 99); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGStoreAddMemberDuplicate(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("insert into members").
		WithArgs(5, 9, RoleMember, sqlmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	store := NewPGStore(db)
	m := &Member{UserID: 9, OrgID: 5, Role: RoleMember, JoinedAt: time.Now()}
	if err := store.AddMember(context.Background(), m); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestPGStoreHasPendingJoinRequest(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("select exists\\(select 1 from join_requests").
		WithArgs(5, 9, JoinPending).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	store := NewPGStore(db)
	pending, err := store.HasPendingJoinRequest(context.Background(), 5, 9)
	if err != nil || !pending {
		t.Fatalf("expected pending request: pending=%v err=%v", pending, err)
	}
}

func TestPGStoreDeleteDocumentScoped(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("delete from documents where organization_id=").
		WithArgs(5, 12).
		WillReturnResult(sqlmock.NewResult(0, 0))

	store := NewPGStore(db)
	if err := store.DeleteDocument(context.Background(), 5, 12); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
