package auth

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	_ UserStore     = (*PGStore)(nil)
	_ RelationStore = (*PGStore)(nil)
)

// PGStore implements UserStore and RelationStore on PostgreSQL.
type PGStore struct {
	db *sql.DB
}

// NewPGStore wraps the given database handle.
func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) Create(ctx context.Context, u *User) error {
	err := s.db.QueryRowContext(ctx,
		`insert into users(username, password_hash, email, phone, created_at)
		 values($1,$2,$3,$4,$5) returning id`,
		u.Username, u.PasswordHash, u.Email, u.Phone, u.CreatedAt,
	).Scan(&u.ID)
	if isUniqueViolation(err) {
		return ErrAlreadyExists
	}
	return err
}

func (s *PGStore) Find(ctx context.Context, id int) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		`select id, username, password_hash, email, phone, created_at from users where id=$1`, id)
	return scanUser(row)
}

func (s *PGStore) FindByUsername(ctx context.Context, username string) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		`select id, username, password_hash, email, phone, created_at from users where username=$1`, username)
	return scanUser(row)
}

func (s *PGStore) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`select exists(select 1 from users where username=$1)`, username).Scan(&exists)
	return exists, err
}

func (s *PGStore) Update(ctx context.Context, u *User) error {
	res, err := s.db.ExecContext(ctx,
		`update users set email=$2, phone=$3, password_hash=$4 where id=$1`,
		u.ID, u.Email, u.Phone, u.PasswordHash)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (s *PGStore) Delete(ctx context.Context, id int) error {
	res, err := s.db.ExecContext(ctx, `delete from users where id=$1`, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (s *PGStore) IsMember(ctx context.Context, orgID, userID int) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`select exists(select 1 from members where organization_id=$1 and user_id=$2)`,
		orgID, userID).Scan(&exists)
	return exists, err
}

func (s *PGStore) IsOwner(ctx context.Context, orgID, userID int) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`select exists(select 1 from organizations where id=$1 and owner_id=$2)`,
		orgID, userID).Scan(&exists)
	return exists, err
}

func scanUser(row *sql.Row) (*User, error) {
	var u User
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Email, &u.Phone, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
