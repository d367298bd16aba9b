package group

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var _ Store = (*PGStore)(nil)

// PGStore implements Store on PostgreSQL.
type PGStore struct {
	db *sql.DB
}

// NewPGStore wraps the given database handle.
func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

// Organizations -------------------------------------------------------------

func (s *PGStore) CreateOrganization(ctx context.Context, org *Organization) error {
	err := s.db.QueryRowContext(ctx,
		`insert into organizations(name, description, category, image_url, code, owner_id, created_at, updated_at)
		 values($1,$2,$3,$4,$5,$6,$7,$8) returning id`,
		org.Name, org.Description, org.Category, org.ImageURL, org.Code, org.OwnerID, org.CreatedAt, org.UpdatedAt,
	).Scan(&org.ID)
	if isUniqueViolation(err) {
		return ErrAlreadyExists
	}
	return err
}

func (s *PGStore) FindOrganization(ctx context.Context, id int) (*Organization, error) {
	row := s.db.QueryRowContext(ctx,
		`select id, name, description, category, image_url, code, owner_id, created_at, updated_at
		 from organizations where id=$1`, id)
	return scanOrganization(row)
}

func (s *PGStore) ListOrganizations(ctx context.Context) ([]*Organization, error) {
	rows, err := s.db.QueryContext(ctx,
		`select id, name, description, category, image_url, code, owner_id, created_at, updated_at
		 from organizations order by id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Organization
	for rows.Next() {
		var org Organization
		if err := rows.Scan(&org.ID, &org.Name, &org.Description, &org.Category, &org.ImageURL,
			&org.Code, &org.OwnerID, &org.CreatedAt, &org.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &org)
	}
	return out, rows.Err()
}

func (s *PGStore) UpdateOrganization(ctx context.Context, org *Organization) error {
	res, err := s.db.ExecContext(ctx,
		`update organizations set name=$2, description=$3, category=$4, image_url=$5, updated_at=$6 where id=$1`,
		org.ID, org.Name, org.Description, org.Category, org.ImageURL, org.UpdatedAt)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (s *PGStore) DeleteOrganization(ctx context.Context, id int) error {
	// Dependent rows go with the organization via ON DELETE CASCADE.
	res, err := s.db.ExecContext(ctx, `delete from organizations where id=$1`, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// Members -------------------------------------------------------------------

func (s *PGStore) AddMember(ctx context.Context, m *Member) error {
	_, err := s.db.ExecContext(ctx,
		`insert into members(organization_id, user_id, role, joined_at) values($1,$2,$3,$4)`,
		m.OrgID, m.UserID, m.Role, m.JoinedAt)
	if isUniqueViolation(err) {
		return ErrAlreadyExists
	}
	return err
}

func (s *PGStore) FindMember(ctx context.Context, orgID, userID int) (*Member, error) {
	var m Member
	err := s.db.QueryRowContext(ctx,
		`select organization_id, user_id, role, joined_at from members where organization_id=$1 and user_id=$2`,
		orgID, userID).Scan(&m.OrgID, &m.UserID, &m.Role, &m.JoinedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *PGStore) ListMembers(ctx context.Context, orgID int) ([]*MemberInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		`select m.user_id, u.username, u.email, m.role, m.joined_at
		 from members m join users u on u.id = m.user_id
		 where m.organization_id=$1 order by m.user_id`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*MemberInfo
	for rows.Next() {
		var info MemberInfo
		if err := rows.Scan(&info.UserID, &info.Username, &info.Email, &info.Role, &info.JoinedAt); err != nil {
			return nil, err
		}
		out = append(out, &info)
	}
	return out, rows.Err()
}

func (s *PGStore) RemoveMember(ctx context.Context, orgID, userID int) error {
	res, err := s.db.ExecContext(ctx,
		`delete from members where organization_id=$1 and user_id=$2`, orgID, userID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// Join requests -------------------------------------------------------------

func (s *PGStore) CreateJoinRequest(ctx context.Context, req *JoinRequest) error {
	return s.db.QueryRowContext(ctx,
		`insert into join_requests(organization_id, user_id, status, created_at)
		 values($1,$2,$3,$4) returning id`,
		req.OrgID, req.UserID, req.Status, req.CreatedAt,
	).Scan(&req.ID)
}

func (s *PGStore) FindJoinRequest(ctx context.Context, orgID, reqID int) (*JoinRequest, error) {
	var req JoinRequest
	err := s.db.QueryRowContext(ctx,
		`select id, organization_id, user_id, status, created_at, decided_at
		 from join_requests where organization_id=$1 and id=$2`,
		orgID, reqID).Scan(&req.ID, &req.OrgID, &req.UserID, &req.Status, &req.CreatedAt, &req.DecidedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (s *PGStore) ListOrgJoinRequests(ctx context.Context, orgID int) ([]*JoinRequest, error) {
	return s.listJoinRequests(ctx,
		`select id, organization_id, user_id, status, created_at, decided_at
		 from join_requests where organization_id=$1 order by id`, orgID)
}

func (s *PGStore) ListUserJoinRequests(ctx context.Context, userID int) ([]*JoinRequest, error) {
	return s.listJoinRequests(ctx,
		`select id, organization_id, user_id, status, created_at, decided_at
		 from join_requests where user_id=$1 order by id`, userID)
}

func (s *PGStore) listJoinRequests(ctx context.Context, query string, arg any) ([]*JoinRequest, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*JoinRequest
	for rows.Next() {
		var req JoinRequest
		if err := rows.Scan(&req.ID, &req.OrgID, &req.UserID, &req.Status, &req.CreatedAt, &req.DecidedAt); err != nil {
			return nil, err
		}
		out = append(out, &req)
	}
	return out, rows.Err()
}

func (s *PGStore) UpdateJoinRequest(ctx context.Context, req *JoinRequest) error {
	res, err := s.db.ExecContext(ctx,
		`update join_requests set status=$2, decided_at=$3 where id=$1`,
		req.ID, req.Status, req.DecidedAt)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (s *PGStore) HasPendingJoinRequest(ctx context.Context, orgID, userID int) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`select exists(select 1 from join_requests where organization_id=$1 and user_id=$2 and status=$3)`,
		orgID, userID, JoinPending).Scan(&exists)
	return exists, err
}

// Documents -----------------------------------------------------------------

func (s *PGStore) CreateDocument(ctx context.Context, d *Document) error {
	return s.db.QueryRowContext(ctx,
		`insert into documents(organization_id, author_id, title, content, created_at, updated_at)
		 values($1,$2,$3,$4,$5,$6) returning id`,
		d.OrgID, d.AuthorID, d.Title, d.Content, d.CreatedAt, d.UpdatedAt,
	).Scan(&d.ID)
}

func (s *PGStore) FindDocument(ctx context.Context, orgID, docID int) (*Document, error) {
	var d Document
	err := s.db.QueryRowContext(ctx,
		`select id, organization_id, author_id, title, content, created_at, updated_at
		 from documents where organization_id=$1 and id=$2`,
		orgID, docID).Scan(&d.ID, &d.OrgID, &d.AuthorID, &d.Title, &d.Content, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *PGStore) ListDocuments(ctx context.Context, orgID int) ([]*Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`select id, organization_id, author_id, title, content, created_at, updated_at
		 from documents where organization_id=$1 order by id`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Document
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.ID, &d.OrgID, &d.AuthorID, &d.Title, &d.Content, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &d)
	}
	return out, rows.Err()
}

func (s *PGStore) UpdateDocument(ctx context.Context, d *Document) error {
	res, err := s.db.ExecContext(ctx,
		`update documents set title=$3, content=$4, updated_at=$5 where organization_id=$1 and id=$2`,
		d.OrgID, d.ID, d.Title, d.Content, d.UpdatedAt)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (s *PGStore) DeleteDocument(ctx context.Context, orgID, docID int) error {
	res, err := s.db.ExecContext(ctx,
		`delete from documents where organization_id=$1 and id=$2`, orgID, docID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// Receipts ------------------------------------------------------------------

func (s *PGStore) CreateReceipt(ctx context.Context, r *Receipt) error {
	return s.db.QueryRowContext(ctx,
		`insert into receipts(organization_id, author_id, title, amount, used_at, memo, created_at, updated_at)
		 values($1,$2,$3,$4,$5,$6,$7,$8) returning id`,
		r.OrgID, r.AuthorID, r.Title, r.Amount, r.UsedAt, r.Memo, r.CreatedAt, r.UpdatedAt,
	).Scan(&r.ID)
}

func (s *PGStore) FindReceipt(ctx context.Context, orgID, receiptID int) (*Receipt, error) {
	var r Receipt
	err := s.db.QueryRowContext(ctx,
		`select id, organization_id, author_id, title, amount, used_at, memo, created_at, updated_at
		 from receipts where organization_id=$1 and id=$2`,
		orgID, receiptID).Scan(&r.ID, &r.OrgID, &r.AuthorID, &r.Title, &r.Amount, &r.UsedAt, &r.Memo, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *PGStore) ListReceipts(ctx context.Context, orgID int) ([]*Receipt, error) {
	rows, err := s.db.QueryContext(ctx,
		`select id, organization_id, author_id, title, amount, used_at, memo, created_at, updated_at
		 from receipts where organization_id=$1 order by id`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Receipt
	for rows.Next() {
		var r Receipt
		if err := rows.Scan(&r.ID, &r.OrgID, &r.AuthorID, &r.Title, &r.Amount, &r.UsedAt, &r.Memo, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &r)
	}
	return out, rows.Err()
}

func (s *PGStore) UpdateReceipt(ctx context.Context, r *Receipt) error {
	res, err := s.db.ExecContext(ctx,
		`update receipts set title=$3, amount=$4, used_at=$5, memo=$6, updated_at=$7
		 where organization_id=$1 and id=$2`,
		r.OrgID, r.ID, r.Title, r.Amount, r.UsedAt, r.Memo, r.UpdatedAt)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (s *PGStore) DeleteReceipt(ctx context.Context, orgID, receiptID int) error {
	res, err := s.db.ExecContext(ctx,
		`delete from receipts where organization_id=$1 and id=$2`, orgID, receiptID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// Announcements -------------------------------------------------------------

func (s *PGStore) CreateAnnouncement(ctx context.Context, a *Announcement) error {
	return s.db.QueryRowContext(ctx,
		`insert into announcements(organization_id, author_id, title, content, starred, created_at, updated_at)
		 values($1,$2,$3,$4,$5,$6,$7) returning id`,
		a.OrgID, a.AuthorID, a.Title, a.Content, a.Starred, a.CreatedAt, a.UpdatedAt,
	).Scan(&a.ID)
}

func (s *PGStore) FindAnnouncement(ctx context.Context, orgID, annID int) (*Announcement, error) {
	var a Announcement
	err := s.db.QueryRowContext(ctx,
		`select id, organization_id, author_id, title, content, starred, created_at, updated_at
		 from announcements where organization_id=$1 and id=$2`,
		orgID, annID).Scan(&a.ID, &a.OrgID, &a.AuthorID, &a.Title, &a.Content, &a.Starred, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *PGStore) ListAnnouncements(ctx context.Context, orgID int) ([]*Announcement, error) {
	return s.listAnnouncements(ctx,
		`select id, organization_id, author_id, title, content, starred, created_at, updated_at
		 from announcements where organization_id=$1 order by id`, orgID)
}

func (s *PGStore) ListStarredAnnouncements(ctx context.Context, orgID int) ([]*Announcement, error) {
	return s.listAnnouncements(ctx,
		`select id, organization_id, author_id, title, content, starred, created_at, updated_at
		 from announcements where organization_id=$1 and starred order by id`, orgID)
}

func (s *PGStore) SearchAnnouncements(ctx context.Context, orgID int, query string) ([]*Announcement, error) {
	return s.listAnnouncements(ctx,
		`select id, organization_id, author_id, title, content, starred, created_at, updated_at
		 from announcements where organization_id=$1 and title ilike '%' || $2 || '%' order by id`,
		orgID, query)
}

func (s *PGStore) listAnnouncements(ctx context.Context, query string, args ...any) ([]*Announcement, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Announcement
	for rows.Next() {
		var a Announcement
		if err := rows.Scan(&a.ID, &a.OrgID, &a.AuthorID, &a.Title, &a.Content, &a.Starred, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}

func (s *PGStore) UpdateAnnouncement(ctx context.Context, a *Announcement) error {
	res, err := s.db.ExecContext(ctx,
		`update announcements set title=$3, content=$4, starred=$5, updated_at=$6
		 where organization_id=$1 and id=$2`,
		a.OrgID, a.ID, a.Title, a.Content, a.Starred, a.UpdatedAt)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (s *PGStore) DeleteAnnouncement(ctx context.Context, orgID, annID int) error {
	res, err := s.db.ExecContext(ctx,
		`delete from announcements where organization_id=$1 and id=$2`, orgID, annID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// Schedules -----------------------------------------------------------------

func (s *PGStore) CreateSchedule(ctx context.Context, sched *Schedule) error {
	return s.db.QueryRowContext(ctx,
		`insert into schedules(organization_id, author_id, title, description, starts_at, ends_at, created_at, updated_at)
		 values($1,$2,$3,$4,$5,$6,$7,$8) returning id`,
		sched.OrgID, sched.AuthorID, sched.Title, sched.Description, sched.StartsAt, sched.EndsAt, sched.CreatedAt, sched.UpdatedAt,
	).Scan(&sched.ID)
}

func (s *PGStore) FindSchedule(ctx context.Context, orgID, scheduleID int) (*Schedule, error) {
	var sched Schedule
	err := s.db.QueryRowContext(ctx,
		`select id, organization_id, author_id, title, description, starts_at, ends_at, created_at, updated_at
		 from schedules where organization_id=$1 and id=$2`,
		orgID, scheduleID).Scan(&sched.ID, &sched.OrgID, &sched.AuthorID, &sched.Title, &sched.Description,
		&sched.StartsAt, &sched.EndsAt, &sched.CreatedAt, &sched.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sched, nil
}

func (s *PGStore) ListSchedules(ctx context.Context, orgID int) ([]*Schedule, error) {
	rows, err := s.db.QueryContext(ctx,
		`select id, organization_id, author_id, title, description, starts_at, ends_at, created_at, updated_at
		 from schedules where organization_id=$1 order by starts_at, id`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Schedule
	for rows.Next() {
		var sched Schedule
		if err := rows.Scan(&sched.ID, &sched.OrgID, &sched.AuthorID, &sched.Title, &sched.Description,
			&sched.StartsAt, &sched.EndsAt, &sched.CreatedAt, &sched.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &sched)
	}
	return out, rows.Err()
}

func (s *PGStore) UpdateSchedule(ctx context.Context, sched *Schedule) error {
	res, err := s.db.ExecContext(ctx,
		`update schedules set title=$3, description=$4, starts_at=$5, ends_at=$6, updated_at=$7
		 where organization_id=$1 and id=$2`,
		sched.OrgID, sched.ID, sched.Title, sched.Description, sched.StartsAt, sched.EndsAt, sched.UpdatedAt)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (s *PGStore) DeleteSchedule(ctx context.Context, orgID, scheduleID int) error {
	res, err := s.db.ExecContext(ctx,
		`delete from schedules where organization_id=$1 and id=$2`, orgID, scheduleID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func scanOrganization(row *sql.Row) (*Organization, error) {
	var org Organization
	if err := row.Scan(&org.ID, &org.Name, &org.Description, &org.Category, &org.ImageURL,
		&org.Code, &org.OwnerID, &org.CreatedAt, &org.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &org, nil
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
