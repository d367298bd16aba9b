// Package memory provides a process-local store used by tests and by the
// API binary when no database DSN is configured. It implements the auth
// and group persistence interfaces behind a single mutex.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"grouple.org/internal/auth"
	"grouple.org/internal/group"
)

// Store holds all state in maps guarded by one RWMutex.
type Store struct {
	mu sync.RWMutex

	users         map[int]*auth.User
	orgs          map[int]*group.Organization
	members       map[int]map[int]*group.Member // orgID -> userID -> member
	joinRequests  map[int]*group.JoinRequest
	documents     map[int]*group.Document
	receipts      map[int]*group.Receipt
	announcements map[int]*group.Announcement
	schedules     map[int]*group.Schedule

	nextUserID    int
	nextOrgID     int
	nextRequestID int
	nextItemID    int
}

var (
	_ auth.UserStore     = (*Store)(nil)
	_ auth.RelationStore = (*Store)(nil)
	_ group.Store        = (*Store)(nil)
)

// New returns an empty store.
func New() *Store {
	return &Store{
		users:         make(map[int]*auth.User),
		orgs:          make(map[int]*group.Organization),
		members:       make(map[int]map[int]*group.Member),
		joinRequests:  make(map[int]*group.JoinRequest),
		documents:     make(map[int]*group.Document),
		receipts:      make(map[int]*group.Receipt),
		announcements: make(map[int]*group.Announcement),
		schedules:     make(map[int]*group.Schedule),
	}
}

// Users ---------------------------------------------------------------------

func (s *Store) Create(ctx context.Context, u *auth.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Username == u.Username {
			return auth.ErrAlreadyExists
		}
	}
	s.nextUserID++
	u.ID = s.nextUserID
	cp := *u
	s.users[u.ID] = &cp
	return nil
}

func (s *Store) Find(ctx context.Context, id int) (*auth.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, auth.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *Store) FindByUsername(ctx context.Context, username string) (*auth.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, auth.ErrNotFound
}

func (s *Store) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) Update(ctx context.Context, u *auth.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.ID]; !ok {
		return auth.ErrNotFound
	}
	cp := *u
	s.users[u.ID] = &cp
	return nil
}

func (s *Store) Delete(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return auth.ErrNotFound
	}
	delete(s.users, id)
	return nil
}

// Relations -----------------------------------------------------------------

func (s *Store) IsMember(ctx context.Context, orgID, userID int) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.members[orgID][userID]
	return ok, nil
}

func (s *Store) IsOwner(ctx context.Context, orgID, userID int) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	org, ok := s.orgs[orgID]
	return ok && org.OwnerID == userID, nil
}

// Organizations -------------------------------------------------------------

func (s *Store) CreateOrganization(ctx context.Context, org *group.Organization) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.orgs {
		if existing.Code == org.Code {
			return group.ErrAlreadyExists
		}
	}
	s.nextOrgID++
	org.ID = s.nextOrgID
	cp := *org
	s.orgs[org.ID] = &cp
	return nil
}

func (s *Store) FindOrganization(ctx context.Context, id int) (*group.Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	org, ok := s.orgs[id]
	if !ok {
		return nil, group.ErrNotFound
	}
	cp := *org
	return &cp, nil
}

func (s *Store) ListOrganizations(ctx context.Context) ([]*group.Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*group.Organization, 0, len(s.orgs))
	for _, org := range s.orgs {
		cp := *org
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) UpdateOrganization(ctx context.Context, org *group.Organization) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orgs[org.ID]; !ok {
		return group.ErrNotFound
	}
	cp := *org
	s.orgs[org.ID] = &cp
	return nil
}

func (s *Store) DeleteOrganization(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orgs[id]; !ok {
		return group.ErrNotFound
	}
	delete(s.orgs, id)
	delete(s.members, id)
	for reqID, req := range s.joinRequests {
		if req.OrgID == id {
			delete(s.joinRequests, reqID)
		}
	}
	for docID, d := range s.documents {
		if d.OrgID == id {
			delete(s.documents, docID)
		}
	}
	for recID, r := range s.receipts {
		if r.OrgID == id {
			delete(s.receipts, recID)
		}
	}
	for annID, a := range s.announcements {
		if a.OrgID == id {
			delete(s.announcements, annID)
		}
	}
	for schedID, sc := range s.schedules {
		if sc.OrgID == id {
			delete(s.schedules, schedID)
		}
	}
	return nil
}

// Members -------------------------------------------------------------------

func (s *Store) AddMember(ctx context.Context, m *group.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.members[m.OrgID][m.UserID]; ok {
		return group.ErrAlreadyExists
	}
	if s.members[m.OrgID] == nil {
		s.members[m.OrgID] = make(map[int]*group.Member)
	}
	cp := *m
	s.members[m.OrgID][m.UserID] = &cp
	return nil
}

func (s *Store) FindMember(ctx context.Context, orgID, userID int) (*group.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.members[orgID][userID]
	if !ok {
		return nil, group.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (s *Store) ListMembers(ctx context.Context, orgID int) ([]*group.MemberInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*group.MemberInfo, 0, len(s.members[orgID]))
	for _, m := range s.members[orgID] {
		info := &group.MemberInfo{
			UserID:   m.UserID,
			Role:     m.Role,
			JoinedAt: m.JoinedAt,
		}
		if u, ok := s.users[m.UserID]; ok {
			info.Username = u.Username
			info.Email = u.Email
		}
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (s *Store) RemoveMember(ctx context.Context, orgID, userID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.members[orgID][userID]; !ok {
		return group.ErrNotFound
	}
	delete(s.members[orgID], userID)
	return nil
}

// Join requests -------------------------------------------------------------

func (s *Store) CreateJoinRequest(ctx context.Context, req *group.JoinRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextRequestID++
	req.ID = s.nextRequestID
	cp := *req
	s.joinRequests[req.ID] = &cp
	return nil
}

func (s *Store) FindJoinRequest(ctx context.Context, orgID, reqID int) (*group.JoinRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	req, ok := s.joinRequests[reqID]
	if !ok || req.OrgID != orgID {
		return nil, group.ErrNotFound
	}
	cp := *req
	return &cp, nil
}

func (s *Store) ListOrgJoinRequests(ctx context.Context, orgID int) ([]*group.JoinRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*group.JoinRequest
	for _, req := range s.joinRequests {
		if req.OrgID == orgID {
			cp := *req
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) ListUserJoinRequests(ctx context.Context, userID int) ([]*group.JoinRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*group.JoinRequest
	for _, req := range s.joinRequests {
		if req.UserID == userID {
			cp := *req
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) UpdateJoinRequest(ctx context.Context, req *group.JoinRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.joinRequests[req.ID]; !ok {
		return group.ErrNotFound
	}
	cp := *req
	s.joinRequests[req.ID] = &cp
	return nil
}

func (s *Store) HasPendingJoinRequest(ctx context.Context, orgID, userID int) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, req := range s.joinRequests {
		if req.OrgID == orgID && req.UserID == userID && req.Status == group.JoinPending {
			return true, nil
		}
	}
	return false, nil
}

// Documents -----------------------------------------------------------------

func (s *Store) CreateDocument(ctx context.Context, d *group.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextItemID++
	d.ID = s.nextItemID
	cp := *d
	s.documents[d.ID] = &cp
	return nil
}

func (s *Store) FindDocument(ctx context.Context, orgID, docID int) (*group.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.documents[docID]
	if !ok || d.OrgID != orgID {
		return nil, group.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (s *Store) ListDocuments(ctx context.Context, orgID int) ([]*group.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*group.Document
	for _, d := range s.documents {
		if d.OrgID == orgID {
			cp := *d
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) UpdateDocument(ctx context.Context, d *group.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.documents[d.ID]
	if !ok || existing.OrgID != d.OrgID {
		return group.ErrNotFound
	}
	cp := *d
	s.documents[d.ID] = &cp
	return nil
}

func (s *Store) DeleteDocument(ctx context.Context, orgID, docID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.documents[docID]
	if !ok || d.OrgID != orgID {
		return group.ErrNotFound
	}
	delete(s.documents, docID)
	return nil
}

// Receipts ------------------------------------------------------------------

func (s *Store) CreateReceipt(ctx context.Context, r *group.Receipt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextItemID++
	r.ID = s.nextItemID
	cp := *r
	s.receipts[r.ID] = &cp
	return nil
}

func (s *Store) FindReceipt(ctx context.Context, orgID, receiptID int) (*group.Receipt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.receipts[receiptID]
	if !ok || r.OrgID != orgID {
		return nil, group.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *Store) ListReceipts(ctx context.Context, orgID int) ([]*group.Receipt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*group.Receipt
	for _, r := range s.receipts {
		if r.OrgID == orgID {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) UpdateReceipt(ctx context.Context, r *group.Receipt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.receipts[r.ID]
	if !ok || existing.OrgID != r.OrgID {
		return group.ErrNotFound
	}
	cp := *r
	s.receipts[r.ID] = &cp
	return nil
}

func (s *Store) DeleteReceipt(ctx context.Context, orgID, receiptID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.receipts[receiptID]
	if !ok || r.OrgID != orgID {
		return group.ErrNotFound
	}
	delete(s.receipts, receiptID)
	return nil
}

// Announcements -------------------------------------------------------------

func (s *Store) CreateAnnouncement(ctx context.Context, a *group.Announcement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextItemID++
	a.ID = s.nextItemID
	cp := *a
	s.announcements[a.ID] = &cp
	return nil
}

func (s *Store) FindAnnouncement(ctx context.Context, orgID, annID int) (*group.Announcement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.announcements[annID]
	if !ok || a.OrgID != orgID {
		return nil, group.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *Store) ListAnnouncements(ctx context.Context, orgID int) ([]*group.Announcement, error) {
	return s.listAnnouncements(orgID, func(*group.Announcement) bool { return true }), nil
}

func (s *Store) ListStarredAnnouncements(ctx context.Context, orgID int) ([]*group.Announcement, error) {
	return s.listAnnouncements(orgID, func(a *group.Announcement) bool { return a.Starred }), nil
}

func (s *Store) SearchAnnouncements(ctx context.Context, orgID int, query string) ([]*group.Announcement, error) {
	query = strings.ToLower(query)
	return s.listAnnouncements(orgID, func(a *group.Announcement) bool {
		return strings.Contains(strings.ToLower(a.Title), query)
	}), nil
}

func (s *Store) listAnnouncements(orgID int, keep func(*group.Announcement) bool) []*group.Announcement {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*group.Announcement
	for _, a := range s.announcements {
		if a.OrgID == orgID && keep(a) {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) UpdateAnnouncement(ctx context.Context, a *group.Announcement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.announcements[a.ID]
	if !ok || existing.OrgID != a.OrgID {
		return group.ErrNotFound
	}
	cp := *a
	s.announcements[a.ID] = &cp
	return nil
}

func (s *Store) DeleteAnnouncement(ctx context.Context, orgID, annID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.announcements[annID]
	if !ok || a.OrgID != orgID {
		return group.ErrNotFound
	}
	delete(s.announcements, annID)
	return nil
}

// Schedules -----------------------------------------------------------------

func (s *Store) CreateSchedule(ctx context.Context, sched *group.Schedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextItemID++
	sched.ID = s.nextItemID
	cp := *sched
	s.schedules[sched.ID] = &cp
	return nil
}

func (s *Store) FindSchedule(ctx context.Context, orgID, scheduleID int) (*group.Schedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sched, ok := s.schedules[scheduleID]
	if !ok || sched.OrgID != orgID {
		return nil, group.ErrNotFound
	}
	cp := *sched
	return &cp, nil
}

func (s *Store) ListSchedules(ctx context.Context, orgID int) ([]*group.Schedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*group.Schedule
	for _, sched := range s.schedules {
		if sched.OrgID == orgID {
			cp := *sched
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) UpdateSchedule(ctx context.Context, sched *group.Schedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.schedules[sched.ID]
	if !ok || existing.OrgID != sched.OrgID {
		return group.ErrNotFound
	}
	cp := *sched
	s.schedules[sched.ID] = &cp
	return nil
}

func (s *Store) DeleteSchedule(ctx context.Context, orgID, scheduleID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sched, ok := s.schedules[scheduleID]
	if !ok || sched.OrgID != orgID {
		return group.ErrNotFound
	}
	delete(s.schedules, scheduleID)
	return nil
}
