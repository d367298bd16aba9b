package group

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Service implements the business operations of the group domain. It never
// performs authorization: handlers run the policy predicates before calling
// in, so the same operations stay usable from non-HTTP contexts.
type Service struct {
	store Store
	now   func() time.Time
}

// ServiceOption configures Service.
type ServiceOption func(*Service)

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewService constructs the group service.
func NewService(store Store, opts ...ServiceOption) *Service {
	s := &Service{store: store, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Organizations ------------------------------------------------------------

// OrgInput carries the writable organization fields.
type OrgInput struct {
	Name        string
	Description string
	Category    string
	ImageURL    string
}

// OrgUpdate is a partial organization update; nil leaves a field unchanged.
type OrgUpdate struct {
	Name        *string
	Description *string
	Category    *string
	ImageURL    *string
}

// CreateOrganization creates an organization owned by ownerID and inserts
// the owner as its first member.
func (s *Service) CreateOrganization(ctx context.Context, ownerID int, in OrgInput) (*Organization, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("%w: organization name is required", ErrInvalidInput)
	}
	now := s.now().UTC()
	org := &Organization{
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Category:    in.Category,
		ImageURL:    in.ImageURL,
		Code:        newInviteCode(),
		OwnerID:     ownerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.CreateOrganization(ctx, org); err != nil {
		return nil, err
	}
	member := &Member{UserID: ownerID, OrgID: org.ID, Role: RoleOwner, JoinedAt: now}
	if err := s.store.AddMember(ctx, member); err != nil {
		return nil, err
	}
	return org, nil
}

// GetOrganization loads one organization.
func (s *Service) GetOrganization(ctx context.Context, orgID int) (*Organization, error) {
	return s.store.FindOrganization(ctx, orgID)
}

// ListOrganizations returns all organizations.
func (s *Service) ListOrganizations(ctx context.Context) ([]*Organization, error) {
	return s.store.ListOrganizations(ctx)
}

// UpdateOrganization applies a partial update.
func (s *Service) UpdateOrganization(ctx context.Context, orgID int, upd OrgUpdate) (*Organization, error) {
	org, err := s.store.FindOrganization(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if upd.Name != nil {
		if strings.TrimSpace(*upd.Name) == "" {
			return nil, fmt.Errorf("%w: organization name is required", ErrInvalidInput)
		}
		org.Name = strings.TrimSpace(*upd.Name)
	}
	if upd.Description != nil {
		org.Description = *upd.Description
	}
	if upd.Category != nil {
		org.Category = *upd.Category
	}
	if upd.ImageURL != nil {
		org.ImageURL = *upd.ImageURL
	}
	org.UpdatedAt = s.now().UTC()
	if err := s.store.UpdateOrganization(ctx, org); err != nil {
		return nil, err
	}
	return org, nil
}

// DeleteOrganization removes the organization and, via the store, its
// dependent rows.
func (s *Service) DeleteOrganization(ctx context.Context, orgID int) error {
	return s.store.DeleteOrganization(ctx, orgID)
}

// Members ------------------------------------------------------------------

// ListMembers returns the organization's members, optionally filtered by
// role (case-insensitive).
func (s *Service) ListMembers(ctx context.Context, orgID int, roleFilter string) ([]*MemberInfo, error) {
	if _, err := s.store.FindOrganization(ctx, orgID); err != nil {
		return nil, err
	}
	members, err := s.store.ListMembers(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if roleFilter == "" {
		return members, nil
	}
	filtered := members[:0]
	for _, m := range members {
		if strings.EqualFold(m.Role, roleFilter) {
			filtered = append(filtered, m)
		}
	}
	return filtered, nil
}

// GetMember loads a single membership row.
func (s *Service) GetMember(ctx context.Context, orgID, userID int) (*Member, error) {
	return s.store.FindMember(ctx, orgID, userID)
}

// RemoveMember deletes a membership. The owner cannot be removed; ownership
// transfer is not supported, delete the organization instead.
func (s *Service) RemoveMember(ctx context.Context, orgID, userID int) error {
	org, err := s.store.FindOrganization(ctx, orgID)
	if err != nil {
		return err
	}
	if org.OwnerID == userID {
		return fmt.Errorf("%w: the owner cannot leave their organization", ErrConflict)
	}
	return s.store.RemoveMember(ctx, orgID, userID)
}

// Join requests ------------------------------------------------------------

// RequestJoin files a join request. Fails with ErrConflict when the user is
// already a member or has a pending request.
func (s *Service) RequestJoin(ctx context.Context, orgID, userID int) (*JoinRequest, error) {
	if _, err := s.store.FindOrganization(ctx, orgID); err != nil {
		return nil, err
	}
	if _, err := s.store.FindMember(ctx, orgID, userID); err == nil {
		return nil, fmt.Errorf("%w: already a member", ErrConflict)
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	pending, err := s.store.HasPendingJoinRequest(ctx, orgID, userID)
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, fmt.Errorf("%w: a join request is already pending", ErrConflict)
	}
	req := &JoinRequest{OrgID: orgID, UserID: userID, Status: JoinPending, CreatedAt: s.now().UTC()}
	if err := s.store.CreateJoinRequest(ctx, req); err != nil {
		return nil, err
	}
	return req, nil
}

// ListOrgJoinRequests lists requests filed against an organization.
func (s *Service) ListOrgJoinRequests(ctx context.Context, orgID int) ([]*JoinRequest, error) {
	if _, err := s.store.FindOrganization(ctx, orgID); err != nil {
		return nil, err
	}
	return s.store.ListOrgJoinRequests(ctx, orgID)
}

// ListUserJoinRequests lists the requests a user has filed.
func (s *Service) ListUserJoinRequests(ctx context.Context, userID int) ([]*JoinRequest, error) {
	return s.store.ListUserJoinRequests(ctx, userID)
}

// GetJoinRequest loads one request scoped to the organization.
func (s *Service) GetJoinRequest(ctx context.Context, orgID, reqID int) (*JoinRequest, error) {
	return s.store.FindJoinRequest(ctx, orgID, reqID)
}

// ApproveJoinRequest approves a pending request and inserts the membership.
func (s *Service) ApproveJoinRequest(ctx context.Context, orgID, reqID int) (*JoinRequest, error) {
	return s.decideJoinRequest(ctx, orgID, reqID, JoinApproved)
}

// RejectJoinRequest rejects a pending request.
func (s *Service) RejectJoinRequest(ctx context.Context, orgID, reqID int) (*JoinRequest, error) {
	return s.decideJoinRequest(ctx, orgID, reqID, JoinRejected)
}

func (s *Service) decideJoinRequest(ctx context.Context, orgID, reqID int, status string) (*JoinRequest, error) {
	req, err := s.store.FindJoinRequest(ctx, orgID, reqID)
	if err != nil {
		return nil, err
	}
	if req.Status != JoinPending {
		return nil, fmt.Errorf("%w: join request already %s", ErrConflict, req.Status)
	}
	now := s.now().UTC()
	req.Status = status
	req.DecidedAt = &now
	if err := s.store.UpdateJoinRequest(ctx, req); err != nil {
		return nil, err
	}
	if status == JoinApproved {
		member := &Member{UserID: req.UserID, OrgID: orgID, Role: RoleMember, JoinedAt: now}
		if err := s.store.AddMember(ctx, member); err != nil && !errors.Is(err, ErrAlreadyExists) {
			return nil, err
		}
	}
	return req, nil
}

// Documents ----------------------------------------------------------------

// DocumentInput carries the writable document fields.
type DocumentInput struct {
	Title   string
	Content string
}

// CreateDocument stores a new document authored by authorID.
func (s *Service) CreateDocument(ctx context.Context, orgID, authorID int, in DocumentInput) (*Document, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	now := s.now().UTC()
	doc := &Document{
		OrgID:     orgID,
		AuthorID:  authorID,
		Title:     strings.TrimSpace(in.Title),
		Content:   in.Content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateDocument(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// GetDocument loads one document scoped to the organization.
func (s *Service) GetDocument(ctx context.Context, orgID, docID int) (*Document, error) {
	return s.store.FindDocument(ctx, orgID, docID)
}

// ListDocuments lists the organization's documents.
func (s *Service) ListDocuments(ctx context.Context, orgID int) ([]*Document, error) {
	return s.store.ListDocuments(ctx, orgID)
}

// UpdateDocument replaces the document body.
func (s *Service) UpdateDocument(ctx context.Context, orgID, docID int, in DocumentInput) (*Document, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	doc, err := s.store.FindDocument(ctx, orgID, docID)
	if err != nil {
		return nil, err
	}
	doc.Title = strings.TrimSpace(in.Title)
	doc.Content = in.Content
	doc.UpdatedAt = s.now().UTC()
	if err := s.store.UpdateDocument(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// DeleteDocument removes a document.
func (s *Service) DeleteDocument(ctx context.Context, orgID, docID int) error {
	return s.store.DeleteDocument(ctx, orgID, docID)
}

// Receipts -----------------------------------------------------------------

// ReceiptInput carries the writable receipt fields. Amount is in minor
// currency units.
type ReceiptInput struct {
	Title  string
	Amount int64
	UsedAt time.Time
	Memo   string
}

// CreateReceipt stores a new receipt authored by authorID.
func (s *Service) CreateReceipt(ctx context.Context, orgID, authorID int, in ReceiptInput) (*Receipt, error) {
	if err := validateReceipt(in); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	rec := &Receipt{
		OrgID:     orgID,
		AuthorID:  authorID,
		Title:     strings.TrimSpace(in.Title),
		Amount:    in.Amount,
		UsedAt:    in.UsedAt,
		Memo:      in.Memo,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateReceipt(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// GetReceipt loads one receipt scoped to the organization.
func (s *Service) GetReceipt(ctx context.Context, orgID, receiptID int) (*Receipt, error) {
	return s.store.FindReceipt(ctx, orgID, receiptID)
}

// ListReceipts lists the organization's receipts.
func (s *Service) ListReceipts(ctx context.Context, orgID int) ([]*Receipt, error) {
	return s.store.ListReceipts(ctx, orgID)
}

// UpdateReceipt replaces the receipt body.
func (s *Service) UpdateReceipt(ctx context.Context, orgID, receiptID int, in ReceiptInput) (*Receipt, error) {
	if err := validateReceipt(in); err != nil {
		return nil, err
	}
	rec, err := s.store.FindReceipt(ctx, orgID, receiptID)
	if err != nil {
		return nil, err
	}
	rec.Title = strings.TrimSpace(in.Title)
	rec.Amount = in.Amount
	rec.UsedAt = in.UsedAt
	rec.Memo = in.Memo
	rec.UpdatedAt = s.now().UTC()
	if err := s.store.UpdateReceipt(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// DeleteReceipt removes a receipt.
func (s *Service) DeleteReceipt(ctx context.Context, orgID, receiptID int) error {
	return s.store.DeleteReceipt(ctx, orgID, receiptID)
}

func validateReceipt(in ReceiptInput) error {
	if strings.TrimSpace(in.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if in.Amount < 0 {
		return fmt.Errorf("%w: amount must not be negative", ErrInvalidInput)
	}
	return nil
}

// Announcements ------------------------------------------------------------

// AnnouncementInput carries the writable announcement fields.
type AnnouncementInput struct {
	Title   string
	Content string
}

// AnnouncementUpdate is a partial update; nil leaves a field unchanged.
type AnnouncementUpdate struct {
	Title   *string
	Content *string
}

// CreateAnnouncement stores a new announcement authored by authorID.
func (s *Service) CreateAnnouncement(ctx context.Context, orgID, authorID int, in AnnouncementInput) (*Announcement, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	now := s.now().UTC()
	ann := &Announcement{
		OrgID:     orgID,
		AuthorID:  authorID,
		Title:     strings.TrimSpace(in.Title),
		Content:   in.Content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateAnnouncement(ctx, ann); err != nil {
		return nil, err
	}
	return ann, nil
}

// GetAnnouncement loads one announcement scoped to the organization.
func (s *Service) GetAnnouncement(ctx context.Context, orgID, annID int) (*Announcement, error) {
	return s.store.FindAnnouncement(ctx, orgID, annID)
}

// ListAnnouncements lists the organization's announcements.
func (s *Service) ListAnnouncements(ctx context.Context, orgID int) ([]*Announcement, error) {
	return s.store.ListAnnouncements(ctx, orgID)
}

// ListStarredAnnouncements lists only starred announcements.
func (s *Service) ListStarredAnnouncements(ctx context.Context, orgID int) ([]*Announcement, error) {
	return s.store.ListStarredAnnouncements(ctx, orgID)
}

// SearchAnnouncements finds announcements whose title contains the query,
// case-insensitively.
func (s *Service) SearchAnnouncements(ctx context.Context, orgID int, query string) ([]*Announcement, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: search query is required", ErrInvalidInput)
	}
	return s.store.SearchAnnouncements(ctx, orgID, query)
}

// UpdateAnnouncement applies a partial update.
func (s *Service) UpdateAnnouncement(ctx context.Context, orgID, annID int, upd AnnouncementUpdate) (*Announcement, error) {
	ann, err := s.store.FindAnnouncement(ctx, orgID, annID)
	if err != nil {
		return nil, err
	}
	if upd.Title != nil {
		if strings.TrimSpace(*upd.Title) == "" {
			return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
		}
		ann.Title = strings.TrimSpace(*upd.Title)
	}
	if upd.Content != nil {
		ann.Content = *upd.Content
	}
	ann.UpdatedAt = s.now().UTC()
	if err := s.store.UpdateAnnouncement(ctx, ann); err != nil {
		return nil, err
	}
	return ann, nil
}

// ToggleAnnouncementStar flips the starred flag and returns the new state.
func (s *Service) ToggleAnnouncementStar(ctx context.Context, orgID, annID int) (*Announcement, error) {
	ann, err := s.store.FindAnnouncement(ctx, orgID, annID)
	if err != nil {
		return nil, err
	}
	ann.Starred = !ann.Starred
	ann.UpdatedAt = s.now().UTC()
	if err := s.store.UpdateAnnouncement(ctx, ann); err != nil {
		return nil, err
	}
	return ann, nil
}

// DeleteAnnouncement removes an announcement.
func (s *Service) DeleteAnnouncement(ctx context.Context, orgID, annID int) error {
	return s.store.DeleteAnnouncement(ctx, orgID, annID)
}

// Schedules ----------------------------------------------------------------

// ScheduleInput carries the writable schedule fields.
type ScheduleInput struct {
	Title       string
	Description string
	StartsAt    time.Time
	EndsAt      time.Time
}

// ScheduleUpdate is a partial update; nil leaves a field unchanged.
type ScheduleUpdate struct {
	Title       *string
	Description *string
	StartsAt    *time.Time
	EndsAt      *time.Time
}

// CreateSchedule stores a new schedule entry authored by authorID.
func (s *Service) CreateSchedule(ctx context.Context, orgID, authorID int, in ScheduleInput) (*Schedule, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if !in.EndsAt.IsZero() && in.EndsAt.Before(in.StartsAt) {
		return nil, fmt.Errorf("%w: schedule must not end before it starts", ErrInvalidInput)
	}
	now := s.now().UTC()
	sched := &Schedule{
		OrgID:       orgID,
		AuthorID:    authorID,
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		StartsAt:    in.StartsAt,
		EndsAt:      in.EndsAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.CreateSchedule(ctx, sched); err != nil {
		return nil, err
	}
	return sched, nil
}

// GetSchedule loads one schedule entry scoped to the organization.
func (s *Service) GetSchedule(ctx context.Context, orgID, scheduleID int) (*Schedule, error) {
	return s.store.FindSchedule(ctx, orgID, scheduleID)
}

// ListSchedules lists the organization's schedule entries.
func (s *Service) ListSchedules(ctx context.Context, orgID int) ([]*Schedule, error) {
	return s.store.ListSchedules(ctx, orgID)
}

// UpdateSchedule applies a partial update.
func (s *Service) UpdateSchedule(ctx context.Context, orgID, scheduleID int, upd ScheduleUpdate) (*Schedule, error) {
	sched, err := s.store.FindSchedule(ctx, orgID, scheduleID)
	if err != nil {
		return nil, err
	}
	if upd.Title != nil {
		if strings.TrimSpace(*upd.Title) == "" {
			return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
		}
		sched.Title = strings.TrimSpace(*upd.Title)
	}
	if upd.Description != nil {
		sched.Description = *upd.Description
	}
	if upd.StartsAt != nil {
		sched.StartsAt = *upd.StartsAt
	}
	if upd.EndsAt != nil {
		sched.EndsAt = *upd.EndsAt
	}
	if !sched.EndsAt.IsZero() && sched.EndsAt.Before(sched.StartsAt) {
		return nil, fmt.Errorf("%w: schedule must not end before it starts", ErrInvalidInput)
	}
	sched.UpdatedAt = s.now().UTC()
	if err := s.store.UpdateSchedule(ctx, sched); err != nil {
		return nil, err
	}
	return sched, nil
}

// DeleteSchedule removes a schedule entry.
func (s *Service) DeleteSchedule(ctx context.Context, orgID, scheduleID int) error {
	return s.store.DeleteSchedule(ctx, orgID, scheduleID)
}

// newInviteCode derives a short uppercase invite code from a fresh UUID.
// Collisions surface as a unique violation on insert.
func newInviteCode() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return strings.ToUpper(raw[:6])
}
