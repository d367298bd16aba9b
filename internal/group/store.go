package group

import "context"

// Store is the persistence surface of the group domain. Implementations:
// the Postgres store in this package and the in-memory store under
// internal/store/memory.
type Store interface {
	OrganizationStore
	MemberStore
	JoinRequestStore
	DocumentStore
	ReceiptStore
	AnnouncementStore
	ScheduleStore
}

// OrganizationStore manages organizations.
type OrganizationStore interface {
	CreateOrganization(ctx context.Context, org *Organization) error
	FindOrganization(ctx context.Context, id int) (*Organization, error)
	ListOrganizations(ctx context.Context) ([]*Organization, error)
	UpdateOrganization(ctx context.Context, org *Organization) error
	DeleteOrganization(ctx context.Context, id int) error
}

// MemberStore manages membership rows.
type MemberStore interface {
	AddMember(ctx context.Context, m *Member) error
	FindMember(ctx context.Context, orgID, userID int) (*Member, error)
	ListMembers(ctx context.Context, orgID int) ([]*MemberInfo, error)
	RemoveMember(ctx context.Context, orgID, userID int) error
}

// JoinRequestStore manages join requests.
type JoinRequestStore interface {
	CreateJoinRequest(ctx context.Context, req *JoinRequest) error
	FindJoinRequest(ctx context.Context, orgID, reqID int) (*JoinRequest, error)
	ListOrgJoinRequests(ctx context.Context, orgID int) ([]*JoinRequest, error)
	ListUserJoinRequests(ctx context.Context, userID int) ([]*JoinRequest, error)
	UpdateJoinRequest(ctx context.Context, req *JoinRequest) error
	HasPendingJoinRequest(ctx context.Context, orgID, userID int) (bool, error)
}

// DocumentStore manages org documents.
type DocumentStore interface {
	CreateDocument(ctx context.Context, d *Document) error
	FindDocument(ctx context.Context, orgID, docID int) (*Document, error)
	ListDocuments(ctx context.Context, orgID int) ([]*Document, error)
	UpdateDocument(ctx context.Context, d *Document) error
	DeleteDocument(ctx context.Context, orgID, docID int) error
}

// ReceiptStore manages org receipts.
type ReceiptStore interface {
	CreateReceipt(ctx context.Context, r *Receipt) error
	FindReceipt(ctx context.Context, orgID, receiptID int) (*Receipt, error)
	ListReceipts(ctx context.Context, orgID int) ([]*Receipt, error)
	UpdateReceipt(ctx context.Context, r *Receipt) error
	DeleteReceipt(ctx context.Context, orgID, receiptID int) error
}

// AnnouncementStore manages org announcements.
type AnnouncementStore interface {
	CreateAnnouncement(ctx context.Context, a *Announcement) error
	FindAnnouncement(ctx context.Context, orgID, annID int) (*Announcement, error)
	ListAnnouncements(ctx context.Context, orgID int) ([]*Announcement, error)
	ListStarredAnnouncements(ctx context.Context, orgID int) ([]*Announcement, error)
	SearchAnnouncements(ctx context.Context, orgID int, query string) ([]*Announcement, error)
	UpdateAnnouncement(ctx context.Context, a *Announcement) error
	DeleteAnnouncement(ctx context.Context, orgID, annID int) error
}

// ScheduleStore manages org schedules.
type ScheduleStore interface {
	CreateSchedule(ctx context.Context, s *Schedule) error
	FindSchedule(ctx context.Context, orgID, scheduleID int) (*Schedule, error)
	ListSchedules(ctx context.Context, orgID int) ([]*Schedule, error)
	UpdateSchedule(ctx context.Context, s *Schedule) error
	DeleteSchedule(ctx context.Context, orgID, scheduleID int) error
}
