package group

import "time"

// Organization is a tenant. Exactly one owner at all times; the owner is also
// inserted as the first member on creation.
type Organization struct {
	ID          int
	Name        string
	Description string
	Category    string
	ImageURL    string
	Code        string // short invite code, unique
	OwnerID     int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Member roles.
const (
	RoleOwner  = "owner"
	RoleMember = "member"
)

// Member is the persisted fact that a user belongs to an organization,
// unique per (UserID, OrgID).
type Member struct {
	UserID   int
	OrgID    int
	Role     string
	JoinedAt time.Time
}

// MemberInfo is a member row joined with the user's public fields.
type MemberInfo struct {
	UserID   int
	Username string
	Email    string
	Role     string
	JoinedAt time.Time
}

// Join request states.
const (
	JoinPending  = "pending"
	JoinApproved = "approved"
	JoinRejected = "rejected"
)

// JoinRequest is a user's petition to join an organization.
type JoinRequest struct {
	ID        int
	OrgID     int
	UserID    int
	Status    string
	CreatedAt time.Time
	DecidedAt *time.Time
}

// Document is an org-scoped text document.
type Document struct {
	ID        int
	OrgID     int
	AuthorID  int
	Title     string
	Content   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Receipt records an expense in minor currency units.
type Receipt struct {
	ID        int
	OrgID     int
	AuthorID  int
	Title     string
	Amount    int64
	UsedAt    time.Time
	Memo      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Announcement is an org-scoped notice that members can star.
type Announcement struct {
	ID        int
	OrgID     int
	AuthorID  int
	Title     string
	Content   string
	Starred   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Schedule is an org-scoped calendar entry.
type Schedule struct {
	ID          int
	OrgID       int
	AuthorID    int
	Title       string
	Description string
	StartsAt    time.Time
	EndsAt      time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
