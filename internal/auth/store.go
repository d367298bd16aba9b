package auth

import "context"

// UserStore manages user accounts.
type UserStore interface {
	Create(ctx context.Context, u *User) error
	Find(ctx context.Context, id int) (*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	Update(ctx context.Context, u *User) error
	Delete(ctx context.Context, id int) error
}

// RelationStore answers the relationship questions the authorization policy
// asks. Implementations read the latest persisted state; results are never
// cached across requests.
type RelationStore interface {
	// IsMember reports whether a membership row exists for (userID, orgID).
	IsMember(ctx context.Context, orgID, userID int) (bool, error)
	// IsOwner reports whether the organization exists and is owned by userID.
	IsOwner(ctx context.Context, orgID, userID int) (bool, error)
}
