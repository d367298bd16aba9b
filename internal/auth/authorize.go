package auth

import "context"

// Policy evaluates authorization predicates for the principal carried in the
// request context. Predicates never mutate state and never translate a false
// answer into an HTTP failure; that is the caller's job. A missing principal
// is reported as ErrUnauthenticated.
//
// Membership and ownership are deliberately separate gates: call sites that
// want "owner or member" access compose CanReadOrg and CanManageOrg
// explicitly instead of folding ownership into membership.
type Policy struct {
	relations RelationStore
}

// NewPolicy constructs a Policy over the given relationship reads.
func NewPolicy(relations RelationStore) *Policy {
	return &Policy{relations: relations}
}

// CanReadOrg reports whether the current principal is a member of the
// organization.
func (p *Policy) CanReadOrg(ctx context.Context, orgID int) (bool, error) {
	principal, ok := PrincipalFromContext(ctx)
	if !ok {
		return false, ErrUnauthenticated
	}
	return p.relations.IsMember(ctx, orgID, principal.ID)
}

// CanManageOrg reports whether the current principal owns the organization.
func (p *Policy) CanManageOrg(ctx context.Context, orgID int) (bool, error) {
	principal, ok := PrincipalFromContext(ctx)
	if !ok {
		return false, ErrUnauthenticated
	}
	return p.relations.IsOwner(ctx, orgID, principal.ID)
}

// CanModifyResource reports whether the current principal may modify or
// delete a resource created by authorID inside the organization: the org
// owner and the resource author may, plain members may not.
func (p *Policy) CanModifyResource(ctx context.Context, orgID, authorID int) (bool, error) {
	principal, ok := PrincipalFromContext(ctx)
	if !ok {
		return false, ErrUnauthenticated
	}
	if principal.ID == authorID {
		return true, nil
	}
	return p.relations.IsOwner(ctx, orgID, principal.ID)
}

// CanEditUser reports whether the current principal may edit the target
// user's profile. Strictly self-service; there is no admin override.
func (p *Policy) CanEditUser(ctx context.Context, targetUserID int) (bool, error) {
	principal, ok := PrincipalFromContext(ctx)
	if !ok {
		return false, ErrUnauthenticated
	}
	return principal.ID == targetUserID, nil
}
