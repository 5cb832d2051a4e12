package identity

import (
	"context"

	"github.com/sultan/backend/internal/domain/shared"
	"github.com/sultan/backend/internal/domain/shared/access"
)

// Permission is one stored grant: a user may perform Action on Resource,
// either everywhere (BranchID nil) or on one branch.
type Permission struct {
	UserID   int64           `json:"user_id"`
	BranchID *int64          `json:"branch_id,omitempty"`
	Resource access.Resource `json:"resource"`
	Action   access.Action   `json:"action"`
}

// Scope returns the branch scope of the grant
func (p Permission) Scope() access.Scope {
	return access.ScopeOf(p.BranchID)
}

// Validate rejects grants that could never match a check
func (p Permission) Validate() error {
	if p.Resource <= 0 {
		return shared.NewDomainError("INVALID_RESOURCE", "Permission resource must be positive")
	}
	if p.Action == 0 || p.Action&^access.AllActions != 0 {
		return shared.NewDomainError("INVALID_ACTION", "Permission action must be a combination of CREATE, READ, UPDATE and DELETE")
	}
	return nil
}

// PermissionRepository stores per-user grants. There is at most one row per
// (user, branch, resource).
type PermissionRepository interface {
	ListByUser(ctx context.Context, userID int64) ([]Permission, error)

	// Save replaces the grant for (user, branch, resource)
	Save(ctx context.Context, permission Permission) error

	// Delete removes the grant, returning shared.ErrNotFound if there was none
	Delete(ctx context.Context, userID int64, scope access.Scope, resource access.Resource) error
}

// BuildPermissions folds stored grants into the lookup map used by
// access.Context. Grants on the same key are OR-merged.
func BuildPermissions(grants []Permission) access.Permissions {
	perms := make(access.Permissions, len(grants))
	for _, g := range grants {
		perms.Grant(g.Resource, g.Scope(), g.Action)
	}
	return perms
}

// PermissionCache holds the stored grants of recently seen users. A miss is
// reported as found == false, not as an error.
//
// Every Invalidate advances the user's generation. A loader reads the
// generation before it reads the repository and passes it to Set, which
// stores nothing when the user was invalidated in between. A load racing a
// revoke therefore cannot put the revoked grant back.
type PermissionCache interface {
	Get(ctx context.Context, userID int64) (grants []Permission, found bool, err error)
	Generation(ctx context.Context, userID int64) (uint64, error)
	// Set reports whether the grants were stored
	Set(ctx context.Context, userID int64, generation uint64, grants []Permission) (bool, error)
	Invalidate(ctx context.Context, userID int64) error
}
