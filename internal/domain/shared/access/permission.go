package access

import "fmt"

// Scope is an optional branch id. The zero value is Global.
type Scope struct {
	branchID int64
	onBranch bool
}

// Global is the scope with no branch
var Global = Scope{}

// OnBranch returns a scope bound to one branch
func OnBranch(branchID int64) Scope {
	return Scope{branchID: branchID, onBranch: true}
}

// ScopeOf converts a nullable branch id, as stored in the database
func ScopeOf(branchID *int64) Scope {
	if branchID == nil {
		return Global
	}
	return OnBranch(*branchID)
}

// BranchID returns the branch id and whether the scope has one
func (s Scope) BranchID() (int64, bool) {
	return s.branchID, s.onBranch
}

// IsGlobal reports whether the scope carries no branch
func (s Scope) IsGlobal() bool {
	return !s.onBranch
}

// Ptr returns the branch id as a pointer, nil for Global
func (s Scope) Ptr() *int64 {
	if !s.onBranch {
		return nil
	}
	id := s.branchID
	return &id
}

func (s Scope) String() string {
	if !s.onBranch {
		return "global"
	}
	return fmt.Sprintf("branch %d", s.branchID)
}

// PermissionKey addresses one entry of a permission map
type PermissionKey struct {
	Resource Resource
	Scope    Scope
}

// Permissions maps (resource, scope) to the granted action bitmask
type Permissions map[PermissionKey]Action

// Grant ORs action into the entry for (resource, scope) and returns p.
// It mutates p, so use it only while building a map.
func (p Permissions) Grant(resource Resource, scope Scope, action Action) Permissions {
	key := PermissionKey{Resource: resource, Scope: scope}
	p[key] |= action
	return p
}

// Lookup returns the bitmask for (resource, scope)
func (p Permissions) Lookup(resource Resource, scope Scope) (Action, bool) {
	action, ok := p[PermissionKey{Resource: resource, Scope: scope}]
	return action, ok
}

// Clone returns a shallow copy
func (p Permissions) Clone() Permissions {
	out := make(Permissions, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}
