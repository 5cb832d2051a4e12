// Package access evaluates resource/action/branch permissions for a request
// and carries request-scoped values through the call chain.
package access

import (
	"context"
	"fmt"

	"github.com/sultan/backend/internal/domain/shared"
)

// Context is the authorization context of one request. It is immutable once
// built; derivations return a new Context that shares unchanged parts with
// the original. A nil *Context behaves as Empty() in every method.
type Context struct {
	userID      *int64
	permissions Permissions
	extensions  *Extensions
}

// NewContext builds a context. The permission map is owned by the context
// afterwards and must not be modified by the caller.
func NewContext(userID *int64, permissions Permissions, extensions *Extensions) *Context {
	if permissions == nil {
		permissions = Permissions{}
	}
	if extensions == nil {
		extensions = NewExtensions()
	}
	var uid *int64
	if userID != nil {
		id := *userID
		uid = &id
	}
	return &Context{
		userID:      uid,
		permissions: permissions,
		extensions:  extensions,
	}
}

// Empty returns a context with no user, no permissions and no extensions
func Empty() *Context {
	return NewContext(nil, nil, nil)
}

func (c *Context) orEmpty() *Context {
	if c == nil {
		return Empty()
	}
	return c
}

// ForUser returns a context for an authenticated user
func ForUser(userID int64, permissions Permissions) *Context {
	return NewContext(&userID, permissions, nil)
}

// UserID returns the authenticated user id, if any
func (c *Context) UserID() (int64, bool) {
	if c == nil || c.userID == nil {
		return 0, false
	}
	return *c.userID, true
}

// Permissions returns the permission map. Callers must treat it as read-only.
func (c *Context) Permissions() Permissions {
	return c.orEmpty().permissions
}

// Extensions returns the extension registry
func (c *Context) Extensions() *Extensions {
	return c.orEmpty().extensions
}

// HasAccess reports whether the permission map allows action on resource
// within scope. Rules are checked in order; the first match wins:
//
//  1. a global Admin entry allows everything
//  2. an Admin entry for the requested branch allows everything on it
//  3. a global entry for resource containing every requested action bit
//  4. a branch entry for resource containing every requested action bit
//
// A nil Context has no permissions.
func (c *Context) HasAccess(scope Scope, resource Resource, action Action) bool {
	if c == nil {
		return false
	}
	if _, ok := c.permissions.Lookup(Admin, Global); ok {
		return true
	}
	if !scope.IsGlobal() {
		if _, ok := c.permissions.Lookup(Admin, scope); ok {
			return true
		}
	}

	if perm, ok := c.permissions.Lookup(resource, Global); ok && perm.Has(action) {
		return true
	}
	if !scope.IsGlobal() {
		if perm, ok := c.permissions.Lookup(resource, scope); ok && perm.Has(action) {
			return true
		}
	}
	return false
}

// RequireAccess returns a FORBIDDEN domain error when HasAccess is false
func (c *Context) RequireAccess(scope Scope, resource Resource, action Action) error {
	if c.HasAccess(scope, resource, action) {
		return nil
	}
	reason := fmt.Sprintf("Access denied for resource %s with action %s", resource, action)
	if !scope.IsGlobal() {
		reason += " on " + scope.String()
	}
	return shared.NewForbiddenError(reason)
}

// WithPermission returns a context with the same user and extensions but a
// different permission map, e.g. to scope a sub-operation down.
func (c *Context) WithPermission(permissions Permissions) *Context {
	if permissions == nil {
		permissions = Permissions{}
	}
	c = c.orEmpty()
	return &Context{
		userID:      c.userID,
		permissions: permissions,
		extensions:  c.extensions,
	}
}

// Get returns the extension value of type T carried by c
func Get[T any](c *Context) (T, bool) {
	return GetExtension[T](c.Extensions())
}

// With returns a context whose extensions also hold v. The last value set for
// a type wins. c is not modified.
func With[T any](c *Context, v T) *Context {
	c = c.orEmpty()
	return &Context{
		userID:      c.userID,
		permissions: c.permissions,
		extensions:  SetExtension(c.extensions, v),
	}
}

type contextKey struct{}

// NewRequestContext returns a copy of ctx carrying ac
func NewRequestContext(ctx context.Context, ac *Context) context.Context {
	return context.WithValue(ctx, contextKey{}, ac)
}

// FromContext returns the access context stored by NewRequestContext
func FromContext(ctx context.Context) (*Context, bool) {
	ac, ok := ctx.Value(contextKey{}).(*Context)
	return ac, ok && ac != nil
}
