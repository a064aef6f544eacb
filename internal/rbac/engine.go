package rbac

import (
	"context"
	"fmt"

	"golang.org/x/sync/singleflight"

	"github.com/atlas-admin/atlas-admin/internal/shared"
)

// Engine answers authorization questions for an explicit principal id.
// It holds no mutable state: every answer is derived from a fresh store
// read, with singleflight collapsing concurrent identical lookups within
// a request burst.
type Engine struct {
	store Store
	group singleflight.Group
}

// NewEngine constructs an Engine backed by the provided store.
func NewEngine(store Store) *Engine {
	return &Engine{store: store}
}

// RoleNames resolves the distinct role names held by the principal.
func (e *Engine) RoleNames(ctx context.Context, principalID int64) ([]string, error) {
	key := fmt.Sprintf("roles:%d", principalID)
	result, err, _ := e.group.Do(key, func() (any, error) {
		return e.store.RoleNamesForUser(ctx, principalID)
	})
	if err != nil {
		return nil, err
	}
	names, _ := result.([]string)
	return names, nil
}

// IsAdmin reports whether the principal holds the literal admin role.
func (e *Engine) IsAdmin(ctx context.Context, principalID int64) (bool, error) {
	names, err := e.RoleNames(ctx, principalID)
	if err != nil {
		return false, err
	}
	return NewRoleSet(names).Contains(AdminRole), nil
}

// HasCapability reports whether the principal, via any held role, is
// linked to an active permission matching the capability.
func (e *Engine) HasCapability(ctx context.Context, principalID int64, resource, action string) (bool, error) {
	key := fmt.Sprintf("cap:%d:%s:%s", principalID, resource, action)
	result, err, _ := e.group.Do(key, func() (any, error) {
		return e.store.UserHasCapability(ctx, principalID, Capability{Resource: resource, Action: action})
	})
	if err != nil {
		return false, err
	}
	granted, _ := result.(bool)
	return granted, nil
}

// RequireAdmin is the single gate in front of every administrative
// mutation. It rejects missing principals before touching the store and
// non-admins before the caller performs any work.
func (e *Engine) RequireAdmin(ctx context.Context, principalID int64) error {
	if principalID <= 0 {
		return shared.ErrUnauthenticated
	}
	isAdmin, err := e.IsAdmin(ctx, principalID)
	if err != nil {
		return shared.Operationf(err, "rbac: resolve roles for %d", principalID)
	}
	if !isAdmin {
		return shared.ErrForbidden
	}
	return nil
}
