package rbac

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store resolves a principal's roles and capabilities. Implementations
// must re-read current state on every call; nothing may be cached across
// requests.
type Store interface {
	RoleNamesForUser(ctx context.Context, userID int64) ([]string, error)
	UserHasCapability(ctx context.Context, userID int64, capability Capability) (bool, error)
}

// PGStore implements Store using PostgreSQL.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewStore constructs a PostgreSQL backed Store.
func NewStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

// RoleNamesForUser returns the distinct role names held by a user.
// The join intentionally ignores roles.is_active: deactivating a role
// does not revoke it from current holders, matching the behavior the
// console has always had.
func (s *PGStore) RoleNamesForUser(ctx context.Context, userID int64) ([]string, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT DISTINCT r.name
		FROM user_roles ur
		JOIN roles r ON r.id = ur.role_id
		WHERE ur.user_id = $1`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// UserHasCapability reports whether any role held by the user links to an
// active permission matching the (resource, action) pair. Role activity
// is not consulted here either; only the permission row must be active.
func (s *PGStore) UserHasCapability(ctx context.Context, userID int64, capability Capability) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1
			FROM user_roles ur
			JOIN role_permissions rp ON rp.role_id = ur.role_id
			JOIN permissions p ON p.id = rp.permission_id
			WHERE ur.user_id = $1
			  AND p.resource = $2
			  AND p.action = $3
			  AND p.is_active
		)`, userID, capability.Resource, capability.Action).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

var _ Store = (*PGStore)(nil)
