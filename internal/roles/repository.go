package roles

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atlas-admin/atlas-admin/internal/platform/db"
	"github.com/atlas-admin/atlas-admin/internal/shared"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListRoles returns all roles.
func (r *Repository) ListRoles(ctx context.Context) ([]Role, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, description, is_active, created_at, updated_at
		FROM roles ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Role
	for rows.Next() {
		var role Role
		if err := rows.Scan(&role.ID, &role.Name, &role.Description, &role.IsActive, &role.CreatedAt, &role.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, role)
	}
	return result, rows.Err()
}

// GetRole fetches a role by ID.
func (r *Repository) GetRole(ctx context.Context, id int64) (*Role, error) {
	var role Role
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, description, is_active, created_at, updated_at
		FROM roles WHERE id = $1`, id).
		Scan(&role.ID, &role.Name, &role.Description, &role.IsActive, &role.CreatedAt, &role.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &role, nil
}

// CreateRole inserts a new role. A duplicate name surfaces as Conflict
// and never overwrites the existing row.
func (r *Repository) CreateRole(ctx context.Context, name, description string, isActive bool) (*Role, error) {
	var role Role
	err := r.pool.QueryRow(ctx, `
		INSERT INTO roles (name, description, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		RETURNING id, name, description, is_active, created_at, updated_at`, name, description, isActive).
		Scan(&role.ID, &role.Name, &role.Description, &role.IsActive, &role.CreatedAt, &role.UpdatedAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, fmt.Errorf("roles: name %q taken: %w", name, shared.ErrConflict)
		}
		return nil, err
	}
	return &role, nil
}

// UpdateRole applies the non-nil patch fields.
func (r *Repository) UpdateRole(ctx context.Context, id int64, patch RolePatch) (*Role, error) {
	var role Role
	err := r.pool.QueryRow(ctx, `
		UPDATE roles SET
			name = COALESCE($2, name),
			description = COALESCE($3, description),
			is_active = COALESCE($4, is_active),
			updated_at = NOW()
		WHERE id = $1
		RETURNING id, name, description, is_active, created_at, updated_at`,
		id, patch.Name, patch.Description, patch.IsActive).
		Scan(&role.ID, &role.Name, &role.Description, &role.IsActive, &role.CreatedAt, &role.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		if db.IsUniqueViolation(err) {
			return nil, fmt.Errorf("roles: name taken: %w", shared.ErrConflict)
		}
		return nil, err
	}
	return &role, nil
}

// DeleteRole removes a role by ID. Dependent user_roles and
// role_permissions rows are cleared by ON DELETE CASCADE.
func (r *Repository) DeleteRole(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM roles WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// AssignPermissions bulk-links permissions to a role with skip-duplicate
// semantics: one conditional insert, no read-then-write. Returns the
// number of rows actually created.
func (r *Repository) AssignPermissions(ctx context.Context, roleID int64, permissionIDs []int64) (int, error) {
	if len(permissionIDs) == 0 {
		return 0, nil
	}
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO role_permissions (role_id, permission_id, assigned_at)
		SELECT $1, pid, NOW() FROM unnest($2::bigint[]) AS pid
		ON CONFLICT (role_id, permission_id) DO NOTHING`, roleID, permissionIDs)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

// UnassignPermissions deletes exactly the matching links, tolerating
// absent rows. Returns the number of rows removed.
func (r *Repository) UnassignPermissions(ctx context.Context, roleID int64, permissionIDs []int64) (int, error) {
	if len(permissionIDs) == 0 {
		return 0, nil
	}
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM role_permissions
		WHERE role_id = $1 AND permission_id = ANY($2::bigint[])`, roleID, permissionIDs)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

// ListPermissionIDs returns the ids of permissions linked to a role.
func (r *Repository) ListPermissionIDs(ctx context.Context, roleID int64) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT permission_id FROM role_permissions WHERE role_id = $1 ORDER BY permission_id`, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
