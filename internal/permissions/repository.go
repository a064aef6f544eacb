package permissions

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atlas-admin/atlas-admin/internal/platform/db"
	"github.com/atlas-admin/atlas-admin/internal/shared"
)

// NewPermissionRecord carries the fields for permission creation.
type NewPermissionRecord struct {
	Name        string
	Description string
	Resource    string
	Action      string
	IsActive    bool
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListPermissions returns the full catalog.
func (r *Repository) ListPermissions(ctx context.Context) ([]Permission, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, description, resource, action, is_active, created_at, updated_at
		FROM permissions ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Permission
	for rows.Next() {
		var perm Permission
		if err := rows.Scan(&perm.ID, &perm.Name, &perm.Description, &perm.Resource, &perm.Action, &perm.IsActive, &perm.CreatedAt, &perm.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, perm)
	}
	return result, rows.Err()
}

// CreatePermission inserts a new permission; duplicate names are Conflict.
func (r *Repository) CreatePermission(ctx context.Context, record NewPermissionRecord) (*Permission, error) {
	var perm Permission
	err := r.pool.QueryRow(ctx, `
		INSERT INTO permissions (name, description, resource, action, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING id, name, description, resource, action, is_active, created_at, updated_at`,
		record.Name, record.Description, record.Resource, record.Action, record.IsActive).
		Scan(&perm.ID, &perm.Name, &perm.Description, &perm.Resource, &perm.Action, &perm.IsActive, &perm.CreatedAt, &perm.UpdatedAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, fmt.Errorf("permissions: name %q taken: %w", record.Name, shared.ErrConflict)
		}
		return nil, err
	}
	return &perm, nil
}

// UpdatePermission applies the non-nil patch fields.
func (r *Repository) UpdatePermission(ctx context.Context, id int64, patch PermissionPatch) (*Permission, error) {
	var perm Permission
	err := r.pool.QueryRow(ctx, `
		UPDATE permissions SET
			name = COALESCE($2, name),
			description = COALESCE($3, description),
			resource = COALESCE($4, resource),
			action = COALESCE($5, action),
			is_active = COALESCE($6, is_active),
			updated_at = NOW()
		WHERE id = $1
		RETURNING id, name, description, resource, action, is_active, created_at, updated_at`,
		id, patch.Name, patch.Description, patch.Resource, patch.Action, patch.IsActive).
		Scan(&perm.ID, &perm.Name, &perm.Description, &perm.Resource, &perm.Action, &perm.IsActive, &perm.CreatedAt, &perm.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		if db.IsUniqueViolation(err) {
			return nil, fmt.Errorf("permissions: name taken: %w", shared.ErrConflict)
		}
		return nil, err
	}
	return &perm, nil
}

// DeletePermission removes a permission; its role_permissions rows go
// with it via ON DELETE CASCADE.
func (r *Repository) DeletePermission(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM permissions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
