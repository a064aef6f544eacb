package roles

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/atlas-admin/atlas-admin/internal/rbac"
	"github.com/atlas-admin/atlas-admin/internal/shared"
)

// RepositoryPort defines data access methods for roles.
type RepositoryPort interface {
	ListRoles(ctx context.Context) ([]Role, error)
	GetRole(ctx context.Context, id int64) (*Role, error)
	CreateRole(ctx context.Context, name, description string, isActive bool) (*Role, error)
	UpdateRole(ctx context.Context, id int64, patch RolePatch) (*Role, error)
	DeleteRole(ctx context.Context, id int64) error
	AssignPermissions(ctx context.Context, roleID int64, permissionIDs []int64) (int, error)
	UnassignPermissions(ctx context.Context, roleID int64, permissionIDs []int64) (int, error)
	ListPermissionIDs(ctx context.Context, roleID int64) ([]int64, error)
}

// Service handles role management behind the admin gate.
type Service struct {
	repo   RepositoryPort
	engine *rbac.Engine
	audit  shared.AuditRecorder
	logger *slog.Logger
}

// NewService builds a Service instance. audit may be nil.
func NewService(repo RepositoryPort, engine *rbac.Engine, audit shared.AuditRecorder, logger *slog.Logger) *Service {
	return &Service{repo: repo, engine: engine, audit: audit, logger: logger}
}

// List returns all roles.
func (s *Service) List(ctx context.Context, principalID int64) ([]Role, error) {
	if err := s.engine.RequireAdmin(ctx, principalID); err != nil {
		return nil, err
	}
	result, err := s.repo.ListRoles(ctx)
	if err != nil {
		return nil, shared.Operationf(err, "roles: list")
	}
	return result, nil
}

// Create inserts a new role after validation.
func (s *Service) Create(ctx context.Context, principalID int64, name, description string, isActive bool) (*Role, error) {
	if err := s.engine.RequireAdmin(ctx, principalID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewValidationError("name", "required")
	}
	role, err := s.repo.CreateRole(ctx, name, description, isActive)
	if err != nil {
		return nil, shared.Operationf(err, "roles: create %q", name)
	}
	s.record(ctx, principalID, "role.create", role.ID, map[string]any{"name": role.Name})
	return role, nil
}

// Update applies a partial patch.
func (s *Service) Update(ctx context.Context, principalID, roleID int64, patch RolePatch) (*Role, error) {
	if err := s.engine.RequireAdmin(ctx, principalID); err != nil {
		return nil, err
	}
	if roleID <= 0 {
		return nil, shared.NewValidationError("roleId", "required")
	}
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return nil, shared.NewValidationError("name", "must not be blank")
	}
	role, err := s.repo.UpdateRole(ctx, roleID, patch)
	if err != nil {
		return nil, shared.Operationf(err, "roles: update %d", roleID)
	}
	s.record(ctx, principalID, "role.update", roleID, nil)
	return role, nil
}

// Delete removes a role; the store cascades its user and permission links.
func (s *Service) Delete(ctx context.Context, principalID, roleID int64) error {
	if err := s.engine.RequireAdmin(ctx, principalID); err != nil {
		return err
	}
	if roleID <= 0 {
		return shared.NewValidationError("roleId", "required")
	}
	if err := s.repo.DeleteRole(ctx, roleID); err != nil {
		return shared.Operationf(err, "roles: delete %d", roleID)
	}
	s.record(ctx, principalID, "role.delete", roleID, nil)
	return nil
}

// AssignPermissions bulk-links permissions to a role. Already-linked
// permissions are skipped silently; the returned count holds only new
// links.
func (s *Service) AssignPermissions(ctx context.Context, principalID, roleID int64, permissionIDs []int64) (int, error) {
	if err := s.engine.RequireAdmin(ctx, principalID); err != nil {
		return 0, err
	}
	if roleID <= 0 {
		return 0, shared.NewValidationError("roleId", "required")
	}
	if permissionIDs == nil {
		return 0, shared.NewValidationError("permissionIds", "required")
	}
	count, err := s.repo.AssignPermissions(ctx, roleID, permissionIDs)
	if err != nil {
		return 0, shared.Operationf(err, "roles: assign permissions to %d", roleID)
	}
	s.record(ctx, principalID, "role.assign_permissions", roleID, map[string]any{"count": count})
	return count, nil
}

// UnassignPermissions removes the matching links; absent links are a
// no-op success.
func (s *Service) UnassignPermissions(ctx context.Context, principalID, roleID int64, permissionIDs []int64) (int, error) {
	if err := s.engine.RequireAdmin(ctx, principalID); err != nil {
		return 0, err
	}
	if roleID <= 0 {
		return 0, shared.NewValidationError("roleId", "required")
	}
	if permissionIDs == nil {
		return 0, shared.NewValidationError("permissionIds", "required")
	}
	count, err := s.repo.UnassignPermissions(ctx, roleID, permissionIDs)
	if err != nil {
		return 0, shared.Operationf(err, "roles: unassign permissions from %d", roleID)
	}
	s.record(ctx, principalID, "role.unassign_permissions", roleID, map[string]any{"count": count})
	return count, nil
}

// ListPermissionIDs returns the permission ids linked to a role.
func (s *Service) ListPermissionIDs(ctx context.Context, principalID, roleID int64) ([]int64, error) {
	if err := s.engine.RequireAdmin(ctx, principalID); err != nil {
		return nil, err
	}
	ids, err := s.repo.ListPermissionIDs(ctx, roleID)
	if err != nil {
		return nil, shared.Operationf(err, "roles: list permissions of %d", roleID)
	}
	return ids, nil
}

func (s *Service) record(ctx context.Context, actorID int64, action string, entityID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "role",
		EntityID: strconv.FormatInt(entityID, 10),
		Meta:     meta,
	})
	if err != nil && s.logger != nil {
		s.logger.Warn("audit record", slog.String("action", action), slog.Any("error", err))
	}
}
