package permissions

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/atlas-admin/atlas-admin/internal/rbac"
	"github.com/atlas-admin/atlas-admin/internal/shared"
)

// RepositoryPort defines data access methods for permissions.
type RepositoryPort interface {
	ListPermissions(ctx context.Context) ([]Permission, error)
	CreatePermission(ctx context.Context, record NewPermissionRecord) (*Permission, error)
	UpdatePermission(ctx context.Context, id int64, patch PermissionPatch) (*Permission, error)
	DeletePermission(ctx context.Context, id int64) error
}

// CreatePermissionInput carries the creation fields; name, resource and
// action are mandatory.
type CreatePermissionInput struct {
	Name        string
	Description string
	Resource    string
	Action      string
	IsActive    bool
}

// Service handles permission catalog management behind the admin gate.
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

// List returns the full permission catalog.
func (s *Service) List(ctx context.Context, principalID int64) ([]Permission, error) {
	if err := s.engine.RequireAdmin(ctx, principalID); err != nil {
		return nil, err
	}
	result, err := s.repo.ListPermissions(ctx)
	if err != nil {
		return nil, shared.Operationf(err, "permissions: list")
	}
	return result, nil
}

// Create inserts a new permission after validation.
func (s *Service) Create(ctx context.Context, principalID int64, input CreatePermissionInput) (*Permission, error) {
	if err := s.engine.RequireAdmin(ctx, principalID); err != nil {
		return nil, err
	}
	fields := make(map[string]string)
	if strings.TrimSpace(input.Name) == "" {
		fields["name"] = "required"
	}
	if strings.TrimSpace(input.Resource) == "" {
		fields["resource"] = "required"
	}
	if strings.TrimSpace(input.Action) == "" {
		fields["action"] = "required"
	}
	if len(fields) > 0 {
		return nil, &shared.ValidationError{Fields: fields}
	}
	perm, err := s.repo.CreatePermission(ctx, NewPermissionRecord{
		Name:        input.Name,
		Description: input.Description,
		Resource:    input.Resource,
		Action:      input.Action,
		IsActive:    input.IsActive,
	})
	if err != nil {
		return nil, shared.Operationf(err, "permissions: create %q", input.Name)
	}
	s.record(ctx, principalID, "permission.create", perm.ID, map[string]any{"name": perm.Name})
	return perm, nil
}

// Update applies a partial patch.
func (s *Service) Update(ctx context.Context, principalID, permissionID int64, patch PermissionPatch) (*Permission, error) {
	if err := s.engine.RequireAdmin(ctx, principalID); err != nil {
		return nil, err
	}
	if permissionID <= 0 {
		return nil, shared.NewValidationError("permissionId", "required")
	}
	perm, err := s.repo.UpdatePermission(ctx, permissionID, patch)
	if err != nil {
		return nil, shared.Operationf(err, "permissions: update %d", permissionID)
	}
	s.record(ctx, principalID, "permission.update", permissionID, nil)
	return perm, nil
}

// Delete removes a permission; its role links cascade away.
func (s *Service) Delete(ctx context.Context, principalID, permissionID int64) error {
	if err := s.engine.RequireAdmin(ctx, principalID); err != nil {
		return err
	}
	if permissionID <= 0 {
		return shared.NewValidationError("permissionId", "required")
	}
	if err := s.repo.DeletePermission(ctx, permissionID); err != nil {
		return shared.Operationf(err, "permissions: delete %d", permissionID)
	}
	s.record(ctx, principalID, "permission.delete", permissionID, nil)
	return nil
}

func (s *Service) record(ctx context.Context, actorID int64, action string, entityID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "permission",
		EntityID: strconv.FormatInt(entityID, 10),
		Meta:     meta,
	})
	if err != nil && s.logger != nil {
		s.logger.Warn("audit record", slog.String("action", action), slog.Any("error", err))
	}
}
