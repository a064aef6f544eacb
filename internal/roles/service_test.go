package roles_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/atlas-admin/atlas-admin/internal/rbac"
	"github.com/atlas-admin/atlas-admin/internal/roles"
	"github.com/atlas-admin/atlas-admin/internal/shared"
	_ "github.com/atlas-admin/atlas-admin/testing"
)

const (
	adminID    = int64(1)
	nonAdminID = int64(2)
)

type adminStore struct{}

func (adminStore) RoleNamesForUser(ctx context.Context, userID int64) ([]string, error) {
	if userID == adminID {
		return []string{"admin"}, nil
	}
	return []string{"user"}, nil
}

func (adminStore) UserHasCapability(ctx context.Context, userID int64, cap rbac.Capability) (bool, error) {
	return false, nil
}

type fakeRepo struct {
	roles  map[int64]*roles.Role
	links  map[int64]map[int64]bool
	nextID int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		roles:  make(map[int64]*roles.Role),
		links:  make(map[int64]map[int64]bool),
		nextID: 10,
	}
}

func (r *fakeRepo) ListRoles(ctx context.Context) ([]roles.Role, error) {
	list := make([]roles.Role, 0, len(r.roles))
	for _, role := range r.roles {
		list = append(list, *role)
	}
	return list, nil
}

func (r *fakeRepo) GetRole(ctx context.Context, id int64) (*roles.Role, error) {
	role, ok := r.roles[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *role
	return &copied, nil
}

func (r *fakeRepo) CreateRole(ctx context.Context, name, description string, isActive bool) (*roles.Role, error) {
	for _, role := range r.roles {
		if role.Name == name {
			return nil, shared.ErrConflict
		}
	}
	r.nextID++
	role := &roles.Role{ID: r.nextID, Name: name, Description: description, IsActive: isActive}
	r.roles[role.ID] = role
	r.links[role.ID] = make(map[int64]bool)
	return role, nil
}

func (r *fakeRepo) UpdateRole(ctx context.Context, id int64, patch roles.RolePatch) (*roles.Role, error) {
	role, ok := r.roles[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	if patch.Name != nil {
		role.Name = *patch.Name
	}
	if patch.Description != nil {
		role.Description = *patch.Description
	}
	if patch.IsActive != nil {
		role.IsActive = *patch.IsActive
	}
	copied := *role
	return &copied, nil
}

func (r *fakeRepo) DeleteRole(ctx context.Context, id int64) error {
	if _, ok := r.roles[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.roles, id)
	delete(r.links, id)
	return nil
}

func (r *fakeRepo) AssignPermissions(ctx context.Context, roleID int64, permissionIDs []int64) (int, error) {
	if _, ok := r.roles[roleID]; !ok {
		return 0, shared.ErrNotFound
	}
	added := 0
	for _, pid := range permissionIDs {
		if !r.links[roleID][pid] {
			r.links[roleID][pid] = true
			added++
		}
	}
	return added, nil
}

func (r *fakeRepo) UnassignPermissions(ctx context.Context, roleID int64, permissionIDs []int64) (int, error) {
	removed := 0
	for _, pid := range permissionIDs {
		if r.links[roleID][pid] {
			delete(r.links[roleID], pid)
			removed++
		}
	}
	return removed, nil
}

func (r *fakeRepo) ListPermissionIDs(ctx context.Context, roleID int64) ([]int64, error) {
	ids := make([]int64, 0, len(r.links[roleID]))
	for pid := range r.links[roleID] {
		ids = append(ids, pid)
	}
	return ids, nil
}

func newRoleService(repo roles.RepositoryPort) *roles.Service {
	return roles.NewService(repo, rbac.NewEngine(adminStore{}), nil, nil)
}

func TestCreateRoleGated(t *testing.T) {
	repo := newFakeRepo()
	svc := newRoleService(repo)

	_, err := svc.Create(context.Background(), nonAdminID, "temp", "", true)
	require.ErrorIs(t, err, shared.ErrForbidden)
	require.Empty(t, repo.roles)
}

func TestCreateRoleDuplicateName(t *testing.T) {
	repo := newFakeRepo()
	svc := newRoleService(repo)

	_, err := svc.Create(context.Background(), adminID, "editor", "", true)
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), adminID, "editor", "other description", true)
	require.ErrorIs(t, err, shared.ErrConflict)
	require.Len(t, repo.roles, 1)
}

func TestCreateRoleBlankName(t *testing.T) {
	svc := newRoleService(newFakeRepo())

	_, err := svc.Create(context.Background(), adminID, "   ", "", true)
	var verr *shared.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestAssignPermissionsIdempotent(t *testing.T) {
	repo := newFakeRepo()
	svc := newRoleService(repo)

	role, err := svc.Create(context.Background(), adminID, "editor", "", true)
	require.NoError(t, err)

	count, err := svc.AssignPermissions(context.Background(), adminID, role.ID, []int64{1, 2, 3})
	require.NoError(t, err)
	require.Equal(t, 3, count)

	// Overlapping batch only counts the genuinely new link.
	count, err = svc.AssignPermissions(context.Background(), adminID, role.ID, []int64{2, 3, 4})
	require.NoError(t, err)
	require.Equal(t, 1, count)

	ids, err := svc.ListPermissionIDs(context.Background(), adminID, role.ID)
	require.NoError(t, err)
	require.Len(t, ids, 4)
}

func TestAssignPermissionsRequiresList(t *testing.T) {
	repo := newFakeRepo()
	svc := newRoleService(repo)

	role, err := svc.Create(context.Background(), adminID, "editor", "", true)
	require.NoError(t, err)

	_, err = svc.AssignPermissions(context.Background(), adminID, role.ID, nil)
	var verr *shared.ValidationError
	require.ErrorAs(t, err, &verr)

	// An explicitly empty list is a valid no-op request.
	count, err := svc.AssignPermissions(context.Background(), adminID, role.ID, []int64{})
	require.NoError(t, err)
	require.Equal(t, 0, count)
}

func TestUnassignAbsentPermissionsIsNoOp(t *testing.T) {
	repo := newFakeRepo()
	svc := newRoleService(repo)

	role, err := svc.Create(context.Background(), adminID, "editor", "", true)
	require.NoError(t, err)

	_, err = svc.AssignPermissions(context.Background(), adminID, role.ID, []int64{1})
	require.NoError(t, err)

	count, err := svc.UnassignPermissions(context.Background(), adminID, role.ID, []int64{42, 43})
	require.NoError(t, err)
	require.Equal(t, 0, count)

	ids, err := svc.ListPermissionIDs(context.Background(), adminID, role.ID)
	require.NoError(t, err)
	require.Equal(t, []int64{1}, ids)
}

func TestDeleteRoleGatedAndReported(t *testing.T) {
	repo := newFakeRepo()
	svc := newRoleService(repo)

	role, err := svc.Create(context.Background(), adminID, "temp", "", true)
	require.NoError(t, err)

	err = svc.Delete(context.Background(), nonAdminID, role.ID)
	require.ErrorIs(t, err, shared.ErrForbidden)
	_, err = repo.GetRole(context.Background(), role.ID)
	require.NoError(t, err, "role must survive a forbidden delete")

	require.NoError(t, svc.Delete(context.Background(), adminID, role.ID))
	err = svc.Delete(context.Background(), adminID, role.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestDeleteRoleCascadesPermissionLinks(t *testing.T) {
	repo := newFakeRepo()
	svc := newRoleService(repo)

	role, err := svc.Create(context.Background(), adminID, "temp", "", true)
	require.NoError(t, err)

	count, err := svc.AssignPermissions(context.Background(), adminID, role.ID, []int64{1, 2})
	require.NoError(t, err)
	require.Equal(t, 2, count)

	require.NoError(t, svc.Delete(context.Background(), adminID, role.ID))

	// The links must go with the role, not linger as orphans.
	ids, err := repo.ListPermissionIDs(context.Background(), role.ID)
	require.NoError(t, err)
	require.Empty(t, ids)
}

func TestUpdateRoleBlankNameRejected(t *testing.T) {
	repo := newFakeRepo()
	svc := newRoleService(repo)

	role, err := svc.Create(context.Background(), adminID, "editor", "", true)
	require.NoError(t, err)

	blank := ""
	_, err = svc.Update(context.Background(), adminID, role.ID, roles.RolePatch{Name: &blank})
	var verr *shared.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
