package rbac_test

import (
	"context"
	"errors"
	"testing"

	"github.com/atlas-admin/atlas-admin/internal/rbac"
	"github.com/atlas-admin/atlas-admin/internal/shared"
	_ "github.com/atlas-admin/atlas-admin/testing"
)

type fakeStore struct {
	roles        map[int64][]string
	capabilities map[int64]map[rbac.Capability]bool
	err          error
}

func (s *fakeStore) RoleNamesForUser(ctx context.Context, userID int64) ([]string, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.roles[userID], nil
}

func (s *fakeStore) UserHasCapability(ctx context.Context, userID int64, cap rbac.Capability) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	return s.capabilities[userID][cap], nil
}

func TestIsAdmin(t *testing.T) {
	store := &fakeStore{roles: map[int64][]string{
		1: {"admin", "user"},
		2: {"moderator", "user"},
		3: nil,
	}}
	engine := rbac.NewEngine(store)

	cases := []struct {
		name        string
		principalID int64
		want        bool
	}{
		{"admin role present", 1, true},
		{"elevated but not admin", 2, false},
		{"no roles at all", 3, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := engine.IsAdmin(context.Background(), tc.principalID)
			if err != nil {
				t.Fatalf("IsAdmin: %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestHasCapability(t *testing.T) {
	store := &fakeStore{capabilities: map[int64]map[rbac.Capability]bool{
		1: {
			{Resource: "user", Action: "create"}: true,
			{Resource: "user", Action: "read"}:   true,
		},
		2: {
			{Resource: "user", Action: "read"}: true,
		},
	}}
	engine := rbac.NewEngine(store)

	granted, err := engine.HasCapability(context.Background(), 1, "user", "create")
	if err != nil {
		t.Fatalf("HasCapability: %v", err)
	}
	if !granted {
		t.Fatalf("expected user:create granted for principal 1")
	}

	granted, err = engine.HasCapability(context.Background(), 2, "user", "create")
	if err != nil {
		t.Fatalf("HasCapability: %v", err)
	}
	if granted {
		t.Fatalf("expected user:create denied for principal 2")
	}
}

func TestRequireAdmin(t *testing.T) {
	store := &fakeStore{roles: map[int64][]string{
		1: {"admin"},
		2: {"user"},
	}}
	engine := rbac.NewEngine(store)

	if err := engine.RequireAdmin(context.Background(), 1); err != nil {
		t.Fatalf("expected admin to pass, got %v", err)
	}
	if err := engine.RequireAdmin(context.Background(), 2); !errors.Is(err, shared.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if err := engine.RequireAdmin(context.Background(), 0); !errors.Is(err, shared.ErrUnauthenticated) {
		t.Fatalf("expected unauthenticated for missing principal, got %v", err)
	}
}

func TestRequireAdminWrapsStoreErrors(t *testing.T) {
	engine := rbac.NewEngine(&fakeStore{err: errors.New("connection refused")})

	err := engine.RequireAdmin(context.Background(), 1)
	if err == nil {
		t.Fatalf("expected error")
	}
	var opErr *shared.OperationError
	if !errors.As(err, &opErr) {
		t.Fatalf("expected operation error, got %v", err)
	}
	if errors.Is(err, shared.ErrForbidden) {
		t.Fatalf("store failure must not read as forbidden")
	}
}
