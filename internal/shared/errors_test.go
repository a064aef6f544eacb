package shared_test

import (
	"errors"
	"testing"

	"github.com/atlas-admin/atlas-admin/internal/shared"
	_ "github.com/atlas-admin/atlas-admin/testing"
)

func TestCredentialFailuresMatchUniformly(t *testing.T) {
	for _, err := range []error{shared.ErrUnknownEmail, shared.ErrAccountInactive, shared.ErrBadPassword} {
		if !errors.Is(err, shared.ErrInvalidCredentials) {
			t.Fatalf("%v should match ErrInvalidCredentials", err)
		}
	}
	if shared.CredentialReason(shared.ErrAccountInactive) != "account inactive" {
		t.Fatalf("internal reason lost")
	}
	if shared.CredentialReason(errors.New("other")) != "" {
		t.Fatalf("unrelated errors must carry no credential reason")
	}
}

func TestOperationfPassesTaxonomyThrough(t *testing.T) {
	cases := []error{
		shared.ErrNotFound,
		shared.ErrConflict,
		shared.ErrForbidden,
		shared.ErrUnauthenticated,
		shared.NewValidationError("name", "required"),
	}
	for _, sentinel := range cases {
		got := shared.Operationf(sentinel, "op")
		if got != sentinel { //nolint:errorlint
			t.Fatalf("taxonomy error %v must propagate untouched, got %v", sentinel, got)
		}
	}
}

func TestOperationfWrapsOpaqueErrors(t *testing.T) {
	cause := errors.New("connection refused")
	err := shared.Operationf(cause, "users: list page %d", 3)

	var opErr *shared.OperationError
	if !errors.As(err, &opErr) {
		t.Fatalf("expected OperationError, got %v", err)
	}
	if opErr.Op != "users: list page 3" {
		t.Fatalf("unexpected op: %q", opErr.Op)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("cause must stay reachable for logging")
	}
	if shared.Operationf(nil, "op") != nil {
		t.Fatalf("nil must stay nil")
	}
}
