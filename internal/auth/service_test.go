package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/atlas-admin/atlas-admin/internal/auth"
	"github.com/atlas-admin/atlas-admin/internal/shared"
	_ "github.com/atlas-admin/atlas-admin/testing"
)

type stubRepo struct {
	user *auth.User
}

func (s *stubRepo) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	if s.user == nil || s.user.Email != email {
		return nil, shared.ErrNotFound
	}
	return s.user, nil
}

func (s *stubRepo) CreateSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error {
	return nil
}

func (s *stubRepo) DeleteSession(ctx context.Context, id string) error {
	return nil
}

func hashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	return string(hash)
}

func TestAuthenticateUnknownEmail(t *testing.T) {
	svc := auth.NewService(&stubRepo{})

	_, err := svc.Authenticate(context.Background(), "ghost@test.local", "whatever")
	if !errors.Is(err, shared.ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	if reason := shared.CredentialReason(err); reason != "unknown email" {
		t.Fatalf("expected unknown email reason, got %q", reason)
	}
}

func TestAuthenticateInactiveAccount(t *testing.T) {
	// Correct password must not rescue a deactivated account.
	user := &auth.User{
		ID:           7,
		Email:        "user@test.local",
		PasswordHash: hashPassword(t, "correctpass"),
		IsActive:     false,
	}
	svc := auth.NewService(&stubRepo{user: user})

	_, err := svc.Authenticate(context.Background(), "user@test.local", "correctpass")
	if !errors.Is(err, shared.ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	if reason := shared.CredentialReason(err); reason != "account inactive" {
		t.Fatalf("expected account inactive reason, got %q", reason)
	}
}

func TestAuthenticateBadPassword(t *testing.T) {
	user := &auth.User{
		ID:           7,
		Email:        "user@test.local",
		PasswordHash: hashPassword(t, "correctpass"),
		IsActive:     true,
	}
	svc := auth.NewService(&stubRepo{user: user})

	_, err := svc.Authenticate(context.Background(), "user@test.local", "wrongpass")
	if !errors.Is(err, shared.ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	if reason := shared.CredentialReason(err); reason != "bad password" {
		t.Fatalf("expected bad password reason, got %q", reason)
	}
}

func TestAuthenticateSuccess(t *testing.T) {
	user := &auth.User{
		ID:           7,
		Email:        "user@test.local",
		PasswordHash: hashPassword(t, "correctpass"),
		IsActive:     true,
	}
	svc := auth.NewService(&stubRepo{user: user})

	got, err := svc.Authenticate(context.Background(), "user@test.local", "correctpass")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if got.ID != user.ID {
		t.Fatalf("expected user %d, got %d", user.ID, got.ID)
	}
}
