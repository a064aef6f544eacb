package users

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/atlas-admin/atlas-admin/internal/rbac"
	"github.com/atlas-admin/atlas-admin/internal/shared"
)

// bcryptCost matches the cost the console has always hashed with.
const bcryptCost = 12

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	ListUsers(ctx context.Context, page, perPage int) ([]User, int, error)
	GetUser(ctx context.Context, id int64) (*User, error)
	CreateUser(ctx context.Context, record NewUserRecord) (*User, error)
	UpdateUser(ctx context.Context, id int64, patch UserPatch) (*User, error)
	UpsertUserRole(ctx context.Context, userID, roleID int64) error
	DeleteUser(ctx context.Context, id int64) error
}

// CreateUserInput carries the fields for account creation. Email,
// password and an initial role are mandatory.
type CreateUserInput struct {
	Email    string
	Name     string
	Password string
	RoleID   int64
	Profile  *Profile
}

// UpdateUserInput is a partial patch; only non-nil fields are applied.
// A provided RoleID upserts one role link and never removes others.
type UpdateUserInput struct {
	Email    *string
	Name     *string
	Password *string
	RoleID   *int64
	Profile  *Profile
}

// PatchUserInput toggles activation and/or assigns a role; the two are
// independent and combinable in one call.
type PatchUserInput struct {
	IsActive *bool
	RoleID   *int64
}

// Notifier announces account creation so side effects (welcome email)
// can run out of band. The account is created whether or not the
// notification can be queued.
type Notifier interface {
	UserCreated(ctx context.Context, email, name string) error
}

// Service handles user management. Every operation takes the acting
// principal explicitly and passes the admin gate before any store access.
type Service struct {
	repo     RepositoryPort
	engine   *rbac.Engine
	audit    shared.AuditRecorder
	notifier Notifier
	logger   *slog.Logger
}

// NewService builds a Service instance. audit and notifier may be nil.
func NewService(repo RepositoryPort, engine *rbac.Engine, audit shared.AuditRecorder, notifier Notifier, logger *slog.Logger) *Service {
	return &Service{repo: repo, engine: engine, audit: audit, notifier: notifier, logger: logger}
}

// List returns a page of users.
func (s *Service) List(ctx context.Context, principalID int64, page, perPage int) ([]User, shared.Pagination, error) {
	if err := s.engine.RequireAdmin(ctx, principalID); err != nil {
		return nil, shared.Pagination{}, err
	}
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	}
	result, total, err := s.repo.ListUsers(ctx, page, perPage)
	if err != nil {
		return nil, shared.Pagination{}, shared.Operationf(err, "users: list")
	}
	return result, shared.NewPagination(page, perPage, total), nil
}

// Create validates, hashes the password, and persists the account with
// its initial role atomically.
func (s *Service) Create(ctx context.Context, principalID int64, input CreateUserInput) (*User, error) {
	if err := s.engine.RequireAdmin(ctx, principalID); err != nil {
		return nil, err
	}
	fields := make(map[string]string)
	if input.Email == "" {
		fields["email"] = "required"
	}
	if input.Password == "" {
		fields["password"] = "required"
	}
	if input.RoleID <= 0 {
		fields["roleId"] = "required"
	}
	if len(fields) > 0 {
		return nil, &shared.ValidationError{Fields: fields}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcryptCost)
	if err != nil {
		return nil, shared.Operationf(err, "users: hash password")
	}
	user, err := s.repo.CreateUser(ctx, NewUserRecord{
		Email:        input.Email,
		Name:         input.Name,
		PasswordHash: string(hash),
		RoleID:       input.RoleID,
		Profile:      input.Profile,
	})
	if err != nil {
		return nil, shared.Operationf(err, "users: create")
	}
	s.record(ctx, principalID, "user.create", user.ID, map[string]any{"email": user.Email})
	if s.notifier != nil {
		if err := s.notifier.UserCreated(ctx, user.Email, user.Name); err != nil && s.logger != nil {
			s.logger.Warn("queue welcome mail", slog.Any("error", err))
		}
	}
	return user, nil
}

// Update applies a partial patch and optionally upserts one role link.
func (s *Service) Update(ctx context.Context, principalID, userID int64, input UpdateUserInput) (*User, error) {
	if err := s.engine.RequireAdmin(ctx, principalID); err != nil {
		return nil, err
	}
	if userID <= 0 {
		return nil, shared.NewValidationError("userId", "required")
	}

	// Blank email or password in the body means "leave it alone", never
	// "blank it out".
	patch := UserPatch{Name: input.Name, Profile: input.Profile}
	if input.Email != nil && strings.TrimSpace(*input.Email) != "" {
		patch.Email = input.Email
	}
	if input.Password != nil && *input.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(*input.Password), bcryptCost)
		if err != nil {
			return nil, shared.Operationf(err, "users: hash password")
		}
		hashed := string(hash)
		patch.PasswordHash = &hashed
	}

	user, err := s.repo.UpdateUser(ctx, userID, patch)
	if err != nil {
		return nil, shared.Operationf(err, "users: update %d", userID)
	}
	if input.RoleID != nil {
		if err := s.repo.UpsertUserRole(ctx, userID, *input.RoleID); err != nil {
			return nil, shared.Operationf(err, "users: assign role to %d", userID)
		}
		user, err = s.repo.GetUser(ctx, userID)
		if err != nil {
			return nil, shared.Operationf(err, "users: reload %d", userID)
		}
	}
	s.record(ctx, principalID, "user.update", userID, nil)
	return user, nil
}

// Patch toggles activation and/or assigns a role idempotently.
func (s *Service) Patch(ctx context.Context, principalID, userID int64, input PatchUserInput) (*User, error) {
	if err := s.engine.RequireAdmin(ctx, principalID); err != nil {
		return nil, err
	}
	if userID <= 0 {
		return nil, shared.NewValidationError("userId", "required")
	}
	if input.IsActive != nil {
		if _, err := s.repo.UpdateUser(ctx, userID, UserPatch{IsActive: input.IsActive}); err != nil {
			return nil, shared.Operationf(err, "users: toggle active %d", userID)
		}
	}
	if input.RoleID != nil {
		if err := s.repo.UpsertUserRole(ctx, userID, *input.RoleID); err != nil {
			return nil, shared.Operationf(err, "users: assign role to %d", userID)
		}
	}
	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return nil, shared.Operationf(err, "users: reload %d", userID)
	}
	s.record(ctx, principalID, "user.patch", userID, nil)
	return user, nil
}

// Delete hard-deletes an account.
func (s *Service) Delete(ctx context.Context, principalID, userID int64) error {
	if err := s.engine.RequireAdmin(ctx, principalID); err != nil {
		return err
	}
	if userID <= 0 {
		return shared.NewValidationError("userId", "required")
	}
	if err := s.repo.DeleteUser(ctx, userID); err != nil {
		return shared.Operationf(err, "users: delete %d", userID)
	}
	s.record(ctx, principalID, "user.delete", userID, nil)
	return nil
}

func (s *Service) record(ctx context.Context, actorID int64, action string, entityID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "user",
		EntityID: strconv.FormatInt(entityID, 10),
		Meta:     meta,
	})
	if err != nil && s.logger != nil {
		s.logger.Warn("audit record", slog.String("action", action), slog.Any("error", err))
	}
}
