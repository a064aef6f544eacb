package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atlas-admin/atlas-admin/internal/platform/db"
	"github.com/atlas-admin/atlas-admin/internal/shared"
)

// NewUserRecord is everything needed to persist a fresh account.
type NewUserRecord struct {
	Email        string
	Name         string
	PasswordHash string
	RoleID       int64
	Profile      *Profile
}

// UserPatch applies only its non-nil fields.
type UserPatch struct {
	Email        *string
	Name         *string
	PasswordHash *string
	IsActive     *bool
	Profile      *Profile
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListUsers returns a page of users plus the total count.
func (r *Repository) ListUsers(ctx context.Context, page, perPage int) ([]User, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT u.id, u.email, u.name, u.is_active, u.email_verified, u.created_at, u.updated_at,
		       COALESCE(p.first_name, ''), COALESCE(p.last_name, ''), COALESCE(p.bio, ''), p.user_id IS NOT NULL,
		       COALESCE(array_agg(r.name ORDER BY r.name) FILTER (WHERE r.name IS NOT NULL), '{}')
		FROM users u
		LEFT JOIN user_profiles p ON p.user_id = u.id
		LEFT JOIN user_roles ur ON ur.user_id = u.id
		LEFT JOIN roles r ON r.id = ur.role_id
		GROUP BY u.id, p.user_id
		ORDER BY u.id
		LIMIT $1 OFFSET $2`, perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []User
	for rows.Next() {
		var user User
		var profile Profile
		var hasProfile bool
		if err := rows.Scan(&user.ID, &user.Email, &user.Name, &user.IsActive, &user.EmailVerified, &user.CreatedAt, &user.UpdatedAt,
			&profile.FirstName, &profile.LastName, &profile.Bio, &hasProfile, &user.Roles); err != nil {
			return nil, 0, err
		}
		if hasProfile {
			user.Profile = &profile
		}
		result = append(result, user)
	}
	return result, total, rows.Err()
}

// GetUser fetches one user with roles and profile.
func (r *Repository) GetUser(ctx context.Context, id int64) (*User, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT u.id, u.email, u.name, u.is_active, u.email_verified, u.created_at, u.updated_at,
		       COALESCE(p.first_name, ''), COALESCE(p.last_name, ''), COALESCE(p.bio, ''), p.user_id IS NOT NULL,
		       COALESCE(array_agg(r.name ORDER BY r.name) FILTER (WHERE r.name IS NOT NULL), '{}')
		FROM users u
		LEFT JOIN user_profiles p ON p.user_id = u.id
		LEFT JOIN user_roles ur ON ur.user_id = u.id
		LEFT JOIN roles r ON r.id = ur.role_id
		WHERE u.id = $1
		GROUP BY u.id, p.user_id`, id)

	var user User
	var profile Profile
	var hasProfile bool
	if err := row.Scan(&user.ID, &user.Email, &user.Name, &user.IsActive, &user.EmailVerified, &user.CreatedAt, &user.UpdatedAt,
		&profile.FirstName, &profile.LastName, &profile.Bio, &hasProfile, &user.Roles); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	if hasProfile {
		user.Profile = &profile
	}
	return &user, nil
}

// CreateUser inserts the user row, its initial role link, and the optional
// profile inside one transaction. A failure on any row leaves nothing
// behind; an account without a role is not an acceptable end state.
func (r *Repository) CreateUser(ctx context.Context, record NewUserRecord) (*User, error) {
	var id int64
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, `
			INSERT INTO users (email, name, password_hash, is_active, email_verified, created_at, updated_at)
			VALUES ($1, $2, $3, TRUE, NOW(), NOW(), NOW())
			RETURNING id`, record.Email, record.Name, record.PasswordHash).Scan(&id); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO user_roles (user_id, role_id, assigned_at) VALUES ($1, $2, NOW())`, id, record.RoleID); err != nil {
			return err
		}
		if record.Profile != nil {
			if _, err := tx.Exec(ctx, `
				INSERT INTO user_profiles (user_id, first_name, last_name, bio)
				VALUES ($1, $2, $3, $4)`, id, record.Profile.FirstName, record.Profile.LastName, record.Profile.Bio); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, fmt.Errorf("users: email %q taken: %w", record.Email, shared.ErrConflict)
		}
		return nil, err
	}
	return r.GetUser(ctx, id)
}

// UpdateUser applies the non-nil patch fields and returns the result.
func (r *Repository) UpdateUser(ctx context.Context, id int64, patch UserPatch) (*User, error) {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE users SET
				email = COALESCE($2, email),
				name = COALESCE($3, name),
				password_hash = COALESCE($4, password_hash),
				is_active = COALESCE($5, is_active),
				updated_at = NOW()
			WHERE id = $1`, id, patch.Email, patch.Name, patch.PasswordHash, patch.IsActive)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrNotFound
		}
		if patch.Profile != nil {
			if _, err := tx.Exec(ctx, `
				INSERT INTO user_profiles (user_id, first_name, last_name, bio)
				VALUES ($1, $2, $3, $4)
				ON CONFLICT (user_id) DO UPDATE SET
					first_name = EXCLUDED.first_name,
					last_name = EXCLUDED.last_name,
					bio = EXCLUDED.bio`, id, patch.Profile.FirstName, patch.Profile.LastName, patch.Profile.Bio); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, fmt.Errorf("users: email taken: %w", shared.ErrConflict)
		}
		return nil, err
	}
	return r.GetUser(ctx, id)
}

// UpsertUserRole links a role to a user. Re-assigning an already-held
// role is a no-op success, implemented as a single conditional insert
// rather than read-then-write.
func (r *Repository) UpsertUserRole(ctx context.Context, userID, roleID int64) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO user_roles (user_id, role_id, assigned_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id, role_id) DO NOTHING`, userID, roleID)
	return err
}

// DeleteUser hard-deletes a user. Dependent user_roles, user_profiles and
// sessions rows are cleared by the schema's ON DELETE CASCADE.
func (r *Repository) DeleteUser(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
