// Package audit serves the dashboard's recent-activity feed from the
// audit_logs table that the mutation services write into.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atlas-admin/atlas-admin/internal/rbac"
	"github.com/atlas-admin/atlas-admin/internal/shared"
)

// Entry is one row of the activity feed.
type Entry struct {
	ID         int64          `json:"id"`
	ActorID    int64          `json:"actor_id"`
	ActorEmail string         `json:"actor_email"`
	Action     string         `json:"action"`
	Entity     string         `json:"entity"`
	EntityID   string         `json:"entity_id"`
	Meta       map[string]any `json:"meta,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// Repository lists recent audit entries.
type Repository interface {
	ListRecent(ctx context.Context, limit int) ([]Entry, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// ListRecent returns the newest entries first, with the actor's email
// resolved when the account still exists.
func (r *PGRepository) ListRecent(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT a.id, a.actor_id, COALESCE(u.email, ''), a.action, a.entity, a.entity_id, a.meta, a.occurred_at
		FROM audit_logs a
		LEFT JOIN users u ON u.id = a.actor_id
		ORDER BY a.occurred_at DESC, a.id DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var entry Entry
		var meta []byte
		if err := rows.Scan(&entry.ID, &entry.ActorID, &entry.ActorEmail, &entry.Action, &entry.Entity, &entry.EntityID, &meta, &entry.OccurredAt); err != nil {
			return nil, err
		}
		if len(meta) > 0 {
			_ = json.Unmarshal(meta, &entry.Meta)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Service exposes the feed behind the admin gate.
type Service struct {
	repo   Repository
	engine *rbac.Engine
}

// NewService builds a Service instance.
func NewService(repo Repository, engine *rbac.Engine) *Service {
	return &Service{repo: repo, engine: engine}
}

// Recent lists the latest activity entries.
func (s *Service) Recent(ctx context.Context, principalID int64, limit int) ([]Entry, error) {
	if err := s.engine.RequireAdmin(ctx, principalID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 25
	}
	entries, err := s.repo.ListRecent(ctx, limit)
	if err != nil {
		return nil, shared.Operationf(err, "audit: list recent")
	}
	return entries, nil
}

var _ Repository = (*PGRepository)(nil)
