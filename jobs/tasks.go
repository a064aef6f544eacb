package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeWelcomeEmail is the task type for welcoming new accounts.
	TaskTypeWelcomeEmail = "mail:welcome"
	// TaskTypeAuditPrune is the task type for trimming old audit rows.
	TaskTypeAuditPrune = "audit:prune"
	// AuditPruneCron runs the retention sweep nightly at 03:00 UTC.
	AuditPruneCron = "0 3 * * *"
)

// auditRetention is how long audit rows are kept before the sweep removes them.
const auditRetention = 90 * 24 * time.Hour

// WelcomeEmailPayload describes the information required to greet a new user.
type WelcomeEmailPayload struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// NewWelcomeEmailTask constructs an Asynq task.
func NewWelcomeEmailTask(payload WelcomeEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeWelcomeEmail, data), nil
}

// NewAuditPruneTask constructs the retention sweep task.
func NewAuditPruneTask() *asynq.Task {
	return asynq.NewTask(TaskTypeAuditPrune, nil)
}

// NewWelcomeEmailHandler returns the handler for TaskTypeWelcomeEmail tasks.
func NewWelcomeEmailHandler(logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload WelcomeEmailPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		// Placeholder until an SMTP relay is provisioned.
		logger.Info("send welcome email",
			slog.String("to", payload.Email),
			slog.String("name", payload.Name))
		return nil
	}
}

// NewAuditPruneHandler returns the handler for TaskTypeAuditPrune tasks.
func NewAuditPruneHandler(pool *pgxpool.Pool, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		cutoff := time.Now().Add(-auditRetention)
		tag, err := pool.Exec(ctx, `DELETE FROM audit_logs WHERE occurred_at < $1`, cutoff)
		if err != nil {
			return err
		}
		logger.Info("audit retention sweep",
			slog.Int64("removed", tag.RowsAffected()),
			slog.Time("cutoff", cutoff))
		return nil
	}
}
