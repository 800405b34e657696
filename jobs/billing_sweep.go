package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Sweep tasks fan out one billing task per active tenant. The scheduler
// fires the sweep; the per-tenant tasks carry the actual work.
const (
	TaskSweepAssessments = "billing:sweep_assessments"
	TaskSweepLateFees    = "billing:sweep_late_fees"
)

// NewSweepAssessmentsTask constructs the assessment sweep task.
func NewSweepAssessmentsTask() *asynq.Task {
	return asynq.NewTask(TaskSweepAssessments, nil)
}

// NewSweepLateFeesTask constructs the late fee sweep task.
func NewSweepLateFeesTask() *asynq.Task {
	return asynq.NewTask(TaskSweepLateFees, nil)
}

// SweepHandlers returns handlers that enqueue per-tenant billing tasks for
// every active tenant.
func SweepHandlers(pool *pgxpool.Pool, client *Client, logger *slog.Logger) []TaskHandler {
	if logger == nil {
		logger = slog.Default()
	}
	sweep := func(job string, enqueue func(context.Context, BillingPayload) (*asynq.TaskInfo, error)) asynq.HandlerFunc {
		return func(ctx context.Context, t *asynq.Task) error {
			rows, err := pool.Query(ctx, `SELECT id FROM tenants WHERE active ORDER BY id`)
			if err != nil {
				return err
			}
			defer rows.Close()
			enqueued := 0
			for rows.Next() {
				var tenantID int64
				if err := rows.Scan(&tenantID); err != nil {
					return err
				}
				if _, err := enqueue(ctx, BillingPayload{TenantID: tenantID}); err != nil {
					logger.Error("sweep enqueue failed",
						slog.String("job", job),
						slog.Int64("tenant_id", tenantID),
						slog.Any("error", err))
					continue
				}
				enqueued++
			}
			if err := rows.Err(); err != nil {
				return err
			}
			logger.Info("billing sweep done", slog.String("job", job), slog.Int("enqueued", enqueued))
			return nil
		}
	}
	return []TaskHandler{
		{Type: TaskSweepAssessments, Handler: sweep("sweep_assessments", client.EnqueueGenerateAssessments)},
		{Type: TaskSweepLateFees, Handler: sweep("sweep_late_fees", client.EnqueueAssessLateFees)},
	}
}
