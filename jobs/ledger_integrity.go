package jobs

import (
	"context"
	"log/slog"
	"math"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TaskLedgerIntegrity scans every tenant's journal for drift between total
// debits and credits.
const TaskLedgerIntegrity = "ledger:integrity_scan"

// NewLedgerIntegrityTask constructs an integrity scan task.
func NewLedgerIntegrityTask() *asynq.Task {
	return asynq.NewTask(TaskLedgerIntegrity, nil)
}

// LedgerIntegrityHandler returns the handler for TaskLedgerIntegrity. The
// scan is read only; it reports drift, it does not repair it.
func LedgerIntegrityHandler(pool *pgxpool.Pool, tolerance float64, logger *slog.Logger) TaskHandler {
	if logger == nil {
		logger = slog.Default()
	}
	handler := func(ctx context.Context, t *asynq.Task) error {
		rows, err := pool.Query(ctx, `SELECT tenant_id, COALESCE(SUM(debit),0), COALESCE(SUM(credit),0)
FROM journal_entries GROUP BY tenant_id`)
		if err != nil {
			return err
		}
		defer rows.Close()
		flagged := 0
		for rows.Next() {
			var tenantID int64
			var debits, credits float64
			if err := rows.Scan(&tenantID, &debits, &credits); err != nil {
				return err
			}
			if math.Abs(debits-credits) > tolerance {
				flagged++
				logger.Error("ledger drift detected",
					slog.Int64("tenant_id", tenantID),
					slog.Float64("debits", debits),
					slog.Float64("credits", credits))
			}
		}
		if err := rows.Err(); err != nil {
			return err
		}
		logger.Info("ledger integrity scan done", slog.Int("flagged", flagged))
		return nil
	}
	return TaskHandler{Type: TaskLedgerIntegrity, Handler: handler}
}
