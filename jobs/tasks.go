package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/covenant-hq/covenant/internal/billing"
)

const (
	// QueueDefault carries maintenance tasks such as the integrity scan.
	QueueDefault = "default"
	// QueueBilling carries assessment and late fee runs. It is weighted
	// above the default queue so month-start billing is not starved.
	QueueBilling = "billing"
	// TaskGenerateAssessments posts the monthly assessments for a tenant.
	TaskGenerateAssessments = "billing:generate_assessments"
	// TaskAssessLateFees charges late fees for a tenant.
	TaskAssessLateFees = "billing:assess_late_fees"
)

// BillingPayload identifies the tenant a billing task runs for.
type BillingPayload struct {
	TenantID int64 `json:"tenant_id"`
}

// NewGenerateAssessmentsTask constructs an assessment task.
func NewGenerateAssessmentsTask(payload BillingPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskGenerateAssessments, data), nil
}

// NewAssessLateFeesTask constructs a late fee task.
func NewAssessLateFeesTask(payload BillingPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAssessLateFees, data), nil
}

// BillingHandlers binds the billing tasks to the billing service.
func BillingHandlers(svc *billing.Service, logger *slog.Logger) []TaskHandler {
	if logger == nil {
		logger = slog.Default()
	}
	run := func(job string, fn func(context.Context, int64) (billing.RunResult, error)) asynq.HandlerFunc {
		return func(ctx context.Context, t *asynq.Task) error {
			var payload BillingPayload
			if err := json.Unmarshal(t.Payload(), &payload); err != nil {
				return asynq.SkipRetry
			}
			if payload.TenantID <= 0 {
				return asynq.SkipRetry
			}
			result, err := fn(ctx, payload.TenantID)
			if err != nil {
				logger.Error("billing job failed",
					slog.String("job", job),
					slog.Int64("tenant_id", payload.TenantID),
					slog.Any("error", err))
				return err
			}
			logger.Info("billing job done",
				slog.String("job", job),
				slog.Int64("tenant_id", payload.TenantID),
				slog.Int("charged", result.Charged),
				slog.Int("skipped", result.Skipped),
				slog.Int("failed", len(result.Failures)))
			return nil
		}
	}
	return []TaskHandler{
		{Type: TaskGenerateAssessments, Handler: run("generate_assessments", svc.GenerateAssessments)},
		{Type: TaskAssessLateFees, Handler: run("assess_late_fees", svc.AssessLateFees)},
	}
}
