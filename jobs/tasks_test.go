package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/hibiken/asynq"

	"github.com/covenant-hq/covenant/internal/billing"
	"github.com/covenant-hq/covenant/internal/ledger"
	"github.com/covenant-hq/covenant/internal/ledger/chart"
	"github.com/covenant-hq/covenant/internal/roster"
	_ "github.com/covenant-hq/covenant/testing"
)

type noopEngine struct{}

func (noopEngine) PostTransaction(ctx context.Context, input ledger.PostingInput) (ledger.Transaction, error) {
	return ledger.Transaction{ID: 1, Status: ledger.StatusCompleted}, nil
}

type noopChart struct{}

func (noopChart) EnsureSeeded(ctx context.Context, tenantID int64) error { return nil }
func (noopChart) FindByRole(ctx context.Context, tenantID int64, role chart.Role) (ledger.Account, error) {
	return ledger.Account{ID: 1, TenantID: tenantID}, nil
}

type noopSubledger struct{}

func (noopSubledger) ResidentBalance(ctx context.Context, tenantID, residentID int64, role chart.Role) (float64, error) {
	return 0, nil
}

type recordingPolicies struct{ calls []int64 }

func (p *recordingPolicies) Get(ctx context.Context, tenantID int64) (billing.Policy, error) {
	p.calls = append(p.calls, tenantID)
	return billing.Policy{TenantID: tenantID}, nil
}

type emptyRoster struct{}

func (emptyRoster) ListOwners(ctx context.Context, tenantID int64) ([]roster.Member, error) {
	return nil, nil
}

func (emptyRoster) GetMembers(ctx context.Context, tenantID int64, ids []int64) (map[int64]roster.Member, error) {
	return nil, nil
}

func newJobBillingService(policies *recordingPolicies) *billing.Service {
	return billing.NewService(billing.Config{
		Engine:    noopEngine{},
		Chart:     noopChart{},
		Subledger: noopSubledger{},
		Policies:  policies,
		Roster:    emptyRoster{},
	})
}

func handlerFor(t *testing.T, handlers []TaskHandler, taskType string) asynq.HandlerFunc {
	t.Helper()
	for _, h := range handlers {
		if h.Type == taskType {
			return h.Handler
		}
	}
	t.Fatalf("no handler registered for %s", taskType)
	return nil
}

func TestBillingHandlerSkipsBadPayload(t *testing.T) {
	policies := &recordingPolicies{}
	handlers := BillingHandlers(newJobBillingService(policies), nil)
	handle := handlerFor(t, handlers, TaskGenerateAssessments)

	err := handle(context.Background(), asynq.NewTask(TaskGenerateAssessments, []byte("not json")))
	if !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("expected SkipRetry, got %v", err)
	}
	if len(policies.calls) != 0 {
		t.Fatalf("service must not run on bad payload")
	}
}

func TestBillingHandlerSkipsMissingTenant(t *testing.T) {
	policies := &recordingPolicies{}
	handlers := BillingHandlers(newJobBillingService(policies), nil)
	handle := handlerFor(t, handlers, TaskAssessLateFees)

	err := handle(context.Background(), asynq.NewTask(TaskAssessLateFees, []byte(`{"tenant_id":0}`)))
	if !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("expected SkipRetry, got %v", err)
	}
}

func TestBillingHandlerRunsForTenant(t *testing.T) {
	policies := &recordingPolicies{}
	handlers := BillingHandlers(newJobBillingService(policies), nil)
	handle := handlerFor(t, handlers, TaskGenerateAssessments)

	task, err := NewGenerateAssessmentsTask(BillingPayload{TenantID: 7})
	if err != nil {
		t.Fatalf("build task: %v", err)
	}
	if err := handle(context.Background(), task); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(policies.calls) != 1 || policies.calls[0] != 7 {
		t.Fatalf("expected one run for tenant 7, got %v", policies.calls)
	}
}
