package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/covenant-hq/covenant/internal/ledger"
	"github.com/covenant-hq/covenant/internal/ledger/chart"
	"github.com/covenant-hq/covenant/internal/roster"
)

// Charge type markers recorded with each period claim.
const (
	ChargeTypeAssessment = "ASSESSMENT"
	ChargeTypeLateFee    = "LATE_FEE"
)

// EnginePort is the ledger engine surface the billing jobs use.
type EnginePort interface {
	PostTransaction(ctx context.Context, input ledger.PostingInput) (ledger.Transaction, error)
}

// ChartPort resolves and seeds role accounts.
type ChartPort interface {
	EnsureSeeded(ctx context.Context, tenantID int64) error
	FindByRole(ctx context.Context, tenantID int64, role chart.Role) (ledger.Account, error)
}

// SubledgerPort answers per-resident receivable balances.
type SubledgerPort interface {
	ResidentBalance(ctx context.Context, tenantID, residentID int64, role chart.Role) (float64, error)
}

// PolicyPort supplies tenant billing configuration.
type PolicyPort interface {
	Get(ctx context.Context, tenantID int64) (Policy, error)
}

// MetricsPort records job outcomes.
type MetricsPort interface {
	ObserveJobRun(job, result string)
}

// Failure captures one resident the job could not charge.
type Failure struct {
	ResidentID int64  `json:"resident_id"`
	Reason     string `json:"reason"`
}

// RunResult summarises one batch run. Residents already charged for the
// period are counted as skipped, not failed.
type RunResult struct {
	Charged  int       `json:"charged"`
	Skipped  int       `json:"skipped"`
	Failures []Failure `json:"failures"`
}

// Service implements the recurring billing jobs. Each resident's charge
// commits independently, so a mid-run crash leaves a partial but valid
// ledger and the period claim makes re-runs safe.
type Service struct {
	engine           EnginePort
	chart            ChartPort
	subledger        SubledgerPort
	policies         PolicyPort
	roster           roster.Port
	metrics          MetricsPort
	logger           *slog.Logger
	lateFeeThreshold float64
	now              func() time.Time
}

// Config collects the billing service dependencies.
type Config struct {
	Engine           EnginePort
	Chart            ChartPort
	Subledger        SubledgerPort
	Policies         PolicyPort
	Roster           roster.Port
	Metrics          MetricsPort
	Logger           *slog.Logger
	LateFeeThreshold float64
}

// NewService constructs the billing service.
func NewService(cfg Config) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	threshold := cfg.LateFeeThreshold
	if threshold <= 0 {
		threshold = 10.00
	}
	return &Service{
		engine:           cfg.Engine,
		chart:            cfg.Chart,
		subledger:        cfg.Subledger,
		policies:         cfg.Policies,
		roster:           cfg.Roster,
		metrics:          cfg.Metrics,
		logger:           logger,
		lateFeeThreshold: threshold,
		now:              time.Now,
	}
}

// WithNow overrides the clock for testing.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

func (s *Service) observe(job, result string) {
	if s.metrics != nil {
		s.metrics.ObserveJobRun(job, result)
	}
}

// GenerateAssessments posts one assessment transaction per owner for the
// current billing period: debit receivable (tagged with the resident),
// credit assessment income. A missing role account aborts the whole job;
// per-resident posting failures are isolated.
func (s *Service) GenerateAssessments(ctx context.Context, tenantID int64) (RunResult, error) {
	policy, err := s.policies.Get(ctx, tenantID)
	if err != nil {
		s.observe("generate_assessments", "error")
		return RunResult{}, err
	}
	if policy.MonthlyAssessmentAmount <= 0 {
		s.observe("generate_assessments", "noop")
		return RunResult{}, nil
	}
	receivable, income, err := s.roleAccounts(ctx, tenantID, chart.RoleAssessmentIncome)
	if err != nil {
		s.observe("generate_assessments", "error")
		return RunResult{}, err
	}
	owners, err := s.roster.ListOwners(ctx, tenantID)
	if err != nil {
		s.observe("generate_assessments", "error")
		return RunResult{}, err
	}

	now := s.now()
	period := now.Format("2006-01")
	var result RunResult
	for _, owner := range owners {
		residentID := owner.ID
		input := ledger.PostingInput{
			TenantID:    tenantID,
			Date:        now,
			Description: fmt.Sprintf("Monthly assessment %s", period),
			Claim: &ledger.ChargeClaim{
				ResidentID: residentID,
				Period:     period,
				ChargeType: ChargeTypeAssessment,
			},
			Entries: []ledger.EntryInput{
				{AccountID: receivable.ID, Debit: policy.MonthlyAssessmentAmount, ResidentID: &residentID, Description: owner.DisplayName},
				{AccountID: income.ID, Credit: policy.MonthlyAssessmentAmount},
			},
		}
		if _, err := s.engine.PostTransaction(ctx, input); err != nil {
			if errors.Is(err, ledger.ErrDuplicateCharge) {
				result.Skipped++
				continue
			}
			s.logger.Warn("assessment posting failed",
				slog.Int64("tenant_id", tenantID),
				slog.Int64("resident_id", residentID),
				slog.Any("error", err))
			result.Failures = append(result.Failures, Failure{ResidentID: residentID, Reason: err.Error()})
			continue
		}
		result.Charged++
	}
	s.observe("generate_assessments", "ok")
	return result, nil
}

// AssessLateFees charges owners whose receivable balance exceeds the
// threshold, once per period, after the policy due day has passed.
func (s *Service) AssessLateFees(ctx context.Context, tenantID int64) (RunResult, error) {
	policy, err := s.policies.Get(ctx, tenantID)
	if err != nil {
		s.observe("assess_late_fees", "error")
		return RunResult{}, err
	}
	if policy.LateFeeAmount <= 0 {
		s.observe("assess_late_fees", "noop")
		return RunResult{}, nil
	}
	now := s.now()
	if policy.LateFeeDueDay > 0 && now.Day() <= policy.LateFeeDueDay {
		s.observe("assess_late_fees", "noop")
		return RunResult{}, nil
	}
	receivable, income, err := s.roleAccounts(ctx, tenantID, chart.RoleLateFeeIncome)
	if err != nil {
		s.observe("assess_late_fees", "error")
		return RunResult{}, err
	}
	owners, err := s.roster.ListOwners(ctx, tenantID)
	if err != nil {
		s.observe("assess_late_fees", "error")
		return RunResult{}, err
	}

	period := now.Format("2006-01")
	var result RunResult
	for _, owner := range owners {
		residentID := owner.ID
		balance, err := s.subledger.ResidentBalance(ctx, tenantID, residentID, chart.RoleReceivable)
		if err != nil {
			result.Failures = append(result.Failures, Failure{ResidentID: residentID, Reason: err.Error()})
			continue
		}
		if balance <= s.lateFeeThreshold {
			continue
		}
		input := ledger.PostingInput{
			TenantID:    tenantID,
			Date:        now,
			Description: fmt.Sprintf("Late fee %s", period),
			Claim: &ledger.ChargeClaim{
				ResidentID: residentID,
				Period:     period,
				ChargeType: ChargeTypeLateFee,
			},
			Entries: []ledger.EntryInput{
				{AccountID: receivable.ID, Debit: policy.LateFeeAmount, ResidentID: &residentID, Description: owner.DisplayName},
				{AccountID: income.ID, Credit: policy.LateFeeAmount},
			},
		}
		if _, err := s.engine.PostTransaction(ctx, input); err != nil {
			if errors.Is(err, ledger.ErrDuplicateCharge) {
				result.Skipped++
				continue
			}
			s.logger.Warn("late fee posting failed",
				slog.Int64("tenant_id", tenantID),
				slog.Int64("resident_id", residentID),
				slog.Any("error", err))
			result.Failures = append(result.Failures, Failure{ResidentID: residentID, Reason: err.Error()})
			continue
		}
		result.Charged++
	}
	s.observe("assess_late_fees", "ok")
	return result, nil
}

// roleAccounts resolves the receivable plus the job's income account,
// seeding the chart first. Failure here is fatal to the job.
func (s *Service) roleAccounts(ctx context.Context, tenantID int64, incomeRole chart.Role) (ledger.Account, ledger.Account, error) {
	if err := s.chart.EnsureSeeded(ctx, tenantID); err != nil {
		return ledger.Account{}, ledger.Account{}, err
	}
	receivable, err := s.chart.FindByRole(ctx, tenantID, chart.RoleReceivable)
	if err != nil {
		return ledger.Account{}, ledger.Account{}, err
	}
	income, err := s.chart.FindByRole(ctx, tenantID, incomeRole)
	if err != nil {
		return ledger.Account{}, ledger.Account{}, err
	}
	return receivable, income, nil
}
