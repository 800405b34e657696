// Package billing runs the recurring charge jobs: monthly assessments and
// late fees.
package billing

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Policy is the tenant billing configuration consumed, not owned, by the
// billing jobs. It is maintained by the tenant configuration service.
type Policy struct {
	TenantID                int64
	MonthlyAssessmentAmount float64
	LateFeeAmount           float64
	LateFeeDueDay           int
}

// ErrPolicyNotConfigured indicates the tenant has no billing policy row.
var ErrPolicyNotConfigured = errors.New("billing: policy not configured")

// PolicyRepository reads billing policies.
type PolicyRepository struct {
	pool *pgxpool.Pool
}

// NewPolicyRepository constructs PolicyRepository.
func NewPolicyRepository(pool *pgxpool.Pool) *PolicyRepository {
	return &PolicyRepository{pool: pool}
}

// Get returns the tenant's billing policy.
func (r *PolicyRepository) Get(ctx context.Context, tenantID int64) (Policy, error) {
	var p Policy
	err := r.pool.QueryRow(ctx, `SELECT tenant_id, monthly_assessment_amount, late_fee_amount, late_fee_due_day
FROM billing_policies WHERE tenant_id=$1`, tenantID).
		Scan(&p.TenantID, &p.MonthlyAssessmentAmount, &p.LateFeeAmount, &p.LateFeeDueDay)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Policy{}, ErrPolicyNotConfigured
		}
		return Policy{}, err
	}
	return p, nil
}
