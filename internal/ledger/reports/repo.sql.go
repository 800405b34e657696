package reports

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository reads aggregated account balances for report generation.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// AccountBalances returns every account of the tenant with its debit and
// credit sums. A single query keeps each report on one consistent snapshot.
func (r *Repository) AccountBalances(ctx context.Context, tenantID int64) ([]AccountBalance, error) {
	rows, err := r.pool.Query(ctx, `SELECT a.id, a.code, a.name, a.type,
COALESCE(SUM(je.debit), 0), COALESCE(SUM(je.credit), 0)
FROM accounts a
LEFT JOIN journal_entries je ON je.account_id = a.id AND je.tenant_id = a.tenant_id
WHERE a.tenant_id = $1
GROUP BY a.id, a.code, a.name, a.type
ORDER BY a.code`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var balances []AccountBalance
	for rows.Next() {
		var b AccountBalance
		if err := rows.Scan(&b.AccountID, &b.Code, &b.Name, &b.Type, &b.Debit, &b.Credit); err != nil {
			return nil, err
		}
		balances = append(balances, b)
	}
	return balances, rows.Err()
}
