package subledger

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository aggregates journal entries per resident.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) ResidentBalance(ctx context.Context, tenantID, accountID, residentID int64) (float64, error) {
	var balance float64
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(SUM(debit - credit), 0)
FROM journal_entries WHERE tenant_id=$1 AND account_id=$2 AND resident_id=$3`,
		tenantID, accountID, residentID).Scan(&balance)
	return balance, err
}

func (r *Repository) ResidentBalances(ctx context.Context, tenantID, accountID int64) (map[int64]float64, error) {
	rows, err := r.pool.Query(ctx, `SELECT resident_id, SUM(debit - credit)
FROM journal_entries WHERE tenant_id=$1 AND account_id=$2 AND resident_id IS NOT NULL
GROUP BY resident_id`, tenantID, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	balances := make(map[int64]float64)
	for rows.Next() {
		var residentID int64
		var balance float64
		if err := rows.Scan(&residentID, &balance); err != nil {
			return nil, err
		}
		balances[residentID] = balance
	}
	return balances, rows.Err()
}
