package chart

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/covenant-hq/covenant/internal/ledger"
	"github.com/covenant-hq/covenant/internal/platform/db"
)

// Repository persists chart of accounts rows and role mappings.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CountAccounts returns the number of accounts a tenant owns.
func (r *Repository) CountAccounts(ctx context.Context, tenantID int64) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM accounts WHERE tenant_id=$1`, tenantID).Scan(&count)
	return count, err
}

// List returns a tenant's accounts ordered by code.
func (r *Repository) List(ctx context.Context, tenantID int64) ([]ledger.Account, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, tenant_id, code, name, type, parent_id, created_at, updated_at
FROM accounts WHERE tenant_id=$1 ORDER BY code`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var accounts []ledger.Account
	for rows.Next() {
		var a ledger.Account
		if err := rows.Scan(&a.ID, &a.TenantID, &a.Code, &a.Name, &a.Type, &a.ParentID, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// Seed inserts the default chart and role mappings for a tenant inside one
// transaction. Callers must have verified the tenant has no accounts.
func (r *Repository) Seed(ctx context.Context, tenantID int64) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		for _, seed := range defaultChart {
			var accountID int64
			err := tx.QueryRow(ctx, `INSERT INTO accounts (tenant_id, code, name, type)
VALUES ($1,$2,$3,$4) ON CONFLICT (tenant_id, code) DO NOTHING RETURNING id`,
				tenantID, seed.Code, seed.Name, seed.Type).Scan(&accountID)
			if err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					// Concurrent seeder won the insert; the mapping below
					// still needs the id.
					if err := tx.QueryRow(ctx, `SELECT id FROM accounts WHERE tenant_id=$1 AND code=$2`,
						tenantID, seed.Code).Scan(&accountID); err != nil {
						return err
					}
				} else {
					return err
				}
			}
			if seed.Role == "" {
				continue
			}
			if _, err := tx.Exec(ctx, `INSERT INTO account_roles (tenant_id, role, account_id)
VALUES ($1,$2,$3) ON CONFLICT (tenant_id, role) DO NOTHING`, tenantID, seed.Role, accountID); err != nil {
				return err
			}
		}
		return nil
	})
}

// FindByRole resolves a tenant's account through the role mapping.
func (r *Repository) FindByRole(ctx context.Context, tenantID int64, role Role) (ledger.Account, error) {
	var a ledger.Account
	err := r.pool.QueryRow(ctx, `SELECT a.id, a.tenant_id, a.code, a.name, a.type, a.parent_id, a.created_at, a.updated_at
FROM account_roles ar JOIN accounts a ON a.id = ar.account_id
WHERE ar.tenant_id=$1 AND ar.role=$2`, tenantID, role).
		Scan(&a.ID, &a.TenantID, &a.Code, &a.Name, &a.Type, &a.ParentID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ledger.Account{}, ErrAccountNotConfigured
		}
		return ledger.Account{}, err
	}
	return a, nil
}
