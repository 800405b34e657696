package roster

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository reads the residents table the broader application maintains.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) ListOwners(ctx context.Context, tenantID int64) ([]Member, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, tenant_id, display_name, unit, is_owner, active
FROM residents WHERE tenant_id=$1 AND is_owner AND active ORDER BY id`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var members []Member
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.ID, &m.TenantID, &m.DisplayName, &m.Unit, &m.IsOwner, &m.Active); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (r *Repository) GetMembers(ctx context.Context, tenantID int64, ids []int64) (map[int64]Member, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, tenant_id, display_name, unit, is_owner, active
FROM residents WHERE tenant_id=$1 AND id = ANY($2)`, tenantID, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	members := make(map[int64]Member, len(ids))
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.ID, &m.TenantID, &m.DisplayName, &m.Unit, &m.IsOwner, &m.Active); err != nil {
			return nil, err
		}
		members[m.ID] = m
	}
	return members, rows.Err()
}
