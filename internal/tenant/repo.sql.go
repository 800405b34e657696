package tenant

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists tenants.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Create(ctx context.Context, name string) (Tenant, error) {
	var t Tenant
	err := r.pool.QueryRow(ctx, `INSERT INTO tenants (name) VALUES ($1)
RETURNING id, name, active, created_at, updated_at`, name).
		Scan(&t.ID, &t.Name, &t.Active, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

func (r *Repository) Get(ctx context.Context, id int64) (Tenant, error) {
	var t Tenant
	err := r.pool.QueryRow(ctx, `SELECT id, name, active, created_at, updated_at
FROM tenants WHERE id=$1`, id).
		Scan(&t.ID, &t.Name, &t.Active, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Tenant{}, ErrNotFound
		}
		return Tenant{}, err
	}
	return t, nil
}

func (r *Repository) SetActive(ctx context.Context, id int64, active bool) error {
	tag, err := r.pool.Exec(ctx, `UPDATE tenants SET active=$2, updated_at=now() WHERE id=$1`, id, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
