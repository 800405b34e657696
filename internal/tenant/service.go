package tenant

import "context"

// RepositoryPort abstracts tenant persistence.
type RepositoryPort interface {
	Create(ctx context.Context, name string) (Tenant, error)
	Get(ctx context.Context, id int64) (Tenant, error)
	SetActive(ctx context.Context, id int64, active bool) error
}

// Service manages the tenant registry.
type Service struct {
	repo RepositoryPort
}

// NewService constructs the tenant service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// Provision creates a new tenant.
func (s *Service) Provision(ctx context.Context, name string) (Tenant, error) {
	return s.repo.Create(ctx, name)
}

// Get fetches one tenant.
func (s *Service) Get(ctx context.Context, id int64) (Tenant, error) {
	return s.repo.Get(ctx, id)
}

// Require resolves a tenant and rejects disabled ones. Every request path
// into the ledger core goes through this guard.
func (s *Service) Require(ctx context.Context, id int64) (Tenant, error) {
	t, err := s.repo.Get(ctx, id)
	if err != nil {
		return Tenant{}, err
	}
	if !t.Active {
		return Tenant{}, ErrDisabled
	}
	return t, nil
}

// Disable soft-disables a tenant.
func (s *Service) Disable(ctx context.Context, id int64) error {
	return s.repo.SetActive(ctx, id, false)
}

// Enable re-activates a tenant.
func (s *Service) Enable(ctx context.Context, id int64) error {
	return s.repo.SetActive(ctx, id, true)
}
