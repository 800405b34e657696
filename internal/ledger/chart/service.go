package chart

import (
	"context"
	"errors"
	"fmt"

	"github.com/covenant-hq/covenant/internal/ledger"
)

// RepositoryPort abstracts chart persistence for the service.
type RepositoryPort interface {
	CountAccounts(ctx context.Context, tenantID int64) (int, error)
	List(ctx context.Context, tenantID int64) ([]ledger.Account, error)
	Seed(ctx context.Context, tenantID int64) error
	FindByRole(ctx context.Context, tenantID int64, role Role) (ledger.Account, error)
}

// Service manages per-tenant charts of accounts.
type Service struct {
	repo RepositoryPort
}

// NewService constructs the chart registry service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// EnsureSeeded inserts the default chart when the tenant has no accounts.
// Idempotent.
func (s *Service) EnsureSeeded(ctx context.Context, tenantID int64) error {
	count, err := s.repo.CountAccounts(ctx, tenantID)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	return s.repo.Seed(ctx, tenantID)
}

// List returns the tenant's chart ordered by code.
func (s *Service) List(ctx context.Context, tenantID int64) ([]ledger.Account, error) {
	return s.repo.List(ctx, tenantID)
}

// FindByRole resolves a semantic role to an account. Returns
// ErrAccountNotConfigured when the mapping is absent.
func (s *Service) FindByRole(ctx context.Context, tenantID int64, role Role) (ledger.Account, error) {
	account, err := s.repo.FindByRole(ctx, tenantID, role)
	if err != nil {
		if errors.Is(err, ErrAccountNotConfigured) {
			return ledger.Account{}, fmt.Errorf("%w: %s", ErrAccountNotConfigured, role)
		}
		return ledger.Account{}, err
	}
	return account, nil
}
