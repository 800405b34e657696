package reports

import (
	"context"

	"github.com/covenant-hq/covenant/internal/ledger"
)

// RepositoryPort supplies aggregated balances per tenant.
type RepositoryPort interface {
	AccountBalances(ctx context.Context, tenantID int64) ([]AccountBalance, error)
}

// Service derives financial statements from the journal.
type Service struct {
	repo  RepositoryPort
	cache *Cache
}

// NewService constructs the report generator. Cache may be nil.
func NewService(repo RepositoryPort, cache *Cache) *Service {
	return &Service{repo: repo, cache: cache}
}

// AccountTypeBreakdown returns signed balances per account of one type.
func (s *Service) AccountTypeBreakdown(ctx context.Context, tenantID int64, accountType ledger.AccountType) ([]ReportItem, float64, error) {
	balances, err := s.repo.AccountBalances(ctx, tenantID)
	if err != nil {
		return nil, 0, err
	}
	items, total := BuildBreakdown(balances, accountType)
	return items, total, nil
}

// BalanceSheet derives the tenant's balance sheet.
func (s *Service) BalanceSheet(ctx context.Context, tenantID int64) (BalanceSheet, error) {
	var sheet BalanceSheet
	key, err := s.cacheKey(ctx, tenantID, "bs")
	if err != nil {
		return BalanceSheet{}, err
	}
	err = s.cache.FetchJSON(ctx, key, &sheet, func(ctx context.Context) (any, error) {
		balances, err := s.repo.AccountBalances(ctx, tenantID)
		if err != nil {
			return nil, err
		}
		return BuildBalanceSheet(balances), nil
	})
	if err != nil {
		return BalanceSheet{}, err
	}
	return sheet, nil
}

// IncomeStatement derives the tenant's income statement.
func (s *Service) IncomeStatement(ctx context.Context, tenantID int64) (IncomeStatement, error) {
	var statement IncomeStatement
	key, err := s.cacheKey(ctx, tenantID, "pl")
	if err != nil {
		return IncomeStatement{}, err
	}
	err = s.cache.FetchJSON(ctx, key, &statement, func(ctx context.Context) (any, error) {
		balances, err := s.repo.AccountBalances(ctx, tenantID)
		if err != nil {
			return nil, err
		}
		return BuildIncomeStatement(balances), nil
	})
	if err != nil {
		return IncomeStatement{}, err
	}
	return statement, nil
}

// Invalidate drops cached reports for a tenant after the journal changes.
func (s *Service) Invalidate(ctx context.Context, tenantID int64) error {
	return s.cache.Bump(ctx, tenantID)
}

func (s *Service) cacheKey(ctx context.Context, tenantID int64, report string) (string, error) {
	if s.cache == nil {
		return "", nil
	}
	return s.cache.BuildKey(ctx, tenantID, report)
}
