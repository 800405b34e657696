package chart

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/covenant-hq/covenant/internal/ledger"
	_ "github.com/covenant-hq/covenant/testing"
)

type stubRepo struct {
	count    int
	countErr error
	seeds    int
	accounts map[Role]ledger.Account
}

func (r *stubRepo) CountAccounts(ctx context.Context, tenantID int64) (int, error) {
	return r.count, r.countErr
}

func (r *stubRepo) List(ctx context.Context, tenantID int64) ([]ledger.Account, error) {
	return nil, nil
}

func (r *stubRepo) Seed(ctx context.Context, tenantID int64) error {
	r.seeds++
	r.count = len(defaultChart)
	return nil
}

func (r *stubRepo) FindByRole(ctx context.Context, tenantID int64, role Role) (ledger.Account, error) {
	if a, ok := r.accounts[role]; ok {
		return a, nil
	}
	return ledger.Account{}, ErrAccountNotConfigured
}

func TestEnsureSeededSeedsEmptyTenantOnce(t *testing.T) {
	repo := &stubRepo{}
	svc := NewService(repo)

	if err := svc.EnsureSeeded(context.Background(), 1); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := svc.EnsureSeeded(context.Background(), 1); err != nil {
		t.Fatalf("second seed: %v", err)
	}
	if repo.seeds != 1 {
		t.Fatalf("expected exactly one seed, got %d", repo.seeds)
	}
}

func TestEnsureSeededSkipsPopulatedTenant(t *testing.T) {
	repo := &stubRepo{count: 3}
	svc := NewService(repo)

	if err := svc.EnsureSeeded(context.Background(), 1); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if repo.seeds != 0 {
		t.Fatalf("populated chart must not be re-seeded")
	}
}

func TestFindByRoleWrapsMissingRole(t *testing.T) {
	repo := &stubRepo{accounts: map[Role]ledger.Account{}}
	svc := NewService(repo)

	_, err := svc.FindByRole(context.Background(), 1, RoleLateFeeIncome)
	if !errors.Is(err, ErrAccountNotConfigured) {
		t.Fatalf("expected ErrAccountNotConfigured, got %v", err)
	}
	if !strings.Contains(err.Error(), string(RoleLateFeeIncome)) {
		t.Fatalf("error should name the role: %v", err)
	}
}

func TestDefaultChartCoversEveryRole(t *testing.T) {
	roles := []Role{
		RoleOperatingCash,
		RoleReceivable,
		RolePayable,
		RoleRetainedEarnings,
		RoleAssessmentIncome,
		RoleLateFeeIncome,
	}
	seen := make(map[Role]bool)
	for _, acc := range defaultChart {
		if acc.Role != "" {
			seen[acc.Role] = true
		}
	}
	for _, role := range roles {
		if !seen[role] {
			t.Fatalf("default chart missing role %s", role)
		}
	}
}
