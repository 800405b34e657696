package subledger

import (
	"context"
	"errors"
	"testing"

	"github.com/covenant-hq/covenant/internal/ledger"
	"github.com/covenant-hq/covenant/internal/ledger/chart"
	"github.com/covenant-hq/covenant/internal/roster"
	_ "github.com/covenant-hq/covenant/testing"
)

type stubChart struct {
	err error
}

func (c stubChart) FindByRole(ctx context.Context, tenantID int64, role chart.Role) (ledger.Account, error) {
	if c.err != nil {
		return ledger.Account{}, c.err
	}
	return ledger.Account{ID: 2, TenantID: tenantID, Code: "1100"}, nil
}

type stubRepo struct {
	balances map[int64]float64
}

func (r stubRepo) ResidentBalance(ctx context.Context, tenantID, accountID, residentID int64) (float64, error) {
	return r.balances[residentID], nil
}

func (r stubRepo) ResidentBalances(ctx context.Context, tenantID, accountID int64) (map[int64]float64, error) {
	return r.balances, nil
}

type stubRoster struct {
	members map[int64]roster.Member
}

func (r stubRoster) ListOwners(ctx context.Context, tenantID int64) ([]roster.Member, error) {
	return nil, nil
}

func (r stubRoster) GetMembers(ctx context.Context, tenantID int64, ids []int64) (map[int64]roster.Member, error) {
	out := make(map[int64]roster.Member, len(ids))
	for _, id := range ids {
		if m, ok := r.members[id]; ok {
			out[id] = m
		}
	}
	return out, nil
}

func TestDelinquentsFiltersAndSorts(t *testing.T) {
	repo := stubRepo{balances: map[int64]float64{
		1: 250,
		2: 0,
		3: 500,
		4: -75,
		5: 250,
	}}
	members := stubRoster{members: map[int64]roster.Member{
		1: {ID: 1, DisplayName: "Avery Lindqvist", Unit: "101"},
		3: {ID: 3, DisplayName: "Sam Whitfield", Unit: "103"},
		5: {ID: 5, DisplayName: "Mateo Alvarez", Unit: "202"},
	}}
	svc := NewService(stubChart{}, repo, members)

	out, err := svc.Delinquents(context.Background(), 1, chart.RoleReceivable)
	if err != nil {
		t.Fatalf("delinquents: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("expected 3 delinquents, got %d", len(out))
	}
	if out[0].ResidentID != 3 || out[0].Balance != 500 {
		t.Fatalf("largest balance must come first: %+v", out[0])
	}
	// Equal balances break ties by resident id.
	if out[1].ResidentID != 1 || out[2].ResidentID != 5 {
		t.Fatalf("tie-break by resident id failed: %+v", out)
	}
	if out[0].DisplayName != "Sam Whitfield" || out[0].Unit != "103" {
		t.Fatalf("roster enrichment missing: %+v", out[0])
	}
}

func TestDelinquentsUnknownRosterMember(t *testing.T) {
	repo := stubRepo{balances: map[int64]float64{9: 120}}
	svc := NewService(stubChart{}, repo, stubRoster{members: map[int64]roster.Member{}})

	out, err := svc.Delinquents(context.Background(), 1, chart.RoleReceivable)
	if err != nil {
		t.Fatalf("delinquents: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected 1 delinquent, got %d", len(out))
	}
	if out[0].DisplayName != "" || out[0].Balance != 120 {
		t.Fatalf("missing roster data should leave name empty: %+v", out[0])
	}
}

func TestResidentBalancePropagatesChartError(t *testing.T) {
	svc := NewService(stubChart{err: chart.ErrAccountNotConfigured}, stubRepo{}, stubRoster{})
	_, err := svc.ResidentBalance(context.Background(), 1, 7, chart.RoleReceivable)
	if !errors.Is(err, chart.ErrAccountNotConfigured) {
		t.Fatalf("expected ErrAccountNotConfigured, got %v", err)
	}
}
