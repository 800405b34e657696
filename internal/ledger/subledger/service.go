// Package subledger attributes journal entries to residents, answering
// per-resident balance and delinquency queries straight from the journal.
package subledger

import (
	"context"
	"sort"

	"github.com/covenant-hq/covenant/internal/ledger"
	"github.com/covenant-hq/covenant/internal/ledger/chart"
	"github.com/covenant-hq/covenant/internal/roster"
)

// ChartPort resolves semantic roles to accounts.
type ChartPort interface {
	FindByRole(ctx context.Context, tenantID int64, role chart.Role) (ledger.Account, error)
}

// RepositoryPort aggregates journal entries per resident.
type RepositoryPort interface {
	ResidentBalance(ctx context.Context, tenantID, accountID, residentID int64) (float64, error)
	ResidentBalances(ctx context.Context, tenantID, accountID int64) (map[int64]float64, error)
}

// Delinquent is one resident with a positive outstanding receivable.
type Delinquent struct {
	ResidentID  int64   `json:"resident_id"`
	DisplayName string  `json:"name"`
	Unit        string  `json:"unit"`
	Balance     float64 `json:"balance"`
}

// Service answers per-resident sub-ledger queries.
type Service struct {
	chart  ChartPort
	repo   RepositoryPort
	roster roster.Port
}

// NewService constructs the sub-ledger indexer.
func NewService(chartSvc ChartPort, repo RepositoryPort, rosterSvc roster.Port) *Service {
	return &Service{chart: chartSvc, repo: repo, roster: rosterSvc}
}

// ResidentBalance sums debit minus credit over the resident's entries on
// the role account. Positive means the resident owes money.
func (s *Service) ResidentBalance(ctx context.Context, tenantID, residentID int64, role chart.Role) (float64, error) {
	account, err := s.chart.FindByRole(ctx, tenantID, role)
	if err != nil {
		return 0, err
	}
	return s.repo.ResidentBalance(ctx, tenantID, account.ID, residentID)
}

// Delinquents lists residents with a positive balance on the role account,
// sorted by balance descending with resident id as tiebreaker.
func (s *Service) Delinquents(ctx context.Context, tenantID int64, role chart.Role) ([]Delinquent, error) {
	account, err := s.chart.FindByRole(ctx, tenantID, role)
	if err != nil {
		return nil, err
	}
	balances, err := s.repo.ResidentBalances(ctx, tenantID, account.ID)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(balances))
	for id, balance := range balances {
		if balance > 0 {
			ids = append(ids, id)
		}
	}
	members, err := s.roster.GetMembers(ctx, tenantID, ids)
	if err != nil {
		return nil, err
	}
	out := make([]Delinquent, 0, len(ids))
	for _, id := range ids {
		d := Delinquent{ResidentID: id, Balance: balances[id]}
		if member, ok := members[id]; ok {
			d.DisplayName = member.DisplayName
			d.Unit = member.Unit
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Balance != out[j].Balance {
			return out[i].Balance > out[j].Balance
		}
		return out[i].ResidentID < out[j].ResidentID
	})
	return out, nil
}
