package payments

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/covenant-hq/covenant/internal/ledger"
	"github.com/covenant-hq/covenant/internal/ledger/chart"
	_ "github.com/covenant-hq/covenant/testing"
)

type stubEngine struct {
	pendingRefs  []string
	pendingDescs []string

	resolvedRef     string
	resolvedEntries []ledger.EntryInput
	resolvedSuccess bool
	resolveCalls    int
}

func (e *stubEngine) RecordPendingPayment(ctx context.Context, tenantID int64, externalRef, description string) (ledger.Transaction, error) {
	e.pendingRefs = append(e.pendingRefs, externalRef)
	e.pendingDescs = append(e.pendingDescs, description)
	return ledger.Transaction{ID: 1, TenantID: tenantID, Status: ledger.StatusPending}, nil
}

func (e *stubEngine) ResolvePayment(ctx context.Context, tenantID int64, externalRef string, entries []ledger.EntryInput, success bool) (ledger.Transaction, error) {
	e.resolveCalls++
	e.resolvedRef = externalRef
	e.resolvedEntries = entries
	e.resolvedSuccess = success
	status := ledger.StatusCompleted
	if !success {
		status = ledger.StatusFailed
	}
	return ledger.Transaction{ID: 1, TenantID: tenantID, Status: status}, nil
}

type stubChart struct {
	missing map[chart.Role]bool
}

func (c stubChart) FindByRole(ctx context.Context, tenantID int64, role chart.Role) (ledger.Account, error) {
	if c.missing[role] {
		return ledger.Account{}, chart.ErrAccountNotConfigured
	}
	switch role {
	case chart.RoleOperatingCash:
		return ledger.Account{ID: 1, TenantID: tenantID}, nil
	case chart.RoleReceivable:
		return ledger.Account{ID: 2, TenantID: tenantID}, nil
	}
	return ledger.Account{ID: 9, TenantID: tenantID}, nil
}

func TestCreateIntentRecordsPendingWithFreshRef(t *testing.T) {
	engine := &stubEngine{}
	svc := NewService(engine, stubChart{})

	ref1, err := svc.CreateIntent(context.Background(), 1, 10, "March dues")
	require.NoError(t, err)
	ref2, err := svc.CreateIntent(context.Background(), 1, 10, "")
	require.NoError(t, err)

	require.NotEmpty(t, ref1)
	require.NotEqual(t, ref1, ref2)
	require.Equal(t, []string{ref1, ref2}, engine.pendingRefs)
	require.Equal(t, "March dues", engine.pendingDescs[0])
	require.Equal(t, "Online payment, resident 10", engine.pendingDescs[1])
}

func TestConfirmPostsCashAgainstReceivable(t *testing.T) {
	engine := &stubEngine{}
	svc := NewService(engine, stubChart{})

	txn, err := svc.Confirm(context.Background(), 1, "ref-1", 42, 250.00)
	require.NoError(t, err)
	require.Equal(t, ledger.StatusCompleted, txn.Status)
	require.True(t, engine.resolvedSuccess)
	require.Equal(t, "ref-1", engine.resolvedRef)

	require.Len(t, engine.resolvedEntries, 2)
	cash, receivable := engine.resolvedEntries[0], engine.resolvedEntries[1]
	require.Equal(t, int64(1), cash.AccountID)
	require.Equal(t, 250.00, cash.Debit)
	require.Equal(t, int64(2), receivable.AccountID)
	require.Equal(t, 250.00, receivable.Credit)
	require.NotNil(t, receivable.ResidentID)
	require.Equal(t, int64(42), *receivable.ResidentID)
}

func TestConfirmRejectsNonPositiveAmount(t *testing.T) {
	engine := &stubEngine{}
	svc := NewService(engine, stubChart{})

	_, err := svc.Confirm(context.Background(), 1, "ref-1", 42, 0)
	require.Error(t, err)
	require.Zero(t, engine.resolveCalls)
}

func TestConfirmPropagatesMissingRoleAccount(t *testing.T) {
	engine := &stubEngine{}
	svc := NewService(engine, stubChart{missing: map[chart.Role]bool{chart.RoleReceivable: true}})

	_, err := svc.Confirm(context.Background(), 1, "ref-1", 42, 100.00)
	require.ErrorIs(t, err, chart.ErrAccountNotConfigured)
	require.Zero(t, engine.resolveCalls)
}

func TestFailResolvesWithoutEntries(t *testing.T) {
	engine := &stubEngine{}
	svc := NewService(engine, stubChart{})

	txn, err := svc.Fail(context.Background(), 1, "ref-1")
	require.NoError(t, err)
	require.Equal(t, ledger.StatusFailed, txn.Status)
	require.False(t, engine.resolvedSuccess)
	require.Empty(t, engine.resolvedEntries)
}
