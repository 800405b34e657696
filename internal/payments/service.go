// Package payments journalizes confirmed external payments. The gateway
// itself is a black box; this package only shadows its lifecycle.
package payments

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/covenant-hq/covenant/internal/ledger"
	"github.com/covenant-hq/covenant/internal/ledger/chart"
)

// EnginePort is the ledger engine surface used by the payment flow.
type EnginePort interface {
	RecordPendingPayment(ctx context.Context, tenantID int64, externalRef, description string) (ledger.Transaction, error)
	ResolvePayment(ctx context.Context, tenantID int64, externalRef string, entries []ledger.EntryInput, success bool) (ledger.Transaction, error)
}

// ChartPort resolves role accounts.
type ChartPort interface {
	FindByRole(ctx context.Context, tenantID int64, role chart.Role) (ledger.Account, error)
}

// Service tracks external payments from intent to journal entry.
type Service struct {
	engine EnginePort
	chart  ChartPort
}

// NewService constructs the payment service.
func NewService(engine EnginePort, chartSvc ChartPort) *Service {
	return &Service{engine: engine, chart: chartSvc}
}

// CreateIntent records a pending transaction shadowing a new gateway
// payment and returns the external reference handed to the gateway.
func (s *Service) CreateIntent(ctx context.Context, tenantID, residentID int64, description string) (string, error) {
	if description == "" {
		description = fmt.Sprintf("Online payment, resident %d", residentID)
	}
	externalRef := uuid.New().String()
	if _, err := s.engine.RecordPendingPayment(ctx, tenantID, externalRef, description); err != nil {
		return "", err
	}
	return externalRef, nil
}

// Confirm journalizes a confirmed payment: debit operating cash, credit
// the resident's receivable. The pending transaction completes atomically
// with its entries.
func (s *Service) Confirm(ctx context.Context, tenantID int64, externalRef string, residentID int64, amount float64) (ledger.Transaction, error) {
	if amount <= 0 {
		return ledger.Transaction{}, errors.New("payments: amount must be positive")
	}
	cash, err := s.chart.FindByRole(ctx, tenantID, chart.RoleOperatingCash)
	if err != nil {
		return ledger.Transaction{}, err
	}
	receivable, err := s.chart.FindByRole(ctx, tenantID, chart.RoleReceivable)
	if err != nil {
		return ledger.Transaction{}, err
	}
	entries := []ledger.EntryInput{
		{AccountID: cash.ID, Debit: amount, Description: "Payment received"},
		{AccountID: receivable.ID, Credit: amount, ResidentID: &residentID, Description: "Payment received"},
	}
	return s.engine.ResolvePayment(ctx, tenantID, externalRef, entries, true)
}

// Fail marks a pending payment as failed. No entries are written.
func (s *Service) Fail(ctx context.Context, tenantID int64, externalRef string) (ledger.Transaction, error) {
	return s.engine.ResolvePayment(ctx, tenantID, externalRef, nil, false)
}
