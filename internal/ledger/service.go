package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// RepositoryPort abstracts transactional repository behaviour.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// MetricsPort records posting outcomes for observability.
type MetricsPort interface {
	ObservePosting(result string)
}

// InvalidatorPort drops derived read models after the journal changes.
type InvalidatorPort interface {
	Invalidate(ctx context.Context, tenantID int64) error
}

// Service is the ledger engine: it validates and persists balanced
// transactions and owns the payment status state machine.
type Service struct {
	repo        RepositoryPort
	metrics     MetricsPort
	invalidator InvalidatorPort
	tolerance   float64
	now         func() time.Time
}

// NewService constructs the ledger engine. The tolerance is the maximum
// allowed |debits - credits| per transaction.
func NewService(repo RepositoryPort, metrics MetricsPort, tolerance float64) *Service {
	return &Service{repo: repo, metrics: metrics, tolerance: tolerance, now: time.Now}
}

// WithNow overrides the clock for testing.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// WithInvalidator attaches a read-model invalidator notified after
// successful postings.
func (s *Service) WithInvalidator(inv InvalidatorPort) {
	s.invalidator = inv
}

func (s *Service) invalidate(ctx context.Context, tenantID int64) {
	if s.invalidator != nil {
		_ = s.invalidator.Invalidate(ctx, tenantID)
	}
}

func (s *Service) observe(result string) {
	if s.metrics != nil {
		s.metrics.ObservePosting(result)
	}
}

// PostTransaction atomically persists one transaction plus its journal
// entries. Entries are returned in input order. Corrections are never
// edits; use ReverseTransaction.
func (s *Service) PostTransaction(ctx context.Context, input PostingInput) (Transaction, error) {
	if err := input.Validate(s.tolerance); err != nil {
		if errors.Is(err, ErrUnbalanced) {
			s.observe("unbalanced")
		} else {
			s.observe("invalid")
		}
		return Transaction{}, err
	}
	var txn Transaction
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := verifyAccounts(ctx, tx, input.TenantID, input.Entries); err != nil {
			return err
		}
		date := input.Date
		if date.IsZero() {
			date = s.now()
		}
		inserted, err := tx.InsertTransaction(ctx, input.TenantID, date, input.Description, input.Reference, input.ExternalRef, StatusCompleted)
		if err != nil {
			return err
		}
		entries, err := tx.InsertEntries(ctx, inserted.ID, input.TenantID, input.Entries)
		if err != nil {
			return err
		}
		if input.Claim != nil {
			if err := tx.LinkCharge(ctx, input.TenantID, *input.Claim, inserted.ID); err != nil {
				return err
			}
		}
		inserted.Entries = entries
		txn = inserted
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidAccount):
			s.observe("invalid_account")
		case errors.Is(err, ErrCrossTenant):
			s.observe("cross_tenant")
		default:
			s.observe("error")
		}
		return Transaction{}, err
	}
	s.observe("ok")
	s.invalidate(ctx, input.TenantID)
	return txn, nil
}

// GetTransaction fetches one transaction with its entries.
func (s *Service) GetTransaction(ctx context.Context, tenantID, transactionID int64) (Transaction, error) {
	var txn Transaction
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		txn, err = tx.GetTransactionWithEntries(ctx, tenantID, transactionID)
		return err
	})
	return txn, err
}

// ListLedger returns the most recent transactions for a tenant, newest first.
func (s *Service) ListLedger(ctx context.Context, tenantID int64, limit int) ([]Transaction, error) {
	if limit <= 0 {
		limit = 50
	}
	var txns []Transaction
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		txns, err = tx.ListTransactions(ctx, tenantID, limit)
		return err
	})
	return txns, err
}

// ReverseTransaction creates a balancing transaction with flipped debit
// and credit sides. The original entries are never mutated.
func (s *Service) ReverseTransaction(ctx context.Context, input ReverseInput) (Transaction, error) {
	if input.TransactionID == 0 {
		return Transaction{}, errors.New("ledger: transaction id required")
	}
	var reversal Transaction
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		original, err := tx.GetTransactionWithEntries(ctx, input.TenantID, input.TransactionID)
		if err != nil {
			return err
		}
		if original.Status != StatusCompleted {
			return ErrInvalidStatus
		}
		memo := input.Memo
		if memo == "" {
			memo = fmt.Sprintf("Reversal of transaction %d", original.ID)
		}
		ref := fmt.Sprintf("REV-%d", original.ID)
		inserted, err := tx.InsertTransaction(ctx, input.TenantID, s.now(), memo, &ref, nil, StatusCompleted)
		if err != nil {
			return err
		}
		entries, err := tx.InsertEntries(ctx, inserted.ID, input.TenantID, flipEntries(original.Entries))
		if err != nil {
			return err
		}
		inserted.Entries = entries
		reversal = inserted
		return nil
	})
	if err != nil {
		return Transaction{}, err
	}
	s.invalidate(ctx, input.TenantID)
	return reversal, nil
}

// RecordPendingPayment creates an entry-less transaction shadowing an
// external payment that has not been confirmed yet.
func (s *Service) RecordPendingPayment(ctx context.Context, tenantID int64, externalRef, description string) (Transaction, error) {
	if externalRef == "" {
		return Transaction{}, errors.New("ledger: external reference required")
	}
	var txn Transaction
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		txn, err = tx.InsertTransaction(ctx, tenantID, s.now(), description, nil, &externalRef, StatusPending)
		return err
	})
	if err != nil {
		return Transaction{}, err
	}
	return txn, nil
}

// ResolvePayment settles a pending payment transaction: on success the
// confirmed entries are journalized and the transaction completes, on
// failure it is marked failed with no entries.
func (s *Service) ResolvePayment(ctx context.Context, tenantID int64, externalRef string, entries []EntryInput, success bool) (Transaction, error) {
	if externalRef == "" {
		return Transaction{}, errors.New("ledger: external reference required")
	}
	var txn Transaction
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		pending, err := tx.GetTransactionByExternalRef(ctx, tenantID, externalRef)
		if err != nil {
			return err
		}
		if pending.Status != StatusPending {
			return ErrInvalidStatus
		}
		if !success {
			if err := tx.UpdateTransactionStatus(ctx, tenantID, pending.ID, StatusFailed); err != nil {
				return err
			}
			pending.Status = StatusFailed
			txn = pending
			return nil
		}
		probe := PostingInput{TenantID: tenantID, Entries: entries}
		if err := probe.Validate(s.tolerance); err != nil {
			return err
		}
		if err := verifyAccounts(ctx, tx, tenantID, entries); err != nil {
			return err
		}
		inserted, err := tx.InsertEntries(ctx, pending.ID, tenantID, entries)
		if err != nil {
			return err
		}
		if err := tx.UpdateTransactionStatus(ctx, tenantID, pending.ID, StatusCompleted); err != nil {
			return err
		}
		pending.Status = StatusCompleted
		pending.Entries = inserted
		txn = pending
		return nil
	})
	if err != nil {
		return Transaction{}, err
	}
	s.observe("ok")
	s.invalidate(ctx, tenantID)
	return txn, nil
}

func verifyAccounts(ctx context.Context, tx TxRepository, tenantID int64, entries []EntryInput) error {
	ids := make([]int64, 0, len(entries))
	seen := make(map[int64]struct{}, len(entries))
	for _, entry := range entries {
		if _, ok := seen[entry.AccountID]; ok {
			continue
		}
		seen[entry.AccountID] = struct{}{}
		ids = append(ids, entry.AccountID)
	}
	accounts, err := tx.GetAccountsByID(ctx, ids)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		account, ok := accounts[entry.AccountID]
		if !ok {
			return fmt.Errorf("%w: account %d", ErrInvalidAccount, entry.AccountID)
		}
		if account.TenantID != tenantID {
			return fmt.Errorf("%w: account %d", ErrCrossTenant, entry.AccountID)
		}
	}
	return nil
}

func flipEntries(entries []JournalEntry) []EntryInput {
	out := make([]EntryInput, 0, len(entries))
	for _, entry := range entries {
		out = append(out, EntryInput{
			AccountID:   entry.AccountID,
			Debit:       entry.Credit,
			Credit:      entry.Debit,
			ResidentID:  entry.ResidentID,
			Description: entry.Description,
		})
	}
	return out
}
