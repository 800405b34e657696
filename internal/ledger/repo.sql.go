package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists ledger entities.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes transactional operations.
type TxRepository interface {
	GetAccountsByID(ctx context.Context, ids []int64) (map[int64]Account, error)
	InsertTransaction(ctx context.Context, tenantID int64, date time.Time, description string, reference, externalRef *string, status TransactionStatus) (Transaction, error)
	InsertEntries(ctx context.Context, transactionID, tenantID int64, entries []EntryInput) ([]JournalEntry, error)
	GetTransactionWithEntries(ctx context.Context, tenantID, transactionID int64) (Transaction, error)
	GetTransactionByExternalRef(ctx context.Context, tenantID int64, externalRef string) (Transaction, error)
	UpdateTransactionStatus(ctx context.Context, tenantID, transactionID int64, status TransactionStatus) error
	ListTransactions(ctx context.Context, tenantID int64, limit int) ([]Transaction, error)
	LinkCharge(ctx context.Context, tenantID int64, claim ChargeClaim, transactionID int64) error
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx executes fn within a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("ledger repository not initialised")
	}
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	wrapper := &txRepository{tx: tx}
	if err := fn(ctx, wrapper); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

func (r *txRepository) GetAccountsByID(ctx context.Context, ids []int64) (map[int64]Account, error) {
	rows, err := r.tx.Query(ctx, `SELECT id, tenant_id, code, name, type, parent_id, created_at, updated_at
FROM accounts WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	accounts := make(map[int64]Account, len(ids))
	for rows.Next() {
		var a Account
		if err := rows.Scan(&a.ID, &a.TenantID, &a.Code, &a.Name, &a.Type, &a.ParentID, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		accounts[a.ID] = a
	}
	return accounts, rows.Err()
}

func (r *txRepository) InsertTransaction(ctx context.Context, tenantID int64, date time.Time, description string, reference, externalRef *string, status TransactionStatus) (Transaction, error) {
	row := r.tx.QueryRow(ctx, `INSERT INTO transactions (tenant_id, date, description, reference, external_ref, status)
VALUES ($1,$2,$3,$4,$5,$6) RETURNING id, created_at`, tenantID, date, description, reference, externalRef, status)
	txn := Transaction{
		TenantID:    tenantID,
		Date:        date,
		Description: description,
		Reference:   reference,
		ExternalRef: externalRef,
		Status:      status,
	}
	if err := row.Scan(&txn.ID, &txn.CreatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.ConstraintName == "uq_transactions_external_ref" {
			return Transaction{}, ErrDuplicateExternalRef
		}
		return Transaction{}, err
	}
	return txn, nil
}

func (r *txRepository) InsertEntries(ctx context.Context, transactionID, tenantID int64, entries []EntryInput) ([]JournalEntry, error) {
	out := make([]JournalEntry, 0, len(entries))
	for idx, entry := range entries {
		var id int64
		err := r.tx.QueryRow(ctx, `INSERT INTO journal_entries (transaction_id, account_id, tenant_id, line_no, debit, credit, resident_id, description)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8) RETURNING id`,
			transactionID, entry.AccountID, tenantID, idx+1, entry.Debit, entry.Credit, entry.ResidentID, entry.Description).Scan(&id)
		if err != nil {
			return nil, err
		}
		out = append(out, JournalEntry{
			ID:            id,
			TransactionID: transactionID,
			AccountID:     entry.AccountID,
			TenantID:      tenantID,
			LineNo:        idx + 1,
			Debit:         entry.Debit,
			Credit:        entry.Credit,
			ResidentID:    entry.ResidentID,
			Description:   entry.Description,
		})
	}
	return out, nil
}

func (r *txRepository) GetTransactionWithEntries(ctx context.Context, tenantID, transactionID int64) (Transaction, error) {
	txn, err := r.scanTransaction(ctx, `SELECT id, tenant_id, date, description, reference, external_ref, status, created_at
FROM transactions WHERE tenant_id=$1 AND id=$2`, tenantID, transactionID)
	if err != nil {
		return Transaction{}, err
	}
	entries, err := r.entriesFor(ctx, txn.ID)
	if err != nil {
		return Transaction{}, err
	}
	txn.Entries = entries
	return txn, nil
}

func (r *txRepository) GetTransactionByExternalRef(ctx context.Context, tenantID int64, externalRef string) (Transaction, error) {
	return r.scanTransaction(ctx, `SELECT id, tenant_id, date, description, reference, external_ref, status, created_at
FROM transactions WHERE tenant_id=$1 AND external_ref=$2`, tenantID, externalRef)
}

func (r *txRepository) scanTransaction(ctx context.Context, query string, args ...any) (Transaction, error) {
	var txn Transaction
	err := r.tx.QueryRow(ctx, query, args...).
		Scan(&txn.ID, &txn.TenantID, &txn.Date, &txn.Description, &txn.Reference, &txn.ExternalRef, &txn.Status, &txn.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Transaction{}, ErrTransactionNotFound
		}
		return Transaction{}, err
	}
	return txn, nil
}

func (r *txRepository) entriesFor(ctx context.Context, transactionID int64) ([]JournalEntry, error) {
	rows, err := r.tx.Query(ctx, `SELECT id, transaction_id, account_id, tenant_id, line_no, debit, credit, resident_id, description
FROM journal_entries WHERE transaction_id=$1 ORDER BY line_no`, transactionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []JournalEntry
	for rows.Next() {
		var e JournalEntry
		if err := rows.Scan(&e.ID, &e.TransactionID, &e.AccountID, &e.TenantID, &e.LineNo, &e.Debit, &e.Credit, &e.ResidentID, &e.Description); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *txRepository) UpdateTransactionStatus(ctx context.Context, tenantID, transactionID int64, status TransactionStatus) error {
	tag, err := r.tx.Exec(ctx, `UPDATE transactions SET status=$3 WHERE tenant_id=$1 AND id=$2`, tenantID, transactionID, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrTransactionNotFound
	}
	return nil
}

func (r *txRepository) LinkCharge(ctx context.Context, tenantID int64, claim ChargeClaim, transactionID int64) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO charge_periods (tenant_id, resident_id, period, charge_type, transaction_id)
VALUES ($1,$2,$3,$4,$5)`, tenantID, claim.ResidentID, claim.Period, claim.ChargeType, transactionID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.ConstraintName == "uq_charge_periods" {
			return ErrDuplicateCharge
		}
		return err
	}
	return nil
}

func (r *txRepository) ListTransactions(ctx context.Context, tenantID int64, limit int) ([]Transaction, error) {
	rows, err := r.tx.Query(ctx, `SELECT id, tenant_id, date, description, reference, external_ref, status, created_at
FROM transactions WHERE tenant_id=$1 ORDER BY date DESC, id DESC LIMIT $2`, tenantID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var txns []Transaction
	for rows.Next() {
		var txn Transaction
		if err := rows.Scan(&txn.ID, &txn.TenantID, &txn.Date, &txn.Description, &txn.Reference, &txn.ExternalRef, &txn.Status, &txn.CreatedAt); err != nil {
			return nil, err
		}
		txns = append(txns, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range txns {
		entries, err := r.entriesFor(ctx, txns[i].ID)
		if err != nil {
			return nil, err
		}
		txns[i].Entries = entries
	}
	return txns, nil
}
