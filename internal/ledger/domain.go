package ledger

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// AccountType enumerates chart of accounts categories.
type AccountType string

const (
	AccountTypeAsset     AccountType = "ASSET"
	AccountTypeLiability AccountType = "LIABILITY"
	AccountTypeEquity    AccountType = "EQUITY"
	AccountTypeRevenue   AccountType = "REVENUE"
	AccountTypeExpense   AccountType = "EXPENSE"
)

// TransactionStatus enumerates transaction lifecycle values. Only
// transactions shadowing an external payment ever leave COMPLETED.
type TransactionStatus string

const (
	StatusPending   TransactionStatus = "PENDING"
	StatusCompleted TransactionStatus = "COMPLETED"
	StatusFailed    TransactionStatus = "FAILED"
)

// Account models a chart of accounts node scoped to a tenant.
type Account struct {
	ID        int64
	TenantID  int64
	Code      string
	Name      string
	Type      AccountType
	ParentID  *int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Transaction groups the journal entries of one financial event.
// Immutable once entries are posted, except for status.
type Transaction struct {
	ID          int64
	TenantID    int64
	Date        time.Time
	Description string
	Reference   *string
	ExternalRef *string
	Status      TransactionStatus
	CreatedAt   time.Time
	Entries     []JournalEntry
}

// JournalEntry is one debit or credit line owned by its transaction.
type JournalEntry struct {
	ID            int64
	TransactionID int64
	AccountID     int64
	TenantID      int64
	LineNo        int
	Debit         float64
	Credit        float64
	ResidentID    *int64
	Description   string
}

// EntryInput describes a journal line for a posting request.
type EntryInput struct {
	AccountID   int64
	Debit       float64
	Credit      float64
	ResidentID  *int64
	Description string
}

// ChargeClaim marks a posting as the single charge of its kind for a
// resident and billing period. The claim commits atomically with the
// transaction, so re-running a batch job cannot double-charge.
type ChargeClaim struct {
	ResidentID int64
	Period     string
	ChargeType string
}

// PostingInput groups fields required to create a transaction.
type PostingInput struct {
	TenantID    int64
	Date        time.Time
	Description string
	Reference   *string
	ExternalRef *string
	Claim       *ChargeClaim
	Entries     []EntryInput
}

// ReverseInput wraps parameters for void-by-reversal.
type ReverseInput struct {
	TenantID      int64
	TransactionID int64
	Memo          string
}

var (
	// ErrUnbalanced indicates total debits != total credits.
	ErrUnbalanced = errors.New("ledger: transaction entries must balance")
	// ErrTooFewEntries indicates less than two entries.
	ErrTooFewEntries = errors.New("ledger: transaction requires at least two entries")
	// ErrInvalidAccount indicates an entry references an unknown account.
	ErrInvalidAccount = errors.New("ledger: invalid account")
	// ErrCrossTenant indicates a reference spans tenants.
	ErrCrossTenant = errors.New("ledger: cross-tenant reference")
	// ErrTransactionNotFound indicates a missing transaction.
	ErrTransactionNotFound = errors.New("ledger: transaction not found")
	// ErrInvalidStatus indicates a disallowed status transition.
	ErrInvalidStatus = errors.New("ledger: invalid status transition")
	// ErrDuplicateExternalRef indicates the external payment reference was already journalized.
	ErrDuplicateExternalRef = errors.New("ledger: external reference already recorded")
	// ErrDuplicateCharge indicates the resident was already charged for the period.
	ErrDuplicateCharge = errors.New("ledger: charge already recorded for period")
)

// Validate ensures posting input meets minimum criteria. The tolerance is
// the maximum allowed difference between total debits and credits.
func (in PostingInput) Validate(tolerance float64) error {
	if in.TenantID == 0 {
		return errors.New("ledger: tenant required")
	}
	if len(in.Entries) < 2 {
		return ErrTooFewEntries
	}
	var debit, credit float64
	for idx, entry := range in.Entries {
		if entry.AccountID == 0 {
			return fmt.Errorf("ledger: entry %d missing account", idx)
		}
		if entry.Debit < 0 || entry.Credit < 0 {
			return fmt.Errorf("ledger: entry %d negative amount", idx)
		}
		if entry.Debit > 0 && entry.Credit > 0 {
			return fmt.Errorf("ledger: entry %d cannot be both debit and credit", idx)
		}
		debit += entry.Debit
		credit += entry.Credit
	}
	if math.Abs(debit-credit) > tolerance {
		return ErrUnbalanced
	}
	return nil
}
