package reports

import "github.com/covenant-hq/covenant/internal/ledger"

// AccountBalance models one account with its aggregated debit and credit
// sums for a tenant.
type AccountBalance struct {
	AccountID int64
	Code      string
	Name      string
	Type      ledger.AccountType
	Debit     float64
	Credit    float64
}

// Balance applies the normal-balance sign convention: assets and expenses
// grow with debits, everything else with credits.
func (a AccountBalance) Balance() float64 {
	switch a.Type {
	case ledger.AccountTypeAsset, ledger.AccountTypeExpense:
		return a.Debit - a.Credit
	default:
		return a.Credit - a.Debit
	}
}

// minReportBalance filters rounding noise out of report lines.
const minReportBalance = 0.001

// ReportItem is one line in a breakdown section.
type ReportItem struct {
	Category string  `json:"category"`
	Amount   float64 `json:"amount"`
}
