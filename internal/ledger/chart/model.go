package chart

import (
	"errors"

	"github.com/covenant-hq/covenant/internal/ledger"
)

// Role is a semantic handle used to resolve well-known accounts without
// relying on fragile name matching.
type Role string

const (
	RoleOperatingCash    Role = "operating-cash"
	RoleReceivable       Role = "receivable"
	RolePayable          Role = "payable"
	RoleRetainedEarnings Role = "retained-earnings"
	RoleAssessmentIncome Role = "assessment-income"
	RoleLateFeeIncome    Role = "late-fee-income"
)

// ErrAccountNotConfigured indicates the chart is missing a required role
// mapping. Fatal to the invoking job; recoverable by re-seeding or manual
// setup.
var ErrAccountNotConfigured = errors.New("chart: account not configured for role")

type seedAccount struct {
	Code string
	Name string
	Type ledger.AccountType
	Role Role
}

// defaultChart is the chart inserted for tenants with no accounts yet.
// Role mappings are resolved once here, at seeding time.
var defaultChart = []seedAccount{
	{Code: "1000", Name: "Operating Cash", Type: ledger.AccountTypeAsset, Role: RoleOperatingCash},
	{Code: "1100", Name: "Accounts Receivable", Type: ledger.AccountTypeAsset, Role: RoleReceivable},
	{Code: "1200", Name: "Prepaid Expenses", Type: ledger.AccountTypeAsset},
	{Code: "2000", Name: "Accounts Payable", Type: ledger.AccountTypeLiability, Role: RolePayable},
	{Code: "3000", Name: "Retained Earnings", Type: ledger.AccountTypeEquity, Role: RoleRetainedEarnings},
	{Code: "4000", Name: "Assessment Income", Type: ledger.AccountTypeRevenue, Role: RoleAssessmentIncome},
	{Code: "4100", Name: "Late Fee Income", Type: ledger.AccountTypeRevenue, Role: RoleLateFeeIncome},
	{Code: "6000", Name: "Maintenance Expense", Type: ledger.AccountTypeExpense},
	{Code: "6100", Name: "Utilities Expense", Type: ledger.AccountTypeExpense},
	{Code: "6200", Name: "Administrative Expense", Type: ledger.AccountTypeExpense},
}
